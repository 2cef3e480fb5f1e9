package views

import (
	"time"

	"github.com/nimeshabuddhika/resilient-ledger/pkg"
	"github.com/shopspring/decimal"
)

// CreateAccountRequest opens an account for the caller. FdDurationSeconds sets the tenure of a time deposit,
// capped at 100 years so the tenure always fits a time.Duration. Pin is any non-empty secret within bcrypt's limit.
type CreateAccountRequest struct {
	Kind              string          `json:"kind" validate:"required"`
	InitialBalance    decimal.Decimal `json:"initialBalance"`
	Pin               string          `json:"pin" validate:"required,max=72"`
	FdDurationSeconds int64           `json:"fdDurationSeconds" validate:"gte=0,max=3153600000"`
	OwnerID           int64           `json:"-" validate:"required,gt=0"`
}

type AccountView struct {
	ID        int64           `json:"accountId"`
	Kind      pkg.AccountKind `json:"kind"`
	Balance   decimal.Decimal `json:"balance"`
	MaturesAt *time.Time      `json:"maturesAt,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

type AccountDetailsView struct {
	AccountView
	OwnerUserID int64  `json:"ownerUserId"`
	OwnerEmail  string `json:"ownerEmail"`
}
