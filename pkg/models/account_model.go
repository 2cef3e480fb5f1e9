package models

import (
	"time"

	"github.com/nimeshabuddhika/resilient-ledger/pkg"
	"github.com/shopspring/decimal"
)

// Account maps to table `accounts`
type Account struct {
	ID          int64
	Kind        pkg.AccountKind
	OwnerUserID int64
	Balance     decimal.Decimal
	PinHash     string
	MaturesAt   *time.Time // time deposits only
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsTimeDeposit reports whether the account accrues interest.
func (a Account) IsTimeDeposit() bool {
	return a.Kind == pkg.AccountTimeDeposit
}

// AccountDetails is an Account joined with its owner's contact address.
type AccountDetails struct {
	Account
	OwnerEmail string
}

// AccessGrant maps to table `user_account_links`
type AccessGrant struct {
	UserID    int64
	AccountID int64
	CreatedAt time.Time
}
