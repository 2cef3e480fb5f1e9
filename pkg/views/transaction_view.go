package views

import (
	"time"

	"github.com/nimeshabuddhika/resilient-ledger/pkg"
	"github.com/shopspring/decimal"
)

// TransactionRequest is a mutating ledger request as admitted to the serializer.
// CallerID is never read from the wire; the auth middleware supplies it.
type TransactionRequest struct {
	Kind            pkg.TransactionKind `json:"kind" validate:"required"`
	Amount          decimal.Decimal     `json:"amount"`
	SourcePin       string              `json:"sourcePin" validate:"required"`
	SourceAccountID int64               `json:"sourceAccountId" validate:"required,gt=0"`
	DestAccountID   int64               `json:"destAccountId" validate:"required,gt=0"`
	CallerID        int64               `json:"-" validate:"required,gt=0"`
}

// TransactionReceipt is the Accepted outcome of a committed request.
type TransactionReceipt struct {
	TransactionID int64     `json:"transactionId"`
	CommittedAt   time.Time `json:"committedAt"`
}

// TransactionView is one row of an account's history.
type TransactionView struct {
	ID          int64               `json:"transactionId"`
	Kind        pkg.TransactionKind `json:"kind"`
	FromAccount *int64              `json:"fromAccount"`
	ToAccount   int64               `json:"toAccount"`
	Amount      decimal.Decimal     `json:"amount"`
	CreatedAt   time.Time           `json:"createdAt"`
}

// LedgerEvent is published once per committed transaction record.
type LedgerEvent struct {
	TransactionID int64               `json:"transactionId"`
	Kind          pkg.TransactionKind `json:"kind"`
	Reason        string              `json:"reason"` // "request" or "interest"
	FromAccount   *int64              `json:"fromAccount,omitempty"`
	ToAccount     int64               `json:"toAccount"`
	Amount        decimal.Decimal     `json:"amount"`
	CommittedAt   time.Time           `json:"committedAt"`
	TraceID       string              `json:"traceId,omitempty"`
}
