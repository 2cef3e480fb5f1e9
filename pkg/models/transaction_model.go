package models

import (
	"time"

	"github.com/nimeshabuddhika/resilient-ledger/pkg"
	"github.com/shopspring/decimal"
)

// Transaction maps to table `transactions`. Rows are append-only.
type Transaction struct {
	ID          int64
	Kind        pkg.TransactionKind
	FromAccount *int64
	ToAccount   int64
	Amount      decimal.Decimal
	CreatedAt   time.Time
}
