package pkg

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	HeaderTraceId       string = "X-Trace-Id"
	HeaderRequestId     string = "X-Request-Id"
	HeaderAuthorization string = "Authorization"
)

const (
	TraceId   string = "trace_id"
	RequestId string = "request_id"
	CallerId  string = "caller_id"
	Caller    string = "caller_email"
	AccountId string = "account_id"
	Ticket    string = "ticket"
)

// TransactionKind is the closed set of balance-mutating request kinds.
type TransactionKind string

const (
	TransactionDeposit  TransactionKind = "DEPOSIT"
	TransactionWithdraw TransactionKind = "WITHDRAW"
	TransactionTransfer TransactionKind = "TRANSFER"
)

// Valid reports whether k is one of the enumerated kinds.
func (k TransactionKind) Valid() bool {
	switch k {
	case TransactionDeposit, TransactionWithdraw, TransactionTransfer:
		return true
	}
	return false
}

// Debits reports whether k takes funds out of the source account.
func (k TransactionKind) Debits() bool {
	return k == TransactionWithdraw || k == TransactionTransfer
}

type AccountKind string

const (
	AccountStandard    AccountKind = "STANDARD"
	AccountTimeDeposit AccountKind = "TIME_DEPOSIT"

	// accountKindFD is the short product name clients use for time deposits.
	accountKindFD = "FD"
)

// ParseAccountKind normalises a client supplied kind. ok is false for unknown kinds.
func ParseAccountKind(s string) (AccountKind, bool) {
	switch AccountKind(strings.ToUpper(strings.TrimSpace(s))) {
	case AccountStandard:
		return AccountStandard, true
	case AccountTimeDeposit, accountKindFD:
		return AccountTimeDeposit, true
	}
	return "", false
}

// AmountScale is the number of fractional digits kept for balances and amounts.
const AmountScale int32 = 8

// MaxAmount is the exclusive upper bound of a NUMERIC(28, 8) balance or amount.
var MaxAmount = decimal.New(1, 28-AmountScale)

// SqlNumericOutOfRange is the pg error code raised when a value exceeds its column precision.
const SqlNumericOutOfRange = "22003"
