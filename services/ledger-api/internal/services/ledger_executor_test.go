package services

import (
	"context"
	"testing"
	"time"

	"github.com/nimeshabuddhika/resilient-ledger/pkg"
	"github.com/nimeshabuddhika/resilient-ledger/pkg/models"
	"github.com/nimeshabuddhika/resilient-ledger/pkg/views"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type bank struct {
	ledger   *memLedger
	ann, bob models.User
	a, b     models.Account
	executor *LedgerExecutorImpl
}

// newBank seeds ann with account A (100, pin 1234) and bob with account B (50, pin 5678).
func newBank(t *testing.T) *bank {
	t.Helper()
	l := newMemLedger()
	bk := &bank{ledger: l}
	bk.ann = l.addUser(t, "ann", "ann@example.com", "password123")
	bk.bob = l.addUser(t, "bob", "bob@example.com", "password123")
	bk.a = l.addAccount(t, bk.ann.ID, pkg.AccountStandard, "100", "1234")
	bk.b = l.addAccount(t, bk.bob.ID, pkg.AccountStandard, "50", "5678")
	bk.executor = NewLedgerExecutor(zap.NewNop(), ExecutorConfig{Timeout: time.Second}, l,
		memAccounts{l}, memAccess{l}, memTransactions{l}, NewNoopEventPublisher(zap.NewNop()))
	return bk
}

func (bk *bank) request(kind pkg.TransactionKind, amount string, src, dst int64, pin string, caller int64) views.TransactionRequest {
	return views.TransactionRequest{
		Kind:            kind,
		Amount:          decimal.RequireFromString(amount),
		SourcePin:       pin,
		SourceAccountID: src,
		DestAccountID:   dst,
		CallerID:        caller,
	}
}

func (bk *bank) assertBalances(t *testing.T, a, b string) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(a).Equal(bk.ledger.balance(bk.a.ID)), "A: want %s got %s", a, bk.ledger.balance(bk.a.ID))
	assert.True(t, decimal.RequireFromString(b).Equal(bk.ledger.balance(bk.b.ID)), "B: want %s got %s", b, bk.ledger.balance(bk.b.ID))
}

func TestExecutor_TransferThenOverdraw(t *testing.T) {
	bk := newBank(t)
	ctx := context.Background()

	receipt, err := bk.executor.Execute(ctx, bk.request(pkg.TransactionTransfer, "30", bk.a.ID, bk.b.ID, "1234", bk.ann.ID))
	require.NoError(t, err)
	assert.NotZero(t, receipt.TransactionID)
	bk.assertBalances(t, "70", "80")

	records := bk.ledger.transactions()
	require.Len(t, records, 1)
	assert.Equal(t, pkg.TransactionTransfer, records[0].Kind)
	assert.Equal(t, bk.a.ID, *records[0].FromAccount)
	assert.Equal(t, bk.b.ID, records[0].ToAccount)
	assert.True(t, decimal.NewFromInt(30).Equal(records[0].Amount))

	_, err = bk.executor.Execute(ctx, bk.request(pkg.TransactionWithdraw, "1000", bk.a.ID, bk.a.ID, "1234", bk.ann.ID))
	assert.True(t, pkg.IsCode(err, pkg.ErrInsufficientFundsCode), "got %v", err)
	bk.assertBalances(t, "70", "80")
	assert.Len(t, bk.ledger.transactions(), 1)
}

func TestExecutor_DepositCreditsDestination(t *testing.T) {
	bk := newBank(t)

	_, err := bk.executor.Execute(context.Background(), bk.request(pkg.TransactionDeposit, "12.5", bk.a.ID, bk.b.ID, "1234", bk.ann.ID))
	require.NoError(t, err)
	bk.assertBalances(t, "100", "62.5")

	records := bk.ledger.transactions()
	require.Len(t, records, 1)
	assert.Equal(t, bk.a.ID, *records[0].FromAccount)
	assert.Equal(t, bk.b.ID, records[0].ToAccount)
}

func TestExecutor_WithdrawExactBalance(t *testing.T) {
	bk := newBank(t)

	_, err := bk.executor.Execute(context.Background(), bk.request(pkg.TransactionWithdraw, "100", bk.a.ID, bk.a.ID, "1234", bk.ann.ID))
	require.NoError(t, err)
	bk.assertBalances(t, "0", "50")
}

func TestExecutor_Rejections(t *testing.T) {
	bk := newBank(t)
	tests := []struct {
		name string
		req  views.TransactionRequest
		code pkg.ErrorCode
	}{
		{"unknown kind", bk.request("REFUND", "1", bk.a.ID, bk.b.ID, "1234", bk.ann.ID), pkg.ErrInvalidRequestCode},
		{"zero amount", bk.request(pkg.TransactionDeposit, "0", bk.a.ID, bk.b.ID, "1234", bk.ann.ID), pkg.ErrInvalidRequestCode},
		{"negative amount", bk.request(pkg.TransactionWithdraw, "-5", bk.a.ID, bk.a.ID, "1234", bk.ann.ID), pkg.ErrInvalidRequestCode},
		{"too many decimals", bk.request(pkg.TransactionDeposit, "0.000000001", bk.a.ID, bk.b.ID, "1234", bk.ann.ID), pkg.ErrInvalidRequestCode},
		{"amount beyond ledger range", bk.request(pkg.TransactionDeposit, "100000000000000000000", bk.a.ID, bk.b.ID, "1234", bk.ann.ID), pkg.ErrInvalidRequestCode},
		{"missing pin", bk.request(pkg.TransactionDeposit, "1", bk.a.ID, bk.b.ID, "", bk.ann.ID), pkg.ErrInvalidRequestCode},
		{"missing destination", bk.request(pkg.TransactionDeposit, "1", bk.a.ID, 0, "1234", bk.ann.ID), pkg.ErrInvalidRequestCode},
		{"self transfer", bk.request(pkg.TransactionTransfer, "1", bk.a.ID, bk.a.ID, "1234", bk.ann.ID), pkg.ErrInvalidRequestCode},
		{"unknown destination", bk.request(pkg.TransactionTransfer, "1", bk.a.ID, 999, "1234", bk.ann.ID), pkg.ErrInvalidRequestCode},
		{"unknown source", bk.request(pkg.TransactionTransfer, "1", 999, bk.b.ID, "1234", bk.ann.ID), pkg.ErrUnauthorizedCode},
		{"caller without access", bk.request(pkg.TransactionTransfer, "1", bk.a.ID, bk.b.ID, "1234", bk.bob.ID), pkg.ErrUnauthorizedCode},
		{"wrong pin", bk.request(pkg.TransactionWithdraw, "1", bk.a.ID, bk.a.ID, "0000", bk.ann.ID), pkg.ErrUnauthorizedCode},
		{"wrong pin is checked before destination", bk.request(pkg.TransactionTransfer, "1", bk.a.ID, 999, "0000", bk.ann.ID), pkg.ErrUnauthorizedCode},
		{"insufficient transfer", bk.request(pkg.TransactionTransfer, "100.01", bk.a.ID, bk.b.ID, "1234", bk.ann.ID), pkg.ErrInsufficientFundsCode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := bk.executor.Execute(context.Background(), tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.code.Code, pkg.CodeOf(err).Code, "got %v", err)
		})
	}
	bk.assertBalances(t, "100", "50")
	assert.Empty(t, bk.ledger.transactions())
}

func TestExecutor_GranteeActsWithOwnerPin(t *testing.T) {
	bk := newBank(t)
	bk.ledger.addGrant(bk.a.ID, bk.bob.ID)

	_, err := bk.executor.Execute(context.Background(), bk.request(pkg.TransactionTransfer, "10", bk.a.ID, bk.b.ID, "1234", bk.bob.ID))
	require.NoError(t, err)
	bk.assertBalances(t, "90", "60")

	_, err = bk.executor.Execute(context.Background(), bk.request(pkg.TransactionTransfer, "10", bk.a.ID, bk.b.ID, "5678", bk.bob.ID))
	assert.True(t, pkg.IsCode(err, pkg.ErrUnauthorizedCode))
}

func TestExecutor_FailureMidUnitLeavesNoPartialEffect(t *testing.T) {
	bk := newBank(t)
	bk.ledger.failUpdateFor[bk.b.ID] = errInjected

	_, err := bk.executor.Execute(context.Background(), bk.request(pkg.TransactionTransfer, "30", bk.a.ID, bk.b.ID, "1234", bk.ann.ID))
	assert.True(t, pkg.IsCode(err, pkg.ErrExecutionFailedCode), "got %v", err)
	assert.ErrorIs(t, err, errInjected)
	bk.assertBalances(t, "100", "50")
	assert.Empty(t, bk.ledger.transactions())
}

func TestExecutor_BalanceOverflowIsInvalidRequest(t *testing.T) {
	bk := newBank(t)

	_, err := bk.executor.Execute(context.Background(), bk.request(pkg.TransactionDeposit, "99999999999999999999.9", bk.a.ID, bk.b.ID, "1234", bk.ann.ID))
	assert.True(t, pkg.IsCode(err, pkg.ErrInvalidRequestCode), "got %v", err)
	bk.assertBalances(t, "100", "50")
	assert.Empty(t, bk.ledger.transactions())
}

func TestExecutor_RecordFailureRollsBackBalances(t *testing.T) {
	bk := newBank(t)
	bk.ledger.failRecord = errInjected

	_, err := bk.executor.Execute(context.Background(), bk.request(pkg.TransactionTransfer, "30", bk.a.ID, bk.b.ID, "1234", bk.ann.ID))
	assert.True(t, pkg.IsCode(err, pkg.ErrExecutionFailedCode))
	bk.assertBalances(t, "100", "50")
}

func TestExecutor_CancelledContextIsExecutionFailed(t *testing.T) {
	bk := newBank(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := bk.executor.Execute(ctx, bk.request(pkg.TransactionDeposit, "1", bk.a.ID, bk.b.ID, "1234", bk.ann.ID))
	assert.True(t, pkg.IsCode(err, pkg.ErrExecutionFailedCode))
	bk.assertBalances(t, "100", "50")
}

func TestLockOrder(t *testing.T) {
	assert.Equal(t, []int64{3}, lockOrder(3, 3))
	assert.Equal(t, []int64{2, 5}, lockOrder(2, 5))
	assert.Equal(t, []int64{2, 5}, lockOrder(5, 2))
}
