package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nimeshabuddhika/resilient-ledger/pkg"
	"github.com/nimeshabuddhika/resilient-ledger/pkg/views"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"go.uber.org/zap"
)

type registration struct {
	accountID int64
	dueAt     time.Time
	maturesAt *time.Time
}

type stubRegistrar struct {
	mu    sync.Mutex
	items []registration
}

func (r *stubRegistrar) Register(accountID int64, dueAt time.Time, maturesAt *time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, registration{accountID, dueAt, maturesAt})
	return true
}

func newAccountFixture(t *testing.T) (*bank, *stubRegistrar, *fakeClock, AccountService) {
	t.Helper()
	bk := newBank(t)
	l := bk.ledger
	reg := &stubRegistrar{}
	clock := newFakeClock(epoch)
	svc := NewAccountService(zap.NewNop(), AccountConfig{PinHashCost: bcrypt.MinCost, CompoundingPeriod: testPeriod},
		l, memAccounts{l}, memAccess{l}, memTransactions{l}, reg, clock)
	return bk, reg, clock, svc
}

func TestAccount_CreateStandard(t *testing.T) {
	bk, reg, _, svc := newAccountFixture(t)

	view, err := svc.CreateAccount(context.Background(), "t", views.CreateAccountRequest{
		Kind: "standard", InitialBalance: decimal.RequireFromString("10.5"), Pin: "4321", OwnerID: bk.ann.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, pkg.AccountStandard, view.Kind)
	assert.True(t, decimal.RequireFromString("10.5").Equal(view.Balance))
	assert.Nil(t, view.MaturesAt)
	assert.Empty(t, reg.items)
}

func TestAccount_CreateTimeDepositRegistersAccrual(t *testing.T) {
	bk, reg, _, svc := newAccountFixture(t)

	view, err := svc.CreateAccount(context.Background(), "t", views.CreateAccountRequest{
		Kind: "FD", InitialBalance: decimal.NewFromInt(1000), Pin: "4321", FdDurationSeconds: 30, OwnerID: bk.ann.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, pkg.AccountTimeDeposit, view.Kind)
	require.NotNil(t, view.MaturesAt)
	assert.Equal(t, epoch.Add(30*time.Second), *view.MaturesAt)

	require.Len(t, reg.items, 1)
	assert.Equal(t, view.ID, reg.items[0].accountID)
	assert.Equal(t, epoch.Add(testPeriod), reg.items[0].dueAt)
	assert.Equal(t, view.MaturesAt, reg.items[0].maturesAt)
}

func TestAccount_CreateRejections(t *testing.T) {
	bk, reg, _, svc := newAccountFixture(t)
	tests := []struct {
		name string
		req  views.CreateAccountRequest
	}{
		{"unknown kind", views.CreateAccountRequest{Kind: "crypto", Pin: "4321", OwnerID: bk.ann.ID}},
		{"negative balance", views.CreateAccountRequest{Kind: "STANDARD", InitialBalance: decimal.NewFromInt(-1), Pin: "4321", OwnerID: bk.ann.ID}},
		{"missing pin", views.CreateAccountRequest{Kind: "STANDARD", OwnerID: bk.ann.ID}},
		{"pin beyond bcrypt limit", views.CreateAccountRequest{Kind: "STANDARD", Pin: strings.Repeat("9", 73), OwnerID: bk.ann.ID}},
		{"tenure overflows duration", views.CreateAccountRequest{Kind: "FD", Pin: "4321", FdDurationSeconds: 9300000000, OwnerID: bk.ann.ID}},
		{"balance beyond ledger range", views.CreateAccountRequest{Kind: "STANDARD", InitialBalance: decimal.RequireFromString("100000000000000000000"), Pin: "4321", OwnerID: bk.ann.ID}},
		{"too many decimals", views.CreateAccountRequest{Kind: "STANDARD", InitialBalance: decimal.RequireFromString("1.123456789"), Pin: "4321", OwnerID: bk.ann.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateAccount(context.Background(), "t", tt.req)
			assert.True(t, pkg.IsCode(err, pkg.ErrInvalidRequestCode), "got %v", err)
		})
	}
	assert.Empty(t, reg.items)
}

func TestAccount_CreateForUnknownOwner(t *testing.T) {
	_, _, _, svc := newAccountFixture(t)

	_, err := svc.CreateAccount(context.Background(), "t", views.CreateAccountRequest{Kind: "STANDARD", Pin: "4321", OwnerID: 404})
	assert.True(t, pkg.IsCode(err, pkg.ErrSQLConflictCode), "got %v", err)
}

func TestAccount_ListAndDetails(t *testing.T) {
	bk, _, _, svc := newAccountFixture(t)
	bk.ledger.addGrant(bk.b.ID, bk.ann.ID)

	list, err := svc.ListAccounts(context.Background(), "t", bk.ann.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, bk.a.ID, list[0].ID)
	assert.Equal(t, bk.b.ID, list[1].ID)

	details, err := svc.AccountDetails(context.Background(), "t", bk.b.ID, bk.ann.ID)
	require.NoError(t, err)
	assert.Equal(t, bk.bob.ID, details.OwnerUserID)
	assert.Equal(t, "bob@example.com", details.OwnerEmail)

	_, err = svc.AccountDetails(context.Background(), "t", bk.a.ID, bk.bob.ID)
	assert.True(t, pkg.IsCode(err, pkg.ErrUnauthorizedCode))
}

func TestAccount_HistoryNewestFirst(t *testing.T) {
	bk, _, _, svc := newAccountFixture(t)
	ctx := context.Background()
	_, err := bk.executor.Execute(ctx, bk.request(pkg.TransactionTransfer, "1", bk.a.ID, bk.b.ID, "1234", bk.ann.ID))
	require.NoError(t, err)
	_, err = bk.executor.Execute(ctx, bk.request(pkg.TransactionTransfer, "2", bk.b.ID, bk.a.ID, "5678", bk.bob.ID))
	require.NoError(t, err)
	_, err = bk.executor.Execute(ctx, bk.request(pkg.TransactionWithdraw, "3", bk.b.ID, bk.b.ID, "5678", bk.bob.ID))
	require.NoError(t, err)

	history, err := svc.TransactionHistory(ctx, "t", bk.a.ID, bk.ann.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.True(t, decimal.NewFromInt(2).Equal(history[0].Amount))
	assert.True(t, decimal.NewFromInt(1).Equal(history[1].Amount))

	_, err = svc.TransactionHistory(ctx, "t", bk.a.ID, bk.bob.ID)
	assert.True(t, pkg.IsCode(err, pkg.ErrUnauthorizedCode))
}
