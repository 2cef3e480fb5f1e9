package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/nimeshabuddhika/resilient-ledger/pkg"
	"github.com/nimeshabuddhika/resilient-ledger/pkg/database"
	"github.com/nimeshabuddhika/resilient-ledger/pkg/models"
	"github.com/nimeshabuddhika/resilient-ledger/pkg/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var errInjected = errors.New("injected store failure")

type grantKey struct{ accountID, userID int64 }

// memLedger is an in-memory ledger store. Transactions are serialised by txMu, which
// stands in for row locks, and rolled back by restoring a snapshot.
type memLedger struct {
	txMu sync.Mutex
	mu   sync.Mutex

	users    map[int64]models.User
	accounts map[int64]models.Account
	grants   map[grantKey]struct{}
	records  []models.Transaction

	nextUserID, nextAccountID, nextTxID int64
	failUpdateFor                       map[int64]error
	failRecord                          error
	clock                               func() time.Time
}

func newMemLedger() *memLedger {
	return &memLedger{
		users:         make(map[int64]models.User),
		accounts:      make(map[int64]models.Account),
		grants:        make(map[grantKey]struct{}),
		failUpdateFor: make(map[int64]error),
		clock:         time.Now,
	}
}

type memSnapshot struct {
	users    map[int64]models.User
	accounts map[int64]models.Account
	grants   map[grantKey]struct{}
	records  []models.Transaction
}

func (l *memLedger) snapshot() memSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := memSnapshot{
		users:    make(map[int64]models.User, len(l.users)),
		accounts: make(map[int64]models.Account, len(l.accounts)),
		grants:   make(map[grantKey]struct{}, len(l.grants)),
		records:  append([]models.Transaction(nil), l.records...),
	}
	for k, v := range l.users {
		s.users[k] = v
	}
	for k, v := range l.accounts {
		s.accounts[k] = v
	}
	for k := range l.grants {
		s.grants[k] = struct{}{}
	}
	return s
}

func (l *memLedger) restore(s memSnapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.users, l.accounts, l.grants, l.records = s.users, s.accounts, s.grants, s.records
}

func (l *memLedger) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errors.New("memLedger: raw SQL not supported")
}

func (l *memLedger) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("memLedger: raw SQL not supported")
}

func (l *memLedger) QueryRow(context.Context, string, ...any) pgx.Row {
	panic("memLedger: raw SQL not supported")
}

func (l *memLedger) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) (err error) {
	l.txMu.Lock()
	defer l.txMu.Unlock()
	if err = ctx.Err(); err != nil {
		return err
	}
	snap := l.snapshot()
	defer func() {
		if p := recover(); p != nil {
			l.restore(snap)
			panic(p)
		}
		if err != nil {
			l.restore(snap)
		}
	}()
	return fn(ctx, nil)
}

// fixtures

func (l *memLedger) addUser(t *testing.T, username, email, password string) models.User {
	t.Helper()
	hash, err := utils.HashSecret(password, bcrypt.MinCost)
	require.NoError(t, err)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextUserID++
	u := models.User{ID: l.nextUserID, Username: username, Email: email, PasswordHash: hash, CreatedAt: l.clock()}
	l.users[u.ID] = u
	return u
}

func (l *memLedger) addAccount(t *testing.T, ownerID int64, kind pkg.AccountKind, balance, pin string) models.Account {
	t.Helper()
	hash, err := utils.HashSecret(pin, bcrypt.MinCost)
	require.NoError(t, err)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextAccountID++
	a := models.Account{
		ID:          l.nextAccountID,
		Kind:        kind,
		OwnerUserID: ownerID,
		Balance:     decimal.RequireFromString(balance),
		PinHash:     hash,
		CreatedAt:   l.clock(),
	}
	l.accounts[a.ID] = a
	return a
}

func (l *memLedger) addGrant(accountID, userID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.grants[grantKey{accountID, userID}] = struct{}{}
}

func (l *memLedger) balance(id int64) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.accounts[id].Balance
}

func (l *memLedger) transactions() []models.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.Transaction(nil), l.records...)
}

func (l *memLedger) hasGrant(accountID, userID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.grants[grantKey{accountID, userID}]
	return ok
}

// repository adapters

type memAccounts struct{ l *memLedger }

func (r memAccounts) Create(_ context.Context, _ database.Querier, a models.Account) (models.Account, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	if _, ok := r.l.users[a.OwnerUserID]; !ok {
		return models.Account{}, &pgconn.PgError{Code: "23503", Message: "owner does not exist"}
	}
	r.l.nextAccountID++
	a.ID = r.l.nextAccountID
	a.CreatedAt = r.l.clock()
	a.UpdatedAt = a.CreatedAt
	r.l.accounts[a.ID] = a
	return a, nil
}

func (r memAccounts) FindById(_ context.Context, _ database.Querier, id int64) (models.Account, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	a, ok := r.l.accounts[id]
	if !ok {
		return models.Account{}, pgx.ErrNoRows
	}
	return a, nil
}

func (r memAccounts) LockForUpdate(_ context.Context, _ pgx.Tx, ids ...int64) (map[int64]models.Account, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	out := make(map[int64]models.Account, len(ids))
	for _, id := range ids {
		if a, ok := r.l.accounts[id]; ok {
			out[id] = a
		}
	}
	return out, nil
}

func (r memAccounts) UpdateBalance(_ context.Context, _ pgx.Tx, id int64, balance decimal.Decimal) error {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	if err := r.l.failUpdateFor[id]; err != nil {
		return err
	}
	a, ok := r.l.accounts[id]
	if !ok {
		return pgx.ErrNoRows
	}
	if balance.IsNegative() {
		return &pgconn.PgError{Code: "23514", Message: "balance check violated"}
	}
	if !balance.LessThan(pkg.MaxAmount) {
		return &pgconn.PgError{Code: pkg.SqlNumericOutOfRange, Message: "numeric field overflow"}
	}
	a.Balance = balance
	a.UpdatedAt = r.l.clock()
	r.l.accounts[id] = a
	return nil
}

func (r memAccounts) FindDetails(_ context.Context, _ database.Querier, id int64) (models.AccountDetails, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	a, ok := r.l.accounts[id]
	if !ok {
		return models.AccountDetails{}, pgx.ErrNoRows
	}
	return models.AccountDetails{Account: a, OwnerEmail: r.l.users[a.OwnerUserID].Email}, nil
}

func (r memAccounts) ListAccessible(_ context.Context, _ database.Querier, userID int64) ([]models.Account, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	var out []models.Account
	for id, a := range r.l.accounts {
		if _, granted := r.l.grants[grantKey{id, userID}]; a.OwnerUserID == userID || granted {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memAccounts) ListActiveTimeDeposits(_ context.Context, _ database.Querier, now time.Time) ([]models.Account, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	var out []models.Account
	for _, a := range r.l.accounts {
		if a.IsTimeDeposit() && (a.MaturesAt == nil || a.MaturesAt.After(now)) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memAccess struct{ l *memLedger }

func (r memAccess) HasAccess(_ context.Context, _ database.Querier, accountID, userID int64) (bool, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	a, ok := r.l.accounts[accountID]
	if !ok {
		return false, nil
	}
	_, granted := r.l.grants[grantKey{accountID, userID}]
	return a.OwnerUserID == userID || granted, nil
}

func (r memAccess) Grant(_ context.Context, _ database.Querier, accountID, userID int64) error {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	r.l.grants[grantKey{accountID, userID}] = struct{}{}
	return nil
}

func (r memAccess) Revoke(_ context.Context, _ database.Querier, accountID, userID int64) (bool, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	k := grantKey{accountID, userID}
	_, ok := r.l.grants[k]
	delete(r.l.grants, k)
	return ok, nil
}

func (r memAccess) ListGrantees(_ context.Context, _ database.Querier, accountID int64) ([]models.User, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	a, ok := r.l.accounts[accountID]
	if !ok {
		return nil, nil
	}
	out := []models.User{r.l.users[a.OwnerUserID]}
	for k := range r.l.grants {
		if k.accountID == accountID && k.userID != a.OwnerUserID {
			out = append(out, r.l.users[k.userID])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

type memUsers struct{ l *memLedger }

func (r memUsers) Create(_ context.Context, _ database.Querier, u models.User) (models.User, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	for _, existing := range r.l.users {
		if existing.Email == u.Email {
			return models.User{}, &pgconn.PgError{Code: "23505", Message: "duplicate email"}
		}
	}
	r.l.nextUserID++
	u.ID = r.l.nextUserID
	u.CreatedAt = r.l.clock()
	r.l.users[u.ID] = u
	return u, nil
}

func (r memUsers) FindByEmail(_ context.Context, _ database.Querier, email string) (models.User, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	for _, u := range r.l.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, pgx.ErrNoRows
}

func (r memUsers) FindById(_ context.Context, _ database.Querier, id int64) (models.User, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	u, ok := r.l.users[id]
	if !ok {
		return models.User{}, pgx.ErrNoRows
	}
	return u, nil
}

type memTransactions struct{ l *memLedger }

func (r memTransactions) Create(_ context.Context, _ pgx.Tx, rec models.Transaction) (models.Transaction, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	if r.l.failRecord != nil {
		return models.Transaction{}, r.l.failRecord
	}
	if !rec.Amount.IsPositive() {
		return models.Transaction{}, fmt.Errorf("amount check violated: %s", rec.Amount)
	}
	r.l.nextTxID++
	rec.ID = r.l.nextTxID
	rec.CreatedAt = r.l.clock()
	r.l.records = append(r.l.records, rec)
	return rec, nil
}

func (r memTransactions) ListByAccount(_ context.Context, _ database.Querier, accountID int64) ([]models.Transaction, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	var out []models.Transaction
	for i := len(r.l.records) - 1; i >= 0; i-- {
		rec := r.l.records[i]
		if rec.ToAccount == accountID || (rec.FromAccount != nil && *rec.FromAccount == accountID) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// fakeClock only moves when Advance is called.
type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	waiters []fakeWaiter
}

type fakeWaiter struct {
	deadline time.Time
	ch       chan time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Until(t time.Time) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan time.Time, 1)
	if !t.After(c.now) {
		ch <- c.now
		return ch
	}
	c.waiters = append(c.waiters, fakeWaiter{deadline: t, ch: ch})
	return ch
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	pending := c.waiters[:0]
	for _, w := range c.waiters {
		if !w.deadline.After(c.now) {
			w.ch <- c.now
			continue
		}
		pending = append(pending, w)
	}
	c.waiters = pending
}
