package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/nimeshabuddhika/resilient-ledger/pkg/database"
	"github.com/nimeshabuddhika/resilient-ledger/pkg/models"
	"github.com/shopspring/decimal"
)

const accountColumns = `id, kind, owner_user_id, balance, pin_hash, matures_at, created_at, updated_at`

// AccountRepository defines the interface for account repository.
type AccountRepository interface {
	// Create creates a new account and returns it with its generated key and timestamps.
	Create(ctx context.Context, q database.Querier, account models.Account) (models.Account, error)
	// FindById finds an account by ID.
	FindById(ctx context.Context, q database.Querier, accountID int64) (models.Account, error)
	// LockForUpdate row-locks the given accounts in ascending id order and returns the ones that exist.
	// It must run inside a transaction; the locks are held until commit or rollback.
	LockForUpdate(ctx context.Context, tx pgx.Tx, accountIDs ...int64) (map[int64]models.Account, error)
	// UpdateBalance overwrites the balance of a locked account.
	UpdateBalance(ctx context.Context, tx pgx.Tx, accountID int64, balance decimal.Decimal) error
	// FindDetails returns the account joined with the owner's email.
	FindDetails(ctx context.Context, q database.Querier, accountID int64) (models.AccountDetails, error)
	// ListAccessible lists accounts owned by or granted to userID.
	ListAccessible(ctx context.Context, q database.Querier, userID int64) ([]models.Account, error)
	// ListActiveTimeDeposits lists time deposits that have not matured at now.
	ListActiveTimeDeposits(ctx context.Context, q database.Querier, now time.Time) ([]models.Account, error)
}

type AccountRepositoryImpl struct {
}

func NewAccountRepository() AccountRepository {
	return &AccountRepositoryImpl{}
}

func (a AccountRepositoryImpl) Create(ctx context.Context, q database.Querier, account models.Account) (models.Account, error) {
	err := q.QueryRow(ctx, `INSERT INTO accounts (kind, owner_user_id, balance, pin_hash, matures_at) 
		VALUES ($1, $2, $3, $4, $5) 
		RETURNING id, created_at, updated_at`,
		account.Kind, account.OwnerUserID, account.Balance, account.PinHash, account.MaturesAt,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
	return account, err
}

func (a AccountRepositoryImpl) FindById(ctx context.Context, q database.Querier, accountID int64) (models.Account, error) {
	if accountID <= 0 {
		return models.Account{}, fmt.Errorf("invalid account ID: %d", accountID)
	}
	return scanAccount(q.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, accountID))
}

func (a AccountRepositoryImpl) LockForUpdate(ctx context.Context, tx pgx.Tx, accountIDs ...int64) (map[int64]models.Account, error) {
	rows, err := tx.Query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ANY($1) ORDER BY id FOR UPDATE`, accountIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	locked := make(map[int64]models.Account, len(accountIDs))
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		locked[account.ID] = account
	}
	return locked, rows.Err()
}

func (a AccountRepositoryImpl) UpdateBalance(ctx context.Context, tx pgx.Tx, accountID int64, balance decimal.Decimal) error {
	tag, err := tx.Exec(ctx, `UPDATE accounts SET balance = $1, updated_at = NOW() WHERE id = $2`, balance, accountID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return pgx.ErrNoRows
	}
	return nil
}

func (a AccountRepositoryImpl) FindDetails(ctx context.Context, q database.Querier, accountID int64) (models.AccountDetails, error) {
	var d models.AccountDetails
	err := q.QueryRow(ctx, `SELECT a.id, a.kind, a.owner_user_id, a.balance, a.pin_hash, a.matures_at, a.created_at, a.updated_at, u.email
		FROM accounts a JOIN users u ON u.id = a.owner_user_id
		WHERE a.id = $1`, accountID).Scan(
		&d.ID, &d.Kind, &d.OwnerUserID, &d.Balance, &d.PinHash, &d.MaturesAt, &d.CreatedAt, &d.UpdatedAt, &d.OwnerEmail)
	return d, err
}

func (a AccountRepositoryImpl) ListAccessible(ctx context.Context, q database.Querier, userID int64) ([]models.Account, error) {
	rows, err := q.Query(ctx, `SELECT `+accountColumns+` FROM accounts
		WHERE owner_user_id = $1
		   OR id IN (SELECT account_id FROM user_account_links WHERE user_id = $1)
		ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	return collectAccounts(rows)
}

func (a AccountRepositoryImpl) ListActiveTimeDeposits(ctx context.Context, q database.Querier, now time.Time) ([]models.Account, error) {
	rows, err := q.Query(ctx, `SELECT `+accountColumns+` FROM accounts
		WHERE kind = 'TIME_DEPOSIT' AND (matures_at IS NULL OR matures_at > $1)
		ORDER BY id`, now)
	if err != nil {
		return nil, err
	}
	return collectAccounts(rows)
}

func scanAccount(row pgx.Row) (models.Account, error) {
	var account models.Account
	err := row.Scan(&account.ID, &account.Kind, &account.OwnerUserID, &account.Balance, &account.PinHash,
		&account.MaturesAt, &account.CreatedAt, &account.UpdatedAt)
	return account, err
}

func collectAccounts(rows pgx.Rows) ([]models.Account, error) {
	defer rows.Close()
	var accounts []models.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}
