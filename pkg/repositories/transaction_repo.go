package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/nimeshabuddhika/resilient-ledger/pkg/database"
	"github.com/nimeshabuddhika/resilient-ledger/pkg/models"
)

// TransactionRepository appends and reads the immutable transaction log.
type TransactionRepository interface {
	// Create appends a record inside the caller's transaction and returns it with id and timestamp.
	Create(ctx context.Context, tx pgx.Tx, record models.Transaction) (models.Transaction, error)
	// ListByAccount lists records where the account is source or destination, newest first.
	ListByAccount(ctx context.Context, q database.Querier, accountID int64) ([]models.Transaction, error)
}

type TransactionRepositoryImpl struct {
}

func NewTransactionRepository() TransactionRepository {
	return &TransactionRepositoryImpl{}
}

func (t TransactionRepositoryImpl) Create(ctx context.Context, tx pgx.Tx, record models.Transaction) (models.Transaction, error) {
	err := tx.QueryRow(ctx, `INSERT INTO transactions (kind, from_account, to_account, amount)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		record.Kind, record.FromAccount, record.ToAccount, record.Amount,
	).Scan(&record.ID, &record.CreatedAt)
	return record, err
}

func (t TransactionRepositoryImpl) ListByAccount(ctx context.Context, q database.Querier, accountID int64) ([]models.Transaction, error) {
	rows, err := q.Query(ctx, `SELECT id, kind, from_account, to_account, amount, created_at
		FROM transactions
		WHERE from_account = $1 OR to_account = $1
		ORDER BY created_at DESC, id DESC`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []models.Transaction
	for rows.Next() {
		var record models.Transaction
		if err = rows.Scan(&record.ID, &record.Kind, &record.FromAccount, &record.ToAccount, &record.Amount, &record.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
