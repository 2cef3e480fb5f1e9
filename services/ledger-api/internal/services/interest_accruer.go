package services

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/nimeshabuddhika/resilient-ledger/pkg"
	"github.com/nimeshabuddhika/resilient-ledger/pkg/database"
	"github.com/nimeshabuddhika/resilient-ledger/pkg/models"
	"github.com/nimeshabuddhika/resilient-ledger/pkg/repositories"
	"github.com/nimeshabuddhika/resilient-ledger/pkg/views"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// InterestAccruer applies one compounding step to one account.
type InterestAccruer interface {
	Compound(ctx context.Context, accountID int64) (decimal.Decimal, error)
}

type AccruerConfig struct {
	// Rate is applied once per period regardless of period length.
	Rate    decimal.Decimal
	Timeout time.Duration
}

type InterestAccruerImpl struct {
	logger      *zap.Logger
	cfg         AccruerConfig
	db          database.Store
	accountRepo repositories.AccountRepository
	txRepo      repositories.TransactionRepository
	publisher   EventPublisher
}

func NewInterestAccruer(logger *zap.Logger, cfg AccruerConfig, db database.Store,
	accountRepo repositories.AccountRepository, txRepo repositories.TransactionRepository,
	publisher EventPublisher) *InterestAccruerImpl {
	return &InterestAccruerImpl{
		logger:      logger,
		cfg:         cfg,
		db:          db,
		accountRepo: accountRepo,
		txRepo:      txRepo,
		publisher:   publisher,
	}
}

// Compound multiplies the locked balance by (1 + rate) and records the interest as a
// DEPOSIT whose source and destination are the account. It returns the new balance.
func (a *InterestAccruerImpl) Compound(ctx context.Context, accountID int64) (decimal.Decimal, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	var (
		balance decimal.Decimal
		record  models.Transaction
	)
	err := a.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		locked, err := a.accountRepo.LockForUpdate(ctx, tx, accountID)
		if err != nil {
			return err
		}
		account, ok := locked[accountID]
		if !ok {
			return pkg.NewAppError(pkg.ErrRecordNotFoundCode, "account not found", pgx.ErrNoRows)
		}

		balance = CompoundOnce(account.Balance, a.cfg.Rate)
		interest := balance.Sub(account.Balance)
		if err = a.accountRepo.UpdateBalance(ctx, tx, accountID, balance); err != nil {
			return err
		}
		if !interest.IsPositive() {
			return nil
		}
		record, err = a.txRepo.Create(ctx, tx, models.Transaction{
			Kind:        pkg.TransactionDeposit,
			FromAccount: &account.ID,
			ToAccount:   account.ID,
			Amount:      interest,
		})
		return err
	})
	if err != nil {
		return decimal.Zero, err
	}

	if record.ID != 0 {
		a.publisher.Publish(context.WithoutCancel(ctx), views.LedgerEvent{
			TransactionID: record.ID,
			Kind:          record.Kind,
			Reason:        EventReasonInterest,
			FromAccount:   record.FromAccount,
			ToAccount:     record.ToAccount,
			Amount:        record.Amount,
			CommittedAt:   record.CreatedAt,
		})
	}
	return balance, nil
}

// CompoundOnce returns balance * (1 + rate) rounded to the stored scale.
func CompoundOnce(balance, rate decimal.Decimal) decimal.Decimal {
	return balance.Mul(decimal.NewFromInt(1).Add(rate)).Round(pkg.AmountScale)
}
