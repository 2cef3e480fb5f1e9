package services

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/nimeshabuddhika/resilient-ledger/pkg"
	"github.com/nimeshabuddhika/resilient-ledger/pkg/database"
	"github.com/nimeshabuddhika/resilient-ledger/pkg/models"
	"github.com/nimeshabuddhika/resilient-ledger/pkg/repositories"
	"github.com/nimeshabuddhika/resilient-ledger/pkg/utils"
	"github.com/nimeshabuddhika/resilient-ledger/pkg/views"
	"github.com/nimeshabuddhika/resilient-ledger/services/ledger-api/internal/observability"
	"go.uber.org/zap"
)

const outcomeAccepted = "ACCEPTED"

// LedgerExecutor applies one validated mutating request as a single atomic unit.
type LedgerExecutor interface {
	Execute(ctx context.Context, req views.TransactionRequest) (views.TransactionReceipt, error)
}

type ExecutorConfig struct {
	// Timeout bounds the whole unit; expiry rolls back and yields ExecutionFailed.
	Timeout time.Duration
}

type LedgerExecutorImpl struct {
	logger      *zap.Logger
	cfg         ExecutorConfig
	db          database.Store
	accountRepo repositories.AccountRepository
	accessRepo  repositories.AccessRepository
	txRepo      repositories.TransactionRepository
	publisher   EventPublisher
}

func NewLedgerExecutor(logger *zap.Logger, cfg ExecutorConfig, db database.Store,
	accountRepo repositories.AccountRepository, accessRepo repositories.AccessRepository,
	txRepo repositories.TransactionRepository, publisher EventPublisher) *LedgerExecutorImpl {
	return &LedgerExecutorImpl{
		logger:      logger,
		cfg:         cfg,
		db:          db,
		accountRepo: accountRepo,
		accessRepo:  accessRepo,
		txRepo:      txRepo,
		publisher:   publisher,
	}
}

func (e *LedgerExecutorImpl) Execute(ctx context.Context, req views.TransactionRequest) (views.TransactionReceipt, error) {
	start := time.Now()
	traceID := traceIDFrom(ctx)

	record, err := e.execute(ctx, req)

	observability.ExecutionLatency.WithLabelValues(string(req.Kind)).Observe(time.Since(start).Seconds())
	if err != nil {
		code := pkg.CodeOf(err)
		observability.TransactionOutcomes.WithLabelValues(string(req.Kind), code.Code).Inc()
		if code.Status >= 500 {
			e.logger.Error("transaction_failed", zap.String(pkg.TraceId, traceID), zap.String("kind", string(req.Kind)), zap.Error(err))
		} else {
			e.logger.Info("transaction_rejected", zap.String(pkg.TraceId, traceID), zap.String("kind", string(req.Kind)),
				zap.String("code", code.Code), zap.String("reason", err.Error()))
		}
		return views.TransactionReceipt{}, err
	}

	observability.TransactionOutcomes.WithLabelValues(string(req.Kind), outcomeAccepted).Inc()
	e.logger.Info("transaction_committed",
		zap.String(pkg.TraceId, traceID),
		zap.Int64("transaction_id", record.ID),
		zap.String("kind", string(record.Kind)),
		zap.Int64("source_account_id", req.SourceAccountID),
		zap.Int64("dest_account_id", req.DestAccountID),
		zap.String("amount", record.Amount.String()))

	e.publisher.Publish(context.WithoutCancel(ctx), views.LedgerEvent{
		TransactionID: record.ID,
		Kind:          record.Kind,
		Reason:        EventReasonRequest,
		FromAccount:   record.FromAccount,
		ToAccount:     record.ToAccount,
		Amount:        record.Amount,
		CommittedAt:   record.CreatedAt,
		TraceID:       traceID,
	})
	return views.TransactionReceipt{TransactionID: record.ID, CommittedAt: record.CreatedAt}, nil
}

// validate is the structural check; it never touches the store.
func (e *LedgerExecutorImpl) validate(req views.TransactionRequest) error {
	if err := validate.Struct(req); err != nil {
		return invalidRequest("missing or malformed fields", err)
	}
	if !req.Kind.Valid() {
		return invalidRequest("unknown transaction kind "+string(req.Kind), nil)
	}
	if !req.Amount.IsPositive() {
		return invalidRequest("amount must be positive", nil)
	}
	if !req.Amount.Equal(req.Amount.Round(pkg.AmountScale)) {
		return invalidRequest("amount has too many decimal places", nil)
	}
	if !req.Amount.LessThan(pkg.MaxAmount) {
		return invalidRequest("amount exceeds the ledger's numeric range", nil)
	}
	if req.Kind == pkg.TransactionTransfer && req.SourceAccountID == req.DestAccountID {
		return invalidRequest("cannot transfer to the source account", nil)
	}
	return nil
}

func (e *LedgerExecutorImpl) execute(ctx context.Context, req views.TransactionRequest) (models.Transaction, error) {
	if err := e.validate(req); err != nil {
		return models.Transaction{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	var record models.Transaction
	err := e.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		locked, err := e.accountRepo.LockForUpdate(ctx, tx, lockOrder(req.SourceAccountID, req.DestAccountID)...)
		if err != nil {
			return err
		}

		source, ok := locked[req.SourceAccountID]
		if !ok {
			return unauthorized("no access to source account", pkg.ErrNoAccess)
		}
		allowed, err := e.accessRepo.HasAccess(ctx, tx, source.ID, req.CallerID)
		if err != nil {
			return err
		}
		if !allowed {
			return unauthorized("no access to source account", pkg.ErrNoAccess)
		}
		if err = utils.CompareSecret(source.PinHash, req.SourcePin); err != nil {
			return unauthorized("incorrect transaction pin", pkg.ErrIncorrectPin)
		}
		dest, ok := locked[req.DestAccountID]
		if !ok {
			return invalidRequest("destination account does not exist", nil)
		}

		switch req.Kind {
		case pkg.TransactionDeposit:
			if err = e.accountRepo.UpdateBalance(ctx, tx, dest.ID, dest.Balance.Add(req.Amount)); err != nil {
				return err
			}
		case pkg.TransactionWithdraw:
			if source.Balance.LessThan(req.Amount) {
				return pkg.NewAppError(pkg.ErrInsufficientFundsCode, "insufficient funds", pkg.ErrInsufficientBalance)
			}
			if err = e.accountRepo.UpdateBalance(ctx, tx, source.ID, source.Balance.Sub(req.Amount)); err != nil {
				return err
			}
		case pkg.TransactionTransfer:
			if source.Balance.LessThan(req.Amount) {
				return pkg.NewAppError(pkg.ErrInsufficientFundsCode, "insufficient funds", pkg.ErrInsufficientBalance)
			}
			if err = e.accountRepo.UpdateBalance(ctx, tx, source.ID, source.Balance.Sub(req.Amount)); err != nil {
				return err
			}
			if err = e.accountRepo.UpdateBalance(ctx, tx, dest.ID, dest.Balance.Add(req.Amount)); err != nil {
				return err
			}
		}

		record, err = e.txRepo.Create(ctx, tx, models.Transaction{
			Kind:        req.Kind,
			FromAccount: &source.ID,
			ToAccount:   dest.ID,
			Amount:      req.Amount,
		})
		return err
	})
	if err != nil {
		var appErr pkg.AppError
		if errors.As(err, &appErr) {
			return models.Transaction{}, err
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pkg.SqlNumericOutOfRange {
			return models.Transaction{}, invalidRequest("resulting balance exceeds the ledger's numeric range", err)
		}
		return models.Transaction{}, executionFailed("transaction failed", err)
	}
	return record, nil
}

// lockOrder returns the distinct ids in ascending order so concurrent units lock rows the same way.
func lockOrder(a, b int64) []int64 {
	switch {
	case a == b:
		return []int64{a}
	case a < b:
		return []int64{a, b}
	default:
		return []int64{b, a}
	}
}
