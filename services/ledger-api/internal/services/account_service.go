package services

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/nimeshabuddhika/resilient-ledger/pkg"
	"github.com/nimeshabuddhika/resilient-ledger/pkg/database"
	"github.com/nimeshabuddhika/resilient-ledger/pkg/models"
	"github.com/nimeshabuddhika/resilient-ledger/pkg/repositories"
	"github.com/nimeshabuddhika/resilient-ledger/pkg/utils"
	"github.com/nimeshabuddhika/resilient-ledger/pkg/views"
	"go.uber.org/zap"
)

type AccountService interface {
	CreateAccount(ctx context.Context, traceID string, req views.CreateAccountRequest) (views.AccountView, error)
	ListAccounts(ctx context.Context, traceID string, callerID int64) ([]views.AccountView, error)
	AccountDetails(ctx context.Context, traceID string, accountID, callerID int64) (views.AccountDetailsView, error)
	TransactionHistory(ctx context.Context, traceID string, accountID, callerID int64) ([]views.TransactionView, error)
}

type AccountConfig struct {
	PinHashCost       int
	CompoundingPeriod time.Duration
}

type AccountServiceImpl struct {
	logger      *zap.Logger
	cfg         AccountConfig
	db          database.Store
	accountRepo repositories.AccountRepository
	accessRepo  repositories.AccessRepository
	txRepo      repositories.TransactionRepository
	accrual     AccrualRegistrar
	clock       Clock
}

func NewAccountService(logger *zap.Logger, cfg AccountConfig, db database.Store,
	accountRepo repositories.AccountRepository, accessRepo repositories.AccessRepository,
	txRepo repositories.TransactionRepository, accrual AccrualRegistrar, clock Clock) AccountService {
	return &AccountServiceImpl{
		logger:      logger,
		cfg:         cfg,
		db:          db,
		accountRepo: accountRepo,
		accessRepo:  accessRepo,
		txRepo:      txRepo,
		accrual:     accrual,
		clock:       clock,
	}
}

// CreateAccount hashes the PIN, persists the account and registers time deposits for accrual.
func (s *AccountServiceImpl) CreateAccount(ctx context.Context, traceID string, req views.CreateAccountRequest) (views.AccountView, error) {
	if err := validate.Struct(req); err != nil {
		return views.AccountView{}, invalidRequest("missing or malformed fields", err)
	}
	kind, ok := pkg.ParseAccountKind(req.Kind)
	if !ok {
		return views.AccountView{}, invalidRequest("unknown account kind "+req.Kind, nil)
	}
	if req.InitialBalance.IsNegative() {
		return views.AccountView{}, invalidRequest("initial balance cannot be negative", nil)
	}
	if !req.InitialBalance.Equal(req.InitialBalance.Round(pkg.AmountScale)) {
		return views.AccountView{}, invalidRequest("initial balance has too many decimal places", nil)
	}
	if !req.InitialBalance.LessThan(pkg.MaxAmount) {
		return views.AccountView{}, invalidRequest("initial balance exceeds the ledger's numeric range", nil)
	}

	pinHash, err := utils.HashSecret(req.Pin, s.cfg.PinHashCost)
	if err != nil {
		return views.AccountView{}, executionFailed("failed to secure pin", err)
	}

	now := s.clock.Now()
	account := models.Account{
		Kind:        kind,
		OwnerUserID: req.OwnerID,
		Balance:     req.InitialBalance,
		PinHash:     pinHash,
	}
	if kind == pkg.AccountTimeDeposit && req.FdDurationSeconds > 0 {
		maturesAt := now.Add(time.Duration(req.FdDurationSeconds) * time.Second)
		account.MaturesAt = &maturesAt
	}

	err = s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		account, err = s.accountRepo.Create(ctx, tx, account)
		return err
	})
	if err != nil {
		return views.AccountView{}, pkg.HandleSQLError(traceID, s.logger, err)
	}

	if account.IsTimeDeposit() {
		s.accrual.Register(account.ID, now.Add(s.cfg.CompoundingPeriod), account.MaturesAt)
	}
	s.logger.Info("account_created",
		zap.String(pkg.TraceId, traceID),
		zap.Int64(pkg.AccountId, account.ID),
		zap.String("kind", string(account.Kind)))
	return toAccountView(account), nil
}

func (s *AccountServiceImpl) ListAccounts(ctx context.Context, traceID string, callerID int64) ([]views.AccountView, error) {
	accounts, err := s.accountRepo.ListAccessible(ctx, s.db, callerID)
	if err != nil {
		return nil, pkg.HandleSQLError(traceID, s.logger, err)
	}
	out := make([]views.AccountView, 0, len(accounts))
	for _, account := range accounts {
		out = append(out, toAccountView(account))
	}
	return out, nil
}

func (s *AccountServiceImpl) AccountDetails(ctx context.Context, traceID string, accountID, callerID int64) (views.AccountDetailsView, error) {
	if err := s.requireAccess(ctx, traceID, accountID, callerID); err != nil {
		return views.AccountDetailsView{}, err
	}
	details, err := s.accountRepo.FindDetails(ctx, s.db, accountID)
	if err != nil {
		return views.AccountDetailsView{}, pkg.HandleSQLError(traceID, s.logger, err)
	}
	return views.AccountDetailsView{
		AccountView: toAccountView(details.Account),
		OwnerUserID: details.OwnerUserID,
		OwnerEmail:  details.OwnerEmail,
	}, nil
}

func (s *AccountServiceImpl) TransactionHistory(ctx context.Context, traceID string, accountID, callerID int64) ([]views.TransactionView, error) {
	if err := s.requireAccess(ctx, traceID, accountID, callerID); err != nil {
		return nil, err
	}
	records, err := s.txRepo.ListByAccount(ctx, s.db, accountID)
	if err != nil {
		return nil, pkg.HandleSQLError(traceID, s.logger, err)
	}
	out := make([]views.TransactionView, 0, len(records))
	for _, r := range records {
		out = append(out, views.TransactionView{
			ID:          r.ID,
			Kind:        r.Kind,
			FromAccount: r.FromAccount,
			ToAccount:   r.ToAccount,
			Amount:      r.Amount,
			CreatedAt:   r.CreatedAt,
		})
	}
	return out, nil
}

func (s *AccountServiceImpl) requireAccess(ctx context.Context, traceID string, accountID, callerID int64) error {
	allowed, err := s.accessRepo.HasAccess(ctx, s.db, accountID, callerID)
	if err != nil {
		return pkg.HandleSQLError(traceID, s.logger, err)
	}
	if !allowed {
		return unauthorized("no access to account", pkg.ErrNoAccess)
	}
	return nil
}

func toAccountView(a models.Account) views.AccountView {
	return views.AccountView{
		ID:        a.ID,
		Kind:      a.Kind,
		Balance:   a.Balance,
		MaturesAt: a.MaturesAt,
		CreatedAt: a.CreatedAt,
	}
}

// isNoRows reports whether err wraps pgx.ErrNoRows.
func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
