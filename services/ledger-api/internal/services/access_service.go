package services

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/nimeshabuddhika/resilient-ledger/pkg"
	"github.com/nimeshabuddhika/resilient-ledger/pkg/database"
	"github.com/nimeshabuddhika/resilient-ledger/pkg/repositories"
	"github.com/nimeshabuddhika/resilient-ledger/pkg/utils"
	"github.com/nimeshabuddhika/resilient-ledger/pkg/views"
	"go.uber.org/zap"
)

// AccessService governs which identities may act on an account.
// Grant and revoke are gated on the account owner's PIN even for delegated grantees.
type AccessService interface {
	ListGrantees(ctx context.Context, traceID string, accountID, requesterID int64) (views.AccessListView, error)
	Grant(ctx context.Context, traceID string, accountID, requesterID int64, req views.GrantAccessRequest) error
	Revoke(ctx context.Context, traceID string, accountID, requesterID int64, req views.RevokeAccessRequest) error
}

type AccessServiceImpl struct {
	logger      *zap.Logger
	db          database.Store
	accountRepo repositories.AccountRepository
	accessRepo  repositories.AccessRepository
	userRepo    repositories.UserRepository
}

func NewAccessService(logger *zap.Logger, db database.Store, accountRepo repositories.AccountRepository,
	accessRepo repositories.AccessRepository, userRepo repositories.UserRepository) AccessService {
	return &AccessServiceImpl{
		logger:      logger,
		db:          db,
		accountRepo: accountRepo,
		accessRepo:  accessRepo,
		userRepo:    userRepo,
	}
}

func (s *AccessServiceImpl) ListGrantees(ctx context.Context, traceID string, accountID, requesterID int64) (views.AccessListView, error) {
	allowed, err := s.accessRepo.HasAccess(ctx, s.db, accountID, requesterID)
	if err != nil {
		return views.AccessListView{}, pkg.HandleSQLError(traceID, s.logger, err)
	}
	if !allowed {
		return views.AccessListView{}, unauthorized("no access to account", pkg.ErrNoAccess)
	}
	account, err := s.accountRepo.FindById(ctx, s.db, accountID)
	if err != nil {
		return views.AccessListView{}, pkg.HandleSQLError(traceID, s.logger, err)
	}
	users, err := s.accessRepo.ListGrantees(ctx, s.db, accountID)
	if err != nil {
		return views.AccessListView{}, pkg.HandleSQLError(traceID, s.logger, err)
	}
	out := views.AccessListView{OwnerUserID: account.OwnerUserID, Users: make([]views.GranteeView, 0, len(users))}
	for _, u := range users {
		out.Users = append(out.Users, views.GranteeView{
			UserID:   u.ID,
			Username: u.Username,
			Email:    u.Email,
			Owner:    u.ID == account.OwnerUserID,
		})
	}
	return out, nil
}

func (s *AccessServiceImpl) Grant(ctx context.Context, traceID string, accountID, requesterID int64, req views.GrantAccessRequest) error {
	req.Email = normaliseEmail(req.Email)
	if err := validate.Struct(req); err != nil {
		return invalidRequest("missing or malformed fields", err)
	}
	var (
		granteeID int64
		noop      bool
	)
	err := s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		ownerID, err := s.checkOwnerPin(ctx, tx, accountID, requesterID, req.Pin)
		if err != nil {
			return err
		}
		target, err := s.userRepo.FindByEmail(ctx, tx, req.Email)
		if err != nil {
			if isNoRows(err) {
				return invalidRequest("no user with that email", err)
			}
			return err
		}
		granteeID = target.ID
		if target.ID == ownerID {
			noop = true
			return nil
		}
		return s.accessRepo.Grant(ctx, tx, accountID, target.ID)
	})
	if err != nil {
		return s.mapError(traceID, err)
	}
	s.logger.Info("account_access_granted",
		zap.String(pkg.TraceId, traceID),
		zap.Int64(pkg.AccountId, accountID),
		zap.Int64("grantee_id", granteeID),
		zap.Int64("requester_id", requesterID),
		zap.Bool("owner_noop", noop))
	return nil
}

func (s *AccessServiceImpl) Revoke(ctx context.Context, traceID string, accountID, requesterID int64, req views.RevokeAccessRequest) error {
	if err := validate.Struct(req); err != nil {
		return invalidRequest("missing or malformed fields", err)
	}
	var existed bool
	err := s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		allowed, err := s.accessRepo.HasAccess(ctx, tx, accountID, requesterID)
		if err != nil {
			return err
		}
		if !allowed {
			return unauthorized("no access to account", pkg.ErrNoAccess)
		}
		account, err := s.accountRepo.FindById(ctx, tx, accountID)
		if err != nil {
			return err
		}
		// The owner's implicit grant is permanent whatever PIN is supplied.
		if req.UserID == account.OwnerUserID {
			return invalidRequest("the account owner cannot be removed", nil)
		}
		if err = utils.CompareSecret(account.PinHash, req.Pin); err != nil {
			return unauthorized("incorrect transaction pin", pkg.ErrIncorrectPin)
		}
		existed, err = s.accessRepo.Revoke(ctx, tx, accountID, req.UserID)
		return err
	})
	if err != nil {
		return s.mapError(traceID, err)
	}
	s.logger.Info("account_access_revoked",
		zap.String(pkg.TraceId, traceID),
		zap.Int64(pkg.AccountId, accountID),
		zap.Int64("grantee_id", req.UserID),
		zap.Int64("requester_id", requesterID),
		zap.Bool("existed", existed))
	return nil
}

// checkOwnerPin requires access for requesterID and verifies pin against the owner's account PIN.
func (s *AccessServiceImpl) checkOwnerPin(ctx context.Context, q database.Querier, accountID, requesterID int64, pin string) (int64, error) {
	allowed, err := s.accessRepo.HasAccess(ctx, q, accountID, requesterID)
	if err != nil {
		return 0, err
	}
	if !allowed {
		return 0, unauthorized("no access to account", pkg.ErrNoAccess)
	}
	account, err := s.accountRepo.FindById(ctx, q, accountID)
	if err != nil {
		return 0, err
	}
	if err = utils.CompareSecret(account.PinHash, pin); err != nil {
		return 0, unauthorized("incorrect transaction pin", pkg.ErrIncorrectPin)
	}
	return account.OwnerUserID, nil
}

func (s *AccessServiceImpl) mapError(traceID string, err error) error {
	var appErr pkg.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return pkg.HandleSQLError(traceID, s.logger, err)
}
