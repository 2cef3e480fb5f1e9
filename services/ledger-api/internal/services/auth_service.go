package services

import (
	"context"
	"strings"
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

// TokenIssuer signs identity tokens for the identity gate.
type TokenIssuer interface {
	Issue(identity views.Identity) (string, time.Time, error)
}

type AuthService interface {
	Register(ctx context.Context, traceID string, req views.RegisterRequest) (views.Identity, error)
	Login(ctx context.Context, traceID string, req views.LoginRequest) (views.TokenResponse, error)
}

type AuthServiceImpl struct {
	logger       *zap.Logger
	db           database.Store
	userRepo     repositories.UserRepository
	tokens       TokenIssuer
	passwordCost int
}

func NewAuthService(logger *zap.Logger, db database.Store, userRepo repositories.UserRepository, tokens TokenIssuer, passwordCost int) AuthService {
	return &AuthServiceImpl{
		logger:       logger,
		db:           db,
		userRepo:     userRepo,
		tokens:       tokens,
		passwordCost: passwordCost,
	}
}

func (s *AuthServiceImpl) Register(ctx context.Context, traceID string, req views.RegisterRequest) (views.Identity, error) {
	req.Email = normaliseEmail(req.Email)
	if err := validate.Struct(req); err != nil {
		return views.Identity{}, invalidRequest("missing or malformed fields", err)
	}
	hash, err := utils.HashSecret(req.Password, s.passwordCost)
	if err != nil {
		return views.Identity{}, executionFailed("failed to secure password", err)
	}

	user := models.User{
		Username:     strings.TrimSpace(req.Username),
		Email:        req.Email,
		PasswordHash: hash,
	}
	err = s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		user, err = s.userRepo.Create(ctx, tx, user)
		return err
	})
	if err != nil {
		mapped := pkg.HandleSQLError(traceID, s.logger, err)
		if pkg.IsCode(mapped, pkg.ErrSQLDuplicateCode) {
			return views.Identity{}, invalidRequest("email is already registered", err)
		}
		return views.Identity{}, mapped
	}
	s.logger.Info("user_registered", zap.String(pkg.TraceId, traceID), zap.Int64("user_id", user.ID))
	return views.Identity{UserID: user.ID, Email: user.Email}, nil
}

func (s *AuthServiceImpl) Login(ctx context.Context, traceID string, req views.LoginRequest) (views.TokenResponse, error) {
	req.Email = normaliseEmail(req.Email)
	if err := validate.Struct(req); err != nil {
		return views.TokenResponse{}, invalidRequest("missing or malformed fields", err)
	}
	user, err := s.userRepo.FindByEmail(ctx, s.db, req.Email)
	if err != nil {
		if isNoRows(err) {
			return views.TokenResponse{}, pkg.NewAppError(pkg.ErrUnauthenticatedCode, "invalid email or password", nil)
		}
		return views.TokenResponse{}, pkg.HandleSQLError(traceID, s.logger, err)
	}
	if err = utils.CompareSecret(user.PasswordHash, req.Password); err != nil {
		return views.TokenResponse{}, pkg.NewAppError(pkg.ErrUnauthenticatedCode, "invalid email or password", nil)
	}
	token, expiresAt, err := s.tokens.Issue(views.Identity{UserID: user.ID, Email: user.Email})
	if err != nil {
		return views.TokenResponse{}, pkg.NewAppError(pkg.ErrServerCode, "failed to issue token", err)
	}
	s.logger.Info("user_logged_in", zap.String(pkg.TraceId, traceID), zap.Int64("user_id", user.ID))
	return views.TokenResponse{Token: token, ExpiresAt: expiresAt}, nil
}

func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
