package repositories

import (
	"context"

	"github.com/nimeshabuddhika/resilient-ledger/pkg/database"
	"github.com/nimeshabuddhika/resilient-ledger/pkg/models"
)

// UserRepository defines the interface for user repository.
type UserRepository interface {
	// Create creates a new user.
	Create(ctx context.Context, q database.Querier, user models.User) (models.User, error)
	// FindByEmail resolves a user by contact address.
	FindByEmail(ctx context.Context, q database.Querier, email string) (models.User, error)
	FindById(ctx context.Context, q database.Querier, userID int64) (models.User, error)
}

type UserRepositoryImpl struct {
}

func NewUserRepository() UserRepository {
	return &UserRepositoryImpl{}
}

func (u UserRepositoryImpl) Create(ctx context.Context, q database.Querier, user models.User) (models.User, error) {
	err := q.QueryRow(ctx, `INSERT INTO users (username, email, password_hash) 
				VALUES ($1, $2, $3)
				RETURNING id, created_at, updated_at`,
		user.Username,
		user.Email,
		user.PasswordHash,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	return user, err
}

func (u UserRepositoryImpl) FindByEmail(ctx context.Context, q database.Querier, email string) (models.User, error) {
	var user models.User
	err := q.QueryRow(ctx, `SELECT id, username, email, password_hash, created_at, updated_at FROM users WHERE email = $1`, email).
		Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	return user, err
}

func (u UserRepositoryImpl) FindById(ctx context.Context, q database.Querier, userID int64) (models.User, error) {
	var user models.User
	err := q.QueryRow(ctx, `SELECT id, username, email, password_hash, created_at, updated_at FROM users WHERE id = $1`, userID).
		Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	return user, err
}
