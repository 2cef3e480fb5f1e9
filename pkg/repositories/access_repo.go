package repositories

import (
	"context"

	"github.com/nimeshabuddhika/resilient-ledger/pkg/database"
	"github.com/nimeshabuddhika/resilient-ledger/pkg/models"
)

// AccessRepository manages the owner's implicit grant and the delegated grants in `user_account_links`.
type AccessRepository interface {
	// HasAccess reports whether userID owns accountID or holds a grant on it.
	HasAccess(ctx context.Context, q database.Querier, accountID, userID int64) (bool, error)
	// Grant inserts a grant; an existing grant is left untouched.
	Grant(ctx context.Context, q database.Querier, accountID, userID int64) error
	// Revoke deletes a grant and reports whether one existed.
	Revoke(ctx context.Context, q database.Querier, accountID, userID int64) (bool, error)
	// ListGrantees returns the owner plus every grantee, ordered by username.
	ListGrantees(ctx context.Context, q database.Querier, accountID int64) ([]models.User, error)
}

type AccessRepositoryImpl struct {
}

func NewAccessRepository() AccessRepository {
	return &AccessRepositoryImpl{}
}

func (a AccessRepositoryImpl) HasAccess(ctx context.Context, q database.Querier, accountID, userID int64) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx, `SELECT EXISTS(
			SELECT 1 FROM accounts WHERE id = $1 AND owner_user_id = $2
			UNION ALL
			SELECT 1 FROM user_account_links WHERE account_id = $1 AND user_id = $2)`,
		accountID, userID,
	).Scan(&exists)
	return exists, err
}

func (a AccessRepositoryImpl) Grant(ctx context.Context, q database.Querier, accountID, userID int64) error {
	_, err := q.Exec(ctx, `INSERT INTO user_account_links (user_id, account_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		userID, accountID)
	return err
}

func (a AccessRepositoryImpl) Revoke(ctx context.Context, q database.Querier, accountID, userID int64) (bool, error) {
	tag, err := q.Exec(ctx, `DELETE FROM user_account_links WHERE user_id = $1 AND account_id = $2`, userID, accountID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (a AccessRepositoryImpl) ListGrantees(ctx context.Context, q database.Querier, accountID int64) ([]models.User, error) {
	rows, err := q.Query(ctx, `SELECT u.id, u.username, u.email, u.created_at
		FROM users u JOIN user_account_links l ON l.user_id = u.id
		WHERE l.account_id = $1
		UNION
		SELECT u.id, u.username, u.email, u.created_at
		FROM users u JOIN accounts a ON a.owner_user_id = u.id
		WHERE a.id = $1
		ORDER BY username`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []models.User
	for rows.Next() {
		var user models.User
		if err = rows.Scan(&user.ID, &user.Username, &user.Email, &user.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}
