package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"messenger-service/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository reads user identity and persists presence transitions.
type UserRepository interface {
	Get(ctx context.Context, userID int64) (models.User, error)
	SetPresence(ctx context.Context, userID int64, online bool, lastActive time.Time) error
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Get fetches a user by id.
func (r *UserRepo) Get(ctx context.Context, userID int64) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user,
		`SELECT id, username, email, online, last_active, created_at FROM users WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// SetPresence persists the online flag and last-active timestamp.
func (r *UserRepo) SetPresence(ctx context.Context, userID int64, online bool, lastActive time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET online=$2, last_active=$3 WHERE id=$1`, userID, online, lastActive)
	return err
}
