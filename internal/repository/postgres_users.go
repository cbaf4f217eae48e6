package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/Dhoini/billing-service/internal/domain"
	"github.com/Dhoini/billing-service/pkg/logger"
)

// postgresUserRepo реализует UserRepository для PostgreSQL.
type postgresUserRepo struct {
	db  *sqlx.DB
	log *logger.Logger
}

// NewPostgresUserRepository создает новый экземпляр репозитория пользователей.
func NewPostgresUserRepository(db *sqlx.DB, log *logger.Logger) UserRepository {
	return &postgresUserRepo{
		db:  db,
		log: log,
	}
}

// GetByEmail возвращает пользователя по email. Сравнение без учета регистра.
func (r *postgresUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	query := `
        SELECT id, email, created_at
        FROM users
        WHERE LOWER(email) = $1`

	err := r.db.GetContext(ctx, &user, query, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.Debugw("User not found by email", "email", email)
			return nil, ErrNotFound
		}
		r.log.Errorw("Failed to get user by email from DB", "error", err, "email", email)
		return nil, fmt.Errorf("repository: failed to get user by email: %w", err)
	}

	return &user, nil
}

// GetByID возвращает пользователя по ID.
func (r *postgresUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	query := `
        SELECT id, email, created_at
        FROM users
        WHERE id = $1`

	err := r.db.GetContext(ctx, &user, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.Debugw("User not found by ID", "userID", id)
			return nil, ErrNotFound
		}
		r.log.Errorw("Failed to get user by ID from DB", "error", err, "userID", id)
		return nil, fmt.Errorf("repository: failed to get user by ID: %w", err)
	}

	return &user, nil
}
