package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"twitch-giveaway-backend/internal/features/user/models"
	"twitch-giveaway-backend/internal/features/user/repository"
)

type mysqlRepository struct {
	db *sql.DB
}

func NewMySQLRepository(db *sql.DB) repository.UserRepository {
	return &mysqlRepository{db: db}
}

func (r *mysqlRepository) Upsert(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, display_name)
		VALUES (?, ?)
		ON DUPLICATE KEY UPDATE display_name = VALUES(display_name), updated_at = UTC_TIMESTAMP()
	`
	if _, err := r.db.ExecContext(ctx, query, user.ID, user.DisplayName); err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

func (r *mysqlRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := r.db.QueryRowContext(ctx,
		"SELECT id, display_name, created_at, updated_at FROM users WHERE id = ?", id).
		Scan(&u.ID, &u.DisplayName, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}
