package repository

import (
	"context"
	"errors"

	"twitch-giveaway-backend/internal/features/user/models"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository stores Twitch users with their cached display names.
type UserRepository interface {
	// Upsert inserts the user or refreshes the cached display name.
	Upsert(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
}
