package ports

import (
	"context"

	"horizon/internal/core/domain"
)

// UserRepository defines the persistence operations for user profiles.
type UserRepository interface {
	// Create saves a new profile.
	Create(ctx context.Context, user *domain.UserProfile) error

	// GetByUserID finds a profile by its identity-provider user id.
	// Returns nil, nil when no profile exists.
	GetByUserID(ctx context.Context, userID string) (*domain.UserProfile, error)

	// GetByEmail finds a profile by email. Returns nil, nil when no
	// profile exists.
	GetByEmail(ctx context.Context, email string) (*domain.UserProfile, error)
}
