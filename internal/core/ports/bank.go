package ports

import (
	"context"

	"github.com/google/uuid"

	"horizon/internal/core/domain"
)

// BankRepository defines persistence for linked bank accounts.
type BankRepository interface {
	// Create saves a new linked account. Returns domain.ErrBankExists when
	// the (userID, accountID) pair is already recorded.
	Create(ctx context.Context, bank *domain.LinkedBankAccount) error

	// GetByUserID finds all linked accounts for a given user, newest first.
	GetByUserID(ctx context.Context, userID string) ([]*domain.LinkedBankAccount, error)

	// GetByID finds a linked account by its local record id. Returns
	// nil, nil when not found.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.LinkedBankAccount, error)

	// GetByAccountID finds the linked account for an aggregator account id.
	// Returns nil, nil unless exactly one record matches; a multi-row match
	// is a data-integrity anomaly and must never yield an arbitrary record.
	GetByAccountID(ctx context.Context, accountID string) (*domain.LinkedBankAccount, error)

	// GetByUserAndAccountID finds the linked account for a specific
	// (userID, accountID) pair. Returns nil, nil when not found.
	GetByUserAndAccountID(ctx context.Context, userID, accountID string) (*domain.LinkedBankAccount, error)
}
