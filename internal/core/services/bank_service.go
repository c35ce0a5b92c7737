package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"horizon/internal/core/domain"
	"horizon/internal/core/ports"
)

// BankService serves reads over linked bank accounts, fronted by the
// invalidation-driven list cache.
type BankService struct {
	log   zerolog.Logger
	banks ports.BankRepository
	cache ports.BankListCache
	ids   ports.IDCodec
}

// NewBankService creates the read service.
func NewBankService(
	banks ports.BankRepository,
	cache ports.BankListCache,
	ids ports.IDCodec,
	baseLogger *zerolog.Logger,
) *BankService {
	return &BankService{
		log:   baseLogger.With().Str("component", "bank_service").Logger(),
		banks: banks,
		cache: cache,
		ids:   ids,
	}
}

// ListBanks returns the user's linked accounts, from cache when warm.
// The generation is read before the repository query so a fill raced by
// an invalidation is discarded instead of re-caching a pre-link list.
func (s *BankService) ListBanks(ctx context.Context, userID string) ([]*domain.LinkedBankAccount, error) {
	if banks, ok := s.cache.Get(userID); ok {
		return banks, nil
	}

	gen := s.cache.Generation(userID)
	banks, err := s.banks.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("could not list linked accounts: %w", err)
	}

	s.cache.Set(userID, banks, gen)
	return banks, nil
}

// GetBank finds a linked account by its local record id. Returns nil, nil
// when not found.
func (s *BankService) GetBank(ctx context.Context, id uuid.UUID) (*domain.LinkedBankAccount, error) {
	return s.banks.GetByID(ctx, id)
}

// GetBankByAccountID finds the linked account for an aggregator account
// id. The repository enforces the exactly-one rule; anything else reads
// as not-found.
func (s *BankService) GetBankByAccountID(ctx context.Context, accountID string) (*domain.LinkedBankAccount, error) {
	return s.banks.GetByAccountID(ctx, accountID)
}

// SharableToAccountID reverses a sharable id back to the aggregator
// account id it obfuscates.
func (s *BankService) SharableToAccountID(sharableID string) (string, error) {
	return s.ids.DecryptID(sharableID)
}
