package ports

import "horizon/internal/core/domain"

// BankListCache caches a user's linked-account list between reads.
// Entries live until invalidated; there is no TTL.
//
// Fills are generation-guarded: callers read Generation before querying
// the source of truth and pass the observed value to Set. A fill whose
// generation is stale, because an invalidation landed in between, is
// discarded rather than re-caching a list the source has moved past.
type BankListCache interface {
	Get(userID string) ([]*domain.LinkedBankAccount, bool)
	Generation(userID string) uint64
	Set(userID string, banks []*domain.LinkedBankAccount, generation uint64)
	Invalidate(userID string)
}
