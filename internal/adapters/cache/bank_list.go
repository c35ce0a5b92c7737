package cache

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"horizon/internal/core/domain"
	"horizon/internal/core/ports"
)

// BankList is an in-memory, per-user cache of linked-account lists.
// Entries are invalidation-driven: a completed linking flow drops the
// matching entry, so the next read reflects the new record.
//
// Each user carries a generation counter that survives invalidation.
// A fill started before an invalidation carries the old generation and
// is discarded on Set, which closes the window where a repository read
// from before a concurrent link would re-cache the pre-link list.
type BankList struct {
	log    zerolog.Logger
	mu     sync.RWMutex
	byUser map[string][]*domain.LinkedBankAccount
	gens   map[string]uint64
}

var _ ports.BankListCache = (*BankList)(nil)

// NewBankList creates an empty cache.
func NewBankList(baseLogger *zerolog.Logger) *BankList {
	return &BankList{
		log:    baseLogger.With().Str("component", "bank_list_cache").Logger(),
		byUser: make(map[string][]*domain.LinkedBankAccount),
		gens:   make(map[string]uint64),
	}
}

// Get returns the cached list for a user, if present.
func (c *BankList) Get(userID string) ([]*domain.LinkedBankAccount, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	banks, ok := c.byUser[userID]
	if !ok {
		return nil, false
	}

	out := make([]*domain.LinkedBankAccount, len(banks))
	copy(out, banks)
	return out, true
}

// Generation returns the user's current invalidation generation. Read it
// before querying the source of truth and hand it back to Set.
func (c *BankList) Generation(userID string) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gens[userID]
}

// Set stores the list for a user. The fill is dropped if the user's
// entry was invalidated after generation was observed.
func (c *BankList) Set(userID string, banks []*domain.LinkedBankAccount, generation uint64) {
	stored := make([]*domain.LinkedBankAccount, len(banks))
	copy(stored, banks)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gens[userID] != generation {
		c.log.Debug().Str("user_id", userID).Msg("Discarding stale cache fill")
		return
	}
	c.byUser[userID] = stored
}

// Invalidate drops the cached list for a user and advances its
// generation, so in-flight fills from before this point cannot land.
func (c *BankList) Invalidate(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.byUser, userID)
	c.gens[userID]++

	c.log.Debug().Str("user_id", userID).Msg("Cache entry invalidated")
}

// SubscribeInvalidation wires the cache to the event bus so linked-bank
// events invalidate the owner's entry.
func (c *BankList) SubscribeInvalidation(bus ports.EventBus) {
	bus.Subscribe(ports.TopicBankLinked, func(ctx context.Context, event ports.Event) error {
		payload, ok := event.Data.(ports.BankLinkedEvent)
		if !ok {
			return fmt.Errorf("unexpected payload type %T on %s", event.Data, event.Topic)
		}
		c.Invalidate(payload.UserID)
		return nil
	})
}
