package services

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"horizon/internal/adapters/cache"
	"horizon/internal/core/domain"
)

func newBankFixture(t *testing.T) (*BankService, *MockBankRepository, *MockBankListCache, *MockIDCodec) {
	t.Helper()
	nopLogger := zerolog.Nop()

	banks := new(MockBankRepository)
	listCache := new(MockBankListCache)
	ids := new(MockIDCodec)

	svc := NewBankService(banks, listCache, ids, &nopLogger)
	return svc, banks, listCache, ids
}

func TestListBanks_ColdCacheFillsFromRepository(t *testing.T) {
	svc, banks, listCache, _ := newBankFixture(t)
	ctx := context.Background()

	stored := []*domain.LinkedBankAccount{{UserID: "u1", AccountID: "a1"}}
	listCache.On("Get", "u1").Return(nil, false)
	listCache.On("Generation", "u1").Return(uint64(3))
	banks.On("GetByUserID", ctx, "u1").Return(stored, nil)
	listCache.On("Set", "u1", stored, uint64(3)).Return()

	got, err := svc.ListBanks(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, stored, got)

	// The fill carries the generation observed before the repository read.
	listCache.AssertCalled(t, "Set", "u1", stored, uint64(3))
}

func TestListBanks_WarmCacheSkipsRepository(t *testing.T) {
	svc, banks, listCache, _ := newBankFixture(t)
	ctx := context.Background()

	cached := []*domain.LinkedBankAccount{{UserID: "u1", AccountID: "a1"}}
	listCache.On("Get", "u1").Return(cached, true)

	got, err := svc.ListBanks(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, cached, got)

	banks.AssertNotCalled(t, "GetByUserID", mock.Anything, mock.Anything)
}

// A cold read whose repository query predates a concurrent link must not
// re-cache the pre-link list: the invalidation in between advances the
// generation and the stale fill is discarded.
func TestListBanks_FillRacedByInvalidationIsDiscarded(t *testing.T) {
	nopLogger := zerolog.Nop()
	banks := new(MockBankRepository)
	ids := new(MockIDCodec)
	listCache := cache.NewBankList(&nopLogger)
	svc := NewBankService(banks, listCache, ids, &nopLogger)
	ctx := context.Background()

	// The repository read returns the pre-link list, and the linking flow
	// invalidates before the fill lands.
	preLink := []*domain.LinkedBankAccount{}
	banks.On("GetByUserID", ctx, "u1").Return(preLink, nil).Run(func(mock.Arguments) {
		listCache.Invalidate("u1")
	}).Once()

	got, err := svc.ListBanks(ctx, "u1")
	require.NoError(t, err)
	require.Empty(t, got)

	// The stale fill must not have been cached; the next read goes back
	// to the repository and sees the new record.
	postLink := []*domain.LinkedBankAccount{{UserID: "u1", AccountID: "a1"}}
	banks.On("GetByUserID", ctx, "u1").Return(postLink, nil).Once()

	got, err = svc.ListBanks(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "a1", got[0].AccountID)
}

func TestSharableToAccountID(t *testing.T) {
	svc, _, _, ids := newBankFixture(t)

	ids.On("DecryptID", "enc-a1").Return("a1", nil)

	id, err := svc.SharableToAccountID("enc-a1")
	require.NoError(t, err)
	require.Equal(t, "a1", id)
}
