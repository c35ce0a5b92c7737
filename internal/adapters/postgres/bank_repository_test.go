package postgres

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"horizon/internal/core/domain"
)

// newTestUser inserts a throwaway profile so bank rows have an owner.
func newTestUser(t *testing.T, ctx context.Context) *domain.UserProfile {
	t.Helper()
	nopLogger := zerolog.Nop()
	repo := NewUserRepository(testDB, testSecSvc, &nopLogger)

	suffix := uuid.NewString()
	user := &domain.UserProfile{
		ID:                uuid.New(),
		UserID:            "user-" + suffix,
		Email:             fmt.Sprintf("test-%s@example.com", suffix),
		FirstName:         "Test",
		LastName:          "User",
		Address1:          "1 Test St",
		City:              "Testville",
		State:             "NY",
		PostalCode:        "10001",
		DateOfBirth:       "1990-01-01",
		SSN:               "1234",
		DwollaCustomerID:  "cust-" + suffix,
		DwollaCustomerURL: "https://api-sandbox.dwolla.com/customers/cust-" + suffix,
	}
	require.NoError(t, repo.Create(ctx, user))

	t.Cleanup(func() {
		_, _ = testDB.pool.Exec(context.Background(), `DELETE FROM banks WHERE user_id = $1`, user.UserID)
		_, _ = testDB.pool.Exec(context.Background(), `DELETE FROM users WHERE user_id = $1`, user.UserID)
	})
	return user
}

func newTestBank(user *domain.UserProfile, accountID string) *domain.LinkedBankAccount {
	return &domain.LinkedBankAccount{
		ID:               uuid.New(),
		UserID:           user.UserID,
		AccessToken:      "access-" + accountID,
		FundingSourceURL: "https://api-sandbox.dwolla.com/funding-sources/" + accountID,
		BankID:           "item-" + accountID,
		AccountID:        accountID,
		SharableID:       "enc-" + accountID,
	}
}

func TestBankRepository_CreateAndRoundtrip(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	nopLogger := zerolog.Nop()
	repo := NewBankRepository(testDB, testSecSvc, &nopLogger)

	user := newTestUser(t, ctx)
	bank := newTestBank(user, "acct-"+uuid.NewString())
	require.NoError(t, repo.Create(ctx, bank))

	got, err := repo.GetByID(ctx, bank.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	// The access token is encrypted at rest but decrypts on read.
	require.Equal(t, bank.AccessToken, got.AccessToken)
	require.Equal(t, bank.SharableID, got.SharableID)

	var stored string
	err = testDB.pool.QueryRow(ctx, `SELECT access_token FROM banks WHERE id = $1`, bank.ID).Scan(&stored)
	require.NoError(t, err)
	require.NotEqual(t, bank.AccessToken, stored)
}

func TestBankRepository_DuplicateInsertReturnsErrBankExists(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	nopLogger := zerolog.Nop()
	repo := NewBankRepository(testDB, testSecSvc, &nopLogger)

	user := newTestUser(t, ctx)
	accountID := "acct-" + uuid.NewString()

	require.NoError(t, repo.Create(ctx, newTestBank(user, accountID)))

	err := repo.Create(ctx, newTestBank(user, accountID))
	require.ErrorIs(t, err, domain.ErrBankExists)
}

func TestBankRepository_GetByAccountID_NotExactlyOne(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	nopLogger := zerolog.Nop()
	repo := NewBankRepository(testDB, testSecSvc, &nopLogger)

	// Zero matches reads as not-found.
	got, err := repo.GetByAccountID(ctx, "acct-missing-"+uuid.NewString())
	require.NoError(t, err)
	require.Nil(t, got)

	// Two different users linked to the same external account id: the
	// lookup must refuse to pick one.
	accountID := "acct-" + uuid.NewString()
	userA := newTestUser(t, ctx)
	userB := newTestUser(t, ctx)
	require.NoError(t, repo.Create(ctx, newTestBank(userA, accountID)))
	require.NoError(t, repo.Create(ctx, newTestBank(userB, accountID)))

	got, err = repo.GetByAccountID(ctx, accountID)
	require.NoError(t, err)
	require.Nil(t, got)

	// The per-user lookup still resolves.
	gotA, err := repo.GetByUserAndAccountID(ctx, userA.UserID, accountID)
	require.NoError(t, err)
	require.NotNil(t, gotA)
	require.Equal(t, userA.UserID, gotA.UserID)
}

func TestBankRepository_GetByUserID_NewestFirst(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	nopLogger := zerolog.Nop()
	repo := NewBankRepository(testDB, testSecSvc, &nopLogger)

	user := newTestUser(t, ctx)
	first := newTestBank(user, "acct-1-"+uuid.NewString())
	second := newTestBank(user, "acct-2-"+uuid.NewString())
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	banks, err := repo.GetByUserID(ctx, user.UserID)
	require.NoError(t, err)
	require.Len(t, banks, 2)
}
