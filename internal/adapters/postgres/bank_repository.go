package postgres

import (
	"context"
	"encoding/base64"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"horizon/internal/core/domain"
	"horizon/internal/core/ports"
)

// uniqueViolation is the SQLSTATE for a unique-constraint conflict.
const uniqueViolation = "23505"

type bankRepository struct {
	db     *DB
	secSvc ports.SecurityPort
	log    zerolog.Logger
}

var _ ports.BankRepository = (*bankRepository)(nil)

// NewBankRepository creates a new repository for linked bank accounts.
func NewBankRepository(db *DB, secSvc ports.SecurityPort, baseLogger *zerolog.Logger) ports.BankRepository {
	return &bankRepository{
		db:     db,
		secSvc: secSvc,
		log:    baseLogger.With().Str("component", "bank_repo").Logger(),
	}
}

const bankQueryCols = `
	id, user_id, access_token, funding_source_url, bank_id, account_id,
	sharable_id, created_at
`

// Create encrypts the access token and saves a new linked account.
// A (user_id, account_id) conflict maps to domain.ErrBankExists so the
// orchestrator can resolve concurrent linking of the same account.
func (r *bankRepository) Create(ctx context.Context, bank *domain.LinkedBankAccount) error {
	encBytes, err := r.secSvc.Encrypt([]byte(bank.AccessToken))
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to encrypt access token")
		return err
	}
	encToken := base64.StdEncoding.EncodeToString(encBytes)

	query := `
		INSERT INTO banks (
			id, user_id, access_token, funding_source_url, bank_id, account_id, sharable_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.db.pool.Exec(ctx, query,
		bank.ID,
		bank.UserID,
		encToken,
		bank.FundingSourceURL,
		bank.BankID,
		bank.AccountID,
		bank.SharableID,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			r.log.Info().Str("user_id", bank.UserID).Str("account_id", bank.AccountID).
				Msg("Linked account already recorded")
			return domain.ErrBankExists
		}
		r.log.Error().Err(err).Str("user_id", bank.UserID).Msg("Failed to insert linked account")
	}
	return err
}

// GetByUserID finds all linked accounts for a given user, newest first.
func (r *bankRepository) GetByUserID(ctx context.Context, userID string) ([]*domain.LinkedBankAccount, error) {
	query := `SELECT ` + bankQueryCols + ` FROM banks WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.pool.Query(ctx, query, userID)
	if err != nil {
		r.log.Error().Err(err).Str("user_id", userID).Msg("Failed to query linked accounts")
		return nil, err
	}
	defer rows.Close()

	var banks []*domain.LinkedBankAccount
	for rows.Next() {
		bank, err := r.scanBank(rows)
		if err != nil {
			r.log.Error().Err(err).Str("user_id", userID).Msg("Failed during row scan for linked accounts")
			return nil, err
		}
		banks = append(banks, bank)
	}

	if rows.Err() != nil {
		r.log.Error().Err(rows.Err()).Str("user_id", userID).Msg("Error iterating linked account rows")
		return nil, rows.Err()
	}

	return banks, nil
}

// GetByID finds a linked account by its local record id.
func (r *bankRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.LinkedBankAccount, error) {
	query := `SELECT ` + bankQueryCols + ` FROM banks WHERE id = $1`

	bank, err := r.scanBank(r.db.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return bank, nil
}

// GetByAccountID finds the record for an aggregator account id. When the
// row count is not exactly one the lookup reports not-found: an arbitrary
// match must never be returned for a supposedly unique id.
func (r *bankRepository) GetByAccountID(ctx context.Context, accountID string) (*domain.LinkedBankAccount, error) {
	query := `SELECT ` + bankQueryCols + ` FROM banks WHERE account_id = $1`

	rows, err := r.db.pool.Query(ctx, query, accountID)
	if err != nil {
		r.log.Error().Err(err).Str("account_id", accountID).Msg("Failed to query by account id")
		return nil, err
	}
	defer rows.Close()

	var banks []*domain.LinkedBankAccount
	for rows.Next() {
		bank, err := r.scanBank(rows)
		if err != nil {
			return nil, err
		}
		banks = append(banks, bank)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	switch len(banks) {
	case 0:
		return nil, nil
	case 1:
		return banks[0], nil
	default:
		r.log.Error().Str("account_id", accountID).Int("count", len(banks)).
			Err(domain.ErrDataIntegrity).Msg("Multiple linked accounts for one account id")
		return nil, nil
	}
}

// GetByUserAndAccountID finds the record for a (userID, accountID) pair.
func (r *bankRepository) GetByUserAndAccountID(ctx context.Context, userID, accountID string) (*domain.LinkedBankAccount, error) {
	query := `SELECT ` + bankQueryCols + ` FROM banks WHERE user_id = $1 AND account_id = $2`

	bank, err := r.scanBank(r.db.pool.QueryRow(ctx, query, userID, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return bank, nil
}

// scanBank scans a row into a linked account and decrypts the access token.
func (r *bankRepository) scanBank(row pgx.Row) (*domain.LinkedBankAccount, error) {
	var bank domain.LinkedBankAccount
	var encToken string

	err := row.Scan(
		&bank.ID,
		&bank.UserID,
		&encToken,
		&bank.FundingSourceURL,
		&bank.BankID,
		&bank.AccountID,
		&bank.SharableID,
		&bank.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		r.log.Error().Err(err).Msg("Failed to scan linked account row")
		return nil, err
	}

	decBytes, err := base64.StdEncoding.DecodeString(encToken)
	if err != nil {
		r.log.Error().Err(err).Str("bank_id", bank.ID.String()).Msg("Failed to base64-decode access token")
		return nil, err
	}
	dec, err := r.secSvc.Decrypt(decBytes)
	if err != nil {
		r.log.Error().Err(err).Str("bank_id", bank.ID.String()).Msg("Failed to decrypt access token")
		return nil, err
	}
	bank.AccessToken = string(dec)

	return &bank, nil
}
