package postgres

import (
	"context"
	"encoding/base64"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"horizon/internal/core/domain"
	"horizon/internal/core/ports"
)

type userRepository struct {
	db     *DB
	secSvc ports.SecurityPort
	log    zerolog.Logger
}

var _ ports.UserRepository = (*userRepository)(nil)

// NewUserRepository creates a new repository for user profiles.
func NewUserRepository(db *DB, secSvc ports.SecurityPort, baseLogger *zerolog.Logger) ports.UserRepository {
	return &userRepository{
		db:     db,
		secSvc: secSvc,
		log:    baseLogger.With().Str("component", "user_repo").Logger(),
	}
}

const userQueryCols = `
	id, user_id, email, first_name, last_name, address1, city, state,
	postal_code, date_of_birth, ssn, dwolla_customer_id, dwolla_customer_url,
	created_at, updated_at
`

// Create encrypts the tax-id fragment and saves a new profile. The
// payment-rail customer reference is written here once and never updated.
func (r *userRepository) Create(ctx context.Context, user *domain.UserProfile) error {
	encSSN, err := r.encrypt(user.SSN)
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to encrypt tax-id fragment")
		return err
	}

	query := `
		INSERT INTO users (
			id, user_id, email, first_name, last_name, address1, city, state,
			postal_code, date_of_birth, ssn, dwolla_customer_id, dwolla_customer_url
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err = r.db.pool.Exec(ctx, query,
		user.ID,
		user.UserID,
		user.Email,
		user.FirstName,
		user.LastName,
		user.Address1,
		user.City,
		user.State,
		user.PostalCode,
		user.DateOfBirth,
		encSSN,
		user.DwollaCustomerID,
		user.DwollaCustomerURL,
	)

	if err != nil {
		r.log.Error().Err(err).Str("user_id", user.UserID).Msg("Failed to insert new user profile")
	}
	return err
}

// GetByUserID finds a profile by its identity-provider user id.
func (r *userRepository) GetByUserID(ctx context.Context, userID string) (*domain.UserProfile, error) {
	query := `SELECT ` + userQueryCols + ` FROM users WHERE user_id = $1`

	user, err := r.scanUser(r.db.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// GetByEmail finds a profile by email.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.UserProfile, error) {
	query := `SELECT ` + userQueryCols + ` FROM users WHERE email = $1`

	user, err := r.scanUser(r.db.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// scanUser scans a row into a profile and decrypts the tax-id fragment.
func (r *userRepository) scanUser(row pgx.Row) (*domain.UserProfile, error) {
	var user domain.UserProfile
	var encSSN string

	err := row.Scan(
		&user.ID,
		&user.UserID,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.Address1,
		&user.City,
		&user.State,
		&user.PostalCode,
		&user.DateOfBirth,
		&encSSN,
		&user.DwollaCustomerID,
		&user.DwollaCustomerURL,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		r.log.Error().Err(err).Msg("Failed to scan user row")
		return nil, err
	}

	ssn, err := r.decrypt(encSSN)
	if err != nil {
		r.log.Error().Err(err).Str("user_id", user.UserID).Msg("Failed to decrypt tax-id fragment")
		return nil, err
	}
	user.SSN = ssn

	return &user, nil
}

func (r *userRepository) encrypt(plaintext string) (string, error) {
	encBytes, err := r.secSvc.Encrypt([]byte(plaintext))
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(encBytes), nil
}

func (r *userRepository) decrypt(encoded string) (string, error) {
	decBytes, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	dec, err := r.secSvc.Decrypt(decBytes)
	if err != nil {
		return "", err
	}
	return string(dec), nil
}
