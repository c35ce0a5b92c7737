package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"horizon/internal/core/domain"
	"horizon/internal/core/ports"
)

// SignUpParams holds everything sign-up needs: credentials for the
// identity provider plus the KYC fields the payment rail requires.
type SignUpParams struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	Address1    string
	City        string
	State       string
	PostalCode  string
	DateOfBirth string
	SSN         string
}

// UserService orchestrates sign-up, sign-in and session resolution
// across the identity provider, the payment rail and the local store.
type UserService struct {
	log      zerolog.Logger
	identity ports.IdentityGateway
	rail     ports.PaymentRailGateway
	users    ports.UserRepository
}

// NewUserService creates the user service.
func NewUserService(
	identity ports.IdentityGateway,
	rail ports.PaymentRailGateway,
	users ports.UserRepository,
	baseLogger *zerolog.Logger,
) *UserService {
	return &UserService{
		log:      baseLogger.With().Str("component", "user_service").Logger(),
		identity: identity,
		rail:     rail,
		users:    users,
	}
}

// SignUp creates the identity, registers a payment-rail customer, persists
// the profile and opens a session. If a profile for the email already
// exists (a retry after a partial earlier attempt), its payment-rail
// customer reference is reused rather than creating a duplicate customer.
func (s *UserService) SignUp(ctx context.Context, params SignUpParams) (*domain.UserProfile, *domain.Session, error) {
	name := params.FirstName + " " + params.LastName

	ident, err := s.identity.CreateAccount(ctx, params.Email, params.Password, name)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, nil, domain.ErrDuplicateEmail
		}
		s.log.Error().Err(err).Msg("Identity account creation failed")
		return nil, nil, fmt.Errorf("could not create account: %w", err)
	}

	profile, err := s.users.GetByEmail(ctx, params.Email)
	if err != nil {
		return nil, nil, fmt.Errorf("could not check for existing profile: %w", err)
	}

	if profile == nil {
		customerURL, err := s.rail.CreateCustomer(ctx, ports.CustomerParams{
			FirstName:   params.FirstName,
			LastName:    params.LastName,
			Email:       params.Email,
			Type:        "personal",
			Address1:    params.Address1,
			City:        params.City,
			State:       params.State,
			PostalCode:  params.PostalCode,
			DateOfBirth: params.DateOfBirth,
			SSN:         params.SSN,
		})
		if err != nil {
			s.log.Error().Err(err).Str("user_id", ident.UserID).Msg("Payment-rail customer creation failed")
			return nil, nil, fmt.Errorf("could not create payment-rail customer: %w", err)
		}

		profile = &domain.UserProfile{
			ID:                uuid.New(),
			UserID:            ident.UserID,
			Email:             params.Email,
			FirstName:         params.FirstName,
			LastName:          params.LastName,
			Address1:          params.Address1,
			City:              params.City,
			State:             params.State,
			PostalCode:        params.PostalCode,
			DateOfBirth:       params.DateOfBirth,
			SSN:               params.SSN,
			DwollaCustomerID:  extractCustomerID(customerURL),
			DwollaCustomerURL: customerURL,
		}
		if err := s.users.Create(ctx, profile); err != nil {
			return nil, nil, fmt.Errorf("could not persist profile: %w", err)
		}
	} else {
		// The customer reference, once set, is never replaced.
		s.log.Info().Str("user_id", profile.UserID).
			Str("customer_id", profile.DwollaCustomerID).
			Msg("Profile already exists, reusing payment-rail customer")
	}

	session, err := s.identity.CreateSession(ctx, params.Email, params.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("could not open session: %w", err)
	}

	s.log.Info().Str("user_id", profile.UserID).Msg("User signed up")
	return profile, session, nil
}

// SignIn authenticates credentials and loads the caller's profile.
func (s *UserService) SignIn(ctx context.Context, email, password string) (*domain.UserProfile, *domain.Session, error) {
	session, err := s.identity.CreateSession(ctx, email, password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return nil, nil, domain.ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("could not open session: %w", err)
	}

	profile, err := s.users.GetByUserID(ctx, session.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("could not load profile: %w", err)
	}
	if profile == nil {
		s.log.Error().Str("user_id", session.UserID).Msg("Identity has no local profile")
		return nil, nil, fmt.Errorf("no profile recorded for identity")
	}

	return profile, session, nil
}

// CurrentUser resolves a session token to the caller's profile.
func (s *UserService) CurrentUser(ctx context.Context, sessionToken string) (*domain.UserProfile, error) {
	ident, err := s.identity.GetIdentity(ctx, sessionToken)
	if err != nil {
		if errors.Is(err, domain.ErrNoSession) {
			return nil, domain.ErrNoSession
		}
		return nil, fmt.Errorf("could not resolve session: %w", err)
	}

	profile, err := s.users.GetByUserID(ctx, ident.UserID)
	if err != nil {
		return nil, fmt.Errorf("could not load profile: %w", err)
	}
	if profile == nil {
		// A session for an identity we never finished signing up.
		return nil, domain.ErrNoSession
	}

	return profile, nil
}

// Logout revokes the session behind the token.
func (s *UserService) Logout(ctx context.Context, sessionToken string) error {
	if err := s.identity.DeleteSession(ctx, sessionToken); err != nil && !errors.Is(err, domain.ErrNoSession) {
		return fmt.Errorf("could not delete session: %w", err)
	}
	return nil
}

// extractCustomerID pulls the customer id from its resource URL
// (".../customers/{id}").
func extractCustomerID(customerURL string) string {
	trimmed := strings.TrimRight(customerURL, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}
