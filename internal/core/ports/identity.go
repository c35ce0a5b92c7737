package ports

import (
	"context"

	"horizon/internal/core/domain"
)

// IdentityGateway is the contract this core expects from the hosted
// identity provider. The session token is always an explicit parameter;
// there is no ambient session lookup.
type IdentityGateway interface {
	// CreateAccount registers credentials and returns the new identity.
	// Returns domain.ErrDuplicateEmail if the email is taken.
	CreateAccount(ctx context.Context, email, password, name string) (*domain.Identity, error)

	// CreateSession signs credentials in and returns a session whose
	// Secret authenticates subsequent calls. Returns
	// domain.ErrInvalidCredentials on a bad pair.
	CreateSession(ctx context.Context, email, password string) (*domain.Session, error)

	// GetIdentity resolves a session token to its identity. Returns
	// domain.ErrNoSession when the token is missing, expired or revoked.
	GetIdentity(ctx context.Context, sessionToken string) (*domain.Identity, error)

	// DeleteSession revokes the session behind the token.
	DeleteSession(ctx context.Context, sessionToken string) error
}
