package ports

import (
	"context"

	"horizon/internal/core/domain"
)

// LinkTokenParams describes one link-token issuance request.
type LinkTokenParams struct {
	ClientUserID string
	ClientName   string
	Products     []string
	Language     string
	CountryCodes []string
}

// AggregatorGateway is the contract this core expects from the bank-data
// aggregator. Implementations perform short-lived remote calls and must
// honor the context deadline.
type AggregatorGateway interface {
	// CreateLinkToken issues an opaque token the client-side linking UI
	// opens its flow with.
	CreateLinkToken(ctx context.Context, params LinkTokenParams) (string, error)

	// ExchangePublicToken trades the short-lived public token produced by
	// the linking UI for a durable access token and item id.
	ExchangePublicToken(ctx context.Context, publicToken string) (*domain.ExchangeResult, error)

	// GetAccounts lists the accounts reachable through an access token.
	GetAccounts(ctx context.Context, accessToken string) ([]domain.AggregatorAccount, error)

	// CreateProcessorToken binds an access-token/account pair to a named
	// payment processor.
	CreateProcessorToken(ctx context.Context, accessToken, accountID, processor string) (string, error)
}
