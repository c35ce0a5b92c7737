package ports

import (
	"context"

	"horizon/internal/core/domain"
)

// CustomerParams holds the KYC fields the payment rail requires to open
// a personal customer.
type CustomerParams struct {
	FirstName   string
	LastName    string
	Email       string
	Type        string
	Address1    string
	City        string
	State       string
	PostalCode  string
	DateOfBirth string
	SSN         string
}

// PaymentRailGateway is the contract this core expects from the
// money-movement provider.
type PaymentRailGateway interface {
	// CreateCustomer registers a customer and returns its resource URL.
	CreateCustomer(ctx context.Context, params CustomerParams) (customerURL string, err error)

	// CreateFundingSource registers a bank account under a customer using
	// a processor token, returning the funding-source URL. A duplicate
	// registration returns domain.ErrDuplicateFundingSource unless the
	// rail discloses the existing resource, in which case its URL is
	// returned as success.
	CreateFundingSource(ctx context.Context, customerID, processorToken, name string) (fundingSourceURL string, err error)

	// ListFundingSources returns the funding sources registered under a
	// customer, including removed ones.
	ListFundingSources(ctx context.Context, customerID string) ([]domain.FundingSource, error)
}
