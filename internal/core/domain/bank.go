package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LinkedBankAccount is the durable record of one completed linking flow.
// A record exists only if both the aggregator exchange and the payment-rail
// funding-source registration succeeded; (UserID, AccountID) is unique.
type LinkedBankAccount struct {
	ID               uuid.UUID
	UserID           string // identity-provider user id of the owner
	AccessToken      string // aggregator access token, encrypted at rest
	FundingSourceURL string
	BankID           string // aggregator item id
	AccountID        string // aggregator account id
	SharableID       string // reversible obfuscation of AccountID
	CreatedAt        time.Time
}

// AggregatorAccount is one account as reported by the aggregator.
// Only ID and Name feed the linking flow; balances are carried for
// display surfaces.
type AggregatorAccount struct {
	ID               string
	Name             string
	Mask             string
	AvailableBalance decimal.Decimal
	CurrentBalance   decimal.Decimal
}

// ExchangeResult is the durable outcome of a public-token exchange.
type ExchangeResult struct {
	AccessToken string
	ItemID      string
}

// FundingSource is a bank account registered at the payment rail.
type FundingSource struct {
	ID      string
	Name    string
	URL     string
	Status  string
	Removed bool
}
