package plaid

import "github.com/shopspring/decimal"

// accountRecord mirrors the aggregator's account payload. Balance fields
// are decimals straight off the wire; only id and name feed the linking
// flow, the rest is carried for display.
type accountRecord struct {
	AccountID string `json:"account_id"`
	Name      string `json:"name"`
	Mask      string `json:"mask"`
	Balances  struct {
		Available decimal.Decimal `json:"available"`
		Current   decimal.Decimal `json:"current"`
	} `json:"balances"`
}
