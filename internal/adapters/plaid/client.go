package plaid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"horizon/internal/core/domain"
	"horizon/internal/core/ports"
)

// Config holds the connection settings for the aggregator API.
type Config struct {
	BaseURL  string
	ClientID string
	Secret   string
	Timeout  time.Duration
}

// Client is the aggregator gateway over Plaid's JSON API. Credentials
// travel in the request body, the Plaid way.
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        zerolog.Logger
}

var _ ports.AggregatorGateway = (*Client)(nil)

// NewClient creates a new aggregator client.
func NewClient(cfg Config, baseLogger *zerolog.Logger) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{},
		log:        baseLogger.With().Str("component", "plaid_client").Logger(),
	}
}

// APIError is a structured error response from the aggregator.
type APIError struct {
	StatusCode   int    `json:"-"`
	ErrorType    string `json:"error_type"`
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("plaid: %s/%s (http %d): %s", e.ErrorType, e.ErrorCode, e.StatusCode, e.ErrorMessage)
}

// post performs one JSON request against the API under a bounded timeout.
func (c *Client) post(ctx context.Context, path string, body, result interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	reqURL, err := url.JoinPath(c.cfg.BaseURL, path)
	if err != nil {
		return fmt.Errorf("failed to build URL: %w", err)
	}

	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if jsonErr := json.Unmarshal(respBody, apiErr); jsonErr != nil {
			apiErr.ErrorMessage = string(respBody)
		}
		c.log.Warn().Str("path", path).Int("status", resp.StatusCode).
			Str("error_code", apiErr.ErrorCode).Msg("Aggregator call failed")
		return apiErr
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}

type auth struct {
	ClientID string `json:"client_id"`
	Secret   string `json:"secret"`
}

func (c *Client) auth() auth {
	return auth{ClientID: c.cfg.ClientID, Secret: c.cfg.Secret}
}

// CreateLinkToken issues a link token for the client-side linking UI.
func (c *Client) CreateLinkToken(ctx context.Context, params ports.LinkTokenParams) (string, error) {
	body := struct {
		auth
		User struct {
			ClientUserID string `json:"client_user_id"`
		} `json:"user"`
		ClientName   string   `json:"client_name"`
		Products     []string `json:"products"`
		Language     string   `json:"language"`
		CountryCodes []string `json:"country_codes"`
	}{
		auth:         c.auth(),
		ClientName:   params.ClientName,
		Products:     params.Products,
		Language:     params.Language,
		CountryCodes: params.CountryCodes,
	}
	body.User.ClientUserID = params.ClientUserID

	var result struct {
		LinkToken string `json:"link_token"`
	}
	if err := c.post(ctx, "/link/token/create", body, &result); err != nil {
		return "", err
	}
	return result.LinkToken, nil
}

// ExchangePublicToken trades a public token for an access token and item id.
func (c *Client) ExchangePublicToken(ctx context.Context, publicToken string) (*domain.ExchangeResult, error) {
	body := struct {
		auth
		PublicToken string `json:"public_token"`
	}{auth: c.auth(), PublicToken: publicToken}

	var result struct {
		AccessToken string `json:"access_token"`
		ItemID      string `json:"item_id"`
	}
	if err := c.post(ctx, "/item/public_token/exchange", body, &result); err != nil {
		return nil, err
	}
	return &domain.ExchangeResult{AccessToken: result.AccessToken, ItemID: result.ItemID}, nil
}

// GetAccounts lists the accounts behind an access token.
func (c *Client) GetAccounts(ctx context.Context, accessToken string) ([]domain.AggregatorAccount, error) {
	body := struct {
		auth
		AccessToken string `json:"access_token"`
	}{auth: c.auth(), AccessToken: accessToken}

	var result struct {
		Accounts []accountRecord `json:"accounts"`
	}
	if err := c.post(ctx, "/accounts/get", body, &result); err != nil {
		return nil, err
	}

	accounts := make([]domain.AggregatorAccount, 0, len(result.Accounts))
	for _, a := range result.Accounts {
		accounts = append(accounts, domain.AggregatorAccount{
			ID:               a.AccountID,
			Name:             a.Name,
			Mask:             a.Mask,
			AvailableBalance: a.Balances.Available,
			CurrentBalance:   a.Balances.Current,
		})
	}
	return accounts, nil
}

// CreateProcessorToken binds an access-token/account pair to a processor.
func (c *Client) CreateProcessorToken(ctx context.Context, accessToken, accountID, processor string) (string, error) {
	body := struct {
		auth
		AccessToken string `json:"access_token"`
		AccountID   string `json:"account_id"`
		Processor   string `json:"processor"`
	}{auth: c.auth(), AccessToken: accessToken, AccountID: accountID, Processor: processor}

	var result struct {
		ProcessorToken string `json:"processor_token"`
	}
	if err := c.post(ctx, "/processor/token/create", body, &result); err != nil {
		return "", err
	}
	return result.ProcessorToken, nil
}
