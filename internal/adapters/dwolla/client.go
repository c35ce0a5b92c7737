package dwolla

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"horizon/internal/core/domain"
	"horizon/internal/core/ports"
)

const (
	contentTypeHAL = "application/vnd.dwolla.v1.hal+json"

	// duplicateResourceCode is the rail's code for "this resource already
	// exists"; the response discloses the existing resource's location.
	duplicateResourceCode = "DuplicateResource"
)

// Config holds the connection settings for the payment-rail API.
type Config struct {
	BaseURL string
	Key     string
	Secret  string
	Timeout time.Duration
}

// Client is the payment-rail gateway over Dwolla's HAL API. It manages
// its own client-credentials bearer token, refreshing before expiry.
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        zerolog.Logger

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

var _ ports.PaymentRailGateway = (*Client)(nil)

// NewClient creates a new payment-rail client.
func NewClient(cfg Config, baseLogger *zerolog.Logger) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{},
		log:        baseLogger.With().Str("component", "dwolla_client").Logger(),
	}
}

// APIError is a structured error response from the payment rail.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Links      map[string]struct {
		Href string `json:"href"`
	} `json:"_links"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("dwolla: %s (http %d): %s", e.Code, e.StatusCode, e.Message)
}

// ensureToken returns a valid bearer token, fetching a fresh one when the
// cached token is absent or about to expire.
func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Until(c.tokenExp) > time.Minute {
		return c.token, nil
	}

	reqURL, err := url.JoinPath(c.cfg.BaseURL, "/token")
	if err != nil {
		return "", fmt.Errorf("failed to build token URL: %w", err)
	}

	form := strings.NewReader("grant_type=client_credentials")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, form)
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.SetBasicAuth(c.cfg.Key, c.cfg.Secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read token response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("token request rejected (http %d)", resp.StatusCode)
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", fmt.Errorf("failed to parse token response: %w", err)
	}

	c.token = tokenResp.AccessToken
	c.tokenExp = time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)
	c.log.Debug().Time("expires", c.tokenExp).Msg("Bearer token refreshed")
	return c.token, nil
}

// doRequest performs one authenticated request and returns the response.
// The caller owns the returned response body.
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) (*http.Response, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	token, err := c.ensureToken(ctx)
	if err != nil {
		return nil, nil, err
	}

	reqURL, err := url.JoinPath(c.cfg.BaseURL, path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build URL: %w", err)
	}

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", contentTypeHAL)
	if body != nil {
		req.Header.Set("Content-Type", contentTypeHAL)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return resp, respBody, nil
}

// parseError decodes a failed response into an APIError.
func parseError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode}
	if err := json.Unmarshal(body, apiErr); err != nil {
		apiErr.Message = string(body)
	}
	return apiErr
}

// CreateCustomer registers a personal customer and returns its resource URL.
func (c *Client) CreateCustomer(ctx context.Context, params ports.CustomerParams) (string, error) {
	body := map[string]string{
		"firstName":   params.FirstName,
		"lastName":    params.LastName,
		"email":       params.Email,
		"type":        params.Type,
		"address1":    params.Address1,
		"city":        params.City,
		"state":       params.State,
		"postalCode":  params.PostalCode,
		"dateOfBirth": params.DateOfBirth,
		"ssn":         params.SSN,
	}

	resp, respBody, err := c.doRequest(ctx, http.MethodPost, "/customers", body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode >= 400 {
		apiErr := parseError(resp.StatusCode, respBody)
		if apiErr.Code == duplicateResourceCode {
			if about, ok := apiErr.Links["about"]; ok && about.Href != "" {
				c.log.Info().Str("customer_url", about.Href).Msg("Customer already exists, reusing")
				return about.Href, nil
			}
		}
		c.log.Warn().Int("status", resp.StatusCode).Str("code", apiErr.Code).Msg("Customer creation failed")
		return "", apiErr
	}

	location := resp.Header.Get("Location")
	if location == "" {
		return "", fmt.Errorf("customer created but no Location header returned")
	}
	return location, nil
}

// CreateFundingSource registers a bank account under a customer. A
// duplicate registration resolves to the existing resource's URL when the
// rail discloses it, otherwise domain.ErrDuplicateFundingSource.
func (c *Client) CreateFundingSource(ctx context.Context, customerID, processorToken, name string) (string, error) {
	body := map[string]string{
		"plaidToken": processorToken,
		"name":       name,
	}

	path := fmt.Sprintf("/customers/%s/funding-sources", customerID)
	resp, respBody, err := c.doRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode >= 400 {
		apiErr := parseError(resp.StatusCode, respBody)
		if apiErr.Code == duplicateResourceCode {
			if about, ok := apiErr.Links["about"]; ok && about.Href != "" {
				c.log.Info().Str("funding_source_url", about.Href).Msg("Funding source already exists, reusing")
				return about.Href, nil
			}
			return "", fmt.Errorf("%w: %s", domain.ErrDuplicateFundingSource, apiErr.Message)
		}
		c.log.Warn().Int("status", resp.StatusCode).Str("code", apiErr.Code).Msg("Funding source creation failed")
		return "", apiErr
	}

	location := resp.Header.Get("Location")
	if location == "" {
		return "", fmt.Errorf("funding source created but no Location header returned")
	}
	return location, nil
}

// ListFundingSources returns the funding sources registered under a customer.
func (c *Client) ListFundingSources(ctx context.Context, customerID string) ([]domain.FundingSource, error) {
	path := fmt.Sprintf("/customers/%s/funding-sources", customerID)
	resp, respBody, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, parseError(resp.StatusCode, respBody)
	}

	var result struct {
		Embedded struct {
			FundingSources []struct {
				ID      string `json:"id"`
				Name    string `json:"name"`
				Status  string `json:"status"`
				Removed bool   `json:"removed"`
				Links   map[string]struct {
					Href string `json:"href"`
				} `json:"_links"`
			} `json:"funding-sources"`
		} `json:"_embedded"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to parse funding sources: %w", err)
	}

	sources := make([]domain.FundingSource, 0, len(result.Embedded.FundingSources))
	for _, fs := range result.Embedded.FundingSources {
		source := domain.FundingSource{
			ID:      fs.ID,
			Name:    fs.Name,
			Status:  fs.Status,
			Removed: fs.Removed,
		}
		if self, ok := fs.Links["self"]; ok {
			source.URL = self.Href
		}
		sources = append(sources, source)
	}
	return sources, nil
}
