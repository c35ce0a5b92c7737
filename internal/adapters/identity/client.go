package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"horizon/internal/core/domain"
	"horizon/internal/core/ports"
)

const (
	headerProject = "X-Appwrite-Project"
	headerAPIKey  = "X-Appwrite-Key"
	headerSession = "X-Appwrite-Session"
)

// Config holds connection settings for the hosted identity provider.
type Config struct {
	Endpoint  string
	ProjectID string
	APIKey    string
	Timeout   time.Duration
}

// Client implements the identity gateway over the provider's REST API.
// Only the four-call contract the core depends on is implemented; the
// provider's internals are not our concern.
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        zerolog.Logger
}

var _ ports.IdentityGateway = (*Client)(nil)

// NewClient creates a new identity client.
func NewClient(cfg Config, baseLogger *zerolog.Logger) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{},
		log:        baseLogger.With().Str("component", "identity_client").Logger(),
	}
}

type apiError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"message"`
	Type       string `json:"type"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("identity: %s (http %d): %s", e.Type, e.StatusCode, e.Message)
}

// doRequest performs one request against the provider under a bounded
// timeout. sessionToken, when non-empty, scopes the call to a session
// instead of the server API key.
func (c *Client) doRequest(ctx context.Context, method, path, sessionToken string, body, result interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	reqURL, err := url.JoinPath(c.cfg.Endpoint, path)
	if err != nil {
		return fmt.Errorf("failed to build URL: %w", err)
	}

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(headerProject, c.cfg.ProjectID)
	if sessionToken != "" {
		req.Header.Set(headerSession, sessionToken)
	} else {
		req.Header.Set(headerAPIKey, c.cfg.APIKey)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

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
		apiErr := &apiError{StatusCode: resp.StatusCode}
		if jsonErr := json.Unmarshal(respBody, apiErr); jsonErr != nil {
			apiErr.Message = string(respBody)
		}
		return apiErr
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}

type accountResponse struct {
	ID    string `json:"$id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// CreateAccount registers credentials with the provider.
func (c *Client) CreateAccount(ctx context.Context, email, password, name string) (*domain.Identity, error) {
	body := map[string]string{
		"userId":   "unique()",
		"email":    email,
		"password": password,
		"name":     name,
	}

	var result accountResponse
	if err := c.doRequest(ctx, http.MethodPost, "/account", "", body, &result); err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict {
			return nil, domain.ErrDuplicateEmail
		}
		return nil, err
	}

	return &domain.Identity{UserID: result.ID, Email: result.Email, Name: result.Name}, nil
}

// CreateSession signs credentials in and returns the session.
func (c *Client) CreateSession(ctx context.Context, email, password string) (*domain.Session, error) {
	body := map[string]string{
		"email":    email,
		"password": password,
	}

	var result struct {
		UserID string `json:"userId"`
		Secret string `json:"secret"`
		Expire string `json:"expire"`
	}
	if err := c.doRequest(ctx, http.MethodPost, "/account/sessions/email", "", body, &result); err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	session := &domain.Session{UserID: result.UserID, Secret: result.Secret}
	if expire, err := time.Parse(time.RFC3339, result.Expire); err == nil {
		session.ExpiresAt = expire
	}
	return session, nil
}

// GetIdentity resolves a session token to the identity it belongs to.
func (c *Client) GetIdentity(ctx context.Context, sessionToken string) (*domain.Identity, error) {
	if sessionToken == "" {
		return nil, domain.ErrNoSession
	}

	var result accountResponse
	if err := c.doRequest(ctx, http.MethodGet, "/account", sessionToken, nil, &result); err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
			return nil, domain.ErrNoSession
		}
		return nil, err
	}

	return &domain.Identity{UserID: result.ID, Email: result.Email, Name: result.Name}, nil
}

// DeleteSession revokes the session behind the token.
func (c *Client) DeleteSession(ctx context.Context, sessionToken string) error {
	if sessionToken == "" {
		return domain.ErrNoSession
	}

	err := c.doRequest(ctx, http.MethodDelete, "/account/sessions/current", sessionToken, nil, nil)
	if err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
			return domain.ErrNoSession
		}
		return err
	}
	return nil
}
