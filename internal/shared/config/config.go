package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// PlaidConfig holds the aggregator gateway credentials.
type PlaidConfig struct {
	BaseURL  string
	ClientID string
	Secret   string
}

// DwollaConfig holds the payment-rail gateway credentials.
type DwollaConfig struct {
	BaseURL string
	Key     string
	Secret  string
}

// IdentityConfig holds the identity-provider connection settings.
type IdentityConfig struct {
	Endpoint  string
	ProjectID string
	APIKey    string
}

// Config holds all configuration for the application. It is built once
// at startup and handed to components explicitly; nothing reads the
// environment at use sites.
type Config struct {
	AppEnv         string
	HTTPAddr       string
	DatabaseURL    string
	EncryptionKey  string
	GatewayTimeout time.Duration

	Plaid    PlaidConfig
	Dwolla   DwollaConfig
	Identity IdentityConfig
}

// bindings maps viper keys to the environment variables that feed them.
var bindings = map[string]string{
	"app.env":           "APP_ENV",
	"http.addr":         "HTTP_ADDR",
	"database.url":      "DATABASE_URL",
	"encryption.key":    "ENCRYPTION_KEY",
	"gateway.timeout":   "GATEWAY_TIMEOUT",
	"plaid.base_url":    "PLAID_BASE_URL",
	"plaid.client_id":   "PLAID_CLIENT_ID",
	"plaid.secret":      "PLAID_SECRET",
	"dwolla.base_url":   "DWOLLA_BASE_URL",
	"dwolla.key":        "DWOLLA_KEY",
	"dwolla.secret":     "DWOLLA_SECRET",
	"identity.endpoint": "IDENTITY_ENDPOINT",
	"identity.project":  "IDENTITY_PROJECT_ID",
	"identity.api_key":  "IDENTITY_API_KEY",
}

// Load loads configuration from environment variables, optionally seeded
// from a .env file, and validates the required fields.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// A missing .env is fine in prod; anything else we want to know about.
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	for key, env := range bindings {
		if err := viper.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("could not bind %s: %w", key, err)
		}
	}

	viper.SetDefault("app.env", "dev")
	viper.SetDefault("http.addr", ":8080")
	viper.SetDefault("gateway.timeout", "15s")
	viper.SetDefault("plaid.base_url", "https://sandbox.plaid.com")
	viper.SetDefault("dwolla.base_url", "https://api-sandbox.dwolla.com")

	cfg := Config{
		AppEnv:         viper.GetString("app.env"),
		HTTPAddr:       viper.GetString("http.addr"),
		DatabaseURL:    viper.GetString("database.url"),
		EncryptionKey:  viper.GetString("encryption.key"),
		GatewayTimeout: viper.GetDuration("gateway.timeout"),
		Plaid: PlaidConfig{
			BaseURL:  viper.GetString("plaid.base_url"),
			ClientID: viper.GetString("plaid.client_id"),
			Secret:   viper.GetString("plaid.secret"),
		},
		Dwolla: DwollaConfig{
			BaseURL: viper.GetString("dwolla.base_url"),
			Key:     viper.GetString("dwolla.key"),
			Secret:  viper.GetString("dwolla.secret"),
		},
		Identity: IdentityConfig{
			Endpoint:  viper.GetString("identity.endpoint"),
			ProjectID: viper.GetString("identity.project"),
			APIKey:    viper.GetString("identity.api_key"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	required := map[string]string{
		"DATABASE_URL":        c.DatabaseURL,
		"ENCRYPTION_KEY":      c.EncryptionKey,
		"PLAID_CLIENT_ID":     c.Plaid.ClientID,
		"PLAID_SECRET":        c.Plaid.Secret,
		"DWOLLA_KEY":          c.Dwolla.Key,
		"DWOLLA_SECRET":       c.Dwolla.Secret,
		"IDENTITY_ENDPOINT":   c.Identity.Endpoint,
		"IDENTITY_PROJECT_ID": c.Identity.ProjectID,
		"IDENTITY_API_KEY":    c.Identity.APIKey,
	}
	for name, val := range required {
		if val == "" {
			return fmt.Errorf("%s is not set in environment or .env file", name)
		}
	}

	if len(c.EncryptionKey) != 64 {
		return fmt.Errorf("ENCRYPTION_KEY must be a 64-character hex string (32 bytes), but got %d chars", len(c.EncryptionKey))
	}

	if c.GatewayTimeout <= 0 {
		return fmt.Errorf("GATEWAY_TIMEOUT must be positive, got %s", c.GatewayTimeout)
	}

	return nil
}
