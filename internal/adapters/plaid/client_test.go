package plaid

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"horizon/internal/core/ports"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	nopLogger := zerolog.Nop()
	return NewClient(Config{
		BaseURL:  srv.URL,
		ClientID: "client-id",
		Secret:   "secret",
		Timeout:  5 * time.Second,
	}, &nopLogger)
}

func TestExchangePublicToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/item/public_token/exchange", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "client-id", body["client_id"])
		require.Equal(t, "secret", body["secret"])
		require.Equal(t, "public-xyz", body["public_token"])

		json.NewEncoder(w).Encode(map[string]string{
			"access_token": "acc-1",
			"item_id":      "item-1",
		})
	})

	result, err := client.ExchangePublicToken(context.Background(), "public-xyz")
	require.NoError(t, err)
	require.Equal(t, "acc-1", result.AccessToken)
	require.Equal(t, "item-1", result.ItemID)
}

func TestExchangePublicToken_APIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{
			"error_type":    "INVALID_INPUT",
			"error_code":    "INVALID_PUBLIC_TOKEN",
			"error_message": "provided public token is expired",
		})
	})

	_, err := client.ExchangePublicToken(context.Background(), "public-stale")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	require.Equal(t, "INVALID_PUBLIC_TOKEN", apiErr.ErrorCode)
}

func TestGetAccounts(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/accounts/get", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"accounts": []map[string]any{
				{
					"account_id": "a1",
					"name":       "Checking",
					"mask":       "0000",
					"balances":   map[string]any{"available": 100.5, "current": 110},
				},
			},
		})
	})

	accounts, err := client.GetAccounts(context.Background(), "acc-1")
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	require.Equal(t, "a1", accounts[0].ID)
	require.Equal(t, "Checking", accounts[0].Name)
	require.Equal(t, "100.5", accounts[0].AvailableBalance.String())
	require.Equal(t, "110", accounts[0].CurrentBalance.String())
}

func TestCreateProcessorToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/processor/token/create", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "acc-1", body["access_token"])
		require.Equal(t, "a1", body["account_id"])
		require.Equal(t, "dwolla", body["processor"])

		json.NewEncoder(w).Encode(map[string]string{"processor_token": "proc-1"})
	})

	token, err := client.CreateProcessorToken(context.Background(), "acc-1", "a1", "dwolla")
	require.NoError(t, err)
	require.Equal(t, "proc-1", token)
}

func TestCreateLinkToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/link/token/create", r.URL.Path)

		var body struct {
			User struct {
				ClientUserID string `json:"client_user_id"`
			} `json:"user"`
			ClientName   string   `json:"client_name"`
			Products     []string `json:"products"`
			Language     string   `json:"language"`
			CountryCodes []string `json:"country_codes"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "u1", body.User.ClientUserID)
		require.Equal(t, "Ada Lovelace", body.ClientName)
		require.Equal(t, []string{"auth"}, body.Products)
		require.Equal(t, "en", body.Language)
		require.Equal(t, []string{"US"}, body.CountryCodes)

		json.NewEncoder(w).Encode(map[string]string{"link_token": "link-1"})
	})

	token, err := client.CreateLinkToken(context.Background(), ports.LinkTokenParams{
		ClientUserID: "u1",
		ClientName:   "Ada Lovelace",
		Products:     []string{"auth"},
		Language:     "en",
		CountryCodes: []string{"US"},
	})
	require.NoError(t, err)
	require.Equal(t, "link-1", token)
}
