package dwolla

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

// newTestClient stands up a fake rail that always issues tokens and
// delegates everything else to handler.
func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *int) {
	t.Helper()

	tokenCalls := new(int)
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		*tokenCalls++
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "key", user)
		require.Equal(t, "secret", pass)
		json.NewEncoder(w).Encode(map[string]any{"access_token": "bearer-1", "expires_in": 3600})
	})
	mux.HandleFunc("/", handler)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	nopLogger := zerolog.Nop()
	client := NewClient(Config{
		BaseURL: srv.URL,
		Key:     "key",
		Secret:  "secret",
		Timeout: 5 * time.Second,
	}, &nopLogger)
	return client, tokenCalls
}

func TestCreateCustomer(t *testing.T) {
	client, tokenCalls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/customers", r.URL.Path)
		require.Equal(t, "Bearer bearer-1", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "Ada", body["firstName"])
		require.Equal(t, "personal", body["type"])

		w.Header().Set("Location", "https://api-sandbox.dwolla.com/customers/cust-1")
		w.WriteHeader(http.StatusCreated)
	})

	url, err := client.CreateCustomer(context.Background(), ports.CustomerParams{
		FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Type: "personal",
	})
	require.NoError(t, err)
	require.Equal(t, "https://api-sandbox.dwolla.com/customers/cust-1", url)
	require.Equal(t, 1, *tokenCalls)
}

func TestCreateFundingSource(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/customers/cust-1/funding-sources", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "proc-1", body["plaidToken"])
		require.Equal(t, "Checking", body["name"])

		w.Header().Set("Location", "https://api-sandbox.dwolla.com/funding-sources/f1")
		w.WriteHeader(http.StatusCreated)
	})

	url, err := client.CreateFundingSource(context.Background(), "cust-1", "proc-1", "Checking")
	require.NoError(t, err)
	require.Equal(t, "https://api-sandbox.dwolla.com/funding-sources/f1", url)
}

func TestCreateFundingSource_DuplicateResolvesToExisting(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"code":    "DuplicateResource",
			"message": "Bank already exists",
			"_links": map[string]any{
				"about": map[string]string{"href": "https://api-sandbox.dwolla.com/funding-sources/f1"},
			},
		})
	})

	url, err := client.CreateFundingSource(context.Background(), "cust-1", "proc-1", "Checking")
	require.NoError(t, err)
	require.Equal(t, "https://api-sandbox.dwolla.com/funding-sources/f1", url)
}

func TestCreateFundingSource_OtherErrorSurfaces(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]any{"code": "Forbidden", "message": "customer suspended"})
	})

	_, err := client.CreateFundingSource(context.Background(), "cust-1", "proc-1", "Checking")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "Forbidden", apiErr.Code)
}

func TestListFundingSources(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/customers/cust-1/funding-sources", r.URL.Path)
		require.Equal(t, http.MethodGet, r.Method)

		json.NewEncoder(w).Encode(map[string]any{
			"_embedded": map[string]any{
				"funding-sources": []map[string]any{
					{
						"id": "f1", "name": "Checking", "status": "verified", "removed": false,
						"_links": map[string]any{"self": map[string]string{"href": "https://api-sandbox.dwolla.com/funding-sources/f1"}},
					},
					{
						"id": "f0", "name": "Old", "status": "verified", "removed": true,
						"_links": map[string]any{"self": map[string]string{"href": "https://api-sandbox.dwolla.com/funding-sources/f0"}},
					},
				},
			},
		})
	})

	sources, err := client.ListFundingSources(context.Background(), "cust-1")
	require.NoError(t, err)
	require.Len(t, sources, 2)
	require.Equal(t, "Checking", sources[0].Name)
	require.Equal(t, "https://api-sandbox.dwolla.com/funding-sources/f1", sources[0].URL)
	require.True(t, sources[1].Removed)
}

func TestTokenIsReusedUntilExpiry(t *testing.T) {
	client, tokenCalls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "https://api-sandbox.dwolla.com/funding-sources/f1")
		w.WriteHeader(http.StatusCreated)
	})

	ctx := context.Background()
	_, err := client.CreateFundingSource(ctx, "cust-1", "proc-1", "Checking")
	require.NoError(t, err)
	_, err = client.CreateFundingSource(ctx, "cust-1", "proc-2", "Savings")
	require.NoError(t, err)

	require.Equal(t, 1, *tokenCalls)
}
