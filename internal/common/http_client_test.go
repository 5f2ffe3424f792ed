package common

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHTTPClient_AppliesDefaultHeaders(t *testing.T) {
	var gotUA, gotCustom, gotOverride string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotCustom = r.Header.Get("X-Custom")
		gotOverride = r.Header.Get("Accept")
		_, _ = w.Write([]byte(r.Proto))
	}))
	defer server.Close()

	cfg := DefaultHTTPClientConfig()
	cfg.CustomHeaders = map[string]string{"X-Custom": "yes", "Accept": "text/plain"}
	cfg.Timeout = 5 * time.Second

	client, err := NewHTTPClient(cfg, zerolog.Nop())
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, DefaultUserAgent, gotUA)
	assert.Equal(t, "yes", gotCustom)
	assert.Equal(t, "application/json", gotOverride)
	assert.NotEmpty(t, string(body))
	assert.Empty(t, req.Header.Get("X-Custom"), "caller request must not be mutated")
}

func TestNewHTTPClient_InvalidProxy(t *testing.T) {
	cfg := DefaultHTTPClientConfig()
	cfg.Proxy = "://bad"

	_, err := NewHTTPClient(cfg, zerolog.Nop())
	assert.Error(t, err)
}

func TestNewHTTPClient_TimeoutIsTransportFault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	cfg := DefaultHTTPClientConfig()
	cfg.Timeout = 20 * time.Millisecond
	cfg.EnableHTTP2 = false
	client, err := NewHTTPClient(cfg, zerolog.Nop())
	require.NoError(t, err)

	_, err = client.Get(server.URL)
	assert.Error(t, err)
}

func TestHTTPClientFactory(t *testing.T) {
	factory := NewHTTPClientFactory(zerolog.Nop())

	api, err := factory.CreateAPIClient(15 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, api.Timeout)

	notifier, err := factory.CreateNotifierClient(10 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, notifier.Timeout)
}
