package common

import (
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
)

// DefaultUserAgent is sent on every outbound request unless overridden
const DefaultUserAgent = "releasewatch/1.0"

// HTTPClientConfig holds configuration for HTTP clients
type HTTPClientConfig struct {
	Timeout             time.Duration     // Whole-request timeout, covers connect and read
	Proxy               string            // Proxy URL
	CustomHeaders       map[string]string // Headers added to every request when absent
	UserAgent           string
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration
	TLSHandshakeTimeout time.Duration
	DialTimeout         time.Duration
	KeepAlive           time.Duration
	EnableHTTP2         bool
}

// DefaultHTTPClientConfig returns the default HTTP client configuration
func DefaultHTTPClientConfig() HTTPClientConfig {
	return HTTPClientConfig{
		Timeout:             30 * time.Second,
		CustomHeaders:       map[string]string{},
		UserAgent:           DefaultUserAgent,
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DialTimeout:         10 * time.Second,
		KeepAlive:           30 * time.Second,
		EnableHTTP2:         true,
	}
}

// NewHTTPClient creates a new HTTP client with the given configuration
func NewHTTPClient(config HTTPClientConfig, logger zerolog.Logger) (*http.Client, error) {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   config.DialTimeout,
			KeepAlive: config.KeepAlive,
		}).DialContext,
		MaxIdleConns:        config.MaxIdleConns,
		MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
		IdleConnTimeout:     config.IdleConnTimeout,
		TLSHandshakeTimeout: config.TLSHandshakeTimeout,
	}

	if config.EnableHTTP2 {
		if err := http2.ConfigureTransport(transport); err != nil {
			logger.Warn().Err(err).Msg("Failed to configure HTTP/2, falling back to HTTP/1.1")
		}
	}

	if config.Proxy != "" {
		proxyURL, err := url.Parse(config.Proxy)
		if err != nil {
			return nil, WrapError(err, "failed to parse proxy URL")
		}
		transport.Proxy = http.ProxyURL(proxyURL)
		logger.Info().Str("proxy", config.Proxy).Msg("HTTP client configured with proxy")
	}

	client := &http.Client{
		Transport: &headerTransport{
			base:      transport,
			headers:   config.CustomHeaders,
			userAgent: config.UserAgent,
		},
		Timeout: config.Timeout,
	}

	logger.Debug().
		Dur("timeout", config.Timeout).
		Bool("http2_enabled", config.EnableHTTP2).
		Msg("HTTP client created")

	return client, nil
}

// headerTransport applies default headers without overriding per-request ones
type headerTransport struct {
	base      http.RoundTripper
	headers   map[string]string
	userAgent string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if len(t.headers) == 0 && t.userAgent == "" {
		return t.base.RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	for key, value := range t.headers {
		if clone.Header.Get(key) == "" {
			clone.Header.Set(key, value)
		}
	}
	if t.userAgent != "" && clone.Header.Get("User-Agent") == "" {
		clone.Header.Set("User-Agent", t.userAgent)
	}
	return t.base.RoundTrip(clone)
}

// HTTPClientFactory creates the clients used by the adapters and the notifier
type HTTPClientFactory struct {
	logger zerolog.Logger
}

// NewHTTPClientFactory creates a new HTTPClientFactory
func NewHTTPClientFactory(logger zerolog.Logger) *HTTPClientFactory {
	return &HTTPClientFactory{logger: logger.With().Str("component", "HTTPClientFactory").Logger()}
}

// CreateAPIClient returns a client for upstream REST APIs
func (f *HTTPClientFactory) CreateAPIClient(timeout time.Duration) (*http.Client, error) {
	cfg := DefaultHTTPClientConfig()
	cfg.Timeout = timeout
	return NewHTTPClient(cfg, f.logger)
}

// CreateNotifierClient returns a client for the push relay
func (f *HTTPClientFactory) CreateNotifierClient(timeout time.Duration) (*http.Client, error) {
	cfg := DefaultHTTPClientConfig()
	cfg.Timeout = timeout
	cfg.MaxIdleConnsPerHost = 2
	return NewHTTPClient(cfg, f.logger)
}
