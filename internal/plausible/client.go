package plausible

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/aleister1102/releasewatch/internal/common"
	"github.com/aleister1102/releasewatch/internal/models"
	"github.com/rs/zerolog"
)

const (
	aggregateMetrics = "visitors,pageviews,bounce_rate,visit_duration"
	maxResponseSize  = 1024 * 1024
	maxErrorBody     = 1024
)

// Client talks to the Plausible Analytics stats API
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     zerolog.Logger
}

// NewClient creates a Client against baseURL, e.g. https://plausible.io
func NewClient(httpClient *http.Client, baseURL string, logger zerolog.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger.With().Str("component", "PlausibleClient").Logger(),
	}
}

type metricValue struct {
	Value *float64 `json:"value"`
}

type aggregateResponse struct {
	Results map[string]metricValue `json:"results"`
}

type siteResponse struct {
	Domain string `json:"domain"`
}

// FetchStats returns the aggregate metrics of site for day (YYYY-MM-DD).
// FetchedAt is left for the caller to stamp.
func (c *Client) FetchStats(ctx context.Context, site, token, day string) (models.StatsSnapshot, error) {
	query := url.Values{}
	query.Set("site_id", site)
	query.Set("period", "day")
	query.Set("metrics", aggregateMetrics)
	if day != "" {
		query.Set("date", day)
	}
	endpoint := c.baseURL + "/api/v1/stats/aggregate?" + query.Encode()

	var decoded aggregateResponse
	if err := c.getJSON(ctx, endpoint, token, &decoded); err != nil {
		c.logger.Error().Err(err).Str("site", site).Msg("Failed to fetch site stats")
		return models.StatsSnapshot{}, err
	}

	values := make(map[string]float64, 4)
	for _, metric := range strings.Split(aggregateMetrics, ",") {
		m, ok := decoded.Results[metric]
		if !ok || m.Value == nil {
			return models.StatsSnapshot{}, common.NewMalformedResponseError(endpoint, fmt.Errorf("metric %q missing", metric))
		}
		values[metric] = *m.Value
	}

	snap := models.StatsSnapshot{
		Site:          site,
		Visitors:      int64(values["visitors"]),
		Pageviews:     int64(values["pageviews"]),
		BounceRate:    values["bounce_rate"],
		VisitDuration: int64(values["visit_duration"]),
		Day:           day,
	}
	c.logger.Debug().Str("site", site).Int64("visitors", snap.Visitors).Msg("Site stats fetched")
	return snap, nil
}

// ListSites returns the domains the token has access to
func (c *Client) ListSites(ctx context.Context, token string) ([]string, error) {
	endpoint := c.baseURL + "/api/v1/sites"

	var decoded []siteResponse
	if err := c.getJSON(ctx, endpoint, token, &decoded); err != nil {
		c.logger.Error().Err(err).Msg("Failed to list Plausible sites")
		return nil, err
	}

	domains := make([]string, 0, len(decoded))
	for _, s := range decoded {
		if s.Domain != "" {
			domains = append(domains, s.Domain)
		}
	}
	c.logger.Info().Int("count", len(domains)).Msg("Plausible sites listed")
	return domains, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, token string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return common.WrapError(err, fmt.Sprintf("creating request for %s", endpoint))
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return common.NewNetworkError(endpoint, "HTTP request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return common.NewHTTPErrorWithURL(resp.StatusCode, strings.TrimSpace(string(body)), endpoint)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(v); err != nil {
		return common.NewMalformedResponseError(endpoint, err)
	}
	return nil
}
