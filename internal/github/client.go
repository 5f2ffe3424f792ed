package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aleister1102/releasewatch/internal/common"
	"github.com/aleister1102/releasewatch/internal/models"
	"github.com/rs/zerolog"
)

const (
	acceptHeader    = "application/vnd.github.v3+json"
	maxResponseSize = 4 * 1024 * 1024
	maxErrorBody    = 1024
)

// Client fetches the latest release of a repository from the GitHub REST API
type Client struct {
	httpClient *http.Client
	apiURL     string
	logger     zerolog.Logger
}

// NewClient creates a Client against apiURL, e.g. https://api.github.com
func NewClient(httpClient *http.Client, apiURL string, logger zerolog.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		apiURL:     strings.TrimRight(apiURL, "/"),
		logger:     logger.With().Str("component", "GitHubClient").Logger(),
	}
}

type releaseResponse struct {
	TagName     string `json:"tag_name"`
	Name        string `json:"name"`
	Body        string `json:"body"`
	PublishedAt string `json:"published_at"`
	HTMLURL     string `json:"html_url"`
	Author      struct {
		Login     string `json:"login"`
		AvatarURL string `json:"avatar_url"`
	} `json:"author"`
	Assets []struct {
		Name               string `json:"name"`
		Size               int64  `json:"size"`
		BrowserDownloadURL string `json:"browser_download_url"`
		DownloadCount      int64  `json:"download_count"`
	} `json:"assets"`
}

// FetchLatest returns the latest published release of key ("owner/name").
// A 404 yields an error matching common.ErrNotFound, transport faults and
// other non-2xx answers match common.ErrTransientFetch, and an undecodable
// body matches common.ErrMalformedResponse.
func (c *Client) FetchLatest(ctx context.Context, key, token string) (models.ReleasePayload, error) {
	url := fmt.Sprintf("%s/repos/%s/releases/latest", c.apiURL, key)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return models.ReleasePayload{}, common.WrapError(err, fmt.Sprintf("creating request for %s", url))
	}
	req.Header.Set("Accept", acceptHeader)
	if token != "" {
		req.Header.Set("Authorization", "token "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("repo", key).Msg("Failed to execute release request")
		return models.ReleasePayload{}, common.NewNetworkError(url, "HTTP request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Warn().Str("repo", key).Int("status_code", resp.StatusCode).Msg("Received non-OK HTTP status")
		return models.ReleasePayload{}, common.NewHTTPErrorWithURL(resp.StatusCode, strings.TrimSpace(string(body)), url)
	}

	var decoded releaseResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&decoded); err != nil {
		return models.ReleasePayload{}, common.NewMalformedResponseError(url, err)
	}
	if decoded.PublishedAt == "" {
		return models.ReleasePayload{}, common.NewMalformedResponseError(url, common.NewError("release has no published_at"))
	}

	payload := models.ReleasePayload{
		Repo:            key,
		Tag:             decoded.TagName,
		Name:            decoded.Name,
		Body:            decoded.Body,
		PublishedAt:     decoded.PublishedAt,
		HTMLURL:         decoded.HTMLURL,
		AuthorLogin:     decoded.Author.Login,
		AuthorAvatarURL: decoded.Author.AvatarURL,
		Assets:          make([]models.Asset, 0, len(decoded.Assets)),
	}
	for _, a := range decoded.Assets {
		payload.Assets = append(payload.Assets, models.Asset{
			Name:          a.Name,
			Size:          a.Size,
			DownloadURL:   a.BrowserDownloadURL,
			DownloadCount: a.DownloadCount,
		})
	}

	c.logger.Debug().Str("repo", key).Str("tag", payload.Tag).Str("published_at", payload.PublishedAt).Msg("Latest release fetched")
	return payload, nil
}
