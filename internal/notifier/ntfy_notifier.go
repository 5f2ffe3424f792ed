package notifier

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aleister1102/releasewatch/internal/common"
	"github.com/aleister1102/releasewatch/internal/config"
	"github.com/aleister1102/releasewatch/internal/models"
	"github.com/rs/zerolog"
)

// NtfyNotifier posts notifications to an ntfy server
type NtfyNotifier struct {
	logger     zerolog.Logger
	httpClient *http.Client
}

// NewNtfyNotifier creates a new NtfyNotifier. The target endpoint is passed on
// every send so configuration edits take effect on the next cycle.
func NewNtfyNotifier(logger zerolog.Logger, httpClient *http.Client) *NtfyNotifier {
	moduleLogger := logger.With().Str("module", "NtfyNotifier").Logger()
	if httpClient == nil {
		moduleLogger.Warn().Msg("HTTP client is nil, using default HTTP client with 20s timeout.")
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	return &NtfyNotifier{
		logger:     moduleLogger,
		httpClient: httpClient,
	}
}

// Send posts n to {target.Endpoint}/{n.Topic}
func (nn *NtfyNotifier) Send(ctx context.Context, target config.NotificationTarget, n models.Notification) (int, error) {
	if n.Topic == "" {
		return 0, common.NewValidationError("topic", n.Topic, "topic is required")
	}

	endpoint := strings.TrimRight(target.Endpoint, "/") + "/" + url.PathEscape(n.Topic)
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		nn.logger.Error().Err(err).Str("url", endpoint).Msg("Invalid ntfy endpoint")
		return 0, common.NewDeliveryError(n.Topic, 0, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(n.Body))
	if err != nil {
		return 0, common.NewDeliveryError(n.Topic, 0, err)
	}

	priority := target.Priority
	if priority == "" {
		priority = DefaultPriority
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	req.Header.Set("Title", n.Title)
	req.Header.Set("Tags", strings.Join(n.Tags, ","))
	req.Header.Set("Priority", priority)
	req.Header.Set("Markdown", markdownEnabled)
	if target.Token != "" {
		req.Header.Set("Authorization", "Bearer "+target.Token)
	}
	for key, value := range n.ExtraHeaders {
		req.Header.Set(key, value)
	}

	nn.logger.Debug().Str("topic", n.Topic).Str("title", n.Title).Msg("Sending ntfy notification")

	resp, err := nn.httpClient.Do(req)
	if err != nil {
		nn.logger.Error().Err(err).Str("topic", n.Topic).Msg("Failed to send ntfy notification")
		return 0, common.NewDeliveryError(n.Topic, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		nn.logger.Error().Int("status_code", resp.StatusCode).Str("response_body", string(respBody)).Str("topic", n.Topic).Msg("ntfy notification failed")
		return resp.StatusCode, common.NewDeliveryError(n.Topic, resp.StatusCode, fmt.Errorf("%s", strings.TrimSpace(string(respBody))))
	}

	nn.logger.Info().Int("status_code", resp.StatusCode).Str("topic", n.Topic).Msg("ntfy notification sent successfully.")
	return resp.StatusCode, nil
}
