// Package notify registers finished transfers with the companion
// application. Registration is best effort: callers log failures and move
// on, a transfer never fails because its announcement did.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mediahaul/mediahaul/internal/config"
	"github.com/mediahaul/mediahaul/internal/domain"
)

// Notifier announces completed artifacts to an external consumer.
type Notifier interface {
	Register(ctx context.Context, artifact domain.CompletedArtifact) error
}

// HTTPNotifier implements Notifier against the companion app's internal
// registration endpoint.
type HTTPNotifier struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPNotifier creates a notifier from configuration. An empty BaseURL
// disables registration; Register becomes a no-op.
func NewHTTPNotifier(cfg config.NotifyConfig, logger *slog.Logger) *HTTPNotifier {
	return &HTTPNotifier{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

// Enabled reports whether a registration endpoint is configured.
func (n *HTTPNotifier) Enabled() bool {
	return n.baseURL != ""
}

// Register posts the artifact to the registration endpoint.
func (n *HTTPNotifier) Register(ctx context.Context, artifact domain.CompletedArtifact) error {
	if !n.Enabled() {
		return nil
	}

	body, err := json.Marshal(artifact)
	if err != nil {
		return fmt.Errorf("marshal artifact: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		n.baseURL+"/api/internal/register-download", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if n.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+n.apiKey)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRegistrationFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: status %d: %s",
			domain.ErrRegistrationFailed, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	n.logger.Debug("artifact registered", "filename", artifact.Filename, "size", artifact.SizeBytes)
	return nil
}
