package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tuannvm/jira-issue-share/internal/config"
	log "github.com/tuannvm/jira-issue-share/internal/logging"
	"github.com/tuannvm/jira-issue-share/internal/models"
)

const (
	sendPath     = "/v0/api/email/send"
	maxErrorBody = 400
)

// RemoteTransport posts envelopes to the hosted mail API.
type RemoteTransport struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// NewRemoteTransport creates a transport for APP_RUNNER_BASE_URL
func NewRemoteTransport(cfg *config.Config) *RemoteTransport {
	return &RemoteTransport{
		endpoint: cfg.AppRunnerBaseURL + sendPath,
		apiKey:   cfg.AppRunnerAuthToken,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.MailTimeout) * time.Second,
		},
	}
}

// Deliver implements Transport
func (t *RemoteTransport) Deliver(ctx context.Context, env Envelope) (models.DispatchReceipt, error) {
	payload, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal mail envelope: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", t.apiKey)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, &models.DispatchBackendError{Err: fmt.Errorf("failed to send request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &models.DispatchBackendError{Status: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		truncated := log.Truncate(string(body), maxErrorBody)
		log.Errorf("mailer:send:error status=%d body=%s", resp.StatusCode, truncated)
		return nil, &models.DispatchBackendError{Status: resp.StatusCode, Body: truncated}
	}

	receipt := models.DispatchReceipt{}
	if len(bytes.TrimSpace(body)) == 0 {
		return receipt, nil
	}
	if err := json.Unmarshal(body, &receipt); err != nil {
		return nil, &models.DispatchBackendError{Status: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return receipt, nil
}
