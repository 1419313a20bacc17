package interpret

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
	interpretPath  = "/v0/api/query"
	interpretEvent = "jqlgeneration"
	maxErrorBody   = 400
)

// RemoteInterpreter asks the hosted interpretation service for the JQL.
type RemoteInterpreter struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// NewRemoteInterpreter creates an interpreter for APP_RUNNER_BASE_URL
func NewRemoteInterpreter(cfg *config.Config) *RemoteInterpreter {
	return &RemoteInterpreter{
		endpoint: cfg.AppRunnerBaseURL + interpretPath,
		apiKey:   cfg.AppRunnerAuthToken,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.InterpreterTimeout) * time.Second,
		},
	}
}

type interpretRequest struct {
	Query  string `json:"query"`
	Event  string `json:"event"`
	OrgID  string `json:"orgId"`
	Locale string `json:"locale"`
	UserID string `json:"userId"`
}

// Interpret implements Interpreter
func (r *RemoteInterpreter) Interpret(ctx context.Context, req models.PromptRequest) (*models.CanonicalQuery, error) {
	payload, err := json.Marshal(interpretRequest{
		Query:  req.Prompt,
		Event:  interpretEvent,
		OrgID:  req.OrgID,
		Locale: req.Locale,
		UserID: req.UserID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal interpretation request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", r.apiKey)

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return nil, &models.RemoteInterpretationError{Err: fmt.Errorf("failed to send request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &models.RemoteInterpretationError{Status: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		truncated := log.Truncate(string(body), maxErrorBody)
		log.Errorf("rag:parse:error status=%d body=%s", resp.StatusCode, truncated)
		return nil, &models.RemoteInterpretationError{Status: resp.StatusCode, Body: truncated}
	}

	result, err := Reconcile(body)
	if err != nil {
		return nil, &models.RemoteInterpretationError{Status: resp.StatusCode, Err: err}
	}
	log.Infof("rag:parse:ok hasJql=%t recipients=%d", result.Query != "", len(result.Recipients))
	return result, nil
}
