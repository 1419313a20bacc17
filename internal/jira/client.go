package jira

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/tuannvm/jira-issue-share/internal/config"
	log "github.com/tuannvm/jira-issue-share/internal/logging"
	"github.com/tuannvm/jira-issue-share/internal/models"
)

// PageSize is the number of issues requested per search round-trip.
const PageSize = 100

const searchPath = "/rest/api/3/search/jql"

// Client represents a Jira search API client
type Client struct {
	baseURL    string
	username   string
	apiToken   string
	maxPages   int
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a new Jira client
func NewClient(cfg *config.Config) *Client {
	limit := rate.Inf
	if cfg.JiraRequestsPerSecond > 0 {
		limit = rate.Limit(cfg.JiraRequestsPerSecond)
	}
	return &Client{
		baseURL:  cfg.JiraBaseURL,
		username: cfg.JiraUsername,
		apiToken: cfg.JiraAPIToken,
		maxPages: cfg.JiraMaxPages,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.JiraTimeout) * time.Second,
		},
		limiter: rate.NewLimiter(limit, 1),
	}
}

type searchRequest struct {
	JQL           string   `json:"jql"`
	Fields        []string `json:"fields"`
	MaxResults    int      `json:"maxResults"`
	NextPageToken string   `json:"nextPageToken,omitempty"`
}

// SearchIssues walks every page of a JQL search and returns the issues in the
// order the backend produced them. Any failed page aborts the whole search.
func (c *Client) SearchIssues(ctx context.Context, jql string, fields []string) ([]models.Issue, error) {
	log.Infof("jira:search:start jql=%q fields=%v", log.Truncate(jql, 200), fields)

	var (
		issues []models.Issue
		token  string
		pages  int
	)
	for {
		if c.maxPages > 0 && pages >= c.maxPages {
			log.Errorf("jira:search:abort after %d pages, backend still reports more results", pages)
			return nil, &models.SearchBackendError{
				Err: fmt.Errorf("%w: %d pages", models.ErrPageLimitExceeded, pages),
			}
		}

		page, err := c.fetchPage(ctx, jql, fields, token)
		if err != nil {
			return nil, err
		}
		pages++
		issues = append(issues, page.Issues...)

		if page.IsLast || page.NextPageToken == "" {
			break
		}
		token = page.NextPageToken
	}

	log.Infof("jira:search:done count=%d pages=%d sampleKeys=%v", len(issues), pages, sampleKeys(issues, 3))
	return issues, nil
}

func (c *Client) fetchPage(ctx context.Context, jql string, fields []string, token string) (*models.SearchPage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &models.SearchBackendError{Err: err}
	}

	payload, err := json.Marshal(searchRequest{
		JQL:           jql,
		Fields:        fields,
		MaxResults:    PageSize,
		NextPageToken: token,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+searchPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	c.addAuthHeader(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &models.SearchBackendError{Err: fmt.Errorf("failed to send request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &models.SearchBackendError{Status: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Errorf("jira:search:error status=%d body=%s", resp.StatusCode, log.Truncate(string(body), 400))
		return nil, &models.SearchBackendError{Status: resp.StatusCode, Body: string(body)}
	}

	var page models.SearchPage
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&page); err != nil {
		return nil, &models.SearchBackendError{Status: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return &page, nil
}

// addAuthHeader adds authentication headers to the request
func (c *Client) addAuthHeader(req *http.Request) {
	if c.username == "" && c.apiToken == "" {
		return
	}
	auth := base64.StdEncoding.EncodeToString([]byte(c.username + ":" + c.apiToken))
	req.Header.Set("Authorization", "Basic "+auth)
}

func sampleKeys(issues []models.Issue, n int) []string {
	keys := make([]string, 0, n)
	for _, issue := range issues {
		if len(keys) == n {
			break
		}
		if k := issue.Key(); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}
