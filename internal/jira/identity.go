package jira

import (
	"context"
	"fmt"
	"net/http"
	"time"

	v3 "github.com/ctreminiom/go-atlassian/v2/jira/v3"

	"github.com/tuannvm/jira-issue-share/internal/config"
	log "github.com/tuannvm/jira-issue-share/internal/logging"
	"github.com/tuannvm/jira-issue-share/internal/models"
)

// IdentityClient looks up the current user through the go-atlassian Jira v3 client.
type IdentityClient struct {
	api *v3.Client
}

// NewIdentityClient creates a go-atlassian backed IdentityProvider
func NewIdentityClient(cfg *config.Config) (*IdentityClient, error) {
	httpClient := &http.Client{Timeout: time.Duration(cfg.JiraTimeout) * time.Second}
	api, err := v3.New(httpClient, cfg.JiraBaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create atlassian client: %w", err)
	}
	api.Auth.SetBasicAuth(cfg.JiraUsername, cfg.JiraAPIToken)
	return &IdentityClient{api: api}, nil
}

// CurrentUser returns the profile behind the configured credentials.
func (c *IdentityClient) CurrentUser(ctx context.Context) (*models.Identity, error) {
	user, resp, err := c.api.MySelf.Details(ctx, nil)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.Code
		}
		log.Errorf("jira:myself:error status=%d err=%v", status, err)
		return nil, fmt.Errorf("failed to fetch current user: %w", err)
	}

	identity := &models.Identity{
		AccountID:   user.AccountID,
		DisplayName: user.DisplayName,
	}
	if identity.DisplayName == "" {
		identity.DisplayName = "You"
	}
	if user.EmailAddress != "" {
		email := user.EmailAddress
		identity.Email = &email
	}
	return identity, nil
}
