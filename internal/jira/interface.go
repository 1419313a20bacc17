package jira

import (
	"context"

	"github.com/tuannvm/jira-issue-share/internal/models"
)

// Searcher runs a JQL query and returns every matching issue.
type Searcher interface {
	SearchIssues(ctx context.Context, jql string, fields []string) ([]models.Issue, error)
}

// IdentityProvider resolves the user the service acts on behalf of.
type IdentityProvider interface {
	CurrentUser(ctx context.Context) (*models.Identity, error)
}
