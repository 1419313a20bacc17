package share

import (
	"context"

	"github.com/tuannvm/jira-issue-share/internal/interpret"
	log "github.com/tuannvm/jira-issue-share/internal/logging"
	"github.com/tuannvm/jira-issue-share/internal/models"
)

// BaseFields are always requested from the search API, in this order.
var BaseFields = []string{
	"summary", "status", "priority", "labels", "issuetype", "assignee",
	"reporter", "project", "created", "updated", "duedate", "fixVersions",
	"components", "description",
}

const (
	noQueryAnswer = "I could not produce a JQL for that prompt."
	resultsAnswer = "Here are the results. Please confirm the list or edit your prompt."
)

// Build runs the canonical query and assembles the result envelope. A missing
// query is a successful outcome with guidance; a search failure becomes a
// failure envelope.
func (s *Service) Build(ctx context.Context, canonical *models.CanonicalQuery) models.ResultEnvelope {
	if canonical == nil {
		canonical = &models.CanonicalQuery{}
	}
	followups := canonical.Followups
	if followups == nil {
		followups = interpret.DefaultFollowups()
	}

	if canonical.Query == "" {
		log.Warnf("query-issue-share: no JQL returned, sending guidance")
		return models.ResultEnvelope{
			Success:    true,
			Fields:     []string{},
			Issues:     []models.Issue{},
			Recipients: canonical.Recipients,
			Answer:     orDefault(canonical.Answer, noQueryAnswer),
			Followups:  followups,
		}
	}

	fields := MergeFields(BaseFields, canonical.Fields)
	issues, err := s.searcher.SearchIssues(ctx, canonical.Query, fields)
	if err != nil {
		log.Errorf("query-issue-share: search failed: %v", err)
		return failedResult(err)
	}
	log.Infof("query-issue-share: fetched %d issues", len(issues))

	return models.ResultEnvelope{
		Success:    true,
		Query:      canonical.Query,
		Fields:     fields,
		Issues:     issues,
		Recipients: canonical.Recipients,
		Answer:     orDefault(canonical.Answer, resultsAnswer),
		Followups:  followups,
	}
}

// MergeFields returns base followed by extra, keeping the first occurrence of
// each field and skipping blanks.
func MergeFields(base, extra []string) []string {
	seen := make(map[string]struct{}, len(base)+len(extra))
	out := make([]string, 0, len(base)+len(extra))
	for _, list := range [][]string{base, extra} {
		for _, f := range list {
			if f == "" {
				continue
			}
			if _, dup := seen[f]; dup {
				continue
			}
			seen[f] = struct{}{}
			out = append(out, f)
		}
	}
	return out
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
