package interpret

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	log "github.com/tuannvm/jira-issue-share/internal/logging"
	"github.com/tuannvm/jira-issue-share/internal/models"
)

var (
	issueKeyPattern = regexp.MustCompile(`(?i)\b([A-Z][A-Z0-9]+-\d+)\b`)
	projectPattern  = regexp.MustCompile(`(?i)\bproject\s*=\s*([A-Z][A-Z0-9]+)\b`)
)

// FallbackFields is the small field set the local fallback asks for.
var FallbackFields = []string{"summary", "status", "priority", "assignee", "labels", "created", "updated", "duedate"}

// StubInterpreter derives JQL from the prompt with fixed heuristics and no network.
type StubInterpreter struct{}

// NewStubInterpreter creates the local deterministic interpreter
func NewStubInterpreter() *StubInterpreter {
	return &StubInterpreter{}
}

// Interpret implements Interpreter
func (s *StubInterpreter) Interpret(_ context.Context, req models.PromptRequest) (*models.CanonicalQuery, error) {
	out := &models.CanonicalQuery{
		Query:      BuildFallbackJQL(req.Prompt),
		Fields:     append([]string(nil), FallbackFields...),
		Recipients: []string{},
		Answer:     DefaultAnswer,
		Followups:  DefaultFollowups(),
	}
	log.Infof("rag:parse:ok:stub hasJql=%t", out.Query != "")
	return out, nil
}

// BuildFallbackJQL builds a query from issue keys, then an explicit project
// clause, then a recent-open-issues default. Repeated keys are kept as written.
func BuildFallbackJQL(prompt string) string {
	matches := issueKeyPattern.FindAllStringSubmatch(prompt, -1)
	if len(matches) > 0 {
		keys := make([]string, 0, len(matches))
		for _, m := range matches {
			keys = append(keys, strings.ToUpper(m[1]))
		}
		return fmt.Sprintf("issuekey in (%s) ORDER BY updated DESC", strings.Join(keys, ", "))
	}

	if m := projectPattern.FindStringSubmatch(prompt); m != nil {
		return fmt.Sprintf("project = %s AND statusCategory != Done ORDER BY updated DESC", strings.ToUpper(m[1]))
	}

	return "statusCategory != Done AND updated >= -7d ORDER BY updated DESC"
}
