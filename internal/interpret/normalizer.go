// Package interpret turns a free-form prompt into a canonical JQL query plus
// the metadata used to shape and share its results.
package interpret

import (
	"context"
	"regexp"
	"strings"

	"github.com/tuannvm/jira-issue-share/internal/config"
	"github.com/tuannvm/jira-issue-share/internal/llm"
	log "github.com/tuannvm/jira-issue-share/internal/logging"
	"github.com/tuannvm/jira-issue-share/internal/models"
)

// Fixed narrative strings
const (
	DefaultFollowupQuestion = "Confirm this list or edit the prompt?"
	DefaultAnswer           = "Here are the matching issues based on your prompt."
	OverrideAnswer          = "Running developer JQL override."
)

var overridePattern = regexp.MustCompile(`(?is)^jql\s*:\s*(.+)$`)

// Interpreter is one strategy for turning a prompt into a canonical query.
type Interpreter interface {
	Interpret(ctx context.Context, req models.PromptRequest) (*models.CanonicalQuery, error)
}

// Normalizer applies the developer override before delegating to an Interpreter.
type Normalizer struct {
	interpreter Interpreter
}

// NewNormalizer creates a Normalizer around the chosen strategy
func NewNormalizer(interpreter Interpreter) *Normalizer {
	return &Normalizer{interpreter: interpreter}
}

// Normalize resolves req into a complete CanonicalQuery or an error, never a partial result.
func (n *Normalizer) Normalize(ctx context.Context, req models.PromptRequest) (*models.CanonicalQuery, error) {
	if jql, ok := ParseOverride(req.Prompt); ok {
		log.Infof("interpret:override jql=%q", log.Truncate(jql, 200))
		return &models.CanonicalQuery{
			Query:      jql,
			Fields:     []string{},
			Recipients: []string{},
			Answer:     OverrideAnswer,
			Followups:  DefaultFollowups(),
		}, nil
	}

	result, err := n.interpreter.Interpret(ctx, req)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = &models.CanonicalQuery{}
	}
	fillDefaults(result)
	log.Infof("interpret:done hasJql=%t fields=%d recipients=%d", result.Query != "", len(result.Fields), len(result.Recipients))
	return result, nil
}

// ParseOverride reports whether prompt is a "jql: <query>" developer override
// and returns the trimmed query.
func ParseOverride(prompt string) (string, bool) {
	m := overridePattern.FindStringSubmatch(strings.TrimSpace(prompt))
	if m == nil {
		return "", false
	}
	jql := strings.TrimSpace(m[1])
	if jql == "" {
		return "", false
	}
	return jql, true
}

// DefaultFollowups returns a fresh copy of the standard confirm/edit question.
func DefaultFollowups() []models.Followup {
	return []models.Followup{{Question: DefaultFollowupQuestion}}
}

// NewInterpreter picks the strategy described by cfg. The choice is made once;
// a failing remote strategy never falls back to the local one.
func NewInterpreter(cfg *config.Config, llmClient llm.LLMClient) Interpreter {
	if cfg.ForceStub {
		log.Infof("interpret: offline stub forced, using local fallback")
		return NewStubInterpreter()
	}

	switch cfg.InterpreterMode {
	case config.InterpreterRemote:
		if cfg.StubMode() {
			log.Warnf("interpret: remote mode requested but APP_RUNNER_BASE_URL or token is missing, using local fallback")
			return NewStubInterpreter()
		}
		return NewRemoteInterpreter(cfg)
	case config.InterpreterLLM:
		if llmClient == nil {
			log.Warnf("interpret: llm mode requested without an LLM client, using local fallback")
			return NewStubInterpreter()
		}
		return NewLLMInterpreter(llmClient)
	default:
		return NewStubInterpreter()
	}
}

func fillDefaults(q *models.CanonicalQuery) {
	q.Query = strings.TrimSpace(q.Query)
	if q.Fields == nil {
		q.Fields = []string{}
	}
	if q.Recipients == nil {
		q.Recipients = []string{}
	}
	if q.Followups == nil {
		q.Followups = DefaultFollowups()
	}
}
