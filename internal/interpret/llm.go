package interpret

import (
	"context"
	"fmt"

	"github.com/kaptinlin/jsonrepair"

	"github.com/tuannvm/jira-issue-share/internal/common"
	"github.com/tuannvm/jira-issue-share/internal/llm"
	log "github.com/tuannvm/jira-issue-share/internal/logging"
	"github.com/tuannvm/jira-issue-share/internal/models"
)

const jqlPromptTemplate = `You translate requests about Jira issues into JQL.
Reply with a single JSON object and nothing else, using exactly these keys:
  "jql":        the JQL query, or "" if the request cannot be expressed as JQL
  "fields":     extra Jira field ids worth displaying, as an array of strings
  "recipients": email addresses mentioned as people to share the results with
  "answer":     one short sentence describing the results, in locale %q
  "followups":  up to three objects of the form {"question": "..."}

Request: %s`

// LLMInterpreter asks a language model for the JQL and reconciles its JSON reply.
type LLMInterpreter struct {
	client llm.LLMClient
}

// NewLLMInterpreter creates an interpreter backed by client
func NewLLMInterpreter(client llm.LLMClient) *LLMInterpreter {
	return &LLMInterpreter{client: client}
}

// Interpret implements Interpreter
func (l *LLMInterpreter) Interpret(ctx context.Context, req models.PromptRequest) (*models.CanonicalQuery, error) {
	locale := req.Locale
	if locale == "" {
		locale = "en-US"
	}

	completion, err := l.client.Complete(ctx, fmt.Sprintf(jqlPromptTemplate, locale, req.Prompt))
	if err != nil {
		return nil, &models.RemoteInterpretationError{Err: err}
	}

	raw, err := common.ExtractJSON(completion)
	if err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(completion)
		if repairErr != nil {
			log.Warnf("llm:parse:error completion=%s", log.Truncate(completion, maxErrorBody))
			return nil, &models.RemoteInterpretationError{Err: fmt.Errorf("no JSON object in completion: %w", repairErr)}
		}
		raw = repaired
	}

	result, err := reconcile([]byte(raw), llmQueryPaths)
	if err != nil {
		return nil, &models.RemoteInterpretationError{Err: err}
	}
	log.Infof("llm:parse:ok hasJql=%t recipients=%d", result.Query != "", len(result.Recipients))
	return result, nil
}
