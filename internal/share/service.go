// Package share implements the ask, send and whoami operations. Every
// operation returns an envelope; errors never escape to the caller.
package share

import (
	"context"
	"fmt"
	"strings"

	"github.com/tuannvm/jira-issue-share/internal/interpret"
	"github.com/tuannvm/jira-issue-share/internal/jira"
	log "github.com/tuannvm/jira-issue-share/internal/logging"
	"github.com/tuannvm/jira-issue-share/internal/models"
)

// Normalizer resolves a prompt into a canonical query.
type Normalizer interface {
	Normalize(ctx context.Context, req models.PromptRequest) (*models.CanonicalQuery, error)
}

// Mailer dispatches a finalized share email.
type Mailer interface {
	Send(ctx context.Context, req models.SendRequest) (models.DispatchReceipt, error)
}

// Service wires the normalizer, search executor, mail gateway and identity lookup.
type Service struct {
	normalizer Normalizer
	searcher   jira.Searcher
	mailer     Mailer
	identity   jira.IdentityProvider
}

// NewService creates a Service
func NewService(normalizer Normalizer, searcher jira.Searcher, mailer Mailer, identity jira.IdentityProvider) *Service {
	return &Service{
		normalizer: normalizer,
		searcher:   searcher,
		mailer:     mailer,
		identity:   identity,
	}
}

// Ask turns a prompt into issues.
func (s *Service) Ask(ctx context.Context, req models.PromptRequest) (env models.ResultEnvelope) {
	defer recoverInto("ask", func(err error) { env = failedResult(err) })

	if strings.TrimSpace(req.Prompt) == "" {
		return failedResult(&models.ValidationError{Message: "prompt is required"})
	}

	_, isOverride := interpret.ParseOverride(req.Prompt)
	log.Infof("query-issue-share:received org=%s user=%s locale=%s override=%t prompt=%q",
		req.OrgID, req.UserID, req.Locale, isOverride, log.Truncate(req.Prompt, 140))

	canonical, err := s.normalizer.Normalize(ctx, req)
	if err != nil {
		log.Errorf("query-issue-share failed: %v", err)
		return failedResult(err)
	}
	return s.Build(ctx, canonical)
}

// Send dispatches a share email built by the caller from an earlier Ask.
func (s *Service) Send(ctx context.Context, req models.SendRequest) (env models.Envelope) {
	defer recoverInto("send", func(err error) { env = failed(err) })

	receipt, err := s.mailer.Send(ctx, req)
	if err != nil {
		log.Errorf("send-issue-share failed: %v", err)
		return failed(err)
	}
	return models.Envelope{Success: true, Data: receipt}
}

// WhoAmI returns the current user's profile.
func (s *Service) WhoAmI(ctx context.Context) (env models.Envelope) {
	defer recoverInto("whoami", func(err error) { env = failed(err) })

	me, err := s.identity.CurrentUser(ctx)
	if err != nil {
		log.Warnf("whoami failed: %v", err)
		return failed(err)
	}
	if me == nil {
		return models.Envelope{Success: false}
	}
	return models.Envelope{Success: true, Data: me}
}

func failed(err error) models.Envelope {
	return models.Envelope{Success: false, Error: errorMessage(err)}
}

func failedResult(err error) models.ResultEnvelope {
	return models.ResultEnvelope{Success: false, Error: errorMessage(err)}
}

func errorMessage(err error) string {
	if err == nil || err.Error() == "" {
		return "Unknown error"
	}
	return err.Error()
}

func recoverInto(op string, set func(error)) {
	if r := recover(); r != nil {
		log.Errorf("%s panicked: %v", op, r)
		set(fmt.Errorf("internal error: %v", r))
	}
}
