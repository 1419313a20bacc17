package mailer

import (
	"context"
	"fmt"
	"time"

	log "github.com/tuannvm/jira-issue-share/internal/logging"
	"github.com/tuannvm/jira-issue-share/internal/models"
)

// StubTransport acknowledges every envelope without sending anything.
type StubTransport struct {
	now func() time.Time
}

// NewStubTransport creates the offline transport
func NewStubTransport() *StubTransport {
	return &StubTransport{now: time.Now}
}

// Deliver implements Transport
func (s *StubTransport) Deliver(_ context.Context, env Envelope) (models.DispatchReceipt, error) {
	log.Infof("mailer:stub:send to=%v subject=%q", env.Query.To, log.Truncate(env.Query.Subject, 140))
	return models.DispatchReceipt{
		"success": true,
		"data": map[string]interface{}{
			"messageId":  fmt.Sprintf("mock:%d", s.now().UnixMilli()),
			"provider":   "mock",
			"status":     "queued",
			"previewUrl": "https://example.com/preview/mock",
			"tracking": map[string]interface{}{
				"openTracking":  false,
				"clickTracking": false,
				"secureLink":    nil,
			},
		},
	}, nil
}
