// Package mailer forwards finalized issue-share emails to the mail service.
package mailer

import (
	"context"
	"strings"

	"github.com/tuannvm/jira-issue-share/internal/config"
	log "github.com/tuannvm/jira-issue-share/internal/logging"
	"github.com/tuannvm/jira-issue-share/internal/models"
)

const notificationEvent = "email_notification"

// Message is the mail content block of the provider envelope.
type Message struct {
	Subject string      `json:"subject"`
	Body    string      `json:"body"`
	To      interface{} `json:"to"`
	CC      []string    `json:"cc"`
	BCC     []string    `json:"bcc"`
	Sender  string      `json:"sender"`
}

// Envelope is the request body understood by the mail service.
type Envelope struct {
	Query  Message `json:"query"`
	Event  string  `json:"event"`
	OrgID  string  `json:"orgId"`
	Locale string  `json:"locale"`
}

// Transport delivers a built envelope and returns the provider acknowledgment.
type Transport interface {
	Deliver(ctx context.Context, env Envelope) (models.DispatchReceipt, error)
}

// Gateway validates send requests and hands them to a Transport in a single attempt.
type Gateway struct {
	transport       Transport
	defaultSender   string
	singleRecipient bool
}

// NewGateway creates a Gateway over transport
func NewGateway(transport Transport, defaultSender string, singleRecipient bool) *Gateway {
	return &Gateway{
		transport:       transport,
		defaultSender:   defaultSender,
		singleRecipient: singleRecipient,
	}
}

// NewGatewayFromConfig wires the remote transport, or the stub in offline mode.
func NewGatewayFromConfig(cfg *config.Config) *Gateway {
	var transport Transport
	if cfg.StubMode() {
		log.Infof("mailer: stub mode, emails will not leave this process")
		transport = NewStubTransport()
	} else {
		transport = NewRemoteTransport(cfg)
	}
	return NewGateway(transport, cfg.MailDefaultSender, cfg.MailSingleRecipient)
}

// Send dispatches req. Validation happens before any network activity.
func (g *Gateway) Send(ctx context.Context, req models.SendRequest) (models.DispatchReceipt, error) {
	recipients := compact(req.Recipients)
	if strings.TrimSpace(req.Query) == "" || len(recipients) == 0 {
		return nil, &models.ValidationError{Message: "jql and recipients are required"}
	}

	env := g.buildEnvelope(req, recipients)
	log.Infof("mailer:send org=%s recipients=%d cc=%d bcc=%d issues=%d hasSubject=%t hasBody=%t",
		req.OrgID, len(recipients), len(env.Query.CC), len(env.Query.BCC), len(req.Issues), req.Subject != "", req.Body != "")

	receipt, err := g.transport.Deliver(ctx, env)
	if err != nil {
		log.Errorf("mailer:send failed: %v", err)
		return nil, err
	}
	log.Infof("mailer:send:ok org=%s", req.OrgID)
	return receipt, nil
}

func (g *Gateway) buildEnvelope(req models.SendRequest, recipients []string) Envelope {
	sender := req.Sender
	if sender == "" {
		sender = g.defaultSender
	}

	msg := Message{
		Subject: req.Subject,
		Body:    req.Body,
		To:      recipients,
		CC:      compact(req.CC),
		BCC:     compact(req.BCC),
		Sender:  sender,
	}
	if g.singleRecipient {
		msg.To = recipients[0]
		msg.CC = append(append([]string{}, recipients[1:]...), msg.CC...)
	}

	return Envelope{
		Query:  msg,
		Event:  notificationEvent,
		OrgID:  req.OrgID,
		Locale: req.Locale,
	}
}

// compact drops blank addresses and always returns a non-nil slice.
func compact(addrs []string) []string {
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}
