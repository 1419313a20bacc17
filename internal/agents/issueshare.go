package agents

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tuannvm/jira-issue-share/internal/common"
	log "github.com/tuannvm/jira-issue-share/internal/logging"
	"github.com/tuannvm/jira-issue-share/internal/models"
	"trpc.group/trpc-go/trpc-a2a-go/protocol"
	"trpc.group/trpc-go/trpc-a2a-go/server"
	"trpc.group/trpc-go/trpc-a2a-go/taskmanager"
)

// Operations is what the agent needs from the share service.
type Operations interface {
	Ask(ctx context.Context, req models.PromptRequest) models.ResultEnvelope
	Send(ctx context.Context, req models.SendRequest) models.Envelope
	WhoAmI(ctx context.Context) models.Envelope
}

// IssueShareAgent implements the TaskProcessor interface from trpc-a2a-go
type IssueShareAgent struct {
	ops Operations
}

// NewIssueShareAgent creates a new IssueShareAgent
func NewIssueShareAgent(ops Operations) *IssueShareAgent {
	return &IssueShareAgent{ops: ops}
}

// Skills describes the agent's operations for the agent card
func Skills() []server.AgentSkill {
	return []server.AgentSkill{
		{
			ID:          "ask-for-issues",
			Name:        "Ask for issues",
			Description: common.StringPtr("Turn a natural-language request (or \"jql: <query>\") into Jira issues"),
			Examples:    []string{"Show ABC-123 and ABC-124", "project = WEB open bugs", "jql: assignee = currentUser()"},
		},
		{
			ID:          "dispatch-share",
			Name:        "Share issues by email",
			Description: common.StringPtr("Send a rendered issue list to recipients through the mail service"),
		},
		{
			ID:          "whoami",
			Name:        "Who am I",
			Description: common.StringPtr("Return the Jira user the agent acts for"),
		},
	}
}

// Process implements the TaskProcessor interface from trpc-a2a-go
func (a *IssueShareAgent) Process(ctx context.Context, taskID string, message protocol.Message, handle taskmanager.TaskHandle) error {
	log.Infof("Received task with ID: %s", taskID)

	if err := handle.UpdateStatus(protocol.TaskState("working"), nil); err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	op, err := common.ExtractOperation(message)
	if err != nil {
		return a.fail(handle, taskID, fmt.Errorf("failed to extract operation: %w", err))
	}

	result, err := a.dispatch(ctx, op)
	if err != nil {
		return a.fail(handle, taskID, err)
	}

	responseMsg, err := common.ResultMessage(result)
	if err != nil {
		return a.fail(handle, taskID, err)
	}

	artifact := protocol.Artifact{
		Name:        common.StringPtr(op.Operation),
		Description: common.StringPtr("Issue share " + op.Operation + " result"),
		Parts:       responseMsg.Parts,
	}
	if err := handle.AddArtifact(artifact); err != nil {
		return fmt.Errorf("failed to record artifact: %w", err)
	}

	if err := handle.UpdateStatus(protocol.TaskState("completed"), responseMsg); err != nil {
		return fmt.Errorf("failed to complete task: %w", err)
	}
	log.Infof("Task %s (%s) completed", taskID, op.Operation)
	return nil
}

func (a *IssueShareAgent) dispatch(ctx context.Context, op *models.OperationRequest) (interface{}, error) {
	switch op.Operation {
	case models.OperationAsk:
		var req models.PromptRequest
		if err := decodePayload(op.Payload, &req); err != nil {
			return nil, err
		}
		return a.ops.Ask(ctx, req), nil
	case models.OperationSend:
		var req models.SendRequest
		if err := decodePayload(op.Payload, &req); err != nil {
			return nil, err
		}
		return a.ops.Send(ctx, req), nil
	case models.OperationWhoAmI:
		return a.ops.WhoAmI(ctx), nil
	default:
		return nil, fmt.Errorf("unknown operation: %q", op.Operation)
	}
}

func (a *IssueShareAgent) fail(handle taskmanager.TaskHandle, taskID string, cause error) error {
	log.Errorf("Task %s failed: %v", taskID, cause)
	msg := &protocol.Message{
		Role:  protocol.MessageRoleAgent,
		Parts: []protocol.Part{protocol.NewTextPart(cause.Error())},
	}
	if err := handle.UpdateStatus(protocol.TaskState("failed"), msg); err != nil {
		log.Errorf("Failed to update task status: %v", err)
	}
	return cause
}

func decodePayload(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return fmt.Errorf("missing payload")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}
