package common

import (
	"context"
	"fmt"

	"github.com/tuannvm/jira-issue-share/internal/config"
	log "github.com/tuannvm/jira-issue-share/internal/logging"
	"trpc.group/trpc-go/trpc-a2a-go/client"
	"trpc.group/trpc-go/trpc-a2a-go/protocol"
)

// SetupA2AClient creates and configures an A2A client with appropriate authentication
func SetupA2AClient(cfg *config.Config, targetURL string) (*client.A2AClient, error) {
	var opts []client.Option
	if cfg.AuthType == "apikey" {
		log.Infof("Using API key authentication for A2A client (API key length: %d)", len(cfg.APIKey))
		opts = append(opts, client.WithAPIKeyAuth(cfg.APIKey, APIKeyHeader))
	} else if cfg.AuthType == "" {
		log.Warnf("No authentication configured for A2A client")
	}

	a2aClient, err := client.NewA2AClient(targetURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create A2A client: %w", err)
	}
	return a2aClient, nil
}

// SendTask synchronously sends a task and returns the text of its result.
// Artifacts take precedence over the final status message.
func SendTask(ctx context.Context, a2aClient *client.A2AClient, params protocol.SendTaskParams) (string, error) {
	task, err := a2aClient.SendTasks(ctx, params)
	if err != nil {
		return "", fmt.Errorf("SendTasks RPC failed: %w", err)
	}

	var parts []protocol.Part
	for _, art := range task.Artifacts {
		parts = append(parts, art.Parts...)
	}
	if len(parts) == 0 && task.Status.Message != nil {
		parts = task.Status.Message.Parts
	}

	for _, part := range parts {
		switch v := part.(type) {
		case protocol.TextPart:
			return v.Text, nil
		case *protocol.TextPart:
			return v.Text, nil
		}
	}
	return "", fmt.Errorf("task %s returned no text result (state %s)", task.ID, task.Status.State)
}
