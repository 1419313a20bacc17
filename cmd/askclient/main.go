package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tuannvm/jira-issue-share/internal/common"
	"github.com/tuannvm/jira-issue-share/internal/config"
	log "github.com/tuannvm/jira-issue-share/internal/logging"
	"github.com/tuannvm/jira-issue-share/internal/models"
	"trpc.group/trpc-go/trpc-a2a-go/protocol"
)

// Sends one ask (or whoami) task to a running agent and prints the envelope.
//
//	askclient "Show ABC-123 and ABC-124"
//	askclient "jql: project = WEB ORDER BY created DESC"
//	askclient whoami
func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, `usage: askclient "<prompt>" | whoami`)
		os.Exit(2)
	}

	cfg := config.NewConfig()
	a2aClient, err := common.SetupA2AClient(cfg, cfg.AgentURL)
	if err != nil {
		log.Fatalf("Failed to create A2A client: %v", err)
	}

	op := models.OperationRequest{Operation: models.OperationWhoAmI}
	if arg := strings.Join(os.Args[1:], " "); arg != models.OperationWhoAmI {
		payload, err := json.Marshal(models.PromptRequest{
			Prompt: arg,
			OrgID:  os.Getenv("ORG_ID"),
			Locale: os.Getenv("LOCALE"),
			UserID: os.Getenv("USER_ID"),
		})
		if err != nil {
			log.Fatalf("Failed to encode prompt: %v", err)
		}
		op = models.OperationRequest{Operation: models.OperationAsk, Payload: payload}
	}

	body, err := json.Marshal(op)
	if err != nil {
		log.Fatalf("Failed to encode task: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	result, err := common.SendTask(ctx, a2aClient, protocol.SendTaskParams{
		ID: uuid.NewString(),
		Message: protocol.Message{
			Role:  protocol.MessageRoleUser,
			Parts: []protocol.Part{protocol.NewTextPart(string(body))},
		},
	})
	if err != nil {
		log.Fatalf("Task failed: %v", err)
	}

	var pretty json.RawMessage = []byte(result)
	out, err := json.MarshalIndent(pretty, "", "  ")
	if err != nil {
		fmt.Println(result)
		return
	}
	fmt.Println(string(out))
}
