package common

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tuannvm/jira-issue-share/internal/models"
	"trpc.group/trpc-go/trpc-a2a-go/protocol"
)

// ExtractOperation decodes the operation a message asks for. JSON parts of the
// form {"operation": ..., "payload": ...} are used as-is, a bare PromptRequest
// object is an ask, and any other text is taken as an ask prompt.
func ExtractOperation(message protocol.Message) (*models.OperationRequest, error) {
	if len(message.Parts) == 0 {
		return nil, fmt.Errorf("message has no parts")
	}

	var texts []string
	for _, part := range message.Parts {
		// DataPart (value or pointer)
		var dp *protocol.DataPart
		switch v := part.(type) {
		case protocol.DataPart:
			dp = &v
		case *protocol.DataPart:
			dp = v
		}
		if dp != nil && dp.Data != nil {
			raw, err := json.Marshal(dp.Data)
			if err != nil {
				continue
			}
			if op, ok := decodeOperation(raw); ok {
				return op, nil
			}
			continue
		}

		// TextPart (value or pointer)
		var text string
		switch v := part.(type) {
		case protocol.TextPart:
			text = v.Text
		case *protocol.TextPart:
			if v != nil {
				text = v.Text
			}
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if op, ok := decodeOperation([]byte(text)); ok {
			return op, nil
		}
		texts = append(texts, text)
	}

	if len(texts) == 0 {
		return nil, fmt.Errorf("could not extract an operation from message")
	}
	payload, err := json.Marshal(models.PromptRequest{Prompt: strings.Join(texts, "\n")})
	if err != nil {
		return nil, fmt.Errorf("failed to encode prompt: %w", err)
	}
	return &models.OperationRequest{Operation: models.OperationAsk, Payload: payload}, nil
}

func decodeOperation(raw []byte) (*models.OperationRequest, bool) {
	var data map[string]interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, false
	}

	if op, ok := GetStringValue(data, "operation", "op"); ok {
		req := &models.OperationRequest{Operation: strings.ToLower(op)}
		if payload, ok := data["payload"]; ok {
			req.Payload, _ = json.Marshal(payload)
		}
		return req, true
	}

	if _, ok := GetStringValue(data, "prompt"); ok {
		return &models.OperationRequest{Operation: models.OperationAsk, Payload: raw}, true
	}
	return nil, false
}

// ResultMessage wraps a JSON-serializable result in a single text part message.
func ResultMessage(v interface{}) (*protocol.Message, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return &protocol.Message{
		Role:  protocol.MessageRoleAgent,
		Parts: []protocol.Part{protocol.NewTextPart(string(raw))},
	}, nil
}
