package models

import "encoding/json"

// PromptRequest is the input of the ask operation.
type PromptRequest struct {
	Prompt string `json:"prompt"`
	OrgID  string `json:"orgId"`
	Locale string `json:"locale"`
	UserID string `json:"userId"`
}

// Followup is a suggested next question shown under the results.
type Followup struct {
	Question string `json:"question"`
}

// CanonicalQuery is the normalized outcome of interpreting a prompt.
// Query is empty when no usable JQL could be produced.
type CanonicalQuery struct {
	Query      string     `json:"jql"`
	Fields     []string   `json:"fields"`
	Recipients []string   `json:"recipients"`
	Answer     string     `json:"answer"`
	Followups  []Followup `json:"followups"`
}

// Issue is an opaque Jira issue record as returned by the search API.
type Issue map[string]interface{}

// Key returns the issue key, or "" when the record has none.
func (i Issue) Key() string {
	if k, ok := i["key"].(string); ok {
		return k
	}
	return ""
}

// SearchPage is one page of the paged JQL search.
type SearchPage struct {
	Issues        []Issue `json:"issues"`
	NextPageToken string  `json:"nextPageToken,omitempty"`
	IsLast        bool    `json:"isLast"`
}

// ResultEnvelope is what the ask operation hands back to callers.
type ResultEnvelope struct {
	Success    bool
	Query      string
	Fields     []string
	Issues     []Issue
	Recipients []string
	Answer     string
	Followups  []Followup
	Error      string
}

// MarshalJSON renders failures as {success:false, error} and successes with
// every collection present, using null for a missing query.
func (e ResultEnvelope) MarshalJSON() ([]byte, error) {
	if !e.Success {
		return json.Marshal(struct {
			Success bool   `json:"success"`
			Error   string `json:"error"`
		}{false, e.Error})
	}
	var query *string
	if e.Query != "" {
		query = &e.Query
	}
	return json.Marshal(struct {
		Success    bool       `json:"success"`
		Query      *string    `json:"jql"`
		Fields     []string   `json:"fields"`
		Issues     []Issue    `json:"issues"`
		Recipients []string   `json:"recipients"`
		Answer     string     `json:"answer"`
		Followups  []Followup `json:"followups"`
	}{
		Success:    true,
		Query:      query,
		Fields:     nonNilStrings(e.Fields),
		Issues:     nonNilIssues(e.Issues),
		Recipients: nonNilStrings(e.Recipients),
		Answer:     e.Answer,
		Followups:  nonNilFollowups(e.Followups),
	})
}

// SendRequest is the input of the send operation. Body is fully rendered HTML.
type SendRequest struct {
	OrgID      string   `json:"orgId"`
	UserID     string   `json:"userId"`
	Locale     string   `json:"locale"`
	Query      string   `json:"jql"`
	Issues     []Issue  `json:"issues"`
	Recipients []string `json:"recipients"`
	CC         []string `json:"cc"`
	BCC        []string `json:"bcc"`
	Subject    string   `json:"subject"`
	Body       string   `json:"body"`
	Sender     string   `json:"sender"`
}

// DispatchReceipt is the mail provider's acknowledgment, passed through unmodified.
type DispatchReceipt map[string]interface{}

// Identity is the current Jira user.
type Identity struct {
	AccountID   string  `json:"accountId"`
	DisplayName string  `json:"displayName"`
	Email       *string `json:"emailAddress"`
}

// Envelope is the uniform result of the send and whoami operations.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilIssues(s []Issue) []Issue {
	if s == nil {
		return []Issue{}
	}
	return s
}

func nonNilFollowups(s []Followup) []Followup {
	if s == nil {
		return []Followup{}
	}
	return s
}

// Operation names accepted by the agent and HTTP surfaces.
const (
	OperationAsk    = "ask"
	OperationSend   = "send"
	OperationWhoAmI = "whoami"
)

// OperationRequest is an inbound task addressed to one of the operations.
type OperationRequest struct {
	Operation string          `json:"operation"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}
