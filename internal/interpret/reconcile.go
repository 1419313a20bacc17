package interpret

import (
	"errors"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/tuannvm/jira-issue-share/internal/models"
)

// queryPaths lists where interpretation service versions have put the JQL,
// most specific first. New response shapes are supported by appending here.
var queryPaths = []string{
	"data.result.answer",
	"data.result.jql",
	"data.result.JQL",
	"result.answer",
	"result.jql",
	"result.JQL",
	"answer",
	"jql",
	"JQL",
}

// llmQueryPaths is the probe order for model replies, which carry the query
// under "jql" and a narrative sentence under "answer".
var llmQueryPaths = []string{"jql", "JQL", "result.jql", "result.JQL", "data.result.jql", "data.result.JQL"}

// containerPaths lists where the rest of the result object may be nested.
var containerPaths = []string{"data.result", "result"}

var errInvalidJSON = errors.New("response is not valid JSON")

// Reconcile maps a loosely shaped interpretation response onto a CanonicalQuery.
// Only invalid JSON is an error; missing or mistyped optional members fall
// back to defaults.
func Reconcile(body []byte) (*models.CanonicalQuery, error) {
	return reconcile(body, queryPaths)
}

func reconcile(body []byte, paths []string) (*models.CanonicalQuery, error) {
	if !gjson.ValidBytes(body) {
		return nil, errInvalidJSON
	}
	root := gjson.ParseBytes(body)
	result := resultContainer(root)

	out := &models.CanonicalQuery{
		Query:      firstString(root, paths),
		Fields:     stringArray(result.Get("fields")),
		Recipients: stringArray(result.Get("recipients")),
		Answer:     DefaultAnswer,
		Followups:  followups(result.Get("followups")),
	}
	if answer := result.Get("answer"); answer.Type == gjson.String && strings.TrimSpace(answer.Str) != "" {
		out.Answer = answer.Str
	}
	return out, nil
}

func resultContainer(root gjson.Result) gjson.Result {
	for _, path := range containerPaths {
		if r := root.Get(path); r.IsObject() {
			return r
		}
	}
	return root
}

func firstString(root gjson.Result, paths []string) string {
	for _, path := range paths {
		r := root.Get(path)
		if r.Type != gjson.String {
			continue
		}
		if s := strings.TrimSpace(r.Str); s != "" {
			return s
		}
	}
	return ""
}

func stringArray(r gjson.Result) []string {
	out := []string{}
	if !r.IsArray() {
		return out
	}
	for _, item := range r.Array() {
		if item.Type == gjson.String && item.Str != "" {
			out = append(out, item.Str)
		}
	}
	return out
}

func followups(r gjson.Result) []models.Followup {
	if !r.IsArray() {
		return DefaultFollowups()
	}
	out := []models.Followup{}
	for _, item := range r.Array() {
		switch {
		case item.Type == gjson.String && item.Str != "":
			out = append(out, models.Followup{Question: item.Str})
		case item.IsObject():
			if q := item.Get("question"); q.Type == gjson.String && q.Str != "" {
				out = append(out, models.Followup{Question: q.Str})
			}
		}
	}
	return out
}
