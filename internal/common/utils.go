package common

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"

	log "github.com/tuannvm/jira-issue-share/internal/logging"
)

var (
	jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)
	jsonArrayPattern  = regexp.MustCompile(`(?s)\[.*\]`)
)

// StringPtr returns a pointer to the given string
func StringPtr(s string) *string {
	return &s
}

// ExtractJSON extracts JSON content from a text string
// It looks for content between { and } or [ and ] brackets
func ExtractJSON(text string) (string, error) {
	if objMatch := jsonObjectPattern.FindString(text); objMatch != "" {
		if json.Valid([]byte(objMatch)) {
			return objMatch, nil
		}
	}

	if arrMatch := jsonArrayPattern.FindString(text); arrMatch != "" {
		if json.Valid([]byte(arrMatch)) {
			return arrMatch, nil
		}
	}

	return "", fmt.Errorf("no valid JSON found in text")
}

// GetStringValue retrieves a string value from a map using multiple possible keys
// It tries each key in order and returns the first non-empty value found
func GetStringValue(data map[string]interface{}, keys ...string) (string, bool) {
	for _, key := range keys {
		if val, ok := data[key]; ok {
			if strVal, ok := val.(string); ok && strVal != "" {
				return strVal, true
			}
		}
	}
	return "", false
}

// ReturnJSON writes v as a JSON response with the given status code
func ReturnJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("failed to write JSON response: %v", err)
	}
}

// ReturnJSONError writes a JSON error response with the given status code and message
func ReturnJSONError(w http.ResponseWriter, statusCode int, message string) {
	ReturnJSON(w, statusCode, map[string]interface{}{
		"error": map[string]interface{}{
			"code":    statusCode,
			"message": message,
		},
	})
}
