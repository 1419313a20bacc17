package jira

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuannvm/jira-issue-share/internal/config"
	"github.com/tuannvm/jira-issue-share/internal/models"
)

func newTestClient(url string, maxPages int) *Client {
	return NewClient(&config.Config{
		JiraBaseURL:  url,
		JiraUsername: "bot@example.com",
		JiraAPIToken: "secret",
		JiraMaxPages: maxPages,
		JiraTimeout:  5,
	})
}

func TestSearchIssues_ExhaustsPagesInOrder(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/api/3/search/jql", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "bot@example.com", user)
		assert.Equal(t, "secret", pass)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "project = ABC", body["jql"])
		assert.Equal(t, float64(PageSize), body["maxResults"])

		w.Header().Set("Content-Type", "application/json")
		switch n {
		case 1:
			_, hasToken := body["nextPageToken"]
			assert.False(t, hasToken, "first page must not send a token")
			w.Write([]byte(`{"issues":[{"key":"ABC-1"},{"key":"ABC-2"}],"nextPageToken":"tok-2","isLast":false}`))
		default:
			assert.Equal(t, "tok-2", body["nextPageToken"])
			w.Write([]byte(`{"issues":[{"key":"ABC-3"}],"isLast":true}`))
		}
	}))
	defer server.Close()

	issues, err := newTestClient(server.URL, 10).SearchIssues(context.Background(), "project = ABC", []string{"summary"})
	require.NoError(t, err)

	keys := make([]string, 0, len(issues))
	for _, issue := range issues {
		keys = append(keys, issue.Key())
	}
	assert.Equal(t, []string{"ABC-1", "ABC-2", "ABC-3"}, keys)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestSearchIssues_StopsWithoutToken(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{"issues":[{"key":"A-1"}],"isLast":false}`))
	}))
	defer server.Close()

	issues, err := newTestClient(server.URL, 10).SearchIssues(context.Background(), "x", nil)
	require.NoError(t, err)
	assert.Len(t, issues, 1)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestSearchIssues_FailedPageAborts(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Write([]byte(`{"issues":[{"key":"A-1"},{"key":"A-2"}],"nextPageToken":"t","isLast":false}`))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"errorMessages":["bad jql"]}`))
	}))
	defer server.Close()

	issues, err := newTestClient(server.URL, 10).SearchIssues(context.Background(), "x", nil)
	require.Error(t, err)
	assert.Nil(t, issues)

	var searchErr *models.SearchBackendError
	require.True(t, errors.As(err, &searchErr))
	assert.Equal(t, http.StatusBadRequest, searchErr.Status)
	assert.True(t, strings.Contains(err.Error(), "400"))
	assert.True(t, strings.Contains(err.Error(), "bad jql"))
}

func TestSearchIssues_PageCeiling(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{"issues":[{"key":"A-1"}],"nextPageToken":"forever","isLast":false}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, 3).SearchIssues(context.Background(), "x", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrPageLimitExceeded))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestSearchIssues_PassesRecordsThrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"issues":[{"key":"A-1","fields":{"summary":"Login broken","customfield_10010":{"value":"x"}}}],"isLast":true}`))
	}))
	defer server.Close()

	issues, err := newTestClient(server.URL, 10).SearchIssues(context.Background(), "x", []string{"summary"})
	require.NoError(t, err)
	require.Len(t, issues, 1)

	fields, ok := issues[0]["fields"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Login broken", fields["summary"])
	assert.Contains(t, fields, "customfield_10010")
}

func TestSampleKeys(t *testing.T) {
	issues := []models.Issue{{"key": "A-1"}, {"id": "2"}, {"key": "A-3"}, {"key": "A-4"}, {"key": "A-5"}}
	assert.Equal(t, []string{"A-1", "A-3", "A-4"}, sampleKeys(issues, 3))
}
