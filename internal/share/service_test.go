package share

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuannvm/jira-issue-share/internal/config"
	"github.com/tuannvm/jira-issue-share/internal/interpret"
	"github.com/tuannvm/jira-issue-share/internal/jira"
	"github.com/tuannvm/jira-issue-share/internal/mailer"
	"github.com/tuannvm/jira-issue-share/internal/models"
)

type fakeSearcher struct {
	calls  int32
	jql    string
	fields []string
	issues []models.Issue
	err    error
}

func (f *fakeSearcher) SearchIssues(_ context.Context, jql string, fields []string) ([]models.Issue, error) {
	atomic.AddInt32(&f.calls, 1)
	f.jql, f.fields = jql, fields
	return f.issues, f.err
}

type fakeNormalizer struct {
	result *models.CanonicalQuery
	err    error
	panics bool
}

func (f *fakeNormalizer) Normalize(context.Context, models.PromptRequest) (*models.CanonicalQuery, error) {
	if f.panics {
		panic("boom")
	}
	return f.result, f.err
}

type countingTransport struct{ calls int32 }

func (c *countingTransport) Deliver(context.Context, mailer.Envelope) (models.DispatchReceipt, error) {
	atomic.AddInt32(&c.calls, 1)
	return models.DispatchReceipt{"messageId": "m-1", "status": "queued"}, nil
}

type fakeIdentity struct {
	me  *models.Identity
	err error
}

func (f *fakeIdentity) CurrentUser(context.Context) (*models.Identity, error) { return f.me, f.err }

func stubNormalizer() *interpret.Normalizer {
	return interpret.NewNormalizer(interpret.NewStubInterpreter())
}

func TestAsk_FieldsAlwaysIncludeBase(t *testing.T) {
	searcher := &fakeSearcher{issues: []models.Issue{{"key": "ABC-1"}}}
	norm := &fakeNormalizer{result: &models.CanonicalQuery{
		Query:  "project = ABC",
		Fields: []string{"customfield_1", "status", "timeestimate", "customfield_1"},
	}}

	env := NewService(norm, searcher, nil, nil).Ask(context.Background(), models.PromptRequest{Prompt: "abc issues"})
	require.True(t, env.Success, env.Error)

	want := append(append([]string{}, BaseFields...), "customfield_1", "timeestimate")
	assert.Equal(t, want, env.Fields)
	assert.Equal(t, want, searcher.fields)
	assert.Equal(t, "project = ABC", searcher.jql)
	assert.Equal(t, resultsAnswer, env.Answer)
	assert.Equal(t, interpret.DefaultFollowups(), env.Followups)
}

func TestMergeFields(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, MergeFields([]string{"a", "b"}, []string{"b", "", "c", "a"}))
	assert.Equal(t, []string{"a"}, MergeFields([]string{"a"}, nil))
}

func TestAsk_FallbackAndPaginationEndToEnd(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "issuekey in (ABC-123, XYZ-45) ORDER BY updated DESC", body["jql"])

		if atomic.AddInt32(&calls, 1) == 1 {
			w.Write([]byte(`{"issues":[{"key":"ABC-123"},{"key":"XYZ-45"}],"nextPageToken":"p2","isLast":false}`))
			return
		}
		w.Write([]byte(`{"issues":[{"key":"XYZ-46"}],"isLast":true}`))
	}))
	defer server.Close()

	searcher := jira.NewClient(&config.Config{JiraBaseURL: server.URL, JiraMaxPages: 10, JiraTimeout: 5})
	env := NewService(stubNormalizer(), searcher, nil, nil).Ask(context.Background(), models.PromptRequest{Prompt: "Show ABC-123 and xyz-45"})

	require.True(t, env.Success, env.Error)
	assert.Equal(t, "issuekey in (ABC-123, XYZ-45) ORDER BY updated DESC", env.Query)
	require.Len(t, env.Issues, 3)
	assert.Equal(t, []string{"ABC-123", "XYZ-45", "XYZ-46"}, []string{env.Issues[0].Key(), env.Issues[1].Key(), env.Issues[2].Key()})
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestAsk_MidPaginationFailureHidesPartialResults(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Write([]byte(`{"issues":[{"key":"A-1"},{"key":"A-2"}],"nextPageToken":"p2","isLast":false}`))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("maintenance"))
	}))
	defer server.Close()

	searcher := jira.NewClient(&config.Config{JiraBaseURL: server.URL, JiraMaxPages: 10, JiraTimeout: 5})
	env := NewService(stubNormalizer(), searcher, nil, nil).Ask(context.Background(), models.PromptRequest{Prompt: "jql: project = A"})

	assert.False(t, env.Success)
	assert.Nil(t, env.Issues)
	assert.Contains(t, env.Error, "503")

	out, err := json.Marshal(env)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"error":"JQL search failed: 503 maintenance"}`, string(out))
}

func TestAsk_NoQueryIsGraceful(t *testing.T) {
	searcher := &fakeSearcher{}
	norm := &fakeNormalizer{result: &models.CanonicalQuery{Recipients: []string{"lead@example.com"}}}

	env := NewService(norm, searcher, nil, nil).Ask(context.Background(), models.PromptRequest{Prompt: "what is love"})

	require.True(t, env.Success)
	assert.Empty(t, env.Issues)
	assert.Empty(t, env.Fields)
	assert.Equal(t, noQueryAnswer, env.Answer)
	assert.Equal(t, []string{"lead@example.com"}, env.Recipients)
	assert.Equal(t, int32(0), atomic.LoadInt32(&searcher.calls))

	out, err := json.Marshal(env)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"jql":null,"fields":[],"issues":[],"recipients":["lead@example.com"],"answer":"I could not produce a JQL for that prompt.","followups":[{"question":"Confirm this list or edit the prompt?"}]}`, string(out))
}

func TestAsk_EmptyPrompt(t *testing.T) {
	searcher := &fakeSearcher{}
	env := NewService(&fakeNormalizer{}, searcher, nil, nil).Ask(context.Background(), models.PromptRequest{Prompt: "  "})

	assert.False(t, env.Success)
	assert.Equal(t, "prompt is required", env.Error)
}

func TestAsk_InterpretationFailure(t *testing.T) {
	norm := &fakeNormalizer{err: &models.RemoteInterpretationError{Status: 401, Body: "bad key"}}
	env := NewService(norm, &fakeSearcher{}, nil, nil).Ask(context.Background(), models.PromptRequest{Prompt: "x"})

	assert.False(t, env.Success)
	assert.Equal(t, "RAG parse failed 401: bad key", env.Error)
}

func TestAsk_PanicBecomesFailure(t *testing.T) {
	env := NewService(&fakeNormalizer{panics: true}, &fakeSearcher{}, nil, nil).Ask(context.Background(), models.PromptRequest{Prompt: "x"})
	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "boom")
}

func TestAsk_MalformedInterpretationShapesNeverBreakTheBoundary(t *testing.T) {
	bodies := []string{
		`{}`,
		`null`,
		`{"result":null}`,
		`{"data":{"result":{"answer":"project = A","followups":"later","fields":{"a":1},"recipients":"x@example.com"}}}`,
		`{"result":{"jql":"project = B","followups":[null,1,{"question":2}]}}`,
		`[]`,
		`"just text"`,
	}
	for _, body := range bodies {
		t.Run(body, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(body))
			}))
			defer server.Close()

			remote := interpret.NewRemoteInterpreter(&config.Config{AppRunnerBaseURL: server.URL, AppRunnerAuthToken: "k", InterpreterTimeout: 5})
			searcher := &fakeSearcher{issues: []models.Issue{}}
			env := NewService(interpret.NewNormalizer(remote), searcher, nil, nil).Ask(context.Background(), models.PromptRequest{Prompt: "anything"})

			require.True(t, env.Success, env.Error)
			assert.NotEmpty(t, env.Answer)
			assert.NotNil(t, env.Followups)
			_, err := json.Marshal(env)
			assert.NoError(t, err)
		})
	}
}

func TestSend_ValidationMakesNoNetworkCall(t *testing.T) {
	transport := &countingTransport{}
	svc := NewService(nil, nil, mailer.NewGateway(transport, "AI Issue Share", false), nil)

	env := svc.Send(context.Background(), models.SendRequest{Query: "project = A"})
	assert.False(t, env.Success)
	assert.Equal(t, "jql and recipients are required", env.Error)

	env = svc.Send(context.Background(), models.SendRequest{Recipients: []string{"a@example.com"}})
	assert.False(t, env.Success)

	assert.Equal(t, int32(0), atomic.LoadInt32(&transport.calls))
}

func TestSend_Success(t *testing.T) {
	transport := &countingTransport{}
	svc := NewService(nil, nil, mailer.NewGateway(transport, "AI Issue Share", false), nil)

	env := svc.Send(context.Background(), models.SendRequest{Query: "project = A", Recipients: []string{"a@example.com"}})
	require.True(t, env.Success, env.Error)
	receipt, ok := env.Data.(models.DispatchReceipt)
	require.True(t, ok)
	assert.Equal(t, "m-1", receipt["messageId"])
	assert.Equal(t, int32(1), atomic.LoadInt32(&transport.calls))
}

func TestWhoAmI(t *testing.T) {
	email := "mia@example.com"
	svc := NewService(nil, nil, nil, &fakeIdentity{me: &models.Identity{AccountID: "a-1", DisplayName: "Mia", Email: &email}})

	env := svc.WhoAmI(context.Background())
	require.True(t, env.Success)
	assert.Equal(t, "a-1", env.Data.(*models.Identity).AccountID)

	env = NewService(nil, nil, nil, &fakeIdentity{err: errors.New("401")}).WhoAmI(context.Background())
	assert.False(t, env.Success)

	env = NewService(nil, nil, nil, &fakeIdentity{}).WhoAmI(context.Background())
	assert.False(t, env.Success)
}
