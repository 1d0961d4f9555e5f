package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/demandos/sourcing-agent/internal/catalog"
	"github.com/demandos/sourcing-agent/internal/db"
	"github.com/demandos/sourcing-agent/internal/intent"
	"github.com/demandos/sourcing-agent/internal/types"
	"github.com/demandos/sourcing-agent/internal/workflow"
)

// fakeDatabase is an in-memory Database for handler tests.
type fakeDatabase struct {
	tasks         map[uuid.UUID]*db.TaskRecord
	steps         map[uuid.UUID][]db.TaskStep
	requests      map[uuid.UUID]*db.SourcingRequestRecord
	statusUpdates map[uuid.UUID]string
}

func newFakeDatabase() *fakeDatabase {
	return &fakeDatabase{
		tasks:         make(map[uuid.UUID]*db.TaskRecord),
		steps:         make(map[uuid.UUID][]db.TaskStep),
		requests:      make(map[uuid.UUID]*db.SourcingRequestRecord),
		statusUpdates: make(map[uuid.UUID]string),
	}
}

func (f *fakeDatabase) GetTask(_ context.Context, taskID uuid.UUID) (*db.TaskRecord, error) {
	return f.tasks[taskID], nil
}

func (f *fakeDatabase) ListTaskSteps(_ context.Context, taskID uuid.UUID) ([]db.TaskStep, error) {
	return f.steps[taskID], nil
}

func (f *fakeDatabase) ListSourcingRequests(_ context.Context, status *string) ([]db.SourcingRequestRecord, error) {
	var out []db.SourcingRequestRecord
	for _, rec := range f.requests {
		if status == nil || rec.Status == *status {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (f *fakeDatabase) GetSourcingRequest(_ context.Context, id uuid.UUID) (*db.SourcingRequestRecord, error) {
	return f.requests[id], nil
}

func (f *fakeDatabase) UpdateSourcingRequestStatus(_ context.Context, id uuid.UUID, status string) error {
	f.statusUpdates[id] = status
	if rec, ok := f.requests[id]; ok {
		rec.Status = status
	}
	return nil
}

func (f *fakeDatabase) Close() {}

type staticCatalog struct {
	candidates []types.Candidate
}

func (c *staticCatalog) FetchCandidates(_ context.Context, _ catalog.FilterHint) ([]types.Candidate, error) {
	return c.candidates, nil
}

type ruleParser struct{}

func (ruleParser) Parse(_ context.Context, text string) *types.StructuredQuery {
	return intent.ParseWithRules(text)
}

func testCandidates() []types.Candidate {
	return []types.Candidate{
		{
			ID:       "p1",
			Name:     "Bluetooth Speaker Mini",
			Category: "Consumer Electronics",
			Keywords: []string{"bluetooth", "speaker", "speakers"},
			Price:    8.5,
			MOQ:      100,
			Supplier: types.Supplier{ID: "s1", Name: "Shenzhen Audio", Rating: 4.8},
		},
	}
}

// newTestServer builds a server over in-memory collaborators and disables
// rate limiting so unrelated tests cannot exhaust each other's budget.
func newTestServer(t *testing.T, registry *workflow.Registry) *Server {
	return newTestServerWithDB(t, registry, nil)
}

func newTestServerWithDB(t *testing.T, registry *workflow.Registry, database Database) *Server {
	t.Helper()
	t.Setenv("RATE_LIMIT_ENABLED", "false")

	searcher := &workflow.Searcher{Products: &staticCatalog{candidates: testCandidates()}}
	deps := &workflow.Deps{Searcher: searcher}
	engine := workflow.NewEngine(registry, deps)
	return New(Config{Port: 0}, engine, searcher, ruleParser{}, database)
}

func echoRegistry() *workflow.Registry {
	r := workflow.NewRegistry("echo")
	r.Register(&workflow.Agent{
		ID:       "echo",
		Name:     "Echo",
		Triggers: []string{"echo"},
		Plan: func() []workflow.StepDef {
			return []workflow.StepDef{
				{
					ID:   "echo_step",
					Name: "Echo Step",
					Kind: types.StepSystemAction,
					Action: func(_ context.Context, sc *workflow.StepContext) (any, error) {
						return sc.Prompt, nil
					},
				},
			}
		},
	})
	return r
}

func pausingRegistry() *workflow.Registry {
	r := workflow.NewRegistry("pausing")
	r.Register(&workflow.Agent{
		ID:   "pausing",
		Name: "Pausing",
		Plan: func() []workflow.StepDef {
			return []workflow.StepDef{
				{ID: "confirm", Name: "Confirm", Kind: types.StepUserInput},
				{
					ID:   "finish",
					Name: "Finish",
					Kind: types.StepSystemAction,
					Action: func(_ context.Context, sc *workflow.StepContext) (any, error) {
						return sc.Input, nil
					},
				},
			}
		},
	})
	return r
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeStatus(t *testing.T, rec *httptest.ResponseRecorder) *types.TaskStatus {
	t.Helper()
	var status types.TaskStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	return &status
}

func awaitTaskState(t *testing.T, handler http.Handler, taskID string, want types.TaskState) *types.TaskStatus {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		rec := doJSON(t, handler, "GET", "/agent/status/"+taskID, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		status := decodeStatus(t, rec)
		if status.Status == want {
			return status
		}
		if time.Now().After(deadline) {
			t.Fatalf("task %s stuck in %s, wanted %s", taskID, status.Status, want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t, echoRegistry())

	rec := doJSON(t, s.Handler(), "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestStartAndPollTask(t *testing.T) {
	s := newTestServer(t, echoRegistry())

	rec := doJSON(t, s.Handler(), "POST", "/agent/start", map[string]string{"prompt": "echo this back"})
	require.Equal(t, http.StatusCreated, rec.Code)

	status := decodeStatus(t, rec)
	assert.NotEmpty(t, status.TaskID)
	assert.Equal(t, "echo", status.AgentID)
	require.Len(t, status.Plan, 1)

	final := awaitTaskState(t, s.Handler(), status.TaskID, types.TaskCompleted)
	assert.Equal(t, "echo this back", final.Results["echo_step"])
}

func TestStartRejectsBadRequests(t *testing.T) {
	s := newTestServer(t, echoRegistry())

	rec := doJSON(t, s.Handler(), "POST", "/agent/start", map[string]string{"prompt": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest("POST", "/agent/start", strings.NewReader("{not json"))
	rec2 := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec2, req)
	assert.Equal(t, http.StatusBadRequest, rec2.Code)
}

func TestStatusUnknownTask(t *testing.T) {
	s := newTestServer(t, echoRegistry())

	rec := doJSON(t, s.Handler(), "GET", "/agent/status/no-such-task", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestContinueFlow(t *testing.T) {
	s := newTestServer(t, pausingRegistry())

	rec := doJSON(t, s.Handler(), "POST", "/agent/start", map[string]string{"prompt": "start"})
	require.Equal(t, http.StatusCreated, rec.Code)
	status := decodeStatus(t, rec)
	assert.Equal(t, "confirm", status.AwaitingStepID)

	rec = doJSON(t, s.Handler(), "POST", "/agent/continue", map[string]any{
		"task_id":    status.TaskID,
		"user_input": map[string]any{"color": "black"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	final := awaitTaskState(t, s.Handler(), status.TaskID, types.TaskCompleted)
	assert.Equal(t, map[string]any{"color": "black"}, final.Results["confirm"])

	// Continue after completion conflicts.
	rec = doJSON(t, s.Handler(), "POST", "/agent/continue", map[string]any{
		"task_id":    status.TaskID,
		"user_input": map[string]any{},
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestContinueValidation(t *testing.T) {
	s := newTestServer(t, pausingRegistry())

	rec := doJSON(t, s.Handler(), "POST", "/agent/continue", map[string]any{"user_input": map[string]any{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, s.Handler(), "POST", "/agent/continue", map[string]any{
		"task_id": "no-such-task", "user_input": map[string]any{},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCancelTask(t *testing.T) {
	s := newTestServer(t, pausingRegistry())

	rec := doJSON(t, s.Handler(), "POST", "/agent/start", map[string]string{"prompt": "start"})
	require.Equal(t, http.StatusCreated, rec.Code)
	status := decodeStatus(t, rec)

	rec = doJSON(t, s.Handler(), "POST", "/agent/cancel/"+status.TaskID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cancelled := decodeStatus(t, rec)
	assert.Equal(t, types.TaskCancelled, cancelled.Status)

	rec = doJSON(t, s.Handler(), "POST", "/agent/cancel/"+status.TaskID, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestListAgents(t *testing.T) {
	s := newTestServer(t, echoRegistry())

	rec := doJSON(t, s.Handler(), "GET", "/agents", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Agents []intent.Route `json:"agents"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Agents, 1)
	assert.Equal(t, "echo", body.Agents[0].ID)
}

func TestSearchEndpoint(t *testing.T) {
	s := newTestServer(t, echoRegistry())

	rec := doJSON(t, s.Handler(), "POST", "/search", map[string]string{
		"query": "bluetooth speakers, 100 pcs",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Matches []types.MatchResult `json:"matches"`
		Total   int                 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Total)
	require.Len(t, body.Matches, 1)
	assert.Equal(t, "p1", body.Matches[0].CandidateID)
}

func TestSearchEscalation(t *testing.T) {
	s := newTestServer(t, echoRegistry())

	rec := doJSON(t, s.Handler(), "POST", "/search", map[string]string{
		"query": "industrial espresso machines under $2",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Total           int                    `json:"total"`
		SourcingRequest *types.SourcingRequest `json:"sourcing_request"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 0, body.Total)
	require.NotNil(t, body.SourcingRequest)
	assert.Equal(t, types.SourcingPending, body.SourcingRequest.Status)
}

func TestSearchRequiresQuery(t *testing.T) {
	s := newTestServer(t, echoRegistry())

	rec := doJSON(t, s.Handler(), "POST", "/search", map[string]string{"query": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSourcingRequestsWithoutStore(t *testing.T) {
	s := newTestServer(t, echoRegistry())

	rec := doJSON(t, s.Handler(), "GET", "/sourcing-requests", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = doJSON(t, s.Handler(), "GET", "/sourcing-requests/"+"bad-id", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestTaskRecordEndpoint(t *testing.T) {
	taskID := uuid.New()
	fake := newFakeDatabase()
	fake.tasks[taskID] = &db.TaskRecord{ID: taskID, AgentID: "viral-tracker", Prompt: "track this", Status: "completed"}
	s := newTestServerWithDB(t, echoRegistry(), fake)

	rec := doJSON(t, s.Handler(), "GET", "/agent/tasks/"+taskID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var task db.TaskRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &task))
	assert.Equal(t, taskID, task.ID)
	assert.Equal(t, "viral-tracker", task.AgentID)

	rec = doJSON(t, s.Handler(), "GET", "/agent/tasks/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, s.Handler(), "GET", "/agent/tasks/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTaskStepHistoryEndpoint(t *testing.T) {
	taskID := uuid.New()
	started := time.Now().Add(-time.Minute)
	fake := newFakeDatabase()
	fake.tasks[taskID] = &db.TaskRecord{ID: taskID, AgentID: "viral-tracker", Status: "failed"}
	fake.steps[taskID] = []db.TaskStep{
		{TaskID: taskID, Step: "trend_analysis", Kind: "system_action", Status: "completed", StartedAt: &started},
		{TaskID: taskID, Step: "supplier_matching", Kind: "system_action", Status: "failed"},
		{TaskID: taskID, Step: "pricing_roi", Kind: "system_action", Status: "pending"},
	}
	s := newTestServerWithDB(t, echoRegistry(), fake)

	rec := doJSON(t, s.Handler(), "GET", "/agent/tasks/"+taskID.String()+"/steps", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		TaskID  string        `json:"task_id"`
		Status  string        `json:"status"`
		Steps   []db.TaskStep `json:"steps"`
		Summary struct {
			Total     int `json:"total"`
			Completed int `json:"completed"`
			Failed    int `json:"failed"`
			Pending   int `json:"pending"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, taskID.String(), body.TaskID)
	assert.Equal(t, "failed", body.Status)
	require.Len(t, body.Steps, 3)
	assert.Equal(t, "trend_analysis", body.Steps[0].Step)
	assert.Equal(t, 3, body.Summary.Total)
	assert.Equal(t, 1, body.Summary.Completed)
	assert.Equal(t, 1, body.Summary.Failed)
	assert.Equal(t, 1, body.Summary.Pending)

	rec = doJSON(t, s.Handler(), "GET", "/agent/tasks/"+uuid.NewString()+"/steps", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTaskHistoryWithoutStore(t *testing.T) {
	s := newTestServer(t, echoRegistry())

	rec := doJSON(t, s.Handler(), "GET", "/agent/tasks/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = doJSON(t, s.Handler(), "GET", "/agent/tasks/"+uuid.NewString()+"/steps", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestListSourcingRequestsWithStore(t *testing.T) {
	id := uuid.New()
	fake := newFakeDatabase()
	fake.requests[id] = &db.SourcingRequestRecord{ID: id, OriginalQuery: "espresso machines", Status: "pending"}
	s := newTestServerWithDB(t, echoRegistry(), fake)

	rec := doJSON(t, s.Handler(), "GET", "/sourcing-requests", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		SourcingRequests []db.SourcingRequestRecord `json:"sourcing_requests"`
		Total            int                        `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Total)

	// Filtering by another status excludes the ticket.
	rec = doJSON(t, s.Handler(), "GET", "/sourcing-requests?status=quoted", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 0, body.Total)
}

func TestUpdateSourcingRequestStatus(t *testing.T) {
	id := uuid.New()
	fake := newFakeDatabase()
	fake.requests[id] = &db.SourcingRequestRecord{ID: id, OriginalQuery: "espresso machines", Status: "pending"}
	s := newTestServerWithDB(t, echoRegistry(), fake)

	rec := doJSON(t, s.Handler(), "PATCH", "/sourcing-requests/"+id.String(), map[string]string{"status": "quoted"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "quoted", fake.statusUpdates[id])

	var record db.SourcingRequestRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
	assert.Equal(t, "quoted", record.Status)

	rec = doJSON(t, s.Handler(), "PATCH", "/sourcing-requests/"+id.String(), map[string]string{"status": "archived"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, s.Handler(), "PATCH", "/sourcing-requests/"+uuid.NewString(), map[string]string{"status": "closed"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORSPreflights(t *testing.T) {
	s := newTestServer(t, echoRegistry())

	req := httptest.NewRequest("OPTIONS", "/agent/start", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestStreamEmitsCompletion(t *testing.T) {
	s := newTestServer(t, echoRegistry())

	rec := doJSON(t, s.Handler(), "POST", "/agent/start", map[string]string{"prompt": "stream me"})
	require.Equal(t, http.StatusCreated, rec.Code)
	status := decodeStatus(t, rec)
	awaitTaskState(t, s.Handler(), status.TaskID, types.TaskCompleted)

	streamRec := doJSON(t, s.Handler(), "GET", "/agent/stream/"+status.TaskID, nil)
	assert.Equal(t, "text/event-stream", streamRec.Header().Get("Content-Type"))
	body := streamRec.Body.String()
	assert.Contains(t, body, "event: status")
	assert.Contains(t, body, "event: complete")
	assert.Contains(t, body, status.TaskID)
}

func TestStreamUnknownTask(t *testing.T) {
	s := newTestServer(t, echoRegistry())

	rec := doJSON(t, s.Handler(), "GET", "/agent/stream/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateLimitOnStart(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "true")

	searcher := &workflow.Searcher{Products: &staticCatalog{candidates: testCandidates()}}
	engine := workflow.NewEngine(echoRegistry(), &workflow.Deps{Searcher: searcher})
	s := New(Config{Port: 0}, engine, searcher, ruleParser{}, nil)
	defer s.rateLimiter.Stop()

	// Burst for /agent/start is 5; the sixth request must be rejected.
	var last *httptest.ResponseRecorder
	for i := 0; i < 6; i++ {
		last = doJSON(t, s.Handler(), "POST", "/agent/start", map[string]string{
			"prompt": fmt.Sprintf("echo %d", i),
		})
	}
	assert.Equal(t, http.StatusTooManyRequests, last.Code)
	assert.NotEmpty(t, last.Header().Get("Retry-After"))
}
