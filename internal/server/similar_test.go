package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/StevenCC12/carl-vector-knowledge-base/internal/store"
	"github.com/StevenCC12/carl-vector-knowledge-base/internal/triage"
)

// ---------------------------------------------------------------------------
// Fakes for similar handler tests
// ---------------------------------------------------------------------------

// fakeTriager implements the triager interface for tests.
type fakeTriager struct {
	// result is returned on each Triage call when err is nil.
	result *triage.Result
	// err is returned as the error value.
	err error
	// lastQuestion records the question passed to the most recent call.
	lastQuestion string
}

func (f *fakeTriager) Triage(_ context.Context, question string) (*triage.Result, error) {
	f.lastQuestion = question
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

// fakeDecisionStore implements store.DecisionStore, recording in memory.
type fakeDecisionStore struct {
	// recorded accumulates every Decision passed to Record.
	recorded []store.Decision
	// recordErr, when set, is returned by Record.
	recordErr error
	// recentErr, when set, is returned by Recent.
	recentErr error
}

func (f *fakeDecisionStore) Record(_ context.Context, d store.Decision) error {
	if f.recordErr != nil {
		return f.recordErr
	}
	f.recorded = append(f.recorded, d)
	return nil
}

func (f *fakeDecisionStore) Recent(_ context.Context, n int) ([]store.Decision, error) {
	if f.recentErr != nil {
		return nil, f.recentErr
	}
	if n > len(f.recorded) {
		n = len(f.recorded)
	}
	// Newest first.
	out := make([]store.Decision, 0, n)
	for i := len(f.recorded) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, f.recorded[i])
	}
	return out, nil
}

func (f *fakeDecisionStore) Close() error { return nil }

// newTestServer builds a *Server with the given triager and decision store
// wired in, backed by an isolated metrics registry.
func newTestServer(t triager, decisions store.DecisionStore) *Server {
	reg := prometheus.NewRegistry()
	return &Server{
		triager:   t,
		decisions: decisions,
		cfg:       &Config{Port: 8080},
		log:       slog.Default(),
		metrics:   newServerMetrics(reg),
	}
}

// ---------------------------------------------------------------------------
// POST /api/similar
// ---------------------------------------------------------------------------

func TestHandleSimilar_InvalidJSON(t *testing.T) {
	t.Parallel()

	s := newTestServer(&fakeTriager{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/similar",
		strings.NewReader(`not-json`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	s.handleSimilar(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestHandleSimilar_MissingQuestion(t *testing.T) {
	t.Parallel()

	s := newTestServer(&fakeTriager{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/similar",
		strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	s.handleSimilar(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

// TestHandleSimilar_AutoReply verifies the full response shape for a
// high-confidence match and that the decision is persisted.
func TestHandleSimilar_AutoReply(t *testing.T) {
	t.Parallel()

	ft := &fakeTriager{result: &triage.Result{
		Action:            triage.ActionAutoReply,
		Message:           "Yes, the recording is shared afterwards.",
		Score:             0.97,
		RetrievedQuestion: "Will the webinar be recorded?",
	}}
	ds := &fakeDecisionStore{}
	s := newTestServer(ft, ds)

	req := httptest.NewRequest(http.MethodPost, "/api/similar",
		strings.NewReader(`{"question":"Is the webinar recorded?"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	s.handleSimilar(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d — body: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: expected application/json, got %q", ct)
	}

	var resp similarResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Action != "auto-reply" {
		t.Errorf("action: expected auto-reply, got %q", resp.Action)
	}
	if resp.Message != "Yes, the recording is shared afterwards." {
		t.Errorf("unexpected message %q", resp.Message)
	}
	if resp.Score != 0.97 {
		t.Errorf("score: expected 0.97, got %v", resp.Score)
	}
	if resp.RetrievedQuestion != "Will the webinar be recorded?" {
		t.Errorf("unexpected retrieved_question %q", resp.RetrievedQuestion)
	}

	if len(ds.recorded) != 1 {
		t.Fatalf("expected 1 recorded decision, got %d", len(ds.recorded))
	}
	d := ds.recorded[0]
	if d.Question != "Is the webinar recorded?" {
		t.Errorf("decision question: got %q", d.Question)
	}
	if d.Action != "auto-reply" {
		t.Errorf("decision action: got %q", d.Action)
	}
	if d.MatchedQuestion != "Will the webinar be recorded?" {
		t.Errorf("decision matched_question: got %q", d.MatchedQuestion)
	}
}

// TestHandleSimilar_EscalateOmitsRetrievedQuestion verifies that an
// escalation with no match leaves retrieved_question out of the JSON body.
func TestHandleSimilar_EscalateOmitsRetrievedQuestion(t *testing.T) {
	t.Parallel()

	ft := &fakeTriager{result: &triage.Result{
		Action:  triage.ActionEscalate,
		Message: "No similar question found in knowledge base.",
		Score:   0,
	}}
	s := newTestServer(ft, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/similar",
		strings.NewReader(`{"question":"Something brand new"}`))
	w := httptest.NewRecorder()

	s.handleSimilar(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "retrieved_question") {
		t.Errorf("expected retrieved_question omitted, body: %s", w.Body.String())
	}
}

func TestHandleSimilar_TriageError(t *testing.T) {
	t.Parallel()

	ft := &fakeTriager{err: errors.New("qdrant unreachable")}
	s := newTestServer(ft, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/similar",
		strings.NewReader(`{"question":"anything"}`))
	w := httptest.NewRecorder()

	s.handleSimilar(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
}

// TestHandleSimilar_DecisionLogFailureIsNonFatal verifies that a failing
// decision store never turns a successful triage into an error response.
func TestHandleSimilar_DecisionLogFailureIsNonFatal(t *testing.T) {
	t.Parallel()

	ft := &fakeTriager{result: &triage.Result{
		Action:  triage.ActionDraftForReview,
		Message: "draft answer",
		Score:   0.9,
	}}
	ds := &fakeDecisionStore{recordErr: errors.New("disk full")}
	s := newTestServer(ft, ds)

	req := httptest.NewRequest(http.MethodPost, "/api/similar",
		strings.NewReader(`{"question":"anything"}`))
	w := httptest.NewRecorder()

	s.handleSimilar(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200 despite decision log failure, got %d", w.Code)
	}
}

// ---------------------------------------------------------------------------
// GET /api/decisions
// ---------------------------------------------------------------------------

func TestHandleDecisions_ReturnsNewestFirst(t *testing.T) {
	t.Parallel()

	ds := &fakeDecisionStore{recorded: []store.Decision{
		{Question: "q1", Action: "escalate-to-human", Score: 0.5, CreatedAt: time.Now().Add(-time.Hour)},
		{Question: "q2", Action: "auto-reply", Score: 0.99, CreatedAt: time.Now()},
	}}
	s := newTestServer(&fakeTriager{}, ds)

	req := httptest.NewRequest(http.MethodGet, "/api/decisions", nil)
	w := httptest.NewRecorder()

	s.handleDecisions(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d — body: %s", w.Code, w.Body.String())
	}

	var resp decisionsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Decisions) != 2 {
		t.Fatalf("expected 2 decisions, got %d", len(resp.Decisions))
	}
	if resp.Decisions[0].Question != "q2" {
		t.Errorf("expected newest decision first, got %q", resp.Decisions[0].Question)
	}
}

func TestHandleDecisions_LimitValidation(t *testing.T) {
	t.Parallel()

	s := newTestServer(&fakeTriager{}, &fakeDecisionStore{})

	for _, bad := range []string{"0", "-5", "abc"} {
		req := httptest.NewRequest(http.MethodGet, "/api/decisions?limit="+bad, nil)
		w := httptest.NewRecorder()

		s.handleDecisions(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("limit=%q: expected 400, got %d", bad, w.Code)
		}
	}
}

func TestHandleDecisions_StoreError(t *testing.T) {
	t.Parallel()

	ds := &fakeDecisionStore{recentErr: errors.New("db locked")}
	s := newTestServer(&fakeTriager{}, ds)

	req := httptest.NewRequest(http.MethodGet, "/api/decisions", nil)
	w := httptest.NewRecorder()

	s.handleDecisions(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
}
