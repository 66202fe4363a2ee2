package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/StevenCC12/carl-vector-knowledge-base/internal/logging"
	"github.com/StevenCC12/carl-vector-knowledge-base/internal/store"
)

// handleSimilar handles POST /api/similar. It embeds the question, runs the
// top-1 similarity search, and returns the routing decision with the answer
// text (or a fallback message for escalations).
func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var req similarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	start := time.Now()
	result, err := s.triager.Triage(r.Context(), req.Question)
	if err != nil {
		log.Error("triage failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "triage failed")
		return
	}

	s.metrics.triageRequestsTotal.WithLabelValues(string(result.Action)).Inc()
	s.metrics.triageDurationSeconds.Observe(time.Since(start).Seconds())

	log.Info("question triaged",
		slog.String("action", string(result.Action)),
		slog.Float64("score", float64(result.Score)),
	)

	// The decision log is best-effort: a write failure must never fail the
	// triage response the caller is waiting on.
	if s.decisions != nil {
		err := s.decisions.Record(r.Context(), store.Decision{
			Question:        req.Question,
			Action:          string(result.Action),
			Score:           float64(result.Score),
			MatchedQuestion: result.RetrievedQuestion,
		})
		if err != nil {
			log.Warn("decision log write failed", slog.Any("error", err))
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(similarResponse{
		Action:            string(result.Action),
		Message:           result.Message,
		Score:             result.Score,
		RetrievedQuestion: result.RetrievedQuestion,
	}); err != nil {
		log.Error("similar encode error", slog.Any("error", err))
	}
}

// maxDecisionsLimit caps the number of rows GET /api/decisions may return.
const maxDecisionsLimit = 500

// handleDecisions handles GET /api/decisions. It returns the most recent
// triage decisions, newest first. The optional ?limit= query parameter
// defaults to 50 and is capped at maxDecisionsLimit.
func (s *Server) handleDecisions(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	if limit > maxDecisionsLimit {
		limit = maxDecisionsLimit
	}

	rows, err := s.decisions.Recent(r.Context(), limit)
	if err != nil {
		log.Error("decision log read failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "decision log unavailable")
		return
	}

	resp := decisionsResponse{Decisions: make([]decisionEntry, 0, len(rows))}
	for _, d := range rows {
		resp.Decisions = append(resp.Decisions, decisionEntry{
			Question:        d.Question,
			Action:          d.Action,
			Score:           d.Score,
			MatchedQuestion: d.MatchedQuestion,
			CreatedAt:       d.CreatedAt,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Error("decisions encode error", slog.Any("error", err))
	}
}

// writeError sends a JSON error body with the given status code.
func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
