package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/StevenCC12/carl-vector-knowledge-base/internal/store"
	"github.com/StevenCC12/carl-vector-knowledge-base/internal/triage"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1).
	Host string
	// Port is the TCP port to listen on (default: 8080).
	Port int
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// Logger is the structured logger used by the server and its handlers.
	// If nil, [logging.New] is used.
	Logger *slog.Logger
	// Pingers is the ordered list of dependency probes run by GET /api/ready.
	// If empty, /api/ready returns 200 with no checks (liveness-only mode).
	Pingers []Pinger
	// RateLimit is the sustained request rate allowed per IP on rate-limited
	// endpoints (requests/second). Defaults to 10 if zero.
	RateLimit float64
	// RateBurst is the maximum instantaneous burst per IP. Defaults to 20 if zero.
	RateBurst int
	// APIKey is the Bearer token required on all protected /api/* routes.
	// If empty, authentication is disabled (development mode).
	APIKey string
	// MetricsRegistry is the Prometheus registry the server registers its
	// metrics into. Defaults to prometheus.DefaultRegisterer. Tests inject a
	// fresh registry here so runs stay hermetic.
	MetricsRegistry prometheus.Registerer
	// MetricsGatherer backs the GET /metrics endpoint. Defaults to
	// prometheus.DefaultGatherer and must correspond to MetricsRegistry.
	MetricsGatherer prometheus.Gatherer
}

// triager is the interface handleSimilar calls to route a question.
// *triage.Service satisfies it; tests inject a fake.
type triager interface {
	// Triage embeds the question, runs the similarity search, and returns
	// the routing decision for it.
	Triage(ctx context.Context, question string) (*triage.Result, error)
}

// Server is the HTTP server that exposes question triage over REST.
type Server struct {
	// triager routes incoming questions; set to a *triage.Service in
	// production, overridden by a fake in tests.
	triager triager
	// decisions is the persistent decision log. Nil disables logging and
	// the GET /api/decisions endpoint.
	decisions store.DecisionStore
	// cfg holds the resolved server configuration.
	cfg *Config
	// httpServer is the underlying net/http server.
	httpServer *http.Server
	// log is the structured logger for this server instance.
	log *slog.Logger
	// pingers is the ordered list of dependency probes for GET /api/ready.
	pingers []Pinger
	// metrics holds the Prometheus instruments owned by this server.
	metrics *serverMetrics
	// stopRL stops the rate limiter's background eviction goroutine on shutdown.
	stopRL func()
}

// similarRequest is the JSON body for POST /api/similar.
type similarRequest struct {
	// Question is the incoming customer question to triage.
	Question string `json:"question"`
}

// similarResponse is the JSON response for POST /api/similar.
type similarResponse struct {
	// Action is the routing decision: "auto-reply", "draft-for-review",
	// or "escalate-to-human".
	Action string `json:"action"`
	// Message is the answer to send or draft. For escalations this is a
	// fixed fallback string.
	Message string `json:"message"`
	// Score is the similarity score of the best match (0 when no match).
	Score float32 `json:"score"`
	// RetrievedQuestion is the stored question that matched, if any.
	RetrievedQuestion string `json:"retrieved_question,omitempty"`
}

// decisionsResponse is the JSON response for GET /api/decisions.
type decisionsResponse struct {
	// Decisions lists recent triage decisions, newest first.
	Decisions []decisionEntry `json:"decisions"`
}

// decisionEntry is one row of the decision log as returned over the API.
type decisionEntry struct {
	// Question is the customer question that was triaged.
	Question string `json:"question"`
	// Action is the routing decision that was taken.
	Action string `json:"action"`
	// Score is the similarity score the decision was based on.
	Score float64 `json:"score"`
	// MatchedQuestion is the stored question that matched, if any.
	MatchedQuestion string `json:"matched_question,omitempty"`
	// CreatedAt is when the decision was recorded (RFC3339).
	CreatedAt time.Time `json:"created_at"`
}
