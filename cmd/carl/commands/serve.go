package commands

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/StevenCC12/carl-vector-knowledge-base/internal/embedder"
	"github.com/StevenCC12/carl-vector-knowledge-base/internal/logging"
	"github.com/StevenCC12/carl-vector-knowledge-base/internal/server"
	"github.com/StevenCC12/carl-vector-knowledge-base/internal/store"
	"github.com/StevenCC12/carl-vector-knowledge-base/internal/triage"
)

// NewServeCmd constructs the `carl serve` command, which starts the HTTP
// triage server.
func NewServeCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the CARL HTTP triage server",
		Long: `Start the CARL HTTP server on localhost.

The server exposes POST /api/similar, which embeds an incoming question,
searches the Q&A knowledge base, and returns the routing decision together
with the answer to send or draft. GET /api/decisions lists recent decisions,
GET /api/health and /api/ready report liveness and dependency readiness, and
GET /metrics serves Prometheus metrics.

Examples:
  carl serve
  carl serve --port 9090
  EMBEDDING_PROVIDER=openai carl serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			log.Info("serve starting", slog.String("embedding_backend", embedder.Backend()))

			if err := embedder.Validate(log); err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			emb, err := embedder.NewFromEnv()
			if err != nil {
				return fmt.Errorf("serve: failed to initialise embedder: %w", err)
			}

			entries, err := openEntriesStore(ctx)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer entries.Close()
			log.Info("qdrant store ready",
				slog.String("host", getEnvOrDefault("QDRANT_HOST", "localhost")),
				slog.Int("port", getEnvInt("QDRANT_PORT", 6334)),
			)

			svc, err := triage.NewService(emb, entries, triagePolicy())
			if err != nil {
				return fmt.Errorf("serve: failed to create triage service: %w", err)
			}
			log.Info("triage policy",
				slog.Float64("auto_threshold", float64(svc.Policy().AutoThreshold)),
				slog.Float64("draft_threshold", float64(svc.Policy().DraftThreshold)),
			)

			// Open decision log store. CARL_DECISIONS_DB overrides the default
			// path (~/.carl/decisions.db). Set to "disabled" to turn it off.
			var decisions store.DecisionStore
			dbPath := os.Getenv("CARL_DECISIONS_DB")
			if dbPath != "disabled" {
				if dbPath == "" {
					dbPath, err = store.DefaultDBPath()
					if err != nil {
						log.Warn("decisions: could not resolve default DB path, disabling", slog.Any("error", err))
					}
				}
				if dbPath != "" {
					ds, dsErr := store.Open(dbPath)
					if dsErr != nil {
						log.Warn("decisions: failed to open store, disabling", slog.Any("error", dsErr))
					} else {
						decisions = ds
						defer func() { _ = ds.Close() }()
						log.Info("decisions: store opened", slog.String("path", dbPath))
					}
				}
			} else {
				log.Info("decisions: disabled via CARL_DECISIONS_DB=disabled")
			}

			pingers := []server.Pinger{server.NewQdrantPinger(entries.Client())}
			if oe, ok := emb.(*embedder.OllamaEmbedder); ok {
				pingers = append(pingers, server.NewHTTPPinger("ollama", oe.Host()))
			}

			// Explicit flags win over environment (which YAML config feeds).
			if !cmd.Flags().Changed("host") {
				host = getEnvOrDefault("CARL_SERVER_HOST", host)
			}
			if !cmd.Flags().Changed("port") {
				port = getEnvInt("CARL_SERVER_PORT", port)
			}

			srv, err := server.New(svc, decisions, &server.Config{
				Host:    host,
				Port:    port,
				Logger:  log,
				Pingers: pingers,
				APIKey:  os.Getenv("CARL_API_KEY"),
			})
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Host address to bind to")
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "TCP port to listen on")

	return cmd
}
