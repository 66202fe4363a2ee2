package commands

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/StevenCC12/carl-vector-knowledge-base/internal/embedder"
	"github.com/StevenCC12/carl-vector-knowledge-base/internal/kb"
	"github.com/StevenCC12/carl-vector-knowledge-base/internal/triage"
)

// Default collection names, overridable via QDRANT_ENTRIES_COLLECTION and
// QDRANT_CHUNKS_COLLECTION.
const (
	defaultEntriesCollection = "webinar-entries"
	defaultChunksCollection  = "webinar-chunks"
)

// getEnvOrDefault returns the value of the named environment variable, or
// fallback if it is unset or empty.
func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt returns the named environment variable parsed as an int, or
// fallback if it is unset, empty, or not a valid integer.
func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// getEnvFloat32 returns the named environment variable parsed as a float32,
// or fallback if it is unset, empty, or not a valid number.
func getEnvFloat32(key string, fallback float32) float32 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 32)
	if err != nil {
		return fallback
	}
	return float32(f)
}

// qdrantConfig builds a kb.QdrantConfig for the given collection from the
// QDRANT_* environment variables.
func qdrantConfig(collection string) *kb.QdrantConfig {
	return &kb.QdrantConfig{
		Host:       getEnvOrDefault("QDRANT_HOST", "localhost"),
		Port:       getEnvInt("QDRANT_PORT", 6334),
		Collection: collection,
		VectorSize: uint64(embedder.DefaultDimensions(embedder.Backend())), //nolint:gosec // dimensions are bounded
		APIKey:     os.Getenv("QDRANT_API_KEY"),
		UseTLS:     os.Getenv("QDRANT_TLS") == "true",
	}
}

// openEntriesStore connects to Qdrant and ensures the Q&A entries collection
// exists.
func openEntriesStore(ctx context.Context) (*kb.QdrantStore, error) {
	cfg := qdrantConfig(getEnvOrDefault("QDRANT_ENTRIES_COLLECTION", defaultEntriesCollection))
	store, err := kb.NewQdrantStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Qdrant at %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return store, nil
}

// openChunksStore ensures the transcript chunks collection exists over an
// existing Qdrant client, so both collections share one connection.
func openChunksStore(ctx context.Context, entries *kb.QdrantStore) (*kb.QdrantStore, error) {
	cfg := qdrantConfig(getEnvOrDefault("QDRANT_CHUNKS_COLLECTION", defaultChunksCollection))
	store, err := kb.NewQdrantStoreWithClient(ctx, entries.Client(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare chunks collection: %w", err)
	}
	return store, nil
}

// triagePolicy builds the threshold policy from the TRIAGE_* environment
// variables, falling back to the defaults.
func triagePolicy() triage.Policy {
	def := triage.DefaultPolicy()
	return triage.Policy{
		AutoThreshold:  getEnvFloat32("TRIAGE_AUTO_THRESHOLD", def.AutoThreshold),
		DraftThreshold: getEnvFloat32("TRIAGE_DRAFT_THRESHOLD", def.DraftThreshold),
	}
}
