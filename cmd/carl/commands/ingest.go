package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/StevenCC12/carl-vector-knowledge-base/internal/embedder"
	"github.com/StevenCC12/carl-vector-knowledge-base/internal/ingestion"
	"github.com/StevenCC12/carl-vector-knowledge-base/internal/kb"
	"github.com/StevenCC12/carl-vector-knowledge-base/internal/logging"
)

// NewIngestCmd constructs the `carl ingest` command group, which populates
// the Qdrant knowledge base from Q&A entry files and transcript directories.
func NewIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest Q&A entries or webinar transcripts into the knowledge base",
		Long: `Populate the Qdrant knowledge base.

Ingestion is idempotent per source: re-running an ingest first removes every
point previously stored for that source, so the knowledge base always reflects
the latest run exactly.

Required environment variables:
  QDRANT_HOST                 Qdrant server hostname (default: localhost)
  QDRANT_PORT                 Qdrant gRPC port (default: 6334)
  QDRANT_ENTRIES_COLLECTION   Q&A entries collection (default: webinar-entries)
  QDRANT_CHUNKS_COLLECTION    Transcript chunks collection (default: webinar-chunks)
  QDRANT_API_KEY              Optional API key for authenticated clusters
  EMBEDDING_PROVIDER          Embedding backend: ollama, openai, azure (default: ollama)
  EMBEDDING_*                 Backend-specific overrides (see README)

Examples:
  carl ingest entries --file data/webinar_qa.json
  carl ingest transcripts --dir data/transcripts
  carl ingest transcripts --dir data/transcripts --chunk-size 800 --chunk-overlap 80`,
	}

	cmd.AddCommand(newIngestEntriesCmd(), newIngestTranscriptsCmd())

	return cmd
}

// initIngest validates the embedding environment and opens the embedder.
// Shared by both ingest subcommands.
func initIngest(log *slog.Logger) (kb.Embedder, error) {
	if err := embedder.Validate(log); err != nil {
		return nil, err
	}
	emb, err := embedder.NewFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to initialise embedder: %w", err)
	}
	log.Info("embedder initialised", slog.String("backend", embedder.Backend()))
	return emb, nil
}

// newIngestEntriesCmd constructs `carl ingest entries`, which loads a JSON
// file of Q&A entries, embeds each question, and upserts them into the
// entries collection.
func newIngestEntriesCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "entries",
		Short: "Ingest a JSON file of webinar Q&A entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()

			emb, err := initIngest(log)
			if err != nil {
				return fmt.Errorf("ingest entries: %w", err)
			}

			store, err := openEntriesStore(ctx)
			if err != nil {
				return fmt.Errorf("ingest entries: %w", err)
			}
			defer store.Close()

			entries, err := ingestion.LoadEntries(file)
			if err != nil {
				return fmt.Errorf("ingest entries: %w", err)
			}
			log.Info("entries loaded", slog.String("file", file), slog.Int("count", len(entries)))

			pipeline, err := ingestion.NewEntryPipeline(emb, store)
			if err != nil {
				return fmt.Errorf("ingest entries: %w", err)
			}

			n, err := pipeline.IngestEntries(ctx, entries, func(msg string) {
				log.Info(msg)
			})
			if err != nil {
				return fmt.Errorf("ingest entries: %w", err)
			}

			log.Info("ingestion complete", slog.Int("entries", n))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to the Q&A entries JSON file")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// newIngestTranscriptsCmd constructs `carl ingest transcripts`, which chunks
// every .txt file in a directory and upserts the chunks into the transcript
// collection.
func newIngestTranscriptsCmd() *cobra.Command {
	var dir string
	var chunkSize int
	var chunkOverlap int

	cmd := &cobra.Command{
		Use:   "transcripts",
		Short: "Ingest a directory of webinar transcript .txt files",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()

			emb, err := initIngest(log)
			if err != nil {
				return fmt.Errorf("ingest transcripts: %w", err)
			}

			entries, err := openEntriesStore(ctx)
			if err != nil {
				return fmt.Errorf("ingest transcripts: %w", err)
			}
			defer entries.Close()

			chunks, err := openChunksStore(ctx, entries)
			if err != nil {
				return fmt.Errorf("ingest transcripts: %w", err)
			}

			pipeline, err := ingestion.NewTranscriptPipeline(emb, chunks, &ingestion.Config{
				ChunkSize:    chunkSize,
				ChunkOverlap: chunkOverlap,
			})
			if err != nil {
				return fmt.Errorf("ingest transcripts: %w", err)
			}

			n, err := pipeline.IngestDir(ctx, dir, func(msg string) {
				log.Info(msg)
			})
			if err != nil {
				return fmt.Errorf("ingest transcripts: %w", err)
			}

			log.Info("ingestion complete", slog.Int("chunks", n))
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Directory containing transcript .txt files")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 1000, "Maximum chunk size in bytes")
	cmd.Flags().IntVar(&chunkOverlap, "chunk-overlap", 100, "Overlap between consecutive chunks in bytes")
	_ = cmd.MarkFlagRequired("dir")

	return cmd
}
