// Package ingestion implements the knowledge base ingestion pipelines.
// Transcript files are chunked, embedded, and upserted into the chunks
// collection; Q&A entries are embedded by question and upserted into the
// entries collection. Both pipelines delete prior documents for a source
// before inserting so re-running ingestion never accumulates duplicates.
// The pipelines are invoked by the `carl ingest` CLI commands.
package ingestion

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"

	"github.com/StevenCC12/carl-vector-knowledge-base/internal/kb"
)

// sourceTypeTranscript labels documents produced from transcript files.
const sourceTypeTranscript = "transcript"

// Config holds the configuration for the transcript ingestion pipeline.
type Config struct {
	// ChunkSize is the maximum number of characters per chunk.
	// Defaults to 1000 if zero.
	ChunkSize int

	// ChunkOverlap is the number of characters to overlap between
	// consecutive chunks. Defaults to 100 if zero.
	ChunkOverlap int
}

// TranscriptPipeline orchestrates the read → chunk → embed → upsert flow for
// a directory of transcript text files.
type TranscriptPipeline struct {
	// embedder converts text chunks into dense vector embeddings.
	embedder kb.Embedder

	// store persists the embedded chunks.
	store kb.VectorStore

	// splitter breaks transcript text into overlapping chunks.
	splitter *Splitter
}

// NewTranscriptPipeline constructs a TranscriptPipeline from the provided
// dependencies and config.
func NewTranscriptPipeline(embedder kb.Embedder, store kb.VectorStore, cfg *Config) (*TranscriptPipeline, error) {
	if embedder == nil {
		return nil, fmt.Errorf("ingestion: embedder must not be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("ingestion: store must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 1000
	}
	if cfg.ChunkOverlap == 0 {
		cfg.ChunkOverlap = 100
	}

	return &TranscriptPipeline{
		embedder: embedder,
		store:    store,
		splitter: NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap),
	}, nil
}

// IngestDir globs *.txt files under dir and ingests each one. A directory
// with no transcript files is reported through progress and is not an error.
// Unreadable files are skipped with a progress message; other failures abort.
// Returns the total number of chunks written.
func (p *TranscriptPipeline) IngestDir(ctx context.Context, dir string, progress func(msg string)) (int, error) {
	if progress == nil {
		progress = func(string) {}
	}

	pattern := filepath.Join(dir, "*.txt")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return 0, fmt.Errorf("ingestion: bad transcript pattern %q: %w", pattern, err)
	}
	if len(files) == 0 {
		progress(fmt.Sprintf("no transcript files found at %q — nothing to do", pattern))
		return 0, nil
	}
	sort.Strings(files)
	progress(fmt.Sprintf("found %d transcript files to process", len(files)))

	total := 0
	for _, path := range files {
		n, err := p.IngestFile(ctx, path, progress)
		if err != nil {
			return total, err
		}
		total += n
	}

	return total, nil
}

// IngestFile ingests a single transcript file: deletes every existing chunk
// for its source name, splits the text, embeds the chunks, and upserts them.
// Returns the number of chunks written. An unreadable file or one producing
// zero chunks is skipped (reported via progress, count 0, no error).
func (p *TranscriptPipeline) IngestFile(ctx context.Context, path string, progress func(msg string)) (int, error) {
	if progress == nil {
		progress = func(string) {}
	}

	sourceName := filepath.Base(path)
	progress(fmt.Sprintf("processing %s", sourceName))

	// Clear prior chunks first so a re-run replaces rather than accumulates.
	if err := p.store.DeleteBySource(ctx, sourceName); err != nil {
		return 0, fmt.Errorf("ingestion: clearing chunks for %s: %w", sourceName, err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		progress(fmt.Sprintf("skipping %s: %v", sourceName, err))
		return 0, nil
	}

	chunks := p.splitter.Split(string(raw))
	if len(chunks) == 0 {
		progress(fmt.Sprintf("no chunks generated for %s — skipping", sourceName))
		return 0, nil
	}
	progress(fmt.Sprintf("split %s into %d chunks", sourceName, len(chunks)))

	embeddings, err := p.embedder.Embed(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("ingestion: embedding %s: %w", sourceName, err)
	}

	docs := make([]kb.Document, 0, len(chunks))
	for i, chunk := range chunks {
		docs = append(docs, kb.Document{
			ID:         chunkID(sourceName, i),
			Content:    chunk,
			SourceType: sourceTypeTranscript,
			SourceName: sourceName,
			Metadata: map[string]string{
				// chunk_number is 1-based to match how operators talk about
				// "the 3rd chunk of the file".
				"chunk_number": fmt.Sprintf("%d", i+1),
			},
		})
	}

	if err := p.store.Upsert(ctx, docs, embeddings); err != nil {
		return 0, fmt.Errorf("ingestion: upsert for %s: %w", sourceName, err)
	}

	progress(fmt.Sprintf("ingested %d chunks from %s", len(chunks), sourceName))
	return len(chunks), nil
}

// chunkID returns a deterministic UUID for a chunk derived from its source
// name and index, so re-ingesting the same file upserts over the same points.
func chunkID(sourceName string, index int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("transcript/%s#%d", sourceName, index))).String()
}
