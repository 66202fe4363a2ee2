// Package kb defines the interfaces and document types for the knowledge
// base: vector storage, similarity search, and embedding. Concrete
// implementations (Qdrant, etc.) satisfy these interfaces so the triage and
// ingestion layers never depend on a specific backend.
package kb

import (
	"context"
)

// Document represents a unit of stored or retrieved knowledge. Both Q&A
// entries and transcript chunks are expressed as Documents; entry-specific
// fields (Answer) are simply empty for chunks.
type Document struct {
	// ID is the unique identifier for this document.
	ID string

	// Content is the primary text of the document. For a Q&A entry this is
	// the question text; for a transcript chunk it is the chunk body.
	Content string

	// Answer is the stored answer text for a Q&A entry. Empty for chunks.
	Answer string

	// SourceType labels the origin kind (e.g. "webinar", "transcript").
	SourceType string

	// SourceName identifies the specific source (file name or dataset label).
	// Idempotent re-ingestion deletes by this field before inserting.
	SourceName string

	// Metadata holds arbitrary key-value pairs (webinar title, chunk number, etc.).
	Metadata map[string]string

	// Score is the similarity score assigned during search (0.0–1.0).
	// Zero value means the score was not computed.
	Score float32
}

// VectorStore is the interface for persisting and searching document
// embeddings. Implementations must be safe to call from multiple goroutines.
type VectorStore interface {
	// Upsert stores or updates a batch of documents with their pre-computed
	// embeddings. The embeddings slice must be parallel to docs —
	// embeddings[i] is the vector for docs[i].
	Upsert(ctx context.Context, docs []Document, embeddings [][]float32) error

	// Search performs a similarity search and returns the top-k most
	// relevant documents for the given query embedding, best match first.
	Search(ctx context.Context, queryEmbedding []float32, topK int) ([]Document, error)

	// DeleteBySource removes every document whose SourceName matches name.
	// Removing a source that has no documents is not an error.
	DeleteBySource(ctx context.Context, name string) error

	// CountBySource returns the number of stored documents for the given
	// source name.
	CountBySource(ctx context.Context, name string) (uint64, error)

	// Close releases any resources held by the store.
	Close() error
}

// Embedder is the interface for converting text into dense vector embeddings.
// Implementations must be safe to call from multiple goroutines.
type Embedder interface {
	// Embed converts a batch of texts into their corresponding embeddings.
	// The returned slice is parallel to the input slice.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
