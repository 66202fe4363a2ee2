package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/StevenCC12/carl-vector-knowledge-base/internal/kb"
)

// sourceNameWebinar labels the Q&A entry dataset. All entries share one
// source so a re-run replaces the full dataset.
const sourceNameWebinar = "webinar"

// Entry is one answered question loaded from the Q&A JSON file.
type Entry struct {
	// Question is the previously asked question. Required.
	Question string `json:"question"`

	// Answer is the answer that was given.
	Answer string `json:"answer"`

	// WebinarTitle is the title of the webinar the Q&A came from.
	WebinarTitle string `json:"webinar_title"`

	// WebinarDate is the date of the webinar (free-form string).
	WebinarDate string `json:"webinar_date"`
}

// EntryPipeline embeds Q&A questions and upserts them into the entries
// collection.
type EntryPipeline struct {
	// embedder converts question text into dense vector embeddings.
	embedder kb.Embedder

	// store persists the embedded entries.
	store kb.VectorStore
}

// NewEntryPipeline constructs an EntryPipeline from the provided dependencies.
func NewEntryPipeline(embedder kb.Embedder, store kb.VectorStore) (*EntryPipeline, error) {
	if embedder == nil {
		return nil, fmt.Errorf("ingestion: embedder must not be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("ingestion: store must not be nil")
	}
	return &EntryPipeline{embedder: embedder, store: store}, nil
}

// LoadEntries reads and parses the Q&A JSON file: a top-level array of
// {question, answer, webinar_title, webinar_date} objects.
func LoadEntries(path string) ([]Entry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ingestion: reading %s: %w", path, err)
	}

	var entries []Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("ingestion: parsing %s: %w", path, err)
	}

	return entries, nil
}

// IngestEntries replaces the webinar dataset with the given entries: prior
// entries are deleted by source, then each entry's question is embedded and
// upserted. Entries with an empty question are skipped and reported through
// progress. Returns the number of entries written. An empty (or all-skipped)
// input is a no-op, not an error.
func (p *EntryPipeline) IngestEntries(ctx context.Context, entries []Entry, progress func(msg string)) (int, error) {
	if progress == nil {
		progress = func(string) {}
	}

	if err := p.store.DeleteBySource(ctx, sourceNameWebinar); err != nil {
		return 0, fmt.Errorf("ingestion: clearing webinar entries: %w", err)
	}

	questions := make([]string, 0, len(entries))
	kept := make([]Entry, 0, len(entries))
	for i, e := range entries {
		if e.Question == "" {
			progress(fmt.Sprintf("skipping entry %d: missing question", i))
			continue
		}
		questions = append(questions, e.Question)
		kept = append(kept, e)
	}

	if len(kept) == 0 {
		progress("no valid entries to ingest — nothing to do")
		return 0, nil
	}

	embeddings, err := p.embedder.Embed(ctx, questions)
	if err != nil {
		return 0, fmt.Errorf("ingestion: embedding questions: %w", err)
	}

	docs := make([]kb.Document, 0, len(kept))
	for i, e := range kept {
		docs = append(docs, kb.Document{
			ID:         entryID(i),
			Content:    e.Question,
			Answer:     e.Answer,
			SourceType: sourceNameWebinar,
			SourceName: sourceNameWebinar,
			Metadata: map[string]string{
				"webinar_title": e.WebinarTitle,
				"webinar_date":  e.WebinarDate,
			},
		})
	}

	if err := p.store.Upsert(ctx, docs, embeddings); err != nil {
		return 0, fmt.Errorf("ingestion: upserting entries: %w", err)
	}

	progress(fmt.Sprintf("ingested %d entries", len(docs)))
	return len(docs), nil
}

// entryID returns a deterministic UUID for the entry at the given position in
// the dataset, so re-ingesting the same file upserts over the same points.
func entryID(index int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("webinar-entry#%d", index))).String()
}
