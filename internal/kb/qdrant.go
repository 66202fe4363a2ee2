package kb

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
)

// Payload field names used for Qdrant points. Search and filtered deletes
// depend on these keys, so they are defined once here.
const (
	payloadContent    = "content"
	payloadAnswer     = "answer"
	payloadSourceType = "source_type"
	payloadSourceName = "source_name"
)

// QdrantConfig holds connection parameters for a Qdrant-backed store.
type QdrantConfig struct {
	// Host is the Qdrant server hostname (default: localhost).
	Host string

	// Port is the Qdrant gRPC port (default: 6334).
	Port int

	// Collection is the Qdrant collection name to use.
	Collection string

	// VectorSize is the dimensionality of the embeddings stored in this collection.
	VectorSize uint64

	// APIKey is the optional Qdrant API key for authenticated clusters.
	APIKey string

	// UseTLS enables TLS for the gRPC connection.
	UseTLS bool
}

// QdrantStore implements VectorStore backed by a single Qdrant collection.
// The service uses two instances: one for Q&A entries, one for transcript
// chunks. Both can share the underlying client via NewQdrantStoreWithClient.
type QdrantStore struct {
	// client is the underlying Qdrant gRPC client.
	client *qdrant.Client

	// cfg holds the resolved configuration for this store.
	cfg *QdrantConfig

	// ownsClient is true when Close should close the gRPC connection.
	ownsClient bool
}

// NewQdrantStore creates a QdrantStore with its own client connection,
// ensuring the target collection exists (creating it if necessary).
func NewQdrantStore(ctx context.Context, cfg *QdrantConfig) (*QdrantStore, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("kb: failed to create qdrant client: %w", err)
	}

	store := &QdrantStore{client: client, cfg: cfg, ownsClient: true}
	if err := store.ensureCollection(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

// NewQdrantStoreWithClient creates a QdrantStore over an existing client.
// Closing the returned store does not close the shared client.
func NewQdrantStoreWithClient(ctx context.Context, client *qdrant.Client, cfg *QdrantConfig) (*QdrantStore, error) {
	store := &QdrantStore{client: client, cfg: cfg}
	if err := store.ensureCollection(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// Client exposes the underlying Qdrant client so callers can share one
// connection across collections and wire readiness probes.
func (s *QdrantStore) Client() *qdrant.Client { return s.client }

// ensureCollection creates the Qdrant collection if it does not already exist.
func (s *QdrantStore) ensureCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.cfg.Collection)
	if err != nil {
		return fmt.Errorf("kb: failed to check collection existence: %w", err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.cfg.Collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     s.cfg.VectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("kb: failed to create collection %q: %w", s.cfg.Collection, err)
	}

	return nil
}

// Upsert stores or updates a batch of documents with their embeddings.
// The embeddings slice must be parallel to docs.
func (s *QdrantStore) Upsert(ctx context.Context, docs []Document, embeddings [][]float32) error {
	if len(docs) != len(embeddings) {
		return fmt.Errorf("kb: got %d documents but %d embeddings", len(docs), len(embeddings))
	}

	points := make([]*qdrant.PointStruct, 0, len(docs))
	for i, doc := range docs {
		payload := map[string]interface{}{
			payloadContent:    doc.Content,
			payloadSourceType: doc.SourceType,
			payloadSourceName: doc.SourceName,
		}
		if doc.Answer != "" {
			payload[payloadAnswer] = doc.Answer
		}
		for k, v := range doc.Metadata {
			payload[k] = v
		}

		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(doc.ID),
			Vectors: qdrant.NewVectors(embeddings[i]...),
			Payload: qdrant.NewValueMap(payload),
		})
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.cfg.Collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("kb: upsert failed: %w", err)
	}

	return nil
}

// Search performs a cosine similarity search and returns the top-k results,
// best match first.
func (s *QdrantStore) Search(ctx context.Context, queryEmbedding []float32, topK int) ([]Document, error) {
	limit := uint64(topK)
	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.cfg.Collection,
		Query:          qdrant.NewQuery(queryEmbedding...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("kb: search failed: %w", err)
	}

	docs := make([]Document, 0, len(results))
	for _, r := range results {
		doc := Document{
			ID:       r.Id.GetUuid(),
			Score:    r.Score,
			Metadata: make(map[string]string),
		}
		for k, v := range r.Payload {
			switch k {
			case payloadContent:
				doc.Content = v.GetStringValue()
			case payloadAnswer:
				doc.Answer = v.GetStringValue()
			case payloadSourceType:
				doc.SourceType = v.GetStringValue()
			case payloadSourceName:
				doc.SourceName = v.GetStringValue()
			default:
				doc.Metadata[k] = v.GetStringValue()
			}
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

// DeleteBySource removes every point whose source_name payload field matches
// name. Deleting from a source with no points is a no-op, not an error —
// this is what makes re-running ingestion safe.
func (s *QdrantStore) DeleteBySource(ctx context.Context, name string) error {
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.cfg.Collection,
		Points: qdrant.NewPointsSelectorFilter(&qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch(payloadSourceName, name),
			},
		}),
	})
	if err != nil {
		return fmt.Errorf("kb: delete by source %q failed: %w", name, err)
	}

	return nil
}

// CountBySource returns the exact number of stored points for the given
// source name.
func (s *QdrantStore) CountBySource(ctx context.Context, name string) (uint64, error) {
	count, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.cfg.Collection,
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch(payloadSourceName, name),
			},
		},
		Exact: qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("kb: count by source %q failed: %w", name, err)
	}

	return count, nil
}

// Close closes the underlying Qdrant gRPC connection if this store owns it.
func (s *QdrantStore) Close() error {
	if !s.ownsClient {
		return nil
	}
	return s.client.Close()
}
