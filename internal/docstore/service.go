package docstore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/qdrant/go-client/qdrant"
)

const (
	// DefaultCollection holds the uploaded document chunks.
	DefaultCollection = "documents"

	defaultScoreThreshold = 0.7
	// DefaultTopK bounds semantic search results when the caller does not ask
	// for a specific count.
	DefaultTopK = 3
)

// Embedder turns text into a dense vector. A zero vector is an acceptable
// degraded answer; Embed never fails.
type Embedder interface {
	Embed(ctx context.Context, text string) []float32
}

// Service stores document text in Qdrant and answers similarity queries.
type Service struct {
	logger     *slog.Logger
	client     *qdrant.Client
	embedder   Embedder
	collection string
	vectorSize uint64
}

func NewService(log *slog.Logger, client *qdrant.Client, embedder Embedder, collection string, vectorSize uint64) *Service {
	if log == nil {
		log = slog.Default()
	}
	if collection == "" {
		collection = DefaultCollection
	}
	return &Service{
		logger:     log.With(slog.String("service", "docstore")),
		client:     client,
		embedder:   embedder,
		collection: collection,
		vectorSize: vectorSize,
	}
}

// Available reports whether the vector store can be reached right now.
func (s *Service) Available(ctx context.Context) bool {
	if s == nil || s.client == nil {
		return false
	}
	_, err := s.client.HealthCheck(ctx)
	return err == nil
}

// EnsureCollection creates the document collection if it does not exist yet.
func (s *Service) EnsureCollection(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("vector store not configured")
	}
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("check collection %q: %w", s.collection, err)
	}
	if exists {
		return nil
	}
	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     s.vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection %q: %w", s.collection, err)
	}
	s.logger.Info("collection created", slog.String("collection", s.collection))
	return nil
}

// Upsert writes a document and its embedding. The content itself rides in the
// point payload so search results can quote it back without a second lookup.
func (s *Service) Upsert(ctx context.Context, doc Document) error {
	if s.client == nil {
		return fmt.Errorf("vector store not configured")
	}
	if err := s.EnsureCollection(ctx); err != nil {
		return err
	}

	payload := map[string]any{
		"doc_id":         doc.ID,
		"content":        doc.Content,
		"content_length": len(doc.Content),
	}
	for k, v := range doc.Metadata {
		payload[k] = v
	}

	vector := s.embedder.Embed(ctx, doc.Content)
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points: []*qdrant.PointStruct{{
			Id:      qdrant.NewIDUUID(doc.ID),
			Vectors: qdrant.NewVectorsDense(vector),
			Payload: qdrant.NewValueMap(payload),
		}},
	})
	if err != nil {
		return fmt.Errorf("upsert document %q: %w", doc.ID, err)
	}
	s.logger.Info("document stored",
		slog.String("doc_id", doc.ID),
		slog.Int("content_length", len(doc.Content)))
	return nil
}

// Search embeds the query and returns the closest documents above the
// similarity threshold, best match first.
func (s *Service) Search(ctx context.Context, query string, topK int) ([]SearchResult, error) {
	if s.client == nil {
		return nil, fmt.Errorf("vector store not configured")
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	vector := s.embedder.Embed(ctx, query)
	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQueryDense(vector),
		Limit:          qdrant.PtrOf(uint64(topK)),
		ScoreThreshold: qdrant.PtrOf(float32(defaultScoreThreshold)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("semantic search: %w", err)
	}

	results := make([]SearchResult, 0, len(points))
	for _, p := range points {
		r := SearchResult{Score: p.Score, Metadata: map[string]string{}}
		for key, value := range p.Payload {
			switch key {
			case "doc_id":
				r.DocID = value.GetStringValue()
			case "content":
				r.Content = value.GetStringValue()
			case "content_length":
			default:
				if str := value.GetStringValue(); str != "" {
					r.Metadata[key] = str
				}
			}
		}
		results = append(results, r)
	}
	s.logger.Debug("semantic search done",
		slog.String("query", query),
		slog.Int("results", len(results)))
	return results, nil
}

// Delete removes a stored document by id.
func (s *Service) Delete(ctx context.Context, docID string) error {
	if s.client == nil {
		return fmt.Errorf("vector store not configured")
	}
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Points:         qdrant.NewPointsSelector(qdrant.NewIDUUID(docID)),
	})
	if err != nil {
		return fmt.Errorf("delete document %q: %w", docID, err)
	}
	return nil
}
