package storage

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/sobiamehak/humanoid-robotic-book/internal/chunker"
)

// Store wraps the Qdrant client with connection management, idempotent
// collection setup, and the search/upsert contract the retriever and
// ingestion pipeline depend on.
type Store struct {
	client     *qdrant.Client
	collection string
	dimension  int
}

// NewStore creates a Qdrant client and validates connectivity with retry.
// It fails fast if the server stays unreachable past the backoff budget.
func NewStore(host string, port int, apiKey, collection string, dimension int) (*Store, error) {
	if collection == "" {
		collection = DefaultCollection
	}
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}

	store := &Store{
		client:     client,
		collection: collection,
		dimension:  dimension,
	}

	if err := store.healthCheckWithRetry(context.Background()); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	return store, nil
}

// healthCheckWithRetry probes the server with exponential backoff.
func (s *Store) healthCheckWithRetry(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		return s.Health(ctx)
	}, backoff.WithContext(b, ctx))
}

// Health performs a single health check.
func (s *Store) Health(ctx context.Context) error {
	result, err := s.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if result == nil || result.Title == "" {
		return fmt.Errorf("health check returned invalid response")
	}
	return nil
}

// EnsureCollection creates the collection with cosine distance and the
// store's configured dimension. Idempotent: an existing collection with the
// same name is left untouched.
func (s *Store) EnsureCollection(ctx context.Context) error {
	collections, err := s.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	for _, name := range collections {
		if name == s.collection {
			return nil
		}
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(s.dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	return nil
}

// Upsert stores points in batches of 100. Points with an id already in the
// collection are overwritten, not duplicated.
func (s *Store) Upsert(ctx context.Context, points []IndexedPoint) error {
	if len(points) == 0 {
		return nil
	}
	for i, p := range points {
		if len(p.Vector) != s.dimension {
			return fmt.Errorf("%w: point %d has %d dimensions, expected %d",
				ErrDimensionMismatch, i, len(p.Vector), s.dimension)
		}
	}

	batchSize := 100
	for i := 0; i < len(points); i += batchSize {
		end := min(i+batchSize, len(points))
		batch := points[i:end]

		structs := make([]*qdrant.PointStruct, len(batch))
		for j, p := range batch {
			structs[j] = &qdrant.PointStruct{
				Id:      qdrant.NewIDUUID(PointID(s.collection, p.ID)),
				Vectors: qdrant.NewVectors(p.Vector...),
				Payload: qdrant.NewValueMap(map[string]any{
					"chunk_id":      p.ID,
					"text":          p.Payload.Text,
					"source_file":   p.Payload.SourceFile,
					"chapter":       p.Payload.Metadata.Chapter,
					"lesson":        p.Payload.Metadata.Lesson,
					"section_title": p.Payload.Metadata.SectionTitle,
					"source_url":    p.Payload.Metadata.SourceURL,
					"file_path":     p.Payload.Metadata.FilePath,
				}),
			}
		}

		if err := s.upsertWithRetry(ctx, structs); err != nil {
			return fmt.Errorf("upsert batch %d-%d: %w", i, end, err)
		}
	}
	return nil
}

// upsertWithRetry performs one upsert call with exponential backoff.
func (s *Store) upsertWithRetry(ctx context.Context, points []*qdrant.PointStruct) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: s.collection,
			Points:         points,
		})
		return err
	}, backoff.WithContext(b, ctx))
}

// Search returns the topK most similar points ordered by descending score.
// Equal scores are broken by chunk id so result order is deterministic.
func (s *Store) Search(ctx context.Context, vector []float32, topK int) ([]RetrievalHit, error) {
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			ErrDimensionMismatch, len(vector), s.dimension)
	}

	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	hits := make([]RetrievalHit, 0, len(results))
	for _, result := range results {
		payload := result.Payload
		hits = append(hits, RetrievalHit{
			ChunkID: payload["chunk_id"].GetStringValue(),
			Text:    payload["text"].GetStringValue(),
			Metadata: chunker.Metadata{
				Chapter:      payload["chapter"].GetStringValue(),
				Lesson:       payload["lesson"].GetStringValue(),
				SectionTitle: payload["section_title"].GetStringValue(),
				SourceURL:    payload["source_url"].GetStringValue(),
				FilePath:     payload["file_path"].GetStringValue(),
			},
			Score: float64(result.Score),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})
	return hits, nil
}

// CountPoints reports the number of points in the collection.
func (s *Store) CountPoints(ctx context.Context) (uint64, error) {
	collection, err := s.client.GetCollectionInfo(ctx, s.collection)
	if err != nil {
		return 0, fmt.Errorf("get collection: %w", err)
	}
	return collection.GetPointsCount(), nil
}

// Close closes the underlying client connection.
func (s *Store) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// PointID derives the deterministic Qdrant point UUID for a chunk id. The
// UUIDv5 namespace is anchored on the collection name, so the same chunk
// always maps to the same point within a collection and collections never
// share a point-id space.
func PointID(collection, chunkID string) string {
	namespace := uuid.NewSHA1(uuid.NameSpaceURL, []byte("humanoid-robotic-book/"+collection))
	return uuid.NewSHA1(namespace, []byte(chunkID)).String()
}
