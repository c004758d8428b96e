package qdrant

import (
	"context"
	"fmt"
	"strconv"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/vectorstore"
	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

const upsertBatch = 256

// Store implements vectorstore.Store over Qdrant's gRPC API.
//
// Locator: qdrant://[api_key@]host[:6334]?collection=<name>[&tls=true]
type Store struct {
	client     *qdrant.Client
	collection string
	created    bool
}

// NewStore creates a new Qdrant store
func NewStore() vectorstore.Store {
	return &Store{}
}

// Backend returns the locator scheme
func (s *Store) Backend() string {
	return "qdrant"
}

// Connect dials the server. The collection itself is created on first
// Index, once the vector dimension is known.
func (s *Store) Connect(ctx context.Context, loc vectorstore.Locator) error {
	cfg := &qdrant.Config{
		Host:   loc.URL.Hostname(),
		Port:   6334,
		UseTLS: loc.Param("tls") == "true",
	}
	if p := loc.URL.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return fmt.Errorf("invalid port %q", p)
		}
		cfg.Port = port
	}
	if loc.URL.User != nil {
		cfg.APIKey = loc.URL.User.Username()
	}
	if key := loc.Param("api_key"); key != "" {
		cfg.APIKey = key
	}
	if cfg.Host == "" {
		return fmt.Errorf("host is required")
	}

	client, err := qdrant.NewClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	if _, err := client.HealthCheck(ctx); err != nil {
		client.Close()
		return fmt.Errorf("failed to reach qdrant: %w", err)
	}

	exists, err := client.CollectionExists(ctx, loc.Collection)
	if err != nil {
		client.Close()
		return fmt.Errorf("failed to check collection: %w", err)
	}

	s.client = client
	s.collection = loc.Collection
	s.created = exists
	return nil
}

// Close closes the gRPC connection
func (s *Store) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// HealthCheck verifies connection is alive
func (s *Store) HealthCheck(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("not connected")
	}
	_, err := s.client.HealthCheck(ctx)
	return err
}

func (s *Store) ensureCollection(ctx context.Context, dim int) error {
	if s.created {
		return nil
	}
	err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dim),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	s.created = true
	return nil
}

// Index upserts records as points with their text in the payload
func (s *Store) Index(ctx context.Context, records []vectorstore.Record) error {
	if err := s.ensureCollection(ctx, len(records[0].Vector)); err != nil {
		return err
	}

	for start := 0; start < len(records); start += upsertBatch {
		end := min(start+upsertBatch, len(records))

		points := make([]*qdrant.PointStruct, 0, end-start)
		for _, rec := range records[start:end] {
			payload, err := qdrant.TryValueMap(map[string]any{
				"seq":         rec.Seq,
				"document_id": rec.DocumentID.String(),
				"title":       rec.Title,
				"chunk_index": rec.ChunkIndex,
				"content":     rec.Text,
			})
			if err != nil {
				return fmt.Errorf("invalid payload for %s: %w", rec.ID, err)
			}
			points = append(points, &qdrant.PointStruct{
				Id:      qdrant.NewIDUUID(pointID(rec.ID)),
				Vectors: qdrant.NewVectors(rec.Vector...),
				Payload: payload,
			})
		}

		if _, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: s.collection,
			Wait:           qdrant.PtrOf(true),
			Points:         points,
		}); err != nil {
			return fmt.Errorf("upsert failed: %w", err)
		}
	}
	return nil
}

// Search queries the k nearest points
func (s *Store) Search(ctx context.Context, query []float32, k int) ([]vectorstore.Match, error) {
	if !s.created {
		return nil, nil
	}

	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(query...),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	matches := make([]vectorstore.Match, 0, len(points))
	for _, p := range points {
		payload := p.GetPayload()
		docID, _ := uuid.Parse(payload["document_id"].GetStringValue())
		matches = append(matches, vectorstore.Match{
			Seq:        int(payload["seq"].GetIntegerValue()),
			DocumentID: docID,
			Title:      payload["title"].GetStringValue(),
			ChunkIndex: int(payload["chunk_index"].GetIntegerValue()),
			Text:       payload["content"].GetStringValue(),
			Score:      p.GetScore(),
		})
	}
	vectorstore.SortMatches(matches)
	return matches, nil
}

// Count returns the exact number of points
func (s *Store) Count(ctx context.Context) (int, error) {
	if !s.created {
		return 0, nil
	}
	n, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.collection,
		Exact:          qdrant.PtrOf(true),
	})
	return int(n), err
}

// Drop deletes the collection
func (s *Store) Drop(ctx context.Context) error {
	if !s.created {
		return nil
	}
	if err := s.client.DeleteCollection(ctx, s.collection); err != nil {
		return err
	}
	s.created = false
	return nil
}

// Qdrant point ids must be UUIDs or integers.
func pointID(id string) string {
	if _, err := uuid.Parse(id); err == nil {
		return id
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(id)).String()
}
