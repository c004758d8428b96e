// Package retrieval turns a question into context text from a chatbot's
// active knowledge-base snapshot.
package retrieval

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/domain"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/embedding"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/metrics"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/vectorstore"
)

// Delimiter separates chunk texts in the assembled context
const Delimiter = "\n\n"

// DefaultK is the number of chunks retrieved when k is not positive
const DefaultK = 3

// StoreOpener opens vector stores by locator
type StoreOpener interface {
	Open(ctx context.Context, raw string) (vectorstore.Handle, error)
}

// Result is the context assembled for one question
type Result struct {
	Context string
	Sources []domain.Source
}

// Empty reports whether no context was found
func (r *Result) Empty() bool {
	return r.Context == ""
}

// Retriever searches snapshots
type Retriever struct {
	stores    StoreOpener
	embedders embedding.Source
}

// NewRetriever creates a new retriever
func NewRetriever(stores StoreOpener, embedders embedding.Source) *Retriever {
	return &Retriever{stores: stores, embedders: embedders}
}

// Retrieve embeds the question with cfg and returns the k closest chunks of
// the snapshot. cfg must be the configuration the snapshot was built with.
// A nil snapshot or an empty store yields an empty result.
func (r *Retriever) Retrieve(ctx context.Context, question string, snap *domain.Snapshot, cfg *domain.EmbeddingModel, k int) (*Result, error) {
	if snap == nil {
		return &Result{}, nil
	}
	if k <= 0 {
		k = DefaultK
	}

	store, err := r.stores.Open(ctx, snap.Locator)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	defer func() {
		metrics.RetrievalDuration.WithLabelValues(store.Backend()).Observe(time.Since(started).Seconds())
	}()

	embedder, err := r.embedders.Embedder(cfg)
	if err != nil {
		return nil, err
	}
	query, err := embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, err
	}

	matches, err := store.Search(ctx, query, k)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", snap.Name, err)
	}

	return assemble(matches), nil
}

func assemble(matches []vectorstore.Match) *Result {
	res := &Result{Sources: make([]domain.Source, 0, len(matches))}
	texts := make([]string, 0, len(matches))
	for _, m := range matches {
		if strings.TrimSpace(m.Text) == "" {
			continue
		}
		texts = append(texts, m.Text)
		res.Sources = append(res.Sources, domain.Source{
			DocumentID: m.DocumentID.String(),
			Title:      m.Title,
			ChunkIndex: m.ChunkIndex,
			Score:      m.Score,
		})
	}
	res.Context = strings.Join(texts, Delimiter)
	return res
}
