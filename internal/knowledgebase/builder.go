// Package knowledgebase builds versioned vector-store snapshots from a
// chatbot's documents and runs those builds in the background.
package knowledgebase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/chunker"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/domain"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/embedding"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/metrics"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/normalizer"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/vectorstore"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// StoreOpener opens vector stores by locator
type StoreOpener interface {
	Open(ctx context.Context, raw string) (vectorstore.Handle, error)
	Release(raw string) error
}

// Deps are the collaborators of a Builder
type Deps struct {
	Chatbots   domain.ChatbotRepository
	Models     domain.ModelRepository
	Documents  domain.DocumentRepository
	Snapshots  domain.SnapshotRepository
	Cache      domain.SnapshotCache
	Locker     domain.BuildLocker
	Normalizer normalizer.Normalizer
	Embedders  embedding.Source
	Stores     StoreOpener
}

// Options tune a Builder
type Options struct {
	ChunkSize    int
	ChunkOverlap int
	// BaseLocators maps a backend scheme to the locator new collections
	// are created under.
	BaseLocators   map[string]string
	DefaultBackend string
	Timeout        time.Duration
}

// Builder turns a chatbot's corpus into a new active snapshot
type Builder struct {
	deps    Deps
	chunker *chunker.Chunker
	opts    Options
}

// NewBuilder creates a new builder
func NewBuilder(deps Deps, opts Options) *Builder {
	return &Builder{
		deps:    deps,
		chunker: chunker.New(opts.ChunkSize, opts.ChunkOverlap),
		opts:    opts,
	}
}

// SnapshotName is the human-readable name of a chatbot's n-th snapshot
func SnapshotName(chatbotName string, version int) string {
	return fmt.Sprintf("%s_vdb_%d", chatbotName, version)
}

// CollectionName is the physical collection of a chatbot's n-th snapshot.
// Versions never repeat, so neither do collections.
func CollectionName(chatbotID uuid.UUID, version int) string {
	return fmt.Sprintf("kb_%s_v%d", strings.ReplaceAll(chatbotID.String(), "-", ""), version)
}

// corpusDoc is a document whose text made it into the build
type corpusDoc struct {
	doc    domain.Document
	chunks []string
}

// Build indexes the chatbot's documents into a fresh collection and makes
// the result the active snapshot. On failure no snapshot is recorded, every
// document the run picked up is marked failed, and the previous active
// snapshot keeps serving.
func (b *Builder) Build(ctx context.Context, chatbotID uuid.UUID) (snap *domain.Snapshot, err error) {
	started := time.Now()
	defer func() { metrics.ObserveBuild(started, err) }()

	unlock, err := b.deps.Locker.TryLock(ctx, chatbotID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if b.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.opts.Timeout)
		defer cancel()
	}

	logger := log.With().Str("chatbot_id", chatbotID.String()).Logger()
	logger.Info().Msg("knowledge base build started")

	chatbot, embedder, err := b.resolve(ctx, chatbotID)
	if err != nil {
		return nil, err
	}

	docs, err := b.deps.Documents.ListByChatbot(ctx, chatbotID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("chatbot %s has no documents: %w", chatbotID, domain.ErrNotFound)
	}

	// Failed documents stay out of the corpus until reprocessed.
	var processing []uuid.UUID
	var candidates []domain.Document
	for _, d := range docs {
		switch d.Status {
		case domain.DocumentStatusProcessing:
			processing = append(processing, d.ID)
			candidates = append(candidates, d)
		case domain.DocumentStatusEmbedded:
			candidates = append(candidates, d)
		}
	}

	defer func() {
		if err != nil {
			b.markFailed(ctx, chatbotID, processing)
			logger.Error().Err(err).Int("documents", len(processing)).Msg("knowledge base build failed")
		}
	}()

	corpus, err := b.collect(ctx, candidates)
	if err != nil {
		return nil, err
	}

	snap, err = b.index(ctx, chatbot, embedder, corpus)
	if err != nil {
		return nil, err
	}

	embedded := make(map[uuid.UUID]bool, len(corpus))
	for _, c := range corpus {
		embedded[c.doc.ID] = true
	}
	var done, skipped []uuid.UUID
	for _, id := range processing {
		if embedded[id] {
			done = append(done, id)
		} else {
			skipped = append(skipped, id)
		}
	}
	b.transition(ctx, chatbotID, done, domain.DocumentStatusEmbedded)
	b.transition(ctx, chatbotID, skipped, domain.DocumentStatusFailed)

	if b.deps.Cache != nil {
		if err := b.deps.Cache.Set(ctx, snap); err != nil {
			logger.Warn().Err(err).Msg("failed to cache active snapshot")
		}
	}

	logger.Info().
		Str("snapshot", snap.Name).
		Int("documents", snap.DocumentCount).
		Int("chunks", snap.ChunkCount).
		Dur("took", time.Since(started)).
		Msg("knowledge base build finished")
	return snap, nil
}

// resolve loads the chatbot and the embedder of its language model.
func (b *Builder) resolve(ctx context.Context, chatbotID uuid.UUID) (*domain.Chatbot, embedding.Embedder, error) {
	chatbot, err := b.deps.Chatbots.GetByID(ctx, chatbotID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get chatbot: %w", err)
	}
	if chatbot == nil || !chatbot.IsActive {
		return nil, nil, fmt.Errorf("chatbot %s: %w", chatbotID, domain.ErrNotFound)
	}

	cfg, err := EmbeddingConfig(ctx, b.deps.Models, chatbot)
	if err != nil {
		return nil, nil, err
	}

	embedder, err := b.deps.Embedders.Embedder(cfg)
	if err != nil {
		return nil, nil, err
	}
	return chatbot, embedder, nil
}

// EmbeddingConfig follows chatbot -> language model -> embedding model.
// A missing link is ErrNotFound.
func EmbeddingConfig(ctx context.Context, models domain.ModelRepository, chatbot *domain.Chatbot) (*domain.EmbeddingModel, error) {
	lm, err := models.GetLanguageModel(ctx, chatbot.LLMID)
	if err != nil {
		return nil, fmt.Errorf("failed to get language model: %w", err)
	}
	if lm == nil {
		return nil, fmt.Errorf("language model %s: %w", chatbot.LLMID, domain.ErrNotFound)
	}

	em, err := models.GetEmbeddingModel(ctx, lm.EmbeddingModelID)
	if err != nil {
		return nil, fmt.Errorf("failed to get embedding model: %w", err)
	}
	if em == nil {
		return nil, fmt.Errorf("embedding model %s: %w", lm.EmbeddingModelID, domain.ErrNotFound)
	}
	return em, nil
}

// collect normalizes and chunks each document. Missing, unsupported and
// unreadable files are skipped; an empty result is ErrCorpusEmpty.
func (b *Builder) collect(ctx context.Context, docs []domain.Document) ([]corpusDoc, error) {
	var corpus []corpusDoc
	for _, d := range docs {
		text, err := b.deps.Normalizer.Normalize(ctx, d.FilePath)
		if err != nil {
			if skippable(err) {
				log.Warn().Err(err).
					Str("document_id", d.ID.String()).
					Str("title", d.Title).
					Msg("skipping unreadable document")
				continue
			}
			return nil, fmt.Errorf("failed to normalize %q: %w", d.Title, err)
		}

		chunks := b.chunker.Chunk(text)
		if len(chunks) == 0 {
			log.Warn().Str("document_id", d.ID.String()).Msg("skipping document without text")
			continue
		}
		corpus = append(corpus, corpusDoc{doc: d, chunks: chunks})
	}

	if len(corpus) == 0 {
		return nil, fmt.Errorf("%w: none of %d documents yielded text", domain.ErrCorpusEmpty, len(docs))
	}
	return corpus, nil
}

func skippable(err error) bool {
	return errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, normalizer.ErrUnsupportedFormat) ||
		errors.Is(err, normalizer.ErrUnreadable)
}

// index embeds the corpus into a new collection and records the snapshot.
// A collection that never becomes a snapshot is dropped.
func (b *Builder) index(ctx context.Context, chatbot *domain.Chatbot, embedder embedding.Embedder, corpus []corpusDoc) (*domain.Snapshot, error) {
	var records []vectorstore.Record
	var texts []string
	for _, c := range corpus {
		for i, text := range c.chunks {
			records = append(records, vectorstore.Record{
				ID:         fmt.Sprintf("%s:%d", c.doc.ID, i),
				Seq:        len(records),
				DocumentID: c.doc.ID,
				Title:      c.doc.Title,
				ChunkIndex: i,
				Text:       text,
			})
			texts = append(texts, text)
		}
	}

	vectors, err := embedder.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	for i := range records {
		records[i].Vector = vectors[i]
	}

	version, err := b.deps.Snapshots.ReserveVersion(ctx, chatbot.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve snapshot version: %w", err)
	}

	locator, err := b.locator(chatbot, version)
	if err != nil {
		return nil, err
	}

	store, err := b.deps.Stores.Open(ctx, locator)
	if err != nil {
		return nil, err
	}

	// A leftover collection is never written to or dropped.
	existing, err := store.Count(ctx)
	if err != nil || existing > 0 {
		_ = b.deps.Stores.Release(locator)
		if err != nil {
			return nil, fmt.Errorf("failed to inspect new collection: %w", err)
		}
		return nil, fmt.Errorf("%w: collection for version %d already holds %d records",
			domain.ErrRetrievalBackend, version, existing)
	}

	snap, err := b.write(ctx, store, chatbot, version, records, len(corpus))
	if err != nil {
		cleanup, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		if dropErr := store.Drop(cleanup); dropErr != nil {
			log.Warn().Err(dropErr).Str("chatbot_id", chatbot.ID.String()).Msg("failed to drop partial collection")
		}
		_ = b.deps.Stores.Release(locator)
		return nil, err
	}
	return snap, nil
}

func (b *Builder) write(ctx context.Context, store vectorstore.Handle, chatbot *domain.Chatbot, version int, records []vectorstore.Record, docCount int) (*domain.Snapshot, error) {
	if err := store.Index(ctx, records); err != nil {
		return nil, err
	}
	metrics.ChunksIndexed.WithLabelValues(store.Backend()).Add(float64(len(records)))

	now := time.Now()
	snap := &domain.Snapshot{
		ID:            uuid.New(),
		ChatbotID:     chatbot.ID,
		Name:          SnapshotName(chatbot.Name, version),
		Version:       version,
		Locator:       store.Describe(),
		DocumentCount: docCount,
		ChunkCount:    len(records),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := b.deps.Snapshots.CreateActive(ctx, snap); err != nil {
		return nil, fmt.Errorf("failed to record snapshot: %w", err)
	}
	return snap, nil
}

// locator derives the new collection's locator from the chatbot's backend.
func (b *Builder) locator(chatbot *domain.Chatbot, version int) (string, error) {
	backend := chatbot.VectorBackend
	if backend == "" {
		backend = b.opts.DefaultBackend
	}

	base, ok := b.opts.BaseLocators[backend]
	if !ok {
		return "", fmt.Errorf("%w: no base locator configured for %q", domain.ErrUnsupportedBackend, backend)
	}

	loc, err := vectorstore.ParseLocator(base)
	if err != nil {
		return "", err
	}
	return loc.WithCollection(CollectionName(chatbot.ID, version)).String(), nil
}

// markFailed runs after the build context may have expired, so it uses a
// detached one.
func (b *Builder) markFailed(ctx context.Context, chatbotID uuid.UUID, ids []uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	b.transition(ctx, chatbotID, ids, domain.DocumentStatusFailed)
}

func (b *Builder) transition(ctx context.Context, chatbotID uuid.UUID, ids []uuid.UUID, to domain.DocumentStatus) {
	if len(ids) == 0 {
		return
	}
	n, err := b.deps.Documents.UpdateStatus(ctx, &domain.DocumentStatusUpdate{
		ChatbotID:   chatbotID,
		DocumentIDs: ids,
		From:        domain.DocumentStatusProcessing,
		To:          to,
	})
	if err != nil {
		log.Error().Err(err).
			Str("chatbot_id", chatbotID.String()).
			Str("status", string(to)).
			Msg("failed to update document status")
		return
	}
	if n != len(ids) {
		log.Warn().
			Str("chatbot_id", chatbotID.String()).
			Int("expected", len(ids)).
			Int("updated", n).
			Msg("some documents changed status during the build")
	}
}
