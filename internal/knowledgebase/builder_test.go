package knowledgebase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/domain"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/repository/memory"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/vectorstore"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_Build(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	doc := h.addDocument(t, "foo.txt", "Foo is bar.")

	snap, err := h.builder(t).Build(ctx, h.chatbot.ID)
	require.NoError(t, err)

	assert.Equal(t, "support_vdb_1", snap.Name)
	assert.Equal(t, 1, snap.Version)
	assert.True(t, snap.IsActive)
	assert.Equal(t, 1, snap.DocumentCount)
	assert.Equal(t, 1, snap.ChunkCount)
	assert.Contains(t, snap.Locator, "collection="+CollectionName(h.chatbot.ID, 1))
	assert.Equal(t, domain.DocumentStatusEmbedded, h.status(t, doc.ID))

	active, err := h.snapshots.GetActive(ctx, h.chatbot.ID)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, snap.ID, active.ID)

	cached, err := h.cache.Get(ctx, h.chatbot.ID)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, snap.ID, cached.ID)

	store, err := h.stores.Open(ctx, snap.Locator)
	require.NoError(t, err)
	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestBuilder_RebuildCreatesNewVersion(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.addDocument(t, "a.txt", "Alpha document text.")
	b := h.builder(t)

	first, err := b.Build(ctx, h.chatbot.ID)
	require.NoError(t, err)

	second := h.addDocument(t, "b.txt", "Beta document text.")
	rebuilt, err := b.Build(ctx, h.chatbot.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, rebuilt.Version)
	assert.Equal(t, 2, rebuilt.DocumentCount)
	assert.NotEqual(t, first.Locator, rebuilt.Locator)
	assert.Equal(t, domain.DocumentStatusEmbedded, h.status(t, second.ID))

	list, err := h.snapshots.ListByChatbot(ctx, h.chatbot.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, list[0].IsActive)
	assert.False(t, list[1].IsActive)
}

func TestBuilder_UnreadableCorpus(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	doc := h.addUnreadable(t, "broken.pdf")

	snap, err := h.builder(t).Build(ctx, h.chatbot.ID)
	assert.Nil(t, snap)
	assert.ErrorIs(t, err, domain.ErrCorpusEmpty)
	assert.Equal(t, domain.DocumentStatusFailed, h.status(t, doc.ID))

	list, err := h.snapshots.ListByChatbot(ctx, h.chatbot.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestBuilder_SkipsUnreadableDocuments(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	good := h.addDocument(t, "good.md", "Readable text lives here.")
	bad := h.addUnreadable(t, "bad.pdf")
	missing := h.addDocument(t, "gone.txt", "")
	h.norm.mu.Lock()
	delete(h.norm.texts, missing.FilePath)
	h.norm.mu.Unlock()

	snap, err := h.builder(t).Build(ctx, h.chatbot.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, snap.DocumentCount)
	assert.Equal(t, domain.DocumentStatusEmbedded, h.status(t, good.ID))
	assert.Equal(t, domain.DocumentStatusFailed, h.status(t, bad.ID))
	assert.Equal(t, domain.DocumentStatusFailed, h.status(t, missing.ID))
}

func TestBuilder_EmbeddingFailureKeepsPreviousSnapshot(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	old := h.addDocument(t, "a.txt", "Alpha document text.")

	first, err := h.builder(t).Build(ctx, h.chatbot.ID)
	require.NoError(t, err)

	fresh := h.addDocument(t, "b.txt", "Beta document text.")
	snap, err := h.builderWith(t, failingEmbedders{}).Build(ctx, h.chatbot.ID)
	assert.Nil(t, snap)
	require.Error(t, err)

	active, err := h.snapshots.GetActive(ctx, h.chatbot.ID)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, first.ID, active.ID)

	assert.Equal(t, domain.DocumentStatusEmbedded, h.status(t, old.ID))
	assert.Equal(t, domain.DocumentStatusFailed, h.status(t, fresh.ID))

	store, err := h.stores.Open(ctx, first.Locator)
	require.NoError(t, err)
	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestBuilder_Errors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		setup   func(t *testing.T, h *harness) uuid.UUID
		wantErr error
	}{
		{
			name:    "unknown chatbot",
			setup:   func(t *testing.T, h *harness) uuid.UUID { return uuid.New() },
			wantErr: domain.ErrNotFound,
		},
		{
			name: "inactive chatbot",
			setup: func(t *testing.T, h *harness) uuid.UUID {
				h.addDocument(t, "a.txt", "text")
				h.chatbot.IsActive = false
				require.NoError(t, h.chatbots.Update(ctx, h.chatbot))
				return h.chatbot.ID
			},
			wantErr: domain.ErrNotFound,
		},
		{
			name:    "no documents",
			setup:   func(t *testing.T, h *harness) uuid.UUID { return h.chatbot.ID },
			wantErr: domain.ErrNotFound,
		},
		{
			name: "unconfigured backend",
			setup: func(t *testing.T, h *harness) uuid.UUID {
				h.addDocument(t, "a.txt", "text")
				h.chatbot.VectorBackend = "qdrant"
				require.NoError(t, h.chatbots.Update(ctx, h.chatbot))
				return h.chatbot.ID
			},
			wantErr: domain.ErrUnsupportedBackend,
		},
		{
			name: "missing language model",
			setup: func(t *testing.T, h *harness) uuid.UUID {
				h.addDocument(t, "a.txt", "text")
				h.chatbot.LLMID = uuid.New()
				require.NoError(t, h.chatbots.Update(ctx, h.chatbot))
				return h.chatbot.ID
			},
			wantErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			id := tt.setup(t, h)

			snap, err := h.builder(t).Build(ctx, id)
			assert.Nil(t, snap)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestBuilder_ConcurrentBuildsAreExclusive(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.addDocument(t, "a.txt", "Alpha document text.")
	b := h.builder(t)

	entered := make(chan struct{})
	release := make(chan struct{})
	h.norm.entered, h.norm.release = entered, release

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = b.Build(ctx, h.chatbot.ID)
	}()

	<-entered
	_, err := b.Build(ctx, h.chatbot.ID)
	assert.ErrorIs(t, err, domain.ErrBuildInProgress)

	close(release)
	wg.Wait()
	require.NoError(t, firstErr)

	list, err := h.snapshots.ListByChatbot(ctx, h.chatbot.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestNames(t *testing.T) {
	id := uuid.MustParse("0b7e6c1a-9f7d-4c2e-8a55-1f2b3c4d5e6f")
	assert.Equal(t, "kb_0b7e6c1a9f7d4c2e8a551f2b3c4d5e6f_v3", CollectionName(id, 3))
	assert.Equal(t, "faq_vdb_2", SnapshotName("faq", 2))
}

// flakySnapshots fails the next CreateActive
type flakySnapshots struct {
	*memory.SnapshotRepository
	failNext bool
}

func (s *flakySnapshots) CreateActive(ctx context.Context, snap *domain.Snapshot) error {
	if s.failNext {
		s.failNext = false
		return errors.New("database unavailable")
	}
	return s.SnapshotRepository.CreateActive(ctx, snap)
}

// stickyStores hands out handles whose collections cannot be dropped
type stickyStores struct {
	*vectorstore.Registry
}

type stickyHandle struct {
	vectorstore.Handle
}

func (s stickyStores) Open(ctx context.Context, raw string) (vectorstore.Handle, error) {
	h, err := s.Registry.Open(ctx, raw)
	if err != nil {
		return nil, err
	}
	return stickyHandle{h}, nil
}

func (stickyHandle) Drop(context.Context) error {
	return errors.New("backend timeout")
}

func TestBuilder_FailedBuildDoesNotLeakIntoNextVersion(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	kept := h.addDocument(t, "hours.txt", "The store opens at nine.")
	secret := h.addDocument(t, "secret.txt", "The vault code is 1234.")

	snapshots := &flakySnapshots{SnapshotRepository: h.snapshots, failNext: true}
	deps := h.deps(h.embedders)
	deps.Snapshots = snapshots
	deps.Stores = stickyStores{h.stores}
	b := NewBuilder(deps, h.options())

	_, err := b.Build(ctx, h.chatbot.ID)
	require.Error(t, err)
	assert.Equal(t, domain.DocumentStatusFailed, h.status(t, kept.ID))

	// The partial collection of version 1 is still there.
	leftover, err := h.stores.Open(ctx, snapshotLocator(h, 1))
	require.NoError(t, err)
	n, err := leftover.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.NoError(t, h.stores.Release(snapshotLocator(h, 1)))

	require.NoError(t, h.documents.Delete(ctx, secret.ID))
	_, err = h.documents.UpdateStatus(ctx, &domain.DocumentStatusUpdate{
		ChatbotID:   h.chatbot.ID,
		DocumentIDs: []uuid.UUID{kept.ID},
		From:        domain.DocumentStatusFailed,
		To:          domain.DocumentStatusProcessing,
	})
	require.NoError(t, err)

	snap, err := b.Build(ctx, h.chatbot.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Version)
	assert.Equal(t, "support_vdb_2", snap.Name)
	assert.Equal(t, 1, snap.ChunkCount)
	assert.Contains(t, snap.Locator, "collection="+CollectionName(h.chatbot.ID, 2))

	store, err := h.stores.Open(ctx, snap.Locator)
	require.NoError(t, err)
	n, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap.ChunkCount, n)
}

func TestBuilder_RefusesNonEmptyCollection(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.addDocument(t, "a.txt", "Alpha document text.")

	first, err := h.builder(t).Build(ctx, h.chatbot.ID)
	require.NoError(t, err)
	require.Equal(t, 1, first.Version)

	// A catalog that lost track of version 1 hands it out again.
	fresh := h.addDocument(t, "b.txt", "Beta document text.")
	deps := h.deps(h.embedders)
	deps.Snapshots = memory.NewSnapshotRepository()
	snap, err := NewBuilder(deps, h.options()).Build(ctx, h.chatbot.ID)
	assert.Nil(t, snap)
	assert.ErrorIs(t, err, domain.ErrRetrievalBackend)
	assert.Equal(t, domain.DocumentStatusFailed, h.status(t, fresh.ID))

	store, err := h.stores.Open(ctx, first.Locator)
	require.NoError(t, err)
	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func snapshotLocator(h *harness, version int) string {
	loc, err := vectorstore.ParseLocator(h.base)
	if err != nil {
		panic(err)
	}
	return loc.WithCollection(CollectionName(h.chatbot.ID, version)).String()
}
