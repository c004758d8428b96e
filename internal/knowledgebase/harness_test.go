package knowledgebase

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/domain"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/embedding"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/embedding/local"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/normalizer"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/repository/memory"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/vectorstore"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/vectorstore/chromem"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// stubNormalizer serves texts by path. Paths without an entry do not exist.
type stubNormalizer struct {
	mu    sync.Mutex
	texts map[string]string
	errs  map[string]error
	// entered and release gate the first Normalize call when set.
	entered chan struct{}
	release chan struct{}
}

func newStubNormalizer() *stubNormalizer {
	return &stubNormalizer{texts: map[string]string{}, errs: map[string]error{}}
}

func (n *stubNormalizer) Normalize(ctx context.Context, path string) (string, error) {
	n.mu.Lock()
	entered, release := n.entered, n.release
	n.entered, n.release = nil, nil
	text, ok := n.texts[path]
	err := n.errs[path]
	n.mu.Unlock()

	if entered != nil {
		close(entered)
		<-release
	}
	if err != nil {
		return "", err
	}
	if !ok {
		return "", &os.PathError{Op: "open", Path: path, Err: os.ErrNotExist}
	}
	return text, nil
}

// failingEmbedders hands out embedders that always fail.
type failingEmbedders struct{}

type failingEmbedder struct{}

func (failingEmbedders) Embedder(*domain.EmbeddingModel) (embedding.Embedder, error) {
	return failingEmbedder{}, nil
}

func (failingEmbedder) Embed(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("provider down")
}

func (failingEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	return nil, errors.New("provider down")
}

type harness struct {
	chatbots  *memory.ChatbotRepository
	models    *memory.ModelRepository
	documents *memory.DocumentRepository
	snapshots *memory.SnapshotRepository
	cache     *memory.SnapshotCache
	locker    *memory.BuildLocker
	norm      *stubNormalizer
	embedders *embedding.Router
	stores    *vectorstore.Registry
	chatbot   *domain.Chatbot
	// base is where every builder of this harness creates collections
	base string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()

	h := &harness{
		chatbots:  memory.NewChatbotRepository(),
		models:    memory.NewModelRepository(),
		documents: memory.NewDocumentRepository(),
		snapshots: memory.NewSnapshotRepository(),
		cache:     memory.NewSnapshotCache(),
		locker:    memory.NewBuildLocker(),
		norm:      newStubNormalizer(),
		embedders: embedding.NewRouter(embedding.Options{}),
		stores:    vectorstore.NewRegistry(5 * time.Second),
		base:      "chromem://" + t.TempDir(),
	}
	h.embedders.RegisterProvider(local.NewProvider())
	h.stores.Register("chromem", chromem.NewDatabases().NewStore)
	t.Cleanup(h.stores.CloseAll)

	em := &domain.EmbeddingModel{ID: uuid.New(), Provider: "local", ModelName: "hash-64"}
	require.NoError(t, h.models.CreateEmbeddingModel(ctx, em))
	lm := &domain.LanguageModel{ID: uuid.New(), Name: "llama3", Provider: "ollama", EmbeddingModelID: em.ID}
	require.NoError(t, h.models.CreateLanguageModel(ctx, lm))

	h.chatbot = &domain.Chatbot{
		ID:            uuid.New(),
		VendorID:      uuid.New(),
		Name:          "support",
		LLMID:         lm.ID,
		VectorBackend: "chromem",
		Mode:          domain.ChatbotModePublic,
		IsActive:      true,
		TokenLimit:    256,
		ContextLimit:  2048,
	}
	require.NoError(t, h.chatbots.Create(ctx, h.chatbot))
	return h
}

func (h *harness) builder(t *testing.T) *Builder {
	return h.builderWith(t, h.embedders)
}

func (h *harness) builderWith(t *testing.T, embedders embedding.Source) *Builder {
	t.Helper()
	return NewBuilder(h.deps(embedders), h.options())
}

func (h *harness) deps(embedders embedding.Source) Deps {
	return Deps{
		Chatbots:   h.chatbots,
		Models:     h.models,
		Documents:  h.documents,
		Snapshots:  h.snapshots,
		Cache:      h.cache,
		Locker:     h.locker,
		Normalizer: h.norm,
		Embedders:  embedders,
		Stores:     h.stores,
	}
}

func (h *harness) options() Options {
	return Options{
		ChunkSize:      200,
		ChunkOverlap:   20,
		BaseLocators:   map[string]string{"chromem": h.base},
		DefaultBackend: "chromem",
		Timeout:        time.Minute,
	}
}

// addDocument registers a processing document whose file normalizes to text.
func (h *harness) addDocument(t *testing.T, title, text string) *domain.Document {
	t.Helper()
	doc := &domain.Document{
		ID:        uuid.New(),
		ChatbotID: h.chatbot.ID,
		Title:     title,
		FilePath:  "/uploads/" + title,
		Status:    domain.DocumentStatusProcessing,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, h.documents.Create(context.Background(), doc))

	h.norm.mu.Lock()
	h.norm.texts[doc.FilePath] = text
	h.norm.mu.Unlock()
	return doc
}

func (h *harness) addUnreadable(t *testing.T, title string) *domain.Document {
	t.Helper()
	doc := h.addDocument(t, title, "")
	h.norm.mu.Lock()
	h.norm.errs[doc.FilePath] = normalizer.ErrUnreadable
	h.norm.mu.Unlock()
	return doc
}

func (h *harness) status(t *testing.T, id uuid.UUID) domain.DocumentStatus {
	t.Helper()
	doc, err := h.documents.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, doc)
	return doc.Status
}
