// Package app wires configuration into repositories, providers and services.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/access"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/api"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/api/handler"
	customMiddleware "github.com/BS-XR-23/chatbotInventoryPlatform/internal/api/middleware"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/config"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/conversation"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/domain"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/embedding"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/embedding/fastembed"
	embedGemini "github.com/BS-XR-23/chatbotInventoryPlatform/internal/embedding/gemini"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/embedding/local"
	embedOllama "github.com/BS-XR-23/chatbotInventoryPlatform/internal/embedding/ollama"
	embedOpenAI "github.com/BS-XR-23/chatbotInventoryPlatform/internal/embedding/openai"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/knowledgebase"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/llm"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/llm/anthropic"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/llm/deepseek"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/llm/gemini"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/llm/ollama"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/llm/openai"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/normalizer"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/repository/memory"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/repository/postgres"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/repository/redis"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/retrieval"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/security"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/service"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/vectorstore"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/vectorstore/chromem"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/vectorstore/mongodb"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/vectorstore/mysql"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/vectorstore/pgvector"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/vectorstore/qdrant"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/vectorstore/sqlite"
	"github.com/rs/zerolog/log"
)

// Repositories are the catalog stores, backed by Postgres or memory
type Repositories struct {
	Users       domain.UserRepository
	Chatbots    domain.ChatbotRepository
	Models      domain.ModelRepository
	Documents   domain.DocumentRepository
	Credentials domain.CredentialRepository
	Sessions    domain.SessionRepository
	Snapshots   domain.SnapshotRepository
}

// Coordination holds the state shared between replicas, backed by Redis or
// memory. Limiter is nil when rate limiting is off.
type Coordination struct {
	Cache   domain.SnapshotCache
	Locker  domain.BuildLocker
	Jobs    domain.BuildJobStore
	Limiter customMiddleware.Limiter
}

// App is the assembled application
type App struct {
	Config       *config.Config
	Repos        Repositories
	Coordination Coordination
	JWT          *security.JWTManager
	LLM          *llm.Router
	Embedders    *embedding.Router
	Stores       *vectorstore.Registry
	Builder      *knowledgebase.Builder
	Worker       *knowledgebase.Worker
	Resolver     *retrieval.Resolver
	Services     api.Services

	db        *postgres.DB
	redis     *redis.Client
	fastembed *fastembed.Provider
}

// New connects the configured backends and builds every service
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	cipher, err := newCipher(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	if err := a.openRepositories(ctx, cipher); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.openCoordination(ctx, cipher); err != nil {
		a.Close()
		return nil, err
	}

	a.JWT = security.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL)
	a.LLM = a.newLLMRouter()
	a.Embedders = a.newEmbeddingRouter()
	a.Stores = newStoreRegistry(cfg.VectorStore)

	files := normalizer.New()
	a.Builder = knowledgebase.NewBuilder(knowledgebase.Deps{
		Chatbots:   a.Repos.Chatbots,
		Models:     a.Repos.Models,
		Documents:  a.Repos.Documents,
		Snapshots:  a.Repos.Snapshots,
		Cache:      a.Coordination.Cache,
		Locker:     a.Coordination.Locker,
		Normalizer: files,
		Embedders:  a.Embedders,
		Stores:     a.Stores,
	}, knowledgebase.Options{
		ChunkSize:      cfg.KnowledgeBase.ChunkSize,
		ChunkOverlap:   cfg.KnowledgeBase.ChunkOverlap,
		BaseLocators:   cfg.VectorStore.Backends,
		DefaultBackend: cfg.VectorStore.DefaultBackend,
		Timeout:        cfg.KnowledgeBase.BuildTimeout,
	})
	a.Worker = knowledgebase.NewWorker(a.Builder, a.Coordination.Jobs, cfg.KnowledgeBase.Workers, cfg.KnowledgeBase.QueueSize)
	a.Resolver = retrieval.NewResolver(a.Repos.Snapshots, a.Coordination.Cache)

	retriever := retrieval.NewRetriever(a.Stores, a.Embedders)
	gate := access.NewGate(a.Repos.Chatbots, a.Repos.Credentials)
	manager := conversation.NewManager(a.Repos.Sessions, cfg.Conversation.HistoryLimit, cfg.Conversation.DefaultSystemPrompt)

	a.Services = api.Services{
		Chatbots: service.NewChatbotService(a.Repos.Chatbots, a.Repos.Models, cfg.VectorStore.DefaultBackend),
		Documents: service.NewDocumentService(
			a.Repos.Chatbots,
			a.Repos.Documents,
			files,
			a.Worker,
			cfg.KnowledgeBase.UploadDir,
			cfg.KnowledgeBase.BuildOnUpload,
		),
		Knowledge: service.NewKnowledgeService(
			a.Repos.Chatbots,
			a.Repos.Snapshots,
			a.Builder,
			a.Worker,
			a.Resolver,
			cfg.KnowledgeBase.Async,
		),
		Chat: service.NewChatService(
			a.Repos.Chatbots,
			a.Repos.Models,
			gate,
			a.Resolver,
			retriever,
			a.LLM,
			manager,
			service.ChatOptions{
				TopK:            cfg.KnowledgeBase.TopK,
				StrictRetrieval: cfg.Conversation.StrictRetrieval,
				DefaultPrompt:   cfg.Conversation.DefaultSystemPrompt,
			},
		),
		Credential: service.NewCredentialService(a.Repos.Chatbots, a.Repos.Users, a.Repos.Credentials),
	}

	log.Info().
		Str("database", cfg.Database.Driver).
		Bool("redis", a.redis != nil).
		Strs("llm_providers", a.LLM.ListProviders()).
		Strs("embedding_providers", a.Embedders.ListProviders()).
		Strs("vector_backends", a.Stores.Schemes()).
		Msg("application initialized")

	return a, nil
}

// Handler builds the HTTP router
func (a *App) Handler() http.Handler {
	ready := map[string]handler.Pinger{}
	if a.db != nil {
		ready["postgres"] = a.db
	}
	if a.redis != nil {
		ready["redis"] = a.redis
	}

	metricsPath := ""
	if a.Config.Metrics.Enabled {
		metricsPath = a.Config.Metrics.Path
	}

	return api.NewRouter(a.Services, api.Options{
		JWTManager:        a.JWT,
		Users:             a.Repos.Users,
		RateLimiter:       a.Coordination.Limiter,
		LLMRouter:         a.LLM,
		Ready:             ready,
		MiddlewareTimeout: a.Config.Server.MiddlewareTimeout,
		MaxUploadSize:     a.Config.Server.MaxUploadSize,
		MetricsPath:       metricsPath,
	})
}

// Start launches the background build workers when builds are queued
func (a *App) Start(ctx context.Context) {
	if a.Config.KnowledgeBase.Async || a.Config.KnowledgeBase.BuildOnUpload {
		a.Worker.Start(ctx)
	}
}

// Close stops the workers and releases every connection
func (a *App) Close() {
	if a.Worker != nil {
		a.Worker.Stop()
	}
	if a.Stores != nil {
		a.Stores.CloseAll()
	}
	if a.fastembed != nil {
		if err := a.fastembed.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close fastembed")
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close redis")
		}
	}
	if a.db != nil {
		a.db.Close()
	}
}

// newCipher seals snapshot locators at rest. Without an explicit key one is
// derived from the JWT secret.
func newCipher(cfg *config.Config) (*security.Encryptor, error) {
	if cfg.Security.EncryptionKey != "" {
		enc, err := security.NewEncryptorFromBase64(cfg.Security.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create encryptor: %w", err)
		}
		return enc, nil
	}

	log.Warn().Msg("security.encryption_key is empty, deriving locator key from the JWT secret")
	key := []byte(cfg.Auth.JWTSecret)
	if len(key) > 32 {
		key = key[:32]
	} else if len(key) < 32 {
		padded := make([]byte, 32)
		copy(padded, key)
		key = padded
	}
	return security.NewEncryptor(key)
}

func (a *App) openRepositories(ctx context.Context, cipher *security.Encryptor) error {
	if a.Config.Database.Driver == "memory" {
		log.Warn().Msg("using in-memory catalog, data is lost on exit")
		a.Repos = Repositories{
			Users:       memory.NewUserRepository(),
			Chatbots:    memory.NewChatbotRepository(),
			Models:      memory.NewModelRepository(),
			Documents:   memory.NewDocumentRepository(),
			Credentials: memory.NewCredentialRepository(),
			Sessions:    memory.NewSessionRepository(),
			Snapshots:   memory.NewSnapshotRepository(),
		}
		return nil
	}

	db, err := postgres.NewDB(ctx, a.Config.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	a.db = db
	a.Repos = Repositories{
		Users:       postgres.NewUserRepository(db),
		Chatbots:    postgres.NewChatbotRepository(db),
		Models:      postgres.NewModelRepository(db),
		Documents:   postgres.NewDocumentRepository(db),
		Credentials: postgres.NewCredentialRepository(db),
		Sessions:    postgres.NewSessionRepository(db),
		Snapshots:   postgres.NewSnapshotRepository(db, cipher),
	}
	return nil
}

func (a *App) openCoordination(ctx context.Context, cipher *security.Encryptor) error {
	kb := a.Config.KnowledgeBase
	if !a.Config.Redis.Enabled {
		log.Warn().Msg("redis disabled, build coordination is process-local and rate limiting is off")
		a.Coordination = Coordination{
			Cache:  memory.NewSnapshotCache(),
			Locker: memory.NewBuildLocker(),
			Jobs:   memory.NewBuildJobStore(),
		}
		return nil
	}

	client, err := redis.NewClient(ctx, a.Config.Redis)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	a.redis = client
	a.Coordination = Coordination{
		Cache:   redis.NewSnapshotCache(client, cipher),
		Locker:  redis.NewBuildLocker(client, kb.LockTTL),
		Jobs:    redis.NewBuildJobStore(client, kb.JobTTL),
		Limiter: redis.NewRateLimiter(client, a.Config.Security.RateLimit.RequestsPerMinute, a.Config.Security.RateLimit.Burst),
	}
	return nil
}

func (a *App) newLLMRouter() *llm.Router {
	cfg := a.Config.LLM
	router := llm.NewRouter(cfg.DefaultProvider)

	log.Info().Msgf("Initializing LLM providers. Default: %s", cfg.DefaultProvider)
	if cfg.Ollama.Host != "" {
		router.RegisterProvider(ollama.NewProvider(cfg.Ollama.Host, cfg.Ollama.DefaultModel))
	}
	if cfg.OpenAI.APIKey != "" {
		router.RegisterProvider(openai.NewProvider(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL))
	}
	if cfg.Anthropic.APIKey != "" {
		router.RegisterProvider(anthropic.NewProvider(cfg.Anthropic.APIKey, cfg.Anthropic.Model))
	}
	if cfg.DeepSeek.APIKey != "" {
		router.RegisterProvider(deepseek.NewProvider(cfg.DeepSeek.APIKey, cfg.DeepSeek.Model))
	}
	if cfg.Gemini.APIKey != "" {
		router.RegisterProvider(gemini.NewProvider(cfg.Gemini))
	} else {
		log.Debug().Msg("Gemini API key is empty, skipping registration")
	}
	return router
}

func (a *App) newEmbeddingRouter() *embedding.Router {
	cfg := a.Config.Embedding
	router := embedding.NewRouter(embedding.Options{
		Timeout:   cfg.Timeout,
		BatchSize: cfg.BatchSize,
		RateLimit: cfg.RateLimit,
		RateBurst: cfg.RateBurst,
	})

	router.RegisterProvider(local.NewProvider())
	if cfg.Ollama.Host != "" {
		router.RegisterProvider(embedOllama.NewProvider(cfg.Ollama.Host, cfg.Ollama.DefaultModel))
	}
	if cfg.OpenAI.APIKey != "" {
		router.RegisterProvider(embedOpenAI.NewProvider(cfg.OpenAI))
	}
	if cfg.Gemini.APIKey != "" {
		router.RegisterProvider(embedGemini.NewProvider(cfg.Gemini))
	}
	if cfg.FastEmbed.Enabled {
		a.fastembed = fastembed.NewProvider(cfg.FastEmbed)
		router.RegisterProvider(a.fastembed)
	}
	return router
}

func newStoreRegistry(cfg config.VectorStoreConfig) *vectorstore.Registry {
	registry := vectorstore.NewRegistry(cfg.Timeout)
	registry.Register("chromem", chromem.NewDatabases().NewStore)
	registry.Register("sqlite", sqlite.NewStore)
	registry.Register("qdrant", qdrant.NewStore)
	registry.Register("pgvector", pgvector.NewStore)
	registry.Register("mongodb", mongodb.NewStore)
	registry.Register("mysql", mysql.NewStore)
	return registry
}
