package api

import (
	"net/http"
	"time"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/api/handler"
	customMiddleware "github.com/BS-XR-23/chatbotInventoryPlatform/internal/api/middleware"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/llm"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/security"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Services are the application services the router exposes
type Services struct {
	Chatbots   *service.ChatbotService
	Documents  *service.DocumentService
	Knowledge  *service.KnowledgeService
	Chat       *service.ChatService
	Credential *service.CredentialService
}

// Options configures the router
type Options struct {
	JWTManager        *security.JWTManager
	Users             customMiddleware.UserProvisioner
	RateLimiter       customMiddleware.Limiter
	LLMRouter         *llm.Router
	Ready             map[string]handler.Pinger
	MiddlewareTimeout time.Duration
	MaxUploadSize     int64
	MetricsPath       string
}

// NewRouter creates and configures the HTTP router
func NewRouter(svc Services, opts Options) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)
	if opts.MiddlewareTimeout > 0 {
		r.Use(middleware.Timeout(opts.MiddlewareTimeout))
	}

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", customMiddleware.APIKeyHeader},
		ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	chatbotHandler := handler.NewChatbotHandler(svc.Chatbots)
	documentHandler := handler.NewDocumentHandler(svc.Documents, opts.MaxUploadSize)
	knowledgeHandler := handler.NewKnowledgeHandler(svc.Knowledge)
	chatHandler := handler.NewChatHandler(svc.Chat)
	credentialHandler := handler.NewCredentialHandler(svc.Credential)

	authMiddleware := customMiddleware.NewAuthMiddleware(opts.JWTManager, opts.Users)
	limit := func(next http.Handler) http.Handler { return next }
	if opts.RateLimiter != nil {
		limit = customMiddleware.NewRateLimitMiddleware(opts.RateLimiter).Limit
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", handler.HealthCheck)
		r.Get("/ready", handler.ReadyCheck(opts.Ready))
		if opts.MetricsPath != "" {
			r.Handle(opts.MetricsPath, promhttp.Handler())
		}

		// Conversational routes: identity is optional here and enforced by
		// the access gate, which tells anonymous asks from chats.
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Optional)
			r.Use(limit)

			r.Post("/chatbots/{chatbotID}/ask", chatHandler.Ask)
			r.Post("/chatbots/{chatbotID}/chat", chatHandler.Chat)
		})

		// Management routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			if opts.LLMRouter != nil {
				r.Get("/llm-providers", handler.ListLLMProviders(opts.LLMRouter))
			}
			r.Post("/embedding-models", chatbotHandler.CreateEmbeddingModel)
			r.Post("/language-models", chatbotHandler.CreateLanguageModel)

			r.Get("/chatbots", chatbotHandler.List)
			r.Post("/chatbots", chatbotHandler.Create)
			r.Get("/chatbots/{chatbotID}", chatbotHandler.Get)
			r.Patch("/chatbots/{chatbotID}", chatbotHandler.Update)

			r.Get("/chatbots/{chatbotID}/documents", documentHandler.List)
			r.Post("/chatbots/{chatbotID}/documents", documentHandler.Upload)

			r.Post("/chatbots/{chatbotID}/knowledge-base", knowledgeHandler.Build)
			r.Get("/chatbots/{chatbotID}/snapshots", knowledgeHandler.ListSnapshots)

			r.Post("/chatbots/{chatbotID}/credentials", credentialHandler.Issue)

			r.Get("/chatbots/{chatbotID}/sessions", chatHandler.ListSessions)
			r.Get("/chatbots/{chatbotID}/sessions/{sessionID}/messages", chatHandler.ListMessages)
			r.Delete("/chatbots/{chatbotID}/sessions/{sessionID}", chatHandler.DeactivateSession)

			r.Post("/documents/{documentID}/reprocess", documentHandler.Reprocess)
			r.Delete("/documents/{documentID}", documentHandler.Delete)

			r.Get("/knowledge-base/jobs/{jobID}", knowledgeHandler.JobStatus)
			r.Post("/snapshots/{snapshotID}/activate", knowledgeHandler.Activate)

			r.Post("/credentials/{credentialID}/revoke", credentialHandler.Revoke)
		})
	})

	return r
}
