package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/access"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/conversation"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/domain"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/knowledgebase"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/llm"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/metrics"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/retrieval"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Temperature is the sampling temperature for every answer
const Temperature = 0.7

// DefaultSessionLimit bounds session and message listings
const DefaultSessionLimit = 50

// Authorizer decides whether a requester may run a turn
type Authorizer interface {
	Authorize(ctx context.Context, chatbotID uuid.UUID, kind access.Kind, requester *domain.Requester) (*domain.Chatbot, error)
}

// SnapshotResolver finds a chatbot's active snapshot
type SnapshotResolver interface {
	Active(ctx context.Context, chatbotID uuid.UUID) (*domain.Snapshot, error)
}

// ContextRetriever searches a snapshot for question context
type ContextRetriever interface {
	Retrieve(ctx context.Context, question string, snap *domain.Snapshot, cfg *domain.EmbeddingModel, k int) (*retrieval.Result, error)
}

// ProviderSource resolves language model providers by name
type ProviderSource interface {
	GetProvider(name string) (llm.Provider, error)
}

// ChatOptions tunes retrieval for answers
type ChatOptions struct {
	TopK int
	// StrictRetrieval fails a turn when retrieval fails instead of answering
	// without context.
	StrictRetrieval bool
	DefaultPrompt   string
}

// ChatService answers questions against a chatbot's knowledge base
type ChatService struct {
	chatbots  domain.ChatbotRepository
	models    domain.ModelRepository
	gate      Authorizer
	resolver  SnapshotResolver
	retriever ContextRetriever
	providers ProviderSource
	manager   *conversation.Manager
	opts      ChatOptions
}

// NewChatService creates a new chat service
func NewChatService(
	chatbots domain.ChatbotRepository,
	models domain.ModelRepository,
	gate Authorizer,
	resolver SnapshotResolver,
	retriever ContextRetriever,
	providers ProviderSource,
	manager *conversation.Manager,
	opts ChatOptions,
) *ChatService {
	if opts.DefaultPrompt == "" {
		opts.DefaultPrompt = "You are a helpful assistant."
	}
	return &ChatService{
		chatbots:  chatbots,
		models:    models,
		gate:      gate,
		resolver:  resolver,
		retriever: retriever,
		providers: providers,
		manager:   manager,
		opts:      opts,
	}
}

// Ask answers a single question. Nothing is stored and no identity is needed.
func (s *ChatService) Ask(ctx context.Context, requester *domain.Requester, chatbotID uuid.UUID, req domain.AskRequest) (answer *domain.Answer, err error) {
	defer func() { metrics.ObserveTurn(string(access.KindAsk), err) }()

	if err := validateInput(req); err != nil {
		return nil, err
	}

	chatbot, err := s.gate.Authorize(ctx, chatbotID, access.KindAsk, requester)
	if err != nil {
		return nil, err
	}

	lm, provider, err := s.provider(ctx, chatbot)
	if err != nil {
		return nil, err
	}

	found, err := s.retrieve(ctx, chatbot, req.Question)
	if err != nil {
		return nil, err
	}

	system := chatbot.SystemPrompt
	if system == "" {
		system = s.opts.DefaultPrompt
	}
	messages := conversation.AssemblePrompt(system, nil, req.Question, found.result.Context, 0)

	resp, err := s.generator(provider, lm, chatbot)(ctx, messages)
	if err != nil {
		return nil, err
	}

	return found.answer(resp, lm, 0), nil
}

// Chat runs one turn of a stored session. An empty session ID starts a new
// session under a generated key.
func (s *ChatService) Chat(ctx context.Context, requester *domain.Requester, chatbotID uuid.UUID, req domain.ChatRequest) (answer *domain.Answer, err error) {
	defer func() { metrics.ObserveTurn(string(access.KindChat), err) }()

	if err := validateInput(req); err != nil {
		return nil, err
	}

	chatbot, err := s.gate.Authorize(ctx, chatbotID, access.KindChat, requester)
	if err != nil {
		return nil, err
	}

	key := req.SessionID
	if key == "" {
		key = uuid.New().String()
	}
	ref := domain.SessionRef{ChatbotID: chatbot.ID, Key: key}

	if existing, err := s.manager.Session(ctx, ref); err == nil {
		if existing.UserID == nil || *existing.UserID != requester.UserID {
			return nil, fmt.Errorf("session %s: %w", key, domain.ErrNotFound)
		}
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	lm, provider, err := s.provider(ctx, chatbot)
	if err != nil {
		return nil, err
	}

	found, err := s.retrieve(ctx, chatbot, req.Question)
	if err != nil {
		return nil, err
	}

	budget := chatbot.ContextLimit
	if budget <= 0 {
		budget = lm.DefaultContextLimit
	}

	userID := requester.UserID
	result, err := s.manager.Run(ctx, conversation.Turn{
		Ref:           ref,
		UserID:        &userID,
		Sender:        requester.SenderRole(),
		Question:      req.Question,
		Context:       found.result.Context,
		SystemPrompt:  chatbot.SystemPrompt,
		HistoryBudget: budget,
	}, s.generator(provider, lm, chatbot))
	if err != nil {
		return nil, err
	}

	answer = found.answer(result.Response, lm, result.HistoryMessages)
	answer.SessionID = key
	return answer, nil
}

// Sessions lists the requester's sessions with a chatbot, newest first
func (s *ChatService) Sessions(ctx context.Context, requester *domain.Requester, chatbotID uuid.UUID, limit int) ([]domain.ChatSession, error) {
	chatbot, _, err := s.sessionChatbot(ctx, requester, chatbotID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > DefaultSessionLimit {
		limit = DefaultSessionLimit
	}
	return s.manager.Sessions(ctx, chatbot.ID, requester.UserID, limit)
}

// Messages returns a session's most recent messages in order. Chatbot
// managers may read any session; other requesters only their own.
func (s *ChatService) Messages(ctx context.Context, requester *domain.Requester, chatbotID uuid.UUID, key string, limit int) ([]domain.Message, error) {
	chatbot, manager, err := s.sessionChatbot(ctx, requester, chatbotID)
	if err != nil {
		return nil, err
	}
	ref := domain.SessionRef{ChatbotID: chatbot.ID, Key: key}
	if err := s.checkOwner(ctx, ref, requester, manager); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > DefaultSessionLimit {
		limit = DefaultSessionLimit
	}
	return s.manager.History(ctx, ref, limit)
}

// DeactivateSession closes a session. Later turns on it fail with ErrNotFound.
func (s *ChatService) DeactivateSession(ctx context.Context, requester *domain.Requester, chatbotID uuid.UUID, key string) error {
	chatbot, manager, err := s.sessionChatbot(ctx, requester, chatbotID)
	if err != nil {
		return err
	}
	ref := domain.SessionRef{ChatbotID: chatbot.ID, Key: key}
	if err := s.checkOwner(ctx, ref, requester, manager); err != nil {
		return err
	}
	return s.manager.Deactivate(ctx, ref)
}

// sessionChatbot authorizes session reads: anyone allowed to chat, or a
// manager of the chatbot. The flag reports the latter.
func (s *ChatService) sessionChatbot(ctx context.Context, requester *domain.Requester, chatbotID uuid.UUID) (*domain.Chatbot, bool, error) {
	chatbot, err := s.gate.Authorize(ctx, chatbotID, access.KindChat, requester)
	if err == nil {
		return chatbot, false, nil
	}
	if requester == nil || !errors.Is(err, domain.ErrUnauthorized) {
		return nil, false, err
	}
	chatbot, merr := managedChatbot(ctx, s.chatbots, chatbotID, requester)
	if merr != nil {
		return nil, false, err
	}
	return chatbot, true, nil
}

// checkOwner hides sessions of other users behind ErrNotFound
func (s *ChatService) checkOwner(ctx context.Context, ref domain.SessionRef, requester *domain.Requester, manager bool) error {
	session, err := s.manager.Session(ctx, ref)
	if err != nil {
		return err
	}
	if manager {
		return nil
	}
	if session.UserID == nil || *session.UserID != requester.UserID {
		return fmt.Errorf("session %s: %w", ref.Key, domain.ErrNotFound)
	}
	return nil
}

func (s *ChatService) provider(ctx context.Context, chatbot *domain.Chatbot) (*domain.LanguageModel, llm.Provider, error) {
	lm, err := s.models.GetLanguageModel(ctx, chatbot.LLMID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get language model: %w", err)
	}
	if lm == nil {
		return nil, nil, fmt.Errorf("language model %s: %w", chatbot.LLMID, domain.ErrNotFound)
	}
	provider, err := s.providers.GetProvider(lm.Provider)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get LLM provider: %w", err)
	}
	return lm, provider, nil
}

func (s *ChatService) generator(provider llm.Provider, lm *domain.LanguageModel, chatbot *domain.Chatbot) conversation.Generator {
	maxTokens := chatbot.TokenLimit
	if maxTokens <= 0 {
		maxTokens = lm.DefaultTokenLimit
	}
	return func(ctx context.Context, messages []llm.Message) (*llm.Response, error) {
		resp, err := provider.Generate(ctx, llm.Request{
			Messages:    messages,
			Model:       lm.Name,
			MaxTokens:   maxTokens,
			Temperature: Temperature,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to generate answer: %w", err)
		}
		return resp, nil
	}
}

// retrieved is the context found for one turn
type retrieved struct {
	result   *retrieval.Result
	snapshot *domain.Snapshot
	degraded bool
	took     time.Duration
}

// retrieve looks up context in the active snapshot. A chatbot without a
// snapshot gets no context. Failures degrade to no context unless retrieval
// is strict.
func (s *ChatService) retrieve(ctx context.Context, chatbot *domain.Chatbot, question string) (*retrieved, error) {
	started := time.Now()
	found := &retrieved{result: &retrieval.Result{}}

	err := func() error {
		snap, err := s.resolver.Active(ctx, chatbot.ID)
		if err != nil || snap == nil {
			return err
		}
		found.snapshot = snap

		cfg, err := knowledgebase.EmbeddingConfig(ctx, s.models, chatbot)
		if err != nil {
			return err
		}
		result, err := s.retriever.Retrieve(ctx, question, snap, cfg, s.opts.TopK)
		if err != nil {
			return err
		}
		found.result = result
		return nil
	}()
	found.took = time.Since(started)

	if err == nil {
		return found, nil
	}
	if s.opts.StrictRetrieval {
		metrics.RetrievalFailures.WithLabelValues("strict").Inc()
		return nil, err
	}

	metrics.RetrievalFailures.WithLabelValues("degraded").Inc()
	log.Warn().Err(err).
		Str("chatbot_id", chatbot.ID.String()).
		Msg("Retrieval failed, answering without context")
	found.result = &retrieval.Result{}
	found.degraded = true
	return found, nil
}

func (r *retrieved) answer(resp *llm.Response, lm *domain.LanguageModel, historyMessages int) *domain.Answer {
	answer := &domain.Answer{
		Answer:   resp.Content,
		Context:  r.result.Context,
		Sources:  r.result.Sources,
		Degraded: r.degraded,
		Metadata: &domain.AnswerMetadata{
			LLMProvider:     lm.Provider,
			LLMModel:        resp.Model,
			RetrievalMs:     r.took.Milliseconds(),
			LLMLatencyMs:    resp.LatencyMs,
			TokensUsed:      resp.TokensUsed,
			HistoryMessages: historyMessages,
		},
	}
	if answer.Sources == nil {
		answer.Sources = []domain.Source{}
	}
	if r.snapshot != nil {
		id := r.snapshot.ID
		answer.SnapshotID = &id
	}
	return answer
}
