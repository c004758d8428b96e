package conversation

import (
	"context"
	"fmt"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/domain"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/llm"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Generator produces the assistant reply for an assembled prompt
type Generator func(ctx context.Context, messages []llm.Message) (*llm.Response, error)

// Turn is one question in a session
type Turn struct {
	Ref      domain.SessionRef
	UserID   *uuid.UUID
	Sender   domain.SenderRole
	Question string
	// Context is the retrieved context; empty means no augmentation.
	Context      string
	SystemPrompt string
	// HistoryBudget caps the tokens of replayed history; zero keeps all.
	HistoryBudget int
}

// TurnResult is the outcome of a completed turn
type TurnResult struct {
	Session  *domain.ChatSession
	Response *llm.Response
	Question domain.Message
	Reply    domain.Message
	// HistoryMessages is how many prior messages the prompt replayed.
	HistoryMessages int
}

// Manager serializes turns per session and persists their messages
type Manager struct {
	sessions      domain.SessionRepository
	locks         *keyedMutex
	historyLimit  int
	defaultPrompt string
}

// NewManager creates a conversation manager. historyLimit bounds the
// messages loaded per turn; defaultPrompt is used for chatbots without one.
func NewManager(sessions domain.SessionRepository, historyLimit int, defaultPrompt string) *Manager {
	if defaultPrompt == "" {
		defaultPrompt = "You are a helpful assistant."
	}
	return &Manager{
		sessions:      sessions,
		locks:         newKeyedMutex(),
		historyLimit:  historyLimit,
		defaultPrompt: defaultPrompt,
	}
}

// Run executes a turn while holding the session's lock: it loads history,
// stores the question, generates and stores the reply. The question is
// stored before generation so a failed turn is repeated, never lost.
func (m *Manager) Run(ctx context.Context, turn Turn, generate Generator) (*TurnResult, error) {
	if !turn.Sender.Valid() || turn.Sender == domain.SenderChatbot {
		return nil, fmt.Errorf("%w: sender role %q cannot ask", domain.ErrInvalidInput, turn.Sender)
	}

	unlock := m.locks.Lock(turn.Ref.String())
	defer unlock()

	session, err := m.sessions.GetOrCreate(ctx, turn.Ref, turn.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}
	if !session.IsActive {
		return nil, fmt.Errorf("session %s: %w", turn.Ref.Key, domain.ErrNotFound)
	}

	history, err := m.sessions.ListMessages(ctx, session.ID, m.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	system := turn.SystemPrompt
	if system == "" {
		system = m.defaultPrompt
	}
	messages := AssemblePrompt(system, history, turn.Question, turn.Context, turn.HistoryBudget)

	question, err := m.appendTurn(ctx, session.ID, turn.Sender, turn.Question)
	if err != nil {
		return nil, err
	}

	resp, err := generate(ctx, messages)
	if err != nil {
		log.Warn().Err(err).
			Str("session", turn.Ref.String()).
			Int64("seq", question.Seq).
			Msg("generation failed after the question was stored")
		return nil, err
	}

	reply, err := m.appendTurn(ctx, session.ID, domain.SenderChatbot, resp.Content)
	if err != nil {
		return nil, err
	}

	return &TurnResult{
		Session:         session,
		Response:        resp,
		Question:        *question,
		Reply:           *reply,
		HistoryMessages: len(messages) - 2,
	}, nil
}

// AppendTurn stores one message in a session, serialized with running turns.
func (m *Manager) AppendTurn(ctx context.Context, ref domain.SessionRef, sender domain.SenderRole, content string) (*domain.Message, error) {
	if !sender.Valid() {
		return nil, fmt.Errorf("%w: sender role %q", domain.ErrInvalidInput, sender)
	}

	unlock := m.locks.Lock(ref.String())
	defer unlock()

	session, err := m.session(ctx, ref)
	if err != nil {
		return nil, err
	}
	return m.appendTurn(ctx, session.ID, sender, content)
}

func (m *Manager) appendTurn(ctx context.Context, sessionID uuid.UUID, sender domain.SenderRole, content string) (*domain.Message, error) {
	msg := &domain.Message{
		SenderRole: sender,
		Content:    content,
		TokenCount: llm.EstimateTokens(content),
	}
	if err := m.sessions.AppendMessage(ctx, sessionID, msg); err != nil {
		return nil, fmt.Errorf("failed to append message: %w", err)
	}
	return msg, nil
}

// History returns up to limit most recent messages of a session in order
func (m *Manager) History(ctx context.Context, ref domain.SessionRef, limit int) ([]domain.Message, error) {
	session, err := m.session(ctx, ref)
	if err != nil {
		return nil, err
	}
	msgs, err := m.sessions.ListMessages(ctx, session.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return msgs, nil
}

// Session returns a session by reference
func (m *Manager) Session(ctx context.Context, ref domain.SessionRef) (*domain.ChatSession, error) {
	return m.session(ctx, ref)
}

// Sessions lists a user's sessions with a chatbot, most recent first
func (m *Manager) Sessions(ctx context.Context, chatbotID, userID uuid.UUID, limit int) ([]domain.ChatSession, error) {
	sessions, err := m.sessions.ListByUser(ctx, chatbotID, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// Deactivate closes a session to further turns. Its history is kept.
func (m *Manager) Deactivate(ctx context.Context, ref domain.SessionRef) error {
	unlock := m.locks.Lock(ref.String())
	defer unlock()

	session, err := m.session(ctx, ref)
	if err != nil {
		return err
	}
	return m.sessions.Deactivate(ctx, session.ID)
}

func (m *Manager) session(ctx context.Context, ref domain.SessionRef) (*domain.ChatSession, error) {
	session, err := m.sessions.Get(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, fmt.Errorf("session %s: %w", ref.Key, domain.ErrNotFound)
	}
	return session, nil
}
