// Package access decides whether a requester may talk to a chatbot.
package access

import (
	"context"
	"fmt"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/domain"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/metrics"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/security"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Kind is the type of interaction being authorized
type Kind string

const (
	// KindAsk is a stateless single-turn question
	KindAsk Kind = "ask"
	// KindChat is a turn of a stored multi-turn session
	KindChat Kind = "chat"
)

// Gate authorizes conversational turns
type Gate struct {
	chatbots    domain.ChatbotRepository
	credentials domain.CredentialRepository
}

// NewGate creates a new access gate
func NewGate(chatbots domain.ChatbotRepository, credentials domain.CredentialRepository) *Gate {
	return &Gate{chatbots: chatbots, credentials: credentials}
}

// Authorize returns the chatbot when the requester may run a turn of kind
// against it. A nil requester is anonymous. Asks are open for any active
// chatbot; chats need an identity and, for private chatbots, an active
// credential for the requester, chatbot and vendor. A raw key presented
// with the request must match that credential.
func (g *Gate) Authorize(ctx context.Context, chatbotID uuid.UUID, kind Kind, requester *domain.Requester) (*domain.Chatbot, error) {
	chatbot, err := g.chatbots.GetByID(ctx, chatbotID)
	if err != nil {
		return nil, fmt.Errorf("failed to get chatbot: %w", err)
	}
	if chatbot == nil || !chatbot.IsActive {
		return nil, g.deny("not_found", fmt.Errorf("chatbot %s: %w", chatbotID, domain.ErrNotFound))
	}

	if kind == KindAsk {
		return chatbot, nil
	}

	if requester == nil {
		return nil, g.deny("anonymous", fmt.Errorf("%w: chat requires an identity", domain.ErrUnauthorized))
	}

	if chatbot.Mode != domain.ChatbotModePrivate {
		return chatbot, nil
	}

	cred, err := g.credentials.FindActive(ctx, requester.UserID, chatbot.ID, chatbot.VendorID)
	if err != nil {
		return nil, fmt.Errorf("failed to find credential: %w", err)
	}
	if cred == nil {
		return nil, g.deny("no_credential", fmt.Errorf("%w: no active credential for chatbot %s", domain.ErrUnauthorized, chatbotID))
	}
	if requester.APIKey != "" && !security.VerifyAPIKey(requester.APIKey, cred.KeyHash) {
		return nil, g.deny("key_mismatch", fmt.Errorf("%w: api key does not match credential", domain.ErrUnauthorized))
	}

	return chatbot, nil
}

func (g *Gate) deny(reason string, err error) error {
	metrics.AccessDenied.WithLabelValues(reason).Inc()
	log.Debug().Str("reason", reason).Err(err).Msg("access denied")
	return err
}
