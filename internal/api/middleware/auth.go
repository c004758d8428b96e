package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/api/response"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/domain"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/security"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type contextKey string

const (
	RequesterKey contextKey = "requester"
)

// APIKeyHeader carries a chatbot access credential
const APIKeyHeader = "X-API-Key"

// UserProvisioner records identities the token issuer knows about
type UserProvisioner interface {
	Ensure(ctx context.Context, user *domain.User) error
}

// AuthMiddleware resolves the caller's identity from a bearer token. When a
// provisioner is set, the first request of each user stores its account row
// so chatbots, sessions and messages can reference it.
type AuthMiddleware struct {
	jwtManager *security.JWTManager
	users      UserProvisioner
	seen       sync.Map
}

// NewAuthMiddleware creates a new auth middleware. users may be nil.
func NewAuthMiddleware(jwtManager *security.JWTManager, users UserProvisioner) *AuthMiddleware {
	return &AuthMiddleware{jwtManager: jwtManager, users: users}
}

// Authenticate requires a valid bearer token
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			response.Unauthorized(w, "missing authorization header")
			return
		}

		requester, msg := m.resolve(authHeader)
		if requester == nil {
			response.Unauthorized(w, msg)
			return
		}
		if err := m.provision(r.Context(), requester); err != nil {
			log.Error().Err(err).Str("user_id", requester.UserID.String()).Msg("Failed to provision user")
			response.InternalError(w, "failed to resolve identity")
			return
		}
		requester.APIKey = r.Header.Get(APIKeyHeader)

		next.ServeHTTP(w, r.WithContext(WithRequester(r.Context(), requester)))
	})
}

// Optional resolves a bearer token when one is sent. Requests without one
// continue anonymously; a bad token is still rejected.
func (m *AuthMiddleware) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			next.ServeHTTP(w, r)
			return
		}

		requester, msg := m.resolve(authHeader)
		if requester == nil {
			response.Unauthorized(w, msg)
			return
		}
		if err := m.provision(r.Context(), requester); err != nil {
			log.Error().Err(err).Str("user_id", requester.UserID.String()).Msg("Failed to provision user")
			response.InternalError(w, "failed to resolve identity")
			return
		}
		requester.APIKey = r.Header.Get(APIKeyHeader)

		next.ServeHTTP(w, r.WithContext(WithRequester(r.Context(), requester)))
	})
}

func (m *AuthMiddleware) resolve(authHeader string) (*domain.Requester, string) {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return nil, "invalid authorization header format"
	}

	claims, err := m.jwtManager.ValidateAccessToken(parts[1])
	if err != nil {
		return nil, "invalid or expired token"
	}
	return claims.Requester(), ""
}

func (m *AuthMiddleware) provision(ctx context.Context, requester *domain.Requester) error {
	if m.users == nil {
		return nil
	}
	if _, ok := m.seen.Load(requester.UserID); ok {
		return nil
	}
	if err := m.users.Ensure(ctx, requester.User()); err != nil {
		return err
	}
	m.seen.Store(requester.UserID, struct{}{})
	return nil
}

// WithRequester returns ctx carrying the requester
func WithRequester(ctx context.Context, requester *domain.Requester) context.Context {
	return context.WithValue(ctx, RequesterKey, requester)
}

// GetRequester gets the resolved identity from context. Anonymous requests
// return nil.
func GetRequester(ctx context.Context) *domain.Requester {
	requester, _ := ctx.Value(RequesterKey).(*domain.Requester)
	return requester
}

// GetUserID gets the user ID from context
func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	requester := GetRequester(ctx)
	if requester == nil {
		return uuid.Nil, false
	}
	return requester.UserID, true
}
