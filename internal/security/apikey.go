package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// APIKeyPrefix marks raw chatbot access keys.
const APIKeyPrefix = "cbk_"

// displayPrefixLen is how much of a key is stored in clear for identification.
const displayPrefixLen = 12

// APIKey is a freshly generated access key. Raw is shown to the caller once;
// only Hash is stored.
type APIKey struct {
	Raw    string
	Prefix string
	Hash   string
}

// GenerateAPIKey creates a random key and its bcrypt hash
func GenerateAPIKey() (*APIKey, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("failed to generate api key: %w", err)
	}

	raw := APIKeyPrefix + base64.RawURLEncoding.EncodeToString(buf)
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash api key: %w", err)
	}

	return &APIKey{Raw: raw, Prefix: raw[:displayPrefixLen], Hash: string(hash)}, nil
}

// VerifyAPIKey reports whether raw matches the stored hash
func VerifyAPIKey(raw, hash string) bool {
	if !strings.HasPrefix(raw, APIKeyPrefix) {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw)) == nil
}
