package domain

import "errors"

// Error taxonomy shared by every layer. Wrap with fmt.Errorf("%w: ...") and
// match with errors.Is.
var (
	// ErrNotFound is returned when a chatbot, document, model or session is absent or inactive.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized is returned for anonymous multi-turn requests and missing or revoked credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUnsupportedBackend is returned for malformed locators and unknown locator schemes.
	ErrUnsupportedBackend = errors.New("unsupported vector store backend")

	// ErrEmbeddingProvider is returned when an embedding call fails or returns malformed vectors.
	ErrEmbeddingProvider = errors.New("embedding provider error")

	// ErrCorpusEmpty is returned when a build has no indexable text.
	ErrCorpusEmpty = errors.New("corpus is empty")

	// ErrRetrievalBackend is returned when a search against an existing snapshot fails.
	ErrRetrievalBackend = errors.New("retrieval backend error")

	// ErrBuildInProgress is returned when another build holds the chatbot's build lock.
	ErrBuildInProgress = errors.New("knowledge base build already in progress")

	// ErrInvalidTransition is returned for document status changes the lifecycle forbids.
	ErrInvalidTransition = errors.New("invalid document status transition")

	// ErrInvalidInput is returned for requests that fail validation.
	ErrInvalidInput = errors.New("invalid input")
)
