package domain

import (
	"github.com/google/uuid"
)

// AskRequest represents a single-turn question
type AskRequest struct {
	Question string `json:"question" validate:"required,max=4000"`
}

// ChatRequest represents a multi-turn question. An empty SessionID starts a new session.
type ChatRequest struct {
	SessionID string `json:"session_id" validate:"omitempty,max=128"`
	Question  string `json:"question" validate:"required,max=4000"`
}

// Source is the provenance of one retrieved chunk
type Source struct {
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title,omitempty"`
	ChunkIndex int     `json:"chunk_index"`
	Score      float32 `json:"score"`
}

// Answer is the result of an ask or chat turn
type Answer struct {
	Answer     string          `json:"answer"`
	SessionID  string          `json:"session_id,omitempty"`
	Context    string          `json:"-"`
	Sources    []Source        `json:"sources"`
	Degraded   bool            `json:"degraded,omitempty"`
	SnapshotID *uuid.UUID      `json:"snapshot_id,omitempty"`
	Metadata   *AnswerMetadata `json:"metadata"`
}

// AnswerMetadata contains generation metadata
type AnswerMetadata struct {
	LLMProvider     string `json:"llm_provider"`
	LLMModel        string `json:"llm_model"`
	RetrievalMs     int64  `json:"retrieval_ms"`
	LLMLatencyMs    int64  `json:"llm_latency_ms"`
	TokensUsed      int    `json:"tokens_used"`
	HistoryMessages int    `json:"history_messages"`
}
