package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// FormatChecker reports whether a file's format can be normalized
type FormatChecker interface {
	Supported(path string) bool
}

// UploadResult is a stored document and, when builds run on upload, the
// build job it triggered
type UploadResult struct {
	Document *domain.Document `json:"document"`
	Job      *domain.BuildJob `json:"job,omitempty"`
}

// DocumentService manages a chatbot's source documents
type DocumentService struct {
	chatbots      domain.ChatbotRepository
	documents     domain.DocumentRepository
	formats       FormatChecker
	queue         BuildQueue
	uploadDir     string
	buildOnUpload bool
}

// NewDocumentService creates a new document service
func NewDocumentService(
	chatbots domain.ChatbotRepository,
	documents domain.DocumentRepository,
	formats FormatChecker,
	queue BuildQueue,
	uploadDir string,
	buildOnUpload bool,
) *DocumentService {
	return &DocumentService{
		chatbots:      chatbots,
		documents:     documents,
		formats:       formats,
		queue:         queue,
		uploadDir:     uploadDir,
		buildOnUpload: buildOnUpload,
	}
}

// Upload stores content as a new processing document of the chatbot
func (s *DocumentService) Upload(ctx context.Context, requester *domain.Requester, chatbotID uuid.UUID, filename string, content io.Reader) (*UploadResult, error) {
	if _, err := managedChatbot(ctx, s.chatbots, chatbotID, requester); err != nil {
		return nil, err
	}

	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		return nil, fmt.Errorf("%w: file name is required", domain.ErrInvalidInput)
	}
	if !s.formats.Supported(base) {
		return nil, fmt.Errorf("%w: unsupported file type %q", domain.ErrInvalidInput, filepath.Ext(base))
	}

	dir := filepath.Join(s.uploadDir, chatbotID.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	id := uuid.New()
	path := filepath.Join(dir, id.String()+"_"+base)
	if err := writeUpload(path, content); err != nil {
		return nil, err
	}

	now := time.Now()
	doc := &domain.Document{
		ID:        id,
		ChatbotID: chatbotID,
		Title:     base,
		FilePath:  path,
		Status:    domain.DocumentStatusProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.documents.Create(ctx, doc); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	log.Info().
		Str("chatbot_id", chatbotID.String()).
		Str("document_id", id.String()).
		Str("title", base).
		Msg("Document uploaded")

	return &UploadResult{Document: doc, Job: s.enqueue(ctx, chatbotID)}, nil
}

func writeUpload(path string, content io.Reader) error {
	dst, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(dst, content); err != nil {
		dst.Close()
		os.Remove(path)
		return fmt.Errorf("failed to save file: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("failed to save file: %w", err)
	}
	return nil
}

// List returns the chatbot's documents
func (s *DocumentService) List(ctx context.Context, requester *domain.Requester, chatbotID uuid.UUID) ([]domain.Document, error) {
	if _, err := managedChatbot(ctx, s.chatbots, chatbotID, requester); err != nil {
		return nil, err
	}
	docs, err := s.documents.ListByChatbot(ctx, chatbotID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, nil
}

// Reprocess moves an embedded or failed document back to processing so the
// next build reads it again
func (s *DocumentService) Reprocess(ctx context.Context, requester *domain.Requester, documentID uuid.UUID) (*UploadResult, error) {
	doc, err := s.managedDocument(ctx, requester, documentID)
	if err != nil {
		return nil, err
	}

	from := doc.Status
	if err := doc.Transition(domain.DocumentStatusProcessing); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}

	update := &domain.DocumentStatusUpdate{
		ChatbotID:   doc.ChatbotID,
		DocumentIDs: []uuid.UUID{doc.ID},
		From:        from,
		To:          domain.DocumentStatusProcessing,
	}
	n, err := s.documents.UpdateStatus(ctx, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update document status: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: document %s changed status concurrently", domain.ErrBuildInProgress, doc.ID)
	}
	doc.UpdatedAt = time.Now()

	return &UploadResult{Document: doc, Job: s.enqueue(ctx, doc.ChatbotID)}, nil
}

// Delete removes the document row and its file. Snapshots built from the
// document are kept.
func (s *DocumentService) Delete(ctx context.Context, requester *domain.Requester, documentID uuid.UUID) error {
	doc, err := s.managedDocument(ctx, requester, documentID)
	if err != nil {
		return err
	}

	if err := s.documents.Delete(ctx, doc.ID); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if err := os.Remove(doc.FilePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Str("document_id", doc.ID.String()).Msg("Failed to remove document file")
	}
	return nil
}

func (s *DocumentService) managedDocument(ctx context.Context, requester *domain.Requester, documentID uuid.UUID) (*domain.Document, error) {
	if requester == nil {
		return nil, fmt.Errorf("%w: authentication required", domain.ErrUnauthorized)
	}
	doc, err := s.documents.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("document %s: %w", documentID, domain.ErrNotFound)
	}
	if _, err := managedChatbot(ctx, s.chatbots, doc.ChatbotID, requester); err != nil {
		return nil, err
	}
	return doc, nil
}

// enqueue starts a background build when builds run on upload. A failed
// submit leaves the document processing for the next explicit build.
func (s *DocumentService) enqueue(ctx context.Context, chatbotID uuid.UUID) *domain.BuildJob {
	if !s.buildOnUpload || s.queue == nil {
		return nil
	}
	job, err := s.queue.Submit(ctx, chatbotID)
	if err != nil {
		log.Warn().Err(err).Str("chatbot_id", chatbotID.String()).Msg("Failed to queue build")
		return nil
	}
	return job
}
