package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lexassist/core/internal/domain/entities"
	"github.com/lexassist/core/internal/infrastructure/logger"
	"github.com/lexassist/core/internal/ports"
)

// DocumentService handles document and template operations
type DocumentService struct {
	documentRepo ports.DocumentRepository
	templateRepo ports.TemplateRepository
	logger       *logger.Logger
}

// NewDocumentService creates a new document service
func NewDocumentService(documentRepo ports.DocumentRepository, templateRepo ports.TemplateRepository, logger *logger.Logger) *DocumentService {
	return &DocumentService{
		documentRepo: documentRepo,
		templateRepo: templateRepo,
		logger:       logger,
	}
}

// CreateDocument creates a new document. When a template is given and no
// explicit content, the content is generated from the template with the
// request's form data.
func (s *DocumentService) CreateDocument(ctx context.Context, userID uuid.UUID, req ports.CreateDocumentRequest) (*entities.Document, error) {
	if !req.DocumentType.IsValid() {
		return nil, fmt.Errorf("invalid document type %q", req.DocumentType)
	}

	content := req.Content
	if req.TemplateID != nil && content == nil {
		template, err := s.templateRepo.GetByID(ctx, *req.TemplateID)
		if err != nil {
			return nil, fmt.Errorf("template not found: %w", err)
		}
		generated, err := renderTemplate(template, req.FormData)
		if err != nil {
			return nil, err
		}
		content = &generated
	}

	now := time.Now().UTC()
	document := &entities.Document{
		UserID:       userID,
		Title:        req.Title,
		DocumentType: req.DocumentType,
		TemplateID:   req.TemplateID,
		Content:      content,
		Metadata:     req.Metadata,
		Version:      1,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.documentRepo.Create(ctx, document); err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	s.logger.Info("Document created", "document_id", document.ID, "user_id", userID, "type", document.DocumentType)
	return document, nil
}

// GetDocument retrieves an owned document
func (s *DocumentService) GetDocument(ctx context.Context, id int, userID uuid.UUID) (*entities.Document, error) {
	document, err := s.documentRepo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("document not found: %w", err)
	}
	return document, nil
}

// UpdateDocument patches an owned document's title, content, or metadata.
// Every content-bearing change bumps the version.
func (s *DocumentService) UpdateDocument(ctx context.Context, id int, userID uuid.UUID, req ports.UpdateDocumentRequest) (*entities.Document, error) {
	document, err := s.documentRepo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("document not found: %w", err)
	}

	if req.Title != nil {
		document.Title = *req.Title
	}
	if req.Content != nil {
		document.Content = req.Content
	}
	if req.Metadata != nil {
		document.Metadata = req.Metadata
	}

	document.Version++
	document.UpdatedAt = time.Now().UTC()

	if err := s.documentRepo.Update(ctx, document); err != nil {
		return nil, fmt.Errorf("failed to update document: %w", err)
	}

	s.logger.Info("Document updated", "document_id", document.ID, "version", document.Version)
	return document, nil
}

// DeleteDocument soft-deletes an owned document
func (s *DocumentService) DeleteDocument(ctx context.Context, id int, userID uuid.UUID) error {
	if _, err := s.documentRepo.GetByID(ctx, id, userID); err != nil {
		return fmt.Errorf("document not found: %w", err)
	}

	if err := s.documentRepo.Delete(ctx, id, userID); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	s.logger.Info("Document deleted", "document_id", id, "user_id", userID)
	return nil
}

// ListDocuments retrieves documents with filtering and pagination
func (s *DocumentService) ListDocuments(ctx context.Context, filter ports.DocumentFilter) ([]*entities.Document, int, error) {
	documents, total, err := s.documentRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list documents: %w", err)
	}
	return documents, total, nil
}

// ListTemplates retrieves active templates, optionally filtered by type
func (s *DocumentService) ListTemplates(ctx context.Context, documentType entities.DocumentType) ([]*entities.Template, error) {
	templates, err := s.templateRepo.ListByType(ctx, documentType)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return templates, nil
}

// renderTemplate substitutes #field# placeholders in the template content with
// the user's form data. Required fields without a value reject the render.
func renderTemplate(template *entities.Template, formData map[string]string) (string, error) {
	for _, field := range template.FormFields {
		if field.Required && formData[field.Name] == "" {
			return "", fmt.Errorf("missing required field %q", field.Name)
		}
	}

	content := template.Content
	for key, value := range formData {
		content = strings.ReplaceAll(content, "#"+key+"#", value)
	}
	return content, nil
}
