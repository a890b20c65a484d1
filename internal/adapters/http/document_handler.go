package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lexassist/core/internal/application/services"
	"github.com/lexassist/core/internal/domain/entities"
	"github.com/lexassist/core/internal/infrastructure/logger"
	"github.com/lexassist/core/internal/ports"
)

// DocumentHandler handles document and template requests
type DocumentHandler struct {
	documentService *services.DocumentService
	logger          *logger.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(documentService *services.DocumentService, logger *logger.Logger) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
		logger:          logger,
	}
}

// CreateDocument handles document creation, optionally generated from a template
func (h *DocumentHandler) CreateDocument(c echo.Context) error {
	userID := getUserIDFromContext(c)

	var req ports.CreateDocumentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	document, err := h.documentService.CreateDocument(c.Request().Context(), userID, req)
	if err != nil {
		h.logger.Error("Create document failed", "error", err, "user_id", userID)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusCreated, document)
}

// GetDocument handles getting a document by ID
func (h *DocumentHandler) GetDocument(c echo.Context) error {
	userID := getUserIDFromContext(c)

	id, err := parseIDParam(c)
	if err != nil {
		return err
	}

	document, err := h.documentService.GetDocument(c.Request().Context(), id, userID)
	if err != nil {
		return notFoundOr(err, entities.ErrDocumentNotFound, "Failed to retrieve document")
	}

	return c.JSON(http.StatusOK, document)
}

// UpdateDocument handles updating a document
func (h *DocumentHandler) UpdateDocument(c echo.Context) error {
	userID := getUserIDFromContext(c)

	id, err := parseIDParam(c)
	if err != nil {
		return err
	}

	var req ports.UpdateDocumentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	document, err := h.documentService.UpdateDocument(c.Request().Context(), id, userID, req)
	if err != nil {
		h.logger.Error("Update document failed", "error", err, "document_id", id, "user_id", userID)
		return notFoundOr(err, entities.ErrDocumentNotFound, err.Error())
	}

	return c.JSON(http.StatusOK, document)
}

// DeleteDocument handles soft-deleting a document
func (h *DocumentHandler) DeleteDocument(c echo.Context) error {
	userID := getUserIDFromContext(c)

	id, err := parseIDParam(c)
	if err != nil {
		return err
	}

	if err := h.documentService.DeleteDocument(c.Request().Context(), id, userID); err != nil {
		return notFoundOr(err, entities.ErrDocumentNotFound, "Failed to delete document")
	}

	return c.JSON(http.StatusOK, ports.MessageResponse{Message: "Document deleted successfully"})
}

// ListDocuments handles listing the current user's documents
func (h *DocumentHandler) ListDocuments(c echo.Context) error {
	userID := getUserIDFromContext(c)
	filter := ports.DocumentFilter{UserID: &userID}

	if dt := c.QueryParam("type"); dt != "" {
		documentType := entities.DocumentType(dt)
		if !documentType.IsValid() {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid type parameter")
		}
		filter.DocumentType = &documentType
	}

	if search := c.QueryParam("search"); search != "" {
		filter.Search = &search
	}

	var err error
	filter.Limit, filter.Offset, err = parsePagination(c, 20)
	if err != nil {
		return err
	}

	documents, total, err := h.documentService.ListDocuments(c.Request().Context(), filter)
	if err != nil {
		h.logger.Error("List documents failed", "error", err, "user_id", userID)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to retrieve documents")
	}

	response := ports.PaginatedResponse[*entities.Document]{
		Data:   documents,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	return c.JSON(http.StatusOK, response)
}

// ListTemplates handles listing document templates, optionally by type
func (h *DocumentHandler) ListTemplates(c echo.Context) error {
	var documentType entities.DocumentType
	if dt := c.QueryParam("type"); dt != "" {
		documentType = entities.DocumentType(dt)
		if !documentType.IsValid() {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid type parameter")
		}
	}

	templates, err := h.documentService.ListTemplates(c.Request().Context(), documentType)
	if err != nil {
		h.logger.Error("List templates failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to retrieve templates")
	}

	return c.JSON(http.StatusOK, templates)
}
