package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lexassist/core/internal/application/services"
	"github.com/lexassist/core/internal/domain/entities"
	"github.com/lexassist/core/internal/infrastructure/logger"
	"github.com/lexassist/core/internal/ports"
)

// ComplianceHandler handles compliance-related requests
type ComplianceHandler struct {
	complianceService *services.ComplianceService
	logger            *logger.Logger
}

// NewComplianceHandler creates a new compliance handler
func NewComplianceHandler(complianceService *services.ComplianceService, logger *logger.Logger) *ComplianceHandler {
	return &ComplianceHandler{
		complianceService: complianceService,
		logger:            logger,
	}
}

// CheckComplianceRequest carries the business data to evaluate.
type CheckComplianceRequest struct {
	DocumentType entities.DocumentType `json:"document_type" validate:"required"`
	UserData     map[string]any        `json:"user_data"`
}

// CheckCompliance handles running a compliance evaluation. Evaluation may
// create statutory filing deadlines for the user as a side effect.
func (h *ComplianceHandler) CheckCompliance(c echo.Context) error {
	userID := getUserIDFromContext(c)

	var req CheckComplianceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if !req.DocumentType.IsValid() {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid document type")
	}

	result, err := h.complianceService.CheckCompliance(c.Request().Context(), req.DocumentType, req.UserData, userID)
	if err != nil {
		h.logger.Error("Compliance check failed", "error", err, "user_id", userID, "document_type", req.DocumentType)
		return echo.NewHTTPError(http.StatusInternalServerError, "Compliance check failed")
	}

	return c.JSON(http.StatusOK, result)
}

// GetComplianceSummary handles the per-user compliance summary
func (h *ComplianceHandler) GetComplianceSummary(c echo.Context) error {
	userID := getUserIDFromContext(c)

	summary, err := h.complianceService.GetComplianceSummary(c.Request().Context(), userID)
	if err != nil {
		h.logger.Error("Get compliance summary failed", "error", err, "user_id", userID)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to retrieve compliance summary")
	}

	return c.JSON(http.StatusOK, summary)
}

// CreateRule handles creating a custom compliance rule
func (h *ComplianceHandler) CreateRule(c echo.Context) error {
	userID := getUserIDFromContext(c)

	var req ports.CreateRuleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	rule, err := h.complianceService.CreateRule(c.Request().Context(), req, userID)
	if err != nil {
		h.logger.Error("Create compliance rule failed", "error", err, "user_id", userID)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusCreated, rule)
}
