package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/lexassist/core/internal/application/services"
	"github.com/lexassist/core/internal/domain/entities"
	"github.com/lexassist/core/internal/infrastructure/logger"
	"github.com/lexassist/core/internal/ports"
)

// DeadlineHandler handles deadline-related requests
type DeadlineHandler struct {
	deadlineService *services.DeadlineService
	logger          *logger.Logger
}

// NewDeadlineHandler creates a new deadline handler
func NewDeadlineHandler(deadlineService *services.DeadlineService, logger *logger.Logger) *DeadlineHandler {
	return &DeadlineHandler{
		deadlineService: deadlineService,
		logger:          logger,
	}
}

// CreateDeadline handles deadline creation
func (h *DeadlineHandler) CreateDeadline(c echo.Context) error {
	userID := getUserIDFromContext(c)

	var req ports.CreateDeadlineRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	deadline, err := h.deadlineService.CreateDeadline(c.Request().Context(), userID, req)
	if err != nil {
		h.logger.Error("Create deadline failed", "error", err, "user_id", userID)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusCreated, deadline)
}

// GetDeadline handles getting a deadline by ID
func (h *DeadlineHandler) GetDeadline(c echo.Context) error {
	userID := getUserIDFromContext(c)

	id, err := parseIDParam(c)
	if err != nil {
		return err
	}

	deadline, err := h.deadlineService.GetDeadline(c.Request().Context(), id, userID)
	if err != nil {
		return notFoundOr(err, entities.ErrDeadlineNotFound, "Failed to retrieve deadline")
	}

	return c.JSON(http.StatusOK, deadline)
}

// UpdateDeadline handles updating a deadline
func (h *DeadlineHandler) UpdateDeadline(c echo.Context) error {
	userID := getUserIDFromContext(c)

	id, err := parseIDParam(c)
	if err != nil {
		return err
	}

	var req ports.UpdateDeadlineRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	deadline, err := h.deadlineService.UpdateDeadline(c.Request().Context(), id, userID, req)
	if err != nil {
		h.logger.Error("Update deadline failed", "error", err, "deadline_id", id, "user_id", userID)
		return notFoundOr(err, entities.ErrDeadlineNotFound, err.Error())
	}

	return c.JSON(http.StatusOK, deadline)
}

// CompleteDeadline handles marking a deadline as completed. For recurring
// deadlines the response also carries the spawned next occurrence.
func (h *DeadlineHandler) CompleteDeadline(c echo.Context) error {
	userID := getUserIDFromContext(c)

	id, err := parseIDParam(c)
	if err != nil {
		return err
	}

	result, err := h.deadlineService.CompleteDeadline(c.Request().Context(), id, userID)
	if err != nil {
		h.logger.Error("Complete deadline failed", "error", err, "deadline_id", id, "user_id", userID)
		return notFoundOr(err, entities.ErrDeadlineNotFound, err.Error())
	}

	return c.JSON(http.StatusOK, result)
}

// DeleteDeadline handles deleting a deadline
func (h *DeadlineHandler) DeleteDeadline(c echo.Context) error {
	userID := getUserIDFromContext(c)

	id, err := parseIDParam(c)
	if err != nil {
		return err
	}

	if err := h.deadlineService.DeleteDeadline(c.Request().Context(), id, userID); err != nil {
		return notFoundOr(err, entities.ErrDeadlineNotFound, "Failed to delete deadline")
	}

	return c.JSON(http.StatusOK, ports.MessageResponse{Message: "Deadline deleted successfully"})
}

// ListDeadlines handles listing the current user's deadlines
func (h *DeadlineHandler) ListDeadlines(c echo.Context) error {
	userID := getUserIDFromContext(c)
	filter := ports.DeadlineFilter{UserID: &userID}

	if dt := c.QueryParam("type"); dt != "" {
		deadlineType := entities.DeadlineType(dt)
		if !deadlineType.IsValid() {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid type parameter")
		}
		filter.DeadlineType = &deadlineType
	}

	if completedStr := c.QueryParam("completed"); completedStr != "" {
		completed, err := strconv.ParseBool(completedStr)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid completed parameter")
		}
		filter.IsCompleted = &completed
	}

	var err error
	filter.Limit, filter.Offset, err = parsePagination(c, 50)
	if err != nil {
		return err
	}

	deadlines, total, err := h.deadlineService.ListDeadlines(c.Request().Context(), filter)
	if err != nil {
		h.logger.Error("List deadlines failed", "error", err, "user_id", userID)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to retrieve deadlines")
	}

	response := ports.PaginatedResponse[*entities.Deadline]{
		Data:   deadlines,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	return c.JSON(http.StatusOK, response)
}

// GetUpcomingDeadlines handles listing deadlines due within a horizon
func (h *DeadlineHandler) GetUpcomingDeadlines(c echo.Context) error {
	userID := getUserIDFromContext(c)

	horizonDays := 30
	if daysStr := c.QueryParam("days"); daysStr != "" {
		days, err := strconv.Atoi(daysStr)
		if err != nil || days < 1 || days > 365 {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid days parameter")
		}
		horizonDays = days
	}

	deadlines, err := h.deadlineService.GetUpcomingDeadlines(c.Request().Context(), userID, horizonDays)
	if err != nil {
		h.logger.Error("Get upcoming deadlines failed", "error", err, "user_id", userID)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to retrieve upcoming deadlines")
	}

	return c.JSON(http.StatusOK, deadlines)
}

// GetOverdueDeadlines handles listing past-due incomplete deadlines
func (h *DeadlineHandler) GetOverdueDeadlines(c echo.Context) error {
	userID := getUserIDFromContext(c)

	deadlines, err := h.deadlineService.GetOverdueDeadlines(c.Request().Context(), userID)
	if err != nil {
		h.logger.Error("Get overdue deadlines failed", "error", err, "user_id", userID)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to retrieve overdue deadlines")
	}

	return c.JSON(http.StatusOK, deadlines)
}

// GetDeadlineStats handles the per-user deadline statistics
func (h *DeadlineHandler) GetDeadlineStats(c echo.Context) error {
	userID := getUserIDFromContext(c)

	stats, err := h.deadlineService.GetDeadlineStats(c.Request().Context(), userID)
	if err != nil {
		h.logger.Error("Get deadline stats failed", "error", err, "user_id", userID)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to retrieve deadline statistics")
	}

	return c.JSON(http.StatusOK, stats)
}
