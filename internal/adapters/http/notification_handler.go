package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lexassist/core/internal/application/services"
	"github.com/lexassist/core/internal/domain/entities"
	"github.com/lexassist/core/internal/infrastructure/logger"
	"github.com/lexassist/core/internal/ports"
)

// NotificationHandler handles notification-related requests
type NotificationHandler struct {
	notificationService *services.NotificationService
	logger              *logger.Logger
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notificationService *services.NotificationService, logger *logger.Logger) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		logger:              logger,
	}
}

// BulkScheduleRequest carries the entries of an ad-hoc bulk send.
type BulkScheduleRequest struct {
	Notifications []ports.BulkNotificationItem `json:"notifications" validate:"required,min=1,max=500,dive"`
}

// BulkScheduleResponse reports how many entries were accepted.
type BulkScheduleResponse struct {
	Scheduled int `json:"scheduled"`
	Requested int `json:"requested"`
}

// ListNotifications handles listing the current user's notifications
func (h *NotificationHandler) ListNotifications(c echo.Context) error {
	userID := getUserIDFromContext(c)
	filter := ports.NotificationFilter{}

	if ch := c.QueryParam("channel"); ch != "" {
		channel := entities.NotificationChannel(ch)
		if !channel.IsValid() {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid channel parameter")
		}
		filter.Channel = &channel
	}

	if c.QueryParam("unsent") == "true" {
		filter.UnsentOnly = true
	}

	var err error
	filter.Limit, filter.Offset, err = parsePagination(c, 50)
	if err != nil {
		return err
	}

	notifications, total, err := h.notificationService.ListUserNotifications(c.Request().Context(), userID, filter)
	if err != nil {
		h.logger.Error("List notifications failed", "error", err, "user_id", userID)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to retrieve notifications")
	}

	response := ports.PaginatedResponse[*entities.Notification]{
		Data:   notifications,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	return c.JSON(http.StatusOK, response)
}

// MarkSent handles manually acknowledging a notification as sent
func (h *NotificationHandler) MarkSent(c echo.Context) error {
	userID := getUserIDFromContext(c)

	id, err := parseIDParam(c)
	if err != nil {
		return err
	}

	notification, err := h.notificationService.MarkNotificationSent(c.Request().Context(), id, userID)
	if err != nil {
		h.logger.Error("Mark notification sent failed", "error", err, "notification_id", id, "user_id", userID)
		return notFoundOr(err, entities.ErrNotificationNotFound, err.Error())
	}

	return c.JSON(http.StatusOK, notification)
}

// ScheduleBulk handles admin bulk scheduling of ad-hoc notifications
func (h *NotificationHandler) ScheduleBulk(c echo.Context) error {
	var req BulkScheduleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	scheduled, err := h.notificationService.ScheduleBulk(c.Request().Context(), req.Notifications)
	if err != nil {
		h.logger.Error("Bulk schedule failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to schedule notifications")
	}

	return c.JSON(http.StatusAccepted, BulkScheduleResponse{
		Scheduled: scheduled,
		Requested: len(req.Notifications),
	})
}
