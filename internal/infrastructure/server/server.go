package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	httpHandlers "github.com/lexassist/core/internal/adapters/http"
	"github.com/lexassist/core/internal/adapters/repository"
	"github.com/lexassist/core/internal/adapters/sender"
	"github.com/lexassist/core/internal/application/services"
	"github.com/lexassist/core/internal/domain/entities"
	"github.com/lexassist/core/internal/infrastructure/config"
	"github.com/lexassist/core/internal/infrastructure/database"
	"github.com/lexassist/core/internal/infrastructure/logger"
)

// Server represents the HTTP server
type Server struct {
	echo          *echo.Echo
	config        *config.Config
	logger        *logger.Logger
	db            *database.DB
	notifications *services.NotificationService
}

// CustomValidator wraps the validator
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates structs
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// New creates a new server instance with the full dependency graph wired
func New(cfg *config.Config, db *database.DB, redisClient *redis.Client, appLogger *logger.Logger) (*Server, error) {
	e := echo.New()

	// Set custom validator
	e.Validator = &CustomValidator{validator: validator.New()}

	// Configure Echo
	e.HideBanner = true
	e.HidePort = true

	// Custom error handler
	e.HTTPErrorHandler = customErrorHandler(appLogger)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.DB)
	deadlineRepo := repository.NewDeadlineRepository(db.DB)
	notificationRepo := repository.NewNotificationRepository(db.DB)
	documentRepo := repository.NewDocumentRepository(db.DB)
	templateRepo := repository.NewTemplateRepository(db.DB)
	ruleRepo := repository.NewComplianceRuleRepository(db.DB)
	cache := repository.NewRedisCache(redisClient)
	txManager := repository.NewTxManager(db.DB)

	// Initialize delivery adapters
	channelSender := sender.NewMultiSender(
		sender.NewEmailSender(cfg.SMTP, appLogger),
		sender.NewSMSSender(cfg.SMSGateway, appLogger),
		sender.NewPushSender(appLogger),
		appLogger,
	)

	// Initialize services
	authService := services.NewAuthService(userRepo, cfg.JWT, appLogger)
	userService := services.NewUserService(userRepo, appLogger)
	notificationService := services.NewNotificationService(notificationRepo, userRepo, channelSender, cfg.Scheduler.RetentionDays, appLogger)
	deadlineService := services.NewDeadlineService(deadlineRepo, userRepo, notificationService, txManager, cache, appLogger)
	complianceService := services.NewComplianceService(ruleRepo, deadlineRepo, deadlineService, filingDays(cfg.Scheduler), appLogger)
	documentService := services.NewDocumentService(documentRepo, templateRepo, appLogger)

	// Initialize handlers
	authHandler := httpHandlers.NewAuthHandler(authService, appLogger)
	userHandler := httpHandlers.NewUserHandler(userService, appLogger)
	deadlineHandler := httpHandlers.NewDeadlineHandler(deadlineService, appLogger)
	notificationHandler := httpHandlers.NewNotificationHandler(notificationService, appLogger)
	complianceHandler := httpHandlers.NewComplianceHandler(complianceService, appLogger)
	documentHandler := httpHandlers.NewDocumentHandler(documentService, appLogger)

	server := &Server{
		echo:          e,
		config:        cfg,
		logger:        appLogger,
		db:            db,
		notifications: notificationService,
	}

	// Setup middleware
	server.setupMiddleware()

	// Setup routes
	server.setupRoutes(authHandler, userHandler, deadlineHandler, notificationHandler, complianceHandler, documentHandler, authService)

	// Setup metrics
	if cfg.Metrics.Enabled {
		server.setupMetrics()
	}

	return server, nil
}

// Notifications exposes the notification service for the background sweep and
// retention loops started alongside the server.
func (s *Server) Notifications() *services.NotificationService {
	return s.notifications
}

func filingDays(cfg config.SchedulerConfig) map[entities.FilingCadence]int {
	return map[entities.FilingCadence]int{
		entities.CadenceMonthly:   cfg.GSTMonthlyDay,
		entities.CadenceQuarterly: cfg.GSTQuarterlyDay,
		entities.CadenceAnnual:    cfg.GSTAnnualDay,
	}
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.echo.Use(middleware.Recover())

	// Logger middleware
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogError:     true,
		LogRemoteIP:  true,
		LogUserAgent: true,
		LogValuesFunc: func(c echo.Context, values middleware.RequestLoggerValues) error {
			fields := []interface{}{
				"method", values.Method,
				"uri", values.URI,
				"status", values.Status,
				"latency_ms", float64(values.Latency.Nanoseconds()) / 1000000,
				"remote_ip", values.RemoteIP,
				"user_agent", values.UserAgent,
			}

			if values.Error != nil {
				fields = append(fields, "error", values.Error.Error())
				s.logger.Errorw("HTTP request failed", fields...)
			} else {
				s.logger.Infow("HTTP request", fields...)
			}

			return nil
		},
	}))

	// CORS middleware
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: strings.Split(s.config.Security.CORSAllowedOrigins, ","),
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowMethods: []string{echo.GET, echo.HEAD, echo.PUT, echo.PATCH, echo.POST, echo.DELETE},
	}))

	// Rate limiting middleware
	s.echo.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{Rate: rate.Limit(s.config.Security.RateLimitRequests), Burst: s.config.Security.RateLimitRequests, ExpiresIn: s.config.Security.RateLimitWindow},
		),
		IdentifierExtractor: func(ctx echo.Context) (string, error) {
			id := ctx.RealIP()
			return id, nil
		},
		ErrorHandler: func(context echo.Context, err error) error {
			return context.JSON(http.StatusForbidden, map[string]string{"message": "rate limit exceeded"})
		},
		DenyHandler: func(context echo.Context, identifier string, err error) error {
			return context.JSON(http.StatusTooManyRequests, map[string]string{"message": "rate limit exceeded"})
		},
	}))

	// Security headers
	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
	}))

	// Request ID middleware
	s.echo.Use(middleware.RequestID())

	// Timeout middleware
	s.echo.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: 30 * time.Second,
	}))
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(
	authHandler *httpHandlers.AuthHandler,
	userHandler *httpHandlers.UserHandler,
	deadlineHandler *httpHandlers.DeadlineHandler,
	notificationHandler *httpHandlers.NotificationHandler,
	complianceHandler *httpHandlers.ComplianceHandler,
	documentHandler *httpHandlers.DocumentHandler,
	authService *services.AuthService,
) {
	// Health check routes
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/health/detailed", s.detailedHealthCheck)
	s.echo.GET("/ready", s.readinessCheck)

	// API v1 routes
	v1 := s.echo.Group("/api/v1")

	// Auth routes (public)
	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)

	// User routes (authenticated)
	userGroup := v1.Group("/users", s.authMiddleware(authService))
	userGroup.GET("/me", userHandler.GetCurrentUser)
	userGroup.PUT("/me", userHandler.UpdateCurrentUser)
	userGroup.PUT("/me/preferences", userHandler.UpdatePreferences)
	userGroup.GET("", userHandler.ListUsers, s.requireRole(entities.UserRoleAdmin))
	userGroup.GET("/:id", userHandler.GetUser, s.requireRole(entities.UserRoleAdmin, entities.UserRoleLawyer))

	// Deadline routes (authenticated)
	deadlineGroup := v1.Group("/deadlines", s.authMiddleware(authService))
	deadlineGroup.GET("", deadlineHandler.ListDeadlines)
	deadlineGroup.POST("", deadlineHandler.CreateDeadline)
	deadlineGroup.GET("/upcoming", deadlineHandler.GetUpcomingDeadlines)
	deadlineGroup.GET("/overdue", deadlineHandler.GetOverdueDeadlines)
	deadlineGroup.GET("/stats", deadlineHandler.GetDeadlineStats)
	deadlineGroup.GET("/:id", deadlineHandler.GetDeadline)
	deadlineGroup.PUT("/:id", deadlineHandler.UpdateDeadline)
	deadlineGroup.POST("/:id/complete", deadlineHandler.CompleteDeadline)
	deadlineGroup.DELETE("/:id", deadlineHandler.DeleteDeadline)

	// Notification routes (authenticated)
	notificationGroup := v1.Group("/notifications", s.authMiddleware(authService))
	notificationGroup.GET("", notificationHandler.ListNotifications)
	notificationGroup.POST("/:id/sent", notificationHandler.MarkSent)
	notificationGroup.POST("/bulk", notificationHandler.ScheduleBulk, s.requireRole(entities.UserRoleAdmin))

	// Compliance routes (authenticated)
	complianceGroup := v1.Group("/compliance", s.authMiddleware(authService))
	complianceGroup.POST("/check", complianceHandler.CheckCompliance)
	complianceGroup.GET("/summary", complianceHandler.GetComplianceSummary)
	complianceGroup.POST("/rules", complianceHandler.CreateRule, s.requireRole(entities.UserRoleAdmin, entities.UserRoleLawyer))

	// Document routes (authenticated)
	documentGroup := v1.Group("/documents", s.authMiddleware(authService))
	documentGroup.GET("", documentHandler.ListDocuments)
	documentGroup.POST("", documentHandler.CreateDocument)
	documentGroup.GET("/:id", documentHandler.GetDocument)
	documentGroup.PUT("/:id", documentHandler.UpdateDocument)
	documentGroup.DELETE("/:id", documentHandler.DeleteDocument)

	// Template routes (authenticated)
	v1.GET("/templates", documentHandler.ListTemplates, s.authMiddleware(authService))
}

// setupMetrics configures Prometheus metrics
func (s *Server) setupMetrics() {
	requestsTotal := promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	requestDuration := promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Custom metrics middleware
	s.echo.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			duration := time.Since(start)
			status := c.Response().Status

			requestsTotal.WithLabelValues(
				c.Request().Method,
				c.Path(),
				fmt.Sprintf("%d", status),
			).Inc()

			requestDuration.WithLabelValues(
				c.Request().Method,
				c.Path(),
			).Observe(duration.Seconds())

			return err
		}
	})

	// Metrics endpoint; serves the default registry so the notification sweep
	// counters show up alongside the HTTP metrics.
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// Health check handlers
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) detailedHealthCheck(c echo.Context) error {
	status := "ok"
	checks := make(map[string]interface{})

	// Database health check
	if err := s.db.HealthCheck(); err != nil {
		status = "error"
		checks["database"] = map[string]interface{}{
			"status": "error",
			"error":  err.Error(),
		}
	} else {
		checks["database"] = map[string]interface{}{
			"status": "ok",
			"stats":  s.db.GetConnectionInfo(),
		}
	}

	response := map[string]interface{}{
		"status": status,
		"time":   time.Now().UTC().Format(time.RFC3339),
		"checks": checks,
		"version": map[string]string{
			"app": s.config.App.Version,
			"go":  "1.21",
		},
	}

	if status == "ok" {
		return c.JSON(http.StatusOK, response)
	}
	return c.JSON(http.StatusServiceUnavailable, response)
}

func (s *Server) readinessCheck(c echo.Context) error {
	if err := s.db.Ping(); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": "database_not_ready",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Start starts the HTTP server
func (s *Server) Start(address string) error {
	s.logger.Info("Starting server", "address", address)
	return s.echo.Start(address)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server")
	return s.echo.Shutdown(ctx)
}

// customErrorHandler handles HTTP errors
func customErrorHandler(logger *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		var (
			code = http.StatusInternalServerError
			msg  interface{}
		)

		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			msg = he.Message
			if he.Internal != nil {
				err = fmt.Errorf("%v, %v", err, he.Internal)
			}
		} else if e, ok := err.(*validator.ValidationErrors); ok {
			code = http.StatusBadRequest
			msg = map[string]string{"message": "validation failed", "details": e.Error()}
		} else {
			msg = map[string]string{"message": http.StatusText(code)}
		}

		if code == http.StatusInternalServerError {
			logger.Error("Internal server error", "error", err, "path", c.Request().URL.Path)
		}

		// Send response
		if !c.Response().Committed {
			if c.Request().Method == echo.HEAD {
				err = c.NoContent(code)
			} else {
				err = c.JSON(code, msg)
			}
			if err != nil {
				logger.Error("Error sending response", "error", err)
			}
		}
	}
}
