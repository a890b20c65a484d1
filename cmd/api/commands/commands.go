package commands

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/lexassist/core/internal/adapters/repository"
	"github.com/lexassist/core/internal/adapters/sender"
	"github.com/lexassist/core/internal/application/services"
	"github.com/lexassist/core/internal/domain/entities"
	"github.com/lexassist/core/internal/infrastructure/config"
	"github.com/lexassist/core/internal/infrastructure/database"
	"github.com/lexassist/core/internal/infrastructure/logger"
	"github.com/lexassist/core/internal/infrastructure/server"
)

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the LexAssist API server",
		Long:  "Start the LexAssist API server with the notification sweep and retention loops",
		Run: func(cmd *cobra.Command, args []string) {
			runServer()
		},
	}
}

// NewMigrateCommand creates the migrate command with subcommands
func NewMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
		Long:  "Manage database migrations (up, down, version)",
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Run all up migrations",
		Run: func(cmd *cobra.Command, args []string) {
			runMigration("up", 0)
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Run all down migrations",
		Run: func(cmd *cobra.Command, args []string) {
			runMigration("down", 0)
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print current migration version",
		Run: func(cmd *cobra.Command, args []string) {
			showMigrationVersion()
		},
	})

	return migrateCmd
}

// NewUserCommand creates the user management command
func NewUserCommand() *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "User management commands",
		Long:  "Create and manage users in the system",
	}

	createUserCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new user",
		Run: func(cmd *cobra.Command, args []string) {
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			role, _ := cmd.Flags().GetString("role")
			firstName, _ := cmd.Flags().GetString("first-name")
			lastName, _ := cmd.Flags().GetString("last-name")
			timezone, _ := cmd.Flags().GetString("timezone")

			if email == "" || password == "" {
				log.Fatal("Email and password are required")
			}

			createUser(email, password, role, firstName, lastName, timezone)
		},
	}

	createUserCmd.Flags().String("email", "", "User email (required)")
	createUserCmd.Flags().String("password", "", "User password (required)")
	createUserCmd.Flags().String("role", "user", "User role (user, lawyer, admin)")
	createUserCmd.Flags().String("first-name", "", "User first name")
	createUserCmd.Flags().String("last-name", "", "User last name")
	createUserCmd.Flags().String("timezone", "UTC", "IANA timezone for quiet hours")

	userCmd.AddCommand(createUserCmd)
	return userCmd
}

// NewNotifyCommand creates the one-shot notification maintenance commands
func NewNotifyCommand() *cobra.Command {
	notifyCmd := &cobra.Command{
		Use:   "notify",
		Short: "Notification maintenance commands",
		Long:  "Run the dispatch sweep or sent-notification retention once and exit",
	}

	notifyCmd.AddCommand(&cobra.Command{
		Use:   "sweep",
		Short: "Dispatch all due pending notifications once",
		Run: func(cmd *cobra.Command, args []string) {
			runNotify(func(ctx context.Context, svc *services.NotificationService) error {
				examined, err := svc.ProcessPending(ctx, time.Now().UTC())
				if err != nil {
					return err
				}
				fmt.Printf("Sweep completed: %d notifications examined\n", examined)
				return nil
			})
		},
	})

	notifyCmd.AddCommand(&cobra.Command{
		Use:   "retention",
		Short: "Delete sent notifications past the retention window",
		Run: func(cmd *cobra.Command, args []string) {
			runNotify(func(ctx context.Context, svc *services.NotificationService) error {
				deleted, err := svc.CleanupSent(ctx, time.Now().UTC())
				if err != nil {
					return err
				}
				fmt.Printf("Retention completed: %d notifications deleted\n", deleted)
				return nil
			})
		},
	})

	return notifyCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print LexAssist version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("LexAssist Core v1.0.0")
		},
	}
}

func runServer() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", "error", err)
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	srv, err := server.New(cfg, db, redisClient, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize server", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go runSweepLoop(ctx, srv.Notifications(), cfg.Scheduler, appLogger)
	go runRetentionLoop(ctx, srv.Notifications(), cfg.Scheduler, appLogger)

	go func() {
		appLogger.Info("Starting LexAssist API server",
			"port", cfg.Server.Port,
			"environment", cfg.App.Environment,
		)
		if err := srv.Start(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil {
			appLogger.Error("Server stopped", "error", err)
			cancel()
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Graceful shutdown failed", "error", err)
	}
}

// runSweepLoop dispatches due pending notifications every sweep interval.
func runSweepLoop(ctx context.Context, svc *services.NotificationService, cfg config.SchedulerConfig, appLogger *logger.Logger) {
	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := svc.ProcessPending(ctx, time.Now().UTC()); err != nil {
				appLogger.Error("Notification sweep failed", "error", err)
			}
		}
	}
}

// runRetentionLoop deletes old sent notifications on the retention interval.
func runRetentionLoop(ctx context.Context, svc *services.NotificationService, cfg config.SchedulerConfig, appLogger *logger.Logger) {
	ticker := time.NewTicker(cfg.RetentionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := svc.CleanupSent(ctx, time.Now().UTC()); err != nil {
				appLogger.Error("Notification retention failed", "error", err)
			}
		}
	}
}

// runNotify builds the notification service against the live database and
// invokes fn once.
func runNotify(fn func(ctx context.Context, svc *services.NotificationService) error) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	channelSender := sender.NewMultiSender(
		sender.NewEmailSender(cfg.SMTP, appLogger),
		sender.NewSMSSender(cfg.SMSGateway, appLogger),
		sender.NewPushSender(appLogger),
		appLogger,
	)

	svc := services.NewNotificationService(
		repository.NewNotificationRepository(db.DB),
		repository.NewUserRepository(db.DB),
		channelSender,
		cfg.Scheduler.RetentionDays,
		appLogger,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := fn(ctx, svc); err != nil {
		log.Fatalf("Notification maintenance failed: %v", err)
	}
}

func runMigration(direction string, steps int) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db.DB.DB, &postgres.Config{})
	if err != nil {
		log.Fatalf("Failed to create migration driver: %v", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		log.Fatalf("Failed to create migration instance: %v", err)
	}

	switch direction {
	case "up":
		if steps > 0 {
			err = m.Steps(steps)
		} else {
			err = m.Up()
		}
	case "down":
		if steps > 0 {
			err = m.Steps(-steps)
		} else {
			err = m.Down()
		}
	}

	if err != nil && err != migrate.ErrNoChange {
		log.Fatalf("Migration failed: %v", err)
	}

	if err == migrate.ErrNoChange {
		fmt.Println("No migrations to run")
	} else {
		fmt.Printf("Migration %s completed successfully\n", direction)
	}
}

func showMigrationVersion() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db.DB.DB, &postgres.Config{})
	if err != nil {
		log.Fatalf("Failed to create migration driver: %v", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		log.Fatalf("Failed to create migration instance: %v", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		log.Fatalf("Failed to get migration version: %v", err)
	}

	fmt.Printf("Current migration version: %d\n", version)
	fmt.Printf("Dirty: %t\n", dirty)
}

func createUser(email, password, role, firstName, lastName, timezone string) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	userRole := entities.UserRole(role)
	if !userRole.IsValid() {
		log.Fatalf("Invalid role %q (user, lawyer, admin)", role)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	// Generate username from the email local part
	username := email
	if at := strings.Index(email, "@"); at > 0 {
		username = email[:at]
	}
	if len(username) > 50 {
		username = username[:50]
	}

	now := time.Now().UTC()
	user := &entities.User{
		ID:                 uuid.New(),
		Email:              email,
		Username:           username,
		PasswordHash:       string(hashedPassword),
		FirstName:          firstName,
		LastName:           lastName,
		Role:               userRole,
		IsActive:           true,
		LanguagePreference: "en",
		Timezone:           timezone,
		Preferences:        entities.DefaultNotificationPreferences(),
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	userRepo := repository.NewUserRepository(db.DB)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := userRepo.Create(ctx, user); err != nil {
		log.Fatalf("Failed to create user: %v", err)
	}

	fmt.Printf("User created successfully:\n")
	fmt.Printf("  ID: %s\n", user.ID)
	fmt.Printf("  Email: %s\n", email)
	fmt.Printf("  Username: %s\n", username)
	fmt.Printf("  Role: %s\n", role)
	if firstName != "" {
		fmt.Printf("  Name: %s %s\n", firstName, lastName)
	}
}
