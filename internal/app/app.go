package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crisislink_backend/database"
	"crisislink_backend/internal/auth"
	"crisislink_backend/internal/config"
	"crisislink_backend/internal/handlers"
	"crisislink_backend/internal/logger"
	"crisislink_backend/internal/middleware"
	"crisislink_backend/internal/models"
	"crisislink_backend/internal/repositories"
	"crisislink_backend/internal/routes"
	"crisislink_backend/internal/services"
	"crisislink_backend/internal/storage"
	"crisislink_backend/internal/validator"
	"crisislink_backend/internal/workers"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)
	logger.Info("logger initialized", "env", cfg.Server.Env)

	gormDB, err := database.ConnectGorm()
	if err != nil {
		logger.Fatal("failed to connect to database", "error", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatal("failed to get *sql.DB from GORM", "error", err)
	}
	if err = sqlDB.Ping(); err != nil {
		logger.Fatal("database unavailable", "error", err)
	}
	logger.Info("database connected")

	if err := database.AutoMigrate(); err != nil {
		logger.Fatal("migration failed", "error", err)
	}
	if err := seedFirstAdmin(gormDB, cfg); err != nil {
		logger.Fatal("failed to seed first admin user", "error", err)
	}

	router, container := SetupRouter(cfg, gormDB)

	// Background workers stop with the server
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	startWorkers(ctx, gormDB, container)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:    address,
		Handler: router,
	}

	go func() {
		logger.Info("server starting", "address", address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server startup error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

// SetupRouter builds the full HTTP stack. Split out from Run so tests can
// mount the router without binding a port.
func SetupRouter(cfg *config.Config, gormDB *gorm.DB) (*gin.Engine, *services.Container) {
	files, err := storage.NewStorage(storage.Config{
		Type:      cfg.Storage.Type,
		BasePath:  cfg.Storage.BasePath,
		BaseURL:   cfg.Storage.BaseURL,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Endpoint:  cfg.Storage.Endpoint,
		UseSSL:    cfg.Storage.UseSSL,
	})
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	logger.Info("storage initialized", "type", cfg.Storage.Type)

	container := services.NewContainer(gormDB, files)
	appHandlers := initializeHandlers(container)

	router := initializeGinRouter()
	routes.RegisterRoutes(router, appHandlers)
	return router, container
}

func initializeHandlers(container *services.Container) *handlers.AppHandlers {
	customValidator := validator.New()
	baseHandler := handlers.NewBaseHandler(customValidator)

	userHandler := handlers.NewUserHandler(baseHandler, container.User)

	return &handlers.AppHandlers{
		AuthHandler:       handlers.NewAuthHandler(baseHandler, container.Auth, container.User),
		UserHandler:       userHandler,
		VolunteerHandler:  handlers.NewVolunteerHandler(baseHandler, container.Volunteer, container.Matching),
		EmergencyHandler:  handlers.NewEmergencyHandler(baseHandler, container.Emergency, container.Assignment, container.Matching, container.Activity),
		AssignmentHandler: handlers.NewAssignmentHandler(baseHandler, container.Assignment),
		ActivityHandler:   handlers.NewActivityHandler(baseHandler, container.Activity),
		AdminHandler:      handlers.NewAdminHandler(baseHandler, container.Admin, container.Matching, container.Activity, container.Emergency, userHandler),
	}
}

func initializeGinRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware())
	return router
}

func startWorkers(ctx context.Context, gormDB *gorm.DB, container *services.Container) {
	workers.NewEscalationWorker(container.Emergency).Start(ctx)
	workers.NewMaintenanceWorker(container.Assignment, repositories.NewUserRepository(gormDB)).Start(ctx)
}

func seedFirstAdmin(db *gorm.DB, cfg *config.Config) error {
	if cfg.FirstAdminEmail == "" || cfg.FirstAdminPassword == "" {
		logger.Warn("FIRST_ADMIN_EMAIL or FIRST_ADMIN_PASSWORD not set, skipping admin seeding")
		return nil
	}

	var existing models.User
	err := db.Where("email = ?", cfg.FirstAdminEmail).First(&existing).Error
	if err == nil {
		logger.Info("admin user already exists", "email", cfg.FirstAdminEmail)
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check for admin user: %w", err)
	}

	hash, err := auth.HashPassword(cfg.FirstAdminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &models.User{
		Email:        cfg.FirstAdminEmail,
		PasswordHash: hash,
		FirstName:    "Platform",
		LastName:     "Admin",
		Role:         models.UserRoleAdmin,
		IsActive:     true,
	}
	if err := db.Create(admin).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}
	logger.Info("first admin user created", "email", cfg.FirstAdminEmail)
	return nil
}
