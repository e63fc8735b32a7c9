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

	"natours_backend/internal/auth"
	"natours_backend/internal/config"
	"natours_backend/internal/database"
	"natours_backend/internal/email"
	"natours_backend/internal/handlers"
	"natours_backend/internal/logger"
	"natours_backend/internal/middleware"
	"natours_backend/internal/models"
	"natours_backend/internal/payment"
	"natours_backend/internal/repositories"
	"natours_backend/internal/routes"
	"natours_backend/internal/services"
	"natours_backend/internal/storage"
	"natours_backend/internal/validator"
	"natours_backend/internal/views"
	"natours_backend/internal/workers"
	"natours_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

// repositoryContainer - репозитории без состояния, общие для сервисов и воркеров
type repositoryContainer struct {
	users    repositories.UserRepository
	tours    repositories.TourRepository
	reviews  repositories.ReviewRepository
	bookings repositories.BookingRepository
}

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	apperrors.SetDebug(!cfg.IsProduction())
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gormDB, err := database.Connect(ctx, database.Config{
		DSN:       cfg.Database.DSN,
		MaxOpen:   cfg.Database.MaxOpen,
		MaxIdle:   cfg.Database.MaxIdle,
		SlowQuery: 200 * time.Millisecond,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	if err := database.Migrate(gormDB); err != nil {
		logger.Fatal("Failed to migrate database", "error", err)
	}

	repos := newRepositories()

	if err := seedFirstAdmin(gormDB, repos.users, cfg); err != nil {
		logger.Fatal("Failed to seed first admin user", "error", err)
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	ginRouter := SetupRouter(ctx, cfg, gormDB, repos, limiter)

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	runner := workers.NewRunner(
		workers.NewResetTokenWorker(gormDB, repos.users),
		workers.NewRatingsWorker(gormDB, repos.tours),
		workers.NewLimiterCleanupWorker(limiter, cfg.RateLimit.Window),
	)
	runner.Start(workerCtx)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              address,
		Handler:           ginRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting", "address", address, "env", cfg.Server.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	exitCode := 0
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received, draining connections")
	case err := <-serverErr:
		if err != nil {
			logger.Error("Server error, shutting down", "error", err)
			exitCode = 1
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
		exitCode = 1
	}

	cancelWorkers()
	runner.Wait()

	if sqlDB, err := gormDB.DB(); err == nil {
		_ = sqlDB.Close()
	}

	logger.Info("Server stopped")
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

func newRepositories() *repositoryContainer {
	return &repositoryContainer{
		users:    repositories.NewUserRepository(),
		tours:    repositories.NewTourRepository(),
		reviews:  repositories.NewReviewRepository(),
		bookings: repositories.NewBookingRepository(),
	}
}

// SetupRouter собирает сервисы, хэндлеры и gin engine
func SetupRouter(ctx context.Context, cfg *config.Config, gormDB *gorm.DB, repos *repositoryContainer, limiter *middleware.RateLimiter) *gin.Engine {
	storageInstance, err := storage.NewStorage(ctx, storage.Config{
		Type:      cfg.Storage.Type,
		BasePath:  cfg.Storage.BasePath,
		BaseURL:   cfg.Storage.BaseURL,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Endpoint:  cfg.Storage.Endpoint,
	})
	if err != nil {
		logger.Fatal("Failed to initialize storage", "error", err)
	}
	logger.Info("Storage initialized", "type", cfg.Storage.Type)

	serviceContainer := initializeServices(cfg, repos, storageInstance)
	appHandlers := initializeHandlers(cfg, serviceContainer)

	ginRouter := initializeGinRouter(cfg, gormDB)

	opts := routes.Options{
		JSONBodyLimit: cfg.Server.BodyLimit,
		// обложка и до трех фото тура в одном запросе
		UploadBodyLimit: 4*cfg.Upload.MaxSize + 1<<20,
		RateLimiter:     limiter,
		Swagger:         !cfg.IsProduction(),
	}
	if cfg.Storage.Type == "" || cfg.Storage.Type == "local" {
		opts.StaticDir = cfg.Storage.BasePath
	}

	routes.RegisterRoutes(ginRouter, appHandlers, serviceContainer.AuthService, opts)
	return ginRouter
}

func initializeServices(cfg *config.Config, repos *repositoryContainer, storageInstance storage.Storage) *services.ServiceContainer {
	mailer := initializeMailer(cfg)

	gateway := payment.NewStripeGateway(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret, cfg.Stripe.Currency)
	if cfg.Stripe.SecretKey == "" {
		logger.Warn("Stripe secret key is not set, checkout sessions will fail")
	}

	maxLimit := cfg.Query.MaxLimit

	uploadService := services.NewUploadService(storageInstance, services.UploadConfig{
		MaxFileSize:  cfg.Upload.MaxSize,
		ImageQuality: cfg.Upload.ImageQuality,
	})
	authService := services.NewAuthService(repos.users, mailer, services.AuthConfig{
		Secret:   []byte(cfg.JWT.Secret),
		TokenTTL: cfg.JWTExpiresIn(),
		BaseURL:  cfg.Server.BaseURL,
	})
	userService := services.NewUserService(repos.users, uploadService, maxLimit)
	tourService := services.NewTourService(repos.tours, repos.users, repos.bookings, uploadService, maxLimit)
	reviewService := services.NewReviewService(repos.reviews, repos.tours, maxLimit)
	bookingService := services.NewBookingService(repos.bookings, repos.tours, repos.users, gateway, cfg.Server.BaseURL, maxLimit)

	return &services.ServiceContainer{
		AuthService:    authService,
		UserService:    userService,
		TourService:    tourService,
		ReviewService:  reviewService,
		BookingService: bookingService,
		UploadService:  uploadService,
		Mailer:         mailer,
	}
}

// initializeMailer - SMTP при email.enabled, иначе письма только логируются
func initializeMailer(cfg *config.Config) email.Sender {
	templates, err := email.NewDefaultTemplateManager()
	if err != nil {
		logger.Fatal("Failed to load email templates", "error", err)
	}

	smtpConfig := email.DefaultConfig()
	smtpConfig.FromEmail = cfg.Email.FromEmail
	smtpConfig.FromName = cfg.Email.FromName

	var provider email.Provider
	if cfg.Email.Enabled {
		smtpConfig.Host = cfg.Email.SMTPHost
		smtpConfig.Port = cfg.Email.SMTPPort
		smtpConfig.Username = cfg.Email.SMTPUsername
		smtpConfig.Password = cfg.Email.SMTPPassword

		smtp := email.NewSMTPProvider(smtpConfig)
		if err := smtp.Validate(); err != nil {
			logger.Fatal("Invalid SMTP configuration", "error", err)
		}
		provider = smtp
		logger.Info("Email delivery enabled", "host", smtpConfig.Host)
	} else {
		provider = email.NewLogProvider()
		logger.Warn("Email delivery disabled, messages are written to the log")
	}

	return email.NewMailer(provider, templates, smtpConfig.From())
}

func initializeHandlers(cfg *config.Config, services *services.ServiceContainer) *handlers.AppHandlers {
	customValidator := validator.New()
	baseHandler := handlers.NewBaseHandler(customValidator)

	return &handlers.AppHandlers{
		AuthHandler:    handlers.NewAuthHandler(baseHandler, services.AuthService, cfg.CookieExpiresIn()),
		UserHandler:    handlers.NewUserHandler(baseHandler, services.UserService),
		TourHandler:    handlers.NewTourHandler(baseHandler, services.TourService),
		ReviewHandler:  handlers.NewReviewHandler(baseHandler, services.ReviewService),
		BookingHandler: handlers.NewBookingHandler(baseHandler, services.BookingService),
		ViewHandler:    handlers.NewViewHandler(baseHandler, services.TourService, services.UserService, !cfg.IsProduction()),
		HealthHandler:  handlers.NewHealthHandler(baseHandler),
	}
}

func initializeGinRouter(cfg *config.Config, db *gorm.DB) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORSMiddleware(cfg.CORS.AllowedOrigins))
	router.Use(middleware.DBMiddleware(db))

	// без доверенных прокси ClientIP - адрес соединения
	var proxies []string
	if cfg.Server.TrustProxy {
		proxies = []string{"0.0.0.0/0", "::/0"}
	}
	if err := router.SetTrustedProxies(proxies); err != nil {
		logger.Fatal("Invalid trusted proxies", "error", err)
	}

	tmpl, err := views.Load()
	if err != nil {
		logger.Fatal("Failed to parse view templates", "error", err)
	}
	router.SetHTMLTemplate(tmpl)

	return router
}

// seedFirstAdmin создает администратора из first_admin_email/first_admin_password, если его нет
func seedFirstAdmin(db *gorm.DB, users repositories.UserRepository, cfg *config.Config) error {
	adminEmail := cfg.FirstAdminEmail
	adminPassword := cfg.FirstAdminPassword

	if adminEmail == "" || adminPassword == "" {
		logger.Warn("First admin credentials are not set, skipping admin seeding")
		return nil
	}

	_, err := users.FindByEmail(db, adminEmail)
	if err == nil {
		logger.Info("Admin user already exists, skipping creation", "email", adminEmail)
		return nil
	}
	if !errors.Is(err, repositories.ErrUserNotFound) {
		return fmt.Errorf("failed to check for admin user: %w", err)
	}

	hashedPassword, err := auth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &models.User{
		Name:         "Admin",
		Email:        adminEmail,
		PasswordHash: hashedPassword,
		Role:         models.UserRoleAdmin,
		Active:       true,
	}
	if err := users.Create(db, admin); err != nil {
		// деактивированная запись с тем же email
		if errors.Is(err, repositories.ErrUserAlreadyExists) {
			logger.Warn("Admin email belongs to an inactive account, skipping creation", "email", adminEmail)
			return nil
		}
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	logger.Info("Created first admin user", "email", adminEmail)
	return nil
}
