package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"fellowship/internal/alerts"
	"fellowship/internal/assistant"
	"fellowship/internal/config"
	"fellowship/internal/database"
	"fellowship/internal/feeds"
	"fellowship/internal/handlers"
	"fellowship/internal/realtime"
	"fellowship/internal/reporting"
	"fellowship/internal/repository"
	"fellowship/internal/security"
	"fellowship/internal/service"
	"fellowship/internal/storage"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
	"golang.org/x/oauth2/google"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load configuration
	cfg := config.Load()

	reporter := reporting.New(cfg.RollbarToken, cfg.Environment, version)
	defer reporter.Close()

	proxies, err := security.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		log.Fatalf("Invalid TRUSTED_PROXIES: %v", err)
	}
	if proxies.Len() > 0 {
		log.Printf("Trusting forwarding headers from %d proxy range(s)", proxies.Len())
	}

	// Serve health checks while the rest of the server starts
	startup := handlers.DefaultStartupStatus()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", startup.Health)

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handlers.Logging(reporter, proxies.RealIP(startup.Gate(mux))),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database with config (supports sqlite, postgres, mysql)
	startup.SetCurrentStep(handlers.StepDatabase)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()
	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)
	startup.CompleteStep(handlers.StepDatabase)

	startup.SetCurrentStep(handlers.StepMigrations)
	if err := db.RunMigrations(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Migrations completed successfully")
	startup.CompleteStep(handlers.StepMigrations)

	startup.SetCurrentStep(handlers.StepRealtime)
	broker, err := newBroker(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to start realtime broker: %v", err)
	}
	defer broker.Close()
	startup.CompleteStep(handlers.StepRealtime)

	startup.SetCurrentStep(handlers.StepServices)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	churchRepo := repository.NewChurchRepository(db)
	sermonRepo := repository.NewSermonRepository(db)
	eventRepo := repository.NewEventRepository(db)
	prayerRepo := repository.NewPrayerRepository(db)
	galleryRepo := repository.NewGalleryRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	communityRepo := repository.NewCommunityRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	// External integrations. Each one falls back to a disabled implementation when unconfigured.
	writer, err := assistant.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.Debug)
	if err != nil {
		log.Printf("Warning: assistant unavailable: %v", err)
		writer = assistant.Disabled{}
	}
	notifier, err := alerts.New(cfg.TelegramBotToken, cfg.TelegramChatID)
	if err != nil {
		log.Printf("Warning: staff alerts unavailable: %v", err)
		notifier = alerts.Nop{}
	}
	emailService, err := service.NewEmailService(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}
	store, err := newStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize upload storage: %v", err)
	}
	uploader := storage.NewUploader(store, cfg.UploadMaxSize)

	// Initialize services
	authService := service.NewAuthService(userRepo, security.NewTokenIssuer(cfg.TokenSecret), emailService, cfg.SessionDuration)
	notificationService := service.NewNotificationService(notificationRepo, userRepo, broker)
	homeService := service.NewHomeService(settingsRepo, churchRepo, writer, notifier, emailService)
	sermonService := service.NewSermonService(sermonRepo, writer, feeds.NewReader())
	eventService := service.NewEventService(eventRepo, writer)
	prayerService := service.NewPrayerService(prayerRepo, writer, notifier)
	galleryService := service.NewGalleryService(galleryRepo, churchRepo, uploader)
	churchService := service.NewChurchService(churchRepo)
	groupService := service.NewGroupService(groupRepo, notificationService)
	communityService := service.NewCommunityService(communityRepo, notificationService, uploader)
	messagingService := service.NewMessagingService(messageRepo, userRepo, broker)
	searchService := service.NewSearchService(sermonRepo, eventRepo)
	dashboardService := service.NewDashboardService(sermonRepo, eventRepo, userRepo, prayerRepo)
	backupService := service.NewBackupService(db)

	csrf := security.NewCSRFGenerator(cfg.CSRFSecret)
	limiter := security.NewRateLimiter(cfg.RateLimit, cfg.RateLimitEvery)
	defer limiter.Stop()

	// Initialize handlers
	middleware := handlers.NewMiddleware(authService, csrf, limiter)
	authHandler := handlers.NewAuthHandler(authService, csrf, oauthProviders(cfg), cfg.OAuthRedirectBaseURL, cfg.AppBaseURL)
	routes := &router{
		mux:           mux,
		m:             middleware,
		auth:          authHandler,
		home:          handlers.NewHomeHandler(homeService, authHandler, cfg.AppName, writer.Enabled(), cfg.UploadMaxSize),
		sermons:       handlers.NewSermonHandler(sermonService),
		events:        handlers.NewEventHandler(eventService),
		prayers:       handlers.NewPrayerHandler(prayerService),
		gallery:       handlers.NewGalleryHandler(galleryService),
		church:        handlers.NewChurchHandler(churchService),
		groups:        handlers.NewGroupHandler(groupService),
		community:     handlers.NewCommunityHandler(communityService),
		notifications: handlers.NewNotificationHandler(notificationService),
		messages:      handlers.NewMessageHandler(messagingService),
		search:        handlers.NewSearchHandler(searchService),
		uploads:       handlers.NewUploadHandler(uploader, cfg.UploadMaxSize),
		admin:         handlers.NewAdminHandler(authService, dashboardService, notificationService, backupService),
	}
	routes.register()

	if local, ok := store.(*storage.LocalStore); ok {
		mux.Handle("GET /media/", http.StripPrefix("/media/", local.Handler()))
	}
	startup.CompleteStep(handlers.StepServices)

	// Start background jobs
	go cleanupExpired(ctx, authService)
	if cfg.SermonFeedURL != "" {
		go importSermonFeed(ctx, sermonService, cfg.SermonFeedURL, cfg.SermonFeedInterval)
	}

	startup.MarkReady()
	log.Println("Server ready")

	// Wait for interrupt signal
	<-ctx.Done()
	log.Println("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
}

// newBroker returns the realtime broker. Postgres deployments share events across instances.
func newBroker(ctx context.Context, cfg *config.Config) (realtime.Broker, error) {
	if cfg.RealtimeBackend == "postgres" {
		if cfg.DatabaseURL == "" {
			log.Println("Warning: REALTIME_BACKEND=postgres needs DATABASE_URL, using in-memory broker")
			return realtime.NewHub(), nil
		}
		return realtime.NewPostgresBroker(ctx, cfg.DatabaseURL)
	}
	return realtime.NewHub(), nil
}

// newStore returns the upload backend: a local directory or an S3 bucket
func newStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	if strings.EqualFold(cfg.StorageBackend, "s3") {
		log.Printf("Uploads stored in S3 bucket %s", cfg.S3Bucket)
		return storage.NewS3Store(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Endpoint, cfg.S3PublicBaseURL)
	}
	log.Printf("Uploads stored in %s", cfg.UploadDir)
	return storage.NewLocalStore(cfg.UploadDir, cfg.PublicMediaURL)
}

func oauthProviders(cfg *config.Config) map[string]handlers.OAuthProvider {
	return map[string]handlers.OAuthProvider{
		"google": {
			Name:  "google",
			Label: "Google",
			Config: &oauth2.Config{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				Endpoint:     google.Endpoint,
				Scopes:       []string{"openid", "email", "profile"},
			},
			UserInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
		},
		"facebook": {
			Name:  "facebook",
			Label: "Facebook",
			Config: &oauth2.Config{
				ClientID:     cfg.FacebookClientID,
				ClientSecret: cfg.FacebookClientSecret,
				Endpoint:     facebook.Endpoint,
				Scopes:       []string{"email", "public_profile"},
			},
			UserInfoURL: "https://graph.facebook.com/me?fields=id,name,email",
		},
	}
}

// cleanupExpired periodically removes expired sessions and reset tokens
func cleanupExpired(ctx context.Context, authService *service.AuthService) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if err := authService.CleanupExpiredSessions(); err != nil {
			log.Printf("Error cleaning up expired sessions: %v", err)
		} else {
			log.Println("Expired sessions cleaned up")
		}

		if err := authService.CleanupExpiredPasswordResetTokens(); err != nil {
			log.Printf("Error cleaning up expired reset tokens: %v", err)
		}
	}
}

// importSermonFeed pulls the podcast feed at startup and then on every interval
func importSermonFeed(ctx context.Context, sermons *service.SermonService, url string, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		imported, err := sermons.ImportFeed(ctx, url)
		if err != nil {
			log.Printf("Error importing sermon feed: %v", err)
		} else if imported > 0 {
			log.Printf("Imported %d sermons from feed", imported)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
