package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"togethermiles-backend/internal/config"
	"togethermiles-backend/internal/db"
	"togethermiles-backend/internal/handlers"
	"togethermiles-backend/internal/middleware"
	"togethermiles-backend/internal/repository"
	"togethermiles-backend/internal/services"
	"togethermiles-backend/internal/stream"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Run() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	// Connect to database and apply migrations
	database, err := db.New(context.Background(), cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	if err := database.RunMigrations(cfg.Database.DSN()); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}
	log.Info().Msg("Database connection established")

	// Initialize repositories
	coupleRepo := repository.NewCoupleRepository(database.Pool)
	messageRepo := repository.NewMessageRepository(database.Pool)
	roundRepo := repository.NewRoundRepository(database.Pool)
	galleryRepo := repository.NewGalleryRepository(database.Pool)
	snapRepo := repository.NewSnapRepository(database.Pool)
	diaryRepo := repository.NewDiaryRepository(database.Pool)
	todoRepo := repository.NewTodoRepository(database.Pool)
	notificationRepo := repository.NewNotificationRepository(database.Pool)
	premiumRepo := repository.NewPremiumRepository(database.Pool)
	pushTokenRepo := repository.NewPushTokenRepository(database.Pool)

	// Initialize services
	blobStore, err := services.NewBlobStore(
		cfg.AWS.Region,
		cfg.AWS.S3Bucket,
		cfg.AWS.AccessKey,
		cfg.AWS.SecretKey,
		cfg.AWS.Endpoint,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create blob store")
	}

	var pusher services.Pusher
	if cfg.APNS.CertFile != "" {
		apns, err := services.NewAPNSPusher(
			cfg.APNS.CertFile,
			cfg.APNS.CertPass,
			cfg.APNS.Topic,
			cfg.APNS.Production,
			pushTokenRepo,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create APNS pusher")
		}
		pusher = apns
	} else {
		log.Info().Msg("APNS certificate not configured, push delivery disabled")
	}

	hub := stream.NewHub()
	tokenService := services.NewTokenService(cfg.JWT.Secret)
	pairingService := services.NewPairingService(coupleRepo, tokenService)
	notifier := services.NewNotifier(notificationRepo, hub, pusher)
	messageService := services.NewMessageService(messageRepo, coupleRepo, hub, notifier)
	roundService := services.NewRoundService(roundRepo, hub)
	galleryService := services.NewGalleryService(galleryRepo, coupleRepo, blobStore, hub, notifier)
	snapService := services.NewSnapService(snapRepo, coupleRepo, blobStore, hub, notifier)
	diaryService := services.NewDiaryService(diaryRepo, hub)
	todoService := services.NewTodoService(todoRepo, hub)
	premiumService := services.NewPremiumService(premiumRepo, blobStore)

	// Initialize handlers
	pairingHandler := handlers.NewPairingHandler(pairingService)
	messageHandler := handlers.NewMessageHandler(messageService)
	roundHandler := handlers.NewRoundHandler(roundService)
	galleryHandler := handlers.NewMediaHandler(galleryService, "gallery")
	snapHandler := handlers.NewMediaHandler(snapService, "snap")
	diaryHandler := handlers.NewDiaryHandler(diaryService)
	todoHandler := handlers.NewTodoHandler(todoService)
	notificationHandler := handlers.NewNotificationHandler(notifier, pushTokenRepo)
	premiumHandler := handlers.NewPremiumHandler(premiumService)
	wsHandler := handlers.NewWebSocketHandler(
		hub,
		tokenService,
		messageService,
		roundService,
		galleryService,
		snapService,
		diaryService,
		todoService,
		notifier,
	)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)

	// Routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/couples", pairingHandler.CreateCouple)
		r.Post("/couples/join", pairingHandler.JoinCouple)
		r.Post("/couples/sign-in", pairingHandler.SignIn)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(tokenService))

			r.Get("/messages", messageHandler.List)
			r.Post("/messages", messageHandler.Send)

			r.Get("/rounds", roundHandler.List)
			r.Post("/rounds", roundHandler.Create)
			r.Post("/rounds/{round_id}/answer", roundHandler.Answer)

			r.Get("/gallery", galleryHandler.List)
			r.Post("/gallery", galleryHandler.Create)
			r.Post("/gallery/upload-url", galleryHandler.UploadURL)
			r.Delete("/gallery/{photo_id}", galleryHandler.Delete)

			r.Get("/snaps", snapHandler.List)
			r.Post("/snaps", snapHandler.Create)
			r.Post("/snaps/upload-url", snapHandler.UploadURL)
			r.Delete("/snaps/{photo_id}", snapHandler.Delete)

			r.Get("/diary", diaryHandler.List)
			r.Post("/diary", diaryHandler.Create)
			r.Delete("/diary/{entry_id}", diaryHandler.Delete)

			r.Get("/todos", todoHandler.List)
			r.Post("/todos", todoHandler.Add)
			r.Patch("/todos/{todo_id}", todoHandler.SetStatus)

			r.Get("/notifications", notificationHandler.List)
			r.Post("/notifications/read", notificationHandler.MarkAllRead)
			r.Post("/notifications/push-token", notificationHandler.RegisterToken)

			r.Get("/premium", premiumHandler.List)
			r.Post("/premium", premiumHandler.Create)
			r.Post("/premium/{request_id}/screenshot-url", premiumHandler.ScreenshotURL)
			r.Post("/premium/{request_id}/screenshot", premiumHandler.AttachScreenshot)
		})
	})

	// WebSocket route
	r.Get("/ws", wsHandler.HandleWebSocket)

	// Metrics
	r.Handle("/metrics", promhttp.Handler())

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
