package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rakhabima/Boros-Lu-Miskin/internal/ai"
	"github.com/rakhabima/Boros-Lu-Miskin/internal/config"
	"github.com/rakhabima/Boros-Lu-Miskin/internal/database"
	"github.com/rakhabima/Boros-Lu-Miskin/internal/handler"
	"github.com/rakhabima/Boros-Lu-Miskin/internal/jobs"
	"github.com/rakhabima/Boros-Lu-Miskin/internal/linktoken"
	"github.com/rakhabima/Boros-Lu-Miskin/internal/metrics"
	"github.com/rakhabima/Boros-Lu-Miskin/internal/middleware"
	"github.com/rakhabima/Boros-Lu-Miskin/internal/redis"
	"github.com/rakhabima/Boros-Lu-Miskin/internal/repository"
	"github.com/rakhabima/Boros-Lu-Miskin/internal/service"
	"github.com/rakhabima/Boros-Lu-Miskin/internal/telegram"
)

func main() {
	godotenv.Load()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("APP_ENV") == "production"
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}
	log.Info().Msg("migrations applied")

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	signer, err := linktoken.NewSigner(cfg.TelegramLinkSecret)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid link token secret")
	}

	userRepo := repository.NewUserRepository(db.DB)
	sessionRepo := repository.NewSessionRepository(db.DB)
	expenseRepo := repository.NewExpenseRepository(db.DB)
	linkRepo := repository.NewTelegramLinkRepository(db.DB)
	oauthStateRepo := repository.NewOAuthStateRepository(db.DB)

	collector := metrics.NewCollector()
	tgClient := telegram.NewClient(cfg.TelegramBotToken)
	aiClient := ai.NewClient(
		cfg.OpenRouterAPIKey, cfg.OpenRouterModel, cfg.OpenRouterBaseURL,
		cfg.OpenRouterSiteURL, cfg.OpenRouterSiteName,
	)

	resolver := service.NewIdentityResolver(userRepo)
	authService := service.NewAuthService(userRepo, sessionRepo, cfg.SessionSecret, cfg.SessionTTL())
	oauthService := service.NewOAuthService(
		cfg.GoogleClientID, cfg.GoogleClientSecret,
		cfg.BackendOrigin+"/auth/google/callback",
		userRepo, oauthStateRepo, authService,
	)
	expenseService := service.NewExpenseService(expenseRepo)
	linkService := service.NewLinkService(
		linkRepo, signer, tgClient, collector, cfg.TelegramBotUsername, cfg.LinkTTL(),
	)
	insightService := service.NewInsightService(
		expenseRepo, aiClient, redisClient, collector, int64(cfg.AIDailyLimit),
	)

	sessionMiddleware := middleware.NewSessionMiddleware(sessionRepo, resolver, cfg.SessionSecret)
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(redisClient.Client, config.DefaultRateLimitPerMin)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)
	corsMiddleware := middleware.NewCORSMiddleware(cfg.FrontendOrigin)
	securityHeaders := middleware.NewSecurityHeadersMiddleware(isProduction)

	authHandler := handler.NewAuthHandler(authService, cfg.SessionTTL(), isProduction)
	oauthHandler := handler.NewOAuthHandler(oauthService, cfg.FrontendOrigin, cfg.SessionTTL(), isProduction)
	expenseHandler := handler.NewExpenseHandler(expenseService)
	insightHandler := handler.NewInsightHandler(insightService)
	telegramHandler := handler.NewTelegramHandler(
		linkService, tgClient, sessionMiddleware, cfg.TelegramWebhookSecret, cfg.BackendOrigin,
	)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(bodyLimitMiddleware.Handler)
	r.Use(securityHeaders.Handler)
	r.Use(corsMiddleware.Handler)
	r.Use(collector.Middleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})
	r.Method(http.MethodGet, "/metrics", collector.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.Signup)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.With(sessionMiddleware.Handler).Get("/me", authHandler.Me)
		r.Get("/google", oauthHandler.GoogleLogin)
		r.Get("/google/callback", oauthHandler.GoogleCallback)
	})

	r.Route("/expenses", func(r chi.Router) {
		r.Use(sessionMiddleware.Handler)
		r.Mount("/", expenseHandler.Routes())
	})

	r.Route("/insights", func(r chi.Router) {
		r.Use(sessionMiddleware.Handler)
		r.Use(rateLimitMiddleware.Handler)
		r.Mount("/", insightHandler.Routes())
	})

	r.Route("/integrations", func(r chi.Router) {
		r.Mount("/", telegramHandler.Routes())
	})

	cleanupJob := jobs.NewCleanupJob(sessionRepo, linkRepo, oauthStateRepo, config.CleanupJobInterval)
	cleanupJob.Start()
	defer cleanupJob.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
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
