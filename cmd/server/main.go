package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"huahuacuna/internal/api"
	"huahuacuna/internal/config"
	"huahuacuna/internal/database"
	"huahuacuna/internal/handlers"
	"huahuacuna/internal/logging"
	"huahuacuna/internal/security"
	"huahuacuna/internal/service"
	"huahuacuna/internal/session"
)

func main() {
	// Load configuration
	cfg := config.Load()
	logging.Setup(cfg.LogLevel)
	if cfg.InsecureSecret() {
		log.Warn().Msg("SESSION_SECRET not set, using the development fallback; cookies, CSRF tokens and stored tokens are not protected")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startup := handlers.NewStartup(handlers.StepStorage, handlers.StepSessions, handlers.StepReady)

	sealer, err := session.NewSealer(cfg.SessionSecret)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to derive session key")
	}

	// Storage is connected before serving; restoring sessions happens in the background
	startup.SetCurrent(handlers.StepStorage)
	storage, closer, err := session.OpenStorage(ctx, session.OpenOptions{
		Backend: cfg.SessionStore,
		Database: database.Options{
			Type: cfg.DatabaseType,
			Path: cfg.DatabasePath,
			URL:  cfg.DatabaseURL,
		},
		Redis: redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		},
	})
	if err != nil {
		log.Fatal().Err(err).Str("store", cfg.SessionStore).Msg("failed to open session storage")
	}
	defer closer.Close()
	startup.Complete(handlers.StepStorage)

	store := session.NewStore(storage, sealer)

	templates, err := handlers.LoadTemplates()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load templates")
	}

	client := api.NewClient(cfg.APIBaseURL, api.WithTimeout(cfg.RequestTimeout))

	var mailer service.ResetMailer
	if !cfg.ShowResetToken {
		emailService, err := service.NewEmailService(ctx, cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL)
		if err != nil {
			log.Warn().Err(err).Msg("password reset email disabled")
		} else {
			mailer = emailService
		}
	}

	flows := service.NewFlows()
	authService := service.NewAuthService(client, store, flows, mailer, cfg.ShowResetToken)

	limiter := security.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
	go limiter.Run(ctx)

	router := handlers.NewRouter(handlers.Deps{
		Auth:       authService,
		Client:     client,
		Store:      store,
		Cookies:    security.NewCookieSessions(cfg.CookieName, cfg.SessionSecret, int(cfg.SessionDuration.Seconds())),
		CSRF:       security.NewCSRFGenerator(cfg.SessionSecret),
		Limiter:    limiter,
		Templates:  templates,
		Startup:    startup,
		StaticPath: cfg.StaticFilesPath,
		TrustProxy: cfg.TrustProxy,
	})

	go initializeSessions(ctx, store, startup)
	go sweepSessions(ctx, store, flows, cfg.SweepInterval)

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Str("api", cfg.APIBaseURL).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// initializeSessions restores persisted sessions; guarded pages show the
// loading page until it returns
func initializeSessions(ctx context.Context, store *session.Store, startup *handlers.Startup) {
	startup.SetCurrent(handlers.StepSessions)
	result, err := store.Initialize(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to load persisted sessions, starting empty")
	}
	startup.Complete(handlers.StepSessions)
	startup.SetCurrent(handlers.StepReady)
	startup.Complete(handlers.StepReady)
	log.Info().Int("sessions", result.Restored).Msg("server ready")
}

// sweepSessions periodically drops expired sessions and settled form state
func sweepSessions(ctx context.Context, store *session.Store, flows *service.Flows, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := store.Sweep(ctx)
			pruned := flows.Prune(interval)
			log.Info().Int("sessions", removed).Int("flows", pruned).Msg("expired sessions cleaned up")
		}
	}
}
