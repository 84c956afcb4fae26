package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"contest_arena/internal/api"
	"contest_arena/internal/api/middleware"
	"contest_arena/internal/app/wiring"
	"contest_arena/internal/common/security"
	"contest_arena/internal/platform/cache"
	"contest_arena/internal/platform/config"
	"contest_arena/internal/platform/database"
	"contest_arena/internal/platform/judge"
	"contest_arena/internal/platform/logger"
	"contest_arena/migrations"
)

func main() {
	config.Load()
	cfg := config.AppConfig
	logger.Init(cfg.Environment)
	logger.Info().Str("env", cfg.Environment).Msg("Configuration loaded")

	security.InitJWT()

	database.Connect()
	defer database.Close()

	if cfg.MigrateOnStart {
		ran, err := database.RunMigrations(context.Background(), database.DB, migrations.FS)
		if err != nil {
			logger.Fatal().Err(err).Msg("Migrations failed")
		}
		logger.Info().Strs("applied", ran).Msg("Migrations complete")
	}

	cache.ConnectRedis()
	defer cache.CloseRedis()

	if len(cfg.JudgeAPIKeys) == 0 {
		logger.Warn().Msg("JUDGE_API_KEYS is empty, judge requests are sent without authorization")
	}
	gateway := judge.NewClient(cfg.JudgeBaseURL, cfg.JudgeAPIKeys, cfg.JudgeTimeout)
	services := wiring.NewServices(cfg, database.DB, cache.RDB, gateway)

	limiterCtx, stopLimiter := context.WithCancel(context.Background())
	defer stopLimiter()
	limiter := middleware.NewIPRateLimiter(cfg.APIRateLimitRPS, cfg.APIRateLimitBurst)
	go limiter.Run(limiterCtx)

	router := api.NewRouter(
		api.RouterOptions{AllowedOrigins: cfg.CORSAllowedOrigins, Limiter: limiter},
		services.Problems,
		services.Contests,
		services.Submissions,
		services.Leaderboard,
		services.Users,
	)

	server := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: router,
		// Submission polls wait on one judge round trip.
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.JudgeTimeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info().Str("port", cfg.APIPort).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Str("port", cfg.APIPort).Msg("Could not listen")
		}
	}()

	<-stop

	logger.Info().Msg("Shutting down server...")
	stopLimiter()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("Server shutdown failed")
	}
	logger.Info().Msg("Server stopped gracefully")
}
