// Command server runs the interview-question generation backend: a REST API
// over an encrypted credential vault, an asynchronous generation pipeline, and
// per-user favorites, profile, and activity resources.
//
// Configuration comes from the environment (optionally via a .env file in
// development); see internal/config for every knob and its default.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	_ "github.com/jd2q/go-interview-backend/docs"
	"github.com/jd2q/go-interview-backend/internal/config"
	httpapi "github.com/jd2q/go-interview-backend/internal/http"
	"github.com/jd2q/go-interview-backend/internal/llm"
	"github.com/jd2q/go-interview-backend/internal/observability"
	"github.com/jd2q/go-interview-backend/internal/repo"
	"github.com/jd2q/go-interview-backend/internal/sysutil"
	"github.com/jd2q/go-interview-backend/internal/vault"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

// @title           Interview Question Generator API
// @version         1.0
// @description     REST API for vaulting third-party API credentials and generating structured interview questions from job descriptions.
// @BasePath        /api/v1
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT.
func main() {
	// .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	gin.SetMode(cfg.GinMode)
	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing (no-op when disabled)
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(c); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	// Storage
	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database failed")
	}
	if cfg.OTEL.Enabled {
		if err := repo.EnableTracing(db); err != nil {
			log.Warn().Err(err).Msg("gorm tracing plugin failed")
		}
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	// Vault cipher for credential material
	cipher, err := vault.NewCipherFromHex(cfg.Vault.MasterKeyHex)
	if err != nil {
		log.Fatal().Err(err).Msg("vault cipher init failed")
	}

	// External reasoning engine
	engine := llm.NewGeminiGenerator(cfg.Generation.Model, cfg.Generation.MinQuestions)

	r := gin.New()
	drain := httpapi.RegisterRoutes(r, httpapi.Deps{DB: db, Engine: engine, Cipher: cipher}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	// Stop accepting requests, then let in-flight generations finish. The
	// pipeline runs detached from HTTP requests, so server shutdown alone
	// does not cover it.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	drain()

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("server stopped")
}
