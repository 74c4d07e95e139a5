// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// authentication, idempotency, CORS, security headers, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Every data route behind bearer-token authentication
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/jd2q/go-interview-backend/internal/config"
	"github.com/jd2q/go-interview-backend/internal/http/handlers"
	"github.com/jd2q/go-interview-backend/internal/http/middleware"
	"github.com/jd2q/go-interview-backend/internal/llm"
	"github.com/jd2q/go-interview-backend/internal/repo"
	"github.com/jd2q/go-interview-backend/internal/services"
	"github.com/jd2q/go-interview-backend/internal/vault"
)

// Deps bundles the externally constructed dependencies the router needs. The
// engine and cipher are built in main (they hold credentials and network
// clients); everything else is derived here.
type Deps struct {
	DB     *gorm.DB
	Engine llm.Generator
	Cipher *vault.Cipher
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), idempotency and rate
// limiting, CORS and security headers, health, metrics, and Swagger endpoints,
// and then mounts the authenticated public API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with credential scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter and gzip
//  6. Metrics
//  7. Idempotency validator (before rate limiter to allow bypass on replay)
//  8. Rate limiter (per user/IP, bypass on replay)
//  9. CORS and security headers
//
// Authentication applies per group, not globally: /health, /metrics, and the
// Swagger UI stay public while everything under cfg.APIBasePath requires a
// valid bearer token.
//
// The returned drain function blocks until in-flight generation pipelines are
// terminal; call it during graceful shutdown after the listener stops.
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) (drain func()) {
	r.HandleMethodNotAllowed = true
	db := deps.DB

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction. Authorization and Idempotency-Key
	// are in the logger's built-in mask set.
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB) and response compression
	r.Use(limitBody(1 << 20))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			MaxLen: 200,
		},
		func(ctx context.Context, userID, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, userID, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	// 8) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 9) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// API docs (public, opt-in)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← db/cipher/engine
	actSvc := services.NewActivityService(db)
	credSvc := services.NewCredentialService(db, deps.Cipher, actSvc)
	genSvc := services.NewGenerationService(db, deps.Engine, deps.Cipher, actSvc)
	genSvc.Timeout = cfg.Generation.Timeout
	genSvc.MaxJDWords = cfg.Generation.MaxJDWords
	genSvc.MinQuestions = cfg.Generation.MinQuestions
	qSvc := services.NewQuestionService(db, deps.Engine, deps.Cipher, actSvc)
	qSvc.Timeout = cfg.Generation.AnswerTO
	favSvc := services.NewFavoriteService(db, actSvc)
	userSvc := services.NewUserService(db, actSvc)

	h := handlers.New(db, credSvc, genSvc, qSvc, favSvc, userSvc, actSvc)

	// Authenticated API
	api := groupWithPrefix(r, cfg.APIBasePath)
	api.Use(middleware.Auth(middleware.AuthOptions{
		Secret: []byte(cfg.Auth.JWTSecret),
		Issuer: cfg.Auth.Issuer,
	}))
	api.Use(ensureUser(userSvc))
	{
		// Credentials
		api.POST("/credentials", h.RegisterCredential)
		api.GET("/credentials", h.ListCredentials)
		api.DELETE("/credentials/:id", h.RemoveCredential)

		// Generations
		api.POST("/generations", h.SubmitGeneration)
		api.GET("/generations", h.ListGenerations)
		api.GET("/generations/:id", h.GetGeneration)
		api.GET("/generations/:id/questions", h.ListGenerationQuestions)
		api.GET("/generations/:id/export", h.ExportGeneration)

		// Questions
		api.GET("/questions/:id", h.GetQuestion)
		api.POST("/questions/:id/answer", h.GenerateAnswer)

		// Favorites
		api.POST("/favorites", h.AddFavorite)
		api.GET("/favorites", h.ListFavorites)
		api.DELETE("/favorites/:id", h.RemoveFavorite)

		// Profile and activity
		api.GET("/profile", h.GetProfile)
		api.PUT("/profile", h.UpdateProfile)
		api.GET("/activity", h.ListActivity)
	}

	return genSvc.Wait
}

// ensureUser upserts the local user row for the authenticated identity so
// foreign keys hold on the very first request. Identity comes from the token;
// the row is created or its email refreshed, never duplicated.
func ensureUser(userSvc *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := middleware.UserID(c)
		if !ok {
			handlers.Fail(c, http.StatusUnauthorized, handlers.ErrCodeUnauthorized, "missing or invalid credentials")
			return
		}
		if _, err := userSvc.Ensure(c.Request.Context(), uid, middleware.UserEmail(c)); err != nil {
			handlers.Fail(c, http.StatusInternalServerError, handlers.ErrCodeInternal, "internal error")
			return
		}
		c.Next()
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
