// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, per-chat turn serialization, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/finchat/go-finance-chat-backend/internal/aggregator"
	"github.com/finchat/go-finance-chat-backend/internal/ai"
	"github.com/finchat/go-finance-chat-backend/internal/config"
	"github.com/finchat/go-finance-chat-backend/internal/http/handlers"
	"github.com/finchat/go-finance-chat-backend/internal/http/middleware"
	"github.com/finchat/go-finance-chat-backend/internal/services"
)

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), turn serialization
// and rate limiting, CORS and security headers, health and metrics endpoints,
// and then mounts the public API.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII and token scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Rate limiter (per user/IP; webhook deliveries bypass)
//  8. CORS, security headers, gzip (turn stream excluded)
//
// The session gate and the per-chat turn lock are route-scoped, not global:
// webhook and /auth/* stay reachable without a token.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, agg aggregator.Client, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	apiBase := cfg.APIBasePath // e.g. "/api"
	turnPath := apiBase + "/chat"
	webhookPath := apiBase + "/plaid/webhook"

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			"Plaid-Verification", // webhook signature header
		},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Token-bucket rate limiter per user/IP. Aggregator webhook deliveries
	// are server-to-server and must never be throttled.
	r.Use(func(c *gin.Context) {
		if c.Request.Method == http.MethodPost && c.Request.URL.Path == webhookPath {
			middleware.MarkRateBypass(c)
		}
		c.Next()
	})
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 8) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
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
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
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

	// Compression. The turn endpoint streams SSE and must not be buffered.
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{turnPath})))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Swagger UI (off by default)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← db/model client/aggregator
	llmClient := ai.NewClient(cfg.LLM)
	turnSvc := &services.TurnService{
		DB:  db,
		LLM: cfg.LLM,
		Streamer: &ai.Streamer{
			Client:   llmClient,
			MaxSteps: cfg.LLM.MaxSteps,
		},
		Classifier: &ai.Classifier{
			Client:  llmClient,
			Model:   cfg.LLM.SmallModel,
			Timeout: cfg.LLM.AuxTimeout,
		},
		Titler: &ai.Titler{
			Client:  llmClient,
			Model:   cfg.LLM.SmallModel,
			Timeout: cfg.LLM.AuxTimeout,
			Locale:  language.English,
		},
		Drafter: &ai.Drafter{
			Client: llmClient,
			Model:  cfg.LLM.SmallModel,
		},
		MaxPromptRunes: 4000,
	}
	chatSvc := services.NewChatService(db)
	voteSvc := &services.VoteService{DB: db}
	financeSvc := &services.FinanceService{DB: db, Aggregator: agg}
	authSvc := &services.AuthService{
		DB:        db,
		JWTSecret: cfg.Auth.JWTSecret,
		TokenTTL:  cfg.Auth.TokenTTL,
	}

	h := handlers.New(turnSvc, chatSvc, voteSvc, financeSvc, authSvc)

	session := middleware.Session(func(token string) (string, error) {
		claims, err := authSvc.ParseToken(token)
		if err != nil {
			return "", err
		}
		return claims.Subject, nil
	})
	turnLock := middleware.NewTurnLock()

	// Auth-exempt surfaces.
	auth := r.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
	}
	r.POST(webhookPath, h.PlaidWebhook)

	// Protected API.
	api := groupWithPrefix(r, apiBase)
	api.Use(session)
	{
		// Turns
		api.POST("/chat", turnLock.Handler(), h.PostTurn)
		api.DELETE("/chat", h.DeleteChat)

		// Chats
		api.GET("/history", h.GetHistory)
		api.GET("/chat/:id/messages", h.ListChatMessages)
		api.PATCH("/chat/:id/visibility", h.UpdateChatVisibility)

		// Votes
		api.GET("/vote", h.ListVotes)
		api.PATCH("/vote", h.CastVote)

		// Financial link
		api.POST("/plaid/create-link-token", h.CreateLinkToken)
		api.POST("/plaid/exchange", h.ExchangePublicToken)
		api.POST("/plaid/transactions", h.SyncTransactions)
		api.GET("/plaid/status", h.LinkStatus)
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
