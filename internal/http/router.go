// Package http exposes the analysis engine over a Fiber API.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"ctalens/internal/cache"
	"ctalens/internal/capture"
	"ctalens/internal/config"
	"ctalens/internal/metrics"
	"ctalens/internal/predict"
	"ctalens/internal/retrypolicy"
	"ctalens/internal/store"
)

type Server struct {
	app    *fiber.App
	config *config.Config
	store  *store.Store
	logger *slog.Logger
}

// Deps are the server's collaborators. Store, Cache, and Capturer may
// be nil; the affected endpoints degrade rather than fail.
type Deps struct {
	Store    *store.Store
	Cache    cache.Service
	Capturer *capture.Capturer
	Redis    *redis.Client
	Logger   *slog.Logger
}

func NewServer(cfg *config.Config, deps Deps) *Server {
	app := fiber.New()

	engine := predict.NewEngine()
	retryPolicy := retrypolicy.Policy{
		MaxAttempts:    cfg.Retry.MaxAttempts,
		InitialBackoff: time.Duration(cfg.Retry.InitialBackoffMs) * time.Millisecond,
	}
	if retryPolicy.MaxAttempts <= 0 {
		retryPolicy = retrypolicy.Default()
	}

	// Inject config and collaborators into context for handlers
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("config", cfg)
		c.Locals("store", deps.Store)
		c.Locals("cache", deps.Cache)
		c.Locals("capturer", deps.Capturer)
		c.Locals("engine", engine)
		c.Locals("retry", retryPolicy)
		return c.Next()
	})

	// Request logging + metrics middleware
	app.Use(func(c *fiber.Ctx) error {
		start := time.Now()

		// Ensure a request ID exists
		reqID := c.Get("X-Request-Id")
		if reqID == "" {
			reqID = uuid.New().String()
		}
		c.Locals("request_id", reqID)
		if deps.Logger != nil {
			c.Locals("logger", deps.Logger)
		}

		err := c.Next()

		latency := time.Since(start)
		status := c.Response().StatusCode()
		method := c.Method()
		path := c.Path()

		metrics.RecordRequest(method, path, status, latency.Milliseconds())

		if deps.Logger != nil {
			deps.Logger.Info("request",
				"request_id", reqID,
				"method", method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		}

		return err
	})

	// Health endpoints
	app.Get("/healthz", func(c *fiber.Ctx) error {
		// Shallow health: process is up
		if c.Query("deep") != "true" {
			return c.JSON(fiber.Map{"status": "ok"})
		}

		// Deep health: check DB and Redis connectivity.
		ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
		defer cancel()

		dbStatus := "disabled"
		if deps.Store != nil {
			dbStatus = "ok"
			if err := deps.Store.Ping(ctx); err != nil {
				dbStatus = "error"
			}
		}

		redisStatus := "disabled"
		if deps.Redis != nil {
			if err := deps.Redis.Ping(ctx).Err(); err != nil {
				redisStatus = "error"
			} else {
				redisStatus = "ok"
			}
		}

		captureStatus := "disabled"
		if cfg.Capture.Enabled {
			captureStatus = "enabled"
		}

		status := "ok"
		if dbStatus == "error" || redisStatus == "error" {
			status = "error"
		}

		return c.JSON(fiber.Map{
			"status":  status,
			"db":      dbStatus,
			"redis":   redisStatus,
			"capture": captureStatus,
		})
	})

	// Prometheus-style metrics endpoint
	app.Get("/metrics", func(c *fiber.Ctx) error {
		c.Type("text/plain")
		return c.SendString(metrics.Export())
	})

	v1 := app.Group("/v1")
	v1.Post("/analyze", analyzeHandler)
	v1.Post("/postclick", postClickHandler)
	v1.Post("/funnel", funnelHandler)
	v1.Get("/analyses/:id", getAnalysisHandler)
	v1.Get("/analyses", listAnalysesHandler)

	return &Server{
		app:    app,
		config: cfg,
		store:  deps.Store,
		logger: deps.Logger,
	}
}

func (s *Server) Listen() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	return s.app.Listen(addr)
}

// App exposes the underlying Fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}
