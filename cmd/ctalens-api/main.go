package main

import (
	"database/sql"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"ctalens/internal/cache"
	"ctalens/internal/capture"
	"ctalens/internal/config"
	server "ctalens/internal/http"
	"ctalens/internal/migrate"
	"ctalens/internal/store"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	cfg := config.Load(*configPath)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{}))

	deps := server.Deps{Logger: logger}

	// Persistence is optional; without a DSN the API runs stateless.
	if cfg.Database.DSN != "" {
		// Run migrations on a short-lived connection
		if err := migrate.Run(cfg.Database.DSN); err != nil {
			log.Fatalf("migrations failed: %v", err)
		}

		// Create a shared *sql.DB with pooling for the Store
		db, err := sql.Open("pgx", cfg.Database.DSN)
		if err != nil {
			log.Fatalf("open db failed: %v", err)
		}
		db.SetMaxOpenConns(20)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)

		deps.Store = store.New(db)
	}

	if cfg.Redis.URL != "" {
		opt, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatalf("parse redis url failed: %v", err)
		}
		rdb := redis.NewClient(opt)
		deps.Redis = rdb
		if cfg.Cache.Enabled {
			deps.Cache = cache.NewRedisFromClient(rdb)
		}
	} else if cfg.Cache.Enabled {
		deps.Cache = cache.NewMemory()
	}

	if cfg.Capture.Enabled {
		deps.Capturer = capture.New(capture.Config{
			BrowserURL:    cfg.Capture.BrowserURL,
			Timeout:       time.Duration(cfg.Capture.TimeoutMs) * time.Millisecond,
			UserAgent:     cfg.Capture.UserAgent,
			RespectRobots: cfg.Capture.RespectRobots,
		})
	}

	s := server.NewServer(cfg, deps)
	if err := s.Listen(); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
