package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/georgemunganga/clockhouse-backend/internal/config"
	"github.com/georgemunganga/clockhouse-backend/internal/logging"
	"github.com/georgemunganga/clockhouse-backend/internal/modules/auth"
	"github.com/georgemunganga/clockhouse-backend/internal/modules/banner"
	"github.com/georgemunganga/clockhouse-backend/internal/modules/catalog"
	"github.com/georgemunganga/clockhouse-backend/internal/modules/dashboard"
	"github.com/georgemunganga/clockhouse-backend/internal/modules/enquiry"
	"github.com/georgemunganga/clockhouse-backend/internal/modules/user"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// app holds the wired services shared by every command.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *sql.DB
	redis  *redis.Client

	catalog   catalog.Service
	enquiries enquiry.Service
	banners   banner.Service
	users     user.Service
	userRepo  user.Repository
	dashboard dashboard.Service
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	logger.Info("connected to database")

	a := &app{cfg: cfg, logger: logger, db: db}

	catalogRepo := catalog.NewPostgresRepository(db)
	categories := catalog.NewCategoryProvider(catalogRepo, logger.With("component", "categories"),
		catalog.WithCategoryTTL(cfg.CategoryCacheTTL))
	a.catalog = catalog.NewService(catalogRepo, categories, a.productSetCache(ctx), logger.With("module", "catalog"))

	a.enquiries = enquiry.NewService(enquiry.NewPostgresRepository(db), logger.With("module", "enquiry"))
	a.banners = banner.NewService(banner.NewPostgresRepository(db), logger.With("module", "banner"))

	a.userRepo = user.NewPostgresRepository(db)
	a.users = user.NewService(a.userRepo, logger.With("module", "user"))

	a.dashboard = dashboard.NewService(dashboard.NewPostgresRepository(db), a.enquiries)
	return a, nil
}

// productSetCache uses Redis when REDIS_URL is set and reachable, otherwise process memory.
func (a *app) productSetCache(ctx context.Context) catalog.ProductSetCache {
	if a.cfg.RedisURL == "" {
		return catalog.NewMemoryProductSetCache(a.cfg.ProductCacheTTL)
	}
	opts, err := redis.ParseURL(a.cfg.RedisURL)
	if err != nil {
		a.logger.Warn("invalid REDIS_URL, using in-memory product cache", "error", err)
		return catalog.NewMemoryProductSetCache(a.cfg.ProductCacheTTL)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		a.logger.Warn("redis unreachable, using in-memory product cache", "error", err)
		client.Close()
		return catalog.NewMemoryProductSetCache(a.cfg.ProductCacheTTL)
	}
	a.redis = client
	a.logger.Info("product cache backed by redis", "addr", opts.Addr)
	return catalog.NewRedisProductSetCache(client, "catalog:products:", a.cfg.ProductCacheTTL)
}

func (a *app) Close() error {
	if a.redis != nil {
		a.redis.Close()
	}
	return a.db.Close()
}

func (a *app) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.Middleware(a.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := a.db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	catalogHandler := catalog.NewHandler(a.catalog)
	enquiryHandler := enquiry.NewHandler(a.enquiries)
	bannerHandler := banner.NewHandler(a.banners)

	// ── Storefront ──────────────────────────────────────────
	catalogHandler.RegisterRoutes(r)
	enquiryHandler.RegisterRoutes(r)
	bannerHandler.RegisterRoutes(r)

	// ── Dashboard ───────────────────────────────────────────
	authService := auth.NewService(a.cfg.JWTSecret, a.userRepo)
	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(auth.Middleware(authService, a.logger))
		catalogHandler.RegisterAdminRoutes(r)
		enquiryHandler.RegisterAdminRoutes(r)
		bannerHandler.RegisterAdminRoutes(r)
		user.NewHandler(a.users).RegisterAdminRoutes(r)
		dashboard.NewHandler(a.dashboard).RegisterAdminRoutes(r)
	})
	return r
}
