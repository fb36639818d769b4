package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/hugh/blogit/internal/api/handlers"
	"github.com/hugh/blogit/internal/api/middleware"
	"github.com/hugh/blogit/internal/auth"
	"github.com/hugh/blogit/internal/categories"
	"github.com/hugh/blogit/internal/posts"
	"github.com/hugh/blogit/internal/votes"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Router struct {
	chi.Router
}

type RouterConfig struct {
	DB             *gorm.DB
	Redis          *redis.Client
	Logger         *slog.Logger
	AuthService    auth.Authenticator
	Verifier       auth.CredentialVerifier
	Filter         *posts.Filter
	PostService    *posts.Service
	Tally          *votes.Tally
	Categories     *categories.Service
	MetricsHandler http.Handler // served at /metrics when set
	AllowedOrigins []string     // CORS allowed origins
	RateLimitReqs  int          // Rate limit requests per window
	RateLimitSecs  int          // Rate limit window in seconds
	TrustProxy     bool         // Key rate limits by forwarding headers
}

func NewRouter(cfg RouterConfig) *Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(middleware.Metrics)

	if cfg.RateLimitReqs > 0 {
		r.Use(middleware.RateLimit(cfg.RateLimitReqs, cfg.RateLimitSecs, cfg.TrustProxy))
	}

	// CORS - restrict to configured origins
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000", "http://localhost:8080"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", middleware.EmailHeader, middleware.TokenHeader},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Redis)
	sessionHandler := handlers.NewSessionHandler(cfg.AuthService, cfg.Logger)
	userHandler := handlers.NewUserHandler(cfg.AuthService, cfg.Logger)
	postHandler := handlers.NewPostHandler(cfg.Filter, cfg.PostService, cfg.Logger)
	voteHandler := handlers.NewVoteHandler(cfg.Tally, cfg.Logger)
	categoryHandler := handlers.NewCategoryHandler(cfg.Categories, cfg.Logger)

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		// Public endpoints
		r.Post("/sessions", sessionHandler.Create)
		r.Post("/users", userHandler.Create)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.Verifier, cfg.Logger))

			r.Get("/users/me", userHandler.Me)

			r.Route("/posts", func(r chi.Router) {
				r.Get("/", postHandler.List)
				r.Post("/", postHandler.Create)
				r.Put("/bulk_update", postHandler.BulkUpdate)
				r.Delete("/bulk_destroy", postHandler.BulkDestroy)
				r.Get("/{id}", postHandler.Get)
				r.Put("/{id}", postHandler.Update)
				r.Patch("/{id}", postHandler.Update)
				r.Delete("/{id}", postHandler.Delete)
				r.Post("/{id}/votes", voteHandler.Create)
			})

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", categoryHandler.List)
				r.Post("/", categoryHandler.Create)
			})
		})
	})

	return &Router{r}
}
