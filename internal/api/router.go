package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"skyarena/internal/game"
	"skyarena/internal/metrics"
)

// WorldInterface is the part of the world the control plane reads and
// changes. Tests substitute a fake.
type WorldInterface interface {
	Status() game.Status
	SetMode(mode string) error
	Leaderboard(n int) []game.LeaderboardEntry
	Latest() *game.Snapshot
}

// RouterConfig contains all dependencies needed to construct the HTTP router.
//
//	cfg := api.RouterConfig{
//	    World: world,
//	    RateLimitConfig: &api.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000},
//	}
//	ts := httptest.NewServer(api.NewRouter(cfg))
type RouterConfig struct {
	// World is required.
	World WorldInterface

	// RateLimiter is optional. If nil, one is built from RateLimitConfig.
	RateLimiter *IPRateLimiter

	// RateLimitConfig is only used when RateLimiter is nil.
	RateLimitConfig *RateLimitConfig

	// CORSOrigins defaults to localhost on any port.
	CORSOrigins []string

	// DisableLogging drops the request logger (benchmarks, tests).
	DisableLogging bool

	// Auth guards POST /api/mode. Nil or an empty secret leaves it open.
	Auth *AdminAuth

	// WebSocket is mounted at /ws when set.
	WebSocket http.Handler
}

type routerHandlers struct {
	world WorldInterface
}

// NewRouter constructs the HTTP router. It starts no goroutines other than
// the rate limiter's cleanup, so it is safe to use with httptest.NewServer.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)

	// Rate limiting before CORS to reject early
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}

	corsOrigins := cfg.CORSOrigins
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}
	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	h := &routerHandlers{world: cfg.World}

	r.Get("/healthz", h.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(rateLimiter.Middleware)
		r.Use(corsHandler)

		r.Get("/status", h.handleStatus)
		r.Get("/leaderboard", h.handleLeaderboard)
		r.Get("/state", h.handleState)

		r.With(cfg.Auth.Middleware).Post("/mode", h.handleSetMode)
	})

	if cfg.WebSocket != nil {
		r.Handle("/ws", cfg.WebSocket)
	}

	return r
}

// metricsMiddleware records latency per route pattern.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		pattern := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			pattern = rctx.RoutePattern()
		}
		if pattern == "/ws" {
			return
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.RecordRequest(r.Method, pattern, status, time.Since(start))
	})
}
