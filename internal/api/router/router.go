package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/symptom-scout/internal/chat"
	httpmiddleware "github.com/wolfman30/symptom-scout/internal/http/middleware"
	"github.com/wolfman30/symptom-scout/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	ChatHandler        *chat.Handler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	ClinicianToken     string

	// Per-IP limit for the chat API. Zero disables limiting.
	RateLimitRPS   float64
	RateLimitBurst int
	// Done stops background work owned by the router (limiter eviction).
	Done <-chan struct{}
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", cfg.ChatHandler.HealthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Group(func(api chi.Router) {
		if cfg.RateLimitRPS > 0 {
			api.Use(httpmiddleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst, cfg.Done, cfg.Logger))
		}

		api.Get("/ws", cfg.ChatHandler.HandleWebSocket)

		api.Route("/api", func(r chi.Router) {
			r.Use(middleware.Compress(5))
			r.Get("/symptoms", cfg.ChatHandler.ListSymptoms)
			r.With(requireClinicianToken(cfg.ClinicianToken)).Post("/assess", cfg.ChatHandler.Assess)

			r.Post("/sessions", cfg.ChatHandler.CreateSession)
			r.Route("/sessions/{id}", func(s chi.Router) {
				s.Get("/", cfg.ChatHandler.GetSession)
				s.Post("/symptom", cfg.ChatHandler.SelectSymptom)
				s.Post("/reply", cfg.ChatHandler.Reply)
				s.Post("/decision", cfg.ChatHandler.Decide)
				s.Post("/email", cfg.ChatHandler.SubmitEmail)
				s.Post("/reset", cfg.ChatHandler.Reset)
			})
		})
	})

	return r
}
