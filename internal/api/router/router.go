package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/openclaw/hr-agency-api/internal/articles"
	httpmiddleware "github.com/openclaw/hr-agency-api/internal/http/middleware"
	"github.com/openclaw/hr-agency-api/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger          *logging.Logger
	LeadHandler     http.Handler
	ArticlesHandler *articles.Handler
	AdminJWTSecret  string
	AdminPanelToken string
	MetricsHandler  http.Handler

	CORSAllowedOrigins []string

	// Per-IP budget for admin write endpoints.
	AdminWriteRatePerSecond float64
	AdminWriteBurst         int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMethodNotAllowed)
		w.Write([]byte(`{"ok":false,"error":"Method not allowed"}`))
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api", func(api chi.Router) {
		// The lead handler does its own method gating so non-POST requests
		// get the pipeline's JSON 405 body.
		api.Handle("/lead", cfg.LeadHandler)

		if cfg.ArticlesHandler != nil {
			api.Route("/articles", func(ar chi.Router) {
				ar.Get("/", cfg.ArticlesHandler.List)

				ar.Group(func(admin chi.Router) {
					perSecond := cfg.AdminWriteRatePerSecond
					burst := cfg.AdminWriteBurst
					if perSecond <= 0 {
						perSecond = 1
					}
					if burst <= 0 {
						burst = 5
					}
					admin.Use(httpmiddleware.RateLimit(perSecond, burst))
					admin.Use(httpmiddleware.AdminAuth(cfg.AdminJWTSecret, cfg.AdminPanelToken))
					admin.Post("/", cfg.ArticlesHandler.Create)
					admin.Put("/", cfg.ArticlesHandler.Update)
					admin.Delete("/", cfg.ArticlesHandler.Delete)
				})
			})
		}
	})

	return r
}
