package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// RouterConfig carries the handlers and middleware mounted by NewRouter
type RouterConfig struct {
	Validation     *ValidationHandler
	Preview        *PreviewHandler
	Auth           mux.MiddlewareFunc
	RateLimit      mux.MiddlewareFunc
	Network        string
	AllowedOrigins []string
}

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	router := mux.NewRouter()

	// Health check endpoint (no auth required)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":     "ok",
			"service":    "paper-registry",
			"blockchain": cfg.Network,
		})
	}).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()

	// Read-only ledger lookups
	api.HandleFunc("/records/{digest}", cfg.Validation.GetRecord).Methods(http.MethodGet)

	// Routes that accept uploads require a caller when auth is configured
	protected := api.PathPrefix("").Subrouter()
	protected.Use(passthroughIfNil(cfg.Auth))

	// Each validation can spend gas, so submissions are rate limited
	rateLimit := passthroughIfNil(cfg.RateLimit)
	protected.Handle("/validations", rateLimit(http.HandlerFunc(cfg.Validation.Validate))).Methods(http.MethodPost)

	protected.HandleFunc("/checks", cfg.Validation.Check).Methods(http.MethodPost)
	protected.HandleFunc("/previews", cfg.Preview.Create).Methods(http.MethodPost)
	protected.HandleFunc("/previews/{id}", cfg.Preview.Get).Methods(http.MethodGet)
	protected.HandleFunc("/previews/{id}", cfg.Preview.Delete).Methods(http.MethodDelete)
	protected.HandleFunc("/previews/{id}/page", cfg.Preview.RequestPage).Methods(http.MethodPost)
	protected.HandleFunc("/previews/{id}/frame", cfg.Preview.Frame).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
		},
		ExposedHeaders: []string{
			"Retry-After",
			"X-Preview-Page",
		},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	})

	return c.Handler(router)
}

func passthroughIfNil(mw mux.MiddlewareFunc) mux.MiddlewareFunc {
	if mw == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return mw
}
