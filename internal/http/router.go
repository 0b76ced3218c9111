package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tendant/simple-orgs/internal/http/features/apikeys"
	"github.com/tendant/simple-orgs/internal/http/features/members"
	"github.com/tendant/simple-orgs/internal/http/features/orgs"
	"github.com/tendant/simple-orgs/internal/http/middleware"
	"github.com/tendant/simple-orgs/internal/httputil"
	"github.com/tendant/simple-orgs/pkg/apikey"
	"github.com/tendant/simple-orgs/pkg/org"
	"github.com/tendant/simple-orgs/pkg/repository"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Logger             *slog.Logger
	OrgService         *org.Service
	APIKeyService      *apikey.Service
	MembershipsRepo    *repository.MembershipsRepository
	JWTSecret          []byte
	JWTIssuer          string
	RateLimitEnabled   bool
	RateLimitRequests  int
	RateLimitWindow    time.Duration
	MaxRequestBodySize int64
}

// NewRouter creates a new HTTP router with all routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recover(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))
	if cfg.MaxRequestBodySize > 0 {
		r.Use(middleware.RequestSizeLimit(cfg.MaxRequestBodySize))
	}

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	rateLimit := middleware.NoRateLimit()
	if cfg.RateLimitEnabled {
		rateLimit = middleware.RateLimit(middleware.RateLimitConfig{
			Requests: cfg.RateLimitRequests,
			Window:   cfg.RateLimitWindow,
			Logger:   cfg.Logger,
		})
	}

	auth := middleware.Auth(middleware.AuthConfig{
		JWTSecret:   cfg.JWTSecret,
		Issuer:      cfg.JWTIssuer,
		Memberships: cfg.MembershipsRepo,
		APIKeys:     cfg.APIKeyService,
	})

	orgsHandler := orgs.NewHandler(cfg.Logger, cfg.OrgService)
	membersHandler := members.NewHandler(cfg.Logger, cfg.OrgService)
	apiKeysHandler := apikeys.NewHandler(cfg.Logger, cfg.APIKeyService)

	r.Route("/v1/orgs", func(r chi.Router) {
		r.Use(auth)
		r.Use(rateLimit)
		orgs.Routes(r, orgsHandler)
		r.Route("/{orgID}/members", func(r chi.Router) {
			members.Routes(r, membersHandler)
		})
		r.Route("/{orgID}/api-keys", func(r chi.Router) {
			apikeys.Routes(r, apiKeysHandler)
		})
	})

	return r
}
