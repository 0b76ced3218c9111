// Package orgs provides an embeddable organization membership library:
// multi-tenant organizations, role-based memberships, a single primary
// organization per user, and organization-scoped API keys.
//
// Setup:
//
//  1. Run migrations from migrations/ folder using your preferred tool
//  2. Create an Orgs instance and mount its routes
//
// Basic usage:
//
//	db, _ := sql.Open("postgres", "postgres://localhost/myapp?sslmode=disable")
//
//	o, err := orgs.New(orgs.Config{
//	    DB:        db,
//	    JWTSecret: "your-secret-key-at-least-32-chars",
//	})
//	if err != nil {
//	    log.Fatal(err) // Will fail if migrations haven't been run
//	}
//
//	r := chi.NewRouter()
//	r.Mount("/", o.Router())
//	http.ListenAndServe(":8080", r)
package orgs

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	internalhttp "github.com/tendant/simple-orgs/internal/http"
	"github.com/tendant/simple-orgs/internal/http/middleware"
	"github.com/tendant/simple-orgs/pkg/apikey"
	"github.com/tendant/simple-orgs/pkg/domain"
	"github.com/tendant/simple-orgs/pkg/org"
	"github.com/tendant/simple-orgs/pkg/repository"
)

// Config holds the configuration for the orgs library.
type Config struct {
	// DB is the database connection (required).
	DB *sql.DB

	// JWTSecret is the secret key for verifying bearer tokens (required, min 32 chars).
	JWTSecret string

	// JWTIssuer is the expected issuer claim in bearer tokens (default: "simple-orgs").
	JWTIssuer string

	// APIKeyTTL is the default lifetime of issued API keys (default: 180 days).
	APIKeyTTL time.Duration

	// Logger is the structured logger (default: JSON to stdout).
	Logger *slog.Logger
}

// Orgs is the main organization membership instance.
type Orgs struct {
	config          Config
	db              *sql.DB
	orgsRepo        *repository.OrganizationsRepository
	membershipsRepo *repository.MembershipsRepository
	apiKeysRepo     *repository.APIKeysRepository
	orgService      *org.Service
	apiKeyService   *apikey.Service
}

// New creates a new Orgs instance with the given configuration.
// Returns an error if required database tables don't exist.
// Run migrations first - see migrations/ folder for SQL files.
func New(cfg Config) (*Orgs, error) {
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	if err := validateSchema(cfg.DB); err != nil {
		return nil, err
	}

	orgsRepo := repository.NewOrganizationsRepository(cfg.DB)
	membershipsRepo := repository.NewMembershipsRepository(cfg.DB)
	apiKeysRepo := repository.NewAPIKeysRepository(cfg.DB)

	orgService := org.NewService(cfg.DB, orgsRepo, membershipsRepo)
	apiKeyService := apikey.NewService(cfg.DB, apiKeysRepo, cfg.APIKeyTTL)

	return &Orgs{
		config:          cfg,
		db:              cfg.DB,
		orgsRepo:        orgsRepo,
		membershipsRepo: membershipsRepo,
		apiKeysRepo:     apiKeysRepo,
		orgService:      orgService,
		apiKeyService:   apiKeyService,
	}, nil
}

// Router returns a chi-based handler with all organization routes.
// Mount it at the root of your router:
//
//	r.Mount("/", o.Router())
//
// Routes:
//
//	GET    /v1/orgs                          - List visible organizations
//	POST   /v1/orgs                          - Create organization (caller becomes owner)
//	GET    /v1/orgs/mine                     - Caller's organizations with role, primary first
//	GET    /v1/orgs/{orgID}                  - Get organization
//	PATCH  /v1/orgs/{orgID}                  - Update organization
//	PUT    /v1/orgs/{orgID}/primary          - Set caller's primary organization
//	GET    /v1/orgs/{orgID}/members          - List members, owners first
//	POST   /v1/orgs/{orgID}/members          - Add member
//	GET    /v1/orgs/{orgID}/members/{userID} - Get membership
//	PATCH  /v1/orgs/{orgID}/members/{userID} - Change member role
//	DELETE /v1/orgs/{orgID}/members/{userID} - Remove member
//	GET    /v1/orgs/{orgID}/api-keys         - List API keys
//	POST   /v1/orgs/{orgID}/api-keys         - Issue API key (plaintext returned once)
//	DELETE /v1/orgs/{orgID}/api-keys/{keyID} - Revoke API key
func (o *Orgs) Router() http.Handler {
	return internalhttp.NewRouter(internalhttp.RouterConfig{
		Logger:          o.config.Logger,
		OrgService:      o.orgService,
		APIKeyService:   o.apiKeyService,
		MembershipsRepo: o.membershipsRepo,
		JWTSecret:       []byte(o.config.JWTSecret),
		JWTIssuer:       o.config.JWTIssuer,
	})
}

// Service returns the organization service for direct library usage.
func (o *Orgs) Service() *org.Service {
	return o.orgService
}

// APIKeys returns the API key service for direct library usage.
func (o *Orgs) APIKeys() *apikey.Service {
	return o.apiKeyService
}

// AuthMiddleware returns middleware that resolves the caller identity from an
// X-API-Key header or a bearer JWT. Use it to protect your own routes:
//
//	r.Group(func(r chi.Router) {
//	    r.Use(o.AuthMiddleware())
//	    r.Get("/protected", handler)
//	})
func (o *Orgs) AuthMiddleware() func(http.Handler) http.Handler {
	return middleware.Auth(middleware.AuthConfig{
		JWTSecret:   []byte(o.config.JWTSecret),
		Issuer:      o.config.JWTIssuer,
		Memberships: o.membershipsRepo,
		APIKeys:     o.apiKeyService,
	})
}

// GetAuthContext extracts the resolved caller identity from a request.
// Use after AuthMiddleware:
//
//	authCtx, ok := orgs.GetAuthContext(r)
func GetAuthContext(r *http.Request) (domain.AuthContext, bool) {
	return middleware.GetAuthContext(r.Context())
}

func validateConfig(cfg *Config) error {
	if cfg.DB == nil {
		return errors.New("orgs: DB is required")
	}
	if cfg.JWTSecret == "" {
		return errors.New("orgs: JWTSecret is required")
	}
	if len(cfg.JWTSecret) < 32 {
		return errors.New("orgs: JWTSecret must be at least 32 characters")
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.JWTIssuer == "" {
		cfg.JWTIssuer = "simple-orgs"
	}
	if cfg.APIKeyTTL == 0 {
		cfg.APIKeyTTL = apikey.DefaultTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
}

// validateSchema checks that required database tables exist.
func validateSchema(db *sql.DB) error {
	requiredTables := []string{"organizations", "memberships", "api_keys"}

	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public' AND table_name = $1
	`

	for _, table := range requiredTables {
		var name string
		err := db.QueryRow(query, table).Scan(&name)
		if err == sql.ErrNoRows {
			return fmt.Errorf("orgs: missing table '%s' - run migrations first (see migrations/ folder)", table)
		}
		if err != nil {
			return fmt.Errorf("orgs: failed to check schema: %w", err)
		}
	}

	return nil
}
