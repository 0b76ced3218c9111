package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/tendant/simple-orgs/internal/httputil"
	"github.com/tendant/simple-orgs/pkg/apikey"
	"github.com/tendant/simple-orgs/pkg/domain"
	"github.com/tendant/simple-orgs/pkg/repository"
)

type contextKey string

// AuthContextKey is the context key for the resolved caller identity.
const AuthContextKey contextKey = "auth_context"

// AccessTokenClaims represents the claims in an access token.
type AccessTokenClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

// AuthConfig holds configuration for the caller-identity middleware.
type AuthConfig struct {
	JWTSecret   []byte
	Issuer      string
	Memberships *repository.MembershipsRepository
	APIKeys     *apikey.Service
}

// Auth resolves the incoming credential into an AuthContext: an X-API-Key
// header becomes a credential context bound to one organization; a bearer JWT
// becomes a user context with the membership list materialized once per
// request. Downstream handlers never re-derive that list.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rawKey := r.Header.Get("X-API-Key"); rawKey != "" {
				authCtx, err := cfg.APIKeys.Validate(r.Context(), rawKey)
				if err != nil {
					httputil.Error(w, http.StatusUnauthorized, "invalid or expired api key")
					return
				}
				next.ServeHTTP(w, r.WithContext(withAuthContext(r.Context(), authCtx)))
				return
			}

			var tokenString string
			authHeader := r.Header.Get("Authorization")
			if authHeader != "" {
				parts := strings.SplitN(authHeader, " ", 2)
				if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
					tokenString = parts[1]
				}
			}
			if tokenString == "" {
				httputil.Error(w, http.StatusUnauthorized, "missing authorization")
				return
			}

			claims := &AccessTokenClaims{}
			opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
			if cfg.Issuer != "" {
				opts = append(opts, jwt.WithIssuer(cfg.Issuer))
			}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
				}
				return cfg.JWTSecret, nil
			}, opts...)
			if err != nil || !token.Valid {
				httputil.Error(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			userID, err := uuid.Parse(claims.Subject)
			if err != nil {
				httputil.Error(w, http.StatusUnauthorized, "invalid token subject")
				return
			}

			memberships, err := cfg.Memberships.ListByUserID(r.Context(), userID)
			if err != nil {
				httputil.Error(w, http.StatusInternalServerError, "failed to resolve caller identity")
				return
			}
			materialized := make([]domain.Membership, 0, len(memberships))
			for _, m := range memberships {
				materialized = append(materialized, *m)
			}

			authCtx := domain.NewUserContext(domain.AuthUser{
				ID:          userID,
				Email:       claims.Email,
				Memberships: materialized,
			})
			next.ServeHTTP(w, r.WithContext(withAuthContext(r.Context(), authCtx)))
		})
	}
}

func withAuthContext(ctx context.Context, authCtx domain.AuthContext) context.Context {
	return context.WithValue(ctx, AuthContextKey, authCtx)
}

// GetAuthContext extracts the resolved caller identity from the request
// context.
func GetAuthContext(ctx context.Context) (domain.AuthContext, bool) {
	authCtx, ok := ctx.Value(AuthContextKey).(domain.AuthContext)
	return authCtx, ok
}
