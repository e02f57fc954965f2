// Package auth resolves the tenant of a request from an already issued bearer token.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrMissingToken  = errors.New("missing bearer token")
	ErrMissingTenant = errors.New("token carries no tenant")
)

// Claims are the token fields the API relies on.
type Claims struct {
	TenantID string `json:"tenant_id"`
	jwt.RegisteredClaims
}

type ctxKey struct{}

// WithTenant stores the tenant on ctx.
func WithTenant(ctx context.Context, tenantID uuid.UUID) context.Context {
	return context.WithValue(ctx, ctxKey{}, tenantID)
}

// Tenant returns the tenant stored by Middleware. It is uuid.Nil outside an authenticated route.
func Tenant(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(ctxKey{}).(uuid.UUID)
	return id
}

// Middleware rejects requests without a valid HS256 token and stores the
// tenant claim on the request context.
func Middleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenantID, err := TenantFromHeader(r.Header.Get("Authorization"), secret)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="despacho"`)
				http.Error(w, err.Error(), http.StatusUnauthorized)

				return
			}

			next.ServeHTTP(w, r.WithContext(WithTenant(r.Context(), tenantID)))
		})
	}
}

// TenantFromHeader validates an Authorization header value and returns its tenant.
func TenantFromHeader(header string, secret []byte) (uuid.UUID, error) {
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return uuid.Nil, ErrMissingToken
	}

	var claims Claims

	_, err := jwt.ParseWithClaims(strings.TrimSpace(raw), &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims.TenantID == "" {
		return uuid.Nil, ErrMissingTenant
	}

	tenantID, err := uuid.Parse(claims.TenantID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid tenant claim: %w", err)
	}

	return tenantID, nil
}
