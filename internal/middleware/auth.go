package middleware

import (
	"net/http"
	"strings"

	"github.com/mkovacic/portfolio/internal/auth"
	"github.com/mkovacic/portfolio/internal/telemetry/tracing"
	"github.com/mkovacic/portfolio/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
)

const bearerPrefix = "Bearer "

type tokenVerifier interface {
	Verify(tokenString string) (auth.Identity, error)
}

var _ tokenVerifier = (*auth.TokenCodec)(nil)

type AuthMiddlewareHandler struct {
	codec tokenVerifier
	// routes reachable without a token, keyed by "<METHOD> <path template>"
	publicRoutes map[string]bool
}

func NewAuthMiddlewareHandler(codec tokenVerifier) *AuthMiddlewareHandler {
	return &AuthMiddlewareHandler{
		codec: codec,
		publicRoutes: map[string]bool{
			"GET /":       true,
			"GET /health": true,

			"POST /api/auth/login": true,

			// project showcase:
			"GET /api/projects":            true,
			"GET /api/projects/{id}":       true,
			"POST /api/projects/{id}/view": true,

			"GET /api/achievements":      true,
			"GET /api/achievements/{id}": true,

			// contact form submission (listing messages stays admin only):
			"POST /api/contact": true,

			// frontend instrumentation (aggregates stay admin only):
			"POST /api/analytics/page-view": true,
			"POST /api/analytics/event":     true,
		},
	}
}

func (h *AuthMiddlewareHandler) routeIsPublic(r *http.Request) bool {
	pathTemplate := r.URL.Path
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			pathTemplate = tpl
		}
	}
	return h.publicRoutes[r.Method+" "+pathTemplate]
}

// AuthCheck guards admin routes: it expects exactly "Authorization: Bearer
// <token>", verifies the token, and attaches the asserted identity to the
// request context. A missing or malformed header yields 401, a token that
// fails verification yields 403 - invalid signature and expiry are not
// distinguished to the caller.
func (h *AuthMiddlewareHandler) AuthCheck() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, span := tracing.GlobalTracer.Start(r.Context(), "middleware.auth")
			defer span.End()

			if r.Method == http.MethodOptions {
				w.Header().Add("Allow", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
				w.WriteHeader(http.StatusOK)
				span.SetStatus(codes.Ok, "options-ok")
				return
			}

			if h.routeIsPublic(r) {
				span.SetStatus(codes.Ok, "ok")
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, bearerPrefix) {
				log.Tracef("[missing token] [auth middleware] unauthorized => %s", r.URL.Path)
				span.SetStatus(codes.Error, "missing-auth-token")
				pkg.WriteAPIError(w, "Access denied. No token provided.", http.StatusUnauthorized)
				return
			}

			identity, err := h.codec.Verify(strings.TrimPrefix(authHeader, bearerPrefix))
			if err != nil {
				log.Tracef("[invalid token] [auth middleware] unauthorized => %s", r.URL.Path)
				span.SetStatus(codes.Error, "invalid-token")
				pkg.WriteAPIError(w, "Invalid or expired token.", http.StatusForbidden)
				return
			}

			span.SetStatus(codes.Ok, "ok")
			next.ServeHTTP(w, r.WithContext(
				auth.ContextWithIdentity(r.Context(), identity),
			))
		})
	}
}
