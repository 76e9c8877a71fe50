package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mkovacic/portfolio/internal/auth"
	"github.com/mkovacic/portfolio/internal/middleware"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reverseString(s string) string {
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}

// newGateTestRouter mounts a few representative routes behind the auth
// middleware; protected handlers echo the identity found in the context.
func newGateTestRouter(t *testing.T, codec *auth.TokenCodec) *mux.Router {
	t.Helper()

	okHandler := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}
	protectedHandler := func(w http.ResponseWriter, r *http.Request) {
		identity, ok := auth.IdentityFromContext(r.Context())
		require.True(t, ok, "identity missing from request context")
		require.Equal(t, auth.RoleAdmin, identity.Role)
		w.WriteHeader(http.StatusOK)
	}

	r := mux.NewRouter()
	r.HandleFunc("/api/projects", okHandler).Methods("GET")
	r.HandleFunc("/api/projects", protectedHandler).Methods("POST")
	r.HandleFunc("/api/projects/{id}", okHandler).Methods("GET")
	r.HandleFunc("/api/projects/{id}", protectedHandler).Methods("DELETE")
	r.HandleFunc("/api/contact", okHandler).Methods("POST")
	r.HandleFunc("/api/contact", protectedHandler).Methods("GET")
	r.Use(middleware.NewAuthMiddlewareHandler(codec).AuthCheck())
	return r
}

func TestAuthCheck(t *testing.T) {
	codec := auth.NewTokenCodec("test-signing-secret", auth.TokenTTL)
	validToken, err := codec.Issue("admin", auth.RoleAdmin)
	require.NoError(t, err)

	foreignToken, err := auth.NewTokenCodec("other-secret", auth.TokenTTL).
		Issue("admin", auth.RoleAdmin)
	require.NoError(t, err)

	testCases := []struct {
		name               string
		method             string
		path               string
		authHeader         string
		expectedStatusCode int
		expectedError      string
	}{
		{
			name:               "public route without token",
			method:             "GET",
			path:               "/api/projects",
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "public route with id param",
			method:             "GET",
			path:               "/api/projects/42",
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "protected route without header",
			method:             "POST",
			path:               "/api/projects",
			expectedStatusCode: http.StatusUnauthorized,
			expectedError:      "Access denied. No token provided.",
		},
		{
			name:               "wrong scheme rejected like missing header",
			method:             "POST",
			path:               "/api/projects",
			authHeader:         "Token " + validToken,
			expectedStatusCode: http.StatusUnauthorized,
			expectedError:      "Access denied. No token provided.",
		},
		{
			name:               "bare token without scheme",
			method:             "POST",
			path:               "/api/projects",
			authHeader:         validToken,
			expectedStatusCode: http.StatusUnauthorized,
			expectedError:      "Access denied. No token provided.",
		},
		{
			name:               "valid token",
			method:             "POST",
			path:               "/api/projects",
			authHeader:         "Bearer " + validToken,
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "valid token on protected delete",
			method:             "DELETE",
			path:               "/api/projects/42",
			authHeader:         "Bearer " + validToken,
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "reversed token",
			method:             "POST",
			path:               "/api/projects",
			authHeader:         "Bearer " + reverseString(validToken),
			expectedStatusCode: http.StatusForbidden,
			expectedError:      "Invalid or expired token.",
		},
		{
			name:               "token signed with another secret",
			method:             "POST",
			path:               "/api/projects",
			authHeader:         "Bearer " + foreignToken,
			expectedStatusCode: http.StatusForbidden,
			expectedError:      "Invalid or expired token.",
		},
		{
			name:               "same path public for POST but protected for GET",
			method:             "GET",
			path:               "/api/contact",
			expectedStatusCode: http.StatusUnauthorized,
			expectedError:      "Access denied. No token provided.",
		},
		{
			name:               "contact form POST is public",
			method:             "POST",
			path:               "/api/contact",
			expectedStatusCode: http.StatusOK,
		},
	}

	r := newGateTestRouter(t, codec)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := http.NewRequest(tc.method, tc.path, nil)
			require.NoError(t, err)
			if tc.authHeader != "" {
				req.Header.Set("Authorization", tc.authHeader)
			}

			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			assert.Equal(t, tc.expectedStatusCode, rr.Code)
			if tc.expectedError != "" {
				assert.JSONEq(t,
					`{"success":false,"error":"`+tc.expectedError+`"}`,
					rr.Body.String(),
				)
			}
		})
	}
}

func TestAuthCheck_expiredToken(t *testing.T) {
	codec := auth.NewTokenCodec("test-signing-secret", auth.TokenTTL)

	expiredCodec := auth.NewTokenCodec("test-signing-secret", -time.Hour)
	expiredToken, err := expiredCodec.Issue("admin", auth.RoleAdmin)
	require.NoError(t, err)

	r := newGateTestRouter(t, codec)
	req, err := http.NewRequest("POST", "/api/projects", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+expiredToken)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	// expired and tampered tokens are indistinguishable for the caller
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.JSONEq(t, `{"success":false,"error":"Invalid or expired token."}`, rr.Body.String())
}
