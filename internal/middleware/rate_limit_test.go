package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mkovacic/portfolio/internal/limiter"
	"github.com/mkovacic/portfolio/internal/middleware"
	"github.com/mkovacic/portfolio/internal/telemetry/metrics"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRateLimitedRouter(rateLimiter middleware.RequestRateLimiter, message string) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/contact", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}).Methods("POST")
	r.Use(middleware.RateLimit(rateLimiter, message, metrics.NewTestManager()))
	return r
}

func doRequest(t *testing.T, r *mux.Router, clientIP string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest("POST", "/api/contact", nil)
	require.NoError(t, err)
	req.RemoteAddr = clientIP + ":51234"

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestRateLimit_rejectsOverCeiling(t *testing.T) {
	rateLimiter := limiter.NewFixedWindow(15*time.Minute, 3)
	r := newRateLimitedRouter(rateLimiter, "Too many contact form submissions, please try again later.")

	// first 3 submissions pass, the 4th within the window is rejected
	for i := 0; i < 3; i++ {
		rr := doRequest(t, r, "203.0.113.7")
		require.Equal(t, http.StatusCreated, rr.Code, "request %d", i+1)
	}

	rr := doRequest(t, r, "203.0.113.7")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.JSONEq(t,
		`{"success":false,"error":"Too many contact form submissions, please try again later."}`,
		rr.Body.String(),
	)

	// another client address is unaffected
	assert.Equal(t, http.StatusCreated, doRequest(t, r, "198.51.100.4").Code)
}

func TestRateLimit_headers(t *testing.T) {
	rateLimiter := limiter.NewFixedWindow(15*time.Minute, 2)
	r := newRateLimitedRouter(rateLimiter, "slow down")

	rr := doRequest(t, r, "203.0.113.7")
	assert.Equal(t, "2", rr.Header().Get("RateLimit-Limit"))
	assert.Equal(t, "1", rr.Header().Get("RateLimit-Remaining"))
	assert.NotEmpty(t, rr.Header().Get("RateLimit-Reset"))

	doRequest(t, r, "203.0.113.7")
	rr = doRequest(t, r, "203.0.113.7")
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "0", rr.Header().Get("RateLimit-Remaining"))
}

func TestRateLimit_independentInstances(t *testing.T) {
	// two logical limiters with independent state, like login vs contact
	loginLimiter := limiter.NewFixedWindow(15*time.Minute, 1)
	contactLimiter := limiter.NewFixedWindow(15*time.Minute, 1)

	loginRouter := newRateLimitedRouter(loginLimiter, "login limit")
	contactRouter := newRateLimitedRouter(contactLimiter, "contact limit")

	require.Equal(t, http.StatusCreated, doRequest(t, loginRouter, "203.0.113.7").Code)
	require.Equal(t, http.StatusTooManyRequests, doRequest(t, loginRouter, "203.0.113.7").Code)

	// exhausting the login limiter does not touch the contact one
	assert.Equal(t, http.StatusCreated, doRequest(t, contactRouter, "203.0.113.7").Code)
}
