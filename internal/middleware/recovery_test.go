package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mkovacic/portfolio/internal/middleware"
	"github.com/mkovacic/portfolio/internal/telemetry/metrics"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPanicRecovery(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/boom", func(w http.ResponseWriter, r *http.Request) {
		panic("kaboom")
	}).Methods("GET")
	r.Use(middleware.PanicRecovery(metrics.NewTestManager()))

	req, err := http.NewRequest("GET", "/boom", nil)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	require.NotPanics(t, func() {
		r.ServeHTTP(rr, req)
	})

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"success":false,"error":"Internal server error"}`, rr.Body.String())
}
