package pkg

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteResponse(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteResponse(rr, ContentType.Text, "hello there", http.StatusCreated)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, ContentType.Text, rr.Header().Get("Content-Type"))
	assert.Equal(t, "hello there", rr.Body.String())
}

func TestWriteAPIError(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteAPIError(rr, "Invalid credentials", http.StatusUnauthorized)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, ContentType.JSON, rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"success":false,"error":"Invalid credentials"}`, rr.Body.String())
}

func TestWriteAPIData(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteAPIData(rr, []string{"one", "two"}, http.StatusOK)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success":true,"data":["one","two"]}`, rr.Body.String())
}
