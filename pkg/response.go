package pkg

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"
)

var ContentType = struct {
	Text string
	JSON string
	HTML string
}{
	Text: "text/plain",
	JSON: "application/json",
	HTML: "text/html",
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type dataResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

func WriteResponse(w http.ResponseWriter, contentType, message string, statusCode int) {
	WriteResponseBytes(w, contentType, []byte(message), statusCode)
}

func WriteResponseBytes(w http.ResponseWriter, contentType string, message []byte, statusCode int) {
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}

	w.WriteHeader(statusCode)

	if _, err := w.Write(message); err != nil {
		log.Errorf("failed to write response [%s]: %s", message, err)
	}
}

func WriteTextResponseOK(w http.ResponseWriter, message string) {
	WriteResponse(w, ContentType.Text, message, http.StatusOK)
}

func WriteJSONResponseOK(w http.ResponseWriter, message string) {
	WriteResponse(w, ContentType.JSON, message, http.StatusOK)
}

// WriteAPIError writes the API error envelope: {"success": false, "error": <message>}.
func WriteAPIError(w http.ResponseWriter, message string, statusCode int) {
	respBytes, err := json.Marshal(errorResponse{Success: false, Error: message})
	if err != nil {
		// cannot really happen for a flat struct, but never send a half-built body
		log.Errorf("marshal error response: %s", err)
		http.Error(w, message, statusCode)
		return
	}
	WriteResponseBytes(w, ContentType.JSON, respBytes, statusCode)
}

// WriteAPIData writes the API success envelope: {"success": true, "data": <data>}.
func WriteAPIData(w http.ResponseWriter, data any, statusCode int) {
	respBytes, err := json.Marshal(dataResponse{Success: true, Data: data})
	if err != nil {
		log.Errorf("marshal data response: %s", err)
		WriteAPIError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	WriteResponseBytes(w, ContentType.JSON, respBytes, statusCode)
}

// WriteAPIDataBytes wraps already marshalled JSON in the success envelope,
// used when the data bytes come straight from a cache.
func WriteAPIDataBytes(w http.ResponseWriter, dataJson []byte, statusCode int) {
	respBytes := make([]byte, 0, len(dataJson)+32)
	respBytes = append(respBytes, []byte(`{"success":true,"data":`)...)
	respBytes = append(respBytes, dataJson...)
	respBytes = append(respBytes, '}')
	WriteResponseBytes(w, ContentType.JSON, respBytes, statusCode)
}

// WriteAPIJSON marshals any payload as-is, for responses that carry
// extra top level fields next to "success".
func WriteAPIJSON(w http.ResponseWriter, payload any, statusCode int) {
	respBytes, err := json.Marshal(payload)
	if err != nil {
		log.Errorf("marshal response payload: %s", err)
		WriteAPIError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	WriteResponseBytes(w, ContentType.JSON, respBytes, statusCode)
}
