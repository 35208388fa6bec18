package pkg

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"
)

var ContentType = struct {
	JSON string
	Text string
}{
	JSON: "application/json",
	Text: "text/plain; charset=utf-8",
}

// ErrorResponse is the only error shape clients ever see.
type ErrorResponse struct {
	Error string `json:"error"`
}

func WriteResponseBytes(w http.ResponseWriter, contentType string, message []byte, statusCode int) {
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}

	w.WriteHeader(statusCode)

	if len(message) == 0 {
		return
	}

	if _, err := w.Write(message); err != nil {
		log.Errorf("failed to write response [%s]: %s", message, err)
	}
}

// WriteJSONResponse marshals v and writes it with the given status code.
// A value that cannot be marshalled ends up as a 500 error response.
func WriteJSONResponse(w http.ResponseWriter, statusCode int, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Errorf("marshal response of type %T: %s", v, err)
		WriteJSONError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteResponseBytes(w, ContentType.JSON, payload, statusCode)
}

func WriteJSONResponseOK(w http.ResponseWriter, v any) {
	WriteJSONResponse(w, http.StatusOK, v)
}

func WriteJSONError(w http.ResponseWriter, statusCode int, message string) {
	payload, err := json.Marshal(ErrorResponse{Error: message})
	if err != nil {
		// cannot happen for a struct with a single string field
		payload = []byte(`{"error":"Internal server error"}`)
	}
	WriteResponseBytes(w, ContentType.JSON, payload, statusCode)
}
