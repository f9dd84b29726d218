package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Respond writes a JSON response with the given status code. data is
// encoded as-is; handlers that want the success envelope wrap their
// payload with SuccessEnvelope.
func Respond(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

// SuccessEnvelope wraps any payload with the top-level "success": true
// discriminator clients switch on before reading the rest of the body.
type SuccessEnvelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

// RespondOK writes a 200 response wrapped in the success envelope.
func RespondOK(w http.ResponseWriter, data any) {
	Respond(w, http.StatusOK, SuccessEnvelope{Success: true, Data: data})
}

// ErrorResponse is the standard JSON error envelope.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// RespondError writes a JSON error response.
func RespondError(w http.ResponseWriter, status int, err string, message string) {
	Respond(w, status, ErrorResponse{
		Success: false,
		Error:   err,
		Message: message,
	})
}
