package httputil

import (
	"encoding/json"
	"log"
	"net/http"
)

// APIResponse is the uniform success envelope: {statusCode, success, message, data}.
type APIResponse struct {
	StatusCode int    `json:"statusCode"`
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Data       any    `json:"data,omitempty"`
}

// ErrorResponse is the uniform error envelope: {statusCode, success:false, message}.
type ErrorResponse struct {
	StatusCode int    `json:"statusCode"`
	Success    bool   `json:"success"`
	Message    string `json:"message"`
}

// RespondData sends a success envelope with the given payload and status code.
// Logs encoding errors to avoid silent failures.
func RespondData(w http.ResponseWriter, data any, message string, statusCode int) {
	writeJSON(w, APIResponse{
		StatusCode: statusCode,
		Success:    true,
		Message:    message,
		Data:       data,
	}, statusCode)
}

// RespondError sends an error envelope with the given message and status code.
func RespondError(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, ErrorResponse{
		StatusCode: statusCode,
		Success:    false,
		Message:    message,
	}, statusCode)
}

func writeJSON(w http.ResponseWriter, body any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("ERROR: failed to encode JSON response: %v", err)
	}
}
