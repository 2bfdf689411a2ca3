package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Lazy-Perfectionist-Official/lazy-perfectionist/pkg/validator"
)

// Response helpers for consistent API responses

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// FailureResponse is an error response that also carries success:false
type FailureResponse struct {
	Error   string `json:"error"`
	Success bool   `json:"success"`
}

// SuccessResponse represents a successful response
type SuccessResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	// headers are already sent, nothing useful can be written on failure
	_ = json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, ErrorResponse{
		Error: message,
	})
}

// respondFailure sends an error response with success set to false
func respondFailure(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, FailureResponse{
		Error:   message,
		Success: false,
	})
}

// respondValidationError sends 400 with the offending fields listed in details
func respondValidationError(w http.ResponseWriter, message string, err error) {
	resp := ErrorResponse{
		Error: message,
		Code:  "validation_failed",
	}
	var fieldErr *validator.FieldError
	if errors.As(err, &fieldErr) {
		resp.Details = make(map[string]string, len(fieldErr.Fields))
		for _, f := range fieldErr.Fields {
			resp.Details[f] = "invalid"
		}
	}
	respondJSON(w, http.StatusBadRequest, resp)
}

// respondSuccess sends a success response
func respondSuccess(w http.ResponseWriter, statusCode int, data any) {
	respondJSON(w, statusCode, SuccessResponse{
		Success: true,
		Data:    data,
	})
}
