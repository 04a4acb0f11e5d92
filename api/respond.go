package api

import (
	"encoding/json"
	"net/http"
)

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error message response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"message": message,
	})
}

// respondValidationError sends a field-keyed validation error response.
func respondValidationError(w http.ResponseWriter, field, message string) {
	respondJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
		"errors": map[string][]string{
			field: {message},
		},
	})
}
