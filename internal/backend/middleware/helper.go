package middleware

import (
	"encoding/json"
	"net/http"
)

// errorResponse writes the API's `{success:false, message}` envelope.
func errorResponse(w http.ResponseWriter, status int, message string) {
	body, err := json.Marshal(map[string]any{
		"success": false,
		"message": message,
	})
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}
