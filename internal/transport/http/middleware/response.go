package middleware

import (
	"encoding/json"
	"net/http"
)

// writeJSONError writes {"error": msg} with a JSON Content-Type.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
