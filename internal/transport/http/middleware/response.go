package middleware

import (
	"encoding/json"
	"net/http"
)

// writeJSONError writes an {error, message} body with the correct Content-Type.
func writeJSONError(w http.ResponseWriter, status int, errMsg, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": errMsg, "message": message})
}
