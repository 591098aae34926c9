// Package response renders the uniform JSON envelope: every success is
// {"success":true,...} and every failure {"success":false,"message":...}
// with a stack trace attached outside production only.
package response

import (
	"encoding/json"
	"log"
	"net/http"
	"runtime/debug"
)

func JSON(w http.ResponseWriter, status int, payload map[string]any) {
	payload["success"] = true

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("ERROR [response.JSON] encode: %v", err)
	}
}

func Error(w http.ResponseWriter, status int, message string, withStack bool) {
	body := map[string]any{
		"success": false,
		"message": message,
	}
	if withStack {
		body["stack"] = string(debug.Stack())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("ERROR [response.Error] encode: %v", err)
	}
}
