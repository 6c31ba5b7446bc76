// Package handlers contains the HTTP handlers. Each handler owns a narrow
// service interface and maps domain sentinel errors onto the JSON error
// envelope; no business logic lives here.
package handlers

import (
	"encoding/json"
	"net/http"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
