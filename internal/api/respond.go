// Package api wires the HTTP surface: routing, request handlers, and JSON
// response helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/planbook-app/planbook/internal/store"
)

// statusSuccess is the status code for every successful response, including
// reads, updates, and logins. Deployed mobile clients check for 201
// specifically, so this cannot change without a client migration.
const statusSuccess = http.StatusCreated

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func jsonError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, status, map[string]string{"error": message})
}

// storeError maps accessor errors onto the response contract: missing rows
// are 404, rejected input is 400, anything else is a downstream 500.
func storeError(w http.ResponseWriter, err error, notFoundMsg string) {
	switch {
	case store.IsNotFound(err):
		jsonError(w, notFoundMsg, http.StatusNotFound)
	case errors.Is(err, store.ErrInvalidInput):
		jsonError(w, err.Error(), http.StatusBadRequest)
	default:
		jsonError(w, err.Error(), http.StatusInternalServerError)
	}
}
