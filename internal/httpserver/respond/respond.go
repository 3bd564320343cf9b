// Package respond writes JSON responses.
package respond

import (
	"encoding/json"
	"net/http"
)

// Message bodies shared by handlers and middlewares.
const (
	MsgUnauthorized = "Unauthorized"
	MsgBadBody      = "invalid request body"
)

type errorBody struct {
	Error string `json:"error"`
}

type messageBody struct {
	Message string `json:"message"`
}

// JSON writes v with status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes {"error": msg}.
func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, errorBody{Error: msg})
}

// Message writes {"message": msg}.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, messageBody{Message: msg})
}

// Unauthorized writes the uniform 401 body.
func Unauthorized(w http.ResponseWriter) {
	Error(w, http.StatusUnauthorized, MsgUnauthorized)
}
