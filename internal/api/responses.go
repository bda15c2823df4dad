package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	app_errors "github.com/dudgeon/chat-frontier-family/internal/errors"
	"github.com/dudgeon/chat-frontier-family/internal/llm"
)

// Shared DTOs for API responses and helpers for sending them consistently.

// ErrorResponse is the standard JSON error body: {"error": "..."}.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ContentResponse is the non-streaming chat reply body.
type ContentResponse struct {
	Content string `json:"content"`
}

// RenameSessionRequest is the DTO for the session rename endpoint.
type RenameSessionRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100" example:"Trip planning"`
}

// CreateSessionRequest is the DTO for creating a session.
type CreateSessionRequest struct {
	UserID string  `json:"user_id" validate:"required" example:"u-123"`
	Name   *string `json:"name,omitempty" validate:"omitempty,max=100"`
}

// UpsertProfileRequest is the DTO for the profile upsert endpoint.
type UpsertProfileRequest struct {
	DisplayName string `json:"display_name" validate:"required,min=1,max=80" example:"Geoff"`
}

// respondWithError maps business-layer errors to HTTP status codes and a
// standard JSON body. Upstream provider failures follow the edge contract:
// 401/403/404/429 pass through, everything else is a 503.
func respondWithError(w http.ResponseWriter, err error) {
	var statusCode int
	var message string

	switch {
	case errors.Is(err, app_errors.ErrNotFound):
		statusCode = http.StatusNotFound
		message = "The requested resource was not found."
	case errors.Is(err, app_errors.ErrValidation):
		statusCode = http.StatusBadRequest
		// Validation messages from the service layer are already
		// user-friendly.
		message = err.Error()
	case errors.Is(err, app_errors.ErrConflict):
		statusCode = http.StatusConflict
		message = "A conflict occurred with the current state of the resource."
	case errors.Is(err, app_errors.ErrPermission):
		statusCode = http.StatusForbidden
		message = "You do not have permission to perform this action."
	case errors.Is(err, app_errors.ErrUpstream):
		statusCode = llm.HTTPStatus(err)
		message = "The language model provider could not complete the request."
	default:
		statusCode = http.StatusInternalServerError
		message = "An unexpected internal server error occurred."
	}

	slog.Warn("Responding with error", "status_code", statusCode, "client_message", message, "internal_error", err)
	respondWithJSON(w, statusCode, ErrorResponse{Error: message})
}

// respondWithJSON marshals the payload and writes it with the given status.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Error("Failed to marshal JSON response", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		slog.Error("Failed to write JSON response", "error", err)
	}
}

// setStreamHeaders prepares a response for Server-Sent Events.
func setStreamHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
}

// writeStreamEvent marshals data and writes it as one SSE frame. A write
// failure signals a disconnected client.
func writeStreamEvent(w http.ResponseWriter, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		slog.Error("Failed to marshal stream data", "error", err)
		return nil
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", jsonData); err != nil {
		return fmt.Errorf("failed to write data to stream: %w", err)
	}
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
	return nil
}

// writeStreamDone emits the terminal sentinel frame.
func writeStreamDone(w http.ResponseWriter) {
	if _, err := fmt.Fprint(w, "data: [DONE]\n\n"); err != nil {
		slog.Warn("Failed to write done sentinel, client might have disconnected", "error", err)
		return
	}
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}

// sendStreamError sends a structured error over an already-open SSE stream,
// under a dedicated error event name so clients can listen for it.
func sendStreamError(w http.ResponseWriter, message string) {
	slog.Warn("Sending stream error to client", "message", message)
	jsonData, err := json.Marshal(ErrorResponse{Error: message})
	if err != nil {
		slog.Error("Failed to marshal stream error payload", "error", err)
		return
	}
	if _, err := fmt.Fprintf(w, "event: error\ndata: %s\n\n", jsonData); err != nil {
		slog.Warn("Failed to write stream error, client might have disconnected", "error", err)
		return
	}
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}
