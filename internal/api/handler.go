package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dudgeon/chat-frontier-family/internal/interfaces"
	"github.com/dudgeon/chat-frontier-family/internal/service"
	"github.com/dudgeon/chat-frontier-family/internal/stream"
)

// ChatHandler exposes the session, message and chat-turn endpoints.
type ChatHandler struct {
	service interfaces.ChatService
}

func NewChatHandler(svc interfaces.ChatService) *ChatHandler {
	return &ChatHandler{service: svc}
}

// ListSessions godoc
//
//	@Summary	List a user's chat sessions
//	@Produce	json
//	@Param		user_id	query	string	true	"Owner user id"
//	@Success	200	{array}	model.ChatSession
//	@Router		/sessions [get]
func (h *ChatHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		respondWithJSON(w, http.StatusBadRequest, ErrorResponse{Error: "user_id query parameter is required"})
		return
	}
	sessions, err := h.service.ListSessions(r.Context(), userID)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, sessions)
}

// CreateSession godoc
//
//	@Summary	Create a chat session
//	@Accept		json
//	@Produce	json
//	@Success	201	{object}	model.ChatSession
//	@Router		/sessions [post]
func (h *ChatHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}
	if err := validateRequest(req); err != nil {
		respondWithError(w, err)
		return
	}
	sess, err := h.service.CreateSession(r.Context(), req.UserID, req.Name)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, sess)
}

// GetSession returns a session with its messages.
func (h *ChatHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	full, err := h.service.GetFullSession(r.Context(), sessionID)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, full)
}

// GetMessages returns a session's messages in order.
func (h *ChatHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	messages, err := h.service.GetMessages(r.Context(), sessionID)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, messages)
}

// RenameSession handles the manual rename endpoint.
func (h *ChatHandler) RenameSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	var req RenameSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}
	if err := validateRequest(req); err != nil {
		respondWithError(w, err)
		return
	}
	sess, err := h.service.RenameSession(r.Context(), sessionID, req.Name)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, sess)
}

// DeleteSession removes a session and its messages.
func (h *ChatHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := h.service.DeleteSession(r.Context(), sessionID); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleChat godoc
//
//	@Summary	Send a chat turn, streamed or buffered
//	@Accept		json
//	@Produce	json
//	@Produce	text/event-stream
//	@Success	200	{object}	api.ContentResponse
//	@Router		/chat [post]
//
// Validation failures (missing chatId, empty history) are rejected with a
// 400 before any stream work begins. For stream mode the upstream connection
// is established first, so transport failures still produce a normal error
// response; only after that do SSE bytes start flowing.
func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req service.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}
	if err := validateRequest(req); err != nil {
		respondWithError(w, err)
		return
	}

	if !req.Stream {
		content, err := h.service.SendMessage(r.Context(), &req)
		if err != nil {
			respondWithError(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, ContentResponse{Content: content})
		return
	}

	run, err := h.service.StartStream(r.Context(), &req)
	if err != nil {
		respondWithError(w, err)
		return
	}

	setStreamHeaders(w)
	sentinel, err := run(stream.NewFlushWriter(w))
	if err != nil {
		// The raw forwarding already carried whatever frames arrived; tell
		// the client explicitly that the stream ended early.
		sendStreamError(w, "The response stream ended early.")
		return
	}
	if !sentinel {
		// The upstream ended cleanly without its own terminal frame;
		// clients still rely on it to stop reading.
		writeStreamDone(w)
	}
	slog.Debug("Finished streaming response", "session_id", req.ChatID)
}
