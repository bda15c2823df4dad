// The `_test` suffix creates a "black box" test package: the tests exercise
// the handlers purely through their exported surface, the same way the router
// does.
package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dudgeon/chat-frontier-family/internal/api"
	app_errors "github.com/dudgeon/chat-frontier-family/internal/errors"
	"github.com/dudgeon/chat-frontier-family/internal/interfaces/mocks"
	"github.com/dudgeon/chat-frontier-family/internal/llm"
	"github.com/dudgeon/chat-frontier-family/internal/model"
	"github.com/dudgeon/chat-frontier-family/internal/service"
)

// setupChatHandler encapsulates the repetitive setup of a handler with a
// mocked service, so each test case reads as ARRANGE / ACT / ASSERT.
func setupChatHandler(t *testing.T) (*api.ChatHandler, *mocks.MockChatService) {
	mockSvc := mocks.NewMockChatService(t)
	handler := api.NewChatHandler(mockSvc)
	return handler, mockSvc
}

// addChiURLParams simulates how the chi router injects URL parameters
// (e.g. `{sessionID}`) into the request context. Without it chi.URLParam
// returns an empty string inside the handler.
func addChiURLParams(req *http.Request, params map[string]string) *http.Request {
	chiCtx := chi.NewRouteContext()
	for key, value := range params {
		chiCtx.URLParams.Add(key, value)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, chiCtx))
}

func TestChatHandler_ListSessions(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		// ARRANGE
		handler, mockSvc := setupChatHandler(t)
		expected := []*model.ChatSession{{ID: "s1", UserID: "u1"}}
		mockSvc.On("ListSessions", mock.Anything, "u1").Return(expected, nil).Once()

		// ACT
		req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions?user_id=u1", nil)
		rr := httptest.NewRecorder()
		handler.ListSessions(rr, req)

		// ASSERT
		assert.Equal(t, http.StatusOK, rr.Code)
		var returned []*model.ChatSession
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &returned))
		assert.Equal(t, expected, returned)
	})

	t.Run("Failure - missing user_id", func(t *testing.T) {
		// ARRANGE: no service expectation; the handler must reject before
		// touching the service.
		handler, _ := setupChatHandler(t)

		// ACT
		req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil)
		rr := httptest.NewRecorder()
		handler.ListSessions(rr, req)

		// ASSERT
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestChatHandler_CreateSession(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		// ARRANGE
		handler, mockSvc := setupChatHandler(t)
		name := "Trip planning"
		created := &model.ChatSession{ID: "s1", UserID: "u1", Name: &name}
		mockSvc.On("CreateSession", mock.Anything, "u1", &name).Return(created, nil).Once()

		// ACT
		body := strings.NewReader(`{"user_id": "u1", "name": "Trip planning"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", body)
		rr := httptest.NewRecorder()
		handler.CreateSession(rr, req)

		// ASSERT
		assert.Equal(t, http.StatusCreated, rr.Code)
		var returned model.ChatSession
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &returned))
		assert.Equal(t, "s1", returned.ID)
	})

	t.Run("Failure - missing user_id", func(t *testing.T) {
		// ARRANGE
		handler, _ := setupChatHandler(t)

		// ACT
		body := strings.NewReader(`{"name": "no owner"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", body)
		rr := httptest.NewRecorder()
		handler.CreateSession(rr, req)

		// ASSERT
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "UserID")
	})
}

func TestChatHandler_GetSession(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		// ARRANGE
		handler, mockSvc := setupChatHandler(t)
		full := &model.FullSession{
			ChatSession: model.ChatSession{ID: "s1", UserID: "u1"},
			Messages:    []model.Message{{ID: "m1", Content: "hi", IsUser: true}},
		}
		mockSvc.On("GetFullSession", mock.Anything, "s1").Return(full, nil).Once()

		// ACT
		req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/s1", nil)
		req = addChiURLParams(req, map[string]string{"sessionID": "s1"})
		rr := httptest.NewRecorder()
		handler.GetSession(rr, req)

		// ASSERT
		assert.Equal(t, http.StatusOK, rr.Code)
		var returned model.FullSession
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &returned))
		assert.Len(t, returned.Messages, 1)
	})

	t.Run("Failure - not found", func(t *testing.T) {
		// ARRANGE
		handler, mockSvc := setupChatHandler(t)
		mockSvc.On("GetFullSession", mock.Anything, "missing").Return(nil, app_errors.ErrNotFound).Once()

		// ACT
		req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/missing", nil)
		req = addChiURLParams(req, map[string]string{"sessionID": "missing"})
		rr := httptest.NewRecorder()
		handler.GetSession(rr, req)

		// ASSERT
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestChatHandler_RenameSession(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		// ARRANGE
		handler, mockSvc := setupChatHandler(t)
		name := "Renamed"
		renamed := &model.ChatSession{ID: "s1", UserID: "u1", Name: &name}
		mockSvc.On("RenameSession", mock.Anything, "s1", "Renamed").Return(renamed, nil).Once()

		// ACT
		body := strings.NewReader(`{"name": "Renamed"}`)
		req := httptest.NewRequest(http.MethodPut, "/api/v1/sessions/s1/name", body)
		req = addChiURLParams(req, map[string]string{"sessionID": "s1"})
		rr := httptest.NewRecorder()
		handler.RenameSession(rr, req)

		// ASSERT
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("Failure - empty name", func(t *testing.T) {
		// ARRANGE
		handler, _ := setupChatHandler(t)

		// ACT
		body := strings.NewReader(`{"name": ""}`)
		req := httptest.NewRequest(http.MethodPut, "/api/v1/sessions/s1/name", body)
		req = addChiURLParams(req, map[string]string{"sessionID": "s1"})
		rr := httptest.NewRecorder()
		handler.RenameSession(rr, req)

		// ASSERT
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Failure - unknown session", func(t *testing.T) {
		// ARRANGE
		handler, mockSvc := setupChatHandler(t)
		mockSvc.On("RenameSession", mock.Anything, "missing", "x").Return(nil, app_errors.ErrNotFound).Once()

		// ACT
		body := strings.NewReader(`{"name": "x"}`)
		req := httptest.NewRequest(http.MethodPut, "/api/v1/sessions/missing/name", body)
		req = addChiURLParams(req, map[string]string{"sessionID": "missing"})
		rr := httptest.NewRecorder()
		handler.RenameSession(rr, req)

		// ASSERT
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestChatHandler_DeleteSession(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		// ARRANGE
		handler, mockSvc := setupChatHandler(t)
		mockSvc.On("DeleteSession", mock.Anything, "s1").Return(nil).Once()

		// ACT
		req := httptest.NewRequest(http.MethodDelete, "/api/v1/sessions/s1", nil)
		req = addChiURLParams(req, map[string]string{"sessionID": "s1"})
		rr := httptest.NewRecorder()
		handler.DeleteSession(rr, req)

		// ASSERT
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("Failure - not found", func(t *testing.T) {
		// ARRANGE
		handler, mockSvc := setupChatHandler(t)
		mockSvc.On("DeleteSession", mock.Anything, "missing").Return(app_errors.ErrNotFound).Once()

		// ACT
		req := httptest.NewRequest(http.MethodDelete, "/api/v1/sessions/missing", nil)
		req = addChiURLParams(req, map[string]string{"sessionID": "missing"})
		rr := httptest.NewRecorder()
		handler.DeleteSession(rr, req)

		// ASSERT
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

// TestChatHandler_HandleChat covers both the buffered and the streaming turn
// paths, plus the input validation and upstream error mapping at the edge.
func TestChatHandler_HandleChat(t *testing.T) {
	const validBody = `{"chatId": "s1", "messages": [{"content": "Hi", "isUser": true}]}`

	t.Run("Success - buffered", func(t *testing.T) {
		// ARRANGE
		handler, mockSvc := setupChatHandler(t)
		mockSvc.On("SendMessage", mock.Anything, mock.MatchedBy(func(req *service.SendMessageRequest) bool {
			return req.ChatID == "s1" && len(req.Messages) == 1 && !req.Stream
		})).Return("Hello there.", nil).Once()

		// ACT
		req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(validBody))
		rr := httptest.NewRecorder()
		handler.HandleChat(rr, req)

		// ASSERT
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"content": "Hello there."}`, rr.Body.String())
	})

	t.Run("Success - streaming forwards raw frames", func(t *testing.T) {
		// ARRANGE: the mocked StreamFunc plays the role of the provider
		// relay, writing frames straight to the response writer.
		handler, mockSvc := setupChatHandler(t)
		frames := "data: {\"choices\":[{\"delta\":{\"content\":\"Hi\"}}]}\n\ndata: [DONE]\n\n"
		var fn service.StreamFunc = func(w io.Writer) (bool, error) {
			_, err := io.WriteString(w, frames)
			return true, err
		}
		mockSvc.On("StartStream", mock.Anything, mock.MatchedBy(func(req *service.SendMessageRequest) bool {
			return req.ChatID == "s1" && req.Stream
		})).Return(fn, nil).Once()

		// ACT
		body := strings.NewReader(`{"chatId": "s1", "messages": [{"content": "Hi", "isUser": true}], "stream": true}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", body)
		rr := httptest.NewRecorder()
		handler.HandleChat(rr, req)

		// ASSERT: headers say SSE and the body is exactly the relayed frames.
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "text/event-stream", rr.Header().Get("Content-Type"))
		assert.Equal(t, frames, rr.Body.String())
	})

	t.Run("Success - terminal frame appended when upstream omits it", func(t *testing.T) {
		// ARRANGE: the relayed stream ends cleanly but without a [DONE]
		// frame of its own.
		handler, mockSvc := setupChatHandler(t)
		frames := "data: {\"choices\":[{\"delta\":{\"content\":\"Hi\"}}]}\n\n"
		var fn service.StreamFunc = func(w io.Writer) (bool, error) {
			_, err := io.WriteString(w, frames)
			return false, err
		}
		mockSvc.On("StartStream", mock.Anything, mock.Anything).Return(fn, nil).Once()

		// ACT
		body := strings.NewReader(`{"chatId": "s1", "messages": [{"content": "Hi", "isUser": true}], "stream": true}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", body)
		rr := httptest.NewRecorder()
		handler.HandleChat(rr, req)

		// ASSERT: the handler supplies the terminal frame itself.
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, frames+"data: [DONE]\n\n", rr.Body.String())
	})

	t.Run("Failure - stream ends early", func(t *testing.T) {
		// ARRANGE
		handler, mockSvc := setupChatHandler(t)
		var fn service.StreamFunc = func(w io.Writer) (bool, error) {
			_, _ = io.WriteString(w, "data: {\"delta\":\"par\"}\n\n")
			return false, errors.New("connection reset")
		}
		mockSvc.On("StartStream", mock.Anything, mock.Anything).Return(fn, nil).Once()

		// ACT
		body := strings.NewReader(`{"chatId": "s1", "messages": [{"content": "Hi", "isUser": true}], "stream": true}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", body)
		rr := httptest.NewRecorder()
		handler.HandleChat(rr, req)

		// ASSERT: the partial frames are kept and an error event follows.
		assert.Contains(t, rr.Body.String(), "data: {\"delta\":\"par\"}")
		assert.Contains(t, rr.Body.String(), "event: error")
	})

	t.Run("Failure - malformed JSON body", func(t *testing.T) {
		// ARRANGE
		handler, _ := setupChatHandler(t)

		// ACT
		req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(`{not json`))
		rr := httptest.NewRecorder()
		handler.HandleChat(rr, req)

		// ASSERT
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Failure - missing chatId", func(t *testing.T) {
		// ARRANGE
		handler, _ := setupChatHandler(t)

		// ACT
		body := strings.NewReader(`{"messages": [{"content": "Hi", "isUser": true}]}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", body)
		rr := httptest.NewRecorder()
		handler.HandleChat(rr, req)

		// ASSERT
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "ChatID")
	})

	t.Run("Failure - empty message history", func(t *testing.T) {
		// ARRANGE
		handler, _ := setupChatHandler(t)

		// ACT
		body := strings.NewReader(`{"chatId": "s1", "messages": []}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", body)
		rr := httptest.NewRecorder()
		handler.HandleChat(rr, req)

		// ASSERT
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Failure - provider 429 passes through", func(t *testing.T) {
		// ARRANGE
		handler, mockSvc := setupChatHandler(t)
		provErr := &llm.APIError{StatusCode: http.StatusTooManyRequests, Message: "rate limited"}
		mockSvc.On("SendMessage", mock.Anything, mock.Anything).Return("", provErr).Once()

		// ACT
		req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(validBody))
		rr := httptest.NewRecorder()
		handler.HandleChat(rr, req)

		// ASSERT
		assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	})

	t.Run("Failure - provider 500 surfaces as 503", func(t *testing.T) {
		// ARRANGE
		handler, mockSvc := setupChatHandler(t)
		provErr := &llm.APIError{StatusCode: http.StatusInternalServerError, Message: "upstream broke"}
		var nilFn service.StreamFunc
		mockSvc.On("StartStream", mock.Anything, mock.Anything).Return(nilFn, provErr).Once()

		// ACT
		body := strings.NewReader(`{"chatId": "s1", "messages": [{"content": "Hi", "isUser": true}], "stream": true}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", body)
		rr := httptest.NewRecorder()
		handler.HandleChat(rr, req)

		// ASSERT: the failure happened before any SSE bytes, so the client
		// gets a plain JSON error with the mapped status.
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	})
}

func TestProfileHandler(t *testing.T) {
	setup := func(t *testing.T) (*api.ProfileHandler, *mocks.MockProfileService) {
		mockSvc := mocks.NewMockProfileService(t)
		return api.NewProfileHandler(mockSvc), mockSvc
	}

	t.Run("Get - Success", func(t *testing.T) {
		// ARRANGE
		handler, mockSvc := setup(t)
		profile := &model.Profile{UserID: "u1", DisplayName: "Geoff"}
		mockSvc.On("Get", mock.Anything, "u1").Return(profile, nil).Once()

		// ACT
		req := httptest.NewRequest(http.MethodGet, "/api/v1/profile/u1", nil)
		req = addChiURLParams(req, map[string]string{"userID": "u1"})
		rr := httptest.NewRecorder()
		handler.GetProfile(rr, req)

		// ASSERT
		assert.Equal(t, http.StatusOK, rr.Code)
		var returned model.Profile
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &returned))
		assert.Equal(t, "Geoff", returned.DisplayName)
	})

	t.Run("Get - not found", func(t *testing.T) {
		// ARRANGE
		handler, mockSvc := setup(t)
		mockSvc.On("Get", mock.Anything, "nobody").Return(nil, app_errors.ErrNotFound).Once()

		// ACT
		req := httptest.NewRequest(http.MethodGet, "/api/v1/profile/nobody", nil)
		req = addChiURLParams(req, map[string]string{"userID": "nobody"})
		rr := httptest.NewRecorder()
		handler.GetProfile(rr, req)

		// ASSERT
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("Upsert - Success", func(t *testing.T) {
		// ARRANGE
		handler, mockSvc := setup(t)
		profile := &model.Profile{UserID: "u1", DisplayName: "New Name"}
		mockSvc.On("Upsert", mock.Anything, "u1", "New Name").Return(profile, nil).Once()

		// ACT
		body := strings.NewReader(`{"display_name": "New Name"}`)
		req := httptest.NewRequest(http.MethodPut, "/api/v1/profile/u1", body)
		req = addChiURLParams(req, map[string]string{"userID": "u1"})
		rr := httptest.NewRecorder()
		handler.UpsertProfile(rr, req)

		// ASSERT
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("Upsert - empty display name rejected", func(t *testing.T) {
		// ARRANGE
		handler, _ := setup(t)

		// ACT
		body := strings.NewReader(`{"display_name": ""}`)
		req := httptest.NewRequest(http.MethodPut, "/api/v1/profile/u1", body)
		req = addChiURLParams(req, map[string]string{"userID": "u1"})
		rr := httptest.NewRecorder()
		handler.UpsertProfile(rr, req)

		// ASSERT
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
