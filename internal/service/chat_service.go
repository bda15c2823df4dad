package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	app_errors "github.com/dudgeon/chat-frontier-family/internal/errors"
	"github.com/dudgeon/chat-frontier-family/internal/llm"
	"github.com/dudgeon/chat-frontier-family/internal/model"
	"github.com/dudgeon/chat-frontier-family/internal/realtime"
	"github.com/dudgeon/chat-frontier-family/internal/repository"
	"github.com/dudgeon/chat-frontier-family/internal/session"
	"github.com/dudgeon/chat-frontier-family/internal/sse"
	"github.com/dudgeon/chat-frontier-family/internal/stream"
)

// SendMessageRequest is the body of a chat turn from the client. Messages is
// the full history; the trailing entry must be the user's new message.
type SendMessageRequest struct {
	ChatID   string            `json:"chatId" validate:"required"`
	Messages []IncomingMessage `json:"messages" validate:"required,min=1,dive"`
	Stream   bool              `json:"stream"`
}

// IncomingMessage is one history entry in a SendMessageRequest.
type IncomingMessage struct {
	Content string `json:"content" validate:"required"`
	IsUser  bool   `json:"isUser"`
}

// StreamFunc pumps a live stream to the given writer. It is returned by
// StartStream only after the upstream connection is established, so transport
// failures can still surface as regular HTTP errors. The boolean result
// reports whether the relayed frames included the terminal [DONE] sentinel;
// some upstreams end the stream cleanly without one, and the caller then
// appends the terminal frame so clients always see it.
type StreamFunc func(w io.Writer) (sentinel bool, err error)

// streamHandle identifies one in-flight assistant response so a newer send
// for the same session can abort it and its late results can be recognized
// and ignored.
type streamHandle struct {
	cancel context.CancelFunc
}

type ChatService struct {
	repo     repository.Repository
	provider llm.Provider
	hub      *realtime.Hub
	trigger  session.MetadataTrigger

	mainModel    string
	summaryModel string

	mu       sync.Mutex
	inflight map[string]*streamHandle
}

func NewChatService(repo repository.Repository, provider llm.Provider, hub *realtime.Hub, mainModel, summaryModel string) *ChatService {
	return &ChatService{
		repo:         repo,
		provider:     provider,
		hub:          hub,
		mainModel:    mainModel,
		summaryModel: summaryModel,
		inflight:     make(map[string]*streamHandle),
	}
}

// CreateSession creates an empty session owned by userID.
func (s *ChatService) CreateSession(ctx context.Context, userID string, name *string) (*model.ChatSession, error) {
	now := time.Now().UnixMilli()
	sess := &model.ChatSession{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        name,
		LastUpdated: &now,
		CreatedAt:   now,
	}
	if err := s.repo.CreateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("could not create session: %w", err)
	}
	s.hub.Publish(model.ChangeEvent{EventType: model.ChangeInsert, New: sess})
	return sess, nil
}

func (s *ChatService) ListSessions(ctx context.Context, userID string) ([]*model.ChatSession, error) {
	return s.repo.ListSessions(ctx, userID)
}

func (s *ChatService) GetFullSession(ctx context.Context, sessionID string) (*model.FullSession, error) {
	sess, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	messages, err := s.repo.GetMessages(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("could not get messages: %w", err)
	}
	return &model.FullSession{ChatSession: *sess, Messages: messages}, nil
}

func (s *ChatService) GetMessages(ctx context.Context, sessionID string) ([]model.Message, error) {
	if _, err := s.getSession(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.repo.GetMessages(ctx, sessionID)
}

// RenameSession applies a manual rename. The rename goes through the same
// reconciliation funnel as every other metadata writer.
func (s *ChatService) RenameSession(ctx context.Context, sessionID, name string) (*model.ChatSession, error) {
	cur, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	patch := session.Patch{Name: &name, Timestamp: time.Now().UnixMilli()}
	next := session.Reconcile(cur, patch)
	if next == cur {
		return cur, nil
	}
	if err := s.repo.UpdateSessionMeta(ctx, next); err != nil {
		return nil, s.translate(err)
	}
	s.hub.Publish(model.ChangeEvent{EventType: model.ChangeUpdate, New: next})
	return next, nil
}

func (s *ChatService) DeleteSession(ctx context.Context, sessionID string) error {
	old, err := s.getSession(ctx, sessionID)
	if err != nil {
		return err
	}
	s.abort(sessionID)
	if err := s.repo.DeleteSession(ctx, sessionID); err != nil {
		return s.translate(err)
	}
	s.hub.Publish(model.ChangeEvent{EventType: model.ChangeDelete, Old: old})
	return nil
}

// SendMessage handles the buffered (non-streaming) chat mode: one provider
// round trip, both turns persisted, full assistant text returned.
func (s *ChatService) SendMessage(ctx context.Context, req *SendMessageRequest) (string, error) {
	sess, err := s.prepareTurn(ctx, req)
	if err != nil {
		return "", err
	}

	resp, err := s.provider.Generate(ctx, &llm.GenerateRequest{
		Model: s.mainModel,
		Input: providerInput(req.Messages),
	})
	if err != nil {
		// A failed send never corrupts the stored conversation; the user
		// message stays and the client may retry.
		return "", err
	}

	s.persistAssistant(ctx, sess, stream.Result{Text: resp.Content, Complete: true})
	return resp.Content, nil
}

// StartStream opens the streaming chat mode. Any in-flight stream for the
// same session is aborted first: one live stream per session at a time.
// Setup errors (unknown session, provider failure) are returned before any
// bytes reach the client.
func (s *ChatService) StartStream(ctx context.Context, req *SendMessageRequest) (StreamFunc, error) {
	sess, err := s.prepareTurn(ctx, req)
	if err != nil {
		return nil, err
	}

	streamCtx, handle := s.begin(ctx, req.ChatID)
	body, err := s.provider.Stream(streamCtx, &llm.GenerateRequest{
		Model: s.mainModel,
		Input: providerInput(req.Messages),
	})
	if err != nil {
		s.finish(req.ChatID, handle)
		return nil, err
	}

	return func(w io.Writer) (bool, error) {
		defer body.Close()

		// Tee: raw provider frames go to the client untouched while the
		// same bytes are decoded and accumulated for persistence, so the
		// forwarding path never waits on accumulation.
		acc := stream.NewAccumulator()
		sc := sse.NewScanner(io.TeeReader(body, w))
		res, drainErr := acc.Drain(sc)

		superseded := !s.finish(req.ChatID, handle)
		if superseded {
			// A newer send for this session aborted us; whatever arrived
			// late is ignored rather than applied, and no terminal frame
			// is appended to the abandoned relay.
			slog.Debug("Discarding superseded stream result", "session_id", req.ChatID)
			return true, nil
		}
		if drainErr != nil {
			slog.Warn("Stream ended early, keeping partial text",
				"session_id", req.ChatID, "accumulated", len(res.Text), "error", drainErr)
		}
		if res.FirstChunkMs != nil {
			slog.Info("First chunk latency", "session_id", req.ChatID, "ms", *res.FirstChunkMs)
		}
		s.persistAssistant(context.WithoutCancel(ctx), sess, res)
		return sc.Done(), drainErr
	}, nil
}

// prepareTurn validates the history, checks the session exists, and persists
// the user's new message.
func (s *ChatService) prepareTurn(ctx context.Context, req *SendMessageRequest) (*model.ChatSession, error) {
	last := req.Messages[len(req.Messages)-1]
	if !last.IsUser {
		return nil, fmt.Errorf("%w: last message must be from the user", app_errors.ErrValidation)
	}
	sess, err := s.getSession(ctx, req.ChatID)
	if err != nil {
		return nil, err
	}
	userMessage := &model.Message{
		ID:        uuid.NewString(),
		Content:   last.Content,
		IsUser:    true,
		Timestamp: time.Now().UnixMilli(),
	}
	if err := s.repo.AddMessage(ctx, sess.ID, userMessage); err != nil {
		return nil, fmt.Errorf("could not save user message: %w", err)
	}
	return sess, nil
}

// persistAssistant saves the assistant turn (partial text is kept and marked
// truncated rather than dropped), pushes the session update, and evaluates
// the metadata trigger.
func (s *ChatService) persistAssistant(ctx context.Context, sess *model.ChatSession, res stream.Result) {
	msg := &model.Message{
		ID:        uuid.NewString(),
		Content:   res.Text,
		IsUser:    false,
		Timestamp: time.Now().UnixMilli(),
		ImageURL:  res.ImageURL,
		Truncated: !res.Complete,
	}
	if err := s.repo.AddMessage(ctx, sess.ID, msg); err != nil {
		slog.Error("Failed to save assistant message", "session_id", sess.ID, "error", err)
		return
	}

	if updated, err := s.repo.GetSession(ctx, sess.ID); err == nil {
		s.hub.Publish(model.ChangeEvent{EventType: model.ChangeUpdate, New: updated})
	}

	turns, err := s.repo.CountAssistantMessages(ctx, sess.ID)
	if err != nil {
		slog.Warn("Could not count assistant turns", "session_id", sess.ID, "error", err)
		return
	}
	if s.trigger.ShouldFire(sess.ID, turns, s.hasInflight(sess.ID)) {
		go s.generateMetadata(context.WithoutCancel(ctx), sess.ID)
	}
}

// generateMetadata runs the title/summary round trip. The patch carries the
// timestamp captured before the provider call, so any concurrent update that
// lands during the round trip has a newer timestamp and wins at the
// reconciler; the slow result is then discarded in full.
func (s *ChatService) generateMetadata(ctx context.Context, sessionID string) {
	startTs := time.Now().UnixMilli()

	messages, err := s.repo.GetMessages(ctx, sessionID)
	if err != nil || len(messages) == 0 {
		return
	}

	resp, err := s.provider.Generate(ctx, &llm.GenerateRequest{
		Model: s.summaryModel,
		Input: metadataPrompt(messages),
	})
	if err != nil {
		slog.Warn("Metadata generation failed", "session_id", sessionID, "error", err)
		return
	}

	name, summary := parseMetadata(resp.Content)
	if name == "" && summary == "" {
		slog.Debug("Metadata generation produced nothing usable", "session_id", sessionID)
		return
	}

	cur, err := s.getSession(ctx, sessionID)
	if err != nil {
		return
	}
	patch := session.Patch{Timestamp: startTs}
	if name != "" {
		patch.Name = &name
	}
	if summary != "" {
		patch.Summary = &summary
	}
	next := session.Reconcile(cur, patch)
	if next == cur {
		// A newer concurrent update already won. Not an error.
		slog.Debug("Stale metadata patch discarded", "session_id", sessionID)
		return
	}
	if err := s.repo.UpdateSessionMeta(ctx, next); err != nil {
		slog.Warn("Could not persist generated metadata", "session_id", sessionID, "error", err)
		return
	}
	s.hub.Publish(model.ChangeEvent{EventType: model.ChangeUpdate, New: next})
}

// begin registers a new in-flight stream for the session, aborting the
// previous one if any.
func (s *ChatService) begin(ctx context.Context, sessionID string) (context.Context, *streamHandle) {
	streamCtx, cancel := context.WithCancel(ctx)
	handle := &streamHandle{cancel: cancel}

	s.mu.Lock()
	prev := s.inflight[sessionID]
	s.inflight[sessionID] = handle
	s.mu.Unlock()

	if prev != nil {
		prev.cancel()
	}
	return streamCtx, handle
}

// finish deregisters a stream. It returns false when the handle is no longer
// the session's current stream, i.e. a newer send superseded it.
func (s *ChatService) finish(sessionID string, handle *streamHandle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight[sessionID] != handle {
		return false
	}
	delete(s.inflight, sessionID)
	handle.cancel()
	return true
}

func (s *ChatService) abort(sessionID string) {
	s.mu.Lock()
	handle := s.inflight[sessionID]
	delete(s.inflight, sessionID)
	s.mu.Unlock()
	if handle != nil {
		handle.cancel()
	}
}

func (s *ChatService) hasInflight(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight[sessionID] != nil
}

func (s *ChatService) getSession(ctx context.Context, sessionID string) (*model.ChatSession, error) {
	sess, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, s.translate(err)
	}
	return sess, nil
}

func (s *ChatService) translate(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: session", app_errors.ErrNotFound)
	}
	return err
}

func providerInput(messages []IncomingMessage) []llm.Message {
	input := make([]llm.Message, 0, len(messages))
	for _, m := range messages {
		role := "assistant"
		if m.IsUser {
			role = "user"
		}
		input = append(input, llm.Message{Role: role, Content: m.Content})
	}
	return input
}

// metadataPrompt asks the support model for a strict-JSON title and summary
// of the conversation so far.
func metadataPrompt(messages []model.Message) []llm.Message {
	var transcript strings.Builder
	for _, m := range messages {
		speaker := "Assistant"
		if m.IsUser {
			speaker = "User"
		}
		fmt.Fprintf(&transcript, "%s: %s\n", speaker, truncate(m.Content, 300))
	}
	return []llm.Message{
		{
			Role: "system",
			Content: `You name and summarize conversations. Respond with only a JSON object of the form {"name": "...", "summary": "..."} where name is at most six words and summary at most two sentences.`,
		},
		{
			Role:    "user",
			Content: "Conversation so far:\n\n" + transcript.String(),
		},
	}
}

// parseMetadata accepts the model's JSON reply, tolerating markdown code
// fences; a non-JSON reply is treated as a bare title.
func parseMetadata(raw string) (name, summary string) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var out struct {
		Name    string `json:"name"`
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal([]byte(cleaned), &out); err == nil {
		return strings.TrimSpace(out.Name), strings.TrimSpace(out.Summary)
	}
	return strings.Trim(cleaned, `"'`), ""
}

// truncate shortens a string to at most n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
