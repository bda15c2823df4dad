package repository

import (
	"context"

	"github.com/dudgeon/chat-frontier-family/internal/model"
)

// Repository defines the storage operations over the profiles, chat_sessions
// and chat_messages tables. The interface keeps the service layer decoupled
// from the concrete database.
type Repository interface {
	CreateSession(ctx context.Context, s *model.ChatSession) error
	GetSession(ctx context.Context, sessionID string) (*model.ChatSession, error)
	ListSessions(ctx context.Context, userID string) ([]*model.ChatSession, error)
	// UpdateSessionMeta persists name, summary and last_updated together;
	// callers must have run the row through session.Reconcile first.
	UpdateSessionMeta(ctx context.Context, s *model.ChatSession) error
	DeleteSession(ctx context.Context, sessionID string) error

	AddMessage(ctx context.Context, sessionID string, m *model.Message) error
	GetMessages(ctx context.Context, sessionID string) ([]model.Message, error)
	CountAssistantMessages(ctx context.Context, sessionID string) (int, error)

	GetProfile(ctx context.Context, userID string) (*model.Profile, error)
	UpsertProfile(ctx context.Context, p *model.Profile) error
}
