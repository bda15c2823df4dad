package interfaces

import (
	"context"

	"github.com/dudgeon/chat-frontier-family/internal/model"
	"github.com/dudgeon/chat-frontier-family/internal/service"
)

// This file defines the interfaces for the core services. The API layer
// depends on these rather than the concrete types, which keeps the layers
// decoupled and makes handler tests straightforward to mock.

// ChatService is the contract for session, message and chat-turn logic.
type ChatService interface {
	CreateSession(ctx context.Context, userID string, name *string) (*model.ChatSession, error)
	ListSessions(ctx context.Context, userID string) ([]*model.ChatSession, error)
	GetFullSession(ctx context.Context, sessionID string) (*model.FullSession, error)
	GetMessages(ctx context.Context, sessionID string) ([]model.Message, error)
	RenameSession(ctx context.Context, sessionID, name string) (*model.ChatSession, error)
	DeleteSession(ctx context.Context, sessionID string) error
	SendMessage(ctx context.Context, req *service.SendMessageRequest) (string, error)
	StartStream(ctx context.Context, req *service.SendMessageRequest) (service.StreamFunc, error)
}

// ProfileService is the contract for profile management.
type ProfileService interface {
	Get(ctx context.Context, userID string) (*model.Profile, error)
	Upsert(ctx context.Context, userID, displayName string) (*model.Profile, error)
}
