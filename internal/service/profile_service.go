package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	app_errors "github.com/dudgeon/chat-frontier-family/internal/errors"
	"github.com/dudgeon/chat-frontier-family/internal/model"
	"github.com/dudgeon/chat-frontier-family/internal/repository"
)

// ProfileService manages the per-user profile row.
type ProfileService struct {
	repo repository.Repository
}

func NewProfileService(repo repository.Repository) *ProfileService {
	return &ProfileService{repo: repo}
}

func (s *ProfileService) Get(ctx context.Context, userID string) (*model.Profile, error) {
	p, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: profile", app_errors.ErrNotFound)
		}
		return nil, err
	}
	return p, nil
}

// Upsert creates or updates the profile for userID.
func (s *ProfileService) Upsert(ctx context.Context, userID, displayName string) (*model.Profile, error) {
	now := time.Now().UnixMilli()
	p := &model.Profile{
		UserID:      userID,
		DisplayName: displayName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if existing, err := s.repo.GetProfile(ctx, userID); err == nil {
		p.CreatedAt = existing.CreatedAt
	}
	if err := s.repo.UpsertProfile(ctx, p); err != nil {
		return nil, fmt.Errorf("could not upsert profile: %w", err)
	}
	return p, nil
}
