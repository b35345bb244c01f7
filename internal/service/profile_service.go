package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/faceforge/faceforge-api/internal/models"
	"github.com/faceforge/faceforge-api/internal/repository"
)

// ProfileService reads and mutates user preference profiles.
type ProfileService struct {
	repos  *repository.Repositories
	logger *slog.Logger
}

// NewProfileService creates a new profile service.
func NewProfileService(repos *repository.Repositories, logger *slog.Logger) *ProfileService {
	return &ProfileService{repos: repos, logger: logger}
}

// GetProfile returns a user's profile, or an empty one when none exists yet.
func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	profile, err := s.repos.Profile.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		profile = &models.UserProfile{UserID: userID}
	}
	return profile, nil
}

// ToggleFavorite adds or removes a template from the user's favorites and
// reports the new state.
func (s *ProfileService) ToggleFavorite(ctx context.Context, userID, templateID string) (favorited bool, err error) {
	profile, err := s.repos.Profile.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	now := time.Now()
	if profile == nil {
		profile = &models.UserProfile{UserID: userID, CreatedAt: now}
	}

	if profile.IsFavorite(templateID) {
		kept := profile.FavoriteTemplates[:0]
		for _, id := range profile.FavoriteTemplates {
			if id != templateID {
				kept = append(kept, id)
			}
		}
		profile.FavoriteTemplates = kept
		favorited = false
	} else {
		profile.FavoriteTemplates = append(profile.FavoriteTemplates, templateID)
		favorited = true
	}

	profile.UpdatedAt = now
	if err := s.repos.Profile.Upsert(ctx, profile); err != nil {
		return false, err
	}
	return favorited, nil
}
