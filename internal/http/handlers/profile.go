package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/faceforge/faceforge-api/internal/models"
	"github.com/faceforge/faceforge-api/internal/service"
)

// ProfileHandler handles user preference profile endpoints.
type ProfileHandler struct {
	profileSvc *service.ProfileService
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(profileSvc *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileSvc: profileSvc}
}

// GetProfileOutput represents the caller's preference profile.
type GetProfileOutput struct {
	Body struct {
		Profile *models.UserProfile `json:"profile"`
	}
}

// GetProfile returns the caller's preference profile. Users who never
// answered the screener get an empty profile rather than a 404.
func (h *ProfileHandler) GetProfile(ctx context.Context, input *struct{}) (*GetProfileOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	profile, err := h.profileSvc.GetProfile(ctx, userID)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to get profile")
	}

	out := &GetProfileOutput{}
	out.Body.Profile = profile
	return out, nil
}

// ToggleFavoriteInput represents a favorite toggle request.
type ToggleFavoriteInput struct {
	TemplateID string `path:"templateId"`
}

// ToggleFavoriteOutput reports the new favorite state.
type ToggleFavoriteOutput struct {
	Body struct {
		Favorited bool `json:"favorited"`
	}
}

// ToggleFavorite flips a template's favorite state for the caller.
func (h *ProfileHandler) ToggleFavorite(ctx context.Context, input *ToggleFavoriteInput) (*ToggleFavoriteOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	favorited, err := h.profileSvc.ToggleFavorite(ctx, userID, input.TemplateID)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to toggle favorite")
	}

	out := &ToggleFavoriteOutput{}
	out.Body.Favorited = favorited
	return out, nil
}
