package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/oklog/ulid/v2"

	"github.com/faceforge/faceforge-api/internal/models"
	"github.com/faceforge/faceforge-api/internal/service"
)

// FaceSwapHandler handles swap processing and history endpoints.
type FaceSwapHandler struct {
	swapSvc *service.SwapService
	logger  *slog.Logger
}

// NewFaceSwapHandler creates a new face swap handler.
func NewFaceSwapHandler(swapSvc *service.SwapService, logger *slog.Logger) *FaceSwapHandler {
	return &FaceSwapHandler{swapSvc: swapSvc, logger: logger}
}

// ProcessFaceSwapInput represents a face swap request.
type ProcessFaceSwapInput struct {
	GuestSession string `header:"X-Guest-Session" doc:"Client-generated session id for guest trials"`
	Body         struct {
		SourceImage   string `json:"source_image" required:"true" doc:"User photo as URL or data URL"`
		TargetImage   string `json:"target_image" required:"true" doc:"Template scene as URL or data URL"`
		TemplateID    string `json:"template_id,omitempty" doc:"Catalog template the target came from"`
		TemplateTitle string `json:"template_title,omitempty"`
		IsGroupSwap   bool   `json:"is_group_swap,omitempty"`
		FaceIndex     int    `json:"face_index,omitempty" doc:"0-based subject to replace in a group swap"`
		TotalFaces    int    `json:"total_faces,omitempty"`
		SlotType      string `json:"slot_type,omitempty" doc:"Subject kind for the targeted slot: person, pet, or baby"`
		SlotLabel     string `json:"slot_label,omitempty"`
	}
}

// ProcessFaceSwapOutput represents a completed face swap.
type ProcessFaceSwapOutput struct {
	Body struct {
		Success          bool    `json:"success"`
		ResultImage      string  `json:"result_image" doc:"Result as a base64 data URL"`
		ResultURL        *string `json:"result_url,omitempty" doc:"Stored result location, when upload succeeded"`
		FaceSwapID       string  `json:"face_swap_id"`
		CreditsRemaining int64   `json:"credits_remaining" doc:"-1 for guest swaps"`
	}
}

// ProcessFaceSwap runs one swap. Authenticated users are charged a credit;
// unauthenticated requests run as guest trials gated by the trial limiter.
func (h *FaceSwapHandler) ProcessFaceSwap(ctx context.Context, input *ProcessFaceSwapInput) (*ProcessFaceSwapOutput, error) {
	req := service.SwapRequest{
		UserID:        getUserID(ctx),
		SourceImage:   input.Body.SourceImage,
		TargetImage:   input.Body.TargetImage,
		TemplateID:    input.Body.TemplateID,
		TemplateTitle: input.Body.TemplateTitle,
		IsGroupSwap:   input.Body.IsGroupSwap,
		FaceIndex:     input.Body.FaceIndex,
		TotalFaces:    input.Body.TotalFaces,
		SlotType:      input.Body.SlotType,
		SlotLabel:     input.Body.SlotLabel,
	}
	if req.UserID == "" {
		req.GuestSessionID = input.GuestSession
		if req.GuestSessionID == "" {
			req.GuestSessionID = ulid.Make().String()
		}
	}

	res, err := h.swapSvc.ProcessSwap(ctx, req)
	if err != nil {
		return nil, mapServiceError(err)
	}

	out := &ProcessFaceSwapOutput{}
	out.Body.Success = true
	out.Body.ResultImage = res.ResultImage
	out.Body.ResultURL = res.ResultURL
	out.Body.FaceSwapID = res.FaceSwapID
	out.Body.CreditsRemaining = res.CreditsRemaining
	return out, nil
}

// ListSwapsInput represents a swap history request.
type ListSwapsInput struct {
	Limit  int `query:"limit" default:"50" minimum:"1" maximum:"100"`
	Offset int `query:"offset" default:"0" minimum:"0"`
}

// ListSwapsOutput represents a page of swap history.
type ListSwapsOutput struct {
	Body struct {
		Swaps []*models.FaceSwapRecord `json:"swaps"`
	}
}

// ListSwaps returns the caller's swap history, newest first.
func (h *FaceSwapHandler) ListSwaps(ctx context.Context, input *ListSwapsInput) (*ListSwapsOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	swaps, err := h.swapSvc.ListSwaps(ctx, userID, input.Limit, input.Offset)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list swaps")
	}

	out := &ListSwapsOutput{}
	out.Body.Swaps = swaps
	return out, nil
}

// GetSwapInput represents a single swap lookup.
type GetSwapInput struct {
	ID string `path:"id"`
}

// GetSwapOutput represents one swap record.
type GetSwapOutput struct {
	Body struct {
		Swap *models.FaceSwapRecord `json:"swap"`
	}
}

// GetSwap returns one of the caller's swap records.
func (h *FaceSwapHandler) GetSwap(ctx context.Context, input *GetSwapInput) (*GetSwapOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	swap, err := h.swapSvc.GetSwap(ctx, input.ID)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to get swap")
	}
	// Records are private to their owner.
	if swap == nil || swap.UserID != userID {
		return nil, codedError(http.StatusNotFound, CodeNotFound, "swap not found")
	}

	out := &GetSwapOutput{}
	out.Body.Swap = swap
	return out, nil
}
