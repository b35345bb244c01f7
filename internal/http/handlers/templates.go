package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/faceforge/faceforge-api/internal/models"
	"github.com/faceforge/faceforge-api/internal/recommend"
	"github.com/faceforge/faceforge-api/internal/service"
)

// TemplateHandler handles the template catalog endpoints.
type TemplateHandler struct {
	templateSvc *service.TemplateService
}

// NewTemplateHandler creates a new template handler.
func NewTemplateHandler(templateSvc *service.TemplateService) *TemplateHandler {
	return &TemplateHandler{templateSvc: templateSvc}
}

// ListTemplatesInput represents a catalog listing request.
type ListTemplatesInput struct {
	Brand string `query:"brand" doc:"Brand domain filter; branded templates are hidden from other tenants"`
}

// ListTemplatesOutput represents a catalog listing.
type ListTemplatesOutput struct {
	Body struct {
		Templates []*models.Template `json:"templates"`
	}
}

// ListTemplates returns all active templates visible to the brand.
func (h *TemplateHandler) ListTemplates(ctx context.Context, input *ListTemplatesInput) (*ListTemplatesOutput, error) {
	templates, err := h.templateSvc.List(ctx, true, input.Brand)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list templates")
	}

	out := &ListTemplatesOutput{}
	out.Body.Templates = templates
	return out, nil
}

// GetTemplateInput represents a single template lookup.
type GetTemplateInput struct {
	ID string `path:"id"`
}

// GetTemplateOutput represents one template.
type GetTemplateOutput struct {
	Body struct {
		Template *models.Template `json:"template"`
	}
}

// GetTemplate returns one template by id.
func (h *TemplateHandler) GetTemplate(ctx context.Context, input *GetTemplateInput) (*GetTemplateOutput, error) {
	t, err := h.templateSvc.Get(ctx, input.ID)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to get template")
	}
	if t == nil {
		return nil, huma.Error404NotFound("template not found")
	}

	out := &GetTemplateOutput{}
	out.Body.Template = t
	return out, nil
}

// RecommendedInput represents a personalized recommendation request.
type RecommendedInput struct {
	Brand          string `query:"brand"`
	Limit          int    `query:"limit" default:"20" minimum:"1" maximum:"100"`
	ExcludePremium bool   `query:"exclude_premium"`
}

// RecommendedOutput represents ranked recommendations with score breakdowns.
type RecommendedOutput struct {
	Body struct {
		Templates []recommend.Ranked `json:"templates"`
	}
}

// Recommended returns templates ranked for the caller. Anonymous callers get
// popularity and quality ranking only.
func (h *TemplateHandler) Recommended(ctx context.Context, input *RecommendedInput) (*RecommendedOutput, error) {
	ranked, err := h.templateSvc.Recommended(ctx, getUserID(ctx), input.Brand, input.ExcludePremium, input.Limit)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to rank templates")
	}

	out := &RecommendedOutput{}
	out.Body.Templates = ranked
	return out, nil
}

// TrendingInput represents a trending templates request.
type TrendingInput struct {
	Brand string `query:"brand"`
	Days  int    `query:"days" default:"7" minimum:"1" maximum:"90" doc:"Trend window in days"`
	Limit int    `query:"limit" default:"20" minimum:"1" maximum:"100"`
}

// Trending returns the most-used active templates.
func (h *TemplateHandler) Trending(ctx context.Context, input *TrendingInput) (*ListTemplatesOutput, error) {
	templates, err := h.templateSvc.Trending(ctx, input.Brand, input.Days, input.Limit)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to get trending templates")
	}

	out := &ListTemplatesOutput{}
	out.Body.Templates = templates
	return out, nil
}

// SearchTemplatesInput represents a free-text catalog search.
type SearchTemplatesInput struct {
	Brand string `query:"brand"`
	Query string `query:"q" required:"true" minLength:"1"`
}

// SearchTemplates matches the query against titles, descriptions, and
// categories.
func (h *TemplateHandler) SearchTemplates(ctx context.Context, input *SearchTemplatesInput) (*ListTemplatesOutput, error) {
	templates, err := h.templateSvc.Search(ctx, input.Brand, input.Query)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to search templates")
	}

	out := &ListTemplatesOutput{}
	out.Body.Templates = templates
	return out, nil
}

// ByOccasionInput represents an occasion-filtered catalog request.
type ByOccasionInput struct {
	Brand    string `query:"brand"`
	Occasion string `path:"occasion"`
}

// ByOccasion filters the active catalog by occasion tag.
func (h *TemplateHandler) ByOccasion(ctx context.Context, input *ByOccasionInput) (*ListTemplatesOutput, error) {
	templates, err := h.templateSvc.ByOccasion(ctx, input.Brand, input.Occasion)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to filter templates")
	}

	out := &ListTemplatesOutput{}
	out.Body.Templates = templates
	return out, nil
}

// ========================================
// Admin catalog management
// ========================================

// TemplateBody is the writable template payload for admin endpoints.
type TemplateBody struct {
	Title       string                  `json:"title" required:"true"`
	Description string                  `json:"description,omitempty"`
	ImageURL    string                  `json:"image_url" required:"true" doc:"URL or inline data URL; inline payloads are uploaded to blob storage"`
	VariantURLs []string                `json:"variant_urls,omitempty"`
	Prompt      string                  `json:"prompt,omitempty"`
	Categories  []string                `json:"categories" required:"true" minItems:"1"`
	Metadata    models.TemplateMetadata `json:"metadata,omitempty"`
	IsActive    bool                    `json:"is_active"`
	IsPremium   bool                    `json:"is_premium,omitempty"`
	BrandDomain string                  `json:"brand_domain,omitempty"`
	FaceCount   int                     `json:"face_count,omitempty" minimum:"0" maximum:"10"`
	GroupSlots  []models.GroupSlot      `json:"group_slots,omitempty"`
}

func (b *TemplateBody) toModel(id string) *models.Template {
	return &models.Template{
		ID:          id,
		Title:       b.Title,
		Description: b.Description,
		ImageURL:    b.ImageURL,
		VariantURLs: b.VariantURLs,
		Prompt:      b.Prompt,
		Categories:  b.Categories,
		Metadata:    b.Metadata,
		IsActive:    b.IsActive,
		IsPremium:   b.IsPremium,
		BrandDomain: b.BrandDomain,
		FaceCount:   b.FaceCount,
		GroupSlots:  b.GroupSlots,
	}
}

// CreateTemplateInput represents an admin template creation request.
type CreateTemplateInput struct {
	Body TemplateBody
}

// CreateTemplate adds a template to the catalog.
func (h *TemplateHandler) CreateTemplate(ctx context.Context, input *CreateTemplateInput) (*GetTemplateOutput, error) {
	t := input.Body.toModel("")
	if err := h.templateSvc.Create(ctx, t); err != nil {
		return nil, mapServiceError(err)
	}

	out := &GetTemplateOutput{}
	out.Body.Template = t
	return out, nil
}

// UpdateTemplateInput represents an admin template update request.
type UpdateTemplateInput struct {
	ID   string `path:"id"`
	Body TemplateBody
}

// UpdateTemplate replaces a template's editable fields. The usage counter is
// preserved server-side.
func (h *TemplateHandler) UpdateTemplate(ctx context.Context, input *UpdateTemplateInput) (*GetTemplateOutput, error) {
	t := input.Body.toModel(input.ID)
	if err := h.templateSvc.Update(ctx, t); err != nil {
		return nil, mapServiceError(err)
	}

	out := &GetTemplateOutput{}
	out.Body.Template = t
	return out, nil
}

// DeleteTemplateInput represents an admin template removal request.
type DeleteTemplateInput struct {
	ID        string `path:"id"`
	Permanent bool   `query:"permanent" doc:"Hard-delete the row and its stored images instead of deactivating"`
}

// DeleteTemplateOutput represents the removal confirmation.
type DeleteTemplateOutput struct {
	Body struct {
		Success bool `json:"success"`
	}
}

// DeleteTemplate deactivates a template, or hard-deletes it with
// permanent=true.
func (h *TemplateHandler) DeleteTemplate(ctx context.Context, input *DeleteTemplateInput) (*DeleteTemplateOutput, error) {
	var err error
	if input.Permanent {
		err = h.templateSvc.Delete(ctx, input.ID)
	} else {
		err = h.templateSvc.Deactivate(ctx, input.ID)
	}
	if err != nil {
		return nil, mapServiceError(err)
	}

	out := &DeleteTemplateOutput{}
	out.Body.Success = true
	return out, nil
}

// ListAllTemplatesInput represents the admin catalog listing.
type ListAllTemplatesInput struct {
	Brand string `query:"brand"`
}

// ListAllTemplates returns every template including inactive ones.
func (h *TemplateHandler) ListAllTemplates(ctx context.Context, input *ListAllTemplatesInput) (*ListTemplatesOutput, error) {
	templates, err := h.templateSvc.List(ctx, false, input.Brand)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list templates")
	}

	out := &ListTemplatesOutput{}
	out.Body.Templates = templates
	return out, nil
}
