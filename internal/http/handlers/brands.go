package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/faceforge/faceforge-api/internal/models"
	"github.com/faceforge/faceforge-api/internal/service"
)

// BrandHandler handles multi-tenant brand configuration endpoints.
type BrandHandler struct {
	brandSvc *service.BrandService
}

// NewBrandHandler creates a new brand handler.
func NewBrandHandler(brandSvc *service.BrandService) *BrandHandler {
	return &BrandHandler{brandSvc: brandSvc}
}

// GetBrandInput represents a brand lookup by domain.
type GetBrandInput struct {
	Domain string `path:"domain"`
}

// BrandOutput represents one brand configuration.
type BrandOutput struct {
	Body struct {
		Brand *models.BrandConfig `json:"brand"`
	}
}

// GetBrand returns the brand configuration for a domain. Public so white-label
// frontends can theme themselves before login.
func (h *BrandHandler) GetBrand(ctx context.Context, input *GetBrandInput) (*BrandOutput, error) {
	brand, err := h.brandSvc.Get(ctx, input.Domain)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to get brand")
	}
	if brand == nil {
		return nil, huma.Error404NotFound("brand not found")
	}

	out := &BrandOutput{}
	out.Body.Brand = brand
	return out, nil
}

// ListBrandsOutput represents the brand list.
type ListBrandsOutput struct {
	Body struct {
		Brands []*models.BrandConfig `json:"brands"`
	}
}

// ListBrands returns all configured brands.
func (h *BrandHandler) ListBrands(ctx context.Context, input *struct{}) (*ListBrandsOutput, error) {
	brands, err := h.brandSvc.List(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list brands")
	}

	out := &ListBrandsOutput{}
	out.Body.Brands = brands
	return out, nil
}

// UpsertBrandInput represents a brand create-or-update request.
type UpsertBrandInput struct {
	Body struct {
		Domain     string `json:"domain" required:"true"`
		Name       string `json:"name" required:"true"`
		LogoURL    string `json:"logo_url,omitempty"`
		ThemeColor string `json:"theme_color,omitempty"`
		IsActive   bool   `json:"is_active"`
	}
}

// UpsertBrand creates or updates a brand configuration.
func (h *BrandHandler) UpsertBrand(ctx context.Context, input *UpsertBrandInput) (*BrandOutput, error) {
	brand := &models.BrandConfig{
		Domain:     input.Body.Domain,
		Name:       input.Body.Name,
		LogoURL:    input.Body.LogoURL,
		ThemeColor: input.Body.ThemeColor,
		IsActive:   input.Body.IsActive,
	}
	if err := h.brandSvc.Upsert(ctx, brand); err != nil {
		return nil, mapServiceError(err)
	}

	out := &BrandOutput{}
	out.Body.Brand = brand
	return out, nil
}

// DeleteBrandInput represents a brand removal request.
type DeleteBrandInput struct {
	Domain string `path:"domain"`
}

// DeleteBrandOutput represents the removal confirmation.
type DeleteBrandOutput struct {
	Body struct {
		Success bool `json:"success"`
	}
}

// DeleteBrand removes a brand configuration. Templates carrying the domain
// simply stop matching any tenant.
func (h *BrandHandler) DeleteBrand(ctx context.Context, input *DeleteBrandInput) (*DeleteBrandOutput, error) {
	if err := h.brandSvc.Delete(ctx, input.Domain); err != nil {
		return nil, huma.Error500InternalServerError("failed to delete brand")
	}

	out := &DeleteBrandOutput{}
	out.Body.Success = true
	return out, nil
}
