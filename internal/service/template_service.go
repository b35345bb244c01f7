package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/faceforge/faceforge-api/internal/imageio"
	"github.com/faceforge/faceforge-api/internal/models"
	"github.com/faceforge/faceforge-api/internal/recommend"
	"github.com/faceforge/faceforge-api/internal/repository"
)

// assetDeleter is the slice of StorageService the template service needs.
type assetDeleter interface {
	IsEnabled() bool
	UploadTemplateAsset(ctx context.Context, templateID, dataURL string) (string, error)
	DeleteTemplateAssets(ctx context.Context, templateID string) error
}

// TemplateService manages the template catalog and its ranked views.
type TemplateService struct {
	repos   *repository.Repositories
	storage assetDeleter
	logger  *slog.Logger
}

// NewTemplateService creates a new template service.
func NewTemplateService(repos *repository.Repositories, storage *StorageService, logger *slog.Logger) *TemplateService {
	return &TemplateService{repos: repos, storage: storage, logger: logger}
}

// Create validates and stores a new template. Inline image payloads are
// uploaded to blob storage first so the catalog only ever references URLs.
func (s *TemplateService) Create(ctx context.Context, t *models.Template) error {
	if t.Title == "" || t.ImageURL == "" {
		return fmt.Errorf("%w: title and image are required", ErrValidation)
	}
	if len(t.Categories) == 0 {
		return fmt.Errorf("%w: at least one category is required", ErrValidation)
	}
	if t.ID == "" {
		t.ID = ulid.Make().String()
	}
	if t.FaceCount <= 0 {
		t.FaceCount = 1
	}

	if err := s.uploadInlineAssets(ctx, t); err != nil {
		return err
	}

	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now
	return s.repos.Template.Create(ctx, t)
}

// Update persists changes to a template.
func (s *TemplateService) Update(ctx context.Context, t *models.Template) error {
	existing, err := s.repos.Template.GetByID(ctx, t.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrNotFound
	}
	if len(t.Categories) == 0 {
		return fmt.Errorf("%w: at least one category is required", ErrValidation)
	}

	// The usage counter never decreases; admin edits cannot touch it.
	t.UsageCount = existing.UsageCount

	if err := s.uploadInlineAssets(ctx, t); err != nil {
		return err
	}
	return s.repos.Template.Update(ctx, t)
}

// uploadInlineAssets replaces data-URL image references with stored URLs.
func (s *TemplateService) uploadInlineAssets(ctx context.Context, t *models.Template) error {
	if !s.storage.IsEnabled() {
		return nil
	}
	if imageio.IsDataURL(t.ImageURL) {
		url, err := s.storage.UploadTemplateAsset(ctx, t.ID, t.ImageURL)
		if err != nil {
			return fmt.Errorf("failed to upload template image: %w", err)
		}
		t.ImageURL = url
	}
	for i, variant := range t.VariantURLs {
		if imageio.IsDataURL(variant) {
			url, err := s.storage.UploadTemplateAsset(ctx, t.ID, variant)
			if err != nil {
				return fmt.Errorf("failed to upload variant image: %w", err)
			}
			t.VariantURLs[i] = url
		}
	}
	return nil
}

// Get returns one template, nil when missing.
func (s *TemplateService) Get(ctx context.Context, id string) (*models.Template, error) {
	return s.repos.Template.GetByID(ctx, id)
}

// Deactivate soft-deletes a template by clearing its active flag.
func (s *TemplateService) Deactivate(ctx context.Context, id string) error {
	t, err := s.repos.Template.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if t == nil {
		return ErrNotFound
	}
	t.IsActive = false
	return s.repos.Template.Update(ctx, t)
}

// Delete hard-deletes a template and cascades to its stored image blobs.
func (s *TemplateService) Delete(ctx context.Context, id string) error {
	t, err := s.repos.Template.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if t == nil {
		return ErrNotFound
	}
	if err := s.repos.Template.Delete(ctx, id); err != nil {
		return err
	}
	// Blob cascade is best-effort; orphaned blobs are cheaper than a
	// half-deleted catalog entry.
	if err := s.storage.DeleteTemplateAssets(ctx, id); err != nil {
		s.logger.Warn("failed to delete template assets", "template_id", id, "error", err)
	}
	return nil
}

// List returns catalog templates, optionally restricted to a brand domain.
func (s *TemplateService) List(ctx context.Context, activeOnly bool, brandDomain string) ([]*models.Template, error) {
	return s.repos.Template.List(ctx, activeOnly, brandDomain)
}

// Recommended returns active templates ranked for the given user. Anonymous
// users (empty userID) are ranked on popularity and quality only.
func (s *TemplateService) Recommended(ctx context.Context, userID, brandDomain string, excludePremium bool, limit int) ([]recommend.Ranked, error) {
	templates, err := s.repos.Template.List(ctx, true, brandDomain)
	if err != nil {
		return nil, err
	}

	var profile *models.UserProfile
	if userID != "" {
		profile, err = s.repos.Profile.Get(ctx, userID)
		if err != nil {
			return nil, err
		}
	}

	return recommend.RankTemplates(templates, profile, time.Now(), recommend.RankOptions{
		ActiveOnly:     true,
		ExcludePremium: excludePremium,
		Limit:          limit,
	}), nil
}

// Trending returns active templates by usage, descending.
func (s *TemplateService) Trending(ctx context.Context, brandDomain string, timeWindowDays, limit int) ([]*models.Template, error) {
	templates, err := s.repos.Template.List(ctx, true, brandDomain)
	if err != nil {
		return nil, err
	}
	return recommend.TrendingTemplates(templates, timeWindowDays, limit), nil
}

// Search matches a free-text query against the active catalog.
func (s *TemplateService) Search(ctx context.Context, brandDomain, query string) ([]*models.Template, error) {
	templates, err := s.repos.Template.List(ctx, true, brandDomain)
	if err != nil {
		return nil, err
	}
	return recommend.SearchTemplates(templates, query), nil
}

// ByOccasion filters the active catalog by occasion tag.
func (s *TemplateService) ByOccasion(ctx context.Context, brandDomain, occasion string) ([]*models.Template, error) {
	templates, err := s.repos.Template.List(ctx, true, brandDomain)
	if err != nil {
		return nil, err
	}
	return recommend.TemplatesByOccasion(templates, occasion), nil
}
