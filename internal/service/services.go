package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/faceforge/faceforge-api/internal/config"
	"github.com/faceforge/faceforge-api/internal/models"
	"github.com/faceforge/faceforge-api/internal/provider"
	"github.com/faceforge/faceforge-api/internal/repository"
)

// Services aggregates the business logic layer.
type Services struct {
	Balance  *BalanceService
	Swap     *SwapService
	Template *TemplateService
	Screener *ScreenerService
	Profile  *ProfileService
	Brand    *BrandService
	Storage  *StorageService
}

// New wires all services.
func New(repos *repository.Repositories, p provider.Provider, storage *StorageService, cfg *config.Config, logger *slog.Logger) *Services {
	return &Services{
		Balance:  NewBalanceService(repos, cfg, logger),
		Swap:     NewSwapService(repos, p, storage, cfg, logger),
		Template: NewTemplateService(repos, storage, logger),
		Screener: NewScreenerService(repos, logger),
		Profile:  NewProfileService(repos, logger),
		Brand:    NewBrandService(repos),
		Storage:  storage,
	}
}

// BrandService manages multi-tenant brand configuration.
type BrandService struct {
	repos *repository.Repositories
}

// NewBrandService creates a new brand service.
func NewBrandService(repos *repository.Repositories) *BrandService {
	return &BrandService{repos: repos}
}

// Upsert creates or updates a brand configuration.
func (s *BrandService) Upsert(ctx context.Context, b *models.BrandConfig) error {
	if b.Domain == "" || b.Name == "" {
		return ErrValidation
	}
	now := time.Now()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
	return s.repos.Brand.Upsert(ctx, b)
}

// Get returns a brand config by domain, nil when missing.
func (s *BrandService) Get(ctx context.Context, domain string) (*models.BrandConfig, error) {
	return s.repos.Brand.GetByDomain(ctx, domain)
}

// List returns all brand configs.
func (s *BrandService) List(ctx context.Context) ([]*models.BrandConfig, error) {
	return s.repos.Brand.List(ctx)
}

// Delete removes a brand config.
func (s *BrandService) Delete(ctx context.Context, domain string) error {
	return s.repos.Brand.Delete(ctx, domain)
}
