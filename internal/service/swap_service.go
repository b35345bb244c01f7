package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/faceforge/faceforge-api/internal/config"
	"github.com/faceforge/faceforge-api/internal/imagefit"
	"github.com/faceforge/faceforge-api/internal/models"
	"github.com/faceforge/faceforge-api/internal/provider"
	"github.com/faceforge/faceforge-api/internal/repository"
)

// ErrProvider marks upstream face-swap failures. The swap service raises it
// after the compensating refund has already been applied.
var ErrProvider = errors.New("provider error")

// SwapRequest is one face-swap attempt.
type SwapRequest struct {
	UserID         string // empty for guest trials
	GuestSessionID string // synthetic per-session identifier for guests

	SourceImage string // user photo, URL or data URL
	TargetImage string // template scene, URL or data URL

	TemplateID    string // optional, enables prompt/usage tracking
	TemplateTitle string

	IsGroupSwap bool
	FaceIndex   int
	TotalFaces  int
	SlotType    string
	SlotLabel   string
}

// SwapResult is the outcome of a completed swap.
type SwapResult struct {
	ResultImage      string  // base64 data URL
	ResultURL        *string // stored location, nil when upload failed or storage disabled
	FaceSwapID       string
	CreditsRemaining int64 // -1 for guest swaps
}

// resultUploader is the slice of StorageService the pipeline needs.
type resultUploader interface {
	IsEnabled() bool
	UploadSwapResult(ctx context.Context, swapID, resultDataURL string) (string, error)
}

// SwapService runs the paid swap state machine: debit, provider call,
// dimension reconciliation, upload, terminal record state. Any failure after
// the debit triggers a compensating refund; credits are never silently lost.
type SwapService struct {
	repos    *repository.Repositories
	provider provider.Provider
	storage  resultUploader
	cfg      *config.Config
	logger   *slog.Logger

	httpClient *http.Client
	reconcile  func(ctx context.Context, client *http.Client, templateRef, resultDataURL string) (string, error)
}

// NewSwapService creates a new swap service.
func NewSwapService(repos *repository.Repositories, p provider.Provider, storage *StorageService, cfg *config.Config, logger *slog.Logger) *SwapService {
	return &SwapService{
		repos:     repos,
		provider:  p,
		storage:   storage,
		cfg:       cfg,
		logger:    logger,
		reconcile: imagefit.Reconcile,
	}
}

// ProcessSwap executes one swap attempt end to end. Guest requests skip the
// ledger entirely; authenticated requests are debited up front and refunded
// on any downstream failure.
func (s *SwapService) ProcessSwap(ctx context.Context, req SwapRequest) (*SwapResult, error) {
	if req.SourceImage == "" || req.TargetImage == "" {
		return nil, fmt.Errorf("%w: source and target images are required", ErrValidation)
	}

	template, prompt := s.resolveTemplate(ctx, &req)

	rec := &models.FaceSwapRecord{
		ID:            ulid.Make().String(),
		UserID:        req.UserID,
		TemplateID:    req.TemplateID,
		TemplateTitle: req.TemplateTitle,
		Provider:      s.provider.Name(),
	}

	isGuest := req.UserID == ""
	var debit *models.CreditTransaction
	if isGuest {
		rec.UserID = "guest:" + req.GuestSessionID
		rec.IsGuest = true
		rec.Status = models.SwapProcessing
		now := time.Now()
		rec.CreatedAt = now
		rec.UpdatedAt = now
		if err := s.repos.Swap.Create(ctx, rec); err != nil {
			return nil, fmt.Errorf("failed to create swap record: %w", err)
		}
	} else {
		var err error
		debit, err = s.repos.Billing.DebitForSwap(ctx, req.UserID, s.cfg.SwapCost, rec)
		if errors.Is(err, repository.ErrInsufficientCredits) {
			return nil, ErrInsufficientCredits
		}
		if err != nil {
			return nil, fmt.Errorf("failed to debit credits: %w", err)
		}
	}

	result, err := s.provider.Swap(ctx, provider.Input{
		TargetImage: req.TargetImage,
		SourceImage: req.SourceImage,
		Prompt:      prompt,
		IsGroupSwap: req.IsGroupSwap,
		FaceIndex:   req.FaceIndex,
		TotalFaces:  req.TotalFaces,
		SlotType:    req.SlotType,
		SlotLabel:   req.SlotLabel,
	})
	if err != nil {
		return nil, s.failSwap(ctx, rec, isGuest, err)
	}

	// Providers do not guarantee output dimensions; stretch to the target's
	// exact size so the client's before/after framing lines up.
	reconciled, err := s.reconcile(ctx, s.httpClient, req.TargetImage, result.ResultImage)
	if err != nil {
		return nil, s.failSwap(ctx, rec, isGuest, fmt.Errorf("reconciliation failed: %w", err))
	}

	// Upload is best-effort: the user still gets their image inline.
	var resultURL *string
	uploadFailed := false
	if s.storage.IsEnabled() {
		if url, err := s.storage.UploadSwapResult(ctx, rec.ID, reconciled); err != nil {
			uploadFailed = true
			s.logger.Warn("result upload failed", "swap_id", rec.ID, "error", err)
		} else {
			resultURL = &url
		}
	}

	if err := s.repos.Swap.MarkCompleted(ctx, rec.ID, resultURL, uploadFailed); err != nil {
		s.logger.Warn("failed to mark swap completed", "swap_id", rec.ID, "error", err)
	}

	s.recordUsage(ctx, req, template)

	res := &SwapResult{
		ResultImage:      reconciled,
		ResultURL:        resultURL,
		FaceSwapID:       rec.ID,
		CreditsRemaining: -1,
	}
	if debit != nil {
		res.CreditsRemaining = debit.BalanceAfter
	}
	return res, nil
}

// resolveTemplate loads the referenced template, if any, to pick up its
// prompt and title. Lookup failures are non-fatal; the swap proceeds with
// what the request carried.
func (s *SwapService) resolveTemplate(ctx context.Context, req *SwapRequest) (*models.Template, string) {
	if req.TemplateID == "" {
		return nil, ""
	}
	template, err := s.repos.Template.GetByID(ctx, req.TemplateID)
	if err != nil || template == nil {
		s.logger.Warn("template lookup failed", "template_id", req.TemplateID, "error", err)
		return nil, ""
	}
	if req.TemplateTitle == "" {
		req.TemplateTitle = template.Title
	}
	return template, template.Prompt
}

// failSwap applies the failure path: refund for paid swaps, terminal failed
// state for guest swaps. The returned error always carries the ErrProvider
// marker so the handler maps it to a stable code.
func (s *SwapService) failSwap(ctx context.Context, rec *models.FaceSwapRecord, isGuest bool, cause error) error {
	s.logger.Error("swap failed", "swap_id", rec.ID, "provider", rec.Provider, "error", cause)

	if isGuest {
		if err := s.repos.Swap.MarkFailed(ctx, rec.ID, cause.Error()); err != nil {
			s.logger.Warn("failed to mark guest swap failed", "swap_id", rec.ID, "error", err)
		}
		return fmt.Errorf("%w: %v", ErrProvider, cause)
	}

	// RefundSwap re-credits the debit and marks the record failed in one
	// transaction. A refund failure is serious: log loudly, but the original
	// cause is still what the user needs to see.
	if _, err := s.repos.Billing.RefundSwap(ctx, rec.UserID, rec.ID, rec.CreditsCharged, cause.Error()); err != nil {
		s.logger.Error("refund failed after swap error",
			"swap_id", rec.ID,
			"user_id", rec.UserID,
			"credits", rec.CreditsCharged,
			"error", err,
		)
	}
	return fmt.Errorf("%w: %v", ErrProvider, cause)
}

// recordUsage applies the best-effort success side effects: template usage
// counter and profile history. Failures are logged and swallowed.
func (s *SwapService) recordUsage(ctx context.Context, req SwapRequest, template *models.Template) {
	if template == nil {
		return
	}
	if err := s.repos.Template.IncrementUsage(ctx, template.ID); err != nil {
		s.logger.Warn("usage increment failed", "template_id", template.ID, "error", err)
	}
	if req.UserID != "" {
		if err := s.repos.Profile.AppendTemplateUse(ctx, req.UserID, template.ID, time.Now()); err != nil {
			s.logger.Warn("history append failed", "user_id", req.UserID, "template_id", template.ID, "error", err)
		}
	}
}

// GetSwap returns one swap record.
func (s *SwapService) GetSwap(ctx context.Context, id string) (*models.FaceSwapRecord, error) {
	return s.repos.Swap.GetByID(ctx, id)
}

// ListSwaps returns a user's swap history, newest first.
func (s *SwapService) ListSwaps(ctx context.Context, userID string, limit, offset int) ([]*models.FaceSwapRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repos.Swap.ListByUserID(ctx, userID, limit, offset)
}
