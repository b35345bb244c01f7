package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	svix "github.com/svix/svix-webhooks/go"

	"github.com/faceforge/faceforge-api/internal/config"
	"github.com/faceforge/faceforge-api/internal/service"
)

// IdentityWebhookHandler handles identity-provider webhook events, delivered
// with Svix signatures.
type IdentityWebhookHandler struct {
	cfg        *config.Config
	balanceSvc *service.BalanceService
	cleanupSvc *service.UserCleanupService
	logger     *slog.Logger
}

// NewIdentityWebhookHandler creates a new identity webhook handler.
func NewIdentityWebhookHandler(cfg *config.Config, balanceSvc *service.BalanceService, cleanupSvc *service.UserCleanupService, logger *slog.Logger) *IdentityWebhookHandler {
	return &IdentityWebhookHandler{
		cfg:        cfg,
		balanceSvc: balanceSvc,
		cleanupSvc: cleanupSvc,
		logger:     logger,
	}
}

// IdentityEvent represents an identity-provider webhook event.
type IdentityEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// UserCreatedData represents the payload of a user.created event.
type UserCreatedData struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// HandleWebhook processes incoming identity webhooks.
func (h *IdentityWebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	const maxBodySize = 65536 // 64KB

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Error("failed to read webhook body", "error", err)
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	headers := http.Header{}
	headers.Set("svix-id", r.Header.Get("svix-id"))
	headers.Set("svix-timestamp", r.Header.Get("svix-timestamp"))
	headers.Set("svix-signature", r.Header.Get("svix-signature"))

	wh, err := svix.NewWebhook(h.cfg.IdentityWebhookSecret)
	if err != nil {
		h.logger.Error("failed to create webhook verifier", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if err := wh.Verify(payload, headers); err != nil {
		h.logger.Error("failed to verify webhook signature", "error", err)
		http.Error(w, "invalid signature", http.StatusBadRequest)
		return
	}

	var event IdentityEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		h.logger.Error("failed to parse webhook event", "error", err)
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	if err := h.handleEvent(r.Context(), event); err != nil {
		h.logger.Error("failed to handle webhook event", "type", event.Type, "error", err)
		// Return 200 so the provider does not retry business logic errors.
		w.WriteHeader(http.StatusOK)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// handleEvent routes events to appropriate handlers.
func (h *IdentityWebhookHandler) handleEvent(ctx context.Context, event IdentityEvent) error {
	h.logger.Info("received identity webhook", "type", event.Type)

	switch event.Type {
	case "user.created":
		return h.handleUserCreated(ctx, event.Data)
	case "user.deleted":
		return h.handleUserDeleted(ctx, event.Data)
	default:
		h.logger.Debug("unhandled webhook event type", "type", event.Type)
		return nil
	}
}

// handleUserCreated grants the signup bonus. The grant is idempotent on the
// user id, so redelivered events are harmless.
func (h *IdentityWebhookHandler) handleUserCreated(ctx context.Context, data json.RawMessage) error {
	var user UserCreatedData
	if err := json.Unmarshal(data, &user); err != nil {
		return err
	}
	if user.ID == "" {
		h.logger.Warn("user.created event missing user id")
		return nil
	}
	return h.balanceSvc.GrantSignupBonus(ctx, user.ID)
}

// UserDeletedData represents the payload of a user.deleted event.
type UserDeletedData struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// handleUserDeleted removes all data for a deleted account.
func (h *IdentityWebhookHandler) handleUserDeleted(ctx context.Context, data json.RawMessage) error {
	var user UserDeletedData
	if err := json.Unmarshal(data, &user); err != nil {
		return err
	}
	if user.ID == "" {
		h.logger.Warn("user.deleted event missing user id")
		return nil
	}
	if h.cleanupSvc == nil {
		h.logger.Warn("user cleanup service not configured, skipping data deletion", "user_id", user.ID)
		return nil
	}
	return h.cleanupSvc.DeleteAllUserData(ctx, user.ID)
}
