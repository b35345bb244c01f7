package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/webhook"

	"github.com/faceforge/faceforge-api/internal/config"
	"github.com/faceforge/faceforge-api/internal/service"
)

// StripeWebhookHandler handles Stripe webhook events.
type StripeWebhookHandler struct {
	cfg        *config.Config
	balanceSvc *service.BalanceService
	logger     *slog.Logger
}

// NewStripeWebhookHandler creates a new Stripe webhook handler.
func NewStripeWebhookHandler(cfg *config.Config, balanceSvc *service.BalanceService, logger *slog.Logger) *StripeWebhookHandler {
	return &StripeWebhookHandler{
		cfg:        cfg,
		balanceSvc: balanceSvc,
		logger:     logger,
	}
}

// HandleWebhook processes incoming Stripe webhooks.
// This is a raw HTTP handler since huma doesn't handle raw body verification well.
func (h *StripeWebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	const maxBodySize = 65536 // 64KB

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Error("failed to read webhook body", "error", err)
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	sigHeader := r.Header.Get("Stripe-Signature")
	event, err := webhook.ConstructEvent(payload, sigHeader, h.cfg.StripeWebhookSecret)
	if err != nil {
		h.logger.Error("failed to verify webhook signature", "error", err)
		http.Error(w, "invalid signature", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if err := h.handleEvent(ctx, event); err != nil {
		h.logger.Error("failed to handle webhook event", "type", event.Type, "error", err)
		// Return 200 to prevent Stripe from retrying business logic errors.
		w.WriteHeader(http.StatusOK)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// handleEvent routes events to appropriate handlers.
func (h *StripeWebhookHandler) handleEvent(ctx context.Context, event stripe.Event) error {
	h.logger.Info("received Stripe webhook", "type", event.Type, "id", event.ID)

	switch event.Type {
	case "checkout.session.completed":
		return h.handleCheckoutComplete(ctx, event)

	case "payment_intent.succeeded":
		return h.handlePaymentIntentSucceeded(ctx, event)

	default:
		h.logger.Debug("unhandled webhook event type", "type", event.Type)
		return nil
	}
}

// handleCheckoutComplete credits a completed checkout. The checkout session
// carries the user id and credit amount in its metadata; the payment intent
// id is the idempotency key.
func (h *StripeWebhookHandler) handleCheckoutComplete(ctx context.Context, event stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return fmt.Errorf("failed to unmarshal checkout session: %w", err)
	}

	userID := session.Metadata["user_id"]
	if userID == "" {
		h.logger.Warn("checkout session missing user_id", "session_id", session.ID)
		return nil
	}

	credits, err := strconv.ParseInt(session.Metadata["credits"], 10, 64)
	if err != nil || credits <= 0 {
		h.logger.Warn("checkout session missing credits metadata", "session_id", session.ID)
		return nil
	}

	paymentID := session.ID
	if session.PaymentIntent != nil {
		paymentID = session.PaymentIntent.ID
	}

	if _, err := h.balanceSvc.RecordPurchase(ctx, userID, paymentID, credits); err != nil {
		if errors.Is(err, service.ErrDuplicatePayment) {
			h.logger.Info("duplicate checkout payment ignored", "payment_id", paymentID)
			return nil
		}
		return fmt.Errorf("failed to record purchase: %w", err)
	}

	h.logger.Info("credited purchase",
		"user_id", userID,
		"payment_id", paymentID,
		"credits", credits,
	)
	return nil
}

// handlePaymentIntentSucceeded covers direct payment intents created outside
// a checkout session. Intents without credit metadata are ignored.
func (h *StripeWebhookHandler) handlePaymentIntentSucceeded(ctx context.Context, event stripe.Event) error {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return fmt.Errorf("failed to unmarshal payment intent: %w", err)
	}

	userID := intent.Metadata["user_id"]
	if userID == "" {
		return nil
	}
	credits, err := strconv.ParseInt(intent.Metadata["credits"], 10, 64)
	if err != nil || credits <= 0 {
		return nil
	}

	if _, err := h.balanceSvc.RecordPurchase(ctx, userID, intent.ID, credits); err != nil {
		if errors.Is(err, service.ErrDuplicatePayment) {
			h.logger.Info("duplicate payment intent ignored", "payment_id", intent.ID)
			return nil
		}
		return fmt.Errorf("failed to record purchase: %w", err)
	}

	h.logger.Info("credited purchase from payment intent",
		"user_id", userID,
		"payment_id", intent.ID,
		"credits", credits,
	)
	return nil
}
