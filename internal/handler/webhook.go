package handler

import (
	"context"
	"errors"
	"net/http"

	"checkout-notifier/internal/metrics"
	"checkout-notifier/internal/model"
	"checkout-notifier/internal/normalize"
	"checkout-notifier/internal/scheduler"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Submitter is the part of the scheduler the handler depends on.
type Submitter interface {
	Submit(ctx context.Context, c model.Checkout) (scheduler.Status, error)
	Pending(ctx context.Context) (int, error)
}

type WebhookHandler struct {
	scheduler Submitter
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

func NewWebhookHandler(s Submitter, m *metrics.Metrics, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{scheduler: s, metrics: m, logger: logger}
}

var missingMessages = map[error]string{
	normalize.ErrMissingID:          "Bad Request: Missing checkout id",
	normalize.ErrMissingPhone:       "Bad Request: Missing phone number",
	normalize.ErrMissingCheckoutURL: "Bad Request: Missing checkout URL",
}

// HandleWebhook accepts an abandoned checkout event and schedules its
// notification. Duplicates are acknowledged with 200 too, so the platform
// does not redeliver them.
func (h *WebhookHandler) HandleWebhook(c *gin.Context) {
	var ev model.CheckoutEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		h.metrics.Webhook(metrics.OutcomeInvalid)
		h.logger.Warn("Invalid webhook body", zap.Error(err))
		c.String(http.StatusBadRequest, "Bad Request: invalid JSON body")
		return
	}
	h.logger.Debug("Received webhook", zap.Any("event", ev))

	checkout, err := normalize.Event(ev)
	if err != nil {
		h.metrics.Webhook(metrics.OutcomeInvalid)
		var ve *normalize.ValidationError
		if errors.As(err, &ve) {
			h.logger.Warn("Rejected webhook",
				zap.String("checkout_id", string(ev.ID)),
				zap.String("field", ve.Field),
				zap.Error(err),
			)
			c.String(http.StatusBadRequest, missingMessages[ve.Err])
			return
		}
		h.logger.Error("Failed to normalize webhook", zap.Error(err))
		c.String(http.StatusBadRequest, "Bad Request")
		return
	}
	h.logger.Debug("Formatted phone number", zap.String("checkout_id", checkout.ID), zap.String("phone", checkout.Phone))

	status, err := h.scheduler.Submit(c.Request.Context(), checkout)
	if err != nil {
		h.metrics.Webhook(metrics.OutcomeError)
		h.logger.Error("Failed to schedule message", zap.String("checkout_id", checkout.ID), zap.Error(err))
		c.String(http.StatusInternalServerError, "Internal Server Error")
		return
	}

	switch status {
	case scheduler.StatusDuplicate:
		h.metrics.Webhook(metrics.OutcomeDuplicate)
		c.String(http.StatusOK, "Message already scheduled")
	default:
		h.metrics.Webhook(metrics.OutcomeScheduled)
		c.String(http.StatusOK, "Webhook processed, message scheduled")
	}
}

func (h *WebhookHandler) Health(c *gin.Context) {
	pending, err := h.scheduler.Pending(c.Request.Context())
	if err != nil {
		h.logger.Error("Health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "DEGRADED", "service": "checkout-notifier"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "OK", "service": "checkout-notifier", "pending": pending})
}
