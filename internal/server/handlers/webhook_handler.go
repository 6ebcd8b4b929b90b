package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/hatchery/internal/domain/models"
	"github.com/mamadbah2/hatchery/internal/service/whatsapp"
)

// DigestTrigger sends the incubation digest immediately.
type DigestTrigger interface {
	SendDigest(ctx context.Context, now time.Time) error
}

// WebhookHandler serves the WhatsApp callback and the chat-facing API routes.
type WebhookHandler struct {
	svc    whatsapp.MessagingService
	digest DigestTrigger
	logger *zap.Logger
	now    func() time.Time
}

// NewWebhookHandler constructs the handler. A nil digest disables the
// on-demand digest route.
func NewWebhookHandler(svc whatsapp.MessagingService, digest DigestTrigger, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{svc: svc, digest: digest, logger: logger, now: time.Now}
}

// Verify answers the hub.challenge handshake Meta performs when the callback
// URL is registered.
func (h *WebhookHandler) Verify(c *gin.Context) {
	challenge, err := h.svc.VerifyWebhookToken(
		c.Query("hub.mode"),
		c.Query("hub.verify_token"),
		c.Query("hub.challenge"),
	)
	if err != nil {
		h.logger.Warn("webhook verification refused", zap.Error(err))
		c.String(http.StatusForbidden, "verification failed")
		return
	}
	c.String(http.StatusOK, challenge)
}

// Receive runs the commands carried by a callback. Any decodable payload is
// acknowledged with 200: Meta redelivers on other codes and a weight command
// must not be applied twice.
func (h *WebhookHandler) Receive(c *gin.Context) {
	var payload models.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	if err := h.svc.HandleWebhook(c.Request.Context(), payload); err != nil {
		h.logger.Error("webhook processing incomplete", zap.Int("entries", len(payload.Entry)), zap.Error(err))
	}
	c.Status(http.StatusOK)
}

// SendMessage pushes a free-form text to one recipient.
func (h *WebhookHandler) SendMessage(c *gin.Context) {
	var req models.OutboundMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	if err := h.svc.SendOutbound(c.Request.Context(), req); err != nil {
		h.logger.Error("outbound message failed", zap.String("to", req.To), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to send message"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "sent"})
}

// SendDigest sends today's digest to the configured recipient.
func (h *WebhookHandler) SendDigest(c *gin.Context) {
	if h.digest == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "digest recipient is not configured"})
		return
	}
	if err := h.digest.SendDigest(c.Request.Context(), h.now()); err != nil {
		h.logger.Error("on-demand digest failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to send digest"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "sent"})
}
