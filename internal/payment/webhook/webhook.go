package webhook

import (
	"encoding/json"
	"io"
	"net/http"

	"savora-be/internal/checkout"
	"savora-be/internal/logger"
	"savora-be/internal/metrics"
	"savora-be/internal/payment"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Payload is the JSON the payment provider posts on status changes.
type Payload struct {
	ID          string `json:"id"`
	ReferenceID string `json:"reference_id"`
	Status      string `json:"status"`
	Amount      int64  `json:"amount"`
	PaidAt      string `json:"paid_at,omitempty"`
}

type Handler struct {
	coordinator *checkout.Coordinator
	gateway     payment.Gateway
}

func NewHandler(coordinator *checkout.Coordinator, gateway payment.Gateway) *Handler {
	return &Handler{
		coordinator: coordinator,
		gateway:     gateway,
	}
}

// Handle verifies the callback token, then routes the status through the
// checkout coordinator so webhook and redirect-return confirmations converge.
func (h *Handler) Handle(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.FromCtx(ctx)

	if err := h.gateway.VerifySignature(c.Request); err != nil {
		log.Warn("webhook signature rejected", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return
	}

	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
		return
	}

	log.Info("payment webhook received",
		zap.String("reference_id", payload.ReferenceID),
		zap.String("status", payload.Status),
	)

	switch payload.Status {
	case payment.StatusPaid, "SUCCEEDED":
		metrics.PaymentsConfirmed.WithLabelValues("paid").Inc()
		err = h.coordinator.ConfirmSuccess(ctx, payload.ReferenceID)
	case payment.StatusFailed, payment.StatusExpired:
		metrics.PaymentsConfirmed.WithLabelValues("failed").Inc()
		err = h.coordinator.Fail(ctx, payload.ReferenceID, "payment "+payload.Status)
	default:
		c.Status(http.StatusOK)
		return
	}

	if err != nil {
		log.Error("webhook processing failed",
			zap.String("reference_id", payload.ReferenceID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update order"})
		return
	}

	c.String(http.StatusOK, "ok")
}
