package httpapi

import (
	"errors"
	"net/http"

	"savora-be/internal/address"
	"savora-be/internal/cart"
	"savora-be/internal/checkout"
	"savora-be/internal/discount"
	"savora-be/internal/metrics"
	"savora-be/internal/order"
	"savora-be/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type checkoutHandler struct {
	orders      order.Service
	carts       cart.Service
	addresses   address.Service
	coordinator *checkout.Coordinator
}

type quoteRequest struct {
	DiscountCode *string `json:"discount_code"`
}

func (h *checkoutHandler) Quote(c *gin.Context) {
	owner, err := ownerFromContext(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	q, err := h.orders.Quote(c.Request.Context(), owner, req.DiscountCode)
	if err != nil {
		h.writeQuoteError(c, err)
		return
	}

	c.JSON(http.StatusOK, q)
}

func (h *checkoutHandler) writeQuoteError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, order.ErrEmptyCart):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, discount.ErrCodeNotFound),
		errors.Is(err, discount.ErrCodeInactive),
		errors.Is(err, discount.ErrCodeExpired),
		errors.Is(err, discount.ErrCodeExhausted),
		errors.Is(err, discount.ErrMinSubtotal):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to price cart"})
	}
}

type placeRequest struct {
	// AddressID selects a saved address; Address carries a manual entry.
	// Exactly one should be provided.
	AddressID *string       `json:"address_id"`
	Address   *address.Form `json:"address"`

	Email        string  `json:"email" binding:"required"`
	DiscountCode *string `json:"discount_code"`
}

// Place creates the order atomically, then asks the processor for a payment
// handle. A handle failure still returns the created order: the client moves
// to the retry flow instead of resubmitting the whole checkout.
func (h *checkoutHandler) Place(c *gin.Context) {
	ctx := c.Request.Context()

	owner, err := ownerFromContext(ctx)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req placeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var form address.Form
	switch {
	case req.AddressID != nil:
		id, err := uuid.Parse(*req.AddressID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid address id"})
			return
		}
		selected, err := h.addresses.SelectForCheckout(ctx, id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "address not found"})
			return
		}
		form = *selected
	case req.Address != nil:
		form = *req.Address
		form.Mode = address.ModeManual
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "address or address_id is required"})
		return
	}

	o, handle, err := h.orders.Place(ctx, order.PlaceParams{
		Owner:        owner,
		Address:      form,
		DiscountCode: req.DiscountCode,
		Email:        req.Email,
	})
	if err != nil {
		var vErr *order.ValidationError
		var rej *order.PlacementRejection
		var payErr *order.PaymentHandleError

		switch {
		case errors.Is(err, order.ErrInvalidEmail):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.As(err, &vErr):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":  "address validation failed",
				"fields": vErr.Fields,
			})
		case errors.As(err, &rej):
			metrics.OrdersPlaced.WithLabelValues("rejected").Inc()
			c.JSON(http.StatusConflict, gin.H{"error": rej.Error()})
		case errors.As(err, &payErr):
			// The order exists; only the payment handle is missing.
			metrics.OrdersPlaced.WithLabelValues("payment_handle_failed").Inc()
			h.beginSession(owner, payErr.OrderID, payErr.Number, req.Email)
			c.JSON(http.StatusBadGateway, gin.H{
				"error":        "payment setup failed, please retry",
				"order_id":     payErr.OrderID,
				"order_number": payErr.Number,
				"retryable":    true,
			})
		default:
			h.writeQuoteError(c, err)
		}
		return
	}

	metrics.OrdersPlaced.WithLabelValues("created").Inc()
	h.beginSession(owner, o.ID, o.Number, req.Email)

	c.JSON(http.StatusCreated, gin.H{
		"order": gin.H{
			"id":     o.ID,
			"number": o.Number,
			"totals": o.Totals,
		},
		"payment": handle,
	})
}

func (h *checkoutHandler) beginSession(owner cart.Owner, orderID uuid.UUID, reference, email string) {
	if _, err := h.coordinator.Begin(owner, orderID, reference, email); err != nil {
		// A stale succeeded session under the same reference; nothing to do.
		return
	}
}

type retryRequest struct {
	OrderID string `json:"order_id" binding:"required,uuid"`
}

func (h *checkoutHandler) Retry(c *gin.Context) {
	ctx := c.Request.Context()

	owner, err := ownerFromContext(ctx)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req retryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	o, handle, err := h.orders.RetryPayment(ctx, orderID)
	if err != nil {
		var payErr *order.PaymentHandleError
		switch {
		case errors.Is(err, order.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, order.ErrAlreadyPaid):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.As(err, &payErr):
			c.JSON(http.StatusBadGateway, gin.H{
				"error":        "payment setup failed, please retry",
				"order_id":     payErr.OrderID,
				"order_number": payErr.Number,
				"retryable":    true,
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retry payment"})
		}
		return
	}

	email := utils.GetUserEmailFromContext(ctx)
	if email == "" && o.GuestEmail != nil {
		email = *o.GuestEmail
	}
	h.beginSession(owner, o.ID, o.Number, email)

	c.JSON(http.StatusOK, gin.H{
		"order": gin.H{
			"id":     o.ID,
			"number": o.Number,
			"totals": o.Totals,
		},
		"payment": handle,
	})
}

// ownedSession resolves a payment reference to the caller's session. A
// session belonging to someone else looks the same as a missing one, so the
// endpoint leaks nothing about other references.
func (h *checkoutHandler) ownedSession(c *gin.Context) (*checkout.Session, cart.Owner, bool) {
	s, ok := h.coordinator.Session(c.Param("reference"))
	if !ok {
		return nil, cart.Owner{}, false
	}

	owner, err := ownerFromContext(c.Request.Context())
	if err != nil || !s.Owner().Equal(owner) {
		return nil, cart.Owner{}, false
	}
	return s, owner, true
}

// Session exposes the confirmation state machine so the client can decide
// whether an empty cart means "redirect away" or "payment in flight".
func (h *checkoutHandler) Session(c *gin.Context) {
	s, owner, ok := h.ownedSession(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no checkout session"})
		return
	}

	cartEmpty := false
	if lines, err := h.carts.Lines(c.Request.Context(), owner); err == nil {
		cartEmpty = len(lines) == 0
	}

	c.JSON(http.StatusOK, gin.H{
		"state":              s.State(),
		"should_redirect":    s.ShouldRedirectFromCheckout(cartEmpty),
		"realtime_suspended": s.RealtimeSuspended(),
		"failure_message":    s.FailureMessage(),
	})
}

func (h *checkoutHandler) Release(c *gin.Context) {
	if _, _, ok := h.ownedSession(c); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no checkout session"})
		return
	}

	h.coordinator.Release(c.Param("reference"))
	c.Status(http.StatusNoContent)
}

// Return handles the processor's browser redirect back to the site. It
// converges with the webhook on the same confirmation path.
func (h *checkoutHandler) Return(c *gin.Context) {
	reference, succeeded, err := h.coordinator.HandleReturn(c.Request.Context(), c.Request.URL.Query())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to confirm payment"})
		return
	}
	if reference == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing payment reference"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reference": reference,
		"succeeded": succeeded,
	})
}
