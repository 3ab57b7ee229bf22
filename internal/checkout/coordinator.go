package checkout

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	"savora-be/internal/cart"
	"savora-be/internal/logger"
	"savora-be/internal/notify"
	"savora-be/internal/order"
	"savora-be/internal/payment"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Coordinator owns checkout sessions and converges the two payment
// confirmation paths (provider callback and redirect return) onto a single
// success routine: mark paid, clear the cart, then notify out of band.
type Coordinator struct {
	mu       sync.RWMutex
	sessions map[string]*Session // keyed by payment reference (order number)

	orders   order.Service
	carts    cart.Service
	payments payment.Repository
	gateway  payment.Gateway
	notifier notify.Notifier
	currency string
}

func NewCoordinator(orders order.Service, carts cart.Service, payments payment.Repository, gateway payment.Gateway, notifier notify.Notifier, currency string) *Coordinator {
	return &Coordinator{
		sessions: make(map[string]*Session),
		orders:   orders,
		carts:    carts,
		payments: payments,
		gateway:  gateway,
		notifier: notifier,
		currency: currency,
	}
}

// Begin registers a session for a freshly placed (or retried) order and moves
// it to awaiting_payment.
func (c *Coordinator) Begin(owner cart.Owner, orderID uuid.UUID, reference, email string) (*Session, error) {
	c.mu.Lock()
	s, ok := c.sessions[reference]
	if !ok {
		s = newSession(owner, orderID, reference, email)
		c.sessions[reference] = s
	}
	c.mu.Unlock()

	if err := s.await(); err != nil {
		return nil, err
	}
	return s, nil
}

// Session returns the live session for a payment reference, if any.
func (c *Coordinator) Session(reference string) (*Session, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.sessions[reference]
	return s, ok
}

// ConfirmSuccess is the single success path. It is idempotent: the first
// confirmation clears the cart and sends the confirmation message, later
// ones are no-ops. A confirmation without a live session (server restarted,
// webhook raced the redirect) still marks the order paid.
func (c *Coordinator) ConfirmSuccess(ctx context.Context, reference string) error {
	log := logger.FromCtx(ctx).With(zap.String("reference", reference))

	if err := c.orders.MarkAsPaid(ctx, reference); err != nil {
		return err
	}

	s, ok := c.Session(reference)
	if !ok {
		log.Warn("payment confirmed without a live checkout session")
		return nil
	}

	first, err := s.succeed()
	if err != nil {
		return err
	}
	if !first {
		return nil
	}

	// Cart is cleared only after the order is paid; the session keeps
	// ShouldRedirectFromCheckout false so the empty cart doesn't bounce the
	// user off the confirmation screen.
	if err := c.carts.Clear(ctx, s.Owner()); err != nil {
		log.Error("failed to clear cart after payment", zap.Error(err))
	}

	go c.sendConfirmation(s)

	log.Info("checkout succeeded")
	return nil
}

// sendConfirmation is fire-and-forget: a relay outage must never affect the
// checkout outcome.
func (c *Coordinator) sendConfirmation(s *Session) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	o, err := c.orders.GetOrderDetail(ctx, 0, s.OrderID(), true)
	if err != nil {
		logger.L().Warn("confirmation skipped, order lookup failed",
			zap.String("reference", s.Reference()), zap.Error(err))
		return
	}

	msg := notify.OrderConfirmation{
		OrderNumber: o.Number,
		Email:       s.email,
		Phone:       o.Address.Phone,
		Amount:      o.Totals.GrandTotal,
		Currency:    c.currency,
	}

	if err := c.notifier.SendOrderConfirmation(ctx, msg); err != nil {
		logger.L().Warn("order confirmation failed",
			zap.String("reference", s.Reference()), zap.Error(err))
	}
}

// Fail records a failed or expired payment attempt. The cart is left alone so
// the user can retry.
func (c *Coordinator) Fail(ctx context.Context, reference, reason string) error {
	if err := c.orders.MarkAsFailed(ctx, reference); err != nil {
		return err
	}

	if s, ok := c.Session(reference); ok {
		if err := s.fail(reason); err != nil {
			return err
		}
	}

	logger.FromCtx(ctx).Info("checkout failed",
		zap.String("reference", reference), zap.String("reason", reason))
	return nil
}

// HandleReturn processes the provider's redirect back to the site. Providers
// disagree on parameter names, so a few common shapes are accepted. The query
// string comes from the user's browser and proves nothing: a success-shaped
// return only prompts a status check against the processor, and the order is
// confirmed only when the processor itself reports the payment as paid.
// Failure-shaped returns are ignored here; the webhook remains the source of
// truth for failures.
func (c *Coordinator) HandleReturn(ctx context.Context, query url.Values) (reference string, succeeded bool, err error) {
	reference = query.Get("reference_id")
	if reference == "" {
		reference = query.Get("ref")
	}
	if reference == "" {
		return "", false, nil
	}

	status := query.Get("status")
	claimed := false
	switch {
	case status == "succeeded" || status == "paid" || status == "PAID":
		claimed = true
	case status == "" && query.Get("success") == "true":
		claimed = true
	}

	if !claimed {
		return reference, false, nil
	}

	log := logger.FromCtx(ctx).With(zap.String("reference", reference))

	if _, err := c.payments.GetByReferenceID(ctx, reference); err != nil {
		if errors.Is(err, payment.ErrPaymentNotFound) {
			log.Warn("return for unknown payment reference")
			return reference, false, nil
		}
		return reference, false, err
	}

	st, err := c.gateway.GetStatus(ctx, reference)
	if err != nil {
		return reference, false, err
	}
	if st.Status != payment.StatusPaid {
		log.Warn("return claimed success but processor disagrees",
			zap.String("processor_status", st.Status))
		return reference, false, nil
	}

	return reference, true, c.ConfirmSuccess(ctx, reference)
}

// Release drops the session when the checkout view goes away. The order and
// any pending payment are untouched.
func (c *Coordinator) Release(reference string) {
	c.mu.Lock()
	delete(c.sessions, reference)
	c.mu.Unlock()
}
