package checkout

import (
	"errors"
	"fmt"
	"sync"

	"savora-be/internal/cart"

	"github.com/google/uuid"
)

// State is the payment-confirmation machine. Navigation side effects query
// the machine instead of a loose "don't redirect me" flag, which is what made
// cart-emptiness ambiguous in the first place.
type State string

const (
	StateIdle            State = "idle"
	StateAwaitingPayment State = "awaiting_payment"
	StateSucceeded       State = "succeeded"
	StateFailed          State = "failed"
)

var ErrInvalidTransition = errors.New("invalid checkout state transition")

// Session tracks one checkout attempt, keyed by the order's payment
// reference. Created when the payment form is shown, released when the view
// unmounts.
type Session struct {
	mu sync.Mutex

	state      State
	orderID    uuid.UUID
	reference  string
	owner      cart.Owner
	email      string
	failureMsg string
}

func newSession(owner cart.Owner, orderID uuid.UUID, reference, email string) *Session {
	return &Session{
		state:     StateIdle,
		orderID:   orderID,
		reference: reference,
		owner:     owner,
		email:     email,
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) OrderID() uuid.UUID   { return s.orderID }
func (s *Session) Reference() string    { return s.reference }
func (s *Session) Owner() cart.Owner    { return s.owner }
func (s *Session) FailureMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failureMsg
}

// await moves idle (or failed, on retry) to awaiting_payment.
func (s *Session) await() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateIdle, StateFailed:
		s.state = StateAwaitingPayment
		s.failureMsg = ""
		return nil
	case StateAwaitingPayment:
		return nil
	}
	return fmt.Errorf("%w: %s -> awaiting_payment", ErrInvalidTransition, s.state)
}

// succeed is idempotent: the webhook callback and the redirect return may
// both land, and must converge. A failed session can still succeed: the
// processor may deliver a success callback after an earlier attempt was
// recorded as failed, and a paid order always wins over a stale failure.
func (s *Session) succeed() (first bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateSucceeded:
		return false, nil
	case StateAwaitingPayment, StateFailed:
		s.state = StateSucceeded
		s.failureMsg = ""
		return true, nil
	}
	return false, fmt.Errorf("%w: %s -> succeeded", ErrInvalidTransition, s.state)
}

func (s *Session) fail(msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateAwaitingPayment {
		return fmt.Errorf("%w: %s -> failed", ErrInvalidTransition, s.state)
	}
	s.state = StateFailed
	s.failureMsg = msg
	return nil
}

// ShouldRedirectFromCheckout answers the "cart is now empty" ambiguity: an
// empty cart means "redirect away" only when no payment is in flight or just
// finished. Clearing the cart on success must not bounce the user off the
// confirmation screen.
func (s *Session) ShouldRedirectFromCheckout(cartEmpty bool) bool {
	switch s.State() {
	case StateAwaitingPayment, StateSucceeded:
		return false
	}
	return cartEmpty
}

// RealtimeSuspended reports whether change-feed refreshes should be ignored
// to avoid racing checkout completion.
func (s *Session) RealtimeSuspended() bool {
	switch s.State() {
	case StateAwaitingPayment, StateSucceeded:
		return true
	}
	return false
}
