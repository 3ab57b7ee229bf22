package order

import (
	"errors"
	"fmt"

	"savora-be/internal/address"

	"github.com/google/uuid"
)

var (
	ErrEmptyCart    = errors.New("cart is empty")
	ErrInvalidEmail = errors.New("invalid email address")
	ErrNotFound     = errors.New("order not found")
	ErrAlreadyPaid  = errors.New("order is already paid")
)

// ValidationError blocks placement until every listed field is fixed.
type ValidationError struct {
	Fields []address.FieldError
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("address validation failed: %d missing fields", len(e.Fields))
}

// PlacementRejection is the structured rejection from the atomic creation
// call. Nothing was persisted; the message names the failing line and is
// surfaced to the user verbatim.
type PlacementRejection struct {
	LineName string
	Reason   string
}

func (e *PlacementRejection) Error() string {
	return fmt.Sprintf("order rejected: %s: %s", e.LineName, e.Reason)
}

// PaymentHandleError is recoverable: the order was created and sits in an
// unpaid state, so the user can retry payment without re-creating it.
type PaymentHandleError struct {
	OrderID uuid.UUID
	Number  string
	Err     error
}

func (e *PaymentHandleError) Error() string {
	return fmt.Sprintf("payment handle request failed for order %s: %v", e.Number, e.Err)
}

func (e *PaymentHandleError) Unwrap() error {
	return e.Err
}
