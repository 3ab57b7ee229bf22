package discount

import (
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindPercentage Kind = "percentage"
	KindFixed      Kind = "fixed"
)

// Code is read-only during checkout; usage is recorded against the resulting
// order exactly once, enforced by a unique index on (discount_code_id, order_id).
type Code struct {
	ID   uuid.UUID
	Code string
	Kind Kind

	// Value is a percent for KindPercentage, cents for KindFixed.
	Value int64

	MinSubtotal int64
	MaxUses     *int
	UsedCount   int

	StartsAt *time.Time
	EndsAt   *time.Time
	IsActive bool
}

// AmountFor computes the discount in cents for a given subtotal. Callers floor
// the grand total at zero, so a fixed code larger than the order is fine.
func (c *Code) AmountFor(subtotal int64) int64 {
	switch c.Kind {
	case KindPercentage:
		return subtotal * c.Value / 100
	case KindFixed:
		return c.Value
	}
	return 0
}
