package order

import (
	"time"

	"savora-be/internal/address"
	"savora-be/internal/cart"
	"savora-be/internal/catalog"
	"savora-be/internal/discount"
	"savora-be/internal/pricing"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusAccepted Status = "ACCEPTED"
	StatusRejected Status = "REJECTED"
	StatusCanceled Status = "CANCELED"
)

type PaymentState string

const (
	PaymentStateUnpaid PaymentState = "UNPAID"
	PaymentStatePaid   PaymentState = "PAID"
	PaymentStateFailed PaymentState = "FAILED"
)

// Order is created atomically and its line/price/address snapshots are
// immutable afterwards: later catalog changes never touch a placed order.
type Order struct {
	ID     uuid.UUID
	Number string

	UserID     *uint
	GuestEmail *string

	Status       Status
	PaymentState PaymentState

	Items   []Item
	Address address.Form
	Totals  pricing.Totals

	DiscountCodeID *uuid.UUID

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Item is a price-at-purchase snapshot of one cart line.
type Item struct {
	ID      uuid.UUID
	OrderID uuid.UUID

	Ref  catalog.ProductRef
	Name string

	VariantID     *string
	CombinationID *string

	Quantity  int
	UnitPrice int64
	Subtotal  int64
}

// Quote is the priced view of a cart before placement.
type Quote struct {
	Lines    []*cart.Line               `json:"-"`
	Products []catalog.ResolvedProduct  `json:"products"`
	Totals   pricing.Totals             `json:"totals"`
	Discount *discount.Code             `json:"-"`
}

type PlaceParams struct {
	Owner        cart.Owner
	Address      address.Form
	DiscountCode *string
	Email        string
}
