package cart

import (
	"time"

	"savora-be/internal/catalog"

	"github.com/google/uuid"
)

// Owner identifies who the cart belongs to: an authenticated user or an
// anonymous guest session. Exactly one side is set.
type Owner struct {
	UserID  *uint
	GuestID *uuid.UUID
}

func UserOwner(userID uint) Owner {
	return Owner{UserID: &userID}
}

func GuestOwner(guestID uuid.UUID) Owner {
	return Owner{GuestID: &guestID}
}

func (o Owner) Valid() bool {
	return (o.UserID != nil) != (o.GuestID != nil)
}

func (o Owner) IsGuest() bool {
	return o.GuestID != nil
}

// Equal reports whether two owners identify the same user or guest session.
// The fields are pointers, so struct comparison would compare addresses.
func (o Owner) Equal(other Owner) bool {
	switch {
	case o.UserID != nil && other.UserID != nil:
		return *o.UserID == *other.UserID
	case o.GuestID != nil && other.GuestID != nil:
		return *o.GuestID == *other.GuestID
	}
	return false
}

// Line is one product+quantity+variant entry pending purchase.
type Line struct {
	ID      uuid.UUID
	UserID  *uint
	GuestID *uuid.UUID

	Ref      catalog.ProductRef
	Quantity int

	// At most one of VariantID/CombinationID is set: single-dimension options
	// (size) and multi-dimension combinations (size x crust) are exclusive.
	VariantID     *string
	CombinationID *string

	PriceAtAdd *int64
	Snapshot   *catalog.Snapshot

	CreatedAt time.Time
	UpdatedAt time.Time
}

type AddParams struct {
	Owner         Owner
	Ref           catalog.ProductRef
	Quantity      int
	VariantID     *string
	CombinationID *string
}

type UpdateParams struct {
	Owner    Owner
	LineID   uuid.UUID
	Quantity int
}
