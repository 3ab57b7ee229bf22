package httpapi

import (
	"context"
	"errors"

	"savora-be/internal/cart"
	"savora-be/internal/utils"
)

var errNoOwner = errors.New("no user or guest identity on request")

// ownerFromContext maps the request identity onto a cart owner: an
// authenticated user wins, otherwise the guest session from X-Guest-ID.
func ownerFromContext(ctx context.Context) (cart.Owner, error) {
	if userID, ok := utils.GetUserIDFromContext(ctx); ok {
		return cart.UserOwner(userID), nil
	}
	if guestID, ok := utils.GetGuestIDFromContext(ctx); ok {
		return cart.GuestOwner(guestID), nil
	}
	return cart.Owner{}, errNoOwner
}
