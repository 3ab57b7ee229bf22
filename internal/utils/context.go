package utils

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	UserIDKey    contextKey = "user_id"
	UserEmailKey contextKey = "email"
	UserRoleKey  contextKey = "role"
	GuestIDKey   contextKey = "guest_id"
)

// SetUserContext sets user info into context (called by middleware)
func SetUserContext(ctx context.Context, id uint, email string, role string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, id)
	ctx = context.WithValue(ctx, UserEmailKey, email)
	ctx = context.WithValue(ctx, UserRoleKey, role)
	return ctx
}

// SetGuestContext records the guest session token for anonymous shoppers.
func SetGuestContext(ctx context.Context, guestID uuid.UUID) context.Context {
	return context.WithValue(ctx, GuestIDKey, guestID)
}

// GetUserIDFromContext retrieves userID safely
func GetUserIDFromContext(ctx context.Context) (uint, bool) {
	id, ok := ctx.Value(UserIDKey).(uint)
	return id, ok
}

func GetUserEmailFromContext(ctx context.Context) string {
	email, _ := ctx.Value(UserEmailKey).(string)
	return email
}

func GetUserRoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(UserRoleKey).(string)
	return role
}

// GetGuestIDFromContext retrieves the guest session token, if any.
func GetGuestIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(GuestIDKey).(uuid.UUID)
	return id, ok
}
