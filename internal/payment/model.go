package payment

import (
	"time"

	"github.com/google/uuid"
)

// Handle is the payment-authorization handle returned by the processor: an
// opaque token for a pending charge that the client confirms in the
// processor's widget (or via redirect).
type Handle struct {
	ProviderPaymentID string    `json:"provider_payment_id"`
	ReferenceID       string    `json:"reference_id"`
	Amount            int64     `json:"amount"`
	Currency          string    `json:"currency"`
	Status            string    `json:"status"`
	ClientSecret      string    `json:"client_secret,omitempty"`
	RedirectURL       string    `json:"redirect_url,omitempty"`
	ExpiresAt         time.Time `json:"expires_at"`
}

// Payment is the persisted record of a handle issued for an order. An order
// may accumulate several rows when payment is retried.
type Payment struct {
	ID                uint
	OrderID           uuid.UUID
	ReferenceID       string
	ProviderPaymentID string
	Amount            int64
	Currency          string
	Status            string
	ClientSecret      string
	RedirectURL       string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type CreateHandleParams struct {
	ReferenceID   string
	Amount        int64
	Currency      string
	CustomerEmail string
}

type Status struct {
	Status string
	PaidAt *time.Time
}

const (
	StatusPending = "PENDING"
	StatusPaid    = "PAID"
	StatusFailed  = "FAILED"
	StatusExpired = "EXPIRED"
)
