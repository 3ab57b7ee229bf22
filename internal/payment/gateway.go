package payment

import (
	"context"
	"net/http"
)

// Gateway is the boundary to the external card processor. Two calls matter to
// checkout: creating a payment-authorization handle scoped to an order's grand
// total, and reading a payment's status back. Signature verification guards
// the webhook.
type Gateway interface {
	CreateHandle(ctx context.Context, params CreateHandleParams) (*Handle, error)
	GetStatus(ctx context.Context, referenceID string) (*Status, error)
	VerifySignature(r *http.Request) error
}
