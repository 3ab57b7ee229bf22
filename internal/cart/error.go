package cart

import "errors"

var (
	ErrInvalidOwner       = errors.New("cart owner is required")
	ErrInvalidQuantity    = errors.New("quantity must be at least 1")
	ErrVariantConflict    = errors.New("variant and combination are mutually exclusive")
	ErrProductNotFound    = errors.New("product not found")
	ErrProductUnavailable = errors.New("product is not available")
	ErrLineNotFound       = errors.New("cart line not found")
)
