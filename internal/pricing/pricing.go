// Package pricing derives order totals from resolved cart lines. All amounts
// are integer cents; the two-decimal split happens only at the display layer.
package pricing

import "fmt"

// Config carries the storefront pricing knobs, loaded from env at startup.
type Config struct {
	// DeliveryFee is charged when the subtotal does not exceed the threshold.
	DeliveryFee int64

	// FreeDeliveryThreshold waives the fee when subtotal is strictly above it.
	FreeDeliveryThreshold int64

	// TaxRatePercent applies to the subtotal only, not subtotal+delivery.
	TaxRatePercent int
}

type Item struct {
	UnitPrice int64
	Quantity  int
}

type Totals struct {
	Subtotal    int64 `json:"subtotal"`
	DeliveryFee int64 `json:"delivery_fee"`
	Tax         int64 `json:"tax"`
	Discount    int64 `json:"discount"`
	GrandTotal  int64 `json:"grand_total"`
}

// Calculate is pure: same inputs, same totals. The discount is subtracted
// after delivery and tax, and the grand total is floored at zero.
func Calculate(items []Item, cfg Config, discount int64) Totals {
	var subtotal int64
	for _, it := range items {
		subtotal += it.UnitPrice * int64(it.Quantity)
	}

	fee := cfg.DeliveryFee
	if subtotal > cfg.FreeDeliveryThreshold {
		fee = 0
	}

	tax := subtotal * int64(cfg.TaxRatePercent) / 100

	grand := subtotal + fee + tax - discount
	if grand < 0 {
		grand = 0
	}

	return Totals{
		Subtotal:    subtotal,
		DeliveryFee: fee,
		Tax:         tax,
		Discount:    discount,
		GrandTotal:  grand,
	}
}

// FormatAmount renders cents as a two-decimal string for display.
func FormatAmount(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
