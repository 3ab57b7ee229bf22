package address

import "strings"

// Mode says where the checkout form came from. Saved legacy addresses may
// predate the phone requirement and are still accepted; manually entered
// forms are not.
type Mode string

const (
	ModeSaved  Mode = "saved"
	ModeManual Mode = "manual"
)

// Form is the single address shape downstream of checkout, regardless of
// whether the user picked a saved address or typed one in.
type Form struct {
	Mode Mode `json:"mode"`

	FullName   string  `json:"full_name"`
	Line1      string  `json:"line1"`
	Line2      *string `json:"line2,omitempty"`
	City       string  `json:"city"`
	Region     string  `json:"region"`
	PostalCode string  `json:"postal_code"`
	Country    string  `json:"country"`
	Phone      string  `json:"phone"`
}

// FormFromSaved pre-fills a manual-entry-shaped form from a saved address.
func FormFromSaved(a *Address) Form {
	f := Form{
		Mode:       ModeSaved,
		FullName:   a.FullName,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		Region:     a.Region,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
	if a.Phone != nil {
		f.Phone = *a.Phone
	}
	return f
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validate returns the field-level list of missing entries. Phone is required
// only for manual entry; saved legacy records without one still pass.
func (f Form) Validate() []FieldError {
	var errs []FieldError

	require := func(field, value string) {
		if strings.TrimSpace(value) == "" {
			errs = append(errs, FieldError{Field: field, Message: field + " is required"})
		}
	}

	require("full_name", f.FullName)
	require("line1", f.Line1)
	require("city", f.City)
	require("region", f.Region)
	require("postal_code", f.PostalCode)
	require("country", f.Country)

	if f.Mode == ModeManual {
		require("phone", f.Phone)
	}

	return errs
}
