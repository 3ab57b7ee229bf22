package address

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validForm(mode Mode) Form {
	return Form{
		Mode:       mode,
		FullName:   "Dana Osei",
		Line1:      "12 Crescent Rd",
		City:       "Springfield",
		Region:     "IL",
		PostalCode: "62701",
		Country:    "US",
		Phone:      "15551234567",
	}
}

func TestFormValidate(t *testing.T) {
	t.Run("ManualComplete", func(t *testing.T) {
		assert.Empty(t, validForm(ModeManual).Validate())
	})

	t.Run("ManualMissingPhoneFails", func(t *testing.T) {
		f := validForm(ModeManual)
		f.Phone = ""

		errs := f.Validate()
		assert.Len(t, errs, 1)
		assert.Equal(t, "phone", errs[0].Field)
	})

	t.Run("SavedLegacyWithoutPhonePasses", func(t *testing.T) {
		f := validForm(ModeSaved)
		f.Phone = ""

		assert.Empty(t, f.Validate())
	})

	t.Run("CollectsEveryMissingField", func(t *testing.T) {
		errs := Form{Mode: ModeManual}.Validate()

		fields := make([]string, 0, len(errs))
		for _, e := range errs {
			fields = append(fields, e.Field)
		}
		assert.ElementsMatch(t, fields,
			[]string{"full_name", "line1", "city", "region", "postal_code", "country", "phone"})
	})

	t.Run("WhitespaceCountsAsMissing", func(t *testing.T) {
		f := validForm(ModeManual)
		f.City = "   "

		errs := f.Validate()
		assert.Len(t, errs, 1)
		assert.Equal(t, "city", errs[0].Field)
	})
}

func TestFormFromSaved(t *testing.T) {
	phone := "15550001111"
	a := &Address{
		FullName:   "Dana Osei",
		Phone:      &phone,
		Line1:      "12 Crescent Rd",
		City:       "Springfield",
		Region:     "IL",
		PostalCode: "62701",
		Country:    "US",
	}

	f := FormFromSaved(a)
	assert.Equal(t, ModeSaved, f.Mode)
	assert.Equal(t, phone, f.Phone)
	assert.Empty(t, f.Validate())

	t.Run("NilPhone", func(t *testing.T) {
		a.Phone = nil
		f := FormFromSaved(a)
		assert.Empty(t, f.Phone)
		assert.Empty(t, f.Validate())
	})
}
