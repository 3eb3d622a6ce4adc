package paymentsheet

import (
	"context"
	"strconv"
	"time"
	"unicode"

	"github.com/sumup/paymentsheet/card"
)

// User-facing validation messages. Localization happens above this layer.
const (
	msgInvalidCardNumber = "Invalid card number"
	msgInvalidCVC        = "Invalid security code"
	msgInvalidExpiry     = "Invalid expiration date"
	msgExpiredCard       = "Card has expired"
	msgInvalidPostal     = "Invalid postal code"
)

// cardNumberLogic classifies card numbers with brand-aware length and Luhn
// rules. When no range metadata is cached for the current prefix it kicks
// off a fetch and reports [ValidationProcessing] until the lookup resolves.
type cardNumberLogic struct {
	field  *Field
	ranges card.RangeService
}

// NewCardNumberField builds the card number field. A nil ranges service
// falls back to the static brand table.
func NewCardNumberField(ranges card.RangeService) *Field {
	if ranges == nil {
		ranges = card.StaticRanges{}
	}
	logic := &cardNumberLogic{ranges: ranges}
	f := newField(FieldCardNumber, cardNumberFormatter{}, logic, "Card number")
	logic.field = f
	return f
}

func (l *cardNumberLogic) brand(digits string) card.Brand {
	if m, ok := l.ranges.(card.Matcher); ok {
		if rng, found := m.Match(digits); found {
			return rng.Brand
		}
	}
	return card.FromNumber(digits)
}

func (l *cardNumberLogic) panLength(digits string) int {
	if m, ok := l.ranges.(card.Matcher); ok {
		if rng, found := m.Match(digits); found && rng.Length > 0 {
			return rng.Length
		}
	}
	return card.MaxLength(l.brand(digits))
}

func (l *cardNumberLogic) validate(digits string) ValidationState {
	if digits == "" {
		return IncompleteState()
	}
	if len(card.PossibleBrands(digits)) == 0 {
		return InvalidState(msgInvalidCardNumber)
	}
	if !l.ranges.HasCachedRange(digits) {
		// Always register with the service: it coalesces concurrent
		// lookups, so every pending field gets a resolution callback.
		l.scheduleFetch(digits)
		return ProcessingState()
	}
	length := l.panLength(digits)
	switch {
	case len(digits) < length:
		return IncompleteState()
	case len(digits) > length:
		return InvalidState(msgInvalidCardNumber)
	}
	if !card.ValidLuhn(digits) {
		return InvalidState(msgInvalidCardNumber)
	}
	return ValidState()
}

// scheduleFetch starts the metadata lookup outside the control timeline so
// a service that completes synchronously can re-enter the field safely.
func (l *cardNumberLogic) scheduleFetch(digits string) {
	l.field.afterUnlock(func() {
		l.ranges.FetchRange(context.Background(), digits, func() {
			l.field.run(l.field.revalidateLocked)
		})
	})
}

// cvcLogic validates security codes against the associated brand. Setting a
// new brand re-derives the state from the existing input.
type cvcLogic struct {
	brand card.Brand
}

// NewCVCField builds the security code field for the given brand. Use
// [Field.SetCardBrand] when the brand changes.
func NewCVCField(brand card.Brand) *Field {
	return newField(FieldCVC, digitsFormatter{max: 4}, &cvcLogic{brand: brand}, "CVC")
}

func (l *cvcLogic) validate(digits string) ValidationState {
	if digits == "" {
		return IncompleteState()
	}
	if l.brand == card.BrandUnknown {
		switch {
		case len(digits) < 3:
			return IncompleteState()
		case len(digits) <= 4:
			return ValidState()
		}
		return InvalidState(msgInvalidCVC)
	}
	expected := card.CVCLength(l.brand)
	switch {
	case len(digits) < expected:
		return IncompleteState()
	case len(digits) > expected:
		return InvalidState(msgInvalidCVC)
	}
	return ValidState()
}

// SetCardBrand updates the brand a CVC field validates against and
// re-derives its state from the current input. Other field kinds ignore it.
func (f *Field) SetCardBrand(b card.Brand) {
	f.run(func() { f.setCardBrandLocked(b) })
}

func (f *Field) setCardBrandLocked(b card.Brand) {
	logic, ok := f.logic.(*cvcLogic)
	if !ok || logic.brand == b {
		return
	}
	logic.brand = b
	f.revalidateLocked()
}

// expiryLogic validates MM/YY expiry input against the current month.
type expiryLogic struct {
	now func() time.Time
}

// NewExpiryField builds the expiration date field.
func NewExpiryField() *Field {
	return newExpiryField(time.Now)
}

func newExpiryField(now func() time.Time) *Field {
	return newField(FieldExpiry, expiryFormatter{}, &expiryLogic{now: now}, "MM/YY")
}

func (l *expiryLogic) validate(digits string) ValidationState {
	if digits == "" {
		return IncompleteState()
	}
	if len(digits) >= 2 {
		month, err := strconv.Atoi(digits[:2])
		if err != nil || month < 1 || month > 12 {
			return InvalidState(msgInvalidExpiry)
		}
	}
	if len(digits) < 4 {
		return IncompleteState()
	}
	if len(digits) > 4 {
		return InvalidState(msgInvalidExpiry)
	}
	month, _ := strconv.Atoi(digits[:2])
	year := 2000 + mustAtoi(digits[2:])
	now := l.now()
	if year < now.Year() || (year == now.Year() && time.Month(month) < now.Month()) {
		return InvalidState(msgExpiredCard)
	}
	return ValidState()
}

func mustAtoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// postalLogic delegates to a country-aware format check.
type postalLogic struct {
	country func() string
}

// NewPostalCodeField builds the postal code field. The country function is
// consulted on every validation so a country change re-derives the state.
func NewPostalCodeField(country func() string) *Field {
	if country == nil {
		country = func() string { return "" }
	}
	return newField(FieldPostalCode, postalFormatter{country: country}, &postalLogic{country: country}, "Postal code")
}

func (l *postalLogic) validate(value string) ValidationState {
	if value == "" {
		return IncompleteState()
	}
	switch l.country() {
	case "US":
		switch {
		case len(value) < 5:
			return IncompleteState()
		case len(value) > 5:
			return InvalidState(msgInvalidPostal)
		}
		return ValidState()
	case "CA":
		return validateCanadianPostal(value)
	default:
		return ValidState()
	}
}

// validateCanadianPostal checks the alternating letter-digit A1A 1A1 shape,
// spaces ignored.
func validateCanadianPostal(value string) ValidationState {
	n := 0
	for _, r := range value {
		if r == ' ' {
			continue
		}
		wantLetter := n%2 == 0
		if wantLetter != unicode.IsLetter(r) {
			return InvalidState(msgInvalidPostal)
		}
		if !wantLetter && !unicode.IsDigit(r) {
			return InvalidState(msgInvalidPostal)
		}
		n++
		if n > 6 {
			return InvalidState(msgInvalidPostal)
		}
	}
	if n < 6 {
		return IncompleteState()
	}
	return ValidState()
}

// textLogic covers generic name and address inputs: complete once
// non-empty, or immediately when the field is optional.
type textLogic struct {
	optional bool
}

// NewTextField builds a generic text field.
func NewTextField(kind FieldType, label string, optional bool) *Field {
	f := newField(kind, textFormatter{}, &textLogic{optional: optional}, label)
	f.optional = optional
	return f
}

func (l *textLogic) validate(value string) ValidationState {
	if value == "" {
		if l.optional {
			return ValidState()
		}
		return IncompleteState()
	}
	return ValidState()
}

// countryLogic accepts a two-letter country code.
type countryLogic struct{}

// NewCountryField builds the country selector field.
func NewCountryField() *Field {
	return newField(FieldCountry, countryFormatter{}, countryLogic{}, "Country")
}

func (countryLogic) validate(value string) ValidationState {
	if len(value) == 2 {
		return ValidState()
	}
	return IncompleteState()
}
