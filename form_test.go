package paymentsheet

import (
	"testing"
	"time"
)

// recordingListener accumulates whole-form events for assertions.
type recordingListener struct {
	completes []bool
	advances  [][2]FieldType
}

func (l *recordingListener) FormDidChangeComplete(form *Form, complete bool) {
	l.completes = append(l.completes, complete)
}

func (l *recordingListener) FormDidAdvanceFocus(form *Form, from, to *Field) {
	l.advances = append(l.advances, [2]FieldType{from.Type(), to.Type()})
}

func testNow() time.Time {
	return time.Date(2026, time.June, 15, 0, 0, 0, 0, time.UTC)
}

func newTestForm(level BillingAddressCollectionLevel) *Form {
	return newForm(level, nil, testNow, discardLogger())
}

func fillCardFields(frm *Form) {
	frm.Field(FieldCardNumber).SetText("4242424242424242")
	frm.Field(FieldExpiry).SetText("1230")
	frm.Field(FieldCVC).SetText("123")
}

func TestFormFieldLayout(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		level BillingAddressCollectionLevel
		want  []FieldType
	}{
		"automatic": {
			level: BillingAddressCollectionAutomatic,
			want:  []FieldType{FieldCardNumber, FieldExpiry, FieldCVC, FieldCountry, FieldPostalCode},
		},
		"required": {
			level: BillingAddressCollectionRequired,
			want: []FieldType{
				FieldCardNumber, FieldExpiry, FieldCVC,
				FieldName, FieldCountry, FieldLine1, FieldLine2, FieldCity, FieldState, FieldPostalCode,
			},
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			frm := newTestForm(tt.level)
			fields := frm.Fields()
			if len(fields) != len(tt.want) {
				t.Fatalf("got %d fields, want %d", len(fields), len(tt.want))
			}
			for i, f := range fields {
				if f.Type() != tt.want[i] {
					t.Fatalf("field %d = %s, want %s", i, f.Type(), tt.want[i])
				}
			}
			if focused := frm.Focused(); focused.Type() != FieldCardNumber {
				t.Fatalf("initial focus = %s, want %s", focused.Type(), FieldCardNumber)
			}
			if frm.CountryCode() != "US" {
				t.Fatalf("default country = %q, want US", frm.CountryCode())
			}
		})
	}
}

func TestFormCompletenessEdges(t *testing.T) {
	t.Parallel()

	frm := newTestForm(BillingAddressCollectionAutomatic)
	listener := &recordingListener{}
	frm.SetListener(listener)

	fillCardFields(frm)
	if frm.Complete() {
		t.Fatalf("form should not be complete without a postal code")
	}
	if len(listener.completes) != 0 {
		t.Fatalf("no completeness edge yet, got %v", listener.completes)
	}

	frm.Field(FieldPostalCode).SetText("94107")
	if !frm.Complete() {
		t.Fatalf("form should be complete")
	}

	// Invalidate one field, then fix it: exactly one edge per direction,
	// never one per keystroke.
	frm.Field(FieldCVC).SetText("12")
	frm.Field(FieldCVC).SetText("1")
	frm.Field(FieldCVC).SetText("123")

	want := []bool{true, false, true}
	if len(listener.completes) != len(want) {
		t.Fatalf("completeness edges = %v, want %v", listener.completes, want)
	}
	for i := range want {
		if listener.completes[i] != want[i] {
			t.Fatalf("completeness edges = %v, want %v", listener.completes, want)
		}
	}
}

func TestFormAutoAdvance(t *testing.T) {
	t.Parallel()

	frm := newTestForm(BillingAddressCollectionAutomatic)
	listener := &recordingListener{}
	frm.SetListener(listener)

	frm.Field(FieldCardNumber).SetText("4242424242424242")
	if focused := frm.Focused(); focused.Type() != FieldExpiry {
		t.Fatalf("focus after card = %s, want %s", focused.Type(), FieldExpiry)
	}
	frm.Field(FieldExpiry).SetText("1230")
	frm.Field(FieldCVC).SetText("123")

	want := [][2]FieldType{
		{FieldCardNumber, FieldExpiry},
		{FieldExpiry, FieldCVC},
		{FieldCVC, FieldCountry},
	}
	if len(listener.advances) != len(want) {
		t.Fatalf("advances = %v, want %v", listener.advances, want)
	}
	for i := range want {
		if listener.advances[i] != want[i] {
			t.Fatalf("advance %d = %v, want %v", i, listener.advances[i], want[i])
		}
	}
}

// Free-text fields in the full billing layout never auto-advance: there is
// no way to tell a complete city name from a prefix of a longer one.
func TestFormNoAutoAdvanceForRequiredBillingText(t *testing.T) {
	t.Parallel()

	frm := newTestForm(BillingAddressCollectionRequired)
	listener := &recordingListener{}
	frm.SetListener(listener)

	frm.Field(FieldName).SetText("Jane Doe")
	frm.Field(FieldCity).SetText("San Francisco")
	frm.Field(FieldPostalCode).SetText("94107")

	if len(listener.advances) != 0 {
		t.Fatalf("expected no advances, got %v", listener.advances)
	}
}

func TestFormCardBrandDrivesCVC(t *testing.T) {
	t.Parallel()

	frm := newTestForm(BillingAddressCollectionAutomatic)
	cvc := frm.Field(FieldCVC)

	cvc.SetText("123")
	if state := cvc.State(); !state.IsValid() {
		t.Fatalf("three digits should be valid before a brand is known, got %s", state.Status)
	}

	// An American Express number flips the expected code length to four.
	frm.Field(FieldCardNumber).SetText("3782")
	if state := cvc.State(); state.Status != ValidationIncomplete {
		t.Fatalf("three digits should be incomplete for amex, got %s", state.Status)
	}
	cvc.SetText("1234")
	if state := cvc.State(); !state.IsValid() {
		t.Fatalf("four digits should be valid for amex, got %s", state.Status)
	}

	// Back to a Visa prefix, the four-digit code is now too long.
	frm.Field(FieldCardNumber).SetText("4242")
	if state := cvc.State(); state.Status != ValidationInvalid {
		t.Fatalf("four digits should be invalid for visa, got %s", state.Status)
	}
}

func TestFormCountryCascade(t *testing.T) {
	t.Parallel()

	frm := newTestForm(BillingAddressCollectionRequired)

	state := frm.Field(FieldState)
	postal := frm.Field(FieldPostalCode)
	if state.Hidden() {
		t.Fatalf("state field should be visible for US")
	}
	if state.Label() != "State" {
		t.Fatalf("state label = %q, want State", state.Label())
	}

	frm.Field(FieldCountry).SetText("CA")
	if state.Label() != "Province" {
		t.Fatalf("state label = %q, want Province", state.Label())
	}

	frm.Field(FieldCountry).SetText("GB")
	if !state.Hidden() {
		t.Fatalf("state field should be hidden for GB")
	}
	if postal.Hidden() {
		t.Fatalf("postal field should stay visible for GB")
	}

	frm.Field(FieldCountry).SetText("AE")
	if !postal.Hidden() {
		t.Fatalf("postal field should be hidden for AE")
	}
}

// A country switch re-derives the postal state from the text that is
// already there: five digits are complete for the US but not for Canada.
func TestFormCountryChangeRevalidatesPostal(t *testing.T) {
	t.Parallel()

	frm := newTestForm(BillingAddressCollectionAutomatic)
	postal := frm.Field(FieldPostalCode)

	postal.SetText("94107")
	if state := postal.State(); !state.IsValid() {
		t.Fatalf("US postal should be valid, got %s", state.Status)
	}

	frm.Field(FieldCountry).SetText("CA")
	if state := postal.State(); state.IsValid() {
		t.Fatalf("five digits should not be a valid CA postal code")
	}
}

func TestFormCompleteWithHiddenPostal(t *testing.T) {
	t.Parallel()

	frm := newTestForm(BillingAddressCollectionAutomatic)
	fillCardFields(frm)
	frm.Field(FieldCountry).SetText("HK")

	if !frm.Complete() {
		t.Fatalf("form should be complete when the postal field is hidden")
	}
	opt := frm.PaymentOption()
	if opt == nil {
		t.Fatalf("expected a payment option")
	}
	if opt.NewMethod.Billing.PostalCode != "" {
		t.Fatalf("hidden postal should not be collected, got %q", opt.NewMethod.Billing.PostalCode)
	}
	if opt.NewMethod.Billing.Country != "HK" {
		t.Fatalf("billing country = %q, want HK", opt.NewMethod.Billing.Country)
	}
}

func TestFormPaymentOption(t *testing.T) {
	t.Parallel()

	frm := newTestForm(BillingAddressCollectionAutomatic)

	if frm.PaymentOption() != nil {
		t.Fatalf("incomplete form should not produce a payment option")
	}

	fillCardFields(frm)
	frm.Field(FieldPostalCode).SetText("94107")
	frm.SetSaveForLater(true)

	opt := frm.PaymentOption()
	if opt == nil {
		t.Fatalf("expected a payment option")
	}
	if opt.Kind != PaymentOptionNewMethod {
		t.Fatalf("option kind = %s, want %s", opt.Kind, PaymentOptionNewMethod)
	}
	params := opt.NewMethod
	if params.Number != "4242424242424242" {
		t.Fatalf("number = %q", params.Number)
	}
	if params.ExpMonth != 12 || params.ExpYear != 2030 {
		t.Fatalf("expiry = %d/%d, want 12/2030", params.ExpMonth, params.ExpYear)
	}
	if params.CVC != "123" {
		t.Fatalf("cvc = %q", params.CVC)
	}
	if !params.SaveForFutureUse {
		t.Fatalf("expected save-for-future-use to carry through")
	}
	if params.Billing == nil || params.Billing.PostalCode != "94107" || params.Billing.Country != "US" {
		t.Fatalf("billing = %+v", params.Billing)
	}
	if err := params.Validate(); err != nil {
		t.Fatalf("assembled params should validate: %v", err)
	}
}
