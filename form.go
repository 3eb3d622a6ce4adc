package paymentsheet

import (
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/sumup/paymentsheet/card"
)

// FormListener receives whole-form events. Both callbacks are delivered
// synchronously on the form's control timeline and must not mutate fields.
type FormListener interface {
	// FormDidChangeComplete fires only on an actual completeness edge,
	// never on every keystroke.
	FormDidChangeComplete(form *Form, complete bool)
	// FormDidAdvanceFocus fires when input focus auto-advances to the next
	// field after the current one validates.
	FormDidAdvanceFocus(form *Form, from, to *Field)
}

// Countries whose address format includes a state-like subdivision, with
// the label the field shows.
var stateLabels = map[string]string{
	"US": "State",
	"CA": "Province",
}

// Countries whose postal system has no code to collect.
var countriesWithoutPostal = map[string]bool{
	"AE": true,
	"HK": true,
	"PA": true,
}

// Form owns the ordered set of input fields, derives whole-form
// completeness, drives auto-advance, and produces the payment option once
// everything required is valid.
type Form struct {
	mu    sync.Mutex
	after []func()

	fields       []*Field
	byKind       map[FieldType]*Field
	listener     FormListener
	level        BillingAddressCollectionLevel
	country      string
	complete     bool
	saveForLater bool
	focused      *Field
	log          *slog.Logger
}

// NewForm builds a card entry form with billing fields per the collection
// level. A nil ranges service falls back to the static brand table.
func NewForm(level BillingAddressCollectionLevel, ranges card.RangeService) *Form {
	return newForm(level, ranges, time.Now, discardLogger())
}

func newForm(level BillingAddressCollectionLevel, ranges card.RangeService, now func() time.Time, log *slog.Logger) *Form {
	frm := &Form{
		level:   level,
		country: "US",
		log:     log,
	}

	fields := []*Field{
		NewCardNumberField(ranges),
		newExpiryField(now),
		NewCVCField(card.BrandUnknown),
	}
	countryOf := func() string { return frm.country }
	switch level {
	case BillingAddressCollectionRequired:
		fields = append(fields,
			NewTextField(FieldName, "Name on card", false),
			NewCountryField(),
			NewTextField(FieldLine1, "Address line 1", false),
			NewTextField(FieldLine2, "Address line 2", true),
			NewTextField(FieldCity, "City", false),
			NewTextField(FieldState, "State", false),
			NewPostalCodeField(countryOf),
		)
	default:
		fields = append(fields,
			NewCountryField(),
			NewPostalCodeField(countryOf),
		)
	}

	frm.fields = fields
	frm.byKind = make(map[FieldType]*Field, len(fields))
	for _, f := range fields {
		f.form = frm
		frm.byKind[f.kind] = f
	}
	frm.focused = fields[0]

	// Prime every field so optional inputs count as valid and the default
	// country cascades into postal and state visibility.
	frm.dispatch(func() {
		for _, f := range frm.fields {
			if f.kind == FieldCountry {
				f.setTextLocked(frm.country)
				continue
			}
			f.revalidateLocked()
		}
		frm.applyCountryLocked(frm.country)
	})
	return frm
}

// dispatch serializes fn onto the form's control timeline. Work queued via
// afterUnlock during fn runs once the timeline is released, so collaborator
// callbacks that complete synchronously cannot re-enter a transition.
func (frm *Form) dispatch(fn func()) {
	frm.mu.Lock()
	fn()
	after := frm.after
	frm.after = nil
	frm.mu.Unlock()
	for _, w := range after {
		w()
	}
}

func (frm *Form) afterUnlock(fn func()) {
	frm.after = append(frm.after, fn)
}

// SetListener registers the single whole-form listener.
func (frm *Form) SetListener(l FormListener) {
	frm.dispatch(func() { frm.listener = l })
}

// Fields returns the fields in declared order.
func (frm *Form) Fields() []*Field {
	var fields []*Field
	frm.dispatch(func() { fields = append(fields, frm.fields...) })
	return fields
}

// Field returns the field with the given identity, or nil.
func (frm *Form) Field(kind FieldType) *Field {
	var f *Field
	frm.dispatch(func() { f = frm.byKind[kind] })
	return f
}

// Complete reports whether every visible field is valid.
func (frm *Form) Complete() bool {
	var complete bool
	frm.dispatch(func() { complete = frm.complete })
	return complete
}

// Focused returns the field that currently holds input focus.
func (frm *Form) Focused() *Field {
	var f *Field
	frm.dispatch(func() { f = frm.focused })
	return f
}

// CountryCode returns the currently selected billing country.
func (frm *Form) CountryCode() string {
	var country string
	frm.dispatch(func() { country = frm.country })
	return country
}

// SetSaveForLater records whether the new payment method should be stored
// for future use.
func (frm *Form) SetSaveForLater(save bool) {
	frm.dispatch(func() { frm.saveForLater = save })
}

// SaveForLater reports the stored save-for-later choice.
func (frm *Form) SaveForLater() bool {
	var save bool
	frm.dispatch(func() { save = frm.saveForLater })
	return save
}

// fieldTextDidChange reacts to an edit that may not move the field's
// state: a new card prefix can change the brand while both inputs are
// incomplete, and a country switch replaces one valid code with another.
// Runs on the control timeline.
func (frm *Form) fieldTextDidChange(f *Field) {
	switch f.kind {
	case FieldCardNumber:
		if cvc := frm.byKind[FieldCVC]; cvc != nil {
			cvc.setCardBrandLocked(f.brandLocked())
		}
	case FieldCountry:
		if f.state.IsValid() && f.raw != frm.country {
			frm.applyCountryLocked(f.raw)
		}
	}
}

// fieldDidTransition reacts to one field's state change: cross-field
// coupling, completeness recomputation, and auto-advance. Runs on the
// control timeline.
func (frm *Form) fieldDidTransition(f *Field, previous, current ValidationState) {
	frm.log.Debug("field transition",
		slog.String("field", string(f.kind)),
		slog.String("from", string(previous.Status)),
		slog.String("to", string(current.Status)),
	)
	switch f.kind {
	case FieldCardNumber:
		if cvc := frm.byKind[FieldCVC]; cvc != nil {
			cvc.setCardBrandLocked(f.brandLocked())
		}
	case FieldCountry:
		if current.IsValid() {
			frm.applyCountryLocked(f.raw)
		}
	}
	frm.recomputeCompleteLocked()
	frm.maybeAdvanceLocked(f, previous, current)
}

func (frm *Form) recomputeCompleteLocked() {
	complete := true
	for _, f := range frm.fields {
		if f.hidden {
			continue
		}
		if !f.state.IsValid() {
			complete = false
			break
		}
	}
	if complete == frm.complete {
		return
	}
	frm.complete = complete
	if frm.listener != nil {
		frm.listener.FormDidChangeComplete(frm, complete)
	}
}

func (frm *Form) maybeAdvanceLocked(f *Field, previous, current ValidationState) {
	if !current.IsValid() {
		return
	}
	// Transitions out of the initial state are priming, not input, and a
	// resolution of a pending lookup is not a keystroke either.
	if previous.Status == ValidationUnknown || previous.Status == ValidationProcessing {
		return
	}
	if !frm.autoAdvanceEligibleLocked(f) {
		return
	}
	to := frm.nextVisibleLocked(f)
	if to == nil {
		return
	}
	frm.focused = to
	if frm.listener != nil {
		frm.listener.FormDidAdvanceFocus(frm, f, to)
	}
}

func (frm *Form) autoAdvanceEligibleLocked(f *Field) bool {
	switch f.kind {
	case FieldCardNumber, FieldExpiry, FieldCVC:
		return true
	case FieldPostalCode:
		// Advance only when the country's code has a fixed length the user
		// cannot keep typing past.
		return frm.level != BillingAddressCollectionRequired && frm.country == "US"
	default:
		return frm.level != BillingAddressCollectionRequired
	}
}

func (frm *Form) nextVisibleLocked(f *Field) *Field {
	idx := -1
	for i, candidate := range frm.fields {
		if candidate == f {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	for _, candidate := range frm.fields[idx+1:] {
		if !candidate.hidden {
			return candidate
		}
	}
	return nil
}

// applyCountryLocked cascades a country change into postal-code visibility
// and validation and the state field's label and visibility.
func (frm *Form) applyCountryLocked(code string) {
	frm.country = code
	if postal := frm.byKind[FieldPostalCode]; postal != nil {
		postal.hidden = countriesWithoutPostal[code]
		if !postal.hidden {
			postal.setTextLocked(postal.text)
		}
	}
	if state := frm.byKind[FieldState]; state != nil {
		label, ok := stateLabels[code]
		if ok {
			state.label = label
		}
		state.hidden = !ok
	}
	frm.recomputeCompleteLocked()
}

// PaymentOption returns the new-method payment option once every visible
// field is valid and billing assembly succeeds, otherwise nil.
func (frm *Form) PaymentOption() *PaymentOption {
	var opt *PaymentOption
	frm.dispatch(func() { opt = frm.paymentOptionLocked() })
	return opt
}

func (frm *Form) paymentOptionLocked() *PaymentOption {
	if !frm.complete {
		return nil
	}
	billing, err := frm.assembleBillingLocked()
	if err != nil {
		frm.log.Debug("billing assembly failed", slog.String("error", err.Error()))
		return nil
	}
	expiry := frm.byKind[FieldExpiry].raw
	month, _ := strconv.Atoi(expiry[:2])
	year := 2000 + mustAtoi(expiry[2:])
	params := &NewMethodParams{
		Number:           frm.byKind[FieldCardNumber].raw,
		CVC:              frm.byKind[FieldCVC].raw,
		ExpMonth:         int64(month),
		ExpYear:          int64(year),
		Billing:          billing,
		SaveForFutureUse: frm.saveForLater,
	}
	return &PaymentOption{Kind: PaymentOptionNewMethod, NewMethod: params}
}
