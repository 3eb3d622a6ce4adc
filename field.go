package paymentsheet

import "github.com/sumup/paymentsheet/card"

// FieldType identifies an input within the form.
type FieldType string

// Defines values for FieldType.
const (
	FieldCardNumber FieldType = "card_number"
	FieldExpiry     FieldType = "expiry"
	FieldCVC        FieldType = "cvc"
	FieldName       FieldType = "name"
	FieldLine1      FieldType = "line1"
	FieldLine2      FieldType = "line2"
	FieldCity       FieldType = "city"
	FieldState      FieldType = "state"
	FieldPostalCode FieldType = "postal_code"
	FieldCountry    FieldType = "country"
)

// Observer receives field state transitions. Delivery is ordered and
// synchronous on the form's control timeline; observers must not mutate
// fields from inside the callback.
type Observer interface {
	FieldDidChange(field *Field, previous, current ValidationState, rawValue string)
}

// ObserverFunc lifts bare functions into [Observer].
type ObserverFunc func(field *Field, previous, current ValidationState, rawValue string)

// FieldDidChange invokes the wrapped function.
func (f ObserverFunc) FieldDidChange(field *Field, previous, current ValidationState, rawValue string) {
	f(field, previous, current, rawValue)
}

// fieldLogic classifies a field's plain-text projection.
type fieldLogic interface {
	validate(raw string) ValidationState
}

// Field owns one input: its formatted display text, the plain-text
// projection the validator sees, and the current validation state. Fields
// are created when the form is built and mutated on every keystroke and on
// out-of-band metadata resolutions.
type Field struct {
	kind      FieldType
	form      *Form
	formatter Formatter
	logic     fieldLogic

	text      string
	raw       string
	state     ValidationState
	observers []Observer
	hidden    bool
	optional  bool
	label     string

	// deferred work for detached fields; attached fields defer through
	// the form's control timeline instead.
	depth    int
	draining bool
	after    []func()
}

func newField(kind FieldType, formatter Formatter, logic fieldLogic, label string) *Field {
	return &Field{
		kind:      kind,
		formatter: formatter,
		logic:     logic,
		state:     UnknownState(),
		label:     label,
	}
}

// run executes fn on the form's control timeline, or inline for a field
// that is not attached to a form. Deferred work queued during fn runs once
// the current transition has fully settled.
func (f *Field) run(fn func()) {
	if f.form != nil {
		f.form.dispatch(fn)
		return
	}
	f.depth++
	fn()
	f.depth--
	if f.depth == 0 && !f.draining {
		f.draining = true
		for len(f.after) > 0 {
			work := f.after
			f.after = nil
			for _, w := range work {
				w()
			}
		}
		f.draining = false
	}
}

// afterUnlock queues fn to run once the current transition has settled and
// the control timeline is released.
func (f *Field) afterUnlock(fn func()) {
	if f.form != nil {
		f.form.afterUnlock(fn)
		return
	}
	f.after = append(f.after, fn)
}

// Type returns the field identity. The identity is fixed at construction,
// so callbacks may read it without re-entering the control timeline.
func (f *Field) Type() FieldType { return f.kind }

// Label returns the display label. The state field's label follows the
// selected country.
func (f *Field) Label() string {
	var label string
	f.run(func() { label = f.label })
	return label
}

// Text returns the formatted display text.
func (f *Field) Text() string {
	var text string
	f.run(func() { text = f.text })
	return text
}

// RawValue returns the plain-text projection of the display text.
func (f *Field) RawValue() string {
	var raw string
	f.run(func() { raw = f.raw })
	return raw
}

// State returns the current validation state.
func (f *Field) State() ValidationState {
	var state ValidationState
	f.run(func() { state = f.state })
	return state
}

// Hidden reports whether the field is excluded from display and from the
// form's completeness check.
func (f *Field) Hidden() bool {
	var hidden bool
	f.run(func() { hidden = f.hidden })
	return hidden
}

// Value returns the normalized value and whether the field is complete.
func (f *Field) Value() (string, bool) {
	var value string
	var ok bool
	f.run(func() {
		value = f.raw
		ok = f.state.IsValid()
	})
	return value, ok
}

// Brand returns the derived card brand. It is meaningful only for the card
// number field; other fields report [card.BrandUnknown].
func (f *Field) Brand() card.Brand {
	brand := card.BrandUnknown
	f.run(func() { brand = f.brandLocked() })
	return brand
}

func (f *Field) brandLocked() card.Brand {
	if logic, ok := f.logic.(*cardNumberLogic); ok {
		return logic.brand(f.raw)
	}
	return card.BrandUnknown
}

// SetText replaces the field's input with a keystroke's worth of new text.
// The text is formatted for display, the plain projection re-validated, and
// observers notified on any state transition.
func (f *Field) SetText(input string) {
	f.run(func() { f.setTextLocked(input) })
}

// Observe registers an observer for state transitions.
func (f *Field) Observe(o Observer) {
	if o == nil {
		return
	}
	f.run(func() { f.observers = append(f.observers, o) })
}

// CaretOffset maps a caret position in the plain projection to the display
// text, so inserted separators never eat the user's caret.
func (f *Field) CaretOffset(rawCaret int) int {
	var offset int
	f.run(func() { offset = f.formatter.CaretOffset(f.text, rawCaret) })
	return offset
}

func (f *Field) setTextLocked(input string) {
	f.text = f.formatter.Format(input)
	f.raw = f.formatter.Strip(f.text)
	f.revalidateLocked()
	if f.form != nil {
		f.form.fieldTextDidChange(f)
	}
}

func (f *Field) revalidateLocked() {
	f.transitionLocked(f.logic.validate(f.raw))
}

func (f *Field) transitionLocked(next ValidationState) {
	if next == f.state {
		return
	}
	previous := f.state
	f.state = next
	for _, o := range f.observers {
		o.FieldDidChange(f, previous, next, f.raw)
	}
	if f.form != nil {
		f.form.fieldDidTransition(f, previous, next)
	}
}
