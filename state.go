package paymentsheet

// ValidationStatus is the closed set of states an input field moves through.
type ValidationStatus string

// Defines values for ValidationStatus.
const (
	// ValidationUnknown means no input has been evaluated yet.
	ValidationUnknown ValidationStatus = "unknown"
	// ValidationIncomplete means the input is a valid prefix of some valid
	// value but is not complete.
	ValidationIncomplete ValidationStatus = "incomplete"
	// ValidationInvalid means the input cannot lead to a valid value.
	ValidationInvalid ValidationStatus = "invalid"
	// ValidationValid means the input is complete and well-formed.
	ValidationValid ValidationStatus = "valid"
	// ValidationProcessing means validity depends on an in-flight metadata
	// lookup. A field never stays here once the lookup resolves.
	ValidationProcessing ValidationStatus = "processing"
)

// ValidationState is the result of evaluating a field's input. Invalid and
// Valid states may carry a user-facing message.
type ValidationState struct {
	Status  ValidationStatus
	Message string
}

// IsValid reports whether the state is [ValidationValid].
func (s ValidationState) IsValid() bool {
	return s.Status == ValidationValid
}

// UnknownState returns the pre-evaluation state.
func UnknownState() ValidationState {
	return ValidationState{Status: ValidationUnknown}
}

// IncompleteState returns the valid-prefix state.
func IncompleteState() ValidationState {
	return ValidationState{Status: ValidationIncomplete}
}

// InvalidState returns the invalid state with a user-facing message.
func InvalidState(message string) ValidationState {
	return ValidationState{Status: ValidationInvalid, Message: message}
}

// ValidState returns the complete state.
func ValidState() ValidationState {
	return ValidationState{Status: ValidationValid}
}

// ProcessingState returns the pending-lookup state.
func ProcessingState() ValidationState {
	return ValidationState{Status: ValidationProcessing}
}
