package paymentsheet

// ErrorType separates errors surfaced verbatim from collaborators from
// errors synthesized when a collaborator contract is violated. Validation
// problems never become errors; they live in field states.
type ErrorType string

const (
	ErrorTypeAPI      ErrorType = "api_error"      // Transport or payments-API failure, shown via its own description.
	ErrorTypeInternal ErrorType = "internal_error" // Contract violation or presentation-API misuse.
)

// ErrorCode is a machine-readable identifier for the specific failure.
type ErrorCode string

const (
	CodePaymentFailed      ErrorCode = "payment_failed"       // Confirmation reported failure without an error object.
	CodeAlreadyPresenting  ErrorCode = "already_presenting"   // Present called while a presentation is active.
	CodeSubmissionInFlight ErrorCode = "submission_in_flight" // Submit called while another submission is outstanding.
	CodeNoPaymentOption    ErrorCode = "no_payment_option"    // Submit or confirm called without a finalized option.
	CodeWalletUnavailable  ErrorCode = "wallet_unavailable"   // Platform pay selected without a capable wallet client.
	CodeNotDismissable     ErrorCode = "not_dismissable"      // Dismiss attempted while a submission is in flight.
	CodeNotLoaded          ErrorCode = "not_loaded"           // Presentation or submission before the intent loaded.
)

// Error is a structured sheet error.
type Error struct {
	Type    ErrorType `json:"type"`
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`

	debugDescription string
}

// Error makes *Error satisfy the stdlib error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// DebugDescription returns the developer-facing detail for internal errors.
func (e *Error) DebugDescription() string {
	if e == nil {
		return ""
	}
	return e.debugDescription
}

type errorOption func(*Error)

// WithDebugDescription attaches developer-facing detail without changing
// the user-facing message.
func WithDebugDescription(description string) errorOption {
	return func(er *Error) {
		er.debugDescription = description
	}
}

// NewInternalError builds the synthesized "unknown" error used when a
// collaborator contract is violated or the presentation API is misused.
func NewInternalError(code ErrorCode, debugDescription string, opts ...errorOption) *Error {
	return newError(ErrorTypeInternal, code, "An unexpected error occurred.",
		append([]errorOption{WithDebugDescription(debugDescription)}, opts...)...)
}

// NewAPIError wraps a payments-API failure message.
func NewAPIError(message string, opts ...errorOption) *Error {
	return newError(ErrorTypeAPI, "", message, opts...)
}

func newError(typ ErrorType, code ErrorCode, message string, opts ...errorOption) *Error {
	errPayload := &Error{
		Type:    typ,
		Code:    code,
		Message: message,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(errPayload)
	}
	return errPayload
}
