package paymentsheet

// PaymentOptionKind defines model for PaymentOption.Kind.
type PaymentOptionKind string

// Defines values for PaymentOptionKind.
const (
	PaymentOptionSavedMethod PaymentOptionKind = "saved_method"
	PaymentOptionNewMethod   PaymentOptionKind = "new_method"
	PaymentOptionPlatformPay PaymentOptionKind = "platform_pay"
)

// PaymentOption is the finalized choice a submission dispatches on: a saved
// method, a freshly entered method, or the platform wallet.
type PaymentOption struct {
	Kind          PaymentOptionKind `json:"kind"`
	SavedMethodID string            `json:"saved_method_id,omitempty"`
	NewMethod     *NewMethodParams  `json:"new_method,omitempty"`
}

// SavedMethodOption selects a previously stored payment method.
func SavedMethodOption(methodID string) *PaymentOption {
	return &PaymentOption{Kind: PaymentOptionSavedMethod, SavedMethodID: methodID}
}

// NewMethodOption selects a freshly entered payment method.
func NewMethodOption(params *NewMethodParams) *PaymentOption {
	return &PaymentOption{Kind: PaymentOptionNewMethod, NewMethod: params}
}

// PlatformPayOption selects the device wallet.
func PlatformPayOption() *PaymentOption {
	return &PaymentOption{Kind: PaymentOptionPlatformPay}
}

// NewMethodParams carries the card details collected by the form.
type NewMethodParams struct {
	Number   string `json:"number" validate:"required,numeric"`
	ExpMonth int64  `json:"exp_month" validate:"required,gte=1,lte=12"`
	ExpYear  int64  `json:"exp_year" validate:"required,gte=2000"`
	CVC      string `json:"cvc" validate:"required,numeric"`
	// Billing requirements depend on the collection level, so the address
	// is validated separately via [BillingAddress.Validate].
	Billing          *BillingAddress `json:"billing,omitempty" validate:"-"`
	SaveForFutureUse bool            `json:"save_for_future_use,omitempty"`
}

// Validate ensures the params satisfy basic card constraints before they
// are handed to the confirmation path.
func (p NewMethodParams) Validate() error {
	if err := validate.Struct(p); err != nil {
		return normalizeValidationError(err)
	}
	return nil
}
