package paymentsheet

import (
	"encoding/json"

	"github.com/oapi-codegen/runtime"
)

// IntentStatus defines model for PaymentIntent.Status.
type IntentStatus string

// Defines values for IntentStatus.
const (
	IntentStatusRequiresPaymentMethod IntentStatus = "requires_payment_method"
	IntentStatusRequiresConfirmation  IntentStatus = "requires_confirmation"
	IntentStatusRequiresAction        IntentStatus = "requires_action"
	IntentStatusProcessing            IntentStatus = "processing"
	IntentStatusSucceeded             IntentStatus = "succeeded"
	IntentStatusCanceled              IntentStatus = "canceled"
)

// PaymentIntent is the server-side resource representing the pending
// payment. The sheet treats it as an immutable snapshot for the duration of
// one presentation, replaced wholesale when a successful confirmation
// returns an updated resource.
type PaymentIntent struct {
	ID                 string       `json:"id"`
	ClientSecret       string       `json:"client_secret"`
	Amount             int64        `json:"amount"`
	Currency           string       `json:"currency"`
	Status             IntentStatus `json:"status"`
	PaymentMethodTypes []string     `json:"payment_method_types"`
}

// SavedMethodType defines model for SavedMethod.Type.
type SavedMethodType string

// Defines values for SavedMethodType.
const (
	SavedMethodTypeCard          SavedMethodType = "card"
	SavedMethodTypeSEPADebit     SavedMethodType = "sepa_debit"
	SavedMethodTypeUSBankAccount SavedMethodType = "us_bank_account"
)

// SavedMethod is a payment method previously stored for the customer.
type SavedMethod struct {
	ID      string          `json:"id"`
	Type    SavedMethodType `json:"type"`
	Details MethodDetails   `json:"details"`
}

// MethodDetails carries the type-specific display details for a saved
// method.
type MethodDetails struct {
	union json.RawMessage
}

// CardDetails defines display details for card methods.
type CardDetails struct {
	Brand    string `json:"brand"`
	Last4    string `json:"last4"`
	ExpMonth int64  `json:"exp_month"`
	ExpYear  int64  `json:"exp_year"`
}

// BankDetails defines display details for bank-account methods.
type BankDetails struct {
	BankName string `json:"bank_name"`
	Last4    string `json:"last4"`
}

// AsCardDetails returns the union data inside the MethodDetails as a CardDetails
func (t MethodDetails) AsCardDetails() (CardDetails, error) {
	var body CardDetails
	err := json.Unmarshal(t.union, &body)
	return body, err
}

// FromCardDetails overwrites any union data inside the MethodDetails as the provided CardDetails
func (t *MethodDetails) FromCardDetails(v CardDetails) error {
	b, err := json.Marshal(v)
	t.union = b
	return err
}

// MergeCardDetails performs a merge with any union data inside the MethodDetails, using the provided CardDetails
func (t *MethodDetails) MergeCardDetails(v CardDetails) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	merged, err := runtime.JSONMerge(t.union, b)
	t.union = merged
	return err
}

// AsBankDetails returns the union data inside the MethodDetails as a BankDetails
func (t MethodDetails) AsBankDetails() (BankDetails, error) {
	var body BankDetails
	err := json.Unmarshal(t.union, &body)
	return body, err
}

// FromBankDetails overwrites any union data inside the MethodDetails as the provided BankDetails
func (t *MethodDetails) FromBankDetails(v BankDetails) error {
	b, err := json.Marshal(v)
	t.union = b
	return err
}

// MergeBankDetails performs a merge with any union data inside the MethodDetails, using the provided BankDetails
func (t *MethodDetails) MergeBankDetails(v BankDetails) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	merged, err := runtime.JSONMerge(t.union, b)
	t.union = merged
	return err
}

// MarshalJSON serializes the underlying union for MethodDetails.
func (t MethodDetails) MarshalJSON() ([]byte, error) {
	return t.union.MarshalJSON()
}

// UnmarshalJSON loads union data for MethodDetails.
func (t *MethodDetails) UnmarshalJSON(b []byte) error {
	return t.union.UnmarshalJSON(b)
}

// DisplayLabel renders a short label for a saved method, suitable for a
// chooser row.
func (m SavedMethod) DisplayLabel() string {
	switch m.Type {
	case SavedMethodTypeCard:
		details, err := m.Details.AsCardDetails()
		if err != nil || details.Last4 == "" {
			return string(m.Type)
		}
		return details.Brand + " •••• " + details.Last4
	case SavedMethodTypeUSBankAccount, SavedMethodTypeSEPADebit:
		details, err := m.Details.AsBankDetails()
		if err != nil || details.Last4 == "" {
			return string(m.Type)
		}
		return details.BankName + " •••• " + details.Last4
	default:
		return string(m.Type)
	}
}
