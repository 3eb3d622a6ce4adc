package paymentsheet

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// BillingAddressCollectionLevel controls which billing sub-fields the form
// collects.
type BillingAddressCollectionLevel string

// Defines values for BillingAddressCollectionLevel.
const (
	// BillingAddressCollectionAutomatic collects postal code and country
	// only.
	BillingAddressCollectionAutomatic BillingAddressCollectionLevel = "automatic"
	// BillingAddressCollectionRequired collects the full billing address.
	BillingAddressCollectionRequired BillingAddressCollectionLevel = "required"
)

// BillingAddress is the billing detail assembled from the form's address
// sub-fields.
type BillingAddress struct {
	Name       string `json:"name,omitempty" validate:"required"`
	Line1      string `json:"line1" validate:"required"`
	Line2      string `json:"line2,omitempty" validate:"omitempty"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state,omitempty" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required"`
	Country    string `json:"country" validate:"required,country_code"`
}

var (
	countryPattern = regexp.MustCompile(`^[A-Z]{2}$`)
	validate       = newValidator()
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.Split(field.Tag.Get("json"), ",")[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})

	if err := v.RegisterValidation("country_code", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		return countryPattern.MatchString(value)
	}); err != nil {
		panic(err)
	}

	return v
}

// Validate checks the address against the collection level's requirements.
// The automatic level wants a country plus a postal code where the country
// has one; the required level wants the full address, including name and,
// where the country subdivides, a state.
func (a BillingAddress) Validate(level BillingAddressCollectionLevel) error {
	fields := []string{"Country"}
	if level == BillingAddressCollectionRequired {
		fields = append(fields, "Name", "Line1", "City")
		if _, ok := stateLabels[a.Country]; ok {
			fields = append(fields, "State")
		}
	}
	if !countriesWithoutPostal[a.Country] {
		fields = append(fields, "PostalCode")
	}
	return a.validatePartial(fields...)
}

func (a BillingAddress) validatePartial(fields ...string) error {
	if len(fields) == 0 {
		return nil
	}
	if err := validate.StructPartial(a, fields...); err != nil {
		return normalizeValidationError(err)
	}
	return nil
}

func normalizeValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}
	first := validationErrs[0]
	return fmt.Errorf("%s %s", jsonPath(first), validationMessage(first))
}

func jsonPath(fe validator.FieldError) string {
	path := fe.Namespace()
	if idx := strings.Index(path, "."); idx >= 0 {
		path = path[idx+1:]
	}
	if path == "" {
		return fe.Field()
	}
	return path
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("cannot exceed %s characters", fe.Param())
	case "numeric":
		return "must contain digits only"
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("cannot exceed %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "country_code":
		return "must be a two-letter uppercase country code"
	default:
		return fmt.Sprintf("failed validation: %s", fe.Tag())
	}
}

// billingStructFields maps form field identities to BillingAddress struct
// fields for partial validation.
var billingStructFields = map[FieldType]string{
	FieldName:       "Name",
	FieldLine1:      "Line1",
	FieldLine2:      "Line2",
	FieldCity:       "City",
	FieldState:      "State",
	FieldPostalCode: "PostalCode",
	FieldCountry:    "Country",
}

// assembleBillingLocked builds the billing address from the visible address
// sub-fields. Assembly fails if any visible sub-field is not valid.
func (frm *Form) assembleBillingLocked() (*BillingAddress, error) {
	addr := &BillingAddress{}
	var collected []string
	for _, f := range frm.fields {
		structField, ok := billingStructFields[f.kind]
		if !ok || f.hidden {
			continue
		}
		if !f.state.IsValid() {
			return nil, fmt.Errorf("billing: %s is not complete", f.kind)
		}
		switch f.kind {
		case FieldName:
			addr.Name = f.raw
		case FieldLine1:
			addr.Line1 = f.raw
		case FieldLine2:
			addr.Line2 = f.raw
		case FieldCity:
			addr.City = f.raw
		case FieldState:
			addr.State = f.raw
		case FieldPostalCode:
			addr.PostalCode = f.raw
		case FieldCountry:
			addr.Country = f.raw
		}
		collected = append(collected, structField)
	}
	if err := addr.validatePartial(collected...); err != nil {
		return nil, err
	}
	return addr, nil
}
