package paymentsheet

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sumup/paymentsheet/card"
)

// Formatter turns raw input into display text. Formatting is a pure pass
// over the text, independent of validation: Format is idempotent, and Strip
// recovers the plain-text projection a validator classifies. Separators
// inserted by Format are non-semantic.
type Formatter interface {
	Format(input string) string
	Strip(formatted string) string
	// CaretOffset maps a caret position in the plain projection onto the
	// formatted text.
	CaretOffset(formatted string, rawCaret int) int
}

func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func caretOffset(formatted string, rawCaret int, significant func(rune) bool) int {
	if rawCaret <= 0 {
		return 0
	}
	count := 0
	for i, r := range formatted {
		if significant(r) {
			count++
			if count == rawCaret {
				return i + utf8.RuneLen(r)
			}
		}
	}
	return len(formatted)
}

// cardNumberFormatter groups digits per the derived brand, four groups of
// four for most networks and 4-6-5 for American Express. The formatter caps
// input at the longest number any network issues; whether the digits make a
// well-formed number for their brand is the validator's call.
type cardNumberFormatter struct{}

func (cardNumberFormatter) Format(input string) string {
	digits := digitsOf(input)
	if len(digits) > card.MaxPANLength {
		digits = digits[:card.MaxPANLength]
	}
	brand := card.FromNumber(digits)
	var groups []string
	rest := digits
	for _, size := range card.Groups(brand) {
		if rest == "" {
			break
		}
		if size > len(rest) {
			size = len(rest)
		}
		groups = append(groups, rest[:size])
		rest = rest[size:]
	}
	if rest != "" {
		groups = append(groups, rest)
	}
	return strings.Join(groups, " ")
}

func (cardNumberFormatter) Strip(formatted string) string {
	return digitsOf(formatted)
}

func (cardNumberFormatter) CaretOffset(formatted string, rawCaret int) int {
	return caretOffset(formatted, rawCaret, isDigit)
}

// expiryFormatter masks digits as MM/YY.
type expiryFormatter struct{}

func (expiryFormatter) Format(input string) string {
	digits := digitsOf(input)
	if len(digits) > 4 {
		digits = digits[:4]
	}
	if len(digits) == 1 && digits[0] > '1' {
		// A leading 2-9 can only mean a single-digit month.
		digits = "0" + digits
	}
	if len(digits) < 2 {
		return digits
	}
	return digits[:2] + "/" + digits[2:]
}

func (expiryFormatter) Strip(formatted string) string {
	return digitsOf(formatted)
}

func (expiryFormatter) CaretOffset(formatted string, rawCaret int) int {
	return caretOffset(formatted, rawCaret, isDigit)
}

// digitsFormatter keeps up to max digits, used for CVC and fixed-length
// postal codes.
type digitsFormatter struct {
	max int
}

func (f digitsFormatter) Format(input string) string {
	digits := digitsOf(input)
	if f.max > 0 && len(digits) > f.max {
		digits = digits[:f.max]
	}
	return digits
}

func (f digitsFormatter) Strip(formatted string) string {
	return digitsOf(formatted)
}

func (f digitsFormatter) CaretOffset(formatted string, rawCaret int) int {
	return caretOffset(formatted, rawCaret, isDigit)
}

// postalFormatter picks a country-appropriate treatment: five digits for US
// codes, trimmed free text elsewhere.
type postalFormatter struct {
	country func() string
}

func (f postalFormatter) Format(input string) string {
	if f.country() == "US" {
		return digitsFormatter{max: 5}.Format(input)
	}
	return strings.TrimSpace(input)
}

func (f postalFormatter) Strip(formatted string) string {
	if f.country() == "US" {
		return digitsOf(formatted)
	}
	return formatted
}

func (f postalFormatter) CaretOffset(formatted string, rawCaret int) int {
	if f.country() == "US" {
		return caretOffset(formatted, rawCaret, isDigit)
	}
	if rawCaret > len(formatted) {
		return len(formatted)
	}
	if rawCaret < 0 {
		return 0
	}
	return rawCaret
}

// textFormatter passes text through untouched.
type textFormatter struct{}

func (textFormatter) Format(input string) string    { return input }
func (textFormatter) Strip(formatted string) string { return formatted }

func (textFormatter) CaretOffset(formatted string, rawCaret int) int {
	if rawCaret > len(formatted) {
		return len(formatted)
	}
	if rawCaret < 0 {
		return 0
	}
	return rawCaret
}

// countryFormatter normalizes to a two-letter uppercase code.
type countryFormatter struct{}

func (countryFormatter) Format(input string) string {
	var b strings.Builder
	for _, r := range input {
		if unicode.IsLetter(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
		if b.Len() == 2 {
			break
		}
	}
	return b.String()
}

func (countryFormatter) Strip(formatted string) string { return formatted }

func (countryFormatter) CaretOffset(formatted string, rawCaret int) int {
	if rawCaret > len(formatted) {
		return len(formatted)
	}
	if rawCaret < 0 {
		return 0
	}
	return rawCaret
}
