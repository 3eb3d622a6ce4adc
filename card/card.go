// Package card holds the card-network metadata the payment form relies on:
// BIN ranges for brand detection, brand-specific number and security-code
// lengths, digit grouping patterns, and the Luhn checksum.
package card

// Brand identifies a card network.
type Brand string

// Defines values for Brand.
const (
	BrandUnknown    Brand = "unknown"
	BrandVisa       Brand = "visa"
	BrandMastercard Brand = "mastercard"
	BrandAmex       Brand = "amex"
	BrandDiscover   Brand = "discover"
	BrandDiners     Brand = "diners"
	BrandJCB        Brand = "jcb"
	BrandUnionPay   Brand = "unionpay"
)

type binRange struct {
	low   string
	high  string
	brand Brand
}

// The static table covers the major networks. Issuer-specific refinements
// arrive through a [RangeService].
var binRanges = []binRange{
	{"4", "4", BrandVisa},
	{"51", "55", BrandMastercard},
	{"2221", "2720", BrandMastercard},
	{"34", "34", BrandAmex},
	{"37", "37", BrandAmex},
	{"6011", "6011", BrandDiscover},
	{"644", "649", BrandDiscover},
	{"65", "65", BrandDiscover},
	{"300", "305", BrandDiners},
	{"36", "36", BrandDiners},
	{"38", "39", BrandDiners},
	{"3528", "3589", BrandJCB},
	{"62", "62", BrandUnionPay},
}

// allows reports whether digits could still grow into a number inside the
// range. Comparison happens on the overlapping prefix, so partial input is
// matched optimistically.
func (r binRange) allows(digits string) bool {
	n := len(r.low)
	if len(digits) < n {
		n = len(digits)
	}
	head := digits[:n]
	return head >= r.low[:n] && head <= r.high[:n]
}

// PossibleBrands returns every brand the digits entered so far could still
// belong to. An empty result means no valid card number starts this way.
func PossibleBrands(digits string) []Brand {
	seen := make(map[Brand]bool)
	var brands []Brand
	for _, r := range binRanges {
		if !r.allows(digits) {
			continue
		}
		if seen[r.brand] {
			continue
		}
		seen[r.brand] = true
		brands = append(brands, r.brand)
	}
	return brands
}

// FromNumber derives the brand for the digits entered so far. The result is
// [BrandUnknown] until enough digits are present to disambiguate.
func FromNumber(digits string) Brand {
	if digits == "" {
		return BrandUnknown
	}
	brands := PossibleBrands(digits)
	if len(brands) != 1 {
		return BrandUnknown
	}
	return brands[0]
}

// MaxPANLength is the longest account number any network issues. Issuer
// range metadata can extend a brand past its default length up to this cap.
const MaxPANLength = 19

// MaxLength returns the default number length for the brand. Issuer range
// metadata takes precedence when it carries a length.
func MaxLength(b Brand) int {
	if b == BrandAmex {
		return 15
	}
	return 16
}

// CVCLength returns the expected security-code length for the brand.
func CVCLength(b Brand) int {
	if b == BrandAmex {
		return 4
	}
	return 3
}

// Groups returns the digit grouping used when displaying a number of the
// given brand.
func Groups(b Brand) []int {
	if b == BrandAmex {
		return []int{4, 6, 5}
	}
	return []int{4, 4, 4, 4}
}

// ValidLuhn reports whether digits pass the Luhn checksum.
func ValidLuhn(digits string) bool {
	if digits == "" {
		return false
	}
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		c := digits[i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}
