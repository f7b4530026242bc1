package luhn

import "strings"

const (
	minDigits = 13
	maxDigits = 19
)

// Digits strips every non-digit rune, so "4242 4242-4242" becomes "424242424242".
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Valid checks the card length and the mod-10 checksum of the digits in s.
func Valid(s string) bool {
	digits := Digits(s)
	if len(digits) < minDigits || len(digits) > maxDigits {
		return false
	}

	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
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
