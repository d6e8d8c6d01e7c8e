// Package identifier normalizes Brazilian federal registration numbers (CPF and CNPJ)
// into the canonical punctuated form the host application searches by.
package identifier

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalid is returned when a raw value does not normalize to a CPF or CNPJ
var ErrInvalid = errors.New("invalid federal registration number")

const (
	cpfLength  = 11
	cnpjLength = 14
)

// Normalize strips everything but digits and formats the result as
// 000.000.000-00 (CPF) or 00.000.000/0000-00 (CNPJ).
func Normalize(raw string) (string, error) {
	digits := Digits(raw)
	switch len(digits) {
	case cpfLength:
		return fmt.Sprintf("%s.%s.%s-%s", digits[0:3], digits[3:6], digits[6:9], digits[9:11]), nil
	case cnpjLength:
		return fmt.Sprintf("%s.%s.%s/%s-%s", digits[0:2], digits[2:5], digits[5:8], digits[8:12], digits[12:14]), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalid, raw)
	}
}

// Digits returns only the decimal digits of s
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
