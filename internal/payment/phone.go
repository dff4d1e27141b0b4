package payment

import (
	"errors"
	"regexp"
	"strings"
)

// ErrInvalidPhone is returned when a phone number cannot be normalized
// to the +254 format.
var ErrInvalidPhone = errors.New("invalid Kenyan phone number")

var normalizedPhone = regexp.MustCompile(`^\+254[17]\d{8}$`)

// NormalizePhone converts a Kenyan phone number to canonical +254 form.
// Accepted inputs are local 07.../01... numbers, bare 254... numbers and
// already-canonical +254... numbers; spaces and hyphens are ignored.
func NormalizePhone(phone string) (string, error) {
	cleaned := strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(phone))

	var normalized string
	switch {
	case strings.HasPrefix(cleaned, "+254"):
		normalized = cleaned
	case strings.HasPrefix(cleaned, "254"):
		normalized = "+" + cleaned
	case strings.HasPrefix(cleaned, "07"), strings.HasPrefix(cleaned, "01"):
		normalized = "+254" + cleaned[1:]
	default:
		return "", ErrInvalidPhone
	}

	if !normalizedPhone.MatchString(normalized) {
		return "", ErrInvalidPhone
	}
	return normalized, nil
}
