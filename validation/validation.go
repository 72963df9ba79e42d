package validation

import (
	"net/mail"
	"regexp"
	"strings"
)

type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

var sixDigits = regexp.MustCompile(`^\d{6}$`)

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

func Email(field, value string, v Violations) {
	if _, err := mail.ParseAddress(value); err != nil {
		v[field] = "invalid_email"
	}
}

func OneOf(field, value string, allowed []string, v Violations) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	v[field] = "invalid_value"
}

func PositiveFloat(field string, val float64, v Violations) {
	if val <= 0 {
		v[field] = "must_be_positive"
	}
}

func RangeFloat(field string, val, minVal, maxVal float64, v Violations) {
	if val < minVal || val > maxVal {
		v[field] = "out_of_range"
	}
}

func MinLength(field, value string, n int, v Violations) {
	if len(value) < n {
		v[field] = "too_short"
	}
}

// SixDigitCode validates the verification/reset code format.
func SixDigitCode(field, value string, v Violations) {
	if !sixDigits.MatchString(value) {
		v[field] = "must_be_six_digits"
	}
}
