// Package validate classifies and sanitizes untrusted input strings before
// they reach the secure access gateway. Validation never panics or returns an
// error out of band; failure is carried in the Result and callers must check
// Valid before using the sanitized value.
package validate

import (
	"html"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

// Kind selects the validation rules applied to a value.
type Kind string

const (
	KindEmail  Kind = "email"
	KindPhone  Kind = "phone"
	KindName   Kind = "name"
	KindAmount Kind = "amount"
	KindText   Kind = "text"
	KindMarkup Kind = "markup"
)

// IsValid reports whether k is a known kind.
func (k Kind) IsValid() bool {
	switch k {
	case KindEmail, KindPhone, KindName, KindAmount, KindText, KindMarkup:
		return true
	}
	return false
}

// Result is the outcome of validating one value. Sanitized is always safe to
// display; it is only safe to store or act on when Valid is true.
type Result struct {
	Sanitized string
	Valid     bool
	Err       string
}

var (
	// stripPolicy removes all markup. Used for every kind except KindMarkup.
	stripPolicy = bluemonday.StrictPolicy()

	// markupPolicy allows a small fixed set of inert formatting elements and
	// nothing else: no attributes, no links, no media.
	markupPolicy = newMarkupPolicy()

	emailPattern  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	amountPattern = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)
)

func newMarkupPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("b", "i", "em", "strong", "u", "p", "br")
	return p
}

// Value trims, strips markup, and validates raw according to kind.
// Deterministic and idempotent: validating a sanitized value again yields the
// same sanitized value and validity.
func Value(raw string, kind Kind) Result {
	if !kind.IsValid() {
		return Result{Valid: false, Err: "unknown input kind"}
	}

	if kind == KindMarkup {
		return Result{Sanitized: strings.TrimSpace(markupPolicy.Sanitize(raw)), Valid: true}
	}

	// Strip all markup, then unescape the entity encoding the sanitizer
	// applies so plain-text kinds keep characters like apostrophes.
	s := strings.TrimSpace(html.UnescapeString(stripPolicy.Sanitize(raw)))

	switch kind {
	case KindEmail:
		return validateEmail(s)
	case KindPhone:
		return validatePhone(s)
	case KindName:
		return validateName(s)
	case KindAmount:
		return validateAmount(s)
	default: // KindText
		return Result{Sanitized: s, Valid: true}
	}
}

func validateEmail(s string) Result {
	s = strings.ToLower(s)
	if !emailPattern.MatchString(s) {
		return Result{Sanitized: s, Valid: false, Err: "invalid email address"}
	}
	return Result{Sanitized: s, Valid: true}
}

func validatePhone(s string) Result {
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	digits := 0
	for _, r := range compact {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '+' || r == '(' || r == ')' || r == '-':
		default:
			return Result{Sanitized: s, Valid: false, Err: "phone number contains invalid characters"}
		}
	}
	if digits < 10 {
		return Result{Sanitized: s, Valid: false, Err: "phone number must contain at least 10 digits"}
	}
	return Result{Sanitized: s, Valid: true}
}

func validateName(s string) Result {
	if s == "" {
		return Result{Sanitized: s, Valid: false, Err: "name is required"}
	}
	for _, r := range s {
		if unicode.IsLetter(r) || r == ' ' || r == '-' || r == '\'' {
			continue
		}
		return Result{Sanitized: s, Valid: false, Err: "name contains invalid characters"}
	}
	return Result{Sanitized: s, Valid: true}
}

func validateAmount(s string) Result {
	if !amountPattern.MatchString(s) {
		return Result{Sanitized: s, Valid: false, Err: "amount must be a positive number with at most two decimal places"}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return Result{Sanitized: s, Valid: false, Err: "amount must be greater than zero"}
	}
	return Result{Sanitized: s, Valid: true}
}
