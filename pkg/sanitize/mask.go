// Package sanitize masks personally identifiable values in Salesforce records
// and drops fields the connected user cannot access. Masking is idempotent:
// a masked value contains no digits for the matched span, so re-masking never
// changes it again.
package sanitize

import (
	"regexp"
	"strings"
)

// Field-name triggers for targeted masking.
var (
	ssnFieldRe        = regexp.MustCompile(`(?i)ssn|social`)
	creditCardFieldRe = regexp.MustCompile(`(?i)credit.*card`)
)

// Value patterns masked regardless of field name.
var (
	ssnDashedRe = regexp.MustCompile(`\d{3}-\d{2}-\d{4}`)
	ssnBareRe   = regexp.MustCompile(`\b\d{9}\b`)
	// 13 to 19 digits with optional single space or dash separators
	creditCardRe = regexp.MustCompile(`\b\d(?:[ -]?\d){12,18}\b`)
)

const (
	ssnDashedMask = "***-**-****"
	ssnBareMask   = "*********"
)

// maskDigits replaces every digit in s with an asterisk, preserving
// separators so the masked value keeps its original shape.
func maskDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteByte('*')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func maskSSN(value string) string {
	value = ssnDashedRe.ReplaceAllString(value, ssnDashedMask)
	return ssnBareRe.ReplaceAllString(value, ssnBareMask)
}

func maskCreditCard(value string) string {
	return creditCardRe.ReplaceAllStringFunc(value, maskDigits)
}

// MaskValue masks PII value patterns in a string regardless of which field
// it came from. Credit card runs are masked before the bare SSN pattern so a
// long digit run is consumed once.
func MaskValue(value string) string {
	value = maskCreditCard(value)
	return maskSSN(value)
}

// MaskField masks a named field's value: field-name-triggered masking first,
// then the unconditional value-pattern pass that catches sensitive values in
// unexpectedly named fields.
func MaskField(field, value string) string {
	if ssnFieldRe.MatchString(field) {
		value = maskSSN(value)
	}
	if creditCardFieldRe.MatchString(field) {
		value = maskCreditCard(value)
	}
	return MaskValue(value)
}
