package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskValueSSN(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"dashed ssn", "SSN: 123-45-6789", "SSN: ***-**-****"},
		{"bare ssn", "id 123456789 on file", "id ********* on file"},
		{"two ssns", "123-45-6789 and 987-65-4321", "***-**-**** and ***-**-****"},
		{"phone number untouched", "call 555-123-4567", "call 555-123-4567"},
		{"short number untouched", "12345678", "12345678"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MaskValue(tt.in))
		})
	}
}

func TestMaskValueCreditCard(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"dashed card", "4111-1111-1111-1111", "****-****-****-****"},
		{"spaced card", "4111 1111 1111 1111", "**** **** **** ****"},
		{"bare 16 digits", "4111111111111111", "****************"},
		{"amex 15 digits", "378282246310005", "***************"},
		{"12 digits untouched", "411111111111", "411111111111"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MaskValue(tt.in))
		})
	}
}

func TestMaskValueIdempotent(t *testing.T) {
	inputs := []string{
		"SSN: 123-45-6789",
		"card 4111-1111-1111-1111 exp 12/28",
		"id 123456789",
		"nothing sensitive here",
	}
	for _, in := range inputs {
		once := MaskValue(in)
		assert.Equal(t, once, MaskValue(once), "input: %q", in)
	}
}

func TestMaskField(t *testing.T) {
	tests := []struct {
		name  string
		field string
		value string
		want  string
	}{
		{"ssn field name", "Social_Security__c", "123-45-6789", "***-**-****"},
		{"credit card field name", "Credit_Card_Number__c", "4111111111111111", "****************"},
		{"plain field still gets value pass", "Description", "ssn is 123-45-6789", "ssn is ***-**-****"},
		{"plain field plain value", "Name", "Acme Corp", "Acme Corp"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MaskField(tt.field, tt.value))
		})
	}
}
