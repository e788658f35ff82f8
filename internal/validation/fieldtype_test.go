package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInferFieldType(t *testing.T) {
	tests := []struct {
		field string
		want  FieldType
	}{
		{"idNumber", FieldNumeric},
		{"postalCode", FieldNumeric},
		{"houseNumber", FieldNumeric},
		{"mobilePhone", FieldPhone},
		{"landlinePhone", FieldPhone},
		{"dateOfBirth", FieldDate},
		{"year", FieldDate},
		{"lastName", FieldText},
		{"firstName", FieldText},
		{"street", FieldAddress},
		{"city", FieldAddress},
		{"unknownXyz", FieldUnknown},
		{"gender", FieldUnknown},
		{"", FieldUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			assert.Equal(t, tt.want, InferFieldType(tt.field))
		})
	}
}

func TestInferFieldType_FirstRuleWins(t *testing.T) {
	// "number" is a numeric keyword and numeric is tested before phone.
	assert.Equal(t, FieldNumeric, InferFieldType("mobileNumber"))
	// "tel" in a name field: phone beats text.
	assert.Equal(t, FieldPhone, InferFieldType("hotelName"))
	// Case is ignored.
	assert.Equal(t, FieldPhone, InferFieldType("MOBILEPHONE"))
}

func TestFieldType_StringAndFormat(t *testing.T) {
	assert.Equal(t, "phone", FieldPhone.String())
	assert.Equal(t, "unknown", FieldUnknown.String())
	assert.Equal(t, FormatPhoneDigitsOnly, FieldPhone.ExpectedFormat())
	assert.Empty(t, FieldUnknown.ExpectedFormat())

	text, err := FieldDate.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "date", string(text))
}

func TestMatchesExpectedFormat(t *testing.T) {
	tests := []struct {
		name   string
		value  string
		format string
		want   bool
	}{
		{"phone all digits", "0501234567", FormatPhoneDigitsOnly, true},
		{"phone with dashes", "050-123-4567", FormatPhoneDigitsOnly, true},
		{"phone mostly letters", "call me", FormatPhoneDigitsOnly, false},
		{"sequence clean", "123456789", FormatSequenceOfDigits, true},
		{"sequence with one letter in ten", "123456789a", FormatSequenceOfDigits, false},
		{"text letters", "cohen", FormatTextNotDigits, true},
		{"text digits", "12345", FormatTextNotDigits, false},
		{"date anything", "yesterday", FormatDate, true},
		{"no format", "x", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchesExpectedFormat(tt.value, tt.format))
		})
	}
}

func TestTypeSubstitution(t *testing.T) {
	assert.True(t, typeSubstitution(FieldNumeric, "12a45"))
	assert.False(t, typeSubstitution(FieldNumeric, "123 456-789"))
	assert.True(t, typeSubstitution(FieldPhone, "050-abc"))
	assert.True(t, typeSubstitution(FieldText, "12345"))
	assert.False(t, typeSubstitution(FieldText, "cohen"))
	assert.False(t, typeSubstitution(FieldUnknown, "12345"))
}
