package validation

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// FieldType is the semantic type of a form field, inferred from its name.
type FieldType int

const (
	FieldUnknown FieldType = iota
	FieldNumeric
	FieldPhone
	FieldDate
	FieldText
	FieldAddress
)

// String returns the lowercase name used in logs and reports.
func (t FieldType) String() string {
	switch t {
	case FieldNumeric:
		return "numeric"
	case FieldPhone:
		return "phone"
	case FieldDate:
		return "date"
	case FieldText:
		return "text"
	case FieldAddress:
		return "address"
	default:
		return "unknown"
	}
}

// MarshalText encodes the type by name.
func (t FieldType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Expected format descriptions. MatchesExpectedFormat keys off the phrases
// "sequence of digits", "digits only" and "not only digits".
const (
	FormatSequenceOfDigits = "sequence of digits"
	FormatPhoneDigitsOnly  = "phone number (digits only)"
	FormatDate             = "date (day/month/year)"
	FormatTextNotDigits    = "text (not only digits)"
	FormatAddress          = "address (street, number, city, etc.)"
)

// ExpectedFormat describes what a value of this type should look like. It is
// empty for FieldUnknown.
func (t FieldType) ExpectedFormat() string {
	switch t {
	case FieldNumeric:
		return FormatSequenceOfDigits
	case FieldPhone:
		return FormatPhoneDigitsOnly
	case FieldDate:
		return FormatDate
	case FieldText:
		return FormatTextNotDigits
	case FieldAddress:
		return FormatAddress
	default:
		return ""
	}
}

// FieldTypeRule maps name keywords to a field type.
type FieldTypeRule struct {
	Type     FieldType
	Keywords []string
}

// FieldTypeRules is evaluated in order and the first rule with a keyword
// contained in the lowercased field name wins. "mobileNumber" is therefore
// numeric, not phone.
var FieldTypeRules = []FieldTypeRule{
	{Type: FieldNumeric, Keywords: []string{"id", "number", "num", "code"}},
	{Type: FieldPhone, Keywords: []string{"phone", "tel", "mobile", "landline"}},
	{Type: FieldDate, Keywords: []string{"date", "day", "month", "year"}},
	{Type: FieldText, Keywords: []string{"name", "first", "last", "family"}},
	{Type: FieldAddress, Keywords: []string{"address", "street", "city"}},
}

// InferFieldType returns the type of the first rule in FieldTypeRules whose
// keyword occurs in name, ignoring case.
func InferFieldType(name string) FieldType {
	lower := strings.ToLower(name)
	for _, rule := range FieldTypeRules {
		for _, keyword := range rule.Keywords {
			if strings.Contains(lower, keyword) {
				return rule.Type
			}
		}
	}
	return FieldUnknown
}

// MatchesExpectedFormat is a permissive check of value against an expected
// format description: "digits only" formats need more than 70% digits,
// "sequence of digits" more than 90%, "not only digits" less than 50%.
// Any other format passes.
func MatchesExpectedFormat(value, expectedFormat string) bool {
	ratio := digitRatio(value)
	switch {
	case strings.Contains(expectedFormat, "not only digits"):
		return ratio < 0.5
	case strings.Contains(expectedFormat, "digits only"):
		return ratio > 0.7
	case strings.Contains(expectedFormat, "sequence of digits"):
		return ratio > 0.9
	default:
		return true
	}
}

func digitRatio(value string) float64 {
	total := utf8.RuneCountInString(value)
	if total == 0 {
		return 0
	}
	digits := 0
	for _, r := range value {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	return float64(digits) / float64(total)
}

func isAllDigits(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// typeSubstitution reports a value whose characters contradict its inferred
// type: non-digits in a numeric or phone field, or digits only in a text field.
func typeSubstitution(fieldType FieldType, value string) bool {
	switch fieldType {
	case FieldNumeric, FieldPhone:
		stripped := strings.NewReplacer("-", "", " ", "").Replace(value)
		return !isAllDigits(stripped)
	case FieldText:
		return isAllDigits(value)
	default:
		return false
	}
}
