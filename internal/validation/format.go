package validation

import (
	"regexp"
)

// compilePatterns anchors every pattern so a match always covers the whole
// value, whether or not the configured expression carries ^ and $ itself.
func compilePatterns(patterns map[string]string) (map[string]*regexp.Regexp, error) {
	const op = "New"

	compiled := make(map[string]*regexp.Regexp, len(patterns))
	for field, pattern := range patterns {
		re, err := regexp.Compile(`^(?:` + pattern + `)$`)
		if err != nil {
			return nil, newRulesError(op, field, ErrInvalidPattern, err)
		}
		compiled[field] = re
	}
	return compiled, nil
}

// ValidateFormat reports whether value is acceptable for field. Empty values
// and fields without a registered pattern are always valid; otherwise the
// whole value must match the field's pattern.
func (v *Validator) ValidateFormat(field, value string) bool {
	if value == "" {
		return true
	}

	re, ok := v.patterns[field]
	if !ok {
		v.log.Debug().Str("field", field).Msg("No pattern registered, format accepted")
		return true
	}

	valid := re.MatchString(value)
	v.log.Debug().
		Str("field", field).
		Str("value", value).
		Str("pattern", v.rules.FieldPatterns[field]).
		Bool("valid", valid).
		Msg("Format check")
	return valid
}
