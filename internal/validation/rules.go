package validation

import (
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Range is an inclusive [min, max] interval of normalized page coordinates.
type Range [2]float64

// Contains reports whether v lies within the range, bounds included.
func (r Range) Contains(v float64) bool {
	return r[0] <= v && v <= r[1]
}

// Zone is the region of the page where a field is expected to be printed.
type Zone struct {
	XRange Range `yaml:"x_range" json:"x_range"`
	YRange Range `yaml:"y_range" json:"y_range"`
}

// Rules is the static configuration of a Validator.
type Rules struct {
	// FieldPatterns maps a leaf field name to the regular expression its value must fully match.
	FieldPatterns map[string]string `yaml:"field_patterns"`

	// ExpectedZones maps a leaf field name to where it should appear on the page.
	ExpectedZones map[string]Zone `yaml:"expected_zones"`

	// RequiredFields lists leaf field names that must be filled.
	RequiredFields []string `yaml:"required_fields"`

	// MinConfidence is the lowest acceptable OCR span confidence.
	MinConfidence float64 `yaml:"min_confidence"`

	// OverlapThreshold is the mean IoU at which spatial coherence drops to zero.
	OverlapThreshold float64 `yaml:"spatial_overlap_threshold"`
}

// Default thresholds.
const (
	DefaultMinConfidence    = 0.5
	DefaultOverlapThreshold = 0.3
)

// DefaultRules returns the rules for the national-insurance claim form.
func DefaultRules() Rules {
	return Rules{
		FieldPatterns: map[string]string{
			"idNumber":      `^\d{9}$`,
			"mobilePhone":   `^\d{10}$`,
			"landlinePhone": `^\d{9}$`,
			"postalCode":    `^\d{5,7}$`,
		},
		ExpectedZones: map[string]Zone{
			"lastName":  {XRange: Range{0.6, 0.8}, YRange: Range{0.2, 0.3}},
			"firstName": {XRange: Range{0.4, 0.6}, YRange: Range{0.2, 0.3}},
			"idNumber":  {XRange: Range{0.2, 0.4}, YRange: Range{0.2, 0.3}},
		},
		RequiredFields:   []string{"lastName", "firstName", "idNumber"},
		MinConfidence:    DefaultMinConfidence,
		OverlapThreshold: DefaultOverlapThreshold,
	}
}

// rulesFile is the on-disk form of Rules. Every section is optional and
// pointers distinguish "absent" from "zero".
type rulesFile struct {
	FieldPatterns    map[string]string `yaml:"field_patterns"`
	ExpectedZones    map[string]Zone   `yaml:"expected_zones"`
	RequiredFields   []string          `yaml:"required_fields"`
	MinConfidence    *float64          `yaml:"min_confidence"`
	OverlapThreshold *float64          `yaml:"spatial_overlap_threshold"`
}

// LoadRules reads a YAML rules file and merges it over DefaultRules. Patterns
// and zones are merged by field name; an empty pattern removes the default one.
// required_fields, when present, replaces the default list. An empty path
// returns the defaults.
func LoadRules(path string) (Rules, error) {
	const op = "LoadRules"

	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, newRulesError(op, path, ErrRulesFile, err)
	}

	var file rulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Rules{}, newRulesError(op, path, ErrRulesFile, err)
	}

	for field, pattern := range file.FieldPatterns {
		if pattern == "" {
			delete(rules.FieldPatterns, field)
			continue
		}
		rules.FieldPatterns[field] = pattern
	}
	for field, zone := range file.ExpectedZones {
		rules.ExpectedZones[field] = zone
	}
	if file.RequiredFields != nil {
		rules.RequiredFields = slices.Clone(file.RequiredFields)
	}
	if file.MinConfidence != nil {
		rules.MinConfidence = *file.MinConfidence
	}
	if file.OverlapThreshold != nil {
		rules.OverlapThreshold = *file.OverlapThreshold
	}

	return rules, nil
}
