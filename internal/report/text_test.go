package report

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"formextract/internal/validation"
)

func sampleResult() *validation.ValidationResult {
	score := 0.2
	return &validation.ValidationResult{
		PassID:  "pass-1",
		Summary: []string{"COMPLETENESS: 0.50"},
		Findings: []validation.Finding{
			{Field: "idNumber", Kind: validation.KindInvalidFormat, Severity: validation.SeverityError, Message: "Invalid format"},
			{Field: "lastName", Kind: validation.KindNearMatch, Severity: validation.SeverityInfo, Message: "close match"},
			{Field: "address", Kind: validation.KindSuspectedInvention, Severity: validation.SeverityWarning, Message: "mostly missing", Score: &score},
		},
	}
}

func TestValidation(t *testing.T) {
	out := NewFormatter(Options{NoColor: true}).Validation(sampleResult())

	assert.Contains(t, out, "=== Validation pass-1")
	assert.Contains(t, out, "COMPLETENESS: 0.50\n")
	assert.Contains(t, out, "  ERROR   idNumber: Invalid format\n")
	assert.Contains(t, out, "  WARNING address: mostly missing\n")
	assert.NotContains(t, out, "lastName")
	assert.Contains(t, out, "1 error(s), 1 warning(s)")
}

func TestValidation_Verbose(t *testing.T) {
	out := NewFormatter(Options{NoColor: true, Verbose: true}).Validation(sampleResult())

	assert.Contains(t, out, "  INFO    lastName: close match [near_match]")
	assert.Contains(t, out, "address: mostly missing [suspected_invention] score=0.20")
}

func TestValidation_NoIssues(t *testing.T) {
	out := NewFormatter(Options{NoColor: true}).Validation(&validation.ValidationResult{PassID: "p"})
	assert.Contains(t, out, "No issues found.")
}

func TestSpans(t *testing.T) {
	out := NewFormatter(Options{NoColor: true}).Spans(validation.ExtractionValidation{
		ValidatedSpans: []validation.SpanValidation{
			{Text: "Cohen", ConfidenceValid: true, SpatialScore: 1},
			{Text: "smudge", ConfidenceValid: false, SpatialScore: 0.5},
		},
		GlobalConfidence:  0.7,
		ConfidenceMetrics: validation.ConfidenceMetrics{AverageConfidence: 0.65, SpatialConfidence: 0.75},
	})

	assert.Contains(t, out, "  1 ok   spatial=1.00  Cohen\n")
	assert.Contains(t, out, "  2 low  spatial=0.50  smudge\n")
	assert.Contains(t, out, "Global confidence:  0.70")
}

func TestCheck(t *testing.T) {
	f := NewFormatter(Options{NoColor: true})

	assert.Equal(t, "idNumber=123: invalid", f.Check("idNumber=123", false, ""))
	assert.Equal(t, "date: invalid (day 31 is out of range)", f.Check("date", false, "day 31 is out of range"))
	assert.Equal(t, "date: valid", f.Check("date", true, ""))
}
