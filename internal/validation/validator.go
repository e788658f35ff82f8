// Package validation cross-checks LLM-extracted claim-form fields against the
// OCR output they were extracted from. It scores completeness and format
// accuracy, flags values that have no support in the OCR text, checks dates
// and checks where fields sit on the page. Validation never fails: malformed
// input degrades to a conservative default and an advisory finding.
package validation

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"formextract/internal/logger"
	"formextract/pkg/models"
)

// Validator validates OCR output and structured extractions. It is immutable
// after construction and safe for concurrent use; every call keeps its own
// state.
type Validator struct {
	rules    Rules
	patterns map[string]*regexp.Regexp
	now      func() time.Time
	log      zerolog.Logger
}

// Option configures a Validator.
type Option func(*Validator)

// WithClock sets the clock used for future-date and year checks.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) {
		v.now = now
	}
}

// WithLogger replaces the component logger.
func WithLogger(log zerolog.Logger) Option {
	return func(v *Validator) {
		v.log = log
	}
}

// New checks and compiles rules.
func New(rules Rules, opts ...Option) (*Validator, error) {
	const op = "New"

	if rules.MinConfidence < 0 || rules.MinConfidence > 1 {
		return nil, newRulesError(op, "min_confidence", ErrInvalidThreshold,
			fmt.Errorf("%v is outside [0, 1]", rules.MinConfidence))
	}
	if rules.OverlapThreshold <= 0 {
		return nil, newRulesError(op, "spatial_overlap_threshold", ErrInvalidThreshold,
			fmt.Errorf("%v must be positive", rules.OverlapThreshold))
	}
	for field, zone := range rules.ExpectedZones {
		for _, r := range []Range{zone.XRange, zone.YRange} {
			if r[0] > r[1] || r[0] < 0 || r[1] > 1 {
				return nil, newRulesError(op, field, ErrInvalidZone,
					fmt.Errorf("range %v is not an ordered sub-range of [0, 1]", r))
			}
		}
	}

	patterns, err := compilePatterns(rules.FieldPatterns)
	if err != nil {
		return nil, err
	}

	v := &Validator{
		rules:    rules,
		patterns: patterns,
		now:      time.Now,
		log:      logger.WithComponent("extraction-validator"),
	}
	for _, opt := range opts {
		opt(v)
	}

	v.log.Debug().
		Int("patterns", len(rules.FieldPatterns)).
		Int("zones", len(rules.ExpectedZones)).
		Strs("required_fields", rules.RequiredFields).
		Msg("Extraction validator initialized")

	return v, nil
}

// NewDefault returns a Validator with DefaultRules.
func NewDefault(opts ...Option) *Validator {
	return MustNew(DefaultRules(), opts...)
}

// MustNew is like New but panics on invalid rules.
func MustNew(rules Rules, opts ...Option) *Validator {
	v, err := New(rules, opts...)
	if err != nil {
		panic(err)
	}
	return v
}

// Rules returns the rules the validator was built with.
func (v *Validator) Rules() Rules {
	return v.rules
}

// pass holds the state of a single ValidateExtractedData call.
type pass struct {
	id       string
	now      time.Time
	log      zerolog.Logger
	dates    dateLedger
	findings []Finding
}

func (v *Validator) newPass() *pass {
	id := uuid.NewString()
	return &pass{
		id:       id,
		now:      v.now(),
		log:      logger.WithPass(v.log, id),
		dates:    make(dateLedger),
		findings: []Finding{},
	}
}

// add records a finding and logs it at the level matching its severity.
func (p *pass) add(f Finding) {
	p.findings = append(p.findings, f)

	var event *zerolog.Event
	switch f.Severity {
	case SeverityError:
		event = p.log.Error()
	case SeverityWarning:
		event = p.log.Warn()
	default:
		event = p.log.Info()
	}
	event = event.Str("field", f.Field).Str("kind", string(f.Kind))
	if f.Value != "" {
		event = event.Str("value", f.Value)
	}
	if f.Score != nil {
		event = event.Float64("score", *f.Score)
	}
	event.Msg(f.Message)
}

// guard runs one per-field check. A panic inside it becomes a warning finding
// and the remaining checks go on.
func (p *pass) guard(field, check string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			p.add(Finding{
				Field:    field,
				Kind:     KindCheckFailed,
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("%s check failed: %v", check, r),
			})
		}
	}()
	fn()
}

// ValidateExtraction checks raw OCR lines: each line's confidence against the
// minimum and its spatial coherence against every other line and table cell.
// The global confidence is the mean of the average line confidence and the
// average coherence.
func (v *Validator) ValidateExtraction(ocr *models.OCRResult) ExtractionValidation {
	result := ExtractionValidation{ValidatedSpans: []SpanValidation{}}
	if ocr == nil || len(ocr.Text) == 0 {
		v.log.Info().Msg("No OCR lines to validate")
		return result
	}

	v.log.Info().Int("spans", len(ocr.Text)).Msg("Validating extracted text spans")

	elements := elementBoxes(ocr)
	var confidenceSum, spatialSum float64
	for i, span := range ocr.Text {
		valid := span.Confidence >= v.rules.MinConfidence
		score := v.spanCoherence(i, span, elements)

		if !valid {
			v.log.Debug().
				Int("span", i).
				Str("text", truncate(span.Text, 30)).
				Float64("confidence", span.Confidence).
				Float64("threshold", v.rules.MinConfidence).
				Msg("Span confidence below threshold")
		}

		confidenceSum += span.Confidence
		spatialSum += score
		result.ValidatedSpans = append(result.ValidatedSpans, SpanValidation{
			Text:            span.Text,
			ConfidenceValid: valid,
			SpatialScore:    score,
		})
	}

	n := float64(len(ocr.Text))
	result.ConfidenceMetrics = ConfidenceMetrics{
		AverageConfidence: confidenceSum / n,
		SpatialConfidence: spatialSum / n,
	}
	result.GlobalConfidence = (result.ConfidenceMetrics.AverageConfidence + result.ConfidenceMetrics.SpatialConfidence) / 2

	v.log.Info().
		Float64("average_confidence", result.ConfidenceMetrics.AverageConfidence).
		Float64("spatial_confidence", result.ConfidenceMetrics.SpatialConfidence).
		Float64("global_confidence", result.GlobalConfidence).
		Msg("OCR validation completed")

	return result
}

// spanCoherence scores one span and returns 0 if scoring panics.
func (v *Validator) spanCoherence(index int, span models.TextSpan, elements []*models.BoundingBox) (score float64) {
	defer func() {
		if r := recover(); r != nil {
			v.log.Warn().Int("span", index).Interface("panic", r).Msg("Spatial coherence check failed")
			score = 0
		}
	}()
	return v.spatialCoherence(span.BoundingBox, elements)
}

// ValidateExtractedData validates a structured extraction against the OCR
// result it came from. structured may be nil; ocr may be nil, in which case
// every OCR-dependent check treats the document as having no text.
func (v *Validator) ValidateExtractedData(structured map[string]any, ocr *models.OCRResult) *ValidationResult {
	p := v.newPass()
	if ocr == nil {
		ocr = &models.OCRResult{}
	}

	result := &ValidationResult{
		PassID: p.id,
		Completeness: Completeness{
			MissingRequired: []string{},
		},
		Accuracy: Accuracy{
			InvalidFields: []InvalidField{},
		},
		Confidence: Confidence{
			Score:       ocr.AverageConfidence,
			Explanation: "Average OCR confidence score",
		},
		SpatialScores: map[string]float64{},
	}

	p.log.Info().Msg("Validation of extracted data started")

	fields := Flatten(structured)
	corpus := NewCorpus(ocr)
	p.log.Debug().Int("fields", len(fields)).Bool("ocr_text", !corpus.Empty()).Msg("Flattened extraction")

	// Completeness
	result.Completeness.TotalFields = len(fields)
	for _, f := range fields {
		if f.Filled() {
			result.Completeness.FilledFields++
		}
	}
	result.Completeness.Score = ratio(result.Completeness.FilledFields, result.Completeness.TotalFields)

	v.checkRequired(p, fields, result)

	// Accuracy and per-field grounding
	for _, f := range fields {
		if f.Path.containsSegment("confidence") {
			p.log.Debug().Str("field", f.Path.String()).Msg("Confidence metadata skipped")
			continue
		}
		if !f.Filled() {
			continue
		}

		path := f.Path.String()
		leaf := f.Path.Leaf()
		result.Accuracy.TotalFields++

		p.guard(path, "OCR consistency", func() {
			p.reportConsistency(path, CheckOCRConsistency(leaf, f.Value, corpus))
		})

		valid := true
		p.guard(path, "format", func() {
			valid = v.ValidateFormat(leaf, f.Value)
		})
		if valid {
			result.Accuracy.ValidFormatFields++
		} else {
			result.Accuracy.InvalidFields = append(result.Accuracy.InvalidFields, InvalidField{
				Field:  path,
				Value:  f.Value,
				Reason: "Invalid format",
			})
			p.add(Finding{
				Field:    path,
				Kind:     KindInvalidFormat,
				Severity: SeverityError,
				Message:  fmt.Sprintf("Format is invalid for %s", path),
				Value:    f.Value,
			})
		}

		if _, hasZone := v.rules.ExpectedZones[leaf]; hasZone {
			p.guard(path, "spatial", func() {
				v.checkPosition(p, path, leaf, f.Value, ocr, result)
			})
		}
	}
	result.Accuracy.Score = ratio(result.Accuracy.ValidFormatFields, result.Accuracy.TotalFields)

	// Composite groups and dates
	groups := composites(structured)
	for _, name := range sortedKeys(groups) {
		path := ParsePath(name)
		if path.containsSegment("confidence") {
			continue
		}
		components := groups[name]

		p.guard(name, "composite consistency", func() {
			p.reportComposite(CheckCompositeConsistency(name, components, corpus))
		})
		if isDateGroup(path, components) {
			parts, _ := DatePartsFrom(components)
			p.guard(name, "date coherence", func() {
				p.checkDateCoherence(name, parts)
			})
		}
	}
	p.guard("", "date order", p.checkDateOrder)

	result.Findings = p.findings
	result.Summary = summarize(result)

	p.log.Info().
		Float64("completeness", result.Completeness.Score).
		Float64("accuracy", result.Accuracy.Score).
		Float64("ocr_confidence", result.Confidence.Score).
		Int("findings", len(result.Findings)).
		Msg("Validation completed")

	return result
}

// checkRequired records every path whose last segments equal a required
// field name and whose value is empty.
func (v *Validator) checkRequired(p *pass, fields []Field, result *ValidationResult) {
	for _, name := range v.rules.RequiredFields {
		required := ParsePath(name)
		found := false
		for _, f := range fields {
			if !f.Path.HasSuffix(required) || f.Path.containsSegment("confidence") {
				continue
			}
			found = true
			if !f.Filled() {
				result.Completeness.MissingRequired = append(result.Completeness.MissingRequired, f.Path.String())
				p.add(Finding{
					Field:    f.Path.String(),
					Kind:     KindMissingRequired,
					Severity: SeverityError,
					Message:  fmt.Sprintf("Required field %s is empty", f.Path),
				})
			}
		}
		if !found {
			p.add(Finding{
				Field:    name,
				Kind:     KindRequiredNotFound,
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("Required field %s not found in structure", name),
			})
		}
	}
}

// checkPosition scores the first OCR line carrying the value against the
// field's expected zone.
func (v *Validator) checkPosition(p *pass, path, leaf, value string, ocr *models.OCRResult, result *ValidationResult) {
	box, page, ok := locate(ocr, value)
	if !ok {
		p.log.Debug().Str("field", path).Msg("Value not located on the page, position not checked")
		return
	}

	score := v.ValidateSpatialPosition(leaf, box, page)
	result.SpatialScores[path] = score
	if score >= 1 {
		return
	}

	severity := SeverityInfo
	message := fmt.Sprintf("%s is only partially inside its expected zone", path)
	if score == 0 {
		severity = SeverityWarning
		message = fmt.Sprintf("%s is outside its expected zone", path)
	}
	p.add(Finding{
		Field:    path,
		Kind:     KindSpatialPosition,
		Severity: severity,
		Message:  message,
		Value:    value,
		Score:    scoreRef(score),
	})
}

func (p *pass) reportConsistency(path string, report ConsistencyReport) {
	if report.Skipped {
		p.log.Debug().Str("field", path).Msg("Value too short for OCR consistency check")
		return
	}

	if report.TypeSubstitution {
		p.add(Finding{
			Field:    path,
			Kind:     KindTypeSubstitution,
			Severity: SeverityError,
			Message:  fmt.Sprintf("%s should be %s but reads %q", path, report.FieldType.ExpectedFormat(), report.Value),
			Value:    report.Value,
		})
	}

	for _, near := range report.NearMatches {
		if near.Match == "" {
			p.log.Debug().Str("field", path).Str("token", near.Token).Msg("Token not found in OCR and has no similar match")
			continue
		}
		p.add(Finding{
			Field:    path,
			Kind:     KindNearMatch,
			Severity: SeverityInfo,
			Message:  fmt.Sprintf("Token %q not found, closest OCR token is %q", near.Token, near.Match),
			Value:    near.Token,
			Score:    scoreRef(near.Score),
		})
	}

	if report.SuspectedInvention {
		p.add(Finding{
			Field:    path,
			Kind:     KindSuspectedInvention,
			Severity: SeverityError,
			Message:  fmt.Sprintf("%s does not appear in the OCR text and may be invented", path),
			Value:    report.Value,
		})
		if report.FormatMismatch {
			p.add(Finding{
				Field:    path,
				Kind:     KindUnexpectedFormat,
				Severity: SeverityError,
				Message:  fmt.Sprintf("%q does not look like %s", report.Value, report.ExpectedFormat),
				Value:    report.Value,
			})
		}
		return
	}

	p.log.Debug().
		Str("field", path).
		Int("found", len(report.TokensFound)).
		Int("missing", len(report.TokensMissing)).
		Msg("Significant tokens found in OCR")
}

func (p *pass) reportComposite(report CompositeReport) {
	if report.Total == 0 {
		return
	}
	if !report.SuspectedInvention {
		p.log.Debug().
			Str("field", report.Field).
			Int("found", report.Found).
			Int("total", report.Total).
			Msg("Composite components found in OCR")
		return
	}
	p.add(Finding{
		Field:    report.Field,
		Kind:     KindSuspectedInvention,
		Severity: SeverityWarning,
		Message: fmt.Sprintf("Only %d/%d components of %s found in OCR (missing: %s)",
			report.Found, report.Total, report.Field, strings.Join(report.Missing, ", ")),
		Score: scoreRef(ratio(report.Found, report.Total)),
	})
}

// summarize renders the report as the lines printed at the end of a pass.
func summarize(result *ValidationResult) []string {
	lines := []string{
		fmt.Sprintf("COMPLETENESS: %.2f%%", result.Completeness.Score*100),
		fmt.Sprintf("  - Total fields: %d", result.Completeness.TotalFields),
		fmt.Sprintf("  - Filled fields: %d", result.Completeness.FilledFields),
	}
	if len(result.Completeness.MissingRequired) > 0 {
		lines = append(lines, "  - Missing required fields: "+strings.Join(result.Completeness.MissingRequired, ", "))
	} else {
		lines = append(lines, "  - All required fields are present")
	}

	lines = append(lines,
		fmt.Sprintf("ACCURACY: %.2f%%", result.Accuracy.Score*100),
		fmt.Sprintf("  - Total non-empty fields: %d", result.Accuracy.TotalFields),
		fmt.Sprintf("  - Valid format fields: %d", result.Accuracy.ValidFormatFields),
	)
	if len(result.Accuracy.InvalidFields) > 0 {
		lines = append(lines, fmt.Sprintf("  - Fields with invalid format: %d", len(result.Accuracy.InvalidFields)))
		for _, f := range result.Accuracy.InvalidFields {
			lines = append(lines, fmt.Sprintf("    * %s: '%s'", f.Field, f.Value))
		}
	} else {
		lines = append(lines, "  - All fields have valid format")
	}

	lines = append(lines, fmt.Sprintf("OCR CONFIDENCE: %.2f%%", result.Confidence.Score*100))
	return lines
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
