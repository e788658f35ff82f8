package validation

// Severity grades a finding.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// FindingKind classifies what a finding is about.
type FindingKind string

const (
	KindMissingRequired    FindingKind = "missing_required"
	KindRequiredNotFound   FindingKind = "required_not_found"
	KindInvalidFormat      FindingKind = "invalid_format"
	KindTypeSubstitution   FindingKind = "type_substitution"
	KindSuspectedInvention FindingKind = "suspected_invention"
	KindNearMatch          FindingKind = "near_match"
	KindUnexpectedFormat   FindingKind = "unexpected_format"
	KindInvalidDate        FindingKind = "invalid_date"
	KindImplausibleDate    FindingKind = "implausible_date"
	KindFutureDate         FindingKind = "future_date"
	KindDateOrder          FindingKind = "date_order"
	KindSpatialPosition    FindingKind = "spatial_position"
	KindCheckFailed        FindingKind = "check_failed"
)

// Finding is an advisory signal raised while validating one field.
type Finding struct {
	Field    string      `json:"field"`
	Kind     FindingKind `json:"kind"`
	Severity Severity    `json:"severity"`
	Message  string      `json:"message"`
	Value    string      `json:"value,omitempty"`
	Score    *float64    `json:"score,omitempty"`
}

// Completeness counts filled leaves.
type Completeness struct {
	FilledFields    int      `json:"filled_fields"`
	TotalFields     int      `json:"total_fields"`
	Score           float64  `json:"score"`
	MissingRequired []string `json:"missing_required"`
}

// InvalidField is a non-empty field whose value failed its pattern.
type InvalidField struct {
	Field  string `json:"field"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

// Accuracy counts format-valid fields among the non-empty ones.
type Accuracy struct {
	ValidFormatFields int            `json:"valid_format_fields"`
	TotalFields       int            `json:"total_fields"`
	Score             float64        `json:"score"`
	InvalidFields     []InvalidField `json:"invalid_fields"`
}

// Confidence carries the OCR average confidence.
type Confidence struct {
	Score       float64 `json:"score"`
	Explanation string  `json:"explanation"`
}

// ValidationResult is the report of one ValidateExtractedData pass.
type ValidationResult struct {
	PassID        string             `json:"pass_id"`
	Completeness  Completeness       `json:"completeness"`
	Accuracy      Accuracy           `json:"accuracy"`
	Confidence    Confidence         `json:"confidence"`
	Findings      []Finding          `json:"findings"`
	SpatialScores map[string]float64 `json:"spatial_scores,omitempty"`
	Summary       []string           `json:"summary"`
}

// FindingsFor returns the findings recorded against field.
func (r *ValidationResult) FindingsFor(field string) []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Field == field {
			out = append(out, f)
		}
	}
	return out
}

// HasFinding reports whether a finding of kind was recorded against field.
func (r *ValidationResult) HasFinding(field string, kind FindingKind) bool {
	for _, f := range r.Findings {
		if f.Field == field && f.Kind == kind {
			return true
		}
	}
	return false
}

// Count returns the number of findings with the given severity.
func (r *ValidationResult) Count(severity Severity) int {
	n := 0
	for _, f := range r.Findings {
		if f.Severity == severity {
			n++
		}
	}
	return n
}

// SpanValidation is the per-span outcome of ValidateExtraction.
type SpanValidation struct {
	Text            string  `json:"text"`
	ConfidenceValid bool    `json:"confidence_valid"`
	SpatialScore    float64 `json:"spatial_score"`
}

// ConfidenceMetrics are the two halves of the global confidence.
type ConfidenceMetrics struct {
	AverageConfidence float64 `json:"average_confidence"`
	SpatialConfidence float64 `json:"spatial_confidence"`
}

// ExtractionValidation is the result of ValidateExtraction.
type ExtractionValidation struct {
	ValidatedSpans    []SpanValidation  `json:"validated_spans"`
	GlobalConfidence  float64           `json:"global_confidence"`
	ConfidenceMetrics ConfidenceMetrics `json:"confidence_metrics"`
}

func ratio(n, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(n) / float64(total)
}

func scoreRef(v float64) *float64 {
	return &v
}
