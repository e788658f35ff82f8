package validation

import (
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"formextract/pkg/models"
)

// Consistency thresholds.
const (
	// MinSignificantLength is the rune length a token must exceed to be searched.
	MinSignificantLength = 3

	// NearMatchThreshold is the similarity a nearest OCR token must exceed to be reported.
	NearMatchThreshold = 0.6

	// CompositeFoundRatio is the share of components that must be found verbatim.
	CompositeFoundRatio = 0.5
)

// Corpus is the searchable OCR text of one document.
type Corpus struct {
	text   string
	tokens []string
}

// fold is the comparison form of OCR text and extracted values: NFKC
// normalized, so presentation forms and full-width digits match their plain
// counterparts, then trimmed and lowercased.
func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFKC.String(s)))
}

// NewCorpus folds every OCR line and joins them with spaces. Tokens of
// MinSignificantLength runes or fewer are left out of the token list.
func NewCorpus(ocr *models.OCRResult) Corpus {
	if ocr == nil {
		return Corpus{}
	}
	texts := make([]string, 0, len(ocr.Text))
	for _, span := range ocr.Text {
		texts = append(texts, fold(span.Text))
	}
	text := strings.Join(texts, " ")

	var tokens []string
	for _, token := range strings.Fields(text) {
		if utf8.RuneCountInString(token) > MinSignificantLength {
			tokens = append(tokens, token)
		}
	}
	return Corpus{text: text, tokens: tokens}
}

// Contains reports whether s occurs anywhere in the corpus text.
func (c Corpus) Contains(s string) bool {
	return strings.Contains(c.text, s)
}

// Empty reports whether the corpus has no text.
func (c Corpus) Empty() bool {
	return c.text == ""
}

// NearMatch is the closest OCR token for a token that was not found.
type NearMatch struct {
	Token string  `json:"token"`
	Match string  `json:"match,omitempty"`
	Score float64 `json:"score"`
}

// ConsistencyReport describes how well a scalar value is grounded in the OCR text.
type ConsistencyReport struct {
	Field              string      `json:"field"`
	Value              string      `json:"value"`
	Skipped            bool        `json:"skipped"`
	FieldType          FieldType   `json:"field_type"`
	TokensFound        []string    `json:"tokens_found"`
	TokensMissing      []string    `json:"tokens_missing"`
	NearMatches        []NearMatch `json:"near_matches,omitempty"`
	TypeSubstitution   bool        `json:"type_substitution"`
	SuspectedInvention bool        `json:"suspected_invention"`
	ExpectedFormat     string      `json:"expected_format,omitempty"`
	FormatMismatch     bool        `json:"format_mismatch"`
}

// CheckOCRConsistency looks for the significant tokens of value in the OCR
// corpus. Values of MinSignificantLength runes or fewer are skipped. When no
// significant token is found the value is a suspected invention and is also
// checked against the format its field type expects.
func CheckOCRConsistency(field, value string, corpus Corpus) ConsistencyReport {
	normalized := fold(value)
	report := ConsistencyReport{
		Field:         field,
		Value:         normalized,
		FieldType:     InferFieldType(field),
		TokensFound:   []string{},
		TokensMissing: []string{},
	}
	if utf8.RuneCountInString(normalized) <= MinSignificantLength {
		report.Skipped = true
		return report
	}

	report.TypeSubstitution = typeSubstitution(report.FieldType, normalized)

	for _, token := range strings.Fields(normalized) {
		if utf8.RuneCountInString(token) <= MinSignificantLength {
			continue
		}
		if corpus.Contains(token) {
			report.TokensFound = append(report.TokensFound, token)
			continue
		}
		report.TokensMissing = append(report.TokensMissing, token)
		report.NearMatches = append(report.NearMatches, corpus.nearest(token))
	}

	if len(report.TokensFound) == 0 && len(report.TokensMissing) > 0 {
		report.SuspectedInvention = true
		report.ExpectedFormat = report.FieldType.ExpectedFormat()
		if report.ExpectedFormat != "" {
			report.FormatMismatch = !MatchesExpectedFormat(normalized, report.ExpectedFormat)
		}
	}
	return report
}

// nearest returns the OCR token with the highest similarity to token. Match
// is empty when no candidate exceeds NearMatchThreshold.
func (c Corpus) nearest(token string) NearMatch {
	best := NearMatch{Token: token}
	for _, candidate := range c.tokens {
		score := similarity(token, candidate)
		if score > NearMatchThreshold && score > best.Score {
			best.Match = candidate
			best.Score = score
		}
	}
	return best
}

// similarity counts the runes of token that occur anywhere in candidate,
// divided by the longer of the two lengths.
func similarity(token, candidate string) float64 {
	common := 0
	for _, r := range token {
		if strings.ContainsRune(candidate, r) {
			common++
		}
	}
	longest := max(utf8.RuneCountInString(token), utf8.RuneCountInString(candidate))
	if longest == 0 {
		return 0
	}
	return float64(common) / float64(longest)
}

// CompositeReport describes how many components of a grouped field (a date,
// an address) appear verbatim in the OCR text.
type CompositeReport struct {
	Field              string   `json:"field"`
	Found              int      `json:"found"`
	Total              int      `json:"total"`
	Missing            []string `json:"missing"`
	SuspectedInvention bool     `json:"suspected_invention"`
}

// CheckCompositeConsistency tests every non-empty component independently.
// The group is a suspected invention when fewer than CompositeFoundRatio of
// its populated components are found.
func CheckCompositeConsistency(field string, components map[string]string, corpus Corpus) CompositeReport {
	report := CompositeReport{Field: field, Missing: []string{}}

	keys := make([]string, 0, len(components))
	for key := range components {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	for _, key := range keys {
		value := fold(components[key])
		if value == "" {
			continue
		}
		report.Total++
		if corpus.Contains(value) {
			report.Found++
			continue
		}
		report.Missing = append(report.Missing, key)
	}

	if report.Total > 0 && ratio(report.Found, report.Total) < CompositeFoundRatio {
		report.SuspectedInvention = true
	}
	return report
}
