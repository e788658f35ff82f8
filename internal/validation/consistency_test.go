package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formextract/pkg/models"
)

func corpusOf(lines ...string) Corpus {
	ocr := &models.OCRResult{}
	for _, line := range lines {
		ocr.Text = append(ocr.Text, models.TextSpan{Text: line, Confidence: 0.9})
	}
	return NewCorpus(ocr)
}

func TestCheckOCRConsistency_FindsToken(t *testing.T) {
	corpus := corpusOf("Name: John Smith", "ID 123456789")

	report := CheckOCRConsistency("firstName", "John", corpus)

	assert.False(t, report.Skipped)
	assert.Equal(t, []string{"john"}, report.TokensFound)
	assert.Empty(t, report.TokensMissing)
	assert.False(t, report.SuspectedInvention)
	assert.False(t, report.TypeSubstitution)
}

func TestCheckOCRConsistency_FlagsInvention(t *testing.T) {
	corpus := corpusOf("john smith")

	report := CheckOCRConsistency("firstName", "Zyxqpr", corpus)

	assert.True(t, report.SuspectedInvention)
	assert.Equal(t, []string{"zyxqpr"}, report.TokensMissing)
	assert.Equal(t, FormatTextNotDigits, report.ExpectedFormat)
	assert.False(t, report.FormatMismatch)
	require.Len(t, report.NearMatches, 1)
	assert.Empty(t, report.NearMatches[0].Match)
}

func TestCheckOCRConsistency_InventedNumberWithWrongFormat(t *testing.T) {
	corpus := corpusOf("john smith")

	report := CheckOCRConsistency("mobilePhone", "call later", corpus)

	assert.True(t, report.TypeSubstitution)
	assert.True(t, report.SuspectedInvention)
	assert.Equal(t, FormatPhoneDigitsOnly, report.ExpectedFormat)
	assert.True(t, report.FormatMismatch)
}

func TestCheckOCRConsistency_ShortValuesSkipped(t *testing.T) {
	report := CheckOCRConsistency("gender", "M", corpusOf("x"))
	assert.True(t, report.Skipped)
	assert.False(t, report.SuspectedInvention)

	report = CheckOCRConsistency("houseNumber", " 12a ", corpusOf("x"))
	assert.True(t, report.Skipped)
	assert.False(t, report.TypeSubstitution)
}

func TestCheckOCRConsistency_ShortTokensIgnored(t *testing.T) {
	// Only "herzl" is significant and it is present.
	report := CheckOCRConsistency("street", "12 Herzl st", corpusOf("herzl street 12"))
	assert.Equal(t, []string{"herzl"}, report.TokensFound)
	assert.False(t, report.SuspectedInvention)

	// No significant token at all: nothing is found and nothing is missing.
	report = CheckOCRConsistency("street", "a b c d e", corpusOf("zzz"))
	assert.Empty(t, report.TokensFound)
	assert.Empty(t, report.TokensMissing)
	assert.False(t, report.SuspectedInvention)
}

func TestCheckOCRConsistency_NearMatch(t *testing.T) {
	corpus := corpusOf("family name cohenn")

	report := CheckOCRConsistency("lastName", "Cohem", corpus)

	require.Len(t, report.NearMatches, 1)
	assert.Equal(t, "cohem", report.NearMatches[0].Token)
	assert.Equal(t, "cohenn", report.NearMatches[0].Match)
	// c, o, h, e are in "cohenn"; m is not: 4 / 6.
	assert.InDelta(t, 4.0/6.0, report.NearMatches[0].Score, 1e-9)
	assert.True(t, report.SuspectedInvention)
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, similarity("abcd", "dcba"))
	assert.Equal(t, 0.0, similarity("abcd", "wxyz"))
	assert.InDelta(t, 0.5, similarity("abcd", "abxy"), 1e-9)
	assert.Equal(t, 0.0, similarity("", ""))
}

func TestCheckCompositeConsistency(t *testing.T) {
	corpus := corpusOf("date of birth 05 03 1990")

	t.Run("all found", func(t *testing.T) {
		report := CheckCompositeConsistency("dateOfBirth",
			map[string]string{"day": "05", "month": "03", "year": "1990"}, corpus)
		assert.Equal(t, 3, report.Found)
		assert.Equal(t, 3, report.Total)
		assert.False(t, report.SuspectedInvention)
	})

	t.Run("half found is enough", func(t *testing.T) {
		report := CheckCompositeConsistency("dateOfBirth",
			map[string]string{"day": "05", "year": "2001"}, corpus)
		assert.Equal(t, 1, report.Found)
		assert.Equal(t, 2, report.Total)
		assert.False(t, report.SuspectedInvention)
	})

	t.Run("mostly missing", func(t *testing.T) {
		report := CheckCompositeConsistency("dateOfBirth",
			map[string]string{"day": "17", "month": "11", "year": "1990", "extra": ""}, corpus)
		assert.Equal(t, 1, report.Found)
		assert.Equal(t, 3, report.Total)
		assert.Equal(t, []string{"day", "month"}, report.Missing)
		assert.True(t, report.SuspectedInvention)
	})

	t.Run("nothing populated", func(t *testing.T) {
		report := CheckCompositeConsistency("dateOfBirth",
			map[string]string{"day": "", "month": " "}, corpus)
		assert.Zero(t, report.Total)
		assert.False(t, report.SuspectedInvention)
	})
}

func TestNewCorpus_Nil(t *testing.T) {
	corpus := NewCorpus(nil)
	assert.True(t, corpus.Empty())
	assert.False(t, corpus.Contains("anything"))
}

func TestCheckOCRConsistency_FoldsCompatibilityForms(t *testing.T) {
	corpus := corpusOf("ID １２３４５６７８９", "Oﬃce worker")

	report := CheckOCRConsistency("idNumber", "123456789", corpus)
	assert.Equal(t, []string{"123456789"}, report.TokensFound)

	report = CheckOCRConsistency("jobType", "OFFICE", corpus)
	assert.Equal(t, []string{"office"}, report.TokensFound)
	assert.False(t, report.SuspectedInvention)
}
