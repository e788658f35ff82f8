package cmd

import (
	"github.com/spf13/cobra"

	"formextract/internal/logger"
	"formextract/pkg/models"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate extracted form fields against their OCR result",
	Long: `Validate a structured extraction (the JSON fields produced by the LLM step)
against the OCR result it was extracted from.

The report covers completeness of required fields, field formats, dates,
whether each value appears in the OCR text and where fields sit on the page.
Without --ocr every OCR-dependent check sees an empty document.`,
	Example: `  # Validate and print a colored summary
  formextract validate --structured fields.json --ocr claim.ocr.json

  # Write the full report as JSON
  formextract validate --structured fields.json --ocr claim.ocr.json --json -o report.json

  # Validate an extraction record written by "extract --record"
  formextract validate --record extraction.json

  # Use custom patterns and zones
  formextract validate --structured fields.json --ocr claim.ocr.json --rules rules.yaml`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("structured", "s", "", "Structured extraction JSON file")
	validateCmd.Flags().String("ocr", "", "OCR result JSON file written by the ocr command")
	validateCmd.Flags().String("record", "", "Extraction record written by extract --record, instead of --structured and --ocr")
	validateCmd.Flags().Bool("json", false, "Output the report as JSON")
	validateCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")

	validateCmd.MarkFlagsMutuallyExclusive("record", "structured")
	validateCmd.MarkFlagsMutuallyExclusive("record", "ocr")
	validateCmd.MarkFlagsOneRequired("record", "structured")
}

func runValidate(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("validate")

	structuredPath, _ := cmd.Flags().GetString("structured")
	ocrPath, _ := cmd.Flags().GetString("ocr")
	recordPath, _ := cmd.Flags().GetString("record")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	outputPath, _ := cmd.Flags().GetString("output")

	log.Info().
		Str("structured", structuredPath).
		Str("ocr", ocrPath).
		Str("record", recordPath).
		Bool("json", jsonOutput).
		Msg("Starting validation")

	structured, ocrResult, err := loadValidationInput(structuredPath, ocrPath, recordPath)
	if err != nil {
		return err
	}
	if ocrResult == nil {
		log.Warn().Msg("No OCR result given, OCR consistency and position checks see an empty document")
	}

	validator, err := newValidator(cmd)
	if err != nil {
		return err
	}

	result := validator.ValidateExtractedData(structured, ocrResult)

	if jsonOutput {
		data, err := marshalJSON(result, log)
		if err != nil {
			return err
		}
		return writeOutput(cmd, data, outputPath, log)
	}
	return writeOutput(cmd, []byte(newFormatter(cmd, outputPath).Validation(result)), outputPath, log)
}

// loadValidationInput reads either an extraction record or a structured
// extraction with an optional OCR result.
func loadValidationInput(structuredPath, ocrPath, recordPath string) (models.StructuredExtraction, *models.OCRResult, error) {
	if recordPath != "" {
		var record models.ExtractionRecord
		if err := readJSONFile(recordPath, &record); err != nil {
			return nil, nil, err
		}
		return record.Extraction, record.OCR, nil
	}

	var structured models.StructuredExtraction
	if err := readJSONFile(structuredPath, &structured); err != nil {
		return nil, nil, err
	}

	var ocrResult *models.OCRResult
	if ocrPath != "" {
		ocrResult = &models.OCRResult{}
		if err := readJSONFile(ocrPath, ocrResult); err != nil {
			return nil, nil, err
		}
	}
	return structured, ocrResult, nil
}
