package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"formextract/internal/extraction"
	"formextract/internal/logger"
	"formextract/internal/pipeline"
	"formextract/pkg/services"
)

var extractCmd = &cobra.Command{
	Use:   "extract [form-file]",
	Short: "Extract and validate the fields of a scanned claim form",
	Long: `Run the whole chain on one scanned claim form: OCR, structured field
extraction with an OpenAI or Azure OpenAI chat model, and validation of the
extracted fields against the OCR result.

Required environment variables:
  OPENAI_API_KEY, OR
  AZURE_OPENAI_ENDPOINT, AZURE_OPENAI_KEY and AZURE_OPENAI_DEPLOYMENT_NAME
plus the credentials of the OCR backend (see "formextract ocr --help").`,
	Example: `  # Print the extracted fields and a validation summary
  formextract extract claim.pdf

  # Write the full report as JSON
  formextract extract claim.pdf --json -o report.json

  # Keep the extraction record for a later "validate" run
  formextract extract claim.pdf --record extraction.json`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	extractCmd.Flags().StringP("backend", "b", "", "OCR backend: vision, documentai or tesseract (default: OCR_BACKEND)")
	extractCmd.Flags().Bool("json", false, "Output the full report as JSON")
	extractCmd.Flags().String("record", "", "Also write the extraction record (OCR result and fields) to this file")
	extractCmd.Flags().Int("timeout", 300, "Processing timeout in seconds")
}

func runExtract(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("extract")

	outputPath, _ := cmd.Flags().GetString("output")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	recordPath, _ := cmd.Flags().GetString("record")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	formPath := args[0]

	log.Info().
		Str("file", formPath).
		Str("output", outputPath).
		Bool("json", jsonOutput).
		Int("timeout", timeoutSecs).
		Msg("Starting claim extraction")

	if _, err := validateInputFile(formPath, log); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.RequireLLM(); err != nil {
		return err
	}

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	ocrService, err := createOCRService(ctx, cmd, log)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := ocrService.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close OCR service")
		}
	}()

	extractor, err := extraction.NewOpenAIExtractor(cfg.ExtractionConfig())
	if err != nil {
		return fmt.Errorf("failed to create extractor: %w", err)
	}

	validator, err := newValidator(cmd)
	if err != nil {
		return err
	}

	formFile, err := os.Open(formPath)
	if err != nil {
		return fmt.Errorf("failed to open form file: %w", err)
	}
	defer func() {
		if closeErr := formFile.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close form file")
		}
	}()

	var processor services.ClaimProcessor = pipeline.New(ocrService, extractor, validator)
	report, err := processor.ProcessClaim(ctx, formFile, filepath.Base(formPath))
	if err != nil {
		if errors.Is(err, pipeline.ErrOCRStage) {
			return handleOCRError(err, log)
		}
		return handleExtractionError(err, log)
	}

	if recordPath != "" {
		data, err := marshalJSON(report.Record, log)
		if err != nil {
			return err
		}
		if err := writeOutput(cmd, data, recordPath, log); err != nil {
			return err
		}
	}

	if jsonOutput {
		data, err := marshalJSON(report, log)
		if err != nil {
			return err
		}
		return writeOutput(cmd, data, outputPath, log)
	}

	fields, err := marshalJSON(report.Record.Extraction, log)
	if err != nil {
		return err
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Record: %s\n\n", report.Record.ID))
	builder.Write(fields)
	builder.WriteString("\n\n")
	builder.WriteString(newFormatter(cmd, outputPath).Validation(report.Validation))
	builder.WriteString(fmt.Sprintf("OCR global confidence: %.2f\n", report.Spans.GlobalConfidence))

	return writeOutput(cmd, []byte(builder.String()), outputPath, log)
}
