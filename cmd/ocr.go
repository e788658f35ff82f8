package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"formextract/internal/logger"
	"formextract/internal/ocr"
)

var ocrCmd = &cobra.Command{
	Use:   "ocr [form-file]",
	Short: "Run OCR on a claim form and write the layout as JSON",
	Long: `Run OCR on a scanned claim form and write the result as JSON: every text
line with its confidence and bounding box, the tables and the page layout.

The JSON can be passed to "validate --ocr" and "spans --ocr".

Backends:
  vision      Google Cloud Vision document text detection (default)
  documentai  Google Document AI layout processor
  tesseract   local Tesseract (requires a build with -tags tesseract)

Required environment variables for the Google backends:
  GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS - Inline JSON credentials string
  GOOGLE_CLOUD_PROJECT, DOCUMENT_AI_PROCESSOR_ID - for documentai`,
	Example: `  # OCR a scanned form with Cloud Vision
  formextract ocr claim.pdf -o claim.ocr.json

  # Use the Document AI layout processor
  formextract ocr claim.pdf --backend documentai -o claim.ocr.json

  # Print only the recognized text
  formextract ocr claim.jpg --text`,
	Args: cobra.ExactArgs(1),
	RunE: runOCR,
}

func init() {
	rootCmd.AddCommand(ocrCmd)

	ocrCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	ocrCmd.Flags().StringP("backend", "b", "", "OCR backend: vision, documentai or tesseract (default: OCR_BACKEND)")
	ocrCmd.Flags().Bool("text", false, "Output the recognized text instead of JSON")
	ocrCmd.Flags().Int("timeout", 300, "Processing timeout in seconds")
}

func runOCR(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("ocr")

	outputPath, _ := cmd.Flags().GetString("output")
	textOutput, _ := cmd.Flags().GetBool("text")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	formPath := args[0]

	log.Info().
		Str("file", formPath).
		Str("output", outputPath).
		Bool("text", textOutput).
		Int("timeout", timeoutSecs).
		Msg("Starting OCR processing")

	fileInfo, err := validateInputFile(formPath, log)
	if err != nil {
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

	formFile, err := os.Open(formPath)
	if err != nil {
		log.Error().
			Err(err).
			Str("file", formPath).
			Msg("Failed to open form file")
		return fmt.Errorf("failed to open form file: %w", err)
	}
	defer func() {
		if closeErr := formFile.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close form file")
		}
	}()

	log.Info().
		Str("file", filepath.Base(formPath)).
		Int64("size", fileInfo.Size()).
		Msg("Processing form with OCR")

	startTime := time.Now()
	result, err := ocrService.Analyze(ctx, formFile, ocr.MimeTypeFor(formPath))
	if err != nil {
		return handleOCRError(err, log)
	}

	log.Info().
		Str("backend", result.Backend).
		Int("lines", len(result.Text)).
		Int("pages", len(result.Layout)).
		Float64("average_confidence", result.AverageConfidence).
		Dur("duration", time.Since(startTime)).
		Msg("OCR processing completed successfully")

	if textOutput {
		return writeOutput(cmd, []byte(result.PlainText()), outputPath, log)
	}

	data, err := marshalJSON(result, log)
	if err != nil {
		return err
	}
	return writeOutput(cmd, data, outputPath, log)
}
