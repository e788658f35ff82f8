package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"formextract/internal/extraction"
	"formextract/internal/ocr"
	"formextract/internal/report"
	"formextract/internal/validation"
)

// validateInputFile checks that the file exists, is a regular non-empty file
// and fits the OCR size limit.
func validateInputFile(path string, log zerolog.Logger) (os.FileInfo, error) {
	fileInfo, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Error().
				Str("file", path).
				Msg("Input file not found")
			return nil, fmt.Errorf("file not found: %s", path)
		}
		if os.IsPermission(err) {
			log.Error().
				Str("file", path).
				Msg("Permission denied accessing input file")
			return nil, fmt.Errorf("permission denied accessing file: %s", path)
		}
		return nil, fmt.Errorf("error accessing file: %w", err)
	}

	if !fileInfo.Mode().IsRegular() {
		return nil, fmt.Errorf("path is not a regular file: %s", path)
	}

	if ocr.MimeTypeFor(path) == "" {
		log.Warn().
			Str("file", path).
			Msg("Unknown file extension, the type will be detected from the content")
	}

	if fileInfo.Size() == 0 {
		return nil, fmt.Errorf("file is empty: %s", path)
	}
	if fileInfo.Size() > ocr.MaxFileSizeBytes {
		log.Error().
			Str("file", path).
			Int64("size", fileInfo.Size()).
			Int64("max_size", ocr.MaxFileSizeBytes).
			Msg("Input file exceeds maximum size limit")
		return nil, fmt.Errorf("file too large (%d bytes). Maximum size is %d bytes (20MB)",
			fileInfo.Size(), ocr.MaxFileSizeBytes)
	}

	return fileInfo, nil
}

// createContextWithTimeout creates a context with timeout and signal handling
func createContextWithTimeout(timeoutSecs int, log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSecs)*time.Second)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling processing")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// createOCRService creates the backend named by --backend, or OCR_BACKEND.
func createOCRService(ctx context.Context, cmd *cobra.Command, log zerolog.Logger) (ocr.Service, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	if backend, _ := cmd.Flags().GetString("backend"); backend != "" {
		cfg.OCRBackend = backend
	}
	if err := cfg.RequireOCR(); err != nil {
		return nil, err
	}

	ocrConfig := cfg.OCRConfig()
	service, err := ocr.New(ctx, ocrConfig)
	if err != nil {
		if errors.Is(err, ocr.ErrMissingCredentials) {
			log.Error().
				Err(err).
				Msg("Google Cloud credentials validation failed")
			return nil, fmt.Errorf("Google Cloud credentials not configured. Please set one of:\n\n" +
				"1. Export GOOGLE_APPLICATION_CREDENTIALS with path to service account JSON:\n" +
				"   export GOOGLE_APPLICATION_CREDENTIALS=/path/to/service-account-key.json\n\n" +
				"2. Export GOOGLE_CREDENTIALS with inline JSON\n\n" +
				"3. Use Application Default Credentials (if gcloud is configured):\n" +
				"   gcloud auth application-default login\n\n" +
				"Original error: %w", err)
		}
		log.Error().
			Err(err).
			Str("backend", string(ocrConfig.Backend)).
			Msg("Failed to create OCR service")
		return nil, fmt.Errorf("failed to create OCR service: %w", err)
	}

	log.Debug().
		Str("backend", string(ocrConfig.Backend)).
		Msg("OCR service created successfully")
	return service, nil
}

// handleOCRError provides user-friendly error messages for OCR failures
func handleOCRError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("OCR processing failed")

	errStr := err.Error()

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("OCR processing timed out. Try increasing --timeout or processing a smaller file")
	case errors.Is(err, context.Canceled), errors.Is(err, ocr.ErrContextCanceled):
		return fmt.Errorf("OCR processing was canceled")
	case errors.Is(err, ocr.ErrDocumentTooLarge):
		return fmt.Errorf("file is too large (maximum 20MB). Try compressing or splitting the file")
	case errors.Is(err, ocr.ErrTooManyPages):
		return fmt.Errorf("PDF has too many pages (maximum 5 pages). Try splitting into smaller files")
	case errors.Is(err, ocr.ErrUnsupportedFormat):
		return fmt.Errorf("unsupported or corrupted file. Use a PDF or a PNG, JPEG, TIFF, GIF, BMP or WEBP image: %w", err)
	case errors.Is(err, ocr.ErrEmptyDocument):
		return fmt.Errorf("no readable text found in the document")
	case errors.Is(err, ocr.ErrTesseractNotEnabled):
		return fmt.Errorf("the tesseract backend is not compiled in. Rebuild with: go build -tags tesseract")
	case errors.Is(err, ocr.ErrProcessorNotFound):
		return fmt.Errorf("Document AI processor not found. Check DOCUMENT_AI_PROCESSOR_ID and GOOGLE_CLOUD_LOCATION")
	case errors.Is(err, ocr.ErrQuotaExceeded):
		return fmt.Errorf("Google Cloud API quota exceeded. Check your project quotas in the Google Cloud Console")
	case strings.Contains(errStr, "Unauthenticated") ||
		strings.Contains(errStr, "invalid_grant") ||
		strings.Contains(errStr, "transport: per-RPC creds failed"):
		return fmt.Errorf("Google Cloud authentication failed. Please check your credentials: %v", err)
	case strings.Contains(errStr, "PERMISSION_DENIED") || errors.Is(err, ocr.ErrMissingCredentials):
		return fmt.Errorf("permission denied. Please ensure your service account may call the Vision or Document AI API")
	default:
		return fmt.Errorf("OCR processing failed: %w", err)
	}
}

// handleExtractionError provides user-friendly error messages for LLM failures
func handleExtractionError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("Structured extraction failed")

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("extraction timed out. Try increasing --timeout")
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("extraction was canceled")
	case errors.Is(err, extraction.ErrEmptyText):
		return fmt.Errorf("OCR produced no text to extract from")
	case errors.Is(err, extraction.ErrExtractionFailed):
		return fmt.Errorf("the model did not return a usable form after all retries (EXTRACTION_MAX_RETRIES): %w", err)
	default:
		return fmt.Errorf("extraction failed: %w", err)
	}
}

// newValidator builds a validator from --rules, VALIDATION_RULES_FILE or the built-in rules.
func newValidator(cmd *cobra.Command) (*validation.Validator, error) {
	var rules validation.Rules
	var err error

	rulesPath, _ := cmd.Flags().GetString("rules")
	if cfg, cfgErr := loadConfig(); rulesPath == "" && cfgErr == nil {
		rules, err = cfg.ValidationRules()
	} else {
		rules, err = validation.LoadRules(rulesPath)
	}
	if err != nil {
		return nil, err
	}
	return validation.New(rules)
}

// newFormatter builds the text formatter. Colors are off with --no-color,
// when writing to a file and when the output is not a terminal.
func newFormatter(cmd *cobra.Command, outputPath string) *report.Formatter {
	noColor, _ := cmd.Flags().GetBool("no-color")
	verbose, _ := cmd.Flags().GetBool("verbose")
	if outputPath != "" || !isTerminal(cmd.OutOrStdout()) {
		noColor = true
	}
	return report.NewFormatter(report.Options{NoColor: noColor, Verbose: verbose})
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// readJSONFile decodes a JSON file into v.
func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// writeOutput writes data to outputPath, or to the command's output when it is empty.
func writeOutput(cmd *cobra.Command, data []byte, outputPath string, log zerolog.Logger) error {
	if outputPath == "" {
		out := cmd.OutOrStdout()
		if _, err := out.Write(data); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		if len(data) > 0 && data[len(data)-1] != '\n' {
			fmt.Fprintln(out)
		}
		return nil
	}

	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		log.Error().
			Err(err).
			Str("output_file", outputPath).
			Msg("Failed to write output file")
		return fmt.Errorf("failed to write output file: %w", err)
	}

	log.Info().
		Str("output_file", outputPath).
		Int("bytes", len(data)).
		Msg("Results written to file")
	return nil
}

func marshalJSON(v any, log zerolog.Logger) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON output")
		return nil, fmt.Errorf("failed to create JSON output: %w", err)
	}
	return data, nil
}
