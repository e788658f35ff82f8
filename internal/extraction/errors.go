package extraction

import (
	"errors"
	"fmt"
)

// Common extraction errors
var (
	// ErrMissingAPIKey is returned when neither OPENAI_API_KEY nor the Azure OpenAI settings are configured.
	ErrMissingAPIKey = errors.New("missing LLM credentials: set OPENAI_API_KEY or AZURE_OPENAI_ENDPOINT, AZURE_OPENAI_KEY and AZURE_OPENAI_DEPLOYMENT_NAME")

	// ErrEmptyText is returned when there is no OCR text to extract from.
	ErrEmptyText = errors.New("no OCR text to extract from")

	// ErrExtractionFailed is returned when every attempt to get a usable response failed.
	ErrExtractionFailed = errors.New("structured extraction failed")

	// ErrInvalidResponse is returned when the model's reply is not a JSON object.
	ErrInvalidResponse = errors.New("LLM response is not a JSON object")

	// ErrSchemaViolation is returned when the conformed document does not match the form schema.
	ErrSchemaViolation = errors.New("extraction does not match the form schema")
)

// ExtractionError wraps errors with the operation that produced them.
type ExtractionError struct {
	Op      string
	Err     error
	Details string
}

func (e *ExtractionError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("extraction: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("extraction: %s failed: %v", e.Op, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

func (e *ExtractionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapExtractionError wraps err unless it already is an ExtractionError.
func WrapExtractionError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var extErr *ExtractionError
	if errors.As(err, &extErr) {
		return err
	}

	return &ExtractionError{Op: op, Err: err, Details: details}
}
