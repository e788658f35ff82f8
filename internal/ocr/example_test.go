package ocr_test

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"cloud.google.com/go/vision/v2/apiv1/visionpb"

	"formextract/internal/ocr"
)

// Example demonstrates basic usage of the OCR service.
func Example() {
	// Load .env file (using godotenv in main)
	// This should be done in your main() function:
	//
	// if err := godotenv.Load(); err != nil {
	//     log.Printf("Warning: Could not load .env file: %v", err)
	// }

	// Create context with timeout for OCR processing
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ocrService, err := ocr.New(ctx, ocr.Config{
		Backend:         ocr.BackendVision,
		CredentialsFile: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
	})
	if err != nil {
		log.Fatalf("Failed to create OCR service: %v", err)
	}
	defer ocrService.Close()

	form, err := os.Open("claim_form.pdf")
	if err != nil {
		log.Fatalf("Failed to open form: %v", err)
	}
	defer form.Close()

	result, err := ocrService.Analyze(ctx, form, ocr.MimeTypeFor(form.Name()))
	if err != nil {
		log.Fatalf("Failed to process form: %v", err)
	}

	fmt.Printf("OCR Results:\n")
	fmt.Printf("  Lines: %d\n", len(result.Text))
	fmt.Printf("  Pages: %d\n", len(result.Layout))
	fmt.Printf("  Confidence: %.2f%%\n", result.AverageConfidence*100)
	fmt.Printf("  Processing time: %v\n", result.ProcessingDuration)
	fmt.Printf("\nExtracted text:\n%s\n", result.PlainText())
}

// ExampleNew demonstrates proper error handling patterns.
func ExampleNew() {
	ctx := context.Background()

	ocrService, err := ocr.New(ctx, ocr.Config{
		Backend:     ocr.BackendDocumentAI,
		ProjectID:   os.Getenv("GOOGLE_CLOUD_PROJECT"),
		Location:    "eu",
		ProcessorID: os.Getenv("DOCUMENT_AI_PROCESSOR_ID"),
	})
	if err != nil {
		switch {
		case errors.Is(err, ocr.ErrMissingCredentials):
			log.Fatalf("Please set GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS environment variable")
		case errors.Is(err, ocr.ErrInvalidConfiguration):
			log.Fatalf("Document AI needs GOOGLE_CLOUD_PROJECT and DOCUMENT_AI_PROCESSOR_ID: %v", err)
		}
		log.Fatalf("Failed to create OCR service: %v", err)
	}
	defer ocrService.Close()

	form, err := os.Open("large_form.pdf")
	if err != nil {
		log.Fatalf("Failed to open form: %v", err)
	}
	defer form.Close()

	result, err := ocrService.Analyze(ctx, form, "")
	if err != nil {
		switch {
		case errors.Is(err, ocr.ErrDocumentTooLarge):
			log.Printf("Form is too large for processing. Maximum size is 20MB.")
			return
		case errors.Is(err, ocr.ErrTooManyPages):
			log.Printf("Form has too many pages. Maximum is 5 pages for synchronous processing.")
			return
		case errors.Is(err, ocr.ErrUnsupportedFormat):
			log.Printf("The file is not a PDF or a supported image.")
			return
		case errors.Is(err, ocr.ErrEmptyDocument):
			log.Printf("No readable text found in the document.")
			return
		default:
			log.Fatalf("OCR processing failed: %v", err)
		}
	}

	fmt.Printf("Successfully processed %d pages\n", len(result.Layout))
}

// ExampleConvertVisionPages converts a raw Vision response without calling the API.
func ExampleConvertVisionPages() {
	symbol := func(text string, brk visionpb.TextAnnotation_DetectedBreak_BreakType) *visionpb.Symbol {
		return &visionpb.Symbol{
			Text: text,
			Property: &visionpb.TextAnnotation_TextProperty{
				DetectedBreak: &visionpb.TextAnnotation_DetectedBreak{Type: brk},
			},
		}
	}

	page := &visionpb.AnnotateImageResponse{
		FullTextAnnotation: &visionpb.TextAnnotation{
			Pages: []*visionpb.Page{{
				Width:  600,
				Height: 400,
				Blocks: []*visionpb.Block{{
					Paragraphs: []*visionpb.Paragraph{{
						Words: []*visionpb.Word{
							{Symbols: []*visionpb.Symbol{symbol("I", 0), symbol("D", visionpb.TextAnnotation_DetectedBreak_SPACE)}, Confidence: 0.5},
							{Symbols: []*visionpb.Symbol{symbol("7", visionpb.TextAnnotation_DetectedBreak_LINE_BREAK)}, Confidence: 1},
						},
					}},
				}},
			}},
		},
	}

	result, err := ocr.ConvertVisionPages([]*visionpb.AnnotateImageResponse{page})
	if err != nil {
		log.Fatalf("Failed to convert response: %v", err)
	}

	fmt.Println(result.PlainText())
	fmt.Printf("words: %d, confidence: %.2f\n", len(result.Layout[0].Spans), result.AverageConfidence)
	// Output:
	// ID 7
	// words: 2, confidence: 0.75
}
