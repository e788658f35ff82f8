package models

import "time"

// StructuredExtraction is the nested field document produced by the LLM step.
// Leaves are strings; nested maps group related fields such as date components.
type StructuredExtraction map[string]any

// ExtractionRecord bundles one processed form: OCR output, the structured
// fields extracted from it and when it was produced.
type ExtractionRecord struct {
	ID          string               `json:"id"`
	SourceFile  string               `json:"source_file,omitempty"`
	OCR         *OCRResult           `json:"ocr"`
	Extraction  StructuredExtraction `json:"extraction"`
	ExtractedAt time.Time            `json:"extracted_at"`
}
