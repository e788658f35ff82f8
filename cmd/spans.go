package cmd

import (
	"github.com/spf13/cobra"

	"formextract/internal/logger"
	"formextract/pkg/models"
)

var spansCmd = &cobra.Command{
	Use:   "spans",
	Short: "Check OCR line confidence and spatial coherence",
	Long: `Check every OCR text line: whether its confidence reaches the minimum
(min_confidence, 0.5 by default) and how well its box sits among the other
lines and table cells. Prints the per-line scores and the global confidence.`,
	Example: `  formextract spans --ocr claim.ocr.json
  formextract spans --ocr claim.ocr.json --json`,
	Args: cobra.NoArgs,
	RunE: runSpans,
}

func init() {
	rootCmd.AddCommand(spansCmd)

	spansCmd.Flags().String("ocr", "", "OCR result JSON file written by the ocr command (required)")
	spansCmd.Flags().Bool("json", false, "Output as JSON")

	_ = spansCmd.MarkFlagRequired("ocr")
}

func runSpans(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("spans")

	ocrPath, _ := cmd.Flags().GetString("ocr")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	var ocrResult models.OCRResult
	if err := readJSONFile(ocrPath, &ocrResult); err != nil {
		return err
	}

	validator, err := newValidator(cmd)
	if err != nil {
		return err
	}

	result := validator.ValidateExtraction(&ocrResult)

	if jsonOutput {
		data, err := marshalJSON(result, log)
		if err != nil {
			return err
		}
		return writeOutput(cmd, data, "", log)
	}
	return writeOutput(cmd, []byte(newFormatter(cmd, "").Spans(result)), "", log)
}
