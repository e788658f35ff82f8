package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"formextract/internal/config"
	"formextract/internal/logger"
)

var version = "1.0.0"

// appConfig is set by Execute; commands that need it call loadConfig.
var appConfig *config.Config

var rootCmd = &cobra.Command{
	Use:   "formextract",
	Short: "Extract and validate fields from scanned insurance claim forms",
	Long: `formextract reads scanned work-injury claim forms, extracts their fields
with OCR and an LLM, and validates the extracted values against the OCR text.

Validation checks completeness, field formats, dates, whether each value is
supported by the OCR text, and where fields sit on the page. It never rejects
a document: every problem becomes a finding in the report.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI. cfg may be nil when the environment could not be
// loaded; commands that need configuration then report the load error.
func Execute(cfg *config.Config) {
	log := logger.WithComponent("cmd")
	appConfig = cfg

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().String("rules", "", "Validation rules YAML file (default: VALIDATION_RULES_FILE or built-in rules)")
	rootCmd.PersistentFlags().BoolP("verbose", "V", false, "Show informational findings and finding kinds")
}

func loadConfig() (*config.Config, error) {
	if appConfig != nil {
		return appConfig, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	appConfig = cfg
	return cfg, nil
}
