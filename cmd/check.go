package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"formextract/internal/validation"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check a single value",
	Long:  `Check a single field value against its format pattern, or a date for calendar validity.`,
}

var checkFormatCmd = &cobra.Command{
	Use:   "format FIELD VALUE",
	Short: "Check a value against the pattern registered for a field",
	Long: `Check a value against the pattern registered for a field. Empty values and
fields without a pattern are accepted.

Default patterns:
  idNumber       9 digits
  mobilePhone    10 digits
  landlinePhone  9 digits
  postalCode     5 to 7 digits`,
	Example: `  formextract check format idNumber 123456789
  formextract check format mobilePhone 050-1234567`,
	Args: cobra.ExactArgs(2),
	RunE: runCheckFormat,
}

var checkDateCmd = &cobra.Command{
	Use:   "date DAY MONTH YEAR",
	Short: "Check that day, month and year name a real calendar date",
	Example: `  formextract check date 31 02 2020
  formextract check date 14 7 2024`,
	Args: cobra.ExactArgs(3),
	RunE: runCheckDate,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.AddCommand(checkFormatCmd)
	checkCmd.AddCommand(checkDateCmd)
}

func runCheckFormat(cmd *cobra.Command, args []string) error {
	validator, err := newValidator(cmd)
	if err != nil {
		return err
	}

	field, value := args[0], args[1]
	valid := validator.ValidateFormat(field, value)

	var reason string
	if !valid {
		reason = "does not match " + validator.Rules().FieldPatterns[field]
	}
	fmt.Fprintln(cmd.OutOrStdout(), newFormatter(cmd, "").Check(fmt.Sprintf("%s=%s", field, value), valid, reason))
	if !valid {
		return fmt.Errorf("invalid format for %s", field)
	}
	return nil
}

func runCheckDate(cmd *cobra.Command, args []string) error {
	parts := validation.DateParts{Day: args[0], Month: args[1], Year: args[2]}
	valid, reason := validation.ValidateDate(parts)

	fmt.Fprintln(cmd.OutOrStdout(), newFormatter(cmd, "").Check(
		fmt.Sprintf("%s/%s/%s", parts.Day, parts.Month, parts.Year), valid, reason))
	if !valid {
		return fmt.Errorf("invalid date")
	}
	return nil
}
