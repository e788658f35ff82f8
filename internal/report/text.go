// Package report renders validation results for the terminal.
package report

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"formextract/internal/validation"
)

// Options controls rendering.
type Options struct {
	NoColor bool
	Verbose bool
}

// Formatter renders validation results as colored text.
type Formatter struct {
	colors  map[string]*color.Color
	options Options
}

// NewFormatter creates a text formatter. NoColor disables colors globally,
// as fatih/color does.
func NewFormatter(options Options) *Formatter {
	if options.NoColor {
		color.NoColor = true
	}
	return &Formatter{
		colors: map[string]*color.Color{
			"green":  color.New(color.FgGreen),
			"yellow": color.New(color.FgYellow),
			"red":    color.New(color.FgRed),
			"cyan":   color.New(color.FgCyan),
			"white":  color.New(color.FgWhite, color.Bold),
		},
		options: options,
	}
}

// Validation renders the summary lines followed by the findings. Info
// findings are shown only in verbose mode.
func (f *Formatter) Validation(result *validation.ValidationResult) string {
	var builder strings.Builder

	builder.WriteString(f.colors["white"].Sprint("=== Validation ") + f.colors["cyan"].Sprint(result.PassID) + "\n")
	for _, line := range result.Summary {
		builder.WriteString(line + "\n")
	}

	var shown []validation.Finding
	for _, finding := range result.Findings {
		if finding.Severity == validation.SeverityInfo && !f.options.Verbose {
			continue
		}
		shown = append(shown, finding)
	}

	builder.WriteString("\n")
	if len(shown) == 0 {
		builder.WriteString(f.colors["green"].Sprint("No issues found.") + "\n")
		return builder.String()
	}

	builder.WriteString(f.colors["white"].Sprint("Findings:") + "\n")
	for _, finding := range shown {
		builder.WriteString(f.findingLine(finding) + "\n")
	}
	builder.WriteString(fmt.Sprintf("\n%d error(s), %d warning(s)\n",
		result.Count(validation.SeverityError), result.Count(validation.SeverityWarning)))

	return builder.String()
}

func (f *Formatter) findingLine(finding validation.Finding) string {
	label := strings.ToUpper(string(finding.Severity))
	switch finding.Severity {
	case validation.SeverityError:
		label = f.colors["red"].Sprintf("%-7s", label)
	case validation.SeverityWarning:
		label = f.colors["yellow"].Sprintf("%-7s", label)
	default:
		label = f.colors["cyan"].Sprintf("%-7s", label)
	}

	line := fmt.Sprintf("  %s %s: %s", label, finding.Field, finding.Message)
	if f.options.Verbose {
		line += fmt.Sprintf(" [%s]", finding.Kind)
		if finding.Score != nil {
			line += fmt.Sprintf(" score=%.2f", *finding.Score)
		}
	}
	return line
}

// Spans renders the per-line OCR validation.
func (f *Formatter) Spans(result validation.ExtractionValidation) string {
	var builder strings.Builder

	builder.WriteString(f.colors["white"].Sprint("=== OCR lines ===") + "\n")
	for i, span := range result.ValidatedSpans {
		mark := f.colors["green"].Sprint("ok  ")
		if !span.ConfidenceValid {
			mark = f.colors["red"].Sprint("low ")
		}
		builder.WriteString(fmt.Sprintf("%3d %s spatial=%.2f  %s\n", i+1, mark, span.SpatialScore, span.Text))
	}

	builder.WriteString(fmt.Sprintf("\nAverage confidence: %.2f\n", result.ConfidenceMetrics.AverageConfidence))
	builder.WriteString(fmt.Sprintf("Spatial confidence: %.2f\n", result.ConfidenceMetrics.SpatialConfidence))
	builder.WriteString(f.colors["white"].Sprintf("Global confidence:  %.2f", result.GlobalConfidence) + "\n")

	return builder.String()
}

// Check renders the outcome of a single-value check.
func (f *Formatter) Check(subject string, ok bool, reason string) string {
	if ok {
		return fmt.Sprintf("%s: %s", subject, f.colors["green"].Sprint("valid"))
	}
	if reason == "" {
		return fmt.Sprintf("%s: %s", subject, f.colors["red"].Sprint("invalid"))
	}
	return fmt.Sprintf("%s: %s (%s)", subject, f.colors["red"].Sprint("invalid"), reason)
}
