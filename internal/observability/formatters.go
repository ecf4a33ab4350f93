// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/apereira/docstamp/internal/pipeline"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// summaryPreviewLength caps how much of the summary the box shows
	summaryPreviewLength = 120
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintResult outputs a human-readable summary of a finished run.
func (p *Printer) PrintResult(result *pipeline.RunResult) {
	if result == nil {
		return
	}

	if result.Success {
		p.printSuccess(result)
		return
	}
	p.printFailure(result)
}

func (p *Printer) printSuccess(result *pipeline.RunResult) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Input:       %s\n", result.InputFile))
	sb.WriteString(fmt.Sprintf("Text length: %d characters\n", result.TextLength))
	sb.WriteString("\n")

	if result.Summary != "" {
		sb.WriteString("Summary:\n")
		summary := result.Summary
		if len(summary) > summaryPreviewLength {
			summary = summary[:summaryPreviewLength-3] + "..."
		}
		for _, line := range wrap(summary, boxWidth-6) {
			sb.WriteString(fmt.Sprintf("  %s\n", line))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Artifacts:\n")
	sb.WriteString(fmt.Sprintf("  • %s\n", result.QRCodePath))
	sb.WriteString(fmt.Sprintf("  • %s\n", result.FinalPDFPath))

	if result.EmailSent {
		sb.WriteString("\n✓ Notification email sent")
	}

	p.printBox("✅ RUN COMPLETE", strings.TrimSuffix(sb.String(), "\n"))
}

func (p *Printer) printFailure(result *pipeline.RunResult) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Input:  %s\n", result.InputFile))
	sb.WriteString(fmt.Sprintf("Stage:  %s\n", result.FailedStage))
	sb.WriteString("\n")

	sb.WriteString("Error:\n")
	for _, line := range wrap(result.Error, boxWidth-6) {
		sb.WriteString(fmt.Sprintf("  %s\n", line))
	}

	if result.QRCodePath != "" {
		sb.WriteString("\nArtifacts kept:\n")
		sb.WriteString(fmt.Sprintf("  • %s\n", result.QRCodePath))
	}

	p.printBox("⚠ RUN FAILED", strings.TrimSuffix(sb.String(), "\n"))
}

// wrap splits text into lines no longer than width, breaking on spaces.
func wrap(text string, width int) []string {
	if width <= 0 || len(text) <= width {
		return []string{text}
	}

	var lines []string
	words := strings.Fields(text)
	var line string
	for _, word := range words {
		if line == "" {
			line = word
			continue
		}
		if len(line)+1+len(word) > width {
			lines = append(lines, line)
			line = word
			continue
		}
		line += " " + word
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}
