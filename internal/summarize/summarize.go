// Package summarize produces the short document summary that gets encoded
// into the QR image.
package summarize

import (
	"context"
	"fmt"
	"strings"

	"github.com/apereira/docstamp/internal/llm"
)

const (
	// MaxLength is the hard cap on summary length in characters. The summary
	// becomes a QR payload, and ~500 characters is near the capacity limit
	// of a readable low-redundancy code.
	MaxLength = 500

	// truncationMarker is appended when the service output exceeds MaxLength.
	truncationMarker = "..."
)

// promptTemplate is the fixed instruction sent to the summarization service.
// Summaries are written for a Brazilian legal audience.
const promptTemplate = `Por favor, resuma o seguinte documento jurídico em português brasileiro.
O resumo deve ser conciso (máximo 500 caracteres) e destacar os pontos principais:

%s

Resumo:`

// ServiceError represents a transport, authentication, or empty-response
// failure from the summarization service.
type ServiceError struct {
	Message string
	Cause   error
}

func (e *ServiceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("summary service failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("summary service failed: %s", e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// Summarizer condenses extracted document text into a bounded summary.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// GeminiSummarizer implements Summarizer on top of the llm client.
type GeminiSummarizer struct {
	client llm.Client
}

// NewGeminiSummarizer wraps an llm client as a Summarizer.
func NewGeminiSummarizer(client llm.Client) *GeminiSummarizer {
	return &GeminiSummarizer{client: client}
}

// Summarize sends the full document text to the service and enforces the
// length cap on whatever comes back. Failures are not retried; the
// orchestrator surfaces them as run failures.
func (s *GeminiSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	prompt := fmt.Sprintf(promptTemplate, text)

	raw, err := s.client.GenerateContent(ctx, prompt)
	if err != nil {
		return "", &ServiceError{Message: "generate request failed", Cause: err}
	}

	summary := strings.TrimSpace(raw)
	if summary == "" {
		return "", &ServiceError{Message: "service returned an empty summary"}
	}

	return Truncate(summary), nil
}

// Truncate enforces the MaxLength cap: output longer than 500 characters is
// cut to the first 497 and suffixed with "..." so the result is exactly 500.
// Counting is rune-based; the service replies in Portuguese.
func Truncate(summary string) string {
	runes := []rune(summary)
	if len(runes) <= MaxLength {
		return summary
	}
	return string(runes[:MaxLength-len(truncationMarker)]) + truncationMarker
}
