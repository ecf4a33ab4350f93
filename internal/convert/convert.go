// Package convert turns the source document into a paginated PDF.
//
// Two interchangeable strategies exist: a remote conversion service
// (CloudConvert's three-phase job protocol) and a local headless
// LibreOffice process. Exactly one strategy is chosen per run by
// configuration presence; there is no cross-strategy fallback.
package convert

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Converter converts the document at sourcePath into a PDF at destPath and
// returns destPath.
type Converter interface {
	Convert(ctx context.Context, sourcePath, destPath string) (string, error)
}

// Select picks the conversion strategy for a run: the remote service when a
// credential is configured, the local converter otherwise. The choice is
// static for the run — a failed strategy fails the run.
func Select(serviceAPIKey, localBinary string) Converter {
	if serviceAPIKey != "" {
		return NewCloudConvertConverter(serviceAPIKey)
	}
	return NewLibreOfficeConverter(localBinary)
}

// TimeoutError reports that the remote conversion job did not reach a
// terminal state before the polling ceiling.
type TimeoutError struct {
	Ceiling time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("conversion job did not finish within %s", e.Ceiling)
}

// ServiceError represents a failure reported by or while talking to the
// remote conversion service, including a terminal error job status.
type ServiceError struct {
	Message string
	Cause   error
}

func (e *ServiceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("conversion service failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("conversion service failed: %s", e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// ProcessError represents a local converter process that exited with a
// non-zero status; Output carries its diagnostic output.
type ProcessError struct {
	Output string
	Cause  error
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("converter process failed: %v: %s", e.Cause, strings.TrimSpace(e.Output))
}

func (e *ProcessError) Unwrap() error {
	return e.Cause
}

// NotFoundError reports that the local converter executable is absent.
type NotFoundError struct {
	Binary string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("converter executable %q not found; install LibreOffice or configure the conversion service", e.Binary)
}

// stem returns the file name at path without its extension. The local
// converter names its output after the source stem.
func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
