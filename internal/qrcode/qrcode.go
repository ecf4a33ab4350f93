// Package qrcode turns the document summary into a scannable image.
//
// Two interchangeable encoders exist: a remote HTTP service (the default)
// and a local renderer for offline deployments. Both produce a 300x300 PNG
// at the lowest error-correction tier — the payload is already near QR
// capacity at 500 characters, so capacity wins over damage tolerance.
package qrcode

import (
	"context"
	"fmt"
)

const (
	// ImageSize is the pixel width and height of the generated code image.
	ImageSize = 300

	// ErrorCorrection is the redundancy tier requested from the service.
	// "L" is the lowest tier and permits the largest payload.
	ErrorCorrection = "L"
)

// EncodingError represents a failure to obtain or persist the code image.
type EncodingError struct {
	Message string
	Cause   error
}

func (e *EncodingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("code encoding failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("code encoding failed: %s", e.Message)
}

func (e *EncodingError) Unwrap() error {
	return e.Cause
}

// Encoder writes a scannable image encoding text to destination and returns
// the written path.
type Encoder interface {
	Encode(ctx context.Context, text, destination string) (string, error)
}
