package qrcode

import (
	"context"

	qr "github.com/skip2/go-qrcode"
)

// LocalEncoder renders the code image in-process, for deployments without
// access to the remote rendering service.
type LocalEncoder struct{}

// NewLocalEncoder creates an in-process encoder.
func NewLocalEncoder() *LocalEncoder {
	return &LocalEncoder{}
}

// Encode writes a 300x300 PNG at the lowest recovery level to destination.
func (e *LocalEncoder) Encode(_ context.Context, text, destination string) (string, error) {
	if err := qr.WriteFile(text, qr.Low, ImageSize, destination); err != nil {
		return "", &EncodingError{Message: "local code rendering failed", Cause: err}
	}
	return destination, nil
}
