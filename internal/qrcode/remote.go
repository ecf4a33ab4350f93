package qrcode

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"
)

// DefaultServiceURL is the public QR rendering endpoint used when no other
// service is configured.
const DefaultServiceURL = "https://api.qrserver.com/v1/create-qr-code/"

// defaultTimeout bounds a single request to the rendering service.
const defaultTimeout = 30 * time.Second

// RemoteEncoder requests the code image from an HTTP rendering service and
// persists the returned bytes verbatim. It trusts the service: the bytes
// are not validated as a well-formed image.
type RemoteEncoder struct {
	ServiceURL string
	Client     *http.Client
}

// NewRemoteEncoder creates an encoder against serviceURL, or the default
// public service when serviceURL is empty.
func NewRemoteEncoder(serviceURL string) *RemoteEncoder {
	if serviceURL == "" {
		serviceURL = DefaultServiceURL
	}
	return &RemoteEncoder{
		ServiceURL: serviceURL,
		Client:     &http.Client{Timeout: defaultTimeout},
	}
}

// Encode fetches a 300x300 low-redundancy PNG encoding text and writes it
// to destination.
func (e *RemoteEncoder) Encode(ctx context.Context, text, destination string) (string, error) {
	params := url.Values{}
	params.Set("data", text)
	params.Set("size", fmt.Sprintf("%dx%d", ImageSize, ImageSize))
	params.Set("format", "png")
	params.Set("ecc", ErrorCorrection)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.ServiceURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", &EncodingError{Message: "failed to create request", Cause: err}
	}

	resp, err := e.Client.Do(req)
	if err != nil {
		return "", &EncodingError{Message: "request to code service failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", &EncodingError{Message: fmt.Sprintf("code service returned HTTP status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &EncodingError{Message: "failed to read service response", Cause: err}
	}

	if err := os.WriteFile(destination, body, 0644); err != nil {
		return "", &EncodingError{Message: "failed to write code image", Cause: err}
	}

	return destination, nil
}
