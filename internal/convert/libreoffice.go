package convert

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

const (
	// DefaultBinary is the LibreOffice executable name.
	DefaultBinary = "soffice"

	// DefaultProcessTimeout bounds the converter process wait.
	DefaultProcessTimeout = 30 * time.Second
)

// LibreOfficeConverter converts documents with a local headless LibreOffice
// process.
type LibreOfficeConverter struct {
	Binary  string
	Timeout time.Duration
}

// NewLibreOfficeConverter creates a converter invoking binary, or the
// default soffice executable when binary is empty.
func NewLibreOfficeConverter(binary string) *LibreOfficeConverter {
	if binary == "" {
		binary = DefaultBinary
	}
	return &LibreOfficeConverter{
		Binary:  binary,
		Timeout: DefaultProcessTimeout,
	}
}

// Convert runs the headless converter against sourcePath. LibreOffice names
// its output after the source file's stem regardless of the requested
// destination, so the produced file is renamed to destPath when the names
// differ.
func (c *LibreOfficeConverter) Convert(ctx context.Context, sourcePath, destPath string) (string, error) {
	outDir := filepath.Dir(destPath)

	cctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, c.Binary,
		"--headless",
		"--convert-to", "pdf",
		"--outdir", outDir,
		sourcePath,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return "", &NotFoundError{Binary: c.Binary}
		}
		if cctx.Err() == context.DeadlineExceeded {
			return "", &ProcessError{Output: string(output), Cause: cctx.Err()}
		}
		return "", &ProcessError{Output: string(output), Cause: err}
	}

	generated := filepath.Join(outDir, stem(sourcePath)+".pdf")
	if generated != destPath {
		if err := os.Rename(generated, destPath); err != nil {
			return "", &ProcessError{Output: string(output), Cause: err}
		}
	}

	return destPath, nil
}
