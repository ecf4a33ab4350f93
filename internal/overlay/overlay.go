// Package overlay stamps the code image and its caption onto every page of
// a converted PDF.
package overlay

import (
	"fmt"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// CaptionText is the fixed label rendered directly above the code image.
const CaptionText = "Resumo"

// Overlay geometry, expressed against a US letter reference page
// (612x792 pt). The same layer is applied to every page whatever its true
// size; pages of other dimensions get the identical stamp.
const (
	// codeSquarePoints is the edge of the square the code image is scaled
	// into, aspect ratio preserved.
	codeSquarePoints = 80

	// marginPoints is the distance of the code square from the top and
	// right page edges.
	marginPoints = 50

	// captionLiftPoints raises the caption baseline above the code square.
	captionLiftPoints = 15

	// captionFontPoints is the caption text size (Helvetica-Bold).
	captionFontPoints = 10

	// sourceImagePixels is the pixel edge of the generated code image;
	// at PDF's 72 dpi one pixel maps to one point before scaling.
	sourceImagePixels = 300
)

// Error represents a failure to parse the input document or to apply the
// overlay layer.
type Error struct {
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("overlay failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("overlay failed: %s", e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Stamper composites the overlay layer onto paginated documents.
type Stamper struct {
	conf *model.Configuration
}

// NewStamper creates a Stamper with relaxed validation, so documents from
// lenient converters still parse.
func NewStamper() *Stamper {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Stamper{conf: conf}
}

// Overlay writes a copy of the document at sourcePath to destPath with the
// code image and caption stamped on every page. Page order and count are
// preserved.
func (s *Stamper) Overlay(sourcePath, imagePath, destPath string) (string, error) {
	if _, err := os.Stat(imagePath); err != nil {
		return "", &Error{Message: "cannot load code image", Cause: err}
	}

	pages, err := api.PageCountFile(sourcePath)
	if err != nil {
		return "", &Error{Message: "cannot parse input document", Cause: err}
	}

	// Two stamp passes through an intermediate file: image first, caption
	// on top.
	intermediate := destPath + ".stamp"
	defer func() { _ = os.Remove(intermediate) }()

	if err := api.AddImageWatermarksFile(sourcePath, intermediate, nil, true, imagePath, imageStampDesc(), s.conf); err != nil {
		return "", &Error{Message: "applying code image to pages", Cause: err}
	}
	if err := api.AddTextWatermarksFile(intermediate, destPath, nil, true, CaptionText, captionStampDesc(), s.conf); err != nil {
		return "", &Error{Message: "applying caption to pages", Cause: err}
	}

	stamped, err := api.PageCountFile(destPath)
	if err != nil {
		return "", &Error{Message: "cannot verify stamped document", Cause: err}
	}
	if stamped != pages {
		return "", &Error{Message: fmt.Sprintf("page count changed from %d to %d", pages, stamped)}
	}

	return destPath, nil
}

// PageCount returns the number of pages in the document at path.
func (s *Stamper) PageCount(path string) (int, error) {
	count, err := api.PageCountFile(path)
	if err != nil {
		return 0, &Error{Message: "cannot parse document", Cause: err}
	}
	return count, nil
}

// imageStampDesc anchors the code image at the top-right reference corner,
// marginPoints in from both edges, scaled from its source pixel size into
// the codeSquarePoints square.
func imageStampDesc() string {
	scale := float64(codeSquarePoints) / float64(sourceImagePixels)
	return fmt.Sprintf("pos:tr, off:-%d -%d, rot:0, scalefactor:%.4f abs", marginPoints, marginPoints, scale)
}

// captionStampDesc places the caption directly above the code square's top
// edge.
func captionStampDesc() string {
	return fmt.Sprintf("fontname:Helvetica-Bold, points:%d, pos:tr, off:-%d -%d, rot:0, scalefactor:1 abs",
		captionFontPoints, marginPoints, marginPoints-captionLiftPoints)
}
