package pipeline

import (
	"errors"
	"time"

	"github.com/apereira/docstamp/internal/convert"
	"github.com/apereira/docstamp/internal/extract"
	"github.com/apereira/docstamp/internal/notify"
	"github.com/apereira/docstamp/internal/overlay"
	"github.com/apereira/docstamp/internal/qrcode"
	"github.com/apereira/docstamp/internal/summarize"
)

// Stage identifies a pipeline stage. Stages run in declaration order; a
// failure in one stops the run before the next.
type Stage string

// Pipeline stages.
const (
	StageExtract   Stage = "extract"
	StageSummarize Stage = "summarize"
	StageEncode    Stage = "encode"
	StageConvert   Stage = "convert"
	StageOverlay   Stage = "overlay"
	StageNotify    Stage = "notify"
)

// Error kinds reported in RunResult.Error, one per failure mode.
const (
	KindExtraction        = "ExtractionError"
	KindSummaryService    = "SummaryServiceError"
	KindEncoding          = "EncodingError"
	KindConversionTimeout = "ConversionTimeoutError"
	KindConversionService = "ConversionServiceError"
	KindConversionProcess = "ConversionProcessError"
	KindConverterNotFound = "ConverterNotFoundError"
	KindOverlay           = "OverlayError"
	KindConfiguration     = "ConfigurationError"
	KindNotification      = "NotificationError"

	// KindPipeline covers failures outside the stage taxonomy, such as an
	// unwritable output directory.
	KindPipeline = "PipelineError"
)

// classify maps a stage failure to its error kind.
func classify(err error) string {
	var (
		extractionErr  *extract.Error
		summaryErr     *summarize.ServiceError
		encodingErr    *qrcode.EncodingError
		timeoutErr     *convert.TimeoutError
		convServiceErr *convert.ServiceError
		processErr     *convert.ProcessError
		notFoundErr    *convert.NotFoundError
		overlayErr     *overlay.Error
		configErr      *notify.ConfigurationError
		sendErr        *notify.SendError
	)

	switch {
	case errors.As(err, &extractionErr):
		return KindExtraction
	case errors.As(err, &summaryErr):
		return KindSummaryService
	case errors.As(err, &encodingErr):
		return KindEncoding
	case errors.As(err, &timeoutErr):
		return KindConversionTimeout
	case errors.As(err, &convServiceErr):
		return KindConversionService
	case errors.As(err, &processErr):
		return KindConversionProcess
	case errors.As(err, &notFoundErr):
		return KindConverterNotFound
	case errors.As(err, &overlayErr):
		return KindOverlay
	case errors.As(err, &configErr):
		return KindConfiguration
	case errors.As(err, &sendErr):
		return KindNotification
	default:
		return KindPipeline
	}
}

// RunResult is the structured outcome of one pipeline invocation. It is
// JSON-serializable; persisting a history of results is the caller's
// concern.
type RunResult struct {
	Success   bool      `json:"success"`
	Timestamp time.Time `json:"timestamp"`
	InputFile string    `json:"input_file"`

	// Populated on success.
	TextLength   int    `json:"text_length,omitempty"`
	Summary      string `json:"summary,omitempty"`
	QRCodePath   string `json:"qr_code_path,omitempty"`
	FinalPDFPath string `json:"final_pdf_path,omitempty"`
	EmailSent    bool   `json:"email_sent,omitempty"`

	// Populated on failure.
	FailedStage Stage  `json:"failed_stage,omitempty"`
	Error       string `json:"error,omitempty"`
}
