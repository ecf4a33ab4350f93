// Package pipeline orchestrates the document processing run: text
// extraction, summarization, code encoding, PDF conversion, page overlay,
// and optional email notification.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/apereira/docstamp/internal/config"
	"github.com/apereira/docstamp/internal/convert"
	"github.com/apereira/docstamp/internal/extract"
	"github.com/apereira/docstamp/internal/llm"
	"github.com/apereira/docstamp/internal/notify"
	"github.com/apereira/docstamp/internal/overlay"
	"github.com/apereira/docstamp/internal/qrcode"
	"github.com/apereira/docstamp/internal/summarize"
)

// Overlayer composites the code image and caption onto every page of a
// paginated document.
type Overlayer interface {
	Overlay(sourcePath, imagePath, destPath string) (string, error)
}

// RunOptions holds the per-invocation parameters.
type RunOptions struct {
	InputPath string
	Recipient string
	SendEmail bool
	// RunID suffixes artifact names so concurrent runs never collide.
	// Generated when empty.
	RunID string
}

// Runner executes pipeline runs. It holds no per-run state, so a single
// Runner may serve concurrent runs as long as each uses a distinct RunID.
type Runner struct {
	extractor  extract.Extractor
	summarizer summarize.Summarizer
	encoder    qrcode.Encoder
	converter  convert.Converter
	stamper    Overlayer
	notifier   notify.Notifier
	outputDir  string
	close      func() error
}

// NewRunner wires the capability implementations selected by cfg: remote
// or local conversion by credential presence, remote or in-process code
// encoding by the local_qr setting.
func NewRunner(ctx context.Context, cfg *config.Config) (*Runner, error) {
	client, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create summarization client: %w", err)
	}

	var encoder qrcode.Encoder
	if cfg.LocalQR {
		encoder = qrcode.NewLocalEncoder()
	} else {
		encoder = qrcode.NewRemoteEncoder(cfg.QRServiceURL)
	}

	return &Runner{
		extractor:  extract.NewExtractor(),
		summarizer: summarize.NewGeminiSummarizer(client),
		encoder:    encoder,
		converter:  convert.Select(cfg.CloudConvertAPIKey, cfg.SofficeBinary),
		stamper:    overlay.NewStamper(),
		notifier:   notify.NewSMTPNotifier(cfg.Email.Sender, cfg.Email.Password, cfg.Email.SMTPHost, cfg.Email.SMTPPort),
		outputDir:  cfg.OutputDir,
		close:      client.Close,
	}, nil
}

// Close releases the summarization client.
func (r *Runner) Close() error {
	if r.close != nil {
		return r.close()
	}
	return nil
}

// Run executes the stages strictly in order, stopping at the first
// failure. Artifacts produced before a failure are left on disk; only the
// temporary converted PDF is deleted, and only on full success. The
// returned RunResult always captures the outcome — stage failures never
// escape as errors.
func (r *Runner) Run(ctx context.Context, opts RunOptions) *RunResult {
	result := &RunResult{
		Timestamp: time.Now(),
		InputFile: opts.InputPath,
	}

	runID := opts.RunID
	if runID == "" {
		runID = NewRunID()
	}
	name := stem(opts.InputPath)

	if err := os.MkdirAll(r.outputDir, 0755); err != nil {
		return r.fail(result, StageExtract, fmt.Errorf("cannot create output directory: %w", err))
	}

	fmt.Printf("Step 1/6: Extracting text from %s...\n", opts.InputPath)
	text, err := r.extractor.Extract(opts.InputPath)
	if err != nil {
		return r.fail(result, StageExtract, err)
	}
	result.TextLength = utf8.RuneCountInString(text)

	fmt.Printf("Step 2/6: Generating summary (%d characters of text)...\n", result.TextLength)
	summary, err := r.summarizer.Summarize(ctx, text)
	if err != nil {
		return r.fail(result, StageSummarize, err)
	}
	result.Summary = summary

	fmt.Printf("Step 3/6: Encoding summary into code image...\n")
	qrPath := filepath.Join(r.outputDir, fmt.Sprintf("%s_qr_%s.png", name, runID))
	if _, err := r.encoder.Encode(ctx, summary, qrPath); err != nil {
		return r.fail(result, StageEncode, err)
	}
	result.QRCodePath = qrPath

	fmt.Printf("Step 4/6: Converting document to PDF...\n")
	tempPDF := filepath.Join(r.outputDir, fmt.Sprintf("%s_temp_%s.pdf", name, runID))
	if _, err := r.converter.Convert(ctx, opts.InputPath, tempPDF); err != nil {
		return r.fail(result, StageConvert, err)
	}

	fmt.Printf("Step 5/6: Stamping code image onto every page...\n")
	finalPDF := filepath.Join(r.outputDir, fmt.Sprintf("%s_final_%s.pdf", name, runID))
	if _, err := r.stamper.Overlay(tempPDF, qrPath, finalPDF); err != nil {
		return r.fail(result, StageOverlay, err)
	}
	result.FinalPDFPath = finalPDF

	// The converted intermediate has served its purpose; the annotated
	// document is the durable artifact.
	_ = os.Remove(tempPDF)

	if opts.SendEmail && opts.Recipient != "" {
		fmt.Printf("Step 6/6: Sending notification to %s...\n", opts.Recipient)
		if err := r.notifier.Notify(ctx, finalPDF, opts.Recipient, summary); err != nil {
			return r.fail(result, StageNotify, err)
		}
		result.EmailSent = true
	}

	result.Success = true
	fmt.Printf("Done! Annotated document at %s\n", finalPDF)
	return result
}

// fail records the failing stage and its classified error, then returns
// the terminal result. Prior artifacts are deliberately not removed.
func (r *Runner) fail(result *RunResult, stage Stage, err error) *RunResult {
	result.Success = false
	result.FailedStage = stage
	result.Error = fmt.Sprintf("%s: %v", classify(err), err)
	fmt.Printf("Run failed at stage %s: %s\n", stage, result.Error)
	return result
}

// NewRunID returns a timestamped identifier unique enough for concurrent
// runs over the same document.
func NewRunID() string {
	return time.Now().Format("20060102_150405") + "_" + uuid.NewString()[:8]
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
