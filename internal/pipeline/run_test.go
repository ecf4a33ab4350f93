package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apereira/docstamp/internal/convert"
	"github.com/apereira/docstamp/internal/extract"
	"github.com/apereira/docstamp/internal/notify"
	"github.com/apereira/docstamp/internal/overlay"
	"github.com/apereira/docstamp/internal/qrcode"
	"github.com/apereira/docstamp/internal/summarize"
)

// Stage fakes. Each records whether it ran so tests can assert the
// stop-at-first-failure policy.

type fakeExtractor struct {
	text   string
	err    error
	called bool
}

func (f *fakeExtractor) Extract(string) (string, error) {
	f.called = true
	return f.text, f.err
}

type fakeSummarizer struct {
	summary string
	err     error
	called  bool
}

func (f *fakeSummarizer) Summarize(context.Context, string) (string, error) {
	f.called = true
	return f.summary, f.err
}

type fakeEncoder struct {
	err      error
	called   bool
	gotText  string
	lastPath string
}

func (f *fakeEncoder) Encode(_ context.Context, text, destination string) (string, error) {
	f.called = true
	f.gotText = text
	f.lastPath = destination
	if f.err != nil {
		return "", f.err
	}
	if err := os.WriteFile(destination, []byte("png"), 0644); err != nil {
		return "", err
	}
	return destination, nil
}

type fakeConverter struct {
	err    error
	called bool
}

func (f *fakeConverter) Convert(_ context.Context, _, destPath string) (string, error) {
	f.called = true
	if f.err != nil {
		return "", f.err
	}
	if err := os.WriteFile(destPath, []byte("%PDF-1.4 converted"), 0644); err != nil {
		return "", err
	}
	return destPath, nil
}

type fakeStamper struct {
	err    error
	called bool
}

func (f *fakeStamper) Overlay(sourcePath, _, destPath string) (string, error) {
	f.called = true
	if f.err != nil {
		return "", f.err
	}
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(destPath, append(data, []byte(" stamped")...), 0644); err != nil {
		return "", err
	}
	return destPath, nil
}

type fakeNotifier struct {
	err          error
	called       bool
	gotArtifact  string
	gotRecipient string
	gotBody      string
}

func (f *fakeNotifier) Notify(_ context.Context, artifactPath, recipient, bodyText string) error {
	f.called = true
	f.gotArtifact = artifactPath
	f.gotRecipient = recipient
	f.gotBody = bodyText
	return f.err
}

// testRunner assembles a Runner over fakes with an all-success default.
type testRunner struct {
	runner     *Runner
	extractor  *fakeExtractor
	summarizer *fakeSummarizer
	encoder    *fakeEncoder
	converter  *fakeConverter
	stamper    *fakeStamper
	notifier   *fakeNotifier
}

func newTestRunner(t *testing.T) *testRunner {
	t.Helper()

	tr := &testRunner{
		extractor:  &fakeExtractor{text: "Cláusula 1.\nCláusula 2."},
		summarizer: &fakeSummarizer{summary: "Contract terminates in 30 days."},
		encoder:    &fakeEncoder{},
		converter:  &fakeConverter{},
		stamper:    &fakeStamper{},
		notifier:   &fakeNotifier{},
	}
	tr.runner = &Runner{
		extractor:  tr.extractor,
		summarizer: tr.summarizer,
		encoder:    tr.encoder,
		converter:  tr.converter,
		stamper:    tr.stamper,
		notifier:   tr.notifier,
		outputDir:  t.TempDir(),
	}
	return tr
}

func TestRun_SuccessWithoutNotification(t *testing.T) {
	tr := newTestRunner(t)

	result := tr.runner.Run(context.Background(), RunOptions{
		InputPath: "/docs/contract.docx",
		RunID:     "run1",
	})

	require.True(t, result.Success)
	assert.Empty(t, result.Error)
	assert.Equal(t, "/docs/contract.docx", result.InputFile)
	assert.Greater(t, result.TextLength, 0)
	assert.Equal(t, "Contract terminates in 30 days.", result.Summary)
	assert.False(t, result.EmailSent)
	assert.False(t, tr.notifier.called)

	// The encoder received exactly the summary text.
	assert.Equal(t, "Contract terminates in 30 days.", tr.encoder.gotText)

	assert.FileExists(t, result.QRCodePath)
	assert.FileExists(t, result.FinalPDFPath)

	// The converted intermediate is cleaned up on success.
	temp := filepath.Join(tr.runner.outputDir, "contract_temp_run1.pdf")
	assert.NoFileExists(t, temp)
}

func TestRun_SuccessWithNotification(t *testing.T) {
	tr := newTestRunner(t)

	result := tr.runner.Run(context.Background(), RunOptions{
		InputPath: "/docs/contract.docx",
		Recipient: "dest@example.com",
		SendEmail: true,
		RunID:     "run1",
	})

	require.True(t, result.Success)
	assert.True(t, result.EmailSent)
	assert.True(t, tr.notifier.called)
	assert.Equal(t, result.FinalPDFPath, tr.notifier.gotArtifact)
	assert.Equal(t, "dest@example.com", tr.notifier.gotRecipient)
	assert.Equal(t, result.Summary, tr.notifier.gotBody)
}

func TestRun_NoNotificationWithoutFlag(t *testing.T) {
	tr := newTestRunner(t)

	result := tr.runner.Run(context.Background(), RunOptions{
		InputPath: "/docs/contract.docx",
		Recipient: "dest@example.com",
		SendEmail: false,
	})

	require.True(t, result.Success)
	assert.False(t, result.EmailSent)
	assert.False(t, tr.notifier.called)
}

func TestRun_NoNotificationWithoutRecipient(t *testing.T) {
	tr := newTestRunner(t)

	result := tr.runner.Run(context.Background(), RunOptions{
		InputPath: "/docs/contract.docx",
		SendEmail: true,
	})

	require.True(t, result.Success)
	assert.False(t, tr.notifier.called)
}

func TestRun_StopsAtExtractionFailure(t *testing.T) {
	tr := newTestRunner(t)
	tr.extractor.err = &extract.Error{Path: "/docs/contract.docx", Message: "cannot open document archive"}
	tr.extractor.text = ""

	result := tr.runner.Run(context.Background(), RunOptions{InputPath: "/docs/contract.docx"})

	require.False(t, result.Success)
	assert.Equal(t, StageExtract, result.FailedStage)
	assert.Contains(t, result.Error, "ExtractionError")
	assert.False(t, tr.summarizer.called)
	assert.False(t, tr.encoder.called)
	assert.False(t, tr.converter.called)
}

func TestRun_ConversionServiceFailure(t *testing.T) {
	tr := newTestRunner(t)
	tr.converter.err = &convert.ServiceError{Message: "conversion job reported terminal error status"}

	result := tr.runner.Run(context.Background(), RunOptions{
		InputPath: "/docs/contract.docx",
		RunID:     "run1",
	})

	require.False(t, result.Success)
	assert.Equal(t, StageConvert, result.FailedStage)
	assert.Contains(t, result.Error, "ConversionServiceError")

	// No annotated document exists and no later stage ran.
	assert.Empty(t, result.FinalPDFPath)
	assert.NoFileExists(t, filepath.Join(tr.runner.outputDir, "contract_final_run1.pdf"))
	assert.False(t, tr.stamper.called)
	assert.False(t, tr.notifier.called)

	// Artifacts from earlier stages are not unwound.
	assert.FileExists(t, result.QRCodePath)
}

func TestRun_NotificationFailureFailsRun(t *testing.T) {
	tr := newTestRunner(t)
	tr.notifier.err = &notify.SendError{Message: "authentication failed"}

	result := tr.runner.Run(context.Background(), RunOptions{
		InputPath: "/docs/contract.docx",
		Recipient: "dest@example.com",
		SendEmail: true,
	})

	require.False(t, result.Success)
	assert.Equal(t, StageNotify, result.FailedStage)
	assert.Contains(t, result.Error, "NotificationError")
	assert.False(t, result.EmailSent)

	// The document artifacts already exist and stay on disk.
	assert.FileExists(t, result.QRCodePath)
	assert.FileExists(t, result.FinalPDFPath)
}

func TestRun_SummaryFailure(t *testing.T) {
	tr := newTestRunner(t)
	tr.summarizer.err = &summarize.ServiceError{Message: "service returned an empty summary"}
	tr.summarizer.summary = ""

	result := tr.runner.Run(context.Background(), RunOptions{InputPath: "/docs/contract.docx"})

	require.False(t, result.Success)
	assert.Equal(t, StageSummarize, result.FailedStage)
	assert.Contains(t, result.Error, "SummaryServiceError")
	// Text length from the completed extract stage is still reported.
	assert.Greater(t, result.TextLength, 0)
}

func TestRun_RepeatedRunsAgree(t *testing.T) {
	tr := newTestRunner(t)

	first := tr.runner.Run(context.Background(), RunOptions{InputPath: "/docs/contract.docx", RunID: "a"})
	second := tr.runner.Run(context.Background(), RunOptions{InputPath: "/docs/contract.docx", RunID: "b"})

	require.True(t, first.Success)
	require.True(t, second.Success)
	assert.Equal(t, first.Summary, second.Summary)
	assert.Equal(t, first.TextLength, second.TextLength)
	assert.NotEqual(t, first.FinalPDFPath, second.FinalPDFPath)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind string
	}{
		{"extraction", &extract.Error{Message: "x"}, KindExtraction},
		{"summary service", &summarize.ServiceError{Message: "x"}, KindSummaryService},
		{"encoding", &qrcode.EncodingError{Message: "x"}, KindEncoding},
		{"conversion timeout", &convert.TimeoutError{}, KindConversionTimeout},
		{"conversion service", &convert.ServiceError{Message: "x"}, KindConversionService},
		{"conversion process", &convert.ProcessError{Output: "x"}, KindConversionProcess},
		{"converter not found", &convert.NotFoundError{Binary: "soffice"}, KindConverterNotFound},
		{"overlay", &overlay.Error{Message: "x"}, KindOverlay},
		{"configuration", &notify.ConfigurationError{Missing: "x"}, KindConfiguration},
		{"notification", &notify.SendError{Message: "x"}, KindNotification},
		{"unclassified", errors.New("boom"), KindPipeline},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, classify(tt.err))
		})
	}
}

func TestNewRunID_Distinct(t *testing.T) {
	assert.NotEqual(t, NewRunID(), NewRunID())
}
