package convert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"time"
)

const (
	// DefaultBaseURL is the production conversion service endpoint.
	DefaultBaseURL = "https://api.cloudconvert.com/v2"

	// DefaultPollInterval is how often the job resource is polled.
	DefaultPollInterval = 2 * time.Second

	// DefaultPollCeiling bounds the total wait for a terminal job state.
	DefaultPollCeiling = 60 * time.Second
)

// Job task names used in the create-job request. The service echoes them
// back, and the client locates the upload form and export result by name.
const (
	importTaskName  = "import-source"
	convertTaskName = "convert-source"
	exportTaskName  = "export-source"
)

// Terminal job statuses.
const (
	statusFinished = "finished"
	statusError    = "error"
)

// CloudConvertConverter drives the remote three-phase job protocol:
// create a job, upload the source bytes to the returned signed form
// target, poll the job until terminal, then download the result.
type CloudConvertConverter struct {
	APIKey       string
	BaseURL      string
	PollInterval time.Duration
	PollCeiling  time.Duration
	Client       *http.Client
}

// NewCloudConvertConverter creates a converter against the production
// service with default polling behavior.
func NewCloudConvertConverter(apiKey string) *CloudConvertConverter {
	return &CloudConvertConverter{
		APIKey:       apiKey,
		BaseURL:      DefaultBaseURL,
		PollInterval: DefaultPollInterval,
		PollCeiling:  DefaultPollCeiling,
		Client:       &http.Client{Timeout: 30 * time.Second},
	}
}

type jobEnvelope struct {
	Data jobData `json:"data"`
}

type jobData struct {
	ID     string    `json:"id"`
	Status string    `json:"status"`
	Tasks  []jobTask `json:"tasks"`
}

type jobTask struct {
	Name   string      `json:"name"`
	Result *taskResult `json:"result,omitempty"`
}

type taskResult struct {
	Form  *uploadForm  `json:"form,omitempty"`
	Files []resultFile `json:"files,omitempty"`
}

type uploadForm struct {
	URL        string            `json:"url"`
	Parameters map[string]string `json:"parameters"`
}

type resultFile struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

// Convert runs the full job protocol. The destination file is only written
// after the job reaches terminal success, so a timeout leaves nothing at
// destPath.
func (c *CloudConvertConverter) Convert(ctx context.Context, sourcePath, destPath string) (string, error) {
	job, err := c.createJob(ctx)
	if err != nil {
		return "", err
	}

	form, err := findUploadForm(job)
	if err != nil {
		return "", err
	}
	if err := c.uploadSource(ctx, form, sourcePath); err != nil {
		return "", err
	}

	final, err := c.pollJob(ctx, job.Data.ID)
	if err != nil {
		return "", err
	}

	fileURL, err := findExportURL(final)
	if err != nil {
		return "", err
	}
	if err := c.downloadResult(ctx, fileURL, destPath); err != nil {
		return "", err
	}

	return destPath, nil
}

// createJob declares the import/convert/export task graph.
func (c *CloudConvertConverter) createJob(ctx context.Context) (*jobEnvelope, error) {
	payload := map[string]any{
		"tasks": map[string]any{
			importTaskName: map[string]any{
				"operation": "import/upload",
			},
			convertTaskName: map[string]any{
				"operation":     "convert",
				"input":         importTaskName,
				"output_format": "pdf",
			},
			exportTaskName: map[string]any{
				"operation": "export/url",
				"input":     convertTaskName,
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &ServiceError{Message: "failed to encode job request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/jobs", bytes.NewReader(body))
	if err != nil {
		return nil, &ServiceError{Message: "failed to create job request", Cause: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	var job jobEnvelope
	if err := c.doJSON(req, &job); err != nil {
		return nil, err
	}
	if job.Data.ID == "" {
		return nil, &ServiceError{Message: "job response has no id"}
	}
	return &job, nil
}

// uploadSource posts the source bytes to the signed form target returned by
// the import task, form parameters first, file part last.
func (c *CloudConvertConverter) uploadSource(ctx context.Context, form *uploadForm, sourcePath string) error {
	src, err := os.Open(sourcePath)
	if err != nil {
		return &ServiceError{Message: "cannot open source document", Cause: err}
	}
	defer src.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for key, value := range form.Parameters {
		if err := mw.WriteField(key, value); err != nil {
			return &ServiceError{Message: "failed to build upload form", Cause: err}
		}
	}
	part, err := mw.CreateFormFile("file", stem(sourcePath)+".docx")
	if err != nil {
		return &ServiceError{Message: "failed to build upload form", Cause: err}
	}
	if _, err := io.Copy(part, src); err != nil {
		return &ServiceError{Message: "failed to read source document", Cause: err}
	}
	if err := mw.Close(); err != nil {
		return &ServiceError{Message: "failed to finalize upload form", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, form.URL, &body)
	if err != nil {
		return &ServiceError{Message: "failed to create upload request", Cause: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.Client.Do(req)
	if err != nil {
		return &ServiceError{Message: "upload failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 300 {
		return &ServiceError{Message: fmt.Sprintf("upload returned HTTP status %d", resp.StatusCode)}
	}
	return nil
}

// pollJob checks the job resource at the configured interval until it
// reaches a terminal state or the ceiling elapses.
func (c *CloudConvertConverter) pollJob(ctx context.Context, jobID string) (*jobEnvelope, error) {
	deadline := time.Now().Add(c.PollCeiling)

	for time.Now().Before(deadline) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/jobs/"+jobID, nil)
		if err != nil {
			return nil, &ServiceError{Message: "failed to create poll request", Cause: err}
		}
		req.Header.Set("Authorization", "Bearer "+c.APIKey)

		var job jobEnvelope
		if err := c.doJSON(req, &job); err != nil {
			if ctx.Err() != nil {
				return nil, &TimeoutError{Ceiling: c.PollCeiling}
			}
			return nil, err
		}

		switch job.Data.Status {
		case statusFinished:
			return &job, nil
		case statusError:
			return nil, &ServiceError{Message: "conversion job reported terminal error status"}
		}

		select {
		case <-ctx.Done():
			// Interruption counts as a timeout for the caller.
			return nil, &TimeoutError{Ceiling: c.PollCeiling}
		case <-time.After(c.PollInterval):
		}
	}

	return nil, &TimeoutError{Ceiling: c.PollCeiling}
}

// downloadResult fetches the exported file and persists it to destPath.
func (c *CloudConvertConverter) downloadResult(ctx context.Context, fileURL, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return &ServiceError{Message: "failed to create download request", Cause: err}
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return &ServiceError{Message: "download failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return &ServiceError{Message: fmt.Sprintf("download returned HTTP status %d", resp.StatusCode)}
	}

	out, err := os.Create(destPath)
	if err != nil {
		return &ServiceError{Message: "cannot create destination file", Cause: err}
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return &ServiceError{Message: "failed to write converted document", Cause: err}
	}
	return nil
}

// doJSON executes req and decodes a JSON envelope, mapping transport and
// non-success statuses to ServiceError.
func (c *CloudConvertConverter) doJSON(req *http.Request, out any) error {
	resp, err := c.Client.Do(req)
	if err != nil {
		return &ServiceError{Message: "request to conversion service failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		return &ServiceError{Message: fmt.Sprintf("conversion service returned HTTP status %d", resp.StatusCode)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ServiceError{Message: "malformed conversion service response", Cause: err}
	}
	return nil
}

// findUploadForm locates the import task's signed upload form.
func findUploadForm(job *jobEnvelope) (*uploadForm, error) {
	for _, task := range job.Data.Tasks {
		if task.Name == importTaskName && task.Result != nil && task.Result.Form != nil {
			return task.Result.Form, nil
		}
	}
	return nil, &ServiceError{Message: "job response has no upload form"}
}

// findExportURL locates the export task's first result file.
func findExportURL(job *jobEnvelope) (string, error) {
	for _, task := range job.Data.Tasks {
		if task.Name == exportTaskName && task.Result != nil && len(task.Result.Files) > 0 {
			return task.Result.Files[0].URL, nil
		}
	}
	return "", &ServiceError{Message: "finished job has no exported file"}
}
