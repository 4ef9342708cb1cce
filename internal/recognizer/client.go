package recognizer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// actionLabels maps the service's numeric label to an action name. The
// table is fixed and ordered; anything outside it is a hard error.
var actionLabels = []string{
	"brush_hair",
	"cartwheel",
	"catch",
	"chew",
	"clap",
	"climb",
}

// ActionName returns the action for a numeric label, or a LabelError when
// the label falls outside the table.
func ActionName(label int) (string, error) {
	if label < 0 || label >= len(actionLabels) {
		return "", &LabelError{Label: label, Max: len(actionLabels) - 1}
	}
	return actionLabels[label], nil
}

// Result is the typed outcome of a recognition call.
type Result struct {
	Action     string
	Confidence float64
	Details    map[string]any
}

// LabelError indicates the service returned a label outside the declared
// table. It is never silently defaulted.
type LabelError struct {
	Label int
	Max   int
}

func (e *LabelError) Error() string {
	return fmt.Sprintf("recognition label %d outside table [0..%d]", e.Label, e.Max)
}

// ServiceError indicates the recognition service returned a non-2xx
// response, an unparsable body, or could not be reached at all.
type ServiceError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("recognition service: %v", e.Err)
	}
	return fmt.Sprintf("recognition service returned %d: %s", e.StatusCode, e.Body)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// Client talks to the remote action-recognition service. It is long-lived;
// construct once at startup and inject.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

func NewClient(endpoint string, timeout time.Duration) *Client {
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// wire shape of the service response; extra fields are preserved in
// Result.Details.
type recognizeResponse struct {
	Label      *int     `json:"label"`
	Confidence *float64 `json:"confidence"`
}

// Recognize uploads the file at path and maps the service's numeric label
// through the action table. A missing confidence field defaults to 1.0; an
// explicit value, including 0, is passed through unchanged.
func (c *Client) Recognize(ctx context.Context, path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, &ServiceError{Err: fmt.Errorf("open %s: %w", path, err)}
	}
	defer f.Close()

	// Stream the multipart body instead of buffering the whole file; batch
	// uploads run several of these concurrently.
	pr, pw := io.Pipe()
	w := multipart.NewWriter(pw)
	go func() {
		part, err := w.CreateFormFile("file", filepath.Base(path))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, f); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(w.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, pr)
	if err != nil {
		return Result{}, &ServiceError{Err: err}
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, &ServiceError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, &ServiceError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, &ServiceError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return parseResponse(body)
}

func parseResponse(body []byte) (Result, error) {
	var wire recognizeResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		return Result{}, &ServiceError{Err: fmt.Errorf("parse response: %w", err)}
	}
	if wire.Label == nil {
		return Result{}, &ServiceError{Err: fmt.Errorf("response missing label field")}
	}

	action, err := ActionName(*wire.Label)
	if err != nil {
		return Result{}, err
	}

	confidence := 1.0
	if wire.Confidence != nil {
		confidence = *wire.Confidence
	}

	var details map[string]any
	if err := json.Unmarshal(body, &details); err != nil {
		details = nil
	}

	return Result{Action: action, Confidence: confidence, Details: details}, nil
}
