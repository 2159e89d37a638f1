// Package raidbots talks to Raidbots: job status over HTTP and Droptimizer
// submission through a headless browser.
package raidbots

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonathan/wishlist-sync/internal/types"
)

// DefaultBaseURL is the public Raidbots site.
const DefaultBaseURL = "https://www.raidbots.com"

// DefaultTimeout bounds a single status request.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent mimics a desktop Chrome; Raidbots rejects obvious bots on the job API.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/132.0.0.0 Safari/537.36"

// noJobMessage is the body Raidbots returns once a job has left the queue.
const noJobMessage = "No job found"

// Error represents a failed Raidbots request.
type Error struct {
	URL        string
	Message    string
	StatusCode int
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("raidbots error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("raidbots error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures the status client.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// DefaultOptions returns sensible defaults for status queries.
func DefaultOptions() *Options {
	return &Options{
		BaseURL:   DefaultBaseURL,
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
	}
}

// StatusClient queries the Raidbots job API.
type StatusClient struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

// NewStatusClient creates a status client. Nil options use DefaultOptions.
func NewStatusClient(opts *Options) *StatusClient {
	if opts == nil {
		opts = DefaultOptions()
	}
	base := opts.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &StatusClient{
		baseURL:   strings.TrimRight(base, "/"),
		userAgent: ua,
		http:      &http.Client{Timeout: timeout},
	}
}

type jobResponse struct {
	Message string `json:"message"`
	Job     *struct {
		State    string   `json:"state"`
		Progress *float64 `json:"progress"`
	} `json:"job"`
	Queue *struct {
		Position *int `json:"position"`
		Total    *int `json:"total"`
	} `json:"queue"`
}

// QueryJobStatus fetches the current state of a job. A 404 or a "No job found"
// body yields a SimJob in the not_found state with a nil error. Every other
// failure is returned as *Error and should be treated as transient.
func (c *StatusClient) QueryJobStatus(ctx context.Context, jobID string) (*types.SimJob, error) {
	endpoint := c.baseURL + "/api/job/" + url.PathEscape(jobID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &Error{URL: endpoint, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{URL: endpoint, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{URL: endpoint, Message: "failed to read response body", StatusCode: resp.StatusCode, Cause: err}
	}

	if resp.StatusCode == http.StatusNotFound {
		return &types.SimJob{ID: jobID, State: types.JobNotFound}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &Error{URL: endpoint, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode), StatusCode: resp.StatusCode}
	}

	var parsed jobResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &Error{URL: endpoint, Message: "failed to decode job status", StatusCode: resp.StatusCode, Cause: err}
	}
	return parsed.toSimJob(jobID), nil
}

func (r *jobResponse) toSimJob(jobID string) *types.SimJob {
	job := &types.SimJob{ID: jobID, State: types.JobUnknown}
	if r.Job == nil {
		if r.Message == noJobMessage {
			job.State = types.JobNotFound
		}
		return job
	}

	job.State = parseState(r.Job.State)
	job.Progress = r.Job.Progress
	if r.Queue != nil {
		job.QueuePosition = r.Queue.Position
		job.QueueTotal = r.Queue.Total
	}
	return job
}

func parseState(s string) types.JobState {
	switch strings.ToLower(s) {
	case "queued", "waiting", "delayed":
		return types.JobQueued
	case "running", "active":
		return types.JobRunning
	case "complete", "completed":
		return types.JobComplete
	default:
		return types.JobUnknown
	}
}
