package finetune

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the trainer service over HTTP.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient points at a trainer service. apiKey may be empty for unsecured
// local trainers.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("finetune: request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return req, nil
}

// Submit enqueues a job and returns the trainer's job id.
func (c *Client) Submit(ctx context.Context, job Job) (string, error) {
	body, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("finetune: marshal job: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/v1/finetune", body)
	if err != nil {
		return "", err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("finetune: submit: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var snippet [512]byte
		n, _ := resp.Body.Read(snippet[:])
		return "", fmt.Errorf("finetune: submit: status %d: %s", resp.StatusCode, string(snippet[:n]))
	}

	var out struct {
		JobID string `json:"job_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("finetune: decode submit response: %w", err)
	}
	if out.JobID == "" {
		return "", fmt.Errorf("finetune: trainer returned no job_id")
	}
	return out.JobID, nil
}

// JobStatus is one poll of a submitted job.
type JobStatus struct {
	State string  `json:"state"` // pending, running, succeeded, failed
	Step  int     `json:"step"`
	Loss  float64 `json:"loss"`
	Error string  `json:"error,omitempty"`
}

// Terminal reports whether the job has finished, either way.
func (s JobStatus) Terminal() bool {
	return s.State == "succeeded" || s.State == "failed"
}

// Status fetches the current state of a job.
func (c *Client) Status(ctx context.Context, jobID string) (JobStatus, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/v1/finetune/"+url.PathEscape(jobID), nil)
	if err != nil {
		return JobStatus{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return JobStatus{}, fmt.Errorf("finetune: status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var snippet [512]byte
		n, _ := resp.Body.Read(snippet[:])
		return JobStatus{}, fmt.Errorf("finetune: status: status %d: %s", resp.StatusCode, string(snippet[:n]))
	}

	var st JobStatus
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return JobStatus{}, fmt.Errorf("finetune: decode status: %w", err)
	}
	return st, nil
}

// Await polls the job every interval until it reaches a terminal state or
// ctx is done. A failed job comes back as an error carrying the trainer's
// message.
func (c *Client) Await(ctx context.Context, jobID string, every time.Duration) (JobStatus, error) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		st, err := c.Status(ctx, jobID)
		if err != nil {
			return st, err
		}
		slog.Info("finetune: job status", "job", jobID, "state", st.State, "step", st.Step, "loss", st.Loss)
		switch st.State {
		case "succeeded":
			return st, nil
		case "failed":
			if st.Error != "" {
				return st, fmt.Errorf("finetune: job %s failed: %s", jobID, st.Error)
			}
			return st, fmt.Errorf("finetune: job %s failed", jobID)
		}

		select {
		case <-ctx.Done():
			return st, ctx.Err()
		case <-ticker.C:
		}
	}
}
