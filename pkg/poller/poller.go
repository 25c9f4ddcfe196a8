// Package poller is the client-side collaborator of the status endpoint:
// it queries a job's state on a fixed cadence until the job reaches a
// terminal status or the wait budget runs out.
package poller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrGiveUp is returned when the job did not reach a terminal state
	// within MaxWait.
	ErrGiveUp = errors.New("gave up waiting for job")
	// ErrNotFound is returned when the server does not know the job id,
	// either because it never existed or because it was swept.
	ErrNotFound = errors.New("job not found")
)

// Job mirrors the status endpoint's response.
type Job struct {
	ID     string `json:"id"`
	Prompt string `json:"prompt"`
	Status string `json:"status"`
	Image  string `json:"image,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Terminal reports whether the job has reached a final state.
func (j Job) Terminal() bool {
	return j.Status == "completed" || j.Status == "failed"
}

// Poller polls the status endpoint at a fixed interval with an explicit
// upper bound on total wait.
type Poller struct {
	Interval   time.Duration
	MaxWait    time.Duration
	HTTPClient *http.Client
}

// New creates a poller with the given cadence and wait budget.
func New(interval, maxWait time.Duration) *Poller {
	return &Poller{Interval: interval, MaxWait: maxWait}
}

// Wait polls baseURL's status endpoint for jobID until the job is terminal.
// It returns the final record, or an error on 404, transport failure,
// context cancellation, or an exhausted wait budget.
func (p *Poller) Wait(ctx context.Context, baseURL, jobID string) (Job, error) {
	interval := p.Interval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	client := p.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	if p.MaxWait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, p.MaxWait, ErrGiveUp)
		defer cancel()
	}

	url := strings.TrimRight(baseURL, "/") + "/api/status/" + jobID

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		job, err := fetch(ctx, client, url)
		if err != nil {
			if ctxErr := giveUpErr(ctx); ctxErr != nil {
				return Job{}, ctxErr
			}
			return Job{}, err
		}
		if job.Terminal() {
			return job, nil
		}

		select {
		case <-ctx.Done():
			return Job{}, giveUpErr(ctx)
		case <-ticker.C:
		}
	}
}

func fetch(ctx context.Context, client *http.Client, url string) (Job, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Job{}, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return Job{}, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return Job{}, ErrNotFound
	default:
		return Job{}, fmt.Errorf("status endpoint returned %d", resp.StatusCode)
	}

	var job Job
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return Job{}, fmt.Errorf("decode status response: %w", err)
	}
	return job, nil
}

func giveUpErr(ctx context.Context) error {
	if ctx.Err() == nil {
		return nil
	}
	if cause := context.Cause(ctx); cause != nil {
		return cause
	}
	return ctx.Err()
}
