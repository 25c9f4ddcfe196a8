package domain

import "time"

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Job encapsulates one prompt-to-image generation request and its lifecycle
// state. Status moves forward only: pending, then exactly one of completed
// or failed.
type Job struct {
	ID        string    `json:"id"`
	Prompt    string    `json:"prompt"`
	Provider  string    `json:"provider"`
	Status    JobStatus `json:"status"`
	Image     string    `json:"image,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewJob builds a pending job. CreatedAt is stamped here, not derived from
// the identifier, so retention stays decoupled from the id format.
func NewJob(id, prompt, provider string) Job {
	return Job{
		ID:        id,
		Prompt:    prompt,
		Provider:  provider,
		Status:    JobStatusPending,
		CreatedAt: time.Now().UTC(),
	}
}

// Terminal reports whether the job has reached a final state.
func (j Job) Terminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// Complete transitions the job to completed with the given base64 image.
// Returns false if the job is already terminal.
func (j *Job) Complete(imageB64 string) bool {
	if j.Terminal() {
		return false
	}
	j.Status = JobStatusCompleted
	j.Image = imageB64
	j.Error = ""
	return true
}

// Fail transitions the job to failed with a diagnostic message.
// Returns false if the job is already terminal.
func (j *Job) Fail(msg string) bool {
	if j.Terminal() {
		return false
	}
	j.Status = JobStatusFailed
	j.Error = msg
	j.Image = ""
	return true
}
