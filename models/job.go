package models

import "time"

type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusProcessing JobStatus = "processing"
	StatusDone       JobStatus = "done"
	StatusError      JobStatus = "error"
)

// Terminal reports whether a status is final. A job that reached a terminal
// status never changes again.
func (s JobStatus) Terminal() bool {
	return s == StatusDone || s == StatusError
}

// JobResult is present only on jobs that completed successfully.
type JobResult struct {
	Filename  string `json:"filename"`
	RemoteURL string `json:"remote_url,omitempty"`
}

// Job represents one request to produce a video, tracked through its lifecycle.
type Job struct {
	ID              int64      `json:"id"`
	Topic           string     `json:"topic,omitempty"`
	Status          JobStatus  `json:"status"`
	ProgressMessage string     `json:"progress_message,omitempty"`
	Attempts        int        `json:"attempts"`
	Result          *JobResult `json:"result,omitempty"`
	ErrorMessage    string     `json:"error,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
