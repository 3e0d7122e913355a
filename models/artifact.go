package models

import "time"

// VideoArtifact is the record of one successfully produced video file.
type VideoArtifact struct {
	Filename  string            `json:"filename"`
	CreatedAt time.Time         `json:"created_at"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	RemoteURL string            `json:"remote_url,omitempty"`
}
