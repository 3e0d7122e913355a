package store

import (
	"encoding/json"
	"fmt"
	"time"

	postgrest "github.com/supabase-community/postgrest-go"

	"github.com/JBRUL255/funny-video-generator/models"
)

const videosTable = "videos"

// videoRow maps to the videos table in Supabase.
type videoRow struct {
	Filename  string          `json:"filename"`
	RemoteURL *string         `json:"remote_url,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"created_at,omitempty"`
}

// RemoteRecorder mirrors artifact records into a Supabase table through
// PostgREST. It is strictly best-effort; the local store stays authoritative.
type RemoteRecorder struct {
	client *postgrest.Client
}

// NewRemoteRecorder builds a recorder against the given Supabase project.
func NewRemoteRecorder(supabaseURL, serviceKey string) (*RemoteRecorder, error) {
	client := postgrest.NewClient(supabaseURL+"/rest/v1", "", map[string]string{
		"apikey":        serviceKey,
		"Authorization": fmt.Sprintf("Bearer %s", serviceKey),
	})
	if client.ClientError != nil {
		return nil, fmt.Errorf("init postgrest client: %w", client.ClientError)
	}
	return &RemoteRecorder{client: client}, nil
}

// Record inserts one artifact row.
func (r *RemoteRecorder) Record(artifact models.VideoArtifact) error {
	metaBytes, err := json.Marshal(artifact.Metadata)
	if err != nil {
		return fmt.Errorf("marshal artifact metadata: %w", err)
	}

	row := videoRow{
		Filename:  artifact.Filename,
		Metadata:  metaBytes,
		CreatedAt: artifact.CreatedAt,
	}
	if artifact.RemoteURL != "" {
		row.RemoteURL = &artifact.RemoteURL
	}

	var results []videoRow
	_, err = r.client.From(videosTable).Insert(row, false, "representation", "", "").ExecuteTo(&results)
	if err != nil {
		return fmt.Errorf("insert artifact row %s: %w", artifact.Filename, err)
	}
	return nil
}
