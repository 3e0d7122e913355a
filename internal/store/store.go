package store

import (
	"time"

	"github.com/JBRUL255/funny-video-generator/models"
)

// JobStore is the single source of truth for job and artifact state. It is
// injected into both the enqueue path and the worker so the synchronization
// boundary lives in one place.
type JobStore interface {
	// Create allocates a new id and persists the job with status queued.
	// Safe under concurrent callers; ids are unique and strictly increasing.
	Create(topic string) (*models.Job, error)

	// Update applies mutate to the job under the store lock and refreshes
	// UpdatedAt. Unknown ids return models.ErrNotFound. Jobs already in a
	// terminal state are not mutated again.
	Update(id int64, mutate func(*models.Job)) error

	// Get returns a snapshot copy of the job.
	Get(id int64) (models.Job, error)

	// RecordArtifact registers a successfully produced video file.
	RecordArtifact(artifact models.VideoArtifact) error

	// ListArtifacts returns all known artifacts, most recent first.
	ListArtifacts() ([]models.VideoArtifact, error)

	// CountArtifactsSince returns how many artifacts were produced at or
	// after t. Used for daily quota accounting: completed videos count,
	// failed attempts do not.
	CountArtifactsSince(t time.Time) (int, error)
}
