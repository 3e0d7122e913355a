package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/JBRUL255/funny-video-generator/models"
)

// MemoryStore keeps jobs and artifact records in mutex-guarded maps. Artifact
// metadata is additionally written as a JSON sidecar next to each video file
// so produced artifacts stay discoverable across restarts by scanning the
// output directory.
type MemoryStore struct {
	mu        sync.Mutex
	nextID    int64
	jobs      map[int64]*models.Job
	artifacts []models.VideoArtifact

	outputDir string
	logger    *logrus.Entry

	// Best-effort remote mirror of artifact records. May be nil.
	recorder *RemoteRecorder
}

func NewMemoryStore(outputDir string, logger *logrus.Logger) *MemoryStore {
	return &MemoryStore{
		nextID:    0,
		jobs:      make(map[int64]*models.Job),
		outputDir: outputDir,
		logger:    logger.WithField("component", "store"),
	}
}

// WithRemoteRecorder attaches a remote artifact recorder. Failures on the
// remote side never fail local persistence.
func (s *MemoryStore) WithRemoteRecorder(r *RemoteRecorder) *MemoryStore {
	s.recorder = r
	return s
}

func (s *MemoryStore) Create(topic string) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	now := time.Now().UTC()
	job := &models.Job{
		ID:        s.nextID,
		Topic:     topic,
		Status:    models.StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.jobs[job.ID] = job

	snapshot := *job
	return &snapshot, nil
}

func (s *MemoryStore) Update(id int64, mutate func(*models.Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("job %d: %w", id, models.ErrNotFound)
	}
	if job.Status.Terminal() {
		// Terminal jobs never change again.
		return nil
	}
	mutate(job)
	job.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryStore) Get(id int64) (models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return models.Job{}, fmt.Errorf("job %d: %w", id, models.ErrNotFound)
	}
	return *job, nil
}

func (s *MemoryStore) RecordArtifact(artifact models.VideoArtifact) error {
	if artifact.CreatedAt.IsZero() {
		artifact.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	s.artifacts = append(s.artifacts, artifact)
	s.mu.Unlock()

	if err := s.writeSidecar(artifact); err != nil {
		s.logger.WithField("error", err).Warn("could not persist artifact sidecar")
	}

	if s.recorder != nil {
		if err := s.recorder.Record(artifact); err != nil {
			s.logger.WithFields(logrus.Fields{
				"filename": artifact.Filename,
				"error":    err,
			}).Warn("remote artifact record failed")
		}
	}
	return nil
}

func (s *MemoryStore) ListArtifacts() ([]models.VideoArtifact, error) {
	s.mu.Lock()
	known := make([]models.VideoArtifact, len(s.artifacts))
	copy(known, s.artifacts)
	s.mu.Unlock()

	seen := make(map[string]bool, len(known))
	for _, a := range known {
		seen[a.Filename] = true
	}

	// Merge in files found on disk that have no in-memory record, e.g.
	// artifacts produced before a restart.
	for _, a := range s.scanOutputDir() {
		if !seen[a.Filename] {
			known = append(known, a)
			seen[a.Filename] = true
		}
	}

	sort.Slice(known, func(i, j int) bool {
		return known[i].CreatedAt.After(known[j].CreatedAt)
	})
	return known, nil
}

func (s *MemoryStore) CountArtifactsSince(t time.Time) (int, error) {
	all, err := s.ListArtifacts()
	if err != nil {
		return 0, err
	}
	count := 0
	for _, a := range all {
		if !a.CreatedAt.Before(t) {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) writeSidecar(artifact models.VideoArtifact) error {
	if s.outputDir == "" {
		return nil
	}
	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(s.outputDir, artifact.Filename+".json")
	return os.WriteFile(path, data, 0644)
}

func (s *MemoryStore) scanOutputDir() []models.VideoArtifact {
	if s.outputDir == "" {
		return nil
	}
	entries, err := os.ReadDir(s.outputDir)
	if err != nil {
		return nil
	}

	var found []models.VideoArtifact
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".mp4") {
			continue
		}
		artifact := models.VideoArtifact{Filename: name}
		if data, err := os.ReadFile(filepath.Join(s.outputDir, name+".json")); err == nil {
			_ = json.Unmarshal(data, &artifact)
			artifact.Filename = name
		}
		if artifact.CreatedAt.IsZero() {
			if info, err := entry.Info(); err == nil {
				artifact.CreatedAt = info.ModTime().UTC()
			}
		}
		found = append(found, artifact)
	}
	return found
}
