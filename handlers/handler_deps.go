package handlers

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/JBRUL255/funny-video-generator/internal/store"
)

// JobSubmitter is what handlers expect from the scheduler: hand a created
// job id to the background worker without blocking on the pipeline.
type JobSubmitter interface {
	Submit(ctx context.Context, jobID int64) error
}

// QuotaChecker exposes whether the daily cap is already met so enqueue can
// reject new jobs up front with 429 instead of creating doomed ones.
type QuotaChecker interface {
	QuotaReached() bool
}

// ApplicationHandler holds shared dependencies for handlers.
type ApplicationHandler struct {
	Store     store.JobStore
	Scheduler JobSubmitter
	Quota     QuotaChecker
	Logger    *logrus.Logger
	Validate  *validator.Validate

	OutputDir string
}

// NewApplicationHandler creates an ApplicationHandler with the given
// dependencies.
func NewApplicationHandler(jobStore store.JobStore, scheduler JobSubmitter, quota QuotaChecker, logger *logrus.Logger, outputDir string) *ApplicationHandler {
	return &ApplicationHandler{
		Store:     jobStore,
		Scheduler: scheduler,
		Quota:     quota,
		Logger:    logger,
		Validate:  validator.New(),
		OutputDir: outputDir,
	}
}
