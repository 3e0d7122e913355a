package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/JBRUL255/funny-video-generator/internal/pipeline"
	"github.com/JBRUL255/funny-video-generator/internal/queue"
	"github.com/JBRUL255/funny-video-generator/internal/store"
	"github.com/JBRUL255/funny-video-generator/models"
)

// Scheduler accepts a created job for background processing. The enqueue
// path never blocks on pipeline execution; Submit returns as soon as the id
// is handed off.
type Scheduler interface {
	Submit(ctx context.Context, jobID int64) error
}

// SerialWorker is the single-consumer strategy: one goroutine dequeues job
// ids FIFO and runs the pipeline for one job at a time. Enqueue order is
// completion order.
type SerialWorker struct {
	queue    queue.Queue
	store    store.JobStore
	pipeline *pipeline.Pipeline
	logger   *logrus.Entry

	stopped chan struct{}
}

func NewSerialWorker(q queue.Queue, s store.JobStore, p *pipeline.Pipeline, logger *logrus.Logger) *SerialWorker {
	return &SerialWorker{
		queue:    q,
		store:    s,
		pipeline: p,
		logger:   logger.WithField("component", "worker"),
		stopped:  make(chan struct{}),
	}
}

func (w *SerialWorker) Submit(ctx context.Context, jobID int64) error {
	return w.queue.Enqueue(ctx, jobID)
}

// Start runs the consume loop until ctx is cancelled or the stop sentinel is
// dequeued. A failed job never stops the loop; the next queued job is picked
// up regardless.
func (w *SerialWorker) Start(ctx context.Context) {
	defer close(w.stopped)
	w.logger.Info("worker started")

	for {
		jobID, err := w.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				w.logger.Info("worker stopping: context done")
				return
			}
			w.logger.WithField("error", err).Warn("dequeue failed")
			continue
		}
		if jobID == queue.StopID {
			w.logger.Info("worker stopping: stop sentinel")
			return
		}

		job, err := w.store.Get(jobID)
		if err != nil {
			w.logger.WithFields(logrus.Fields{"job_id": jobID, "error": err}).Warn("dequeued unknown job")
			continue
		}
		if job.Status != models.StatusQueued {
			w.logger.WithFields(logrus.Fields{"job_id": jobID, "status": job.Status}).Warn("skipping non-queued job")
			continue
		}

		w.pipeline.Run(ctx, job.ID, job.Topic)
	}
}

// Stop enqueues the poison sentinel and waits for the loop to drain.
func (w *SerialWorker) Stop(ctx context.Context) error {
	if err := w.queue.Enqueue(ctx, queue.StopID); err != nil {
		return err
	}
	select {
	case <-w.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SpawnScheduler is the one-goroutine-per-job strategy. Jobs may complete
// out of enqueue order; per-job state safety still holds because every
// mutation goes through the store lock.
type SpawnScheduler struct {
	store    store.JobStore
	pipeline *pipeline.Pipeline
	logger   *logrus.Entry
	wg       sync.WaitGroup
}

func NewSpawnScheduler(s store.JobStore, p *pipeline.Pipeline, logger *logrus.Logger) *SpawnScheduler {
	return &SpawnScheduler{
		store:    s,
		pipeline: p,
		logger:   logger.WithField("component", "scheduler"),
	}
}

func (s *SpawnScheduler) Submit(ctx context.Context, jobID int64) error {
	job, err := s.store.Get(jobID)
	if err != nil {
		return err
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		// ctx is request-scoped and may be recycled by the server once the
		// enqueue response is written; the job must not hold on to it.
		s.pipeline.Run(context.Background(), job.ID, job.Topic)
	}()
	return nil
}

// Wait blocks until all spawned jobs have finished.
func (s *SpawnScheduler) Wait() {
	s.wg.Wait()
}
