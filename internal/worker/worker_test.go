package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/JBRUL255/funny-video-generator/internal/pipeline"
	"github.com/JBRUL255/funny-video-generator/internal/queue"
	"github.com/JBRUL255/funny-video-generator/internal/store"
	"github.com/JBRUL255/funny-video-generator/models"
)

// orderedProvider records the order topics are processed in and fails on
// topics named "bad".
type orderedProvider struct {
	mu     sync.Mutex
	topics []string
	ctxs   []context.Context
}

func (p *orderedProvider) GenerateScript(ctx context.Context, topic string) (*models.Script, error) {
	p.mu.Lock()
	p.topics = append(p.topics, topic)
	p.ctxs = append(p.ctxs, ctx)
	p.mu.Unlock()
	if topic == "bad" {
		return nil, errors.New("simulated script failure")
	}
	return &models.Script{Hook: topic, Setup: "s", Punchline: "p"}, nil
}

func (p *orderedProvider) SearchClips(ctx context.Context, topic string, limit int) ([]pipeline.ClipRef, error) {
	return []pipeline.ClipRef{{URL: "https://example.com/clip.mp4"}}, nil
}

func (p *orderedProvider) FindMusic(ctx context.Context) (*pipeline.MusicRef, error) {
	return nil, nil
}

func (p *orderedProvider) Synthesize(ctx context.Context, text, outPath string) error {
	return nil
}

func (p *orderedProvider) seen() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.topics))
	copy(out, p.topics)
	return out
}

func (p *orderedProvider) seenCtxs() []context.Context {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]context.Context, len(p.ctxs))
	copy(out, p.ctxs)
	return out
}

type noopDownloader struct{}

func (noopDownloader) Download(ctx context.Context, url, destPath string) error { return nil }

type noopRenderer struct{}

func (noopRenderer) Render(ctx context.Context, input pipeline.RenderInput) error { return nil }

type testRig struct {
	store    *store.MemoryStore
	provider *orderedProvider
	worker   *SerialWorker
	queue    *queue.MemoryQueue
}

func newRig(t *testing.T) *testRig {
	t.Helper()
	logger := logrus.New()

	jobStore := store.NewMemoryStore(t.TempDir(), logger)
	provider := &orderedProvider{}
	pipe := pipeline.New(
		jobStore, provider, noopDownloader{}, noopRenderer{}, nil,
		100, 1, t.TempDir(), t.TempDir(), t.TempDir(), logger,
	)
	q := queue.NewMemoryQueue(16)
	return &testRig{
		store:    jobStore,
		provider: provider,
		worker:   NewSerialWorker(q, jobStore, pipe, logger),
		queue:    q,
	}
}

func waitTerminal(t *testing.T, s *store.MemoryStore, id int64, deadline time.Duration) models.Job {
	t.Helper()
	timeout := time.Now().Add(deadline)
	for {
		if time.Now().After(timeout) {
			t.Fatalf("job %d did not reach a terminal state in time", id)
		}
		job, err := s.Get(id)
		if err != nil {
			t.Fatalf("get job %d: %v", id, err)
		}
		if job.Status.Terminal() {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSerialWorkerProcessesFIFO(t *testing.T) {
	rig := newRig(t)
	ctx := context.Background()

	go rig.worker.Start(ctx)

	var ids []int64
	for _, topic := range []string{"cats", "dogs", "birds"} {
		job, err := rig.store.Create(topic)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if err := rig.worker.Submit(ctx, job.ID); err != nil {
			t.Fatalf("submit: %v", err)
		}
		ids = append(ids, job.ID)
	}

	for _, id := range ids {
		job := waitTerminal(t, rig.store, id, 5*time.Second)
		if job.Status != models.StatusDone {
			t.Fatalf("job %d expected done, got %s (%s)", id, job.Status, job.ErrorMessage)
		}
	}

	seen := rig.provider.seen()
	want := []string{"cats", "dogs", "birds"}
	if len(seen) != len(want) {
		t.Fatalf("expected %d processed topics, got %d", len(want), len(seen))
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("FIFO order violated: got %v", seen)
		}
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rig.worker.Stop(stopCtx); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

func TestSerialWorkerSurvivesJobFailure(t *testing.T) {
	rig := newRig(t)
	ctx := context.Background()

	go rig.worker.Start(ctx)

	bad, _ := rig.store.Create("bad")
	good, _ := rig.store.Create("cats")
	_ = rig.worker.Submit(ctx, bad.ID)
	_ = rig.worker.Submit(ctx, good.ID)

	badJob := waitTerminal(t, rig.store, bad.ID, 5*time.Second)
	if badJob.Status != models.StatusError || badJob.ErrorMessage == "" {
		t.Fatalf("expected failed job with message, got %s %q", badJob.Status, badJob.ErrorMessage)
	}

	goodJob := waitTerminal(t, rig.store, good.ID, 5*time.Second)
	if goodJob.Status != models.StatusDone {
		t.Fatalf("worker did not continue after failure: %s", goodJob.Status)
	}
}

func TestSerialWorkerStopSentinel(t *testing.T) {
	rig := newRig(t)
	done := make(chan struct{})

	go func() {
		rig.worker.Start(context.Background())
		close(done)
	}()

	stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rig.worker.Stop(stopCtx); err != nil {
		t.Fatalf("stop: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("worker loop did not exit after stop sentinel")
	}
}

func TestSpawnSchedulerCompletesJobs(t *testing.T) {
	logger := logrus.New()
	jobStore := store.NewMemoryStore(t.TempDir(), logger)
	provider := &orderedProvider{}
	pipe := pipeline.New(
		jobStore, provider, noopDownloader{}, noopRenderer{}, nil,
		100, 1, t.TempDir(), t.TempDir(), t.TempDir(), logger,
	)
	scheduler := NewSpawnScheduler(jobStore, pipe, logger)

	ctx := context.Background()
	var ids []int64
	for _, topic := range []string{"cats", "dogs"} {
		job, _ := jobStore.Create(topic)
		if err := scheduler.Submit(ctx, job.ID); err != nil {
			t.Fatalf("submit: %v", err)
		}
		ids = append(ids, job.ID)
	}
	scheduler.Wait()

	for _, id := range ids {
		job, _ := jobStore.Get(id)
		if job.Status != models.StatusDone {
			t.Fatalf("job %d expected done, got %s", id, job.Status)
		}
	}
}

func TestSpawnSchedulerDetachesFromSubmitContext(t *testing.T) {
	logger := logrus.New()
	jobStore := store.NewMemoryStore(t.TempDir(), logger)
	provider := &orderedProvider{}
	pipe := pipeline.New(
		jobStore, provider, noopDownloader{}, noopRenderer{}, nil,
		100, 1, t.TempDir(), t.TempDir(), t.TempDir(), logger,
	)
	scheduler := NewSpawnScheduler(jobStore, pipe, logger)

	type submitKey struct{}
	reqCtx, cancel := context.WithCancel(context.WithValue(context.Background(), submitKey{}, "request"))

	job, _ := jobStore.Create("cats")
	if err := scheduler.Submit(reqCtx, job.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}
	// The submitting request finishes (and its context is torn down) while
	// the job is still running.
	cancel()
	scheduler.Wait()

	got, _ := jobStore.Get(job.ID)
	if got.Status != models.StatusDone {
		t.Fatalf("job expected done after submit context teardown, got %s (%s)", got.Status, got.ErrorMessage)
	}

	ctxs := provider.seenCtxs()
	if len(ctxs) != 1 {
		t.Fatalf("expected 1 pipeline run, got %d", len(ctxs))
	}
	if ctxs[0].Value(submitKey{}) != nil {
		t.Fatalf("pipeline ran on the request context instead of a detached one")
	}
	if err := ctxs[0].Err(); err != nil {
		t.Fatalf("pipeline context inherited request cancellation: %v", err)
	}
}

func TestSpawnSchedulerUnknownJob(t *testing.T) {
	logger := logrus.New()
	jobStore := store.NewMemoryStore(t.TempDir(), logger)
	pipe := pipeline.New(
		jobStore, &orderedProvider{}, noopDownloader{}, noopRenderer{}, nil,
		100, 1, t.TempDir(), t.TempDir(), t.TempDir(), logger,
	)
	scheduler := NewSpawnScheduler(jobStore, pipe, logger)

	if err := scheduler.Submit(context.Background(), 999); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
