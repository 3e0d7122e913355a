package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/JBRUL255/funny-video-generator/internal/store"
	"github.com/JBRUL255/funny-video-generator/models"
)

type stubScheduler struct {
	submitted []int64
}

func (s *stubScheduler) Submit(ctx context.Context, jobID int64) error {
	s.submitted = append(s.submitted, jobID)
	return nil
}

type stubQuota struct {
	reached bool
}

func (s *stubQuota) QuotaReached() bool { return s.reached }

type testApp struct {
	app       *fiber.App
	store     *store.MemoryStore
	scheduler *stubScheduler
	quota     *stubQuota
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	logger := logrus.New()

	jobStore := store.NewMemoryStore(t.TempDir(), logger)
	scheduler := &stubScheduler{}
	quota := &stubQuota{}
	h := NewApplicationHandler(jobStore, scheduler, quota, logger, t.TempDir())

	app := fiber.New()
	app.Get("/health", h.Health)
	app.Post("/enqueue", h.EnqueueJob)
	app.Get("/job/:id", h.GetJobStatus)
	app.Get("/events/:id", h.StreamJobEvents)
	app.Get("/videos", h.ListVideos)
	app.Get("/download/:name", h.DownloadVideo)

	return &testApp{app: app, store: jobStore, scheduler: scheduler, quota: quota}
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, body io.Reader) envelope {
	t.Helper()
	var env envelope
	if err := json.NewDecoder(body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func TestHealth(t *testing.T) {
	ta := newTestApp(t)

	resp, err := ta.app.Test(httptest.NewRequest("GET", "/health", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestEnqueueCreatesAndSubmitsJob(t *testing.T) {
	ta := newTestApp(t)

	req := httptest.NewRequest("POST", "/enqueue", strings.NewReader(`{"topic":"cats"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := ta.app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}

	env := decodeEnvelope(t, resp.Body)
	var data struct {
		JobID  int64  `json:"job_id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.Status != "queued" || data.JobID == 0 {
		t.Fatalf("unexpected enqueue response: %+v", data)
	}

	if len(ta.scheduler.submitted) != 1 || ta.scheduler.submitted[0] != data.JobID {
		t.Fatalf("job not submitted to scheduler: %v", ta.scheduler.submitted)
	}

	// The job is visible to status queries before any worker picks it up.
	job, err := ta.store.Get(data.JobID)
	if err != nil {
		t.Fatalf("job not visible after enqueue: %v", err)
	}
	if job.Topic != "cats" {
		t.Fatalf("expected topic cats, got %q", job.Topic)
	}
}

func TestEnqueueTopicFromQuery(t *testing.T) {
	ta := newTestApp(t)

	resp, err := ta.app.Test(httptest.NewRequest("POST", "/enqueue?topic=dogs", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}

	job, err := ta.store.Get(ta.scheduler.submitted[0])
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if job.Topic != "dogs" {
		t.Fatalf("expected topic dogs, got %q", job.Topic)
	}
}

func TestEnqueueQuotaExceededCreatesNoJob(t *testing.T) {
	ta := newTestApp(t)
	ta.quota.reached = true

	resp, err := ta.app.Test(httptest.NewRequest("POST", "/enqueue?topic=cats", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.StatusCode)
	}

	env := decodeEnvelope(t, resp.Body)
	if !strings.Contains(env.Message, "limit") {
		t.Fatalf("expected limit message, got %q", env.Message)
	}
	if len(ta.scheduler.submitted) != 0 {
		t.Fatalf("no job may be submitted when quota exceeded")
	}
}

func TestEnqueueWhitespaceTopicFallsBackToDefault(t *testing.T) {
	ta := newTestApp(t)

	req := httptest.NewRequest("POST", "/enqueue", strings.NewReader(`{"topic":"   "}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := ta.app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}

	job, err := ta.store.Get(ta.scheduler.submitted[0])
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if job.Topic != defaultTopic {
		t.Fatalf("expected default topic for blank input, got %q", job.Topic)
	}
}

func TestGetJobStatusNotFound(t *testing.T) {
	ta := newTestApp(t)

	resp, err := ta.app.Test(httptest.NewRequest("GET", "/job/999", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestGetJobStatusInvalidID(t *testing.T) {
	ta := newTestApp(t)

	resp, err := ta.app.Test(httptest.NewRequest("GET", "/job/abc", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestGetJobStatusSnapshot(t *testing.T) {
	ta := newTestApp(t)

	job, _ := ta.store.Create("cats")
	_ = ta.store.Update(job.ID, func(j *models.Job) {
		j.Status = models.StatusProcessing
		j.ProgressMessage = "downloading clip 2"
	})

	resp, err := ta.app.Test(httptest.NewRequest("GET", "/job/1", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	env := decodeEnvelope(t, resp.Body)
	var got models.Job
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatalf("decode job: %v", err)
	}
	if got.Status != models.StatusProcessing || got.ProgressMessage != "downloading clip 2" {
		t.Fatalf("unexpected snapshot: %+v", got)
	}
}

func TestStreamJobEventsEmitsChangesAndTerminates(t *testing.T) {
	ta := newTestApp(t)

	job, err := ta.store.Create("cats")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Drive the job to done while the stream is being read. The stream must
	// emit the initial snapshot, the change, and then close on its own.
	go func() {
		time.Sleep(200 * time.Millisecond)
		_ = ta.store.Update(job.ID, func(j *models.Job) {
			j.Status = models.StatusDone
			j.ProgressMessage = "finished"
		})
	}()

	resp, err := ta.app.Test(httptest.NewRequest("GET", "/events/1", nil), 10000)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get(fiber.HeaderContentType); ct != "text/event-stream" {
		t.Fatalf("expected event stream content type, got %q", ct)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read stream: %v", err)
	}
	body := string(raw)
	if strings.Count(body, "data: ") < 2 {
		t.Fatalf("expected initial and change frames, got:\n%s", body)
	}
	if !strings.Contains(body, `"done"`) {
		t.Fatalf("stream did not report terminal state:\n%s", body)
	}
}

func TestStreamJobEventsUnknownJob(t *testing.T) {
	ta := newTestApp(t)

	resp, err := ta.app.Test(httptest.NewRequest("GET", "/events/999", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestListVideosNewestFirst(t *testing.T) {
	ta := newTestApp(t)

	base := time.Now().UTC().Add(-time.Hour)
	_ = ta.store.RecordArtifact(models.VideoArtifact{Filename: "a.mp4", CreatedAt: base})
	_ = ta.store.RecordArtifact(models.VideoArtifact{Filename: "b.mp4", CreatedAt: base.Add(time.Minute)})

	resp, err := ta.app.Test(httptest.NewRequest("GET", "/videos", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	env := decodeEnvelope(t, resp.Body)
	var artifacts []models.VideoArtifact
	if err := json.Unmarshal(env.Data, &artifacts); err != nil {
		t.Fatalf("decode artifacts: %v", err)
	}
	if len(artifacts) != 2 {
		t.Fatalf("expected 2 artifacts, got %d", len(artifacts))
	}
	if artifacts[0].Filename != "b.mp4" {
		t.Fatalf("expected newest first, got %s", artifacts[0].Filename)
	}
}

func TestDownloadUnknownVideo(t *testing.T) {
	ta := newTestApp(t)

	resp, err := ta.app.Test(httptest.NewRequest("GET", "/download/missing.mp4", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestDownloadRejectsPathTraversal(t *testing.T) {
	ta := newTestApp(t)

	resp, err := ta.app.Test(httptest.NewRequest("GET", "/download/..%2Fsecret.mp4", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest && resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected rejection, got %d", resp.StatusCode)
	}
}
