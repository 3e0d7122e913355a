package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/JBRUL255/funny-video-generator/internal/store"
	"github.com/JBRUL255/funny-video-generator/models"
)

// Pipeline drives one job from queued to a terminal state: quota check,
// script, media download, narration, render, optional upload. Every step
// failure except upload is fatal for the job; no failure ever escapes Run.
type Pipeline struct {
	store      store.JobStore
	provider   ContentProvider
	downloader Downloader
	renderer   Renderer
	uploader   Uploader // nil when no upload target is configured

	dailyLimit int
	maxClips   int
	outputDir  string
	clipsDir   string
	musicDir   string

	logger *logrus.Entry
}

func New(
	jobStore store.JobStore,
	provider ContentProvider,
	downloader Downloader,
	renderer Renderer,
	uploader Uploader,
	dailyLimit int,
	maxClips int,
	outputDir, clipsDir, musicDir string,
	logger *logrus.Logger,
) *Pipeline {
	if maxClips < 1 {
		maxClips = 1
	}
	return &Pipeline{
		store:      jobStore,
		provider:   provider,
		downloader: downloader,
		renderer:   renderer,
		uploader:   uploader,
		dailyLimit: dailyLimit,
		maxClips:   maxClips,
		outputDir:  outputDir,
		clipsDir:   clipsDir,
		musicDir:   musicDir,
		logger:     logger.WithField("component", "pipeline"),
	}
}

// QuotaReached reports whether the daily completed-video cap is already met.
// Quota counts artifacts actually produced, not attempts.
func (p *Pipeline) QuotaReached() bool {
	count, err := p.store.CountArtifactsSince(startOfToday())
	if err != nil {
		p.logger.WithField("error", err).Warn("quota count failed, allowing job")
		return false
	}
	return count >= p.dailyLimit
}

// Run processes one job to completion or failure. It never returns an error
// to the caller; outcomes are written to the store so the worker loop keeps
// going regardless of what happened here.
func (p *Pipeline) Run(ctx context.Context, jobID int64, topic string) {
	log := p.logger.WithFields(logrus.Fields{"job_id": jobID, "topic": topic})

	if err := p.markProcessing(jobID); err != nil {
		log.WithField("error", err).Error("could not mark job processing")
		return
	}

	result, err := p.execute(ctx, jobID, topic, log)
	if err != nil {
		log.WithField("error", err).Warn("job failed")
		p.fail(jobID, err)
		return
	}

	if updErr := p.store.Update(jobID, func(j *models.Job) {
		j.Status = models.StatusDone
		j.ProgressMessage = "finished"
		j.Result = result
	}); updErr != nil {
		log.WithField("error", updErr).Error("could not record job success")
		return
	}
	log.WithField("filename", result.Filename).Info("job done")
}

func (p *Pipeline) execute(ctx context.Context, jobID int64, topic string, log *logrus.Entry) (*models.JobResult, error) {
	// Step 1: quota. Checked before any external call is made.
	p.progress(jobID, "checking daily quota")
	if p.QuotaReached() {
		return nil, models.ErrQuotaExceeded
	}

	// Step 2: script.
	p.progress(jobID, "generating script")
	script, err := p.provider.GenerateScript(ctx, topic)
	if err != nil {
		return nil, models.NewStepError("content", err)
	}

	// Step 3: media. Any single download failure aborts the job; no partial
	// video is produced.
	p.progress(jobID, "searching stock clips")
	clips, err := p.provider.SearchClips(ctx, topic, p.maxClips)
	if err != nil {
		return nil, models.NewStepError("content", err)
	}
	if len(clips) == 0 {
		return nil, models.NewStepError("content", errors.New("no candidate clips found"))
	}

	clipPaths := make([]string, 0, len(clips))
	for i, clip := range clips {
		p.progress(jobID, fmt.Sprintf("downloading clip %d of %d", i+1, len(clips)))
		dest := filepath.Join(p.clipsDir, uniqueName("clip", ".mp4"))
		if err := p.downloader.Download(ctx, clip.URL, dest); err != nil {
			return nil, models.NewStepError("download", err)
		}
		clipPaths = append(clipPaths, dest)
	}

	musicPath := ""
	p.progress(jobID, "searching background music")
	music, err := p.provider.FindMusic(ctx)
	if err != nil {
		return nil, models.NewStepError("content", err)
	}
	if music != nil {
		p.progress(jobID, "downloading background music")
		musicPath = filepath.Join(p.musicDir, uniqueName("bg", ".mp3"))
		if err := p.downloader.Download(ctx, music.URL, musicPath); err != nil {
			return nil, models.NewStepError("download", err)
		}
	}

	// Step 4: narration.
	p.progress(jobID, "synthesizing narration")
	narrationPath := filepath.Join(p.clipsDir, uniqueName("voice", ".mp3"))
	if err := p.provider.Synthesize(ctx, script.NarrationText(), narrationPath); err != nil {
		return nil, models.NewStepError("narration", err)
	}

	// Step 5: render.
	p.progress(jobID, "rendering video")
	outputName := uniqueName("funny", ".mp4")
	outputPath := filepath.Join(p.outputDir, outputName)
	renderInput := RenderInput{
		ClipPaths:     clipPaths,
		NarrationPath: narrationPath,
		MusicPath:     musicPath,
		Captions:      script.Captions,
		OutputPath:    outputPath,
	}
	if err := p.renderer.Render(ctx, renderInput); err != nil {
		return nil, models.NewStepError("render", err)
	}

	// Step 6: upload. The local artifact is already valid output, so a
	// failed upload downgrades to a warning instead of failing the job.
	remoteURL := ""
	if p.uploader != nil {
		p.progress(jobID, "uploading video")
		url, err := p.uploader.Upload(ctx, outputPath, outputName)
		if err != nil {
			log.WithField("error", err).Warn("upload failed, keeping local artifact")
		} else {
			remoteURL = url
		}
	}

	// Step 7: artifact record.
	artifact := models.VideoArtifact{
		Filename:  outputName,
		CreatedAt: time.Now().UTC(),
		Metadata:  map[string]string{"topic": topic},
		RemoteURL: remoteURL,
	}
	if err := p.store.RecordArtifact(artifact); err != nil {
		return nil, fmt.Errorf("record artifact: %w", err)
	}

	return &models.JobResult{Filename: outputName, RemoteURL: remoteURL}, nil
}

func (p *Pipeline) markProcessing(jobID int64) error {
	return p.store.Update(jobID, func(j *models.Job) {
		j.Status = models.StatusProcessing
		j.Attempts++
		j.ProgressMessage = "starting"
	})
}

// progress overwrites the job's stage description. A status reader always
// sees the latest stage, never a backlog.
func (p *Pipeline) progress(jobID int64, message string) {
	if err := p.store.Update(jobID, func(j *models.Job) {
		j.ProgressMessage = message
	}); err != nil {
		p.logger.WithFields(logrus.Fields{"job_id": jobID, "error": err}).Warn("progress update failed")
	}
}

func (p *Pipeline) fail(jobID int64, cause error) {
	if err := p.store.Update(jobID, func(j *models.Job) {
		j.Status = models.StatusError
		j.ErrorMessage = cause.Error()
		j.ProgressMessage = "failed"
	}); err != nil {
		p.logger.WithFields(logrus.Fields{"job_id": jobID, "error": err}).Error("could not record job failure")
	}
}

func startOfToday() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func uniqueName(prefix, ext string) string {
	return fmt.Sprintf("%s_%d_%s%s", prefix, time.Now().UnixMilli(), uuid.NewString()[:8], ext)
}
