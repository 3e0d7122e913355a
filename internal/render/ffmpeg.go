// Package render composites downloaded clips, narration, music and captions
// into one vertical video using ffmpeg.
package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/JBRUL255/funny-video-generator/internal/pipeline"
	"github.com/JBRUL255/funny-video-generator/models"
)

const (
	outputWidth  = 1080
	outputHeight = 1920
	outputFPS    = 30

	// Per-clip and total caps. The timeline is clamped by trimming its
	// tail, captions keep their original timings.
	maxClipSeconds  = 10
	maxTotalSeconds = 60

	musicVolume = 0.15
)

// FFmpegRenderer implements pipeline.Renderer by shelling out to ffmpeg.
type FFmpegRenderer struct {
	workDir string
	logger  *logrus.Entry
}

func NewFFmpegRenderer(workDir string, logger *logrus.Logger) *FFmpegRenderer {
	return &FFmpegRenderer{
		workDir: workDir,
		logger:  logger.WithField("component", "render"),
	}
}

// Render runs the three ffmpeg passes: normalize each clip, concatenate, and
// composite captions plus the audio mix into the final file.
func (r *FFmpegRenderer) Render(ctx context.Context, input pipeline.RenderInput) error {
	if len(input.ClipPaths) == 0 {
		return fmt.Errorf("no clips to render")
	}

	stamp := time.Now().UnixMilli()
	normalized := make([]string, 0, len(input.ClipPaths))
	for i, clipPath := range input.ClipPaths {
		out := filepath.Join(r.workDir, fmt.Sprintf("norm_%d_%d.mp4", stamp, i))
		if err := r.normalizeClip(ctx, clipPath, out); err != nil {
			return fmt.Errorf("normalize clip %d: %w", i+1, err)
		}
		normalized = append(normalized, out)
		defer os.Remove(out)
	}

	base := filepath.Join(r.workDir, fmt.Sprintf("concat_%d.mp4", stamp))
	if err := r.concatClips(ctx, normalized, base); err != nil {
		return fmt.Errorf("concatenate clips: %w", err)
	}
	defer os.Remove(base)

	srtPath := ""
	if len(input.Captions) > 0 {
		srtPath = filepath.Join(r.workDir, fmt.Sprintf("captions_%d.srt", stamp))
		if err := writeSRT(srtPath, input.Captions); err != nil {
			return fmt.Errorf("write captions: %w", err)
		}
		defer os.Remove(srtPath)
	}

	if err := r.composite(ctx, base, input.NarrationPath, input.MusicPath, srtPath, input.OutputPath); err != nil {
		return fmt.Errorf("composite: %w", err)
	}

	log := r.logger.WithField("output", input.OutputPath)
	if dur, err := ProbeDuration(ctx, input.OutputPath); err != nil {
		log.WithField("error", err).Warn("could not probe output duration")
	} else {
		log = log.WithField("seconds", dur.Seconds())
		if dur > (maxTotalSeconds+1)*time.Second {
			log.Warn("output exceeds duration cap")
		}
	}
	log.Info("render complete")
	return nil
}

// normalizeClip trims a clip to the per-clip cap and scales/crops it to the
// vertical output frame, dropping its audio.
func (r *FFmpegRenderer) normalizeClip(ctx context.Context, inPath, outPath string) error {
	filter := fmt.Sprintf(
		"scale=-2:%d,crop=%d:%d,fps=%d",
		outputHeight, outputWidth, outputHeight, outputFPS,
	)
	return runFFmpeg(ctx, "-y",
		"-i", inPath,
		"-t", strconv.Itoa(maxClipSeconds),
		"-vf", filter,
		"-an",
		outPath,
	)
}

func (r *FFmpegRenderer) concatClips(ctx context.Context, clips []string, outPath string) error {
	listPath := outPath + ".txt"
	var lines []string
	for _, clip := range clips {
		abs, err := filepath.Abs(clip)
		if err != nil {
			abs = clip
		}
		lines = append(lines, fmt.Sprintf("file '%s'", abs))
	}
	if err := os.WriteFile(listPath, []byte(strings.Join(lines, "\n")), 0644); err != nil {
		return err
	}
	defer os.Remove(listPath)

	return runFFmpeg(ctx, "-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-t", strconv.Itoa(maxTotalSeconds),
		"-c", "copy",
		outPath,
	)
}

// composite burns captions and mixes narration with background music at
// reduced volume. The music loops to cover the timeline; output ends with
// the video track.
func (r *FFmpegRenderer) composite(ctx context.Context, videoPath, narrationPath, musicPath, srtPath, outPath string) error {
	args := []string{"-y", "-i", videoPath, "-i", narrationPath}
	if musicPath != "" {
		args = append(args, "-stream_loop", "-1", "-i", musicPath)
	}

	videoFilter := "[0:v]copy[vout]"
	if srtPath != "" {
		videoFilter = fmt.Sprintf("[0:v]subtitles='%s'[vout]", srtPath)
	}

	var audioFilter string
	if musicPath != "" {
		audioFilter = fmt.Sprintf(
			"[2:a]volume=%.2f[bg];[1:a][bg]amix=inputs=2:duration=first:dropout_transition=3[aout]",
			musicVolume,
		)
	} else {
		audioFilter = "[1:a]anull[aout]"
	}

	args = append(args,
		"-filter_complex", videoFilter+";"+audioFilter,
		"-map", "[vout]",
		"-map", "[aout]",
		"-c:v", "libx264",
		"-c:a", "aac",
		"-preset", "medium",
		"-shortest",
		outPath,
	)
	return runFFmpeg(ctx, args...)
}

func runFFmpeg(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg failed: %v\nstderr: %s", err, tail(stderr.String(), 2000))
	}
	return nil
}

// ProbeDuration returns the media duration via ffprobe.
func ProbeDuration(ctx context.Context, path string) (time.Duration, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		path,
	)

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe failed: %v\nstderr: %s", err, stderr.String())
	}

	return parseProbeDuration(out.Bytes())
}

func parseProbeDuration(raw []byte) (time.Duration, error) {
	var probe struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return 0, fmt.Errorf("decode ffprobe output: %w", err)
	}
	if probe.Format.Duration == "" {
		return 0, fmt.Errorf("no duration in ffprobe output")
	}
	seconds, err := strconv.ParseFloat(probe.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", probe.Format.Duration, err)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

func writeSRT(path string, captions []models.Caption) error {
	var b strings.Builder
	for i, c := range captions {
		end := c.EndSec
		if end <= c.StartSec {
			end = c.StartSec + 3
		}
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n",
			i+1, srtTimestamp(c.StartSec), srtTimestamp(end), c.Text)
	}
	return os.WriteFile(path, []byte(b.String()), 0644)
}

func srtTimestamp(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second))
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	ms := int(d.Milliseconds()) % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
