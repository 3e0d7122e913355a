package pipeline

import (
	"context"

	"github.com/JBRUL255/funny-video-generator/models"
)

// ClipRef points at a downloadable stock video rendition.
type ClipRef struct {
	URL      string
	Width    int
	Height   int
	Duration float64
}

// MusicRef points at a downloadable background music track.
type MusicRef struct {
	URL   string
	Title string
}

// ContentProvider supplies script text, candidate clips, background music
// and narration audio. Implementations live in internal/content.
type ContentProvider interface {
	// GenerateScript produces the structured joke script for a topic.
	GenerateScript(ctx context.Context, topic string) (*models.Script, error)

	// SearchClips returns up to limit candidate clip references. An empty
	// result is an error: no video can be assembled without clips.
	SearchClips(ctx context.Context, topic string, limit int) ([]ClipRef, error)

	// FindMusic returns a background track reference, or nil when no music
	// source is configured. Music is an enhancement; its absence is not a
	// failure, but a configured source that errors is.
	FindMusic(ctx context.Context) (*MusicRef, error)

	// Synthesize writes narration audio for text to outPath.
	Synthesize(ctx context.Context, text, outPath string) error
}

// Downloader transfers one remote asset to a local file.
type Downloader interface {
	Download(ctx context.Context, url, destPath string) error
}

// RenderInput carries everything the renderer composites into one file.
type RenderInput struct {
	ClipPaths     []string
	NarrationPath string
	MusicPath     string // empty means no background music
	Captions      []models.Caption
	OutputPath    string
}

// Renderer turns ordered media inputs into one finished video file.
type Renderer interface {
	Render(ctx context.Context, input RenderInput) error
}

// Uploader publishes a finished file and returns its durable remote URL.
type Uploader interface {
	Upload(ctx context.Context, localPath, name string) (string, error)
}
