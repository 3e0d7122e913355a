// Package content implements the pipeline's content provider against the
// real upstream services: an OpenAI-compatible endpoint for scripts, Pexels
// for stock clips, Pixabay for background music and an external TTS command
// for narration.
package content

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/JBRUL255/funny-video-generator/internal/pipeline"
	"github.com/JBRUL255/funny-video-generator/models"
)

// HTTPProvider bundles the upstream clients behind pipeline.ContentProvider.
type HTTPProvider struct {
	script *scriptClient
	pexels *pexelsClient
	music  *pixabayClient // nil when no Pixabay key is configured
	tts    *ttsEngine
}

// Options configures the provider's upstream credentials.
type Options struct {
	OpenAIAPIKey string
	OpenAIModel  string
	PexelsAPIKey string
	// PixabayAPIKey may be empty; videos are then produced without music.
	PixabayAPIKey string
	// TTSCommand is the narration binary, edge-tts style. Empty falls back
	// to "edge-tts" on PATH.
	TTSCommand string
}

func NewHTTPProvider(opts Options, logger *logrus.Logger) *HTTPProvider {
	client := &http.Client{Timeout: 60 * time.Second}
	log := logger.WithField("component", "content")

	p := &HTTPProvider{
		script: newScriptClient(client, opts.OpenAIAPIKey, opts.OpenAIModel, log),
		pexels: newPexelsClient(client, opts.PexelsAPIKey),
		tts:    newTTSEngine(opts.TTSCommand, log),
	}
	if opts.PixabayAPIKey != "" {
		p.music = newPixabayClient(client, opts.PixabayAPIKey)
	}
	return p
}

func (p *HTTPProvider) GenerateScript(ctx context.Context, topic string) (*models.Script, error) {
	return p.script.Generate(ctx, topic)
}

func (p *HTTPProvider) SearchClips(ctx context.Context, topic string, limit int) ([]pipeline.ClipRef, error) {
	return p.pexels.Search(ctx, topic, limit)
}

func (p *HTTPProvider) FindMusic(ctx context.Context) (*pipeline.MusicRef, error) {
	if p.music == nil {
		return nil, nil
	}
	return p.music.Find(ctx)
}

func (p *HTTPProvider) Synthesize(ctx context.Context, text, outPath string) error {
	return p.tts.Synthesize(ctx, text, outPath)
}
