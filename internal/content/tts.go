package content

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const ttsAttempts = 3

// ttsEngine shells out to an external text-to-speech command, edge-tts
// style: the command must accept the narration text and an output path.
type ttsEngine struct {
	command string
	logger  *logrus.Entry
}

func newTTSEngine(command string, logger *logrus.Entry) *ttsEngine {
	if command == "" {
		command = "edge-tts"
	}
	return &ttsEngine{command: command, logger: logger}
}

// Synthesize writes narration audio for text to outPath, retrying transient
// engine failures with a short linear backoff.
func (t *ttsEngine) Synthesize(ctx context.Context, text, outPath string) error {
	var err error
	for attempt := 1; attempt <= ttsAttempts; attempt++ {
		err = t.run(ctx, text, outPath)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		t.logger.WithFields(logrus.Fields{"attempt": attempt, "error": err}).Warn("tts attempt failed")
		select {
		case <-time.After(time.Duration(attempt) * time.Second):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("tts failed after %d attempts: %w", ttsAttempts, err)
}

func (t *ttsEngine) run(ctx context.Context, text, outPath string) error {
	var cmd *exec.Cmd
	switch {
	case t.command == "edge-tts":
		cmd = exec.CommandContext(ctx, "edge-tts",
			"--voice", "en-US-GuyNeural",
			"--text", text,
			"--write-media", outPath,
		)
	case strings.HasSuffix(t.command, ".py"):
		cmd = exec.CommandContext(ctx, "python3", t.command,
			"--text", text,
			"--output", outPath,
		)
	default:
		cmd = exec.CommandContext(ctx, t.command,
			"--text", text,
			"--output", outPath,
		)
	}

	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %v: %s", t.command, err, strings.TrimSpace(string(out)))
	}
	return nil
}
