package models

import "fmt"

// Caption is one timed text overlay derived from the generated script.
type Caption struct {
	Text     string  `json:"text"`
	StartSec float64 `json:"start_sec"`
	EndSec   float64 `json:"end_sec"`
}

// Script is the structured joke script produced for one video.
type Script struct {
	Hook      string    `json:"hook"`
	Setup     string    `json:"setup"`
	Punchline string    `json:"punchline"`
	Captions  []Caption `json:"captions"`
}

// NarrationText flattens the script into the text handed to the TTS engine.
func (s *Script) NarrationText() string {
	return fmt.Sprintf("%s. %s %s", s.Hook, s.Setup, s.Punchline)
}
