// Package speech turns the growing text of an assistant reply into audible
// narration: it segments the buffer into speakable units, keeps a sequential
// playback queue, and never re-speaks or skips content.
package speech

import "context"

// Mode selects the narration voice profile.
type Mode string

const (
	ModeFemale Mode = "female"
	ModeMale   Mode = "male"
	ModeOff    Mode = "off"
)

// Voice describes one synthesis voice offered by an engine.
type Voice struct {
	Name string
	Lang string // BCP-47 tag, e.g. "ru-RU"
}

// Utterance is one speakable unit with fixed delivery parameters.
type Utterance struct {
	Text  string
	Voice Voice
	Lang  string
	Pitch float64
	Rate  float64
}

// Engine synthesizes utterances one at a time. The scheduler guarantees at
// most one concurrent Speak per engine.
type Engine interface {
	// Voices lists currently available voices; may be empty until the
	// engine has loaded them.
	Voices() []Voice
	// Speak synthesizes u. The returned channel receives exactly one value
	// when playback finishes or fails, then closes. Cancelling ctx must
	// stop playback promptly.
	Speak(ctx context.Context, u Utterance) <-chan error
}
