// Package tts provides the production speech engine: Deepgram Aura
// streaming synthesis delivering 48kHz linear PCM to an injected sink.
package tts

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync/atomic"
	"time"

	msginterfaces "github.com/deepgram/deepgram-go-sdk/pkg/api/speak/v1/websocket/interfaces"
	clientinterfaces "github.com/deepgram/deepgram-go-sdk/pkg/client/interfaces/v1"
	"github.com/deepgram/deepgram-go-sdk/pkg/client/speak"

	"github.com/rsukhar/startup-hacker-course/internal/speech"
)

// PCMSink consumes 48kHz PCM bytes and performs delivery (audio device,
// file, network). Implementations should buffer internally.
type PCMSink interface {
	WritePCM(pcm []byte)
	FlushTail()
	// Reset drops any queued audio immediately (used on cancellation).
	Reset()
}

// WriterSink writes raw PCM to an io.Writer.
type WriterSink struct{ W io.Writer }

func (s WriterSink) WritePCM(pcm []byte) { _, _ = s.W.Write(pcm) }
func (WriterSink) FlushTail()            {}
func (WriterSink) Reset()                {}

type nopSink struct{}

func (nopSink) WritePCM([]byte) {}
func (nopSink) FlushTail()      {}
func (nopSink) Reset()          {}

// Aura voice catalog exposed to the selection strategy. Aura has no Russian
// voices; narration in Russian falls back to the first available voice.
var auraVoices = []speech.Voice{
	{Name: "aura-2-thalia-en", Lang: "en-US"},
	{Name: "aura-2-andromeda-en", Lang: "en-US"},
	{Name: "aura-2-helena-en", Lang: "en-US"},
	{Name: "aura-2-apollo-en", Lang: "en-US"},
	{Name: "aura-2-arcas-en", Lang: "en-US"},
	{Name: "aura-2-orion-en", Lang: "en-US"},
}

// DeepgramEngine implements speech.Engine over the Deepgram speak WebSocket.
type DeepgramEngine struct {
	apiKey     string
	sink       PCMSink
	sampleRate int
	encoding   string
}

func NewDeepgramEngine(apiKey string, sink PCMSink) *DeepgramEngine {
	if sink == nil {
		sink = nopSink{}
	}
	return &DeepgramEngine{apiKey: apiKey, sink: sink, sampleRate: 48000, encoding: "linear16"}
}

// Voices lists the static Aura catalog; Deepgram does not require a load
// round-trip, so voices are available immediately.
func (d *DeepgramEngine) Voices() []speech.Voice {
	out := make([]speech.Voice, len(auraVoices))
	copy(out, auraVoices)
	return out
}

// Speak synthesizes one utterance into the sink. The returned channel
// receives exactly one value when playback finishes or fails. Pitch and
// rate are advisory: Aura voices carry fixed delivery characteristics.
func (d *DeepgramEngine) Speak(ctx context.Context, u speech.Utterance) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		done <- d.speak(ctx, u)
	}()
	return done
}

func (d *DeepgramEngine) speak(ctx context.Context, u speech.Utterance) error {
	if d.apiKey == "" {
		return fmt.Errorf("deepgram: API key missing")
	}
	if u.Text == "" {
		return nil
	}
	model := u.Voice.Name
	if model == "" {
		model = auraVoices[0].Name
	}

	options := &clientinterfaces.WSSpeakOptions{
		Model:      model,
		Encoding:   d.encoding,
		SampleRate: d.sampleRate,
	}

	var lastRecvUnix int64
	var seenAudio int32

	cb := &speakCallback{onBinary: func(data []byte) error {
		if len(data) == 0 {
			return nil
		}
		atomic.StoreInt64(&lastRecvUnix, time.Now().UnixNano())
		atomic.StoreInt32(&seenAudio, 1)
		b := make([]byte, len(data))
		copy(b, data)
		d.sink.WritePCM(b)
		return nil
	}}

	dg, err := speak.NewWSUsingCallback(ctx, d.apiKey, &clientinterfaces.ClientOptions{}, options, cb)
	if err != nil {
		return fmt.Errorf("deepgram: create ws client: %w", err)
	}

	stopped := false
	stopClient := func() {
		if !stopped {
			stopped = true
			dg.Stop()
		}
	}
	defer stopClient()

	if ok := dg.Connect(); !ok {
		return fmt.Errorf("deepgram: connect failed")
	}

	if err := dg.SpeakWithText(u.Text); err != nil {
		return fmt.Errorf("deepgram: speak text: %w", err)
	}
	if err := dg.Flush(); err != nil {
		log.Printf("deepgram: flush error: %v", err)
	}

	// The stream has no explicit end-of-utterance signal at this layer:
	// treat a quiet window after audio started as completion.
	idleWindow := 400 * time.Millisecond
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	deadline := time.Now().Add(12 * time.Second)
	for {
		select {
		case <-ctx.Done():
			d.sink.Reset()
			return ctx.Err()
		case <-ticker.C:
			if atomic.LoadInt32(&seenAudio) == 1 {
				last := time.Unix(0, atomic.LoadInt64(&lastRecvUnix))
				if !last.IsZero() && time.Since(last) > idleWindow {
					d.sink.FlushTail()
					return nil
				}
			}
			if time.Now().After(deadline) {
				d.sink.FlushTail()
				return nil
			}
		}
	}
}

type speakCallback struct{ onBinary func([]byte) error }

func (s *speakCallback) Open(*msginterfaces.OpenResponse) error         { return nil }
func (s *speakCallback) Metadata(*msginterfaces.MetadataResponse) error { return nil }
func (s *speakCallback) Flush(*msginterfaces.FlushedResponse) error     { return nil }
func (s *speakCallback) Clear(*msginterfaces.ClearedResponse) error     { return nil }
func (s *speakCallback) Close(*msginterfaces.CloseResponse) error       { return nil }
func (s *speakCallback) Warning(*msginterfaces.WarningResponse) error   { return nil }
func (s *speakCallback) Error(*msginterfaces.ErrorResponse) error       { return nil }
func (s *speakCallback) UnhandledEvent([]byte) error                    { return nil }
func (s *speakCallback) Binary(byMsg []byte) error {
	if s.onBinary != nil {
		return s.onBinary(byMsg)
	}
	return nil
}
