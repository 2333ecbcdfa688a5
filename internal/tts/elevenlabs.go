package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/rsukhar/startup-hacker-course/internal/speech"
)

// elevenVoices maps catalog entries to ElevenLabs voice ids. The flash model
// is multilingual, so Russian sessions fall back to the first entry and are
// still rendered correctly.
var elevenVoices = []struct {
	voice speech.Voice
	id    string
}{
	{speech.Voice{Name: "Rachel (female)", Lang: "en-US"}, "21m00Tcm4TlvDq8ikWAM"},
	{speech.Voice{Name: "Matilda (female)", Lang: "en-US"}, "XrExE9yKIg1WjnnlVkGX"},
	{speech.Voice{Name: "Daniel (male)", Lang: "en-GB"}, "onwK4e9ZLuTAKqWW03F9"},
	{speech.Voice{Name: "Adam (male)", Lang: "en-US"}, "pNInz6obpgDQGcFmaJgB"},
}

// ElevenLabsEngine implements speech.Engine over the ElevenLabs HTTP
// streaming endpoint, delivering 48kHz PCM to an injected sink.
type ElevenLabsEngine struct {
	apiKey string
	sink   PCMSink
}

func NewElevenLabsEngine(apiKey string, sink PCMSink) *ElevenLabsEngine {
	if sink == nil {
		sink = nopSink{}
	}
	return &ElevenLabsEngine{apiKey: apiKey, sink: sink}
}

func (e *ElevenLabsEngine) Voices() []speech.Voice {
	out := make([]speech.Voice, 0, len(elevenVoices))
	for _, v := range elevenVoices {
		out = append(out, v.voice)
	}
	return out
}

// Speak synthesizes one utterance into the sink. The returned channel
// receives exactly one value when streaming finishes or fails.
func (e *ElevenLabsEngine) Speak(ctx context.Context, u speech.Utterance) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		done <- e.speak(ctx, u)
	}()
	return done
}

func (e *ElevenLabsEngine) speak(ctx context.Context, u speech.Utterance) error {
	if e.apiKey == "" {
		return fmt.Errorf("elevenlabs: API key missing")
	}
	if u.Text == "" {
		return nil
	}

	voiceID := elevenVoices[0].id
	for _, v := range elevenVoices {
		if v.voice.Name == u.Voice.Name {
			voiceID = v.id
			break
		}
	}

	addr := url.URL{
		Scheme: "https",
		Host:   "api.elevenlabs.io",
		Path:   "/v1/text-to-speech/" + voiceID + "/stream",
	}
	q := addr.Query()
	q.Set("model_id", "eleven_flash_v2_5")
	q.Set("output_format", "pcm_48000")
	q.Set("optimize_streaming_latency", "2")
	addr.RawQuery = q.Encode()

	body := map[string]any{
		"model_id": "eleven_flash_v2_5",
		"text":     u.Text,
		"voice_settings": map[string]any{
			"stability":         0.4,
			"similarity_boost":  0.7,
			"style":             0.0,
			"use_speaker_boost": true,
		},
	}
	buf, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, addr.String(), bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("xi-api-key", e.apiKey)
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 0}
	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			e.sink.Reset()
			return ctx.Err()
		}
		return fmt.Errorf("elevenlabs: stream request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("elevenlabs: status=%d body=%s", resp.StatusCode, string(b))
	}

	chunk := make([]byte, 4096)
	for {
		n, rerr := resp.Body.Read(chunk)
		if n > 0 {
			out := make([]byte, n)
			copy(out, chunk[:n])
			e.sink.WritePCM(out)
		}
		if rerr != nil {
			if rerr == io.EOF {
				e.sink.FlushTail()
				return nil
			}
			if ctx.Err() != nil {
				e.sink.Reset()
				return ctx.Err()
			}
			return fmt.Errorf("elevenlabs: stream read: %w", rerr)
		}
	}
}
