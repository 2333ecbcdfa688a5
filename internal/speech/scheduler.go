package speech

import (
	"context"
	"errors"
	"log"
	"regexp"
	"strings"
	"sync"
	"time"
)

const (
	// Narration is withheld this long after the first buffer growth, and
	// until the buffer reaches minStreamLength, so very early fragments that
	// are likely to be rewritten are never spoken.
	minStreamDelay  = 3000 * time.Millisecond
	minStreamLength = 20

	// Retry delay while the engine has not loaded its voices yet.
	voiceRetryDelay = 100 * time.Millisecond
)

// A run of non-terminator characters followed by one or more terminators.
var sentenceRx = regexp.MustCompile(`[^.!?]+[.!?]+`)

// Scheduler drives a sequential narration queue off the growing buffer of
// the active assistant turn. It owns explicit per-turn state (spoken prefix,
// carve position, queue, speaking flag) instead of ambient engine state, and
// uses a generation counter so a canceled-then-late engine completion can
// never corrupt the current turn.
type Scheduler struct {
	engine Engine

	mu           sync.Mutex
	mode         Mode
	lang         string
	rate         float64
	spokenPrefix int
	carved       int // buffer length already segmented into units
	queue        []string
	speaking     bool
	current      string
	content      string
	turnStart    time.Time
	hasBeenRead  bool
	finishing    bool
	gen          uint64
	cancel       context.CancelFunc

	now func() time.Time
}

// NewScheduler constructs a scheduler for one narration engine. A nil engine
// silently disables passive narration; only Replay reports it.
func NewScheduler(engine Engine, mode Mode, language string) *Scheduler {
	return &Scheduler{engine: engine, mode: mode, lang: language, rate: Rates[0], now: time.Now}
}

// Observe offers the full current buffer after a growth event. On the first
// growth of a turn the debounce clock starts; once past the debounce window
// the unsegmented tail is carved into speakable units and queued.
func (s *Scheduler) Observe(buffer string) {
	s.mu.Lock()
	var cancel context.CancelFunc
	if len(buffer) < s.spokenPrefix || len(buffer) < s.carved {
		// Buffer was reset under us: new turn.
		s.gen++
		cancel = s.cancel
		s.resetLocked()
	}
	if s.engine == nil || s.mode == ModeOff || len(buffer) <= s.carved {
		s.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		return
	}
	s.content = buffer
	if s.turnStart.IsZero() {
		s.turnStart = s.now()
	}
	if s.now().Sub(s.turnStart) < minStreamDelay || len(buffer) < minStreamLength {
		s.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		return
	}
	units, advance := segment(buffer[s.carved:])
	if len(units) > 0 {
		s.queue = append(s.queue, units...)
		s.carved += advance
	}
	s.startNextLocked()
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// segment carves delta into speakable units: complete sentences when
// available, otherwise a word-boundary prefix so no partial trailing word is
// spoken. Returns the units and how far into delta they reach.
func segment(delta string) ([]string, int) {
	locs := sentenceRx.FindAllStringIndex(delta, -1)
	if len(locs) > 0 {
		units := make([]string, 0, len(locs))
		for _, lc := range locs {
			units = append(units, delta[lc[0]:lc[1]])
		}
		return units, locs[len(locs)-1][1]
	}
	trimmed := strings.TrimSpace(delta)
	if len(trimmed) <= 5 {
		return nil, 0
	}
	if len(strings.Fields(delta)) >= 3 {
		if i := strings.LastIndex(delta, " "); i > 2 {
			return []string{delta[:i+1]}, i + 1
		}
	}
	if len(trimmed) > 8 {
		return []string{delta}, len(delta)
	}
	return nil, 0
}

// Finish narrates whatever tail of a completed message was not spoken during
// streaming, once per message.
func (s *Scheduler) Finish(content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine == nil || s.mode == ModeOff || s.hasBeenRead {
		return
	}
	p := s.spokenPrefix
	if p > len(content) {
		p = len(content)
	}
	remaining := content[p:]
	if len(strings.TrimSpace(remaining)) <= 3 {
		s.hasBeenRead = true
		return
	}
	s.content = content
	s.carved = len(content)
	s.finishing = true
	s.queue = append(s.queue, remaining)
	s.startNextLocked()
}

// Replay narrates a full committed message from the start, or stops playback
// if narration is already running. Engine absence is only surfaced here, on
// the explicit user request.
func (s *Scheduler) Replay(content string) error {
	s.mu.Lock()
	if s.mode == ModeOff {
		s.mu.Unlock()
		return nil
	}
	if s.speaking {
		cancel := s.stopLocked()
		s.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		return nil
	}
	if s.engine == nil {
		s.mu.Unlock()
		return errors.New("speech synthesis is not supported")
	}
	s.content = content
	s.spokenPrefix = 0
	s.carved = len(content)
	s.hasBeenRead = false
	s.finishing = true
	s.queue = append(s.queue[:0], content)
	s.startNextLocked()
	s.mu.Unlock()
	return nil
}

// Cancel synchronously stops the current utterance and clears the pending
// queue so no stale unit speaks afterward.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	cancel := s.stopLocked()
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Reset discards all per-turn narration state.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	s.gen++
	cancel := s.cancel
	s.resetLocked()
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// stopLocked invalidates any in-flight utterance and empties the queue.
// The returned cancel func must be called after the lock is released.
func (s *Scheduler) stopLocked() context.CancelFunc {
	s.gen++
	cancel := s.cancel
	s.cancel = nil
	s.queue = nil
	s.speaking = false
	s.current = ""
	s.finishing = false
	return cancel
}

func (s *Scheduler) resetLocked() {
	s.queue = nil
	s.speaking = false
	s.current = ""
	s.cancel = nil
	s.spokenPrefix = 0
	s.carved = 0
	s.content = ""
	s.turnStart = time.Time{}
	s.hasBeenRead = false
	s.finishing = false
}

// startNextLocked dequeues and speaks the next unit when nothing is
// currently speaking. Caller holds s.mu.
func (s *Scheduler) startNextLocked() {
	if s.speaking || len(s.queue) == 0 {
		return
	}
	var unit string
	for len(s.queue) > 0 {
		unit = s.queue[0]
		s.queue = s.queue[1:]
		if strings.TrimSpace(unit) != "" {
			break
		}
		unit = ""
	}
	if unit == "" {
		if s.finishing {
			s.hasBeenRead = true
			s.finishing = false
		}
		return
	}
	s.speaking = true
	s.current = unit
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.speakUnit(ctx, s.gen, unit, s.lang, s.mode, s.rate)
}

func (s *Scheduler) speakUnit(ctx context.Context, gen uint64, unit, lang string, mode Mode, rate float64) {
	voices := s.engine.Voices()
	for len(voices) == 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(voiceRetryDelay):
		}
		voices = s.engine.Voices()
	}
	voice, _ := SelectVoice(lang, mode, voices)
	err := <-s.engine.Speak(ctx, Utterance{
		Text:  unit,
		Voice: voice,
		Lang:  LangTag(lang),
		Pitch: PitchFor(lang, mode),
		Rate:  rate,
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		// Canceled while speaking; a late completion must not flip state.
		return
	}
	s.speaking = false
	s.current = ""
	s.cancel = nil
	if err != nil {
		// Drop the failed unit and move on rather than stalling the queue.
		log.Printf("speech: utterance failed, skipping: %v", err)
	} else {
		n := s.spokenPrefix + len(unit)
		if n > len(s.content) {
			n = len(s.content)
		}
		s.spokenPrefix = n
	}
	if len(s.queue) > 0 {
		s.startNextLocked()
		return
	}
	if s.finishing {
		s.hasBeenRead = true
		s.finishing = false
	}
}

// CycleRate advances the speech-rate multiplier to the next value in the
// cycle. A change mid-playback restarts the current unit at the new rate.
func (s *Scheduler) CycleRate() float64 {
	s.mu.Lock()
	s.rate = NextRate(s.rate)
	rate := s.rate
	if !s.speaking || s.current == "" {
		s.mu.Unlock()
		return rate
	}
	s.gen++
	cancel := s.cancel
	s.cancel = nil
	s.speaking = false
	s.queue = append([]string{s.current}, s.queue...)
	s.current = ""
	s.startNextLocked()
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return rate
}

// SetMode switches the narration mode. Turning narration off cancels any
// active playback; other switches take effect on the next utterance.
func (s *Scheduler) SetMode(mode Mode) {
	s.mu.Lock()
	s.mode = mode
	var cancel context.CancelFunc
	if mode == ModeOff {
		cancel = s.stopLocked()
	}
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// SetLanguage takes effect on the next utterance.
func (s *Scheduler) SetLanguage(language string) {
	s.mu.Lock()
	s.lang = language
	s.mu.Unlock()
}

// Voices lists what the engine currently offers, empty when narration is
// unavailable or voices have not loaded yet.
func (s *Scheduler) Voices() []Voice {
	if s.engine == nil {
		return nil
	}
	return s.engine.Voices()
}

// IsSpeaking reports whether an utterance is currently being spoken.
func (s *Scheduler) IsSpeaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speaking
}

// Rate returns the current speech-rate multiplier.
func (s *Scheduler) Rate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rate
}
