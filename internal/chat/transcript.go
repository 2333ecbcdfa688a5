package chat

import "sync"

// Transcript is the append-only ordered log of committed turns for one
// session view. Append and Clear are the only mutations.
type Transcript struct {
	mu    sync.Mutex
	turns []Turn
}

func NewTranscript() *Transcript {
	return &Transcript{}
}

// Append inserts a turn at the end of the log.
func (t *Transcript) Append(turn Turn) {
	t.mu.Lock()
	t.turns = append(t.turns, turn)
	t.mu.Unlock()
}

// Clear empties the local transcript view. Server-side history is untouched.
func (t *Transcript) Clear() {
	t.mu.Lock()
	t.turns = nil
	t.mu.Unlock()
}

// List returns the ordered turns. The returned slice is a copy; callers
// must not mutate the turns themselves.
func (t *Transcript) List() []Turn {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Turn, len(t.turns))
	copy(out, t.turns)
	return out
}

// Last returns the most recent turn, if any.
func (t *Transcript) Last() (Turn, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.turns) == 0 {
		return Turn{}, false
	}
	return t.turns[len(t.turns)-1], true
}

// LastUser returns the most recent user turn, if any.
func (t *Transcript) LastUser() (Turn, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := len(t.turns) - 1; i >= 0; i-- {
		if t.turns[i].Role == RoleUser {
			return t.turns[i], true
		}
	}
	return Turn{}, false
}

func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.turns)
}
