package chat

import "strings"

// Accumulator merges ordered partial-text events for one in-flight assistant
// turn into a monotonically growing buffer. It performs no deduplication of
// chunks; the transport guarantees ordered, non-duplicated delivery.
type Accumulator struct {
	b strings.Builder
}

// Append adds a chunk to the buffer and returns the full buffer so far.
func (a *Accumulator) Append(chunk string) string {
	a.b.WriteString(chunk)
	return a.b.String()
}

// Text returns the accumulated buffer.
func (a *Accumulator) Text() string {
	return a.b.String()
}

// Resolve picks the authoritative final text for a done event: the server
// override when present, otherwise whatever partial buffer exists.
func (a *Accumulator) Resolve(override string) string {
	if override != "" {
		return override
	}
	return a.b.String()
}

// Reset discards the buffer.
func (a *Accumulator) Reset() {
	a.b.Reset()
}
