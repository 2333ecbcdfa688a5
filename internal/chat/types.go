package chat

import (
	"context"
	"time"
)

// Role identifies the author of a transcript turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one committed transcript entry. Turns are immutable once appended.
type Turn struct {
	Role      Role
	Content   string
	Timestamp time.Time
}

// MessageRequest starts or continues an assistant turn on the server.
type MessageRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
	ModelID   string `json:"modelId"`
	AgentID   string `json:"agentId"`
}

// StreamEvent is one inbound notification for the in-flight turn.
// Err is set for chat:error events; otherwise Chunk carries partial text
// until Done, at which point FullMessage (if present) is authoritative.
type StreamEvent struct {
	Chunk       string
	Done        bool
	FullMessage string
	Err         string
}

// Transport is the realtime server collaborator. Events must be delivered
// in order; the channel closes when the connection is gone.
type Transport interface {
	SendMessage(ctx context.Context, req MessageRequest) error
	StopGeneration(ctx context.Context, sessionID string) error
	Events() <-chan StreamEvent
	Close() error
}

// Narrator consumes growth of the in-flight assistant buffer and drives
// speech playback. All methods must be safe to call from the event loop.
type Narrator interface {
	// Observe is offered the full current buffer after each chunk.
	Observe(buffer string)
	// Finish narrates whatever tail of content has not been spoken yet.
	Finish(content string)
	// Cancel stops the current utterance and clears the pending queue.
	Cancel()
	// Reset discards all per-turn narration state.
	Reset()
}

// NopNarrator is used when narration is disabled or unavailable.
type NopNarrator struct{}

func (NopNarrator) Observe(string) {}
func (NopNarrator) Finish(string)  {}
func (NopNarrator) Cancel()        {}
func (NopNarrator) Reset()         {}
