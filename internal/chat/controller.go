package chat

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
)

// State is the lifecycle phase of the current turn.
type State int

const (
	StateIdle State = iota
	StateSending
	StateStreaming
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateStreaming:
		return "streaming"
	case StatePaused:
		return "paused"
	}
	return "unknown"
}

// Controller orchestrates one user->assistant turn: it submits requests,
// owns the accumulation buffer for the in-flight reply, feeds the narrator
// on each growth, and commits finalized text into the transcript.
type Controller struct {
	transport  Transport
	transcript *Transcript
	narrator   Narrator

	sessionID string
	modelID   string
	agentID   string
	language  string

	now func() time.Time

	// OnTurn, when set before Start, is invoked after a turn is committed
	// to the transcript (for rendering). Called outside the lock.
	OnTurn func(Turn)

	mu         sync.Mutex
	state      State
	acc        Accumulator
	pausedText string
}

// NewController constructs a controller bound to one session. A nil narrator
// disables narration.
func NewController(transport Transport, transcript *Transcript, narrator Narrator, sessionID, modelID, agentID, language string) *Controller {
	if narrator == nil {
		narrator = NopNarrator{}
	}
	return &Controller{
		transport:  transport,
		transcript: transcript,
		narrator:   narrator,
		sessionID:  sessionID,
		modelID:    modelID,
		agentID:    agentID,
		language:   language,
		now:        time.Now,
		state:      StateIdle,
	}
}

// Start consumes transport events until the context ends or the event
// channel closes. A closed channel is a disconnect and surfaces as an error
// turn if a reply was in flight.
func (c *Controller) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-c.transport.Events():
				if !ok {
					c.onDisconnect()
					return
				}
				c.dispatch(ev)
			}
		}
	}()
}

func (c *Controller) dispatch(ev StreamEvent) {
	switch {
	case ev.Err != "":
		c.onError(ev.Err)
	case ev.Done:
		c.onDone(ev.FullMessage)
	default:
		c.onChunk(ev.Chunk)
	}
}

// Send submits a new user message. Blank messages, a turn already in flight,
// and a missing transport are all silent no-ops.
func (c *Controller) Send(message string) {
	if strings.TrimSpace(message) == "" || c.transport == nil {
		return
	}
	c.mu.Lock()
	if c.state == StateSending || c.state == StateStreaming {
		c.mu.Unlock()
		return
	}
	c.state = StateSending
	c.pausedText = ""
	c.acc.Reset()
	c.mu.Unlock()

	// The user turn is committed optimistically, before any server ack.
	c.appendTurn(Turn{Role: RoleUser, Content: message, Timestamp: c.now()})

	// Leftover narration from a previous turn must not bleed into this one.
	c.narrator.Cancel()
	c.narrator.Reset()

	c.emit(MessageRequest{Message: message, SessionID: c.sessionID, ModelID: c.modelID, AgentID: c.agentID})
}

func (c *Controller) emit(req MessageRequest) {
	if err := c.transport.SendMessage(context.Background(), req); err != nil {
		log.Printf("chat: send failed: %v", err)
		c.onError(err.Error())
	}
}

// onChunk appends ordered partial text to the buffer and offers the grown
// buffer to the narrator. Chunks arriving after a pause took effect are
// dropped.
func (c *Controller) onChunk(chunk string) {
	c.mu.Lock()
	if c.state != StateSending && c.state != StateStreaming {
		c.mu.Unlock()
		return
	}
	c.state = StateStreaming
	buf := c.acc.Append(chunk)
	c.mu.Unlock()

	c.narrator.Observe(buf)
}

// onDone commits the authoritative final text. A done racing a pause that
// already committed identical text is suppressed by the duplicate guard.
func (c *Controller) onDone(fullMessage string) {
	c.mu.Lock()
	if c.state == StateIdle {
		c.mu.Unlock()
		return
	}
	paused := c.state == StatePaused
	final := c.acc.Resolve(fullMessage)
	c.acc.Reset()
	if !paused {
		c.state = StateIdle
	}
	c.mu.Unlock()

	if strings.TrimSpace(final) == "" {
		return
	}
	if c.commitAssistant(final) && !paused {
		c.narrator.Finish(final)
	}
}

// onError surfaces a transport fault as a visible assistant turn and
// discards all in-flight state. There is no automatic retry.
func (c *Controller) onError(message string) {
	c.mu.Lock()
	c.acc.Reset()
	c.pausedText = ""
	c.state = StateIdle
	c.mu.Unlock()

	c.narrator.Cancel()
	c.appendTurn(Turn{
		Role:      RoleAssistant,
		Content:   fmt.Sprintf("Error: %s", message),
		Timestamp: c.now(),
	})
}

func (c *Controller) onDisconnect() {
	c.mu.Lock()
	inFlight := c.state == StateSending || c.state == StateStreaming
	c.mu.Unlock()
	if inFlight {
		c.onError("connection to server lost")
	}
}

// Pause finalizes what has streamed so far into the transcript, stops
// narration, and asks the server to stop generating. Valid only while
// streaming.
func (c *Controller) Pause() {
	c.mu.Lock()
	if c.state != StateStreaming {
		c.mu.Unlock()
		return
	}
	text := c.acc.Text()
	c.acc.Reset()
	c.state = StatePaused
	c.pausedText = text
	c.mu.Unlock()

	c.narrator.Cancel()
	if strings.TrimSpace(text) != "" {
		c.commitAssistant(text)
	}
	if err := c.transport.StopGeneration(context.Background(), c.sessionID); err != nil {
		log.Printf("chat: stop signal failed: %v", err)
	}
}

// Continue resumes a paused reply by asking the assistant to pick up from
// the last complete word of the paused text, scoped to the most recent user
// message. Valid only while paused with non-empty paused text.
func (c *Controller) Continue() {
	c.mu.Lock()
	if c.state != StatePaused || strings.TrimSpace(c.pausedText) == "" {
		c.mu.Unlock()
		return
	}
	lastWord := lastCompleteWord(c.pausedText)
	c.state = StateSending
	c.acc.Reset()
	c.mu.Unlock()

	// The resumed reply streams into a fresh buffer; narration state from
	// the paused turn must not carry over into it.
	c.narrator.Reset()

	var lastUser string
	if u, ok := c.transcript.LastUser(); ok {
		lastUser = u.Content
	}
	c.emit(MessageRequest{
		Message:   continuationPrompt(c.language, lastUser, lastWord),
		SessionID: c.sessionID,
		ModelID:   c.modelID,
		AgentID:   c.agentID,
	})
}

// Clear cancels narration, empties the transcript view and resets to idle.
func (c *Controller) Clear() {
	c.narrator.Cancel()
	c.mu.Lock()
	c.acc.Reset()
	c.pausedText = ""
	c.state = StateIdle
	c.mu.Unlock()
	c.transcript.Clear()
}

// State reports the current lifecycle phase.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// PendingResponse returns the partial buffer of the in-flight reply.
func (c *Controller) PendingResponse() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.acc.Text()
}

// commitAssistant appends an assistant turn unless the immediately preceding
// turn is an assistant turn with identical content. Reports whether a turn
// was appended.
func (c *Controller) commitAssistant(content string) bool {
	if last, ok := c.transcript.Last(); ok && last.Role == RoleAssistant && last.Content == content {
		return false
	}
	c.appendTurn(Turn{Role: RoleAssistant, Content: content, Timestamp: c.now()})
	return true
}

func (c *Controller) appendTurn(turn Turn) {
	c.transcript.Append(turn)
	if c.OnTurn != nil {
		c.OnTurn(turn)
	}
}

// lastCompleteWord takes the final whitespace-delimited token of text and
// strips trailing punctuation from it.
func lastCompleteWord(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	word := fields[len(fields)-1]
	stripped := strings.TrimRight(word, ".,!?;:—-–")
	if stripped == "" {
		return word
	}
	return stripped
}

// continuationPrompt builds the resume request in the session language.
func continuationPrompt(language, lastUser, lastWord string) string {
	if language == "ru" {
		if lastUser != "" {
			return fmt.Sprintf("Продолжи ответ на: %q. Продолжи с последнего слова: %q", lastUser, lastWord)
		}
		return fmt.Sprintf("Продолжи предыдущий ответ с последнего слова: %q", lastWord)
	}
	if lastUser != "" {
		return fmt.Sprintf("Continue the answer to: %q. Continue from the last word: %q", lastUser, lastWord)
	}
	return fmt.Sprintf("Continue the previous answer from the last word: %q", lastWord)
}
