// Package transport implements the realtime server collaborator as a
// JSON-over-WebSocket client. The server must deliver stream events in
// order; this layer performs no reordering or deduplication.
package transport

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/rsukhar/startup-hacker-course/internal/chat"
)

// wsMessage is the single frame format for both directions.
// Types: "chat:message", "chat:stop", "chat:stream", "chat:error".
type wsMessage struct {
	Type string `json:"type"`
	// chat:message
	Message   string `json:"message,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	ModelID   string `json:"modelId,omitempty"`
	AgentID   string `json:"agentId,omitempty"`
	// chat:stream
	Chunk       string `json:"chunk,omitempty"`
	Done        bool   `json:"done,omitempty"`
	FullMessage string `json:"fullMessage,omitempty"`
	// chat:error
	Error string `json:"error,omitempty"`
}

// WSClient is a chat.Transport over one WebSocket connection.
type WSClient struct {
	conn   *websocket.Conn
	events chan chat.StreamEvent
	done   chan struct{}

	mu     sync.Mutex
	closed bool
}

// Dial connects to the chat endpoint and starts the read loop.
func Dial(ctx context.Context, url string) (*WSClient, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	c := &WSClient{
		conn:   conn,
		events: make(chan chat.StreamEvent, 64),
		done:   make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

func (c *WSClient) readLoop() {
	defer close(c.events)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			closed := c.closed
			c.mu.Unlock()
			if !closed {
				log.Printf("transport: read error: %v", err)
			}
			return
		}
		var m wsMessage
		if jerr := json.Unmarshal(data, &m); jerr != nil {
			log.Printf("transport: bad frame: %v", jerr)
			continue
		}
		var ev chat.StreamEvent
		switch m.Type {
		case "chat:stream":
			ev = chat.StreamEvent{Chunk: m.Chunk, Done: m.Done, FullMessage: m.FullMessage}
		case "chat:error":
			ev = chat.StreamEvent{Err: m.Error}
		default:
			continue
		}
		// Close must unblock delivery even when no one is draining events.
		select {
		case c.events <- ev:
		case <-c.done:
			return
		}
	}
}

// SendMessage emits a chat:message frame starting or continuing a turn.
func (c *WSClient) SendMessage(_ context.Context, req chat.MessageRequest) error {
	return c.writeJSON(wsMessage{
		Type:      "chat:message",
		Message:   req.Message,
		SessionID: req.SessionID,
		ModelID:   req.ModelID,
		AgentID:   req.AgentID,
	})
}

// StopGeneration asks the server to stop generating for this session.
func (c *WSClient) StopGeneration(_ context.Context, sessionID string) error {
	return c.writeJSON(wsMessage{Type: "chat:stop", SessionID: sessionID})
}

func (c *WSClient) writeJSON(m wsMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(m)
}

// Events yields inbound stream events in delivery order. The channel closes
// when the connection is gone.
func (c *WSClient) Events() <-chan chat.StreamEvent {
	return c.events
}

func (c *WSClient) Close() error {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.done)
	}
	c.mu.Unlock()
	return c.conn.Close()
}
