// Package sse pushes per-session state changes to browsers over Server-Sent Events.
package sse

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// clientBuffer bounds each connection's backlog. A slow client loses messages
// rather than stalling the publisher.
const clientBuffer = 16

// Message is one Server-Sent Event.
type Message struct {
	ID        uint64    `json:"id"`
	Type      string    `json:"type"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Broker fans messages out to every open connection of a session.
type Broker struct {
	logger    *slog.Logger
	keepalive time.Duration
	nextID    atomic.Uint64

	mu      sync.RWMutex
	closed  bool
	clients map[string]map[uint64]chan Message // session ID -> connection ID -> channel
}

// NewBroker creates a broker with a 30s keepalive.
func NewBroker(logger *slog.Logger) *Broker {
	return &Broker{
		logger:    logger,
		keepalive: 30 * time.Second,
		clients:   make(map[string]map[uint64]chan Message),
	}
}

// Subscribe registers a new connection for sessionID.
func (b *Broker) Subscribe(sessionID string) (connID uint64, ch <-chan Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	connID = b.nextID.Add(1)
	c := make(chan Message, clientBuffer)
	if b.closed {
		close(c)
		return connID, c
	}
	conns, ok := b.clients[sessionID]
	if !ok {
		conns = make(map[uint64]chan Message)
		b.clients[sessionID] = conns
	}
	conns[connID] = c

	b.logger.Debug("sse client connected", "session_id", sessionID, "conn_id", connID)
	return connID, c
}

// Unsubscribe removes a connection and closes its channel.
func (b *Broker) Unsubscribe(sessionID string, connID uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	conns := b.clients[sessionID]
	c, ok := conns[connID]
	if !ok {
		return
	}
	close(c)
	delete(conns, connID)
	if len(conns) == 0 {
		delete(b.clients, sessionID)
	}
	b.logger.Debug("sse client disconnected", "session_id", sessionID, "conn_id", connID)
}

// Publish delivers msg to every connection of sessionID without blocking.
func (b *Broker) Publish(sessionID string, msg Message) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	msg = b.stamp(msg)
	for connID, c := range b.clients[sessionID] {
		select {
		case c <- msg:
		default:
			b.logger.Warn("sse client channel full, skipping message",
				"session_id", sessionID, "conn_id", connID, "type", msg.Type)
		}
	}
}

// Close ends every open stream. Later subscribers get an already closed channel.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	for sessionID, conns := range b.clients {
		for _, c := range conns {
			close(c)
		}
		delete(b.clients, sessionID)
	}
}

// ClientCount returns the number of open connections across all sessions.
func (b *Broker) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n := 0
	for _, conns := range b.clients {
		n += len(conns)
	}
	return n
}

func (b *Broker) stamp(msg Message) Message {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	if msg.ID == 0 {
		msg.ID = b.nextID.Add(1)
	}
	return msg
}
