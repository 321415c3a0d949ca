package sse

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Serve streams sessionID's messages to the client until it disconnects. The
// first event is always "connected" carrying initial, so a reconnecting page
// can resynchronize before any further change arrives.
func (b *Broker) Serve(w http.ResponseWriter, r *http.Request, sessionID string, initial any) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable Nginx buffering

	connID, messages := b.Subscribe(sessionID)
	defer b.Unsubscribe(sessionID, connID)

	if err := writeMessage(w, b.stamp(Message{Type: "connected", Data: initial})); err != nil {
		b.logger.Warn("sse initial write failed", "session_id", sessionID, "error", err)
		return
	}
	flusher.Flush()

	keepalive := time.NewTicker(b.keepalive)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return

		case msg, ok := <-messages:
			if !ok {
				return
			}
			if err := writeMessage(w, msg); err != nil {
				b.logger.Warn("sse write failed", "session_id", sessionID, "error", err)
				return
			}
			flusher.Flush()

		case <-keepalive.C:
			if _, err := io.WriteString(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeMessage(w io.Writer, msg Message) error {
	data := []byte("{}")
	if msg.Data != nil {
		var err error
		if data, err = json.Marshal(msg.Data); err != nil {
			return fmt.Errorf("marshal sse data: %w", err)
		}
	}
	if msg.Type != "" {
		_, err := fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", msg.ID, msg.Type, data)
		return err
	}
	_, err := fmt.Fprintf(w, "id: %d\ndata: %s\n\n", msg.ID, data)
	return err
}
