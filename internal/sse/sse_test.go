package sse

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBroker() *Broker {
	return NewBroker(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestBroker_PublishReachesOnlyThatSession(t *testing.T) {
	b := testBroker()
	_, a := b.Subscribe("sess-a")
	_, other := b.Subscribe("sess-b")

	b.Publish("sess-a", Message{Type: "state", Data: map[string]int{"version": 1}})

	select {
	case msg := <-a:
		assert.Equal(t, "state", msg.Type)
		assert.NotZero(t, msg.ID)
		assert.False(t, msg.Timestamp.IsZero())
	default:
		t.Fatal("subscriber did not receive message")
	}
	assert.Empty(t, other)
}

func TestBroker_PublishFansOutToAllTabs(t *testing.T) {
	b := testBroker()
	_, tab1 := b.Subscribe("sess-a")
	_, tab2 := b.Subscribe("sess-a")

	b.Publish("sess-a", Message{Type: "state"})

	assert.Len(t, tab1, 1)
	assert.Len(t, tab2, 1)
	assert.Equal(t, 2, b.ClientCount())
}

func TestBroker_PublishDoesNotBlockOnFullClient(t *testing.T) {
	b := testBroker()
	_, ch := b.Subscribe("sess-a")

	for i := 0; i < clientBuffer+5; i++ {
		b.Publish("sess-a", Message{Type: "state"})
	}
	assert.Len(t, ch, clientBuffer)
}

func TestBroker_UnsubscribeClosesChannel(t *testing.T) {
	b := testBroker()
	id, ch := b.Subscribe("sess-a")

	b.Unsubscribe("sess-a", id)
	b.Unsubscribe("sess-a", id) // second call is a no-op

	_, open := <-ch
	assert.False(t, open)
	assert.Zero(t, b.ClientCount())
}

func TestBroker_CloseEndsStreams(t *testing.T) {
	b := testBroker()
	_, ch := b.Subscribe("sess-a")

	b.Close()
	_, open := <-ch
	assert.False(t, open)

	_, late := b.Subscribe("sess-b")
	_, open = <-late
	assert.False(t, open)
	assert.Zero(t, b.ClientCount())
}

func TestWriteMessage_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeMessage(&buf, Message{ID: 7, Type: "state", Data: map[string]string{"status": "ok"}}))
	assert.Equal(t, "id: 7\nevent: state\ndata: {\"status\":\"ok\"}\n\n", buf.String())

	buf.Reset()
	require.NoError(t, writeMessage(&buf, Message{ID: 8}))
	assert.Equal(t, "id: 8\ndata: {}\n\n", buf.String())
}

func TestServe_StreamsConnectedThenState(t *testing.T) {
	b := testBroker()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.Serve(w, r, "sess-a", map[string]int{"version": 0})
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	first := readEvent(t, reader)
	assert.Contains(t, first, "event: connected")
	assert.Contains(t, first, `data: {"version":0}`)

	require.Eventually(t, func() bool { return b.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	b.Publish("sess-a", Message{Type: "state", Data: map[string]int{"version": 1}})

	second := readEvent(t, reader)
	assert.Contains(t, second, "event: state")
	assert.Contains(t, second, `data: {"version":1}`)
}

func readEvent(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	var lines []string
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		if line == "" {
			return strings.Join(lines, "\n")
		}
		lines = append(lines, line)
	}
}
