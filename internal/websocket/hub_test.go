package websocket

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"

	"github.com/screenquest/screenquest/internal/task"
)

func testHub() *Hub {
	return NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testClient(h *Hub) *Client {
	return &Client{hub: h, send: make(chan []byte, sendBufferSize)}
}

func TestHubRegisterUnregister(t *testing.T) {
	h := testHub()
	c := testClient(h)

	h.Register(c)
	if h.ClientCount() != 1 {
		t.Errorf("client count = %d, want 1", h.ClientCount())
	}

	h.Unregister(c)
	if h.ClientCount() != 0 {
		t.Errorf("client count after unregister = %d, want 0", h.ClientCount())
	}

	// Double-unregister must not panic or double-close the channel.
	h.Unregister(c)
}

func TestHubBroadcastReachesAllClients(t *testing.T) {
	h := testHub()
	c1 := testClient(h)
	c2 := testClient(h)
	h.Register(c1)
	h.Register(c2)

	e := task.Event{Type: task.EventTaskApproved, AssignmentID: uuid.New(), ChildID: 3, Title: "Dishes"}
	h.Broadcast(e)

	for i, c := range []*Client{c1, c2} {
		select {
		case data := <-c.send:
			var got task.Event
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("client %d: unmarshal: %v", i, err)
			}
			if got.Type != e.Type || got.AssignmentID != e.AssignmentID {
				t.Errorf("client %d got %+v", i, got)
			}
		default:
			t.Errorf("client %d received nothing", i)
		}
	}
}

func TestHubBroadcastDropsWhenClientFull(t *testing.T) {
	h := testHub()
	c := testClient(h)
	h.Register(c)

	// Fill the buffer and then some; the hub must never block.
	e := task.Event{Type: task.EventTaskStarted, AssignmentID: uuid.New()}
	for i := 0; i < sendBufferSize+5; i++ {
		h.Broadcast(e)
	}

	if got := len(c.send); got != sendBufferSize {
		t.Errorf("buffered = %d, want %d with overflow dropped", got, sendBufferSize)
	}
}
