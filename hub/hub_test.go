package hub

import (
	"testing"

	"github.com/P4rz1val22/chat-app/types"
)

func TestSendAfterTeardownDoesNotPanic(t *testing.T) {
	h := NewHub(nil, nil)
	c := &Conn{
		ID:        "conn-1",
		UserID:    7,
		SendQueue: make(chan types.WSMessage, 1),
		Done:      make(chan struct{}),
	}
	h.mu.Lock()
	h.conns[c.ID] = c
	h.mu.Unlock()

	// SendToUser snapshots targets before sending; a teardown can land in
	// between, so a send to an already-unbound connection must be harmless.
	h.Unbind(c)
	safeSend(c, types.WSMessage{Type: "user_rooms_updated"})
	h.SendToUser(7, types.WSMessage{Type: "user_rooms_updated"})
}

func TestUnbindTwiceIsHarmless(t *testing.T) {
	h := NewHub(nil, nil)
	c := &Conn{
		ID:        "conn-1",
		UserID:    7,
		SendQueue: make(chan types.WSMessage, 1),
		Done:      make(chan struct{}),
	}
	h.mu.Lock()
	h.conns[c.ID] = c
	h.mu.Unlock()

	h.Unbind(c)
	h.Unbind(c)

	select {
	case <-c.Done:
	default:
		t.Fatal("Done should be closed after unbind")
	}
}
