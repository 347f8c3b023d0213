package relay

import (
	"testing"

	"github.com/gorilla/websocket"

	"lifeline/internal/domain"
)

// A REQ write can complete just as the connection drops. The sent flag may
// only be set while the same connection is still current; a mark that lands
// after the disconnect's markAllUnsent would keep the filter from being
// replayed on the next connection.
func TestMarkSentOn_StaleConnection(t *testing.T) {
	c := New(Config{URL: "ws://127.0.0.1:0", Hub: "hub-a"}, nil, nil)
	sub := &subscription{id: domain.SubscriptionID("s1")}
	c.subs.add(sub)

	conn := &websocket.Conn{}

	// No current connection: the late mark must not stick.
	c.markSentOn(conn, sub.id)
	if got := len(c.subs.pendingInOrder()); got != 1 {
		t.Fatalf("pending = %d, want 1 after mark on a stale connection", got)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	c.markSentOn(conn, sub.id)
	if got := len(c.subs.sentInOrder()); got != 1 {
		t.Fatalf("sent = %d, want 1 after mark on the current connection", got)
	}

	// A disconnect clears the flags and supersedes the old connection.
	c.mu.Lock()
	c.conn = nil
	c.mu.Unlock()
	c.subs.markAllUnsent()
	c.markSentOn(conn, sub.id)
	if got := len(c.subs.pendingInOrder()); got != 1 {
		t.Fatalf("pending = %d, want 1 after disconnect", got)
	}
}
