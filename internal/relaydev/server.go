// Package relaydev implements an in-memory relay for local development and
// integration tests. It keeps no history: events are fanned out to live
// subscriptions and forgotten.
package relaydev

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"lifeline/internal/relay"
)

// Options configures a Server.
type Options struct {
	// RequireAuth makes the server challenge every connection and reject
	// events published before a valid AUTH response.
	RequireAuth bool
}

// Server is an http.Handler that upgrades requests to relay connections.
type Server struct {
	opts     Options
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*client]struct{}
}

// NewServer returns an empty relay.
func NewServer(opts Options) *Server {
	return &Server{
		opts:  opts,
		conns: make(map[*client]struct{}),
	}
}

type client struct {
	conn      *websocket.Conn
	writeMu   sync.Mutex
	challenge string

	mu     sync.Mutex
	authed bool
	subs   map[string]relay.Filter
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &client{conn: conn, subs: make(map[string]relay.Filter)}

	s.mu.Lock()
	s.conns[c] = struct{}{}
	s.mu.Unlock()

	if s.opts.RequireAuth {
		c.challenge = uuid.NewString()
		c.send("AUTH", c.challenge)
	}

	s.readLoop(c)

	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
	_ = conn.Close()
}

func (s *Server) readLoop(c *client) {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var parts []json.RawMessage
		if json.Unmarshal(data, &parts) != nil || len(parts) == 0 {
			c.send("NOTICE", "malformed frame")
			continue
		}
		var verb string
		if json.Unmarshal(parts[0], &verb) != nil {
			c.send("NOTICE", "malformed frame")
			continue
		}
		switch verb {
		case "REQ":
			s.handleReq(c, parts[1:])
		case "CLOSE":
			s.handleClose(c, parts[1:])
		case "EVENT":
			s.handleEvent(c, parts[1:])
		case "AUTH":
			s.handleAuth(c, parts[1:])
		default:
			c.send("NOTICE", "unknown verb "+verb)
		}
	}
}

func (s *Server) handleReq(c *client, rest []json.RawMessage) {
	if len(rest) < 2 {
		c.send("NOTICE", "REQ needs id and filter")
		return
	}
	var subID string
	var f relay.Filter
	if json.Unmarshal(rest[0], &subID) != nil || json.Unmarshal(rest[1], &f) != nil {
		c.send("NOTICE", "malformed REQ")
		return
	}
	c.mu.Lock()
	c.subs[subID] = f
	c.mu.Unlock()
	// No stored history, so the boundary comes straight back.
	c.send("EOSE", subID)
}

func (s *Server) handleClose(c *client, rest []json.RawMessage) {
	if len(rest) < 1 {
		return
	}
	var subID string
	if json.Unmarshal(rest[0], &subID) != nil {
		return
	}
	c.mu.Lock()
	delete(c.subs, subID)
	c.mu.Unlock()
}

func (s *Server) handleEvent(c *client, rest []json.RawMessage) {
	if len(rest) < 1 {
		return
	}
	var ev relay.Event
	if json.Unmarshal(rest[0], &ev) != nil {
		c.send("NOTICE", "malformed EVENT")
		return
	}
	if !ev.Verify() {
		c.send("OK", ev.ID, false, "invalid: bad id or signature")
		return
	}
	if s.opts.RequireAuth {
		c.mu.Lock()
		authed := c.authed
		c.mu.Unlock()
		if !authed {
			c.send("OK", ev.ID, false, "auth-required: publish")
			return
		}
	}
	c.send("OK", ev.ID, true, "")
	s.Broadcast(&ev)
}

func (s *Server) handleAuth(c *client, rest []json.RawMessage) {
	if len(rest) < 1 {
		return
	}
	var ev relay.Event
	if json.Unmarshal(rest[0], &ev) != nil {
		return
	}
	challenge, _ := ev.Tag(relay.TagChallenge)
	skew := time.Since(time.Unix(ev.CreatedAt, 0))
	if skew < 0 {
		skew = -skew
	}
	ok := ev.Kind == relay.KindAuth &&
		challenge == c.challenge &&
		skew < 10*time.Minute &&
		ev.Verify()
	if !ok {
		c.send("OK", ev.ID, false, "auth-required: bad auth event")
		return
	}
	c.mu.Lock()
	c.authed = true
	c.mu.Unlock()
	c.send("OK", ev.ID, true, "")
}

// DropConnections severs every live connection without stopping the server,
// simulating a relay-side failure. Clients observe an abnormal close.
func (s *Server) DropConnections() {
	s.mu.Lock()
	conns := make([]*client, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()
	for _, c := range conns {
		_ = c.conn.Close()
	}
}

// Subscriptions reports the number of live subscriptions across all
// connections. Tests use it to wait for REQ frames to land before injecting
// events.
func (s *Server) Subscriptions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for c := range s.conns {
		c.mu.Lock()
		n += len(c.subs)
		c.mu.Unlock()
	}
	return n
}

// Broadcast fans ev out to every connection with a matching subscription.
// Tests use it to inject events without a publishing client.
func (s *Server) Broadcast(ev *relay.Event) {
	s.mu.Lock()
	conns := make([]*client, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		c.mu.Lock()
		for subID, f := range c.subs {
			if matches(f, ev) {
				c.send("EVENT", subID, ev)
			}
		}
		c.mu.Unlock()
	}
}

func matches(f relay.Filter, ev *relay.Event) bool {
	if len(f.Kinds) > 0 && !containsInt(f.Kinds, ev.Kind) {
		return false
	}
	if len(f.Hubs) > 0 {
		hub, ok := ev.Tag(relay.TagHub)
		if !ok || !containsString(f.Hubs, hub) {
			return false
		}
	}
	if len(f.Topics) > 0 {
		topic, ok := ev.Tag(relay.TagTopic)
		if !ok || !containsString(f.Topics, topic) {
			return false
		}
	}
	if f.Since > 0 && ev.CreatedAt < f.Since {
		return false
	}
	return true
}

func containsInt(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

func containsString(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

func (c *client) send(parts ...any) {
	data, err := json.Marshal(parts)
	if err != nil {
		log.Printf("relaydev: marshal: %v", err)
		return
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	_ = c.conn.WriteMessage(websocket.TextMessage, data)
}
