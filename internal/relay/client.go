package relay

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"lifeline/internal/domain"
)

// State is the connection state, surfaced to the application as an indicator.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateAuthenticating
	StateConnected
)

// String returns the state's indicator label.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

const (
	// DefaultConnectTimeout bounds the websocket handshake.
	DefaultConnectTimeout = 10 * time.Second

	// DefaultAuthGrace is how long to wait for an auth challenge before
	// assuming an open relay.
	DefaultAuthGrace = 2 * time.Second

	writeTimeout = 10 * time.Second

	defaultSendRate  = 20
	defaultSendBurst = 40
)

var (
	// ErrClosed is returned by operations on a destroyed client.
	ErrClosed = errors.New("relay: client closed")

	// ErrNotConnected is returned by Publish when no connection is up.
	ErrNotConnected = errors.New("relay: not connected")
)

// Config holds the per-endpoint client settings.
type Config struct {
	URL             string
	Hub             domain.HubID
	FreshnessWindow time.Duration
	ConnectTimeout  time.Duration
	AuthGrace       time.Duration
	MaxAttempts     int
	SendRate        rate.Limit
	SendBurst       int
}

func (c *Config) applyDefaults() {
	if c.FreshnessWindow <= 0 {
		c.FreshnessWindow = DefaultFreshnessWindow
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.AuthGrace <= 0 {
		c.AuthGrace = DefaultAuthGrace
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxReconnectAttempts
	}
	if c.SendRate <= 0 {
		c.SendRate = defaultSendRate
	}
	if c.SendBurst <= 0 {
		c.SendBurst = defaultSendBurst
	}
}

// Stats are diagnostic counters.
type Stats struct {
	DroppedUndecryptable uint64
	DroppedStale         uint64
	DroppedUnverifiable  uint64
}

// Client maintains one logical connection to a relay endpoint and delivers
// each distinct, fresh application event to every matching subscription
// exactly once. All shared state is owned by the client; external code
// interacts only through its methods.
type Client struct {
	cfg     Config
	signer  domain.Signer
	cipher  domain.TransportCipher
	limiter *rate.Limiter
	ledger  *Ledger
	subs    *subscriptionSet

	mu             sync.Mutex
	conn           *websocket.Conn
	state          State
	authed         bool
	attempts       int
	reconnectTimer *time.Timer
	authGraceTimer *time.Timer
	closed         bool
	onState        func(State)
	rng            *rand.Rand

	writeMu sync.Mutex

	done     chan struct{}
	pruneOne sync.Once

	undecryptable atomic.Uint64
	stale         atomic.Uint64
	unverifiable  atomic.Uint64
}

// New returns a disconnected client. The signer answers auth challenges; a
// nil signer leaves the connection unauthenticated. The cipher decrypts
// transport payloads; a nil cipher drops every event.
func New(cfg Config, signer domain.Signer, cipher domain.TransportCipher) *Client {
	cfg.applyDefaults()
	return &Client{
		cfg:     cfg,
		signer:  signer,
		cipher:  cipher,
		limiter: rate.NewLimiter(cfg.SendRate, cfg.SendBurst),
		ledger:  NewLedger(cfg.FreshnessWindow),
		subs:    newSubscriptionSet(),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		done:    make(chan struct{}),
	}
}

// Connect opens the socket and starts the handshake. A failed dial schedules
// a reconnect; calling Connect externally restarts the backoff schedule.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	c.attempts = 0
	c.mu.Unlock()
	return c.connect(ctx)
}

func (c *Client) connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.state != StateDisconnected {
		c.mu.Unlock()
		return nil
	}
	c.setStateLocked(StateConnecting)
	c.mu.Unlock()

	c.startPruner()

	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.ConnectTimeout}
	dialCtx, cancel := context.WithTimeout(ctx, c.cfg.ConnectTimeout)
	defer cancel()

	conn, resp, err := dialer.DialContext(dialCtx, c.cfg.URL, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		c.mu.Lock()
		if !c.closed {
			c.setStateLocked(StateDisconnected)
			c.scheduleReconnectLocked()
		}
		c.mu.Unlock()
		return fmt.Errorf("relay: connect %s: %w", c.cfg.URL, err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = conn.Close()
		return ErrClosed
	}
	c.conn = conn
	c.authed = false
	c.setStateLocked(StateAuthenticating)
	// No challenge within the grace window means an open relay; proceed.
	c.authGraceTimer = time.AfterFunc(c.cfg.AuthGrace, func() {
		c.assumeOpenRelay(conn)
	})
	c.mu.Unlock()

	go c.readLoop(conn)
	return nil
}

// Subscribe registers a filter. When connected, the REQ goes out immediately;
// otherwise it is queued and flushed in registration order once the
// connection is established.
func (c *Client) Subscribe(topic domain.TopicID, kinds []int, handler Handler) (domain.SubscriptionID, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return "", ErrClosed
	}
	sub := &subscription{
		id:      domain.SubscriptionID(uuid.NewString()),
		topic:   topic,
		kinds:   append([]int(nil), kinds...),
		handler: handler,
	}
	c.subs.add(sub)
	conn := c.conn
	live := c.state == StateConnected
	c.mu.Unlock()

	if live && conn != nil {
		if err := c.sendReq(conn, sub); err == nil {
			c.markSentOn(conn, sub.id)
		}
	}
	return sub.id, nil
}

// Unsubscribe removes the filter and, when its REQ reached the relay, sends a
// cancellation. Unknown ids are a no-op.
func (c *Client) Unsubscribe(id domain.SubscriptionID) {
	existed, sent := c.subs.remove(id)
	if !existed || !sent {
		return
	}
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn != nil {
		if frame, err := closeFrame(string(id)); err == nil {
			_ = c.writeFrame(conn, frame)
		}
	}
}

// Publish transmits a pre-signed event. It fails when not connected.
func (c *Client) Publish(ctx context.Context, ev *Event) error {
	c.mu.Lock()
	conn := c.conn
	live := c.state == StateConnected
	closed := c.closed
	c.mu.Unlock()

	if closed {
		return ErrClosed
	}
	if !live || conn == nil {
		return ErrNotConnected
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	frame, err := eventFrame(ev)
	if err != nil {
		return err
	}
	return c.writeFrame(conn, frame)
}

// Close marks the client destroyed: timers cancelled, best-effort
// cancellations sent for live subscriptions, all local state cleared. No
// reconnection occurs afterwards. Close is idempotent.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	c.stopAuthGraceLocked()
	conn := c.conn
	c.conn = nil
	subs := c.subs.sentInOrder()
	c.setStateLocked(StateDisconnected)
	c.mu.Unlock()

	close(c.done)

	if conn != nil {
		for _, sub := range subs {
			if frame, err := closeFrame(string(sub.id)); err == nil {
				_ = c.writeFrame(conn, frame)
			}
		}
		_ = conn.Close()
	}
	c.subs.clear()
	c.ledger.Reset()
	return nil
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Authenticated reports whether the relay accepted (or never demanded) our
// auth event on the current connection.
func (c *Client) Authenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authed
}

// OnStateChange registers a callback invoked on every state transition. The
// callback runs on its own goroutine and must not assume ordering with
// event handlers.
func (c *Client) OnStateChange(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onState = fn
}

// Stats returns diagnostic drop counters.
func (c *Client) Stats() Stats {
	return Stats{
		DroppedUndecryptable: c.undecryptable.Load(),
		DroppedStale:         c.stale.Load(),
		DroppedUnverifiable:  c.unverifiable.Load(),
	}
}

// --- connection internals ---

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("relay: read: %v", err)
			}
			c.handleDisconnect(conn)
			return
		}
		c.handleFrame(conn, data)
	}
}

func (c *Client) handleFrame(conn *websocket.Conn, data []byte) {
	verb, rest, err := decodeFrame(data)
	if err != nil {
		return // protocol violation, dropped at receipt
	}
	switch verb {
	case verbAuth:
		var challenge string
		if len(rest) < 1 || json.Unmarshal(rest[0], &challenge) != nil {
			return
		}
		c.handleChallenge(conn, challenge)
	case verbEvent:
		if len(rest) < 2 {
			return
		}
		var ev Event
		if json.Unmarshal(rest[1], &ev) != nil {
			return
		}
		c.handleEvent(&ev)
	case verbOK:
		var id string
		var accepted bool
		if len(rest) >= 2 && json.Unmarshal(rest[0], &id) == nil && json.Unmarshal(rest[1], &accepted) == nil {
			if !accepted {
				reason := ""
				if len(rest) >= 3 {
					_ = json.Unmarshal(rest[2], &reason)
				}
				log.Printf("relay: event %s rejected: %s", id, reason)
			}
		}
	case verbClosed:
		var subID, reason string
		if len(rest) >= 1 {
			_ = json.Unmarshal(rest[0], &subID)
		}
		if len(rest) >= 2 {
			_ = json.Unmarshal(rest[1], &reason)
		}
		log.Printf("relay: subscription %s closed by relay: %s", subID, reason)
	case verbNotice:
		var msg string
		if len(rest) >= 1 && json.Unmarshal(rest[0], &msg) == nil {
			log.Printf("relay: notice: %s", msg)
		}
	case verbEOSE:
		// Stored-event boundary; live client has nothing to do.
	}
}

// handleChallenge answers the relay's auth challenge. With no secret key
// available, authentication is abandoned: the connection proceeds
// unauthenticated and is reported via Authenticated(), not retried.
func (c *Client) handleChallenge(conn *websocket.Conn, challenge string) {
	c.mu.Lock()
	if c.closed || c.conn != conn {
		c.mu.Unlock()
		return
	}
	c.stopAuthGraceLocked()
	c.mu.Unlock()

	authed := false
	if c.signer != nil {
		ev, err := BuildAuthEvent(c.cfg.URL, challenge, time.Now().Unix(), c.signer)
		if err != nil {
			log.Printf("relay: auth abandoned: %v", err)
		} else if frame, err := authFrame(ev); err == nil {
			if err := c.writeFrame(conn, frame); err == nil {
				authed = true
			}
		}
	} else {
		log.Printf("relay: auth challenge received but no signer configured")
	}
	c.becomeConnected(conn, authed)
}

// assumeOpenRelay promotes the connection when no challenge arrived within
// the grace window. A relay that delays its challenge still gets an AUTH
// response later; the window only gates subscription flush.
func (c *Client) assumeOpenRelay(conn *websocket.Conn) {
	c.mu.Lock()
	if c.closed || c.conn != conn || c.state != StateAuthenticating {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	c.becomeConnected(conn, false)
}

func (c *Client) becomeConnected(conn *websocket.Conn, authed bool) {
	c.mu.Lock()
	if c.closed || c.conn != conn {
		c.mu.Unlock()
		return
	}
	c.authed = authed
	c.attempts = 0
	if c.state != StateConnected {
		c.setStateLocked(StateConnected)
	}
	c.mu.Unlock()

	// Flush queued filters in registration order.
	for _, sub := range c.subs.pendingInOrder() {
		if err := c.sendReq(conn, sub); err != nil {
			return // disconnect handling will replay
		}
		c.markSentOn(conn, sub.id)
	}
}

// markSentOn flags a REQ as delivered only while conn is still the current
// connection. A disconnect that lands between the write and this call has
// already marked everything unsent; flagging the filter now would keep it
// from being replayed on the next connection.
func (c *Client) markSentOn(conn *websocket.Conn, id domain.SubscriptionID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == conn {
		c.subs.markSent(id)
	}
}

func (c *Client) sendReq(conn *websocket.Conn, sub *subscription) error {
	f := Filter{
		Kinds: sub.kinds,
		Hubs:  []string{c.cfg.Hub.String()},
		Since: time.Now().Add(-c.cfg.FreshnessWindow).Unix(),
	}
	if sub.topic != "" {
		f.Topics = []string{sub.topic.String()}
	}
	frame, err := reqFrame(string(sub.id), f)
	if err != nil {
		return err
	}
	return c.writeFrame(conn, frame)
}

func (c *Client) writeFrame(conn *websocket.Conn, frame []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, frame)
}

// handleEvent runs the inbound pipeline: verify, tag-check, dedup, decrypt,
// dispatch. Every rejection is silent; none of them may affect the
// connection.
func (c *Client) handleEvent(ev *Event) {
	if !ev.Verify() {
		c.unverifiable.Add(1)
		return
	}
	hub, ok := ev.Tag(TagHub)
	if !ok || hub != c.cfg.Hub.String() {
		c.unverifiable.Add(1)
		return
	}
	topicTag, ok := ev.Tag(TagTopic)
	if !ok {
		c.unverifiable.Add(1)
		return
	}
	topic := domain.TopicID(topicTag)

	if !c.ledger.Observe(ev.ID, time.Unix(ev.CreatedAt, 0)) {
		c.stale.Add(1)
		return
	}

	ciphertext, err := hex.DecodeString(ev.Content)
	if err != nil {
		c.undecryptable.Add(1)
		return
	}
	if c.cipher == nil {
		c.undecryptable.Add(1)
		return
	}
	plaintext, ok := c.cipher.DecryptContent(ciphertext)
	if !ok {
		// No hub key, or not our hub's key: the event cannot be
		// attributed to any topic.
		c.undecryptable.Add(1)
		return
	}

	appEv, err := domain.DecodeAppEvent(plaintext)
	if err != nil {
		log.Printf("relay: dropping event %s: %v", ev.ID, err)
		return
	}

	for _, sub := range c.subs.inOrder() {
		if sub.matches(topic, ev.Kind) {
			c.dispatch(sub, appEv)
		}
	}
}

// dispatch isolates handler panics so one handler cannot affect others or
// the connection.
func (c *Client) dispatch(sub *subscription, ev domain.AppEvent) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("relay: handler for subscription %s panicked: %v", sub.id, r)
		}
	}()
	sub.handler(ev)
}

func (c *Client) handleDisconnect(conn *websocket.Conn) {
	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		return // a newer connection superseded this loop
	}
	c.conn = nil
	c.authed = false
	c.stopAuthGraceLocked()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.setStateLocked(StateDisconnected)
	c.subs.markAllUnsent()
	c.scheduleReconnectLocked()
	c.mu.Unlock()
}

func (c *Client) scheduleReconnectLocked() {
	if c.closed || c.reconnectTimer != nil {
		return
	}
	if c.attempts >= c.cfg.MaxAttempts {
		log.Printf("relay: giving up after %d attempts; waiting for external trigger", c.attempts)
		return
	}
	delay := reconnectDelay(c.attempts, c.rng)
	c.attempts++
	c.reconnectTimer = time.AfterFunc(delay, func() {
		c.mu.Lock()
		c.reconnectTimer = nil
		c.mu.Unlock()
		_ = c.connect(context.Background())
	})
}

func (c *Client) stopAuthGraceLocked() {
	if c.authGraceTimer != nil {
		c.authGraceTimer.Stop()
		c.authGraceTimer = nil
	}
}

func (c *Client) setStateLocked(st State) {
	if c.state == st {
		return
	}
	c.state = st
	if c.onState != nil {
		go c.onState(st)
	}
}

// startPruner runs the dedup ledger's prune loop until Close.
func (c *Client) startPruner() {
	c.pruneOne.Do(func() {
		interval := c.cfg.FreshnessWindow / ledgerBuckets
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					c.ledger.Prune()
				case <-c.done:
					return
				}
			}
		}()
	})
}
