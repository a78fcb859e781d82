package realtime

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"smartmob-dashboard/internal/logger"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"github.com/philippseith/signalr"
)

var (
	ErrNotConnected = errors.New("connessione non disponibile")
	ErrHubClosed    = errors.New("hub connection closed")
)

const (
	DefaultKeepAlive     = 15 * time.Second
	DefaultServerTimeout = 30 * time.Second
	handshakeTimeout     = 15 * time.Second
	writeTimeout         = 10 * time.Second
)

// Handler receives the raw arguments of a hub invocation.
type Handler func(args []json.RawMessage)

// RetryPolicy decides the delay before reconnect attempt n (0-based). false
// stops reconnecting.
type RetryPolicy interface {
	NextRetryDelay(previousRetryCount int) (time.Duration, bool)
}

// TieredRetryPolicy waits 2s for the first 3 attempts, 5s for the next 2 and
// 10s afterwards. MaxAttempts 0 retries forever.
type TieredRetryPolicy struct {
	MaxAttempts int
}

func (p TieredRetryPolicy) NextRetryDelay(n int) (time.Duration, bool) {
	if p.MaxAttempts > 0 && n >= p.MaxAttempts {
		return 0, false
	}
	switch {
	case n < 3:
		return 2 * time.Second, true
	case n < 5:
		return 5 * time.Second, true
	default:
		return 10 * time.Second, true
	}
}

type RetryFunc func(previousRetryCount int) (time.Duration, bool)

func (f RetryFunc) NextRetryDelay(n int) (time.Duration, bool) { return f(n) }

// HubConnection is a SignalR client for the acquisitions hub. The hub protocol
// runs on github.com/philippseith/signalr; negotiation and the WebSocket dial
// stay here so the backend's TLS settings apply to both.
type HubConnection struct {
	URL           string
	HTTP          *http.Client
	Dialer        *websocket.Dialer
	Retry         RetryPolicy
	KeepAlive     time.Duration
	ServerTimeout time.Duration
	Log           *logger.Logger

	mu             sync.Mutex
	handlers       map[string][]Handler
	client         signalr.Client
	retry          *retryBackOff
	conn           *hubConn
	prepared       *hubConn
	connectionID   string
	connected      bool
	started        bool
	onClose        func(error)
	onReconnecting func(error)
	onReconnected  func(string)
	runCtx         context.Context
	cancel         context.CancelFunc
	stopped        bool
}

func NewHubConnection(hubURL string, httpClient *http.Client, tlsConfig *tls.Config, log *logger.Logger) *HubConnection {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if log == nil {
		log = logger.Discard()
	}
	return &HubConnection{
		URL:  hubURL,
		HTTP: httpClient,
		Dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: handshakeTimeout,
			TLSClientConfig:  tlsConfig,
		},
		Retry:         TieredRetryPolicy{},
		KeepAlive:     DefaultKeepAlive,
		ServerTimeout: DefaultServerTimeout,
		Log:           log,
		handlers:      map[string][]Handler{},
	}
}

// On registers fn for the hub method target. Only the methods hubReceiver
// exposes reach a handler.
func (h *HubConnection) On(target string, fn Handler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	key := strings.ToLower(target)
	h.handlers[key] = append(h.handlers[key], fn)
}

func (h *HubConnection) OnClose(fn func(error)) {
	h.mu.Lock()
	h.onClose = fn
	h.mu.Unlock()
}

func (h *HubConnection) OnReconnecting(fn func(error)) {
	h.mu.Lock()
	h.onReconnecting = fn
	h.mu.Unlock()
}

func (h *HubConnection) OnReconnected(fn func(connectionID string)) {
	h.mu.Lock()
	h.onReconnected = fn
	h.mu.Unlock()
}

func (h *HubConnection) ConnectionID() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.connectionID
}

// Start negotiates, dials and waits for the handshake. ctx bounds the start
// only; the connection then lives until Stop or until reconnecting gives up.
func (h *HubConnection) Start(ctx context.Context) error {
	h.mu.Lock()
	if h.client != nil {
		h.mu.Unlock()
		return errors.New("hub connection already started")
	}
	h.stopped = false
	h.connected, h.started = false, false
	runCtx, cancel := context.WithCancel(context.Background())
	h.runCtx, h.cancel = runCtx, cancel
	h.mu.Unlock()

	conn, err := h.dial(ctx, runCtx)
	if err != nil {
		cancel()
		return err
	}

	retry := &retryBackOff{h: h}
	opts := []func(signalr.Party) error{
		signalr.WithConnector(h.connector),
		signalr.WithReceiver(&hubReceiver{h: h}),
		signalr.WithBackoff(func() backoff.BackOff { return retry }),
		signalr.Logger(hubLogger{log: h.Log}, false),
		signalr.HandshakeTimeout(handshakeTimeout),
	}
	if h.KeepAlive > 0 {
		opts = append(opts, signalr.KeepAliveInterval(h.KeepAlive))
	}
	if h.ServerTimeout > 0 {
		opts = append(opts, signalr.TimeoutInterval(h.ServerTimeout))
	}
	client, err := signalr.NewClient(runCtx, opts...)
	if err != nil {
		conn.close()
		cancel()
		return fmt.Errorf("hub client: %w", err)
	}

	states := make(chan signalr.ClientState, 8)
	unobserve := client.ObserveStateChanged(states)

	h.mu.Lock()
	h.client, h.retry = client, retry
	h.prepared, h.conn, h.connectionID = conn, conn, conn.ConnectionID()
	h.mu.Unlock()

	client.Start()
	for {
		select {
		case st := <-states:
			switch st {
			case signalr.ClientConnected:
				h.mu.Lock()
				h.connected, h.started = true, true
				h.mu.Unlock()
				h.Log.Info("hub connected: %s (connection %s)", h.URL, conn.ConnectionID())
				go h.watch(runCtx, states, unobserve)
				return nil
			case signalr.ClientClosed:
				unobserve()
				h.teardown()
				if cause := retry.cause(); cause != nil {
					return cause
				}
				return ErrHubClosed
			}
		case <-ctx.Done():
			unobserve()
			h.teardown()
			return ctx.Err()
		}
	}
}

// Stop closes the connection without reconnecting. The close callback fires
// with a nil error.
func (h *HubConnection) Stop() error {
	if cb := h.teardown(); cb != nil {
		cb(nil)
	}
	return nil
}

// Invoke calls a hub method and waits for its completion.
func (h *HubConnection) Invoke(ctx context.Context, target string, args ...any) (json.RawMessage, error) {
	h.mu.Lock()
	client, conn, runCtx := h.client, h.conn, h.runCtx
	h.mu.Unlock()
	if client == nil || conn == nil {
		return nil, ErrNotConnected
	}

	select {
	case res := <-client.Invoke(target, args...):
		if res.Error != nil {
			return nil, fmt.Errorf("invoke %s: %w", target, res.Error)
		}
		if raw, ok := res.Value.(json.RawMessage); ok {
			return raw, nil
		}
		return json.Marshal(res.Value)
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-runCtx.Done():
		return nil, ErrHubClosed
	}
}

// teardown stops the client once and returns the close callback, or nil when
// the connection was already down.
func (h *HubConnection) teardown() func(error) {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return nil
	}
	h.stopped = true
	client, conn, prepared, cancel, cb := h.client, h.conn, h.prepared, h.cancel, h.onClose
	h.client, h.retry, h.conn, h.prepared = nil, nil, nil, nil
	h.connectionID, h.connected, h.started = "", false, false
	h.mu.Unlock()

	if client != nil {
		client.Stop()
	}
	if cancel != nil {
		cancel()
	}
	for _, c := range []*hubConn{conn, prepared} {
		if c != nil {
			c.close()
		}
	}
	return cb
}

// finish ends the connection for good after the retry policy gave up.
func (h *HubConnection) finish(cause error) {
	cb := h.teardown()
	if cb == nil {
		return
	}
	if cause == nil {
		cause = ErrHubClosed
	}
	h.Log.Error("hub connection closed: %v", cause)
	cb(cause)
}

// watch reports reconnects and the final close of the client.
func (h *HubConnection) watch(ctx context.Context, states <-chan signalr.ClientState, unobserve context.CancelFunc) {
	defer unobserve()
	for {
		select {
		case <-ctx.Done():
			return
		case st := <-states:
			switch st {
			case signalr.ClientConnected:
				h.mu.Lock()
				if h.stopped {
					h.mu.Unlock()
					return
				}
				h.connected = true
				id, retry, cb := h.connectionID, h.retry, h.onReconnected
				h.mu.Unlock()

				if retry != nil {
					retry.Reset()
				}
				h.Log.Info("hub reconnected (connection %s)", id)
				if cb != nil {
					cb(id)
				}
			case signalr.ClientClosed:
				h.mu.Lock()
				retry := h.retry
				h.mu.Unlock()
				var cause error
				if retry != nil {
					cause = retry.cause()
				}
				h.finish(cause)
				return
			}
		}
	}
}

// connector hands the client the connection dialed by Start, then a fresh one
// for every reconnect.
func (h *HubConnection) connector() (signalr.Connection, error) {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return nil, ErrHubClosed
	}
	if c := h.prepared; c != nil {
		h.prepared = nil
		h.mu.Unlock()
		return c, nil
	}
	runCtx := h.runCtx
	h.mu.Unlock()

	ctx, cancel := context.WithTimeout(runCtx, handshakeTimeout)
	defer cancel()
	conn, err := h.dial(ctx, runCtx)
	if err != nil {
		h.Log.Warning("hub reconnect failed: %v", err)
		return nil, err
	}

	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		conn.close()
		return nil, ErrHubClosed
	}
	h.conn, h.connectionID = conn, conn.ConnectionID()
	h.mu.Unlock()
	return conn, nil
}

// lost takes the connection out of service and fires the reconnecting
// callback once per drop.
func (h *HubConnection) lost(cause error) {
	h.mu.Lock()
	if h.stopped || !h.connected {
		h.mu.Unlock()
		return
	}
	conn := h.conn
	h.conn, h.connectionID, h.connected = nil, "", false
	cb := h.onReconnecting
	h.mu.Unlock()

	if conn != nil {
		conn.close()
	}
	h.Log.Warning("hub connection lost: %v", cause)
	if cb != nil {
		cb(cause)
	}
}

func (h *HubConnection) dispatch(target string, payload json.RawMessage) {
	h.mu.Lock()
	handlers := append([]Handler(nil), h.handlers[strings.ToLower(target)]...)
	h.mu.Unlock()
	if len(handlers) == 0 {
		h.Log.Warning("hub: no handler for %q", target)
	}
	for _, fn := range handlers {
		fn([]json.RawMessage{payload})
	}
}

// dial negotiates and opens the WebSocket. The returned connection lives
// until parent is done or it is closed.
func (h *HubConnection) dial(ctx, parent context.Context) (*hubConn, error) {
	neg, err := h.negotiate(ctx)
	if err != nil {
		return nil, err
	}
	wsURL, err := websocketURL(h.URL, neg.ConnectionToken)
	if err != nil {
		return nil, err
	}

	ws, resp, err := h.Dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket dial: %w (status %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("websocket dial: %w", err)
	}
	return newHubConn(parent, ws, neg.ConnectionID, h.readFailed), nil
}

// readFailed keeps the transport error as the cause of a drop.
func (h *HubConnection) readFailed(err error) {
	h.mu.Lock()
	retry := h.retry
	h.mu.Unlock()
	if retry != nil {
		retry.record(err)
	}
}

func (h *HubConnection) negotiate(ctx context.Context) (negotiateResponse, error) {
	var neg negotiateResponse

	u, err := url.Parse(h.URL)
	if err != nil {
		return neg, fmt.Errorf("negotiate: %w", err)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/negotiate"
	q := u.Query()
	q.Set("negotiateVersion", "1")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), nil)
	if err != nil {
		return neg, fmt.Errorf("negotiate: %w", err)
	}
	resp, err := h.HTTP.Do(req)
	if err != nil {
		return neg, fmt.Errorf("negotiate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return neg, fmt.Errorf("negotiate: HTTP error! status: %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&neg); err != nil {
		return neg, fmt.Errorf("negotiate: decode: %w", err)
	}
	switch {
	case neg.Error != "":
		return neg, fmt.Errorf("negotiate: %s", neg.Error)
	case neg.URL != "":
		return neg, fmt.Errorf("negotiate: redirect to %s is not supported", neg.URL)
	case !neg.supportsWebSockets():
		return neg, errors.New("negotiate: server does not offer WebSockets")
	}
	if neg.ConnectionToken == "" {
		neg.ConnectionToken = neg.ConnectionID
	}
	return neg, nil
}

func websocketURL(hubURL, token string) (string, error) {
	u, err := url.Parse(hubURL)
	if err != nil {
		return "", fmt.Errorf("hub url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	}
	if token != "" {
		q := u.Query()
		q.Set("id", token)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// retryBackOff feeds RetryPolicy delays to the client's reconnect loop. A
// failed first connect is never retried; Start reports it instead.
// backoff.Stop ends the client, which watch turns into the close callback.
type retryBackOff struct {
	h *HubConnection

	mu      sync.Mutex
	attempt int
	last    error
}

func (b *retryBackOff) NextBackOff() time.Duration {
	h := b.h
	h.mu.Lock()
	client, started, up := h.client, h.started, h.connected
	h.mu.Unlock()

	var err error
	if client != nil {
		err = client.Err()
	}
	b.mu.Lock()
	if err != nil {
		b.last = err
	}
	n, cause := b.attempt, b.last
	b.attempt++
	b.mu.Unlock()

	if !started {
		return backoff.Stop
	}
	if up {
		h.lost(cause)
	}
	delay, ok := h.Retry.NextRetryDelay(n)
	if !ok {
		return backoff.Stop
	}
	return delay
}

func (b *retryBackOff) Reset() {
	b.mu.Lock()
	b.attempt = 0
	b.mu.Unlock()
}

func (b *retryBackOff) cause() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last
}

func (b *retryBackOff) record(err error) {
	b.mu.Lock()
	b.last = err
	b.mu.Unlock()
}

// hubReceiver exposes the methods the hub pushes. The client matches
// invocation targets to these by name.
type hubReceiver struct {
	h *HubConnection
}

func (r *hubReceiver) Connected(payload json.RawMessage) { r.h.dispatch(EventConnected, payload) }

func (r *hubReceiver) AcquisizioniUpdated(payload json.RawMessage) {
	r.h.dispatch(EventAcquisitionsUpdated, payload)
}

func (r *hubReceiver) NewAcquisizione(payload json.RawMessage) {
	r.h.dispatch(EventNewAcquisition, payload)
}

func (r *hubReceiver) Error(payload json.RawMessage) { r.h.dispatch(EventError, payload) }

// hubLogger forwards the client's key/value log lines to the app logger.
type hubLogger struct {
	log *logger.Logger
}

func (l hubLogger) Log(keyVals ...interface{}) error {
	var b strings.Builder
	for i := 0; i+1 < len(keyVals); i += 2 {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%v=%v", keyVals[i], keyVals[i+1])
	}
	l.log.Info("signalr: %s", b.String())
	return nil
}

// hubConn adapts a gorilla WebSocket to the client's stream Connection.
type hubConn struct {
	ws     *websocket.Conn
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	id      string
	timeout time.Duration
	buf     []byte

	onError func(error)
	writeMu sync.Mutex
	once    sync.Once
}

func newHubConn(parent context.Context, ws *websocket.Conn, id string, onError func(error)) *hubConn {
	ctx, cancel := context.WithCancel(parent)
	c := &hubConn{ws: ws, ctx: ctx, cancel: cancel, id: id, onError: onError}
	go func() {
		<-ctx.Done()
		c.close()
	}()
	return c
}

func (c *hubConn) Read(p []byte) (int, error) {
	for len(c.buf) == 0 {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if c.onError != nil {
				c.onError(err)
			}
			c.close()
			return 0, err
		}
		c.buf = data
	}
	n := copy(p, c.buf)
	c.buf = c.buf[n:]
	return n, nil
}

func (c *hubConn) Write(p []byte) (int, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.ws.WriteMessage(websocket.TextMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *hubConn) Context() context.Context { return c.ctx }

func (c *hubConn) ConnectionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

func (c *hubConn) SetConnectionID(id string) {
	c.mu.Lock()
	c.id = id
	c.mu.Unlock()
}

func (c *hubConn) Timeout() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timeout
}

func (c *hubConn) SetTimeout(d time.Duration) {
	c.mu.Lock()
	c.timeout = d
	c.mu.Unlock()
}

func (c *hubConn) close() {
	c.once.Do(func() {
		c.cancel()
		c.writeMu.Lock()
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		c.writeMu.Unlock()
		c.ws.Close()
	})
}
