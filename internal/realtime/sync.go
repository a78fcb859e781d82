package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"smartmob-dashboard/internal/acquisition"
	"smartmob-dashboard/internal/backend"
	"smartmob-dashboard/internal/logger"
	"smartmob-dashboard/internal/notify"
)

var ErrClosed = errors.New("realtime sync closed")

type State string

const (
	StateDisconnected State = "Disconnected"
	StateConnecting   State = "Connecting"
	StateConnected    State = "Connected"
	StateReconnecting State = "Reconnecting"
)

// Hub method names pushed by the server.
const (
	EventConnected           = "Connected"
	EventAcquisitionsUpdated = "AcquisizioniUpdated"
	EventNewAcquisition      = "NewAcquisizione"
	EventError               = "Error"
)

const connectTimeout = 30 * time.Second

// Channel is the push connection Sync drives. *HubConnection implements it.
type Channel interface {
	Start(ctx context.Context) error
	Stop() error
	Invoke(ctx context.Context, target string, args ...any) (json.RawMessage, error)
	ConnectionID() string
	On(target string, fn Handler)
	OnClose(fn func(error))
	OnReconnecting(fn func(error))
	OnReconnected(fn func(connectionID string))
}

type ChannelFactory func() Channel

type FetchFunc func(ctx context.Context) ([]acquisition.Acquisition, error)

type Options struct {
	Bus    *notify.Bus
	Logger *logger.Logger
	// BaseDelay doubles on every failed connect: base, 2*base, 4*base...
	BaseDelay   time.Duration
	MaxAttempts int
	// Schedule runs fn after d and returns a cancel func. Defaults to time.AfterFunc.
	Schedule func(d time.Duration, fn func()) (cancel func())
}

type Snapshot struct {
	State        State                     `json:"state"`
	ConnectionID string                    `json:"connection_id,omitempty"`
	Records      []acquisition.Acquisition `json:"records"`
	LastUpdated  *time.Time                `json:"last_updated"`
	RecordCount  int                       `json:"record_count"`
	Error        string                    `json:"error,omitempty"`
	Loading      bool                      `json:"loading"`
	Attempt      int                       `json:"attempt"`
}

// Sync keeps the live acquisition list in step with the hub. Every callback
// carries the generation it was bound under; callbacks from an older
// generation, or arriving after Close, change nothing.
type Sync struct {
	newChannel  ChannelFactory
	fetch       FetchFunc
	bus         *notify.Bus
	log         *logger.Logger
	baseDelay   time.Duration
	maxAttempts int
	schedule    func(time.Duration, func()) func()
	now         func() time.Time

	mu           sync.Mutex
	state        State
	channel      Channel
	connectionID string
	records      []acquisition.Acquisition
	lastUpdated  time.Time
	err          string
	loading      bool
	attempt      int
	gen          uint64
	fetchSeq     uint64
	fetches      int
	cancelRetry  func()
	closed       bool

	feed *Feed[Snapshot]
}

func NewSync(newChannel ChannelFactory, fetch FetchFunc, opts Options) *Sync {
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = time.Second
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 5
	}
	if opts.Schedule == nil {
		opts.Schedule = func(d time.Duration, fn func()) func() {
			t := time.AfterFunc(d, fn)
			return func() { t.Stop() }
		}
	}
	return &Sync{
		newChannel:  newChannel,
		fetch:       fetch,
		bus:         opts.Bus,
		log:         opts.Logger,
		baseDelay:   opts.BaseDelay,
		maxAttempts: opts.MaxAttempts,
		schedule:    opts.Schedule,
		now:         time.Now,
		state:       StateDisconnected,
		records:     []acquisition.Acquisition{},
		feed:        NewFeed[Snapshot](),
	}
}

func (s *Sync) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Sync) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:        s.state,
		ConnectionID: s.connectionID,
		Records:      append([]acquisition.Acquisition{}, s.records...),
		RecordCount:  len(s.records),
		Error:        s.err,
		Loading:      s.loading,
		Attempt:      s.attempt,
	}
	if !s.lastUpdated.IsZero() {
		t := s.lastUpdated
		snap.LastUpdated = &t
	}
	return snap
}

// Subscribe returns a feed of snapshots, latest wins.
func (s *Sync) Subscribe() (<-chan Snapshot, func()) {
	return s.feed.Subscribe()
}

// Fetches counts REST loads issued so far.
func (s *Sync) Fetches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches
}

func (s *Sync) publish() {
	s.feed.Publish(s.Snapshot())
}

// Connect opens the channel. Already connected or connecting is a no-op.
// A failed start schedules a retry and is also returned.
func (s *Sync) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.state != StateDisconnected {
		s.mu.Unlock()
		return nil
	}
	s.stopRetryLocked()
	s.gen++
	gen := s.gen
	s.state = StateConnecting
	s.mu.Unlock()

	s.publish()
	return s.connect(ctx, gen)
}

func (s *Sync) connect(ctx context.Context, gen uint64) error {
	ch := s.newChannel()
	s.bind(ch, gen)
	err := ch.Start(ctx)

	s.mu.Lock()
	if s.closed || gen != s.gen {
		s.mu.Unlock()
		if err == nil {
			ch.Stop()
		}
		return nil
	}

	if err != nil {
		s.state = StateDisconnected
		s.channel = nil
		s.connectionID = ""
		s.err = "Errore di connessione: " + err.Error()
		attempt := s.attempt
		retry := attempt < s.maxAttempts
		var delay time.Duration
		if retry {
			delay = s.baseDelay << attempt
			s.attempt++
			s.cancelRetry = s.schedule(delay, func() { s.retry(gen) })
		}
		s.mu.Unlock()

		s.log.Warning("realtime connect failed: %v", err)
		if retry {
			s.bus.PublishKeyed(notify.Loading, "reconnect",
				fmt.Sprintf("Tentativo di riconnessione %d/%d in %ds...", attempt+1, s.maxAttempts, int(delay/time.Second)))
		} else {
			s.bus.PublishKeyed(notify.Error, "reconnect", "Impossibile stabilire la connessione dopo diversi tentativi")
		}
		s.publish()
		return err
	}

	s.state = StateConnected
	s.channel = ch
	s.connectionID = ch.ConnectionID()
	s.attempt = 0
	s.err = ""
	s.mu.Unlock()

	s.log.Info("realtime connected (connection %s)", ch.ConnectionID())
	s.bus.PublishKeyed(notify.Success, "reconnect", "Connesso al server in tempo reale")
	s.publish()
	_ = s.RefreshData(ctx)
	return nil
}

func (s *Sync) retry(gen uint64) {
	s.mu.Lock()
	if s.closed || gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.cancelRetry = nil
	s.state = StateConnecting
	s.mu.Unlock()
	s.publish()

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	_ = s.connect(ctx, gen)
}

func (s *Sync) current(gen uint64) bool {
	return !s.closed && gen == s.gen
}

func (s *Sync) bind(ch Channel, gen uint64) {
	ch.On(EventConnected, func(args []json.RawMessage) {
		id := firstString(args)
		s.mu.Lock()
		if s.current(gen) && id != "" {
			s.connectionID = id
		}
		s.mu.Unlock()
		s.log.Info("hub assigned connection id %s", id)
	})
	ch.On(EventAcquisitionsUpdated, func(args []json.RawMessage) {
		s.handleUpdate(gen, KindSnapshot, args)
	})
	ch.On(EventNewAcquisition, func(args []json.RawMessage) {
		s.handleUpdate(gen, KindInsert, args)
	})
	ch.On(EventError, func(args []json.RawMessage) {
		msg := firstString(args)
		s.mu.Lock()
		if !s.current(gen) {
			s.mu.Unlock()
			return
		}
		s.err = msg
		s.mu.Unlock()
		s.log.Error("hub error: %s", msg)
		s.bus.Error("Errore dal server: " + msg)
		s.publish()
	})

	ch.OnReconnecting(func(err error) {
		s.mu.Lock()
		if !s.current(gen) {
			s.mu.Unlock()
			return
		}
		s.state = StateReconnecting
		if err != nil {
			s.err = err.Error()
		}
		s.mu.Unlock()
		s.bus.PublishKeyed(notify.Loading, "reconnecting", "Riconnessione in corso...")
		s.publish()
	})
	ch.OnReconnected(func(id string) {
		s.mu.Lock()
		if !s.current(gen) {
			s.mu.Unlock()
			return
		}
		s.state = StateConnected
		s.connectionID = id
		s.err = ""
		s.mu.Unlock()
		s.bus.PublishKeyed(notify.Success, "reconnecting", "Riconnesso con successo!")
		s.publish()

		// The hub does not replay what was pushed while we were away. The
		// resync runs off the channel's callback so reconnect handling
		// never waits on the backend.
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
			defer cancel()
			_ = s.RefreshData(ctx)
		}()
	})
	ch.OnClose(func(err error) {
		s.mu.Lock()
		if !s.current(gen) {
			s.mu.Unlock()
			return
		}
		s.state = StateDisconnected
		s.channel = nil
		s.connectionID = ""
		if err != nil {
			s.err = err.Error()
		}
		s.mu.Unlock()
		if err != nil {
			s.bus.PublishKeyed(notify.Error, "reconnecting", "Connessione interrotta: "+err.Error())
		} else {
			s.bus.Info("Connessione chiusa")
		}
		s.publish()
	})
}

func (s *Sync) handleUpdate(gen uint64, kind UpdateKind, args []json.RawMessage) {
	u, err := Normalize(kind, args)
	if err != nil {
		s.log.Warning("realtime %s payload: %v", kind, err)
		return
	}

	s.mu.Lock()
	if !s.current(gen) {
		s.mu.Unlock()
		return
	}
	s.records = Apply(s.records, u, s.log)
	s.lastUpdated = s.now()
	s.mu.Unlock()

	if kind == KindInsert && len(u.Records) > 0 {
		s.bus.Success("Nuova acquisizione ricevuta!")
	}
	s.publish()
}

// Disconnect closes the channel and cancels any pending retry.
func (s *Sync) Disconnect() {
	if !s.teardown() {
		return
	}
	s.bus.Info("Disconnesso dal server")
	s.publish()
}

// Reconnect tears the channel down and connects again with a fresh retry budget.
func (s *Sync) Reconnect(ctx context.Context) error {
	if !s.teardown() {
		return ErrClosed
	}
	s.publish()
	return s.Connect(ctx)
}

func (s *Sync) teardown() bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	s.gen++
	s.stopRetryLocked()
	ch := s.channel
	s.channel = nil
	s.connectionID = ""
	s.state = StateDisconnected
	s.attempt = 0
	s.mu.Unlock()

	if ch != nil {
		ch.Stop()
	}
	return true
}

func (s *Sync) stopRetryLocked() {
	if s.cancelRetry != nil {
		s.cancelRetry()
		s.cancelRetry = nil
	}
}

// SendMessage invokes a hub method. It fails with ErrNotConnected unless the
// channel is connected.
func (s *Sync) SendMessage(ctx context.Context, method string, args ...any) (json.RawMessage, error) {
	s.mu.Lock()
	ch, state := s.channel, s.state
	s.mu.Unlock()

	if ch == nil || state != StateConnected {
		s.bus.Error("Connessione non disponibile")
		return nil, ErrNotConnected
	}
	res, err := ch.Invoke(ctx, method, args...)
	if err != nil {
		s.log.Error("invoke %s: %v", method, err)
		s.bus.Error("Errore nell'invio del messaggio: " + err.Error())
		return nil, err
	}
	return res, nil
}

// RefreshData reloads the full list over REST regardless of channel state.
// Only the most recently issued fetch is applied; a failure keeps the list.
func (s *Sync) RefreshData(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.fetchSeq++
	seq := s.fetchSeq
	s.fetches++
	s.loading = true
	s.mu.Unlock()
	s.publish()

	rows, err := s.fetch(ctx)

	s.mu.Lock()
	if s.closed || seq != s.fetchSeq {
		s.mu.Unlock()
		return err
	}
	s.loading = false
	if err != nil {
		msg := "Errore nel caricamento dei dati: " + backend.ErrorMessage(err)
		s.err = msg
		s.mu.Unlock()
		s.log.Error("realtime fetch: %v", err)
		s.bus.Error(msg)
		s.publish()
		return err
	}
	s.records = Apply(nil, Update{Kind: KindSnapshot, Records: rows}, s.log)
	s.lastUpdated = s.now()
	if strings.HasPrefix(s.err, "Errore nel caricamento") {
		s.err = ""
	}
	s.mu.Unlock()
	s.publish()
	return nil
}

// Close stops everything. Later callbacks are ignored and subscriber feeds
// are closed.
func (s *Sync) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.gen++
	s.stopRetryLocked()
	ch := s.channel
	s.channel = nil
	s.state = StateDisconnected
	s.mu.Unlock()

	if ch != nil {
		ch.Stop()
	}
	s.feed.Close()
}

func firstString(args []json.RawMessage) string {
	if len(args) == 0 {
		return ""
	}
	var v string
	if err := json.Unmarshal(args[0], &v); err == nil {
		return v
	}
	return strings.TrimSpace(string(args[0]))
}
