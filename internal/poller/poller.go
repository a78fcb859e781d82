package poller

import (
	"context"
	"strings"
	"sync"
	"time"

	"smartmob-dashboard/internal/acquisition"
	"smartmob-dashboard/internal/backend"
	"smartmob-dashboard/internal/logger"
	"smartmob-dashboard/internal/realtime"
)

const DefaultInterval = 5 * time.Second

// FetchFunc loads the newest acquisition for a pair. nil with no error means
// the pair has none.
type FetchFunc func(ctx context.Context, line, station string) (*acquisition.Acquisition, error)

type Options struct {
	Interval time.Duration
	Logger   *logger.Logger
	// Tick starts a ticker and returns its channel and stop func.
	Tick func(d time.Duration) (<-chan time.Time, func())
}

type Snapshot struct {
	Line       string                   `json:"line"`
	Station    string                   `json:"station"`
	Data       *acquisition.Acquisition `json:"data"`
	Loading    bool                     `json:"loading"`
	Error      string                   `json:"error,omitempty"`
	LastUpdate *time.Time               `json:"last_update"`
	Polling    bool                     `json:"polling"`
}

// Poller fetches the latest acquisition for one (line, station) pair right
// away and then on every tick. Results from a loop that has since been
// replaced or stopped are dropped.
type Poller struct {
	fetch    FetchFunc
	interval time.Duration
	log      *logger.Logger
	tick     func(time.Duration) (<-chan time.Time, func())
	now      func() time.Time

	mu         sync.Mutex
	line       string
	station    string
	data       *acquisition.Acquisition
	loading    bool
	err        string
	lastUpdate time.Time
	polling    bool
	gen        uint64
	cancel     context.CancelFunc
	closed     bool

	feed *realtime.Feed[Snapshot]
}

func New(fetch FetchFunc, opts Options) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	if opts.Tick == nil {
		opts.Tick = func(d time.Duration) (<-chan time.Time, func()) {
			t := time.NewTicker(d)
			return t.C, t.Stop
		}
	}
	return &Poller{
		fetch:    fetch,
		interval: opts.Interval,
		log:      opts.Logger,
		tick:     opts.Tick,
		now:      time.Now,
		feed:     realtime.NewFeed[Snapshot](),
	}
}

func (p *Poller) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := Snapshot{
		Line:    p.line,
		Station: p.station,
		Data:    p.data,
		Loading: p.loading,
		Error:   p.err,
		Polling: p.polling,
	}
	if !p.lastUpdate.IsZero() {
		t := p.lastUpdate
		s.LastUpdate = &t
	}
	return s
}

func (p *Poller) Subscribe() (<-chan Snapshot, func()) {
	return p.feed.Subscribe()
}

func (p *Poller) publish() {
	p.feed.Publish(p.Snapshot())
}

// SetKeys switches the pair. A changed pair restarts polling at once; an
// empty key stops polling and clears data and error.
func (p *Poller) SetKeys(line, station string) {
	line, station = strings.TrimSpace(line), strings.TrimSpace(station)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	valid := line != "" && station != ""
	if line == p.line && station == p.station && (p.polling || !valid) {
		p.mu.Unlock()
		return
	}
	p.stopLocked()
	p.line, p.station = line, station
	p.data = nil
	p.err = ""
	p.lastUpdate = time.Time{}
	if !valid {
		p.loading = false
		p.mu.Unlock()
		p.publish()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.polling = true
	p.loading = true
	gen := p.gen
	p.mu.Unlock()

	p.log.Info("polling latest acquisition for %s/%s every %v", line, station, p.interval)
	p.publish()
	go p.loop(ctx, gen, line, station)
}

func (p *Poller) stopLocked() {
	p.gen++
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.polling = false
}

func (p *Poller) loop(ctx context.Context, gen uint64, line, station string) {
	ticks, stop := p.tick(p.interval)
	defer stop()

	p.run(ctx, gen, line, station)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticks:
			p.run(ctx, gen, line, station)
		}
	}
}

func (p *Poller) run(ctx context.Context, gen uint64, line, station string) error {
	p.mu.Lock()
	if p.closed || gen != p.gen {
		p.mu.Unlock()
		return nil
	}
	p.loading = true
	p.mu.Unlock()

	a, err := p.fetch(ctx, line, station)

	p.mu.Lock()
	if p.closed || gen != p.gen {
		p.mu.Unlock()
		return err
	}
	p.loading = false
	if err != nil {
		p.data = nil
		p.err = backend.ErrorMessage(err)
	} else {
		p.data = a
		p.err = ""
		p.lastUpdate = p.now()
	}
	p.mu.Unlock()

	if err != nil {
		p.log.Warning("latest acquisition %s/%s: %v", line, station, err)
	}
	p.publish()
	return err
}

// Refetch runs one fetch for the current pair outside the ticker.
func (p *Poller) Refetch(ctx context.Context) error {
	p.mu.Lock()
	line, station, gen, closed := p.line, p.station, p.gen, p.closed
	p.mu.Unlock()

	if closed {
		return nil
	}
	if line == "" || station == "" {
		return acquisition.ErrKeysRequired
	}
	return p.run(ctx, gen, line, station)
}

// Stop ends polling but keeps the last result.
func (p *Poller) Stop() {
	p.mu.Lock()
	if p.closed || !p.polling {
		p.mu.Unlock()
		return
	}
	p.stopLocked()
	p.loading = false
	p.mu.Unlock()
	p.publish()
}

// Close stops polling for good and closes subscriber feeds.
func (p *Poller) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.stopLocked()
	p.closed = true
	p.mu.Unlock()
	p.feed.Close()
}
