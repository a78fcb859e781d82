package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Level string

const (
	Success Level = "success"
	Error   Level = "error"
	Info    Level = "info"
	Loading Level = "loading"
)

// Display durations per level. Loading stays until replaced by a notification
// with the same Key.
var durations = map[Level]time.Duration{
	Success: 4 * time.Second,
	Error:   6 * time.Second,
	Info:    4 * time.Second,
	Loading: 0,
}

type Notification struct {
	ID         string    `json:"id"`
	Level      Level     `json:"level"`
	Message    string    `json:"message"`
	Key        string    `json:"key,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

const (
	subscriberBuffer = 32
	historySize      = 50
)

// Bus is the process-wide notification channel. Publishing never blocks; a
// subscriber that falls behind loses messages. A nil *Bus drops everything.
type Bus struct {
	mu      sync.RWMutex
	subs    map[int]chan Notification
	nextID  int
	history []Notification
	now     func() time.Time
}

func NewBus() *Bus {
	return &Bus{subs: map[int]chan Notification{}, now: time.Now}
}

func (b *Bus) Publish(level Level, message string) Notification {
	return b.PublishKeyed(level, "", message)
}

// PublishKeyed publishes a notification that replaces any earlier one with the
// same key on the view side.
func (b *Bus) PublishKeyed(level Level, key, message string) Notification {
	n := Notification{
		ID:         uuid.NewString(),
		Level:      level,
		Message:    message,
		Key:        key,
		DurationMS: durations[level].Milliseconds(),
	}
	if b == nil {
		n.CreatedAt = time.Now()
		return n
	}
	n.CreatedAt = b.now()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.history = append(b.history, n)
	if len(b.history) > historySize {
		b.history = b.history[len(b.history)-historySize:]
	}
	for _, ch := range b.subs {
		select {
		case ch <- n:
		default:
		}
	}
	return n
}

func (b *Bus) Success(message string) { b.Publish(Success, message) }
func (b *Bus) Error(message string)   { b.Publish(Error, message) }
func (b *Bus) Info(message string)    { b.Publish(Info, message) }

// Subscribe returns a feed of notifications and a cancel func that closes it.
func (b *Bus) Subscribe() (<-chan Notification, func()) {
	ch := make(chan Notification, subscriberBuffer)
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Recent returns up to n most recent notifications, oldest first.
func (b *Bus) Recent(n int) []Notification {
	if b == nil {
		return []Notification{}
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if n <= 0 || n > len(b.history) {
		n = len(b.history)
	}
	out := make([]Notification, n)
	copy(out, b.history[len(b.history)-n:])
	return out
}
