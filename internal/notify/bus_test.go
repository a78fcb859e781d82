package notify

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestBus_PublishFansOutToSubscribers(t *testing.T) {
	b := NewBus()
	first, cancelFirst := b.Subscribe()
	defer cancelFirst()
	second, cancelSecond := b.Subscribe()
	defer cancelSecond()

	sent := b.PublishKeyed(Loading, "reconnecting", "Riconnessione in corso...")

	for i, ch := range []<-chan Notification{first, second} {
		select {
		case got := <-ch:
			if got.ID != sent.ID || got.Key != "reconnecting" || got.Level != Loading {
				t.Fatalf("subscriber %d got %+v", i, got)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d received nothing", i)
		}
	}
}

func TestBus_Durations(t *testing.T) {
	b := NewBus()
	tests := map[Level]int64{Success: 4000, Error: 6000, Info: 4000, Loading: 0}
	for level, want := range tests {
		if got := b.Publish(level, "x").DurationMS; got != want {
			t.Fatalf("%s duration = %d, want %d", level, got, want)
		}
	}
}

func TestBus_CancelClosesFeed(t *testing.T) {
	b := NewBus()
	ch, cancel := b.Subscribe()
	cancel()
	cancel()

	if _, ok := <-ch; ok {
		t.Fatalf("expected closed channel")
	}
	b.Success("after cancel")
}

func TestBus_SlowSubscriberDoesNotBlock(t *testing.T) {
	b := NewBus()
	_, cancel := b.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*3; i++ {
			b.Info("tick")
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("publish blocked on a full subscriber")
	}
}

func TestBus_RecentKeepsBoundedHistory(t *testing.T) {
	b := NewBus()
	for i := 0; i < historySize+10; i++ {
		b.Info("n")
	}
	if got := len(b.Recent(0)); got != historySize {
		t.Fatalf("history = %d, want %d", got, historySize)
	}
	if got := len(b.Recent(3)); got != 3 {
		t.Fatalf("Recent(3) = %d", got)
	}

	var nilBus *Bus
	nilBus.Error("ignored")
	if len(nilBus.Recent(5)) != 0 {
		t.Fatalf("nil bus must have no history")
	}
}

func TestNotificationController_GetRecent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	b := NewBus()
	b.Success("Record creato con successo")
	b.Error("Errore")

	r := gin.New()
	RegisterRoutes(r, b)

	req := httptest.NewRequest(http.MethodGet, "/api/notifications?limit=1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp struct {
		Data []Notification `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Data) != 1 || resp.Data[0].Message != "Errore" {
		t.Fatalf("data = %+v", resp.Data)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/notifications?limit=abc", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}
