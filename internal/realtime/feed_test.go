package realtime

import "testing"

func TestFeed_LatestWins(t *testing.T) {
	f := NewFeed[int]()
	ch, cancel := f.Subscribe()
	defer cancel()

	f.Publish(1)
	f.Publish(2)
	f.Publish(3)

	if got := <-ch; got != 3 {
		t.Fatalf("got %d, want 3", got)
	}
	select {
	case v := <-ch:
		t.Fatalf("unexpected extra value %d", v)
	default:
	}
}

func TestFeed_CancelAndClose(t *testing.T) {
	f := NewFeed[string]()
	a, cancelA := f.Subscribe()
	b, _ := f.Subscribe()

	cancelA()
	if _, ok := <-a; ok {
		t.Fatalf("cancelled subscription must be closed")
	}
	cancelA()

	f.Close()
	if _, ok := <-b; ok {
		t.Fatalf("Close must close every subscription")
	}
	late, _ := f.Subscribe()
	if _, ok := <-late; ok {
		t.Fatalf("subscription after Close must be closed")
	}
	f.Publish("ignored")
}
