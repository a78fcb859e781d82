package websocket

import (
	"context"

	"smartmob-dashboard/internal/logger"
	"smartmob-dashboard/internal/notify"
	"smartmob-dashboard/internal/realtime"
)

const (
	TypeSnapshot     = "snapshot"
	TypeNotification = "notification"
	TypeLatest       = "latest"
	TypeError        = "error"
)

// Relay broadcasts every sync snapshot and every notification to all views
// until ctx is done. sync may be nil when the backend is disabled.
func Relay(ctx context.Context, hub *Hub, sync *realtime.Sync, bus *notify.Bus, log *logger.Logger) {
	if log == nil {
		log = logger.Discard()
	}
	var snapshots <-chan realtime.Snapshot
	if sync != nil {
		ch, cancel := sync.Subscribe()
		defer cancel()
		snapshots = ch
	}
	var notifications <-chan notify.Notification
	if bus != nil {
		ch, cancel := bus.Subscribe()
		defer cancel()
		notifications = ch
	}

	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-snapshots:
			if !ok {
				snapshots = nil
				continue
			}
			forward(hub, log, TypeSnapshot, snap)
		case n, ok := <-notifications:
			if !ok {
				notifications = nil
				continue
			}
			forward(hub, log, TypeNotification, n)
		}
	}
}

func forward(hub *Hub, log *logger.Logger, kind string, data any) {
	msg, err := Encode(kind, data)
	if err != nil {
		log.Error("encode %s: %v", kind, err)
		return
	}
	hub.Broadcast(msg)
}
