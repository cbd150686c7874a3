// Package relay implements C8, the Event Relay: publishing a
// "registry:version" event to the "wippy.central" topic whenever the
// coordinator observes the committed version change (spec.md §4.7). The
// relay is best-effort — a publish failure is logged, never surfaced to
// the client.
package relay

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hashmap-kz/govreg/internal/bus"
	"github.com/hashmap-kz/govreg/internal/logging"
)

// VersionEvent is the payload published on bus.VersionEventTopic.
type VersionEvent struct {
	OldVersion string `json:"old_version"`
	NewVersion string `json:"new_version"`
	Timestamp  int64  `json:"timestamp"`
	Event      string `json:"event"`
}

// Relay publishes version-change events through a Bus.
type Relay struct {
	Bus bus.Bus
	Log logging.Logger
}

// New builds a Relay. log may be nil, in which case logging.Nop is used.
func New(b bus.Bus, log logging.Logger) *Relay {
	if log == nil {
		log = logging.Nop{}
	}
	return &Relay{Bus: b, Log: log}
}

// Publish sends the version-change event. Errors are logged only.
func (r *Relay) Publish(ctx context.Context, oldVersion, newVersion string) {
	evt := VersionEvent{
		OldVersion: oldVersion,
		NewVersion: newVersion,
		Timestamp:  time.Now().Unix(),
		Event:      bus.VersionEventName,
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		r.Log.Error("failed to marshal version event", "error", err)
		return
	}
	if err := r.Bus.Publish(ctx, bus.VersionEventTopic, payload); err != nil {
		r.Log.Error("failed to publish version event", "old_version", oldVersion, "new_version", newVersion, "error", err)
	}
}
