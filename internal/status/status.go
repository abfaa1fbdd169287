// Package status provides a thread-safe status tracker for the desk-clock daemon.
// The control loop writes the latest render snapshot; HTTP handlers and MQTT
// lifecycle events read it.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/desk-clock/internal/logic"
)

// NetworkInfo contains network state. This is a local copy to avoid
// importing internal/mqtt from status.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	PollMs      int64
	SleepPollMs int64
	DebounceMs  int64
	MenuHoldMs  int64
	HeartbeatMs int64
	Drift       float64
	SleepDrift  float64
	Broker      string
	HTTPPort    string
	WSBroker    string // Websocket broker URL for browser MQTT (empty = disabled)
	InstanceID  string // per-boot identifier, also the MQTT client id suffix
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	Clock         logic.Snapshot
	Actuation     logic.Actuation
	Counts        logic.EventCounts
	Ready         bool         // at least one loop iteration has completed
	LastEvent     *logic.Event // most recent clock event, nil before the first
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update records the outcome of one loop iteration.
// Called from runLoop on every tick.
func (t *Tracker) Update(clock logic.Snapshot, act logic.Actuation, counts logic.EventCounts) {
	t.mu.Lock()
	t.snap.Clock = clock
	t.snap.Actuation = act
	t.snap.Counts = counts
	t.snap.Ready = true
	t.mu.Unlock()
}

// RecordEvent remembers e as the most recent clock event.
func (t *Tracker) RecordEvent(e logic.Event) {
	t.mu.Lock()
	t.snap.LastEvent = &e
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
