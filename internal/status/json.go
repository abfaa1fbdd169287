package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/desk-clock/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string        `json:"event,omitempty"`
	Reason        string        `json:"reason,omitempty"`
	Ready         bool          `json:"ready"`
	Clock         ClockJSON     `json:"clock"`
	Settings      SettingsJSON  `json:"settings"`
	Actuation     ActuationJSON `json:"actuation"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	StartTime     string        `json:"start_time"`
	Timestamp     string        `json:"timestamp"`
	MQTT          MQTTStatus    `json:"mqtt"`
	Counts        CountsJSON    `json:"event_counts"`
	LastEvent     *EventJSON    `json:"last_event,omitempty"`
	Network       *NetworkJSON  `json:"network,omitempty"`
	Config        ConfigJSON    `json:"config"`
}

// ClockJSON is the device's own view of time and its UI state.
type ClockJSON struct {
	Mode        string    `json:"mode"`
	Time        string    `json:"time"`
	Date        string    `json:"date"`
	AlarmActive bool      `json:"alarm_active"`
	Sleeping    bool      `json:"sleeping"`
	Temperature *float64  `json:"temperature_c,omitempty"`
	Battery     int       `json:"battery_percent"`
	Menu        *MenuJSON `json:"menu,omitempty"`
}

// MenuJSON is present outside Clock mode.
type MenuJSON struct {
	Item     string   `json:"item"`
	Selected int      `json:"selected"`
	Top      int      `json:"top"`
	Field    string   `json:"field,omitempty"`
	Fields   []string `json:"fields,omitempty"`
}

// SettingsJSON is the JSON representation of the user settings.
type SettingsJSON struct {
	AlarmTime    string `json:"alarm_time"`
	AlarmEnabled bool   `json:"alarm_enabled"`
	SleepStart   string `json:"sleep_start"`
	SleepEnd     string `json:"sleep_end"`
	SleepEnabled bool   `json:"sleep_enabled"`
	ShowSeconds  bool   `json:"show_seconds"`
}

// ActuationJSON reports what the loop last drove on the hardware.
type ActuationJSON struct {
	Buzzer    bool  `json:"buzzer"`
	DisplayOn bool  `json:"display_on"`
	WakeOnSet bool  `json:"wake_on_set"`
	PollMs    int64 `json:"poll_ms"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
	ClientID  string `json:"client_id,omitempty"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	ModeChanges int `json:"mode_changes"`
	AlarmsOn    int `json:"alarm_on"`
	AlarmsOff   int `json:"alarm_off"`
	SleepStarts int `json:"sleep_start"`
	SleepEnds   int `json:"sleep_end"`
}

// EventJSON is the most recent clock event.
type EventJSON struct {
	Type     string `json:"type"`
	Time     string `json:"time"`
	Date     string `json:"date"`
	Mode     string `json:"mode"`
	UptimeMs int64  `json:"uptime_ms"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs      int64   `json:"poll_ms"`
	SleepPollMs int64   `json:"sleep_poll_ms"`
	DebounceMs  int64   `json:"debounce_ms"`
	MenuHoldMs  int64   `json:"menu_hold_ms"`
	HeartbeatMs int64   `json:"heartbeat_ms"`
	Drift       float64 `json:"drift"`
	SleepDrift  float64 `json:"sleep_drift"`
	Broker      string  `json:"broker"`
	HTTPPort    string  `json:"http_port"`
	WSBroker    string  `json:"ws_broker,omitempty"`
	InstanceID  string  `json:"instance_id,omitempty"`
}

// ClientID returns the MQTT client id derived from the instance id.
func ClientID(instanceID string) string {
	if instanceID == "" {
		return "desk-clock"
	}
	return "desk-clock-" + instanceID
}

func buildClock(c logic.Snapshot) ClockJSON {
	out := ClockJSON{
		Mode:        c.Mode.String(),
		Time:        c.Time.String(),
		Date:        c.Date.String(),
		AlarmActive: c.AlarmActive,
		Sleeping:    c.Sleeping,
		Battery:     c.Battery,
	}
	if c.HasTemperature {
		temp := c.Temperature
		out.Temperature = &temp
	}
	if c.Mode != logic.ModeClock {
		m := &MenuJSON{Item: c.Item.String(), Selected: c.Menu.Selected, Top: c.Menu.Top}
		if c.Mode == logic.ModeSetting && len(c.Fields) > 0 {
			for _, f := range c.Fields {
				m.Fields = append(m.Fields, f.String())
			}
			m.Field = c.Fields[c.Field].String()
		}
		out.Menu = m
	}
	return out
}

func buildInner(snap Snapshot) StatusInner {
	s := snap.Clock.Settings
	inner := StatusInner{
		Ready: snap.Ready,
		Clock: buildClock(snap.Clock),
		Settings: SettingsJSON{
			AlarmTime:    s.Alarm.At.String(),
			AlarmEnabled: s.Alarm.Enabled,
			SleepStart:   s.Sleep.Start.String(),
			SleepEnd:     s.Sleep.End.String(),
			SleepEnabled: s.Sleep.Enabled,
			ShowSeconds:  s.ShowSeconds,
		},
		Actuation: ActuationJSON{
			Buzzer:    snap.Actuation.Buzzer,
			DisplayOn: snap.Actuation.DisplayOn,
			WakeOnSet: snap.Actuation.WakeOnSet,
			PollMs:    snap.Actuation.Poll.Milliseconds(),
		},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT: MQTTStatus{
			Connected: snap.MQTTConnected,
			Broker:    snap.Config.Broker,
			ClientID:  ClientID(snap.Config.InstanceID),
		},
		Counts: CountsJSON{
			ModeChanges: snap.Counts.ModeChanges,
			AlarmsOn:    snap.Counts.AlarmsOn,
			AlarmsOff:   snap.Counts.AlarmsOff,
			SleepStarts: snap.Counts.SleepStarts,
			SleepEnds:   snap.Counts.SleepEnds,
		},
		Config: ConfigJSON{
			PollMs:      snap.Config.PollMs,
			SleepPollMs: snap.Config.SleepPollMs,
			DebounceMs:  snap.Config.DebounceMs,
			MenuHoldMs:  snap.Config.MenuHoldMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Drift:       snap.Config.Drift,
			SleepDrift:  snap.Config.SleepDrift,
			Broker:      snap.Config.Broker,
			HTTPPort:    snap.Config.HTTPPort,
			WSBroker:    snap.Config.WSBroker,
			InstanceID:  snap.Config.InstanceID,
		},
	}
	if e := snap.LastEvent; e != nil {
		inner.LastEvent = &EventJSON{
			Type:     string(e.Type),
			Time:     e.Time.String(),
			Date:     e.Date.String(),
			Mode:     e.To.String(),
			UptimeMs: e.Uptime.Milliseconds(),
		}
	}
	return inner
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
