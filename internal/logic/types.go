// Package logic contains the pure control core of the desk clock: button gesture
// classification, drift-corrected timekeeping, the Clock/Menu/Setting mode machine,
// the alarm and the sleep-window power policy.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable: uptime arrives as a time.Duration counted from boot.
package logic

import "time"

// Default timing thresholds.
const (
	DefaultDebounce    = 100 * time.Millisecond
	DefaultMenuHold    = 1000 * time.Millisecond
	DefaultRepeatAfter = 1000 * time.Millisecond
	DefaultPollShort   = 200 * time.Millisecond
	DefaultPollLong    = 10 * time.Second
)

// Drift multipliers compensate for the free-running uptime counter lagging real
// time. They were measured empirically against a reference clock; with these values
// the clock loses about one minute every 4.5 days.
const (
	DefaultDrift      = 1.002181676275
	DefaultSleepDrift = 1.00268167625
)

// Config holds the tunable constants of the control core.
type Config struct {
	Debounce    time.Duration // minimum stable level before a press is recognized
	MenuHold    time.Duration // Set hold needed to enter/leave menu and settings
	RepeatAfter time.Duration // Up/Down hold after which edits auto-repeat
	Drift       float64       // multiplier while awake
	SleepDrift  float64       // multiplier on the long sleep-poll path
	PollShort   time.Duration
	PollLong    time.Duration
}

// DefaultConfig returns the firmware defaults.
func DefaultConfig() Config {
	return Config{
		Debounce:    DefaultDebounce,
		MenuHold:    DefaultMenuHold,
		RepeatAfter: DefaultRepeatAfter,
		Drift:       DefaultDrift,
		SleepDrift:  DefaultSleepDrift,
		PollShort:   DefaultPollShort,
		PollLong:    DefaultPollLong,
	}
}

// Settings are the user-editable configuration structs. They live in RAM only and
// are reset to DefaultSettings on every start.
type Settings struct {
	Alarm       AlarmConfig
	Sleep       SleepWindowConfig
	ShowSeconds bool
}

// DefaultSettings returns the hardcoded power-on settings.
func DefaultSettings() Settings {
	return Settings{
		Alarm: AlarmConfig{
			At:      TimeOfDay{Hours: 7, Minutes: 30, Seconds: 0},
			Enabled: true,
		},
		Sleep: SleepWindowConfig{
			Start:   TimeOfDay{Hours: 12, Minutes: 0, Seconds: 5},
			End:     TimeOfDay{Hours: 12, Minutes: 0, Seconds: 30},
			Enabled: true,
		},
	}
}

// Power-on clock values.
var (
	DefaultTime = ClockTime{Hours: 12}
	DefaultDate = CalendarDate{Day: 17, Month: 7, Year: 2025}
)

// Input is one control-loop sample.
type Input struct {
	Up   bool // raw levels, true = HIGH
	Set  bool
	Down bool

	Uptime  time.Duration // monotonic time since boot
	Battery int           // charge percentage, opaque to the core
}

// Actuation is what the loop must drive on the hardware this iteration.
type Actuation struct {
	Buzzer    bool
	DisplayOn bool
	WakeOnSet bool          // arm the Set-pin wake interrupt for the wait
	Poll      time.Duration // how long to wait before the next iteration
}

// Snapshot is everything a stateless renderer needs to redraw both screens.
type Snapshot struct {
	Mode        Mode
	Time        ClockTime
	Date        CalendarDate
	AlarmActive bool
	Sleeping    bool
	DisplayOn   bool

	Menu   MenuSelection
	Item   MenuItem
	Field  int
	Fields []FieldKind

	Settings Settings

	Temperature    float64
	HasTemperature bool
	Battery        int
	Uptime         time.Duration
}

// Output is the result of one Controller.Step.
type Output struct {
	Snapshot  Snapshot
	Actuation Actuation
	Events    []Event

	// SampleTemperature asks the loop to refresh the ambient temperature.
	SampleTemperature bool
}

// EventType identifies a lifecycle event worth publishing.
type EventType string

const (
	EventModeChanged EventType = "MODE_CHANGED"
	EventAlarmOn     EventType = "ALARM_ON"
	EventAlarmOff    EventType = "ALARM_OFF"
	EventSleepStart  EventType = "SLEEP_START"
	EventSleepEnd    EventType = "SLEEP_END"
)

// Event is a state change emitted by the controller.
type Event struct {
	Type   EventType
	Uptime time.Duration
	Time   ClockTime
	Date   CalendarDate
	From   Mode // MODE_CHANGED only
	To     Mode
}

// EventCounts tracks the number of each event type since startup.
type EventCounts struct {
	ModeChanges int
	AlarmsOn    int
	AlarmsOff   int
	SleepStarts int
	SleepEnds   int
}

func (c *EventCounts) add(t EventType) {
	switch t {
	case EventModeChanged:
		c.ModeChanges++
	case EventAlarmOn:
		c.AlarmsOn++
	case EventAlarmOff:
		c.AlarmsOff++
	case EventSleepStart:
		c.SleepStarts++
	case EventSleepEnd:
		c.SleepEnds++
	}
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
}
