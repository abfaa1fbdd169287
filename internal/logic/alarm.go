package logic

import "time"

// AlarmConfig is the single daily alarm.
type AlarmConfig struct {
	At      TimeOfDay
	Enabled bool
}

// AlarmChange reports what Tick did.
type AlarmChange int

const (
	AlarmUnchanged AlarmChange = iota
	AlarmStarted
	AlarmSilenced
)

// Buzzer pattern: 500ms period, on for the upper half.
const (
	buzzerPeriod = 500 * time.Millisecond
	buzzerOnFrom = 250 * time.Millisecond
)

// AlarmController decides whether the audible alarm is active.
type AlarmController struct {
	active   bool
	matching bool
}

// Tick evaluates the alarm against the current time. Any Set press silences an
// active alarm. The alarm starts on the tick the integer time first equals the
// configured time, so a silenced alarm stays quiet for the rest of that second
// and only rings again when the match recurs.
func (a *AlarmController) Tick(now ClockTime, cfg AlarmConfig, setPressed bool) AlarmChange {
	matching := now.Whole() == cfg.At
	entered := matching && !a.matching
	a.matching = matching

	if a.active && setPressed {
		a.active = false
		return AlarmSilenced
	}
	if entered && cfg.Enabled && !a.active {
		a.active = true
		return AlarmStarted
	}
	return AlarmUnchanged
}

// Active reports whether the alarm is sounding.
func (a *AlarmController) Active() bool { return a.active }

// Buzzer returns the square-wave drive level for the buzzer at uptime.
func (a *AlarmController) Buzzer(uptime time.Duration) bool {
	return a.active && uptime%buzzerPeriod > buzzerOnFrom
}
