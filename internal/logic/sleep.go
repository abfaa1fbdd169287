package logic

import (
	"fmt"
	"time"
)

// TimeOfDay is an integer hours/minutes/seconds triple used by the alarm and
// the sleep window.
type TimeOfDay struct {
	Hours   int
	Minutes int
	Seconds int
}

// SecondsOfDay returns the time as seconds since midnight.
func (t TimeOfDay) SecondsOfDay() int {
	return t.Hours*3600 + t.Minutes*60 + t.Seconds
}

// Step edits one field by delta, wrapping with moduli 24/60/60.
func (t TimeOfDay) Step(kind FieldKind, delta int) TimeOfDay {
	switch kind {
	case FieldHours:
		t.Hours = wrap(t.Hours+delta, 24)
	case FieldMinutes:
		t.Minutes = wrap(t.Minutes+delta, 60)
	case FieldSeconds:
		t.Seconds = wrap(t.Seconds+delta, 60)
	}
	return t
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hours, t.Minutes, t.Seconds)
}

// SleepWindowConfig is the quiet-hours range during which the display is off.
type SleepWindowConfig struct {
	Start   TimeOfDay
	End     TimeOfDay
	Enabled bool
}

// Contains reports whether secondsOfDay lies inside the window, bounds included.
// A window whose start is after its end crosses midnight.
func (w SleepWindowConfig) Contains(secondsOfDay float64) bool {
	start := float64(w.Start.SecondsOfDay())
	end := float64(w.End.SecondsOfDay())
	if start <= end {
		return start <= secondsOfDay && secondsOfDay <= end
	}
	return secondsOfDay >= start || secondsOfDay <= end
}

// PowerPolicy is the display and wait decision for one iteration.
type PowerPolicy struct {
	Sleeping    bool // inside an enabled sleep window
	DisplayOn   bool
	WakeOnSet   bool
	SuppressSet bool // the Set gesture must be reset so it cannot open the menu
	Poll        time.Duration
}

// SleepInput is what the scheduler looks at.
type SleepInput struct {
	Window     SleepWindowConfig
	Now        float64 // seconds since midnight
	Mode       Mode
	SetClicked bool
}

// SleepScheduler decides display power and poll interval from the sleep window.
type SleepScheduler struct {
	Short time.Duration
	Long  time.Duration
}

// Decide returns the power policy for this iteration. Outside the window, outside
// Clock mode or with sleep disabled the display stays on with the short poll. In
// the window in Clock mode the loop polls slowly with the display off and the Set
// wake interrupt armed; a Set click turns the display on for this iteration only.
func (s SleepScheduler) Decide(in SleepInput) PowerPolicy {
	awake := PowerPolicy{DisplayOn: true, Poll: s.Short}
	if !in.Window.Enabled || !in.Window.Contains(in.Now) {
		return awake
	}

	p := awake
	p.Sleeping = true
	if in.Mode != ModeClock {
		return p
	}

	p.Poll = s.Long
	if in.SetClicked {
		return p
	}
	p.DisplayOn = false
	p.WakeOnSet = true
	p.SuppressSet = true
	return p
}

// ForceAwake overrides any sleep decision, used while the alarm sounds.
func (s SleepScheduler) ForceAwake(PowerPolicy) PowerPolicy {
	return PowerPolicy{DisplayOn: true, Poll: s.Short}
}
