package logic

import "time"

// Controller is the top-level Clock/Menu/Setting state machine. It owns every
// piece of mutable clock state and is driven by exactly one goroutine; Step runs
// one cooperative iteration to completion, so a gesture is always recognized and
// consumed within the same call.
type Controller struct {
	cfg   Config
	sched SleepScheduler

	up   *Button
	set  *Button
	down *Button

	clock    *Chronometer
	alarm    AlarmController
	settings Settings
	power    PowerPolicy

	mode  Mode
	menu  MenuSelection
	field int

	started     bool
	lastAdvance time.Duration
	lastSecond  int
	uptime      time.Duration
	battery     int
	temperature float64
	hasTemp     bool

	counts EventCounts
}

// NewController creates a controller in Clock mode with the power-on defaults.
func NewController(cfg Config) *Controller {
	return &Controller{
		cfg:      cfg,
		sched:    SleepScheduler{Short: cfg.PollShort, Long: cfg.PollLong},
		up:       NewButton(cfg.Debounce),
		set:      NewButton(cfg.Debounce),
		down:     NewButton(cfg.Debounce),
		clock:    NewChronometer(DefaultTime, DefaultDate),
		settings: DefaultSettings(),
		mode:     ModeClock,
		menu:     lastMenuSelection(),
		power:    PowerPolicy{DisplayOn: true, Poll: cfg.PollShort},
	}
}

// Step consumes one input sample and returns the render snapshot, the actuation
// and the events of this iteration.
func (c *Controller) Step(in Input) Output {
	now := in.Uptime
	first := !c.started
	if first {
		c.started = true
		c.lastAdvance = now
	}
	c.uptime = now
	c.battery = in.Battery

	c.set.Update(in.Set, now)
	c.down.Update(in.Down, now)
	c.up.Update(in.Up, now)

	var events []Event
	wasSleeping := c.power.Sleeping

	c.power = c.sched.Decide(SleepInput{
		Window:     c.settings.Sleep,
		Now:        c.clock.Time().SecondsOfDay(),
		Mode:       c.mode,
		SetClicked: c.set.Clicked(),
	})
	if c.power.SuppressSet {
		c.set.Reset()
	}
	// The Set interrupt only fires on the rising edge. Come back once the
	// debounce has elapsed so the press can be recognized.
	if c.power.WakeOnSet && c.set.Pending() {
		c.power.Poll = min(c.cfg.Debounce, c.sched.Short)
	}

	switch c.mode {
	case ModeClock:
		events = c.stepClock(now, events)
	case ModeMenu:
		events = c.stepMenu(now, events)
	case ModeSetting:
		events = c.stepSetting(now, events)
	}

	if c.alarm.Active() {
		c.power = c.sched.ForceAwake(c.power)
	}

	if c.power.Sleeping != wasSleeping {
		typ := EventSleepEnd
		if c.power.Sleeping {
			typ = EventSleepStart
		}
		events = c.emit(events, Event{Type: typ})
	}

	sec := int(c.clock.Time().Seconds)
	sample := first || c.power.Sleeping || (sec != c.lastSecond && (sec == 0 || sec == 30))
	c.lastSecond = sec

	return Output{
		Snapshot: c.Snapshot(),
		Actuation: Actuation{
			Buzzer:    c.alarm.Buzzer(now),
			DisplayOn: c.power.DisplayOn,
			WakeOnSet: c.power.WakeOnSet,
			Poll:      c.power.Poll,
		},
		Events:            events,
		SampleTemperature: sample,
	}
}

func (c *Controller) stepClock(now time.Duration, events []Event) []Event {
	if c.setHeldLong() {
		events = c.fire(triggerSetHold, now, events)
	}

	drift := c.cfg.Drift
	if c.power.Sleeping && !c.set.Clicked() {
		drift = c.cfg.SleepDrift
	}
	c.clock.Advance(now-c.lastAdvance, drift)
	c.lastAdvance = now

	switch c.alarm.Tick(c.clock.Time(), c.settings.Alarm, c.set.Pressed()) {
	case AlarmSilenced:
		c.set.Reset()
		events = c.emit(events, Event{Type: EventAlarmOff})
	case AlarmStarted:
		events = c.emit(events, Event{Type: EventAlarmOn})
	}
	return events
}

func (c *Controller) stepMenu(now time.Duration, events []Event) []Event {
	if c.up.Clicked() {
		c.menu.up()
	}
	if c.down.Clicked() {
		c.menu.down()
	}
	if c.setHeldLong() {
		on := triggerSetHold
		if c.menu.Item() == ItemExit {
			on = triggerSetHoldExit
		}
		events = c.fire(on, now, events)
	}
	return events
}

func (c *Controller) stepSetting(now time.Duration, events []Event) []Event {
	item := c.menu.Item()
	fields := item.Fields()

	if len(fields) > 0 {
		kind := fields[c.field]
		if c.repeating(c.up) {
			c.settings.edit(c.clock, item, kind, 1)
		}
		if c.repeating(c.down) {
			c.settings.edit(c.clock, item, kind, -1)
		}
	}

	if c.set.Clicked() {
		c.field++
		if c.field >= len(fields) {
			c.field = 0
		}
	}

	if c.setHeldLong() {
		events = c.fire(triggerSetHold, now, events)
	}
	return events
}

// fire performs a mode transition and its side effects.
func (c *Controller) fire(on trigger, now time.Duration, events []Event) []Event {
	from := c.mode
	to, ok := next(from, on, c.power.Sleeping)
	if !ok {
		return events
	}
	c.set.Reset()
	c.mode = to

	switch {
	case from == ModeClock:
		c.menu = lastMenuSelection()
	case from == ModeMenu:
		if to == ModeSetting {
			c.field = 0
		}
		// The clock is frozen outside Clock mode; catch up on the way out.
		c.clock.Replay(now-c.lastAdvance, c.cfg.Drift)
		c.lastAdvance = now
	case from == ModeSetting && c.menu.Item() == ItemTime:
		// The user just set the clock, time spent editing does not count.
		c.lastAdvance = now
	}

	return c.emit(events, Event{Type: EventModeChanged, From: from, To: to})
}

func (c *Controller) emit(events []Event, e Event) []Event {
	e.Uptime = c.uptime
	e.Time = c.clock.Time()
	e.Date = c.clock.Date()
	if e.Type != EventModeChanged {
		e.From = c.mode
		e.To = c.mode
	}
	c.counts.add(e.Type)
	return append(events, e)
}

func (c *Controller) setHeldLong() bool {
	return c.set.Held() && c.set.HeldFor() >= c.cfg.MenuHold
}

// repeating is true on a click and on every tick of a hold past RepeatAfter.
func (c *Controller) repeating(b *Button) bool {
	return b.Clicked() || (b.Held() && b.HeldFor() > c.cfg.RepeatAfter)
}

// SetTemperature records the latest ambient temperature reading.
func (c *Controller) SetTemperature(celsius float64) {
	c.temperature = celsius
	c.hasTemp = true
}

// Clock returns the chronometer. Callers must only use it from the loop goroutine.
func (c *Controller) Clock() *Chronometer { return c.clock }

// Settings returns a copy of the current settings.
func (c *Controller) Settings() Settings { return c.settings }

// Mode returns the current mode.
func (c *Controller) Mode() Mode { return c.mode }

// EventCountsSnapshot returns a copy of the event counters.
func (c *Controller) EventCountsSnapshot() EventCounts { return c.counts }

// Snapshot returns the current render state.
func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		Mode:           c.mode,
		Time:           c.clock.Time(),
		Date:           c.clock.Date(),
		AlarmActive:    c.alarm.Active(),
		Sleeping:       c.power.Sleeping,
		DisplayOn:      c.power.DisplayOn,
		Menu:           c.menu,
		Item:           c.menu.Item(),
		Field:          c.field,
		Fields:         c.menu.Item().Fields(),
		Settings:       c.settings,
		Temperature:    c.temperature,
		HasTemperature: c.hasTemp,
		Battery:        c.battery,
		Uptime:         c.uptime,
	}
}
