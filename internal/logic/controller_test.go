package logic

import (
	"testing"
	"time"
)

// With a 125ms tick and 100ms debounce a press is recognized on its second tick
// and a Set hold reaches the 1s menu threshold on its ninth.
const (
	testStep   = 125 * time.Millisecond
	clickTicks = 2
	holdTicks  = 10
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Drift = 1
	cfg.SleepDrift = 1
	return cfg
}

type levels struct {
	up, set, down bool
}

var (
	upLevel   = levels{up: true}
	setLevel  = levels{set: true}
	downLevel = levels{down: true}
)

// rig drives a Controller with a fixed tick. The first Step runs at uptime 0.
type rig struct {
	t      *testing.T
	c      *Controller
	now    time.Duration
	last   time.Duration
	step   time.Duration
	out    Output
	events []Event
}

func newRig(t *testing.T, cfg Config) *rig {
	t.Helper()
	r := &rig{t: t, c: NewController(cfg), step: testStep}
	r.c.settings.Sleep.Enabled = false
	r.tick(levels{})
	return r
}

func (r *rig) tick(l levels) Output {
	r.out = r.c.Step(Input{Up: l.up, Set: l.set, Down: l.down, Uptime: r.now, Battery: 80})
	r.events = append(r.events, r.out.Events...)
	r.last = r.now
	r.now += r.step
	return r.out
}

func (r *rig) press(l levels, ticks int) {
	for i := 0; i < ticks; i++ {
		r.tick(l)
	}
	r.tick(levels{})
}

func (r *rig) click(l levels) { r.press(l, clickTicks) }

func (r *rig) clicks(l levels, n int) {
	for i := 0; i < n; i++ {
		r.click(l)
	}
}

func (r *rig) holdSet() { r.press(setLevel, holdTicks) }

// wait lets d pass with no buttons pressed, then runs one tick.
func (r *rig) wait(d time.Duration) {
	r.now += d
	r.tick(levels{})
}

func (r *rig) expectMode(want Mode) {
	r.t.Helper()
	if got := r.c.Mode(); got != want {
		r.t.Fatalf("mode: got %v, want %v", got, want)
	}
}

func (r *rig) countEvents(typ EventType) int {
	n := 0
	for _, e := range r.events {
		if e.Type == typ {
			n++
		}
	}
	return n
}

func TestControllerStartsInClock(t *testing.T) {
	c := NewController(DefaultConfig())
	if c.Mode() != ModeClock {
		t.Errorf("expected initial mode CLOCK, got %v", c.Mode())
	}
	snap := c.Snapshot()
	if snap.Time != DefaultTime || snap.Date != DefaultDate {
		t.Errorf("unexpected power-on clock: %v %v", snap.Time, snap.Date)
	}
	if snap.Settings != DefaultSettings() {
		t.Errorf("unexpected power-on settings: %+v", snap.Settings)
	}
}

func TestSetHoldEntersMenuOnce(t *testing.T) {
	r := newRig(t, testConfig())
	r.holdSet()

	r.expectMode(ModeMenu)
	if r.c.menu != (MenuSelection{Selected: 9, Top: 9}) {
		t.Errorf("expected selection reset to Exit, got %+v", r.c.menu)
	}
	if n := r.countEvents(EventModeChanged); n != 1 {
		t.Fatalf("expected 1 MODE_CHANGED, got %d", n)
	}
	e := r.events[0]
	if e.From != ModeClock || e.To != ModeMenu {
		t.Errorf("expected CLOCK->MENU, got %v->%v", e.From, e.To)
	}
}

func TestShortSetPressDoesNotEnterMenu(t *testing.T) {
	r := newRig(t, testConfig())
	r.press(setLevel, 6) // 625ms
	r.expectMode(ModeClock)
}

func TestMenuExitReturnsToClock(t *testing.T) {
	r := newRig(t, testConfig())
	r.holdSet()
	r.holdSet()
	r.expectMode(ModeClock)
	if n := r.countEvents(EventModeChanged); n != 2 {
		t.Errorf("expected 2 MODE_CHANGED, got %d", n)
	}
}

func TestMenuViewportScrolling(t *testing.T) {
	r := newRig(t, testConfig())
	r.holdSet()

	want := []MenuSelection{
		{Selected: 8, Top: 9},
		{Selected: 7, Top: 9},
		{Selected: 6, Top: 9},
		{Selected: 5, Top: 8},
		{Selected: 4, Top: 7},
	}
	for i, w := range want {
		r.click(downLevel)
		if r.c.menu != w {
			t.Errorf("after %d down clicks: got %+v, want %+v", i+1, r.c.menu, w)
		}
		if r.c.menu.Selected < r.c.menu.Top-(MenuRows-1) || r.c.menu.Selected > r.c.menu.Top {
			t.Errorf("selection outside viewport: %+v", r.c.menu)
		}
	}

	r.click(upLevel)
	if r.c.menu != (MenuSelection{Selected: 5, Top: 7}) {
		t.Errorf("up inside viewport must not scroll: %+v", r.c.menu)
	}
	r.clicks(upLevel, 3)
	if r.c.menu != (MenuSelection{Selected: 8, Top: 8}) {
		t.Errorf("up past top must scroll: %+v", r.c.menu)
	}
}

func TestMenuSelectionBounds(t *testing.T) {
	r := newRig(t, testConfig())
	r.holdSet()

	r.click(upLevel)
	if r.c.menu.Selected != 9 {
		t.Errorf("up at last index: got %d, want 9", r.c.menu.Selected)
	}

	r.clicks(downLevel, 12)
	if r.c.menu != (MenuSelection{Selected: 0, Top: 3}) {
		t.Errorf("down past 0: got %+v, want {0 3}", r.c.menu)
	}
}

func TestMenuHoldOnItemEntersSetting(t *testing.T) {
	r := newRig(t, testConfig())
	r.holdSet()
	r.click(downLevel) // Time
	r.holdSet()

	r.expectMode(ModeSetting)
	snap := r.c.Snapshot()
	if snap.Item != ItemTime {
		t.Errorf("expected Time item, got %v", snap.Item)
	}
	if snap.Field != 0 {
		t.Errorf("expected field cursor 0, got %d", snap.Field)
	}
	if len(snap.Fields) != 3 || snap.Fields[0] != FieldHours {
		t.Errorf("unexpected fields: %v", snap.Fields)
	}

	r.holdSet()
	r.expectMode(ModeMenu)
}

func TestFieldCursorCycles(t *testing.T) {
	r := newRig(t, testConfig())
	r.holdSet()
	r.click(downLevel)
	r.holdSet()

	r.clicks(setLevel, 2)
	if r.c.field != 2 {
		t.Fatalf("expected cursor 2, got %d", r.c.field)
	}
	r.click(setLevel)
	if r.c.field != 0 {
		t.Errorf("expected cursor to wrap to 0, got %d", r.c.field)
	}
}

func TestSettingEditsTime(t *testing.T) {
	r := newRig(t, testConfig())
	r.holdSet()
	r.click(downLevel)
	r.holdSet()

	r.click(upLevel)
	if h := r.c.Clock().Time().Hours; h != 13 {
		t.Errorf("hours after up: got %d, want 13", h)
	}
	r.clicks(downLevel, 2)
	if h := r.c.Clock().Time().Hours; h != 11 {
		t.Errorf("hours after 2 down: got %d, want 11", h)
	}

	r.click(setLevel) // minutes
	r.click(downLevel)
	if m := r.c.Clock().Time().Minutes; m != 59 {
		t.Errorf("minutes 0-1: got %d, want 59", m)
	}
	if h := r.c.Clock().Time().Hours; h != 11 {
		t.Errorf("minute wrap must not borrow from hours: got %d", h)
	}
}

func TestSettingAutoRepeat(t *testing.T) {
	r := newRig(t, testConfig())
	r.holdSet()
	r.clicks(downLevel, 4) // Alarm Time
	r.holdSet()

	// click on tick 2, repeats once HeldFor exceeds 1s (ticks 10, 11, 12)
	r.press(upLevel, 12)
	if got := r.c.settings.Alarm.At.Hours; got != 11 {
		t.Errorf("alarm hours after held up: got %d, want 11", got)
	}
}

func TestSettingTogglesRegardlessOfDirection(t *testing.T) {
	r := newRig(t, testConfig())
	r.holdSet()
	r.clicks(downLevel, 3) // Alarm Status
	r.holdSet()

	r.click(upLevel)
	if r.c.settings.Alarm.Enabled {
		t.Error("expected alarm disabled after first toggle")
	}
	r.click(downLevel)
	if !r.c.settings.Alarm.Enabled {
		t.Error("expected alarm enabled after second toggle")
	}
	r.click(setLevel)
	if r.c.field != 0 {
		t.Errorf("single-field item cursor: got %d, want 0", r.c.field)
	}
}

func TestSettingBatteryHasNoFields(t *testing.T) {
	r := newRig(t, testConfig())
	r.holdSet()
	r.clicks(downLevel, 9) // Battery
	r.holdSet()
	r.expectMode(ModeSetting)

	before := r.c.settings
	r.click(upLevel)
	r.click(downLevel)
	r.click(setLevel)
	if r.c.settings != before {
		t.Errorf("battery screen changed settings: %+v", r.c.settings)
	}
	if r.c.field != 0 {
		t.Errorf("cursor: got %d, want 0", r.c.field)
	}
}

func TestMenuExitReplaysElapsedTime(t *testing.T) {
	r := newRig(t, testConfig())
	r.holdSet()
	r.wait(2 * time.Minute)

	if m := r.c.Clock().Time().Minutes; m != 0 {
		t.Fatalf("clock must be frozen in menu, minutes=%d", m)
	}

	r.holdSet()
	r.expectMode(ModeClock)

	want := 12*3600 + r.last.Seconds()
	if got := r.c.Clock().Time().SecondsOfDay(); got != want {
		t.Errorf("clock after exit: got %v, want %v", got, want)
	}
}

func TestTimeSettingDropsEditingTime(t *testing.T) {
	r := newRig(t, testConfig())
	r.holdSet()
	r.click(downLevel) // Time
	r.holdSet()
	r.click(upLevel) // 13:00
	r.wait(5 * time.Minute)
	r.holdSet() // back to menu, editing time discarded
	r.click(upLevel)
	r.holdSet() // exit

	r.expectMode(ModeClock)
	got := r.c.Clock().Time()
	if got.Hours != 13 || got.Minutes != 0 {
		t.Errorf("expected 13:00:xx after setting the time, got %v", got)
	}
}

func TestOtherSettingKeepsElapsedTime(t *testing.T) {
	r := newRig(t, testConfig())
	r.holdSet()
	r.clicks(downLevel, 4) // Alarm Time
	r.holdSet()
	r.wait(5 * time.Minute)
	r.holdSet()
	r.clicks(upLevel, 4)
	r.holdSet()

	r.expectMode(ModeClock)
	want := 12*3600 + r.last.Seconds()
	if got := r.c.Clock().Time().SecondsOfDay(); got != want {
		t.Errorf("clock after settings: got %v, want %v", got, want)
	}
}

func TestClockAdvancesWithDrift(t *testing.T) {
	cfg := testConfig()
	cfg.Drift = 2
	r := newRig(t, cfg)
	r.wait(10 * time.Second)

	if got := r.c.Clock().Time().Seconds; got != 2*(10+testStep.Seconds()) {
		t.Errorf("expected drift-scaled seconds, got %v", got)
	}
}

func TestAlarmThroughController(t *testing.T) {
	r := newRig(t, testConfig())
	r.c.Clock().Set(ClockTime{Hours: 7, Minutes: 29, Seconds: 59}, DefaultDate)

	buzzOn, buzzOff := 0, 0
	for i := 0; i < 16; i++ {
		out := r.tick(levels{})
		if out.Snapshot.AlarmActive {
			if out.Actuation.Buzzer {
				buzzOn++
			} else {
				buzzOff++
			}
		}
	}
	if n := r.countEvents(EventAlarmOn); n != 1 {
		t.Fatalf("expected 1 ALARM_ON, got %d", n)
	}
	if buzzOn == 0 || buzzOff == 0 {
		t.Errorf("expected a square-wave buzzer, on=%d off=%d", buzzOn, buzzOff)
	}

	// Any press silences; the same press must not open the menu.
	r.press(setLevel, 14)
	if r.c.alarm.Active() {
		t.Fatal("expected alarm silenced by Set press")
	}
	if n := r.countEvents(EventAlarmOff); n != 1 {
		t.Errorf("expected 1 ALARM_OFF, got %d", n)
	}
	r.expectMode(ModeClock)
	if r.out.Actuation.Buzzer {
		t.Error("buzzer still driven after silence")
	}
}

func TestSleepWindowTurnsDisplayOff(t *testing.T) {
	r := newRig(t, testConfig())
	r.c.settings.Sleep = SleepWindowConfig{Start: tod(11, 0, 0), End: tod(13, 0, 0), Enabled: true}

	out := r.tick(levels{})
	if out.Actuation.DisplayOn {
		t.Error("display on inside sleep window")
	}
	if !out.Actuation.WakeOnSet {
		t.Error("expected Set wake interrupt armed")
	}
	if out.Actuation.Poll != DefaultPollLong {
		t.Errorf("expected long poll, got %v", out.Actuation.Poll)
	}
	if n := r.countEvents(EventSleepStart); n != 1 {
		t.Errorf("expected 1 SLEEP_START, got %d", n)
	}
}

func TestSleepPeekAndMenuBlocked(t *testing.T) {
	r := newRig(t, testConfig())
	r.c.settings.Sleep = SleepWindowConfig{Start: tod(11, 0, 0), End: tod(13, 0, 0), Enabled: true}
	r.tick(levels{})

	r.tick(setLevel)
	peek := r.tick(setLevel)
	if !peek.Actuation.DisplayOn {
		t.Error("expected display on for the click tick")
	}
	after := r.tick(setLevel)
	if after.Actuation.DisplayOn {
		t.Error("display must turn off again after the peek")
	}

	r.press(setLevel, 20)
	r.expectMode(ModeClock)
}

// The loop sleeps for Actuation.Poll and the Set interrupt only cuts that
// short on the rising edge, so a tap must be recognized without relying on a
// fixed tick.
func TestSleepPeekFollowsLoopCadence(t *testing.T) {
	c := NewController(testConfig())
	c.settings.Sleep = SleepWindowConfig{Start: tod(11, 0, 0), End: tod(13, 0, 0), Enabled: true}
	c.Clock().Set(ClockTime{Hours: 12, Minutes: 0, Seconds: 6}, DefaultDate)

	const (
		pressAt   = 3 * time.Second
		releaseAt = pressAt + 400*time.Millisecond
	)

	var now time.Duration
	woke := false
	for i := 0; i < 10; i++ {
		set := now >= pressAt && now < releaseAt
		out := c.Step(Input{Set: set, Uptime: now, Battery: 80})
		if out.Actuation.DisplayOn {
			woke = true
			break
		}
		if out.Actuation.Poll <= 0 {
			t.Fatalf("step %d: non-positive poll %v", i, out.Actuation.Poll)
		}

		next := now + out.Actuation.Poll
		if out.Actuation.WakeOnSet && now < pressAt && next > pressAt {
			next = pressAt
		}
		now = next
	}

	if !woke {
		t.Fatal("Set tap never turned the display on")
	}
	if now >= releaseAt {
		t.Errorf("display woke at %v, after the tap ended at %v", now, releaseAt)
	}
}

func TestSleepPendingSetPollsShort(t *testing.T) {
	r := newRig(t, testConfig())
	r.c.settings.Sleep = SleepWindowConfig{Start: tod(11, 0, 0), End: tod(13, 0, 0), Enabled: true}
	r.tick(levels{})
	if r.out.Actuation.Poll != DefaultPollLong {
		t.Fatalf("expected long poll while dark, got %v", r.out.Actuation.Poll)
	}

	out := r.tick(setLevel)
	if out.Actuation.DisplayOn {
		t.Error("display on before the press is recognized")
	}
	if out.Actuation.Poll != DefaultDebounce {
		t.Errorf("expected poll of one debounce while Set is pending, got %v", out.Actuation.Poll)
	}
}

func TestSleepStartTracksWindowInMenu(t *testing.T) {
	r := newRig(t, testConfig())
	r.holdSet()
	r.expectMode(ModeMenu)

	r.c.settings.Sleep = SleepWindowConfig{Start: tod(11, 0, 0), End: tod(13, 0, 0), Enabled: true}
	out := r.tick(levels{})
	if !out.Actuation.DisplayOn {
		t.Error("menu must stay lit inside the window")
	}
	if n := r.countEvents(EventSleepStart); n != 1 {
		t.Errorf("expected SLEEP_START on entering the window, got %d", n)
	}
}

func TestLeavingSleepWindowWakesDisplay(t *testing.T) {
	r := newRig(t, testConfig())
	r.c.settings.Sleep = SleepWindowConfig{Start: tod(11, 0, 0), End: tod(12, 0, 1), Enabled: true}
	r.tick(levels{})
	if r.out.Actuation.DisplayOn {
		t.Fatal("expected display off inside window")
	}

	// the window is checked against the clock before this tick advances it
	r.wait(2 * time.Second)
	r.tick(levels{})
	if !r.out.Actuation.DisplayOn || r.out.Actuation.Poll != DefaultPollShort {
		t.Errorf("expected awake after window, got %+v", r.out.Actuation)
	}
	if n := r.countEvents(EventSleepEnd); n != 1 {
		t.Errorf("expected 1 SLEEP_END, got %d", n)
	}
}

func TestAlarmForcesAwakeInSleepWindow(t *testing.T) {
	r := newRig(t, testConfig())
	r.c.settings.Sleep = SleepWindowConfig{Start: tod(7, 0, 0), End: tod(8, 0, 0), Enabled: true}
	r.c.Clock().Set(ClockTime{Hours: 7, Minutes: 29, Seconds: 59}, DefaultDate)

	r.tick(levels{})
	if r.out.Actuation.DisplayOn {
		t.Fatal("expected display off before the alarm")
	}
	for i := 0; i < 10 && !r.out.Snapshot.AlarmActive; i++ {
		r.tick(levels{})
	}
	if !r.out.Snapshot.AlarmActive {
		t.Fatal("alarm did not start")
	}
	if !r.out.Actuation.DisplayOn || r.out.Actuation.WakeOnSet || r.out.Actuation.Poll != DefaultPollShort {
		t.Errorf("alarm must force awake, got %+v", r.out.Actuation)
	}
	if r.out.Snapshot.Sleeping {
		t.Error("snapshot still sleeping during alarm")
	}
}

func TestSleepUsesSleepDrift(t *testing.T) {
	cfg := testConfig()
	cfg.SleepDrift = 2
	r := newRig(t, cfg)
	r.c.settings.Sleep = SleepWindowConfig{Start: tod(11, 0, 0), End: tod(13, 0, 0), Enabled: true}

	r.tick(levels{}) // enters the window, advances 125ms at sleep drift
	before := r.c.Clock().Time().Seconds
	r.wait(10 * time.Second)
	if got := r.c.Clock().Time().Seconds - before; got != 2*(10+testStep.Seconds()) {
		t.Errorf("expected sleep drift applied, advanced %v", got)
	}
}

func TestTemperatureSampling(t *testing.T) {
	c := NewController(testConfig())
	c.settings.Sleep.Enabled = false

	if out := c.Step(Input{Uptime: 0}); !out.SampleTemperature {
		t.Error("expected a sample on the first tick")
	}
	if out := c.Step(Input{Uptime: 200 * time.Millisecond}); out.SampleTemperature {
		t.Error("unexpected sample mid-minute")
	}

	c.Clock().Set(ClockTime{Hours: 12, Minutes: 0, Seconds: 29.9}, DefaultDate)
	if out := c.Step(Input{Uptime: 400 * time.Millisecond}); !out.SampleTemperature {
		t.Error("expected a sample when entering second 30")
	}
	if out := c.Step(Input{Uptime: 600 * time.Millisecond}); out.SampleTemperature {
		t.Error("expected one sample per half minute")
	}

	c.SetTemperature(21.5)
	snap := c.Snapshot()
	if !snap.HasTemperature || snap.Temperature != 21.5 {
		t.Errorf("temperature not in snapshot: %+v", snap)
	}
}

func TestTransitionTable(t *testing.T) {
	tests := []struct {
		from     Mode
		on       trigger
		sleeping bool
		want     Mode
		ok       bool
	}{
		{ModeClock, triggerSetHold, false, ModeMenu, true},
		{ModeClock, triggerSetHold, true, ModeClock, false},
		{ModeClock, triggerSetHoldExit, false, ModeClock, false},
		{ModeMenu, triggerSetHold, true, ModeSetting, true},
		{ModeMenu, triggerSetHoldExit, false, ModeClock, true},
		{ModeSetting, triggerSetHold, false, ModeMenu, true},
	}
	for _, tt := range tests {
		got, ok := next(tt.from, tt.on, tt.sleeping)
		if got != tt.want || ok != tt.ok {
			t.Errorf("next(%v, %d, %v): got (%v, %v), want (%v, %v)",
				tt.from, tt.on, tt.sleeping, got, ok, tt.want, tt.ok)
		}
	}
}

func TestMenuItemFields(t *testing.T) {
	want := map[MenuItem]int{
		ItemBattery: 0, ItemDisplaySeconds: 1, ItemSleepEnd: 3, ItemSleepStart: 3,
		ItemSleepStatus: 1, ItemAlarmTime: 3, ItemAlarmStatus: 1, ItemDate: 3,
		ItemTime: 3, ItemExit: 0,
	}
	for item, n := range want {
		if got := len(item.Fields()); got != n {
			t.Errorf("%v: got %d fields, want %d", item, got, n)
		}
	}
	if ItemExit.String() != "Exit" || MenuItem(42).String() != "Unknown" {
		t.Error("unexpected item labels")
	}
}
