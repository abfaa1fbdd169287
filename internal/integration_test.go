package internal

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sweeney/desk-clock/internal/gpio"
	"github.com/sweeney/desk-clock/internal/logic"
	"github.com/sweeney/desk-clock/internal/mqtt"
	"github.com/sweeney/desk-clock/internal/sensor"
	"github.com/sweeney/desk-clock/internal/status"
	"github.com/sweeney/desk-clock/internal/web"
)

const pollInterval = 125 * time.Millisecond

var (
	idle = gpio.Buttons{}
	up   = gpio.Buttons{Up: true}
	set  = gpio.Buttons{Set: true}
	down = gpio.Buttons{Down: true}
)

// script builds button samples: n ticks of b followed by one idle tick.
type script []gpio.Buttons

func (s script) press(b gpio.Buttons, n int) script {
	for i := 0; i < n; i++ {
		s = append(s, b)
	}
	return append(s, idle)
}

func (s script) click(b gpio.Buttons) script { return s.press(b, 2) }

func (s script) hold() script { return s.press(set, 10) }

// device wires the fakes together the way the daemon does.
type device struct {
	reader    *gpio.FakeReader
	buzzer    *gpio.FakeOutput
	sensors   *sensor.Fake
	publisher *mqtt.FakePublisher
	tracker   *status.Tracker
	ctrl      *logic.Controller
	uptime    time.Duration
}

func newDevice(samples []gpio.Buttons) *device {
	cfg := logic.DefaultConfig()
	cfg.Drift = 1
	d := &device{
		reader:    gpio.NewFakeReader(samples),
		buzzer:    &gpio.FakeOutput{},
		sensors:   &sensor.Fake{Celsius: 22.25, Charge: 64},
		publisher: mqtt.NewFakePublisher(),
		tracker:   status.NewTracker(time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC), status.Config{Broker: "tcp://test:1883"}),
		ctrl:      logic.NewController(cfg),
	}
	// Stay clear of the power-on sleep window and alarm.
	d.ctrl.Clock().Set(logic.ClockTime{Hours: 9}, logic.DefaultDate)
	return d
}

// run simulates the daemon loop for every scripted sample.
func (d *device) run(t *testing.T) {
	t.Helper()
	for i := range d.reader.Samples {
		b, err := d.reader.Read()
		if err != nil {
			t.Fatalf("sample %d: gpio read error: %v", i, err)
		}
		charge, _ := d.sensors.Percent()

		out := d.ctrl.Step(logic.Input{Up: b.Up, Set: b.Set, Down: b.Down, Uptime: d.uptime, Battery: charge})
		for _, event := range out.Events {
			// Publish failures never stop the loop.
			_ = d.publisher.Publish(event)
		}
		if out.SampleTemperature {
			if c, err := d.sensors.Temperature(); err == nil {
				d.ctrl.SetTemperature(c)
			}
		}
		d.buzzer.Set(out.Actuation.Buzzer)
		d.reader.ArmWake(out.Actuation.WakeOnSet)
		d.tracker.Update(d.ctrl.Snapshot(), out.Actuation, d.ctrl.EventCountsSnapshot())

		d.uptime += pollInterval
	}
}

func getJSON(t *testing.T, url string, v any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		t.Fatalf("GET %s: invalid JSON: %v\n%s", url, err, body)
	}
}

// TestIntegrationMenuRoundTrip opens the menu, disables the alarm and exits,
// checking every published event along the way.
func TestIntegrationMenuRoundTrip(t *testing.T) {
	s := script{idle}.hold()                  // Clock -> Menu, Exit highlighted
	s = s.click(down).click(down).click(down) // Alarm Status
	s = s.hold()                              // Menu -> Setting
	s = s.click(up)                           // alarm off
	s = s.hold()                              // Setting -> Menu
	s = s.click(up).click(up).click(up)       // Exit
	s = s.hold()                              // Menu -> Clock
	d := newDevice(s)
	d.run(t)

	want := []struct{ from, to logic.Mode }{
		{logic.ModeClock, logic.ModeMenu},
		{logic.ModeMenu, logic.ModeSetting},
		{logic.ModeSetting, logic.ModeMenu},
		{logic.ModeMenu, logic.ModeClock},
	}
	if len(d.publisher.Events) != len(want) {
		t.Fatalf("expected %d events, got %v", len(want), d.publisher.EventTypes())
	}
	for i, w := range want {
		e := d.publisher.Events[i]
		if e.Type != logic.EventModeChanged || e.From != w.from || e.To != w.to {
			t.Errorf("event %d: got %s %v->%v, want MODE_CHANGED %v->%v", i, e.Type, e.From, e.To, w.from, w.to)
		}
	}

	for i, payload := range d.publisher.Payloads {
		var parsed mqtt.Payload
		if err := json.Unmarshal(payload, &parsed); err != nil {
			t.Fatalf("payload %d: invalid JSON: %v", i, err)
		}
		if parsed.Clock.Event != "MODE_CHANGED" || parsed.Clock.From == "" || parsed.Clock.Mode == "" {
			t.Errorf("payload %d: incomplete: %s", i, payload)
		}
		if parsed.Clock.Date != "17.07.2025" {
			t.Errorf("payload %d: date: got %q", i, parsed.Clock.Date)
		}
	}

	if d.ctrl.Settings().Alarm.Enabled {
		t.Error("expected alarm disabled after the round trip")
	}
	if d.ctrl.Mode() != logic.ModeClock {
		t.Errorf("expected CLOCK, got %v", d.ctrl.Mode())
	}
	// The clock was frozen in the menu and caught up on exit.
	elapsed := time.Duration(len(s)-1) * pollInterval
	if got := d.ctrl.Clock().Time().SecondsOfDay(); got != 9*3600+elapsed.Seconds() {
		t.Errorf("clock after exit: got %v, want %v", got, 9*3600+elapsed.Seconds())
	}
}

// TestIntegrationStatusEndpoints serves the tracker over HTTP while the
// controller sits in a Setting screen.
func TestIntegrationStatusEndpoints(t *testing.T) {
	s := script{idle}.hold().click(down).click(down).click(down).hold()
	d := newDevice(s)
	d.run(t)
	d.tracker.SetMQTTConnected(true)

	ts := httptest.NewServer(web.New(":0", d.tracker).Handler())
	defer ts.Close()

	var sj status.StatusJSON
	getJSON(t, ts.URL+"/index.json", &sj)
	if !sj.Status.Ready {
		t.Error("expected ready status")
	}
	if sj.Status.Clock.Mode != "SETTING" {
		t.Errorf("mode: got %q, want SETTING", sj.Status.Clock.Mode)
	}
	if sj.Status.Clock.Menu == nil || sj.Status.Clock.Menu.Item != "Alarm Status" {
		t.Errorf("menu: got %+v, want Alarm Status", sj.Status.Clock.Menu)
	}
	if sj.Status.Clock.Temperature == nil || *sj.Status.Clock.Temperature != 22.25 {
		t.Errorf("temperature: got %v, want 22.25", sj.Status.Clock.Temperature)
	}
	if sj.Status.Clock.Battery != 64 {
		t.Errorf("battery: got %d, want 64", sj.Status.Clock.Battery)
	}
	if sj.Status.Counts.ModeChanges != 2 {
		t.Errorf("mode changes: got %d, want 2", sj.Status.Counts.ModeChanges)
	}
	if !sj.Status.MQTT.Connected {
		t.Error("expected mqtt connected")
	}

	var screens web.Screens
	getJSON(t, ts.URL+"/screen.json", &screens)
	if !screens.On {
		t.Error("expected display on")
	}
	if len(screens.Left.Lines) == 0 || screens.Left.Lines[0] != "ALARM" {
		t.Errorf("left screen: got %v, want ALARM title", screens.Left.Lines)
	}
}

// TestIntegrationAlarmRingsAndSilences runs the alarm from match to Set press.
func TestIntegrationAlarmRingsAndSilences(t *testing.T) {
	s := script{idle, idle, idle, idle, idle, idle, idle, idle}.click(set).press(idle, 4)
	d := newDevice(s)
	d.ctrl.Clock().Set(logic.ClockTime{Hours: 7, Minutes: 29, Seconds: 59.5}, logic.DefaultDate)
	d.run(t)

	types := d.publisher.EventTypes()
	if len(types) != 2 || types[0] != logic.EventAlarmOn || types[1] != logic.EventAlarmOff {
		t.Fatalf("expected [ALARM_ON ALARM_OFF], got %v", types)
	}
	if d.buzzer.Toggles() == 0 {
		t.Error("expected the buzzer to sound while the alarm rang")
	}
	if d.buzzer.On {
		t.Error("expected the buzzer LOW after silencing")
	}
	if d.ctrl.Mode() != logic.ModeClock {
		t.Errorf("silencing must not open the menu, got %v", d.ctrl.Mode())
	}
	if snap := d.tracker.Snapshot(); snap.Counts.AlarmsOn != 1 || snap.Counts.AlarmsOff != 1 {
		t.Errorf("unexpected counts: %+v", snap.Counts)
	}
}

// TestIntegrationSleepWindow checks the device goes dark and arms the Set wake.
func TestIntegrationSleepWindow(t *testing.T) {
	s := make(script, 8)
	d := newDevice(s)
	d.ctrl.Clock().Set(logic.ClockTime{Hours: 12, Minutes: 0, Seconds: 10}, logic.DefaultDate)
	d.run(t)

	types := d.publisher.EventTypes()
	if len(types) != 1 || types[0] != logic.EventSleepStart {
		t.Fatalf("expected [SLEEP_START], got %v", types)
	}
	snap := d.tracker.Snapshot()
	if snap.Actuation.DisplayOn {
		t.Error("expected display off in the sleep window")
	}
	if snap.Actuation.Poll != logic.DefaultPollLong {
		t.Errorf("poll: got %v, want %v", snap.Actuation.Poll, logic.DefaultPollLong)
	}
	if !d.reader.Armed {
		t.Error("expected Set wake armed")
	}
	d.reader.TriggerWake()
	select {
	case <-d.reader.Wake():
	default:
		t.Error("expected a wake signal once armed")
	}
}

// TestIntegrationPublishFailureDoesNotCrash keeps stepping with a dead broker.
func TestIntegrationPublishFailureDoesNotCrash(t *testing.T) {
	d := newDevice(script{idle}.hold())
	d.publisher.PublishError = errors.New("broker unavailable")
	d.run(t)

	if len(d.publisher.Events) != 0 {
		t.Errorf("expected no recorded events, got %d", len(d.publisher.Events))
	}
	if d.ctrl.Mode() != logic.ModeMenu {
		t.Errorf("expected MENU despite publish failures, got %v", d.ctrl.Mode())
	}
	if d.tracker.Snapshot().Counts.ModeChanges != 1 {
		t.Error("event counts must not depend on publish success")
	}
}

// TestIntegrationShutdownPayloadFormat verifies the retained SHUTDOWN status
// message carries the clock state.
func TestIntegrationShutdownPayloadFormat(t *testing.T) {
	d := newDevice(script{idle, idle})
	d.run(t)

	snap := d.tracker.Snapshot()
	event := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "SHUTDOWN",
		Reason:     "SIGTERM",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", "SIGTERM"),
	}
	if err := d.publisher.PublishSystem(event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var sj status.StatusJSON
	if err := json.Unmarshal(d.publisher.SystemPayloads[0], &sj); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if sj.Status.Event != "SHUTDOWN" || sj.Status.Reason != "SIGTERM" {
		t.Errorf("unexpected event/reason: %q/%q", sj.Status.Event, sj.Status.Reason)
	}
	if sj.Status.Clock.Mode != "CLOCK" || sj.Status.Clock.Time != "09:00:00" {
		t.Errorf("unexpected clock: %+v", sj.Status.Clock)
	}
	if sj.Status.Config.Broker != "tcp://test:1883" {
		t.Errorf("config broker: got %q", sj.Status.Config.Broker)
	}
}
