// Command desk-clock runs the desk clock control loop: it reads the three front
// buttons, keeps drift-corrected time, sounds the alarm and publishes lifecycle
// events to MQTT.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sweeney/desk-clock/internal/gpio"
	"github.com/sweeney/desk-clock/internal/logic"
	"github.com/sweeney/desk-clock/internal/mqtt"
	"github.com/sweeney/desk-clock/internal/sensor"
	"github.com/sweeney/desk-clock/internal/status"
	"github.com/sweeney/desk-clock/internal/web"
)

// errBatteryDepleted stops the loop when the cell is flat.
var errBatteryDepleted = errors.New("battery depleted")

type options struct {
	core        logic.Config
	broker      string
	heartbeat   time.Duration
	chip        string
	pins        gpio.Pins
	pinBuzzer   int
	pinLED      int
	tempPath    string
	batteryPath string
	httpAddr    string
	wsBroker    string
	printState  bool
}

func main() {
	opts := options{core: logic.DefaultConfig()}

	flag.DurationVar(&opts.core.PollShort, "poll", logic.DefaultPollShort, "Polling interval while awake")
	flag.DurationVar(&opts.core.PollLong, "sleep-poll", logic.DefaultPollLong, "Polling interval while the display sleeps")
	flag.DurationVar(&opts.core.Debounce, "debounce", logic.DefaultDebounce, "Button debounce duration")
	flag.DurationVar(&opts.core.MenuHold, "menu-hold", logic.DefaultMenuHold, "Set hold needed to open the menu")
	flag.Float64Var(&opts.core.Drift, "drift", logic.DefaultDrift, "Clock drift multiplier while awake")
	flag.Float64Var(&opts.core.SleepDrift, "sleep-drift", logic.DefaultSleepDrift, "Clock drift multiplier while sleeping")
	flag.StringVar(&opts.broker, "broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	flag.DurationVar(&opts.heartbeat, "heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	flag.StringVar(&opts.chip, "chip", gpio.DefaultChip, "GPIO character device")
	flag.IntVar(&opts.pins.Up, "pin-up", gpio.PinUp, "BCM pin number for the Up button")
	flag.IntVar(&opts.pins.Set, "pin-set", gpio.PinSet, "BCM pin number for the Set button")
	flag.IntVar(&opts.pins.Down, "pin-down", gpio.PinDown, "BCM pin number for the Down button")
	flag.IntVar(&opts.pinBuzzer, "pin-buzzer", gpio.PinBuzzer, "BCM pin number for the piezo")
	flag.IntVar(&opts.pinLED, "pin-led", gpio.PinLED, "BCM pin number for the charge LED")
	flag.StringVar(&opts.tempPath, "temp-path", sensor.DefaultTempPath, "sysfs temperature attribute (millidegrees C)")
	flag.StringVar(&opts.batteryPath, "battery-path", sensor.DefaultBatteryPath, "sysfs battery capacity or voltage_now attribute")
	flag.StringVar(&opts.httpAddr, "http", ":80", "HTTP status address (empty to disable)")
	wsBroker := flag.String("ws-broker", "=broker", `MQTT websocket URL for live UI ("=broker" derives from --broker, "off" disables)`)
	flag.BoolVar(&opts.printState, "print-state", false, "Print current inputs and exit")

	flag.Parse()

	opts.wsBroker = resolveWSBroker(*wsBroker, opts.broker)
	if err := run(opts); err != nil {
		if errors.Is(err, errBatteryDepleted) {
			log.Printf("battery depleted, halting")
			os.Exit(2)
		}
		log.Fatalf("fatal: %v", err)
	}
}

func run(opts options) error {
	// Initialize GPIO
	buttons, err := gpio.NewRealReader(opts.chip, opts.pins)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer buttons.Close()

	thermo := sensor.SysfsThermometer{Path: opts.tempPath}
	battery := sensor.NewBattery(opts.batteryPath)

	// Print state mode
	if opts.printState {
		return printState(buttons, thermo, battery)
	}

	buzzer, err := gpio.NewRealOutput(opts.chip, opts.pinBuzzer, "buzzer")
	if err != nil {
		return fmt.Errorf("init buzzer: %w", err)
	}
	defer buzzer.Close()

	led, err := gpio.NewRealOutput(opts.chip, opts.pinLED, "charge LED")
	if err != nil {
		return fmt.Errorf("init charge LED: %w", err)
	}
	defer led.Close()

	instanceID := uuid.New().String()

	// Initialize MQTT
	publisher := mqtt.NewRealPublisher(opts.broker, status.ClientID(instanceID))
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:      opts.core.PollShort.Milliseconds(),
		SleepPollMs: opts.core.PollLong.Milliseconds(),
		DebounceMs:  opts.core.Debounce.Milliseconds(),
		MenuHoldMs:  opts.core.MenuHold.Milliseconds(),
		HeartbeatMs: opts.heartbeat.Milliseconds(),
		Drift:       opts.core.Drift,
		SleepDrift:  opts.core.SleepDrift,
		Broker:      opts.broker,
		HTTPPort:    opts.httpAddr,
		WSBroker:    opts.wsBroker,
		InstanceID:  instanceID,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Start HTTP status server
	if opts.httpAddr != "" {
		srv := web.New(opts.httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", opts.httpAddr)
	}

	log.Printf("started: poll=%v sleep-poll=%v debounce=%v broker=%s heartbeat=%v instance=%s",
		opts.core.PollShort, opts.core.PollLong, opts.core.Debounce, opts.broker, opts.heartbeat, instanceID)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	hw := hardware{buttons: buttons, buzzer: buzzer, led: led, thermo: thermo, battery: battery}
	ctrl := logic.NewController(opts.core)
	return runLoop(ctrl, hw, publisher, publisher, tracker, opts.heartbeat, time.Now, time.After, sigCh)
}

func printState(buttons gpio.Reader, thermo sensor.Thermometer, battery sensor.Battery) error {
	b, err := buttons.Read()
	if err != nil {
		return fmt.Errorf("read gpio: %w", err)
	}
	fmt.Printf("Up: %s, Set: %s, Down: %s\n", level(b.Up), level(b.Set), level(b.Down))

	if c, err := thermo.Temperature(); err != nil {
		fmt.Printf("Temperature: %v\n", err)
	} else {
		fmt.Printf("Temperature: %.1fC\n", c)
	}
	if p, err := battery.Percent(); err != nil {
		fmt.Printf("Battery: %v\n", err)
	} else {
		fmt.Printf("Battery: %d%%\n", p)
	}
	return nil
}

// hardware is everything the loop reads from or drives.
type hardware struct {
	buttons gpio.Reader
	buzzer  gpio.Output
	led     gpio.Output
	thermo  sensor.Thermometer
	battery sensor.Battery
}

// waitFunc returns a channel that fires after d.
type waitFunc func(d time.Duration) <-chan time.Time

func runLoop(ctrl *logic.Controller, hw hardware, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, heartbeat time.Duration, now func() time.Time, wait waitFunc, sig <-chan os.Signal) error {
	startTime := now()
	hb := logic.NewHeartbeat(startTime)
	wake := hw.buttons.Wake()
	charge := 100
	var poll time.Duration

	shutdown := func(reason string) {
		event := mqtt.SystemEvent{
			Timestamp: now(),
			Event:     "SHUTDOWN",
			Reason:    reason,
			Retained:  true,
		}
		if tracker != nil {
			if mqttStatus != nil {
				tracker.SetMQTTConnected(mqttStatus.IsConnected())
			}
			snap := tracker.Snapshot()
			event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", reason)
		}
		if err := publisher.PublishSystem(event); err != nil {
			log.Printf("failed to publish shutdown event: %v", err)
		} else {
			log.Printf("published shutdown event")
		}
	}

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			shutdown(signalName)
			return nil

		case <-wait(poll):
		case <-wake:
			log.Printf("woken by Set")
		}

		t := now()
		uptime := t.Sub(startTime)

		levels, err := hw.buttons.Read()
		if err != nil {
			log.Printf("gpio read error: %v", err)
			if poll <= 0 {
				poll = logic.DefaultPollShort
			}
			continue
		}
		if p, err := hw.battery.Percent(); err != nil {
			log.Printf("battery read error: %v", err)
		} else {
			charge = p
		}

		out := ctrl.Step(logic.Input{
			Up:      levels.Up,
			Set:     levels.Set,
			Down:    levels.Down,
			Uptime:  uptime,
			Battery: charge,
		})

		for _, event := range out.Events {
			log.Printf("event: %s (%s %s mode=%s)", event.Type, event.Time, event.Date, event.To)
			if tracker != nil {
				tracker.RecordEvent(event)
			}
			if err := publisher.Publish(event); err != nil {
				log.Printf("publish error: %v", err)
				// Don't crash on publish failure
			}
		}

		snap := out.Snapshot
		if out.SampleTemperature {
			if c, err := hw.thermo.Temperature(); err != nil {
				log.Printf("temperature read error: %v", err)
			} else {
				ctrl.SetTemperature(c)
				snap = ctrl.Snapshot()
			}
		}

		if err := hw.buzzer.Set(out.Actuation.Buzzer); err != nil {
			log.Printf("buzzer error: %v", err)
		}

		power := logic.BatteryPolicy(charge, uptime)
		if err := hw.led.Set(power.LED); err != nil {
			log.Printf("charge LED error: %v", err)
		}

		if tracker != nil {
			tracker.Update(snap, out.Actuation, ctrl.EventCountsSnapshot())
			if mqttStatus != nil {
				tracker.SetMQTTConnected(mqttStatus.IsConnected())
			}
		}

		if power.Shutdown {
			log.Printf("battery at %d%%, shutting down", charge)
			shutdown("LOW_BATTERY")
			return errBatteryDepleted
		}

		hw.buttons.ArmWake(out.Actuation.WakeOnSet)
		poll = out.Actuation.Poll

		// Check for heartbeat
		if hbData := hb.Check(t, heartbeat, ctrl.EventCountsSnapshot()); hbData != nil {
			log.Printf("heartbeat: uptime=%v mode_changes=%d alarm_on=%d alarm_off=%d sleep_start=%d sleep_end=%d",
				hbData.Uptime, hbData.Counts.ModeChanges, hbData.Counts.AlarmsOn, hbData.Counts.AlarmsOff,
				hbData.Counts.SleepStarts, hbData.Counts.SleepEnds)

			hbEvent := mqtt.SystemEvent{
				Timestamp: hbData.Timestamp,
				Event:     "HEARTBEAT",
			}
			if tracker != nil {
				// Refresh network info for heartbeat
				if net := readNetworkInfo(); net != nil {
					tracker.SetNetwork(net)
				}
				hbEvent.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "HEARTBEAT", "")
			}
			if err := publisher.PublishSystem(hbEvent); err != nil {
				log.Printf("heartbeat publish error: %v", err)
			}
		}
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}

func level(high bool) string {
	if high {
		return "HIGH"
	}
	return "LOW"
}

// resolveWSBroker converts the --ws-broker flag value into a concrete URL.
// "=broker" derives ws://host:9001 from the TCP broker address; empty disables.
func resolveWSBroker(ws, broker string) string {
	if ws == "off" {
		return ""
	}
	if ws != "=broker" {
		return ws
	}
	u, err := url.Parse(broker)
	if err != nil {
		log.Printf("ws-broker: cannot parse --broker %q: %v", broker, err)
		return ""
	}
	u.Scheme = "ws"
	u.Host = u.Hostname() + ":9001"
	return u.String()
}
