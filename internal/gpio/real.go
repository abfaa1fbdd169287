//go:build linux

package gpio

import (
	"fmt"
	"sync/atomic"

	"github.com/warthog618/go-gpiocdev"
)

// RealReader reads the buttons from actual hardware using Linux GPIO character device.
type RealReader struct {
	chip    *gpiocdev.Chip
	upPin   *gpiocdev.Line
	setPin  *gpiocdev.Line
	downPin *gpiocdev.Line

	armed atomic.Bool
	wake  chan struct{}
}

// NewRealReader requests the three button lines on the named chip.
func NewRealReader(chipName string, pins Pins) (*RealReader, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	r := &RealReader{chip: chip, wake: make(chan struct{}, 1)}

	// Buttons pull the line HIGH when pressed; pull-down keeps released buttons LOW.
	r.upPin, err = chip.RequestLine(pins.Up, gpiocdev.AsInput, gpiocdev.WithPullDown)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("request Up pin %d: %w", pins.Up, err)
	}

	// Set also carries the wake interrupt used while the display sleeps.
	r.setPin, err = chip.RequestLine(pins.Set,
		gpiocdev.AsInput,
		gpiocdev.WithPullDown,
		gpiocdev.WithRisingEdge,
		gpiocdev.WithEventHandler(r.handleSetEdge),
	)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("request Set pin %d: %w", pins.Set, err)
	}

	r.downPin, err = chip.RequestLine(pins.Down, gpiocdev.AsInput, gpiocdev.WithPullDown)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("request Down pin %d: %w", pins.Down, err)
	}

	return r, nil
}

func (r *RealReader) handleSetEdge(evt gpiocdev.LineEvent) {
	if evt.Type == gpiocdev.LineEventRisingEdge && r.armed.Load() {
		signal(r.wake)
	}
}

// Read returns the raw level of every button.
func (r *RealReader) Read() (Buttons, error) {
	up, err := r.upPin.Value()
	if err != nil {
		return Buttons{}, fmt.Errorf("read Up pin: %w", err)
	}
	set, err := r.setPin.Value()
	if err != nil {
		return Buttons{}, fmt.Errorf("read Set pin: %w", err)
	}
	down, err := r.downPin.Value()
	if err != nil {
		return Buttons{}, fmt.Errorf("read Down pin: %w", err)
	}
	return Buttons{Up: up == 1, Set: set == 1, Down: down == 1}, nil
}

// Wake returns the Set edge channel.
func (r *RealReader) Wake() <-chan struct{} { return r.wake }

// ArmWake enables or disables Set edge delivery.
func (r *RealReader) ArmWake(on bool) { r.armed.Store(on) }

// Close releases GPIO resources.
// Reconfigures pins to input with pull-down (matching Pi boot defaults) before
// closing to ensure clean state for system shutdown/reboot.
func (r *RealReader) Close() error {
	var errs []error

	lines := []struct {
		name string
		line *gpiocdev.Line
	}{
		{"Up", r.upPin},
		{"Set", r.setPin},
		{"Down", r.downPin},
	}
	for _, l := range lines {
		if l.line == nil {
			continue
		}
		if err := l.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure %s pin: %w", l.name, err))
		}
		if err := l.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s pin: %w", l.name, err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealOutput drives one output line, the piezo or the charge LED.
type RealOutput struct {
	name string
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

// NewRealOutput requests pin as an output, initially LOW.
func NewRealOutput(chipName string, pin int, name string) (*RealOutput, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	line, err := chip.RequestLine(pin, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request %s pin %d: %w", name, pin, err)
	}
	return &RealOutput{name: name, chip: chip, line: line}, nil
}

// Set drives the line.
func (o *RealOutput) Set(on bool) error {
	v := 0
	if on {
		v = 1
	}
	if err := o.line.SetValue(v); err != nil {
		return fmt.Errorf("set %s pin: %w", o.name, err)
	}
	return nil
}

// Close drives the line LOW and returns it to input with pull-down.
func (o *RealOutput) Close() error {
	var errs []error
	if err := o.line.SetValue(0); err != nil {
		errs = append(errs, fmt.Errorf("clear %s pin: %w", o.name, err))
	}
	if err := o.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
		errs = append(errs, fmt.Errorf("reconfigure %s pin: %w", o.name, err))
	}
	if err := o.line.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close %s pin: %w", o.name, err))
	}
	if err := o.chip.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close chip: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
