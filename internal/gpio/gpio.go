// Package gpio provides button input and buzzer/LED output with hardware abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Buttons holds the raw levels of the three front buttons. true = HIGH = pressed.
type Buttons struct {
	Up   bool
	Set  bool
	Down bool
}

// Reader reads the button levels.
type Reader interface {
	// Read returns the current raw level of every button.
	Read() (Buttons, error)

	// Wake returns a channel signalled on a rising edge of Set while the wake
	// interrupt is armed. At most one signal is buffered.
	Wake() <-chan struct{}

	// ArmWake enables or disables the Set wake interrupt.
	ArmWake(on bool)

	// Close releases GPIO resources.
	Close() error
}

// Output drives a single digital output line.
type Output interface {
	// Set drives the line HIGH (on) or LOW.
	Set(on bool) error

	// Close drives the line LOW and releases it.
	Close() error
}

// Pins maps the buttons to line offsets.
type Pins struct {
	Up   int
	Set  int
	Down int
}

// Pin definitions (BCM numbering)
const (
	PinUp     = 17
	PinSet    = 27
	PinDown   = 22
	PinBuzzer = 18 // piezo
	PinLED    = 23 // charge LED
)

// DefaultChip is the GPIO character device on a Raspberry Pi.
const DefaultChip = "gpiochip0"

// DefaultPins returns the standard button wiring.
func DefaultPins() Pins {
	return Pins{Up: PinUp, Set: PinSet, Down: PinDown}
}

// signal does a non-blocking send on a wake channel.
func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
