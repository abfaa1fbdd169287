package logic

import "time"

// Button classifies one raw digital input into click and hold gestures.
//
// The classifier is level-triggered: any change of the raw level restarts the
// debounce timer, and a press is recognized only while the level is HIGH and has
// been stable for at least the threshold. The first recognized tick reports a
// click; every following tick of the same press reports a hold.
type Button struct {
	threshold time.Duration

	lastLevel  bool
	lastChange time.Duration

	clicked bool
	held    bool
	pressed bool
	heldFor time.Duration
}

// NewButton creates a button with the given debounce threshold.
func NewButton(threshold time.Duration) *Button {
	return &Button{threshold: threshold}
}

// Update samples the raw level at uptime now and reclassifies the gesture.
func (b *Button) Update(level bool, now time.Duration) {
	if level != b.lastLevel {
		b.lastLevel = level
		b.lastChange = now
	}

	if !level || now-b.lastChange < b.threshold {
		b.pressed = false
		b.clicked = false
		b.held = false
		b.heldFor = 0
		return
	}

	// Click is reported once, then it turns into a hold.
	if !b.held && b.clicked {
		b.held = true
		b.clicked = false
	}
	if !b.pressed && !b.clicked {
		b.clicked = true
		b.held = false
	}
	b.pressed = true
	b.heldFor = now - b.lastChange
}

// Reset drops the current gesture after the consumer acted on it.
// Pressed and raw tracking are kept, so a button that is still physically held
// reports neither click nor hold until it is released.
func (b *Button) Reset() {
	b.heldFor = 0
	b.held = false
	b.clicked = false
}

// Clicked is true only on the tick a press is first recognized.
func (b *Button) Clicked() bool { return b.clicked }

// Held is true on every tick after the click while the press persists.
func (b *Button) Held() bool { return b.held }

// Pressed is true for the whole recognized press.
func (b *Button) Pressed() bool { return b.pressed }

// HeldFor is the time since the level went HIGH, zero when not pressed.
func (b *Button) HeldFor() time.Duration { return b.heldFor }

// Pending is true while the level is HIGH but not yet recognized as a press.
func (b *Button) Pending() bool { return b.lastLevel && !b.pressed }
