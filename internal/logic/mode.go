package logic

// Mode is the top-level UI state.
type Mode int

const (
	ModeClock Mode = iota
	ModeMenu
	ModeSetting
)

func (m Mode) String() string {
	switch m {
	case ModeClock:
		return "CLOCK"
	case ModeMenu:
		return "MENU"
	case ModeSetting:
		return "SETTING"
	}
	return "UNKNOWN"
}

// trigger is a mode-changing gesture. Every trigger is a Set hold past the menu
// threshold; what it means depends on the highlighted menu action.
type trigger int

const (
	triggerSetHold     trigger = iota // Set held on a clock, setting or editable item
	triggerSetHoldExit                // Set held while Exit is highlighted
)

type transition struct {
	from Mode
	on   trigger
}

var transitions = map[transition]Mode{
	{ModeClock, triggerSetHold}:    ModeMenu,
	{ModeMenu, triggerSetHold}:     ModeSetting,
	{ModeMenu, triggerSetHoldExit}: ModeClock,
	{ModeSetting, triggerSetHold}:  ModeMenu,
}

// next returns the target of a transition. Entering the menu is refused while
// the device sleeps.
func next(from Mode, on trigger, sleeping bool) (Mode, bool) {
	to, ok := transitions[transition{from, on}]
	if !ok {
		return from, false
	}
	if from == ModeClock && sleeping {
		return from, false
	}
	return to, true
}
