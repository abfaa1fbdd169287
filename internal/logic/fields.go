package logic

// MenuItem is one action of the settings menu. The numeric order is the menu
// order; Up moves to the next higher index, Down to the lower one.
type MenuItem int

const (
	ItemBattery MenuItem = iota
	ItemDisplaySeconds
	ItemSleepEnd
	ItemSleepStart
	ItemSleepStatus
	ItemAlarmTime
	ItemAlarmStatus
	ItemDate
	ItemTime
	ItemExit
)

// MenuItems is the number of menu actions.
const MenuItems = int(ItemExit) + 1

var itemLabels = [MenuItems]string{
	"Battery", "Display Seconds", "Sleep End", "Sleep Start", "Sleep Status",
	"Alarm Time", "Alarm Status", "Date", "Time", "Exit",
}

func (i MenuItem) String() string {
	if i < 0 || int(i) >= MenuItems {
		return "Unknown"
	}
	return itemLabels[i]
}

// FieldKind is the kind of sub-value edited on a Setting screen.
type FieldKind int

const (
	FieldHours FieldKind = iota
	FieldMinutes
	FieldSeconds
	FieldDay
	FieldMonth
	FieldYear
	FieldToggle
)

func (k FieldKind) String() string {
	switch k {
	case FieldHours:
		return "hours"
	case FieldMinutes:
		return "minutes"
	case FieldSeconds:
		return "seconds"
	case FieldDay:
		return "day"
	case FieldMonth:
		return "month"
	case FieldYear:
		return "year"
	case FieldToggle:
		return "toggle"
	}
	return "unknown"
}

var (
	hmsFields    = []FieldKind{FieldHours, FieldMinutes, FieldSeconds}
	dateFields   = []FieldKind{FieldDay, FieldMonth, FieldYear}
	toggleFields = []FieldKind{FieldToggle}
)

// itemFields maps each menu action to its ordered editable fields. Battery is an
// information screen with no fields; Exit never opens a Setting screen.
var itemFields = map[MenuItem][]FieldKind{
	ItemBattery:        nil,
	ItemDisplaySeconds: toggleFields,
	ItemSleepEnd:       hmsFields,
	ItemSleepStart:     hmsFields,
	ItemSleepStatus:    toggleFields,
	ItemAlarmTime:      hmsFields,
	ItemAlarmStatus:    toggleFields,
	ItemDate:           dateFields,
	ItemTime:           hmsFields,
}

// Fields returns the editable fields of the item in cursor order.
func (i MenuItem) Fields() []FieldKind {
	return itemFields[i]
}

// MenuRows is the number of actions visible at once.
const MenuRows = 4

// MenuSelection is the highlighted action and the scrolling viewport. Top is the
// highest visible index; rows Top-MenuRows+1 .. Top are shown.
type MenuSelection struct {
	Selected int
	Top      int
}

// Item returns the highlighted menu action.
func (m MenuSelection) Item() MenuItem { return MenuItem(m.Selected) }

// Visible reports whether index is inside the viewport.
func (m MenuSelection) Visible(index int) bool {
	return index > m.Top-MenuRows && index <= m.Top
}

func (m *MenuSelection) up() {
	if m.Selected >= MenuItems-1 {
		return
	}
	m.Selected++
	if m.Selected > m.Top {
		m.Top++
	}
}

func (m *MenuSelection) down() {
	if m.Selected <= 0 {
		return
	}
	m.Selected--
	if m.Selected <= m.Top-MenuRows {
		m.Top--
	}
}

func lastMenuSelection() MenuSelection {
	return MenuSelection{Selected: MenuItems - 1, Top: MenuItems - 1}
}

// edit applies delta to the field of item. Toggles flip regardless of direction.
func (s *Settings) edit(clock *Chronometer, item MenuItem, kind FieldKind, delta int) {
	switch item {
	case ItemTime:
		clock.StepTime(kind, delta)
	case ItemDate:
		clock.StepDate(kind, delta)
	case ItemAlarmTime:
		s.Alarm.At = s.Alarm.At.Step(kind, delta)
	case ItemSleepStart:
		s.Sleep.Start = s.Sleep.Start.Step(kind, delta)
	case ItemSleepEnd:
		s.Sleep.End = s.Sleep.End.Step(kind, delta)
	case ItemAlarmStatus:
		s.Alarm.Enabled = !s.Alarm.Enabled
	case ItemSleepStatus:
		s.Sleep.Enabled = !s.Sleep.Enabled
	case ItemDisplaySeconds:
		s.ShowSeconds = !s.ShowSeconds
	}
}
