package web

import (
	"fmt"

	"github.com/sweeney/desk-clock/internal/logic"
)

// Screen is the text content of one of the two displays.
type Screen struct {
	Lines []string `json:"lines"`
	// Highlight is the index of the framed line, -1 for none.
	Highlight int `json:"highlight"`
}

// Screens is what the left and right displays show for one snapshot.
type Screens struct {
	On    bool   `json:"on"`
	Left  Screen `json:"left"`
	Right Screen `json:"right"`
}

var settingTitles = map[logic.MenuItem]string{
	logic.ItemBattery:        "BATTERY",
	logic.ItemDisplaySeconds: "SECONDS",
	logic.ItemSleepEnd:       "END TIME",
	logic.ItemSleepStart:     "START TIME",
	logic.ItemSleepStatus:    "SLEEP",
	logic.ItemAlarmTime:      "ALARM TIME",
	logic.ItemAlarmStatus:    "ALARM",
	logic.ItemDate:           "DATE",
	logic.ItemTime:           "TIME",
}

func lines(l ...string) Screen {
	return Screen{Lines: l, Highlight: -1}
}

// RenderScreens is a pure function of the snapshot. A dark display renders as
// two empty screens.
func RenderScreens(c logic.Snapshot) Screens {
	if !c.DisplayOn {
		return Screens{Left: lines(), Right: lines()}
	}

	out := Screens{On: true}
	switch c.Mode {
	case logic.ModeClock:
		out.Left, out.Right = clockScreens(c)
	case logic.ModeMenu:
		out.Left = lines("SET MENU")
		out.Right = menuScreen(c.Menu)
	case logic.ModeSetting:
		out.Left = lines(settingTitles[c.Item])
		out.Right = lines(settingValue(c))
	}
	return out
}

func clockScreens(c logic.Snapshot) (Screen, Screen) {
	if c.AlarmActive {
		return lines("ALARM"), lines(c.Settings.Alarm.At.String())
	}

	left := lines(fmt.Sprintf("%02d:%02d", c.Time.Hours, c.Time.Minutes))
	if c.Settings.ShowSeconds {
		left.Lines = append(left.Lines, fmt.Sprintf("%02d", int(c.Time.Seconds)))
	}

	temp := "--.-C"
	if c.HasTemperature {
		temp = fmt.Sprintf("%.1fC", c.Temperature)
	}
	return left, lines(c.Date.String(), temp)
}

// menuScreen lists the viewport from Top downwards, the order the actions scroll in.
func menuScreen(m logic.MenuSelection) Screen {
	s := Screen{Highlight: -1}
	for i := m.Top; i > m.Top-logic.MenuRows && i >= 0; i-- {
		if i == m.Selected {
			s.Highlight = len(s.Lines)
		}
		s.Lines = append(s.Lines, logic.MenuItem(i).String())
	}
	return s
}

// settingValue renders the edited value with the active field in brackets.
func settingValue(c logic.Snapshot) string {
	s := c.Settings
	switch c.Item {
	case logic.ItemBattery:
		return fmt.Sprintf("%3d%%", c.Battery)
	case logic.ItemTime:
		t := c.Time.Whole()
		return fields(c.Field, ":", t.Hours, t.Minutes, t.Seconds)
	case logic.ItemDate:
		d := c.Date
		return fields(c.Field, ".", d.Day, d.Month, d.Year)
	case logic.ItemAlarmTime:
		return todFields(c.Field, s.Alarm.At)
	case logic.ItemSleepStart:
		return todFields(c.Field, s.Sleep.Start)
	case logic.ItemSleepEnd:
		return todFields(c.Field, s.Sleep.End)
	case logic.ItemAlarmStatus:
		return "[" + onOff(s.Alarm.Enabled) + "]"
	case logic.ItemSleepStatus:
		return "[" + onOff(s.Sleep.Enabled) + "]"
	case logic.ItemDisplaySeconds:
		return "[" + onOff(s.ShowSeconds) + "]"
	}
	return ""
}

func todFields(active int, t logic.TimeOfDay) string {
	return fields(active, ":", t.Hours, t.Minutes, t.Seconds)
}

func fields(active int, sep string, values ...int) string {
	out := ""
	for i, v := range values {
		if i > 0 {
			out += sep
		}
		text := fmt.Sprintf("%02d", v)
		if i == active {
			text = "[" + text + "]"
		}
		out += text
	}
	return out
}

func onOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}
