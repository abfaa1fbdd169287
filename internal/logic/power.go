package logic

import "time"

// Battery thresholds in percent.
const (
	BatteryDepleted = 1
	BatteryLow      = 5
)

const ledBlinkPeriod = time.Second

// BatteryAction is what the loop does about the battery this iteration.
type BatteryAction struct {
	Shutdown bool // fatal: power down for good
	LED      bool // charge warning LED level
}

// BatteryPolicy evaluates the charge percentage. Below BatteryDepleted the
// device must shut down; below BatteryLow the charge LED blinks at 1 Hz.
func BatteryPolicy(percent int, uptime time.Duration) BatteryAction {
	if percent < BatteryDepleted {
		return BatteryAction{Shutdown: true}
	}
	if percent < BatteryLow {
		return BatteryAction{LED: uptime%ledBlinkPeriod < ledBlinkPeriod/2}
	}
	return BatteryAction{}
}
