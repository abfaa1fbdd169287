// Package sensor reads ambient temperature and battery charge from sysfs.
package sensor

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Thermometer reads the ambient temperature.
type Thermometer interface {
	// Temperature returns degrees Celsius.
	Temperature() (float64, error)
}

// Battery reads the remaining charge.
type Battery interface {
	// Percent returns the charge clamped to 0..100.
	Percent() (int, error)
}

// Default sysfs attributes on the clock board.
const (
	DefaultTempPath    = "/sys/bus/iio/devices/iio:device0/in_temp_input"
	DefaultBatteryPath = "/sys/class/power_supply/battery/capacity"
)

// Li-ion cell limits used to derive charge from voltage.
const (
	DischargedVoltage = 3.3
	ChargedVoltage    = 4.1
)

// SysfsThermometer reads a millidegree Celsius attribute such as iio in_temp_input.
type SysfsThermometer struct {
	Path string
}

// Temperature returns the reading in degrees Celsius.
func (s SysfsThermometer) Temperature() (float64, error) {
	milli, err := readInt(s.Path)
	if err != nil {
		return 0, fmt.Errorf("read temperature: %w", err)
	}
	return float64(milli) / 1000, nil
}

// CapacityBattery reads a power_supply capacity attribute (percent).
type CapacityBattery struct {
	Path string
}

// Percent returns the reported capacity.
func (b CapacityBattery) Percent() (int, error) {
	v, err := readInt(b.Path)
	if err != nil {
		return 0, fmt.Errorf("read battery capacity: %w", err)
	}
	return clampPercent(v), nil
}

// VoltageBattery reads a power_supply voltage_now attribute (microvolts) and maps it
// linearly between DischargedVoltage and ChargedVoltage.
type VoltageBattery struct {
	Path string
}

// Percent returns the charge derived from the cell voltage.
func (b VoltageBattery) Percent() (int, error) {
	uv, err := readInt(b.Path)
	if err != nil {
		return 0, fmt.Errorf("read battery voltage: %w", err)
	}
	return ChargeFromVoltage(float64(uv) / 1e6), nil
}

// NewBattery picks the reader matching the attribute name at path.
func NewBattery(path string) Battery {
	if strings.HasPrefix(filepath.Base(path), "voltage") {
		return VoltageBattery{Path: path}
	}
	return CapacityBattery{Path: path}
}

// ChargeFromVoltage converts a cell voltage to a rounded percentage.
func ChargeFromVoltage(volts float64) int {
	pct := (volts - DischargedVoltage) / (ChargedVoltage - DischargedVoltage) * 100
	return clampPercent(int(math.Round(pct)))
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func readInt(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}
	return v, nil
}
