package sensor

// Fake is a test double for both Thermometer and Battery.
type Fake struct {
	Celsius float64
	Charge  int

	TempError    error
	BatteryError error

	// TempReads counts Temperature calls.
	TempReads int
}

// Temperature returns Celsius or TempError.
func (f *Fake) Temperature() (float64, error) {
	f.TempReads++
	if f.TempError != nil {
		return 0, f.TempError
	}
	return f.Celsius, nil
}

// Percent returns Charge or BatteryError.
func (f *Fake) Percent() (int, error) {
	if f.BatteryError != nil {
		return 0, f.BatteryError
	}
	return f.Charge, nil
}
