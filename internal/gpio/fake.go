package gpio

import "errors"

// FakeReader is a test double that returns scripted button levels.
type FakeReader struct {
	// Samples contains scripted levels to return.
	// Each call to Read() consumes the next sample.
	Samples []Buttons

	// index tracks current position in Samples
	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error

	// Armed mirrors the last ArmWake call
	Armed bool

	wake chan struct{}
}

// NewFakeReader creates a FakeReader with the given samples.
func NewFakeReader(samples []Buttons) *FakeReader {
	return &FakeReader{Samples: samples, wake: make(chan struct{}, 1)}
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeReader) Read() (Buttons, error) {
	if f.ReadError != nil {
		return Buttons{}, f.ReadError
	}

	if len(f.Samples) == 0 {
		return Buttons{}, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}

	return sample, nil
}

// Wake returns the scripted wake channel.
func (f *FakeReader) Wake() <-chan struct{} { return f.wake }

// ArmWake records the arming state.
func (f *FakeReader) ArmWake(on bool) { f.Armed = on }

// TriggerWake simulates a Set rising edge. It is dropped unless armed.
func (f *FakeReader) TriggerWake() {
	if f.Armed {
		signal(f.wake)
	}
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.Closed = true
	return nil
}

// Reset resets the reader to the beginning of samples.
func (f *FakeReader) Reset() {
	f.index = 0
	f.Closed = false
}

// FakeOutput is a test double that records every value driven on the line.
type FakeOutput struct {
	// Values holds every Set call in order.
	Values []bool

	// On is the current line state.
	On bool

	// SetError, if set, will be returned by Set()
	SetError error

	// Closed tracks if Close was called
	Closed bool
}

// Set records the value.
func (f *FakeOutput) Set(on bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.On = on
	f.Values = append(f.Values, on)
	return nil
}

// Close drives the line LOW and marks the output closed.
func (f *FakeOutput) Close() error {
	f.On = false
	f.Closed = true
	return nil
}

// Toggles counts the number of LOW/HIGH changes in Values.
func (f *FakeOutput) Toggles() int {
	n := 0
	for i := 1; i < len(f.Values); i++ {
		if f.Values[i] != f.Values[i-1] {
			n++
		}
	}
	return n
}
