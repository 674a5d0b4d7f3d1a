//go:build cgo

package gomidi

import (
	"errors"
	"fmt"
	"strings"

	"github.com/towel808/towel"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// Input listens to one MIDI input device at a time and hands every message
// to a sink, typically engine.Engine.Inject.
type Input struct {
	driver  *rtmididrv.Driver
	current drivers.In
	stop    func()
	sink    func(towel.MIDIEvent) bool
}

var ErrNoDevice = errors.New("no matching MIDI input")

// NewInput opens the rtmidi driver.
func NewInput(sink func(towel.MIDIEvent) bool) (*Input, error) {
	driver, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("cannot open MIDI driver: %w", err)
	}
	return &Input{driver: driver, sink: sink}, nil
}

// Devices lists the names of the available input devices.
func (i *Input) Devices() ([]string, error) {
	ins, err := i.driver.Ins()
	if err != nil {
		return nil, fmt.Errorf("cannot list MIDI inputs: %w", err)
	}
	names := make([]string, len(ins))
	for j, in := range ins {
		names[j] = in.String()
	}
	return names, nil
}

// Open starts listening to the first device whose name starts with
// namePrefix, closing the current one. An empty prefix takes the first device.
func (i *Input) Open(namePrefix string) error {
	ins, err := i.driver.Ins()
	if err != nil {
		return fmt.Errorf("cannot list MIDI inputs: %w", err)
	}
	for _, in := range ins {
		if !strings.HasPrefix(in.String(), namePrefix) {
			continue
		}
		if in == i.current {
			return nil
		}
		i.closeCurrent()
		if err := in.Open(); err != nil {
			return fmt.Errorf("opening MIDI input failed: %w", err)
		}
		stop, err := midi.ListenTo(in, i.handleMessage)
		if err != nil {
			in.Close()
			return fmt.Errorf("cannot listen to MIDI input: %w", err)
		}
		i.current, i.stop = in, stop
		return nil
	}
	return fmt.Errorf("%w: %q", ErrNoDevice, namePrefix)
}

func (i *Input) handleMessage(msg midi.Message, timestampms int32) {
	if ev, ok := Event(msg, 0); ok {
		i.sink(ev) // if the queue is full, just drop the message
	}
}

func (i *Input) closeCurrent() {
	if i.stop != nil {
		i.stop()
		i.stop = nil
	}
	if i.current != nil && i.current.IsOpen() {
		i.current.Close()
	}
	i.current = nil
}

// Close stops listening and closes the driver.
func (i *Input) Close() error {
	i.closeCurrent()
	return i.driver.Close()
}
