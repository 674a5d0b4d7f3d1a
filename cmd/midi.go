package cmd

import "errors"

// MIDIInput is a live MIDI input feeding an engine.
type MIDIInput interface {
	Devices() ([]string, error)
	Open(namePrefix string) error
	Close() error
}

// NullMIDIInput has no devices.
type NullMIDIInput struct{}

var ErrNoMIDI = errors.New("MIDI input is not available in this build")

func (NullMIDIInput) Devices() ([]string, error) { return nil, nil }
func (NullMIDIInput) Open(string) error          { return ErrNoMIDI }
func (NullMIDIInput) Close() error               { return nil }
