//go:build !cgo

package cmd

import (
	"github.com/towel808/towel/engine"
)

func NewMIDIInput(e *engine.Engine) (MIDIInput, error) {
	// with no cgo, we cannot use MIDI, so return a null input
	return NullMIDIInput{}, nil
}
