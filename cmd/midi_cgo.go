//go:build cgo

package cmd

import (
	"github.com/towel808/towel/engine"
	"github.com/towel808/towel/gomidi"
)

func NewMIDIInput(e *engine.Engine) (MIDIInput, error) {
	input, err := gomidi.NewInput(e.Inject)
	if err != nil {
		return nil, err
	}
	return input, nil
}
