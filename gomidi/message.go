// Package gomidi connects gitlab.com/gomidi/midi/v2 to the sampler: message
// conversion for hosts and, in cgo builds, live input from MIDI devices.
package gomidi

import (
	"github.com/towel808/towel"
	"gitlab.com/gomidi/midi/v2"
)

// Event converts a MIDI message to an event at the given frame of a block.
// ok is false for messages the sampler does not handle.
func Event(msg midi.Message, frame int) (event towel.MIDIEvent, ok bool) {
	var channel, key, velocity, controller, value uint8
	switch {
	case msg.GetNoteOn(&channel, &key, &velocity):
		if velocity == 0 {
			return towel.MIDIEvent{Frame: frame, Kind: towel.NoteOff, Channel: int(channel), Note: key}, true
		}
		return towel.MIDIEvent{Frame: frame, Kind: towel.NoteOn, Channel: int(channel), Note: key, Velocity: velocity}, true
	case msg.GetNoteOff(&channel, &key, &velocity):
		return towel.MIDIEvent{Frame: frame, Kind: towel.NoteOff, Channel: int(channel), Note: key, Velocity: velocity}, true
	case msg.GetControlChange(&channel, &controller, &value):
		return towel.MIDIEvent{Frame: frame, Kind: towel.ControlChange, Channel: int(channel), Control: controller, Value: value}, true
	}
	return towel.MIDIEvent{}, false
}
