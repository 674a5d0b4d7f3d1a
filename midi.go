package towel

type (
	// MIDIEvent is a MIDI message relevant to the sampler. Frame is the offset
	// of the event from the start of the block it is delivered with.
	MIDIEvent struct {
		Frame    int
		Kind     MIDIEventKind
		Channel  int
		Note     byte
		Velocity byte // note events; 0..127
		Control  byte // control change number
		Value    byte // control change value
	}

	MIDIEventKind int
)

const (
	NoteOff MIDIEventKind = iota
	NoteOn
	ControlChange
)

// MIDI control change numbers understood by the engine.
const (
	CCSustainPedal = 64
	CCAllSoundOff  = 120
	CCAllNotesOff  = 123
)

// NoteOnEvent and NoteOffEvent build note events at the given frame.
func NoteOnEvent(frame int, note, velocity byte) MIDIEvent {
	return MIDIEvent{Frame: frame, Kind: NoteOn, Note: note, Velocity: velocity}
}

func NoteOffEvent(frame int, note byte) MIDIEvent {
	return MIDIEvent{Frame: frame, Kind: NoteOff, Note: note}
}

// NormVelocity maps a MIDI velocity to the [0, 1] gain voices use.
func NormVelocity(v byte) float32 {
	return ClampVelocity(float32(v) / 127)
}
