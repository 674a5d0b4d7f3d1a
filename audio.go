package towel

type (
	// AudioBuffer is a buffer of stereo audio samples of variable length, each
	// sample represented by [2]float32. [0] is left channel, [1] is right.
	AudioBuffer [][2]float32

	// RenderFunc renders exactly len(buf) frames into buf. It is called from
	// the real-time audio goroutine and must not block or allocate.
	RenderFunc func(buf AudioBuffer)

	// AudioContext is an output device that pulls audio from a RenderFunc.
	AudioContext interface {
		Play(render RenderFunc) CloseWaiter
		SampleRate() float64
		Close() error
	}

	// CloseWaiter stops playback started with AudioContext.Play.
	CloseWaiter interface {
		Close() error
	}
)

// Clear zeroes every frame of the buffer.
func (b AudioBuffer) Clear() {
	for i := range b {
		b[i] = [2]float32{}
	}
}

// Fill renders the buffer by calling render once with the whole buffer.
func (b AudioBuffer) Fill(render RenderFunc) {
	if len(b) > 0 {
		render(b)
	}
}
