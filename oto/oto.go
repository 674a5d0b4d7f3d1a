package oto

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/towel808/towel"
)

type (
	// Context is the system audio output. It implements towel.AudioContext.
	// Only one Context can exist per process.
	Context struct {
		ctx        *oto.Context
		sampleRate int
	}

	// Player pulls stereo float32 audio from a render function whenever the
	// output needs more.
	Player struct {
		player *oto.Player
		render towel.RenderFunc
		buffer towel.AudioBuffer
		closed atomic.Bool
	}
)

const otoBufferSize = 20 * time.Millisecond

var _ towel.AudioContext = (*Context)(nil)

// NewContext creates and initializes the output at the given sample rate.
func NewContext(sampleRate int) (*Context, error) {
	context, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   otoBufferSize,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot create oto context: %w", err)
	}
	<-ready
	return &Context{ctx: context, sampleRate: sampleRate}, nil
}

func (c *Context) SampleRate() float64 { return float64(c.sampleRate) }

// Play starts pulling audio from render. render is called on oto's audio
// goroutine.
func (c *Context) Play(render towel.RenderFunc) towel.CloseWaiter {
	p := &Player{render: render, buffer: make(towel.AudioBuffer, c.sampleRate/10)}
	p.player = c.ctx.NewPlayer(p)
	p.player.Play()
	return p
}

// Close suspends the output; oto contexts cannot be destroyed.
func (c *Context) Close() error {
	if err := c.ctx.Suspend(); err != nil {
		return fmt.Errorf("cannot suspend oto context: %w", err)
	}
	return nil
}

// Read implements io.Reader for oto, rendering as many whole frames as fit
// in b.
func (p *Player) Read(b []byte) (int, error) {
	frames := len(b) / bytesPerFrame
	if frames > len(p.buffer) {
		p.buffer = make(towel.AudioBuffer, frames)
	}
	buf := p.buffer[:frames]
	if p.closed.Load() {
		buf.Clear()
	} else {
		buf.Fill(p.render)
	}
	return PutFloat32LE(b, buf), nil
}

// Close stops playback and disposes of resources.
func (p *Player) Close() error {
	p.closed.Store(true)
	if err := p.player.Close(); err != nil {
		return fmt.Errorf("cannot close oto player: %w", err)
	}
	return nil
}
