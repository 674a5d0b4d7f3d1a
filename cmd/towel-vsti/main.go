//go:build plugin

package main

import (
	"context"
	"log"

	"github.com/towel808/towel"
	"github.com/towel808/towel/catalog"
	"github.com/towel808/towel/cmd"
	"github.com/towel808/towel/control"
	"github.com/towel808/towel/decode"
	"github.com/towel808/towel/engine"
	"github.com/towel808/towel/gomidi"
	"gitlab.com/gomidi/midi/v2"
	"pipelined.dev/audio/vst2"
)

const (
	PLUGIN_ID   = 0x54573038 // "TW08"
	PLUGIN_NAME = "Towel 808"
)

func init() {
	var (
		version = int32(100)
	)
	vst2.PluginAllocator = func(h vst2.Host) (vst2.Plugin, vst2.Dispatcher) {
		config := cmd.LoadConfig()
		if config.YmlError != nil {
			log.Printf("ignoring user config: %v", config.YmlError)
		}
		e := engine.New(config.Polyphony)
		e.Prepare(float64(config.SampleRate))
		hostRate := func() float64 {
			if h.GetSampleRate == nil {
				return 0
			}
			return float64(h.GetSampleRate())
		}
		cmd.FollowSampleRate(e, hostRate())
		controller := control.New(e, decode.File{}, catalog.Dir{Path: config.SampleDir()}, config.Options())
		controller.SetParams(config.Envelope)
		if err := controller.Refresh(); err != nil {
			log.Print(err)
		}
		ctx, cancel := context.WithCancel(context.Background())
		go controller.Run(ctx)
		loadDefault := func() {
			if controller.CurrentSample() != "" {
				return
			}
			if names := controller.SampleNames(); len(names) > 0 {
				controller.RequestLoadSample(names[0])
			}
		}
		loadDefault()
		buf := make(towel.AudioBuffer, 1024)
		events := make([]towel.MIDIEvent, 0, 1024)
		return vst2.Plugin{
				UniqueID:       PLUGIN_ID,
				Version:        version,
				InputChannels:  0,
				OutputChannels: 2,
				Name:           PLUGIN_NAME,
				Vendor:         "towel808",
				Category:       vst2.PluginCategorySynth,
				Flags:          vst2.PluginIsSynth,
				ProcessFloatFunc: func(in, out vst2.FloatBuffer) {
					left := out.Channel(0)
					right := out.Channel(1)
					if len(buf) < out.Frames {
						buf = append(buf, make(towel.AudioBuffer, out.Frames-len(buf))...)
					}
					buf = buf[:out.Frames]
					cmd.FollowSampleRate(e, hostRate())
					e.RenderBlock(buf, events)
					for i := 0; i < out.Frames; i++ {
						left[i], right[i] = buf[i][0], buf[i][1]
					}
					events = events[:0] // reset buffer, but keep the allocated memory
				},
			}, vst2.Dispatcher{
				CanDoFunc: func(pcds vst2.PluginCanDoString) vst2.CanDoResponse {
					switch pcds {
					case vst2.PluginCanReceiveEvents, vst2.PluginCanReceiveMIDIEvent:
						return vst2.YesCanDo
					}
					return vst2.NoCanDo
				},
				ProcessEventsFunc: func(ev *vst2.EventsPtr) {
					for i := 0; i < ev.NumEvents(); i++ {
						a := ev.Event(i)
						switch v := a.(type) {
						case *vst2.MIDIEvent:
							if event, ok := gomidi.Event(midi.Message(v.Data[:]), int(v.DeltaFrames)); ok {
								events = append(events, event)
							}
						}
					}
				},
				CloseFunc: func() {
					cancel()
				},
				GetChunkFunc: func(isPreset bool) []byte {
					b, err := controller.MarshalState()
					if err != nil {
						log.Print(err)
					}
					return b
				},
				SetChunkFunc: func(data []byte, isPreset bool) {
					if err := controller.UnmarshalState(data); err != nil {
						log.Print(err)
					}
					loadDefault()
				},
			}
	}
}

func main() {}
