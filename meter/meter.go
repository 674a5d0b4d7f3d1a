// Package meter measures the level of rendered audio blocks.
package meter

import (
	"math"

	"github.com/towel808/towel"
	"github.com/viterin/vek/vek32"
)

type (
	// Levels are the per-channel peak and RMS amplitudes of a block.
	Levels struct {
		Peak [2]float32
		RMS  [2]float32
	}

	// Decibel is a level relative to full scale.
	Decibel float32

	// Meter measures blocks reusing its scratch buffers, so that after the
	// first block of a given size it does not allocate.
	Meter struct {
		tmp  []float32
		tmp2 []float32
	}
)

// Silence is reported for a level of zero.
const Silence Decibel = -120

// Measure is a convenience wrapper for a one-off measurement.
func Measure(buf towel.AudioBuffer) Levels {
	var m Meter
	return m.Measure(buf)
}

func (m *Meter) Measure(buf towel.AudioBuffer) (ret Levels) {
	if len(buf) == 0 {
		return ret
	}
	setSliceLength(&m.tmp, len(buf))
	setSliceLength(&m.tmp2, len(buf))
	for chn := range 2 {
		// deinterleave the channels
		for i := range buf {
			m.tmp[i] = buf[i][chn]
		}
		power := vek32.Mean(vek32.Mul_Into(m.tmp2, m.tmp, m.tmp))
		ret.RMS[chn] = float32(math.Sqrt(float64(power)))
		vek32.Abs_Inplace(m.tmp)
		ret.Peak[chn] = vek32.Max(m.tmp)
	}
	return ret
}

// Max merges two measurements, keeping the higher level of each.
func (l Levels) Max(other Levels) Levels {
	for chn := range 2 {
		l.Peak[chn] = max(l.Peak[chn], other.Peak[chn])
		l.RMS[chn] = max(l.RMS[chn], other.RMS[chn])
	}
	return l
}

// ToDecibel converts an amplitude to dBFS.
func ToDecibel(amplitude float32) Decibel {
	if !(amplitude > 0) {
		return Silence
	}
	return max(Silence, Decibel(20*math.Log10(float64(amplitude))))
}

func setSliceLength[T any](slice *[]T, length int) {
	if len(*slice) < length {
		*slice = append(*slice, make([]T, length-len(*slice))...)
	}
	*slice = (*slice)[:length]
}
