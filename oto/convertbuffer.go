package oto

import (
	"encoding/binary"
	"math"

	"github.com/towel808/towel"
)

const bytesPerFrame = 8

// PutFloat32LE writes buf into dst as interleaved 32-bit little-endian
// floats and returns the number of bytes written. dst must hold 8 bytes per
// frame.
func PutFloat32LE(dst []byte, buf towel.AudioBuffer) int {
	for i, frame := range buf {
		binary.LittleEndian.PutUint32(dst[i*bytesPerFrame:], math.Float32bits(frame[0]))
		binary.LittleEndian.PutUint32(dst[i*bytesPerFrame+4:], math.Float32bits(frame[1]))
	}
	return len(buf) * bytesPerFrame
}
