// Package decode turns WAV and AIFF sample files into planar float PCM.
package decode

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"
	"github.com/go-audio/riff"
	"github.com/go-audio/wav"
	"github.com/towel808/towel"
)

// File decodes sample files from the local file system, picking the
// container by the file extension. It implements towel.Decoder.
type File struct{}

var (
	ErrUnsupported = errors.New("unsupported audio format")
	ErrInvalidFile = errors.New("not a valid audio file")
)

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE

	// bytes of an extensible fmt chunk up to the format code at the start
	// of the sub-format GUID
	extensibleFmtSize = 26
)

// Extensions lists the file extensions Reader understands.
var Extensions = []string{".wav", ".wave", ".aif", ".aiff", ".aifc"}

// Decode reads the whole file at path. Errors are returned as
// *towel.DecodeError named after the file.
func (File) Decode(path string) (towel.PCM, error) {
	name := filepath.Base(path)
	f, err := os.Open(path)
	if err != nil {
		return towel.PCM{}, &towel.DecodeError{Name: name, Err: err}
	}
	defer f.Close()
	pcm, err := Reader(f, filepath.Ext(path))
	if err != nil {
		return towel.PCM{}, &towel.DecodeError{Name: name, Err: err}
	}
	return pcm, nil
}

// Reader decodes an entire stream. ext is the file extension (with the dot)
// naming the container.
func Reader(r io.ReadSeeker, ext string) (towel.PCM, error) {
	switch strings.ToLower(ext) {
	case ".wav", ".wave":
		return decodeWav(r)
	case ".aif", ".aiff", ".aifc":
		return decodeAiff(r)
	}
	return towel.PCM{}, fmt.Errorf("%w: %q", ErrUnsupported, ext)
}

func decodeWav(r io.ReadSeeker) (towel.PCM, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return towel.PCM{}, fmt.Errorf("wav: %w", ErrInvalidFile)
	}
	if d.WavAudioFormat != wavFormatPCM && d.WavAudioFormat != wavFormatExtensible {
		return towel.PCM{}, fmt.Errorf("wav: %w: format tag %d", ErrUnsupported, d.WavAudioFormat)
	}
	if d.WavAudioFormat == wavFormatExtensible {
		sub, err := wavSubFormat(r)
		if err != nil {
			return towel.PCM{}, fmt.Errorf("wav: %w: %v", ErrInvalidFile, err)
		}
		if sub != wavFormatPCM {
			return towel.PCM{}, fmt.Errorf("wav: %w: sub-format %d", ErrUnsupported, sub)
		}
		d = wav.NewDecoder(r)
		if !d.IsValidFile() {
			return towel.PCM{}, fmt.Errorf("wav: %w", ErrInvalidFile)
		}
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return towel.PCM{}, fmt.Errorf("wav: cannot read samples: %w", err)
	}
	// 8-bit wave data is unsigned
	offset := 0
	if d.BitDepth == 8 {
		offset = 128
	}
	return planar(buf, int(d.BitDepth), offset)
}

// wavSubFormat reads the format code from the sub-format GUID of an
// extensible fmt chunk. r is left at the start of the stream.
func wavSubFormat(r io.ReadSeeker) (uint16, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	defer r.Seek(0, io.SeekStart)
	p := riff.New(r)
	if err := p.ParseHeaders(); err != nil {
		return 0, err
	}
	for {
		ch, err := p.NextChunk()
		if err != nil {
			return 0, err
		}
		if ch.ID != riff.FmtID {
			ch.Drain()
			continue
		}
		if ch.Size < extensibleFmtSize {
			return 0, fmt.Errorf("fmt chunk of %d bytes", ch.Size)
		}
		var header struct {
			Format, Channels             uint16
			SampleRate, ByteRate         uint32
			BlockAlign, Bits, Ext, Valid uint16
			ChannelMask                  uint32
			SubFormat                    uint16
		}
		if err := ch.ReadLE(&header); err != nil {
			return 0, err
		}
		return header.SubFormat, nil
	}
}

func decodeAiff(r io.ReadSeeker) (towel.PCM, error) {
	d := aiff.NewDecoder(r)
	if !d.IsValidFile() {
		return towel.PCM{}, fmt.Errorf("aiff: %w", ErrInvalidFile)
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return towel.PCM{}, fmt.Errorf("aiff: cannot read samples: %w", err)
	}
	return planar(buf, int(d.BitDepth), 0)
}

// planar de-interleaves integer samples into float channels scaled by
// 2^(bitDepth-1).
func planar(buf *audio.IntBuffer, bitDepth, offset int) (towel.PCM, error) {
	if buf == nil || buf.Format == nil || buf.Format.NumChannels <= 0 {
		return towel.PCM{}, towel.ErrNoChannels
	}
	if bitDepth <= 0 || bitDepth > 32 {
		return towel.PCM{}, fmt.Errorf("%w: %d-bit samples", ErrUnsupported, bitDepth)
	}
	numChannels := buf.Format.NumChannels
	frames := len(buf.Data) / numChannels
	scale := 1 / float64(int64(1)<<(bitDepth-1))
	pcm := towel.PCM{
		Channels:   make([][]float32, numChannels),
		SampleRate: float64(buf.Format.SampleRate),
	}
	for c := range pcm.Channels {
		ch := make([]float32, frames)
		for i := range ch {
			ch[i] = float32(float64(buf.Data[i*numChannels+c]-offset) * scale)
		}
		pcm.Channels[c] = ch
	}
	return pcm, nil
}
