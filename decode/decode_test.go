package decode_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/towel808/towel"
	"github.com/towel808/towel/decode"
)

var stereo = []int{0, 0, 16384, -16384, -32768, 32767, 8192, 0}

func intBuffer(numChannels, rate int, data []int) *audio.IntBuffer {
	return &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: numChannels, SampleRate: rate},
		Data:           data,
		SourceBitDepth: 16,
	}
}

func writeWav(t *testing.T, name string, numChannels, rate int, data []int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("cannot create fixture: %v", err)
	}
	defer f.Close()
	enc := wav.NewEncoder(f, rate, 16, numChannels, 1)
	if err := enc.Write(intBuffer(numChannels, rate, data)); err != nil {
		t.Fatalf("cannot write fixture: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("cannot close encoder: %v", err)
	}
	return path
}

func writeAiff(t *testing.T, name string, numChannels, rate int, data []int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("cannot create fixture: %v", err)
	}
	defer f.Close()
	enc := aiff.NewEncoder(f, rate, 16, numChannels)
	if err := enc.Write(intBuffer(numChannels, rate, data)); err != nil {
		t.Fatalf("cannot write fixture: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("cannot close encoder: %v", err)
	}
	return path
}

func checkStereo(t *testing.T, pcm towel.PCM, rate float64) {
	t.Helper()
	if len(pcm.Channels) != 2 || pcm.Frames() != 4 || pcm.SampleRate != rate {
		t.Fatalf("expected 2 channels of 4 frames at %v Hz, got %d channels of %d at %v", rate, len(pcm.Channels), pcm.Frames(), pcm.SampleRate)
	}
	want := [2][]float32{{0, 0.5, -1, 0.25}, {0, -0.5, 32767.0 / 32768, 0}}
	for c := range want {
		for i, w := range want[c] {
			if got := pcm.Channels[c][i]; got != w {
				t.Fatalf("channel %d frame %d: got %v, want %v", c, i, got, w)
			}
		}
	}
}

func TestDecodeWav(t *testing.T) {
	path := writeWav(t, "808.wav", 2, 48000, stereo)
	pcm, err := decode.File{}.Decode(path)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	checkStereo(t, pcm, 48000)
}

func TestDecodeAiff(t *testing.T) {
	path := writeAiff(t, "808.aiff", 2, 44100, stereo)
	pcm, err := decode.File{}.Decode(path)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	checkStereo(t, pcm, 44100)
}

func TestDecodeMono(t *testing.T) {
	path := writeWav(t, "MONO.WAV", 1, 22050, []int{16384, 16384, -16384})
	pcm, err := decode.File{}.Decode(path)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(pcm.Channels) != 1 || pcm.Frames() != 3 || pcm.Channels[0][2] != -0.5 {
		t.Fatalf("unexpected mono decode result %v", pcm.Channels)
	}
}

func TestDecodeErrors(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.wav")
	if err := os.WriteFile(garbage, []byte("this is not a riff file at all"), 0o644); err != nil {
		t.Fatalf("cannot write fixture: %v", err)
	}
	testCases := []struct {
		name string
		path string
		want error
	}{
		{"missing file", filepath.Join(dir, "missing.wav"), os.ErrNotExist},
		{"garbage", garbage, decode.ErrInvalidFile},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := decode.File{}.Decode(tc.path)
			var decodeErr *towel.DecodeError
			if !errors.As(err, &decodeErr) {
				t.Fatalf("expected a DecodeError, got %v", err)
			}
			if decodeErr.Name != filepath.Base(tc.path) || !errors.Is(err, tc.want) {
				t.Fatalf("unexpected error %v", err)
			}
		})
	}
}

// waveFile builds a mono 16-bit-framed wave file by hand. Extensible files
// carry subFormat as the leading code of their sub-format GUID.
func waveFile(format, subFormat, bits uint16, samples []int16) []byte {
	var fmtChunk bytes.Buffer
	blockAlign := bits / 8
	binary.Write(&fmtChunk, binary.LittleEndian, struct {
		Format, Channels     uint16
		SampleRate, ByteRate uint32
		BlockAlign, Bits     uint16
	}{format, 1, 44100, 44100 * uint32(blockAlign), blockAlign, bits})
	if format == 0xFFFE {
		binary.Write(&fmtChunk, binary.LittleEndian, struct {
			Ext, Valid  uint16
			ChannelMask uint32
			SubFormat   uint16
			GUID        [14]byte
		}{22, bits, 4, subFormat, [14]byte{0, 0, 0, 0, 0x10, 0, 0x80, 0, 0, 0xAA, 0, 0x38, 0x9B, 0x71}})
	}
	var data bytes.Buffer
	for _, v := range samples {
		if bits == 32 {
			binary.Write(&data, binary.LittleEndian, int32(v)<<16)
		} else {
			binary.Write(&data, binary.LittleEndian, v)
		}
	}
	var b bytes.Buffer
	b.WriteString("RIFF")
	binary.Write(&b, binary.LittleEndian, uint32(4+8+fmtChunk.Len()+8+data.Len()))
	b.WriteString("WAVEfmt ")
	binary.Write(&b, binary.LittleEndian, uint32(fmtChunk.Len()))
	b.Write(fmtChunk.Bytes())
	b.WriteString("data")
	binary.Write(&b, binary.LittleEndian, uint32(data.Len()))
	b.Write(data.Bytes())
	return b.Bytes()
}

func TestDecodeWavFormats(t *testing.T) {
	samples := []int16{16384, -16384, 0, 0}
	testCases := []struct {
		name      string
		format    uint16
		subFormat uint16
		bits      uint16
		want      error
	}{
		{"pcm", 1, 0, 16, nil},
		{"extensible pcm", 0xFFFE, 1, 16, nil},
		{"float", 3, 0, 32, decode.ErrUnsupported},
		{"extensible float", 0xFFFE, 3, 32, decode.ErrUnsupported},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := bytes.NewReader(waveFile(tc.format, tc.subFormat, tc.bits, samples))
			pcm, err := decode.Reader(r, ".wav")
			if tc.want != nil {
				if !errors.Is(err, tc.want) {
					t.Fatalf("expected %v, got %v", tc.want, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Reader failed: %v", err)
			}
			if len(pcm.Channels) != 1 || pcm.Frames() != 4 || pcm.Channels[0][0] != 0.5 || pcm.Channels[0][1] != -0.5 {
				t.Fatalf("unexpected decode result %v", pcm.Channels)
			}
		})
	}
}

func TestReaderRejectsUnknownExtension(t *testing.T) {
	_, err := decode.Reader(strings.NewReader("ID3"), ".mp3")
	if !errors.Is(err, decode.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}
