// Package audio converts between the float sample slices used by the DSP
// pipeline, raw PCM16LE byte buffers from the wire, and WAV containers.
package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const DefaultSampleRate = 16000

// DecodeWAVFile reads a WAV file and returns mono float64 samples in
// [-1, 1] plus the sample rate. Multi-channel input is downmixed by
// averaging channels.
func DecodeWAVFile(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open wav %s: %w", path, err)
	}
	defer f.Close()
	return DecodeWAV(f)
}

// DecodeWAV reads a WAV stream and returns mono float64 samples and the
// sample rate.
func DecodeWAV(r io.ReadSeeker) ([]float64, int, error) {
	dec := wav.NewDecoder(r)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decode wav: %w", err)
	}
	if buf.Format == nil || buf.Format.NumChannels <= 0 {
		return nil, 0, fmt.Errorf("decode wav: missing format")
	}

	channels := buf.Format.NumChannels
	rate := buf.Format.SampleRate
	scale := 1.0
	if dec.BitDepth > 0 {
		scale = float64(int(1) << (dec.BitDepth - 1))
	}

	frames := len(buf.Data) / channels
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[i*channels+c])
		}
		samples[i] = sum / float64(channels) / scale
	}
	return samples, rate, nil
}

// EncodeWAV wraps mono float64 samples in a 16-bit PCM WAV container.
func EncodeWAV(samples []float64, sampleRate int) ([]byte, error) {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}

	// wav.Encoder needs a WriteSeeker to patch chunk sizes on Close.
	tmp, err := os.CreateTemp("", "meowform-*.wav")
	if err != nil {
		return nil, fmt.Errorf("encode wav: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if err := WriteWAV(tmp, samples, sampleRate); err != nil {
		return nil, err
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("encode wav: %w", err)
	}
	return io.ReadAll(tmp)
}

// WriteWAVFile writes mono float64 samples to path as 16-bit PCM WAV.
func WriteWAVFile(path string, samples []float64, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write wav %s: %w", path, err)
	}
	defer f.Close()
	return WriteWAV(f, samples, sampleRate)
}

// WriteWAV encodes mono float64 samples as 16-bit PCM WAV to out.
func WriteWAV(out io.WriteSeeker, samples []float64, sampleRate int) error {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	buf := &gaudio.IntBuffer{
		Format:         &gaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		SourceBitDepth: 16,
		Data:           make([]int, len(samples)),
	}
	for i, s := range samples {
		buf.Data[i] = int(clampPCM16(s))
	}

	enc := wav.NewEncoder(out, sampleRate, 16, 1, 1)
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close wav encoder: %w", err)
	}
	return nil
}

// WritePCM16WAV writes a raw PCM16LE mono byte buffer to out as WAV.
func WritePCM16WAV(out io.WriteSeeker, pcm []byte, sampleRate int) error {
	if len(pcm)%2 != 0 {
		return fmt.Errorf("pcm payload not aligned")
	}
	return WriteWAV(out, PCM16ToFloat(pcm), sampleRate)
}

// PCM16ToFloat converts a PCM16LE byte buffer to float64 samples in [-1, 1).
// A trailing odd byte is dropped.
func PCM16ToFloat(pcm []byte) []float64 {
	n := len(pcm) / 2
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = float64(int16(binary.LittleEndian.Uint16(pcm[i*2:]))) / 32768
	}
	return out
}

// FloatToPCM16 converts float64 samples to a PCM16LE byte buffer, clamping
// out-of-range values.
func FloatToPCM16(samples []float64) []byte {
	var buf bytes.Buffer
	buf.Grow(len(samples) * 2)
	for _, s := range samples {
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], uint16(clampPCM16(s)))
		buf.Write(b[:])
	}
	return buf.Bytes()
}

func clampPCM16(s float64) int16 {
	v := s * 32767
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}
