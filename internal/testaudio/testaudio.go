// Package testaudio writes deterministic PCM fixtures for tests.
package testaudio

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Tone describes a sine wave fixture.
type Tone struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Frequency  float64
	Duration   time.Duration
	// Amplitude is relative to full scale, 0 means 0.5.
	Amplitude float64
}

// DefaultTone is five seconds of 440 Hz stereo at 44.1 kHz, 16-bit.
var DefaultTone = Tone{
	SampleRate: 44100,
	Channels:   2,
	BitDepth:   16,
	Frequency:  440,
	Duration:   5 * time.Second,
}

// wavFormatPCM is the WAVE_FORMAT_PCM tag.
const wavFormatPCM = 1

// Frames returns the number of samples per channel the tone spans.
func (t Tone) Frames() int {
	return int(int64(t.SampleRate) * int64(t.Duration) / int64(time.Second))
}

func (t Tone) validate() error {
	var errs []error
	if t.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("sample rate must be positive, got %d", t.SampleRate))
	}
	if t.Channels <= 0 {
		errs = append(errs, fmt.Errorf("channels must be positive, got %d", t.Channels))
	}
	switch t.BitDepth {
	case 8, 16, 24, 32:
	default:
		errs = append(errs, fmt.Errorf("unsupported bit depth %d", t.BitDepth))
	}
	if t.Duration <= 0 {
		errs = append(errs, errors.New("duration must be positive"))
	}
	return errors.Join(errs...)
}

// Buffer renders the tone as interleaved integer PCM.
func (t Tone) Buffer() *audio.IntBuffer {
	amp := t.Amplitude
	if amp <= 0 {
		amp = 0.5
	}
	peak := float64(int64(1)<<(t.BitDepth-1) - 1)
	frames := t.Frames()
	data := make([]int, frames*t.Channels)
	for i := 0; i < frames; i++ {
		v := int(math.Round(amp * peak * math.Sin(2*math.Pi*t.Frequency*float64(i)/float64(t.SampleRate))))
		if t.BitDepth == 8 {
			v += 128
		}
		for c := 0; c < t.Channels; c++ {
			data[i*t.Channels+c] = v
		}
	}
	return &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: t.Channels, SampleRate: t.SampleRate},
		Data:           data,
		SourceBitDepth: t.BitDepth,
	}
}

// WriteWAV writes the tone to path as a PCM WAV file.
func WriteWAV(path string, t Tone) error {
	if err := t.validate(); err != nil {
		return fmt.Errorf("testaudio: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("testaudio: %w", err)
	}
	enc := wav.NewEncoder(f, t.SampleRate, t.BitDepth, t.Channels, wavFormatPCM)
	if err := enc.Write(t.Buffer()); err != nil {
		f.Close()
		return fmt.Errorf("testaudio: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return fmt.Errorf("testaudio: finalize: %w", err)
	}
	return f.Close()
}

// ReadWAV decodes a PCM WAV file.
func ReadWAV(path string) (*audio.IntBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("testaudio: %w", err)
	}
	defer f.Close()
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("testaudio: %s is not a valid wav file", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("testaudio: decode: %w", err)
	}
	return buf, nil
}

// Corrupt overwrites n bytes at offset with garbage.
func Corrupt(path string, offset int64, n int) error {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("testaudio: %w", err)
	}
	junk := make([]byte, n)
	for i := range junk {
		junk[i] = byte(0xA5 ^ i)
	}
	if _, err := f.WriteAt(junk, offset); err != nil {
		f.Close()
		return fmt.Errorf("testaudio: %w", err)
	}
	return f.Close()
}
