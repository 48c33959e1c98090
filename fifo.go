//go:build !ios && !android && (amd64 || arm64)

package fftranscode

import (
	"fmt"
	"unsafe"

	"github.com/obinnaokechukwu/fftranscode/avutil"
)

// SampleFIFO buffers whole samples between the resampler and the encoder,
// which usually work in different block sizes. It grows on demand and
// never returns more samples than it holds.
type SampleFIFO struct {
	fifo   avutil.AudioFifo
	format AudioFormat
	closed bool
}

// NewSampleFIFO allocates a FIFO for the given sample format and channel
// count with room for initialCapacity samples.
func NewSampleFIFO(format SampleFormat, channels, initialCapacity int) (*SampleFIFO, error) {
	if initialCapacity <= 0 {
		initialCapacity = 1
	}
	f := &SampleFIFO{format: AudioFormat{Channels: channels, SampleFormat: format}}
	if format.BytesPerSample() == 0 || channels <= 0 || channels > avutil.MaxChannels {
		return nil, fmt.Errorf("%w: %d channels of %s", ErrInvalidFormat, channels, format)
	}
	fifo, err := avutil.AudioFifoAlloc(format, int32(channels), int32(initialCapacity))
	if err != nil {
		return nil, err
	}
	f.fifo = fifo
	return f, nil
}

// Size returns the number of samples per channel currently buffered.
func (f *SampleFIFO) Size() int {
	if f.closed {
		return 0
	}
	return avutil.AudioFifoSize(f.fifo)
}

// Space returns the number of samples that fit without reallocating.
func (f *SampleFIFO) Space() int {
	if f.closed {
		return 0
	}
	return avutil.AudioFifoSpace(f.fifo)
}

func (f *SampleFIFO) checkFormat(format SampleFormat, channels int) error {
	if format != f.format.SampleFormat || channels != f.format.Channels {
		return fmt.Errorf("%w: got %d channels of %s, FIFO holds %d channels of %s",
			ErrInvalidFormat, channels, format, f.format.Channels, f.format.SampleFormat)
	}
	return nil
}

func (f *SampleFIFO) write(planes unsafe.Pointer, n int) error {
	if n == 0 {
		return nil
	}
	written, err := avutil.AudioFifoWrite(f.fifo, planes, int32(n))
	if err != nil {
		return err
	}
	if written != n {
		return fmt.Errorf("fftranscode: short FIFO write: %d of %d samples", written, n)
	}
	return nil
}

// Write appends resampled samples.
func (f *SampleFIFO) Write(s *Samples) error {
	if f.closed {
		return ErrClosed
	}
	if s.Count() == 0 {
		return nil
	}
	if err := f.checkFormat(s.format.SampleFormat, s.format.Channels); err != nil {
		return err
	}
	return f.write(s.planes, s.count)
}

// WriteFrame appends the samples of a decoded frame.
func (f *SampleFIFO) WriteFrame(frame *Frame) error {
	if f.closed {
		return ErrClosed
	}
	if frame.NumSamples() == 0 {
		return nil
	}
	if err := f.checkFormat(frame.Format(), frame.Channels()); err != nil {
		return err
	}
	return f.write(frame.dataArray(), frame.NumSamples())
}

// WritePlanes appends n samples given as Go byte slices, one per plane.
// Each plane must hold exactly n samples; partial samples are rejected
// with ErrPartialSample.
func (f *SampleFIFO) WritePlanes(planes [][]byte, n int) error {
	if f.closed {
		return ErrClosed
	}
	if len(planes) != f.format.Planes() {
		return fmt.Errorf("fftranscode: got %d planes, want %d", len(planes), f.format.Planes())
	}
	want := f.format.PlaneSize(n)
	for i, p := range planes {
		if len(p) != want {
			return fmt.Errorf("%w: plane %d has %d bytes, want %d", ErrPartialSample, i, len(p), want)
		}
	}
	if n == 0 {
		return nil
	}

	// FFmpeg may not keep pointers into Go memory; stage through av_malloc.
	s, err := allocSamples(f.format, n)
	if err != nil {
		return err
	}
	defer s.Close()
	s.count = n
	for i, p := range planes {
		copy(s.Bytes(i), p)
	}
	return f.write(s.planes, n)
}

// Read removes up to max samples. The result holds min(max, Size())
// samples and may be empty.
func (f *SampleFIFO) Read(max int) (*Samples, error) {
	if f.closed {
		return nil, ErrClosed
	}
	n := min(max, f.Size())
	if n <= 0 {
		return &Samples{format: f.format}, nil
	}
	s, err := allocSamples(f.format, n)
	if err != nil {
		return nil, err
	}
	read, err := avutil.AudioFifoRead(f.fifo, s.planes, int32(n))
	if err != nil {
		s.Close()
		return nil, err
	}
	s.count = read
	return s, nil
}

// ReadFrame removes up to max samples into a new frame at sampleRate,
// ready for an encoder. It returns nil when the FIFO is empty.
func (f *SampleFIFO) ReadFrame(max, sampleRate int) (*Frame, error) {
	if f.closed {
		return nil, ErrClosed
	}
	n := min(max, f.Size())
	if n <= 0 {
		return nil, nil
	}
	format := f.format
	format.SampleRate = sampleRate
	frame, err := allocAudioFrame(format, n)
	if err != nil {
		return nil, err
	}
	read, err := avutil.AudioFifoRead(f.fifo, frame.dataArray(), int32(n))
	if err != nil {
		frame.Close()
		return nil, err
	}
	avutil.SetFrameNbSamples(frame.ptr, int32(read))
	return frame, nil
}

// ReadPlanes removes up to max samples and copies them into Go memory.
func (f *SampleFIFO) ReadPlanes(max int) ([][]byte, int, error) {
	s, err := f.Read(max)
	if err != nil {
		return nil, 0, err
	}
	defer s.Close()
	planes := make([][]byte, f.format.Planes())
	for i := range planes {
		planes[i] = append([]byte(nil), s.Bytes(i)...)
		if planes[i] == nil {
			planes[i] = []byte{}
		}
	}
	return planes, s.Count(), nil
}

// Close frees the FIFO. Safe to call more than once.
func (f *SampleFIFO) Close() error {
	if f == nil || f.closed {
		return nil
	}
	f.closed = true
	avutil.AudioFifoFree(&f.fifo)
	return nil
}
