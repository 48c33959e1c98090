//go:build !ios && !android && (amd64 || arm64)

package fftranscode

import (
	"fmt"
	"unsafe"

	"github.com/obinnaokechukwu/fftranscode/avutil"
	"github.com/obinnaokechukwu/fftranscode/swresample"
)

// Samples is a block of PCM audio in FFmpeg-allocated plane buffers.
type Samples struct {
	planes unsafe.Pointer
	count  int
	format AudioFormat
}

func allocSamples(format AudioFormat, capacity int) (*Samples, error) {
	if capacity <= 0 {
		return &Samples{format: format}, nil
	}
	planes, _, err := avutil.SamplesAlloc(int32(format.Channels), int32(capacity), format.SampleFormat)
	if err != nil {
		return nil, err
	}
	return &Samples{planes: planes, format: format}, nil
}

// Count returns the number of samples per channel.
func (s *Samples) Count() int {
	if s == nil {
		return 0
	}
	return s.count
}

// Format returns the layout of the samples.
func (s *Samples) Format() AudioFormat {
	if s == nil {
		return AudioFormat{}
	}
	return s.format
}

// Bytes returns a view of plane i. The slice is invalid after Close.
func (s *Samples) Bytes(i int) []byte {
	if s == nil || s.planes == nil || s.count == 0 || i < 0 || i >= s.format.Planes() {
		return nil
	}
	return unsafe.Slice((*byte)(avutil.SamplePlane(s.planes, i)), s.format.PlaneSize(s.count))
}

// Close frees the sample buffers. Safe to call more than once.
func (s *Samples) Close() error {
	if s == nil || s.planes == nil {
		return nil
	}
	avutil.SamplesFree(s.planes)
	s.planes = nil
	s.count = 0
	return nil
}

// Resampler converts decoded frames to the encoder's sample rate, channel
// layout and sample format in one pass.
type Resampler struct {
	ctx        swresample.SwrContext
	in, out    AudioFormat
	configured bool
	closed     bool
}

// NewResampler returns an unconfigured resampler.
func NewResampler() *Resampler {
	return &Resampler{}
}

// Configure sets the input and output formats. It may be called once;
// a second call panics with ErrResamplerConfigured.
func (r *Resampler) Configure(in, out AudioFormat) error {
	if r.configured {
		panic(ErrResamplerConfigured)
	}
	if r.closed {
		return ErrClosed
	}
	if err := in.Validate(); err != nil {
		return &ResampleError{Err: fmt.Errorf("input: %w", err)}
	}
	if err := out.Validate(); err != nil {
		return &ResampleError{Err: fmt.Errorf("output: %w", err)}
	}

	inLayout, err := in.newChannelLayout()
	if err != nil {
		return &ResampleError{Err: err}
	}
	defer avutil.ChannelLayoutFree(inLayout)
	outLayout, err := out.newChannelLayout()
	if err != nil {
		return &ResampleError{Err: err}
	}
	defer avutil.ChannelLayoutFree(outLayout)

	if err := swresample.AllocSetOpts2(&r.ctx,
		outLayout, out.SampleFormat, int32(out.SampleRate),
		inLayout, in.SampleFormat, int32(in.SampleRate)); err != nil {
		return &ResampleError{Err: err}
	}
	if err := swresample.InitContext(r.ctx); err != nil {
		swresample.Free(&r.ctx)
		return &ResampleError{Err: err}
	}

	r.in, r.out = in, out
	r.configured = true
	return nil
}

// InputFormat returns the configured input format.
func (r *Resampler) InputFormat() AudioFormat { return r.in }

// OutputFormat returns the configured output format.
func (r *Resampler) OutputFormat() AudioFormat { return r.out }

// Convert resamples one frame. The output may hold more or fewer samples
// than the input; part of the input can stay in the delay line until a
// later Convert or Flush.
func (r *Resampler) Convert(frame *Frame) (*Samples, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	if frame == nil || frame.ptr == nil {
		return nil, &ResampleError{Err: fmt.Errorf("nil frame")}
	}
	// swr_convert reads as many planes as it was configured with, so a
	// layout or rate change mid-stream must stop here.
	got := frame.AudioFormat()
	switch {
	case got.SampleFormat != r.in.SampleFormat:
		return nil, &ResampleError{Err: fmt.Errorf("frame format %s, configured for %s", got.SampleFormat, r.in.SampleFormat)}
	case got.Channels != r.in.Channels:
		return nil, &ResampleError{Err: fmt.Errorf("frame has %d channels, configured for %d", got.Channels, r.in.Channels)}
	case got.SampleRate != r.in.SampleRate:
		return nil, &ResampleError{Err: fmt.Errorf("frame rate %d Hz, configured for %d Hz", got.SampleRate, r.in.SampleRate)}
	}
	return r.convert(frame.dataArray(), frame.NumSamples())
}

// Flush drains the samples buffered in the delay line.
func (r *Resampler) Flush() (*Samples, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	return r.convert(nil, 0)
}

func (r *Resampler) convert(in unsafe.Pointer, inCount int) (*Samples, error) {
	maxOut, err := swresample.GetOutSamples(r.ctx, int32(inCount))
	if err != nil {
		return nil, &ResampleError{Err: err}
	}
	s, err := allocSamples(r.out, maxOut)
	if err != nil {
		return nil, &ResampleError{Err: err}
	}
	if maxOut == 0 {
		return s, nil
	}
	n, err := swresample.Convert(r.ctx, s.planes, int32(maxOut), in, int32(inCount))
	if err != nil {
		s.Close()
		return nil, &ResampleError{Err: err}
	}
	s.count = n
	return s, nil
}

// Delay returns the number of output samples buffered in the delay line.
func (r *Resampler) Delay() int64 {
	if !r.configured || r.closed {
		return 0
	}
	return swresample.GetDelay(r.ctx, int64(r.out.SampleRate))
}

func (r *Resampler) ready() error {
	if r.closed {
		return ErrClosed
	}
	if !r.configured {
		return &ResampleError{Err: ErrResamplerNotConfigured}
	}
	return nil
}

// Close frees the resampling context. Safe to call more than once.
func (r *Resampler) Close() error {
	if r == nil || r.closed {
		return nil
	}
	r.closed = true
	swresample.Free(&r.ctx)
	return nil
}
