//go:build !ios && !android && (amd64 || arm64)

package fftranscode

import (
	"errors"
	"fmt"
	"math/bits"
	"unsafe"

	"github.com/obinnaokechukwu/fftranscode/avutil"
)

// AudioFormat describes PCM audio at one point of the pipeline.
type AudioFormat struct {
	SampleRate    int           // e.g., 44100, 48000
	Channels      int           // e.g., 1, 2, 6
	ChannelLayout ChannelLayout // 0 means the default layout for Channels
	SampleFormat  SampleFormat  // e.g., SampleFormatS16, SampleFormatFltP
}

// Validate checks that every field is usable by FFmpeg.
func (f AudioFormat) Validate() error {
	var errs []error
	if f.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("sample rate %d", f.SampleRate))
	}
	if f.Channels <= 0 || f.Channels > avutil.MaxChannels {
		errs = append(errs, fmt.Errorf("channel count %d", f.Channels))
	}
	if f.ChannelLayout != 0 && f.ChannelLayout.NumChannels() != f.Channels {
		errs = append(errs, fmt.Errorf("layout %s has %d channels, want %d",
			f.ChannelLayout, f.ChannelLayout.NumChannels(), f.Channels))
	}
	if f.SampleFormat.BytesPerSample() == 0 {
		errs = append(errs, fmt.Errorf("sample format %d", f.SampleFormat))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidFormat, errors.Join(errs...))
}

// Layout returns ChannelLayout, or the default layout for Channels.
func (f AudioFormat) Layout() ChannelLayout {
	if f.ChannelLayout != 0 {
		return f.ChannelLayout
	}
	return defaultChannelLayout(f.Channels)
}

// Planes returns the number of data planes a buffer of this format uses.
func (f AudioFormat) Planes() int {
	if f.SampleFormat.IsPlanar() {
		return f.Channels
	}
	return 1
}

// PlaneSize returns the byte length of one plane holding n samples.
func (f AudioFormat) PlaneSize(n int) int {
	size := n * f.SampleFormat.BytesPerSample()
	if !f.SampleFormat.IsPlanar() {
		size *= f.Channels
	}
	return size
}

func (f AudioFormat) String() string {
	return fmt.Sprintf("%dHz %s %s", f.SampleRate, f.Layout(), f.SampleFormat)
}

// newChannelLayout allocates an AVChannelLayout for f. Release it with
// avutil.ChannelLayoutFree.
func (f AudioFormat) newChannelLayout() (unsafe.Pointer, error) {
	layout := avutil.ChannelLayoutAlloc()
	if layout == nil {
		return nil, ErrOutOfMemory
	}
	if mask := uint64(f.ChannelLayout); mask != 0 && bits.OnesCount64(mask) == f.Channels {
		avutil.ChannelLayoutFromMask(layout, int32(f.Channels), mask)
	} else {
		avutil.ChannelLayoutDefault(layout, int32(f.Channels))
	}
	return layout, nil
}

// ChannelLayout is a native-order channel mask (AV_CH_LAYOUT_*).
type ChannelLayout uint64

const (
	ChannelLayoutMono        ChannelLayout = 0x4   // AV_CH_LAYOUT_MONO
	ChannelLayoutStereo      ChannelLayout = 0x3   // AV_CH_LAYOUT_STEREO
	ChannelLayout2Point1     ChannelLayout = 0xB   // AV_CH_LAYOUT_2POINT1
	ChannelLayoutSurround    ChannelLayout = 0x7   // AV_CH_LAYOUT_SURROUND
	ChannelLayoutQuad        ChannelLayout = 0x33  // AV_CH_LAYOUT_QUAD
	ChannelLayout5Point0     ChannelLayout = 0x607 // AV_CH_LAYOUT_5POINT0
	ChannelLayout5Point1     ChannelLayout = 0x60F // AV_CH_LAYOUT_5POINT1
	ChannelLayout6Point1     ChannelLayout = 0x70F // AV_CH_LAYOUT_6POINT1
	ChannelLayout7Point1     ChannelLayout = 0x63F // AV_CH_LAYOUT_7POINT1
	ChannelLayout7Point1Wide ChannelLayout = 0xFF  // AV_CH_LAYOUT_7POINT1_WIDE
)

// defaultChannelLayout mirrors av_channel_layout_default for common counts.
func defaultChannelLayout(channels int) ChannelLayout {
	switch channels {
	case 1:
		return ChannelLayoutMono
	case 2:
		return ChannelLayoutStereo
	case 3:
		return ChannelLayoutSurround
	case 4:
		return ChannelLayoutQuad
	case 5:
		return ChannelLayout5Point0
	case 6:
		return ChannelLayout5Point1
	case 7:
		return ChannelLayout6Point1
	case 8:
		return ChannelLayout7Point1
	default:
		return 0
	}
}

// String returns the name of the channel layout
func (cl ChannelLayout) String() string {
	switch cl {
	case 0:
		return "unspecified"
	case ChannelLayoutMono:
		return "mono"
	case ChannelLayoutStereo:
		return "stereo"
	case ChannelLayout2Point1:
		return "2.1"
	case ChannelLayoutSurround:
		return "3.0"
	case ChannelLayoutQuad:
		return "quad"
	case ChannelLayout5Point0:
		return "5.0(side)"
	case ChannelLayout5Point1:
		return "5.1(side)"
	case ChannelLayout6Point1:
		return "6.1"
	case ChannelLayout7Point1:
		return "7.1"
	case ChannelLayout7Point1Wide:
		return "7.1(wide)"
	default:
		return fmt.Sprintf("0x%x", uint64(cl))
	}
}

// NumChannels returns the number of channels in this layout
func (cl ChannelLayout) NumChannels() int {
	return bits.OnesCount64(uint64(cl))
}
