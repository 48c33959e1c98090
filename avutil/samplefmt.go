//go:build !ios && !android && (amd64 || arm64)

package avutil

import (
	"runtime"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/obinnaokechukwu/fftranscode/internal/bindings"
)

// MediaType represents FFmpeg media types.
type MediaType int32

const (
	MediaTypeUnknown    MediaType = -1
	MediaTypeVideo      MediaType = 0
	MediaTypeAudio      MediaType = 1
	MediaTypeData       MediaType = 2
	MediaTypeSubtitle   MediaType = 3
	MediaTypeAttachment MediaType = 4
)

// SampleFormat represents FFmpeg audio sample formats.
type SampleFormat int32

const (
	SampleFormatNone SampleFormat = -1
	SampleFormatU8   SampleFormat = 0  // Unsigned 8-bit
	SampleFormatS16  SampleFormat = 1  // Signed 16-bit
	SampleFormatS32  SampleFormat = 2  // Signed 32-bit
	SampleFormatFlt  SampleFormat = 3  // Float 32-bit
	SampleFormatDbl  SampleFormat = 4  // Float 64-bit
	SampleFormatU8P  SampleFormat = 5  // Unsigned 8-bit planar
	SampleFormatS16P SampleFormat = 6  // Signed 16-bit planar
	SampleFormatS32P SampleFormat = 7  // Signed 32-bit planar
	SampleFormatFltP SampleFormat = 8  // Float 32-bit planar
	SampleFormatDblP SampleFormat = 9  // Float 64-bit planar
	SampleFormatS64  SampleFormat = 10 // Signed 64-bit
	SampleFormatS64P SampleFormat = 11 // Signed 64-bit planar
)

var sampleFormatNames = map[SampleFormat]string{
	SampleFormatU8:   "u8",
	SampleFormatS16:  "s16",
	SampleFormatS32:  "s32",
	SampleFormatFlt:  "flt",
	SampleFormatDbl:  "dbl",
	SampleFormatU8P:  "u8p",
	SampleFormatS16P: "s16p",
	SampleFormatS32P: "s32p",
	SampleFormatFltP: "fltp",
	SampleFormatDblP: "dblp",
	SampleFormatS64:  "s64",
	SampleFormatS64P: "s64p",
}

// String returns FFmpeg's short name for the format.
func (f SampleFormat) String() string {
	if name, ok := sampleFormatNames[f]; ok {
		return name
	}
	return "none"
}

// BytesPerSample returns the size of one sample of one channel.
// It does not need the FFmpeg libraries.
func (f SampleFormat) BytesPerSample() int {
	switch f {
	case SampleFormatU8, SampleFormatU8P:
		return 1
	case SampleFormatS16, SampleFormatS16P:
		return 2
	case SampleFormatS32, SampleFormatS32P, SampleFormatFlt, SampleFormatFltP:
		return 4
	case SampleFormatDbl, SampleFormatDblP, SampleFormatS64, SampleFormatS64P:
		return 8
	default:
		return 0
	}
}

// IsPlanar reports whether each channel is stored in its own plane.
func (f SampleFormat) IsPlanar() bool {
	switch f {
	case SampleFormatU8P, SampleFormatS16P, SampleFormatS32P,
		SampleFormatFltP, SampleFormatDblP, SampleFormatS64P:
		return true
	}
	return false
}

var (
	avSamplesAlloc         func(audioData unsafe.Pointer, linesize *int32, nbChannels, nbSamples, sampleFmt, align int32) int32
	avSamplesGetBufferSize func(linesize *int32, nbChannels, nbSamples, sampleFmt, align int32) int32
	avSamplesSetSilence    func(audioData unsafe.Pointer, offset, nbSamples, nbChannels, sampleFmt int32) int32
)

func registerSampleBindings(lib uintptr) {
	purego.RegisterLibFunc(&avSamplesAlloc, lib, "av_samples_alloc")
	purego.RegisterLibFunc(&avSamplesGetBufferSize, lib, "av_samples_get_buffer_size")
	purego.RegisterLibFunc(&avSamplesSetSilence, lib, "av_samples_set_silence")
}

// MaxChannels is the largest channel count libswresample accepts
// (SWR_CH_MAX).
const MaxChannels = 64

// minPlanePointers matches the size of AVFrame.data, so arrays for small
// layouts can be indexed like a frame's data[].
const minPlanePointers = 8

// SamplesAlloc allocates a plane-pointer array plus one contiguous sample
// buffer for nbSamples of the given layout. Free it with SamplesFree.
func SamplesAlloc(nbChannels, nbSamples int32, format SampleFormat) (unsafe.Pointer, int32, error) {
	if avSamplesAlloc == nil {
		return nil, 0, bindings.ErrNotLoaded
	}
	n := max(int(nbChannels), minPlanePointers)
	planes := Malloc(uintptr(n) * unsafe.Sizeof(uintptr(0)))
	if planes == nil {
		return nil, 0, NewError(AVERROR_ENOMEM, "av_malloc")
	}
	clear(unsafe.Slice((*unsafe.Pointer)(planes), n))

	linesize := (*int32)(Malloc(unsafe.Sizeof(int32(0))))
	if linesize == nil {
		Free(planes)
		return nil, 0, NewError(AVERROR_ENOMEM, "av_malloc")
	}
	defer Free(unsafe.Pointer(linesize))

	ret := avSamplesAlloc(planes, linesize, nbChannels, nbSamples, int32(format), 0)
	if ret < 0 {
		Free(planes)
		return nil, 0, NewError(ret, "av_samples_alloc")
	}
	return planes, *linesize, nil
}

// SamplesFree releases a buffer returned by SamplesAlloc.
func SamplesFree(planes unsafe.Pointer) {
	if planes == nil {
		return
	}
	// av_samples_alloc places every plane in one block owned by planes[0].
	first := (*unsafe.Pointer)(planes)
	Free(*first)
	*first = nil
	Free(planes)
}

// SamplePlane returns plane i of a plane-pointer array. Arrays from
// SamplesAlloc hold at least eight pointers and one per channel.
func SamplePlane(planes unsafe.Pointer, i int) unsafe.Pointer {
	if planes == nil || i < 0 {
		return nil
	}
	return *(*unsafe.Pointer)(unsafe.Add(planes, uintptr(i)*unsafe.Sizeof(uintptr(0))))
}

// SamplesBufferSize returns the number of bytes needed for nbSamples.
func SamplesBufferSize(nbChannels, nbSamples int32, format SampleFormat) (int, error) {
	if avSamplesGetBufferSize == nil {
		return 0, bindings.ErrNotLoaded
	}
	ret := avSamplesGetBufferSize(nil, nbChannels, nbSamples, int32(format), 1)
	if ret < 0 {
		return 0, NewError(ret, "av_samples_get_buffer_size")
	}
	return int(ret), nil
}

// SamplesSetSilence fills nbSamples starting at offset with silence.
func SamplesSetSilence(planes unsafe.Pointer, offset, nbSamples, nbChannels int32, format SampleFormat) error {
	if avSamplesSetSilence == nil {
		return bindings.ErrNotLoaded
	}
	ret := avSamplesSetSilence(planes, offset, nbSamples, nbChannels, int32(format))
	runtime.KeepAlive(planes)
	if ret < 0 {
		return NewError(ret, "av_samples_set_silence")
	}
	return nil
}
