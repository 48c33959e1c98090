//go:build !ios && !android && (amd64 || arm64)

// Package avutil provides bindings to FFmpeg's libavutil library.
// It covers audio frames, memory, channel layouts, sample buffers, the
// audio FIFO, AVOptions, logging and error handling.
package avutil

import (
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/obinnaokechukwu/fftranscode/internal/bindings"
)

// Frame is an opaque FFmpeg AVFrame pointer.
type Frame = unsafe.Pointer

// Function bindings - registered when init() is called
var (
	avFrameAlloc     func() unsafe.Pointer
	avFrameFree      func(frame *unsafe.Pointer)
	avFrameGetBuffer func(frame unsafe.Pointer, align int32) int32

	avMalloc func(size uintptr) unsafe.Pointer
	avFree   func(ptr unsafe.Pointer)
	avFreep  func(ptr unsafe.Pointer)

	avStrerror func(errnum int32, errbuf unsafe.Pointer, errbufSize uintptr) int32

	// Channel layout functions (FFmpeg 5.1+)
	avChannelLayoutDefault func(chLayout unsafe.Pointer, nbChannels int32)
	avChannelLayoutCopy    func(dst, src unsafe.Pointer) int32
	avChannelLayoutUninit  func(chLayout unsafe.Pointer)
	avChannelLayoutDescr   func(chLayout unsafe.Pointer, buf unsafe.Pointer, bufSize uintptr) int32

	bindingsRegistered bool
)

func init() {
	registerBindings()
}

func registerBindings() {
	if bindingsRegistered {
		return
	}

	// Ensure FFmpeg is loaded
	if err := bindings.Load(); err != nil {
		return // Will fail later when functions are called
	}

	lib := bindings.LibAVUtil()
	if lib == 0 {
		return
	}

	purego.RegisterLibFunc(&avFrameAlloc, lib, "av_frame_alloc")
	purego.RegisterLibFunc(&avFrameFree, lib, "av_frame_free")
	purego.RegisterLibFunc(&avFrameGetBuffer, lib, "av_frame_get_buffer")

	purego.RegisterLibFunc(&avMalloc, lib, "av_malloc")
	purego.RegisterLibFunc(&avFree, lib, "av_free")
	purego.RegisterLibFunc(&avFreep, lib, "av_freep")

	purego.RegisterLibFunc(&avStrerror, lib, "av_strerror")

	purego.RegisterLibFunc(&avChannelLayoutDefault, lib, "av_channel_layout_default")
	purego.RegisterLibFunc(&avChannelLayoutCopy, lib, "av_channel_layout_copy")
	purego.RegisterLibFunc(&avChannelLayoutUninit, lib, "av_channel_layout_uninit")
	purego.RegisterLibFunc(&avChannelLayoutDescr, lib, "av_channel_layout_describe")

	registerSampleBindings(lib)
	registerFIFOBindings(lib)
	registerOptBindings(lib)
	registerLogBindings(lib)

	bindingsRegistered = true
}

// FrameAlloc allocates an AVFrame and returns a pointer to it.
// The returned frame must be freed with FrameFree when no longer needed.
func FrameAlloc() Frame {
	if avFrameAlloc == nil {
		return nil
	}
	return avFrameAlloc()
}

// FrameFree frees an AVFrame and sets the pointer to nil.
// Safe to call with nil pointer.
func FrameFree(frame *Frame) {
	if frame == nil || *frame == nil || avFrameFree == nil {
		return
	}
	// Stage the pointer in FFmpeg memory so foreign code never writes into
	// the Go stack.
	tmp := Malloc(unsafe.Sizeof(uintptr(0)))
	if tmp != nil {
		*(*unsafe.Pointer)(tmp) = *frame
		avFrameFree((*unsafe.Pointer)(tmp))
		Free(tmp)
		*frame = nil
		return
	}
	avFrameFree(frame)
	*frame = nil
}

// FrameGetBuffer allocates sample buffers for an audio frame. The frame must
// have format, nb_samples and ch_layout set.
func FrameGetBuffer(frame Frame, align int32) error {
	if avFrameGetBuffer == nil {
		return bindings.ErrNotLoaded
	}
	ret := avFrameGetBuffer(frame, align)
	if ret < 0 {
		return NewError(ret, "av_frame_get_buffer")
	}
	return nil
}

// NoPTSValue is the value used to indicate no PTS.
const NoPTSValue int64 = -9223372036854775808 // 0x8000000000000000

// AVFrame struct field offsets (FFmpeg 6.x / avutil 58.x).
const (
	offsetData         = 0   // uint8_t *data[8]
	offsetLinesize     = 64  // int linesize[8]
	offsetExtendedData = 96  // uint8_t **extended_data
	offsetNbSamples    = 112 // int nb_samples
	offsetFormat       = 116 // int format
	offsetPts          = 136 // int64_t pts
	offsetSampleRate   = 216 // int sample_rate
	offsetChLayout     = 456 // AVChannelLayout ch_layout
)

// GetFrameFormat returns the sample format of an audio frame.
func GetFrameFormat(frame Frame) int32 {
	if frame == nil {
		return -1
	}
	return *(*int32)(unsafe.Add(frame, offsetFormat))
}

// SetFrameFormat sets the sample format of an audio frame.
func SetFrameFormat(frame Frame, format int32) {
	if frame == nil {
		return
	}
	*(*int32)(unsafe.Add(frame, offsetFormat)) = format
}

// GetFramePTS returns the presentation timestamp.
func GetFramePTS(frame Frame) int64 {
	if frame == nil {
		return NoPTSValue
	}
	return *(*int64)(unsafe.Add(frame, offsetPts))
}

// SetFramePTS sets the presentation timestamp.
func SetFramePTS(frame Frame, pts int64) {
	if frame == nil {
		return
	}
	*(*int64)(unsafe.Add(frame, offsetPts)) = pts
}

// GetFrameNbSamples returns the number of audio samples per channel.
func GetFrameNbSamples(frame Frame) int32 {
	if frame == nil {
		return 0
	}
	return *(*int32)(unsafe.Add(frame, offsetNbSamples))
}

// SetFrameNbSamples sets the number of audio samples per channel.
func SetFrameNbSamples(frame Frame, nbSamples int32) {
	if frame == nil {
		return
	}
	*(*int32)(unsafe.Add(frame, offsetNbSamples)) = nbSamples
}

// GetFrameSampleRate returns the audio sample rate.
func GetFrameSampleRate(frame Frame) int32 {
	if frame == nil {
		return 0
	}
	return *(*int32)(unsafe.Add(frame, offsetSampleRate))
}

// SetFrameSampleRate sets the audio sample rate.
func SetFrameSampleRate(frame Frame, sampleRate int32) {
	if frame == nil {
		return
	}
	*(*int32)(unsafe.Add(frame, offsetSampleRate)) = sampleRate
}

// GetFrameChLayoutPtr returns a pointer to the frame's embedded AVChannelLayout.
func GetFrameChLayoutPtr(frame Frame) unsafe.Pointer {
	if frame == nil {
		return nil
	}
	return unsafe.Add(frame, offsetChLayout)
}

// GetFrameChannels returns the number of audio channels.
func GetFrameChannels(frame Frame) int32 {
	if frame == nil {
		return 0
	}
	return ChannelLayoutNbChannels(GetFrameChLayoutPtr(frame))
}

// GetFrameDataPlane returns the data pointer for a given plane. Audio
// planes are read through extended_data, which holds every channel of a
// planar frame even beyond data[8]. The caller bounds plane by the
// frame's plane count.
func GetFrameDataPlane(frame Frame, plane int) unsafe.Pointer {
	planes := GetFrameDataArray(frame)
	if planes == nil || plane < 0 {
		return nil
	}
	return *(*unsafe.Pointer)(unsafe.Add(planes, uintptr(plane)*unsafe.Sizeof(uintptr(0))))
}

// GetFrameDataArray returns the frame's extended_data, suitable for FFmpeg
// functions taking uint8_t ** sample planes. It points at data[] for
// frames with at most eight planes.
func GetFrameDataArray(frame Frame) unsafe.Pointer {
	if frame == nil {
		return nil
	}
	return *(*unsafe.Pointer)(unsafe.Add(frame, offsetExtendedData))
}

// GetFrameLinesizePlane returns the linesize for a given plane.
func GetFrameLinesizePlane(frame Frame, plane int) int32 {
	if frame == nil || plane < 0 || plane >= 8 {
		return 0
	}
	linesizeArray := (*[8]int32)(unsafe.Add(frame, offsetLinesize))
	return linesizeArray[plane]
}

// Malloc allocates memory using FFmpeg's allocator.
func Malloc(size uintptr) unsafe.Pointer {
	if avMalloc == nil {
		return nil
	}
	return avMalloc(size)
}

// Free frees memory allocated by Malloc.
func Free(ptr unsafe.Pointer) {
	if ptr == nil || avFree == nil {
		return
	}
	avFree(ptr)
}

// ErrorString returns a human-readable error message for an FFmpeg error code.
func ErrorString(errnum int32) string {
	if avStrerror == nil {
		return "unknown error (FFmpeg not loaded)"
	}

	buf := make([]byte, 256)
	avStrerror(errnum, unsafe.Pointer(&buf[0]), 256)
	return cString(buf)
}

func cString(buf []byte) string {
	for i, b := range buf {
		if b == 0 {
			return string(buf[:i])
		}
	}
	return string(buf)
}
