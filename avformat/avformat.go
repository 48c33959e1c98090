//go:build !ios && !android && (amd64 || arm64)

// Package avformat provides bindings to FFmpeg's libavformat library.
// It includes container demuxing, muxing, and file I/O.
package avformat

import (
	"runtime"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/obinnaokechukwu/fftranscode/avcodec"
	"github.com/obinnaokechukwu/fftranscode/avutil"
	"github.com/obinnaokechukwu/fftranscode/internal/bindings"
)

// FormatContext is an opaque FFmpeg AVFormatContext pointer.
type FormatContext = unsafe.Pointer

// OutputFormat is an opaque FFmpeg AVOutputFormat pointer.
type OutputFormat = unsafe.Pointer

// Stream is an opaque FFmpeg AVStream pointer.
type Stream = unsafe.Pointer

// IOContext is an opaque FFmpeg AVIOContext pointer.
type IOContext = unsafe.Pointer

// Function bindings
var (
	avformatOpenInput       func(ctx *unsafe.Pointer, url string, fmt, options unsafe.Pointer) int32
	avformatCloseInput      func(ctx *unsafe.Pointer)
	avformatFindStreamInfo  func(ctx unsafe.Pointer, options unsafe.Pointer) int32
	avformatFreeContext     func(ctx unsafe.Pointer)
	avformatAllocOutputCtx2 func(ctx *unsafe.Pointer, oformat unsafe.Pointer, formatName, filename *byte) int32
	avformatNewStream       func(ctx, codec unsafe.Pointer) unsafe.Pointer
	avformatWriteHeader     func(ctx unsafe.Pointer, options unsafe.Pointer) int32
	avWriteTrailer          func(ctx unsafe.Pointer) int32
	avGuessFormat           func(shortName, filename, mimeType *byte) unsafe.Pointer

	avReadFrame             func(ctx, pkt unsafe.Pointer) int32
	avInterleavedWriteFrame func(ctx, pkt unsafe.Pointer) int32

	avFindBestStream func(ctx unsafe.Pointer, mediaType, wanted, related int32, decoder unsafe.Pointer, flags int32) int32

	avFmtCtxGetDurationEstimationMethod func(ctx unsafe.Pointer) int32

	avioOpen   func(ctx *unsafe.Pointer, url string, flags int32) int32
	avioClosep func(ctx *unsafe.Pointer) int32

	bindingsRegistered bool
)

func init() {
	registerBindings()
}

func registerBindings() {
	if bindingsRegistered {
		return
	}

	if err := bindings.Load(); err != nil {
		return
	}

	lib := bindings.LibAVFormat()
	if lib == 0 {
		return
	}

	purego.RegisterLibFunc(&avformatOpenInput, lib, "avformat_open_input")
	purego.RegisterLibFunc(&avformatCloseInput, lib, "avformat_close_input")
	purego.RegisterLibFunc(&avformatFindStreamInfo, lib, "avformat_find_stream_info")
	purego.RegisterLibFunc(&avformatFreeContext, lib, "avformat_free_context")
	purego.RegisterLibFunc(&avformatAllocOutputCtx2, lib, "avformat_alloc_output_context2")
	purego.RegisterLibFunc(&avformatNewStream, lib, "avformat_new_stream")
	purego.RegisterLibFunc(&avformatWriteHeader, lib, "avformat_write_header")
	purego.RegisterLibFunc(&avWriteTrailer, lib, "av_write_trailer")
	purego.RegisterLibFunc(&avGuessFormat, lib, "av_guess_format")

	purego.RegisterLibFunc(&avReadFrame, lib, "av_read_frame")
	purego.RegisterLibFunc(&avInterleavedWriteFrame, lib, "av_interleaved_write_frame")

	purego.RegisterLibFunc(&avFindBestStream, lib, "av_find_best_stream")
	purego.RegisterLibFunc(&avFmtCtxGetDurationEstimationMethod, lib, "av_fmt_ctx_get_duration_estimation_method")

	purego.RegisterLibFunc(&avioOpen, lib, "avio_open")
	purego.RegisterLibFunc(&avioClosep, lib, "avio_closep")

	bindingsRegistered = true
}

// cStringOrNil returns a NUL-terminated copy of s, or nil for "".
// avformat_alloc_output_context2 treats NULL and "" differently.
func cStringOrNil(s string) *byte {
	if s == "" {
		return nil
	}
	b := append([]byte(s), 0)
	return &b[0]
}

// FreeContext frees an AVFormatContext allocated for output.
func FreeContext(ctx FormatContext) {
	if ctx == nil || avformatFreeContext == nil {
		return
	}
	avformatFreeContext(ctx)
}

// OpenInput opens an input file and probes its container.
func OpenInput(ctx *FormatContext, url string) error {
	if avformatOpenInput == nil {
		return bindings.ErrNotLoaded
	}
	ret := avformatOpenInput(ctx, url, nil, nil)
	runtime.KeepAlive(url)
	if ret < 0 {
		return avutil.NewError(ret, "avformat_open_input")
	}
	return nil
}

// CloseInput closes an input file and frees the context.
func CloseInput(ctx *FormatContext) {
	if ctx == nil || *ctx == nil || avformatCloseInput == nil {
		return
	}
	avformatCloseInput(ctx)
	*ctx = nil
}

// FindStreamInfo reads packets to fill in stream parameters.
func FindStreamInfo(ctx FormatContext) error {
	if avformatFindStreamInfo == nil {
		return bindings.ErrNotLoaded
	}
	ret := avformatFindStreamInfo(ctx, nil)
	if ret < 0 {
		return avutil.NewError(ret, "avformat_find_stream_info")
	}
	return nil
}

// AllocOutputContext2 allocates an output context. The muxer is chosen by
// formatName when set, otherwise guessed from filename.
func AllocOutputContext2(ctx *FormatContext, formatName, filename string) error {
	if avformatAllocOutputCtx2 == nil {
		return bindings.ErrNotLoaded
	}
	name := cStringOrNil(formatName)
	file := cStringOrNil(filename)
	ret := avformatAllocOutputCtx2(ctx, nil, name, file)
	runtime.KeepAlive(name)
	runtime.KeepAlive(file)
	if ret < 0 {
		return avutil.NewError(ret, "avformat_alloc_output_context2")
	}
	return nil
}

// GuessFormat returns the muxer FFmpeg would pick for filename, or nil.
func GuessFormat(filename string) OutputFormat {
	if avGuessFormat == nil {
		return nil
	}
	file := cStringOrNil(filename)
	f := avGuessFormat(nil, file, nil)
	runtime.KeepAlive(file)
	return f
}

// NewStream creates a new stream in the format context.
func NewStream(ctx FormatContext, codec avcodec.Codec) Stream {
	if avformatNewStream == nil {
		return nil
	}
	return avformatNewStream(ctx, codec)
}

// WriteHeader writes the container header.
func WriteHeader(ctx FormatContext) error {
	if avformatWriteHeader == nil {
		return bindings.ErrNotLoaded
	}
	ret := avformatWriteHeader(ctx, nil)
	if ret < 0 {
		return avutil.NewError(ret, "avformat_write_header")
	}
	return nil
}

// WriteTrailer writes the container trailer and flushes buffered packets.
func WriteTrailer(ctx FormatContext) error {
	if avWriteTrailer == nil {
		return bindings.ErrNotLoaded
	}
	ret := avWriteTrailer(ctx)
	if ret < 0 {
		return avutil.NewError(ret, "av_write_trailer")
	}
	return nil
}

// ReadFrame reads the next packet of any stream.
func ReadFrame(ctx FormatContext, pkt avcodec.Packet) error {
	if avReadFrame == nil {
		return bindings.ErrNotLoaded
	}
	ret := avReadFrame(ctx, pkt)
	if ret < 0 {
		return avutil.NewError(ret, "av_read_frame")
	}
	return nil
}

// InterleavedWriteFrame hands a packet to the muxer, which takes ownership
// of its payload.
func InterleavedWriteFrame(ctx FormatContext, pkt avcodec.Packet) error {
	if avInterleavedWriteFrame == nil {
		return bindings.ErrNotLoaded
	}
	ret := avInterleavedWriteFrame(ctx, pkt)
	runtime.KeepAlive(pkt)
	if ret < 0 {
		return avutil.NewError(ret, "av_interleaved_write_frame")
	}
	return nil
}

// FindBestStream returns the index of the stream the demuxer considers the
// primary one of the given type, or a negative AVERROR.
func FindBestStream(ctx FormatContext, mediaType avutil.MediaType) int32 {
	if avFindBestStream == nil {
		return avutil.AVERROR_STREAM_NOT_FOUND
	}
	return avFindBestStream(ctx, int32(mediaType), -1, -1, nil, 0)
}

// Duration estimation methods (enum AVDurationEstimationMethod)
const (
	DurationFromPTS     = 0
	DurationFromStream  = 1
	DurationFromBitrate = 2
)

// GetDurationEstimationMethod reports how the container duration was derived.
func GetDurationEstimationMethod(ctx FormatContext) int32 {
	if ctx == nil || avFmtCtxGetDurationEstimationMethod == nil {
		return DurationFromPTS
	}
	return avFmtCtxGetDurationEstimationMethod(ctx)
}

// IOOpen opens an I/O context for url.
func IOOpen(ctx *IOContext, url string, flags int32) error {
	if avioOpen == nil {
		return bindings.ErrNotLoaded
	}
	ret := avioOpen(ctx, url, flags)
	runtime.KeepAlive(url)
	if ret < 0 {
		return avutil.NewError(ret, "avio_open")
	}
	return nil
}

// IOCloseP closes an I/O context and sets the pointer to nil.
func IOCloseP(ctx *IOContext) error {
	if ctx == nil || *ctx == nil || avioClosep == nil {
		return nil
	}
	ret := avioClosep(ctx)
	*ctx = nil
	if ret < 0 {
		return avutil.NewError(ret, "avio_closep")
	}
	return nil
}

// AVIO flags
const (
	IOFlagRead  = 1
	IOFlagWrite = 2
)
