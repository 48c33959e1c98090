//go:build !ios && !android && (amd64 || arm64)

package avformat

import (
	"unsafe"

	"github.com/obinnaokechukwu/fftranscode/avcodec"
	"github.com/obinnaokechukwu/fftranscode/avutil"
)

// AVFormatContext struct field offsets (FFmpeg 6.x / avformat 60.x)
const (
	offsetIformat    = 8  // const AVInputFormat *iformat
	offsetOformat    = 16 // const AVOutputFormat *oformat
	offsetIOContext  = 32 // AVIOContext *pb
	offsetNumStreams = 44 // unsigned int nb_streams
	offsetStreams    = 48 // AVStream **streams
	offsetDuration   = 72 // int64_t duration
	offsetBitRate    = 80 // int64_t bit_rate
)

// GetNumStreams returns the number of streams in the context.
func GetNumStreams(ctx FormatContext) int {
	if ctx == nil {
		return 0
	}
	return int(*(*uint32)(unsafe.Add(ctx, offsetNumStreams)))
}

// GetStream returns the stream at the given index.
func GetStream(ctx FormatContext, index int) Stream {
	if ctx == nil || index < 0 || index >= GetNumStreams(ctx) {
		return nil
	}
	streams := *(*unsafe.Pointer)(unsafe.Add(ctx, offsetStreams))
	if streams == nil {
		return nil
	}
	return *(*unsafe.Pointer)(unsafe.Add(streams, uintptr(index)*unsafe.Sizeof(uintptr(0))))
}

// GetDuration returns the container duration in AV_TIME_BASE units, or
// avutil.NoPTSValue when unknown.
func GetDuration(ctx FormatContext) int64 {
	if ctx == nil {
		return avutil.NoPTSValue
	}
	return *(*int64)(unsafe.Add(ctx, offsetDuration))
}

// GetBitRate returns the container bit rate, 0 if unknown.
func GetBitRate(ctx FormatContext) int64 {
	if ctx == nil {
		return 0
	}
	return *(*int64)(unsafe.Add(ctx, offsetBitRate))
}

// SetIOContext attaches an opened I/O context to an output context.
func SetIOContext(ctx FormatContext, pb IOContext) {
	if ctx == nil {
		return
	}
	*(*unsafe.Pointer)(unsafe.Add(ctx, offsetIOContext)) = pb
}

// GetInputFormatName returns the demuxer short name ("wav", "ogg").
func GetInputFormatName(ctx FormatContext) string {
	if ctx == nil {
		return ""
	}
	iformat := *(*unsafe.Pointer)(unsafe.Add(ctx, offsetIformat))
	return formatName(iformat)
}

// GetOutputFormat returns the output format from a format context.
func GetOutputFormat(ctx FormatContext) OutputFormat {
	if ctx == nil {
		return nil
	}
	return *(*unsafe.Pointer)(unsafe.Add(ctx, offsetOformat))
}

// AVInputFormat and AVOutputFormat both start with const char *name.
func formatName(f unsafe.Pointer) string {
	if f == nil {
		return ""
	}
	return cString(*(*unsafe.Pointer)(f))
}

// GetOutputFormatName returns the muxer short name ("ogg", "adts").
func GetOutputFormatName(oformat OutputFormat) string {
	return formatName(oformat)
}

// AVOutputFormat field offsets (for FFmpeg 6.x)
const (
	offsetOutputFormatAudioCodec = 32 // enum AVCodecID audio_codec
	offsetOutputFormatFlags      = 44 // int flags
)

// Output format flag constants
const (
	AVFMT_NOFILE       = 0x0001 // No file, can be custom I/O
	AVFMT_GLOBALHEADER = 0x0040 // Format wants global header
)

// GetOutputFormatFlags returns the flags from an output format.
func GetOutputFormatFlags(oformat OutputFormat) int32 {
	if oformat == nil {
		return 0
	}
	return *(*int32)(unsafe.Add(oformat, offsetOutputFormatFlags))
}

// GetOutputFormatAudioCodec returns the muxer's default audio codec.
func GetOutputFormatAudioCodec(oformat OutputFormat) avcodec.CodecID {
	if oformat == nil {
		return avcodec.CodecIDNone
	}
	return avcodec.CodecID(*(*int32)(unsafe.Add(oformat, offsetOutputFormatAudioCodec)))
}

// NeedsGlobalHeader returns true if the output format needs global header.
func NeedsGlobalHeader(ctx FormatContext) bool {
	return GetOutputFormatFlags(GetOutputFormat(ctx))&AVFMT_GLOBALHEADER != 0
}

// HasNoFile returns true if the output format doesn't write to a file.
func HasNoFile(ctx FormatContext) bool {
	return GetOutputFormatFlags(GetOutputFormat(ctx))&AVFMT_NOFILE != 0
}

// AVStream struct field offsets (FFmpeg 6.x / avformat 60.x)
const (
	offsetStreamIndex    = 8  // int index
	offsetStreamCodecPar = 16 // AVCodecParameters *codecpar
	offsetStreamTimeBase = 32 // AVRational time_base
	offsetStreamDuration = 48 // int64_t duration
)

// GetStreamIndex returns the stream index.
func GetStreamIndex(stream Stream) int32 {
	if stream == nil {
		return -1
	}
	return *(*int32)(unsafe.Add(stream, offsetStreamIndex))
}

// GetStreamCodecPar returns the codec parameters for the stream.
func GetStreamCodecPar(stream Stream) avcodec.Parameters {
	if stream == nil {
		return nil
	}
	return *(*unsafe.Pointer)(unsafe.Add(stream, offsetStreamCodecPar))
}

// GetStreamTimeBase returns the time base for a stream.
func GetStreamTimeBase(stream Stream) avutil.Rational {
	if stream == nil {
		return avutil.Rational{}
	}
	num := *(*int32)(unsafe.Add(stream, offsetStreamTimeBase))
	den := *(*int32)(unsafe.Add(stream, offsetStreamTimeBase+4))
	return avutil.NewRational(num, den)
}

// SetStreamTimeBase sets the time base hint for a stream. Muxers may
// replace it in WriteHeader.
func SetStreamTimeBase(stream Stream, tb avutil.Rational) {
	if stream == nil {
		return
	}
	*(*int32)(unsafe.Add(stream, offsetStreamTimeBase)) = tb.Num
	*(*int32)(unsafe.Add(stream, offsetStreamTimeBase+4)) = tb.Den
}

// GetStreamDuration returns the stream duration in stream time base units,
// or avutil.NoPTSValue when unknown.
func GetStreamDuration(stream Stream) int64 {
	if stream == nil {
		return avutil.NoPTSValue
	}
	return *(*int64)(unsafe.Add(stream, offsetStreamDuration))
}

// AVCodecParameters struct field offsets (FFmpeg 6.x / avcodec 60.x)
const (
	offsetCodecParType       = 0   // enum AVMediaType codec_type
	offsetCodecParCodecID    = 4   // enum AVCodecID codec_id
	offsetCodecParFormat     = 28  // int format
	offsetCodecParBitRate    = 32  // int64_t bit_rate
	offsetCodecParSampleRate = 116 // int sample_rate
	offsetCodecParChLayout   = 144 // AVChannelLayout ch_layout
)

// GetCodecParType returns the media type from codec parameters.
func GetCodecParType(par avcodec.Parameters) avutil.MediaType {
	if par == nil {
		return avutil.MediaTypeUnknown
	}
	return avutil.MediaType(*(*int32)(unsafe.Add(par, offsetCodecParType)))
}

// GetCodecParCodecID returns the codec ID from codec parameters.
func GetCodecParCodecID(par avcodec.Parameters) avcodec.CodecID {
	if par == nil {
		return avcodec.CodecIDNone
	}
	return avcodec.CodecID(*(*int32)(unsafe.Add(par, offsetCodecParCodecID)))
}

// GetCodecParFormat returns the sample format of an audio stream.
func GetCodecParFormat(par avcodec.Parameters) avutil.SampleFormat {
	if par == nil {
		return avutil.SampleFormatNone
	}
	return avutil.SampleFormat(*(*int32)(unsafe.Add(par, offsetCodecParFormat)))
}

// GetCodecParBitRate returns the stream bit rate, 0 if unknown.
func GetCodecParBitRate(par avcodec.Parameters) int64 {
	if par == nil {
		return 0
	}
	return *(*int64)(unsafe.Add(par, offsetCodecParBitRate))
}

// GetCodecParSampleRate returns the audio sample rate.
func GetCodecParSampleRate(par avcodec.Parameters) int32 {
	if par == nil {
		return 0
	}
	return *(*int32)(unsafe.Add(par, offsetCodecParSampleRate))
}

// GetCodecParChannels returns the channel count from ch_layout.
func GetCodecParChannels(par avcodec.Parameters) int32 {
	if par == nil {
		return 0
	}
	return avutil.ChannelLayoutNbChannels(unsafe.Add(par, offsetCodecParChLayout))
}

func cString(ptr unsafe.Pointer) string {
	if ptr == nil {
		return ""
	}
	n := 0
	for *(*byte)(unsafe.Add(ptr, n)) != 0 {
		n++
	}
	return string(unsafe.Slice((*byte)(ptr), n))
}
