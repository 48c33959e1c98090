//go:build !ios && !android && (amd64 || arm64)

package avcodec

import (
	"runtime"
	"unsafe"

	"github.com/obinnaokechukwu/fftranscode/avutil"
)

// AVCodecContext struct field offsets (FFmpeg 6.x / avcodec 60.x).
// Setters prefer AVOptions so they keep working when the layout moves.
const (
	offsetCtxCodecID    = 24  // enum AVCodecID codec_id
	offsetCtxBitRate    = 56  // int64_t bit_rate
	offsetCtxFlags      = 76  // int flags
	offsetCtxTimeBase   = 100 // AVRational time_base
	offsetCtxSampleRate = 352 // int sample_rate
	offsetCtxSampleFmt  = 360 // enum AVSampleFormat sample_fmt
	offsetCtxFrameSize  = 364 // int frame_size
	offsetCtxChLayout   = 912 // AVChannelLayout ch_layout (FFmpeg 5.1+)
)

// CodecFlagGlobalHeader places codec extradata in the container header
// instead of every keyframe (AV_CODEC_FLAG_GLOBAL_HEADER).
const CodecFlagGlobalHeader = 1 << 22

// GetCtxCodecID returns the codec ID bound to the context.
func GetCtxCodecID(ctx Context) CodecID {
	if ctx == nil {
		return CodecIDNone
	}
	return CodecID(*(*int32)(unsafe.Add(ctx, offsetCtxCodecID)))
}

// GetCtxBitRate returns the configured bit rate.
func GetCtxBitRate(ctx Context) int64 {
	if ctx == nil {
		return 0
	}
	return *(*int64)(unsafe.Add(ctx, offsetCtxBitRate))
}

// SetCtxBitRate sets the bit rate in codec context.
func SetCtxBitRate(ctx Context, bitRate int64) {
	if ctx == nil {
		return
	}
	if err := avutil.OptSetInt(ctx, "b", bitRate, 0); err == nil {
		return
	}
	*(*int64)(unsafe.Add(ctx, offsetCtxBitRate)) = bitRate
}

// GetCtxFlags returns the flags from codec context.
func GetCtxFlags(ctx Context) int32 {
	if ctx == nil {
		return 0
	}
	return *(*int32)(unsafe.Add(ctx, offsetCtxFlags))
}

// SetCtxFlags sets the flags in codec context.
func SetCtxFlags(ctx Context, flags int32) {
	if ctx == nil {
		return
	}
	if err := avutil.OptSetInt(ctx, "flags", int64(flags), 0); err == nil {
		return
	}
	*(*int32)(unsafe.Add(ctx, offsetCtxFlags)) = flags
}

// GetCtxTimeBase returns the time base from codec context.
func GetCtxTimeBase(ctx Context) avutil.Rational {
	if ctx == nil {
		return avutil.Rational{}
	}
	num := *(*int32)(unsafe.Add(ctx, offsetCtxTimeBase))
	den := *(*int32)(unsafe.Add(ctx, offsetCtxTimeBase+4))
	return avutil.NewRational(num, den)
}

// SetCtxTimeBase sets the time base in codec context.
func SetCtxTimeBase(ctx Context, tb avutil.Rational) {
	if ctx == nil {
		return
	}
	*(*int32)(unsafe.Add(ctx, offsetCtxTimeBase)) = tb.Num
	*(*int32)(unsafe.Add(ctx, offsetCtxTimeBase+4)) = tb.Den
}

// GetCtxSampleRate returns the sample rate from codec context.
func GetCtxSampleRate(ctx Context) int32 {
	if ctx == nil {
		return 0
	}
	return *(*int32)(unsafe.Add(ctx, offsetCtxSampleRate))
}

// SetCtxSampleRate sets the sample rate in codec context.
func SetCtxSampleRate(ctx Context, sampleRate int32) {
	if ctx == nil {
		return
	}
	if err := avutil.OptSetInt(ctx, "ar", int64(sampleRate), 0); err == nil {
		return
	}
	if runtime.GOOS == "darwin" {
		return
	}
	*(*int32)(unsafe.Add(ctx, offsetCtxSampleRate)) = sampleRate
}

// GetCtxSampleFmt returns the sample format from codec context.
func GetCtxSampleFmt(ctx Context) avutil.SampleFormat {
	if ctx == nil {
		return avutil.SampleFormatNone
	}
	return avutil.SampleFormat(*(*int32)(unsafe.Add(ctx, offsetCtxSampleFmt)))
}

// SetCtxSampleFmt sets the sample format in codec context.
func SetCtxSampleFmt(ctx Context, sampleFmt avutil.SampleFormat) {
	if ctx == nil {
		return
	}
	if err := avutil.OptSet(ctx, "sample_fmt", sampleFmt.String(), 0); err == nil {
		return
	}
	if runtime.GOOS == "darwin" {
		return
	}
	*(*int32)(unsafe.Add(ctx, offsetCtxSampleFmt)) = int32(sampleFmt)
}

// GetCtxFrameSize returns the number of samples per channel the encoder
// expects in each frame, or 0 when the encoder accepts any size.
func GetCtxFrameSize(ctx Context) int {
	if ctx == nil {
		return 0
	}
	return int(*(*int32)(unsafe.Add(ctx, offsetCtxFrameSize)))
}

// GetCtxChLayoutPtr returns a pointer to the ch_layout field in AVCodecContext.
func GetCtxChLayoutPtr(ctx Context) unsafe.Pointer {
	if ctx == nil {
		return nil
	}
	return unsafe.Add(ctx, offsetCtxChLayout)
}

// GetCtxChannels returns the number of channels from codec context.
func GetCtxChannels(ctx Context) int32 {
	return avutil.ChannelLayoutNbChannels(GetCtxChLayoutPtr(ctx))
}

// SetCtxChannelLayout sets the default layout for nbChannels.
func SetCtxChannelLayout(ctx Context, nbChannels int32) {
	if ctx == nil {
		return
	}
	var layout string
	switch nbChannels {
	case 1:
		layout = "mono"
	case 2:
		layout = "stereo"
	case 6:
		layout = "5.1"
	}
	if layout != "" {
		if err := avutil.OptSet(ctx, "ch_layout", layout, 0); err == nil {
			return
		}
	}

	// The context owns ch_layout; release any custom map before overwriting.
	chLayout := GetCtxChLayoutPtr(ctx)
	avutil.ChannelLayoutUninit(chLayout)
	avutil.ChannelLayoutDefault(chLayout, nbChannels)
}

// SetCtxStrictExperimental allows experimental codecs such as FFmpeg's
// native Opus encoder.
func SetCtxStrictExperimental(ctx Context) error {
	return avutil.OptSet(ctx, "strict", "experimental", 0)
}
