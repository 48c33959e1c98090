//go:build !ios && !android && (amd64 || arm64)

package fftranscode

import (
	"time"

	"github.com/obinnaokechukwu/fftranscode/avcodec"
	"github.com/obinnaokechukwu/fftranscode/avformat"
	"github.com/obinnaokechukwu/fftranscode/avutil"
)

// Stream describes the audio stream selected from an input container.
type Stream struct {
	Index     int
	CodecID   CodecID
	CodecName string
	Format    AudioFormat
	TimeBase  Rational
	Duration  int64 // In TimeBase units, avutil.NoPTSValue if unknown
	BitRate   int64
}

// streamInfo extracts stream information.
func streamInfo(stream avformat.Stream) Stream {
	codecPar := avformat.GetStreamCodecPar(stream)
	codecID := avformat.GetCodecParCodecID(codecPar)

	var codecName string
	if codec := avcodec.FindDecoder(codecID); codec != nil {
		codecName = avcodec.GetCodecName(codec)
	}

	channels := int(avformat.GetCodecParChannels(codecPar))
	return Stream{
		Index:     int(avformat.GetStreamIndex(stream)),
		CodecID:   codecID,
		CodecName: codecName,
		Format: AudioFormat{
			SampleRate:   int(avformat.GetCodecParSampleRate(codecPar)),
			Channels:     channels,
			SampleFormat: avformat.GetCodecParFormat(codecPar),
		},
		TimeBase: avformat.GetStreamTimeBase(stream),
		Duration: avformat.GetStreamDuration(stream),
		BitRate:  avformat.GetCodecParBitRate(codecPar),
	}
}

// DurationTime converts Duration to a time.Duration, 0 when unknown.
func (s Stream) DurationTime() time.Duration {
	if s.Duration == avutil.NoPTSValue || s.Duration <= 0 || !s.TimeBase.IsValid() {
		return 0
	}
	us := avutil.RescaleQ(s.Duration, s.TimeBase, avutil.TimeBaseQ)
	return time.Duration(us) * time.Microsecond
}
