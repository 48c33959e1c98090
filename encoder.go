//go:build !ios && !android && (amd64 || arm64)

package fftranscode

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/obinnaokechukwu/fftranscode/avcodec"
	"github.com/obinnaokechukwu/fftranscode/avutil"
	"github.com/sirupsen/logrus"
)

// Encoder compresses PCM frames for the output stream.
type Encoder struct {
	codecCtx  avcodec.Context
	codec     avcodec.Codec
	frameSize int
	nextPTS   int64
	flushed   bool
	closed    bool
	log       logrus.FieldLogger
}

// encoderChoice is the codec picked for an output path.
type encoderChoice struct {
	codec        avcodec.Codec
	experimental bool
}

// chooseEncoder picks the encoder from the output extension: .opus uses
// libopus when available and FFmpeg's experimental native encoder
// otherwise; everything else uses AAC.
func chooseEncoder(path string) (encoderChoice, error) {
	if strings.EqualFold(filepath.Ext(path), ".opus") {
		if codec := avcodec.FindEncoderByName("libopus"); codec != nil {
			return encoderChoice{codec: codec}, nil
		}
		if codec := avcodec.FindEncoder(avcodec.CodecIDOPUS); codec != nil {
			experimental := avcodec.GetCodecCapabilities(codec)&avcodec.CodecCapExperimental != 0
			return encoderChoice{codec: codec, experimental: experimental}, nil
		}
		return encoderChoice{}, fmt.Errorf("%w: opus", ErrEncoderNotFound)
	}
	if codec := avcodec.FindEncoder(avcodec.CodecIDAAC); codec != nil {
		return encoderChoice{codec: codec}, nil
	}
	return encoderChoice{}, fmt.Errorf("%w: aac", ErrEncoderNotFound)
}

// negotiateSampleRate returns want if the encoder lists it or lists
// nothing, otherwise the closest listed rate (ties go to the higher rate).
func negotiateSampleRate(want int, supported []int) int {
	if len(supported) == 0 {
		return want
	}
	best := supported[0]
	for _, rate := range supported {
		if rate == want {
			return want
		}
		d, bd := abs(rate-want), abs(best-want)
		if d < bd || (d == bd && rate > best) {
			best = rate
		}
	}
	return best
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

type encoderConfig struct {
	sampleRate   int
	channels     int
	bitRate      int64
	globalHeader bool
}

// newEncoder allocates and opens an encoder context.
func newEncoder(choice encoderChoice, cfg encoderConfig, log logrus.FieldLogger) (*Encoder, error) {
	e := &Encoder{codec: choice.codec, log: log}
	e.codecCtx = avcodec.AllocContext3(choice.codec)
	if e.codecCtx == nil {
		return nil, ErrOutOfMemory
	}

	sampleFmt := avutil.SampleFormatFltP
	if fmts := avcodec.GetCodecSampleFormats(choice.codec); len(fmts) > 0 {
		sampleFmt = fmts[0]
	}
	rate := negotiateSampleRate(cfg.sampleRate, avcodec.GetCodecSupportedSampleRates(choice.codec))
	if rate != cfg.sampleRate {
		log.WithFields(logrus.Fields{
			"function":  "newEncoder",
			"encoder":   avcodec.GetCodecName(choice.codec),
			"requested": cfg.sampleRate,
			"using":     rate,
		}).Debug("sample rate not supported by encoder")
	}

	avcodec.SetCtxSampleRate(e.codecCtx, int32(rate))
	avcodec.SetCtxChannelLayout(e.codecCtx, int32(cfg.channels))
	avcodec.SetCtxSampleFmt(e.codecCtx, sampleFmt)
	avcodec.SetCtxBitRate(e.codecCtx, cfg.bitRate)
	avcodec.SetCtxTimeBase(e.codecCtx, avutil.NewRational(1, int32(rate)))
	if choice.experimental {
		if err := avcodec.SetCtxStrictExperimental(e.codecCtx); err != nil {
			avcodec.FreeContext(&e.codecCtx)
			return nil, err
		}
	}
	if cfg.globalHeader {
		flags := avcodec.GetCtxFlags(e.codecCtx)
		avcodec.SetCtxFlags(e.codecCtx, flags|avcodec.CodecFlagGlobalHeader)
	}

	if err := avcodec.Open2(e.codecCtx, choice.codec); err != nil {
		avcodec.FreeContext(&e.codecCtx)
		return nil, err
	}

	e.frameSize = avcodec.GetCtxFrameSize(e.codecCtx)
	if e.frameSize <= 0 || avcodec.GetCodecCapabilities(choice.codec)&avcodec.CodecCapVariableFrameSize != 0 {
		e.frameSize = fallbackFrameSize
	}

	runtime.SetFinalizer(e, (*Encoder).cleanup)
	return e, nil
}

// Name returns the FFmpeg encoder name ("aac", "libopus").
func (e *Encoder) Name() string {
	return avcodec.GetCodecName(e.codec)
}

// CodecID returns the codec the encoder produces.
func (e *Encoder) CodecID() CodecID {
	return avcodec.GetCodecID(e.codec)
}

// FrameSize returns the number of samples per channel the encoder expects
// in every frame but the last.
func (e *Encoder) FrameSize() int {
	return e.frameSize
}

// Format returns the PCM format the encoder accepts.
func (e *Encoder) Format() AudioFormat {
	return AudioFormat{
		SampleRate:    int(avcodec.GetCtxSampleRate(e.codecCtx)),
		Channels:      int(avcodec.GetCtxChannels(e.codecCtx)),
		ChannelLayout: ChannelLayout(avutil.ChannelLayoutMask(avcodec.GetCtxChLayoutPtr(e.codecCtx))),
		SampleFormat:  avcodec.GetCtxSampleFmt(e.codecCtx),
	}
}

// BitRate returns the configured bit rate.
func (e *Encoder) BitRate() int64 {
	return avcodec.GetCtxBitRate(e.codecCtx)
}

// TimeBase returns the time base of the encoder's packet timestamps.
func (e *Encoder) TimeBase() Rational {
	return avcodec.GetCtxTimeBase(e.codecCtx)
}

// Encode sends one frame and returns every packet ready so far. The frame
// is timestamped from a running sample count; the caller keeps ownership.
func (e *Encoder) Encode(frame *Frame) ([]*Packet, error) {
	if e.closed {
		return nil, ErrClosed
	}
	if frame == nil || frame.ptr == nil {
		return nil, &EncodeError{Err: fmt.Errorf("nil frame")}
	}
	if e.flushed {
		return nil, &EncodeError{Err: avutil.NewError(avutil.AVERROR_EOF, "avcodec_send_frame")}
	}
	avutil.SetFramePTS(frame.ptr, e.nextPTS)
	e.nextPTS += int64(frame.NumSamples())

	if err := avcodec.SendFrame(e.codecCtx, frame.ptr); err != nil {
		return nil, &EncodeError{Err: err}
	}
	return e.receive()
}

// Drain flushes the encoder. The first call signals end of stream and
// returns the buffered packets; later calls return nothing.
func (e *Encoder) Drain() ([]*Packet, error) {
	if e.closed {
		return nil, ErrClosed
	}
	if e.flushed {
		return nil, nil
	}
	e.flushed = true
	if err := avcodec.SendFrame(e.codecCtx, nil); err != nil && !avutil.IsEOF(err) {
		return nil, &EncodeError{Err: err}
	}
	return e.receive()
}

func (e *Encoder) receive() ([]*Packet, error) {
	var pkts []*Packet
	for {
		pkt, err := allocPacket()
		if err != nil {
			closePackets(pkts)
			return nil, &EncodeError{Err: err}
		}
		err = avcodec.ReceivePacket(e.codecCtx, pkt.ptr)
		if err != nil {
			pkt.Close()
			if avutil.IsAgain(err) || avutil.IsEOF(err) {
				return pkts, nil
			}
			closePackets(pkts)
			return nil, &EncodeError{Err: err}
		}
		pkts = append(pkts, pkt)
	}
}

// Close frees the codec context. Safe to call more than once.
func (e *Encoder) Close() error {
	if e == nil || e.closed {
		return nil
	}
	e.closed = true
	runtime.SetFinalizer(e, nil)
	e.cleanup()
	return nil
}

func (e *Encoder) cleanup() {
	if e.codecCtx != nil {
		avcodec.FreeContext(&e.codecCtx)
		e.codecCtx = nil
	}
}
