//go:build !ios && !android && (amd64 || arm64)

package fftranscode

import (
	"io"
	"time"

	"github.com/obinnaokechukwu/fftranscode/avcodec"
	"github.com/obinnaokechukwu/fftranscode/avformat"
	"github.com/obinnaokechukwu/fftranscode/avutil"
	"github.com/obinnaokechukwu/fftranscode/internal/bindings"
	"github.com/sirupsen/logrus"
)

// InputFileContext is an opened input container with its primary audio
// stream selected and a decoder bound to it.
type InputFileContext struct {
	path      string
	formatCtx avformat.FormatContext
	streamIdx int
	stream    Stream
	decoder   *Decoder
	closed    bool
	log       logrus.FieldLogger
}

// OpenInput opens path, probes its streams and opens a decoder for the
// best audio stream. Any failure is a *FileOpenError.
func OpenInput(path string, opts ...Option) (*InputFileContext, error) {
	o := newOptions(opts)
	if err := bindings.Load(); err != nil {
		return nil, &FileOpenError{Path: path, Err: err}
	}

	in := &InputFileContext{
		path:      path,
		streamIdx: -1,
		log:       o.Logger.WithField("input", path),
	}
	if err := avformat.OpenInput(&in.formatCtx, path); err != nil {
		return nil, &FileOpenError{Path: path, Err: err}
	}
	if err := avformat.FindStreamInfo(in.formatCtx); err != nil {
		in.Close()
		return nil, &FileOpenError{Path: path, Err: err}
	}

	in.streamIdx = selectAudioStream(in.formatCtx)
	if in.streamIdx < 0 {
		in.Close()
		return nil, &FileOpenError{Path: path, Err: ErrNoAudioStream}
	}
	st := avformat.GetStream(in.formatCtx, in.streamIdx)
	in.stream = streamInfo(st)

	dec, err := newDecoder(avformat.GetStreamCodecPar(st), in.log)
	if err != nil {
		in.Close()
		return nil, &FileOpenError{Path: path, Err: err}
	}
	in.decoder = dec

	in.log.WithFields(logrus.Fields{
		"function":  "OpenInput",
		"container": avformat.GetInputFormatName(in.formatCtx),
		"codec":     in.stream.CodecName,
		"stream":    in.streamIdx,
		"format":    dec.Format().String(),
	}).Debug("input opened")
	return in, nil
}

// selectAudioStream asks the demuxer for its best audio stream and falls
// back to the first stream typed as audio.
func selectAudioStream(ctx avformat.FormatContext) int {
	if idx := avformat.FindBestStream(ctx, avutil.MediaTypeAudio); idx >= 0 {
		return int(idx)
	}
	for i := 0; i < avformat.GetNumStreams(ctx); i++ {
		par := avformat.GetStreamCodecPar(avformat.GetStream(ctx, i))
		if avformat.GetCodecParType(par) == avutil.MediaTypeAudio {
			return i
		}
	}
	return -1
}

// Path returns the path the context was opened with.
func (in *InputFileContext) Path() string { return in.path }

// Stream returns the selected audio stream.
func (in *InputFileContext) Stream() Stream { return in.stream }

// Decoder returns the decoder bound to the selected stream.
func (in *InputFileContext) Decoder() *Decoder { return in.decoder }

// FormatName returns the demuxer name ("wav", "ogg", "mov,mp4,...").
func (in *InputFileContext) FormatName() string {
	return avformat.GetInputFormatName(in.formatCtx)
}

// BitRate returns the container bit rate, 0 if unknown.
func (in *InputFileContext) BitRate() int64 {
	return avformat.GetBitRate(in.formatCtx)
}

// Duration returns the stream duration, falling back to the container
// duration and then to 0. The stream is never scanned.
func (in *InputFileContext) Duration() time.Duration {
	if d := in.stream.DurationTime(); d > 0 {
		return d
	}
	if us := avformat.GetDuration(in.formatCtx); us != avutil.NoPTSValue && us > 0 {
		return time.Duration(us) * time.Microsecond
	}
	return 0
}

// DurationIsEstimate reports whether the container derived its duration
// from the bit rate, which is inaccurate for VBR streams.
func (in *InputFileContext) DurationIsEstimate() bool {
	return avformat.GetDurationEstimationMethod(in.formatCtx) == avformat.DurationFromBitrate
}

// ReadPacket returns the next packet of the selected stream. Packets of
// other streams are dropped. It returns io.EOF at the end of the input and
// a *StreamReadError for any other failure.
func (in *InputFileContext) ReadPacket() (*Packet, error) {
	if in.closed {
		return nil, ErrClosed
	}
	for {
		pkt, err := allocPacket()
		if err != nil {
			return nil, &StreamReadError{Path: in.path, Err: err}
		}
		if err := avformat.ReadFrame(in.formatCtx, pkt.ptr); err != nil {
			pkt.Close()
			if avutil.IsEOF(err) {
				return nil, io.EOF
			}
			return nil, &StreamReadError{Path: in.path, Err: err}
		}
		if int(avcodec.GetPacketStreamIndex(pkt.ptr)) == in.streamIdx {
			return pkt, nil
		}
		pkt.Close()
	}
}

// Close closes the decoder and the container. Safe to call more than once.
func (in *InputFileContext) Close() error {
	if in == nil || in.closed {
		return nil
	}
	in.closed = true
	if in.decoder != nil {
		in.decoder.Close()
	}
	avformat.CloseInput(&in.formatCtx)
	return nil
}
