//go:build !ios && !android && (amd64 || arm64)

package fftranscode

import (
	"errors"
	"os"

	"github.com/obinnaokechukwu/fftranscode/avcodec"
	"github.com/obinnaokechukwu/fftranscode/avformat"
	"github.com/obinnaokechukwu/fftranscode/internal/bindings"
	"github.com/sirupsen/logrus"
)

// fallbackMuxer is used when the output extension names no known muxer.
const fallbackMuxer = "adts"

// OutputFileContext is an output container with one audio stream and the
// encoder feeding it.
type OutputFileContext struct {
	path           string
	formatCtx      avformat.FormatContext
	ioCtx          avformat.IOContext
	stream         avformat.Stream
	encoder        *Encoder
	created        bool
	headerWritten  bool
	trailerWritten bool
	closed         bool
	log            logrus.FieldLogger
}

// OpenOutput prepares a muxer and encoder for path. The file itself is
// created by WriteHeader, so a session that fails before then leaves
// nothing on disk. sampleRate is the preferred encoder rate, normally the
// input rate; WithSampleRate overrides it. Any failure is a *FileOpenError.
func OpenOutput(path string, sampleRate int, opts ...Option) (*OutputFileContext, error) {
	o := newOptions(opts)
	if err := bindings.Load(); err != nil {
		return nil, &FileOpenError{Path: path, Err: err}
	}
	if o.SampleRate > 0 {
		sampleRate = o.SampleRate
	}
	if sampleRate <= 0 {
		return nil, &FileOpenError{Path: path, Err: ErrInvalidFormat}
	}

	out := &OutputFileContext{
		path: path,
		log:  o.Logger.WithField("output", path),
	}

	// Determine format from filename extension
	if err := avformat.AllocOutputContext2(&out.formatCtx, "", path); err != nil {
		if err := avformat.AllocOutputContext2(&out.formatCtx, fallbackMuxer, path); err != nil {
			return nil, &FileOpenError{Path: path, Err: err}
		}
	}

	choice, err := chooseEncoder(path)
	if err != nil {
		out.Close()
		return nil, &FileOpenError{Path: path, Err: err}
	}

	out.stream = avformat.NewStream(out.formatCtx, nil)
	if out.stream == nil {
		out.Close()
		return nil, &FileOpenError{Path: path, Err: ErrOutOfMemory}
	}

	out.encoder, err = newEncoder(choice, encoderConfig{
		sampleRate:   sampleRate,
		channels:     o.Channels,
		bitRate:      o.BitRate,
		globalHeader: avformat.NeedsGlobalHeader(out.formatCtx),
	}, out.log)
	if err != nil {
		out.Close()
		return nil, &FileOpenError{Path: path, Err: err}
	}

	// Copy codec parameters to stream
	codecPar := avformat.GetStreamCodecPar(out.stream)
	if err := avcodec.ParametersFromContext(codecPar, out.encoder.codecCtx); err != nil {
		out.Close()
		return nil, &FileOpenError{Path: path, Err: err}
	}
	avformat.SetStreamTimeBase(out.stream, out.encoder.TimeBase())

	out.log.WithFields(logrus.Fields{
		"function":   "OpenOutput",
		"muxer":      out.FormatName(),
		"encoder":    out.encoder.Name(),
		"format":     out.encoder.Format().String(),
		"bit_rate":   out.encoder.BitRate(),
		"frame_size": out.encoder.FrameSize(),
	}).Debug("output opened")
	return out, nil
}

// Path returns the path the context was opened with.
func (out *OutputFileContext) Path() string { return out.path }

// Encoder returns the encoder bound to the output stream.
func (out *OutputFileContext) Encoder() *Encoder { return out.encoder }

// FormatName returns the muxer name ("ogg", "adts").
func (out *OutputFileContext) FormatName() string {
	return avformat.GetOutputFormatName(avformat.GetOutputFormat(out.formatCtx))
}

// StreamTimeBase returns the output stream time base. Muxers may change it
// while writing the header.
func (out *OutputFileContext) StreamTimeBase() Rational {
	return avformat.GetStreamTimeBase(out.stream)
}

// HeaderWritten reports whether WriteHeader succeeded.
func (out *OutputFileContext) HeaderWritten() bool { return out.headerWritten }

// TrailerWritten reports whether WriteTrailer succeeded.
func (out *OutputFileContext) TrailerWritten() bool { return out.trailerWritten }

// WriteHeader creates the file and writes the container header. It may be
// called once. A file that cannot be opened is a *FileOpenError; if the
// header itself fails the file is removed again.
func (out *OutputFileContext) WriteHeader() error {
	if out.closed {
		return ErrClosed
	}
	if out.headerWritten {
		return ErrHeaderWritten
	}
	if err := out.openFile(); err != nil {
		return err
	}
	if err := avformat.WriteHeader(out.formatCtx); err != nil {
		return errors.Join(&MuxWriteError{Path: out.path, Err: err}, out.removeFile())
	}
	out.headerWritten = true
	return nil
}

func (out *OutputFileContext) openFile() error {
	if out.ioCtx != nil || avformat.HasNoFile(out.formatCtx) {
		return nil
	}
	if err := avformat.IOOpen(&out.ioCtx, out.path, avformat.IOFlagWrite); err != nil {
		return &FileOpenError{Path: out.path, Err: err}
	}
	out.created = true
	avformat.SetIOContext(out.formatCtx, out.ioCtx)
	return nil
}

// removeFile closes and deletes a file whose header never made it out.
func (out *OutputFileContext) removeFile() error {
	if out.ioCtx == nil {
		return nil
	}
	avformat.SetIOContext(out.formatCtx, nil)
	closeErr := avformat.IOCloseP(&out.ioCtx)
	out.created = false
	if err := os.Remove(out.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Join(closeErr, err)
	}
	return closeErr
}

// WritePacket rescales an encoder packet to the stream time base and hands
// it to the interleaving muxer, which takes its payload. The caller still
// closes pkt.
func (out *OutputFileContext) WritePacket(pkt *Packet) error {
	if err := out.writable(); err != nil {
		return err
	}
	if pkt == nil || pkt.ptr == nil {
		return nil
	}
	avcodec.SetPacketStreamIndex(pkt.ptr, avformat.GetStreamIndex(out.stream))
	avcodec.RescalePacketTS(pkt.ptr, out.encoder.TimeBase(), out.StreamTimeBase())
	if err := avformat.InterleavedWriteFrame(out.formatCtx, pkt.ptr); err != nil {
		return &MuxWriteError{Path: out.path, Err: err}
	}
	return nil
}

// WriteTrailer flushes interleaved packets and finalizes the container.
// It may be called once, after WriteHeader.
func (out *OutputFileContext) WriteTrailer() error {
	if err := out.writable(); err != nil {
		return err
	}
	if err := avformat.WriteTrailer(out.formatCtx); err != nil {
		return &MuxWriteError{Path: out.path, Err: err}
	}
	out.trailerWritten = true
	return nil
}

func (out *OutputFileContext) writable() error {
	switch {
	case out.closed:
		return ErrClosed
	case !out.headerWritten:
		return ErrHeaderNotWritten
	case out.trailerWritten:
		return ErrTrailerWritten
	}
	return nil
}

// Close frees the encoder, closes the file and frees the muxer. It does not
// write a trailer. Safe to call more than once.
func (out *OutputFileContext) Close() error {
	if out == nil || out.closed {
		return nil
	}
	out.closed = true

	var firstErr error
	if out.encoder != nil {
		out.encoder.Close()
	}
	if out.ioCtx != nil {
		if err := avformat.IOCloseP(&out.ioCtx); err != nil {
			firstErr = err
		}
	}
	if out.formatCtx != nil {
		avformat.FreeContext(out.formatCtx)
		out.formatCtx = nil
	}
	return firstErr
}

// Discard closes the context and removes the file unless the trailer was
// written. A file WriteHeader never created is left alone.
func (out *OutputFileContext) Discard() error {
	closeErr := out.Close()
	if out.trailerWritten || !out.created {
		return closeErr
	}
	if err := os.Remove(out.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Join(closeErr, err)
	}
	return closeErr
}
