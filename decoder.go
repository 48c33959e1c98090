//go:build !ios && !android && (amd64 || arm64)

package fftranscode

import (
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/gammazero/deque"
	"github.com/obinnaokechukwu/fftranscode/avcodec"
	"github.com/obinnaokechukwu/fftranscode/avformat"
	"github.com/obinnaokechukwu/fftranscode/avutil"
	"github.com/sirupsen/logrus"
)

// Decoder turns packets of one audio stream into PCM frames.
//
// Decoded frames are held in a queue until the consumer is done with them:
// Peek returns the oldest frame and Consume releases it. Frames returned by
// Decode and Drain are the same frames that were queued, so callers must
// not Close them.
type Decoder struct {
	codecCtx avcodec.Context
	queue    deque.Deque[*Frame]
	eof      atomic.Bool
	drained  bool
	closed   bool
	log      logrus.FieldLogger
}

// newDecoder opens a decoder for the stream described by codecPar.
func newDecoder(codecPar avcodec.Parameters, log logrus.FieldLogger) (*Decoder, error) {
	codecID := avformat.GetCodecParCodecID(codecPar)
	codec := avcodec.FindDecoder(codecID)
	if codec == nil {
		return nil, fmt.Errorf("%w: %s", ErrDecoderNotFound, codecID)
	}

	d := &Decoder{log: log}
	d.codecCtx = avcodec.AllocContext3(codec)
	if d.codecCtx == nil {
		return nil, ErrOutOfMemory
	}
	if err := avcodec.ParametersToContext(d.codecCtx, codecPar); err != nil {
		avcodec.FreeContext(&d.codecCtx)
		return nil, err
	}
	if err := avcodec.Open2(d.codecCtx, codec); err != nil {
		avcodec.FreeContext(&d.codecCtx)
		return nil, err
	}

	runtime.SetFinalizer(d, (*Decoder).cleanup)
	return d, nil
}

// Format returns the PCM format the decoder produces.
func (d *Decoder) Format() AudioFormat {
	return AudioFormat{
		SampleRate:    int(avcodec.GetCtxSampleRate(d.codecCtx)),
		Channels:      int(avcodec.GetCtxChannels(d.codecCtx)),
		ChannelLayout: ChannelLayout(avutil.ChannelLayoutMask(avcodec.GetCtxChLayoutPtr(d.codecCtx))),
		SampleFormat:  avcodec.GetCtxSampleFmt(d.codecCtx),
	}
}

// Decode sends one packet and queues every frame the decoder can produce.
// A rejected packet returns a *DecodeError; frames produced before the
// failure stay queued.
func (d *Decoder) Decode(pkt *Packet) ([]*Frame, error) {
	if d.closed {
		return nil, ErrClosed
	}
	if pkt == nil || pkt.ptr == nil {
		return nil, &DecodeError{Err: fmt.Errorf("nil packet")}
	}
	if err := avcodec.SendPacket(d.codecCtx, pkt.ptr); err != nil {
		// EAGAIN cannot happen while every frame is received after each send.
		return nil, &DecodeError{Err: err}
	}
	return d.receive()
}

// Drain flushes the decoder and queues its buffered frames. Only the first
// call sends the flush packet; later calls return nothing.
func (d *Decoder) Drain() ([]*Frame, error) {
	if d.closed {
		return nil, ErrClosed
	}
	if d.drained {
		return nil, nil
	}
	d.drained = true
	defer d.SetEOF()

	if err := avcodec.SendPacket(d.codecCtx, nil); err != nil && !avutil.IsEOF(err) {
		return nil, &DecodeError{Err: err}
	}
	frames, err := d.receive()
	d.log.WithFields(logrus.Fields{
		"function": "Drain",
		"frames":   len(frames),
	}).Debug("decoder drained")
	return frames, err
}

func (d *Decoder) receive() ([]*Frame, error) {
	var frames []*Frame
	for {
		ptr := avutil.FrameAlloc()
		if ptr == nil {
			return frames, ErrOutOfMemory
		}
		err := avcodec.ReceiveFrame(d.codecCtx, ptr)
		if err != nil {
			avutil.FrameFree(&ptr)
			if avutil.IsAgain(err) || avutil.IsEOF(err) {
				return frames, nil
			}
			return frames, &DecodeError{Err: err}
		}
		f := &Frame{ptr: ptr}
		d.queue.PushBack(f)
		frames = append(frames, f)
	}
}

// Peek returns the oldest queued frame without removing it, or nil.
func (d *Decoder) Peek() *Frame {
	if d.queue.Len() == 0 {
		return nil
	}
	return d.queue.Front()
}

// Consume removes and frees the oldest queued frame.
func (d *Decoder) Consume() {
	if d.queue.Len() == 0 {
		return
	}
	d.queue.PopFront().Close()
}

// Pending returns the number of queued frames.
func (d *Decoder) Pending() int {
	return d.queue.Len()
}

// SetEOF marks the input as exhausted. It cannot be unset.
func (d *Decoder) SetEOF() {
	d.eof.Store(true)
}

// EOF reports whether SetEOF has been called.
func (d *Decoder) EOF() bool {
	return d.eof.Load()
}

// Close frees queued frames and the codec context. Safe to call more than once.
func (d *Decoder) Close() error {
	if d == nil || d.closed {
		return nil
	}
	d.closed = true
	runtime.SetFinalizer(d, nil)
	d.cleanup()
	return nil
}

func (d *Decoder) cleanup() {
	for d.queue.Len() > 0 {
		d.queue.PopFront().Close()
	}
	if d.codecCtx != nil {
		avcodec.FreeContext(&d.codecCtx)
		d.codecCtx = nil
	}
}
