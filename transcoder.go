//go:build !ios && !android && (amd64 || arm64)

package fftranscode

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// State is a phase of a transcoding session.
type State int32

const (
	StateInitializing State = iota
	StateStreaming
	StateDraining
	StateFinalized
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateStreaming:
		return "streaming"
	case StateDraining:
		return "draining"
	case StateFinalized:
		return "finalized"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Stats counts the work done by a session.
type Stats struct {
	PacketsRead      int64
	ReadErrors       int64
	DecodeErrors     int64
	PacketsSkipped   int64
	FramesDecoded    int64
	SamplesDecoded   int64
	SamplesResampled int64
	FramesEncoded    int64
	SamplesEncoded   int64
	PacketsWritten   int64
	BytesWritten     int64

	InputSampleRate  int
	OutputSampleRate int
	// InputDuration is the duration reported by the input container.
	InputDuration time.Duration
	Elapsed       time.Duration
}

// Observer receives session events. Calls happen on the goroutine running
// the session.
type Observer interface {
	OnState(from, to State)
	OnProgress(stats Stats)
}

// Transcoder runs one input file through decode, resample, buffer, encode
// and mux into one output file.
type Transcoder struct {
	inputPath  string
	outputPath string
	opts       []Option
	o          *Options
	log        logrus.FieldLogger

	state atomic.Int32
	ran   atomic.Bool

	mu    sync.Mutex
	stats Stats
	start time.Time

	in        *InputFileContext
	out       *OutputFileContext
	resampler *Resampler
	fifo      *SampleFIFO
	closed    bool
}

// NewTranscoder prepares a session. Nothing is opened until Run.
func NewTranscoder(inputPath, outputPath string, opts ...Option) *Transcoder {
	o := newOptions(opts)
	return &Transcoder{
		inputPath:  inputPath,
		outputPath: outputPath,
		opts:       opts,
		o:          o,
		log: o.Logger.WithFields(logrus.Fields{
			"input":  inputPath,
			"output": outputPath,
		}),
	}
}

// Transcode runs a single session to completion.
func Transcode(ctx context.Context, inputPath, outputPath string, opts ...Option) error {
	t := NewTranscoder(inputPath, outputPath, opts...)
	return t.Run(ctx)
}

// State returns the current state.
func (t *Transcoder) State() State {
	return State(t.state.Load())
}

// Stats returns a snapshot of the session counters.
func (t *Transcoder) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.stats
	if !t.start.IsZero() && s.Elapsed == 0 {
		s.Elapsed = time.Since(t.start)
	}
	return s
}

func (t *Transcoder) update(fn func(*Stats)) {
	t.mu.Lock()
	fn(&t.stats)
	t.mu.Unlock()
}

func (t *Transcoder) setState(to State) {
	from := State(t.state.Swap(int32(to)))
	if from == to {
		return
	}
	t.log.WithFields(logrus.Fields{
		"function": "setState",
		"from":     from.String(),
		"to":       to.String(),
	}).Debug("state change")
	if t.o.Observer != nil {
		t.o.Observer.OnState(from, to)
	}
}

func (t *Transcoder) progress() {
	if t.o.Observer != nil {
		t.o.Observer.OnProgress(t.Stats())
	}
}

// Run executes the session: Initializing, Streaming, Draining, Finalized.
// A fatal error moves the session to StateFailed; no trailer is written
// but every resource is still released. Run may be called once.
func (t *Transcoder) Run(ctx context.Context) error {
	if !t.ran.CompareAndSwap(false, true) {
		return ErrSessionUsed
	}
	t.mu.Lock()
	t.start = time.Now()
	t.mu.Unlock()

	err := t.initialize()
	if err == nil {
		t.setState(StateStreaming)
		err = t.stream(ctx)
	}
	if err == nil {
		t.setState(StateDraining)
		err = t.drain()
	}
	if err == nil {
		err = t.finalize()
	}

	t.update(func(s *Stats) { s.Elapsed = time.Since(t.start) })
	if err != nil {
		return t.fail(err)
	}

	stats := t.Stats()
	t.log.WithFields(logrus.Fields{
		"function":        "Run",
		"packets_read":    stats.PacketsRead,
		"packets_skipped": stats.PacketsSkipped,
		"samples_encoded": stats.SamplesEncoded,
		"packets_written": stats.PacketsWritten,
		"elapsed":         stats.Elapsed.String(),
	}).Info("transcode finished")
	t.progress()
	return t.Close()
}

func (t *Transcoder) fail(err error) error {
	t.setState(StateFailed)
	t.log.WithFields(logrus.Fields{
		"function": "Run",
		"error":    err.Error(),
	}).Error("transcode failed")

	// Without a header the file holds nothing playable.
	var cleanupErr error
	if t.out != nil && (t.o.RemoveFailedOutput || !t.out.HeaderWritten()) {
		cleanupErr = t.out.Discard()
	}
	return errors.Join(err, cleanupErr, t.Close())
}

// initialize opens both contexts, configures the resampler and FIFO and
// writes the header. The output file is created by that last step, so any
// earlier failure leaves nothing on disk.
func (t *Transcoder) initialize() error {
	in, err := OpenInput(t.inputPath, t.opts...)
	if err != nil {
		return err
	}
	t.in = in

	inFormat := in.Decoder().Format()
	out, err := OpenOutput(t.outputPath, inFormat.SampleRate, t.opts...)
	if err != nil {
		return err
	}
	t.out = out

	enc := out.Encoder()
	outFormat := enc.Format()
	t.resampler = NewResampler()
	if err := t.resampler.Configure(inFormat, outFormat); err != nil {
		return err
	}

	t.fifo, err = NewSampleFIFO(outFormat.SampleFormat, outFormat.Channels, enc.FrameSize())
	if err != nil {
		return &ResampleError{Err: err}
	}

	if err := out.WriteHeader(); err != nil {
		return err
	}

	t.update(func(s *Stats) {
		s.InputSampleRate = inFormat.SampleRate
		s.OutputSampleRate = outFormat.SampleRate
		s.InputDuration = in.Duration()
	})
	t.log.WithFields(logrus.Fields{
		"function":           "initialize",
		"input_format":       inFormat.String(),
		"output_format":      outFormat.String(),
		"encoder":            enc.Name(),
		"duration":           in.Duration().String(),
		"duration_estimated": in.DurationIsEstimate(),
	}).Debug("session initialized")
	return nil
}

// stream reads packets until the input ends. Read and decode failures skip
// the packet; anything else aborts.
func (t *Transcoder) stream(ctx context.Context) error {
	consecutive := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		pkt, err := t.in.ReadPacket()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			consecutive++
			t.update(func(s *Stats) { s.ReadErrors++ })
			t.log.WithFields(logrus.Fields{
				"function": "ReadPacket",
				"error":    err.Error(),
			}).Warn("skipping unreadable packet")
			if consecutive >= t.o.MaxReadErrors {
				t.log.WithFields(logrus.Fields{
					"function": "stream",
					"errors":   consecutive,
				}).Error("too many consecutive read errors, treating input as ended")
				return nil
			}
			continue
		}
		consecutive = 0
		t.update(func(s *Stats) { s.PacketsRead++ })

		_, err = t.in.Decoder().Decode(pkt)
		pkt.Close()
		if err != nil {
			if IsFatal(err) {
				return err
			}
			t.update(func(s *Stats) {
				s.DecodeErrors++
				s.PacketsSkipped++
			})
			t.log.WithFields(logrus.Fields{
				"function": "Decode",
				"error":    err.Error(),
			}).Warn("skipping undecodable packet")
		}

		if err := t.resampleQueued(); err != nil {
			return err
		}
		if err := t.encodeBuffered(false); err != nil {
			return err
		}
		t.progress()
	}
}

// resampleQueued moves every decoded frame through the resampler into the
// FIFO. A frame is consumed only after its samples are buffered.
func (t *Transcoder) resampleQueued() error {
	dec := t.in.Decoder()
	for f := dec.Peek(); f != nil; f = dec.Peek() {
		samples, err := t.resampler.Convert(f)
		if err != nil {
			return err
		}
		err = t.buffer(samples)
		n := f.NumSamples()
		dec.Consume()
		if err != nil {
			return err
		}
		t.update(func(s *Stats) {
			s.FramesDecoded++
			s.SamplesDecoded += int64(n)
		})
	}
	return nil
}

func (t *Transcoder) buffer(samples *Samples) error {
	defer samples.Close()
	if err := t.fifo.Write(samples); err != nil {
		return &ResampleError{Err: err}
	}
	n := samples.Count()
	t.update(func(s *Stats) { s.SamplesResampled += int64(n) })
	return nil
}

// encodeBuffered encodes full frames while the FIFO holds at least one.
// With final set, a short remainder is encoded as the last frame.
func (t *Transcoder) encodeBuffered(final bool) error {
	enc := t.out.Encoder()
	frameSize := enc.FrameSize()
	rate := enc.Format().SampleRate
	for t.fifo.Size() >= frameSize || (final && t.fifo.Size() > 0) {
		frame, err := t.fifo.ReadFrame(frameSize, rate)
		if err != nil {
			return &EncodeError{Err: err}
		}
		n := frame.NumSamples()
		pkts, err := enc.Encode(frame)
		frame.Close()
		if err != nil {
			return err
		}
		t.update(func(s *Stats) {
			s.FramesEncoded++
			s.SamplesEncoded += int64(n)
		})
		if err := t.write(pkts); err != nil {
			return err
		}
	}
	return nil
}

func (t *Transcoder) write(pkts []*Packet) error {
	defer closePackets(pkts)
	for _, p := range pkts {
		size := p.Size()
		if err := t.out.WritePacket(p); err != nil {
			return err
		}
		t.update(func(s *Stats) {
			s.PacketsWritten++
			s.BytesWritten += int64(size)
		})
	}
	return nil
}

// drain empties every stage in pipeline order.
func (t *Transcoder) drain() error {
	dec := t.in.Decoder()
	if _, err := dec.Drain(); err != nil {
		if IsFatal(err) {
			return err
		}
		t.update(func(s *Stats) { s.DecodeErrors++ })
		t.log.WithFields(logrus.Fields{
			"function": "Drain",
			"error":    err.Error(),
		}).Warn("decoder flush failed")
	}
	if err := t.resampleQueued(); err != nil {
		return err
	}

	tail, err := t.resampler.Flush()
	if err != nil {
		return err
	}
	if err := t.buffer(tail); err != nil {
		return err
	}

	if err := t.encodeBuffered(true); err != nil {
		return err
	}

	pkts, err := t.out.Encoder().Drain()
	if err != nil {
		return err
	}
	return t.write(pkts)
}

func (t *Transcoder) finalize() error {
	if err := t.out.WriteTrailer(); err != nil {
		return err
	}
	t.setState(StateFinalized)
	return nil
}

// Close releases every resource the session opened. It is called by Run
// and is safe to call again.
func (t *Transcoder) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true

	var errs []error
	if t.fifo != nil {
		errs = append(errs, t.fifo.Close())
	}
	if t.resampler != nil {
		errs = append(errs, t.resampler.Close())
	}
	if t.out != nil {
		errs = append(errs, t.out.Close())
	}
	if t.in != nil {
		errs = append(errs, t.in.Close())
	}
	return errors.Join(errs...)
}
