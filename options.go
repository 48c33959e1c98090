//go:build !ios && !android && (amd64 || arm64)

package fftranscode

import (
	"github.com/sirupsen/logrus"
)

// Default encoder policy.
const (
	DefaultBitRate       = 96000
	DefaultChannels      = 2
	DefaultMaxReadErrors = 64
	fallbackFrameSize    = 1024
)

// Options configures file contexts and transcoding sessions.
type Options struct {
	// BitRate is the target encoder bit rate in bits per second.
	BitRate int64

	// Channels is the output channel count.
	Channels int

	// SampleRate forces the output sample rate. 0 uses the input rate,
	// snapped to a rate the encoder supports.
	SampleRate int

	// Logger receives pipeline logs. Defaults to logrus.StandardLogger().
	Logger logrus.FieldLogger

	// Observer receives state changes and progress. Optional.
	Observer Observer

	// RemoveFailedOutput deletes the output file of a failed session.
	// By default the partial file is left in place.
	RemoveFailedOutput bool

	// MaxReadErrors is the number of consecutive packet read failures after
	// which the input is treated as ended.
	MaxReadErrors int
}

// Option is a functional option for configuring a session.
type Option func(*Options)

func newOptions(opts []Option) *Options {
	o := &Options{
		BitRate:       DefaultBitRate,
		Channels:      DefaultChannels,
		Logger:        logrus.StandardLogger(),
		MaxReadErrors: DefaultMaxReadErrors,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.Logger == nil {
		o.Logger = logrus.StandardLogger()
	}
	if o.BitRate <= 0 {
		o.BitRate = DefaultBitRate
	}
	if o.Channels <= 0 {
		o.Channels = DefaultChannels
	}
	if o.MaxReadErrors <= 0 {
		o.MaxReadErrors = DefaultMaxReadErrors
	}
	return o
}

// WithLogger sets the logger used by every pipeline component.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithBitRate sets the target encoder bit rate.
func WithBitRate(bitRate int64) Option {
	return func(o *Options) {
		o.BitRate = bitRate
	}
}

// WithChannels sets the output channel count.
func WithChannels(channels int) Option {
	return func(o *Options) {
		o.Channels = channels
	}
}

// WithSampleRate forces the output sample rate.
func WithSampleRate(rate int) Option {
	return func(o *Options) {
		o.SampleRate = rate
	}
}

// WithObserver registers an Observer for state and progress events.
func WithObserver(obs Observer) Option {
	return func(o *Options) {
		o.Observer = obs
	}
}

// WithRemoveFailedOutput deletes the output of failed sessions.
func WithRemoveFailedOutput(remove bool) Option {
	return func(o *Options) {
		o.RemoveFailedOutput = remove
	}
}

// WithMaxReadErrors sets the consecutive read failure limit.
func WithMaxReadErrors(n int) Option {
	return func(o *Options) {
		o.MaxReadErrors = n
	}
}
