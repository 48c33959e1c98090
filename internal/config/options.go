//go:build !ios && !android && (amd64 || arm64)

package config

import (
	"github.com/obinnaokechukwu/fftranscode"
	"github.com/sirupsen/logrus"
)

// Options maps the shared settings onto session options.
func (c *Config) Options(logger logrus.FieldLogger) []fftranscode.Option {
	opts := []fftranscode.Option{
		fftranscode.WithBitRate(c.Encoder.BitRate),
		fftranscode.WithChannels(c.Encoder.Channels),
		fftranscode.WithSampleRate(c.Encoder.SampleRate),
		fftranscode.WithRemoveFailedOutput(c.RemoveFailedOutput),
		fftranscode.WithMaxReadErrors(c.MaxReadErrors),
	}
	if logger != nil {
		opts = append(opts, fftranscode.WithLogger(logger))
	}
	return opts
}

// FFmpegLevel returns the parsed FFmpegLogLevel, falling back to error.
func (c *Config) FFmpegLevel() fftranscode.LogLevel {
	level, err := fftranscode.ParseFFmpegLogLevel(c.FFmpegLogLevel)
	if err != nil {
		return fftranscode.LogError
	}
	return level
}
