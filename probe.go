//go:build !ios && !android && (amd64 || arm64)

package fftranscode

import (
	"errors"
	"strings"
	"time"
)

// ProbeResult describes the audio an input file would feed a session.
type ProbeResult struct {
	// Path is the probed input path.
	Path string

	// Format is the selected demuxer short name (e.g. "wav", "ogg").
	Format string

	// Stream is the audio stream a Transcoder would select.
	Stream Stream

	// DecodedFormat is the PCM format the decoder produces.
	DecodedFormat AudioFormat

	// Duration follows InputFileContext.Duration.
	Duration time.Duration

	// DurationIsEstimate is set when the duration comes from the bit rate.
	DurationIsEstimate bool

	// BitRate is the container bit rate, 0 if unknown.
	BitRate int64
}

// Probe opens path the way a Transcoder would, reports what it found and
// closes it again. No packets are decoded.
func Probe(path string, opts ...Option) (*ProbeResult, error) {
	if strings.TrimSpace(path) == "" {
		return nil, &FileOpenError{Path: path, Err: errors.New("path cannot be empty")}
	}
	in, err := OpenInput(path, opts...)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	return &ProbeResult{
		Path:               path,
		Format:             in.FormatName(),
		Stream:             in.Stream(),
		DecodedFormat:      in.Decoder().Format(),
		Duration:           in.Duration(),
		DurationIsEstimate: in.DurationIsEstimate(),
		BitRate:            in.BitRate(),
	}, nil
}
