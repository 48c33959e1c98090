//go:build !ios && !android && (amd64 || arm64)

// Package fftranscode transcodes the primary audio stream of a media file
// into AAC or Opus using FFmpeg, loaded at runtime without CGO via purego.
//
// For most use cases, call Transcode or build a Transcoder. The pipeline
// pieces (InputFileContext, Decoder, Resampler, SampleFIFO, Encoder,
// OutputFileContext) are exported for callers that drive the loop
// themselves. Low-level bindings live in the avutil, avcodec, avformat and
// swresample packages.
package fftranscode

import (
	"github.com/obinnaokechukwu/fftranscode/avcodec"
	"github.com/obinnaokechukwu/fftranscode/avutil"
	"github.com/obinnaokechukwu/fftranscode/internal/bindings"
)

// Init loads the FFmpeg libraries. This is called automatically when using
// the high-level API, but can be called explicitly to check for errors.
// It is safe to call multiple times.
func Init() error {
	return bindings.Load()
}

// IsLoaded returns true if FFmpeg libraries have been successfully loaded.
func IsLoaded() bool {
	return bindings.IsLoaded()
}

// Versions holds the packed (major<<16 | minor<<8 | micro) library versions.
type Versions struct {
	AVUtil     uint32
	AVCodec    uint32
	AVFormat   uint32
	SWResample uint32
}

// Version returns FFmpeg library versions.
func Version() Versions {
	return Versions{
		AVUtil:     bindings.AVUtilVersion(),
		AVCodec:    bindings.AVCodecVersion(),
		AVFormat:   bindings.AVFormatVersion(),
		SWResample: bindings.SWResampleVersion(),
	}
}

// Re-export common types for convenience
type (
	// Rational represents a rational number (fraction).
	Rational = avutil.Rational

	// SampleFormat represents audio sample formats.
	SampleFormat = avutil.SampleFormat

	// CodecID represents codec identifiers.
	CodecID = avcodec.CodecID
)

// Re-export common constants
const (
	CodecIDNone     = avcodec.CodecIDNone
	CodecIDPCMS16LE = avcodec.CodecIDPCMS16LE
	CodecIDAAC      = avcodec.CodecIDAAC
	CodecIDMP3      = avcodec.CodecIDMP3
	CodecIDOPUS     = avcodec.CodecIDOPUS
	CodecIDFLAC     = avcodec.CodecIDFLAC

	SampleFormatNone = avutil.SampleFormatNone
	SampleFormatU8   = avutil.SampleFormatU8
	SampleFormatS16  = avutil.SampleFormatS16
	SampleFormatS32  = avutil.SampleFormatS32
	SampleFormatFlt  = avutil.SampleFormatFlt
	SampleFormatDbl  = avutil.SampleFormatDbl
	SampleFormatU8P  = avutil.SampleFormatU8P
	SampleFormatS16P = avutil.SampleFormatS16P
	SampleFormatS32P = avutil.SampleFormatS32P
	SampleFormatFltP = avutil.SampleFormatFltP
	SampleFormatDblP = avutil.SampleFormatDblP
	SampleFormatS64  = avutil.SampleFormatS64
	SampleFormatS64P = avutil.SampleFormatS64P
)
