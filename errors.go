//go:build !ios && !android && (amd64 || arm64)

package fftranscode

import (
	"errors"
	"fmt"

	"github.com/obinnaokechukwu/fftranscode/avutil"
	"github.com/obinnaokechukwu/fftranscode/internal/bindings"
)

// FFmpegError is an error from FFmpeg operations.
// It contains the raw FFmpeg error code and a human-readable message.
type FFmpegError = avutil.Error

// Common errors
var (
	// ErrNotLoaded indicates FFmpeg libraries are not loaded.
	ErrNotLoaded = bindings.ErrNotLoaded

	// ErrClosed indicates the resource has been closed.
	ErrClosed = errors.New("fftranscode: resource is closed")

	// ErrOutOfMemory indicates an FFmpeg allocation failed.
	ErrOutOfMemory = errors.New("fftranscode: out of memory")

	// ErrNoAudioStream indicates the input has no audio stream.
	ErrNoAudioStream = errors.New("fftranscode: no audio stream")

	// ErrEncoderNotFound indicates no usable encoder is compiled into FFmpeg.
	ErrEncoderNotFound = errors.New("fftranscode: encoder not found")

	// ErrDecoderNotFound indicates the input codec has no decoder.
	ErrDecoderNotFound = errors.New("fftranscode: decoder not found")

	// ErrInvalidFormat indicates an AudioFormat failed validation.
	ErrInvalidFormat = errors.New("fftranscode: invalid audio format")

	// ErrPartialSample indicates a byte buffer that does not hold a whole
	// number of samples.
	ErrPartialSample = errors.New("fftranscode: buffer length is not a whole number of samples")

	// ErrResamplerConfigured is the panic value of a second Resampler.Configure.
	ErrResamplerConfigured = errors.New("fftranscode: resampler already configured")

	// ErrResamplerNotConfigured indicates Convert was called before Configure.
	ErrResamplerNotConfigured = errors.New("fftranscode: resampler not configured")

	// ErrHeaderWritten indicates a second WriteHeader call.
	ErrHeaderWritten = errors.New("fftranscode: header already written")

	// ErrHeaderNotWritten indicates packets or a trailer before the header.
	ErrHeaderNotWritten = errors.New("fftranscode: header not written")

	// ErrTrailerWritten indicates writes after the trailer.
	ErrTrailerWritten = errors.New("fftranscode: trailer already written")

	// ErrSessionUsed indicates Run was called twice on one Transcoder.
	ErrSessionUsed = errors.New("fftranscode: transcoder already ran")
)

// Error kinds. Each kind type unwraps to its sentinel and to the cause, so
// both errors.Is(err, ErrDecode) and errors.As(err, &*avutil.Error) work.
var (
	ErrFileOpen   = errors.New("fftranscode: file open failed")
	ErrStreamRead = errors.New("fftranscode: stream read failed")
	ErrDecode     = errors.New("fftranscode: decode failed")
	ErrResample   = errors.New("fftranscode: resample failed")
	ErrEncode     = errors.New("fftranscode: encode failed")
	ErrMuxWrite   = errors.New("fftranscode: mux write failed")
)

// FileOpenError reports a container, codec or I/O setup failure. Fatal.
type FileOpenError struct {
	Path string
	Err  error
}

func (e *FileOpenError) Error() string {
	return fmt.Sprintf("fftranscode: open %s: %v", e.Path, e.Err)
}

func (e *FileOpenError) Unwrap() []error { return []error{ErrFileOpen, e.Err} }

// StreamReadError reports a failed packet read. The packet is skipped.
type StreamReadError struct {
	Path string
	Err  error
}

func (e *StreamReadError) Error() string {
	return fmt.Sprintf("fftranscode: read %s: %v", e.Path, e.Err)
}

func (e *StreamReadError) Unwrap() []error { return []error{ErrStreamRead, e.Err} }

// DecodeError reports a packet the decoder rejected. The packet is skipped.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return "fftranscode: decode: " + e.Err.Error() }

func (e *DecodeError) Unwrap() []error { return []error{ErrDecode, e.Err} }

// ResampleError reports a resampler failure. Fatal.
type ResampleError struct {
	Err error
}

func (e *ResampleError) Error() string { return "fftranscode: resample: " + e.Err.Error() }

func (e *ResampleError) Unwrap() []error { return []error{ErrResample, e.Err} }

// EncodeError reports an encoder failure. Fatal.
type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string { return "fftranscode: encode: " + e.Err.Error() }

func (e *EncodeError) Unwrap() []error { return []error{ErrEncode, e.Err} }

// MuxWriteError reports a header, packet or trailer write failure. Fatal.
type MuxWriteError struct {
	Path string
	Err  error
}

func (e *MuxWriteError) Error() string {
	return fmt.Sprintf("fftranscode: write %s: %v", e.Path, e.Err)
}

func (e *MuxWriteError) Unwrap() []error { return []error{ErrMuxWrite, e.Err} }

// IsFatal reports whether err aborts a session. Read and decode errors are
// recoverable, everything else is not.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrStreamRead) && !errors.Is(err, ErrDecode)
}

// IsEOF returns true if the error indicates end of file.
func IsEOF(err error) bool {
	return avutil.IsEOF(err)
}

// ErrorCode returns the FFmpeg error code from an error, or 0 if not an FFmpeg error.
func ErrorCode(err error) int32 {
	return avutil.Code(err)
}
