//go:build !ios && !android && (amd64 || arm64)

package avutil

import (
	"errors"
	"fmt"
	"syscall"
)

// FFmpeg error codes. POSIX failures are negated errno values; FFmpeg's own
// failures are negated four-byte tags, spelled out here as FFERRTAG does.
const (
	AVERROR_EAGAIN int32 = -int32(syscall.EAGAIN)
	AVERROR_EINVAL int32 = -int32(syscall.EINVAL)
	AVERROR_ENOMEM int32 = -int32(syscall.ENOMEM)
	AVERROR_ENOENT int32 = -int32(syscall.ENOENT)

	AVERROR_EOF               int32 = -('E' | 'O'<<8 | 'F'<<16 | ' '<<24)
	AVERROR_INVALIDDATA       int32 = -('I' | 'N'<<8 | 'D'<<16 | 'A'<<24)
	AVERROR_BUG               int32 = -('B' | 'U'<<8 | 'G'<<16 | '!'<<24)
	AVERROR_UNKNOWN           int32 = -('U' | 'N'<<8 | 'K'<<16 | 'N'<<24)
	AVERROR_DECODER_NOT_FOUND int32 = -(0xF8 | 'D'<<8 | 'E'<<16 | 'C'<<24)
	AVERROR_ENCODER_NOT_FOUND int32 = -(0xF8 | 'E'<<8 | 'N'<<16 | 'C'<<24)
	AVERROR_DEMUXER_NOT_FOUND int32 = -(0xF8 | 'D'<<8 | 'E'<<16 | 'M'<<24)
	AVERROR_MUXER_NOT_FOUND   int32 = -(0xF8 | 'M'<<8 | 'U'<<16 | 'X'<<24)
	AVERROR_STREAM_NOT_FOUND  int32 = -(0xF8 | 'S'<<8 | 'T'<<16 | 'R'<<24)
)

// maxErrno bounds the codes that are negated errno values rather than tags.
const maxErrno = 4095

// Error is a negative return code from an FFmpeg call.
type Error struct {
	Code    int32  // raw AVERROR value
	Message string // av_strerror text
	Op      string // FFmpeg function that failed
}

func (e *Error) Error() string {
	return fmt.Sprintf("ffmpeg %s: %s (code %d)", e.Op, e.Message, e.Code)
}

// Unwrap exposes POSIX failures as a syscall.Errno, so a missing input
// satisfies errors.Is(err, fs.ErrNotExist).
func (e *Error) Unwrap() error {
	if e.Code < 0 && e.Code >= -maxErrno {
		return syscall.Errno(-e.Code)
	}
	return nil
}

// NewError wraps a return code from op. It returns nil for codes >= 0.
func NewError(code int32, op string) error {
	if code >= 0 {
		return nil
	}
	return &Error{Code: code, Message: ErrorString(code), Op: op}
}

// Code returns the AVERROR value carried by err, or 0.
func Code(err error) int32 {
	var ffErr *Error
	if errors.As(err, &ffErr) {
		return ffErr.Code
	}
	return 0
}

// IsEOF reports whether a codec or demuxer has no more output.
func IsEOF(err error) bool { return Code(err) == AVERROR_EOF }

// IsAgain reports whether a codec wants more input before producing output.
func IsAgain(err error) bool { return Code(err) == AVERROR_EAGAIN }
