//go:build !ios && !android && (amd64 || arm64)

// Package swresample provides audio resampling and format conversion using FFmpeg's libswresample.
package swresample

import (
	"runtime"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/obinnaokechukwu/fftranscode/avutil"
	"github.com/obinnaokechukwu/fftranscode/internal/bindings"
)

// SwrContext is an opaque audio resampling context
type SwrContext = unsafe.Pointer

// Function bindings
var (
	swrInit          func(s unsafe.Pointer) int32
	swrFree          func(s *SwrContext)
	swrConvert       func(s, out unsafe.Pointer, outCount int32, in unsafe.Pointer, inCount int32) int32
	swrGetDelay      func(s unsafe.Pointer, base int64) int64
	swrGetOutSamples func(s unsafe.Pointer, inSamples int32) int32
	swrIsInitialized func(s unsafe.Pointer) int32

	swrAllocSetOpts2 func(ps *SwrContext,
		outChLayout unsafe.Pointer, outFmt, outRate int32,
		inChLayout unsafe.Pointer, inFmt, inRate int32,
		logOffset int32, logCtx unsafe.Pointer) int32

	bindingsRegistered bool
)

func init() {
	registerBindings()
}

func registerBindings() {
	if bindingsRegistered {
		return
	}
	if err := bindings.Load(); err != nil {
		return
	}
	lib := bindings.LibSWResample()
	if lib == 0 {
		return
	}

	purego.RegisterLibFunc(&swrInit, lib, "swr_init")
	purego.RegisterLibFunc(&swrFree, lib, "swr_free")
	purego.RegisterLibFunc(&swrConvert, lib, "swr_convert")
	purego.RegisterLibFunc(&swrGetDelay, lib, "swr_get_delay")
	purego.RegisterLibFunc(&swrGetOutSamples, lib, "swr_get_out_samples")
	purego.RegisterLibFunc(&swrIsInitialized, lib, "swr_is_initialized")
	purego.RegisterLibFunc(&swrAllocSetOpts2, lib, "swr_alloc_set_opts2")

	bindingsRegistered = true
}

// AllocSetOpts2 allocates and configures a SwrContext. outChLayout and
// inChLayout point to AVChannelLayout structs; the context copies them.
func AllocSetOpts2(ps *SwrContext, outChLayout unsafe.Pointer, outFmt avutil.SampleFormat, outRate int32,
	inChLayout unsafe.Pointer, inFmt avutil.SampleFormat, inRate int32) error {
	if swrAllocSetOpts2 == nil {
		return bindings.ErrNotLoaded
	}
	ret := swrAllocSetOpts2(ps, outChLayout, int32(outFmt), outRate, inChLayout, int32(inFmt), inRate, 0, nil)
	if ret < 0 {
		return avutil.NewError(ret, "swr_alloc_set_opts2")
	}
	return nil
}

// InitContext initializes a SwrContext after options have been set.
func InitContext(s SwrContext) error {
	if swrInit == nil {
		return bindings.ErrNotLoaded
	}
	ret := swrInit(s)
	if ret < 0 {
		return avutil.NewError(ret, "swr_init")
	}
	return nil
}

// Free releases a SwrContext and sets the pointer to nil.
func Free(s *SwrContext) {
	if s == nil || *s == nil || swrFree == nil {
		return
	}
	swrFree(s)
	*s = nil
}

// Convert resamples audio. out and in are arrays of plane pointers; a nil
// in with inCount 0 flushes buffered samples. Returns samples written per
// channel.
func Convert(s SwrContext, out unsafe.Pointer, outCount int32, in unsafe.Pointer, inCount int32) (int, error) {
	if swrConvert == nil {
		return 0, bindings.ErrNotLoaded
	}
	ret := swrConvert(s, out, outCount, in, inCount)
	runtime.KeepAlive(out)
	runtime.KeepAlive(in)
	if ret < 0 {
		return 0, avutil.NewError(ret, "swr_convert")
	}
	return int(ret), nil
}

// GetDelay returns the buffered delay expressed in 1/base units.
func GetDelay(s SwrContext, base int64) int64 {
	if s == nil || swrGetDelay == nil {
		return 0
	}
	return swrGetDelay(s, base)
}

// GetOutSamples returns an upper bound on the output produced by the next
// Convert call with inSamples input.
func GetOutSamples(s SwrContext, inSamples int32) (int, error) {
	if swrGetOutSamples == nil {
		return 0, bindings.ErrNotLoaded
	}
	ret := swrGetOutSamples(s, inSamples)
	if ret < 0 {
		return 0, avutil.NewError(ret, "swr_get_out_samples")
	}
	return int(ret), nil
}

// IsInitialized reports whether InitContext succeeded on s.
func IsInitialized(s SwrContext) bool {
	if s == nil || swrIsInitialized == nil {
		return false
	}
	return swrIsInitialized(s) != 0
}
