//go:build !ios && !android && (amd64 || arm64)

package avutil

import (
	"runtime"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/obinnaokechukwu/fftranscode/internal/bindings"
)

// AudioFifo is an opaque FFmpeg AVAudioFifo pointer.
type AudioFifo = unsafe.Pointer

var (
	avAudioFifoAlloc func(sampleFmt, channels, nbSamples int32) unsafe.Pointer
	avAudioFifoFree  func(af unsafe.Pointer)
	avAudioFifoWrite func(af unsafe.Pointer, data unsafe.Pointer, nbSamples int32) int32
	avAudioFifoRead  func(af unsafe.Pointer, data unsafe.Pointer, nbSamples int32) int32
	avAudioFifoSize  func(af unsafe.Pointer) int32
	avAudioFifoSpace func(af unsafe.Pointer) int32
)

func registerFIFOBindings(lib uintptr) {
	purego.RegisterLibFunc(&avAudioFifoAlloc, lib, "av_audio_fifo_alloc")
	purego.RegisterLibFunc(&avAudioFifoFree, lib, "av_audio_fifo_free")
	purego.RegisterLibFunc(&avAudioFifoWrite, lib, "av_audio_fifo_write")
	purego.RegisterLibFunc(&avAudioFifoRead, lib, "av_audio_fifo_read")
	purego.RegisterLibFunc(&avAudioFifoSize, lib, "av_audio_fifo_size")
	purego.RegisterLibFunc(&avAudioFifoSpace, lib, "av_audio_fifo_space")
}

// AudioFifoAlloc allocates a FIFO holding nbSamples of the given layout.
func AudioFifoAlloc(format SampleFormat, channels, nbSamples int32) (AudioFifo, error) {
	if avAudioFifoAlloc == nil {
		return nil, bindings.ErrNotLoaded
	}
	af := avAudioFifoAlloc(int32(format), channels, nbSamples)
	if af == nil {
		return nil, NewError(AVERROR_ENOMEM, "av_audio_fifo_alloc")
	}
	return af, nil
}

// AudioFifoFree frees the FIFO and sets the pointer to nil.
func AudioFifoFree(af *AudioFifo) {
	if af == nil || *af == nil || avAudioFifoFree == nil {
		return
	}
	avAudioFifoFree(*af)
	*af = nil
}

// AudioFifoWrite appends nbSamples from the plane-pointer array data.
// The FIFO grows automatically; the return value is the count written.
func AudioFifoWrite(af AudioFifo, data unsafe.Pointer, nbSamples int32) (int, error) {
	if avAudioFifoWrite == nil {
		return 0, bindings.ErrNotLoaded
	}
	ret := avAudioFifoWrite(af, data, nbSamples)
	runtime.KeepAlive(data)
	if ret < 0 {
		return 0, NewError(ret, "av_audio_fifo_write")
	}
	return int(ret), nil
}

// AudioFifoRead removes up to nbSamples into the plane-pointer array data.
func AudioFifoRead(af AudioFifo, data unsafe.Pointer, nbSamples int32) (int, error) {
	if avAudioFifoRead == nil {
		return 0, bindings.ErrNotLoaded
	}
	ret := avAudioFifoRead(af, data, nbSamples)
	runtime.KeepAlive(data)
	if ret < 0 {
		return 0, NewError(ret, "av_audio_fifo_read")
	}
	return int(ret), nil
}

// AudioFifoSize returns the number of buffered samples per channel.
func AudioFifoSize(af AudioFifo) int {
	if af == nil || avAudioFifoSize == nil {
		return 0
	}
	return int(avAudioFifoSize(af))
}

// AudioFifoSpace returns how many samples fit before the next reallocation.
func AudioFifoSpace(af AudioFifo) int {
	if af == nil || avAudioFifoSpace == nil {
		return 0
	}
	return int(avAudioFifoSpace(af))
}

