//go:build !ios && !android && (amd64 || arm64)

package avutil

import (
	"runtime"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/obinnaokechukwu/fftranscode/internal/bindings"
)

// OptSearchChildren makes av_opt_set look into child objects such as the
// private codec context.
const OptSearchChildren = 1

var (
	avOptSet    func(obj unsafe.Pointer, name, val string, searchFlags int32) int32
	avOptSetInt func(obj unsafe.Pointer, name string, val int64, searchFlags int32) int32
)

func registerOptBindings(lib uintptr) {
	purego.RegisterLibFunc(&avOptSet, lib, "av_opt_set")
	purego.RegisterLibFunc(&avOptSetInt, lib, "av_opt_set_int")
}

// OptSet sets a string-valued AVOption on obj.
func OptSet(obj unsafe.Pointer, name, val string, searchFlags int32) error {
	if avOptSet == nil {
		return bindings.ErrNotLoaded
	}
	ret := avOptSet(obj, name, val, searchFlags)
	runtime.KeepAlive(name)
	runtime.KeepAlive(val)
	if ret < 0 {
		return NewError(ret, "av_opt_set("+name+")")
	}
	return nil
}

// OptSetInt sets an integer-valued AVOption on obj.
func OptSetInt(obj unsafe.Pointer, name string, val int64, searchFlags int32) error {
	if avOptSetInt == nil {
		return bindings.ErrNotLoaded
	}
	ret := avOptSetInt(obj, name, val, searchFlags)
	runtime.KeepAlive(name)
	if ret < 0 {
		return NewError(ret, "av_opt_set_int("+name+")")
	}
	return nil
}
