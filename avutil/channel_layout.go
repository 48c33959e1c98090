//go:build !ios && !android && (amd64 || arm64)

package avutil

import (
	"unsafe"

	"github.com/obinnaokechukwu/fftranscode/internal/bindings"
)

// AVChannelLayout (FFmpeg 5.1+) on 64-bit platforms:
//
//	order       int32   0
//	nb_channels int32   4
//	u.mask      uint64  8
//	opaque      void*  16
const ChannelLayoutSize = 24

// Channel order constants
const (
	ChannelOrderUnspec = 0 // AV_CHANNEL_ORDER_UNSPEC
	ChannelOrderNative = 1 // AV_CHANNEL_ORDER_NATIVE
)

// ChannelLayoutAlloc allocates a zeroed AVChannelLayout in FFmpeg memory.
// Release it with ChannelLayoutFree.
func ChannelLayoutAlloc() unsafe.Pointer {
	layout := Malloc(ChannelLayoutSize)
	if layout == nil {
		return nil
	}
	clear(unsafe.Slice((*byte)(layout), ChannelLayoutSize))
	return layout
}

// ChannelLayoutFree uninitializes and frees a layout from ChannelLayoutAlloc.
func ChannelLayoutFree(layout unsafe.Pointer) {
	if layout == nil {
		return
	}
	ChannelLayoutUninit(layout)
	Free(layout)
}

// ChannelLayoutDefault sets the default native layout for nbChannels.
func ChannelLayoutDefault(chLayout unsafe.Pointer, nbChannels int32) {
	if avChannelLayoutDefault == nil || chLayout == nil {
		return
	}
	avChannelLayoutDefault(chLayout, nbChannels)
}

// ChannelLayoutFromMask writes a native-order layout with the given mask.
func ChannelLayoutFromMask(chLayout unsafe.Pointer, nbChannels int32, mask uint64) {
	if chLayout == nil || nbChannels <= 0 {
		return
	}
	*(*int32)(chLayout) = ChannelOrderNative
	*(*int32)(unsafe.Add(chLayout, 4)) = nbChannels
	*(*uint64)(unsafe.Add(chLayout, 8)) = mask
	*(*unsafe.Pointer)(unsafe.Add(chLayout, 16)) = nil
}

// ChannelLayoutCopy copies a channel layout from src to dst.
func ChannelLayoutCopy(dst, src unsafe.Pointer) error {
	if avChannelLayoutCopy == nil {
		return bindings.ErrNotLoaded
	}
	ret := avChannelLayoutCopy(dst, src)
	if ret < 0 {
		return NewError(ret, "av_channel_layout_copy")
	}
	return nil
}

// ChannelLayoutUninit releases any allocation owned by the layout.
func ChannelLayoutUninit(chLayout unsafe.Pointer) {
	if avChannelLayoutUninit == nil || chLayout == nil {
		return
	}
	avChannelLayoutUninit(chLayout)
}

// ChannelLayoutOrder returns the layout's channel order.
func ChannelLayoutOrder(chLayout unsafe.Pointer) int32 {
	if chLayout == nil {
		return ChannelOrderUnspec
	}
	return *(*int32)(chLayout)
}

// ChannelLayoutNbChannels returns the layout's channel count.
func ChannelLayoutNbChannels(chLayout unsafe.Pointer) int32 {
	if chLayout == nil {
		return 0
	}
	return *(*int32)(unsafe.Add(chLayout, 4))
}

// ChannelLayoutMask returns the channel mask for native-order layouts and 0
// otherwise.
func ChannelLayoutMask(chLayout unsafe.Pointer) uint64 {
	if ChannelLayoutOrder(chLayout) != ChannelOrderNative {
		return 0
	}
	return *(*uint64)(unsafe.Add(chLayout, 8))
}

// ChannelLayoutDescribe returns FFmpeg's name for the layout ("stereo", "5.1").
func ChannelLayoutDescribe(chLayout unsafe.Pointer) string {
	if avChannelLayoutDescr == nil || chLayout == nil {
		return ""
	}
	buf := make([]byte, 64)
	if avChannelLayoutDescr(chLayout, unsafe.Pointer(&buf[0]), uintptr(len(buf))) < 0 {
		return ""
	}
	return cString(buf)
}
