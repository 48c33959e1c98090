//go:build !ios && !android && (amd64 || arm64)

package avcodec

import (
	"unsafe"

	"github.com/obinnaokechukwu/fftranscode/avutil"
)

// PacketAlloc allocates a packet.
func PacketAlloc() Packet {
	if avPacketAlloc == nil {
		return nil
	}
	return unsafe.Pointer(avPacketAlloc())
}

// PacketFree frees a packet and sets the pointer to nil.
func PacketFree(pkt *Packet) {
	if pkt == nil || *pkt == nil || avPacketFree == nil {
		return
	}
	freeStaged(avPacketFree, pkt)
}

// PacketUnref unreferences a packet's buffers.
func PacketUnref(pkt Packet) {
	if pkt == nil || avPacketUnref == nil {
		return
	}
	avPacketUnref(uintptr(pkt))
}

// Packet field offsets (for FFmpeg 6.x/7.x)
const (
	offsetPacketPts         = 8  // int64 pts
	offsetPacketDts         = 16 // int64 dts
	offsetPacketData        = 24 // uint8_t *data
	offsetPacketSize        = 32 // int size
	offsetPacketStreamIndex = 36 // int stream_index
	offsetPacketFlags       = 40 // int flags
	offsetPacketDuration    = 64 // int64 duration
)

// Packet flag constants
const (
	PacketFlagKey     = 0x0001 // AV_PKT_FLAG_KEY
	PacketFlagCorrupt = 0x0002 // AV_PKT_FLAG_CORRUPT
)

// GetPacketPTS returns the presentation timestamp.
func GetPacketPTS(pkt Packet) int64 {
	if pkt == nil {
		return avutil.NoPTSValue
	}
	return *(*int64)(unsafe.Add(pkt, offsetPacketPts))
}

// SetPacketPTS sets the presentation timestamp.
func SetPacketPTS(pkt Packet, pts int64) {
	if pkt == nil {
		return
	}
	*(*int64)(unsafe.Add(pkt, offsetPacketPts)) = pts
}

// GetPacketDTS returns the decompression timestamp.
func GetPacketDTS(pkt Packet) int64 {
	if pkt == nil {
		return avutil.NoPTSValue
	}
	return *(*int64)(unsafe.Add(pkt, offsetPacketDts))
}

// SetPacketDTS sets the decompression timestamp.
func SetPacketDTS(pkt Packet, dts int64) {
	if pkt == nil {
		return
	}
	*(*int64)(unsafe.Add(pkt, offsetPacketDts)) = dts
}

// GetPacketData returns a pointer to the packet payload.
func GetPacketData(pkt Packet) unsafe.Pointer {
	if pkt == nil {
		return nil
	}
	return *(*unsafe.Pointer)(unsafe.Add(pkt, offsetPacketData))
}

// GetPacketSize returns the payload size in bytes.
func GetPacketSize(pkt Packet) int32 {
	if pkt == nil {
		return 0
	}
	return *(*int32)(unsafe.Add(pkt, offsetPacketSize))
}

// GetPacketStreamIndex returns the stream index.
func GetPacketStreamIndex(pkt Packet) int32 {
	if pkt == nil {
		return -1
	}
	return *(*int32)(unsafe.Add(pkt, offsetPacketStreamIndex))
}

// SetPacketStreamIndex sets the stream index.
func SetPacketStreamIndex(pkt Packet, idx int32) {
	if pkt == nil {
		return
	}
	*(*int32)(unsafe.Add(pkt, offsetPacketStreamIndex)) = idx
}

// GetPacketFlags returns the AV_PKT_FLAG_* bitmask.
func GetPacketFlags(pkt Packet) int32 {
	if pkt == nil {
		return 0
	}
	return *(*int32)(unsafe.Add(pkt, offsetPacketFlags))
}

// GetPacketDuration returns the packet duration in its time base.
func GetPacketDuration(pkt Packet) int64 {
	if pkt == nil {
		return 0
	}
	return *(*int64)(unsafe.Add(pkt, offsetPacketDuration))
}

// SetPacketDuration sets the packet duration in its time base.
func SetPacketDuration(pkt Packet, dur int64) {
	if pkt == nil {
		return
	}
	*(*int64)(unsafe.Add(pkt, offsetPacketDuration)) = dur
}

// RescalePacketTS rescales pts, dts and duration from srcTb to dstTb,
// equivalent to av_packet_rescale_ts().
func RescalePacketTS(pkt Packet, srcTb, dstTb avutil.Rational) {
	if pkt == nil {
		return
	}
	if pts := GetPacketPTS(pkt); pts != avutil.NoPTSValue {
		SetPacketPTS(pkt, avutil.RescaleQ(pts, srcTb, dstTb))
	}
	if dts := GetPacketDTS(pkt); dts != avutil.NoPTSValue {
		SetPacketDTS(pkt, avutil.RescaleQ(dts, srcTb, dstTb))
	}
	// 0 means unknown and stays as-is.
	if dur := GetPacketDuration(pkt); dur > 0 {
		SetPacketDuration(pkt, avutil.RescaleQ(dur, srcTb, dstTb))
	}
}
