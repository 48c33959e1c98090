//go:build !ios && !android && (amd64 || arm64)

package fftranscode

import (
	"unsafe"

	"github.com/obinnaokechukwu/fftranscode/avcodec"
	"github.com/obinnaokechukwu/fftranscode/avutil"
)

// Frame is a block of decoded PCM audio backed by an AVFrame.
// A Frame owns its buffers until Close.
type Frame struct {
	ptr avutil.Frame
}

// allocAudioFrame allocates a writable frame for n samples of format.
func allocAudioFrame(format AudioFormat, n int) (*Frame, error) {
	ptr := avutil.FrameAlloc()
	if ptr == nil {
		return nil, ErrOutOfMemory
	}
	avutil.SetFrameNbSamples(ptr, int32(n))
	avutil.SetFrameFormat(ptr, int32(format.SampleFormat))
	avutil.SetFrameSampleRate(ptr, int32(format.SampleRate))

	chLayout := avutil.GetFrameChLayoutPtr(ptr)
	if mask := uint64(format.ChannelLayout); mask != 0 {
		avutil.ChannelLayoutFromMask(chLayout, int32(format.Channels), mask)
	} else {
		avutil.ChannelLayoutDefault(chLayout, int32(format.Channels))
	}

	if err := avutil.FrameGetBuffer(ptr, 0); err != nil {
		avutil.FrameFree(&ptr)
		return nil, err
	}
	return &Frame{ptr: ptr}, nil
}

// Raw returns the underlying AVFrame pointer.
func (f *Frame) Raw() avutil.Frame {
	if f == nil {
		return nil
	}
	return f.ptr
}

// NumSamples returns the number of samples per channel.
func (f *Frame) NumSamples() int {
	if f == nil {
		return 0
	}
	return int(avutil.GetFrameNbSamples(f.ptr))
}

// Channels returns the channel count.
func (f *Frame) Channels() int {
	if f == nil {
		return 0
	}
	return int(avutil.GetFrameChannels(f.ptr))
}

// Format returns the sample format.
func (f *Frame) Format() SampleFormat {
	if f == nil {
		return SampleFormatNone
	}
	return SampleFormat(avutil.GetFrameFormat(f.ptr))
}

// SampleRate returns the sample rate.
func (f *Frame) SampleRate() int {
	if f == nil {
		return 0
	}
	return int(avutil.GetFrameSampleRate(f.ptr))
}

// PTS returns the presentation timestamp, or avutil.NoPTSValue.
func (f *Frame) PTS() int64 {
	if f == nil {
		return avutil.NoPTSValue
	}
	return avutil.GetFramePTS(f.ptr)
}

// AudioFormat describes the frame's samples.
func (f *Frame) AudioFormat() AudioFormat {
	if f == nil {
		return AudioFormat{}
	}
	return AudioFormat{
		SampleRate:    f.SampleRate(),
		Channels:      f.Channels(),
		ChannelLayout: ChannelLayout(avutil.ChannelLayoutMask(avutil.GetFrameChLayoutPtr(f.ptr))),
		SampleFormat:  f.Format(),
	}
}

// Plane returns a view of one data plane, trimmed to the sample data.
// Packed formats have a single plane. The slice is invalid after Close.
func (f *Frame) Plane(i int) []byte {
	if f == nil || f.ptr == nil {
		return nil
	}
	format := f.AudioFormat()
	if i < 0 || i >= format.Planes() {
		return nil
	}
	data := avutil.GetFrameDataPlane(f.ptr, i)
	size := format.PlaneSize(f.NumSamples())
	if data == nil || size <= 0 {
		return nil
	}
	return unsafe.Slice((*byte)(data), size)
}

// dataArray returns the uint8_t ** plane array for FFmpeg calls.
func (f *Frame) dataArray() unsafe.Pointer {
	return avutil.GetFrameDataArray(f.ptr)
}

// Close frees the frame. Safe to call more than once.
func (f *Frame) Close() error {
	if f == nil || f.ptr == nil {
		return nil
	}
	avutil.FrameFree(&f.ptr)
	f.ptr = nil
	return nil
}

// Packet is a unit of compressed data backed by an AVPacket.
type Packet struct {
	ptr avcodec.Packet
}

func allocPacket() (*Packet, error) {
	ptr := avcodec.PacketAlloc()
	if ptr == nil {
		return nil, ErrOutOfMemory
	}
	return &Packet{ptr: ptr}, nil
}

// Raw returns the underlying AVPacket pointer.
func (p *Packet) Raw() avcodec.Packet {
	if p == nil {
		return nil
	}
	return p.ptr
}

// StreamIndex returns the index of the stream the packet belongs to.
func (p *Packet) StreamIndex() int {
	if p == nil {
		return -1
	}
	return int(avcodec.GetPacketStreamIndex(p.ptr))
}

// Size returns the payload size in bytes.
func (p *Packet) Size() int {
	if p == nil {
		return 0
	}
	return int(avcodec.GetPacketSize(p.ptr))
}

// Data returns a view of the payload. The slice is invalid after Close or
// after the packet is written.
func (p *Packet) Data() []byte {
	if p == nil || p.ptr == nil {
		return nil
	}
	data := avcodec.GetPacketData(p.ptr)
	size := p.Size()
	if data == nil || size <= 0 {
		return nil
	}
	return unsafe.Slice((*byte)(data), size)
}

// PTS returns the presentation timestamp in the producer's time base.
func (p *Packet) PTS() int64 {
	if p == nil {
		return avutil.NoPTSValue
	}
	return avcodec.GetPacketPTS(p.ptr)
}

// DTS returns the decoding timestamp in the producer's time base.
func (p *Packet) DTS() int64 {
	if p == nil {
		return avutil.NoPTSValue
	}
	return avcodec.GetPacketDTS(p.ptr)
}

// Duration returns the packet duration in the producer's time base.
func (p *Packet) Duration() int64 {
	if p == nil {
		return 0
	}
	return avcodec.GetPacketDuration(p.ptr)
}

// IsKey reports whether the packet is a keyframe.
func (p *Packet) IsKey() bool {
	if p == nil {
		return false
	}
	return avcodec.GetPacketFlags(p.ptr)&avcodec.PacketFlagKey != 0
}

// Close frees the packet. Safe to call more than once.
func (p *Packet) Close() error {
	if p == nil || p.ptr == nil {
		return nil
	}
	avcodec.PacketFree(&p.ptr)
	p.ptr = nil
	return nil
}

func closePackets(pkts []*Packet) {
	for _, p := range pkts {
		p.Close()
	}
}
