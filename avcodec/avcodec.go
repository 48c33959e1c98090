//go:build !ios && !android && (amd64 || arm64)

// Package avcodec provides bindings to FFmpeg's libavcodec library.
// It covers audio codec discovery, codec contexts, packets, and the
// send/receive encode and decode API.
package avcodec

import (
	"runtime"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/obinnaokechukwu/fftranscode/avutil"
	"github.com/obinnaokechukwu/fftranscode/internal/bindings"
)

// Codec is an opaque FFmpeg AVCodec pointer.
type Codec = unsafe.Pointer

// Context is an opaque FFmpeg AVCodecContext pointer.
type Context = unsafe.Pointer

// Packet is an opaque FFmpeg AVPacket pointer.
type Packet = unsafe.Pointer

// Parameters is an opaque FFmpeg AVCodecParameters pointer.
type Parameters = unsafe.Pointer

// Function bindings
var (
	avcodecFindDecoder       func(id int32) uintptr
	avcodecFindEncoder       func(id int32) uintptr
	avcodecFindEncoderByName func(name string) uintptr
	avcodecAllocContext3     func(codec uintptr) uintptr
	avcodecFreeContext       func(ctx *unsafe.Pointer)
	avcodecOpen2             func(ctx, codec uintptr, options *unsafe.Pointer) int32
	avcodecSendPacket        func(ctx, pkt uintptr) int32
	avcodecReceiveFrame      func(ctx, frame uintptr) int32
	avcodecSendFrame         func(ctx, frame uintptr) int32
	avcodecReceivePacket     func(ctx, pkt uintptr) int32
	avcodecParametersToCtx   func(ctx, par uintptr) int32
	avcodecParametersFromCtx func(par, ctx uintptr) int32

	avPacketAlloc func() uintptr
	avPacketFree  func(pkt *unsafe.Pointer)
	avPacketUnref func(pkt uintptr)

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

	lib := bindings.LibAVCodec()
	if lib == 0 {
		return
	}

	purego.RegisterLibFunc(&avcodecFindDecoder, lib, "avcodec_find_decoder")
	purego.RegisterLibFunc(&avcodecFindEncoder, lib, "avcodec_find_encoder")
	purego.RegisterLibFunc(&avcodecFindEncoderByName, lib, "avcodec_find_encoder_by_name")
	purego.RegisterLibFunc(&avcodecAllocContext3, lib, "avcodec_alloc_context3")
	purego.RegisterLibFunc(&avcodecFreeContext, lib, "avcodec_free_context")
	purego.RegisterLibFunc(&avcodecOpen2, lib, "avcodec_open2")
	purego.RegisterLibFunc(&avcodecSendPacket, lib, "avcodec_send_packet")
	purego.RegisterLibFunc(&avcodecReceiveFrame, lib, "avcodec_receive_frame")
	purego.RegisterLibFunc(&avcodecSendFrame, lib, "avcodec_send_frame")
	purego.RegisterLibFunc(&avcodecReceivePacket, lib, "avcodec_receive_packet")
	purego.RegisterLibFunc(&avcodecParametersToCtx, lib, "avcodec_parameters_to_context")
	purego.RegisterLibFunc(&avcodecParametersFromCtx, lib, "avcodec_parameters_from_context")

	purego.RegisterLibFunc(&avPacketAlloc, lib, "av_packet_alloc")
	purego.RegisterLibFunc(&avPacketFree, lib, "av_packet_free")
	purego.RegisterLibFunc(&avPacketUnref, lib, "av_packet_unref")

	bindingsRegistered = true
}

// FindDecoder finds a decoder by codec ID.
func FindDecoder(id CodecID) Codec {
	if avcodecFindDecoder == nil {
		return nil
	}
	return unsafe.Pointer(avcodecFindDecoder(int32(id)))
}

// FindEncoder finds an encoder by codec ID.
func FindEncoder(id CodecID) Codec {
	if avcodecFindEncoder == nil {
		return nil
	}
	return unsafe.Pointer(avcodecFindEncoder(int32(id)))
}

// FindEncoderByName finds an encoder by name ("libopus", "aac").
func FindEncoderByName(name string) Codec {
	if avcodecFindEncoderByName == nil {
		return nil
	}
	codec := unsafe.Pointer(avcodecFindEncoderByName(name))
	runtime.KeepAlive(name)
	return codec
}

// AllocContext3 allocates a codec context.
func AllocContext3(codec Codec) Context {
	if avcodecAllocContext3 == nil {
		return nil
	}
	return unsafe.Pointer(avcodecAllocContext3(uintptr(codec)))
}

// FreeContext frees a codec context and sets the pointer to nil.
func FreeContext(ctx *Context) {
	if ctx == nil || *ctx == nil || avcodecFreeContext == nil {
		return
	}
	freeStaged(avcodecFreeContext, ctx)
}

// freeStaged calls an FFmpeg free(T **) function with the pointer staged in
// FFmpeg-allocated memory. Passing a pointer into Go memory to foreign code
// aborts on some purego backends.
func freeStaged(fn func(*unsafe.Pointer), ptr *unsafe.Pointer) {
	tmp := avutil.Malloc(unsafe.Sizeof(uintptr(0)))
	if tmp == nil {
		fn(ptr)
		*ptr = nil
		return
	}
	*(*unsafe.Pointer)(tmp) = *ptr
	fn((*unsafe.Pointer)(tmp))
	avutil.Free(tmp)
	*ptr = nil
}

// Open2 opens a codec context.
func Open2(ctx Context, codec Codec) error {
	if avcodecOpen2 == nil {
		return bindings.ErrNotLoaded
	}
	ret := avcodecOpen2(uintptr(ctx), uintptr(codec), nil)
	if ret < 0 {
		return avutil.NewError(ret, "avcodec_open2")
	}
	return nil
}

// SendPacket sends a packet to the decoder. A nil packet enters draining
// mode. EAGAIN and EOF are returned as *avutil.Error so callers can tell
// them apart.
func SendPacket(ctx Context, pkt Packet) error {
	if avcodecSendPacket == nil {
		return bindings.ErrNotLoaded
	}
	ret := avcodecSendPacket(uintptr(ctx), uintptr(pkt))
	runtime.KeepAlive(pkt)
	if ret < 0 {
		return avutil.NewError(ret, "avcodec_send_packet")
	}
	return nil
}

// ReceiveFrame receives a decoded frame from the decoder.
func ReceiveFrame(ctx Context, frame avutil.Frame) error {
	if avcodecReceiveFrame == nil {
		return bindings.ErrNotLoaded
	}
	ret := avcodecReceiveFrame(uintptr(ctx), uintptr(frame))
	if ret < 0 {
		return avutil.NewError(ret, "avcodec_receive_frame")
	}
	return nil
}

// SendFrame sends a frame to the encoder. A nil frame enters draining mode.
func SendFrame(ctx Context, frame avutil.Frame) error {
	if avcodecSendFrame == nil {
		return bindings.ErrNotLoaded
	}
	ret := avcodecSendFrame(uintptr(ctx), uintptr(frame))
	runtime.KeepAlive(frame)
	if ret < 0 {
		return avutil.NewError(ret, "avcodec_send_frame")
	}
	return nil
}

// ReceivePacket receives an encoded packet from the encoder.
func ReceivePacket(ctx Context, pkt Packet) error {
	if avcodecReceivePacket == nil {
		return bindings.ErrNotLoaded
	}
	ret := avcodecReceivePacket(uintptr(ctx), uintptr(pkt))
	if ret < 0 {
		return avutil.NewError(ret, "avcodec_receive_packet")
	}
	return nil
}

// ParametersToContext copies codec parameters to a context.
func ParametersToContext(ctx Context, par Parameters) error {
	if avcodecParametersToCtx == nil {
		return bindings.ErrNotLoaded
	}
	ret := avcodecParametersToCtx(uintptr(ctx), uintptr(par))
	if ret < 0 {
		return avutil.NewError(ret, "avcodec_parameters_to_context")
	}
	return nil
}

// ParametersFromContext copies codec parameters from a context.
func ParametersFromContext(par Parameters, ctx Context) error {
	if avcodecParametersFromCtx == nil {
		return bindings.ErrNotLoaded
	}
	ret := avcodecParametersFromCtx(uintptr(par), uintptr(ctx))
	if ret < 0 {
		return avutil.NewError(ret, "avcodec_parameters_from_context")
	}
	return nil
}

// AVCodec struct field offsets (FFmpeg 6.x / avcodec 60.x)
const (
	offsetCodecName                 = 0  // const char *name
	offsetCodecLongName             = 8  // const char *long_name
	offsetCodecType                 = 16 // enum AVMediaType type
	offsetCodecID                   = 20 // enum AVCodecID id
	offsetCodecCapabilities         = 24 // int capabilities
	offsetCodecSupportedSampleRates = 48 // const int *supported_samplerates
	offsetCodecSampleFmts           = 56 // const enum AVSampleFormat *sample_fmts
)

// Codec capability flags
const (
	CodecCapDelay             = 1 << 5  // AV_CODEC_CAP_DELAY
	CodecCapSmallLastFrame    = 1 << 6  // AV_CODEC_CAP_SMALL_LAST_FRAME
	CodecCapExperimental      = 1 << 9  // AV_CODEC_CAP_EXPERIMENTAL
	CodecCapVariableFrameSize = 1 << 16 // AV_CODEC_CAP_VARIABLE_FRAME_SIZE
)

// GetCodecName returns the short name of the codec.
func GetCodecName(codec Codec) string {
	if codec == nil {
		return ""
	}
	return goString(*(*unsafe.Pointer)(unsafe.Add(codec, offsetCodecName)))
}

// GetCodecLongName returns the descriptive name of the codec.
func GetCodecLongName(codec Codec) string {
	if codec == nil {
		return ""
	}
	return goString(*(*unsafe.Pointer)(unsafe.Add(codec, offsetCodecLongName)))
}

// GetCodecType returns the media type handled by the codec.
func GetCodecType(codec Codec) avutil.MediaType {
	if codec == nil {
		return avutil.MediaTypeUnknown
	}
	return avutil.MediaType(*(*int32)(unsafe.Add(codec, offsetCodecType)))
}

// GetCodecID returns the codec ID.
func GetCodecID(codec Codec) CodecID {
	if codec == nil {
		return CodecIDNone
	}
	return CodecID(*(*int32)(unsafe.Add(codec, offsetCodecID)))
}

// GetCodecCapabilities returns the AV_CODEC_CAP_* bitmask.
func GetCodecCapabilities(codec Codec) int32 {
	if codec == nil {
		return 0
	}
	return *(*int32)(unsafe.Add(codec, offsetCodecCapabilities))
}

// GetCodecSampleFormats returns the encoder's supported sample formats in
// preference order. An empty result means the codec accepts any format.
func GetCodecSampleFormats(codec Codec) []avutil.SampleFormat {
	if codec == nil {
		return nil
	}
	list := *(*unsafe.Pointer)(unsafe.Add(codec, offsetCodecSampleFmts))
	var out []avutil.SampleFormat
	for p := list; p != nil; p = unsafe.Add(p, 4) {
		v := *(*int32)(p)
		if v < 0 {
			break
		}
		out = append(out, avutil.SampleFormat(v))
	}
	return out
}

// GetCodecSupportedSampleRates returns the encoder's supported sample rates.
// An empty result means any rate is accepted.
func GetCodecSupportedSampleRates(codec Codec) []int {
	if codec == nil {
		return nil
	}
	list := *(*unsafe.Pointer)(unsafe.Add(codec, offsetCodecSupportedSampleRates))
	var out []int
	for p := list; p != nil; p = unsafe.Add(p, 4) {
		v := *(*int32)(p)
		if v == 0 {
			break
		}
		out = append(out, int(v))
	}
	return out
}

// goString converts a C string to a Go string.
func goString(ptr unsafe.Pointer) string {
	if ptr == nil {
		return ""
	}
	var buf []byte
	for i := 0; ; i++ {
		b := *(*byte)(unsafe.Add(ptr, i))
		if b == 0 {
			break
		}
		buf = append(buf, b)
	}
	return string(buf)
}
