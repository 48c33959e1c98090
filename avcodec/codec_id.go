//go:build !ios && !android && (amd64 || arm64)

package avcodec

// CodecID represents FFmpeg codec identifiers.
type CodecID int32

// Audio codec IDs. Audio starts at 0x10000 in FFmpeg's enumeration.
const (
	CodecIDNone CodecID = 0

	CodecIDPCMS16LE CodecID = 65536
	CodecIDPCMS16BE CodecID = 65537
	CodecIDPCMU16LE CodecID = 65538
	CodecIDPCMU16BE CodecID = 65539
	CodecIDPCMS8    CodecID = 65540
	CodecIDPCMU8    CodecID = 65541

	CodecIDMP2    CodecID = 86016
	CodecIDMP3    CodecID = 86017
	CodecIDAAC    CodecID = 86018
	CodecIDAC3    CodecID = 86019
	CodecIDDTS    CodecID = 86020
	CodecIDVORBIS CodecID = 86021
	CodecIDFLAC   CodecID = 86028
	CodecIDALAC   CodecID = 86032
	CodecIDOPUS   CodecID = 86076
)

var codecIDNames = map[CodecID]string{
	CodecIDNone:     "none",
	CodecIDPCMS16LE: "pcm_s16le",
	CodecIDPCMS16BE: "pcm_s16be",
	CodecIDPCMU16LE: "pcm_u16le",
	CodecIDPCMU16BE: "pcm_u16be",
	CodecIDPCMS8:    "pcm_s8",
	CodecIDPCMU8:    "pcm_u8",
	CodecIDMP2:      "mp2",
	CodecIDMP3:      "mp3",
	CodecIDAAC:      "aac",
	CodecIDAC3:      "ac3",
	CodecIDDTS:      "dts",
	CodecIDVORBIS:   "vorbis",
	CodecIDFLAC:     "flac",
	CodecIDALAC:     "alac",
	CodecIDOPUS:     "opus",
}

// String returns the FFmpeg name of the codec ID.
func (id CodecID) String() string {
	if name, ok := codecIDNames[id]; ok {
		return name
	}
	return "unknown"
}

// IsAudio returns true if the codec ID is in FFmpeg's audio range.
func (id CodecID) IsAudio() bool {
	return id >= 65536 && id < 0x17000
}
