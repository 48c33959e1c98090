//go:build !ios && !android && (amd64 || arm64)

package fftranscode

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/obinnaokechukwu/fftranscode/avcodec"
	"github.com/obinnaokechukwu/fftranscode/avutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNegotiateSampleRate(t *testing.T) {
	opus := []int{48000, 24000, 16000, 12000, 8000}
	tests := []struct {
		want      int
		supported []int
		expected  int
	}{
		{44100, opus, 48000},
		{48000, opus, 48000},
		{22050, opus, 24000},
		{11025, opus, 12000},
		{96000, opus, 48000},
		{20000, opus, 24000}, // tie between 16000 and 24000
		{44100, nil, 44100},
		{32000, []int{44100, 32000}, 32000},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, negotiateSampleRate(tt.want, tt.supported),
			"want=%d supported=%v", tt.want, tt.supported)
	}
}

func TestChooseEncoder(t *testing.T) {
	skipIfNoFFmpeg(t)

	aac, err := chooseEncoder("/tmp/out.m4a")
	require.NoError(t, err)
	assert.Equal(t, "aac", avcodec.GetCodecName(aac.codec))
	assert.False(t, aac.experimental)

	other, err := chooseEncoder("/tmp/out")
	require.NoError(t, err)
	assert.Equal(t, "aac", avcodec.GetCodecName(other.codec))

	opus, err := chooseEncoder("/tmp/OUT.OPUS")
	if err != nil {
		assert.ErrorIs(t, err, ErrEncoderNotFound)
		t.Skip("no Opus encoder in this FFmpeg build")
	}
	assert.Contains(t, []string{"libopus", "opus"}, avcodec.GetCodecName(opus.codec))
}

func openTestOutput(t *testing.T, name string, rate int) *OutputFileContext {
	t.Helper()
	logger, _ := quietLogger()
	out, err := OpenOutput(filepath.Join(t.TempDir(), name), rate, WithLogger(logger))
	if err != nil && filepath.Ext(name) == ".opus" {
		t.Skipf("no Opus encoder: %v", err)
	}
	require.NoError(t, err)
	t.Cleanup(func() { out.Close() })
	return out
}

func TestOpenOutputOpus(t *testing.T) {
	skipIfNoFFmpeg(t)

	out := openTestOutput(t, "tone.opus", 44100)
	assert.Equal(t, "ogg", out.FormatName())

	enc := out.Encoder()
	assert.Equal(t, CodecIDOPUS, enc.CodecID())
	assert.Equal(t, 960, enc.FrameSize())
	assert.Equal(t, int64(DefaultBitRate), enc.BitRate())

	f := enc.Format()
	assert.Equal(t, 48000, f.SampleRate, "44.1 kHz snaps to the nearest Opus rate")
	assert.Equal(t, DefaultChannels, f.Channels)
	assert.Equal(t, ChannelLayoutStereo, f.ChannelLayout)
	assert.Equal(t, avutil.NewRational(1, 48000), enc.TimeBase())
}

func TestOpenOutputAAC(t *testing.T) {
	skipIfNoFFmpeg(t)

	out := openTestOutput(t, "tone.aac", 44100)
	assert.Equal(t, "adts", out.FormatName())

	enc := out.Encoder()
	assert.Equal(t, "aac", enc.Name())
	assert.Equal(t, 1024, enc.FrameSize())
	assert.Equal(t, 44100, enc.Format().SampleRate)
	assert.Equal(t, SampleFormatFltP, enc.Format().SampleFormat)
}

func TestOpenOutputUnknownExtension(t *testing.T) {
	skipIfNoFFmpeg(t)

	out := openTestOutput(t, "tone.unknownext", 44100)
	assert.Equal(t, fallbackMuxer, out.FormatName())
	assert.Equal(t, CodecIDAAC, out.Encoder().CodecID())
}

func TestOpenOutputOptions(t *testing.T) {
	skipIfNoFFmpeg(t)
	logger, _ := quietLogger()

	out, err := OpenOutput(filepath.Join(t.TempDir(), "mono.aac"), 44100,
		WithLogger(logger), WithChannels(1), WithBitRate(64000), WithSampleRate(32000))
	require.NoError(t, err)
	defer out.Close()

	f := out.Encoder().Format()
	assert.Equal(t, 1, f.Channels)
	assert.Equal(t, 32000, f.SampleRate)
	assert.Equal(t, int64(64000), out.Encoder().BitRate())
}

func TestOpenOutputInvalidRate(t *testing.T) {
	skipIfNoFFmpeg(t)

	path := filepath.Join(t.TempDir(), "bad.aac")
	_, err := OpenOutput(path, 0)
	assert.ErrorIs(t, err, ErrFileOpen)
	assert.ErrorIs(t, err, ErrInvalidFormat)
	assert.NoFileExists(t, path)
}

func TestOutputWriteOrdering(t *testing.T) {
	skipIfNoFFmpeg(t)

	out := openTestOutput(t, "order.aac", 44100)
	pkt, err := allocPacket()
	require.NoError(t, err)
	defer pkt.Close()

	assert.ErrorIs(t, out.WritePacket(pkt), ErrHeaderNotWritten)
	assert.ErrorIs(t, out.WriteTrailer(), ErrHeaderNotWritten)

	require.NoError(t, out.WriteHeader())
	assert.True(t, out.HeaderWritten())
	assert.ErrorIs(t, out.WriteHeader(), ErrHeaderWritten)

	require.NoError(t, out.WriteTrailer())
	assert.True(t, out.TrailerWritten())
	assert.ErrorIs(t, out.WritePacket(pkt), ErrTrailerWritten)
	assert.ErrorIs(t, out.WriteTrailer(), ErrTrailerWritten)

	require.NoError(t, out.Close())
	require.NoError(t, out.Close())
	assert.ErrorIs(t, out.WriteHeader(), ErrClosed)
}

func TestOutputDiscard(t *testing.T) {
	skipIfNoFFmpeg(t)
	logger, _ := quietLogger()

	path := filepath.Join(t.TempDir(), "partial.aac")
	out, err := OpenOutput(path, 44100, WithLogger(logger))
	require.NoError(t, err)
	require.NoError(t, out.WriteHeader())
	require.FileExists(t, path)

	require.NoError(t, out.Discard())
	assert.NoFileExists(t, path)

	// Finished files survive Discard.
	done := filepath.Join(t.TempDir(), "done.aac")
	out, err = OpenOutput(done, 44100, WithLogger(logger))
	require.NoError(t, err)
	require.NoError(t, out.WriteHeader())
	require.NoError(t, out.WriteTrailer())
	require.NoError(t, out.Discard())
	_, err = os.Stat(done)
	assert.NoError(t, err)
}

func TestOutputFileCreatedByWriteHeader(t *testing.T) {
	skipIfNoFFmpeg(t)
	logger, _ := quietLogger()

	path := filepath.Join(t.TempDir(), "lazy.aac")
	out, err := OpenOutput(path, 44100, WithLogger(logger))
	require.NoError(t, err)
	assert.NoFileExists(t, path)

	require.NoError(t, out.Discard())
	assert.NoFileExists(t, path)

	// A file that was there before is not ours to remove.
	existing := filepath.Join(t.TempDir(), "existing.aac")
	require.NoError(t, os.WriteFile(existing, []byte("keep"), 0o644))
	out, err = OpenOutput(existing, 44100, WithLogger(logger))
	require.NoError(t, err)
	require.NoError(t, out.Discard())
	got, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "keep", string(got))
}

func TestEncodeAfterDrain(t *testing.T) {
	skipIfNoFFmpeg(t)

	out := openTestOutput(t, "drain.aac", 44100)
	enc := out.Encoder()
	f := enc.Format()

	fifo, err := NewSampleFIFO(f.SampleFormat, f.Channels, enc.FrameSize())
	require.NoError(t, err)
	defer fifo.Close()
	silence := make([]byte, f.PlaneSize(enc.FrameSize()))
	require.NoError(t, fifo.WritePlanes([][]byte{silence, silence}, enc.FrameSize()))
	require.NoError(t, fifo.WritePlanes([][]byte{silence, silence}, enc.FrameSize()))

	frame, err := fifo.ReadFrame(enc.FrameSize(), f.SampleRate)
	require.NoError(t, err)
	pkts, err := enc.Encode(frame)
	frame.Close()
	require.NoError(t, err)
	closePackets(pkts)

	pkts, err = enc.Drain()
	require.NoError(t, err)
	assert.NotEmpty(t, pkts, "the encoder holds at least one frame of delay")
	closePackets(pkts)

	pkts, err = enc.Drain()
	require.NoError(t, err)
	assert.Empty(t, pkts)

	frame, err = fifo.ReadFrame(enc.FrameSize(), f.SampleRate)
	require.NoError(t, err)
	defer frame.Close()
	_, err = enc.Encode(frame)
	assert.ErrorIs(t, err, ErrEncode)
	assert.True(t, IsEOF(err))
}
