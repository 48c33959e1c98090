//go:build !ios && !android && (amd64 || arm64)

package avformat

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/obinnaokechukwu/fftranscode/avcodec"
	"github.com/obinnaokechukwu/fftranscode/avutil"
	"github.com/obinnaokechukwu/fftranscode/internal/bindings"
	"github.com/obinnaokechukwu/fftranscode/internal/testaudio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ffmpegAvailable bool

func TestMain(m *testing.M) {
	if err := bindings.Load(); err == nil {
		ffmpegAvailable = true
	}
	os.Exit(m.Run())
}

func skipIfNoFFmpeg(t *testing.T) {
	t.Helper()
	if !ffmpegAvailable {
		t.Skip("FFmpeg not available")
	}
}

func writeTone(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tone.wav")
	tone := testaudio.DefaultTone
	tone.Duration = time.Second
	require.NoError(t, testaudio.WriteWAV(path, tone))
	return path
}

func TestOpenInputWAV(t *testing.T) {
	skipIfNoFFmpeg(t)
	path := writeTone(t)

	var ctx FormatContext
	require.NoError(t, OpenInput(&ctx, path))
	defer CloseInput(&ctx)
	require.NoError(t, FindStreamInfo(ctx))

	assert.Equal(t, "wav", GetInputFormatName(ctx))
	require.Equal(t, 1, GetNumStreams(ctx))
	assert.EqualValues(t, 0, FindBestStream(ctx, avutil.MediaTypeAudio))
	assert.Less(t, FindBestStream(ctx, avutil.MediaTypeVideo), int32(0))

	st := GetStream(ctx, 0)
	require.NotNil(t, st)
	assert.Nil(t, GetStream(ctx, 1))
	assert.EqualValues(t, 0, GetStreamIndex(st))

	par := GetStreamCodecPar(st)
	assert.Equal(t, avutil.MediaTypeAudio, GetCodecParType(par))
	assert.Equal(t, avcodec.CodecIDPCMS16LE, GetCodecParCodecID(par))
	assert.Equal(t, avutil.SampleFormatS16, GetCodecParFormat(par))
	assert.EqualValues(t, 44100, GetCodecParSampleRate(par))
	assert.EqualValues(t, 2, GetCodecParChannels(par))

	assert.True(t, GetStreamTimeBase(st).IsValid())
	assert.InDelta(t, 1_000_000, GetDuration(ctx), 30_000)
}

func TestOpenInputMissing(t *testing.T) {
	skipIfNoFFmpeg(t)
	var ctx FormatContext
	err := OpenInput(&ctx, filepath.Join(t.TempDir(), "missing.wav"))
	require.Error(t, err)
	assert.Nil(t, ctx)
	assert.Equal(t, avutil.AVERROR_ENOENT, avutil.Code(err))
}

func TestReadFrameUntilEOF(t *testing.T) {
	skipIfNoFFmpeg(t)
	path := writeTone(t)

	var ctx FormatContext
	require.NoError(t, OpenInput(&ctx, path))
	defer CloseInput(&ctx)

	pkt := avcodec.PacketAlloc()
	defer avcodec.PacketFree(&pkt)

	var total int64
	for {
		err := ReadFrame(ctx, pkt)
		if avutil.IsEOF(err) {
			break
		}
		require.NoError(t, err)
		total += int64(avcodec.GetPacketSize(pkt))
		avcodec.PacketUnref(pkt)
	}
	assert.EqualValues(t, 44100*2*2, total)
}

func TestOutputContextFlags(t *testing.T) {
	skipIfNoFFmpeg(t)

	var ctx FormatContext
	require.NoError(t, AllocOutputContext2(&ctx, "", "out.ogg"))
	defer FreeContext(ctx)
	assert.Equal(t, "ogg", GetOutputFormatName(GetOutputFormat(ctx)))
	assert.False(t, HasNoFile(ctx))

	var adts FormatContext
	require.NoError(t, AllocOutputContext2(&adts, "adts", ""))
	defer FreeContext(adts)
	assert.Equal(t, "adts", GetOutputFormatName(GetOutputFormat(adts)))
	assert.Equal(t, avcodec.CodecIDAAC, GetOutputFormatAudioCodec(GetOutputFormat(adts)))
}

func TestAllocOutputUnknownExtension(t *testing.T) {
	skipIfNoFFmpeg(t)
	var ctx FormatContext
	err := AllocOutputContext2(&ctx, "", "out.nosuchext")
	require.Error(t, err)
	assert.Nil(t, GuessFormat("out.nosuchext"))
	assert.NotNil(t, GuessFormat("out.opus"))
}

func TestNilAccessors(t *testing.T) {
	assert.Zero(t, GetNumStreams(nil))
	assert.Nil(t, GetStream(nil, 0))
	assert.Equal(t, avutil.NoPTSValue, GetDuration(nil))
	assert.EqualValues(t, -1, GetStreamIndex(nil))
	assert.Equal(t, avutil.MediaTypeUnknown, GetCodecParType(nil))
	assert.Empty(t, GetInputFormatName(nil))
	assert.False(t, NeedsGlobalHeader(nil))
}
