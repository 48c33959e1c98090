//go:build !ios && !android && (amd64 || arm64)

package fftranscode

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/obinnaokechukwu/fftranscode/internal/testaudio"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type transition struct{ from, to State }

type recordingObserver struct {
	mu          sync.Mutex
	transitions []transition
	progress    []Stats
}

func (r *recordingObserver) OnState(from, to State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transitions = append(r.transitions, transition{from, to})
}

func (r *recordingObserver) OnProgress(s Stats) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, s)
}

func requireOpus(t *testing.T) {
	t.Helper()
	if _, err := chooseEncoder("probe.opus"); err != nil {
		t.Skip("no Opus encoder in this FFmpeg build")
	}
}

func TestTranscodeWAVToOpus(t *testing.T) {
	skipIfNoFFmpeg(t)
	requireOpus(t)
	logger, _ := quietLogger()

	input := writeTone(t, testaudio.DefaultTone)
	output := filepath.Join(t.TempDir(), "tone.opus")

	tr := NewTranscoder(input, output, WithLogger(logger))
	require.NoError(t, tr.Run(context.Background()))
	assert.Equal(t, StateFinalized, tr.State())

	d, eos := oggOpusDuration(t, output)
	assert.InDelta(t, float64(5*time.Second), float64(d), float64(50*time.Millisecond))
	assert.True(t, eos, "last page must carry the end-of-stream flag")

	res, err := Probe(output, WithLogger(logger))
	require.NoError(t, err)
	assert.Equal(t, "ogg", res.Format)
	assert.Equal(t, CodecIDOPUS, res.Stream.CodecID)
	assert.Equal(t, 2, res.DecodedFormat.Channels)
}

func TestTranscodeStatsConservation(t *testing.T) {
	skipIfNoFFmpeg(t)
	requireOpus(t)
	logger, _ := quietLogger()

	input := writeTone(t, testaudio.DefaultTone)
	tr := NewTranscoder(input, filepath.Join(t.TempDir(), "tone.opus"), WithLogger(logger))
	require.NoError(t, tr.Run(context.Background()))

	s := tr.Stats()
	assert.Equal(t, 44100, s.InputSampleRate)
	assert.Equal(t, 48000, s.OutputSampleRate)
	assert.InDelta(t, 5.0, s.InputDuration.Seconds(), 0.01)
	assert.Equal(t, int64(testaudio.DefaultTone.Frames()), s.SamplesDecoded)
	assert.Equal(t, s.SamplesResampled, s.SamplesEncoded, "every resampled sample is encoded")
	assert.InDelta(t, float64(s.SamplesDecoded)*48000/44100, float64(s.SamplesResampled), 2)
	assert.Equal(t, (s.SamplesEncoded+959)/960, s.FramesEncoded)
	assert.Positive(t, s.PacketsWritten)
	assert.Positive(t, s.BytesWritten)
	assert.Zero(t, s.ReadErrors)
	assert.Zero(t, s.DecodeErrors)
	assert.Positive(t, s.Elapsed)
}

func TestTranscodeWAVToAAC(t *testing.T) {
	skipIfNoFFmpeg(t)
	logger, _ := quietLogger()

	tone := testaudio.DefaultTone
	tone.Channels = 1
	input := writeTone(t, tone)
	output := filepath.Join(t.TempDir(), "tone.aac")

	require.NoError(t, Transcode(context.Background(), input, output, WithLogger(logger)))

	res, err := Probe(output, WithLogger(logger))
	require.NoError(t, err)
	assert.Equal(t, "aac", res.Format)
	assert.Equal(t, CodecIDAAC, res.Stream.CodecID)
	assert.Equal(t, 44100, res.DecodedFormat.SampleRate)
	assert.Equal(t, 2, res.DecodedFormat.Channels, "mono input is upmixed to the default channel count")
}

func TestTranscodeShortFinalFrame(t *testing.T) {
	skipIfNoFFmpeg(t)
	logger, _ := quietLogger()

	tone := testaudio.Tone{SampleRate: 48000, Channels: 1, BitDepth: 16, Frequency: 1000, Duration: 20 * time.Millisecond}
	require.Equal(t, 960, tone.Frames())

	tr := NewTranscoder(writeTone(t, tone), filepath.Join(t.TempDir(), "short.aac"), WithLogger(logger))
	require.NoError(t, tr.Run(context.Background()))

	s := tr.Stats()
	assert.Equal(t, int64(960), s.SamplesResampled)
	assert.Equal(t, int64(960), s.SamplesEncoded)
	assert.Equal(t, int64(1), s.FramesEncoded, "a short remainder is encoded as one final frame")
	assert.Positive(t, s.PacketsWritten)
}

func TestTranscodeCorruptedInput(t *testing.T) {
	skipIfNoFFmpeg(t)
	requireOpus(t)
	logger, _ := quietLogger()

	// Encode to ADTS first so the damage lands in compressed frames.
	aac := filepath.Join(t.TempDir(), "tone.aac")
	require.NoError(t, Transcode(context.Background(), writeTone(t, testaudio.DefaultTone), aac, WithLogger(logger)))
	info, err := os.Stat(aac)
	require.NoError(t, err)
	require.NoError(t, testaudio.Corrupt(aac, info.Size()*2/5, 4096))

	output := filepath.Join(t.TempDir(), "damaged.opus")
	tr := NewTranscoder(aac, output, WithLogger(logger))
	require.NoError(t, tr.Run(context.Background()))
	assert.Equal(t, StateFinalized, tr.State())

	s := tr.Stats()
	assert.Positive(t, s.PacketsRead)
	t.Logf("read errors=%d decode errors=%d skipped=%d", s.ReadErrors, s.DecodeErrors, s.PacketsSkipped)

	d, eos := oggOpusDuration(t, output)
	assert.Greater(t, d, 4*time.Second)
	assert.Less(t, d, 5200*time.Millisecond)
	assert.True(t, eos)
}

func TestTranscodeMissingInput(t *testing.T) {
	skipIfNoFFmpeg(t)
	logger, hook := quietLogger()

	obs := &recordingObserver{}
	output := filepath.Join(t.TempDir(), "never.opus")
	tr := NewTranscoder(filepath.Join(t.TempDir(), "missing.wav"), output,
		WithLogger(logger), WithObserver(obs))
	err := tr.Run(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFileOpen)
	assert.Equal(t, StateFailed, tr.State())
	assert.NoFileExists(t, output, "the output is not created when the input cannot be opened")
	assert.Equal(t, []transition{{StateInitializing, StateFailed}}, obs.transitions)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, "transcode failed", entry.Message)
}

func TestTranscodeNoAudioStream(t *testing.T) {
	skipIfNoFFmpeg(t)
	logger, _ := quietLogger()

	output := filepath.Join(t.TempDir(), "never.aac")
	err := Transcode(context.Background(), writeSubtitle(t), output, WithLogger(logger))
	assert.ErrorIs(t, err, ErrNoAudioStream)
	assert.NoFileExists(t, output)
}

func TestTranscodeInitFailureAfterOutputOpened(t *testing.T) {
	skipIfNoFFmpeg(t)
	logger, _ := quietLogger()

	// The input opens and decodes, but the resampler rejects its layout.
	tone := testaudio.DefaultTone
	tone.SampleRate = 8000
	tone.Channels = 65
	tone.Duration = 100 * time.Millisecond

	obs := &recordingObserver{}
	output := filepath.Join(t.TempDir(), "wide.aac")
	tr := NewTranscoder(writeTone(t, tone), output, WithLogger(logger), WithObserver(obs))
	err := tr.Run(context.Background())

	assert.ErrorIs(t, err, ErrResample)
	assert.ErrorIs(t, err, ErrInvalidFormat)
	assert.Equal(t, []transition{{StateInitializing, StateFailed}}, obs.transitions)
	assert.NoFileExists(t, output)
}

func TestTranscodeObserverStates(t *testing.T) {
	skipIfNoFFmpeg(t)
	logger, _ := quietLogger()

	tone := testaudio.DefaultTone
	tone.Duration = time.Second
	obs := &recordingObserver{}
	tr := NewTranscoder(writeTone(t, tone), filepath.Join(t.TempDir(), "obs.aac"),
		WithLogger(logger), WithObserver(obs))
	assert.Equal(t, StateInitializing, tr.State())
	require.NoError(t, tr.Run(context.Background()))

	assert.Equal(t, []transition{
		{StateInitializing, StateStreaming},
		{StateStreaming, StateDraining},
		{StateDraining, StateFinalized},
	}, obs.transitions)

	require.NotEmpty(t, obs.progress)
	last := obs.progress[len(obs.progress)-1]
	assert.Equal(t, tr.Stats().SamplesEncoded, last.SamplesEncoded)
	for i := 1; i < len(obs.progress); i++ {
		assert.GreaterOrEqual(t, obs.progress[i].PacketsRead, obs.progress[i-1].PacketsRead)
	}
}

func TestTranscodeCanceled(t *testing.T) {
	skipIfNoFFmpeg(t)
	logger, _ := quietLogger()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	output := filepath.Join(t.TempDir(), "canceled.aac")
	tr := NewTranscoder(writeTone(t, testaudio.DefaultTone), output, WithLogger(logger))
	err := tr.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, IsFatal(err))
	assert.Equal(t, StateFailed, tr.State())
	assert.FileExists(t, output, "partial output is kept by default")
}

func TestTranscodeRemoveFailedOutput(t *testing.T) {
	skipIfNoFFmpeg(t)
	logger, _ := quietLogger()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	output := filepath.Join(t.TempDir(), "canceled.aac")
	err := Transcode(ctx, writeTone(t, testaudio.DefaultTone), output,
		WithLogger(logger), WithRemoveFailedOutput(true))
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, output)
}

func TestTranscoderRunOnce(t *testing.T) {
	skipIfNoFFmpeg(t)
	logger, _ := quietLogger()

	tone := testaudio.DefaultTone
	tone.Duration = 200 * time.Millisecond
	tr := NewTranscoder(writeTone(t, tone), filepath.Join(t.TempDir(), "once.aac"), WithLogger(logger))
	require.NoError(t, tr.Run(context.Background()))
	assert.ErrorIs(t, tr.Run(context.Background()), ErrSessionUsed)
	assert.NoError(t, tr.Close())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "initializing", StateInitializing.String())
	assert.Equal(t, "streaming", StateStreaming.String())
	assert.Equal(t, "draining", StateDraining.String())
	assert.Equal(t, "finalized", StateFinalized.String())
	assert.Equal(t, "failed", StateFailed.String())
	assert.Equal(t, "unknown", State(42).String())
}

func TestOptionsDefaults(t *testing.T) {
	o := newOptions(nil)
	assert.Equal(t, int64(DefaultBitRate), o.BitRate)
	assert.Equal(t, DefaultChannels, o.Channels)
	assert.Equal(t, DefaultMaxReadErrors, o.MaxReadErrors)
	assert.Zero(t, o.SampleRate)
	assert.False(t, o.RemoveFailedOutput)
	assert.NotNil(t, o.Logger)

	o = newOptions([]Option{WithBitRate(-1), WithChannels(0), WithMaxReadErrors(0), WithLogger(nil)})
	assert.Equal(t, int64(DefaultBitRate), o.BitRate)
	assert.Equal(t, DefaultChannels, o.Channels)
	assert.Equal(t, DefaultMaxReadErrors, o.MaxReadErrors)
	assert.NotNil(t, o.Logger)
}
