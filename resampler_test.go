//go:build !ios && !android && (amd64 || arm64)

package fftranscode

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/obinnaokechukwu/fftranscode/internal/testaudio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// decodeAll feeds every frame of in to fn, including the drained tail.
func decodeAll(t *testing.T, in *InputFileContext, fn func(*Frame)) {
	t.Helper()
	dec := in.Decoder()
	consume := func() {
		for f := dec.Peek(); f != nil; f = dec.Peek() {
			fn(f)
			dec.Consume()
		}
	}
	for {
		pkt, err := in.ReadPacket()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		_, err = dec.Decode(pkt)
		pkt.Close()
		require.NoError(t, err)
		consume()
	}
	_, err := dec.Drain()
	require.NoError(t, err)
	consume()
}

var opusFormat = AudioFormat{SampleRate: 48000, Channels: 2, SampleFormat: SampleFormatFltP}

func TestResamplerConfigureTwicePanics(t *testing.T) {
	skipIfNoFFmpeg(t)

	r := NewResampler()
	defer r.Close()
	in := AudioFormat{SampleRate: 44100, Channels: 2, SampleFormat: SampleFormatS16}
	require.NoError(t, r.Configure(in, opusFormat))
	assert.Equal(t, in, r.InputFormat())
	assert.Equal(t, opusFormat, r.OutputFormat())

	assert.PanicsWithValue(t, ErrResamplerConfigured, func() {
		_ = r.Configure(in, opusFormat)
	})
}

func TestResamplerNotConfigured(t *testing.T) {
	skipIfNoFFmpeg(t)

	r := NewResampler()
	defer r.Close()
	_, err := r.Flush()
	assert.ErrorIs(t, err, ErrResample)
	assert.ErrorIs(t, err, ErrResamplerNotConfigured)
	assert.Zero(t, r.Delay())
}

func TestResamplerRejectsInvalidFormats(t *testing.T) {
	skipIfNoFFmpeg(t)

	r := NewResampler()
	defer r.Close()
	err := r.Configure(AudioFormat{SampleRate: 44100, Channels: 0, SampleFormat: SampleFormatS16}, opusFormat)
	assert.ErrorIs(t, err, ErrResample)
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestResamplerConvert(t *testing.T) {
	skipIfNoFFmpeg(t)
	logger, _ := quietLogger()

	tone := testaudio.DefaultTone
	tone.Duration = time.Second
	in, err := OpenInput(writeTone(t, tone), WithLogger(logger))
	require.NoError(t, err)
	defer in.Close()

	r := NewResampler()
	defer r.Close()
	require.NoError(t, r.Configure(in.Decoder().Format(), opusFormat))

	total := 0
	decodeAll(t, in, func(f *Frame) {
		s, err := r.Convert(f)
		require.NoError(t, err)
		assert.Equal(t, opusFormat, s.Format())
		if s.Count() > 0 {
			assert.Len(t, s.Bytes(1), opusFormat.PlaneSize(s.Count()))
		}
		total += s.Count()
		s.Close()
	})

	tail, err := r.Flush()
	require.NoError(t, err)
	total += tail.Count()
	tail.Close()

	assert.InDelta(t, 48000, total, 2)
	assert.Zero(t, r.Delay())
}

func TestResamplerRejectsMismatchedFrame(t *testing.T) {
	skipIfNoFFmpeg(t)
	logger, _ := quietLogger()

	tests := []struct {
		name   string
		mutate func(*AudioFormat)
		msg    string
	}{
		{"sample format", func(f *AudioFormat) { f.SampleFormat = SampleFormatFlt }, "frame format"},
		{"channel count", func(f *AudioFormat) { f.Channels, f.ChannelLayout = 6, 0 }, "channels"},
		{"sample rate", func(f *AudioFormat) { f.SampleRate = 22050 }, "frame rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := OpenInput(writeTone(t, testaudio.DefaultTone), WithLogger(logger))
			require.NoError(t, err)
			defer in.Close()

			r := NewResampler()
			defer r.Close()
			wrong := in.Decoder().Format()
			tt.mutate(&wrong)
			require.NoError(t, r.Configure(wrong, opusFormat))

			pkt, err := in.ReadPacket()
			require.NoError(t, err)
			defer pkt.Close()
			_, err = in.Decoder().Decode(pkt)
			require.NoError(t, err)

			_, err = r.Convert(in.Decoder().Peek())
			assert.ErrorIs(t, err, ErrResample)
			assert.ErrorContains(t, err, tt.msg)
			assert.True(t, IsFatal(err))
		})
	}
}

func TestResamplerClose(t *testing.T) {
	skipIfNoFFmpeg(t)

	r := NewResampler()
	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
	assert.ErrorIs(t, r.Configure(opusFormat, opusFormat), ErrClosed)
	_, err := r.Flush()
	assert.ErrorIs(t, err, ErrClosed)
}
