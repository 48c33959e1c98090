//go:build !ios && !android && (amd64 || arm64)

package fftranscode

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAudioFormatValidate(t *testing.T) {
	ok := AudioFormat{SampleRate: 48000, Channels: 2, SampleFormat: SampleFormatFltP}
	require.NoError(t, ok.Validate())

	withLayout := ok
	withLayout.ChannelLayout = ChannelLayoutStereo
	require.NoError(t, withLayout.Validate())

	tests := []struct {
		name string
		f    AudioFormat
		want string
	}{
		{"zero rate", AudioFormat{Channels: 2, SampleFormat: SampleFormatS16}, "sample rate"},
		{"no channels", AudioFormat{SampleRate: 8000, SampleFormat: SampleFormatS16}, "channel count"},
		{"too many channels", AudioFormat{SampleRate: 8000, Channels: 65, SampleFormat: SampleFormatS16}, "channel count"},
		{"layout mismatch", AudioFormat{SampleRate: 8000, Channels: 2, ChannelLayout: ChannelLayout5Point1, SampleFormat: SampleFormatS16}, "layout"},
		{"bad sample format", AudioFormat{SampleRate: 8000, Channels: 1, SampleFormat: SampleFormatNone}, "sample format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.f.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidFormat))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestAudioFormatPlanes(t *testing.T) {
	planar := AudioFormat{SampleRate: 48000, Channels: 2, SampleFormat: SampleFormatFltP}
	assert.Equal(t, 2, planar.Planes())
	assert.Equal(t, 1024*4, planar.PlaneSize(1024))

	packed := AudioFormat{SampleRate: 44100, Channels: 2, SampleFormat: SampleFormatS16}
	assert.Equal(t, 1, packed.Planes())
	assert.Equal(t, 1024*2*2, packed.PlaneSize(1024))
}

func TestChannelLayout(t *testing.T) {
	assert.Equal(t, 1, ChannelLayoutMono.NumChannels())
	assert.Equal(t, 2, ChannelLayoutStereo.NumChannels())
	assert.Equal(t, 6, ChannelLayout5Point1.NumChannels())
	assert.Equal(t, 8, ChannelLayout7Point1.NumChannels())
	assert.Equal(t, "stereo", ChannelLayoutStereo.String())
	assert.Equal(t, "0x5", ChannelLayout(0x5).String())

	for n := 1; n <= 8; n++ {
		assert.Equal(t, n, defaultChannelLayout(n).NumChannels(), "channels=%d", n)
	}
	assert.Equal(t, ChannelLayoutStereo, AudioFormat{Channels: 2}.Layout())
	assert.Equal(t, "44100Hz stereo s16",
		AudioFormat{SampleRate: 44100, Channels: 2, SampleFormat: SampleFormatS16}.String())
}
