package testaudio

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteWAVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	tone := Tone{SampleRate: 8000, Channels: 2, BitDepth: 16, Frequency: 1000, Duration: 250 * time.Millisecond}
	require.NoError(t, WriteWAV(path, tone))

	buf, err := ReadWAV(path)
	require.NoError(t, err)
	assert.Equal(t, 8000, buf.Format.SampleRate)
	assert.Equal(t, 2, buf.Format.NumChannels)
	assert.Len(t, buf.Data, tone.Frames()*2)
	assert.Equal(t, buf.Data[0], buf.Data[1])
}

func TestFrames(t *testing.T) {
	assert.Equal(t, 220500, DefaultTone.Frames())
	assert.Equal(t, 4800, Tone{SampleRate: 48000, Duration: 100 * time.Millisecond}.Frames())
}

func TestWriteWAVRejectsBadTone(t *testing.T) {
	err := WriteWAV(filepath.Join(t.TempDir(), "bad.wav"), Tone{BitDepth: 12})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sample rate")
	assert.Contains(t, err.Error(), "bit depth")
}
