//go:build !ios && !android && (amd64 || arm64)

package main

import (
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, args ...string) (*flag.FlagSet, flags) {
	t.Helper()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var f flags
	fs.StringVar(&f.configPath, "config", "", "")
	fs.Int64Var(&f.bitRate, "bitrate", 96000, "")
	fs.IntVar(&f.channels, "channels", 2, "")
	fs.IntVar(&f.sampleRate, "rate", 0, "")
	fs.StringVar(&f.logLevel, "log-level", "info", "")
	fs.StringVar(&f.ffmpegLogLevel, "ffmpeg-log-level", "error", "")
	fs.IntVar(&f.jobs, "jobs", 0, "")
	fs.StringVar(&f.metricsAddr, "metrics-addr", "", "")
	fs.BoolVar(&f.probe, "probe", false, "")
	fs.BoolVar(&f.removeFailed, "rm-failed", false, "")
	require.NoError(t, fs.Parse(args))
	return fs, f
}

func TestBuildConfigPositional(t *testing.T) {
	fs, f := parse(t, "-bitrate", "64000", "-channels", "1", "-rm-failed", "in.wav", "out.opus")
	cfg, err := buildConfig(fs, f)
	require.NoError(t, err)
	assert.Equal(t, int64(64000), cfg.Encoder.BitRate)
	assert.Equal(t, 1, cfg.Encoder.Channels)
	assert.True(t, cfg.RemoveFailedOutput)
	require.Len(t, cfg.Jobs, 1)
	assert.Equal(t, "in.wav", cfg.Jobs[0].Input)
	assert.Equal(t, "out.opus", cfg.Jobs[0].Output)
}

func TestBuildConfigFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.yaml")
	yaml := "encoder:\n  bit_rate: 128000\n  channels: 1\nconcurrency: 2\njobs:\n  - input: a.wav\n    output: a.aac\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	fs, f := parse(t, "-config", path, "-channels", "2")
	cfg, err := buildConfig(fs, f)
	require.NoError(t, err)
	assert.Equal(t, int64(128000), cfg.Encoder.BitRate, "unset flags keep the file value")
	assert.Equal(t, 2, cfg.Encoder.Channels)
	assert.Equal(t, 2, cfg.Concurrency)
	assert.Len(t, cfg.Jobs, 1)
}

func TestBuildConfigErrors(t *testing.T) {
	fs, f := parse(t, "only-input.wav")
	_, err := buildConfig(fs, f)
	assert.Error(t, err)

	fs, f = parse(t, "-channels", "12", "in.wav", "out.aac")
	_, err = buildConfig(fs, f)
	assert.ErrorContains(t, err, "encoder.channels")

	fs, f = parse(t, "-probe")
	_, err = buildConfig(fs, f)
	assert.Error(t, err)

	fs, f = parse(t, "-config", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err = buildConfig(fs, f)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRunUsage(t *testing.T) {
	assert.Equal(t, exitUsage, run([]string{"-no-such-flag"}))
	assert.Equal(t, exitOK, run([]string{"-h"}))
	assert.Equal(t, exitUsage, run([]string{"a", "b", "c"}))
}

func TestEncoderLabel(t *testing.T) {
	assert.Equal(t, "opus", encoderLabel("x/y.OPUS"))
	assert.Equal(t, "aac", encoderLabel("x/y.m4a"))
	assert.Equal(t, "aac", encoderLabel("noext"))
}
