// Package config loads batch transcoding settings from YAML.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// MaxChannels is the largest output channel count the pipeline supports.
const MaxChannels = 8

// Config is the top-level configuration of the fftranscode command.
type Config struct {
	// LogLevel is a logrus level name. Default: "info".
	LogLevel string `yaml:"log_level"`

	// FFmpegLogLevel is the threshold of FFmpeg's own stderr output. It
	// accepts logrus level names, "verbose" and "quiet". Default: "error".
	FFmpegLogLevel string `yaml:"ffmpeg_log_level"`

	Encoder Encoder `yaml:"encoder"`

	// Concurrency is the number of sessions run in parallel. Default: NumCPU.
	Concurrency int `yaml:"concurrency"`

	// MetricsAddr enables a Prometheus /metrics endpoint when set.
	MetricsAddr string `yaml:"metrics_addr"`

	// RemoveFailedOutput deletes the output of failed jobs.
	RemoveFailedOutput bool `yaml:"remove_failed_output"`

	// MaxReadErrors is the consecutive read failure limit per session.
	MaxReadErrors int `yaml:"max_read_errors"`

	Jobs []Job `yaml:"jobs"`
}

// Encoder holds the encoder policy shared by every job.
type Encoder struct {
	// BitRate in bits per second. Default: 96000.
	BitRate int64 `yaml:"bit_rate"`

	// Channels is the output channel count. Default: 2.
	Channels int `yaml:"channels"`

	// SampleRate forces the output rate; 0 follows the input.
	SampleRate int `yaml:"sample_rate"`
}

// Job is one input file transcoded to one output file.
type Job struct {
	Input  string `yaml:"input"`
	Output string `yaml:"output"`
}

// Defaults returns a Config with every default filled in and no jobs.
func Defaults() *Config {
	return &Config{
		LogLevel:       "info",
		FFmpegLogLevel: "error",
		Encoder: Encoder{
			BitRate:  96000,
			Channels: 2,
		},
		Concurrency:   runtime.NumCPU(),
		MaxReadErrors: 64,
	}
}

// Load reads the YAML configuration file at path and returns a validated Config.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes YAML on top of Defaults and validates the result.
// Unknown keys are rejected. An empty document yields the defaults.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Defaults()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level %q is invalid", cfg.LogLevel))
	}
	if !validFFmpegLevel(cfg.FFmpegLogLevel) {
		errs = append(errs, fmt.Errorf("ffmpeg_log_level %q is invalid", cfg.FFmpegLogLevel))
	}

	if cfg.Encoder.BitRate <= 0 {
		errs = append(errs, fmt.Errorf("encoder.bit_rate must be positive, got %d", cfg.Encoder.BitRate))
	}
	if cfg.Encoder.Channels < 1 || cfg.Encoder.Channels > MaxChannels {
		errs = append(errs, fmt.Errorf("encoder.channels %d is out of range [1, %d]", cfg.Encoder.Channels, MaxChannels))
	}
	if cfg.Encoder.SampleRate < 0 {
		errs = append(errs, fmt.Errorf("encoder.sample_rate must not be negative, got %d", cfg.Encoder.SampleRate))
	}
	if cfg.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("concurrency must be at least 1, got %d", cfg.Concurrency))
	}
	if cfg.MaxReadErrors < 1 {
		errs = append(errs, fmt.Errorf("max_read_errors must be at least 1, got %d", cfg.MaxReadErrors))
	}

	outputs := make(map[string]int, len(cfg.Jobs))
	for i, job := range cfg.Jobs {
		prefix := fmt.Sprintf("jobs[%d]", i)
		if job.Input == "" {
			errs = append(errs, fmt.Errorf("%s.input is required", prefix))
		}
		if job.Output == "" {
			errs = append(errs, fmt.Errorf("%s.output is required", prefix))
			continue
		}
		if job.Input != "" && filepath.Clean(job.Input) == filepath.Clean(job.Output) {
			errs = append(errs, fmt.Errorf("%s.output must differ from its input", prefix))
		}
		key := filepath.Clean(job.Output)
		if prev, ok := outputs[key]; ok {
			errs = append(errs, fmt.Errorf("%s.output %q is a duplicate of jobs[%d]", prefix, job.Output, prev))
		}
		outputs[key] = i
	}

	return errors.Join(errs...)
}

// Level returns the parsed LogLevel, falling back to info.
func (c *Config) Level() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

func validFFmpegLevel(s string) bool {
	switch s {
	case "quiet", "off", "none", "verbose":
		return true
	}
	_, err := logrus.ParseLevel(s)
	return err == nil
}
