//go:build !ios && !android && (amd64 || arm64)

package fftranscode

import (
	"fmt"
	"strings"

	"github.com/obinnaokechukwu/fftranscode/avutil"
	"github.com/sirupsen/logrus"
)

// LogLevel represents FFmpeg log levels.
type LogLevel = avutil.LogLevel

// Log level constants matching FFmpeg's AV_LOG_* values.
const (
	LogQuiet   = avutil.LogQuiet
	LogPanic   = avutil.LogPanic
	LogFatal   = avutil.LogFatal
	LogError   = avutil.LogError
	LogWarning = avutil.LogWarning
	LogInfo    = avutil.LogInfo
	LogVerbose = avutil.LogVerbose
	LogDebug   = avutil.LogDebug
	LogTrace   = avutil.LogTrace
)

// FFmpegLogLevel maps a logrus level onto FFmpeg's scale.
func FFmpegLogLevel(level logrus.Level) LogLevel {
	switch level {
	case logrus.PanicLevel:
		return LogPanic
	case logrus.FatalLevel:
		return LogFatal
	case logrus.ErrorLevel:
		return LogError
	case logrus.WarnLevel:
		return LogWarning
	case logrus.InfoLevel:
		return LogInfo
	case logrus.DebugLevel:
		return LogDebug
	default:
		return LogTrace
	}
}

// SetFFmpegLogLevel sets the threshold of FFmpeg's own stderr logging.
func SetFFmpegLogLevel(level logrus.Level) {
	avutil.LogSetLevel(FFmpegLogLevel(level))
}

// ParseFFmpegLogLevel accepts logrus level names, "verbose" and "quiet".
func ParseFFmpegLogLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "quiet", "off", "none":
		return LogQuiet, nil
	case "verbose":
		return LogVerbose, nil
	}
	level, err := logrus.ParseLevel(s)
	if err != nil {
		return LogInfo, fmt.Errorf("fftranscode: unknown FFmpeg log level %q", s)
	}
	return FFmpegLogLevel(level), nil
}

// SetFFmpegLogLevelRaw sets FFmpeg's log threshold directly.
func SetFFmpegLogLevelRaw(level LogLevel) {
	avutil.LogSetLevel(level)
}

// GetFFmpegLogLevel returns FFmpeg's current log threshold.
func GetFFmpegLogLevel() LogLevel {
	return avutil.LogGetLevel()
}
