//go:build !ios && !android && (amd64 || arm64)

// Command fftranscode converts audio files to Opus or AAC.
//
// Usage:
//
//	fftranscode [flags] <input> <output>
//	fftranscode -config jobs.yaml
//	fftranscode -probe <file>...
//
// The output extension selects the codec: .opus is Opus in Ogg, anything
// else is AAC. Jobs from a config file run in parallel.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/obinnaokechukwu/fftranscode"
	"github.com/obinnaokechukwu/fftranscode/internal/config"
	"github.com/obinnaokechukwu/fftranscode/internal/observe"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

var version = "dev"

type flags struct {
	configPath     string
	bitRate        int64
	channels       int
	sampleRate     int
	logLevel       string
	ffmpegLogLevel string
	jobs           int
	metricsAddr    string
	probe          bool
	removeFailed   bool
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("fftranscode", flag.ContinueOnError)
	var f flags
	fs.StringVar(&f.configPath, "config", "", "YAML file with settings and a jobs list")
	fs.Int64Var(&f.bitRate, "bitrate", fftranscode.DefaultBitRate, "Target encoder bit rate in bits per second")
	fs.IntVar(&f.channels, "channels", fftranscode.DefaultChannels, "Output channel count")
	fs.IntVar(&f.sampleRate, "rate", 0, "Output sample rate (0 follows the input)")
	fs.StringVar(&f.logLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")
	fs.StringVar(&f.ffmpegLogLevel, "ffmpeg-log-level", "error", "FFmpeg log level (quiet, error, warning, info, verbose, debug, trace)")
	fs.IntVar(&f.jobs, "jobs", 0, "Sessions to run in parallel (default: number of CPUs)")
	fs.StringVar(&f.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9464")
	fs.BoolVar(&f.probe, "probe", false, "Print what each argument contains and exit")
	fs.BoolVar(&f.removeFailed, "rm-failed", false, "Delete the output of failed jobs")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: fftranscode [flags] <input> <output>\n")
		fmt.Fprintf(fs.Output(), "       fftranscode -config jobs.yaml\n")
		fmt.Fprintf(fs.Output(), "       fftranscode -probe <file>...\n\nFlags:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	cfg, err := buildConfig(fs, f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fftranscode: %v\n", err)
		return exitUsage
	}

	logger := logrus.New()
	logger.SetLevel(cfg.Level())
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if err := fftranscode.Init(); err != nil {
		logger.WithError(err).Error("failed to load FFmpeg")
		return exitFailure
	}
	fftranscode.SetFFmpegLogLevelRaw(cfg.FFmpegLevel())

	if f.probe {
		return probe(fs.Args(), logger)
	}
	if len(cfg.Jobs) == 0 {
		fs.Usage()
		return exitUsage
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metrics *observe.Metrics
	if cfg.MetricsAddr != "" {
		shutdown, m, err := serveMetrics(ctx, cfg.MetricsAddr, logger)
		if err != nil {
			logger.WithError(err).Error("failed to start metrics")
			return exitFailure
		}
		defer shutdown()
		metrics = m
	}

	if failed := runJobs(ctx, cfg, metrics, logger); failed > 0 {
		logger.WithFields(logrus.Fields{
			"failed": failed,
			"total":  len(cfg.Jobs),
		}).Error("some jobs failed")
		return exitFailure
	}
	return exitOK
}

// buildConfig loads -config when given, then applies flags the user set
// explicitly and the positional input/output pair.
func buildConfig(fs *flag.FlagSet, f flags) (*config.Config, error) {
	cfg := config.Defaults()
	if f.configPath != "" {
		loaded, err := config.Load(f.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "bitrate":
			cfg.Encoder.BitRate = f.bitRate
		case "channels":
			cfg.Encoder.Channels = f.channels
		case "rate":
			cfg.Encoder.SampleRate = f.sampleRate
		case "log-level":
			cfg.LogLevel = f.logLevel
		case "ffmpeg-log-level":
			cfg.FFmpegLogLevel = f.ffmpegLogLevel
		case "jobs":
			cfg.Concurrency = f.jobs
		case "metrics-addr":
			cfg.MetricsAddr = f.metricsAddr
		case "rm-failed":
			cfg.RemoveFailedOutput = f.removeFailed
		}
	})

	if !f.probe {
		switch fs.NArg() {
		case 0:
		case 2:
			cfg.Jobs = append(cfg.Jobs, config.Job{Input: fs.Arg(0), Output: fs.Arg(1)})
		default:
			return nil, fmt.Errorf("expected <input> <output>, got %d arguments", fs.NArg())
		}
	} else if fs.NArg() == 0 {
		return nil, errors.New("-probe needs at least one file")
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runJobs transcodes every job with at most cfg.Concurrency sessions at
// once and returns the number that failed. A failed job does not stop the
// others.
func runJobs(ctx context.Context, cfg *config.Config, metrics *observe.Metrics, logger *logrus.Logger) int {
	var failed atomic.Int32
	var g errgroup.Group
	g.SetLimit(cfg.Concurrency)

	for i, job := range cfg.Jobs {
		i, job := i, job
		g.Go(func() error {
			log := logger.WithFields(logrus.Fields{
				"job":    i,
				"input":  job.Input,
				"output": job.Output,
			})
			opts := cfg.Options(log)
			if metrics != nil {
				opts = append(opts, fftranscode.WithObserver(metrics.Session(encoderLabel(job.Output))))
			}

			tr := fftranscode.NewTranscoder(job.Input, job.Output, opts...)
			if err := tr.Run(ctx); err != nil {
				failed.Add(1)
				log.WithError(err).Error("job failed")
				return nil
			}
			stats := tr.Stats()
			log.WithFields(logrus.Fields{
				"duration":        stats.InputDuration.String(),
				"packets_skipped": stats.PacketsSkipped,
				"bytes_written":   stats.BytesWritten,
				"elapsed":         stats.Elapsed.Round(time.Millisecond).String(),
			}).Info("job done")
			return nil
		})
	}
	_ = g.Wait()
	return int(failed.Load())
}

func encoderLabel(output string) string {
	if strings.EqualFold(filepath.Ext(output), ".opus") {
		return "opus"
	}
	return "aac"
}

// serveMetrics installs the OTel Prometheus bridge and serves /metrics.
func serveMetrics(ctx context.Context, addr string, logger *logrus.Logger) (func(), *observe.Metrics, error) {
	shutdownProvider, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceVersion: version})
	if err != nil {
		return nil, nil, err
	}
	metrics, err := observe.NewMetrics(otel.GetMeterProvider())
	if err != nil {
		_ = shutdownProvider(ctx)
		return nil, nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("metrics server failed")
		}
	}()
	logger.WithField("addr", addr).Info("serving metrics")

	shutdown := func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			logger.WithError(err).Warn("metrics server shutdown")
		}
		if err := shutdownProvider(sctx); err != nil {
			logger.WithError(err).Warn("meter provider shutdown")
		}
	}
	return shutdown, metrics, nil
}

// probe prints one line per file and returns exitFailure if any file
// cannot be opened.
func probe(paths []string, logger *logrus.Logger) int {
	code := exitOK
	for _, path := range paths {
		res, err := fftranscode.Probe(path, fftranscode.WithLogger(logger))
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			code = exitFailure
			continue
		}
		estimate := ""
		if res.DurationIsEstimate {
			estimate = " (estimated)"
		}
		fmt.Printf("%s: %s, %s, %s, %v%s, %d b/s\n",
			path, res.Format, res.Stream.CodecName, res.DecodedFormat,
			res.Duration.Round(time.Millisecond), estimate, res.BitRate)
	}
	return code
}
