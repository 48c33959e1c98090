//go:build !ios && !android && (amd64 || arm64)

// Package observe records transcoding sessions as OpenTelemetry metrics.
//
// [Metrics] owns the instruments; [Metrics.Session] returns an
// fftranscode.Observer for one session that turns its progress snapshots
// into counter increments. Tests should build Metrics on their own
// [metric.MeterProvider] to avoid cross-test pollution.
package observe

import (
	"context"
	"sync"
	"time"

	"github.com/obinnaokechukwu/fftranscode"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all metrics.
const meterName = "github.com/obinnaokechukwu/fftranscode"

// Metrics holds the instruments shared by every session.
type Metrics struct {
	// Sessions counts finished sessions. Attribute: status (ok, failed).
	Sessions metric.Int64Counter

	// ActiveSessions tracks sessions between Streaming and a final state.
	ActiveSessions metric.Int64UpDownCounter

	// SessionDuration tracks wall time per session.
	SessionDuration metric.Float64Histogram

	PacketsRead    metric.Int64Counter
	PacketsSkipped metric.Int64Counter
	ReadErrors     metric.Int64Counter
	DecodeErrors   metric.Int64Counter
	SamplesEncoded metric.Int64Counter
	PacketsWritten metric.Int64Counter
	BytesWritten   metric.Int64Counter
}

// durationBuckets are histogram boundaries in seconds.
var durationBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 300,
}

// NewMetrics creates every instrument on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.Sessions, err = m.Int64Counter("fftranscode.sessions",
		metric.WithDescription("Finished transcoding sessions by status."),
	); err != nil {
		return nil, err
	}
	if met.ActiveSessions, err = m.Int64UpDownCounter("fftranscode.sessions.active",
		metric.WithDescription("Sessions currently streaming or draining."),
	); err != nil {
		return nil, err
	}
	if met.SessionDuration, err = m.Float64Histogram("fftranscode.session.duration",
		metric.WithDescription("Wall time of a transcoding session."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
	); err != nil {
		return nil, err
	}

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
		unit string
	}{
		{&met.PacketsRead, "fftranscode.packets.read", "Input packets read.", "{packet}"},
		{&met.PacketsSkipped, "fftranscode.packets.skipped", "Input packets dropped after a decode error.", "{packet}"},
		{&met.ReadErrors, "fftranscode.read.errors", "Failed packet reads.", "{error}"},
		{&met.DecodeErrors, "fftranscode.decode.errors", "Packets the decoder rejected.", "{error}"},
		{&met.SamplesEncoded, "fftranscode.samples.encoded", "Samples per channel handed to encoders.", "{sample}"},
		{&met.PacketsWritten, "fftranscode.packets.written", "Output packets written.", "{packet}"},
		{&met.BytesWritten, "fftranscode.bytes.written", "Encoded payload bytes written.", "By"},
	}
	for _, c := range counters {
		if *c.dst, err = m.Int64Counter(c.name,
			metric.WithDescription(c.desc),
			metric.WithUnit(c.unit),
		); err != nil {
			return nil, err
		}
	}
	return met, nil
}

// Session returns an Observer that records one session. encoder labels the
// session's metrics, e.g. "opus" or "aac".
func (m *Metrics) Session(encoder string) *SessionObserver {
	return &SessionObserver{
		m:     m,
		attrs: metric.WithAttributes(attribute.String("encoder", encoder)),
		start: time.Now(),
	}
}

// SessionObserver implements fftranscode.Observer.
type SessionObserver struct {
	m      *Metrics
	attrs  metric.MeasurementOption
	start  time.Time
	mu     sync.Mutex
	last   fftranscode.Stats
	active bool
}

var _ fftranscode.Observer = (*SessionObserver)(nil)

// OnState tracks active sessions and records the outcome of final states.
func (o *SessionObserver) OnState(from, to fftranscode.State) {
	ctx := context.Background()
	o.mu.Lock()
	defer o.mu.Unlock()

	switch to {
	case fftranscode.StateStreaming:
		if !o.active {
			o.active = true
			o.m.ActiveSessions.Add(ctx, 1, o.attrs)
		}
	case fftranscode.StateFinalized, fftranscode.StateFailed:
		if o.active {
			o.active = false
			o.m.ActiveSessions.Add(ctx, -1, o.attrs)
		}
		status := "ok"
		if to == fftranscode.StateFailed {
			status = "failed"
		}
		o.m.Sessions.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
		o.m.SessionDuration.Record(ctx, time.Since(o.start).Seconds(), o.attrs)
	}
}

// OnProgress adds the growth of every counter since the previous snapshot.
func (o *SessionObserver) OnProgress(s fftranscode.Stats) {
	ctx := context.Background()
	o.mu.Lock()
	defer o.mu.Unlock()

	add := func(c metric.Int64Counter, now, prev int64) {
		if d := now - prev; d > 0 {
			c.Add(ctx, d, o.attrs)
		}
	}
	add(o.m.PacketsRead, s.PacketsRead, o.last.PacketsRead)
	add(o.m.PacketsSkipped, s.PacketsSkipped, o.last.PacketsSkipped)
	add(o.m.ReadErrors, s.ReadErrors, o.last.ReadErrors)
	add(o.m.DecodeErrors, s.DecodeErrors, o.last.DecodeErrors)
	add(o.m.SamplesEncoded, s.SamplesEncoded, o.last.SamplesEncoded)
	add(o.m.PacketsWritten, s.PacketsWritten, o.last.PacketsWritten)
	add(o.m.BytesWritten, s.BytesWritten, o.last.BytesWritten)
	o.last = s
}
