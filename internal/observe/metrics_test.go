//go:build !ios && !android && (amd64 || arm64)

package observe

import (
	"context"
	"testing"

	"github.com/obinnaokechukwu/fftranscode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newTestMetrics returns a Metrics instance backed by a ManualReader for
// programmatic metric inspection.
func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	require.NoError(t, err)
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

// sumValue returns the total of an int64 sum across all data points whose
// attribute key has value; an empty key matches every point.
func sumValue(t *testing.T, rm metricdata.ResourceMetrics, name, key, value string) int64 {
	t.Helper()
	met := findMetric(rm, name)
	require.NotNil(t, met, "metric %q not found", name)
	sum, ok := met.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %q is not an int64 sum", name)

	var total int64
	for _, dp := range sum.DataPoints {
		if key == "" {
			total += dp.Value
			continue
		}
		for _, kv := range dp.Attributes.ToSlice() {
			if string(kv.Key) == key && kv.Value.AsString() == value {
				total += dp.Value
			}
		}
	}
	return total
}

func TestSessionObserverSuccess(t *testing.T) {
	m, reader := newTestMetrics(t)
	obs := m.Session("opus")

	obs.OnState(fftranscode.StateInitializing, fftranscode.StateStreaming)
	obs.OnProgress(fftranscode.Stats{PacketsRead: 10, SamplesEncoded: 960, PacketsWritten: 1, BytesWritten: 120})

	rm := collect(t, reader)
	assert.Equal(t, int64(1), sumValue(t, rm, "fftranscode.sessions.active", "", ""))

	obs.OnProgress(fftranscode.Stats{PacketsRead: 25, DecodeErrors: 1, PacketsSkipped: 1, SamplesEncoded: 2880, PacketsWritten: 3, BytesWritten: 400})
	obs.OnState(fftranscode.StateStreaming, fftranscode.StateDraining)
	obs.OnState(fftranscode.StateDraining, fftranscode.StateFinalized)

	rm = collect(t, reader)
	assert.Equal(t, int64(25), sumValue(t, rm, "fftranscode.packets.read", "encoder", "opus"))
	assert.Equal(t, int64(1), sumValue(t, rm, "fftranscode.packets.skipped", "", ""))
	assert.Equal(t, int64(1), sumValue(t, rm, "fftranscode.decode.errors", "", ""))
	assert.Equal(t, int64(2880), sumValue(t, rm, "fftranscode.samples.encoded", "", ""))
	assert.Equal(t, int64(3), sumValue(t, rm, "fftranscode.packets.written", "", ""))
	assert.Equal(t, int64(400), sumValue(t, rm, "fftranscode.bytes.written", "", ""))
	assert.Equal(t, int64(0), sumValue(t, rm, "fftranscode.sessions.active", "", ""))
	assert.Equal(t, int64(1), sumValue(t, rm, "fftranscode.sessions", "status", "ok"))

	met := findMetric(rm, "fftranscode.session.duration")
	require.NotNil(t, met)
	hist, ok := met.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
}

func TestSessionObserverFailedBeforeStreaming(t *testing.T) {
	m, reader := newTestMetrics(t)
	obs := m.Session("aac")
	obs.OnState(fftranscode.StateInitializing, fftranscode.StateFailed)

	rm := collect(t, reader)
	assert.Equal(t, int64(1), sumValue(t, rm, "fftranscode.sessions", "status", "failed"))
	if findMetric(rm, "fftranscode.sessions.active") != nil {
		assert.Zero(t, sumValue(t, rm, "fftranscode.sessions.active", "", ""), "a session that never streamed is never active")
	}
}

func TestSessionObserverIgnoresRepeatedSnapshots(t *testing.T) {
	m, reader := newTestMetrics(t)
	obs := m.Session("aac")
	s := fftranscode.Stats{PacketsRead: 5}
	obs.OnProgress(s)
	obs.OnProgress(s)
	obs.OnProgress(s)

	rm := collect(t, reader)
	assert.Equal(t, int64(5), sumValue(t, rm, "fftranscode.packets.read", "", ""))
}

func TestSessionsAreIndependent(t *testing.T) {
	m, reader := newTestMetrics(t)
	a, b := m.Session("opus"), m.Session("aac")
	a.OnProgress(fftranscode.Stats{PacketsRead: 3})
	b.OnProgress(fftranscode.Stats{PacketsRead: 4})

	rm := collect(t, reader)
	assert.Equal(t, int64(3), sumValue(t, rm, "fftranscode.packets.read", "encoder", "opus"))
	assert.Equal(t, int64(4), sumValue(t, rm, "fftranscode.packets.read", "encoder", "aac"))
	assert.Equal(t, int64(7), sumValue(t, rm, "fftranscode.packets.read", "", ""))
}
