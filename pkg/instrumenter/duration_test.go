// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package instrumenter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestOperationDurationRecordsHistogram(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	listener, err := NewOperationDuration(provider.Meter("test"), "interception.call.duration")
	require.NoError(t, err)

	start := time.Now()
	ctx := listener.OnBeforeStart(context.Background(), start)
	ctx = listener.OnBeforeEnd(ctx, nil, start)
	listener.OnAfterStart(ctx, start)
	listener.OnAfterEnd(ctx, []attribute.KeyValue{
		attribute.String("call.operation", "fetch"),
	}, start.Add(250*time.Millisecond))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)
	require.Len(t, rm.ScopeMetrics[0].Metrics, 1)
	assert.Equal(t, "interception.call.duration", rm.ScopeMetrics[0].Metrics[0].Name)

	hist, ok := rm.ScopeMetrics[0].Metrics[0].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	point := hist.DataPoints[0]
	assert.Equal(t, uint64(1), point.Count)
	assert.InDelta(t, 250.0, point.Sum, 0.001)
	value, found := point.Attributes.Value("call.operation")
	require.True(t, found)
	assert.Equal(t, "fetch", value.AsString())
}

func TestOperationDurationWithoutStartIsInert(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	listener, err := NewOperationDuration(provider.Meter("test"), "interception.call.duration")
	require.NoError(t, err)

	// End notifications on a context that never saw OnBeforeStart record
	// nothing.
	listener.OnAfterEnd(context.Background(), nil, time.Now())

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			hist, ok := m.Data.(metricdata.Histogram[float64])
			if ok {
				assert.Empty(t, hist.DataPoints)
			}
		}
	}
}
