// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package instrumenter

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type startTimeKey struct{}

// OperationDuration is an OperationListener recording the wall time of each
// instrumented operation into a histogram, tagged with the operation's end
// attributes.
type OperationDuration struct {
	duration metric.Float64Histogram
}

func NewOperationDuration(meter metric.Meter, name string) (*OperationDuration, error) {
	d, err := meter.Float64Histogram(name,
		metric.WithUnit("ms"),
		metric.WithDescription("Duration of intercepted operations."))
	if err != nil {
		return nil, err
	}
	return &OperationDuration{duration: d}, nil
}

func (*OperationDuration) OnBeforeStart(parentContext context.Context, startTimestamp time.Time) context.Context {
	return context.WithValue(parentContext, startTimeKey{}, startTimestamp)
}

func (*OperationDuration) OnBeforeEnd(ctx context.Context, _ []attribute.KeyValue, _ time.Time) context.Context {
	return ctx
}

func (*OperationDuration) OnAfterStart(context.Context, time.Time) {}

func (d *OperationDuration) OnAfterEnd(ctx context.Context, endAttributes []attribute.KeyValue, endTimestamp time.Time) {
	start, ok := ctx.Value(startTimeKey{}).(time.Time)
	if !ok {
		return
	}
	elapsed := float64(endTimestamp.Sub(start)) / float64(time.Millisecond)
	d.duration.Record(ctx, elapsed, metric.WithAttributes(endAttributes...))
}
