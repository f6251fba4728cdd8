// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package instrumenter

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// Enabler gates an instrumentation at runtime.
type Enabler interface {
	Enable() bool
}

type enabledAlways struct{}

func (enabledAlways) Enable() bool { return true }

// NewAlwaysEnabler returns an Enabler that never disables instrumentation.
func NewAlwaysEnabler() Enabler { return enabledAlways{} }

// OperationListener observes the four corners of an operation lifecycle.
// OnBeforeStart and OnBeforeEnd run during Start, OnAfterStart and
// OnAfterEnd during End.
type OperationListener interface {
	OnBeforeStart(parentContext context.Context, startTimestamp time.Time) context.Context
	OnBeforeEnd(ctx context.Context, startAttributes []attribute.KeyValue, startTimestamp time.Time) context.Context
	OnAfterStart(ctx context.Context, endTimestamp time.Time)
	OnAfterEnd(ctx context.Context, endAttributes []attribute.KeyValue, endTimestamp time.Time)
}
