// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package ambient

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func newTestSpans(t *testing.T, names ...string) []trace.Span {
	t.Helper()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(tracetest.NewSpanRecorder()),
	)
	tracer := tp.Tracer("ambient-test")
	spans := make([]trace.Span, 0, len(names))
	for _, name := range names {
		_, span := tracer.Start(context.Background(), name)
		spans = append(spans, span)
	}
	return spans
}

func TestCurrentSpanEmptyByDefault(t *testing.T) {
	assert.Nil(t, CurrentSpan())
}

func TestActivateRestore(t *testing.T) {
	spans := newTestSpans(t, "outer", "inner")
	outer, inner := spans[0], spans[1]

	restoreOuter := Activate(outer)
	assert.Same(t, outer, CurrentSpan())

	restoreInner := Activate(inner)
	assert.Same(t, inner, CurrentSpan())

	restoreInner()
	assert.Same(t, outer, CurrentSpan())

	restoreOuter()
	assert.Nil(t, CurrentSpan())
}

func TestGoroutineIsolation(t *testing.T) {
	const workers = 8
	spans := newTestSpans(t, "main")
	workerSpans := newTestSpans(t, "w0", "w1", "w2", "w3", "w4", "w5", "w6", "w7")

	restore := Activate(spans[0])
	defer restore()

	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// A fresh goroutine must not observe another goroutine's span.
			assert.Nil(t, CurrentSpan())
			r := Activate(workerSpans[i])
			assert.Same(t, workerSpans[i], CurrentSpan())
			r()
			assert.Nil(t, CurrentSpan())
		}()
	}
	wg.Wait()
	assert.Same(t, spans[0], CurrentSpan())
}
