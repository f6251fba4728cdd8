// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package ambient tracks the trace span considered "current" on each
// goroutine. It is the process-wide registry that interception code reads
// after a begin hook runs; instrumentation that starts a span is expected
// to activate it here for the duration of the instrumented call.
//
// The registry holds plain span references. It never ends a span and a
// span's lifetime is governed entirely by whoever started it.
package ambient

import (
	"sync"

	"github.com/petermattis/goid"
	"go.opentelemetry.io/otel/trace"
)

// shardCount must be a power of two.
const shardCount = 64

type shard struct {
	mu    sync.RWMutex
	spans map[int64]trace.Span
}

var shards [shardCount]shard

func init() {
	for i := range shards {
		shards[i].spans = make(map[int64]trace.Span)
	}
}

func shardFor(gid int64) *shard {
	return &shards[uint64(gid)&(shardCount-1)]
}

// CurrentSpan returns the span active on the calling goroutine, or nil when
// no span has been activated.
func CurrentSpan() trace.Span {
	gid := goid.Get()
	s := shardFor(gid)
	s.mu.RLock()
	span := s.spans[gid]
	s.mu.RUnlock()
	return span
}

// Activate installs span as the calling goroutine's current span and returns
// a function that restores the previous state. The restore function must run
// on the same goroutine, typically deferred around the instrumented call.
// Activations nest: each restore undoes exactly one Activate.
func Activate(span trace.Span) (restore func()) {
	gid := goid.Get()
	s := shardFor(gid)
	s.mu.Lock()
	prev, hadPrev := s.spans[gid]
	s.spans[gid] = span
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		if hadPrev {
			s.spans[gid] = prev
		} else {
			// Delete rather than storing nil so finished goroutines do
			// not leave entries behind.
			delete(s.spans, gid)
		}
		s.mu.Unlock()
	}
}
