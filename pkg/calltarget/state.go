// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package calltarget implements the call-interception engine. For an
// (integration, target type, argument types) instantiation it builds, once,
// a direct invocation entry point that runs the integration's begin-of-call
// hook with the intercepted call's receiver and arguments by reference, and
// packages the hook's result with the ambient span into a CallState. When no
// hook can be resolved, or resolution fails, the instantiation settles into
// a no-op fallback: interception must never break the host application.
package calltarget

import (
	"go.opentelemetry.io/otel/trace"
)

// CallState transports the outcome of a begin-of-call hook to the matching
// end-of-call hook. It is produced atomically by the invocation entry point
// and is immutable. The zero value is the default state returned by the
// fallback entry point: no ambient span, no continuation.
//
// The span reference is a snapshot of the goroutine's ambient span at the
// moment the begin hook returned. The CallState does not own it.
type CallState struct {
	span         trace.Span
	continuation any
}

// Capture builds a CallState from a hook's continuation value and the
// ambient span observed after the hook ran. Both may be absent.
func Capture(continuation any, span trace.Span) CallState {
	return CallState{span: span, continuation: continuation}
}

// Span returns the ambient span captured at hook time, or nil.
func (s CallState) Span() trace.Span { return s.span }

// Continuation returns the opaque value supplied by the begin hook, or nil.
// Its meaning is private to the hook pair that produced and consumes it.
func (s CallState) Continuation() any { return s.continuation }
