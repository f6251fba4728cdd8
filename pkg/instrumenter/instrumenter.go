// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package instrumenter gathers the telemetry for one instrumented operation:
// it starts and ends spans, extracts attributes, notifies operation
// listeners and keeps the started span registered as the goroutine's ambient
// span so interception state captured mid-call refers to it.
//
// Begin hooks call Start and stash the returned context in their
// continuation; the matching end hook passes it back to End. Start and End
// must run on the same goroutine, which interception guarantees for
// synchronous calls.
package instrumenter

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/cloudnativeleague/opentelemetry-dotnet-instrumentation/pkg/ambient"
)

// Invocation encapsulates the parameters needed for ending an instrumented
// operation.
type Invocation[REQUEST any, RESPONSE any] struct {
	Request        REQUEST
	Response       RESPONSE
	Err            error
	StartTimeStamp time.Time
	EndTimeStamp   time.Time
}

// Instrumenter is called at the start and the end of an operation lifecycle.
// Always pair Start with End: a Start without End leaks the ambient span
// registration and produces wrong telemetry.
type Instrumenter[REQUEST any, RESPONSE any] interface {
	// ShouldStart determines whether the operation should be instrumented.
	ShouldStart(parentContext context.Context, request REQUEST) bool
	// Start begins an instrumented operation, activates its span as the
	// goroutine's ambient span, and returns the context to hand to End.
	Start(parentContext context.Context, request REQUEST, options ...trace.SpanStartOption) context.Context
	// End completes the operation started by Start.
	End(ctx context.Context, invocation Invocation[REQUEST, RESPONSE], options ...trace.SpanEndOption)
	// StartAndEnd instruments an operation whose duration is already known.
	StartAndEnd(parentContext context.Context, invocation Invocation[REQUEST, RESPONSE])
}

type restoreKey struct{}

// InternalInstrumenter is the basic Instrumenter implementation without
// context propagation.
type InternalInstrumenter[REQUEST any, RESPONSE any] struct {
	enabler              Enabler
	spanNameExtractor    SpanNameExtractor[REQUEST]
	spanKindExtractor    SpanKindExtractor[REQUEST]
	spanStatusExtractor  SpanStatusExtractor[REQUEST, RESPONSE]
	attributesExtractors []AttributesExtractor[REQUEST, RESPONSE]
	operationListeners   []OperationListener
	tracer               trace.Tracer
}

const defaultAttributesSliceSize = 24

func (*InternalInstrumenter[REQUEST, RESPONSE]) ShouldStart(context.Context, REQUEST) bool {
	return true
}

func (i *InternalInstrumenter[REQUEST, RESPONSE]) Start(
	parentContext context.Context,
	request REQUEST,
	options ...trace.SpanStartOption,
) context.Context {
	return i.doStart(parentContext, request, time.Now(), options...)
}

func (i *InternalInstrumenter[REQUEST, RESPONSE]) doStart(
	parentContext context.Context,
	request REQUEST,
	timestamp time.Time,
	options ...trace.SpanStartOption,
) context.Context {
	if i.enabler != nil && !i.enabler.Enable() {
		return parentContext
	}
	ctx := parentContext
	for _, listener := range i.operationListeners {
		ctx = listener.OnBeforeStart(ctx, timestamp)
	}
	spanName := i.spanNameExtractor.Extract(request)
	spanKind := i.spanKindExtractor.Extract(request)
	options = append(options, trace.WithSpanKind(spanKind), trace.WithTimestamp(timestamp))
	ctx, span := i.tracer.Start(ctx, spanName, options...)
	attrs := make([]attribute.KeyValue, 0, defaultAttributesSliceSize)
	for _, extractor := range i.attributesExtractors {
		attrs, ctx = extractor.OnStart(ctx, attrs, request)
	}
	for _, listener := range i.operationListeners {
		ctx = listener.OnBeforeEnd(ctx, attrs, timestamp)
	}
	span.SetAttributes(attrs...)
	restore := ambient.Activate(span)
	return context.WithValue(ctx, restoreKey{}, restore)
}

func (i *InternalInstrumenter[REQUEST, RESPONSE]) End(
	ctx context.Context,
	invocation Invocation[REQUEST, RESPONSE],
	options ...trace.SpanEndOption,
) {
	i.doEnd(ctx, invocation, invocation.EndTimeStamp, options...)
}

func (i *InternalInstrumenter[REQUEST, RESPONSE]) doEnd(
	ctx context.Context,
	invocation Invocation[REQUEST, RESPONSE],
	timestamp time.Time,
	options ...trace.SpanEndOption,
) {
	if i.enabler != nil && !i.enabler.Enable() {
		return
	}
	if timestamp.IsZero() {
		timestamp = time.Now()
	}
	for _, listener := range i.operationListeners {
		listener.OnAfterStart(ctx, timestamp)
	}
	span := trace.SpanFromContext(ctx)
	attrs := make([]attribute.KeyValue, 0, defaultAttributesSliceSize)
	for _, extractor := range i.attributesExtractors {
		attrs, ctx = extractor.OnEnd(ctx, attrs, invocation.Request, invocation.Response, invocation.Err)
	}
	i.spanStatusExtractor.Extract(span, invocation.Request, invocation.Response, invocation.Err)
	span.SetAttributes(attrs...)
	options = append(options, trace.WithTimestamp(timestamp))
	span.End(options...)
	if restore, ok := ctx.Value(restoreKey{}).(func()); ok {
		restore()
	}
	for _, listener := range i.operationListeners {
		listener.OnAfterEnd(ctx, attrs, timestamp)
	}
}

func (i *InternalInstrumenter[REQUEST, RESPONSE]) StartAndEnd(
	parentContext context.Context,
	invocation Invocation[REQUEST, RESPONSE],
) {
	startTime := invocation.StartTimeStamp
	if startTime.IsZero() {
		startTime = time.Now()
	}
	ctx := i.doStart(parentContext, invocation.Request, startTime)
	i.End(ctx, invocation)
}

// PropagatingToDownstreamInstrumenter instruments and injects the trace
// context into an outgoing carrier: http clients, rpc clients, producers.
type PropagatingToDownstreamInstrumenter[REQUEST any, RESPONSE any] struct {
	carrierGetter func(REQUEST) propagation.TextMapCarrier
	prop          propagation.TextMapPropagator
	base          InternalInstrumenter[REQUEST, RESPONSE]
}

func (p *PropagatingToDownstreamInstrumenter[REQUEST, RESPONSE]) ShouldStart(
	parentContext context.Context,
	request REQUEST,
) bool {
	return p.base.ShouldStart(parentContext, request)
}

func (p *PropagatingToDownstreamInstrumenter[REQUEST, RESPONSE]) Start(
	parentContext context.Context,
	request REQUEST,
	options ...trace.SpanStartOption,
) context.Context {
	newCtx := p.base.Start(parentContext, request, options...)
	if p.carrierGetter != nil {
		prop := p.prop
		if prop == nil {
			prop = otel.GetTextMapPropagator()
		}
		prop.Inject(newCtx, p.carrierGetter(request))
	}
	return newCtx
}

func (p *PropagatingToDownstreamInstrumenter[REQUEST, RESPONSE]) End(
	ctx context.Context,
	invocation Invocation[REQUEST, RESPONSE],
	options ...trace.SpanEndOption,
) {
	p.base.End(ctx, invocation, options...)
}

func (p *PropagatingToDownstreamInstrumenter[REQUEST, RESPONSE]) StartAndEnd(
	parentContext context.Context,
	invocation Invocation[REQUEST, RESPONSE],
) {
	ctx := p.Start(parentContext, invocation.Request)
	p.End(ctx, invocation)
}

// PropagatingFromUpstreamInstrumenter extracts the remote trace context
// from an incoming carrier before instrumenting: http servers, rpc servers,
// consumers.
type PropagatingFromUpstreamInstrumenter[REQUEST any, RESPONSE any] struct {
	carrierGetter func(REQUEST) propagation.TextMapCarrier
	prop          propagation.TextMapPropagator
	base          InternalInstrumenter[REQUEST, RESPONSE]
}

func (p *PropagatingFromUpstreamInstrumenter[REQUEST, RESPONSE]) ShouldStart(
	parentContext context.Context,
	request REQUEST,
) bool {
	return p.base.ShouldStart(parentContext, request)
}

func (p *PropagatingFromUpstreamInstrumenter[REQUEST, RESPONSE]) Start(
	parentContext context.Context,
	request REQUEST,
	options ...trace.SpanStartOption,
) context.Context {
	if p.carrierGetter == nil {
		return parentContext
	}
	prop := p.prop
	if prop == nil {
		prop = otel.GetTextMapPropagator()
	}
	extracted := prop.Extract(parentContext, p.carrierGetter(request))
	return p.base.Start(extracted, request, options...)
}

func (p *PropagatingFromUpstreamInstrumenter[REQUEST, RESPONSE]) End(
	ctx context.Context,
	invocation Invocation[REQUEST, RESPONSE],
	options ...trace.SpanEndOption,
) {
	p.base.End(ctx, invocation, options...)
}

func (p *PropagatingFromUpstreamInstrumenter[REQUEST, RESPONSE]) StartAndEnd(
	parentContext context.Context,
	invocation Invocation[REQUEST, RESPONSE],
) {
	ctx := p.Start(parentContext, invocation.Request)
	p.End(ctx, invocation)
}
