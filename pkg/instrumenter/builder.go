// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package instrumenter

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/instrumentation"
	"go.opentelemetry.io/otel/trace"
)

type Builder[REQUEST any, RESPONSE any] struct {
	Enabler              Enabler
	SpanNameExtractor    SpanNameExtractor[REQUEST]
	SpanKindExtractor    SpanKindExtractor[REQUEST]
	SpanStatusExtractor  SpanStatusExtractor[REQUEST, RESPONSE]
	AttributesExtractors []AttributesExtractor[REQUEST, RESPONSE]
	OperationListeners   []OperationListener
	Scope                instrumentation.Scope
}

func (b *Builder[REQUEST, RESPONSE]) Init() *Builder[REQUEST, RESPONSE] {
	b.Enabler = enabledAlways{}
	b.SpanStatusExtractor = &defaultSpanStatusExtractor[REQUEST, RESPONSE]{}
	b.AttributesExtractors = make([]AttributesExtractor[REQUEST, RESPONSE], 0)
	return b
}

func (b *Builder[REQUEST, RESPONSE]) SetInstrumentationScope(scope instrumentation.Scope) *Builder[REQUEST, RESPONSE] {
	b.Scope = scope
	return b
}

func (b *Builder[REQUEST, RESPONSE]) SetEnabler(enabler Enabler) *Builder[REQUEST, RESPONSE] {
	b.Enabler = enabler
	return b
}

func (b *Builder[REQUEST, RESPONSE]) SetSpanNameExtractor(
	spanNameExtractor SpanNameExtractor[REQUEST],
) *Builder[REQUEST, RESPONSE] {
	b.SpanNameExtractor = spanNameExtractor
	return b
}

func (b *Builder[REQUEST, RESPONSE]) SetSpanKindExtractor(
	spanKindExtractor SpanKindExtractor[REQUEST],
) *Builder[REQUEST, RESPONSE] {
	b.SpanKindExtractor = spanKindExtractor
	return b
}

func (b *Builder[REQUEST, RESPONSE]) SetSpanStatusExtractor(
	spanStatusExtractor SpanStatusExtractor[REQUEST, RESPONSE],
) *Builder[REQUEST, RESPONSE] {
	b.SpanStatusExtractor = spanStatusExtractor
	return b
}

func (b *Builder[REQUEST, RESPONSE]) AddAttributesExtractor(
	attributesExtractor ...AttributesExtractor[REQUEST, RESPONSE],
) *Builder[REQUEST, RESPONSE] {
	b.AttributesExtractors = append(b.AttributesExtractors, attributesExtractor...)
	return b
}

func (b *Builder[REQUEST, RESPONSE]) AddOperationListeners(
	operationListener ...OperationListener,
) *Builder[REQUEST, RESPONSE] {
	b.OperationListeners = append(b.OperationListeners, operationListener...)
	return b
}

func (b *Builder[REQUEST, RESPONSE]) newTracer() trace.Tracer {
	return otel.GetTracerProvider().Tracer(b.Scope.Name,
		trace.WithInstrumentationVersion(b.Scope.Version),
		trace.WithSchemaURL(b.Scope.SchemaURL))
}

func (b *Builder[REQUEST, RESPONSE]) buildBase(tracer trace.Tracer) InternalInstrumenter[REQUEST, RESPONSE] {
	return InternalInstrumenter[REQUEST, RESPONSE]{
		enabler:              b.Enabler,
		spanNameExtractor:    b.SpanNameExtractor,
		spanKindExtractor:    b.SpanKindExtractor,
		spanStatusExtractor:  b.SpanStatusExtractor,
		attributesExtractors: b.AttributesExtractors,
		operationListeners:   b.OperationListeners,
		tracer:               tracer,
	}
}

func (b *Builder[REQUEST, RESPONSE]) BuildInstrumenter() *InternalInstrumenter[REQUEST, RESPONSE] {
	inst := b.buildBase(b.newTracer())
	return &inst
}

// BuildInstrumenterWithTracer is meant for tests that supply their own
// tracer provider.
func (b *Builder[REQUEST, RESPONSE]) BuildInstrumenterWithTracer(
	tracer trace.Tracer,
) *InternalInstrumenter[REQUEST, RESPONSE] {
	inst := b.buildBase(tracer)
	return &inst
}

func (b *Builder[REQUEST, RESPONSE]) BuildPropagatingToDownstreamInstrumenter(
	carrierGetter func(REQUEST) propagation.TextMapCarrier,
	prop propagation.TextMapPropagator,
) *PropagatingToDownstreamInstrumenter[REQUEST, RESPONSE] {
	return &PropagatingToDownstreamInstrumenter[REQUEST, RESPONSE]{
		base:          b.buildBase(b.newTracer()),
		carrierGetter: carrierGetter,
		prop:          prop,
	}
}

func (b *Builder[REQUEST, RESPONSE]) BuildPropagatingFromUpstreamInstrumenter(
	carrierGetter func(REQUEST) propagation.TextMapCarrier,
	prop propagation.TextMapPropagator,
) *PropagatingFromUpstreamInstrumenter[REQUEST, RESPONSE] {
	return &PropagatingFromUpstreamInstrumenter[REQUEST, RESPONSE]{
		base:          b.buildBase(b.newTracer()),
		carrierGetter: carrierGetter,
		prop:          prop,
	}
}
