// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package instrumenter

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type AttributesExtractor[REQUEST any, RESPONSE any] interface {
	OnStart(parentContext context.Context, attributes []attribute.KeyValue,
		request REQUEST) ([]attribute.KeyValue, context.Context)
	OnEnd(ctx context.Context, attributes []attribute.KeyValue, request REQUEST,
		response RESPONSE, err error) ([]attribute.KeyValue, context.Context)
}

type SpanNameExtractor[REQUEST any] interface {
	Extract(request REQUEST) string
}

type SpanKindExtractor[REQUEST any] interface {
	Extract(request REQUEST) trace.SpanKind
}

type SpanStatusExtractor[REQUEST any, RESPONSE any] interface {
	Extract(span trace.Span, request REQUEST, response RESPONSE, err error)
}

type AlwaysInternalExtractor[REQUEST any] struct{}

func (*AlwaysInternalExtractor[REQUEST]) Extract(REQUEST) trace.SpanKind {
	return trace.SpanKindInternal
}

type AlwaysClientExtractor[REQUEST any] struct{}

func (*AlwaysClientExtractor[REQUEST]) Extract(REQUEST) trace.SpanKind {
	return trace.SpanKindClient
}

type AlwaysServerExtractor[REQUEST any] struct{}

func (*AlwaysServerExtractor[REQUEST]) Extract(REQUEST) trace.SpanKind {
	return trace.SpanKindServer
}

type AlwaysProducerExtractor[REQUEST any] struct{}

func (*AlwaysProducerExtractor[REQUEST]) Extract(REQUEST) trace.SpanKind {
	return trace.SpanKindProducer
}

type AlwaysConsumerExtractor[REQUEST any] struct{}

func (*AlwaysConsumerExtractor[REQUEST]) Extract(REQUEST) trace.SpanKind {
	return trace.SpanKindConsumer
}

type defaultSpanStatusExtractor[REQUEST any, RESPONSE any] struct{}

func (*defaultSpanStatusExtractor[REQUEST, RESPONSE]) Extract(
	span trace.Span,
	_ REQUEST,
	_ RESPONSE,
	err error,
) {
	if err != nil {
		span.SetStatus(codes.Error, "")
	}
}
