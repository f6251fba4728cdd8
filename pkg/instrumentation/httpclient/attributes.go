// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package httpclient

import (
	"context"
	"net"
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.opentelemetry.io/otel/trace"
)

type clientSpanNameExtractor struct{}

func (clientSpanNameExtractor) Extract(req *http.Request) string {
	if req == nil || req.Method == "" {
		return "HTTP"
	}
	return req.Method
}

type clientAttrsExtractor struct{}

func (clientAttrsExtractor) OnStart(
	parentContext context.Context,
	attributes []attribute.KeyValue,
	req *http.Request,
) ([]attribute.KeyValue, context.Context) {
	if req == nil {
		return attributes, parentContext
	}
	attributes = append(attributes, semconv.HTTPRequestMethodKey.String(req.Method))
	if req.URL != nil {
		attributes = append(attributes, semconv.URLFull(req.URL.String()))
		host, port := splitHostPort(req.URL.Host)
		if host != "" {
			attributes = append(attributes, semconv.ServerAddress(host))
		}
		if port > 0 {
			attributes = append(attributes, semconv.ServerPort(port))
		}
	}
	return attributes, parentContext
}

func (clientAttrsExtractor) OnEnd(
	ctx context.Context,
	attributes []attribute.KeyValue,
	_ *http.Request,
	resp *http.Response,
	err error,
) ([]attribute.KeyValue, context.Context) {
	if resp != nil {
		attributes = append(attributes, semconv.HTTPResponseStatusCode(resp.StatusCode))
	}
	if err != nil {
		attributes = append(attributes, semconv.ErrorTypeOther)
	}
	return attributes, ctx
}

type clientSpanStatusExtractor struct{}

func (clientSpanStatusExtractor) Extract(span trace.Span, _ *http.Request, resp *http.Response, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return
	}
	if resp != nil && resp.StatusCode >= http.StatusBadRequest {
		span.SetStatus(codes.Error, "")
	}
}

// splitHostPort splits "host", "host:port" or "[host]:port". Port is -1 when
// absent or unparsable.
func splitHostPort(hostport string) (host string, port int) {
	if hostport == "" {
		return "", -1
	}
	host, portStr, err := net.SplitHostPort(hostport)
	if err != nil {
		return hostport, -1
	}
	p, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return host, -1
	}
	return host, int(p)
}
