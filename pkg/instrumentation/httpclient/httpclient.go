// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package httpclient instruments outgoing HTTP requests through the
// interception engine: a begin hook starts a client span and injects the
// trace context into the request headers, the matching end hook records the
// response and closes the span.
package httpclient

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/instrumentation"

	"github.com/cloudnativeleague/opentelemetry-dotnet-instrumentation/pkg/calltarget"
	"github.com/cloudnativeleague/opentelemetry-dotnet-instrumentation/pkg/hookreg"
	"github.com/cloudnativeleague/opentelemetry-dotnet-instrumentation/pkg/instrumentation/shared"
	"github.com/cloudnativeleague/opentelemetry-dotnet-instrumentation/pkg/instrumenter"
)

const (
	otelExporterPrefix     = "OTel OTLP Exporter Go"
	integrationName        = "httpclient"
	instrumentationName    = "github.com/cloudnativeleague/opentelemetry-dotnet-instrumentation/pkg/instrumentation/httpclient"
	instrumentationVersion = "0.1.0"
)

// Doer is the capability an interception target must offer. Matching on the
// interface rather than on *http.Client lets the same hooks cover any client
// implementation with a Do method.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

var (
	logger   = shared.Logger()
	inst     *instrumenter.PropagatingToDownstreamInstrumenter[*http.Request, *http.Response]
	initOnce sync.Once
)

func init() {
	hookreg.RegisterBegin1[Doer, *http.Request](hookreg.Default, integrationName, beforeDo)
	hookreg.RegisterEnd1[Doer, *http.Response](hookreg.Default, integrationName, afterDo)
}

type clientEnabler struct{}

func (clientEnabler) Enable() bool {
	return shared.IntegrationEnabled(integrationName)
}

func initIntegration() {
	initOnce.Do(func() {
		shared.Initialize(shared.Config{
			ServiceName:            "otel-instrumentation",
			ServiceVersion:         instrumentationVersion,
			InstrumentationName:    instrumentationName,
			InstrumentationVersion: instrumentationVersion,
		})
		_ = shared.StartRuntimeMetrics()

		builder := instrumenter.Builder[*http.Request, *http.Response]{}
		builder.Init().
			SetSpanNameExtractor(clientSpanNameExtractor{}).
			SetSpanKindExtractor(&instrumenter.AlwaysClientExtractor[*http.Request]{}).
			SetSpanStatusExtractor(clientSpanStatusExtractor{}).
			SetEnabler(clientEnabler{}).
			AddAttributesExtractor(clientAttrsExtractor{}).
			SetInstrumentationScope(instrumentation.Scope{
				Name:    instrumentationName,
				Version: instrumentationVersion,
			})
		duration, err := instrumenter.NewOperationDuration(
			otel.GetMeterProvider().Meter(instrumentationName),
			"http.client.request.duration")
		if err != nil {
			logger.Warn("failed to create request duration histogram", "error", err)
		} else {
			builder.AddOperationListeners(duration)
		}
		inst = builder.BuildPropagatingToDownstreamInstrumenter(
			func(req *http.Request) propagation.TextMapCarrier {
				return propagation.HeaderCarrier(req.Header)
			}, nil)
		logger.Info("HTTP client instrumentation initialized")
	})
}

// callData travels from the begin hook to the end hook as the continuation.
type callData struct {
	ctx context.Context
	req *http.Request
}

func beforeDo(_ Doer, req **http.Request) any {
	if req == nil || *req == nil {
		return nil
	}
	r := *req

	// Requests issued by the OTLP exporter itself must not be traced, or
	// every export would recurse into another export.
	if strings.HasPrefix(r.Header.Get("User-Agent"), otelExporterPrefix) {
		return nil
	}

	initIntegration()
	if !inst.ShouldStart(r.Context(), r) {
		return nil
	}

	ctx := inst.Start(r.Context(), r)
	*req = r.WithContext(ctx)
	return &callData{ctx: ctx, req: r}
}

func afterDo(_ Doer, resp **http.Response, callErr error, state calltarget.CallState) {
	data, ok := state.Continuation().(*callData)
	if !ok {
		return
	}
	var response *http.Response
	if resp != nil {
		response = *resp
	}
	inst.End(data.ctx, instrumenter.Invocation[*http.Request, *http.Response]{
		Request:      data.req,
		Response:     response,
		Err:          callErr,
		EndTimeStamp: time.Now(),
	})
}

// InterceptDoBegin is the entry point an instrumented call site runs before
// a Do call. The request pointer may be rewritten to carry the span context.
func InterceptDoBegin(client Doer, req **http.Request) calltarget.CallState {
	return calltarget.Begin1[Doer, *http.Request](hookreg.Default, integrationName).Invoke(client, req)
}

// InterceptDoEnd is the entry point an instrumented call site runs after a
// Do call, with the state returned by InterceptDoBegin.
func InterceptDoEnd(client Doer, resp **http.Response, callErr error, state calltarget.CallState) {
	calltarget.End1[Doer, *http.Response](hookreg.Default, integrationName).Invoke(client, resp, callErr, state)
}

// Do performs client.Do with interception applied. It is the hand-written
// equivalent of an instrumented call site and is what the tests exercise.
func Do(client Doer, req *http.Request) (*http.Response, error) {
	state := InterceptDoBegin(client, &req)
	resp, err := client.Do(req)
	InterceptDoEnd(client, &resp, err, state)
	return resp, err
}
