// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package calltarget

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndHookConsumesCallState(t *testing.T) {
	span := newTestSpan(t, "begin-half")
	begun := Capture("token", span)

	var seenState CallState
	var seenErr error
	r := &fakeResolver{
		end: EndHook1[*dbClient, string](func(_ *dbClient, ret *string, callErr error, state CallState) {
			seenState, seenErr = state, callErr
			*ret = "rewritten"
		}),
	}

	h := End1[*dbClient, string](r, t.Name())
	ret := "original"
	callErr := errors.New("call failed")
	h.Invoke(&dbClient{}, &ret, callErr, begun)

	assert.Equal(t, "token", seenState.Continuation())
	assert.Same(t, span, seenState.Span())
	assert.Equal(t, callErr, seenErr)
	assert.Equal(t, "rewritten", ret)
}

func TestEndHookWithoutReturnValue(t *testing.T) {
	called := false
	r := &fakeResolver{
		end: EndHook0[*dbClient](func(*dbClient, error, CallState) {
			called = true
		}),
	}

	h := End0[*dbClient](r, t.Name())
	h.Invoke(&dbClient{}, nil, CallState{})
	assert.True(t, called)
	assert.Equal(t, int32(1), r.endCalls.Load())
}

func TestEndFallbackIsInert(t *testing.T) {
	r := &fakeResolver{endErr: errors.New("boom")}
	h := End1[*dbClient, int](r, t.Name())

	ret := 42
	require.NotPanics(t, func() {
		h.Invoke(&dbClient{}, &ret, nil, CallState{})
		h.Invoke(&dbClient{}, &ret, nil, CallState{})
	})
	assert.Equal(t, 42, ret)
	assert.Equal(t, int32(1), r.endCalls.Load())
	require.Error(t, h.InitError())
}

func TestEndMismatchedHookSettlesIntoFallback(t *testing.T) {
	r := &fakeResolver{end: EndHook0[*dbClient](func(*dbClient, error, CallState) {})}
	h := End1[*dbClient, int](r, t.Name())

	ret := 1
	require.NotPanics(t, func() {
		h.Invoke(&dbClient{}, &ret, nil, CallState{})
	})
	require.Error(t, h.InitError())
}
