// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package calltarget

import (
	"reflect"

	"github.com/cloudnativeleague/opentelemetry-dotnet-instrumentation/internal/ex"
)

// End-of-call handlers are the peers that consume the CallState produced by
// the begin half. They follow the same discipline: resolve once per
// instantiation, cache a resolved or fallback entry point, never fail on
// the interception path. An end hook receives the call's error and, when the
// call returns a value, a pointer to it so the hook can replace it.

type (
	EndHook0[TTarget any]          func(target TTarget, callErr error, state CallState)
	EndHook1[TTarget, TReturn any] func(target TTarget, ret *TReturn, callErr error, state CallState)
)

// EndHandler0 handles calls with no return value.
type EndHandler0[TTarget any] struct {
	handlerCore
	entry func(TTarget, error, CallState)
}

// Invoke runs the cached end entry point. It never fails by itself; the
// fallback does nothing at all.
func (h *EndHandler0[TTarget]) Invoke(target TTarget, callErr error, state CallState) {
	h.once.Do(h.init)
	h.entry(target, callErr, state)
}

func (h *EndHandler0[TTarget]) init() {
	defer func() {
		if h.entry == nil {
			h.entry = func(TTarget, error, CallState) {}
		}
	}()
	hook, err := safeResolveEnd(h.resolver, h.integration, h.target, nil)
	if err != nil {
		h.fail(err)
		return
	}
	if hook == nil {
		return
	}
	fn, ok := hook.(EndHook0[TTarget])
	if !ok {
		h.fail(ex.Newf("hook %T does not match instantiation", hook))
		return
	}
	h.entry = fn
}

// EndHandler1 handles calls with a single return value, passed by reference
// so the hook may observe or replace it before the caller sees it.
type EndHandler1[TTarget, TReturn any] struct {
	handlerCore
	entry func(TTarget, *TReturn, error, CallState)
}

func (h *EndHandler1[TTarget, TReturn]) Invoke(target TTarget, ret *TReturn, callErr error, state CallState) {
	h.once.Do(h.init)
	h.entry(target, ret, callErr, state)
}

func (h *EndHandler1[TTarget, TReturn]) init() {
	defer func() {
		if h.entry == nil {
			h.entry = func(TTarget, *TReturn, error, CallState) {}
		}
	}()
	returns := []reflect.Type{ByRefType(typeOf[TReturn]())}
	hook, err := safeResolveEnd(h.resolver, h.integration, h.target, returns)
	if err != nil {
		h.fail(err)
		return
	}
	if hook == nil {
		return
	}
	fn, ok := hook.(EndHook1[TTarget, TReturn])
	if !ok {
		h.fail(ex.Newf("hook %T does not match instantiation", hook))
		return
	}
	h.entry = fn
}
