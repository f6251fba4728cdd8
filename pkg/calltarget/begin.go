// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package calltarget

import (
	"reflect"

	"github.com/cloudnativeleague/opentelemetry-dotnet-instrumentation/internal/ex"
	"github.com/cloudnativeleague/opentelemetry-dotnet-instrumentation/pkg/ambient"
)

// This file holds the begin-of-call half of the handler family, one member
// per supported argument count. The members are deliberately near-identical:
// Go generics cannot abstract over arity, and folding the argument list into
// a slice or reflection would put allocation and type dispatch on the
// interception path. Only the shape differs; all resolution, caching and
// fallback behavior lives in handlerCore and the shared skeleton below.
//
// Invoke on any member is guaranteed not to fail on its own: a resolution
// problem has already settled the instantiation into the fallback, and the
// fallback does nothing but return the zero CallState. Whatever a resolved
// hook does, including panicking, is the hook's own behavior and is passed
// through untouched.

// Begin hook shapes. A hook receives the intercepted call's receiver and
// every argument by reference, in call order, and returns the continuation
// value handed to the matching end hook. Mutations through the argument
// pointers are visible to the original call.
type (
	BeginHook0[TTarget any]                                                                  func(target TTarget) any
	BeginHook1[TTarget, TArg1 any]                                                           func(target TTarget, arg1 *TArg1) any
	BeginHook2[TTarget, TArg1, TArg2 any]                                                    func(target TTarget, arg1 *TArg1, arg2 *TArg2) any
	BeginHook3[TTarget, TArg1, TArg2, TArg3 any]                                             func(target TTarget, arg1 *TArg1, arg2 *TArg2, arg3 *TArg3) any
	BeginHook4[TTarget, TArg1, TArg2, TArg3, TArg4 any]                                      func(target TTarget, arg1 *TArg1, arg2 *TArg2, arg3 *TArg3, arg4 *TArg4) any
	BeginHook5[TTarget, TArg1, TArg2, TArg3, TArg4, TArg5 any]                               func(target TTarget, arg1 *TArg1, arg2 *TArg2, arg3 *TArg3, arg4 *TArg4, arg5 *TArg5) any
	BeginHook6[TTarget, TArg1, TArg2, TArg3, TArg4, TArg5, TArg6 any]                        func(target TTarget, arg1 *TArg1, arg2 *TArg2, arg3 *TArg3, arg4 *TArg4, arg5 *TArg5, arg6 *TArg6) any
	BeginHook7[TTarget, TArg1, TArg2, TArg3, TArg4, TArg5, TArg6, TArg7 any]                 func(target TTarget, arg1 *TArg1, arg2 *TArg2, arg3 *TArg3, arg4 *TArg4, arg5 *TArg5, arg6 *TArg6, arg7 *TArg7) any
	BeginHook8[TTarget, TArg1, TArg2, TArg3, TArg4, TArg5, TArg6, TArg7, TArg8 any]          func(target TTarget, arg1 *TArg1, arg2 *TArg2, arg3 *TArg3, arg4 *TArg4, arg5 *TArg5, arg6 *TArg6, arg7 *TArg7, arg8 *TArg8) any
)

// BeginHandler0 is the zero-argument member of the begin handler family.
type BeginHandler0[TTarget any] struct {
	handlerCore
	entry func(TTarget) CallState
}

// Invoke runs the cached entry point for one intercepted call. On the first
// call of the instantiation it resolves the hook; every later call goes
// straight through the cached entry point. Invoke never fails by itself.
func (h *BeginHandler0[TTarget]) Invoke(target TTarget) CallState {
	h.once.Do(h.init)
	return h.entry(target)
}

func (h *BeginHandler0[TTarget]) init() {
	defer func() {
		if h.entry == nil {
			h.entry = func(TTarget) CallState { return CallState{} }
		}
	}()
	hook, err := safeResolveBegin(h.resolver, h.integration, h.target, nil)
	if err != nil {
		h.fail(err)
		return
	}
	if hook == nil {
		return
	}
	fn, ok := hook.(BeginHook0[TTarget])
	if !ok {
		h.fail(ex.Newf("hook %T does not match instantiation", hook))
		return
	}
	h.entry = func(target TTarget) CallState {
		return Capture(fn(target), ambient.CurrentSpan())
	}
}

// BeginHandler1 is the single-argument member of the begin handler family.
type BeginHandler1[TTarget, TArg1 any] struct {
	handlerCore
	entry func(TTarget, *TArg1) CallState
}

// Invoke runs the cached entry point with the receiver and the argument
// reference passed through unchanged, so hook mutations through arg1 are
// visible to the original call. The ambient span is read fresh per call.
func (h *BeginHandler1[TTarget, TArg1]) Invoke(target TTarget, arg1 *TArg1) CallState {
	h.once.Do(h.init)
	return h.entry(target, arg1)
}

func (h *BeginHandler1[TTarget, TArg1]) init() {
	defer func() {
		if h.entry == nil {
			h.entry = func(TTarget, *TArg1) CallState { return CallState{} }
		}
	}()
	args := []reflect.Type{ByRefType(typeOf[TArg1]())}
	hook, err := safeResolveBegin(h.resolver, h.integration, h.target, args)
	if err != nil {
		h.fail(err)
		return
	}
	if hook == nil {
		return
	}
	fn, ok := hook.(BeginHook1[TTarget, TArg1])
	if !ok {
		h.fail(ex.Newf("hook %T does not match instantiation", hook))
		return
	}
	h.entry = func(target TTarget, arg1 *TArg1) CallState {
		return Capture(fn(target, arg1), ambient.CurrentSpan())
	}
}

// BeginHandler2 is the two-argument member of the begin handler family.
type BeginHandler2[TTarget, TArg1, TArg2 any] struct {
	handlerCore
	entry func(TTarget, *TArg1, *TArg2) CallState
}

func (h *BeginHandler2[TTarget, TArg1, TArg2]) Invoke(target TTarget, arg1 *TArg1, arg2 *TArg2) CallState {
	h.once.Do(h.init)
	return h.entry(target, arg1, arg2)
}

func (h *BeginHandler2[TTarget, TArg1, TArg2]) init() {
	defer func() {
		if h.entry == nil {
			h.entry = func(TTarget, *TArg1, *TArg2) CallState { return CallState{} }
		}
	}()
	args := []reflect.Type{ByRefType(typeOf[TArg1]()), ByRefType(typeOf[TArg2]())}
	hook, err := safeResolveBegin(h.resolver, h.integration, h.target, args)
	if err != nil {
		h.fail(err)
		return
	}
	if hook == nil {
		return
	}
	fn, ok := hook.(BeginHook2[TTarget, TArg1, TArg2])
	if !ok {
		h.fail(ex.Newf("hook %T does not match instantiation", hook))
		return
	}
	h.entry = func(target TTarget, arg1 *TArg1, arg2 *TArg2) CallState {
		return Capture(fn(target, arg1, arg2), ambient.CurrentSpan())
	}
}

// BeginHandler3 is the three-argument member of the begin handler family.
type BeginHandler3[TTarget, TArg1, TArg2, TArg3 any] struct {
	handlerCore
	entry func(TTarget, *TArg1, *TArg2, *TArg3) CallState
}

func (h *BeginHandler3[TTarget, TArg1, TArg2, TArg3]) Invoke(target TTarget, arg1 *TArg1, arg2 *TArg2, arg3 *TArg3) CallState {
	h.once.Do(h.init)
	return h.entry(target, arg1, arg2, arg3)
}

func (h *BeginHandler3[TTarget, TArg1, TArg2, TArg3]) init() {
	defer func() {
		if h.entry == nil {
			h.entry = func(TTarget, *TArg1, *TArg2, *TArg3) CallState { return CallState{} }
		}
	}()
	args := []reflect.Type{
		ByRefType(typeOf[TArg1]()), ByRefType(typeOf[TArg2]()), ByRefType(typeOf[TArg3]()),
	}
	hook, err := safeResolveBegin(h.resolver, h.integration, h.target, args)
	if err != nil {
		h.fail(err)
		return
	}
	if hook == nil {
		return
	}
	fn, ok := hook.(BeginHook3[TTarget, TArg1, TArg2, TArg3])
	if !ok {
		h.fail(ex.Newf("hook %T does not match instantiation", hook))
		return
	}
	h.entry = func(target TTarget, arg1 *TArg1, arg2 *TArg2, arg3 *TArg3) CallState {
		return Capture(fn(target, arg1, arg2, arg3), ambient.CurrentSpan())
	}
}

// BeginHandler4 is the four-argument member of the begin handler family.
type BeginHandler4[TTarget, TArg1, TArg2, TArg3, TArg4 any] struct {
	handlerCore
	entry func(TTarget, *TArg1, *TArg2, *TArg3, *TArg4) CallState
}

func (h *BeginHandler4[TTarget, TArg1, TArg2, TArg3, TArg4]) Invoke(target TTarget, arg1 *TArg1, arg2 *TArg2, arg3 *TArg3, arg4 *TArg4) CallState {
	h.once.Do(h.init)
	return h.entry(target, arg1, arg2, arg3, arg4)
}

func (h *BeginHandler4[TTarget, TArg1, TArg2, TArg3, TArg4]) init() {
	defer func() {
		if h.entry == nil {
			h.entry = func(TTarget, *TArg1, *TArg2, *TArg3, *TArg4) CallState { return CallState{} }
		}
	}()
	args := []reflect.Type{
		ByRefType(typeOf[TArg1]()), ByRefType(typeOf[TArg2]()),
		ByRefType(typeOf[TArg3]()), ByRefType(typeOf[TArg4]()),
	}
	hook, err := safeResolveBegin(h.resolver, h.integration, h.target, args)
	if err != nil {
		h.fail(err)
		return
	}
	if hook == nil {
		return
	}
	fn, ok := hook.(BeginHook4[TTarget, TArg1, TArg2, TArg3, TArg4])
	if !ok {
		h.fail(ex.Newf("hook %T does not match instantiation", hook))
		return
	}
	h.entry = func(target TTarget, arg1 *TArg1, arg2 *TArg2, arg3 *TArg3, arg4 *TArg4) CallState {
		return Capture(fn(target, arg1, arg2, arg3, arg4), ambient.CurrentSpan())
	}
}

// BeginHandler5 is the five-argument member of the begin handler family.
type BeginHandler5[TTarget, TArg1, TArg2, TArg3, TArg4, TArg5 any] struct {
	handlerCore
	entry func(TTarget, *TArg1, *TArg2, *TArg3, *TArg4, *TArg5) CallState
}

func (h *BeginHandler5[TTarget, TArg1, TArg2, TArg3, TArg4, TArg5]) Invoke(target TTarget, arg1 *TArg1, arg2 *TArg2, arg3 *TArg3, arg4 *TArg4, arg5 *TArg5) CallState {
	h.once.Do(h.init)
	return h.entry(target, arg1, arg2, arg3, arg4, arg5)
}

func (h *BeginHandler5[TTarget, TArg1, TArg2, TArg3, TArg4, TArg5]) init() {
	defer func() {
		if h.entry == nil {
			h.entry = func(TTarget, *TArg1, *TArg2, *TArg3, *TArg4, *TArg5) CallState { return CallState{} }
		}
	}()
	args := []reflect.Type{
		ByRefType(typeOf[TArg1]()), ByRefType(typeOf[TArg2]()), ByRefType(typeOf[TArg3]()),
		ByRefType(typeOf[TArg4]()), ByRefType(typeOf[TArg5]()),
	}
	hook, err := safeResolveBegin(h.resolver, h.integration, h.target, args)
	if err != nil {
		h.fail(err)
		return
	}
	if hook == nil {
		return
	}
	fn, ok := hook.(BeginHook5[TTarget, TArg1, TArg2, TArg3, TArg4, TArg5])
	if !ok {
		h.fail(ex.Newf("hook %T does not match instantiation", hook))
		return
	}
	h.entry = func(target TTarget, arg1 *TArg1, arg2 *TArg2, arg3 *TArg3, arg4 *TArg4, arg5 *TArg5) CallState {
		return Capture(fn(target, arg1, arg2, arg3, arg4, arg5), ambient.CurrentSpan())
	}
}

// BeginHandler6 is the six-argument member of the begin handler family.
type BeginHandler6[TTarget, TArg1, TArg2, TArg3, TArg4, TArg5, TArg6 any] struct {
	handlerCore
	entry func(TTarget, *TArg1, *TArg2, *TArg3, *TArg4, *TArg5, *TArg6) CallState
}

func (h *BeginHandler6[TTarget, TArg1, TArg2, TArg3, TArg4, TArg5, TArg6]) Invoke(target TTarget, arg1 *TArg1, arg2 *TArg2, arg3 *TArg3, arg4 *TArg4, arg5 *TArg5, arg6 *TArg6) CallState {
	h.once.Do(h.init)
	return h.entry(target, arg1, arg2, arg3, arg4, arg5, arg6)
}

func (h *BeginHandler6[TTarget, TArg1, TArg2, TArg3, TArg4, TArg5, TArg6]) init() {
	defer func() {
		if h.entry == nil {
			h.entry = func(TTarget, *TArg1, *TArg2, *TArg3, *TArg4, *TArg5, *TArg6) CallState { return CallState{} }
		}
	}()
	args := []reflect.Type{
		ByRefType(typeOf[TArg1]()), ByRefType(typeOf[TArg2]()), ByRefType(typeOf[TArg3]()),
		ByRefType(typeOf[TArg4]()), ByRefType(typeOf[TArg5]()), ByRefType(typeOf[TArg6]()),
	}
	hook, err := safeResolveBegin(h.resolver, h.integration, h.target, args)
	if err != nil {
		h.fail(err)
		return
	}
	if hook == nil {
		return
	}
	fn, ok := hook.(BeginHook6[TTarget, TArg1, TArg2, TArg3, TArg4, TArg5, TArg6])
	if !ok {
		h.fail(ex.Newf("hook %T does not match instantiation", hook))
		return
	}
	h.entry = func(target TTarget, arg1 *TArg1, arg2 *TArg2, arg3 *TArg3, arg4 *TArg4, arg5 *TArg5, arg6 *TArg6) CallState {
		return Capture(fn(target, arg1, arg2, arg3, arg4, arg5, arg6), ambient.CurrentSpan())
	}
}

// BeginHandler7 is the seven-argument member of the begin handler family.
type BeginHandler7[TTarget, TArg1, TArg2, TArg3, TArg4, TArg5, TArg6, TArg7 any] struct {
	handlerCore
	entry func(TTarget, *TArg1, *TArg2, *TArg3, *TArg4, *TArg5, *TArg6, *TArg7) CallState
}

func (h *BeginHandler7[TTarget, TArg1, TArg2, TArg3, TArg4, TArg5, TArg6, TArg7]) Invoke(target TTarget, arg1 *TArg1, arg2 *TArg2, arg3 *TArg3, arg4 *TArg4, arg5 *TArg5, arg6 *TArg6, arg7 *TArg7) CallState {
	h.once.Do(h.init)
	return h.entry(target, arg1, arg2, arg3, arg4, arg5, arg6, arg7)
}

func (h *BeginHandler7[TTarget, TArg1, TArg2, TArg3, TArg4, TArg5, TArg6, TArg7]) init() {
	defer func() {
		if h.entry == nil {
			h.entry = func(TTarget, *TArg1, *TArg2, *TArg3, *TArg4, *TArg5, *TArg6, *TArg7) CallState { return CallState{} }
		}
	}()
	args := []reflect.Type{
		ByRefType(typeOf[TArg1]()), ByRefType(typeOf[TArg2]()), ByRefType(typeOf[TArg3]()),
		ByRefType(typeOf[TArg4]()), ByRefType(typeOf[TArg5]()), ByRefType(typeOf[TArg6]()),
		ByRefType(typeOf[TArg7]()),
	}
	hook, err := safeResolveBegin(h.resolver, h.integration, h.target, args)
	if err != nil {
		h.fail(err)
		return
	}
	if hook == nil {
		return
	}
	fn, ok := hook.(BeginHook7[TTarget, TArg1, TArg2, TArg3, TArg4, TArg5, TArg6, TArg7])
	if !ok {
		h.fail(ex.Newf("hook %T does not match instantiation", hook))
		return
	}
	h.entry = func(target TTarget, arg1 *TArg1, arg2 *TArg2, arg3 *TArg3, arg4 *TArg4, arg5 *TArg5, arg6 *TArg6, arg7 *TArg7) CallState {
		return Capture(fn(target, arg1, arg2, arg3, arg4, arg5, arg6, arg7), ambient.CurrentSpan())
	}
}

// BeginHandler8 is the eight-argument member of the begin handler family.
type BeginHandler8[TTarget, TArg1, TArg2, TArg3, TArg4, TArg5, TArg6, TArg7, TArg8 any] struct {
	handlerCore
	entry func(TTarget, *TArg1, *TArg2, *TArg3, *TArg4, *TArg5, *TArg6, *TArg7, *TArg8) CallState
}

func (h *BeginHandler8[TTarget, TArg1, TArg2, TArg3, TArg4, TArg5, TArg6, TArg7, TArg8]) Invoke(target TTarget, arg1 *TArg1, arg2 *TArg2, arg3 *TArg3, arg4 *TArg4, arg5 *TArg5, arg6 *TArg6, arg7 *TArg7, arg8 *TArg8) CallState {
	h.once.Do(h.init)
	return h.entry(target, arg1, arg2, arg3, arg4, arg5, arg6, arg7, arg8)
}

func (h *BeginHandler8[TTarget, TArg1, TArg2, TArg3, TArg4, TArg5, TArg6, TArg7, TArg8]) init() {
	defer func() {
		if h.entry == nil {
			h.entry = func(TTarget, *TArg1, *TArg2, *TArg3, *TArg4, *TArg5, *TArg6, *TArg7, *TArg8) CallState { return CallState{} }
		}
	}()
	args := []reflect.Type{
		ByRefType(typeOf[TArg1]()), ByRefType(typeOf[TArg2]()), ByRefType(typeOf[TArg3]()),
		ByRefType(typeOf[TArg4]()), ByRefType(typeOf[TArg5]()), ByRefType(typeOf[TArg6]()),
		ByRefType(typeOf[TArg7]()), ByRefType(typeOf[TArg8]()),
	}
	hook, err := safeResolveBegin(h.resolver, h.integration, h.target, args)
	if err != nil {
		h.fail(err)
		return
	}
	if hook == nil {
		return
	}
	fn, ok := hook.(BeginHook8[TTarget, TArg1, TArg2, TArg3, TArg4, TArg5, TArg6, TArg7, TArg8])
	if !ok {
		h.fail(ex.Newf("hook %T does not match instantiation", hook))
		return
	}
	h.entry = func(target TTarget, arg1 *TArg1, arg2 *TArg2, arg3 *TArg3, arg4 *TArg4, arg5 *TArg5, arg6 *TArg6, arg7 *TArg7, arg8 *TArg8) CallState {
		return Capture(fn(target, arg1, arg2, arg3, arg4, arg5, arg6, arg7, arg8), ambient.CurrentSpan())
	}
}
