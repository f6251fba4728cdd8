// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package hookreg provides a table-driven implementation of the engine's
// resolver boundary. Integrations register their hook pairs at composition
// time; the engine resolves against the table on first use of an
// instantiation. Resolution of an unregistered combination reports no match,
// which the engine treats as "leave the call uninstrumented".
package hookreg

import (
	"reflect"
	"sync"

	"github.com/cloudnativeleague/opentelemetry-dotnet-instrumentation/pkg/calltarget"
)

type hookKey struct {
	integration string
	target      reflect.Type
	arity       int
	types       [calltarget.MaxArity]reflect.Type
}

func newHookKey(integration string, target reflect.Type, types []reflect.Type) hookKey {
	key := hookKey{integration: integration, target: target, arity: len(types)}
	copy(key.types[:], types)
	return key
}

// Registry implements calltarget.Resolver over registered hook tables.
// The zero value is not usable; call New.
type Registry struct {
	mu    sync.RWMutex
	begin map[hookKey]any
	end   map[hookKey]any
}

// Default is the process-wide registry that integrations shipping with this
// repository register into.
var Default = New()

func New() *Registry {
	return &Registry{
		begin: make(map[hookKey]any),
		end:   make(map[hookKey]any),
	}
}

// RegisterBegin records a begin hook for the given combination. The hook
// must have the exact hook function type of the instantiation it serves;
// a mismatch surfaces as a construction failure in the engine, not here.
// Registering the same combination twice replaces the earlier hook.
func (r *Registry) RegisterBegin(integration string, target reflect.Type, args []reflect.Type, hook any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.begin[newHookKey(integration, target, args)] = hook
}

// RegisterEnd records an end hook for the given combination.
func (r *Registry) RegisterEnd(integration string, target reflect.Type, returns []reflect.Type, hook any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.end[newHookKey(integration, target, returns)] = hook
}

// ResolveBegin implements calltarget.Resolver.
func (r *Registry) ResolveBegin(integration string, target reflect.Type, args []reflect.Type) (any, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.begin[newHookKey(integration, target, args)], nil
}

// ResolveEnd implements calltarget.Resolver.
func (r *Registry) ResolveEnd(integration string, target reflect.Type, returns []reflect.Type) (any, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.end[newHookKey(integration, target, returns)], nil
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func byRefTypes(types ...reflect.Type) []reflect.Type {
	refs := make([]reflect.Type, len(types))
	for i, t := range types {
		refs[i] = calltarget.ByRefType(t)
	}
	return refs
}

// Typed registration helpers for the common arities. They derive the same
// by-reference type list the engine hands to ResolveBegin/ResolveEnd, so a
// hook registered here is found by the matching handler instantiation.
// Higher arities register through RegisterBegin directly.

func RegisterBegin0[TTarget any](r *Registry, integration string, hook calltarget.BeginHook0[TTarget]) {
	r.RegisterBegin(integration, typeOf[TTarget](), nil, hook)
}

func RegisterBegin1[TTarget, TArg1 any](r *Registry, integration string, hook calltarget.BeginHook1[TTarget, TArg1]) {
	r.RegisterBegin(integration, typeOf[TTarget](), byRefTypes(typeOf[TArg1]()), hook)
}

func RegisterBegin2[TTarget, TArg1, TArg2 any](r *Registry, integration string, hook calltarget.BeginHook2[TTarget, TArg1, TArg2]) {
	r.RegisterBegin(integration, typeOf[TTarget](), byRefTypes(typeOf[TArg1](), typeOf[TArg2]()), hook)
}

func RegisterEnd0[TTarget any](r *Registry, integration string, hook calltarget.EndHook0[TTarget]) {
	r.RegisterEnd(integration, typeOf[TTarget](), nil, hook)
}

func RegisterEnd1[TTarget, TReturn any](r *Registry, integration string, hook calltarget.EndHook1[TTarget, TReturn]) {
	r.RegisterEnd(integration, typeOf[TTarget](), byRefTypes(typeOf[TReturn]()), hook)
}
