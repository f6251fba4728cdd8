// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package calltarget

import (
	"reflect"
	"sync"
)

// MaxArity is the largest supported argument count. Resolver
// implementations that key hooks by argument types should size their keys
// with it.
const MaxArity = 8

type handlerKind uint8

const (
	kindBegin handlerKind = iota
	kindEnd
)

// instantiationKey identifies one closed handler instantiation. reflect.Type
// values are canonical per type, so the struct is directly comparable. Keys
// carry the declared types, not their by-reference forms: normalization maps
// T and *T argument slots to the same pointer type, and those are distinct
// instantiations.
type instantiationKey struct {
	kind        handlerKind
	integration string
	target      reflect.Type
	arity       int
	args        [MaxArity]reflect.Type
}

func newKey(kind handlerKind, integration string, target reflect.Type, types ...reflect.Type) instantiationKey {
	key := instantiationKey{
		kind:        kind,
		integration: integration,
		target:      target,
		arity:       len(types),
	}
	copy(key.args[:], types)
	return key
}

// The process-wide registry guarantees exactly one handler per closed
// instantiation for the process lifetime. Handler acquisition happens when
// an interception site is wired up, not per intercepted call, so a mutex is
// fine here.
var (
	registryMu sync.Mutex
	registry   = make(map[instantiationKey]any)
)

func handlerFor(key instantiationKey, build func() any) any {
	registryMu.Lock()
	defer registryMu.Unlock()
	if h, ok := registry[key]; ok {
		return h
	}
	h := build()
	registry[key] = h
	return h
}

// Begin0 returns the begin handler for the given instantiation, creating it
// on first acquisition. The resolver of the first acquisition wins; the
// handler resolves nothing until its first Invoke.
func Begin0[TTarget any](r Resolver, integration string) *BeginHandler0[TTarget] {
	target := typeOf[TTarget]()
	key := newKey(kindBegin, integration, target)
	h := handlerFor(key, func() any {
		return &BeginHandler0[TTarget]{handlerCore: handlerCore{integration: integration, resolver: r, target: target}}
	})
	return h.(*BeginHandler0[TTarget])
}

func Begin1[TTarget, TArg1 any](r Resolver, integration string) *BeginHandler1[TTarget, TArg1] {
	target := typeOf[TTarget]()
	key := newKey(kindBegin, integration, target,
		typeOf[TArg1]())
	h := handlerFor(key, func() any {
		return &BeginHandler1[TTarget, TArg1]{handlerCore: handlerCore{integration: integration, resolver: r, target: target}}
	})
	return h.(*BeginHandler1[TTarget, TArg1])
}

func Begin2[TTarget, TArg1, TArg2 any](r Resolver, integration string) *BeginHandler2[TTarget, TArg1, TArg2] {
	target := typeOf[TTarget]()
	key := newKey(kindBegin, integration, target,
		typeOf[TArg1](), typeOf[TArg2]())
	h := handlerFor(key, func() any {
		return &BeginHandler2[TTarget, TArg1, TArg2]{handlerCore: handlerCore{integration: integration, resolver: r, target: target}}
	})
	return h.(*BeginHandler2[TTarget, TArg1, TArg2])
}

func Begin3[TTarget, TArg1, TArg2, TArg3 any](r Resolver, integration string) *BeginHandler3[TTarget, TArg1, TArg2, TArg3] {
	target := typeOf[TTarget]()
	key := newKey(kindBegin, integration, target,
		typeOf[TArg1](), typeOf[TArg2](), typeOf[TArg3]())
	h := handlerFor(key, func() any {
		return &BeginHandler3[TTarget, TArg1, TArg2, TArg3]{handlerCore: handlerCore{integration: integration, resolver: r, target: target}}
	})
	return h.(*BeginHandler3[TTarget, TArg1, TArg2, TArg3])
}

func Begin4[TTarget, TArg1, TArg2, TArg3, TArg4 any](r Resolver, integration string) *BeginHandler4[TTarget, TArg1, TArg2, TArg3, TArg4] {
	target := typeOf[TTarget]()
	key := newKey(kindBegin, integration, target,
		typeOf[TArg1](), typeOf[TArg2](),
		typeOf[TArg3](), typeOf[TArg4]())
	h := handlerFor(key, func() any {
		return &BeginHandler4[TTarget, TArg1, TArg2, TArg3, TArg4]{handlerCore: handlerCore{integration: integration, resolver: r, target: target}}
	})
	return h.(*BeginHandler4[TTarget, TArg1, TArg2, TArg3, TArg4])
}

func Begin5[TTarget, TArg1, TArg2, TArg3, TArg4, TArg5 any](r Resolver, integration string) *BeginHandler5[TTarget, TArg1, TArg2, TArg3, TArg4, TArg5] {
	target := typeOf[TTarget]()
	key := newKey(kindBegin, integration, target,
		typeOf[TArg1](), typeOf[TArg2](), typeOf[TArg3](),
		typeOf[TArg4](), typeOf[TArg5]())
	h := handlerFor(key, func() any {
		return &BeginHandler5[TTarget, TArg1, TArg2, TArg3, TArg4, TArg5]{handlerCore: handlerCore{integration: integration, resolver: r, target: target}}
	})
	return h.(*BeginHandler5[TTarget, TArg1, TArg2, TArg3, TArg4, TArg5])
}

func Begin6[TTarget, TArg1, TArg2, TArg3, TArg4, TArg5, TArg6 any](r Resolver, integration string) *BeginHandler6[TTarget, TArg1, TArg2, TArg3, TArg4, TArg5, TArg6] {
	target := typeOf[TTarget]()
	key := newKey(kindBegin, integration, target,
		typeOf[TArg1](), typeOf[TArg2](), typeOf[TArg3](),
		typeOf[TArg4](), typeOf[TArg5](), typeOf[TArg6]())
	h := handlerFor(key, func() any {
		return &BeginHandler6[TTarget, TArg1, TArg2, TArg3, TArg4, TArg5, TArg6]{handlerCore: handlerCore{integration: integration, resolver: r, target: target}}
	})
	return h.(*BeginHandler6[TTarget, TArg1, TArg2, TArg3, TArg4, TArg5, TArg6])
}

func Begin7[TTarget, TArg1, TArg2, TArg3, TArg4, TArg5, TArg6, TArg7 any](r Resolver, integration string) *BeginHandler7[TTarget, TArg1, TArg2, TArg3, TArg4, TArg5, TArg6, TArg7] {
	target := typeOf[TTarget]()
	key := newKey(kindBegin, integration, target,
		typeOf[TArg1](), typeOf[TArg2](), typeOf[TArg3](),
		typeOf[TArg4](), typeOf[TArg5](), typeOf[TArg6](),
		typeOf[TArg7]())
	h := handlerFor(key, func() any {
		return &BeginHandler7[TTarget, TArg1, TArg2, TArg3, TArg4, TArg5, TArg6, TArg7]{handlerCore: handlerCore{integration: integration, resolver: r, target: target}}
	})
	return h.(*BeginHandler7[TTarget, TArg1, TArg2, TArg3, TArg4, TArg5, TArg6, TArg7])
}

func Begin8[TTarget, TArg1, TArg2, TArg3, TArg4, TArg5, TArg6, TArg7, TArg8 any](r Resolver, integration string) *BeginHandler8[TTarget, TArg1, TArg2, TArg3, TArg4, TArg5, TArg6, TArg7, TArg8] {
	target := typeOf[TTarget]()
	key := newKey(kindBegin, integration, target,
		typeOf[TArg1](), typeOf[TArg2](), typeOf[TArg3](),
		typeOf[TArg4](), typeOf[TArg5](), typeOf[TArg6](),
		typeOf[TArg7](), typeOf[TArg8]())
	h := handlerFor(key, func() any {
		return &BeginHandler8[TTarget, TArg1, TArg2, TArg3, TArg4, TArg5, TArg6, TArg7, TArg8]{handlerCore: handlerCore{integration: integration, resolver: r, target: target}}
	})
	return h.(*BeginHandler8[TTarget, TArg1, TArg2, TArg3, TArg4, TArg5, TArg6, TArg7, TArg8])
}

// End0 returns the end handler for a call without a return value.
func End0[TTarget any](r Resolver, integration string) *EndHandler0[TTarget] {
	target := typeOf[TTarget]()
	key := newKey(kindEnd, integration, target)
	h := handlerFor(key, func() any {
		return &EndHandler0[TTarget]{handlerCore: handlerCore{integration: integration, resolver: r, target: target}}
	})
	return h.(*EndHandler0[TTarget])
}

// End1 returns the end handler for a call with a single return value.
func End1[TTarget, TReturn any](r Resolver, integration string) *EndHandler1[TTarget, TReturn] {
	target := typeOf[TTarget]()
	key := newKey(kindEnd, integration, target,
		typeOf[TReturn]())
	h := handlerFor(key, func() any {
		return &EndHandler1[TTarget, TReturn]{handlerCore: handlerCore{integration: integration, resolver: r, target: target}}
	})
	return h.(*EndHandler1[TTarget, TReturn])
}
