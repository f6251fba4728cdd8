// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package calltarget

import (
	"reflect"

	"github.com/cloudnativeleague/opentelemetry-dotnet-instrumentation/internal/ex"
)

// Resolver maps an (integration, target type, by-reference argument types)
// combination to a concrete hook. How it does so is of no concern to the
// engine: a registry, static tables and code generation are all valid.
//
// Both methods return the hook as an untyped value; the requesting handler
// asserts it to the exact hook function type of its instantiation. A
// (nil, nil) return means no hook matches, which is not an error. A non-nil
// error, a panic, or a hook of the wrong type are all construction failures
// and permanently disable interception for that instantiation.
type Resolver interface {
	// ResolveBegin resolves the begin-of-call hook. The arg types are the
	// by-reference forms the hook will receive, in call order.
	ResolveBegin(integration string, target reflect.Type, args []reflect.Type) (any, error)
	// ResolveEnd resolves the end-of-call hook. The returns slice holds the
	// by-reference forms of the call's return values, if any.
	ResolveEnd(integration string, target reflect.Type, returns []reflect.Type) (any, error)
}

// ByRefType returns the by-reference form of t. Pointer types already carry
// reference semantics over their pointee and are used as-is; any other type
// is wrapped in a pointer.
func ByRefType(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Pointer {
		return t
	}
	return reflect.PointerTo(t)
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// safeResolveBegin shields the one-time initialization step from a
// misbehaving resolver: a panic is converted into an ordinary error so the
// handler can settle into its fallback.
func safeResolveBegin(r Resolver, integration string, target reflect.Type, args []reflect.Type) (hook any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = ex.Newf("resolver panicked: %v", rec)
		}
	}()
	if r == nil {
		return nil, nil
	}
	return r.ResolveBegin(integration, target, args)
}

func safeResolveEnd(r Resolver, integration string, target reflect.Type, returns []reflect.Type) (hook any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = ex.Newf("resolver panicked: %v", rec)
		}
	}()
	if r == nil {
		return nil, nil
	}
	return r.ResolveEnd(integration, target, returns)
}
