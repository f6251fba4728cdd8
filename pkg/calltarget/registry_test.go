// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package calltarget

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistryReturnsSingletonPerInstantiation(t *testing.T) {
	r := &fakeResolver{}
	a := Begin1[*dbClient, int](r, t.Name())
	b := Begin1[*dbClient, int](r, t.Name())
	assert.Same(t, a, b)

	// A different argument type is a different instantiation.
	c := Begin1[*dbClient, string](r, t.Name())
	assert.NotSame(t, any(a), any(c))

	// So is a different integration.
	d := Begin1[*dbClient, int](r, t.Name()+"/other")
	assert.NotSame(t, a, d)

	// Begin and end halves never collide, even with matching types.
	e := End1[*dbClient, int](r, t.Name())
	assert.NotSame(t, any(a), any(e))
}

func TestByRefType(t *testing.T) {
	assert.Equal(t, reflect.TypeOf((*int)(nil)), ByRefType(reflect.TypeOf(0)))
	// Pointer types already carry reference semantics.
	ptr := reflect.TypeOf((*dbClient)(nil))
	assert.Equal(t, ptr, ByRefType(ptr))
}
