// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package calltarget

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/cloudnativeleague/opentelemetry-dotnet-instrumentation/pkg/ambient"
)

// dbClient stands in for an instrumented third-party type.
type dbClient struct {
	name string
}

// fakeResolver is a controllable Resolver boundary. Each test uses its own
// integration name (t.Name()) so instantiations in the process-wide registry
// never collide between tests.
type fakeResolver struct {
	begin    any
	end      any
	beginErr error
	endErr   error
	panics   bool

	beginCalls atomic.Int32
	endCalls   atomic.Int32

	mu         sync.Mutex
	lastTarget reflect.Type
	lastTypes  []reflect.Type
}

func (f *fakeResolver) ResolveBegin(_ string, target reflect.Type, args []reflect.Type) (any, error) {
	f.beginCalls.Add(1)
	// Widen the race window for concurrent first-use tests.
	time.Sleep(time.Millisecond)
	if f.panics {
		panic("resolver exploded")
	}
	f.mu.Lock()
	f.lastTarget, f.lastTypes = target, args
	f.mu.Unlock()
	return f.begin, f.beginErr
}

func (f *fakeResolver) ResolveEnd(_ string, target reflect.Type, returns []reflect.Type) (any, error) {
	f.endCalls.Add(1)
	if f.panics {
		panic("resolver exploded")
	}
	f.mu.Lock()
	f.lastTarget, f.lastTypes = target, returns
	f.mu.Unlock()
	return f.end, f.endErr
}

func newTestSpan(t *testing.T, name string) trace.Span {
	t.Helper()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(tracetest.NewSpanRecorder()),
	)
	_, span := tp.Tracer("calltarget-test").Start(context.Background(), name)
	return span
}

func TestResolvedHookReceivesReceiverAndArguments(t *testing.T) {
	target := &dbClient{name: "primary"}
	var seenTarget *dbClient
	var seenArg1 int
	var seenArg2 string
	r := &fakeResolver{
		begin: BeginHook2[*dbClient, int, string](func(tgt *dbClient, arg1 *int, arg2 *string) any {
			seenTarget, seenArg1, seenArg2 = tgt, *arg1, *arg2
			*arg1 = 10 // hook mutations must reach the caller
			return "X"
		}),
	}

	h := Begin2[*dbClient, int, string](r, t.Name())
	arg1, arg2 := 5, "a"
	state := h.Invoke(target, &arg1, &arg2)

	assert.Equal(t, "X", state.Continuation())
	assert.Same(t, target, seenTarget)
	assert.Equal(t, 5, seenArg1)
	assert.Equal(t, "a", seenArg2)
	assert.Equal(t, 10, arg1)
	assert.NoError(t, h.InitError())

	r.mu.Lock()
	defer r.mu.Unlock()
	assert.Equal(t, reflect.TypeOf(target), r.lastTarget)
	assert.Equal(t, []reflect.Type{reflect.TypeOf(&arg1), reflect.TypeOf(&arg2)}, r.lastTypes)
}

func TestAllArities(t *testing.T) {
	sum := func(args ...*int) any {
		total := 0
		for _, a := range args {
			total += *a
		}
		return total
	}
	target := &dbClient{}
	v := [8]int{1, 2, 3, 4, 5, 6, 7, 8}

	t.Run("arity0", func(t *testing.T) {
		r := &fakeResolver{begin: BeginHook0[*dbClient](func(*dbClient) any { return sum() })}
		state := Begin0[*dbClient](r, t.Name()).Invoke(target)
		assert.Equal(t, 0, state.Continuation())
	})
	t.Run("arity1", func(t *testing.T) {
		r := &fakeResolver{begin: BeginHook1[*dbClient, int](func(_ *dbClient, a1 *int) any { return sum(a1) })}
		state := Begin1[*dbClient, int](r, t.Name()).Invoke(target, &v[0])
		assert.Equal(t, 1, state.Continuation())
	})
	t.Run("arity2", func(t *testing.T) {
		r := &fakeResolver{begin: BeginHook2[*dbClient, int, int](func(_ *dbClient, a1, a2 *int) any { return sum(a1, a2) })}
		state := Begin2[*dbClient, int, int](r, t.Name()).Invoke(target, &v[0], &v[1])
		assert.Equal(t, 3, state.Continuation())
	})
	t.Run("arity3", func(t *testing.T) {
		r := &fakeResolver{begin: BeginHook3[*dbClient, int, int, int](func(_ *dbClient, a1, a2, a3 *int) any { return sum(a1, a2, a3) })}
		state := Begin3[*dbClient, int, int, int](r, t.Name()).Invoke(target, &v[0], &v[1], &v[2])
		assert.Equal(t, 6, state.Continuation())
	})
	t.Run("arity4", func(t *testing.T) {
		r := &fakeResolver{begin: BeginHook4[*dbClient, int, int, int, int](func(_ *dbClient, a1, a2, a3, a4 *int) any { return sum(a1, a2, a3, a4) })}
		state := Begin4[*dbClient, int, int, int, int](r, t.Name()).Invoke(target, &v[0], &v[1], &v[2], &v[3])
		assert.Equal(t, 10, state.Continuation())
	})
	t.Run("arity5", func(t *testing.T) {
		r := &fakeResolver{begin: BeginHook5[*dbClient, int, int, int, int, int](func(_ *dbClient, a1, a2, a3, a4, a5 *int) any { return sum(a1, a2, a3, a4, a5) })}
		state := Begin5[*dbClient, int, int, int, int, int](r, t.Name()).Invoke(target, &v[0], &v[1], &v[2], &v[3], &v[4])
		assert.Equal(t, 15, state.Continuation())
	})
	t.Run("arity6", func(t *testing.T) {
		r := &fakeResolver{begin: BeginHook6[*dbClient, int, int, int, int, int, int](func(_ *dbClient, a1, a2, a3, a4, a5, a6 *int) any { return sum(a1, a2, a3, a4, a5, a6) })}
		state := Begin6[*dbClient, int, int, int, int, int, int](r, t.Name()).Invoke(target, &v[0], &v[1], &v[2], &v[3], &v[4], &v[5])
		assert.Equal(t, 21, state.Continuation())
	})
	t.Run("arity7", func(t *testing.T) {
		r := &fakeResolver{begin: BeginHook7[*dbClient, int, int, int, int, int, int, int](func(_ *dbClient, a1, a2, a3, a4, a5, a6, a7 *int) any { return sum(a1, a2, a3, a4, a5, a6, a7) })}
		state := Begin7[*dbClient, int, int, int, int, int, int, int](r, t.Name()).Invoke(target, &v[0], &v[1], &v[2], &v[3], &v[4], &v[5], &v[6])
		assert.Equal(t, 28, state.Continuation())
	})
	t.Run("arity8", func(t *testing.T) {
		r := &fakeResolver{begin: BeginHook8[*dbClient, int, int, int, int, int, int, int, int](func(_ *dbClient, a1, a2, a3, a4, a5, a6, a7, a8 *int) any { return sum(a1, a2, a3, a4, a5, a6, a7, a8) })}
		state := Begin8[*dbClient, int, int, int, int, int, int, int, int](r, t.Name()).Invoke(target, &v[0], &v[1], &v[2], &v[3], &v[4], &v[5], &v[6], &v[7])
		assert.Equal(t, 36, state.Continuation())
	})
}

func TestNoMatchSettlesIntoFallback(t *testing.T) {
	r := &fakeResolver{} // resolves nothing
	h := Begin1[*dbClient, int](r, t.Name())

	arg := 7
	for range 5 {
		state := h.Invoke(&dbClient{}, &arg)
		assert.Equal(t, CallState{}, state)
	}
	assert.NoError(t, h.InitError())
	assert.Equal(t, int32(1), r.beginCalls.Load())
	assert.Equal(t, 7, arg)
}

func TestResolverErrorSettlesIntoFallback(t *testing.T) {
	cause := errors.New("not supported")
	r := &fakeResolver{beginErr: cause}
	h := Begin1[*dbClient, int](r, t.Name())

	arg := 1
	var state CallState
	require.NotPanics(t, func() {
		state = h.Invoke(&dbClient{}, &arg)
	})
	assert.Equal(t, CallState{}, state)

	var cerr *ConstructionError
	require.ErrorAs(t, h.InitError(), &cerr)
	assert.Equal(t, t.Name(), cerr.Integration)
	assert.ErrorIs(t, h.InitError(), cause)

	// The failure is permanent and never resolved again.
	h.Invoke(&dbClient{}, &arg)
	assert.Equal(t, int32(1), r.beginCalls.Load())
}

func TestInitErrorPolledDuringFirstUse(t *testing.T) {
	cause := errors.New("unresolvable")
	r := &fakeResolver{beginErr: cause}
	h := Begin1[*dbClient, int](r, t.Name())

	// Poll the diagnostic accessor while another goroutine triggers the
	// one-time resolution. The resolver sleeps, so the poll loop overlaps
	// the init path.
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				_ = h.InitError()
			}
		}
	}()

	arg := 0
	h.Invoke(&dbClient{}, &arg)
	close(stop)
	wg.Wait()

	var cerr *ConstructionError
	require.ErrorAs(t, h.InitError(), &cerr)
	assert.ErrorIs(t, h.InitError(), cause)
}

func TestResolverPanicSettlesIntoFallback(t *testing.T) {
	r := &fakeResolver{panics: true}
	h := Begin2[*dbClient, int, string](r, t.Name())

	arg1, arg2 := 1, "x"
	var state CallState
	require.NotPanics(t, func() {
		state = h.Invoke(&dbClient{}, &arg1, &arg2)
	})
	assert.Equal(t, CallState{}, state)
	require.Error(t, h.InitError())
	assert.Contains(t, h.InitError().Error(), "resolver panicked")
}

func TestMismatchedHookSettlesIntoFallback(t *testing.T) {
	// Hook of the wrong arity for this instantiation.
	r := &fakeResolver{begin: BeginHook0[*dbClient](func(*dbClient) any { return "wrong" })}
	h := Begin1[*dbClient, int](r, t.Name())

	arg := 1
	state := h.Invoke(&dbClient{}, &arg)
	assert.Equal(t, CallState{}, state)
	require.Error(t, h.InitError())
}

func TestResolutionRunsExactlyOnce(t *testing.T) {
	r := &fakeResolver{
		begin: BeginHook1[*dbClient, int](func(*dbClient, *int) any { return "c" }),
	}
	h := Begin1[*dbClient, int](r, t.Name())

	arg := 0
	for range 100 {
		h.Invoke(&dbClient{}, &arg)
	}
	assert.Equal(t, int32(1), r.beginCalls.Load())
}

func TestConcurrentFirstUse(t *testing.T) {
	const goroutines = 16
	r := &fakeResolver{
		begin: BeginHook1[*dbClient, int](func(*dbClient, *int) any { return "settled" }),
	}
	h := Begin1[*dbClient, int](r, t.Name())

	var wg sync.WaitGroup
	results := make([]CallState, goroutines)
	start := make(chan struct{})
	for i := range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			arg := i
			results[i] = h.Invoke(&dbClient{}, &arg)
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), r.beginCalls.Load())
	for _, state := range results {
		assert.Equal(t, "settled", state.Continuation())
	}
}

func TestAmbientSpanCapturedPerCall(t *testing.T) {
	r := &fakeResolver{
		begin: BeginHook1[*dbClient, int](func(*dbClient, *int) any { return nil }),
	}
	h := Begin1[*dbClient, int](r, t.Name())
	arg := 0

	state := h.Invoke(&dbClient{}, &arg)
	assert.Nil(t, state.Span())

	first := newTestSpan(t, "first")
	restore := ambient.Activate(first)
	state = h.Invoke(&dbClient{}, &arg)
	assert.Same(t, first, state.Span())
	restore()

	second := newTestSpan(t, "second")
	restore = ambient.Activate(second)
	state = h.Invoke(&dbClient{}, &arg)
	assert.Same(t, second, state.Span())
	restore()
}
