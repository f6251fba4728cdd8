// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package calltarget

import (
	"log/slog"
	"reflect"
	"sync"
	"sync/atomic"
)

var loggerPtr atomic.Pointer[slog.Logger]

// SetLogger installs the logger used for one-time resolution diagnostics.
// The engine logs nothing on the interception path.
func SetLogger(l *slog.Logger) {
	loggerPtr.Store(l)
}

func logger() *slog.Logger {
	if l := loggerPtr.Load(); l != nil {
		return l
	}
	return slog.Default()
}

// handlerCore is the arity-independent part of an interception handler: the
// identity of the instantiation, the guard that serializes its one and only
// resolution attempt, and the construction failure when resolution did not
// produce a usable hook.
//
// Per instantiation the lifecycle is uninitialized -> resolving -> settled,
// where settled means either a resolved entry point or the fallback. The
// resolving phase runs at most once; after it, the entry point reference is
// immutable and read without locking. The failure is held in an atomic
// pointer because InitError may be polled concurrently with first use.
type handlerCore struct {
	integration string
	resolver    Resolver
	target      reflect.Type
	once        sync.Once
	err         atomic.Pointer[ConstructionError]
}

// fail records the construction failure for this instantiation. It runs
// inside the once guard, so the failure is logged exactly once, when the
// instantiation is first touched.
func (c *handlerCore) fail(cause error) {
	c.err.Store(newConstructionError(c.integration, c.target, cause))
	logger().Error("interception entry point construction failed, settling into no-op",
		"integration", c.integration,
		"target", c.target.String(),
		"error", cause)
}

// InitError reports the construction failure of this instantiation, or nil
// when resolution succeeded, matched nothing, or has not run yet. Invoke
// never surfaces this: a failed instantiation behaves as a no-op forever.
func (c *handlerCore) InitError() error {
	if err := c.err.Load(); err != nil {
		return err
	}
	return nil
}
