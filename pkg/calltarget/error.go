// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package calltarget

import (
	"fmt"
	"reflect"
)

// ConstructionError reports that building an invocation entry point failed:
// the resolver returned an error or panicked, or the resolved hook did not
// have the signature the instantiation requires. It is raised only during
// the one-time resolution step, never on the interception path; the
// instantiation it belongs to has already settled into the fallback entry
// point by the time the error can be observed.
type ConstructionError struct {
	Integration string
	Target      reflect.Type
	cause       error
}

func newConstructionError(integration string, target reflect.Type, cause error) *ConstructionError {
	return &ConstructionError{Integration: integration, Target: target, cause: cause}
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("calltarget: building entry point for integration %q, target %s: %v",
		e.Integration, e.Target, e.cause)
}

func (e *ConstructionError) Unwrap() error { return e.cause }
