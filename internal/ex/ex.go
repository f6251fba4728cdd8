// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package ex provides error values that carry the stack trace of their
// origin. Errors created here can be returned up the call chain as-is;
// intermediate frames may add context with Wrapf without losing the
// original trace.
package ex

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

const (
	numSkipFrame = 4 // skip the {New,Newf,Wrap,Wrapf} caller
	modPrefix    = "github.com/cloudnativeleague/opentelemetry-dotnet-instrumentation/"
)

// stackfulError represents an error with stack trace information
type stackfulError struct {
	message []string
	frame   []string
	wrapped error
}

func (e *stackfulError) Error() string { return strings.Join(e.message, "\n") }
func (e *stackfulError) Unwrap() error { return e.wrapped }

// Stack returns the captured frames, outermost call last.
func Stack(err error) []string {
	se := &stackfulError{}
	if errors.As(err, &se) {
		return se.frame
	}
	return nil
}

func captureStack() []string {
	const initFrames = 30
	frameList := make([]string, 0)
	pcs := make([]uintptr, initFrames)
	n := runtime.Callers(numSkipFrame, pcs)
	if n == 0 {
		return frameList
	}
	pcs = pcs[:n]
	frames := runtime.CallersFrames(pcs)
	cnt := 0
	for {
		frame, more := frames.Next()
		if !more {
			break
		}
		fnName := strings.TrimPrefix(frame.Function, modPrefix)
		f := fmt.Sprintf("[%d]%s:%d %s", cnt, frame.File, frame.Line, fnName)
		frameList = append(frameList, f)
		cnt++
	}
	return frameList
}

// wrapOrCreate wraps an error with stack trace information and a formatted
// message. If the error is already a stackfulError, it is decorated with the
// new message, otherwise a new stackfulError is created.
func wrapOrCreate(previousErr error, format string, args ...any) error {
	se := &stackfulError{}
	if errors.As(previousErr, &se) {
		attach := fmt.Sprintf(format, args...)
		if attach != "" {
			se.message = append(se.message, attach)
		}
		return previousErr
	}
	errMsg := fmt.Sprintf(format, args...)
	if previousErr != nil {
		errMsg = fmt.Sprintf("%s: %s", errMsg, previousErr.Error())
	}
	e := &stackfulError{
		message: []string{errMsg},
		frame:   captureStack(),
		wrapped: previousErr,
	}
	return e
}

func Wrap(previousErr error) error {
	return wrapOrCreate(previousErr, "")
}

func Wrapf(previousErr error, format string, args ...any) error {
	return wrapOrCreate(previousErr, format, args...)
}

func New(message string) error {
	return wrapOrCreate(nil, "%s", message)
}

func Newf(format string, args ...any) error {
	return wrapOrCreate(nil, format, args...)
}
