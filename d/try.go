// Copyright 2016 Attic Labs, Inc. All rights reserved.
// Licensed under the Apache License, version 2.0:
// http://www.apache.org/licenses/LICENSE-2.0

// Package d holds tiny assertion helpers for conditions that indicate a
// programmer error inside the engine, never a user-facing status (see
// package status for those). They panic; the one process boundary that
// should recover them is a request service sitting outside the core.
package d

import "fmt"

type wrappedError struct {
	msg   string
	cause error
}

func (w wrappedError) Error() string { return w.msg }
func (w wrappedError) Cause() error  { return w.cause }

// Wrap attaches a cause to err so PanicIfError can later report it. A nil
// err wraps to nil.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	if we, ok := err.(wrappedError); ok {
		return we
	}
	return wrappedError{err.Error(), err}
}

// Unwrap returns the original error beneath any wrapping Wrap applied.
func Unwrap(err error) error {
	if we, ok := err.(wrappedError); ok {
		return we.cause
	}
	return err
}

// PanicIfError panics if err is non-nil.
func PanicIfError(err error) {
	if err != nil {
		panic(Wrap(err))
	}
}

// PanicIfTrue panics if b is true.
func PanicIfTrue(b bool) {
	if b {
		panic("invariant violated")
	}
}

// PanicIfFalse panics if b is false.
func PanicIfFalse(b bool) {
	if !b {
		panic("invariant violated")
	}
}

// Chk panics with a formatted message if cond is false.
func Chk(cond bool, format string, args ...interface{}) {
	if !cond {
		panic(fmt.Sprintf(format, args...))
	}
}
