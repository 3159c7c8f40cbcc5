// Copyright 2016 Attic Labs, Inc. All rights reserved.
// Licensed under the Apache License, version 2.0:
// http://www.apache.org/licenses/LICENSE-2.0

package d

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnwrap(t *testing.T) {
	assert := assert.New(t)

	err := errors.New("test")
	we := wrappedError{"test msg", err}
	assert.Equal(err, Unwrap(err))
	assert.Equal(err, Unwrap(we))
}

func TestPanicIfTrue(t *testing.T) {
	assert := assert.New(t)
	assert.Panics(func() { PanicIfTrue(true) })
	assert.NotPanics(func() { PanicIfTrue(false) })
}

func TestPanicIfFalse(t *testing.T) {
	assert := assert.New(t)
	assert.Panics(func() { PanicIfFalse(false) })
	assert.NotPanics(func() { PanicIfFalse(true) })
}

func TestPanicIfError(t *testing.T) {
	assert := assert.New(t)
	assert.Panics(func() { PanicIfError(errors.New("boom")) })
	assert.NotPanics(func() { PanicIfError(nil) })
}

func TestWrap(t *testing.T) {
	assert := assert.New(t)

	te := errors.New("te")
	we := Wrap(te)
	assert.Equal(te, Unwrap(we))
	assert.Nil(Wrap(nil))
}
