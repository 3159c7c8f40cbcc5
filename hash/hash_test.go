// Copyright 2016 Attic Labs, Inc. All rights reserved.
// Licensed under the Apache License, version 2.0:
// http://www.apache.org/licenses/LICENSE-2.0

package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRoundTrip(t *testing.T) {
	assert := assert.New(t)

	s := "0123456789abcdefghijklmnopqrstuv"
	h := Parse(s)
	assert.Equal(s, h.String())
}

func TestMaybeParse(t *testing.T) {
	assert := assert.New(t)

	parse := func(s string, success bool) {
		h, ok := MaybeParse(s)
		assert.Equal(success, ok, "expected success=%t for %q", success, s)
		if ok {
			assert.Equal(s, h.String())
		} else {
			assert.Equal(emptyHash, h)
		}
	}

	parse("00000000000000000000000000000000", true)
	parse("00000000000000000000000000000001", true)
	parse("", false)
	parse("adsfasdf", false)
	parse("0000000000000000000000000000000w", false)
	parse("000000000000000000000000000000000", false)
}

func TestOf(t *testing.T) {
	h := Of([]byte("abc"))
	assert.Equal(t, StringLen, len(h.String()))
	assert.Equal(t, h, Of([]byte("abc")))
	assert.NotEqual(t, h, Of([]byte("abcd")))
}

func TestIsEmpty(t *testing.T) {
	assert.True(t, Hash{}.IsEmpty())
	assert.True(t, Null.IsEmpty())
	assert.False(t, Of([]byte("x")).IsEmpty())
}

func TestLessAndCompare(t *testing.T) {
	assert := assert.New(t)

	r1 := Parse("00000000000000000000000000000001")
	r2 := Parse("00000000000000000000000000000002")

	assert.True(r1.Less(r2))
	assert.False(r2.Less(r1))
	assert.False(r1.Less(r1))

	assert.True(r1.Compare(r2) < 0)
	assert.True(r2.Compare(r1) > 0)
	assert.Equal(0, r1.Compare(r1))
}

func TestSetAndSlice(t *testing.T) {
	assert := assert.New(t)

	h1, h2, h3 := Of([]byte("a")), Of([]byte("b")), Of([]byte("c"))
	s := NewSet(h1, h2)
	assert.True(s.Has(h1))
	assert.False(s.Has(h3))

	s.Insert(h3)
	assert.True(s.Has(h3))
	s.Remove(h3)
	assert.False(s.Has(h3))

	slice := s.ToSlice().Sorted()
	assert.Equal(2, len(slice))
}
