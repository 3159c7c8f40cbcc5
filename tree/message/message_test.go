package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dolthub/ustore/hash"
)

func TestListRoundTrip(t *testing.T) {
	in := [][]byte{[]byte("a"), []byte("bb"), []byte("ccc")}
	payload := EncodeList(in)
	out, err := DecodeList(payload)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestMapRoundTrip(t *testing.T) {
	in := [][2][]byte{
		{[]byte("k0"), []byte("v0")},
		{[]byte("k1"), []byte("v1")},
	}
	payload := EncodeMap(in)
	out, err := DecodeMap(payload)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestSetRoundTrip(t *testing.T) {
	in := [][]byte{[]byte("k0"), []byte("k1"), []byte("k2")}
	payload := EncodeSet(in)
	out, err := DecodeSet(payload)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestStringRoundTrip(t *testing.T) {
	payload := EncodeStringPayload([]byte("hello world"))
	out, err := DecodeStringPayload(payload)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello world"), out)
}

func TestMetaRoundTripIndexKeys(t *testing.T) {
	entries := []MetaEntry{
		{NumBytes: 100, NumLeaves: 1, NumElements: 10, ChildHash: hash.Of([]byte("a")), KeyIsIndex: true, KeyIndex: 10},
		{NumBytes: 120, NumLeaves: 1, NumElements: 25, ChildHash: hash.Of([]byte("b")), KeyIsIndex: true, KeyIndex: 35},
	}
	payload := EncodeMeta(entries)
	out, err := DecodeMeta(payload, true)
	require.NoError(t, err)
	assert.Equal(t, entries, out)
}

func TestMetaRoundTripByteKeys(t *testing.T) {
	entries := []MetaEntry{
		{NumBytes: 100, NumLeaves: 1, NumElements: 10, ChildHash: hash.Of([]byte("a")), KeyBytes: []byte("k05")},
		{NumBytes: 120, NumLeaves: 1, NumElements: 25, ChildHash: hash.Of([]byte("b")), KeyBytes: []byte("k19")},
	}
	payload := EncodeMeta(entries)
	out, err := DecodeMeta(payload, false)
	require.NoError(t, err)
	assert.Equal(t, entries, out)
}
