// Copyright 2016 Attic Labs, Inc. All rights reserved.
// Licensed under the Apache License, version 2.0:
// http://www.apache.org/licenses/LICENSE-2.0

// Package hash implements the 20-byte content hash used to address every
// chunk, UCell, and tree node in the store.
package hash

import (
	"bytes"
	"crypto/sha1"
	"encoding/base32"
)

// ByteLen is the number of bytes in a Hash.
const ByteLen = 20

// StringLen is the length of a Hash's base32 text encoding.
const StringLen = 32

var encoding = base32.NewEncoding("0123456789abcdefghijklmnopqrstuv").WithPadding(base32.NoPadding)

// Hash is a 20-byte content hash. The zero Hash is the distinguished Null
// value used to mark "no prior version".
type Hash [ByteLen]byte

// Null is the all-zero Hash, used to mark the absence of a prior version.
var Null = Hash{}

var emptyHash = Hash{}

// Of computes the content hash of data.
func Of(data []byte) Hash {
	sum := sha1.Sum(data)
	var h Hash
	copy(h[:], sum[:ByteLen])
	return h
}

// New builds a Hash directly from raw bytes. Panics if len(b) != ByteLen.
func New(b []byte) Hash {
	if len(b) != ByteLen {
		panic("hash: wrong byte length")
	}
	var h Hash
	copy(h[:], b)
	return h
}

// Parse decodes a base32 Hash string, panicking on malformed input. Use
// MaybeParse when the input isn't known to be well-formed.
func Parse(s string) Hash {
	h, ok := MaybeParse(s)
	if !ok {
		panic("hash: invalid string " + s)
	}
	return h
}

// MaybeParse decodes a base32 Hash string, returning ok=false on malformed
// input instead of panicking.
func MaybeParse(s string) (Hash, bool) {
	if len(s) != StringLen {
		return emptyHash, false
	}
	b, err := encoding.DecodeString(s)
	if err != nil || len(b) != ByteLen {
		return emptyHash, false
	}
	var h Hash
	copy(h[:], b)
	return h, true
}

// String renders the Hash as its 32-character base32 text form.
func (h Hash) String() string {
	return encoding.EncodeToString(h[:])
}

// IsEmpty reports whether h is the Null hash.
func (h Hash) IsEmpty() bool {
	return h == emptyHash
}

// Less reports whether h sorts strictly before other in the Hash's total
// byte-lexicographic order.
func (h Hash) Less(other Hash) bool {
	return bytes.Compare(h[:], other[:]) < 0
}

// Compare returns -1, 0, or 1 as h is less than, equal to, or greater than
// other.
func (h Hash) Compare(other Hash) int {
	return bytes.Compare(h[:], other[:])
}
