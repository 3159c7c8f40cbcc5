// Package tree implements the prolly-tree data model: chunk-kind-specific
// node readers, the splice-engine builder, and the cursor that walks
// between them (spec §3.3–§3.4, §4.4–§4.7).
package tree

import (
	"bytes"

	"github.com/dolthub/ustore/d"
)

// Flavor distinguishes the two kinds of OrderedKey (spec §3.3). Keys of
// different flavors are never compared.
type Flavor int

const (
	IndexFlavor Flavor = iota
	BytesFlavor
)

// OrderedKey is the total order over leaf entries: a u64 position for
// index-addressed objects (blob, list), or a byte string compared
// lexicographically for key-addressed objects (map, set).
type OrderedKey struct {
	Flavor Flavor
	Index  uint64
	Bytes  []byte
}

// IndexKey builds an index-flavored OrderedKey.
func IndexKey(i uint64) OrderedKey { return OrderedKey{Flavor: IndexFlavor, Index: i} }

// BytesKey builds a byte-flavored OrderedKey. The empty byte slice is the
// minimum byte key.
func BytesKey(b []byte) OrderedKey { return OrderedKey{Flavor: BytesFlavor, Bytes: b} }

// Compare orders two same-flavor keys; comparing across flavors is a
// programmer error; see spec §3.3.
func (k OrderedKey) Compare(o OrderedKey) int {
	d.Chk(k.Flavor == o.Flavor, "cannot compare OrderedKeys of different flavors")
	if k.Flavor == IndexFlavor {
		switch {
		case k.Index < o.Index:
			return -1
		case k.Index > o.Index:
			return 1
		default:
			return 0
		}
	}
	return bytes.Compare(k.Bytes, o.Bytes)
}

func (k OrderedKey) Less(o OrderedKey) bool  { return k.Compare(o) < 0 }
func (k OrderedKey) Equal(o OrderedKey) bool { return k.Compare(o) == 0 }

// Successor returns the smallest key strictly greater than k, for index
// keys only (used when computing the next index after an append).
func (k OrderedKey) Successor() OrderedKey {
	d.Chk(k.Flavor == IndexFlavor, "Successor is only defined for index keys")
	return IndexKey(k.Index + 1)
}
