// Copyright 2016 Attic Labs, Inc. All rights reserved.
// Licensed under the Apache License, version 2.0:
// http://www.apache.org/licenses/LICENSE-2.0

package segstore

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"

	"github.com/dolthub/ustore/hash"
)

// chunkIndex is the in-memory hash -> record-offset map of spec §4.1.
// The map key is the first machine word of the chunk hash (content
// hashes are already well-distributed), with the full 20 bytes verified
// against the bucket. A synthetic workload whose hashes collide in their
// first word degrades buckets into linear scans, so the moment any
// bucket outgrows maxBucketLen the whole index re-keys itself with
// xxhash over the full hash.
type chunkIndex struct {
	buckets map[uint64][]idxEntry
	mixed   bool
	count   int
}

type idxEntry struct {
	h   hash.Hash
	off uint64
}

const maxBucketLen = 8

func newChunkIndex() *chunkIndex {
	return &chunkIndex{buckets: make(map[uint64][]idxEntry)}
}

func (ix *chunkIndex) keyOf(h hash.Hash) uint64 {
	if ix.mixed {
		return xxhash.Sum64(h[:])
	}
	return binary.LittleEndian.Uint64(h[:8])
}

func (ix *chunkIndex) get(h hash.Hash) (uint64, bool) {
	for _, e := range ix.buckets[ix.keyOf(h)] {
		if e.h == h {
			return e.off, true
		}
	}
	return 0, false
}

func (ix *chunkIndex) put(h hash.Hash, off uint64) {
	k := ix.keyOf(h)
	b := ix.buckets[k]
	for i := range b {
		if b[i].h == h {
			b[i].off = off
			return
		}
	}
	ix.buckets[k] = append(b, idxEntry{h: h, off: off})
	ix.count++
	if !ix.mixed && len(ix.buckets[k]) > maxBucketLen {
		ix.remix()
	}
}

func (ix *chunkIndex) remix() {
	ix.mixed = true
	old := ix.buckets
	ix.buckets = make(map[uint64][]idxEntry, len(old))
	for _, b := range old {
		for _, e := range b {
			k := xxhash.Sum64(e.h[:])
			ix.buckets[k] = append(ix.buckets[k], e)
		}
	}
}

func (ix *chunkIndex) len() int { return ix.count }

func (ix *chunkIndex) each(f func(h hash.Hash, off uint64)) {
	for _, b := range ix.buckets {
		for _, e := range b {
			f(e.h, e.off)
		}
	}
}
