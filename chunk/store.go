// Copyright 2016 Attic Labs, Inc. All rights reserved.
// Licensed under the Apache License, version 2.0:
// http://www.apache.org/licenses/LICENSE-2.0

package chunk

import (
	"context"

	"github.com/dolthub/ustore/hash"
)

// Store is the public contract every chunk-store implementation satisfies
// (spec §4.1): idempotent content-addressed put/get/exists, plus
// introspection.
type Store interface {
	// Put persists c, keyed by its own hash. Two puts of the same hash
	// are indistinguishable; Put returns true if the chunk was newly
	// accepted, false if it already existed.
	Put(ctx context.Context, c Chunk) (bool, error)

	// Get returns the exact chunk previously stored under h, or the
	// zero Chunk (IsEmpty() == true) if no such chunk exists.
	Get(ctx context.Context, h hash.Hash) (Chunk, error)

	// Exists reports whether a chunk is stored under h.
	Exists(ctx context.Context, h hash.Hash) (bool, error)

	// Info reports store-wide counters; implementations that don't
	// support introspection return status.StoreInfoUnavailable.
	Info(ctx context.Context) (StoreInfo, error)
}

// TypeCount is the number of live chunks observed for one Type.
type TypeCount struct {
	Type  Type
	Count uint64
	Bytes uint64
}

// StoreInfo summarizes a Store's current contents (spec §4.1).
type StoreInfo struct {
	ChunkCount      uint64
	TotalBytes      uint64
	ByType          []TypeCount
	SegmentCount    int
	ActiveSegment   int
	FreeSegments    int
	OccupiedPercent float64
}
