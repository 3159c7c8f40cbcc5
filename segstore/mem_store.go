// Copyright 2016 Attic Labs, Inc. All rights reserved.
// Licensed under the Apache License, version 2.0:
// http://www.apache.org/licenses/LICENSE-2.0

// Package segstore implements the chunk.Store contract (spec §4.1) over a
// single-file, log-structured, append-only segment layout, plus an
// in-memory store used by tests and by object facades that don't need
// durability.
package segstore

import (
	"context"
	"sync"

	"github.com/dolthub/ustore/chunk"
	"github.com/dolthub/ustore/hash"
)

// MemStore is a process-memory chunk.Store: a plain map guarded by one
// mutex, with no segment file behind it at all.
type MemStore struct {
	mu     sync.RWMutex
	chunks map[hash.Hash]chunk.Chunk
}

// NewMemStore builds an empty in-memory chunk store.
func NewMemStore() *MemStore {
	return &MemStore{chunks: make(map[hash.Hash]chunk.Chunk)}
}

func (s *MemStore) Put(ctx context.Context, c chunk.Chunk) (bool, error) {
	h := c.Hash()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chunks[h]; ok {
		return false, nil
	}
	s.chunks[h] = c
	return true, nil
}

func (s *MemStore) Get(ctx context.Context, h hash.Hash) (chunk.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chunks[h], nil
}

func (s *MemStore) Exists(ctx context.Context, h hash.Hash) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.chunks[h]
	return ok, nil
}

func (s *MemStore) Info(ctx context.Context) (chunk.StoreInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byType := map[chunk.Type]*chunk.TypeCount{}
	var total uint64
	for _, c := range s.chunks {
		tc, ok := byType[c.Type()]
		if !ok {
			tc = &chunk.TypeCount{Type: c.Type()}
			byType[c.Type()] = tc
		}
		tc.Count++
		tc.Bytes += uint64(len(c.Data()))
		total += uint64(len(c.Data()))
	}
	info := chunk.StoreInfo{ChunkCount: uint64(len(s.chunks)), TotalBytes: total}
	for _, tc := range byType {
		info.ByType = append(info.ByType, *tc)
	}
	return info, nil
}

// TestView wraps a MemStore with call counters, for tests that assert on
// cache-hit and I/O-locality behavior.
type TestView struct {
	*MemStore
	Reads, Hases, Writes int
	mu                   sync.Mutex
}

// NewTestView wraps store with instrumented counters.
func NewTestView(store *MemStore) *TestView {
	return &TestView{MemStore: store}
}

func (v *TestView) Get(ctx context.Context, h hash.Hash) (chunk.Chunk, error) {
	v.mu.Lock()
	v.Reads++
	v.mu.Unlock()
	return v.MemStore.Get(ctx, h)
}

func (v *TestView) Exists(ctx context.Context, h hash.Hash) (bool, error) {
	v.mu.Lock()
	v.Hases++
	v.mu.Unlock()
	return v.MemStore.Exists(ctx, h)
}

func (v *TestView) Put(ctx context.Context, c chunk.Chunk) (bool, error) {
	v.mu.Lock()
	v.Writes++
	v.mu.Unlock()
	return v.MemStore.Put(ctx, c)
}
