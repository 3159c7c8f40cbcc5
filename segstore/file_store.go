// Copyright 2016 Attic Labs, Inc. All rights reserved.
// Licensed under the Apache License, version 2.0:
// http://www.apache.org/licenses/LICENSE-2.0

package segstore

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/edsrzf/mmap-go"
	"github.com/sirupsen/logrus"

	"github.com/dolthub/ustore/chunk"
	"github.com/dolthub/ustore/hash"
	"github.com/dolthub/ustore/metrics"
	"github.com/dolthub/ustore/status"
)

// maxSyncTimeout is the other half of the durability policy in spec §4.1:
// a sync is forced once this much time has elapsed since the last one,
// even if fewer than maxPendingSyncChunks chunks are pending.
const maxSyncTimeout = 3 * time.Second

// FileStore is the on-disk, log-structured chunk.Store of spec §4.1/§6.1:
// a single fixed-size file of a 4096-byte meta block followed by N
// fixed-size segments, memory-mapped for both reads and appends.
type FileStore struct {
	mu  sync.Mutex
	f   *os.File
	mm  mmap.MMap
	log *logrus.Entry

	segSize int
	numSegs int

	meta  metaBlock
	index *chunkIndex // hash -> byte offset of its record

	writeCursor    uint64
	activeFirstRec hash.Hash // hash of the first record in the active major segment

	pendingSync int
	lastSync    time.Time
}

// Open opens (creating if necessary) the segment file at path with
// numSegments segments of segSize bytes each, recovering any previously
// sealed or torn state.
func Open(path string, numSegments int, segSize int) (*FileStore, error) {
	if segSize <= 0 {
		segSize = DefaultSegSize
	}
	_, statErr := os.Stat(path)
	fresh := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, status.New(status.IOFault, "open %s: %v", path, err)
	}

	size := fileSize(numSegments, segSize)
	if fresh {
		if err := f.Truncate(size); err != nil {
			f.Close()
			return nil, status.New(status.IOFault, "truncate %s: %v", path, err)
		}
	}

	mm, err := mmap.MapRegion(f, int(size), mmap.RDWR, 0, 0)
	if err != nil {
		f.Close()
		return nil, status.New(status.IOFault, "mmap %s: %v", path, err)
	}

	s := &FileStore{
		f:       f,
		mm:      mm,
		log:     logrus.WithField("store", path),
		segSize: segSize,
		numSegs: numSegments,
		index:   newChunkIndex(),
	}

	if fresh {
		s.initFreeList()
	} else {
		if err := s.recover(); err != nil {
			mm.Unmap()
			f.Close()
			return nil, err
		}
	}
	s.lastSync = time.Now()
	return s, nil
}

// initFreeList links every segment into the free list, in order, and
// persists the resulting meta block.
func (s *FileStore) initFreeList() {
	var prev uint64 = nilOffset
	for i := 0; i < s.numSegs; i++ {
		off := segOffset(i, s.segSize)
		var next uint64 = nilOffset
		if i+1 < s.numSegs {
			next = segOffset(i+1, s.segSize)
		}
		s.writeSegHeader(off, segHeader{prev: prev, next: next})
		prev = off
	}
	s.meta = metaBlock{freeHead: segOffset(0, s.segSize)}
	s.writeMeta()
}

func (s *FileStore) writeSegHeader(off uint64, h segHeader) {
	copy(s.mm[off:off+segHeaderSize], h.encode())
}

func (s *FileStore) readSegHeader(off uint64) segHeader {
	return decodeSegHeader(s.mm[off : off+segHeaderSize])
}

func (s *FileStore) writeMeta() {
	copy(s.mm[0:MetaSize], s.meta.encode())
}

// recover scans sealed segments fully (trusting the seal) and the active
// segments up to the first zero/malformed record, per spec §4.1's
// recovery algorithm.
func (s *FileStore) recover() error {
	s.meta = decodeMeta(s.mm[0:MetaSize])

	walk := func(head uint64, active uint64) error {
		cur := head
		for cur != nilOffset {
			hdr := s.readSegHeader(cur)
			sealed := cur != active
			if err := s.scanSegment(cur, sealed); err != nil {
				return err
			}
			cur = hdr.next
		}
		return nil
	}
	if err := walk(s.meta.majorHead, s.meta.currentMajor); err != nil {
		return err
	}
	if err := walk(s.meta.minorHead, s.meta.currentMinor); err != nil {
		return err
	}

	if s.meta.currentMajor != nilOffset {
		// writeCursor was set by scanSegment for the active segment.
	}
	return nil
}

// scanSegment indexes every valid record in the segment at off. If sealed
// is false (this is the currently-active segment), scanning stops at the
// first zero or malformed record and the store's writeCursor/
// activeFirstRec are set to resume appending there. A sealed segment's
// records end at the zero padding sealMajor writes; any other malformed
// record in a *sealed* segment is fatal (spec: "reported to the caller,
// not silently dropped").
func (s *FileStore) scanSegment(off uint64, sealed bool) error {
	cursor := off + segHeaderSize
	limit := off + uint64(s.segSize) - sealSize
	first := true
	for cursor < limit {
		h, c, next, ok := decodeRecord(s.mm, int(cursor))
		if !ok {
			if sealed {
				if hash.New(s.mm[cursor : cursor+hash.ByteLen]).IsEmpty() {
					return nil
				}
				return status.New(status.IOFault, "corrupt sealed segment at offset %d", off)
			}
			s.writeCursor = cursor
			return nil
		}
		s.index.put(h, cursor)
		if first && !sealed {
			s.activeFirstRec = h
			first = false
		}
		_ = c
		cursor = uint64(next)
	}
	if !sealed {
		s.writeCursor = cursor
	}
	return nil
}

func (s *FileStore) Put(ctx context.Context, c chunk.Chunk) (bool, error) {
	h := c.Hash()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index.get(h); ok {
		return false, nil
	}

	rec := encodeRecord(c)
	if err := s.ensureRoom(len(rec)); err != nil {
		return false, err
	}

	start := s.writeCursor
	copy(s.mm[start:start+uint64(len(rec))], rec)
	if s.activeFirstRec.IsEmpty() {
		s.activeFirstRec = h
	}
	s.index.put(h, start)
	s.writeCursor += uint64(len(rec))

	s.pendingSync++
	if s.pendingSync >= maxPendingSyncChunks || time.Since(s.lastSync) > maxSyncTimeout {
		if err := s.syncLocked(); err != nil {
			return false, err
		}
	}
	return true, nil
}

// ensureRoom seals the active major segment and allocates a fresh one
// from the free list whenever there isn't space for a record of size n.
func (s *FileStore) ensureRoom(n int) error {
	needNew := s.meta.currentMajor == nilOffset
	if !needNew {
		limit := s.meta.currentMajor + uint64(s.segSize) - sealSize
		needNew = s.writeCursor+uint64(n) > limit
	}
	if !needNew {
		return nil
	}
	if s.meta.currentMajor != nilOffset {
		s.sealMajor()
	}
	return s.allocateMajor()
}

func (s *FileStore) sealMajor() {
	off := s.meta.currentMajor
	sealOff := off + uint64(s.segSize) - sealSize
	for i := s.writeCursor; i < sealOff; i++ {
		s.mm[i] = 0
	}
	copy(s.mm[sealOff:sealOff+sealSize], s.activeFirstRec[:])
	s.log.WithField("segment", off).Debug("sealed major segment")
}

func (s *FileStore) allocateMajor() error {
	popped := s.meta.freeHead
	if popped == nilOffset {
		return status.New(status.FailedCreateChunk, "no free segments remaining")
	}
	hdr := s.readSegHeader(popped)
	s.meta.freeHead = hdr.next
	if s.meta.freeHead != nilOffset {
		next := s.readSegHeader(s.meta.freeHead)
		next.prev = nilOffset
		s.writeSegHeader(s.meta.freeHead, next)
	}

	newHdr := segHeader{prev: nilOffset, next: s.meta.majorHead}
	s.writeSegHeader(popped, newHdr)
	if s.meta.majorHead != nilOffset {
		old := s.readSegHeader(s.meta.majorHead)
		old.prev = popped
		s.writeSegHeader(s.meta.majorHead, old)
	}
	s.meta.majorHead = popped
	s.meta.currentMajor = popped
	s.writeCursor = popped + segHeaderSize
	s.activeFirstRec = hash.Hash{}
	return nil
}

func (s *FileStore) Get(ctx context.Context, h hash.Hash) (chunk.Chunk, error) {
	s.mu.Lock()
	off, ok := s.index.get(h)
	s.mu.Unlock()
	if !ok {
		return chunk.Chunk{}, nil
	}
	_, c, _, ok := decodeRecord(s.mm, int(off))
	if !ok {
		return chunk.Chunk{}, status.New(status.IOFault, "corrupt record for %s", h.String())
	}
	return c, nil
}

func (s *FileStore) Exists(ctx context.Context, h hash.Hash) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.index.get(h)
	return ok, nil
}

func (s *FileStore) Info(ctx context.Context) (chunk.StoreInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byType := map[chunk.Type]*chunk.TypeCount{}
	var total uint64
	s.index.each(func(h hash.Hash, off uint64) {
		_, c, _, ok := decodeRecord(s.mm, int(off))
		if !ok {
			return
		}
		tc, present := byType[c.Type()]
		if !present {
			tc = &chunk.TypeCount{Type: c.Type()}
			byType[c.Type()] = tc
		}
		tc.Count++
		tc.Bytes += uint64(len(c.Data()))
		total += uint64(len(c.Data()))
	})

	free := 0
	for cur := s.meta.freeHead; cur != nilOffset; cur = s.readSegHeader(cur).next {
		free++
	}
	info := chunk.StoreInfo{
		ChunkCount:      uint64(s.index.len()),
		TotalBytes:      total,
		SegmentCount:    s.numSegs,
		ActiveSegment:   segIndex(s.meta.currentMajor, s.segSize),
		FreeSegments:    free,
		OccupiedPercent: 100 * float64(s.numSegs-free) / float64(s.numSegs),
	}
	for _, tc := range byType {
		info.ByType = append(info.ByType, *tc)
	}
	return info, nil
}

// Sync flushes pending writes and the meta block to disk; it is the
// commit barrier spec §4.1/§5 describes (only a synced Put is durable).
func (s *FileStore) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncLocked()
}

func (s *FileStore) syncLocked() error {
	start := time.Now()
	defer func() { metrics.ObserveSync(time.Since(start)) }()
	if err := s.mm.Flush(); err != nil {
		return status.New(status.IOFault, "flush data: %v", err)
	}
	s.writeMeta()
	if err := s.mm.Flush(); err != nil {
		return status.New(status.IOFault, "flush meta: %v", err)
	}
	s.pendingSync = 0
	s.lastSync = time.Now()
	return nil
}

// Close syncs and releases the mapping and file handle.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.syncLocked(); err != nil {
		return err
	}
	if err := s.mm.Unmap(); err != nil {
		return status.New(status.IOFault, "unmap: %v", err)
	}
	return s.f.Close()
}
