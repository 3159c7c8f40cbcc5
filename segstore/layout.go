// Copyright 2016 Attic Labs, Inc. All rights reserved.
// Licensed under the Apache License, version 2.0:
// http://www.apache.org/licenses/LICENSE-2.0

package segstore

import "encoding/binary"

// On-disk layout constants (spec §4.1, §6.1). A store's file is exactly
// MetaSize + N*segSize bytes, segSize being DefaultSegSize unless Open is
// given another size: one fixed meta block followed by N fixed-size
// segments.
const (
	MetaSize       = 4096
	DefaultSegSize = 4 * 1024 * 1024 // 4 MiB

	// segHeaderSize is the (prev, next uint64) pair every segment opens
	// with, linking it into whichever list currently owns it.
	segHeaderSize = 16
	// sealSize is the trailing bytes of a sealed segment mirroring the
	// hash of the first record in it.
	sealSize = 20

	// nilOffset marks "no segment" in a list pointer; real segments
	// start at MetaSize so 0 is never a valid segment offset.
	nilOffset = 0

	maxPendingSyncChunks = 1024
)

// metaBlock is the parsed form of the fixed 4096-byte header.
type metaBlock struct {
	freeHead     uint64
	majorHead    uint64
	currentMajor uint64
	minorHead    uint64
	currentMinor uint64
}

func (m metaBlock) encode() []byte {
	buf := make([]byte, MetaSize)
	binary.LittleEndian.PutUint64(buf[0:8], m.freeHead)
	binary.LittleEndian.PutUint64(buf[8:16], m.majorHead)
	binary.LittleEndian.PutUint64(buf[16:24], m.currentMajor)
	binary.LittleEndian.PutUint64(buf[24:32], m.minorHead)
	binary.LittleEndian.PutUint64(buf[32:40], m.currentMinor)
	return buf
}

func decodeMeta(buf []byte) metaBlock {
	return metaBlock{
		freeHead:     binary.LittleEndian.Uint64(buf[0:8]),
		majorHead:    binary.LittleEndian.Uint64(buf[8:16]),
		currentMajor: binary.LittleEndian.Uint64(buf[16:24]),
		minorHead:    binary.LittleEndian.Uint64(buf[24:32]),
		currentMinor: binary.LittleEndian.Uint64(buf[32:40]),
	}
}

// segHeader is the (prev, next) list-linkage pair at the start of every
// segment.
type segHeader struct {
	prev, next uint64
}

func (h segHeader) encode() []byte {
	buf := make([]byte, segHeaderSize)
	binary.LittleEndian.PutUint64(buf[0:8], h.prev)
	binary.LittleEndian.PutUint64(buf[8:16], h.next)
	return buf
}

func decodeSegHeader(buf []byte) segHeader {
	return segHeader{
		prev: binary.LittleEndian.Uint64(buf[0:8]),
		next: binary.LittleEndian.Uint64(buf[8:16]),
	}
}

// fileSize returns the total file size for n segments of size segSize.
func fileSize(n int, segSize int) int64 {
	return int64(MetaSize) + int64(n)*int64(segSize)
}

// segOffset returns the byte offset of segment index i.
func segOffset(i int, segSize int) uint64 {
	return uint64(MetaSize) + uint64(i)*uint64(segSize)
}

// segIndex returns the segment index owning byte offset off.
func segIndex(off uint64, segSize int) int {
	return int((off - MetaSize) / uint64(segSize))
}
