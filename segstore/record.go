// Copyright 2016 Attic Labs, Inc. All rights reserved.
// Licensed under the Apache License, version 2.0:
// http://www.apache.org/licenses/LICENSE-2.0

package segstore

import (
	"encoding/binary"

	"github.com/dolthub/ustore/chunk"
	"github.com/dolthub/ustore/hash"
)

// A record is hash(20) | frameLen(4) | frame(frameLen), where frame is the
// chunk's serialized header+payload wrapped by chunk.Compress. The
// explicit length prefix is an elaboration on spec §4.1's literal
// "hash | chunk_bytes": a self-describing (uncompressed) chunk_bytes
// doesn't generalize to a compressed frame, so the store records the
// frame's length directly (see DESIGN.md).
const recordHeaderSize = hash.ByteLen + 4

func encodeRecord(c chunk.Chunk) []byte {
	frame := chunk.Compress(c.Serialize())
	buf := make([]byte, recordHeaderSize+len(frame))
	h := c.Hash()
	copy(buf[0:hash.ByteLen], h[:])
	binary.LittleEndian.PutUint32(buf[hash.ByteLen:recordHeaderSize], uint32(len(frame)))
	copy(buf[recordHeaderSize:], frame)
	return buf
}

// decodeRecord parses one record out of buf at offset off, returning the
// record's hash, its chunk, and the offset just past it. ok is false if
// the record at off is zeroed or malformed (the torn-write case recovery
// must detect per spec §4.1).
func decodeRecord(buf []byte, off int) (h hash.Hash, c chunk.Chunk, next int, ok bool) {
	if off+recordHeaderSize > len(buf) {
		return hash.Hash{}, chunk.Chunk{}, off, false
	}
	hb := buf[off : off+hash.ByteLen]
	allZero := true
	for _, b := range hb {
		if b != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		return hash.Hash{}, chunk.Chunk{}, off, false
	}
	h = hash.New(hb)
	frameLen := binary.LittleEndian.Uint32(buf[off+hash.ByteLen : off+recordHeaderSize])
	start := off + recordHeaderSize
	end := start + int(frameLen)
	if frameLen == 0 || end > len(buf) {
		return hash.Hash{}, chunk.Chunk{}, off, false
	}
	raw, err := chunk.Decompress(buf[start:end])
	if err != nil {
		return hash.Hash{}, chunk.Chunk{}, off, false
	}
	c, err = chunk.Parse(raw)
	if err != nil {
		return hash.Hash{}, chunk.Chunk{}, off, false
	}
	if c.Hash() != h {
		return hash.Hash{}, chunk.Chunk{}, off, false
	}
	return h, c, end, true
}
