// Copyright 2016 Attic Labs, Inc. All rights reserved.
// Licensed under the Apache License, version 2.0:
// http://www.apache.org/licenses/LICENSE-2.0

// Package chunk implements the atomic unit of storage: an immutable byte
// sequence with a fixed header and a content-defined hash.
package chunk

import (
	"encoding/binary"

	"github.com/golang/snappy"

	"github.com/dolthub/ustore/hash"
	"github.com/dolthub/ustore/status"
)

// Type tags the payload shape a Chunk carries (spec §3.2).
type Type byte

const (
	Invalid Type = iota
	Blob
	String
	Meta
	Map
	List
	Set
	Cell
	Null
)

func (t Type) String() string {
	switch t {
	case Blob:
		return "Blob"
	case String:
		return "String"
	case Meta:
		return "Meta"
	case Map:
		return "Map"
	case List:
		return "List"
	case Set:
		return "Set"
	case Cell:
		return "Cell"
	case Null:
		return "Null"
	default:
		return "Invalid"
	}
}

// HeaderLen is the number of header bytes preceding every chunk's payload:
// a 4-byte little-endian total length followed by a 1-byte type tag.
const HeaderLen = 5

// Chunk is the atomic, immutable, content-addressed unit of storage. Two
// chunks with equal payload bytes and type always have equal hashes.
type Chunk struct {
	t       Type
	data    []byte
	h       hash.Hash
	hcached bool
}

// New builds a Chunk of the given type wrapping payload. The hash is
// computed from the serialized bytes on every call to Hash; it is not
// cached.
func New(t Type, payload []byte) Chunk {
	return Chunk{t: t, data: payload}
}

// Type returns the chunk's type tag.
func (c Chunk) Type() Type { return c.t }

// Data returns the chunk's raw (decompressed) payload bytes.
func (c Chunk) Data() []byte { return c.data }

// IsEmpty reports whether c is the zero Chunk.
func (c Chunk) IsEmpty() bool { return c.t == Invalid && len(c.data) == 0 }

// Hash returns the chunk's content hash: SHA-1 over the serialized header
// and payload bytes (spec §3.1).
func (c Chunk) Hash() hash.Hash {
	return hash.Of(c.serialize())
}

// serialize produces the on-wire byte sequence: numBytes(4) | type(1) |
// payload. numBytes covers the whole sequence including the header.
func (c Chunk) serialize() []byte {
	total := HeaderLen + len(c.data)
	buf := make([]byte, total)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(total))
	buf[4] = byte(c.t)
	copy(buf[HeaderLen:], c.data)
	return buf
}

// Serialize exposes the wire bytes (header + payload) for a chunk store to
// persist verbatim.
func (c Chunk) Serialize() []byte { return c.serialize() }

// Parse decodes a chunk from its wire bytes as produced by Serialize,
// validating the header length against the actual byte count.
func Parse(raw []byte) (Chunk, error) {
	if len(raw) < HeaderLen {
		return Chunk{}, status.New(status.InvalidHash, "chunk too short: %d bytes", len(raw))
	}
	total := binary.LittleEndian.Uint32(raw[0:4])
	if int(total) != len(raw) {
		return Chunk{}, status.New(status.InvalidHash, "chunk length mismatch: header says %d, got %d", total, len(raw))
	}
	t := Type(raw[4])
	if t == Invalid {
		return Chunk{}, status.New(status.TypeMismatch, "kInvalidChunk")
	}
	payload := make([]byte, len(raw)-HeaderLen)
	copy(payload, raw[HeaderLen:])
	return Chunk{t: t, data: payload}, nil
}

// compressedFrame tags the optional snappy envelope the segment store
// wraps around a chunk's serialized bytes before appending them to a
// segment (spec §4.1's on-disk layout is unaffected — the frame lives
// inside the record bytes, never the header read by Parse).
const (
	frameRaw    byte = 0
	frameSnappy byte = 1
)

// Compress wraps raw serialized chunk bytes in a one-byte-tagged frame,
// snappy-compressing the payload when it's smaller than the original.
func Compress(raw []byte) []byte {
	enc := snappy.Encode(nil, raw)
	if len(enc)+1 < len(raw) {
		out := make([]byte, 0, len(enc)+1)
		out = append(out, frameSnappy)
		return append(out, enc...)
	}
	out := make([]byte, 0, len(raw)+1)
	out = append(out, frameRaw)
	return append(out, raw...)
}

// Decompress reverses Compress.
func Decompress(framed []byte) ([]byte, error) {
	if len(framed) == 0 {
		return nil, status.New(status.InvalidHash, "empty frame")
	}
	tag, body := framed[0], framed[1:]
	switch tag {
	case frameRaw:
		return body, nil
	case frameSnappy:
		return snappy.Decode(nil, body)
	default:
		return nil, status.New(status.InvalidHash, "unknown compression tag %d", tag)
	}
}
