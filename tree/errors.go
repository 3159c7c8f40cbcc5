package tree

import "github.com/dolthub/ustore/status"

var (
	errOutOfRange   = status.New(status.InvalidRange, "index out of range for this node")
	errInvalidChunk = status.New(status.TypeMismatch, "chunk type is not a recognized tree node kind")
)
