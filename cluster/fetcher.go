package cluster

import (
	"context"

	"github.com/dolthub/ustore/chunk"
	"github.com/dolthub/ustore/hash"
)

// Fetcher is the interface a PartitionedStore consults on a partition miss
// (spec §4.10): "GetChunk(ctx, hash) (chunk.Chunk, error)". The wire
// encoding of the request is an external collaborator's concern (spec
// §1); this package only defines the call shape and a minimal reference
// client that drives it.
type Fetcher interface {
	GetChunk(ctx context.Context, h hash.Hash) (chunk.Chunk, error)
}

// Transport is implemented by the (out-of-scope) RPC layer: it sends a
// GetChunkRequest to host and returns the decoded chunk or an error. Client itself never frames the request; it only orchestrates
// request ids and response correlation (spec §9's per-thread slot
// model), leaving serialization to the transport.
type Transport interface {
	SendGetChunk(ctx context.Context, host string, requestID string, h hash.Hash) (chunk.Chunk, error)
}
