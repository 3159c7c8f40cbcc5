package cluster

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dolthub/ustore/chunk"
	"github.com/dolthub/ustore/hash"
	"github.com/dolthub/ustore/metrics"
	"github.com/dolthub/ustore/status"
)

// DefaultRPCTimeout bounds how long a Client waits for a single
// GetChunk round trip before giving up (spec §5). On timeout GetChunk
// returns an IOFault status; neither this package nor objectdb refreshes
// the head table or retries the request.
const DefaultRPCTimeout = 5 * time.Second

// slot is one per-thread RPC response slot (spec §9's design note): a
// one-shot notification primitive a reader selects into by request id.
type slot struct {
	done chan struct{}
	val  chunk.Chunk
	err  error
}

// Client is the reference cluster.Fetcher: it resolves the owning node
// via Partitioner, tags every request with a fresh uuid, and waits on a
// per-request slot for the transport to deliver a response.
type Client struct {
	part      Partitioner
	transport Transport
	timeout   time.Duration

	mu    sync.Mutex
	slots map[string]*slot
}

// NewClient builds a Client over transport using part to resolve chunk
// owners.
func NewClient(part Partitioner, transport Transport) *Client {
	return &Client{part: part, transport: transport, timeout: DefaultRPCTimeout, slots: make(map[string]*slot)}
}

// GetChunk implements Fetcher: issues a GetChunkRequest to the node
// owning h and waits (bounded by timeout) for the response.
func (c *Client) GetChunk(ctx context.Context, h hash.Hash) (chunk.Chunk, error) {
	start := time.Now()
	host := c.part.HostFor(h)
	reqID := uuid.NewString()

	s := &slot{done: make(chan struct{})}
	c.mu.Lock()
	c.slots[reqID] = s
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.slots, reqID)
		c.mu.Unlock()
	}()

	rctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result := make(chan struct{})
	go func() {
		s.val, s.err = c.transport.SendGetChunk(rctx, host, reqID, h)
		close(result)
	}()

	select {
	case <-result:
		outcome := "ok"
		if s.err != nil {
			outcome = "error"
		}
		metrics.ObserveClusterRPC(outcome, time.Since(start))
		return s.val, s.err
	case <-rctx.Done():
		metrics.ObserveClusterRPC("timeout", time.Since(start))
		return chunk.Chunk{}, status.New(status.IOFault, "GetChunk(%s) to %s timed out", h, host)
	}
}
