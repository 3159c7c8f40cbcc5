// Package cluster implements the static partitioner and cross-node chunk
// fetch client of spec §4.10: a node owns a partition of the hash space;
// a loader that misses locally issues a best-effort fetch to the owning
// node.
package cluster

import (
	"bufio"
	"encoding/binary"
	"os"
	"strings"

	"github.com/dolthub/ustore/hash"
	"github.com/dolthub/ustore/status"
)

// Partitioner maps a chunk hash to the owning node index in a static,
// line-ordered host list (spec §4.10).
type Partitioner struct {
	hosts []string
}

// NewPartitioner builds a Partitioner from an ordered host list
// ("host:port" per entry, line order is partition order).
func NewPartitioner(hosts []string) Partitioner {
	cp := make([]string, len(hosts))
	copy(cp, hosts)
	return Partitioner{hosts: cp}
}

// LoadHostFile reads one "host:port" per line, skipping blank lines,
// preserving line order (spec §4.10, §6.4's worker_file/chunk_server_file).
func LoadHostFile(path string) (Partitioner, error) {
	f, err := os.Open(path)
	if err != nil {
		return Partitioner{}, status.New(status.IOFault, "open host file %s: %v", path, err)
	}
	defer f.Close()
	var hosts []string
	s := bufio.NewScanner(f)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" {
			continue
		}
		hosts = append(hosts, line)
	}
	if err := s.Err(); err != nil {
		return Partitioner{}, status.New(status.IOFault, "read host file %s: %v", path, err)
	}
	return NewPartitioner(hosts), nil
}

// NodeCount returns the number of nodes in the cluster.
func (p Partitioner) NodeCount() int { return len(p.hosts) }

// Hosts returns the ordered host list.
func (p Partitioner) Hosts() []string { return append([]string(nil), p.hosts...) }

// Owner returns the index of the node that owns h: hash_bytes[9..17]
// interpreted as a big-endian u64, modulo the node count (spec §4.10).
// A UCell's hash is derived the same way since it's just a Hash like any
// other chunk's.
func (p Partitioner) Owner(h hash.Hash) int {
	if len(p.hosts) == 0 {
		return 0
	}
	key := binary.BigEndian.Uint64(h[9:17])
	return int(key % uint64(len(p.hosts)))
}

// IsLocal reports whether h is owned by this node's index.
func (p Partitioner) IsLocal(h hash.Hash, selfIdx int) bool {
	return p.Owner(h) == selfIdx
}

// HostFor returns the host:port string owning h.
func (p Partitioner) HostFor(h hash.Hash) string {
	return p.hosts[p.Owner(h)]
}
