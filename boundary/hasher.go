// Package boundary implements the rolling boundary hasher of spec §4.3: a
// cyclic-polynomial ("buzhash") rolling hash over a fixed-size window of
// element bytes that declares a chunk boundary whenever the low bits of
// the window hash match a fixed pattern. The windowed hash itself is
// github.com/kch42/buzhash; this package adds the boundary-pattern
// check and the since-boundary accounting the node builder needs.
package boundary

import "github.com/kch42/buzhash"

const (
	// DefaultWindow is the number of trailing bytes the rolling hash
	// keeps live (w in spec §4.3).
	DefaultWindow = 64
	// DefaultPatternBits is the number of low bits checked against the
	// fixed pattern (p in spec §4.3); target chunk size is 2^p bytes.
	DefaultPatternBits = 12
)

// Hasher is a pure value type: a single rolling-hash window plus its
// boundary-pattern configuration. Spec §9 requires that boundary
// detection state never be shared across sub-builders; every Hasher is
// built fresh and owned exclusively by its caller.
type Hasher struct {
	bz      *buzhash.BuzHash
	window  int
	pattern uint32 // target low-bit pattern
	mask    uint32 // mask selecting the low `p` bits

	crossed     bool
	bytesHashed int
}

// New builds a Hasher with the default window size and pattern width.
func New() *Hasher {
	return NewWithParams(DefaultWindow, DefaultPatternBits)
}

// NewWithParams builds a Hasher with an explicit window size (in bytes)
// and pattern width (in bits).
func NewWithParams(window int, patternBits uint) *Hasher {
	return &Hasher{
		bz:      buzhash.NewBuzHash(uint32(window)),
		window:  window,
		pattern: 0,
		mask:    (uint32(1) << patternBits) - 1,
	}
}

// HashByte folds the next element byte into the rolling window, evicting
// the oldest byte once the window is full, and checks the boundary
// pattern against the new window hash.
func (r *Hasher) HashByte(b byte) {
	sum := r.bz.HashByte(b)
	r.bytesHashed++
	if sum&r.mask == r.pattern {
		r.crossed = true
	}
}

// CrossedBoundary reports whether a boundary has been declared since
// construction or the last ClearLastBoundary.
func (r *Hasher) CrossedBoundary() bool {
	return r.crossed
}

// ClearLastBoundary resets the crossed-boundary flag and the
// bytes-hashed-since-last-boundary counter, without losing the current
// window contents (used when the caller has consumed the boundary and is
// about to start filling the next chunk).
func (r *Hasher) ClearLastBoundary() {
	r.crossed = false
	r.bytesHashed = 0
}

// BytesHashedSinceBoundary reports how many bytes have been folded in
// since the window was last cleared — used by the node builder (spec
// §4.7 step 4) to tell whether the hasher's state is independent of the
// edit yet.
func (r *Hasher) BytesHashedSinceBoundary() int {
	return r.bytesHashed
}

// WindowSize returns the configured window length in bytes.
func (r *Hasher) WindowSize() int {
	return r.window
}
