// Package blockcmp implements the Block Comparator: a halving
// comparison between two equal-length spans that classifies every
// sub-block as equal, zero-on-one-side, or a terminal mismatch.
package blockcmp

import (
	"bytes"

	"github.com/slok/nulldiff/internal/nderrors"
	"github.com/slok/nulldiff/internal/zero"
)

// minBlock is the byte threshold below which the comparator gives up on
// block-sized comparisons and finishes byte-for-byte.
const minBlock = 16

// Accounting is the engine-scoped accounting state a Compare call mutates
// as it classifies sub-blocks. A nil field disables tracking
// for that half of the accounting (e.g. ProcSz is nil when show_greatest
// is off).
type Accounting struct {
	Subset1 *bool
	Subset2 *bool
	ProcSz1 *int64
	ProcSz2 *int64
}

// noteZeroInA records that A's sub-block was all zero: B is contributing
// the non-zero data, so B is not a subset of A.
func (a *Accounting) noteZeroInA(n int64) {
	if a == nil {
		return
	}
	if a.ProcSz2 != nil {
		*a.ProcSz2 += n
	}
	if a.Subset2 != nil {
		*a.Subset2 = false
	}
}

// noteZeroInB records that B's sub-block was all zero: A is contributing
// the non-zero data, so A is not a subset of B.
func (a *Accounting) noteZeroInB(n int64) {
	if a == nil {
		return
	}
	if a.ProcSz1 != nil {
		*a.ProcSz1 += n
	}
	if a.Subset1 != nil {
		*a.Subset1 = false
	}
}

// Compare classifies a span a,b (equal length, <= one page) starting at
// absolute file offset baseOff, mutating acc as sub-blocks are classified.
// It returns a nderrors.ErrMismatch-wrapped error carrying the absolute
// offset the instant it finds bytes that differ with neither side zero;
// every byte before that point has already been accounted for.
//
// The halving/doubling state machine: each outer step picks the largest
// power-of-two block size that still fits in the unclassified remainder.
// At >= 16 bytes it tries equal, then zero-in-A, then zero-in-B (a fixed
// tie-break order — a block that's zero on both sides counts as equal,
// never as either side's contribution); on triple failure it halves and
// retries at the same offset. Below 16 bytes it finishes byte-for-byte.
// After any successful block, the next outer step is free to pick a larger
// block again (doubling back up) since the block size is always recomputed
// from the unclassified remainder.
func Compare(a, b []byte, baseOff int64, acc *Accounting) error {
	n := len(a)
	checked := 0

	for checked < n {
		remaining := n - checked
		blockSize := largestPow2LE(remaining)

		// Halving descent: shrink blockSize until a classification is
		// found or it drops below minBlock, at the *same* offset each time.
		for blockSize >= minBlock {
			blkA := a[checked : checked+blockSize]
			blkB := b[checked : checked+blockSize]

			switch {
			case bytes.Equal(blkA, blkB):
				checked += blockSize
				blockSize = 0
			case zero.IsZero(blkA, blockSize):
				acc.noteZeroInA(int64(blockSize))
				checked += blockSize
				blockSize = 0
			case zero.IsZero(blkB, blockSize):
				acc.noteZeroInB(int64(blockSize))
				checked += blockSize
				blockSize = 0
			default:
				blockSize /= 2
			}
		}
		if blockSize == 0 {
			continue
		}

		// Byte-wise finish of the residual span.
		for i := 0; i < blockSize; i++ {
			ai, bi := a[checked+i], b[checked+i]
			switch {
			case ai == bi:
				// equal, consume.
			case ai == 0:
				acc.noteZeroInA(1)
			case bi == 0:
				acc.noteZeroInB(1)
			default:
				return nderrors.Mismatch(baseOff + int64(checked+i))
			}
		}
		checked += blockSize
	}

	return nil
}

// largestPow2LE returns the largest power of two <= n (n >= 1).
func largestPow2LE(n int) int {
	p := 1
	for p*2 <= n {
		p *= 2
	}
	return p
}
