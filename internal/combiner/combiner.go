// Package combiner implements the Combiner: it merges two files into
// one output equal at each offset to whichever side is non-zero, preferring
// either file's byte on a genuine two-sided mismatch only if the caller asks
// for it, and otherwise failing with the offending offset. It preserves
// sparseness on a seekable sink by seeking over zero runs instead of writing
// them; a non-seekable sink (a pipe) gets literal zero bytes instead.
package combiner

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/slok/nulldiff/internal/nderrors"
	"github.com/slok/nulldiff/internal/sparsefile"
	"github.com/slok/nulldiff/internal/zero"
)

// blockSize is the read/compare granularity, matched to a typical
// filesystem cluster size so that a seek-for-zero block is also a
// filesystem-sparse-friendly block.
const blockSize = 4096

// minBlock is the byte threshold below which the halving descent gives up
// and resolves byte-for-byte (mirrors blockcmp's floor).
const minBlock = 16

// Prefer selects which side wins a genuine two-sided byte mismatch.
type Prefer int

const (
	PreferNone Prefer = iota
	PreferFirst
	PreferSecond
)

// truncater is implemented by *os.File. Combine calls it only on a sink that
// passed the seek probe; on a non-seekable sink (a pipe) it skips the final
// truncate because every zero run was already materialized as literal zero
// bytes.
type truncater interface {
	Truncate(size int64) error
}

// Combine writes the null-merged content of v1 and v2 to w, then truncates w
// to max(v1.Length(), v2.Length()) if w supports it, so that trailing zero
// runs materialize even when every byte up to that point was seeked over.
//
// ctx is checked once per blockSize-sized span, the natural granularity at
// which the combiner already revisits its cursor, so a multi-gigabyte
// combine can be aborted between spans rather than only at process exit.
// w takes a plain io.Writer rather than io.WriteSeeker on purpose: a
// non-seekable sink (a pipe) is a supported target that falls back to
// literal zero bytes instead of seeks, and requiring io.WriteSeeker at the
// signature would make that fallback unreachable by construction.
func Combine(ctx context.Context, w io.Writer, v1, v2 *sparsefile.FileView, prefer Prefer) error {
	// A type assertion alone isn't enough: *os.File satisfies io.Seeker
	// whether or not the underlying descriptor is a pipe, so seekability
	// is confirmed with a no-op seek rather than assumed from the type.
	seeker, seekable := w.(io.Seeker)
	if seekable {
		if _, err := seeker.Seek(0, io.SeekCurrent); err != nil {
			seekable = false
		}
	}

	len1, len2 := v1.Length(), v2.Length()
	maxLen := len1
	if len2 > maxLen {
		maxLen = len2
	}

	var pos int64
	for pos < maxLen {
		if err := ctx.Err(); err != nil {
			return err
		}

		n1 := spanLen(pos, len1)
		n2 := spanLen(pos, len2)

		switch {
		case n1 == 0:
			if err := emitSide(w, seeker, seekable, v2.Slice(pos, len2-pos)); err != nil {
				return err
			}
			pos = len2
		case n2 == 0:
			if err := emitSide(w, seeker, seekable, v1.Slice(pos, len1-pos)); err != nil {
				return err
			}
			pos = len1
		default:
			common := n1
			if n2 < common {
				common = n2
			}
			a := v1.Slice(pos, common)
			b := v2.Slice(pos, common)
			if err := combineSpan(w, seeker, seekable, a, b, pos, prefer); err != nil {
				return err
			}
			pos += common

			switch {
			case n1 > common:
				if err := emitSide(w, seeker, seekable, v1.Slice(pos, n1-common)); err != nil {
					return err
				}
				pos += n1 - common
			case n2 > common:
				if err := emitSide(w, seeker, seekable, v2.Slice(pos, n2-common)); err != nil {
					return err
				}
				pos += n2 - common
			}
		}
	}

	if seekable {
		if t, ok := w.(truncater); ok {
			if err := t.Truncate(maxLen); err != nil {
				return fmt.Errorf("truncating output to %d bytes: %w", maxLen, err)
			}
		}
	}
	return nil
}

// combineSpan runs the halving descent over two equal-length spans a, b,
// writing the merged result. A block resolves immediately when both sides
// agree; a block that's zero on exactly one side is NOT resolved until
// minBlock, so a half-sparse, half-data block keeps getting split instead of
// being flattened into one literal write, encouraging finer-grained sparse
// regions in the output. A genuine two-sided mismatch only ever surfaces at
// the byte level.
func combineSpan(w io.Writer, seeker io.Seeker, seekable bool, a, b []byte, baseOff int64, prefer Prefer) error {
	n := len(a)
	checked := 0

	for checked < n {
		blockSize := largestPow2LE(n - checked)

		for blockSize >= minBlock {
			blkA := a[checked : checked+blockSize]
			blkB := b[checked : checked+blockSize]

			switch {
			case bytes.Equal(blkA, blkB):
				if err := emitSpan(w, seeker, seekable, blkA); err != nil {
					return err
				}
				checked += blockSize
				blockSize = 0
			case blockSize == minBlock && zero.IsZero(blkA, minBlock):
				if err := writeLiteral(w, blkB); err != nil {
					return err
				}
				checked += blockSize
				blockSize = 0
			case blockSize == minBlock && zero.IsZero(blkB, minBlock):
				if err := writeLiteral(w, blkA); err != nil {
					return err
				}
				checked += blockSize
				blockSize = 0
			default:
				blockSize /= 2
			}
		}
		if blockSize == 0 {
			continue
		}

		for i := 0; i < blockSize; i++ {
			ai, bi := a[checked+i], b[checked+i]
			var out byte
			switch {
			case ai == bi, bi == 0:
				out = ai
			case ai == 0:
				out = bi
			default:
				switch prefer {
				case PreferFirst:
					out = ai
				case PreferSecond:
					out = bi
				default:
					return nderrors.Mismatch(baseOff + int64(checked+i))
				}
			}
			if err := writeLiteral(w, []byte{out}); err != nil {
				return err
			}
		}
		checked += blockSize
	}
	return nil
}

// emitSide streams a single file's remaining bytes (the other side has
// already ended), chunked at blockSize so zero runs still collapse to
// seeks.
func emitSide(w io.Writer, seeker io.Seeker, seekable bool, data []byte) error {
	for off := 0; off < len(data); {
		n := blockSize
		if len(data)-off < n {
			n = len(data) - off
		}
		if err := emitSpan(w, seeker, seekable, data[off:off+n]); err != nil {
			return err
		}
		off += n
	}
	return nil
}

// emitSpan writes span, seeking forward instead when it's entirely zero and
// the sink supports seeking; a non-seekable sink gets literal zero bytes
// rather than an undefined result.
func emitSpan(w io.Writer, seeker io.Seeker, seekable bool, span []byte) error {
	if !zero.IsZero(span, len(span)) {
		return writeLiteral(w, span)
	}
	if seekable {
		if _, err := seeker.Seek(int64(len(span)), io.SeekCurrent); err != nil {
			return fmt.Errorf("seeking output: %w", err)
		}
		return nil
	}
	return writeLiteral(w, zero.Reference(len(span)))
}

func writeLiteral(w io.Writer, data []byte) error {
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

func spanLen(pos, length int64) int64 {
	n := length - pos
	if n < 0 {
		return 0
	}
	if n > blockSize {
		return blockSize
	}
	return n
}

func largestPow2LE(n int) int {
	p := 1
	for p*2 <= n {
		p *= 2
	}
	return p
}
