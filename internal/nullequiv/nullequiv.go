// Package nullequiv implements the Equivalence Engine: it drives the
// sparse-map cursors and window managers of two files to decide
// null-equivalence, subset relationships, and which file carries more
// non-zero data. It also implements the single-file Hole Detectors,
// which share the same cursor and zero-oracle primitives.
package nullequiv

import (
	"bytes"
	"context"
	"errors"

	"github.com/slok/nulldiff/internal/blockcmp"
	"github.com/slok/nulldiff/internal/nderrors"
	"github.com/slok/nulldiff/internal/sparsefile"
	"github.com/slok/nulldiff/internal/zero"
)

// Retcode bits, composed per the accounting variant of null_diff.
const (
	Subset1 = 1 << iota
	Subset2
	Greatest1
	Greatest2
)

// bulkWindow bounds how far a single COMPARE_BULK pass advances before the
// engine loops back to refresh window-manager advice.
const bulkWindow = 1 << 20

// Options selects which accounting the engine performs. Both are off by
// default (the plain null_diff variant): the comparison itself still
// classifies every block as equal/zero-in-A/zero-in-B/mismatch, but no
// subset or greatest-data bookkeeping is kept.
type Options struct {
	ShowGreatest bool
	CheckSubset  bool
}

// Result is the accounting outcome of a successful Compare: a 4-bit mask,
// meaningful only in the fields the caller's Options enabled.
type Result struct {
	RetCode int
}

// Compare walks v1 and v2 from their first shared data extent and classifies
// every byte they both cover, returning the composed retcode.
//
// ctx is checked once per ADVANCE_HOLE transition (the only point the
// engine revisits the sparse maps rather than sitting inside a single
// mmap'd compare loop), so a cancellation lands between extents on a
// multi-gigabyte pair of files instead of only at process exit.
//
// A terminal content mismatch or an empty intersection of data extents is
// returned as an error (nderrors.ErrMismatch / nderrors.ErrNoSharedData);
// callers map that to a process exit code via nderrors.Classify.
func Compare(ctx context.Context, v1, v2 *sparsefile.FileView, opts Options) (Result, error) {
	c1 := sparsefile.NewCursor(v1)
	c2 := sparsefile.NewCursor(v2)
	w1 := sparsefile.NewWindowManager(v1)
	w2 := sparsefile.NewWindowManager(v2)

	subset1, subset2 := true, true
	var procsz1, procsz2 int64

	// A plain run (neither flag set) never needs to know which side a
	// non-zero page belongs to, so the accounting scans below are skipped
	// entirely rather than run and discarded through creditNonzero's nil
	// check.
	accounting := opts.CheckSubset || opts.ShowGreatest

	acc := &blockcmp.Accounting{}
	if opts.CheckSubset {
		acc.Subset1 = &subset1
		acc.Subset2 = &subset2
	}
	if opts.ShowGreatest {
		acc.ProcSz1 = &procsz1
		acc.ProcSz2 = &procsz2
	}

	// START -> ALIGN_FIRST_DATA: locate the first offset both files
	// report as allocated data, crediting whichever side is "ahead" for
	// the data it holds over a region the other side is still a hole.
	data1, err := c1.SeekFirstData()
	if err != nil {
		return Result{}, noSharedData(err)
	}
	data2, err := c2.SeekFirstData()
	if err != nil {
		return Result{}, noSharedData(err)
	}

	for data1 != data2 {
		if data1 < data2 {
			if accounting {
				if err := accountExtent(v1, data1, data2, acc, true); err != nil {
					return Result{}, err
				}
			}
			var holeErr error
			data1, _, holeErr = c1.Advance(data2)
			if holeErr != nil {
				return Result{}, noSharedData(holeErr)
			}
		} else {
			if accounting {
				if err := accountExtent(v2, data2, data1, acc, false); err != nil {
					return Result{}, err
				}
			}
			var holeErr error
			data2, _, holeErr = c2.Advance(data1)
			if holeErr != nil {
				return Result{}, noSharedData(holeErr)
			}
		}
	}

	maxSize := min64(v1.Length(), v2.Length())
	foff := data1
	if foff >= maxSize {
		return Result{}, noSharedData(sparsefile.ErrExhausted)
	}
	nextHole := min64(c1.Cached(), c2.Cached())

	w1.EnterExtent(foff, nextHole)
	w2.EnterExtent(foff, nextHole)

	exhaustedEarly := false

loop:
	for foff < maxSize {
		// ADVANCE_HOLE
		if foff >= nextHole {
			if err := ctx.Err(); err != nil {
				return Result{}, err
			}

			data1n, hole1n, err1 := c1.Advance(foff)
			data2n, hole2n, err2 := c2.Advance(foff)
			ex1 := errors.Is(err1, sparsefile.ErrExhausted)
			ex2 := errors.Is(err2, sparsefile.ErrExhausted)

			switch {
			case ex1 && ex2:
				break loop
			case ex1:
				// File 1 has no more data; file 2's remaining extents
				// are scanned for non-zero pages only (a content
				// mismatch is impossible once one side has ended).
				if accounting {
					if err := accountTail(v2, c2, data2n, hole2n, acc, false); err != nil {
						return Result{}, err
					}
				}
				exhaustedEarly = true
				break loop
			case ex2:
				if accounting {
					if err := accountTail(v1, c1, data1n, hole1n, acc, true); err != nil {
						return Result{}, err
					}
				}
				exhaustedEarly = true
				break loop
			case err1 != nil:
				return Result{}, err1
			case err2 != nil:
				return Result{}, err2
			}

			foff = min64(data1n, data2n)
			nextHole = min64(hole1n, hole2n)
			w1.EnterExtent(foff, nextHole)
			w2.EnterExtent(foff, nextHole)
			continue
		}

		// COMPARE_BULK / COMPARE_FINE over a page at a time, up to a
		// 1 MiB chunk before refreshing readahead advice.
		bulkEnd := min64(nextHole, min64(foff+bulkWindow, maxSize))
		page := v1.PageSize()

		for foff < bulkEnd {
			w1.Advance(foff, nextHole)
			w2.Advance(foff, nextHole)

			chunk := min64(page, bulkEnd-foff)
			a := v1.Slice(foff, chunk)
			b := v2.Slice(foff, chunk)

			switch {
			case bytes.Equal(a, b):
				// both sides agree; nothing to account.
			case zero.IsZero(a, int(page)):
				creditNonzero(acc, false, chunk)
			case zero.IsZero(b, int(page)):
				creditNonzero(acc, true, chunk)
			default:
				if err := blockcmp.Compare(a, b, foff, acc); err != nil {
					return Result{}, err
				}
			}

			foff += chunk
			if err := w1.Unmap(foff); err != nil {
				return Result{}, nderrors.Mapping(v1.Path(), err)
			}
			if err := w2.Unmap(foff); err != nil {
				return Result{}, nderrors.Mapping(v2.Path(), err)
			}
		}
	}

	// TAIL: skipped when one side was exhausted early (the other side's
	// remainder was already accounted above); otherwise whichever file is
	// strictly longer may still carry non-zero data past max_size.
	if opts.ShowGreatest && !exhaustedEarly {
		if err := scanExcess(v1, maxSize, acc, true); err != nil {
			return Result{}, err
		}
		if err := scanExcess(v2, maxSize, acc, false); err != nil {
			return Result{}, err
		}
	}

	res := Result{}
	if opts.CheckSubset {
		if subset1 {
			res.RetCode |= Subset1
		}
		if subset2 {
			res.RetCode |= Subset2
		}
	}
	if opts.ShowGreatest {
		switch {
		case procsz1 > procsz2:
			res.RetCode |= Greatest1
		case procsz2 > procsz1:
			res.RetCode |= Greatest2
		}
	}
	return res, nil
}

// creditNonzero records that the named side holds non-zero data the other
// side lacks at this span: it clears that side's subset bit and credits its
// processed-size counter, mirroring blockcmp's zero_in_A/zero_in_B tie-break.
func creditNonzero(acc *blockcmp.Accounting, side1 bool, n int64) {
	if side1 {
		if acc.ProcSz1 != nil {
			*acc.ProcSz1 += n
		}
		if acc.Subset1 != nil {
			*acc.Subset1 = false
		}
		return
	}
	if acc.ProcSz2 != nil {
		*acc.ProcSz2 += n
	}
	if acc.Subset2 != nil {
		*acc.Subset2 = false
	}
}

// accountExtent scans [from, to) of v (a data extent the other file doesn't
// yet share) page by page, crediting side1/side2 for every non-zero page.
// An all-zero data page changes nothing: a zero byte is tolerated on either
// side regardless of which file happens to allocate it.
func accountExtent(v *sparsefile.FileView, from, to int64, acc *blockcmp.Accounting, side1 bool) error {
	page := v.PageSize()
	for off := from; off < to; {
		n := min64(page, to-off)
		span := v.Slice(off, n)
		if !zero.IsZero(span, int(page)) {
			creditNonzero(acc, side1, n)
		}
		off += n
	}
	return nil
}

// accountTail walks every remaining data extent of v, starting at the
// already-known (data, hole) pair, through end of file, crediting side1 for
// any non-zero page found (used when the other file has been exhausted).
func accountTail(v *sparsefile.FileView, cur *sparsefile.Cursor, data, hole int64, acc *blockcmp.Accounting, side1 bool) error {
	for {
		if err := accountExtent(v, data, hole, acc, side1); err != nil {
			return err
		}
		if hole >= v.Length() {
			return nil
		}
		var err error
		data, hole, err = cur.Advance(hole)
		if err != nil {
			if errors.Is(err, sparsefile.ErrExhausted) {
				return nil
			}
			return err
		}
	}
}

// scanExcess credits side1/side2 for the non-zero data extents of v that lie
// beyond from (the shared max_size), used only by the TAIL phase.
func scanExcess(v *sparsefile.FileView, from int64, acc *blockcmp.Accounting, side1 bool) error {
	if v.Length() <= from {
		return nil
	}
	cur := sparsefile.NewCursor(v)
	data, hole, err := cur.Advance(from)
	if err != nil {
		if errors.Is(err, sparsefile.ErrExhausted) {
			return nil
		}
		return err
	}
	return accountTail(v, cur, data, hole, acc, side1)
}

func noSharedData(cause error) error {
	return nderrors.NoSharedData(cause)
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
