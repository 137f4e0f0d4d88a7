package nullequiv

import (
	"errors"

	"github.com/slok/nulldiff/internal/sparsefile"
	"github.com/slok/nulldiff/internal/zero"
)

// HasHole implements the Hole Detector for has_hole: a file has a hole
// unless SEEK_HOLE from offset 0 reports the file's own length, i.e. the
// whole file is one contiguous data extent (or the file is empty).
func HasHole(v *sparsefile.FileView) (bool, error) {
	if v.Length() == 0 {
		return false, nil
	}
	hole, err := sparsefile.NewCursor(v).NextHole(0)
	if err != nil {
		return false, err
	}
	return hole != v.Length(), nil
}

// HasEmbeddedNullPage implements the Hole Detector for has_null: it
// walks every data extent looking for a page-aligned, entirely-zero page —
// allocated storage the filesystem could have represented as a hole but
// didn't. It short-circuits true on the first match, and reports false for
// a file with no data extents at all.
func HasEmbeddedNullPage(v *sparsefile.FileView) (bool, error) {
	cur := sparsefile.NewCursor(v)
	data, err := cur.SeekFirstData()
	if err != nil {
		if errors.Is(err, sparsefile.ErrExhausted) {
			return false, nil
		}
		return false, err
	}

	page := v.PageSize()
	for {
		hole := cur.Cached()
		for off := data; off < hole; off += page {
			n := min64(page, hole-off)
			if zero.IsZero(v.Slice(off, n), int(page)) {
				return true, nil
			}
		}

		data, _, err = cur.Advance(hole)
		if err != nil {
			if errors.Is(err, sparsefile.ErrExhausted) {
				return false, nil
			}
			return false, err
		}
	}
}
