//go:build linux

package sparsefile

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// progressThreshold is the 1 MiB-aligned readahead-refresh threshold.
//
// A tool in this space could test "(f_off & 0xEFFFFF) == 0", but that's not
// a power-of-two-minus-one mask and so isn't a meaningful alignment test at
// all, likely a typo for 0xFFFFFF. We use an explicit, named 1 MiB constant
// instead.
const progressThreshold = 1 << 20

// ringSize is the size of each readahead ring: the near ring gets
// MADV_SEQUENTIAL, the far ring gets MADV_WILLNEED, a dual-ring policy.
const ringSize = 2 << 20

// WindowManager keeps a bounded region of a FileView's mapping
// resident: it advises the kernel about upcoming reads and unmaps pages
// that have fallen behind the engine's cursor.
type WindowManager struct {
	v            *FileView
	lastAdviseAt int64
}

// NewWindowManager returns a window manager over v. MADV_DONTDUMP is
// already set by Open; no SEQUENTIAL advice has been issued yet.
func NewWindowManager(v *FileView) *WindowManager {
	return &WindowManager{v: v, lastAdviseAt: -progressThreshold - 1}
}

// Advance ensures the dual-ring readahead hints cover fOff, re-advising
// whenever progress since the last advise reaches progressThreshold or a
// new data extent [fOff, holeEnd) has just been entered. Both rings are
// bounded by holeEnd, the current extent's end.
//
// madvise failures are advisory-only and are silently discarded here; no
// log line is written for them.
func (w *WindowManager) Advance(fOff, holeEnd int64) {
	if fOff-w.lastAdviseAt < progressThreshold {
		return
	}
	w.lastAdviseAt = fOff

	nearLen := min64(ringSize, holeEnd-fOff)
	if nearLen > 0 {
		_ = unix.Madvise(w.v.base[fOff:fOff+nearLen], unix.MADV_SEQUENTIAL)
	}

	farStart := fOff + nearLen
	farLen := min64(ringSize, holeEnd-farStart)
	if farLen > 0 {
		_ = unix.Madvise(w.v.base[farStart:farStart+farLen], unix.MADV_WILLNEED)
	}

	w.v.madvOff = farStart
}

// EnterExtent resets the readahead state on entering a new data extent and
// immediately advises it.
func (w *WindowManager) EnterExtent(fOff, holeEnd int64) {
	w.lastAdviseAt = -progressThreshold - 1
	w.Advance(fOff, holeEnd)
}

// Unmap releases mapped pages that have fallen behind fOff, maintaining
// the page-aligned low watermark. It rounds down to whole pages so a
// partial trailing page is never unmapped.
func (w *WindowManager) Unmap(fOff int64) error {
	v := w.v
	if fOff-v.unmapOff < v.pageSize {
		return nil
	}
	newUnmapOff := AlignDown(fOff, v.pageSize)
	if newUnmapOff <= v.unmapOff {
		return nil
	}
	// unix.Munmap accepts only the exact slice unix.Mmap returned, so the
	// leading range is released with the raw munmap syscall.
	region := v.base[v.unmapOff:newUnmapOff]
	if _, _, errno := unix.Syscall(unix.SYS_MUNMAP, uintptr(unsafe.Pointer(&region[0])), uintptr(len(region)), 0); errno != 0 {
		return errno
	}
	v.unmapOff = newUnmapOff
	return nil
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
