//go:build linux

package sparsefile

import (
	"errors"
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"
)

// ErrExhausted is returned by Cursor methods once a file has no further
// data extents.
var ErrExhausted = errors.New("no further data extents")

// Cursor is the Sparse Map Cursor: it exposes the next
// (data_start, hole_start) pair for a file's allocation map, re-querying
// lseek(SEEK_DATA)/lseek(SEEK_HOLE) on demand and caching the last
// next_hole so the engine doesn't pay a syscall every page.
type Cursor struct {
	v        *FileView
	nextHole int64
}

// NewCursor returns a cursor over v.
func NewCursor(v *FileView) *Cursor {
	return &Cursor{v: v}
}

// SeekFirstData returns the first byte offset of any allocated data in the
// file, or ErrExhausted if the file has none.
func (c *Cursor) SeekFirstData() (int64, error) {
	off, err := unix.Seek(c.v.fd, 0, unix.SEEK_DATA)
	if err != nil {
		if errors.Is(err, syscall.ENXIO) {
			return 0, ErrExhausted
		}
		return 0, fmt.Errorf("SEEK_DATA from 0: %w", err)
	}
	hole, err := unix.Seek(c.v.fd, off, unix.SEEK_HOLE)
	if err != nil {
		return 0, fmt.Errorf("SEEK_HOLE from %d: %w", off, err)
	}
	c.nextHole = hole
	return off, nil
}

// NextHole returns the least offset >= from whose content is a hole,
// or the file length if none.
func (c *Cursor) NextHole(from int64) (int64, error) {
	hole, err := unix.Seek(c.v.fd, from, unix.SEEK_HOLE)
	if err != nil {
		return 0, fmt.Errorf("SEEK_HOLE from %d: %w", from, err)
	}
	c.nextHole = hole
	return hole, nil
}

// Cached returns the last next_hole value this cursor computed, without a
// syscall.
func (c *Cursor) Cached() int64 { return c.nextHole }

// Advance jumps past a hole at "at" to the next data extent and computes the
// hole that follows it: data := lseek(SEEK_DATA, at); hole :=
// lseek(SEEK_HOLE, data). Returns ErrExhausted if no data remains.
func (c *Cursor) Advance(at int64) (data, hole int64, err error) {
	data, err = unix.Seek(c.v.fd, at, unix.SEEK_DATA)
	if err != nil {
		if errors.Is(err, syscall.ENXIO) {
			return 0, 0, ErrExhausted
		}
		return 0, 0, fmt.Errorf("SEEK_DATA from %d: %w", at, err)
	}
	hole, err = unix.Seek(c.v.fd, data, unix.SEEK_HOLE)
	if err != nil {
		return 0, 0, fmt.Errorf("SEEK_HOLE from %d: %w", data, err)
	}
	c.nextHole = hole
	return data, hole, nil
}
