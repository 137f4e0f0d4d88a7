// Package sparsefile exposes a single read-only memory-mapped view over a
// regular file together with the sparse-map cursor
// that walks its data/hole extents.
//
// A FileView owns exactly one mapping for the lifetime of the file: the
// cursor and the engine only ever move the low watermark of what's still
// resident (unmapOff) and what's been hinted SEQUENTIAL (madvOff). The base
// pointer returned by Bytes is never reassigned: the window manager unmaps
// only the leading range behind the engine's cursor, and Close unmaps the
// rest.
package sparsefile

import (
	"fmt"
	"os"

	"github.com/slok/nulldiff/internal/log"
	"github.com/slok/nulldiff/internal/nderrors"
)

// Config configures Open.
type Config struct {
	// Path is the regular file to map. Required.
	Path string
	// Logger receives madvise-warning and sparse-size debug tracing;
	// default Noop.
	Logger log.Logger
}

func (c *Config) defaults() error {
	if c.Path == "" {
		return fmt.Errorf("path is required: %w", nderrors.ErrUsage)
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	return nil
}

// FileView is one memory-mapped view over a regular file.
//
// Invariants: 0 <= unmapOff <= length; unmapOff is always page-aligned;
// madvOff tracks the end of the region already advised SEQUENTIAL.
type FileView struct {
	path     string
	fd       int
	length   int64
	pageSize int64
	base     []byte
	file     *os.File

	unmapOff int64
	madvOff  int64

	logger log.Logger
}

// Path returns the file's path, as given to Open.
func (v *FileView) Path() string { return v.path }

// Length returns the file's byte length (from stat at Open time).
func (v *FileView) Length() int64 { return v.length }

// PageSize returns the alignment unit used by the cursor and window manager.
func (v *FileView) PageSize() int64 { return v.pageSize }

// Bytes returns the full [0, Length()) mapping. Reading past UnmapOff is
// always valid; the engine is responsible for never reading bytes it has
// already told the window manager to advance past.
func (v *FileView) Bytes() []byte { return v.base }

// Slice returns base[off:off+n], a read-only view into the mapping.
func (v *FileView) Slice(off, n int64) []byte { return v.base[off : off+n] }

// UnmapOff returns the low watermark of the still-mapped region.
func (v *FileView) UnmapOff() int64 { return v.unmapOff }

// AlignDown rounds x down to the nearest multiple of page.
func AlignDown(x, page int64) int64 {
	return x - (x % page)
}

// AlignUp rounds x up to the nearest multiple of page.
func AlignUp(x, page int64) int64 {
	rem := x % page
	if rem == 0 {
		return x
	}
	return x + (page - rem)
}
