//go:build !linux

package sparsefile

import "errors"

// ErrExhausted is returned by Cursor methods once a file has no further
// data extents.
var ErrExhausted = errors.New("no further data extents")

// Cursor is unreachable outside Linux: FileView.Open always fails first.
type Cursor struct{}

// NewCursor is unreachable; see Cursor.
func NewCursor(v *FileView) *Cursor { return &Cursor{} }

func (c *Cursor) SeekFirstData() (int64, error)          { return 0, ErrExhausted }
func (c *Cursor) NextHole(from int64) (int64, error)     { return 0, ErrExhausted }
func (c *Cursor) Cached() int64                          { return 0 }
func (c *Cursor) Advance(at int64) (int64, int64, error) { return 0, 0, ErrExhausted }
