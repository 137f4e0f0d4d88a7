//go:build !linux

package sparsefile

import (
	"errors"

	"github.com/slok/nulldiff/internal/nderrors"
)

// Open is unsupported outside Linux: sparse-aware SEEK_DATA/SEEK_HOLE
// semantics aren't available here.
func Open(cfg Config) (*FileView, error) {
	return nil, nderrors.Access(cfg.Path, errors.New("sparse file support requires a Linux SEEK_DATA/SEEK_HOLE filesystem"))
}

// Close is never reachable since Open always fails, but is defined to
// satisfy callers that hold a *FileView across platforms.
func (v *FileView) Close() error { return nil }

// Fd is never reachable; see Open.
func (v *FileView) Fd() int { return -1 }
