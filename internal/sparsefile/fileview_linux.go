//go:build linux

package sparsefile

import (
	"errors"
	"fmt"
	"os"
	"syscall"
	"unsafe"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sys/unix"

	"github.com/slok/nulldiff/internal/nderrors"
)

// Open stats, validates and memory-maps cfg.Path as a FileView.
//
// The file must be regular with size > 0 and at least one data extent; any
// other case is an ErrAccess. mmap failure is an ErrMapping.
func Open(cfg Config) (*FileView, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	path, logger := cfg.Path, cfg.Logger

	f, err := os.Open(path)
	if err != nil {
		return nil, nderrors.Access(path, err)
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nderrors.Access(path, err)
	}
	if !fi.Mode().IsRegular() {
		f.Close()
		return nil, nderrors.Access(path, errors.New("not a regular file"))
	}
	if fi.Size() == 0 {
		f.Close()
		return nil, nderrors.Access(path, errors.New("zero-length file"))
	}

	fd := int(f.Fd())

	if _, err := unix.Seek(fd, 0, unix.SEEK_DATA); err != nil {
		if errors.Is(err, syscall.ENXIO) {
			f.Close()
			return nil, nderrors.Access(path, errors.New("file is non-zero but completely sparse, with no data"))
		}
		f.Close()
		return nil, nderrors.Access(path, fmt.Errorf("probing for data extents: %w", err))
	}

	length := fi.Size()
	pageSize := int64(blockSize(fi))
	if pageSize <= 0 {
		pageSize = int64(os.Getpagesize())
	}

	base, err := unix.Mmap(fd, 0, int(length), unix.PROT_READ, unix.MAP_PRIVATE|unix.MAP_NORESERVE)
	if err != nil {
		f.Close()
		return nil, nderrors.Mapping(path, err)
	}

	if err := unix.Madvise(base, unix.MADV_DONTDUMP); err != nil {
		// madvise failures are advisory only; never fatal.
		logger.Warningf("madvise(MADV_DONTDUMP) failed for %s: %v", path, err)
	}

	if allocated := allocatedSize(fi); allocated < length {
		logger.Debugf("%s: virtual size %d, allocated %d (sparse)", path, length, allocated)
	}

	v := &FileView{
		path:     path,
		fd:       fd,
		length:   length,
		pageSize: pageSize,
		base:     base,
		file:     f,
		logger:   logger,
	}
	return v, nil
}

// Close unmaps whatever remains mapped and closes the underlying descriptor,
// accumulating both failures rather than letting one mask the other.
func (v *FileView) Close() error {
	var merr *multierror.Error

	if v.unmapOff < v.length {
		// Once Unmap has released a leading range, the remainder is no
		// longer the slice unix.Mmap returned, so it is released with the
		// raw munmap syscall.
		rest := v.base[v.unmapOff:]
		if _, _, errno := unix.Syscall(unix.SYS_MUNMAP, uintptr(unsafe.Pointer(&rest[0])), uintptr(len(rest)), 0); errno != 0 {
			merr = multierror.Append(merr, fmt.Errorf("unmapping %s: %w", v.path, errno))
		}
		v.unmapOff = v.length
	}
	if err := v.file.Close(); err != nil {
		merr = multierror.Append(merr, fmt.Errorf("closing %s: %w", v.path, err))
	}

	return merr.ErrorOrNil()
}

// Fd returns the underlying file descriptor, for use by the sparse cursor.
func (v *FileView) Fd() int { return v.fd }

func blockSize(fi os.FileInfo) int64 {
	st, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return 0
	}
	return int64(st.Blksize)
}

// allocatedSize returns the actual on-disk size backing fi, in bytes; for a
// sparse file this is less than fi.Size(). Falls back to the virtual size
// on platforms whose os.FileInfo doesn't expose block counts.
func allocatedSize(fi os.FileInfo) int64 {
	st, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return fi.Size()
	}
	return st.Blocks * 512
}
