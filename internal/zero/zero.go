// Package zero implements the Zero Oracle: answering whether a span is
// entirely zero, and how many non-zero bytes/pages it contains, against a
// single page-sized all-zero reference buffer shared across the process.
package zero

import (
	"bytes"
	"sync"
)

var (
	refMu  sync.Mutex
	refLen int
	ref    []byte
)

// Reference returns the process-wide zero reference buffer, lazily growing
// it to at least n bytes. The buffer is immutable once handed out; callers
// never write to it.
func Reference(n int) []byte {
	refMu.Lock()
	defer refMu.Unlock()
	if n > refLen {
		ref = make([]byte, n)
		refLen = n
	}
	return ref[:n]
}

// IsZero reports whether every byte of span is 0, comparing in page-sized
// chunks against the shared zero reference (the last chunk is truncated to
// whatever remains).
func IsZero(span []byte, pageSize int) bool {
	if pageSize <= 0 {
		pageSize = len(span)
		if pageSize == 0 {
			return true
		}
	}
	zeroChunk := Reference(pageSize)
	for off := 0; off < len(span); off += pageSize {
		end := off + pageSize
		if end > len(span) {
			end = len(span)
		}
		if !bytes.Equal(span[off:end], zeroChunk[:end-off]) {
			return false
		}
	}
	return true
}

// CountNonZeroPages sums the bytes belonging to any page-sized chunk that
// is not entirely zero. A single non-zero byte within a page counts the
// whole page, matching the engine's page-level accounting.
//
// If stopOnMismatch is true, it returns as soon as the first non-zero
// chunk is found (used when only the "is there any non-zero?" bit
// matters).
func CountNonZeroPages(span []byte, pageSize int, stopOnMismatch bool) int {
	if pageSize <= 0 {
		pageSize = len(span)
		if pageSize == 0 {
			return 0
		}
	}
	zeroChunk := Reference(pageSize)
	total := 0
	for off := 0; off < len(span); off += pageSize {
		end := off + pageSize
		if end > len(span) {
			end = len(span)
		}
		chunkLen := end - off
		if !bytes.Equal(span[off:end], zeroChunk[:chunkLen]) {
			total += chunkLen
			if stopOnMismatch {
				return total
			}
		}
	}
	return total
}
