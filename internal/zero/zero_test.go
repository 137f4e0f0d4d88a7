package zero

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsZero(t *testing.T) {
	tests := map[string]struct {
		span     []byte
		pageSize int
		exp      bool
	}{
		"empty span is zero": {
			span: nil,
			exp:  true,
		},
		"all-zero page": {
			span:     make([]byte, 4096),
			pageSize: 4096,
			exp:      true,
		},
		"one non-zero byte at the start": {
			span:     append([]byte{1}, make([]byte, 4095)...),
			pageSize: 4096,
			exp:      false,
		},
		"one non-zero byte at the end": {
			span:     append(make([]byte, 4095), 1),
			pageSize: 4096,
			exp:      false,
		},
		"multi-page all-zero span": {
			span:     make([]byte, 3*4096),
			pageSize: 4096,
			exp:      true,
		},
		"multi-page span, non-zero in the last partial chunk": {
			span:     append(make([]byte, 8192), []byte{0, 0, 1}...),
			pageSize: 4096,
			exp:      false,
		},
		"pageSize of zero falls back to the whole span": {
			span: make([]byte, 17),
			exp:  true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.exp, IsZero(test.span, test.pageSize))
		})
	}
}

func TestCountNonZeroPages(t *testing.T) {
	page := 4096
	mixed := make([]byte, 3*page)
	mixed[page] = 0xFF          // second page dirty
	mixed[2*page+10] = 0xFF     // third page dirty

	tests := map[string]struct {
		span           []byte
		pageSize       int
		stopOnMismatch bool
		exp            int
	}{
		"all zero": {
			span:     make([]byte, 3*page),
			pageSize: page,
			exp:      0,
		},
		"two dirty pages, full count": {
			span:     mixed,
			pageSize: page,
			exp:      2 * page,
		},
		"two dirty pages, stop at first": {
			span:           mixed,
			pageSize:       page,
			stopOnMismatch: true,
			exp:            page,
		},
		"single non-zero byte counts the whole page": {
			span:     []byte{0, 0, 1, 0},
			pageSize: 4,
			exp:      4,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got := CountNonZeroPages(test.span, test.pageSize, test.stopOnMismatch)
			assert.Equal(t, test.exp, got)
		})
	}
}

func TestReferenceGrowsAndStaysZero(t *testing.T) {
	r1 := Reference(16)
	assert.True(t, bytes.Equal(r1, make([]byte, 16)))

	r2 := Reference(4096)
	assert.Len(t, r2, 4096)
	assert.True(t, bytes.Equal(r2, make([]byte, 4096)))

	// A later, smaller request still returns an all-zero slice of the
	// requested length.
	r3 := Reference(8)
	assert.True(t, bytes.Equal(r3, make([]byte, 8)))
}
