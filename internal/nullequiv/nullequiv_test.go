//go:build linux

package nullequiv

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/nulldiff/internal/log"
	"github.com/slok/nulldiff/internal/nderrors"
	"github.com/slok/nulldiff/internal/sparsefile"
)

func openTemp(t *testing.T, size int64, writes map[int64]string) *sparsefile.FileView {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "f.img")

	f, err := os.Create(path)
	require.NoError(t, err)
	for off, content := range writes {
		_, err := f.WriteAt([]byte(content), off)
		require.NoError(t, err)
	}
	require.NoError(t, f.Truncate(size))
	require.NoError(t, f.Close())

	v, err := sparsefile.Open(sparsefile.Config{Path: path, Logger: log.Noop})
	require.NoError(t, err)
	t.Cleanup(func() { v.Close() })
	return v
}

func TestCompareNullEquivalentFiles(t *testing.T) {
	page := int64(os.Getpagesize())

	// v1 has real data followed by an implicit hole; v2 has the same data
	// but is shorter, so its tail is implicitly zero too.
	v1 := openTemp(t, 4*page, map[int64]string{0: "hello"})
	v2 := openTemp(t, page, map[int64]string{0: "hello"})

	res, err := Compare(context.Background(), v1, v2, Options{CheckSubset: true, ShowGreatest: true})
	require.NoError(t, err)
	assert.NotEqual(t, 0, res.RetCode&Subset1, "v1's only non-zero bytes are the ones v2 also holds")
	assert.NotEqual(t, 0, res.RetCode&Subset2, "v2's content is wholly contained in v1")
	assert.Equal(t, 0, res.RetCode&(Greatest1|Greatest2), "v1's extra length is all zero, so neither file carries more non-zero data")
}

func TestCompareReportsMismatch(t *testing.T) {
	page := int64(os.Getpagesize())
	v1 := openTemp(t, page, map[int64]string{0: "hello"})
	v2 := openTemp(t, page, map[int64]string{0: "world"})

	_, err := Compare(context.Background(), v1, v2, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, nderrors.ErrMismatch))
}

func TestCompareNoSharedData(t *testing.T) {
	page := int64(os.Getpagesize())
	// Data entirely in the first half of v1, entirely in the second half
	// of v2: their data extents never overlap.
	v1 := openTemp(t, 2*page, map[int64]string{0: "a"})
	v2 := openTemp(t, 2*page, map[int64]string{page: "b"})

	_, err := Compare(context.Background(), v1, v2, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, nderrors.ErrNoSharedData))
}

func TestCompareHonorsCanceledContext(t *testing.T) {
	page := int64(os.Getpagesize())
	// A hole between the two data extents forces at least one
	// ADVANCE_HOLE transition, which is where cancellation is observed.
	v1 := openTemp(t, 4*page, map[int64]string{0: "a", 2 * page: "b"})
	v2 := openTemp(t, 4*page, map[int64]string{0: "a", 2 * page: "b"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Compare(ctx, v1, v2, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCompareIdenticalFilesAreMutualSubsets(t *testing.T) {
	page := int64(os.Getpagesize())
	v1 := openTemp(t, page, map[int64]string{0: "same"})
	v2 := openTemp(t, page, map[int64]string{0: "same"})

	res, err := Compare(context.Background(), v1, v2, Options{CheckSubset: true, ShowGreatest: true})
	require.NoError(t, err)
	assert.Equal(t, Subset1|Subset2, res.RetCode&(Subset1|Subset2))
	assert.Equal(t, 0, res.RetCode&(Greatest1|Greatest2))
}

func fullPage(page int64, fill byte) string {
	buf := make([]byte, page)
	for i := range buf {
		buf[i] = fill
	}
	return string(buf)
}

func TestHasHole(t *testing.T) {
	page := int64(os.Getpagesize())

	// Entirely allocated, single data extent covering the whole file.
	noHole := openTemp(t, page, map[int64]string{0: fullPage(page, 1)})
	hasHole, err := HasHole(noHole)
	require.NoError(t, err)
	assert.False(t, hasHole)

	// Data followed by an implicit hole from Truncate.
	withHole := openTemp(t, 4*page, map[int64]string{0: "x"})
	hasHole, err = HasHole(withHole)
	require.NoError(t, err)
	assert.True(t, hasHole)
}

func TestHasEmbeddedNullPage(t *testing.T) {
	page := int64(os.Getpagesize())

	// A file whose only data extent is one page, entirely non-zero: no
	// embedded null page.
	noNull := openTemp(t, page, map[int64]string{0: fullPage(page, 1)})
	hasNull, err := HasEmbeddedNullPage(noNull)
	require.NoError(t, err)
	assert.False(t, hasNull)

	// A data extent spanning two pages where the second page is entirely
	// zero: an embedded null page, distinct from a hole.
	withNull := openTemp(t, 2*page, map[int64]string{
		0:    fullPage(page, 1),
		page: fullPage(page, 0),
	})
	hasNull, err = HasEmbeddedNullPage(withNull)
	require.NoError(t, err)
	assert.True(t, hasNull)
}
