package nulldiff_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/slok/nulldiff/pkg/lib/nulldiff"
)

// This example shows comparing two files that differ only in their trailing
// null padding: Compare treats them as null-equivalent.
func Example_compare() {
	dir, err := os.MkdirTemp("", "nulldiff-example-compare-*")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(dir)

	path1 := filepath.Join(dir, "a.img")
	path2 := filepath.Join(dir, "b.img")

	// a.img has real data followed by an explicit hole.
	if err := os.WriteFile(path1, []byte("hello"), 0o644); err != nil {
		panic(err)
	}
	if err := os.Truncate(path1, 8192); err != nil {
		panic(err)
	}

	// b.img has the same data but is shorter: its tail is implicitly zero.
	if err := os.WriteFile(path2, []byte("hello"), 0o644); err != nil {
		panic(err)
	}

	client, err := nulldiff.New(nulldiff.Config{})
	if err != nil {
		panic(err)
	}

	res, err := client.Compare(context.Background(), path1, path2, nulldiff.CompareOptions{
		CheckSubset:  true,
		ShowGreatest: true,
	})
	if err != nil {
		panic(err)
	}

	fmt.Printf("subset2=%v greatest1=%v\n", res.Subset2, res.Greatest1)

	// Output:
	// subset2=true greatest1=false
}

// This example shows merging two files that each hold non-zero data at
// different offsets, into one file with both.
func Example_combine() {
	dir, err := os.MkdirTemp("", "nulldiff-example-combine-*")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(dir)

	path1 := filepath.Join(dir, "a.img")
	path2 := filepath.Join(dir, "b.img")

	f1, err := os.Create(path1)
	if err != nil {
		panic(err)
	}
	if _, err := f1.WriteAt([]byte("left"), 0); err != nil {
		panic(err)
	}
	if err := f1.Truncate(16); err != nil {
		panic(err)
	}
	f1.Close()

	f2, err := os.Create(path2)
	if err != nil {
		panic(err)
	}
	if _, err := f2.WriteAt([]byte("right"), 8); err != nil {
		panic(err)
	}
	f2.Close()

	client, err := nulldiff.New(nulldiff.Config{})
	if err != nil {
		panic(err)
	}

	var out bytes.Buffer
	if err := client.Combine(context.Background(), &out, path1, path2, nulldiff.PreferNone); err != nil {
		panic(err)
	}

	fmt.Printf("%q\n", bytes.TrimRight(out.Bytes(), "\x00"))

	// Output:
	// "left\x00\x00\x00\x00right"
}

// This example shows checking a file for holes.
func Example_holes() {
	dir, err := os.MkdirTemp("", "nulldiff-example-holes-*")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "sparse.img")

	f, err := os.Create(path)
	if err != nil {
		panic(err)
	}
	if _, err := f.WriteAt([]byte("data"), 0); err != nil {
		panic(err)
	}
	if err := f.Truncate(1 << 20); err != nil {
		panic(err)
	}
	f.Close()

	client, err := nulldiff.New(nulldiff.Config{})
	if err != nil {
		panic(err)
	}

	hasHole, err := client.HasHole(path)
	if err != nil {
		panic(err)
	}

	fmt.Printf("hasHole=%v\n", hasHole)

	// Output:
	// hasHole=true
}
