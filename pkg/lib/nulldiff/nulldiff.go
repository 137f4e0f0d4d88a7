// Package nulldiff provides a Go SDK for null-equivalence comparison and
// merging of sparse regular files.
//
// It wraps the same engine the has_hole, has_null, null_diff and
// null_combine command-line tools use, for applications that want to
// compare or merge files without shelling out to a binary.
//
// # Quick start
//
//	client, err := nulldiff.New(nulldiff.Config{})
//	res, err := client.Compare(ctx, "a.img", "b.img", nulldiff.CompareOptions{
//	    CheckSubset:  true,
//	    ShowGreatest: true,
//	})
//
// # Error handling
//
// Every method returns errors inspectable with [errors.Is] against the
// sentinels in the internal error taxonomy (access failure, mapping
// failure, no shared data, content mismatch); callers that need a process
// exit code can reuse the same classification the CLI tools do.
package nulldiff

import (
	"context"
	"fmt"
	"io"

	"github.com/slok/nulldiff/internal/combiner"
	"github.com/slok/nulldiff/internal/nullequiv"
	"github.com/slok/nulldiff/internal/sparsefile"
	"github.com/slok/nulldiff/pkg/lib/log"
)

// Logger receives structured log output from the SDK. Default: noop.
type Logger = log.Logger

// Prefer selects which file wins a genuine two-sided byte mismatch during
// Combine. The zero value, PreferNone, fails the combine instead.
type Prefer = combiner.Prefer

// Preference values for Combine.
const (
	PreferNone   = combiner.PreferNone
	PreferFirst  = combiner.PreferFirst
	PreferSecond = combiner.PreferSecond
)

// Config configures the SDK client.
//
// The zero value Config{} is valid: it runs with a noop logger.
type Config struct {
	// Logger receives structured log output from the SDK.
	// Default: noop (silent).
	Logger Logger
}

func (c *Config) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	return nil
}

// Client is the SDK entry point for comparing and merging sparse files.
//
// Create a Client with [New]. A Client is safe for concurrent use; it holds
// no state of its own beyond its configured logger.
type Client struct {
	logger Logger
}

// New creates a Client from cfg.
func New(cfg Config) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Client{logger: cfg.Logger}, nil
}

// CompareOptions selects which accounting Compare performs.
type CompareOptions struct {
	// ShowGreatest enables the Greatest1/Greatest2 result fields.
	ShowGreatest bool
	// CheckSubset enables the Subset1/Subset2 result fields.
	CheckSubset bool
}

// CompareResult is the accounting outcome of a successful Compare; a field
// is meaningful only when the corresponding CompareOptions flag was set.
type CompareResult struct {
	Subset1   bool
	Subset2   bool
	Greatest1 bool
	Greatest2 bool
}

// Compare reports whether path1 and path2 are null-equivalent (every byte
// they both cover is either equal or zero on at least one side), along
// with subset and greatest-data-size accounting.
//
// ctx is checked between data extents, so a cancellation lands promptly on
// a large pair of files instead of only once Compare has already returned.
//
// A terminal content mismatch or an empty intersection of data extents is
// returned as an error.
func (c *Client) Compare(ctx context.Context, path1, path2 string, opts CompareOptions) (CompareResult, error) {
	v1, err := sparsefile.Open(sparsefile.Config{Path: path1, Logger: c.logger})
	if err != nil {
		return CompareResult{}, err
	}
	defer v1.Close()

	v2, err := sparsefile.Open(sparsefile.Config{Path: path2, Logger: c.logger})
	if err != nil {
		return CompareResult{}, err
	}
	defer v2.Close()

	res, err := nullequiv.Compare(ctx, v1, v2, nullequiv.Options{
		ShowGreatest: opts.ShowGreatest,
		CheckSubset:  opts.CheckSubset,
	})
	if err != nil {
		return CompareResult{}, err
	}

	return CompareResult{
		Subset1:   res.RetCode&nullequiv.Subset1 != 0,
		Subset2:   res.RetCode&nullequiv.Subset2 != 0,
		Greatest1: res.RetCode&nullequiv.Greatest1 != 0,
		Greatest2: res.RetCode&nullequiv.Greatest2 != 0,
	}, nil
}

// HasHole reports whether path contains any unallocated region.
func (c *Client) HasHole(path string) (bool, error) {
	v, err := sparsefile.Open(sparsefile.Config{Path: path, Logger: c.logger})
	if err != nil {
		return false, err
	}
	defer v.Close()
	return nullequiv.HasHole(v)
}

// HasNull reports whether path contains an allocated page that is entirely
// zero (storage the filesystem could have represented as a hole but
// didn't).
func (c *Client) HasNull(path string) (bool, error) {
	v, err := sparsefile.Open(sparsefile.Config{Path: path, Logger: c.logger})
	if err != nil {
		return false, err
	}
	defer v.Close()
	return nullequiv.HasEmbeddedNullPage(v)
}

// Combine writes the null-merged content of path1 and path2 to w, preferring
// non-zero bytes at every offset. See [Prefer] for the two-sided-mismatch
// policy. ctx is checked periodically so a large combine can be aborted
// before it completes.
func (c *Client) Combine(ctx context.Context, w io.Writer, path1, path2 string, prefer Prefer) error {
	v1, err := sparsefile.Open(sparsefile.Config{Path: path1, Logger: c.logger})
	if err != nil {
		return err
	}
	defer v1.Close()

	v2, err := sparsefile.Open(sparsefile.Config{Path: path2, Logger: c.logger})
	if err != nil {
		return err
	}
	defer v2.Close()

	return combiner.Combine(ctx, w, v1, v2, prefer)
}
