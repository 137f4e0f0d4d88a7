// Command null_combine merges two files on standard output, taking the
// non-zero byte at each offset and preserving sparseness when the output is
// seekable. Exit 0 on success, 1 otherwise.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/nulldiff/internal/cli"
	"github.com/slok/nulldiff/internal/combiner"
	"github.com/slok/nulldiff/internal/nderrors"
	"github.com/slok/nulldiff/internal/sparsefile"
)

var exitCodes = nderrors.ExitCodes{
	Usage:        1,
	Access:       1,
	Mapping:      1,
	NoSharedData: 1,
	Mismatch:     1,
	Unknown:      1,
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr *os.File) int {
	app := kingpin.New("null_combine", "Merges two files, preferring non-zero bytes, onto standard output.")
	debug := app.Flag("debug", "Enable debug logging.").Bool()
	noLog := app.Flag("no-log", "Disable logging entirely, even warnings.").Bool()
	preferFirst := app.Flag("prefer-first", "On a two-sided mismatch, keep the first file's byte.").Short('1').Bool()
	preferSecond := app.Flag("prefer-second", "On a two-sided mismatch, keep the second file's byte.").Short('2').Bool()
	path1 := app.Arg("file1", "Path to the first file.").Required().String()
	path2 := app.Arg("file2", "Path to the second file.").Required().String()

	if _, err := app.Parse(args); err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", err)
		return exitCodes.Usage
	}
	if *preferFirst && *preferSecond {
		fmt.Fprintln(stderr, "Error: -1 and -2 are mutually exclusive")
		return exitCodes.Usage
	}

	prefer := combiner.PreferNone
	switch {
	case *preferFirst:
		prefer = combiner.PreferFirst
	case *preferSecond:
		prefer = combiner.PreferSecond
	}

	logger := cli.NewLogger(stderr, *debug, *noLog)

	v1, err := sparsefile.Open(sparsefile.Config{Path: *path1, Logger: logger})
	if err != nil {
		return cli.Fail(stderr, err, exitCodes)
	}
	defer v1.Close()

	v2, err := sparsefile.Open(sparsefile.Config{Path: *path2, Logger: logger})
	if err != nil {
		return cli.Fail(stderr, err, exitCodes)
	}
	defer v2.Close()

	err = cli.RunWithSignals(func(ctx context.Context) error {
		return combiner.Combine(ctx, stdout, v1, v2, prefer)
	})
	if err != nil {
		return cli.Fail(stderr, err, exitCodes)
	}
	return 0
}
