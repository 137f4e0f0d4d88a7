// Command null_diff compares two files for null-equivalence.
//
// Plain mode exits 0 if the files are null-equivalent, 1 on a terminal
// content mismatch, 2 on a usage error, -2 if the files share no data
// block, -3 on an access/type error, or -4 on a mapping failure.
//
// With -g (show greatest) or -s (check subset), the exit code becomes a
// bitmask (SUBSET_1=1, SUBSET_2=2, GREATEST_1=4, GREATEST_2=8); the
// negative error codes above still apply, except a content mismatch is -1
// instead of 1.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/nulldiff/internal/cli"
	"github.com/slok/nulldiff/internal/nderrors"
	"github.com/slok/nulldiff/internal/nullequiv"
	"github.com/slok/nulldiff/internal/sparsefile"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr *os.File) int {
	app := kingpin.New("null_diff", "Compares two files, treating runs of NUL bytes as indifferent.")
	debug := app.Flag("debug", "Enable debug logging.").Bool()
	noLog := app.Flag("no-log", "Disable logging entirely, even warnings.").Bool()
	showGreatest := app.Flag("show-greatest", "Report which file has more non-zero data.").Short('g').Bool()
	checkSubset := app.Flag("check-subset", "Report whether either file is a null-subset of the other.").Short('s').Bool()
	path1 := app.Arg("file1", "Path to the first file.").Required().String()
	path2 := app.Arg("file2", "Path to the second file.").Required().String()

	accounting := false
	for _, a := range args {
		if a == "-g" || a == "-s" || a == "--show-greatest" || a == "--check-subset" {
			accounting = true
		}
	}

	codes := nderrors.ExitCodes{
		Usage:        2,
		Access:       -3,
		Mapping:      -4,
		NoSharedData: -2,
		Unknown:      2,
	}
	if accounting {
		codes.Mismatch = -1
	} else {
		codes.Mismatch = 1
	}

	if _, err := app.Parse(args); err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", err)
		return codes.Usage
	}

	logger := cli.NewLogger(stderr, *debug, *noLog)

	v1, err := sparsefile.Open(sparsefile.Config{Path: *path1, Logger: logger})
	if err != nil {
		return cli.Fail(stderr, err, codes)
	}
	defer v1.Close()

	v2, err := sparsefile.Open(sparsefile.Config{Path: *path2, Logger: logger})
	if err != nil {
		return cli.Fail(stderr, err, codes)
	}
	defer v2.Close()

	var res nullequiv.Result
	err = cli.RunWithSignals(func(ctx context.Context) error {
		var err error
		res, err = nullequiv.Compare(ctx, v1, v2, nullequiv.Options{
			ShowGreatest: *showGreatest,
			CheckSubset:  *checkSubset,
		})
		return err
	})
	if err != nil {
		return cli.Fail(stderr, err, codes)
	}

	if !accounting {
		fmt.Fprintln(stdout, "Files are the same, possibly excluding null bytes.")
		return 0
	}
	return res.RetCode
}
