// Command has_hole exits 0 if the given file has no hole, 1 if it has one,
// or 2 on an access/usage error.
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

var exitCodes = nderrors.ExitCodes{
	Usage:        2,
	Access:       2,
	Mapping:      2,
	NoSharedData: 2,
	Mismatch:     2,
	Unknown:      2,
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr *os.File) int {
	app := kingpin.New("has_hole", "Reports whether a file has any unallocated (hole) region.")
	debug := app.Flag("debug", "Enable debug logging.").Bool()
	noLog := app.Flag("no-log", "Disable logging entirely, even warnings.").Bool()
	path := app.Arg("file", "Path to the file to inspect.").Required().String()

	if _, err := app.Parse(args); err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", err)
		return exitCodes.Usage
	}

	logger := cli.NewLogger(stderr, *debug, *noLog)

	v, err := sparsefile.Open(sparsefile.Config{Path: *path, Logger: logger})
	if err != nil {
		return cli.Fail(stderr, err, exitCodes)
	}
	defer v.Close()

	var hasHole bool
	err = cli.RunWithSignals(func(ctx context.Context) error {
		var err error
		hasHole, err = nullequiv.HasHole(v)
		return err
	})
	if err != nil {
		return cli.Fail(stderr, err, exitCodes)
	}
	if hasHole {
		return 1
	}
	return 0
}
