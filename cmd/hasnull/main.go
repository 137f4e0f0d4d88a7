// Command has_null exits 0 if the given file has no embedded all-zero
// allocated page, 1 if it has one, or -1 on an access/usage error.
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
	Usage:        -1,
	Access:       -1,
	Mapping:      -1,
	NoSharedData: -1,
	Mismatch:     -1,
	Unknown:      -1,
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr *os.File) int {
	app := kingpin.New("has_null", "Reports whether a file has an allocated page that is entirely zero.")
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

	var hasNull bool
	err = cli.RunWithSignals(func(ctx context.Context) error {
		var err error
		hasNull, err = nullequiv.HasEmbeddedNullPage(v)
		return err
	})
	if err != nil {
		return cli.Fail(stderr, err, exitCodes)
	}
	if hasNull {
		return 1
	}
	return 0
}
