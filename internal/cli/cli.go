// Package cli holds the scaffolding shared by the four command-line tools:
// logger construction, signal wiring around the otherwise-synchronous
// engine call, and the final exit-code mapping.
package cli

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/oklog/run"
	"github.com/sirupsen/logrus"

	"github.com/slok/nulldiff/internal/log"
	loglogrus "github.com/slok/nulldiff/internal/log/logrus"
	"github.com/slok/nulldiff/internal/nderrors"
)

// NewLogger returns a Logger writing to stderr (so it never shares a stream
// with null_combine's stdout byte output). noLog short-circuits to log.Noop
// before any logrus setup, the same way getLogger does for sbx's --no-log
// flag. Among the engine packages only sparsefile.Open logs: a warning when
// its MADV_DONTDUMP advice fails, and a Debugf line for a sparse file, which
// a tool enables with --debug.
func NewLogger(stderr io.Writer, debug, noLog bool) log.Logger {
	if noLog {
		return log.Noop
	}

	base := logrus.New()
	base.Out = stderr
	entry := logrus.NewEntry(base)
	if debug {
		entry.Logger.SetLevel(logrus.DebugLevel)
	}
	return loglogrus.NewLogrus(entry)
}

// RunWithSignals wires SIGINT/SIGTERM into ctx and runs fn. A signal only
// cancels ctx: Run returns once fn itself has returned, so the signal takes
// effect at fn's next ctx check (nullequiv.Compare checks between data
// extents, combiner.Combine between blocks). A fn that never checks ctx
// runs to completion.
func RunWithSignals(fn func(ctx context.Context) error) error {
	var g run.Group

	signalCtx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()
	g.Add(
		func() error {
			<-signalCtx.Done()
			return signalCtx.Err()
		},
		func(error) { cancel() },
	)

	ctx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()
	g.Add(
		func() error { return fn(ctx) },
		func(error) { cancelRun() },
	)

	return g.Run()
}

// Fail prints err to stderr (the offending path or byte offset is already
// embedded in the error by the caller) and returns the process exit code
// named by codes.
func Fail(stderr io.Writer, err error, codes nderrors.ExitCodes) int {
	if err == nil {
		return 0
	}
	fmt.Fprintf(stderr, "Error: %s\n", err)
	return nderrors.Classify(err, codes)
}
