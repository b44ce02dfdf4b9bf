// Command import-stops upserts the stop features of a GeoJSON export into the
// configured store.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"haydigo.org/geoingest/internal/app"
	"haydigo.org/geoingest/internal/appconf"
	"haydigo.org/geoingest/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var importFlags app.ImportFlags
	flags := flag.NewFlagSet("import-stops", flag.ContinueOnError)
	flags.SetOutput(stderr)
	importFlags.Register(flags)
	flags.Usage = func() {
		fmt.Fprintln(stderr, "usage: import-stops [flags] [file]")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return app.ExitUsage
	}

	cfg, err := appconf.Load(importFlags.ConfigPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return app.ExitError
	}
	importFlags.Apply(&cfg, &cfg.Stops.ImportConfig)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(stderr, err)
		return app.ExitError
	}

	path := cfg.Stops.File
	if flags.NArg() > 0 {
		path = flags.Arg(0)
	}

	logger := logging.NewStructuredLogger(stdout, cfg.SlogLevel())
	return app.RunImport(ctx, cfg, logger, path, (*app.Application).ImportStops)
}
