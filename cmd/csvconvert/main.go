// Command csvconvert converts delimited text files with named field mappings.
//
//	csvconvert convert -mapping orders -in export.csv -out orders.csv
//	csvconvert serve
//	csvconvert mappings
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/JonMunkholm/csvconvert/internal/config"
	"github.com/JonMunkholm/csvconvert/internal/core"
	"github.com/JonMunkholm/csvconvert/internal/history"
	"github.com/JonMunkholm/csvconvert/internal/logging"
	"github.com/JonMunkholm/csvconvert/internal/mapfile"
	"github.com/joho/godotenv"
)

const usage = `Usage: csvconvert <command> [flags]

Commands:
  convert   convert one file with a mapping
  serve     run the HTTP server
  mappings  list the mappings in the mapping directory

Run "csvconvert <command> -h" for command flags.
`

// errUsage marks command line mistakes; usage has already been printed.
var errUsage = errors.New("usage error")

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	envErr := godotenv.Overload()

	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr, envErr == nil); err != nil {
		if !errors.Is(err, errUsage) && !errors.Is(err, flag.ErrHelp) {
			slog.Error("csvconvert failed", "error", err)
			fmt.Fprintln(os.Stderr, core.FormatUserError(err))
		}
		os.Exit(1)
	}
}

// run dispatches a subcommand. Logs go to stderr except for serve, so that
// convert can write the converted file to stdout.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, envLoaded bool) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return errUsage
	}

	cmd, args := args[0], args[1:]
	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		fmt.Fprint(stdout, usage)
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return err
	}

	logOut := stderr
	if cmd == "serve" {
		logOut = stdout
	}
	logging.Setup(logOut, cfg.Logging.Level, cfg.Logging.Format)

	if envLoaded {
		slog.Debug("loaded .env file (overwriting existing env vars)")
	}

	switch cmd {
	case "convert":
		return runConvert(ctx, cfg, args, stdin, stdout, stderr)
	case "serve":
		return runServe(ctx, cfg, args, stderr)
	case "mappings":
		return runMappings(cfg, args, stdout, stderr)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", cmd, usage)
		return errUsage
	}
}

// newService builds a service with every definition registered.
func newService(cfg *config.Config, store history.Store, defs []*core.Definition) (*core.Service, error) {
	svc := core.NewService(store, core.ServiceConfig{
		MaxConcurrentRuns: cfg.Convert.MaxConcurrent,
		MaxWaitTime:       cfg.Convert.MaxWaitTime,
		RunTimeout:        cfg.Convert.Timeout,
	})
	for _, def := range defs {
		if err := svc.Register(def); err != nil {
			return nil, err
		}
	}
	return svc, nil
}

func newLoader(cfg *config.Config) *mapfile.Loader {
	return mapfile.NewLoader(cfg.Format.Dialect())
}
