package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexjbarnes/postmatter/internal/config"
	"github.com/alexjbarnes/postmatter/internal/logging"
	"github.com/alexjbarnes/postmatter/internal/site"
)

var Version = "dev"

const usage = `usage: postmatter <command> [flags] [args]

commands:
  check [dir]            validate the front matter of every post
  index [-drafts] [dir]  print post metadata as JSON
  fmt [-w] [-d] file...  rewrite front matter in canonical form;
                         YAML comments in the front matter are dropped
  serve                  serve the post index over MCP
  version                print the version
`

// errChecksFailed signals a non-zero exit after output was already
// written, so main should not print it again.
var errChecksFailed = errors.New("checks failed")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	if err == nil {
		return
	}
	if !errors.Is(err, errChecksFailed) && !errors.Is(err, flag.ErrHelp) {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	os.Exit(1)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return flag.ErrHelp
	}

	cmd, args := args[0], args[1:]
	switch cmd {
	case "check":
		return runCheck(ctx, args, stdout, stderr)
	case "index":
		return runIndex(ctx, args, stdout, stderr)
	case "fmt":
		return runFmt(args, stdout, stderr)
	case "serve":
		return runServe(ctx, args, stderr)
	case "version":
		fmt.Fprintln(stdout, Version)
		return nil
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		fmt.Fprint(stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// setup loads config, applies the optional directory argument and
// builds the site index.
func setup(ctx context.Context, fs *flag.FlagSet, stderr io.Writer) (*config.Config, *slog.Logger, *site.Site, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading config: %w", err)
	}

	if fs.NArg() > 1 {
		return nil, nil, nil, fmt.Errorf("%s takes at most one directory argument", fs.Name())
	}
	if fs.NArg() == 1 {
		if err := cfg.SetContentDir(fs.Arg(0)); err != nil {
			return nil, nil, nil, err
		}
	}

	logger := logging.New(stderr, cfg.Environment, cfg.LogLevel)

	s, err := site.New(ctx, cfg.ContentDir,
		site.WithExtensions(cfg.Extensions...),
		site.WithConcurrency(cfg.Concurrency),
		site.WithLogger(logger),
	)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening content dir: %w", err)
	}

	return cfg, logger, s, nil
}
