// Command stock is the offline-first inventory CLI.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/and161185/stock-keeper/internal/config"
	"github.com/and161185/stock-keeper/internal/errs"
	"github.com/and161185/stock-keeper/internal/logger"
	"github.com/and161185/stock-keeper/internal/remote"
	"github.com/and161185/stock-keeper/internal/repository/sqlite"
	"github.com/and161185/stock-keeper/internal/syncer"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// errUsage marks bad invocations; they exit like validation failures.
var errUsage = errors.New("usage")

const usageText = `stock CLI
Usage:
  stock [-dir config-dir] [-env file] <cmd> [args]

Commands:
  version
  login      -secret <s>                           (saves access key)
  items
  add        -name <n> [-qty N] [-min N] [-category c] [-location l]
             [-price p] [-supplier s] [-barcode b] [-notes t] [-desc d]
  edit       -id <id> [same flags as add]
  rm         -id <id>
  bulk-add   -file <json array> ('-'=stdin)
  take       -id <id> -qty N
  sites
  add-site   -name <n> -address <a> [-desc d] [-inactive]
  use        -item <id> -site <id> -qty N [-notes t]
  usage
  find       <token>
  scan       [-site <id> -qty N]                   (tokens on stdin)
  low
  pending
  sync
  daemon                                           (periodic sync until signalled)
`

// main dispatches subcommands and exits with the resulting code.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// cli carries the wiring shared by subcommands.
type cli struct {
	dir    string
	cfg    *config.Client
	log    *zap.Logger
	store  *sqlite.Store
	coord  *syncer.Coordinator
	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

// run returns 0 on success, 2 on validation or usage failures, 1 otherwise.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("stock", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dir := fs.String("dir", cfgDir(), "config directory")
	envFile := fs.String("env", ".env", "dotenv file (optional)")
	fs.Usage = func() { fmt.Fprint(stderr, usageText) }
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return 2
	}
	cmd, rest := fs.Arg(0), fs.Args()[1:]

	if cmd == "version" {
		fmt.Fprintf(stdout, "stock %s (%s)\n", version, buildDate)
		return 0
	}

	c := &cli{dir: *dir, in: stdin, out: stdout, errOut: stderr}
	err := c.setup(*envFile)
	if err == nil {
		defer c.close()
		err = c.dispatch(ctx, cmd, rest)
	}
	if c.coord != nil && c.coord.RemoteConfigured() && !c.coord.Online() {
		fmt.Fprintln(stderr, "offline: changes are kept locally and synced later")
	}
	return exitCode(stderr, err)
}

func exitCode(stderr io.Writer, err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		fmt.Fprintln(stderr, err)
		return 2
	case errors.Is(err, errs.ErrValidation):
		fmt.Fprintln(stderr, err)
		return 2
	default:
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
}

func (c *cli) setup(envFile string) error {
	cfg, err := config.LoadClient(c.dir, envFile)
	if err != nil {
		return err
	}
	if config.IsPlaceholder(cfg.RemoteKey) {
		if tok, err := loadToken(c.dir); err == nil {
			cfg.RemoteKey = tok
		}
	}
	c.cfg = cfg

	c.log, err = logger.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	c.store = sqlite.New(cfg.DBPath)

	var backend syncer.Backend
	if cfg.RemoteConfigured() {
		backend = remote.New(remote.Config{
			BaseURL: cfg.RemoteURL,
			Key:     cfg.RemoteKey,
			Timeout: cfg.RemoteTimeout,
		}, c.log)
	}
	c.coord = syncer.New(c.store, backend, logger.Named(c.log, "sync"))
	return nil
}

func (c *cli) close() {
	if err := c.store.Close(); err != nil {
		c.log.Warn("close store", zap.Error(err))
	}
	_ = c.log.Sync()
}

func (c *cli) dispatch(ctx context.Context, cmd string, args []string) error {
	// login talks to the remote directly and needs no local state
	if cmd == "login" {
		return c.login(ctx, args)
	}

	cmds := map[string]func(context.Context, []string) error{
		"items":    c.items,
		"add":      c.add,
		"edit":     c.edit,
		"rm":       c.rm,
		"bulk-add": c.bulkAdd,
		"take":     c.take,
		"sites":    c.sites,
		"add-site": c.addSite,
		"use":      c.use,
		"usage":    c.usage,
		"find":     c.find,
		"scan":     c.scan,
		"low":      c.low,
		"pending":  c.pending,
		"sync":     c.sync,
		"daemon":   c.daemon,
	}
	fn, ok := cmds[cmd]
	if !ok {
		fmt.Fprint(c.errOut, usageText)
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
	if err := c.coord.Load(ctx); err != nil {
		return err
	}
	return fn(ctx, args)
}

