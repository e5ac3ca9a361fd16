// Command sumctl runs the accumulator driver from a configuration file and
// optionally re-runs it whenever that file changes
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
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/najoast/sumgo/bootstrap"
	"github.com/najoast/sumgo/config"
)

type options struct {
	configFile string
	watch      bool
	debounce   time.Duration
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("sumctl", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts options
	fs.StringVar(&opts.configFile, "config", "", "configuration file (yaml or json); auto-discovered when empty")
	fs.BoolVar(&opts.watch, "watch", false, "re-run whenever the configuration file changes")
	fs.DurationVar(&opts.debounce, "debounce", config.DefaultDebounce, "quiet period before reloading a changed file")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := execute(ctx, opts, stdout, stderr); err != nil {
		fmt.Fprintf(stderr, "sumctl: %v\n", err)
		return 1
	}
	return 0
}

func execute(ctx context.Context, opts options, stdout, stderr io.Writer) error {
	if opts.watch && opts.configFile == "" {
		return errors.New("-watch requires -config")
	}

	provider, err := config.NewFileProvider(opts.configFile, config.NewLoader())
	if err != nil {
		return err
	}
	defer provider.Close()

	cfg, err := provider.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger, err := newLogger(cfg, stderr)
	if err != nil {
		return err
	}
	defer logger.Close()

	app, err := bootstrap.NewApplication(cfg, stdout, logger)
	if err != nil {
		return err
	}

	if _, err := app.Run(ctx); err != nil {
		return err
	}

	if !opts.watch {
		return nil
	}

	watcher := provider.Watcher()
	watcher.SetDebounce(opts.debounce)
	watcher.SetLogger(logger)

	changes := make(chan *config.Config, 1)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return provider.Watch(gctx, func(oldConfig, newConfig *config.Config) {
			latest(changes, newConfig)
		})
	})

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case next := <-changes:
				logger.Infof("configuration changed, re-running %s", next.Accumulator.Name)
				if err := app.Configure(next); err != nil {
					return err
				}
				if _, err := app.Run(gctx); err != nil && gctx.Err() == nil {
					logger.Errorf("Run failed: %v", err)
				}
			}
		}
	})

	return g.Wait()
}

// latest replaces any pending configuration in ch with cfg
func latest(ch chan *config.Config, cfg *config.Config) {
	for {
		select {
		case ch <- cfg:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

func newLogger(cfg *config.Config, stderr io.Writer) (*bootstrap.Logger, error) {
	if cfg.Log.Output == "" || cfg.Log.Output == "stderr" {
		return bootstrap.NewWriterLogger(cfg.GetLogLevel(), stderr), nil
	}
	return bootstrap.NewLogger(cfg.GetLogLevel(), cfg.Log.Output)
}
