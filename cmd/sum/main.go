// Command sum appends the integers 0 through 99 to an accumulator and prints their sum
package main

import (
	"context"
	"io"
	"os"

	"github.com/najoast/sumgo/bootstrap"
	"github.com/najoast/sumgo/config"
)

func main() {
	os.Exit(run(context.Background(), os.Stdout, os.Stderr))
}

// run takes no flags or environment; it always uses the default configuration
func run(ctx context.Context, stdout, stderr io.Writer) int {
	cfg := config.DefaultConfig()
	logger := bootstrap.NewWriterLogger(cfg.GetLogLevel(), stderr)

	app, err := bootstrap.NewApplication(cfg, stdout, logger)
	if err != nil {
		logger.Errorf("Failed to create application: %v", err)
		return 1
	}

	if _, err := app.Run(ctx); err != nil {
		logger.Errorf("Run failed: %v", err)
		return 1
	}

	return 0
}
