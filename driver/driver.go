// Package driver builds an accumulator over an integer range and reports its total
package driver

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/najoast/sumgo/accumulator"
	"github.com/najoast/sumgo/config"
)

// Format returns the report line for total, e.g. "Sum: 4950"
func Format(label string, total float64) string {
	return label + ": " + strconv.FormatFloat(total, 'f', -1, 64)
}

// Fill appends cfg.Count consecutive integers starting at cfg.Start to s.
// The context is checked before each append.
func Fill(ctx context.Context, s accumulator.Summer, cfg config.AccumulatorConfig) error {
	for i := 0; i < cfg.Count; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.Append(float64(cfg.Start + i))
	}
	return nil
}

// Run creates the configured accumulator, fills it, and writes one report line to w
func Run(ctx context.Context, cfg *config.Config, w io.Writer) (float64, error) {
	acc := accumulator.New(cfg.Accumulator.Name)

	if err := Fill(ctx, acc, cfg.Accumulator); err != nil {
		return 0, fmt.Errorf("fill accumulator %s: %w", acc.Name(), err)
	}

	total := acc.Total()
	if _, err := fmt.Fprintln(w, Format(cfg.Report.Label, total)); err != nil {
		return total, fmt.Errorf("write report: %w", err)
	}

	return total, nil
}
