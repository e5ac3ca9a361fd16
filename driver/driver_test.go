package driver

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/najoast/sumgo/accumulator"
	"github.com/najoast/sumgo/config"
)

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestRun(t *testing.T) {
	var out bytes.Buffer

	total, err := Run(context.Background(), config.DefaultConfig(), &out)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if total != 4950 {
		t.Errorf("Expected total 4950, got %v", total)
	}
	if out.String() != "Sum: 4950\n" {
		t.Errorf("Expected output %q, got %q", "Sum: 4950\n", out.String())
	}
}

func TestRunCustomRange(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Accumulator = config.AccumulatorConfig{Name: "negatives", Start: -10, Count: 5}
	cfg.Report.Label = "Total"

	var out bytes.Buffer
	total, err := Run(context.Background(), cfg, &out)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// -10 + -9 + -8 + -7 + -6
	if total != -40 {
		t.Errorf("Expected total -40, got %v", total)
	}
	if out.String() != "Total: -40\n" {
		t.Errorf("Unexpected output %q", out.String())
	}
}

func TestRunEmptyRange(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Accumulator.Count = 0

	var out bytes.Buffer
	if _, err := Run(context.Background(), cfg, &out); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out.String() != "Sum: 0\n" {
		t.Errorf("Expected %q, got %q", "Sum: 0\n", out.String())
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	_, err := Run(ctx, config.DefaultConfig(), &out)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("Expected no output after cancellation, got %q", out.String())
	}
}

func TestRunWriteError(t *testing.T) {
	total, err := Run(context.Background(), config.DefaultConfig(), failingWriter{})
	if err == nil {
		t.Fatal("Expected write error")
	}
	if total != 4950 {
		t.Errorf("Expected total 4950 alongside write error, got %v", total)
	}
}

func TestFill(t *testing.T) {
	acc := accumulator.New("fill")
	if err := Fill(context.Background(), acc, config.AccumulatorConfig{Start: 0, Count: 100}); err != nil {
		t.Fatalf("Fill failed: %v", err)
	}

	values := acc.Values()
	if len(values) != 100 || values[0] != 0 || values[99] != 99 {
		t.Errorf("Expected 0..99 in order, got %d values", len(values))
	}

	acc.Append(-5)
	if acc.Total() != 4945 {
		t.Errorf("Expected 4945 after appending -5, got %v", acc.Total())
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		label string
		total float64
		want  string
	}{
		{"Sum", 4950, "Sum: 4950"},
		{"Sum", 0, "Sum: 0"},
		{"Sum", -5, "Sum: -5"},
		{"Mean", 2.5, "Mean: 2.5"},
	}

	for _, tt := range tests {
		if got := Format(tt.label, tt.total); got != tt.want {
			t.Errorf("Format(%q, %v) = %q, want %q", tt.label, tt.total, got, tt.want)
		}
	}
}
