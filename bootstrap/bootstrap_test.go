package bootstrap

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/najoast/sumgo/config"
)

var (
	_ LifecycleManager   = (*DefaultLifecycleManager)(nil)
	_ config.ErrorLogger = (*Logger)(nil)
)

// TestService is a test implementation of Service
type TestService struct {
	name     string
	started  bool
	stopped  bool
	startErr error
	order    *[]string
	mu       sync.Mutex
}

func (s *TestService) Name() string {
	return s.name
}

func (s *TestService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.startErr != nil {
		return s.startErr
	}
	s.started = true
	if s.order != nil {
		*s.order = append(*s.order, "start:"+s.name)
	}
	return nil
}

func (s *TestService) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	if s.order != nil {
		*s.order = append(*s.order, "stop:"+s.name)
	}
	return nil
}

func (s *TestService) Health(ctx context.Context) (HealthStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started && !s.stopped {
		return HealthStatus{State: HealthHealthy, Message: "Test service running"}, nil
	}
	return HealthStatus{State: HealthStopped}, nil
}

func TestLifecycleManager(t *testing.T) {
	lm := NewLifecycleManager()
	testService := &TestService{name: "test"}

	if err := lm.Register("test", testService); err != nil {
		t.Fatalf("Failed to register service: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := lm.Start(ctx); err != nil {
		t.Fatalf("Failed to start services: %v", err)
	}
	if !testService.started {
		t.Error("Test service should be started")
	}
	if err := lm.Start(ctx); err == nil {
		t.Error("Second Start should fail while running")
	}

	health, err := lm.Health(ctx)
	if err != nil {
		t.Fatalf("Failed to get health status: %v", err)
	}
	if health["test"].State != HealthHealthy {
		t.Errorf("Expected healthy state, got %v", health["test"].State)
	}
	if health["test"].LastCheck.IsZero() {
		t.Error("Expected LastCheck to be set")
	}

	if err := lm.Stop(ctx); err != nil {
		t.Fatalf("Failed to stop services: %v", err)
	}
	if !testService.stopped {
		t.Error("Test service should be stopped")
	}
}

func TestLifecycleDependencyOrder(t *testing.T) {
	lm := NewLifecycleManager()
	var order []string

	// Registered out of dependency order on purpose
	lm.Register("c", &TestService{name: "c", order: &order}, "b")
	lm.Register("b", &TestService{name: "b", order: &order}, "a")
	lm.Register("a", &TestService{name: "a", order: &order})

	ctx := context.Background()
	if err := lm.Start(ctx); err != nil {
		t.Fatalf("Failed to start services: %v", err)
	}
	if err := lm.Stop(ctx); err != nil {
		t.Fatalf("Failed to stop services: %v", err)
	}

	want := "start:a,start:b,start:c,stop:c,stop:b,stop:a"
	if got := strings.Join(order, ","); got != want {
		t.Errorf("Expected order %s, got %s", want, got)
	}
}

func TestLifecycleRegisterErrors(t *testing.T) {
	lm := NewLifecycleManager()

	if err := lm.Register("", &TestService{}); err == nil {
		t.Error("Expected error for empty name")
	}
	if err := lm.Register("nil", nil); err == nil {
		t.Error("Expected error for nil service")
	}
	lm.Register("dup", &TestService{name: "dup"})
	if err := lm.Register("dup", &TestService{name: "dup"}); err == nil {
		t.Error("Expected error for duplicate registration")
	}
}

func TestLifecycleCircularDependency(t *testing.T) {
	lm := NewLifecycleManager()
	lm.Register("a", &TestService{name: "a"}, "b")
	lm.Register("b", &TestService{name: "b"}, "a")

	err := lm.Start(context.Background())
	if err == nil || !strings.Contains(err.Error(), "circular dependency") {
		t.Errorf("Expected circular dependency error, got %v", err)
	}
}

func TestLifecycleMissingDependency(t *testing.T) {
	lm := NewLifecycleManager()
	lm.Register("a", &TestService{name: "a"}, "ghost")

	if err := lm.Start(context.Background()); err == nil {
		t.Error("Expected error for unregistered dependency")
	}
}

func TestLifecycleStartFailureRollsBack(t *testing.T) {
	lm := NewLifecycleManager()
	first := &TestService{name: "first"}
	boom := errors.New("boom")
	lm.Register("first", first)
	lm.Register("second", &TestService{name: "second", startErr: boom}, "first")

	var events []string
	lm.AddListener(func(event LifecycleEvent) {
		events = append(events, event.Type+":"+event.Service)
	})

	err := lm.Start(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("Expected start error wrapping boom, got %v", err)
	}

	var appErr *ApplicationError
	if !errors.As(err, &appErr) || appErr.Service != "second" {
		t.Errorf("Expected ApplicationError for service second, got %v", err)
	}
	if !first.stopped {
		t.Error("Already started service should be stopped after a start failure")
	}
	// Nothing is running after the rollback, so registration is open again
	if err := lm.Register("third", &TestService{name: "third"}); err != nil {
		t.Errorf("Register after failed start: %v", err)
	}

	joined := strings.Join(events, ",")
	if !strings.Contains(joined, EventServiceStartFailed+":second") {
		t.Errorf("Expected start failure event, got %s", joined)
	}
}

func TestApplicationRun(t *testing.T) {
	var out bytes.Buffer
	app, err := NewApplication(config.DefaultConfig(), &out, nil)
	if err != nil {
		t.Fatalf("Failed to create application: %v", err)
	}

	total, err := app.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if total != 4950 {
		t.Errorf("Expected total 4950, got %v", total)
	}
	if out.String() != "Sum: 4950\n" {
		t.Errorf("Expected output %q, got %q", "Sum: 4950\n", out.String())
	}

	health, err := app.LifecycleManager().Health(context.Background())
	if err != nil {
		t.Fatalf("Failed to get health: %v", err)
	}
	if health[SummerServiceName].State != HealthStopped {
		t.Errorf("Expected summer stopped after run, got %v", health[SummerServiceName].State)
	}
	if health[SummerServiceName].Data["total"] != float64(4950) {
		t.Errorf("Expected total 4950 in health data, got %v", health[SummerServiceName].Data["total"])
	}
}

func TestApplicationRerunWithNewConfig(t *testing.T) {
	var out bytes.Buffer
	app, err := NewApplication(config.DefaultConfig(), &out, nil)
	if err != nil {
		t.Fatalf("Failed to create application: %v", err)
	}

	if _, err := app.Run(context.Background()); err != nil {
		t.Fatalf("First run failed: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.Accumulator.Count = 4
	if err := app.Configure(cfg); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}

	total, err := app.Run(context.Background())
	if err != nil {
		t.Fatalf("Second run failed: %v", err)
	}
	if total != 6 {
		t.Errorf("Expected total 6, got %v", total)
	}
	if out.String() != "Sum: 4950\nSum: 6\n" {
		t.Errorf("Unexpected output %q", out.String())
	}
}

func TestApplicationInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Report.Label = ""

	var out bytes.Buffer
	app, err := NewApplication(cfg, &out, nil)
	if err != nil {
		t.Fatalf("Failed to create application: %v", err)
	}

	_, err = app.Run(context.Background())
	if !errors.Is(err, config.ErrInvalidReportLabel) {
		t.Errorf("Expected ErrInvalidReportLabel, got %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("Expected no output, got %q", out.String())
	}

	if _, err := NewApplication(nil, &out, nil); err == nil {
		t.Error("Expected error for nil configuration")
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(config.LogLevelWarn, &buf)

	logger.Infof("hidden %d", 1)
	logger.Warnf("shown %d", 2)
	logger.Errorf("shown %d", 3)

	got := buf.String()
	if strings.Contains(got, "hidden") {
		t.Errorf("Info message should be filtered at warn level: %q", got)
	}
	if !strings.Contains(got, "[warn] shown 2") || !strings.Contains(got, "[error] shown 3") {
		t.Errorf("Expected warn and error messages, got %q", got)
	}
}

func TestLoggerAsWatcherLogger(t *testing.T) {
	var buf bytes.Buffer
	var logger config.ErrorLogger = NewWriterLogger(config.LogLevelError, &buf)

	logger.Errorf("Failed to reload config %s: %v", "sumgo.yaml", "bad yaml")

	if !strings.Contains(buf.String(), "[error] Failed to reload config sumgo.yaml: bad yaml") {
		t.Errorf("Expected error-level line, got %q", buf.String())
	}

	var quiet bytes.Buffer
	logger = NewWriterLogger(config.LogLevelFatal, &quiet)
	logger.Errorf("dropped")
	if quiet.Len() != 0 {
		t.Errorf("Errorf should be gated by level, got %q", quiet.String())
	}
}

func TestLoggerFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sumgo.log")

	logger, err := NewLogger(config.LogLevelDebug, path)
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	logger.Debugf("written")
	if err := logger.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}
