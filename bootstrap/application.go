// Package bootstrap provides application implementation
package bootstrap

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/najoast/sumgo/config"
	"github.com/najoast/sumgo/driver"
)

// Service names registered by the application
const (
	ConfigServiceName = "config"
	SummerServiceName = "summer"
)

// Application runs the driver as a managed service
type Application struct {
	// config holds the application configuration
	config *config.Config

	// out receives the report line
	out io.Writer

	// logger for lifecycle and run messages
	logger *Logger

	// lifecycle manages service start and stop order
	lifecycle *DefaultLifecycleManager

	// summer runs the driver
	summer *SummerService

	// mutex protects concurrent access
	mutex sync.Mutex

	// running indicates if the application is running
	running bool
}

// NewApplication creates an application writing its report to out
func NewApplication(cfg *config.Config, out io.Writer, logger *Logger) (*Application, error) {
	if logger == nil {
		logger = NewWriterLogger(config.LogLevelFatal, io.Discard)
	}

	app := &Application{
		out:       out,
		logger:    logger,
		lifecycle: NewLifecycleManager(),
	}
	if err := app.Configure(cfg); err != nil {
		return nil, err
	}

	app.lifecycle.AddListener(func(event LifecycleEvent) {
		if event.Error != nil {
			logger.Errorf("%s %s: %v", event.Type, event.Service, event.Error)
			return
		}
		logger.Debugf("%s %s", event.Type, event.Service)
	})

	app.summer = &SummerService{app: app}
	if err := app.lifecycle.Register(ConfigServiceName, &ConfigService{app: app}); err != nil {
		return nil, err
	}
	if err := app.lifecycle.Register(SummerServiceName, app.summer, ConfigServiceName); err != nil {
		return nil, err
	}

	return app, nil
}

// Configure replaces the configuration; not allowed while running
func (app *Application) Configure(cfg *config.Config) error {
	if cfg == nil {
		return &ApplicationError{Operation: "configure", Err: fmt.Errorf("configuration is nil")}
	}

	app.mutex.Lock()
	defer app.mutex.Unlock()

	if app.running {
		return &ApplicationError{Operation: "configure", Err: fmt.Errorf("application is running")}
	}

	app.config = cfg
	return nil
}

// Config returns the current configuration
func (app *Application) Config() *config.Config {
	app.mutex.Lock()
	defer app.mutex.Unlock()
	return app.config
}

// LifecycleManager returns the lifecycle manager
func (app *Application) LifecycleManager() LifecycleManager {
	return app.lifecycle
}

// Run starts all services, which runs the driver once, then stops them.
// It returns the computed total.
func (app *Application) Run(ctx context.Context) (float64, error) {
	app.mutex.Lock()
	if app.running {
		app.mutex.Unlock()
		return 0, &ApplicationError{Operation: "run", Err: fmt.Errorf("application is already running")}
	}
	app.running = true
	app.mutex.Unlock()

	defer func() {
		app.mutex.Lock()
		app.running = false
		app.mutex.Unlock()
	}()

	if err := app.lifecycle.Start(ctx); err != nil {
		return 0, err
	}

	total := app.summer.Total()

	if err := app.lifecycle.Stop(ctx); err != nil {
		return total, err
	}

	return total, nil
}

// ConfigService validates the configuration before anything else starts
type ConfigService struct {
	app *Application
}

func (s *ConfigService) Name() string {
	return ConfigServiceName
}

func (s *ConfigService) Start(ctx context.Context) error {
	return s.app.config.Validate()
}

func (s *ConfigService) Stop(ctx context.Context) error {
	return nil
}

func (s *ConfigService) Health(ctx context.Context) (HealthStatus, error) {
	if err := s.app.config.Validate(); err != nil {
		return HealthStatus{State: HealthUnhealthy, Message: err.Error()}, nil
	}
	return HealthStatus{
		State:   HealthHealthy,
		Message: "Configuration valid",
		Data: map[string]interface{}{
			"app":         s.app.config.App.Name,
			"environment": s.app.config.App.Environment.String(),
		},
	}, nil
}

// SummerService runs the driver when started
type SummerService struct {
	app *Application

	mutex sync.RWMutex
	state HealthState
	total float64
	err   error
}

func (s *SummerService) Name() string {
	return SummerServiceName
}

func (s *SummerService) Start(ctx context.Context) error {
	s.setState(HealthStarting)

	cfg := s.app.config
	s.app.logger.Infof("accumulating %s over %d..%d", cfg.Accumulator.Name, cfg.Accumulator.Start, cfg.Accumulator.End())

	total, err := driver.Run(ctx, cfg, s.app.out)

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.total, s.err = total, err
	if err != nil {
		s.state = HealthUnhealthy
		return err
	}
	s.state = HealthHealthy
	s.app.logger.Infof("%s total %v", cfg.Accumulator.Name, total)
	return nil
}

func (s *SummerService) Stop(ctx context.Context) error {
	s.setState(HealthStopped)
	return nil
}

func (s *SummerService) Health(ctx context.Context) (HealthStatus, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	status := HealthStatus{State: s.state, Data: map[string]interface{}{"total": s.total}}
	if status.State == "" {
		status.State = HealthUnknown
	}
	if s.err != nil {
		status.Message = s.err.Error()
	}
	return status, nil
}

// Total returns the total computed by the last start
func (s *SummerService) Total() float64 {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.total
}

func (s *SummerService) setState(state HealthState) {
	s.mutex.Lock()
	s.state = state
	s.mutex.Unlock()
}
