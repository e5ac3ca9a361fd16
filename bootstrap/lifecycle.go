// Package bootstrap provides service lifecycle management
package bootstrap

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const (
	// serviceTimeout bounds a single Start or Stop call
	serviceTimeout = 30 * time.Second

	// healthTimeout bounds a single Health call
	healthTimeout = 5 * time.Second
)

// entry is a registered service and the services it needs running first
type entry struct {
	service Service
	deps    []string
}

// DefaultLifecycleManager starts services in dependency order and stops them
// in reverse. Listeners run synchronously under the manager lock and must not
// call back into the manager.
type DefaultLifecycleManager struct {
	mutex     sync.Mutex
	entries   map[string]*entry
	names     []string // registration order
	running   []string // start order of currently running services
	listeners []func(LifecycleEvent)
}

// NewLifecycleManager creates an empty lifecycle manager
func NewLifecycleManager() *DefaultLifecycleManager {
	return &DefaultLifecycleManager{
		entries: make(map[string]*entry),
	}
}

// Register adds a service that depends on deps; not allowed while running
func (lm *DefaultLifecycleManager) Register(name string, service Service, deps ...string) error {
	switch {
	case name == "":
		return fmt.Errorf("service name cannot be empty")
	case service == nil:
		return fmt.Errorf("service %s cannot be nil", name)
	}

	lm.mutex.Lock()
	defer lm.mutex.Unlock()

	if lm.running != nil {
		return fmt.Errorf("cannot register service %s while running", name)
	}
	if _, dup := lm.entries[name]; dup {
		return fmt.Errorf("service %s is already registered", name)
	}

	lm.entries[name] = &entry{service: service, deps: deps}
	lm.names = append(lm.names, name)
	lm.emit(EventServiceRegistered, name, nil)
	return nil
}

// Start starts every service after its dependencies. When one fails, the
// services already started are stopped again and the failure is returned as
// an *ApplicationError.
func (lm *DefaultLifecycleManager) Start(ctx context.Context) error {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()

	if lm.running != nil {
		return fmt.Errorf("lifecycle manager already started")
	}

	order, err := lm.order()
	if err != nil {
		return fmt.Errorf("failed to calculate start order: %w", err)
	}

	lm.emit(EventLifecycleStarting, "", nil)
	lm.running = make([]string, 0, len(order))

	for _, name := range order {
		lm.emit(EventServiceStarting, name, nil)

		startCtx, cancel := context.WithTimeout(ctx, serviceTimeout)
		err := lm.entries[name].service.Start(startCtx)
		cancel()

		if err != nil {
			lm.emit(EventServiceStartFailed, name, err)
			lm.unwind(ctx)
			return &ApplicationError{Operation: "start", Service: name, Err: err}
		}

		lm.running = append(lm.running, name)
		lm.emit(EventServiceStarted, name, nil)
	}

	lm.emit(EventLifecycleStarted, "", nil)
	return nil
}

// Stop stops running services in reverse start order and returns the last
// failure, if any. Stopping a manager that is not running is a no-op.
func (lm *DefaultLifecycleManager) Stop(ctx context.Context) error {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()

	if lm.running == nil {
		return nil
	}

	lm.emit(EventLifecycleStopping, "", nil)
	err := lm.unwind(ctx)
	lm.emit(EventLifecycleStopped, "", nil)
	return err
}

// unwind stops lm.running back to front and clears it. Caller holds the lock.
func (lm *DefaultLifecycleManager) unwind(ctx context.Context) error {
	var last error

	for i := len(lm.running) - 1; i >= 0; i-- {
		name := lm.running[i]
		lm.emit(EventServiceStopping, name, nil)

		stopCtx, cancel := context.WithTimeout(ctx, serviceTimeout)
		err := lm.entries[name].service.Stop(stopCtx)
		cancel()

		if err != nil {
			last = &ApplicationError{Operation: "stop", Service: name, Err: err}
			lm.emit(EventServiceStopFailed, name, err)
			continue
		}
		lm.emit(EventServiceStopped, name, nil)
	}

	lm.running = nil
	return last
}

// Health asks every registered service for its status. A service that
// returns an error is reported unhealthy with the error as message.
func (lm *DefaultLifecycleManager) Health(ctx context.Context) (map[string]HealthStatus, error) {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()

	health := make(map[string]HealthStatus, len(lm.entries))
	for name, e := range lm.entries {
		healthCtx, cancel := context.WithTimeout(ctx, healthTimeout)
		status, err := e.service.Health(healthCtx)
		cancel()

		if err != nil {
			status = HealthStatus{State: HealthUnhealthy, Message: err.Error()}
		}
		if status.LastCheck.IsZero() {
			status.LastCheck = time.Now()
		}
		health[name] = status
	}
	return health, nil
}

// AddListener adds a lifecycle event listener
func (lm *DefaultLifecycleManager) AddListener(listener func(LifecycleEvent)) {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()
	lm.listeners = append(lm.listeners, listener)
}

// order returns service names with every dependency ahead of its dependents,
// otherwise keeping registration order.
func (lm *DefaultLifecycleManager) order() ([]string, error) {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(lm.entries))
	result := make([]string, 0, len(lm.entries))

	var visit func(name, from string) error
	visit = func(name, from string) error {
		e, ok := lm.entries[name]
		if !ok {
			return fmt.Errorf("dependency %s of service %s is not registered", name, from)
		}
		switch state[name] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("circular dependency detected at service %s", name)
		}

		state[name] = visiting
		for _, dep := range e.deps {
			if err := visit(dep, name); err != nil {
				return err
			}
		}
		state[name] = done
		result = append(result, name)
		return nil
	}

	for _, name := range lm.names {
		if err := visit(name, ""); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// emit delivers an event to every listener. Caller holds the lock.
func (lm *DefaultLifecycleManager) emit(eventType, service string, err error) {
	event := LifecycleEvent{
		Type:      eventType,
		Service:   service,
		Timestamp: time.Now(),
		Error:     err,
	}
	for _, listener := range lm.listeners {
		func() {
			// A panicking listener must not abort the lifecycle
			defer func() { _ = recover() }()
			listener(event)
		}()
	}
}
