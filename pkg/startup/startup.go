// Package startup starts the service's external dependencies in dependency
// order, retrying with a Fibonacci backoff, and stops them in reverse.
package startup

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Gobusters/ectologger"
)

type Dependency interface {
	GetName() string
	DependsOn() []string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

type Status int

const (
	StatusPending Status = iota
	StatusStarted
	StatusStopped
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusStarted:
		return "started"
	case StatusStopped:
		return "stopped"
	case StatusFailed:
		return "failed"
	default:
		return "pending"
	}
}

type Startup struct {
	logger      ectologger.Logger
	maxAttempts int
	backoffUnit time.Duration

	mu           sync.RWMutex
	order        []string
	dependencies map[string]Dependency
	statuses     map[string]Status
	started      []string
}

// NewStartup creates a startup sequence. backoffUnit scales the Fibonacci
// wait between attempts (1, 1, 2, 3, 5... units); zero means one second.
func NewStartup(logger ectologger.Logger, maxAttempts int, backoffUnit time.Duration) *Startup {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if backoffUnit <= 0 {
		backoffUnit = time.Second
	}
	return &Startup{
		logger:       logger,
		maxAttempts:  maxAttempts,
		backoffUnit:  backoffUnit,
		dependencies: make(map[string]Dependency),
		statuses:     make(map[string]Status),
	}
}

// AddDependency registers a dependency. Dependencies start in registration
// order unless DependsOn requires otherwise.
func (s *Startup) AddDependency(dependency Dependency) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := dependency.GetName()
	if _, exists := s.dependencies[name]; !exists {
		s.order = append(s.order, name)
	}
	s.dependencies[name] = dependency
}

func (s *Startup) Start(ctx context.Context) error {
	var lastErr error

	a, b := 1, 1
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		s.logger.WithField("attempt", attempt).Infof("Beginning startup attempt %d", attempt)

		lastErr = s.startAll(ctx)
		if lastErr == nil {
			return nil
		}
		s.logger.WithError(lastErr).Errorf("Startup attempt %d failed", attempt)

		if attempt == s.maxAttempts {
			break
		}

		wait := time.Duration(a) * s.backoffUnit
		s.logger.Infof("Retrying in %v (attempt %d/%d)", wait, attempt, s.maxAttempts)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		a, b = b, a+b
	}

	return fmt.Errorf("startup failed after %d attempts: %w", s.maxAttempts, lastErr)
}

func (s *Startup) startAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, name := range s.order {
		if err := s.startDependency(ctx, name, map[string]bool{}); err != nil {
			return err
		}
	}
	return nil
}

// startDependency must be called with mu held
func (s *Startup) startDependency(ctx context.Context, name string, visiting map[string]bool) error {
	if s.statuses[name] == StatusStarted {
		return nil
	}

	dependency, ok := s.dependencies[name]
	if !ok {
		return fmt.Errorf("unknown startup dependency '%s'", name)
	}
	if visiting[name] {
		return fmt.Errorf("startup dependency cycle at '%s'", name)
	}
	visiting[name] = true

	for _, required := range dependency.DependsOn() {
		if err := s.startDependency(ctx, required, visiting); err != nil {
			return err
		}
	}

	log := s.logger.WithField("dependency", name)
	log.Infof("Starting dependency '%s'", name)
	s.statuses[name] = StatusPending
	if err := dependency.Start(ctx); err != nil {
		s.statuses[name] = StatusFailed
		log.WithError(err).Errorf("Failed to start dependency '%s'", name)
		return fmt.Errorf("dependency '%s': %w", name, err)
	}
	s.statuses[name] = StatusStarted
	s.started = append(s.started, name)
	return nil
}

// Stop stops started dependencies in reverse start order. Every dependency is
// stopped even when one fails; the first error is returned.
func (s *Startup) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for i := len(s.started) - 1; i >= 0; i-- {
		name := s.started[i]
		log := s.logger.WithField("dependency", name)
		log.Infof("Stopping dependency '%s'", name)

		if err := s.dependencies[name].Stop(ctx); err != nil {
			log.WithError(err).Errorf("Failed to stop dependency '%s'", name)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		s.statuses[name] = StatusStopped
	}
	s.started = nil
	return firstErr
}

// Statuses returns a snapshot of every registered dependency's status
func (s *Startup) Statuses() map[string]Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	statuses := make(map[string]Status, len(s.order))
	for _, name := range s.order {
		statuses[name] = s.statuses[name]
	}
	return statuses
}

// Ready reports whether every registered dependency is started
func (s *Startup) Ready() bool {
	for _, status := range s.Statuses() {
		if status != StatusStarted {
			return false
		}
	}
	return true
}

// Func adapts plain functions to a Dependency
type Func struct {
	Name     string
	Requires []string
	StartFn  func(ctx context.Context) error
	StopFn   func(ctx context.Context) error
}

func (f Func) GetName() string     { return f.Name }
func (f Func) DependsOn() []string { return f.Requires }

func (f Func) Start(ctx context.Context) error {
	if f.StartFn == nil {
		return nil
	}
	return f.StartFn(ctx)
}

func (f Func) Stop(ctx context.Context) error {
	if f.StopFn == nil {
		return nil
	}
	return f.StopFn(ctx)
}
