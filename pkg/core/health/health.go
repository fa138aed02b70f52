// ============================================================================
// meinDENKWERK (mDW) - Voice Intake
// ============================================================================
//
// Package:     health
// Description: Readiness checks for the microphone, recognizer and stores
// Author:      Mike Stoffels
// Created:     2025-12-06
// License:     MIT
// ============================================================================

package health

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Status represents the readiness of one dependency
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// CheckResult is the outcome of one check
type CheckResult struct {
	Name     string
	Status   Status
	Message  string
	Duration time.Duration
}

// Checker is a single readiness check
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckResult
}

type namedCheck struct {
	name string
	fn   func(ctx context.Context) CheckResult
}

func (c *namedCheck) Name() string                          { return c.name }
func (c *namedCheck) Check(ctx context.Context) CheckResult { return c.fn(ctx) }

// NewChecker creates a named checker from a function
func NewChecker(name string, fn func(ctx context.Context) CheckResult) Checker {
	return &namedCheck{name: name, fn: fn}
}

// Healthy, Degraded and Unhealthy build results for check functions
func Healthy(format string, args ...interface{}) CheckResult {
	return CheckResult{Status: StatusHealthy, Message: fmt.Sprintf(format, args...)}
}

func Degraded(format string, args ...interface{}) CheckResult {
	return CheckResult{Status: StatusDegraded, Message: fmt.Sprintf(format, args...)}
}

func Unhealthy(format string, args ...interface{}) CheckResult {
	return CheckResult{Status: StatusUnhealthy, Message: fmt.Sprintf(format, args...)}
}

// Registry runs a set of checkers concurrently
type Registry struct {
	mu       sync.RWMutex
	checkers map[string]Checker
	app      string
	version  string
}

// NewRegistry creates an empty registry
func NewRegistry(app, version string) *Registry {
	return &Registry{
		checkers: make(map[string]Checker),
		app:      app,
		version:  version,
	}
}

// Register adds a checker, replacing one with the same name
func (r *Registry) Register(checker Checker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkers[checker.Name()] = checker
}

// RegisterFunc adds a check function to the registry
func (r *Registry) RegisterFunc(name string, fn func(ctx context.Context) CheckResult) {
	r.Register(NewChecker(name, fn))
}

// Check runs every checker and folds the results into one report. The
// checks in the report are ordered by name.
func (r *Registry) Check(ctx context.Context) *Report {
	r.mu.RLock()
	checkers := make([]Checker, 0, len(r.checkers))
	for _, c := range r.checkers {
		checkers = append(checkers, c)
	}
	r.mu.RUnlock()

	results := make([]CheckResult, len(checkers))
	var wg sync.WaitGroup
	for i, checker := range checkers {
		wg.Add(1)
		go func(i int, c Checker) {
			defer wg.Done()
			start := time.Now()
			res := c.Check(ctx)
			res.Duration = time.Since(start)
			if res.Name == "" {
				res.Name = c.Name()
			}
			if res.Status == "" {
				res.Status = StatusHealthy
			}
			results[i] = res
		}(i, checker)
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })

	report := &Report{App: r.app, Version: r.version, Status: StatusHealthy, Checks: results}
	for _, res := range results {
		switch res.Status {
		case StatusUnhealthy:
			report.Status = StatusUnhealthy
		case StatusDegraded:
			if report.Status != StatusUnhealthy {
				report.Status = StatusDegraded
			}
		}
	}
	return report
}

// CheckWithTimeout runs all checks under a deadline
func (r *Registry) CheckWithTimeout(timeout time.Duration) *Report {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return r.Check(ctx)
}

// Report is the folded result of a registry run
type Report struct {
	App     string        `json:"app"`
	Version string        `json:"version"`
	Status  Status        `json:"status"`
	Checks  []CheckResult `json:"checks"`
}

// OK reports whether nothing is unhealthy
func (r *Report) OK() bool { return r.Status != StatusUnhealthy }

// String returns a one-line summary
func (r *Report) String() string {
	return fmt.Sprintf("%s %s: %s (%d checks)", r.App, r.Version, r.Status, len(r.Checks))
}
