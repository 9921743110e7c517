// Package health probes backing services for readiness reporting.
package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const statusOK = "ok"

// Check pings one dependency
type Check func(ctx context.Context) error

type namedCheck struct {
	name  string
	check Check
}

// Checker runs the registered checks with a per-check timeout
type Checker struct {
	mu      sync.RWMutex
	checks  []namedCheck
	timeout time.Duration
}

// NewChecker creates a checker without checks
func NewChecker(timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Checker{timeout: timeout}
}

// Add registers a named check
func (c *Checker) Add(name string, check Check) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks = append(c.checks, namedCheck{name: name, check: check})
}

// Run executes every check concurrently. ready is false when any check failed.
func (c *Checker) Run(ctx context.Context) (ready bool, statuses map[string]string) {
	c.mu.RLock()
	checks := append([]namedCheck(nil), c.checks...)
	c.mu.RUnlock()

	results := make([]string, len(checks))
	var wg sync.WaitGroup
	for i, nc := range checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()
			if err := nc.check(checkCtx); err != nil {
				results[i] = err.Error()
				return
			}
			results[i] = statusOK
		}()
	}
	wg.Wait()

	ready = true
	statuses = make(map[string]string, len(checks))
	for i, nc := range checks {
		statuses[nc.name] = results[i]
		if results[i] != statusOK {
			ready = false
		}
	}
	return ready, statuses
}

// Watch keeps the gRPC health server in line with the checks until ctx is done
func (c *Checker) Watch(ctx context.Context, srv *grpchealth.Server, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		c.Sync(ctx, srv, logger)
		select {
		case <-ctx.Done():
			srv.Shutdown()
			return
		case <-ticker.C:
		}
	}
}

// Sync runs the checks once and publishes the overall status
func (c *Checker) Sync(ctx context.Context, srv *grpchealth.Server, logger *zap.Logger) {
	ready, statuses := c.Run(ctx)
	status := healthpb.HealthCheckResponse_SERVING
	if !ready {
		status = healthpb.HealthCheckResponse_NOT_SERVING
		logger.Warn("Dependency check failed", zap.Any("checks", statuses))
	}
	srv.SetServingStatus("", status)
}
