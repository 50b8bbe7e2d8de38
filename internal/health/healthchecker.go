// Package health tracks upstream availability for the /health endpoint.
package health

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Pinger is anything that can be probed for liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StoreHealthChecker periodically probes the memory store and caches the
// result so /health never blocks on the upstream.
type StoreHealthChecker struct {
	pinger       Pinger
	log          zerolog.Logger
	probeTimeout time.Duration

	healthy atomic.Int32

	mu      sync.RWMutex
	lastErr string
}

func NewStoreHealthChecker(p Pinger, log zerolog.Logger, probeTimeout time.Duration) *StoreHealthChecker {
	return &StoreHealthChecker{pinger: p, log: log, probeTimeout: probeTimeout}
}

func (c *StoreHealthChecker) Name() string { return "mem0" }

// IsHealthy returns the cached probe result. Checkers start unhealthy until
// the first probe completes.
func (c *StoreHealthChecker) IsHealthy() bool { return c.healthy.Load() == 1 }

// LastError returns the most recent probe failure, empty when healthy.
func (c *StoreHealthChecker) LastError() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// Start probes immediately and then every interval until ctx is done.
func (c *StoreHealthChecker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.probe(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.probe(ctx)
		}
	}
}

func (c *StoreHealthChecker) probe(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	err := c.pinger.Ping(pctx)

	prev := c.healthy.Load()
	c.mu.Lock()
	if err != nil {
		c.lastErr = err.Error()
	} else {
		c.lastErr = ""
	}
	c.mu.Unlock()

	if err != nil {
		c.healthy.Store(0)
		if prev == 1 {
			c.log.Error().Stack().Err(err).Str("checker", c.Name()).Msg("dependency health: DOWN")
		}
		return
	}
	c.healthy.Store(1)
	if prev == 0 {
		c.log.Info().Str("checker", c.Name()).Msg("dependency health: UP")
	}
}
