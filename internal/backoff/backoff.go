package backoff

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Config holds exponential backoff settings.
type Config struct {
	InitialInterval     time.Duration
	MaxInterval         time.Duration
	Multiplier          float64
	RandomizationFactor float64
}

// DefaultConfig returns sensible default backoff settings.
func DefaultConfig() Config {
	return Config{
		InitialInterval:     time.Second,
		MaxInterval:         60 * time.Second,
		Multiplier:          2.0,
		RandomizationFactor: 0.5,
	}
}

// GlobalBackoff coordinates a shared rate-limit pause across all concurrent
// requests. When the backend answers 429, every worker waits out the same
// window instead of independently hammering the API.
type GlobalBackoff struct {
	mu       sync.RWMutex
	until    time.Time
	interval time.Duration
	streak   int
	config   Config
}

// New creates a global backoff coordinator.
func New(cfg Config) *GlobalBackoff {
	return &GlobalBackoff{
		interval: cfg.InitialInterval,
		config:   cfg,
	}
}

// WaitIfNeeded blocks while a shared backoff window is active.
func (g *GlobalBackoff) WaitIfNeeded(ctx context.Context) error {
	g.mu.RLock()
	until := g.until
	g.mu.RUnlock()

	if time.Now().Before(until) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Until(until)):
		}
	}
	return nil
}

// ReportError opens (or extends) the shared backoff window. The caller
// decides which errors warrant a backoff; this type only tracks the window.
func (g *GlobalBackoff) ReportError() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.streak = 0

	jitter := time.Duration(rand.Float64() * g.config.RandomizationFactor * float64(g.interval))
	g.until = time.Now().Add(g.interval + jitter)

	g.interval = min(time.Duration(float64(g.interval)*g.config.Multiplier), g.config.MaxInterval)
}

// ReportSuccess records a successful request; a streak of successes resets
// the window back to the initial interval.
func (g *GlobalBackoff) ReportSuccess() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.streak++
	if g.streak >= 3 {
		g.interval = g.config.InitialInterval
	}
}

// IsBackingOff returns true while the shared window is open.
func (g *GlobalBackoff) IsBackingOff() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return time.Now().Before(g.until)
}

// Remaining returns how much of the shared window is left.
func (g *GlobalBackoff) Remaining() time.Duration {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if time.Now().Before(g.until) {
		return time.Until(g.until)
	}
	return 0
}
