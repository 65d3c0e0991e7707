// Package lookup resolves a food name to a calorie value using external
// nutrition databases.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"
)

// ErrNoResult is returned when no provider produced a usable calorie value.
var ErrNoResult = errors.New("no calorie data found")

// Provider queries one nutrition database.
type Provider interface {
	// Name identifies the provider in logs and metrics.
	Name() string
	// LookupCalories returns the calories of the best match for query.
	// It returns ErrNoResult when nothing matched.
	LookupCalories(ctx context.Context, query string) (float64, error)
}

// Result is a successful lookup.
type Result struct {
	Calories int
	Provider string
}

// Chain tries its providers in order and returns the first positive result.
// The whole chain shares one deadline; providers are never retried.
type Chain struct {
	providers []Provider
	timeout   time.Duration
	logger    *slog.Logger
}

// NewChain creates a Chain bounded by timeout. A zero timeout means no bound
// beyond the caller's context.
func NewChain(timeout time.Duration, logger *slog.Logger, providers ...Provider) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{providers: providers, timeout: timeout, logger: logger}
}

// Providers returns the configured provider names in order.
func (c *Chain) Providers() []string {
	names := make([]string, 0, len(c.providers))
	for _, p := range c.providers {
		names = append(names, p.Name())
	}
	return names
}

// Lookup resolves name to a positive, whole number of calories.
func (c *Chain) Lookup(ctx context.Context, name string) (Result, error) {
	if len(c.providers) == 0 {
		return Result{}, fmt.Errorf("%w: no providers configured", ErrNoResult)
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var errs []error
	for _, p := range c.providers {
		kcal, err := p.LookupCalories(ctx, name)
		if err != nil {
			c.logger.Debug("Calorie lookup failed", "provider", p.Name(), "name", name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		calories := int(math.Round(kcal))
		if calories <= 0 {
			errs = append(errs, fmt.Errorf("%s: non-positive value %v", p.Name(), kcal))
			continue
		}
		return Result{Calories: calories, Provider: p.Name()}, nil
	}
	return Result{}, fmt.Errorf("%w: %w", ErrNoResult, errors.Join(errs...))
}
