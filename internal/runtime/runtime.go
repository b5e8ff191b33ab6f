// Package runtime bounds how many sort requests and character page fetches run
// at once and how long a single request may take.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/vinodismyname/itemsort/config"
	"github.com/vinodismyname/itemsort/pkg/boterr"
)

// Limits holds the request guardrails.
type Limits struct {
	MaxConcurrentRequests int
	MaxConcurrentFetches  int

	// OperationTimeout bounds one sort request, store query included.
	OperationTimeout time.Duration
	// AcquireRequestTimeout is how long a request waits for a free slot
	// before it is answered with BUSY_RESOURCE.
	AcquireRequestTimeout time.Duration
}

// NewLimits fills zero or negative caps from the config defaults.
func NewLimits(requests, fetches int) Limits {
	if requests <= 0 {
		requests = config.DefaultMaxConcurrentRequests
	}
	if fetches <= 0 {
		fetches = config.DefaultMaxConcurrentFetches
	}
	return Limits{
		MaxConcurrentRequests: requests,
		MaxConcurrentFetches:  fetches,
		OperationTimeout:      config.DefaultOperationTimeout,
		AcquireRequestTimeout: config.DefaultAcquireRequestTimeout,
	}
}

// Controller hands out request and fetch slots.
type Controller struct {
	limits   Limits
	requests *semaphore.Weighted
	fetches  *semaphore.Weighted
}

func NewController(limits Limits) *Controller {
	return &Controller{
		limits:   limits,
		requests: semaphore.NewWeighted(int64(limits.MaxConcurrentRequests)),
		fetches:  semaphore.NewWeighted(int64(limits.MaxConcurrentFetches)),
	}
}

// AcquireRequest blocks until a sort request slot is free or ctx ends.
func (c *Controller) AcquireRequest(ctx context.Context) error { return c.requests.Acquire(ctx, 1) }

func (c *Controller) ReleaseRequest() { c.requests.Release(1) }

// AcquireFetch blocks until a character page fetch slot is free or ctx ends.
func (c *Controller) AcquireFetch(ctx context.Context) error { return c.fetches.Acquire(ctx, 1) }

func (c *Controller) ReleaseFetch() { c.fetches.Release(1) }

// LimitsSnapshot returns the limits the controller was built with.
func (c *Controller) LimitsSnapshot() Limits { return c.limits }

// Run calls fn while holding a request slot, under the operation timeout.
// A slot that cannot be had in time gives BUSY_RESOURCE and an expired
// deadline gives TIMEOUT. Other errors from fn come back as they are.
func (c *Controller) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	waitCtx, stopWait := c.withTimeout(ctx, c.limits.AcquireRequestTimeout)
	err := c.AcquireRequest(waitCtx)
	stopWait()
	if err != nil {
		return boterr.Wrap(boterr.BusyResource, fmt.Errorf("all %d request slots in use: %w", c.limits.MaxConcurrentRequests, err))
	}
	defer c.ReleaseRequest()

	opCtx, cancel := c.withTimeout(ctx, c.limits.OperationTimeout)
	defer cancel()

	err = fn(opCtx)
	if err == nil || boterr.CodeOf(err) == boterr.Timeout {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(opCtx.Err(), context.DeadlineExceeded) {
		return boterr.Wrap(boterr.Timeout, err)
	}
	return err
}

func (c *Controller) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
