// Copyright (c) 2017-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

// Package lock provides named, leased locks that are honored by every
// coordinator instance sharing the same backend.
package lock

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	// DefaultAcquisitionTimeout bounds how long Lock waits for a held lock.
	DefaultAcquisitionTimeout = 10 * time.Second

	// DefaultTTL is the lease after which a lock expires unless freed.
	DefaultTTL = 120 * time.Second

	// minWaitInterval is the minimum amount of time to wait between locking attempts
	minWaitInterval = 100 * time.Millisecond

	// maxWaitInterval is the maximum amount of time to wait between locking attempts
	maxWaitInterval = 5 * time.Second

	// pollWaitInterval is the usual time to wait between unsuccessful locking attempts
	pollWaitInterval = 250 * time.Millisecond

	// jitterWaitInterval is the amount of jitter to add when waiting to avoid thundering herds
	jitterWaitInterval = minWaitInterval / 2
)

var (
	// ErrTimeout is returned by Lock when the lock could not be acquired
	// within the acquisition timeout.
	ErrTimeout = errors.New("timed out acquiring lock")

	// ErrUnavailable is returned by Lock when the backend kept failing until
	// the acquisition timeout, as opposed to the lock being held by someone else.
	ErrUnavailable = errors.New("lock backend unavailable")

	// ErrNotHeld is returned by Free when the handle does not hold the lock,
	// either because it was never acquired, was already freed, or its lease
	// expired and someone else took it.
	ErrNotHeld = errors.New("lock is not held")

	// ErrAlreadyHeld is returned by Lock when the handle already holds the lock.
	ErrAlreadyHeld = errors.New("lock is already held by this handle")
)

// Options configure a single lock.
type Options struct {
	AcquisitionTimeout time.Duration
	TTL                time.Duration
}

func (o Options) withDefaults() Options {
	if o.AcquisitionTimeout <= 0 {
		o.AcquisitionTimeout = DefaultAcquisitionTimeout
	}
	if o.TTL <= 0 {
		o.TTL = DefaultTTL
	}
	return o
}

// Client creates lock handles.
type Client interface {
	CreateLock(name string, opts Options) Lock
}

// Lock is a handle on one named lock. A handle may only free a lock it
// acquired itself.
type Lock interface {
	// Name returns the lock's name.
	Name() string
	// Lock blocks until the lock is acquired, the acquisition timeout passes
	// or ctx is done.
	Lock(ctx context.Context) error
	// Free releases the lock.
	Free(ctx context.Context) error
}

// backend is the storage specific part of a lock.
type backend interface {
	// tryAcquire makes a single attempt and reports whether owner now holds name.
	tryAcquire(ctx context.Context, name, owner string, ttl time.Duration) (bool, error)
	// release frees name if owner holds it and reports whether it did.
	release(ctx context.Context, name, owner string) (bool, error)
}

// handle implements Lock on top of a backend.
type handle struct {
	name    string
	opts    Options
	backend backend

	mu    sync.Mutex
	owner string
}

func newHandle(name string, opts Options, b backend) *handle {
	return &handle{
		name:    name,
		opts:    opts.withDefaults(),
		backend: b,
	}
}

func (h *handle) Name() string {
	return h.name
}

func (h *handle) Lock(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.owner != "" {
		return ErrAlreadyHeld
	}

	ctx, cancel := context.WithTimeout(ctx, h.opts.AcquisitionTimeout)
	defer cancel()

	owner := uuid.New().String()
	var waitInterval time.Duration
	var backendErr error
	for {
		ok, err := h.backend.tryAcquire(ctx, h.name, owner, h.opts.TTL)
		if err == nil && ok {
			h.owner = owner
			return nil
		}
		// Errors caused by ctx ending are not backend failures.
		if err == nil || ctx.Err() == nil {
			backendErr = err
		}

		waitInterval = nextWaitInterval(waitInterval, err)
		select {
		case <-ctx.Done():
			if backendErr != nil {
				return errors.Wrapf(ErrUnavailable, "lock %s: %s", h.name, backendErr)
			}
			return errors.Wrapf(ErrTimeout, "lock %s", h.name)
		case <-time.After(waitInterval):
		}
	}
}

func (h *handle) Free(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.owner == "" {
		return ErrNotHeld
	}
	ok, err := h.backend.release(ctx, h.name, h.owner)
	if err != nil {
		// Still the owner, Free may be retried.
		return errors.Wrapf(err, "failed to free lock %s", h.name)
	}
	h.owner = ""
	if !ok {
		return errors.Wrapf(ErrNotHeld, "lease of lock %s expired", h.name)
	}
	return nil
}

// nextWaitInterval determines how long to wait until the next lock retry.
func nextWaitInterval(lastWaitInterval time.Duration, err error) time.Duration {
	nextWaitInterval := lastWaitInterval

	if nextWaitInterval <= 0 {
		nextWaitInterval = minWaitInterval
	}

	if err != nil {
		nextWaitInterval *= 2
		if nextWaitInterval > maxWaitInterval {
			nextWaitInterval = maxWaitInterval
		}
	} else {
		nextWaitInterval = pollWaitInterval
	}

	// Add some jitter to avoid unnecessary collision between competing other instances.
	nextWaitInterval += time.Duration(rand.Int63n(int64(jitterWaitInterval)) - int64(jitterWaitInterval)/2) //nolint: gosec

	return nextWaitInterval
}
