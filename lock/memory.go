// Copyright (c) 2017-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package lock

import (
	"context"
	"sync"
	"time"
)

type memoryLease struct {
	owner    string
	expireAt time.Time
}

// MemoryClient keeps leases in process memory. It only excludes callers
// sharing the same MemoryClient and is meant for single instance
// deployments and tests.
type MemoryClient struct {
	mu     sync.Mutex
	leases map[string]memoryLease
	now    func() time.Time
}

// NewMemoryClient returns an empty in-memory lock client.
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{
		leases: make(map[string]memoryLease),
		now:    time.Now,
	}
}

func (c *MemoryClient) CreateLock(name string, opts Options) Lock {
	return newHandle(name, opts, c)
}

// IsLocked reports whether name is currently leased.
func (c *MemoryClient) IsLocked(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	lease, ok := c.leases[name]
	return ok && c.now().Before(lease.expireAt)
}

func (c *MemoryClient) tryAcquire(_ context.Context, name, owner string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if lease, ok := c.leases[name]; ok && now.Before(lease.expireAt) {
		return false, nil
	}
	c.leases[name] = memoryLease{owner: owner, expireAt: now.Add(ttl)}
	return true, nil
}

func (c *MemoryClient) release(_ context.Context, name, owner string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	lease, ok := c.leases[name]
	if !ok || lease.owner != owner || !c.now().Before(lease.expireAt) {
		return false, nil
	}
	delete(c.leases, name)
	return true, nil
}
