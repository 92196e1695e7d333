// Copyright (c) 2017-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package lock

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "rda-lock:"

// releaseScript deletes the key only while it still carries the owner token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisClient creates locks stored as Redis keys with a PX expiry.
type RedisClient struct {
	rdb    redis.UniversalClient
	prefix string
}

// NewRedisClient returns a lock client using rdb. Keys are namespaced by
// prefix, which defaults to "rda-lock:".
func NewRedisClient(rdb redis.UniversalClient, prefix string) *RedisClient {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisClient{rdb: rdb, prefix: prefix}
}

func (c *RedisClient) CreateLock(name string, opts Options) Lock {
	return newHandle(name, opts, c)
}

func (c *RedisClient) tryAcquire(ctx context.Context, name, owner string, ttl time.Duration) (bool, error) {
	ok, err := c.rdb.SetNX(ctx, c.prefix+name, owner, ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, "failed to set lock key")
	}
	return ok, nil
}

func (c *RedisClient) release(ctx context.Context, name, owner string) (bool, error) {
	n, err := releaseScript.Run(ctx, c.rdb, []string{c.prefix + name}, owner).Int()
	if err != nil {
		return false, errors.Wrap(err, "failed to delete lock key")
	}
	return n == 1, nil
}
