package redisclient

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

//go:embed scripts/release_lock.lua
var releaseLockScript string

//go:embed scripts/refresh_lock.lua
var refreshLockScript string

type Client struct {
	rdb           *redis.Client
	releaseScript *redis.Script
	refreshScript *redis.Script
}

// NewClient creates a new Redis client with Lua scripts loaded
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{
		rdb:           rdb,
		releaseScript: redis.NewScript(releaseLockScript),
		refreshScript: redis.NewScript(refreshLockScript),
	}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// AcquireOrderLock takes the per-order mutation lock. One open order is
// edited by one terminal at a time; the lock serializes mutations
// across processes. Returns true if the lock was acquired.
func (c *Client) AcquireOrderLock(ctx context.Context, orderID, token string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, orderLockKey(orderID), token, ttl).Result()
}

// ReleaseOrderLock releases the per-order lock, but only if the token
// still matches, so an expired holder cannot drop someone else's lock.
func (c *Client) ReleaseOrderLock(ctx context.Context, orderID, token string) error {
	_, err := c.releaseScript.Run(ctx, c.rdb, []string{orderLockKey(orderID)}, token).Result()
	if err != nil {
		return fmt.Errorf("release lock script failed: %w", err)
	}
	return nil
}

// RefreshOrderLock extends the lock TTL for long-running mutations if
// the token still matches. Returns true when the lock was extended.
func (c *Client) RefreshOrderLock(ctx context.Context, orderID, token string, ttl time.Duration) (bool, error) {
	result, err := c.refreshScript.Run(ctx, c.rdb,
		[]string{orderLockKey(orderID)}, token, ttl.Milliseconds()).Result()
	if err != nil {
		return false, fmt.Errorf("refresh lock script failed: %w", err)
	}

	extended, ok := result.(int64)
	if !ok {
		return false, fmt.Errorf("unexpected script result type")
	}
	return extended == 1, nil
}

// CacheMenu stores a tenant's raw catalog JSON with TTL. Resolved
// prices are never cached since they depend on the clock.
func (c *Client) CacheMenu(ctx context.Context, userID string, payload []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, menuKey(userID), payload, ttl).Err()
}

// GetCachedMenu retrieves a tenant's cached catalog JSON. Returns nil
// on a cache miss.
func (c *Client) GetCachedMenu(ctx context.Context, userID string) ([]byte, error) {
	payload, err := c.rdb.Get(ctx, menuKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// InvalidateMenu drops a tenant's cached catalog after product changes
func (c *Client) InvalidateMenu(ctx context.Context, userID string) error {
	return c.rdb.Del(ctx, menuKey(userID)).Err()
}

func orderLockKey(orderID string) string {
	return fmt.Sprintf("lock:order:%s", orderID)
}

func menuKey(userID string) string {
	return fmt.Sprintf("menu:%s", userID)
}
