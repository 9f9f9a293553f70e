package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// releaseScript удаляет ключ, только если он всё ещё принадлежит владельцу token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// AcquireLock пытается занять ключ name на ttl (SET NX PX). Возвращает false, если ключ занят.
func (c *Cache) AcquireLock(ctx context.Context, name, token string, ttl time.Duration) (bool, error) {
	const op = "cache.AcquireLock"
	ok, err := c.Db.SetNX(ctx, lockKey(name), token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return ok, nil
}

// ReleaseLock освобождает блокировку, если её держит token.
func (c *Cache) ReleaseLock(ctx context.Context, name, token string) error {
	const op = "cache.ReleaseLock"
	if err := releaseScript.Run(ctx, c.Db, []string{lockKey(name)}, token).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func lockKey(name string) string {
	return "lock:" + name
}
