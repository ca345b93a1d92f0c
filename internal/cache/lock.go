package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLocked ключ уже заблокирован другим обработчиком.
var ErrLocked = errors.New("resource is locked")

const (
	lockAttempts = 5
	lockBackoff  = 50 * time.Millisecond
)

var luaUnlock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end`)

// Locker распределенная блокировка на SET NX с токеном владельца.
type Locker struct {
	cache *Cache
}

// NewLocker создает блокировщик поверх Redis.
func NewLocker(c *Cache) *Locker {
	return &Locker{cache: c}
}

// TryLock пытается захватить ключ на ttl. Возвращает токен для Unlock или ErrLocked.
func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	const op = "cache.Locker.TryLock"
	token := uuid.NewString()
	var lastErr error
	for range lockAttempts {
		ok, err := l.cache.Db.SetNX(ctx, "lock:"+key, token, ttl).Result()
		if err != nil {
			lastErr = err
		} else if ok {
			return token, nil
		}
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("%s: %w", op, ctx.Err())
		case <-time.After(lockBackoff):
		}
	}
	if lastErr != nil {
		return "", fmt.Errorf("%s: %w", op, lastErr)
	}
	return "", fmt.Errorf("%s: %w", op, ErrLocked)
}

// Unlock снимает блокировку, только если она принадлежит token.
func (l *Locker) Unlock(ctx context.Context, key, token string) error {
	const op = "cache.Locker.Unlock"
	if err := luaUnlock.Run(ctx, l.cache.Db, []string{"lock:" + key}, token).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
