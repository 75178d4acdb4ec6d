// Package lock реализует взаимное исключение закрытия периода через Redis.
package lock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mmeshcher/delivery-system/internal/failure"
)

// releaseScript удаляет ключ только если он всё ещё принадлежит владельцу.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Locker выдаёт эксклюзивные аренды на именованные операции.
// Нулевой Locker (nil) ничего не блокирует: в этом случае единственной
// защитой от параллельного закрытия остаётся уникальный индекс периода.
type Locker struct {
	client *redis.Client
}

// New создаёт Locker поверх клиента Redis.
func New(client *redis.Client) *Locker {
	return &Locker{client: client}
}

// Acquire берёт аренду на ключ. Если аренда уже занята — BusinessRule.
// Возвращает функцию освобождения; освобождение чужой аренды невозможно.
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	if l == nil || l.client == nil {
		return func(context.Context) error { return nil }, nil
	}

	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, failure.Network("acquire lock", err)
	}
	if !ok {
		return nil, failure.BusinessRule("operation %q is already in progress", key)
	}

	release := func(ctx context.Context) error {
		return releaseScript.Run(ctx, l.client, []string{key}, token).Err()
	}

	return release, nil
}
