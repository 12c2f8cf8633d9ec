package imagestore

import (
	"context"
	"errors"

	"github.com/admVeloHub/Console-v2-gcp/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// NewRedisStore returns a store backed by one Redis hash per owner and page.
func NewRedisStore(client *redis.Client, log *logger.Logger, opts ...Option) *Store {
	return newStore(&redisBackend{client: client}, log, opts...)
}

type redisBackend struct {
	client *redis.Client
}

func (r *redisBackend) hset(ctx context.Context, key, field string, value []byte) error {
	return r.client.HSet(ctx, key, field, string(value)).Err()
}

func (r *redisBackend) hget(ctx context.Context, key, field string) ([]byte, bool, error) {
	v, err := r.client.HGet(ctx, key, field).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(v), true, nil
}

func (r *redisBackend) hgetall(ctx context.Context, key string) (map[string][]byte, error) {
	all, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(all))
	for k, v := range all {
		out[k] = []byte(v)
	}
	return out, nil
}

// cappedSet stores ARGV[2] under field ARGV[1] when the field exists or the
// hash holds fewer than ARGV[3] fields.
var cappedSet = redis.NewScript(`
if redis.call('HEXISTS', KEYS[1], ARGV[1]) == 1 or redis.call('HLEN', KEYS[1]) < tonumber(ARGV[3]) then
	redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
	return 1
end
return 0
`)

func (r *redisBackend) hsetCapped(ctx context.Context, key, field string, value []byte, limit int) (bool, error) {
	n, err := cappedSet.Run(ctx, r.client, []string{key}, field, string(value), limit).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *redisBackend) hdel(ctx context.Context, key string, fields ...string) error {
	return r.client.HDel(ctx, key, fields...).Err()
}

func (r *redisBackend) del(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}
