package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis backs the planner with a Redis instance, namespacing every key
// so one instance can serve several deployments. Prefix enumeration maps
// onto SCAN.
type Redis struct {
	client    *redis.Client
	namespace string
}

// NewRedis wraps an existing client. namespace may be empty.
func NewRedis(client *redis.Client, namespace string) *Redis {
	return &Redis{client: client, namespace: namespace}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := r.client.Get(ctx, r.namespaced(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return raw, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, r.namespaced(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Remove(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.namespaced(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

func (r *Redis) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	pattern := r.namespaced(prefix) + "*"
	var keys []string
	iter := r.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, r.stripped(iter.Val()))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan %s: %w", prefix, err)
	}
	return keys, nil
}

func (r *Redis) Close() error { return r.client.Close() }

func (r *Redis) namespaced(key string) string {
	if r.namespace == "" {
		return key
	}
	return r.namespace + ":" + key
}

func (r *Redis) stripped(key string) string {
	if r.namespace == "" {
		return key
	}
	return key[len(r.namespace)+1:]
}
