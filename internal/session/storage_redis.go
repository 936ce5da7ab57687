package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "huahuacuna:session:"

// RedisStorage keeps one hash per session id
type RedisStorage struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStorage wraps a connected client. An empty prefix uses the default.
func NewRedisStorage(client redis.UniversalClient, prefix string) *RedisStorage {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStorage{client: client, prefix: prefix}
}

func (r *RedisStorage) key(id string) string {
	return r.prefix + id
}

func (r *RedisStorage) Load(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		values, err := r.client.HGetAll(ctx, key).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", key, err)
		}
		if len(values) == 0 {
			continue
		}
		entries = append(entries, Entry{ID: strings.TrimPrefix(key, r.prefix), Values: values})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan sessions: %w", err)
	}
	return entries, nil
}

func (r *RedisStorage) Save(ctx context.Context, entry Entry) error {
	key := r.key(entry.ID)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(entry.Values) > 0 {
			fields := make(map[string]any, len(entry.Values))
			for k, v := range entry.Values {
				fields[k] = v
			}
			pipe.HSet(ctx, key, fields)
		}
		if !entry.ExpiresAt.IsZero() {
			pipe.ExpireAt(ctx, key, entry.ExpiresAt)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save session %s: %w", entry.ID, err)
	}
	return nil
}

func (r *RedisStorage) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, r.key(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	return nil
}
