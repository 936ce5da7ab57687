package session

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"huahuacuna/internal/database"
)

// Storage backends
const (
	BackendSQL    = "sql"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// OpenOptions selects and configures a storage backend
type OpenOptions struct {
	Backend  string
	Database database.Options
	Redis    redis.Options
	// RedisPrefix defaults to "huahuacuna:session:"
	RedisPrefix string
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenStorage connects the configured backend. The returned closer releases
// its connections.
func OpenStorage(ctx context.Context, opts OpenOptions) (Storage, io.Closer, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case BackendSQL, "":
		db, err := database.Open(ctx, opts.Database)
		if err != nil {
			return nil, nil, err
		}
		if err := db.RunMigrations(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info().Str("type", opts.Database.Type).Msg("session storage: sql")
		return NewSQLStorage(db), db, nil

	case BackendRedis:
		client := redis.NewClient(&opts.Redis)
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		log.Info().Str("addr", opts.Redis.Addr).Msg("session storage: redis")
		return NewRedisStorage(client, opts.RedisPrefix), client, nil

	case BackendMemory:
		log.Warn().Msg("session storage: memory, sessions will not survive a restart")
		return NewMemoryStorage(), nopCloser{}, nil

	default:
		return nil, nil, fmt.Errorf("unsupported session store: %s", opts.Backend)
	}
}
