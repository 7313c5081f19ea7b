// Package redisStore holds one shared go-redis client per logical database.
package redisStore

import (
	"context"
	"sync"
	"time"

	"github.com/akolanti/DocChat/internal/config"
	"github.com/akolanti/DocChat/pkg/logger_i"
	"github.com/redis/go-redis/v9"
)

const (
	ioTimeout   = 30 * time.Second
	pingTimeout = 3 * time.Second
)

type Store struct {
	client *redis.Client
	DB     int
}

type registry struct {
	sync.Mutex
	clients map[int]*Store
	closer  sync.Once
	logger  *logger_i.Logger
}

var shared = &registry{clients: make(map[int]*Store)}

// GetRedisStore returns the client for db, dialing it on first use. It returns nil when the
// server does not answer a ping. All clients close once ctx is done.
func GetRedisStore(ctx context.Context, cfg config.RedisConfig, db int) *Store {
	shared.Lock()
	defer shared.Unlock()

	if s, ok := shared.clients[db]; ok {
		return s
	}
	if shared.logger == nil {
		shared.logger = logger_i.NewLogger("Redis Store")
	}

	s := shared.dial(ctx, cfg, db)
	if s == nil {
		return nil
	}
	shared.clients[db] = s
	shared.closer.Do(func() { go shared.closeOnDone(ctx) })
	return s
}

func (r *registry) dial(ctx context.Context, cfg config.RedisConfig, db int) *Store {
	addr := cfg.Addr
	if addr == "" {
		addr = config.RedisAddr
	}
	client := redis.NewClient(&redis.Options{
		Addr:                  addr,
		Password:              cfg.Password,
		DB:                    db,
		ContextTimeoutEnabled: true,
		ReadTimeout:           ioTimeout,
		WriteTimeout:          ioTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		r.logger.Error("Redis is offline", "addr", addr, "db", db, "error", err)
		_ = client.Close()
		return nil
	}
	r.logger.Info("Redis client ready", "addr", addr, "db", db)
	return &Store{client: client, DB: db}
}

func (r *registry) closeOnDone(ctx context.Context) {
	<-ctx.Done()
	r.Lock()
	defer r.Unlock()
	for db, s := range r.clients {
		if err := s.client.Close(); err != nil {
			r.logger.Error("Closing redis client failed", "db", db, "error", err)
		}
		delete(r.clients, db)
	}
	r.logger.Info("Redis clients closed")
}

// NewTestStore wraps an existing client, typically one pointed at miniredis.
func NewTestStore(client *redis.Client) *Store {
	return &Store{client: client}
}
