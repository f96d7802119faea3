// Package cache connects to Redis and stores gin sessions in it.
// Without an address an embedded miniredis instance is started.
package cache

import (
	"context"
	"fmt"

	"github.com/mhsanaei/blogpanel/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type Redis struct {
	Client    *redis.Client
	miniRedis *miniredis.Miniredis
}

// Connect dials addr, or starts an embedded server when addr is empty.
func Connect(ctx context.Context, addr string) (*Redis, error) {
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, fmt.Errorf("failed to start embedded Redis: %w", err)
		}
		logger.Info("Embedded Redis started on", mr.Addr())
		return &Redis{
			Client:    redis.NewClient(&redis.Options{Addr: mr.Addr()}),
			miniRedis: mr,
		}, nil
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	logger.Info("Connected to external Redis at", addr)
	return &Redis{Client: client}, nil
}

func (r *Redis) IsEmbedded() bool {
	return r.miniRedis != nil
}

func (r *Redis) Close() error {
	err := r.Client.Close()
	if r.miniRedis != nil {
		r.miniRedis.Close()
	}
	return err
}
