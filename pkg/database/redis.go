package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-redis/redis/v8"
)

// NewRedisClient connects to Redis and verifies the connection with a ping. A failed ping
// is returned together with the client, which keeps reconnecting on later commands.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return client, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}

	slog.Info("Successfully connected to Redis.", slog.String("addr", addr))
	return client, nil
}
