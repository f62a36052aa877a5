package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/housing-board-api/pkg/config"
)

// NewRedis returns a Redis client for the reader-list cache, verified with a ping.
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s:%d: %w", cfg.Host, cfg.Port, err)
	}

	return client, nil
}

// ReadersKey is the cache key holding the reader names of one announcement as of the given
// generation.
func ReadersKey(announcementID, generation int64) string {
	return fmt.Sprintf("board:readers:%d:%d", announcementID, generation)
}

// ReadersGenerationKey holds the counter bumped on every first read of the announcement.
func ReadersGenerationKey(announcementID int64) string {
	return fmt.Sprintf("board:readers:gen:%d", announcementID)
}
