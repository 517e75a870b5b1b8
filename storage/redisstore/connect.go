// Package redisstore keeps conversation bindings, user profiles and sign-in state in Redis.
package redisstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "nagbot"

// Connect initializes a Redis client from a redis:// URL or a plain host:port and
// checks the server answers.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	var client *redis.Client
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{Addr: redisURL})
	}

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func key(prefix string, parts ...string) string {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return prefix + ":" + strings.Join(parts, ":")
}
