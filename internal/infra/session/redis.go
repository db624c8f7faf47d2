package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "session:"

type redisVerifier struct {
	client *redis.Client
}

func NewRedisClient(url string, poolSize int) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	opt.PoolSize = poolSize

	client := redis.NewClient(opt)

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

// NewRedisVerifier checks tokens against a database-session store where each
// live session is a key named after the token hash.
func NewRedisVerifier(client *redis.Client) Verifier {
	return &redisVerifier{client: client}
}

func (r *redisVerifier) Verify(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}

	n, err := r.client.Exists(ctx, Key(token)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to look up session: %w", err)
	}

	return n > 0, nil
}

// Key is the store key for token. Raw tokens never reach Redis.
func Key(token string) string {
	hash := sha256.Sum256([]byte(token))
	return keyPrefix + hex.EncodeToString(hash[:])
}
