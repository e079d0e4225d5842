package publish

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// RedisUserStore keeps each user as a hash at <prefix>users:<userID>.
type RedisUserStore struct {
	client *redis.Client
	prefix string
}

func NewRedisUserStore(ctx context.Context, cfg RedisConfig) (*RedisUserStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "rxtable:"
	}
	return &RedisUserStore{client: client, prefix: prefix}, nil
}

func (s *RedisUserStore) key(userID string) string { return s.prefix + "users:" + userID }

// UpsertImageURL sets one hash field; other fields of the user survive.
func (s *RedisUserStore) UpsertImageURL(ctx context.Context, userID, url string) error {
	return s.client.HSet(ctx, s.key(userID), ImageURLField, url).Err()
}

func (s *RedisUserStore) Close() error { return s.client.Close() }
