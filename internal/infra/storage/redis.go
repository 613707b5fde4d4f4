package storage

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/inference-gateway/mcp-manager/config"
)

// RedisStorage implements StateStorage as a Redis hash of id -> disabled flag
type RedisStorage struct {
	client *redis.Client
	key    string
	addr   string
}

// NewRedisStorage creates a new Redis storage instance
func NewRedisStorage(cfg config.RedisStorageConfig) (*RedisStorage, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		DB:       cfg.DB,
		Password: cfg.Password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return newRedisStorage(client, cfg.Key, addr), nil
}

func newRedisStorage(client *redis.Client, key, addr string) *RedisStorage {
	if key == "" {
		key = config.DefaultConfig().Storage.Redis.Key
	}
	return &RedisStorage{client: client, key: key, addr: addr}
}

// Load reads the hash
func (s *RedisStorage) Load(ctx context.Context) (config.PersistedState, error) {
	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read server states: %w", err)
	}

	state := make(config.PersistedState, len(fields))
	for id, value := range fields {
		disabled, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("invalid state for %s: %w", id, err)
		}
		state[id] = config.ServerState{Disabled: disabled}
	}
	return state, nil
}

// Replace deletes the hash and writes state in one MULTI/EXEC
func (s *RedisStorage) Replace(ctx context.Context, state config.PersistedState) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key)
		if len(state) == 0 {
			return nil
		}
		values := make(map[string]any, len(state))
		for id, st := range state {
			values[id] = strconv.FormatBool(st.Disabled)
		}
		pipe.HSet(ctx, s.key, values)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write server states: %w", err)
	}
	return nil
}

// Location returns the Redis address and key
func (s *RedisStorage) Location() string {
	return fmt.Sprintf("redis://%s/%s", s.addr, s.key)
}

// Health pings Redis
func (s *RedisStorage) Health(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (s *RedisStorage) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
