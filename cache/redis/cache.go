package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/go-redis/redis"
	"go.uber.org/zap"

	"github.com/cimnine/netbox-forager/cache"
	"github.com/cimnine/netbox-forager/logger"
)

const DefaultKey = "netbox-forager:snapshot"

// cmdable is the part of *redis.Client the store needs.
type cmdable interface {
	Get(key string) *redis.StringCmd
	Set(key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Store keeps the latest snapshot as one JSON value under Key.
type Store struct {
	Client cmdable
	Key    string
	TTL    time.Duration
	Logger logger.Logger
}

var _ cache.Store = (*Store)(nil)

func NewStore(client cmdable, config *cache.RedisConfig, ttl time.Duration, log logger.Logger) *Store {
	key := config.Key
	if key == "" {
		key = DefaultKey
	}

	return &Store{
		Client: client,
		Key:    key,
		TTL:    ttl,
		Logger: logger.OrNoop(log),
	}
}

func (s *Store) Save(_ context.Context, snapshot *cache.Snapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("can't encode snapshot %s: %w", snapshot.Status.ID, err)
	}

	s.Logger.Debug("Writing snapshot to the cache.", zap.String("key", s.Key), zap.Int("bytes", len(payload)))

	if err := s.Client.Set(s.Key, payload, s.TTL).Err(); err != nil {
		return fmt.Errorf("can't write snapshot to '%s': %w", s.Key, err)
	}

	s.Logger.Info("Wrote snapshot to the cache.", zap.String("key", s.Key), zap.String("snapshot", snapshot.Status.ID))

	return nil
}

func (s *Store) Load(_ context.Context) (*cache.Snapshot, error) {
	result := s.Client.Get(s.Key)
	if result.Err() == redis.Nil {
		return nil, cache.ErrNotFound
	}
	if result.Err() != nil {
		return nil, fmt.Errorf("can't read snapshot from '%s': %w", s.Key, result.Err())
	}

	payload, err := result.Bytes()
	if err != nil {
		return nil, fmt.Errorf("can't read snapshot from '%s': %w", s.Key, err)
	}

	var snapshot cache.Snapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return nil, fmt.Errorf("can't decode snapshot from '%s': %w", s.Key, err)
	}
	if err := snapshot.Validate(); err != nil {
		return nil, fmt.Errorf("invalid snapshot in '%s': %w", s.Key, err)
	}

	return &snapshot, nil
}

func (s *Store) Close() error {
	if closer, ok := s.Client.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
