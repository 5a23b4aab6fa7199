package redis

import (
	"fmt"

	"github.com/go-redis/redis"

	"github.com/cimnine/netbox-forager/cache"
)

// Connect opens a client for config and checks that the server answers.
func Connect(config *cache.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", config.Host, config.Port),
		Password: config.Password,
		DB:       int(config.Database),
	})

	if err := client.Ping().Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("can't reach redis at %s: %w", client.Options().Addr, err)
	}

	return client, nil
}
