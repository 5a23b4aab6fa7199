// Package cache stores snapshots of retrieved collections.
package cache

import (
	"context"
	"errors"
	"time"

	uuid "github.com/satori/go.uuid"

	"github.com/cimnine/netbox-forager/netbox/models"
)

const (
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"

	DefaultTTL = 24 * time.Hour
)

// ErrNotFound is returned by Load when there is no (unexpired) snapshot.
var ErrNotFound = errors.New("no snapshot in the cache")

type CacheConfig struct {
	Backend string       `yaml:"backend"`
	RawTTL  string       `yaml:"ttl"`
	Redis   RedisConfig  `yaml:"redis"`
	SQLite  SQLiteConfig `yaml:"sqlite"`
}

type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     uint16 `yaml:"port"`
	Password string `yaml:"password"`
	Database uint8  `yaml:"database"`
	Key      string `yaml:"key"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// TTL is how long a snapshot stays valid. 0 keeps it forever.
func (c CacheConfig) TTL() time.Duration {
	if c.RawTTL == "" {
		return DefaultTTL
	}
	d, err := time.ParseDuration(c.RawTTL)
	if err != nil || d < 0 {
		return DefaultTTL
	}
	return d
}

// Status describes a snapshot.
type Status struct {
	ID      string         `json:"id"`
	Created time.Time      `json:"created"`
	URL     string         `json:"netbox_url"`
	Version string         `json:"netbox_version"`
	Counts  map[string]int `json:"counts"`
}

type Snapshot struct {
	Status      Status             `json:"status"`
	Collections models.Collections `json:"collections"`
}

// NewSnapshot wraps collections with a fresh status record.
func NewSnapshot(url, version string, collections models.Collections) *Snapshot {
	return &Snapshot{
		Status: Status{
			ID:      uuid.NewV4().String(),
			Created: time.Now().UTC(),
			URL:     url,
			Version: version,
			Counts:  collections.Counts(),
		},
		Collections: collections,
	}
}

// Validate checks the status record of a loaded snapshot.
func (s *Snapshot) Validate() error {
	if _, err := uuid.FromString(s.Status.ID); err != nil {
		return err
	}
	if s.Collections == nil {
		return errors.New("the snapshot holds no collections")
	}
	return nil
}

type Store interface {
	Save(ctx context.Context, snapshot *Snapshot) error
	Load(ctx context.Context) (*Snapshot, error)
	Close() error
}
