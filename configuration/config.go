package configuration

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/cimnine/netbox-forager/cache"
	"github.com/cimnine/netbox-forager/logger"
	"github.com/cimnine/netbox-forager/netbox"
	"github.com/cimnine/netbox-forager/query"
)

type Configuration struct {
	Netbox netbox.NetboxConfig
	Cache  cache.CacheConfig
	Query  query.Config
	Log    logger.Config
}

func ReadConfig(filename string) (conf Configuration, err error) {
	rawFile, err := os.ReadFile(filename)
	if err != nil {
		return conf, fmt.Errorf("can't read config file: %w", err)
	}

	return ParseConfig(rawFile)
}

func ParseConfig(raw []byte) (conf Configuration, err error) {
	err = yaml.UnmarshalStrict(raw, &conf)
	if err != nil {
		return conf, fmt.Errorf("can't parse config file: %w", err)
	}

	conf.Query = conf.Query.WithDefaults()

	return conf, conf.Validate()
}

func (c Configuration) Validate() error {
	if c.Netbox.API.URL == "" {
		return fmt.Errorf("netbox.api.url is required")
	}

	switch c.Cache.Backend {
	case "", cache.BackendRedis, cache.BackendSQLite:
	default:
		return fmt.Errorf("unknown cache backend '%s'", c.Cache.Backend)
	}

	if c.Cache.Backend == cache.BackendSQLite && c.Cache.SQLite.Path == "" {
		return fmt.Errorf("cache.sqlite.path is required for the sqlite backend")
	}

	return nil
}
