package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cimnine/netbox-forager/cache"
	redisCache "github.com/cimnine/netbox-forager/cache/redis"
	"github.com/cimnine/netbox-forager/cache/sqlite"
	"github.com/cimnine/netbox-forager/configuration"
	"github.com/cimnine/netbox-forager/logger"
	"github.com/cimnine/netbox-forager/metrics"
	"github.com/cimnine/netbox-forager/netbox"
	"github.com/cimnine/netbox-forager/netbox/models"
	"github.com/cimnine/netbox-forager/query"
	"github.com/cimnine/netbox-forager/resolver"
)

// app is everything a command needs, built from the config file.
type app struct {
	config   configuration.Configuration
	logger   *logger.ZapLogger
	registry *prometheus.Registry
	client   *netbox.Client
	engine   *query.Engine

	metricsFile string
}

func newApp(cmd *cobra.Command) (*app, error) {
	flags := cmd.Flags()
	configFile, _ := flags.GetString(configFlag)
	metricsFile, _ := flags.GetString(metricsFileFlag)

	config, err := configuration.ReadConfig(configFile)
	if err != nil {
		return nil, err
	}

	log, err := logger.NewLogger(config.Log.Format, config.Log.Level)
	if err != nil {
		return nil, err
	}
	log.Debug("Config loaded.", zap.String("file", configFile))

	registry := prometheus.NewRegistry()
	m := metrics.NewMetrics(registry)

	client := netbox.NewClient(&config.Netbox, log, m)
	engine, err := query.NewEngine(client, config.Query, log, m)
	if err != nil {
		return nil, err
	}

	return &app{
		config:      config,
		logger:      log,
		registry:    registry,
		client:      client,
		engine:      engine,
		metricsFile: metricsFile,
	}, nil
}

func (a *app) openStore() (cache.Store, error) {
	c := a.config.Cache
	switch c.Backend {
	case cache.BackendRedis:
		client, err := redisCache.Connect(&c.Redis)
		if err != nil {
			return nil, err
		}
		return redisCache.NewStore(client, &c.Redis, c.TTL(), a.logger), nil
	case cache.BackendSQLite:
		store, err := sqlite.New(&c.SQLite, c.TTL(), a.logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("no cache backend configured")
	}
}

func (a *app) cachingResolver(store cache.Store) resolver.CachingResolver {
	return resolver.CachingResolver{
		Source: resolver.Netbox{Client: a.client, Engine: a.engine},
		Cache:  store,
		Logger: a.logger,
	}
}

// close flushes the logger and writes the metrics file if one was asked for.
func (a *app) close() error {
	_ = a.logger.Sync()

	if a.metricsFile == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(a.metricsFile, a.registry); err != nil {
		return fmt.Errorf("can't write metrics to '%s': %w", a.metricsFile, err)
	}
	return nil
}

func (a *app) options(cmd *cobra.Command) []query.Option {
	threads, _ := cmd.Flags().GetInt(threadsFlag)
	if threads <= 0 {
		return nil
	}
	return []query.Option{query.WithConcurrency(threads)}
}

// run builds the app, runs f with a context that ends on SIGINT or SIGTERM
// and cleans up.
func run(cmd *cobra.Command, f func(ctx context.Context, a *app) error) (err error) {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := a.close(); err == nil {
			err = closeErr
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return f(ctx, a)
}

func lookup(cmd *cobra.Command, path string) (models.Endpoint, error) {
	ep, known, err := models.Lookup(path)
	if err != nil {
		return ep, err
	}
	if !known {
		fmt.Fprintf(cmd.ErrOrStderr(), "'%s' is not a known endpoint, querying it without overrides.\n", path)
	}
	return ep, nil
}

// parseFilters turns key=value pairs into filters. Repeated keys collect
// their values in a list.
func parseFilters(pairs []string) (query.Filters, error) {
	filters := make(query.Filters)
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("filter '%s' is not of the form key=value", pair)
		}

		switch existing := filters[key].(type) {
		case nil:
			filters[key] = value
		case string:
			filters[key] = []string{existing, value}
		case []string:
			filters[key] = append(existing, value)
		}
	}
	return filters, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
