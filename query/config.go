package query

import "time"

const (
	DefaultLimit        = 1000
	DefaultURLMaxLength = 2047
	DefaultThreads      = 1

	// AnyEndpoint is the loner/default pattern that applies to every endpoint.
	AnyEndpoint = "any"
)

// Config controls how filters become requests.
type Config struct {
	// Limit is the page size asked from NetBox.
	Limit int `yaml:"limit"`
	// URLMaxLength bounds the length of every request URL.
	URLMaxLength int `yaml:"url_max_length"`
	// Threads is the default number of workers, 1 fetches sequentially.
	Threads int `yaml:"threads"`
	// RawInterval is the pause between starting two workers.
	RawInterval string `yaml:"interval"`
	// SliceKeys are split first when a URL gets too long.
	SliceKeys []string `yaml:"slice_keys"`
	// Loners maps endpoint path patterns (or "any") to patterns of filter
	// keys whose values are kept together in one request.
	Loners map[string][]string `yaml:"loners"`
	// Defaults maps endpoint path patterns (or "any") to filters that are
	// sent when the caller does not set the key.
	Defaults map[string]map[string][]string `yaml:"defaults"`
	// Sentinels are literal values of translated keys that skip the lookup.
	Sentinels map[string][]string `yaml:"sentinels"`
}

func DefaultConfig() Config {
	return Config{
		Limit:        DefaultLimit,
		URLMaxLength: DefaultURLMaxLength,
		Threads:      DefaultThreads,
		SliceKeys:    []string{"id", "address", "prefix", "cid", "device_id", "mac_address"},
		Loners: map[string][]string{
			AnyEndpoint: {"^id$", "__n$"},
		},
		Sentinels: map[string][]string{
			"vrf":            {"null"},
			"present_in_vrf": {"null"},
		},
	}
}

// WithDefaults fills unset fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.Limit <= 0 {
		c.Limit = d.Limit
	}
	if c.URLMaxLength <= 0 {
		c.URLMaxLength = d.URLMaxLength
	}
	if c.Threads <= 0 {
		c.Threads = d.Threads
	}
	if c.SliceKeys == nil {
		c.SliceKeys = d.SliceKeys
	}
	if c.Loners == nil {
		c.Loners = d.Loners
	}
	if c.Sentinels == nil {
		c.Sentinels = d.Sentinels
	}
	return c
}

func (c Config) Interval() time.Duration {
	if c.RawInterval == "" {
		return 0
	}
	d, err := time.ParseDuration(c.RawInterval)
	if err != nil || d < 0 {
		return 0
	}
	return d
}
