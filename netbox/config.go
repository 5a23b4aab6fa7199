package netbox

import "time"

const (
	DefaultTimeout    = 60 * time.Second
	DefaultSleep      = 10 * time.Second
	DefaultMaxRetries = 3
)

type NetboxConfig struct {
	API struct {
		URL      string
		Token    string
		Insecure bool
	}
	RawTimeout string `yaml:"timeout"`
	RawSleep   string `yaml:"sleep"`
	MaxRetries *int   `yaml:"max_retries"`
}

// Timeout is the deadline of a single HTTP request.
func (c NetboxConfig) Timeout() time.Duration {
	return parseDuration(c.RawTimeout, DefaultTimeout)
}

// Sleep is the pause between two attempts of the same request.
func (c NetboxConfig) Sleep() time.Duration {
	return parseDuration(c.RawSleep, DefaultSleep)
}

// Retries is the number of additional attempts after a timeout or server error.
func (c NetboxConfig) Retries() int {
	if c.MaxRetries == nil || *c.MaxRetries < 0 {
		return DefaultMaxRetries
	}
	return *c.MaxRetries
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}
