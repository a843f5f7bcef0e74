package config

import "time"

// AvailabilityCacheConfig controls the Redis cache in front of the
// availability read.  Entries are keyed per club and date, so writes
// that change a day's grid can invalidate exactly the keys they
// affect.  When Enabled is false or no Redis client is configured the
// cache is a no-op.
type AvailabilityCacheConfig struct {
	Enabled bool
	TTL     time.Duration
	Prefix  string
}

// LoadAvailabilityCacheConfig reads environment variables to build an
// AvailabilityCacheConfig.  Defaults are used when variables are not
// set.  The TTL is deliberately short: invalidation covers writes that
// go through this process, the TTL covers everything else.
func LoadAvailabilityCacheConfig() AvailabilityCacheConfig {
	return AvailabilityCacheConfig{
		Enabled: getenv("CACHE_ENABLED", "true") == "true",
		TTL:     parseDur(getenv("CACHE_TTL", "30s")),
		Prefix:  getenv("CACHE_PREFIX", "avail"),
	}
}

func getenv(key, def string) string {
	if v := envStr(key, ""); v != "" {
		return v
	}
	return def
}

func parseDur(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return time.Second
	}
	return d
}
