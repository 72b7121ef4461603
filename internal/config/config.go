package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	goBreach "github.com/MrEthical07/goBreach"
	"gopkg.in/yaml.v3"
)

// ErrNoConfig is returned by the search helpers when no file exists.
var ErrNoConfig = errors.New("no config file")

// FileConfig is the on-disk YAML shape for pwncheck. Nil fields leave the
// corresponding setting untouched.
type FileConfig struct {
	Endpoint         *string `yaml:"endpoint"`
	UserAgent        *string `yaml:"user_agent"`
	Padding          *bool   `yaml:"padding"`
	Timeout          *string `yaml:"timeout"`
	MaxResponseBytes *int64  `yaml:"max_response_bytes"`

	AutomaticChecks *bool `yaml:"automatic_checks"`

	Concurrency *int  `yaml:"concurrency"`
	SkipExpired *bool `yaml:"skip_expired"`

	LogLevel *string `yaml:"log_level"`

	Availability *AvailabilityFileConfig `yaml:"availability"`
	RateLimit    *RateLimitFileConfig    `yaml:"rate_limit"`
	Redis        *RedisFileConfig        `yaml:"redis"`
}

// AvailabilityFileConfig mirrors goBreach.AvailabilityConfig.
type AvailabilityFileConfig struct {
	// DisableFor is a Go duration string; "0" keeps checks off until reset.
	DisableFor *string `yaml:"disable_for"`
	Shared     *bool   `yaml:"shared"`
}

// RateLimitFileConfig is the rate_limit section.
type RateLimitFileConfig struct {
	Enabled          *bool   `yaml:"enabled"`
	MaxLookups       *int    `yaml:"max_lookups"`
	MaxLookupsPerIP  *int    `yaml:"max_lookups_per_ip"`
	Window           *string `yaml:"window"`
	EnableIPThrottle *bool   `yaml:"ip_throttle"`
}

// RedisFileConfig selects the Redis used for shared state.
type RedisFileConfig struct {
	Addr     *string `yaml:"addr"`
	Password *string `yaml:"password"`
	DB       *int    `yaml:"db"`
	Prefix   *string `yaml:"prefix"`
}

// LoadFile reads a YAML config file from the provided path.
func LoadFile(path string) (FileConfig, error) {
	var cfg FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// LoadLocal searches dir for .pwncheck.yml, .pwncheck.yaml, pwncheck.yml
// and pwncheck.yaml, in that order.
func LoadLocal(dir string) (FileConfig, error) {
	for _, name := range []string{".pwncheck.yml", ".pwncheck.yaml", "pwncheck.yml", "pwncheck.yaml"} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	return FileConfig{}, ErrNoConfig
}

// LoadGlobal loads $XDG_CONFIG_HOME/pwncheck/config.yml, falling back to
// ~/.config when XDG_CONFIG_HOME is unset.
func LoadGlobal() (FileConfig, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		if home != "" {
			base = filepath.Join(home, ".config")
		}
	}
	if base == "" {
		return FileConfig{}, ErrNoConfig
	}
	p := filepath.Join(base, "pwncheck", "config.yml")
	if _, err := os.Stat(p); err == nil {
		return LoadFile(p)
	}
	return FileConfig{}, ErrNoConfig
}

// Load returns the effective file configuration. An explicit path is used
// alone and must exist. Otherwise the global file is overlaid by the local
// file in dir; both are optional.
func Load(path, dir string) (FileConfig, error) {
	if path != "" {
		return LoadFile(path)
	}

	global, err := LoadGlobal()
	if err != nil && !errors.Is(err, ErrNoConfig) {
		return FileConfig{}, err
	}
	local, err := LoadLocal(dir)
	if err != nil && !errors.Is(err, ErrNoConfig) {
		return FileConfig{}, err
	}
	return Merge(global, local), nil
}

// Merge returns base with every non-nil field of over applied.
func Merge(base, over FileConfig) FileConfig {
	out := base
	setIf(&out.Endpoint, over.Endpoint)
	setIf(&out.UserAgent, over.UserAgent)
	setIf(&out.Padding, over.Padding)
	setIf(&out.Timeout, over.Timeout)
	setIf(&out.MaxResponseBytes, over.MaxResponseBytes)
	setIf(&out.AutomaticChecks, over.AutomaticChecks)
	setIf(&out.Concurrency, over.Concurrency)
	setIf(&out.SkipExpired, over.SkipExpired)
	setIf(&out.LogLevel, over.LogLevel)

	if over.Availability != nil {
		a := AvailabilityFileConfig{}
		if base.Availability != nil {
			a = *base.Availability
		}
		setIf(&a.DisableFor, over.Availability.DisableFor)
		setIf(&a.Shared, over.Availability.Shared)
		out.Availability = &a
	}
	if over.RateLimit != nil {
		r := RateLimitFileConfig{}
		if base.RateLimit != nil {
			r = *base.RateLimit
		}
		setIf(&r.Enabled, over.RateLimit.Enabled)
		setIf(&r.MaxLookups, over.RateLimit.MaxLookups)
		setIf(&r.MaxLookupsPerIP, over.RateLimit.MaxLookupsPerIP)
		setIf(&r.Window, over.RateLimit.Window)
		setIf(&r.EnableIPThrottle, over.RateLimit.EnableIPThrottle)
		out.RateLimit = &r
	}
	if over.Redis != nil {
		r := RedisFileConfig{}
		if base.Redis != nil {
			r = *base.Redis
		}
		setIf(&r.Addr, over.Redis.Addr)
		setIf(&r.Password, over.Redis.Password)
		setIf(&r.DB, over.Redis.DB)
		setIf(&r.Prefix, over.Redis.Prefix)
		out.Redis = &r
	}
	return out
}

func setIf[T any](dst **T, src *T) {
	if src != nil {
		*dst = src
	}
}

// Apply writes the set fields of fc onto cfg. Duration strings that do not
// parse are reported and leave cfg partially updated.
func (fc FileConfig) Apply(cfg *goBreach.Config) error {
	if fc.Endpoint != nil {
		cfg.Client.Endpoint = *fc.Endpoint
	}
	if fc.UserAgent != nil {
		cfg.Client.UserAgent = *fc.UserAgent
	}
	if fc.Padding != nil {
		cfg.Client.Padding = *fc.Padding
	}
	if fc.Timeout != nil {
		d, err := parseDuration("timeout", *fc.Timeout)
		if err != nil {
			return err
		}
		cfg.Client.Timeout = d
	}
	if fc.MaxResponseBytes != nil {
		cfg.Client.MaxResponseBytes = *fc.MaxResponseBytes
	}
	if fc.AutomaticChecks != nil {
		cfg.Automatic.Enabled = *fc.AutomaticChecks
	}
	if fc.Concurrency != nil {
		cfg.Bulk.Concurrency = *fc.Concurrency
	}
	if fc.SkipExpired != nil {
		cfg.Bulk.SkipExpired = *fc.SkipExpired
	}

	if a := fc.Availability; a != nil {
		if a.DisableFor != nil {
			d, err := parseDuration("availability.disable_for", *a.DisableFor)
			if err != nil {
				return err
			}
			cfg.Availability.DisableFor = d
		}
		if a.Shared != nil {
			cfg.Availability.Shared = *a.Shared
		}
	}

	if r := fc.RateLimit; r != nil {
		if r.Enabled != nil {
			cfg.RateLimit.Enabled = *r.Enabled
		}
		if r.MaxLookups != nil {
			cfg.RateLimit.MaxLookups = *r.MaxLookups
		}
		if r.MaxLookupsPerIP != nil {
			cfg.RateLimit.MaxLookupsPerIP = *r.MaxLookupsPerIP
		}
		if r.Window != nil {
			d, err := parseDuration("rate_limit.window", *r.Window)
			if err != nil {
				return err
			}
			cfg.RateLimit.Window = d
		}
		if r.EnableIPThrottle != nil {
			cfg.RateLimit.EnableIPThrottle = *r.EnableIPThrottle
		}
	}

	if fc.Redis != nil && fc.Redis.Prefix != nil {
		cfg.Storage.RedisPrefix = *fc.Redis.Prefix
	}
	return nil
}

func parseDuration(field, s string) (time.Duration, error) {
	if s == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	return d, nil
}
