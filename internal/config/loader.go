package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/okian/scoutsync/internal/domain/codec"
)

const (
	envPrefix     = "SCOUT_"
	envConfigPath = "SCOUT_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if SCOUT_CONFIG is set
//  3. env (prefix SCOUT_)
func Load(_ context.Context) (*Config, error) {
	k := koanf.New(".")

	if path := os.Getenv(envConfigPath); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// SCOUT_POLL_INTERVAL_MS -> poll_interval_ms. Underscores are kept so the
	// flat keys match the koanf tags; list values are comma separated.
	envProvider := env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.TrimPrefix(strings.ToLower(key), strings.ToLower(envPrefix))
		if key == "config" {
			return "", nil
		}
		switch key {
		case "cors_origins":
			return key, splitList(value)
		case "metrics_labels":
			return key, splitPairs(value)
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *New()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch {
	case c.LogFormat != "auto" && c.LogFormat != "text" && c.LogFormat != "json":
		return invalid("log_format must be auto, text or json, got %q", c.LogFormat)
	case c.Addr == "":
		return invalid("addr must not be empty")
	case c.PollIntervalMS <= 0:
		return invalid("poll_interval_ms must be positive, got %d", c.PollIntervalMS)
	case c.HealthTimeoutMS <= 0:
		return invalid("health_timeout_ms must be positive, got %d", c.HealthTimeoutMS)
	case c.RequestTimeoutMS <= 0:
		return invalid("request_timeout_ms must be positive, got %d", c.RequestTimeoutMS)
	case c.QRMaxBytes <= 0:
		return invalid("qr_max_bytes must be positive, got %d", c.QRMaxBytes)
	case c.QRMaxBytes > codec.MaxQRBytes:
		return invalid("qr_max_bytes must be at most %d, got %d", codec.MaxQRBytes, c.QRMaxBytes)
	}
	u, err := url.Parse(c.ServerURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return invalid("server_url %q is not an absolute URL", c.ServerURL)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func splitPairs(v string) map[string]interface{} {
	out := map[string]interface{}{}
	for _, p := range splitList(v) {
		k, val, ok := strings.Cut(p, "=")
		if k = strings.TrimSpace(k); ok && k != "" {
			out[k] = strings.TrimSpace(val)
		}
	}
	return out
}
