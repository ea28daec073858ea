// Package config builds the process wide gateway configuration from the
// environment. The resulting Config value is immutable and handed into
// constructors; nothing reads the environment after startup.
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/viper"
)

// Mode selects the dispatch strategy served on the GraphQL endpoint.
type Mode string

const (
	// ModeProxy forwards the raw request body to whichever backend the
	// classifier picks.
	ModeProxy Mode = "proxy"
	// ModeStitch executes the unified schema and forwards one fixed
	// sub-query per resolved field.
	ModeStitch Mode = "stitch"
)

const (
	defaultAuthServiceURL     = "http://localhost:4001/graphql"
	defaultProductsServiceURL = "http://localhost:4002/graphql"
	defaultPort               = 4000
	defaultUpstreamTimeout    = 10 * time.Second
)

type Config struct {
	AuthServiceURL     string
	ProductsServiceURL string
	Port               int
	Mode               Mode
	UpstreamTimeout    time.Duration
}

// Load reads the configuration from the process environment, applying the
// documented defaults for anything unset.
func Load() (Config, error) {
	v := viper.New()
	v.SetDefault("AUTH_SERVICE_URL", defaultAuthServiceURL)
	v.SetDefault("PRODUCTS_SERVICE_URL", defaultProductsServiceURL)
	v.SetDefault("PORT", defaultPort)
	v.SetDefault("GATEWAY_MODE", string(ModeStitch))
	v.SetDefault("UPSTREAM_TIMEOUT", defaultUpstreamTimeout)
	v.AutomaticEnv()

	cfg := Config{
		AuthServiceURL:     v.GetString("AUTH_SERVICE_URL"),
		ProductsServiceURL: v.GetString("PRODUCTS_SERVICE_URL"),
		Port:               v.GetInt("PORT"),
		Mode:               Mode(v.GetString("GATEWAY_MODE")),
		UpstreamTimeout:    v.GetDuration("UPSTREAM_TIMEOUT"),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	for name, raw := range map[string]string{
		"AUTH_SERVICE_URL":     c.AuthServiceURL,
		"PRODUCTS_SERVICE_URL": c.ProductsServiceURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("config: %s is not a valid URL: %q", name, raw)
		}
	}
	switch c.Mode {
	case ModeProxy, ModeStitch:
	default:
		return fmt.Errorf("config: unknown GATEWAY_MODE %q", c.Mode)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: invalid PORT %d", c.Port)
	}
	if c.UpstreamTimeout <= 0 {
		return fmt.Errorf("config: UPSTREAM_TIMEOUT must be positive, got %s", c.UpstreamTimeout)
	}
	return nil
}

// Addr is the listen address derived from Port.
func (c Config) Addr() string {
	return fmt.Sprintf("0.0.0.0:%d", c.Port)
}
