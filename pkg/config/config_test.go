package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:4001/graphql", cfg.AuthServiceURL)
	assert.Equal(t, "http://localhost:4002/graphql", cfg.ProductsServiceURL)
	assert.Equal(t, 4000, cfg.Port)
	assert.Equal(t, ModeStitch, cfg.Mode)
	assert.Equal(t, 10*time.Second, cfg.UpstreamTimeout)
	assert.Equal(t, "0.0.0.0:4000", cfg.Addr())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("AUTH_SERVICE_URL", "http://auth.internal:8081/graphql")
	t.Setenv("PRODUCTS_SERVICE_URL", "http://products.internal:8082/graphql")
	t.Setenv("PORT", "9000")
	t.Setenv("GATEWAY_MODE", "proxy")
	t.Setenv("UPSTREAM_TIMEOUT", "3s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://auth.internal:8081/graphql", cfg.AuthServiceURL)
	assert.Equal(t, "http://products.internal:8082/graphql", cfg.ProductsServiceURL)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, ModeProxy, cfg.Mode)
	assert.Equal(t, 3*time.Second, cfg.UpstreamTimeout)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Run("bad url", func(t *testing.T) {
		t.Setenv("AUTH_SERVICE_URL", "not a url")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("unknown mode", func(t *testing.T) {
		t.Setenv("GATEWAY_MODE", "federate")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("bad port", func(t *testing.T) {
		t.Setenv("PORT", "-1")
		_, err := Load()
		assert.Error(t, err)
	})
}
