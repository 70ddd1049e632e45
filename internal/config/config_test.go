package config

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/integrationcmi/cmi/internal/adapters/ports"
	"github.com/integrationcmi/cmi/internal/domain"
)

func setGatewayEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CMI_CLIENT_ID", "600000000")
	t.Setenv("CMI_SHOP_URL", "https://shop.example.ma")
	t.Setenv("CMI_STORE_KEY", "TEST1234")
}

func TestLoad_Defaults(t *testing.T) {
	setGatewayEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.HTTPAddr)
	assert.Equal(t, "0.0.0.0:9090", cfg.MetricsAddr)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 24*time.Hour, cfg.CallbackDedupTTL)
	assert.Equal(t, "local", cfg.SecretManager)
	assert.Equal(t, "https://testpayment.cmi.co.ma/fim/est3Dgate", cfg.Gateway.GatewayURL)
	assert.Equal(t, "PreAuth", cfg.Gateway.TranType)
	assert.Equal(t, "600000000", cfg.Gateway.ClientID)
	assert.False(t, cfg.IsDevelopment())
	assert.False(t, cfg.NeedsSecretManager())
}

func TestLoad_Lists(t *testing.T) {
	setGatewayEnv(t)
	t.Setenv("CMI_CALLBACK_ALLOWED_CIDRS", "196.200.0.0/16,10.0.0.1")
	t.Setenv("TRUSTED_PROXIES", "127.0.0.1")
	t.Setenv("ENVIRONMENT", "development")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"196.200.0.0/16", "10.0.0.1"}, cfg.CallbackAllowedCIDRs)
	assert.Equal(t, []string{"127.0.0.1"}, cfg.TrustedProxies)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		field string
	}{
		{"no store key", map[string]string{"CMI_STORE_KEY": ""}, "storeKey"},
		{"bad secret manager", map[string]string{"SECRET_MANAGER": "gcp"}, "secretManager"},
		{"zero rate", map[string]string{"CALLBACK_RATE_LIMIT": "0"}, "rateLimit"},
		{"zero burst", map[string]string{"CHECKOUT_RATE_BURST": "0"}, "rateBurst"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setGatewayEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)
			assert.True(t, domain.IsConfigurationError(err))
			assert.Equal(t, tt.field, domain.GetErrorField(err))
		})
	}

	t.Run("unparsable duration", func(t *testing.T) {
		setGatewayEnv(t)
		t.Setenv("SHUTDOWN_TIMEOUT", "soon")
		_, err := Load()
		assert.ErrorContains(t, err, "config:")
	})
}

func TestGatewayConfigFor(t *testing.T) {
	setGatewayEnv(t)
	t.Setenv("CMI_STORE_TYPE", "3D_PAY_HOSTING")
	t.Setenv("CMI_CONFIRMATION_MODE", "MANUAL")
	t.Setenv("CMI_CALLBACK_URL", "https://shop.example.ma/cmi/callback")

	cfg, err := Load()
	require.NoError(t, err)

	gw, err := cfg.GatewayConfigFor("TEST1234")
	require.NoError(t, err)
	assert.Equal(t, domain.StoreType3DPayHosting, gw.StoreType)
	assert.Equal(t, domain.TranType("PreAuth"), gw.TranType)
	assert.Equal(t, domain.ConfirmationModeManual, gw.ConfirmationMode)
	assert.Equal(t, "https://shop.example.ma/cmi/callback", gw.CallbackURL)
	assert.Equal(t, "TEST1234", gw.StoreKey)
}

func TestGatewayConfigFor_Invalid(t *testing.T) {
	setGatewayEnv(t)
	t.Setenv("CMI_CLIENT_ID", "merchant-1")

	cfg, err := Load()
	require.NoError(t, err)

	_, err = cfg.GatewayConfigFor("TEST1234")
	require.Error(t, err)
	assert.True(t, domain.IsConfigurationError(err))
	assert.Equal(t, "clientId", domain.GetErrorField(err))
}

type mockSecrets struct {
	mock.Mock
}

func (m *mockSecrets) GetSecret(ctx context.Context, path string) (*ports.Secret, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.Secret), args.Error(1)
}

func (m *mockSecrets) GetSecretVersion(ctx context.Context, path, version string) (*ports.Secret, error) {
	args := m.Called(ctx, path, version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.Secret), args.Error(1)
}

func TestResolveStoreKey(t *testing.T) {
	ctx := context.Background()

	t.Run("direct key wins", func(t *testing.T) {
		cfg := &Config{Gateway: GatewayConfig{StoreKey: "DIRECT", StoreKeySecret: "cmi/store-key"}}
		key, err := cfg.ResolveStoreKey(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, "DIRECT", key)
	})

	t.Run("current secret", func(t *testing.T) {
		sm := new(mockSecrets)
		sm.On("GetSecret", ctx, "cmi/store-key").Return(&ports.Secret{Value: "FROMSTORE"}, nil)

		cfg := &Config{Gateway: GatewayConfig{StoreKeySecret: "cmi/store-key"}}
		assert.True(t, cfg.NeedsSecretManager())
		key, err := cfg.ResolveStoreKey(ctx, sm)
		require.NoError(t, err)
		assert.Equal(t, "FROMSTORE", key)
		sm.AssertExpectations(t)
	})

	t.Run("pinned version", func(t *testing.T) {
		sm := new(mockSecrets)
		sm.On("GetSecretVersion", ctx, "cmi/store-key", "4").Return(&ports.Secret{Value: "V4", Version: "4"}, nil)

		cfg := &Config{Gateway: GatewayConfig{StoreKeySecret: "cmi/store-key", StoreKeyVersion: "4"}}
		key, err := cfg.ResolveStoreKey(ctx, sm)
		require.NoError(t, err)
		assert.Equal(t, "V4", key)
	})

	t.Run("lookup failure", func(t *testing.T) {
		sm := new(mockSecrets)
		sm.On("GetSecret", ctx, "cmi/store-key").Return(nil, ports.ErrSecretNotFound)

		cfg := &Config{Gateway: GatewayConfig{StoreKeySecret: "cmi/store-key"}}
		_, err := cfg.ResolveStoreKey(ctx, sm)
		assert.True(t, errors.Is(err, ports.ErrSecretNotFound))
	})

	t.Run("empty secret", func(t *testing.T) {
		sm := new(mockSecrets)
		sm.On("GetSecret", ctx, "cmi/store-key").Return(&ports.Secret{Value: "  "}, nil)

		cfg := &Config{Gateway: GatewayConfig{StoreKeySecret: "cmi/store-key"}}
		_, err := cfg.ResolveStoreKey(ctx, sm)
		assert.True(t, domain.IsConfigurationError(err))
	})

	t.Run("no manager", func(t *testing.T) {
		cfg := &Config{Gateway: GatewayConfig{StoreKeySecret: "cmi/store-key"}}
		_, err := cfg.ResolveStoreKey(ctx, nil)
		assert.True(t, domain.IsConfigurationError(err))
	})
}
