package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/integrationcmi/cmi/internal/adapters/cmi"
	"github.com/integrationcmi/cmi/internal/adapters/ports"
	"github.com/integrationcmi/cmi/internal/domain"
)

// Config holds all application configuration
type Config struct {
	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:"0.0.0.0:8080"`
	MetricsAddr     string        `envconfig:"METRICS_ADDR" default:"0.0.0.0:9090"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	Environment     string        `envconfig:"ENVIRONMENT" default:"production"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`

	// DatabaseURL enables the payment ledger when set
	DatabaseURL string `envconfig:"DATABASE_URL"`
	DBMaxConns  int32  `envconfig:"DB_MAX_CONNS" default:"10"`

	// RedisURL enables the callback replay guard when set
	RedisURL         string        `envconfig:"REDIS_URL"`
	CallbackDedupTTL time.Duration `envconfig:"CALLBACK_DEDUP_TTL" default:"24h"`

	// CallbackAllowedCIDRs restricts the callback route; empty allows all
	CallbackAllowedCIDRs []string `envconfig:"CMI_CALLBACK_ALLOWED_CIDRS"`
	TrustedProxies       []string `envconfig:"TRUSTED_PROXIES"`

	CheckoutRateLimit float64 `envconfig:"CHECKOUT_RATE_LIMIT" default:"10"`
	CheckoutRateBurst int     `envconfig:"CHECKOUT_RATE_BURST" default:"20"`
	CallbackRateLimit float64 `envconfig:"CALLBACK_RATE_LIMIT" default:"50"`
	CallbackRateBurst int     `envconfig:"CALLBACK_RATE_BURST" default:"100"`

	Gateway GatewayConfig `envconfig:"CMI"`

	SecretsConfig
}

// GatewayConfig holds the CMI merchant settings, read from CMI_* variables
type GatewayConfig struct {
	ClientID   string `envconfig:"CLIENT_ID"`
	GatewayURL string `envconfig:"GATEWAY_URL" default:"https://testpayment.cmi.co.ma/fim/est3Dgate"`
	ShopURL    string `envconfig:"SHOP_URL"`

	// CallbackURL is sent to the gateway as callbackURL when set
	CallbackURL string `envconfig:"CALLBACK_URL"`

	StoreType        string `envconfig:"STORE_TYPE" default:"3d_pay_hosting"`
	TranType         string `envconfig:"TRAN_TYPE" default:"PreAuth"`
	ConfirmationMode string `envconfig:"CONFIRMATION_MODE" default:"auto"`

	// Exactly one of StoreKey or StoreKeySecret is expected
	StoreKey        string `envconfig:"STORE_KEY"`
	StoreKeySecret  string `envconfig:"STORE_KEY_SECRET"`
	StoreKeyVersion string `envconfig:"STORE_KEY_VERSION"`
}

// SecretsConfig selects and configures the secret manager used to resolve
// CMI_STORE_KEY_SECRET.
type SecretsConfig struct {
	SecretManager  string        `envconfig:"SECRET_MANAGER" default:"local"`
	SecretCacheTTL time.Duration `envconfig:"SECRET_CACHE_TTL" default:"5m"`

	LocalSecretsPath string `envconfig:"LOCAL_SECRETS_PATH" default:"./secrets"`

	AWSRegion          string `envconfig:"AWS_REGION" default:"eu-west-3"`
	AWSProfile         string `envconfig:"AWS_PROFILE"`
	AWSSecretsEndpoint string `envconfig:"AWS_SECRETS_ENDPOINT"`

	VaultAddr          string `envconfig:"VAULT_ADDR"`
	VaultAuthMethod    string `envconfig:"VAULT_AUTH_METHOD" default:"token"`
	VaultToken         string `envconfig:"VAULT_TOKEN"`
	VaultRoleID        string `envconfig:"VAULT_ROLE_ID"`
	VaultSecretID      string `envconfig:"VAULT_SECRET_ID"`
	VaultNamespace     string `envconfig:"VAULT_NAMESPACE"`
	VaultMountPath     string `envconfig:"VAULT_MOUNT_PATH" default:"secret"`
	VaultKVVersion     string `envconfig:"VAULT_KV_VERSION" default:"v2"`
	VaultTLSSkipVerify bool   `envconfig:"VAULT_TLS_SKIP_VERIFY"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks service-level settings. Gateway settings are validated by
// GatewayConfigFor once the store key is known.
func (c *Config) Validate() error {
	if c.CheckoutRateLimit <= 0 || c.CallbackRateLimit <= 0 {
		return domain.NewConfigurationError("rateLimit", "rate limits must be positive")
	}
	if c.CheckoutRateBurst < 1 || c.CallbackRateBurst < 1 {
		return domain.NewConfigurationError("rateBurst", "rate bursts must be at least 1")
	}
	if c.ShutdownTimeout <= 0 {
		return domain.NewConfigurationError("shutdownTimeout", "SHUTDOWN_TIMEOUT must be positive")
	}

	switch strings.ToLower(c.SecretManager) {
	case "local", "aws", "vault":
		c.SecretManager = strings.ToLower(c.SecretManager)
	default:
		return domain.NewConfigurationError("secretManager", "SECRET_MANAGER must be local, aws or vault")
	}

	if c.Gateway.StoreKey == "" && c.Gateway.StoreKeySecret == "" {
		return domain.NewConfigurationError("storeKey", "CMI_STORE_KEY or CMI_STORE_KEY_SECRET is required")
	}
	return nil
}

// IsDevelopment reports whether the service runs in a development environment
func (c *Config) IsDevelopment() bool {
	switch strings.ToLower(c.Environment) {
	case "development", "dev", "local":
		return true
	}
	return false
}

// NeedsSecretManager reports whether the store key must be fetched from a secret store
func (c *Config) NeedsSecretManager() bool {
	return c.Gateway.StoreKey == "" && c.Gateway.StoreKeySecret != ""
}

// ResolveStoreKey returns CMI_STORE_KEY, or reads CMI_STORE_KEY_SECRET
// (optionally pinned to CMI_STORE_KEY_VERSION) from the secret manager.
func (c *Config) ResolveStoreKey(ctx context.Context, secrets ports.SecretManagerAdapter) (string, error) {
	if c.Gateway.StoreKey != "" {
		return c.Gateway.StoreKey, nil
	}
	if c.Gateway.StoreKeySecret == "" {
		return "", domain.NewConfigurationError("storeKey", "CMI_STORE_KEY or CMI_STORE_KEY_SECRET is required")
	}
	if secrets == nil {
		return "", domain.NewConfigurationError("storeKey", "no secret manager configured for CMI_STORE_KEY_SECRET")
	}

	var (
		secret *ports.Secret
		err    error
	)
	if c.Gateway.StoreKeyVersion != "" {
		secret, err = secrets.GetSecretVersion(ctx, c.Gateway.StoreKeySecret, c.Gateway.StoreKeyVersion)
	} else {
		secret, err = secrets.GetSecret(ctx, c.Gateway.StoreKeySecret)
	}
	if err != nil {
		return "", fmt.Errorf("resolve store key: %w", err)
	}
	if strings.TrimSpace(secret.Value) == "" {
		return "", domain.NewConfigurationError("storeKey", "store key secret is empty")
	}
	return secret.Value, nil
}

// GatewayConfigFor builds and validates the immutable gateway configuration
// shared by the signer, verifier and form renderer.
func (c *Config) GatewayConfigFor(storeKey string) (*cmi.Config, error) {
	gw := cmi.DefaultConfig()
	gw.ClientID = strings.TrimSpace(c.Gateway.ClientID)
	gw.StoreKey = storeKey
	gw.GatewayURL = strings.TrimSpace(c.Gateway.GatewayURL)
	gw.ShopURL = strings.TrimSpace(c.Gateway.ShopURL)
	gw.CallbackURL = strings.TrimSpace(c.Gateway.CallbackURL)
	if c.Gateway.StoreType != "" {
		gw.StoreType = domain.StoreType(c.Gateway.StoreType)
	}
	if c.Gateway.TranType != "" {
		gw.TranType = domain.TranType(c.Gateway.TranType)
	}
	gw.ConfirmationMode = domain.ConfirmationMode(c.Gateway.ConfirmationMode)

	if err := gw.Validate(); err != nil {
		return nil, err
	}
	return gw, nil
}
