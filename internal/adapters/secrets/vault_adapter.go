package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	vault "github.com/hashicorp/vault/api"
	"github.com/integrationcmi/cmi/internal/adapters/ports"
	pkghttp "github.com/integrationcmi/cmi/pkg/http"
	"go.uber.org/zap"
)

// VaultConfig contains configuration for HashiCorp Vault adapter
type VaultConfig struct {
	// Vault server address (e.g., "https://vault.example.com:8200")
	Address string

	// Authentication method: "token" or "approle"
	AuthMethod string

	// Token for token authentication
	Token string

	// AppRole credentials
	RoleID   string
	SecretID string

	// Vault namespace (Vault Enterprise)
	Namespace string

	// KV secrets engine mount path (default: "secret")
	MountPath string

	// KV version: "v1" or "v2" (default: "v2")
	KVVersion string

	// Cache TTL; zero disables caching
	CacheTTL time.Duration

	TLSSkipVerify bool
}

// DefaultVaultConfig returns default configuration for Vault adapter
func DefaultVaultConfig(address string) *VaultConfig {
	return &VaultConfig{
		Address:    address,
		AuthMethod: "token",
		MountPath:  "secret",
		KVVersion:  "v2",
		CacheTTL:   DefaultCacheTTL,
	}
}

type vaultAdapter struct {
	client *vault.Client
	config *VaultConfig
	logger *zap.Logger
	cache  *secretCache
}

// NewVaultAdapter creates a new HashiCorp Vault adapter and authenticates it
func NewVaultAdapter(ctx context.Context, cfg *VaultConfig, logger *zap.Logger) (ports.SecretManagerAdapter, error) {
	vaultConfig := vault.DefaultConfig()
	vaultConfig.Address = cfg.Address
	vaultConfig.HttpClient.Transport = pkghttp.NewTransport(pkghttp.SecretStoreClientConfig())

	if cfg.TLSSkipVerify {
		if err := vaultConfig.ConfigureTLS(&vault.TLSConfig{Insecure: true}); err != nil {
			return nil, fmt.Errorf("failed to configure TLS: %w", err)
		}
	}

	client, err := vault.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}

	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	}

	if err := authenticateVault(ctx, client, cfg); err != nil {
		return nil, fmt.Errorf("failed to authenticate with Vault: %w", err)
	}

	logger.Info("Vault adapter initialized",
		zap.String("address", cfg.Address),
		zap.String("auth_method", cfg.AuthMethod),
		zap.String("mount_path", cfg.MountPath),
		zap.String("kv_version", cfg.KVVersion),
	)

	return &vaultAdapter{
		client: client,
		config: cfg,
		logger: logger,
		cache:  newSecretCache(cfg.CacheTTL),
	}, nil
}

func authenticateVault(ctx context.Context, client *vault.Client, cfg *VaultConfig) error {
	switch cfg.AuthMethod {
	case "", "token":
		if cfg.Token == "" {
			return fmt.Errorf("token is required for token auth")
		}
		client.SetToken(cfg.Token)
		return nil

	case "approle":
		if cfg.RoleID == "" || cfg.SecretID == "" {
			return fmt.Errorf("role_id and secret_id are required for AppRole auth")
		}

		resp, err := client.Logical().WriteWithContext(ctx, "auth/approle/login", map[string]interface{}{
			"role_id":   cfg.RoleID,
			"secret_id": cfg.SecretID,
		})
		if err != nil {
			return fmt.Errorf("AppRole login failed: %w", err)
		}
		if resp == nil || resp.Auth == nil {
			return fmt.Errorf("AppRole login returned no auth info")
		}
		client.SetToken(resp.Auth.ClientToken)
		return nil

	default:
		return fmt.Errorf("unsupported auth method: %s", cfg.AuthMethod)
	}
}

// GetSecret retrieves the current version of a secret.
// The value is read from the "value" key of the stored data.
func (a *vaultAdapter) GetSecret(ctx context.Context, path string) (*ports.Secret, error) {
	if cached, ok := a.cache.get(path); ok {
		a.logger.Debug("Secret retrieved from cache", zap.String("path", path))
		return cached, nil
	}

	startTime := time.Now()
	raw, err := a.client.Logical().ReadWithContext(ctx, a.dataPath(path))
	if err != nil {
		a.logger.Error("Failed to retrieve secret from Vault",
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to read secret from Vault: %w", err)
	}

	secret, err := a.parse(raw)
	if err != nil {
		return nil, fmt.Errorf("secret %s: %w", path, err)
	}

	a.logger.Info("Secret retrieved from Vault",
		zap.String("path", path),
		zap.String("version", secret.Version),
		zap.Duration("elapsed", time.Since(startTime)),
	)

	a.cache.set(path, secret)
	return secret, nil
}

// GetSecretVersion retrieves a specific version of a secret (KV v2 only)
func (a *vaultAdapter) GetSecretVersion(ctx context.Context, path, version string) (*ports.Secret, error) {
	if !a.isKV2() {
		return nil, fmt.Errorf("GetSecretVersion requires KV v2")
	}

	raw, err := a.client.Logical().ReadWithDataWithContext(ctx, a.dataPath(path), map[string][]string{
		"version": {version},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read secret version: %w", err)
	}

	secret, err := a.parse(raw)
	if err != nil {
		return nil, fmt.Errorf("secret %s version %s: %w", path, version, err)
	}
	return secret, nil
}

func (a *vaultAdapter) isKV2() bool {
	return a.config.KVVersion == "" || a.config.KVVersion == "v2"
}

func (a *vaultAdapter) dataPath(path string) string {
	mount := strings.Trim(a.config.MountPath, "/")
	if mount == "" {
		mount = "secret"
	}
	path = strings.TrimPrefix(path, "/")
	if a.isKV2() {
		return fmt.Sprintf("%s/data/%s", mount, path)
	}
	return fmt.Sprintf("%s/%s", mount, path)
}

func (a *vaultAdapter) parse(raw *vault.Secret) (*ports.Secret, error) {
	if raw == nil || raw.Data == nil {
		return nil, ports.ErrSecretNotFound
	}

	data := raw.Data
	result := &ports.Secret{Version: "1"}

	if a.isKV2() {
		inner, ok := raw.Data["data"].(map[string]interface{})
		if !ok {
			// deleted or destroyed versions come back with null data
			return nil, ports.ErrSecretNotFound
		}
		data = inner

		if metadata, ok := raw.Data["metadata"].(map[string]interface{}); ok {
			switch v := metadata["version"].(type) {
			case json.Number:
				result.Version = v.String()
			case float64:
				result.Version = fmt.Sprintf("%.0f", v)
			}
			if ct, ok := metadata["created_time"].(string); ok {
				result.CreatedAt = ct
			}
		}
	}

	value, ok := data["value"].(string)
	if !ok || value == "" {
		return nil, fmt.Errorf("secret has no \"value\" key")
	}
	result.Value = value
	return result, nil
}
