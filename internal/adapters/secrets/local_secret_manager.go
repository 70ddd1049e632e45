package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/integrationcmi/cmi/internal/adapters/ports"
	"go.uber.org/zap"
)

// localSecretManager implements SecretManagerAdapter using local filesystem
// WARNING: This is for development only. Use AWS Secrets Manager or Vault in production.
type localSecretManager struct {
	basePath string
	logger   *zap.Logger
}

// NewLocalSecretManager creates a new local filesystem secret manager.
// A secret at path "cmi/store-key" is read from <basePath>/cmi/store-key, and
// version "2" of it from <basePath>/cmi/store-key.2.
func NewLocalSecretManager(basePath string, logger *zap.Logger) ports.SecretManagerAdapter {
	return &localSecretManager{
		basePath: basePath,
		logger:   logger,
	}
}

// GetSecret retrieves a secret from the local filesystem
func (m *localSecretManager) GetSecret(ctx context.Context, secretPath string) (*ports.Secret, error) {
	return m.read(secretPath, "")
}

// GetSecretVersion retrieves a versioned secret file
func (m *localSecretManager) GetSecretVersion(ctx context.Context, secretPath, version string) (*ports.Secret, error) {
	if version == "" || strings.ContainsAny(version, `/\`) {
		return nil, fmt.Errorf("invalid secret version %q", version)
	}
	return m.read(secretPath, version)
}

func (m *localSecretManager) read(secretPath, version string) (*ports.Secret, error) {
	filePath, err := m.resolve(secretPath)
	if err != nil {
		return nil, err
	}
	if version != "" {
		filePath += "." + version
	}

	m.logger.Debug("Reading secret from filesystem",
		zap.String("path", secretPath),
		zap.String("version", version),
	)

	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ports.ErrSecretNotFound, secretPath)
		}
		return nil, fmt.Errorf("failed to read secret: %w", err)
	}

	secret := &ports.Secret{Version: version}
	if secret.Version == "" {
		secret.Version = "v1"
	}

	// Support both plain text and JSON format
	var secretData struct {
		Value     string `json:"value"`
		CreatedAt string `json:"created_at"`
	}
	if err := json.Unmarshal(data, &secretData); err == nil && secretData.Value != "" {
		secret.Value = secretData.Value
		secret.CreatedAt = secretData.CreatedAt
		return secret, nil
	}

	secret.Value = strings.TrimRight(string(data), "\r\n")
	if secret.Value == "" {
		return nil, fmt.Errorf("secret %s is empty", secretPath)
	}
	return secret, nil
}

// resolve keeps lookups inside basePath.
func (m *localSecretManager) resolve(secretPath string) (string, error) {
	clean := filepath.Clean("/" + secretPath)
	if clean == "/" {
		return "", fmt.Errorf("invalid secret path %q", secretPath)
	}
	return filepath.Join(m.basePath, clean), nil
}
