package ports

import (
	"context"
	"errors"
)

// ErrSecretNotFound is returned when a backend has no secret at the given path.
var ErrSecretNotFound = errors.New("secret not found")

// Secret represents a retrieved secret
type Secret struct {
	Value     string // The secret value (e.g., the CMI store key)
	Version   string // Backend version identifier
	CreatedAt string // RFC3339 creation time when the backend reports one
}

// SecretManagerAdapter defines the port for reading secrets from a secret store.
// Backends: local filesystem, AWS Secrets Manager, HashiCorp Vault.
// Implementations cache reads and must be safe for concurrent use.
type SecretManagerAdapter interface {
	// GetSecret retrieves the current version of a secret by its path/name
	GetSecret(ctx context.Context, path string) (*Secret, error)

	// GetSecretVersion retrieves a specific version of a secret
	GetSecretVersion(ctx context.Context, path, version string) (*Secret, error)
}
