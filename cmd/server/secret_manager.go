package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/integrationcmi/cmi/internal/adapters/ports"
	"github.com/integrationcmi/cmi/internal/adapters/secrets"
	"github.com/integrationcmi/cmi/internal/config"
)

// initSecretManager initializes the secret manager selected by SECRET_MANAGER:
//   - local: files under LOCAL_SECRETS_PATH (development only)
//   - aws: AWS Secrets Manager in AWS_REGION
//   - vault: HashiCorp Vault at VAULT_ADDR
func initSecretManager(ctx context.Context, cfg *config.Config, logger *zap.Logger) ports.SecretManagerAdapter {
	switch cfg.SecretManager {
	case "aws":
		awsCfg := secrets.DefaultAWSSecretsManagerConfig(cfg.AWSRegion)
		awsCfg.Profile = cfg.AWSProfile
		awsCfg.Endpoint = cfg.AWSSecretsEndpoint
		awsCfg.CacheTTL = cfg.SecretCacheTTL

		sm, err := secrets.NewAWSSecretsManagerAdapter(ctx, awsCfg, logger)
		if err != nil {
			logger.Fatal("Failed to initialize AWS Secrets Manager",
				zap.Error(err),
				zap.String("region", cfg.AWSRegion),
			)
		}
		return sm

	case "vault":
		if cfg.VaultAddr == "" {
			logger.Fatal("VAULT_ADDR is required when SECRET_MANAGER=vault")
		}
		vaultCfg := secrets.DefaultVaultConfig(cfg.VaultAddr)
		vaultCfg.AuthMethod = cfg.VaultAuthMethod
		vaultCfg.Token = cfg.VaultToken
		vaultCfg.RoleID = cfg.VaultRoleID
		vaultCfg.SecretID = cfg.VaultSecretID
		vaultCfg.Namespace = cfg.VaultNamespace
		vaultCfg.MountPath = cfg.VaultMountPath
		vaultCfg.KVVersion = cfg.VaultKVVersion
		vaultCfg.CacheTTL = cfg.SecretCacheTTL
		vaultCfg.TLSSkipVerify = cfg.VaultTLSSkipVerify

		sm, err := secrets.NewVaultAdapter(ctx, vaultCfg, logger)
		if err != nil {
			logger.Fatal("Failed to initialize Vault secret manager",
				zap.Error(err),
				zap.String("address", cfg.VaultAddr),
			)
		}
		return sm

	default:
		logger.Warn("Using LOCAL secret manager - NOT for production use!",
			zap.String("path", cfg.LocalSecretsPath),
		)
		return secrets.NewLocalSecretManager(cfg.LocalSecretsPath, logger)
	}
}
