package secrets

import (
	"context"
	"fmt"
	"time"

	vault "github.com/hashicorp/vault/api"
	"go.uber.org/zap"

	adapterports "github.com/crowdcraft/payments/internal/adapters/ports"
)

// VaultConfig contains configuration for HashiCorp Vault
type VaultConfig struct {
	Address string
	Token   string

	// MountPath is the KV v2 mount the secrets live under
	MountPath string
}

// VaultSecretManager implements ports.SecretManager backed by a Vault KV v2
// engine. Values are stored under the "value" key of each secret.
type VaultSecretManager struct {
	client    *vault.Client
	mountPath string
	logger    *zap.Logger
}

// NewVaultSecretManager creates a new Vault adapter
func NewVaultSecretManager(config *VaultConfig, logger *zap.Logger) (*VaultSecretManager, error) {
	vaultCfg := vault.DefaultConfig()
	vaultCfg.Address = config.Address

	client, err := vault.NewClient(vaultCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	client.SetToken(config.Token)

	mount := config.MountPath
	if mount == "" {
		mount = "secret"
	}

	logger.Info("Vault secret manager initialized",
		zap.String("address", config.Address),
		zap.String("mount", mount),
	)

	return &VaultSecretManager{
		client:    client,
		mountPath: mount,
		logger:    logger,
	}, nil
}

// GetSecret retrieves a secret from the KV v2 engine
func (sm *VaultSecretManager) GetSecret(ctx context.Context, path string) (*adapterports.Secret, error) {
	kv, err := sm.client.KVv2(sm.mountPath).Get(ctx, path)
	if err != nil {
		sm.logger.Error("Failed to fetch secret",
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, fmt.Errorf("get secret %s: %w", path, err)
	}

	value, ok := kv.Data["value"].(string)
	if !ok {
		return nil, fmt.Errorf("secret %s has no string value", path)
	}

	secret := &adapterports.Secret{
		Value:   value,
		Version: fmt.Sprintf("%d", kv.VersionMetadata.Version),
	}
	if !kv.VersionMetadata.CreatedTime.IsZero() {
		secret.CreatedAt = kv.VersionMetadata.CreatedTime.UTC()
	} else {
		secret.CreatedAt = time.Now().UTC()
	}

	return secret, nil
}
