package secrets

import (
	"context"
	"fmt"
	"strings"
	"time"

	adapterports "github.com/crowdcraft/payments/internal/adapters/ports"
)

// EnvSecretManager implements ports.SecretManager from a static map, used
// when secrets are supplied directly through environment configuration.
// Paths map to values verbatim; slashes are tolerated for parity with the
// cloud providers.
type EnvSecretManager struct {
	values map[string]string
}

// NewEnvSecretManager creates a secret manager over the given values
func NewEnvSecretManager(values map[string]string) *EnvSecretManager {
	return &EnvSecretManager{values: values}
}

// GetSecret returns the configured value for path
func (sm *EnvSecretManager) GetSecret(ctx context.Context, path string) (*adapterports.Secret, error) {
	if value, ok := sm.values[path]; ok && value != "" {
		return &adapterports.Secret{
			Value:     value,
			Version:   "env",
			CreatedAt: time.Now().UTC(),
		}, nil
	}
	return nil, fmt.Errorf("secret %s not configured", strings.TrimSpace(path))
}
