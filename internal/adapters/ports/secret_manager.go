package ports

import (
	"context"
	"time"
)

// Secret represents a retrieved secret with metadata
type Secret struct {
	Value     string
	Version   string
	CreatedAt time.Time
}

// SecretManager defines the port for retrieving secrets from a secret
// management service. Supported backends: AWS Secrets Manager, HashiCorp
// Vault, local environment (development).
//
// Implementations are responsible for authentication with the backend and
// for caching secrets appropriately.
type SecretManager interface {
	// GetSecret retrieves a secret by its path/name.
	// Path format depends on the backend:
	//   - AWS:   "payments/stripe/api-key"
	//   - Vault: "payments/stripe" (key "api-key" inside the KV entry)
	//   - Local: environment variable name
	GetSecret(ctx context.Context, path string) (*Secret, error)
}
