package secrets

import (
	"context"
	"fmt"
	"sync"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"go.uber.org/zap"

	adapterports "github.com/crowdcraft/payments/internal/adapters/ports"
)

// AWSSecretsManagerConfig contains configuration for AWS Secrets Manager
type AWSSecretsManagerConfig struct {
	Region   string
	CacheTTL time.Duration // How long to cache secrets in memory (default: 5 minutes)
}

// DefaultAWSSecretsManagerConfig returns sensible defaults
func DefaultAWSSecretsManagerConfig(region string) *AWSSecretsManagerConfig {
	return &AWSSecretsManagerConfig{
		Region:   region,
		CacheTTL: 5 * time.Minute,
	}
}

type cachedSecret struct {
	secret    *adapterports.Secret
	expiresAt time.Time
}

// AWSSecretsManager implements ports.SecretManager for AWS Secrets Manager.
// Secrets are cached in memory per instance; each replica keeps its own cache.
type AWSSecretsManager struct {
	client   *secretsmanager.Client
	cacheTTL time.Duration
	logger   *zap.Logger

	cache   map[string]*cachedSecret
	cacheMu sync.RWMutex
}

// NewAWSSecretsManager creates a new AWS Secrets Manager adapter.
// Credentials come from the default chain (env vars, shared config, IAM role).
func NewAWSSecretsManager(ctx context.Context, config *AWSSecretsManagerConfig, logger *zap.Logger) (*AWSSecretsManager, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(config.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	sm := &AWSSecretsManager{
		client:   secretsmanager.NewFromConfig(awsCfg),
		cacheTTL: config.CacheTTL,
		logger:   logger,
		cache:    make(map[string]*cachedSecret),
	}

	logger.Info("AWS Secrets Manager initialized",
		zap.String("region", config.Region),
		zap.Duration("cache_ttl", config.CacheTTL),
	)

	return sm, nil
}

// GetSecret retrieves a secret by id with in-memory caching
func (sm *AWSSecretsManager) GetSecret(ctx context.Context, path string) (*adapterports.Secret, error) {
	sm.cacheMu.RLock()
	cached, exists := sm.cache[path]
	sm.cacheMu.RUnlock()

	if exists && time.Now().Before(cached.expiresAt) {
		return cached.secret, nil
	}

	out, err := sm.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: &path,
	})
	if err != nil {
		sm.logger.Error("Failed to fetch secret",
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, fmt.Errorf("get secret %s: %w", path, err)
	}
	if out.SecretString == nil {
		return nil, fmt.Errorf("secret %s has no string value", path)
	}

	secret := &adapterports.Secret{
		Value:   *out.SecretString,
		Version: stringValue(out.VersionId),
	}
	if out.CreatedDate != nil {
		secret.CreatedAt = *out.CreatedDate
	}

	sm.cacheMu.Lock()
	sm.cache[path] = &cachedSecret{
		secret:    secret,
		expiresAt: time.Now().Add(sm.cacheTTL),
	}
	sm.cacheMu.Unlock()

	return secret, nil
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
