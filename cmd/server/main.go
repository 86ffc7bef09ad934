package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/crowdcraft/payments/internal/adapters/logging"
	adapterports "github.com/crowdcraft/payments/internal/adapters/ports"
	"github.com/crowdcraft/payments/internal/adapters/postgres"
	"github.com/crowdcraft/payments/internal/adapters/secrets"
	"github.com/crowdcraft/payments/internal/adapters/stripe"
	"github.com/crowdcraft/payments/internal/config"
	cronHandler "github.com/crowdcraft/payments/internal/handlers/cron"
	paymentHandler "github.com/crowdcraft/payments/internal/handlers/payment"
	"github.com/crowdcraft/payments/internal/middleware"
	paymentService "github.com/crowdcraft/payments/internal/services/payment"
	payoutService "github.com/crowdcraft/payments/internal/services/payout"
	pkghttp "github.com/crowdcraft/payments/pkg/http"
	"github.com/crowdcraft/payments/pkg/observability"
	"github.com/crowdcraft/payments/pkg/shutdown"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		panic(fmt.Sprintf("invalid configuration: %v", err))
	}

	logger := initLogger(cfg.Logger)
	defer logger.Sync()

	logger.Info("Starting payments service",
		zap.String("version", "0.1.0"),
	)

	ctx := context.Background()

	if err := resolveSecrets(ctx, cfg, logger); err != nil {
		logger.Fatal("Failed to resolve secrets", zap.Error(err))
	}

	// Database
	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	pool, err := postgres.NewPool(dbCtx, &postgres.PoolConfig{
		DatabaseURL: cfg.Database.ConnectionString(),
		MaxConns:    cfg.Database.MaxConns,
		MinConns:    cfg.Database.MinConns,
	}, logger)
	cancel()
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer pool.Close()

	db := postgres.NewDBExecutor(pool)
	paymentRepo := postgres.NewPaymentRepository(db)
	accountRepo := postgres.NewPaymentAccountRepository(db)
	payoutRepo := postgres.NewPayoutRepository(db)

	portLogger := logging.NewZapLogger(logger)

	// Stripe gateway
	stripeClient := pkghttp.NewHTTPClient(pkghttp.StripeClientConfig(),
		time.Duration(cfg.Stripe.Timeout)*time.Second)
	gateway := stripe.NewAdapter(stripe.Config{
		APIKey:     cfg.Stripe.APIKey,
		BaseURL:    cfg.Stripe.BaseURL,
		MaxRetries: cfg.Stripe.MaxRetries,
	}, stripeClient, portLogger)

	// Services
	lifecycle := paymentService.NewService(db, paymentRepo, accountRepo, gateway, portLogger,
		paymentService.Config{
			ReleaseWindow:    cfg.Payouts.ReleaseWindow(),
			StripeRefreshURL: cfg.Stripe.RefreshURL,
			StripeReturnURL:  cfg.Stripe.ReturnURL,
		})
	payouts := payoutService.NewService(db, paymentRepo, accountRepo, payoutRepo, gateway, portLogger,
		payoutService.Config{
			ReleaseWindow:    cfg.Payouts.ReleaseWindow(),
			AutoApproveAfter: cfg.Payouts.AutoApproveAfter(),
			MinReleaseAmount: cfg.Payouts.MinReleaseAmount,
			Currency:         cfg.Payouts.Currency,
		})

	// HTTP surface
	authenticator := middleware.NewAuthenticator([]byte(cfg.Auth.JWTSecret), portLogger)
	securityHeaders := middleware.NewSecurityHeaders(cfg.Logger.Development)

	apiMux := http.NewServeMux()
	paymentHandler.NewHandler(lifecycle, logger).Register(apiMux)

	payoutCron := cronHandler.NewPayoutHandler(payouts, logger, cfg.Cron.Secret)

	rootMux := http.NewServeMux()
	rootMux.Handle("/api/v1/",
		http.StripPrefix("/api/v1", authenticator.Middleware(apiMux)))
	rootMux.HandleFunc("/cron/process-payouts", payoutCron.RunPayouts)
	rootMux.HandleFunc("/cron/health", payoutCron.HealthCheck)

	handler := securityHeaders.Middleware(observability.MetricsMiddleware(rootMux))

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 5 * time.Minute, // payout batches can be slow
		IdleTimeout:  60 * time.Second,
	}

	// Metrics and health endpoints on their own port
	healthChecker := observability.NewHealthChecker(pool)
	metricsServer := observability.StartMetricsServer(fmt.Sprintf("%d", cfg.Server.MetricsPort), healthChecker)

	// Shutdown order is LIFO: HTTP servers stop before the pool closes
	manager := shutdown.NewManager(logger, 30*time.Second)
	manager.RegisterNoErr("database", pool.Close)
	manager.RegisterHTTPServer("metrics_server", metricsServer)
	manager.RegisterHTTPServer("http_server", server)

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	manager.WaitForShutdown()
}

// resolveSecrets resolves the Stripe, JWT, and cron secrets through the
// configured provider. The env provider is seeded from the environment-supplied
// config values, so every provider flows through the same SecretManager port.
func resolveSecrets(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	var manager adapterports.SecretManager

	switch cfg.Secrets.Provider {
	case "env":
		manager = secrets.NewEnvSecretManager(map[string]string{
			cfg.Secrets.StripeAPIKeyPath: cfg.Stripe.APIKey,
			cfg.Secrets.JWTSecretPath:    cfg.Auth.JWTSecret,
			cfg.Secrets.CronSecretPath:   cfg.Cron.Secret,
		})
	case "aws":
		sm, err := secrets.NewAWSSecretsManager(ctx,
			secrets.DefaultAWSSecretsManagerConfig(cfg.Secrets.AWSRegion), logger)
		if err != nil {
			return err
		}
		manager = sm
	case "vault":
		sm, err := secrets.NewVaultSecretManager(&secrets.VaultConfig{
			Address: cfg.Secrets.VaultAddress,
			Token:   cfg.Secrets.VaultToken,
		}, logger)
		if err != nil {
			return err
		}
		manager = sm
	default:
		return fmt.Errorf("unknown secrets provider %q", cfg.Secrets.Provider)
	}

	lookups := []struct {
		path string
		dest *string
	}{
		{cfg.Secrets.StripeAPIKeyPath, &cfg.Stripe.APIKey},
		{cfg.Secrets.JWTSecretPath, &cfg.Auth.JWTSecret},
		{cfg.Secrets.CronSecretPath, &cfg.Cron.Secret},
	}
	for _, lookup := range lookups {
		secret, err := manager.GetSecret(ctx, lookup.path)
		if err != nil {
			return err
		}
		*lookup.dest = secret.Value
	}
	return nil
}

func initLogger(cfg config.LoggerConfig) *zap.Logger {
	if cfg.Development {
		logger, _ := zap.NewDevelopment()
		return logger
	}

	zapCfg := zap.NewProductionConfig()
	if level, err := zapcore.ParseLevel(cfg.Level); err == nil {
		zapCfg.Level = zap.NewAtomicLevelAt(level)
	}
	logger, err := zapCfg.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to build logger: %v", err))
	}
	return logger
}
