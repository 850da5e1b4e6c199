// Package bootstrap wires configuration into the session store, gateway
// client and endpoint service shared by every clinicdesk command.
package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/clinicdesk/internal/clinicapi"
	appconfig "github.com/wolfman30/clinicdesk/internal/config"
	"github.com/wolfman30/clinicdesk/internal/gateway"
	"github.com/wolfman30/clinicdesk/internal/observability/metrics"
	"github.com/wolfman30/clinicdesk/internal/session"
	"github.com/wolfman30/clinicdesk/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "addr", cfg.RedisAddr, "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildSessionStore selects the session backend named by SESSION_BACKEND.
// The returned close function releases any connection and is never nil.
func BuildSessionStore(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (session.Store, func() error, error) {
	noop := func() error { return nil }
	if cfg == nil {
		return nil, noop, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	switch cfg.SessionBackend {
	case appconfig.SessionBackendFile, "":
		logger.Debug("session store", "backend", appconfig.SessionBackendFile, "path", cfg.SessionFile)
		return session.NewFileStore(cfg.SessionFile), noop, nil
	case appconfig.SessionBackendMemory:
		return session.NewMemoryStore(), noop, nil
	case appconfig.SessionBackendRedis:
		if strings.TrimSpace(cfg.RedisAddr) == "" {
			return nil, noop, fmt.Errorf("bootstrap: SESSION_BACKEND=redis requires REDIS_ADDR")
		}
		client := BuildRedisClient(ctx, cfg, logger, true)
		if client == nil {
			return nil, noop, fmt.Errorf("bootstrap: redis at %s is not reachable", cfg.RedisAddr)
		}
		logger.Debug("session store", "backend", appconfig.SessionBackendRedis, "prefix", cfg.SessionKeyPrefix)
		return session.NewRedisStore(client, cfg.SessionKeyPrefix), client.Close, nil
	default:
		return nil, noop, fmt.Errorf("bootstrap: unknown SESSION_BACKEND %q", cfg.SessionBackend)
	}
}

// Runtime is everything a command needs to talk to the clinic backend.
type Runtime struct {
	Config   *appconfig.Config
	Logger   *logging.Logger
	Sessions session.Store
	Metrics  *metrics.GatewayMetrics
	Registry *prometheus.Registry
	Gateway  *gateway.Client
	Service  *clinicapi.Service

	closeStore func() error
}

// Build wires a Runtime. Metrics go to a private registry so repeated
// builds in tests do not collide.
func Build(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*Runtime, error) {
	if logger == nil {
		logger = logging.Default()
	}
	store, closeStore, err := BuildSessionStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	reg := prometheus.NewRegistry()
	m := metrics.NewGatewayMetrics(reg)

	gw, err := gateway.New(gateway.Config{
		BaseURL:  cfg.APIBaseURL,
		Timeout:  cfg.APITimeout,
		Sessions: store,
		Logger:   logger,
		Metrics:  m,
	})
	if err != nil {
		_ = closeStore()
		return nil, fmt.Errorf("bootstrap: gateway: %w", err)
	}
	svc, err := clinicapi.NewService(gw)
	if err != nil {
		_ = closeStore()
		return nil, fmt.Errorf("bootstrap: service: %w", err)
	}
	return &Runtime{
		Config:     cfg,
		Logger:     logger,
		Sessions:   store,
		Metrics:    m,
		Registry:   reg,
		Gateway:    gw,
		Service:    svc,
		closeStore: closeStore,
	}, nil
}

// Close releases the session store connection.
func (r *Runtime) Close() error {
	if r == nil || r.closeStore == nil {
		return nil
	}
	return r.closeStore()
}
