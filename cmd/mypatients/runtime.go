package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"
	appconfig "github.com/wolfman30/mypatients/internal/config"
	"github.com/wolfman30/mypatients/internal/mypatients"
	"github.com/wolfman30/mypatients/internal/observability/metrics"
	"github.com/wolfman30/mypatients/internal/querycache"
	"github.com/wolfman30/mypatients/internal/session"
	"github.com/wolfman30/mypatients/pkg/logging"
)

// runtime is what every API command needs: the client and its teardown.
type runtime struct {
	cfg    *appconfig.Config
	logger *logging.Logger
	client *mypatients.Client
	close  func()
}

func newRuntime(c *cli.Context, cfg *appconfig.Config) (*runtime, error) {
	logger := logging.New(cfg.LogLevel)

	store, closeStore, err := newTokenStore(c.Context, cfg, logger)
	if err != nil {
		return nil, err
	}

	cacheCfg := querycache.DefaultConfig()
	cacheCfg.Retry = cfg.QueryRetry
	cacheCfg.RetryDelay = cfg.QueryRetryDelay
	cacheCfg.StaleTime = cfg.QueryStaleTime
	cacheCfg.RefetchOnFocus = cfg.QueryRefetchOnFocus
	cacheCfg.MaxEntries = cfg.QueryCacheSize

	reg := prometheus.NewRegistry()
	client, err := mypatients.New(mypatients.Config{
		BaseURL:     cfg.APIBaseURL,
		Timeout:     cfg.HTTPTimeout,
		UserAgent:   cfg.UserAgent,
		Store:       store,
		Cache:       &cacheCfg,
		StrictPaths: c.Bool("strict-paths"),
		Logger:      logger.Logger,
		Metrics:     metrics.NewClientMetrics(reg),
		OnSessionExpired: func(ctx context.Context, t session.Teardown) {
			logger.Warn("session expired", "profile", cfg.Profile, "had_token", t.HadToken)
		},
	})
	if err != nil {
		closeStore()
		return nil, err
	}
	closeAll := func() {
		// --log-level debug prints what this invocation sent and cached
		metrics.LogSnapshot(logger.Logger, reg)
		closeStore()
	}
	return &runtime{cfg: cfg, logger: logger, client: client, close: closeAll}, nil
}

func newTokenStore(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (session.TokenStore, func(), error) {
	noop := func() {}
	switch strings.ToLower(strings.TrimSpace(cfg.SessionStore)) {
	case appconfig.SessionStoreFile, "":
		return session.NewFileStore(cfg.SessionFile), noop, nil
	case appconfig.SessionStoreMemory:
		return session.NewMemoryStore(), noop, nil
	case appconfig.SessionStoreRedis:
		opts := &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis session store: %w", err)
		}
		logger.Debug("using redis session store", "addr", cfg.RedisAddr, "profile", cfg.Profile)
		return session.NewRedisStore(client, cfg.Profile, 0), func() { _ = client.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown session store %q", cfg.SessionStore)
	}
}

// withClient wraps an action that talks to the API.
func withClient(cfg *appconfig.Config, fn func(c *cli.Context, rt *runtime) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		rt, err := newRuntime(c, cfg)
		if err != nil {
			return err
		}
		defer rt.close()
		return fn(c, rt)
	}
}
