package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"MiniInventory/internal/auth"
	"MiniInventory/internal/inventory"
	"MiniInventory/pkg/kit"
)

const (
	service         = "inventory"
	minJWTSecretLen = 32
	defaultTokenTTL = 15 * time.Minute
)

type serveConfig struct {
	Port           string
	LogLevel       string
	JWTSecret      string
	Operators      string
	TokenTTL       time.Duration
	MetricsEnabled bool
	MetricsToken   string
}

func newServeCmd() *cobra.Command {
	var cfg serveConfig

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the inventory over HTTP",
	}

	metricsOn, metricsErr := envBool("METRICS_ENABLED", true)
	ttl, ttlErr := envDuration("TOKEN_TTL", defaultTokenTTL)
	envErr := errors.Join(metricsErr, ttlErr)

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		if envErr != nil {
			return envErr
		}
		if err := cfg.validate(); err != nil {
			return err
		}
		return runServe(cmd.Context(), cfg)
	}

	f := cmd.Flags()
	f.StringVar(&cfg.Port, "port", getenv("PORT", "8080"), "listen port (env PORT)")
	f.StringVar(&cfg.LogLevel, "log-level", getenv("LOG_LEVEL", "info"), "log level (env LOG_LEVEL)")
	f.StringVar(&cfg.JWTSecret, "jwt-secret", getenv("JWT_SECRET", ""), "HS256 secret; empty leaves writes open (env JWT_SECRET)")
	f.StringVar(&cfg.Operators, "operators", getenv("OPERATORS", ""), "name:role:bcrypt-hash list (env OPERATORS)")
	f.DurationVar(&cfg.TokenTTL, "token-ttl", ttl, "access token lifetime (env TOKEN_TTL)")
	f.BoolVar(&cfg.MetricsEnabled, "metrics", metricsOn, "expose /metrics (env METRICS_ENABLED)")
	f.StringVar(&cfg.MetricsToken, "metrics-token", getenv("METRICS_TOKEN", ""), "bearer token for /metrics (env METRICS_TOKEN)")

	return cmd
}

func (c serveConfig) validate() error {
	if c.TokenTTL <= 0 {
		return fmt.Errorf("token ttl must be positive, got %s", c.TokenTTL)
	}
	if c.JWTSecret != "" && len(c.JWTSecret) < minJWTSecretLen {
		return fmt.Errorf("JWT_SECRET must be at least %d chars", minJWTSecretLen)
	}
	return nil
}

func envBool(k string, def bool) (bool, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("%s=%q: want true or false", k, v)
	}
	return b, nil
}

func envDuration(k string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("%s=%q: %w", k, v, err)
	}
	return d, nil
}

func runServe(parent context.Context, cfg serveConfig) error {
	log, err := kit.NewLogger(service, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	authSrv, err := buildAuth(cfg, log)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	s := &inventory.Server{Manager: inventory.NewManager(), Log: log}
	h := inventory.NewHandler(s, inventory.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       reg,
		Auth:           authSrv,
		MetricsEnabled: cfg.MetricsEnabled,
		MetricsToken:   cfg.MetricsToken,
	})

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := kit.RunHTTPServer(ctx, ":"+cfg.Port, h, log); err != nil {
		log.Error("http server stopped", zap.Error(err))
		return err
	}
	return nil
}

func buildAuth(cfg serveConfig, log *zap.Logger) (*auth.Server, error) {
	if cfg.JWTSecret == "" {
		log.Warn("JWT_SECRET not set, product writes are unauthenticated")
		return nil, nil
	}

	ops, err := auth.ParseOperators(cfg.Operators)
	if err != nil {
		return nil, err
	}
	if ops.Len() == 0 {
		return nil, errors.New("OPERATORS is required when JWT_SECRET is set")
	}

	return &auth.Server{
		Log:       log,
		Operators: ops,
		JWT:       auth.NewTokenMaker(cfg.JWTSecret),
		TokenTTL:  cfg.TokenTTL,
	}, nil
}
