package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/resumeflow/internal/analysis"
	"github.com/jonathan/resumeflow/internal/config"
	"github.com/jonathan/resumeflow/internal/logging"
	"github.com/jonathan/resumeflow/internal/observability"
	"github.com/jonathan/resumeflow/internal/session"
)

// app is what every command needs: effective config, logger, collaborator and printer.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	svc     analysis.Service
	printer *observability.Printer
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(rootConfigPath, rootEnvFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Flags win over file and environment
	if rootAPIURL != "" {
		cfg.APIBaseURL = rootAPIURL
	}
	if rootLogLevel != "" {
		cfg.LogLevel = rootLogLevel
	}
	if rootVerbose {
		cfg.Verbose = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log, err := logging.New(logging.Options{
		File:    cfg.LogFile,
		Level:   cfg.LogLevel,
		JSON:    cfg.LogJSON,
		Console: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, err
	}

	client, err := analysis.New(analysis.Options{
		BaseURL:   cfg.APIBaseURL,
		Timeout:   cfg.Timeout.Std(),
		UserAgent: cfg.UserAgent,
	}, log)
	if err != nil {
		return nil, err
	}

	var svc analysis.Service = client
	if ttl := cfg.CacheTTL(); ttl > 0 {
		svc = analysis.NewCachedService(client, ttl)
	}

	log.Debug("client configured",
		zap.String("api_base_url", cfg.APIBaseURL),
		zap.Duration("timeout", cfg.Timeout.Std()),
		zap.Duration("jd_cache_ttl", cfg.CacheTTL()),
	)

	return &app{
		cfg:     cfg,
		log:     log,
		svc:     svc,
		printer: observability.NewPrinter(cmd.OutOrStdout(), cfg.Verbose),
	}, nil
}

func (a *app) newSession(observer func(session.Result)) *session.Session {
	return session.New(a.svc, a.log, session.Options{
		DefaultRole: a.cfg.DefaultRole,
		Observer:    observer,
	})
}

func (a *app) close() {
	_ = a.log.Sync()
}
