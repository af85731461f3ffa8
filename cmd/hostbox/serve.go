package main

import (
	"context"
	"fmt"
	"time"

	goutils "github.com/jkaninda/go-utils"
	"github.com/spf13/cobra"

	"hostbox/internal/audit"
	"hostbox/internal/config"
	"hostbox/internal/observability"
	"hostbox/internal/papers"
	"hostbox/internal/sandbox"
	"hostbox/internal/server"
	"hostbox/internal/tools"
	filetools "hostbox/internal/tools/file"
	paperstools "hostbox/internal/tools/papers"
	shelltools "hostbox/internal/tools/shell"
)

var (
	serveVerbose     bool
	serveConfigPath  string
	serveMetricsAddr string
)

func runServe(_ *cobra.Command, args []string) error {
	rootArg := ""
	if len(args) > 0 {
		rootArg = args[0]
	}

	cfg, err := config.Load(goutils.Env("HOSTBOX_CONFIG", serveConfigPath), rootArg)
	if err != nil {
		return err
	}
	if serveVerbose {
		cfg.Verbose = true
	}
	if serveMetricsAddr != "" {
		cfg.Metrics.Addr = serveMetricsAddr
	}

	logger := observability.NewLogger(cfg.Verbose)
	logger.Debug("starting", "root", cfg.Root)

	metrics := observability.NewMetrics()

	var auditStore *audit.Store
	if cfg.Audit.Enabled {
		auditStore, err = audit.Open(audit.Options{
			Driver:      cfg.Audit.Driver,
			SQLitePath:  cfg.Audit.SQLitePath,
			PostgresDSN: cfg.Audit.PostgresDSN,
		}, logger)
		if err != nil {
			return fmt.Errorf("opening audit store: %w", err)
		}
		defer auditStore.Close()
	}

	engine := sandbox.NewEngine(logger)
	paperClient := papers.NewClient(cfg.Papers.Endpoint, logger)
	paperCache := papers.NewCache(paperClient, cfg.Papers.MaxResults, logger, metrics.ObserveFeedRefresh)
	defer paperCache.Stop()
	if err := paperCache.StartRefresher(cfg.Papers.RefreshSchedule); err != nil {
		return err
	}

	reg := tools.NewRegistry()
	filetools.Register(reg, filetools.Config{Root: cfg.Root}, logger)
	shelltools.Register(reg, shelltools.Config{
		Root:           cfg.Root,
		DefaultTimeout: cfg.DefaultTimeout(),
	}, engine, logger)
	paperstools.Register(reg, paperClient, paperCache, paperstools.Options{
		Category:   cfg.Papers.Category,
		MaxResults: cfg.Papers.MaxResults,
	})

	if cfg.Metrics.Addr != "" {
		listener := observability.NewListener(cfg.Metrics.Addr, metrics, logger)
		listener.Start()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = listener.Shutdown(ctx)
		}()
	}

	srv, err := server.New(reg, logger, metrics, auditStore)
	if err != nil {
		return err
	}
	logger.Debug("serving over stdio", "tools", len(reg.List()))
	return srv.Serve()
}
