package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/imageloader/internal/config"
	"github.com/nao1215/imageloader/internal/downloader"
	"github.com/nao1215/imageloader/internal/fetcher"
	"github.com/nao1215/imageloader/internal/history"
	logpkg "github.com/nao1215/imageloader/internal/log"
	"github.com/nao1215/imageloader/internal/model"
	"github.com/nao1215/imageloader/internal/pipeline"
	"github.com/nao1215/imageloader/internal/report"
	"github.com/nao1215/imageloader/internal/resolver"
	"github.com/nao1215/imageloader/internal/transport"
)

// runRootCmd executes a scrape of the page given with --url.
func runRootCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := logpkg.NewSecureLogger(cmd.ErrOrStderr(), cfg.Debug)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return err
	}

	rec, err := runScrape(ctx, cfg, logger)
	if rec != nil {
		w := report.NewSimpleWriter(cmd.OutOrStdout(), report.WithVerbose(verbose))
		if _, werr := w.WriteRun(rec); werr != nil {
			logger.Error("failed to write summary", "error", werr)
		}
	}
	return err
}

// loadConfigFile applies the config file to cfg. An explicit --config must
// exist; the default locations are optional.
func loadConfigFile(cmd *cobra.Command, cfg *config.Config) error {
	var err error
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return err
	}

	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	if configPath == "" {
		if cfg.ConfigFilePath != "" {
			return fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
		}
		return nil
	}

	file, err := config.LoadConfigFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config file %s: %w", configPath, err)
	}
	file.Apply(cfg)
	return nil
}

// buildConfig layers defaults, the config file and explicitly set flags.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	if err := loadConfigFile(cmd, cfg); err != nil {
		return nil, err
	}

	var err error
	flags := cmd.Flags()

	if cfg.URL, err = flags.GetString("url"); err != nil {
		return nil, err
	}
	if cfg.Debug, err = flags.GetBool("debug"); err != nil {
		return nil, err
	}
	if flags.Changed("dir") {
		if cfg.Dir, err = flags.GetString("dir"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("socks-proxy") {
		if cfg.SocksProxy, err = flags.GetString("socks-proxy"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("interval") {
		if cfg.RequestInterval, err = flags.GetDuration("interval"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("parser") {
		if cfg.Parser, err = flags.GetString("parser"); err != nil {
			return nil, err
		}
	}
	noHistory, err := flags.GetBool("no-history")
	if err != nil {
		return nil, err
	}
	if noHistory {
		cfg.SaveHistory = false
	}

	return cfg, nil
}

// runScrape performs one run for cfg and returns its record.
//
// The destination directory is created before any network activity; failing
// to create it, failing to reach the SOCKS5 proxy and a fatal pipeline error
// are returned. The record is nil only when no request was attempted.
func runScrape(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*model.RunRecord, error) {
	destDir := cfg.DestinationDir()
	if err := os.MkdirAll(destDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create destination directory %s: %w", destDir, err)
	}

	logger.Info("starting run",
		"url", cfg.URL,
		"dir", destDir,
		"parser", cfg.Parser,
		"timeout", cfg.Timeout,
		"interval", cfg.RequestInterval,
	)

	if cfg.SocksProxy != "" {
		if err := transport.CheckProxy(ctx, cfg.SocksProxy); err != nil {
			return nil, fmt.Errorf("SOCKS5 proxy check failed (make sure the proxy is running at %s): %w", cfg.SocksProxy, err)
		}
		logger.Info("SOCKS5 proxy connection verified", "address", cfg.SocksProxy)
	}

	client, err := transport.New(
		transport.WithTimeout(cfg.Timeout),
		transport.WithUserAgent(cfg.UserAgent),
		transport.WithHeaders(cfg.Headers),
		transport.WithSocksProxy(cfg.SocksProxy),
		transport.WithRequestInterval(cfg.RequestInterval),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	prober := resolver.NewHTTPProber(client,
		resolver.WithJitter(resolver.NewJitter(cfg.JitterMin, cfg.JitterMax)),
		resolver.WithProberLogger(logger),
	)

	p := pipeline.New(pipeline.WithLogger(logger))
	p.AddSteps(pipeline.Default(
		fetcher.New(client,
			fetcher.WithMaxBodySize(cfg.MaxBodySize),
			fetcher.WithLogger(logger),
		),
		cfg.Parser,
		resolver.New(prober, resolver.WithLogger(logger)),
		downloader.New(client, downloader.WithLogger(logger)),
		logger,
	)...)

	run := model.NewRun(cfg.URL, destDir)
	runErr := p.Execute(ctx, run)
	rec := run.Record()

	if cfg.SaveHistory {
		if err := saveRun(ctx, cfg.HistoryDir, rec, logger); err != nil {
			logger.Warn("failed to record run history", "error", err)
		}
	}

	if runErr != nil {
		return rec, runErr
	}

	logger.Info("run finished",
		"found", rec.Found,
		"resolved", rec.Resolved,
		"downloaded", rec.Downloaded,
		"failed", rec.Failed,
	)
	return rec, nil
}

// saveRun stores rec in the history database under dir.
func saveRun(ctx context.Context, dir string, rec *model.RunRecord, logger *slog.Logger) error {
	// A cancelled run is still worth recording.
	ctx = context.WithoutCancel(ctx)

	store, err := history.Open(dir, history.DefaultOptions())
	if err != nil {
		return err
	}
	defer store.Close()

	id, err := store.SaveRun(ctx, rec)
	if err != nil {
		return err
	}

	logger.Debug("run recorded", "id", id, "db", store.Path())
	return nil
}
