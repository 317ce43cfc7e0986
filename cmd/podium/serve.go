package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"podium/internal/analysis"
	"podium/internal/config"
	"podium/internal/daemon"
	"podium/internal/logging"
	"podium/internal/notifications"
	"podium/internal/pipeline"
	"podium/internal/report"
	"podium/internal/services/llm"
	"podium/internal/store"
	"podium/internal/upload"
)

func newServeCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the podium daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *configFlag)
		},
	}
}

func runServe(ctx context.Context, configPath string) error {
	signalCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	st, err := store.Open(cfg)
	if err != nil {
		logger.Error("open store", logging.Error(err))
		return err
	}
	defer st.Close()

	uploads := upload.NewManager(cfg, st, logger)
	tools := analysis.NewToolchain(cfg, logger)
	completer := llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	})
	reports := report.NewGenerator(completer, logger)
	notifier := notifications.NewService(cfg)

	orchestrator := pipeline.NewOrchestrator(st, tools, tools, tools, reports, notifier, logger)
	workers := pipeline.NewManager(cfg, st, orchestrator, logger)

	d, err := daemon.New(cfg, st, uploads, workers, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	if err := d.Start(signalCtx); err != nil {
		return err
	}
	defer d.Stop()

	logger.Info("podium serving", logging.String("addr", d.Addr()))
	<-signalCtx.Done()
	logger.Info("podium daemon shutting down")
	return nil
}
