package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"txScope/internal/analysis"
	"txScope/internal/config"
)

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close(logger)

	logger.Info("analyze start",
		zap.String("input", args[0]),
		zap.Uint64("network", cfg.Network),
		zap.Duration("timeout", cfg.Timeout),
	)

	artifact, err := a.analyzer.Analyze(ctx, analysis.Request{Input: args[0], NetworkID: cfg.Network})
	if err != nil {
		return err
	}

	diagramOnly, _ := cmd.Flags().GetBool("diagram")
	if diagramOnly {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), artifact.Diagram)
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(artifact)
}
