package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "txscope",
		Short:        "EVM transaction, block and address analyzer",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	analyzeCmd := &cobra.Command{
		Use:   "analyze <tx-hash|block|address>",
		Short: "Analyze a transaction hash, block number or address",
		Args:  cobra.ExactArgs(1),
		RunE:  runAnalyze,
	}
	addAnalysisFlags(analyzeCmd)
	analyzeCmd.Flags().Bool("diagram", false, "print only the flow diagram")
	root.AddCommand(analyzeCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve analyses over HTTP",
		RunE:  runServe,
	}
	addAnalysisFlags(serveCmd)
	serveCmd.Flags().String("listen", ":8080", "HTTP listen address")
	root.AddCommand(serveCmd)

	networksCmd := &cobra.Command{
		Use:   "networks",
		Short: "List registered networks",
		RunE:  runNetworks,
	}
	root.AddCommand(networksCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addAnalysisFlags(cmd *cobra.Command) {
	cmd.Flags().Uint64("network", 1, "network id")
	cmd.Flags().StringSlice("rpc", nil, "RPC URLs for the selected network, tried in order (comma-separated)")
	cmd.Flags().Duration("timeout", 30*time.Second, "wall-clock budget per analysis")
	cmd.Flags().Duration("attempt-timeout", 5*time.Second, "timeout per RPC endpoint attempt")
	cmd.Flags().Duration("metadata-ttl", 5*time.Minute, "token metadata cache TTL")
	cmd.Flags().Duration("price-ttl", 60*time.Second, "price quote cache TTL")
	cmd.Flags().Float64("large-usd-threshold", 100000, "USD value flagged as a large transfer")
	cmd.Flags().Int("max-block-txs", 50, "maximum transactions analyzed per block")
	cmd.Flags().Int("fetch-concurrency", 8, "concurrent receipt fetches per block")
	cmd.Flags().String("out", "", "append artifacts to this JSONL file")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN for the artifact archive")
	cmd.Flags().String("nats-url", "", "NATS URL for artifact publication")
	cmd.Flags().String("nats-subject", "txscope.analysis", "NATS subject prefix")
	cmd.Flags().String("coingecko-url", "https://api.coingecko.com/api/v3", "CoinGecko API base URL")
	cmd.Flags().String("binance-url", "https://api.binance.com", "Binance API base URL")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
