package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"txScope/internal/analysis"
	"txScope/internal/chain"
	"txScope/internal/config"
	"txScope/internal/messaging"
	"txScope/internal/metrics"
	"txScope/internal/price"
	"txScope/internal/protocol"
	"txScope/internal/risk"
	"txScope/internal/storage"
	"txScope/internal/storage/postgres"
	"txScope/internal/token"
)

// app holds everything a command needs; close releases the sinks.
type app struct {
	analyzer *analysis.Analyzer
	archive  *postgres.Store
	sinks    *storage.MultiSink
	registry *prometheus.Registry
}

func buildApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	pool := chain.NewPool(cfg.Networks, chain.PoolOptions{
		AttemptTimeout: cfg.AttemptTimeout,
		Logger:         logger,
		Metrics:        m,
	})
	classifier := protocol.NewClassifier(logger)
	scorer := risk.NewScorer(risk.Config{LargeUSDThreshold: cfg.LargeUSDThreshold})
	prices := price.NewAggregator(price.Options{
		TTL:     cfg.PriceTTL,
		Logger:  logger,
		Metrics: m,
	}, []price.Source{
		price.NewCoinGeckoSource(cfg.CoinGeckoURL, 0),
		price.NewBinanceSource(cfg.BinanceURL, 0),
	}, classifier, scorer)

	out := &app{registry: registry}
	var sinks []storage.Sink
	if cfg.Out != "" {
		sinks = append(sinks, storage.NewJsonlStorage(cfg.Out))
	}
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, err
		}
		out.archive = store
		sinks = append(sinks, store)
	}
	if cfg.NATSURL != "" {
		publisher, err := messaging.NewNATSPublisher(messaging.Config{URL: cfg.NATSURL, Subject: cfg.NATSSubject}, logger)
		if err != nil {
			_ = storage.NewMultiSink(sinks...).Close()
			return nil, err
		}
		sinks = append(sinks, publisher)
	}
	out.sinks = storage.NewMultiSink(sinks...)

	deps := analysis.Deps{
		Pool:             pool,
		Classifier:       classifier,
		Prices:           prices,
		Scorer:           scorer,
		TokenOptions:     token.Options{TTL: cfg.MetadataTTL},
		Logger:           logger,
		Metrics:          m,
		Timeout:          cfg.Timeout,
		MaxBlockTxs:      cfg.MaxBlockTxs,
		FetchConcurrency: cfg.FetchConcurrency,
		DefaultNetwork:   cfg.Network,
	}
	if out.sinks.Len() > 0 {
		deps.Sink = out.sinks
	}
	analyzer, err := analysis.NewAnalyzer(deps)
	if err != nil {
		out.close(logger)
		return nil, err
	}
	out.analyzer = analyzer
	return out, nil
}

func (a *app) close(logger *zap.Logger) {
	if err := a.sinks.Close(); err != nil {
		logger.Warn("close sinks", zap.Error(err))
	}
}
