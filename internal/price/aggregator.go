// Package price resolves USD quotes and derives the valuation side of an analysis.
package price

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"txScope/internal/cache"
	"txScope/internal/metrics"
	"txScope/internal/model"
)

const (
	// DefaultTTL is how long a live quote is served from cache.
	DefaultTTL = 60 * time.Second
	// FallbackSource names quotes that did not come from an upstream.
	FallbackSource = "fallback"
)

// Options configures an Aggregator. Zero values select defaults.
type Options struct {
	TTL     time.Duration
	Clock   cache.Clock
	Logger  *zap.Logger
	Metrics *metrics.Metrics
	// MaxParallel bounds concurrent quote lookups within one analysis.
	MaxParallel int
}

// Aggregator tries sources in priority order and caches live quotes per symbol.
type Aggregator struct {
	sources     []Source
	cache       *cache.Cache[string, model.PriceQuote]
	clock       cache.Clock
	classifier  Classifier
	scorer      Scorer
	maxParallel int
	logger      *zap.Logger
	metrics     *metrics.Metrics
}

func NewAggregator(opts Options, sources []Source, classifier Classifier, scorer Scorer) *Aggregator {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.MaxParallel <= 0 {
		opts.MaxParallel = 4
	}
	return &Aggregator{
		sources:     sources,
		cache:       cache.New[string, model.PriceQuote](opts.TTL, opts.Clock),
		clock:       opts.Clock,
		classifier:  classifier,
		scorer:      scorer,
		maxParallel: opts.MaxParallel,
		logger:      opts.Logger.With(zap.String("component", "price_aggregator")),
		metrics:     opts.Metrics,
	}
}

// GetQuote never fails. Symbols outside the known feeds and symbols every
// source failed for get a fallback quote with confidence at most 0.7.
func (a *Aggregator) GetQuote(ctx context.Context, symbol string) model.PriceQuote {
	key := normalize(symbol)
	if quote, ok := a.cache.Get(key); ok {
		a.metrics.CacheLookup("price", true)
		return quote
	}
	a.metrics.CacheLookup("price", false)

	feed, ok := LookupFeed(key)
	if !ok {
		quote := a.fallback(key, Feed{}, false)
		a.metrics.PriceQuote(quote.Source)
		return quote
	}

	for _, source := range a.sources {
		quote, err := source.Quote(ctx, key, feed)
		if err != nil {
			if !errors.Is(err, ErrNoFeed) {
				a.logger.Warn("price source failed",
					zap.String("source", source.Name()),
					zap.String("symbol", key),
					zap.Error(err),
				)
			}
			continue
		}
		quote.Symbol = key
		quote.FetchedAt = a.clock()
		quote.Confidence = clamp(quote.Confidence)
		a.cache.Set(key, quote)
		a.metrics.PriceQuote(quote.Source)
		return quote
	}

	a.logger.Info("price unavailable, using fallback", zap.String("symbol", key))
	quote := a.fallback(key, feed, true)
	a.metrics.PriceQuote(quote.Source)
	return quote
}

// fallback quotes are not cached so the next request retries the sources.
func (a *Aggregator) fallback(symbol string, feed Feed, known bool) model.PriceQuote {
	quote := model.PriceQuote{
		Symbol:    symbol,
		Source:    FallbackSource,
		FetchedAt: a.clock(),
	}
	if !known {
		return quote
	}
	quote.USDPrice = feed.ReferenceUSD
	if feed.Stable {
		quote.Confidence = stableFallbackConfidence
	} else {
		quote.Confidence = volatileFallbackConfidence
	}
	return quote
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
