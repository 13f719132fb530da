// Package analysis turns a user-entered hash, block number or address into an
// analysis artifact by driving the chain, decoding and enrichment stages.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"txScope/internal/cache"
	"txScope/internal/chain"
	"txScope/internal/decoder"
	"txScope/internal/metrics"
	"txScope/internal/model"
	"txScope/internal/price"
	"txScope/internal/protocol"
	"txScope/internal/risk"
	"txScope/internal/storage"
	"txScope/internal/token"
)

const (
	defaultTimeout          = 30 * time.Second
	defaultMaxBlockTxs      = 50
	defaultFetchConcurrency = 8
)

// Deps wires an Analyzer. Pool, Classifier, Prices and Scorer are required.
type Deps struct {
	Pool       *chain.Pool
	Classifier *protocol.Classifier
	Prices     *price.Aggregator
	Scorer     *risk.Scorer
	// TokenOptions configures the per-network metadata resolvers.
	TokenOptions token.Options
	Sink         storage.Sink
	Logger       *zap.Logger
	Metrics      *metrics.Metrics
	Clock        cache.Clock

	Timeout          time.Duration
	MaxBlockTxs      int
	FetchConcurrency int
	DefaultNetwork   uint64
	Retry            chain.RetryPolicy
}

// Request is one analysis call.
type Request struct {
	Input     string `json:"input"`
	NetworkID uint64 `json:"network"`
}

// Analyzer owns the caches and runs one analysis per request.
type Analyzer struct {
	pool        *chain.Pool
	classifier  *protocol.Classifier
	prices      *price.Aggregator
	scorer      *risk.Scorer
	tokenOpts   token.Options
	sink        storage.Sink
	logger      *zap.Logger
	metrics     *metrics.Metrics
	clock       cache.Clock
	timeout     time.Duration
	maxBlockTxs int
	concurrency int
	defaultNet  uint64
	retry       chain.RetryPolicy

	mu    sync.Mutex
	tools map[uint64]*networkTools
}

// networkTools keeps token metadata caches apart per network.
type networkTools struct {
	resolver *token.Resolver
	decoder  *decoder.Decoder
}

func NewAnalyzer(deps Deps) (*Analyzer, error) {
	if deps.Pool == nil || deps.Classifier == nil || deps.Prices == nil || deps.Scorer == nil {
		return nil, errors.New("analyzer requires pool, classifier, prices and scorer")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Timeout <= 0 {
		deps.Timeout = defaultTimeout
	}
	if deps.MaxBlockTxs <= 0 {
		deps.MaxBlockTxs = defaultMaxBlockTxs
	}
	if deps.FetchConcurrency <= 0 {
		deps.FetchConcurrency = defaultFetchConcurrency
	}
	if deps.DefaultNetwork == 0 {
		deps.DefaultNetwork = 1
	}
	if deps.Retry == (chain.RetryPolicy{}) {
		deps.Retry = chain.DefaultRetryPolicy
	}
	if deps.TokenOptions.Logger == nil {
		deps.TokenOptions.Logger = deps.Logger
	}
	if deps.TokenOptions.Metrics == nil {
		deps.TokenOptions.Metrics = deps.Metrics
	}
	if deps.TokenOptions.Clock == nil {
		deps.TokenOptions.Clock = deps.Clock
	}
	return &Analyzer{
		pool:        deps.Pool,
		classifier:  deps.Classifier,
		prices:      deps.Prices,
		scorer:      deps.Scorer,
		tokenOpts:   deps.TokenOptions,
		sink:        deps.Sink,
		logger:      deps.Logger.With(zap.String("component", "analyzer")),
		metrics:     deps.Metrics,
		clock:       deps.Clock,
		timeout:     deps.Timeout,
		maxBlockTxs: deps.MaxBlockTxs,
		concurrency: deps.FetchConcurrency,
		defaultNet:  deps.DefaultNetwork,
		retry:       deps.Retry,
		tools:       make(map[uint64]*networkTools),
	}, nil
}

// DefaultNetwork is used when a request names no network.
func (a *Analyzer) DefaultNetwork() uint64 { return a.defaultNet }

// Analyze classifies the input and runs the matching pipeline. Only invalid
// input, unknown networks, exhausted endpoints and missing records fail the
// call; everything else degrades inside the artifact.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*model.Artifact, error) {
	start := a.clock()
	kind := ClassifyInput(req.Input)

	artifact, err := a.analyze(ctx, kind, req)
	elapsed := a.clock().Sub(start)

	outcome := "ok"
	switch {
	case err != nil:
		outcome = "error"
	case artifact.Partial:
		outcome = "partial"
	}
	a.metrics.Analysis(string(kind), outcome, elapsed)

	if err != nil {
		a.logger.Warn("analysis failed",
			zap.String("input", req.Input),
			zap.String("kind", string(kind)),
			zap.Uint64("network", req.NetworkID),
			zap.Error(err),
		)
		return nil, err
	}

	a.logger.Info("analysis complete",
		zap.String("id", artifact.ID),
		zap.String("kind", string(kind)),
		zap.Uint64("network", artifact.Network.ID),
		zap.Bool("partial", artifact.Partial),
		zap.Duration("elapsed", elapsed),
	)
	a.deliver(ctx, artifact)
	return artifact, nil
}

func (a *Analyzer) analyze(ctx context.Context, kind model.InputKind, req Request) (*model.Artifact, error) {
	if kind == model.InputInvalid {
		return nil, fmt.Errorf("%w: %q", ErrInvalidInput, req.Input)
	}
	networkID := req.NetworkID
	if networkID == 0 {
		networkID = a.defaultNet
	}

	budget, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	conn, err := a.pool.Acquire(budget, networkID)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	tools, err := a.toolsFor(networkID)
	if err != nil {
		return nil, err
	}

	artifact := &model.Artifact{
		ID:          uuid.NewString(),
		Kind:        kind,
		Input:       strings.TrimSpace(req.Input),
		Network:     conn.Network.Ref(),
		GeneratedAt: a.clock().UTC(),
	}
	for _, failure := range conn.PriorFailures {
		artifact.Diagnostics = append(artifact.Diagnostics, fmt.Sprintf("endpoint %s skipped: %s", failure.URL, failure.Reason))
	}

	r := &run{a: a, ctx: budget, conn: conn, tools: tools, artifact: artifact}
	switch kind {
	case model.InputTransaction:
		err = r.transaction()
	case model.InputBlock:
		err = r.block()
	case model.InputAddress:
		err = r.address()
	}
	if err != nil {
		return nil, err
	}
	// A skipped stage leaves the tally without the events or assessment the
	// tiers derive from, so partial artifacts carry no summary.
	if !artifact.Partial {
		artifact.Summary = r.tally.summary()
	}
	return artifact, nil
}

func (a *Analyzer) toolsFor(networkID uint64) (*networkTools, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if tools, ok := a.tools[networkID]; ok {
		return tools, nil
	}
	resolver := token.NewResolver(a.tokenOpts)
	dec, err := decoder.New(resolver, a.logger, a.metrics)
	if err != nil {
		return nil, err
	}
	tools := &networkTools{resolver: resolver, decoder: dec}
	a.tools[networkID] = tools
	return tools, nil
}

// deliver hands the artifact to the sink. Failures are logged only.
func (a *Analyzer) deliver(ctx context.Context, artifact *model.Artifact) {
	if a.sink == nil {
		return
	}
	err := a.sink.Write(ctx, artifact)
	if err == nil {
		return
	}
	for _, name := range failedSinks(err, a.sink.Name()) {
		a.metrics.SinkFailure(name)
	}
	a.logger.Warn("artifact sink failed", zap.String("id", artifact.ID), zap.Error(err))
}

func failedSinks(err error, fallback string) []string {
	var errs []error
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	} else {
		errs = []error{err}
	}
	names := make([]string, 0, len(errs))
	for _, e := range errs {
		var sinkErr *storage.SinkError
		if errors.As(e, &sinkErr) {
			names = append(names, sinkErr.Sink)
			continue
		}
		names = append(names, fallback)
	}
	return names
}
