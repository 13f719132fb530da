package chain

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"txScope/internal/metrics"
	"txScope/internal/model"
)

const defaultAttemptTimeout = 5 * time.Second

// Dialer opens a backend for one endpoint URL.
type Dialer func(ctx context.Context, url string) (Backend, error)

// NetworkLookup resolves a network id to its descriptor.
type NetworkLookup interface {
	Lookup(id uint64) (model.NetworkDescriptor, bool)
}

// PoolOptions configures a Pool. Zero values select defaults.
type PoolOptions struct {
	AttemptTimeout time.Duration
	Dial           Dialer
	Logger         *zap.Logger
	Metrics        *metrics.Metrics
}

// Pool hands out a live connection per request, trying endpoints in order.
type Pool struct {
	networks       NetworkLookup
	attemptTimeout time.Duration
	dial           Dialer
	logger         *zap.Logger
	metrics        *metrics.Metrics
}

// Conn is a verified connection to one endpoint of a network.
type Conn struct {
	Backend
	Network       model.NetworkDescriptor
	URL           string
	PriorFailures []EndpointFailure
}

func NewPool(networks NetworkLookup, opts PoolOptions) *Pool {
	if opts.AttemptTimeout <= 0 {
		opts.AttemptTimeout = defaultAttemptTimeout
	}
	if opts.Dial == nil {
		opts.Dial = Dial
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Pool{
		networks:       networks,
		attemptTimeout: opts.AttemptTimeout,
		dial:           opts.Dial,
		logger:         opts.Logger.With(zap.String("component", "endpoint_pool")),
		metrics:        opts.Metrics,
	}
}

// Network returns the descriptor for id.
func (p *Pool) Network(id uint64) (model.NetworkDescriptor, error) {
	network, ok := p.networks.Lookup(id)
	if !ok {
		return model.NetworkDescriptor{}, fmt.Errorf("%w: %d", ErrUnknownNetwork, id)
	}
	return network, nil
}

// Acquire walks the endpoint list once, in order, and returns the first endpoint
// whose chain id answers within the attempt timeout and matches the network.
// Endpoints are never tried in parallel.
func (p *Pool) Acquire(ctx context.Context, networkID uint64) (*Conn, error) {
	network, err := p.Network(networkID)
	if err != nil {
		return nil, err
	}

	label := strconv.FormatUint(networkID, 10)
	var failures []EndpointFailure
	for _, url := range network.RPCURLs {
		if err := ctx.Err(); err != nil {
			failures = append(failures, EndpointFailure{URL: url, Reason: err.Error()})
			break
		}
		backend, err := p.attempt(ctx, network, url)
		if err != nil {
			p.logger.Warn("rpc endpoint failed",
				zap.Uint64("network", networkID),
				zap.String("url", url),
				zap.Error(err),
			)
			p.metrics.EndpointAttempt(label, url, "failed")
			failures = append(failures, EndpointFailure{URL: url, Reason: err.Error()})
			continue
		}
		p.metrics.EndpointAttempt(label, url, "ok")
		if len(failures) > 0 {
			p.logger.Info("rpc endpoint acquired after failover",
				zap.Uint64("network", networkID),
				zap.String("url", url),
				zap.Int("prior_failures", len(failures)),
			)
		}
		return &Conn{
			Backend:       backend,
			Network:       network,
			URL:           url,
			PriorFailures: failures,
		}, nil
	}

	p.metrics.EndpointExhausted(label)
	return nil, &EndpointExhaustedError{NetworkID: networkID, Failures: failures}
}

func (p *Pool) attempt(ctx context.Context, network model.NetworkDescriptor, url string) (Backend, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, p.attemptTimeout)
	defer cancel()

	backend, err := p.dial(attemptCtx, url)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	chainID, err := backend.ChainID(attemptCtx)
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("chain id: %w", err)
	}
	if !chainID.IsUint64() || chainID.Uint64() != network.ID {
		backend.Close()
		return nil, fmt.Errorf("chain id mismatch: got %s want %d", chainID.String(), network.ID)
	}
	return backend, nil
}
