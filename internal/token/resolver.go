// Package token resolves contract addresses to token metadata.
package token

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"txScope/internal/cache"
	"txScope/internal/chain"
	"txScope/internal/metrics"
	"txScope/internal/model"
)

// DefaultTTL is how long resolved metadata stays cached.
const DefaultTTL = 5 * time.Minute

// Options configures a Resolver. Zero values select defaults.
type Options struct {
	TTL     time.Duration
	Clock   cache.Clock
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// Resolver probes contracts for token metadata and caches the result.
// Resolve never fails; unresolvable contracts yield the Unknown sentinel.
type Resolver struct {
	cache   *cache.Cache[string, model.TokenMetadata]
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func NewResolver(opts Options) *Resolver {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Resolver{
		cache:   cache.New[string, model.TokenMetadata](opts.TTL, opts.Clock),
		logger:  opts.Logger.With(zap.String("component", "token_resolver")),
		metrics: opts.Metrics,
	}
}

// Cached returns the cached metadata for address without probing.
func (r *Resolver) Cached(address common.Address) (model.TokenMetadata, bool) {
	return r.cache.Get(cacheKey(address))
}

// Resolve returns metadata for address, probing ERC-20, then ERC-721, then
// ERC-1155 on a cache miss. Results that depended on a failed transport call
// and still ended as Unknown are not cached.
func (r *Resolver) Resolve(ctx context.Context, address common.Address, caller chain.ContractCaller) model.TokenMetadata {
	key := cacheKey(address)
	if meta, ok := r.cache.Get(key); ok {
		r.metrics.CacheLookup("token", true)
		return meta
	}
	r.metrics.CacheLookup("token", false)

	p := &prober{ctx: ctx, caller: caller, address: address, logger: r.logger}
	meta := p.resolve()
	if meta.IsUnknown() && p.transportErrors > 0 {
		r.logger.Debug("token metadata unresolved, not caching",
			zap.String("token", address.Hex()),
			zap.Int("transport_errors", p.transportErrors),
		)
		return meta
	}
	r.cache.Set(key, meta)
	return meta
}

func cacheKey(address common.Address) string {
	return strings.ToLower(address.Hex())
}

type prober struct {
	ctx             context.Context
	caller          chain.ContractCaller
	address         common.Address
	logger          *zap.Logger
	transportErrors int
}

func (p *prober) resolve() model.TokenMetadata {
	if meta, ok := p.erc20(); ok {
		return meta
	}
	if meta, ok := p.erc721(); ok {
		return meta
	}
	if meta, ok := p.erc1155(); ok {
		return meta
	}
	return model.UnknownToken(p.address.Hex())
}

func (p *prober) erc20() (model.TokenMetadata, bool) {
	stringABI, err := erc20ABIStringInstance()
	if err != nil {
		p.logger.Error("parse erc20 abi", zap.Error(err))
		return model.TokenMetadata{}, false
	}
	values, ok := p.call(stringABI, "decimals")
	if !ok {
		return model.TokenMetadata{}, false
	}
	decimals, err := asUint8(values[0])
	if err != nil {
		return model.TokenMetadata{}, false
	}
	meta := p.named(model.StandardERC20)
	meta.Decimals = decimals
	return meta, true
}

func (p *prober) erc721() (model.TokenMetadata, bool) {
	switch {
	case p.supportsInterface(InterfaceERC721):
	case p.supportsInterface(InterfaceERC1155):
		return model.TokenMetadata{}, false
	default:
		if _, ok := p.text("symbol"); !ok {
			return model.TokenMetadata{}, false
		}
	}
	meta := p.named(model.StandardERC721)
	meta.Decimals = 0
	return meta, true
}

func (p *prober) erc1155() (model.TokenMetadata, bool) {
	if !p.supportsInterface(InterfaceERC1155) {
		parsed, err := nftABIInstance()
		if err != nil {
			return model.TokenMetadata{}, false
		}
		if _, ok := p.call(parsed, "uri", big.NewInt(0)); !ok {
			return model.TokenMetadata{}, false
		}
	}
	meta := p.named(model.StandardERC1155)
	meta.Decimals = 0
	return meta, true
}

// named fills name and symbol, falling back to the Unknown labels.
func (p *prober) named(standard model.TokenStandard) model.TokenMetadata {
	meta := model.TokenMetadata{
		Address:  strings.ToLower(p.address.Hex()),
		Name:     model.UnknownTokenName,
		Symbol:   model.UnknownTokenSymbol,
		Decimals: model.UnknownTokenDecimals,
		Standard: standard,
	}
	if symbol, ok := p.text("symbol"); ok {
		meta.Symbol = symbol
	}
	if name, ok := p.text("name"); ok {
		meta.Name = name
	}
	return meta
}

// text reads a string getter, trying the string ABI before the bytes32 one.
func (p *prober) text(method string) (string, bool) {
	if stringABI, err := erc20ABIStringInstance(); err == nil {
		if values, ok := p.call(stringABI, method); ok {
			if s, ok := values[0].(string); ok && strings.TrimSpace(s) != "" {
				return s, true
			}
		}
	}
	if bytes32ABI, err := erc20ABIBytes32Instance(); err == nil {
		if values, ok := p.call(bytes32ABI, method); ok {
			if s, ok := bytes32ToString(values[0]); ok && s != "" {
				return s, true
			}
		}
	}
	return "", false
}

func (p *prober) supportsInterface(id [4]byte) bool {
	parsed, err := nftABIInstance()
	if err != nil {
		return false
	}
	values, ok := p.call(parsed, "supportsInterface", id)
	if !ok {
		return false
	}
	supported, _ := values[0].(bool)
	return supported
}

func (p *prober) call(parsed abi.ABI, method string, args ...interface{}) ([]interface{}, bool) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		p.logger.Debug("pack failed", zap.String("method", method), zap.Error(err))
		return nil, false
	}
	result := chain.Probe(p.ctx, p.caller, p.address, data)
	switch result.Status {
	case chain.ProbeSupported:
	case chain.ProbeError:
		p.transportErrors++
		p.logger.Debug("probe failed",
			zap.String("token", p.address.Hex()),
			zap.String("method", method),
			zap.Error(result.Err),
		)
		return nil, false
	default:
		return nil, false
	}
	values, err := parsed.Unpack(method, result.Data)
	if err != nil || len(values) == 0 {
		return nil, false
	}
	return values, true
}

func bytes32ToString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case [32]byte:
		return string(bytes.TrimRight(v[:], "\x00")), true
	case []byte:
		return string(bytes.TrimRight(v, "\x00")), true
	default:
		return "", false
	}
}

func asUint8(value interface{}) (uint8, error) {
	switch v := value.(type) {
	case uint8:
		return v, nil
	case uint16:
		return uint8(v), nil
	case uint32:
		return uint8(v), nil
	case uint64:
		return uint8(v), nil
	case *big.Int:
		return uint8(v.Uint64()), nil
	default:
		return 0, fmt.Errorf("unsupported uint8 type %T", value)
	}
}
