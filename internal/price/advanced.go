package price

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/core/types"
	"golang.org/x/sync/errgroup"

	"txScope/internal/chain"
	"txScope/internal/model"
	"txScope/internal/protocol"
	"txScope/internal/units"
)

// Classifier tags the contracts touched by a transaction.
type Classifier interface {
	Classify(ctx context.Context, networkID uint64, contracts []string, tx protocol.TxContext, logs []*types.Log, caller chain.ContractCaller) []model.DeFiInteraction
}

// Scorer turns the enrichment into a risk assessment.
type Scorer interface {
	Score(events []model.DecodedEvent, interactions []model.DeFiInteraction, advanced model.AdvancedAnalysis) model.RiskAssessment
}

// AdvancedInput is everything the enrichment stage reads.
type AdvancedInput struct {
	Network   model.NetworkDescriptor
	Events    []model.DecodedEvent
	Gas       model.GasInfo
	Status    model.TxStatus
	Contracts []string
	Tx        protocol.TxContext
	Logs      []*types.Log
	Caller    chain.ContractCaller
}

// AdvancedAnalysis values transfers and fees, assesses gas, then delegates
// to the classifier and scorer. It never fails; missing prices lower confidence.
func (a *Aggregator) AdvancedAnalysis(ctx context.Context, in AdvancedInput) model.AdvancedAnalysis {
	quotes := a.quotes(ctx, symbolsFor(in))

	out := model.AdvancedAnalysis{
		Status:        in.Status,
		Valuations:    []model.TransferValuation{},
		Interactions:  []model.DeFiInteraction{},
		Opportunities: []model.Opportunity{},
	}

	for i, event := range in.Events {
		if !event.IsFungible() || event.Token.IsUnknown() {
			continue
		}
		quote := quotes[normalize(event.Token.Symbol)]
		amount := units.ToFloat(units.ParseBig(event.Amount), event.Token.Decimals)
		usd := amount * quote.USDPrice
		out.Valuations = append(out.Valuations, model.TransferValuation{
			EventIndex:  i,
			Symbol:      event.Token.Symbol,
			Amount:      units.FormatTokenAmount(units.ParseBig(event.Amount), event.Token.Decimals),
			USDValue:    usd,
			PriceSource: quote.Source,
			Confidence:  quote.Confidence,
		})
		out.TotalUSD += usd
	}

	out.Gas = AssessGas(in.Network, in.Gas, quotes[normalize(in.Network.NativeSymbol)])

	if a.classifier != nil && len(in.Contracts) > 0 {
		out.Interactions = a.classifier.Classify(ctx, in.Network.ID, in.Contracts, in.Tx, in.Logs, in.Caller)
	}
	if len(out.Interactions) > 0 {
		out.DataSourceRequired = append([]string(nil), protocol.DataSourceRequired...)
	}
	out.Opportunities = findOpportunities(in.Events, out.Interactions)

	if a.scorer != nil {
		out.Risk = a.scorer.Score(in.Events, out.Interactions, out)
	}
	return out
}

func symbolsFor(in AdvancedInput) []string {
	seen := map[string]struct{}{}
	var symbols []string
	add := func(symbol string) {
		key := normalize(symbol)
		if key == "" {
			return
		}
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		symbols = append(symbols, key)
	}
	add(in.Network.NativeSymbol)
	for _, event := range in.Events {
		if event.IsFungible() && !event.Token.IsUnknown() {
			add(event.Token.Symbol)
		}
	}
	return symbols
}

// quotes fetches every symbol concurrently, bounded by maxParallel.
func (a *Aggregator) quotes(ctx context.Context, symbols []string) map[string]model.PriceQuote {
	out := make(map[string]model.PriceQuote, len(symbols))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.maxParallel)
	for _, symbol := range symbols {
		symbol := symbol
		g.Go(func() error {
			quote := a.GetQuote(gctx, symbol)
			mu.Lock()
			out[symbol] = quote
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// AssessGas computes efficiency, the congestion bucket and the fee in USD.
// Congestion uses the network gas price when known, else the paid price.
func AssessGas(network model.NetworkDescriptor, gas model.GasInfo, nativeQuote model.PriceQuote) model.GasAssessment {
	used := units.ParseBig(gas.GasUsed)
	limit := units.ParseBig(gas.GasLimit)
	paid := units.ParseBig(gas.GasPrice)
	fee := units.ParseBig(gas.FeeWei)
	if fee.Sign() == 0 && used.Sign() > 0 {
		fee = new(big.Int).Mul(used, paid)
	}

	out := model.GasAssessment{
		GasPriceGwei: units.WeiToGwei(paid),
		FeeNative:    units.FormatTokenAmount(fee, network.NativeDecimals),
	}
	out.FeeUSD = units.ToFloat(fee, network.NativeDecimals) * nativeQuote.USDPrice
	if limit.Sign() > 0 {
		out.EfficiencyPct = units.ToFloat(used, 0) / units.ToFloat(limit, 0) * 100
	}

	reference := out.GasPriceGwei
	if gas.NetworkGasPrice != "" {
		networkPrice := units.ParseBig(gas.NetworkGasPrice)
		if networkPrice.Sign() > 0 {
			out.NetworkGasPriceGwei = units.WeiToGwei(networkPrice)
			out.PriceRatio = out.GasPriceGwei / out.NetworkGasPriceGwei
			reference = out.NetworkGasPriceGwei
		}
	}
	out.Congestion = Congestion(network.Gas, reference)
	return out
}

// DefaultGasThresholds applies to networks without configured thresholds.
var DefaultGasThresholds = model.GasThresholds{LowGwei: 15, HighGwei: 50, ExtremeGwei: 150}

// Congestion buckets a gas price in gwei against network thresholds.
func Congestion(thresholds model.GasThresholds, gwei float64) model.Congestion {
	if thresholds == (model.GasThresholds{}) {
		thresholds = DefaultGasThresholds
	}
	switch {
	case thresholds.ExtremeGwei > 0 && gwei >= thresholds.ExtremeGwei:
		return model.CongestionExtreme
	case thresholds.HighGwei > 0 && gwei >= thresholds.HighGwei:
		return model.CongestionHigh
	case gwei >= thresholds.LowGwei:
		return model.CongestionMedium
	default:
		return model.CongestionLow
	}
}

// findOpportunities reports untagged addresses that both send and receive the
// same token inside a transaction that touched a DEX.
func findOpportunities(events []model.DecodedEvent, interactions []model.DeFiInteraction) []model.Opportunity {
	out := []model.Opportunity{}
	dex := false
	tagged := map[string]bool{}
	for _, interaction := range interactions {
		tagged[strings.ToLower(interaction.Contract)] = true
		if interaction.Tag.Category == model.CategoryDEX {
			dex = true
		}
	}
	if !dex {
		return out
	}

	type key struct{ address, token string }
	sent := map[key]bool{}
	received := map[key]bool{}
	var order []key
	for _, event := range events {
		if !event.IsFungible() || strings.EqualFold(event.From, event.To) {
			continue
		}
		token := strings.ToLower(event.Token.Address)
		from := key{strings.ToLower(event.From), token}
		to := key{strings.ToLower(event.To), token}
		if !sent[from] && !received[from] {
			order = append(order, from)
		}
		sent[from] = true
		if !sent[to] && !received[to] {
			order = append(order, to)
		}
		received[to] = true
	}
	symbols := map[string]string{}
	for _, event := range events {
		symbols[strings.ToLower(event.Token.Address)] = event.Token.Symbol
	}
	for _, k := range order {
		if sent[k] && received[k] && !tagged[k.address] {
			out = append(out, model.Opportunity{
				Kind:        "arbitrage",
				Description: fmt.Sprintf("%s sent and received %s in the same transaction", k.address, symbols[k.token]),
				Token:       symbols[k.token],
				Address:     k.address,
			})
		}
	}
	return out
}
