package analysis

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"txScope/internal/model"
	"txScope/internal/protocol"
	"txScope/internal/units"
)

func (r *run) address() error {
	network := r.network()
	address := common.HexToAddress(r.artifact.Input)

	var balance *big.Int
	err := r.fetch("balance", func(ctx context.Context) error {
		var err error
		balance, err = r.conn.BalanceAt(ctx, address, nil)
		return err
	})
	if err != nil {
		return err
	}

	section := &model.AddressSection{
		Address:          address.Hex(),
		Balance:          balance.String(),
		BalanceFormatted: units.FormatTokenAmount(balance, network.NativeDecimals) + " " + network.NativeSymbol,
	}

	if err := r.fetch("nonce", func(ctx context.Context) error {
		var err error
		section.Nonce, err = r.conn.NonceAt(ctx, address, nil)
		return err
	}); err != nil {
		r.diagnose("nonce unavailable: %v", err)
	}

	var code []byte
	if err := r.fetch("code", func(ctx context.Context) error {
		var err error
		code, err = r.conn.CodeAt(ctx, address, nil)
		return err
	}); err != nil {
		r.diagnose("code unavailable: %v", err)
	}
	section.IsContract = len(code) > 0
	section.CodeSize = len(code)
	r.artifact.Address = section

	if section.IsContract {
		r.stage("token metadata", func() {
			meta := r.tools.resolver.Resolve(r.ctx, address, r.conn)
			if !meta.IsUnknown() {
				section.Token = &meta
			}
		})
	}

	var interactions []model.DeFiInteraction
	if r.stage("protocol classification", func() {
		interactions = r.a.classifier.Classify(r.ctx, network.ID, []string{address.Hex()}, protocol.TxContext{}, nil, r.conn)
	}) && len(interactions) > 0 {
		section.Interaction = &interactions[0]
		r.tally.interactions = interactions
	}

	r.stage("pricing", func() {
		quote := r.a.prices.GetQuote(r.ctx, network.NativeSymbol)
		section.BalanceUSD = units.ToFloat(balance, network.NativeDecimals) * quote.USDPrice
		section.PriceConfidence = quote.Confidence
	})
	r.tally.totalUSD = section.BalanceUSD
	r.tally.risk = r.a.scorer.Score(nil, r.tally.interactions, model.AdvancedAnalysis{}).OverallLevel
	return nil
}
