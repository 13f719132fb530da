// Package protocol tags contracts with the DeFi protocol family they belong to.
package protocol

import (
	"bytes"
	"context"
	"math"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"txScope/internal/chain"
	"txScope/internal/model"
)

const (
	baseConfidence  = 0.5
	knownBonus      = 0.3
	actionBonus     = 0.2
	highRiskPenalty = 0.2

	// minSelectorHits is how many category selectors bytecode must embed.
	minSelectorHits = 2
	push4           = 0x63
)

// TxContext is the calling transaction as seen by the classifier.
type TxContext struct {
	From  common.Address
	To    *common.Address
	Input []byte
}

type categoryProbe struct {
	category  model.Category
	views     []string
	selectors [][4]byte
}

// Classifier matches contracts against known deployments, then falls back to
// capability probes in a fixed category order.
type Classifier struct {
	known  map[uint64]map[common.Address]KnownProtocol
	tables signatureTables
	probes []categoryProbe
	logger *zap.Logger
}

func NewClassifier(logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	tables := buildSignatureTables()
	return &Classifier{
		known:  knownTable(),
		tables: tables,
		probes: []categoryProbe{
			{
				category:  model.CategoryDEX,
				views:     []string{"factory()", "WETH()", "token0()", "getReserves()"},
				selectors: selectorsFor(tables, model.CategoryDEX),
			},
			{
				category:  model.CategoryLending,
				views:     []string{"getReservesList()", "ADDRESSES_PROVIDER()", "comptroller()", "getAllMarkets()"},
				selectors: selectorsFor(tables, model.CategoryLending),
			},
			{
				category:  model.CategoryYieldFarming,
				views:     []string{"rewardRate()", "rewardsToken()", "stakingToken()", "poolLength()"},
				selectors: selectorsFor(tables, model.CategoryYieldFarming),
			},
			{
				category:  model.CategoryBridge,
				views:     []string{"messenger()", "l1TokenBridge()", "counterpartGateway()", "bridge()"},
				selectors: selectorsFor(tables, model.CategoryBridge),
			},
		},
		logger: logger.With(zap.String("component", "protocol_classifier")),
	}
}

func selectorsFor(tables signatureTables, category model.Category) [][4]byte {
	var out [][4]byte
	for sel, method := range tables.methods {
		if method.Category == category {
			out = append(out, sel)
		}
	}
	return out
}

// Known returns the curated entry for address on a network.
func (c *Classifier) Known(networkID uint64, address common.Address) (KnownProtocol, bool) {
	entry, ok := c.known[networkID][address]
	return entry, ok
}

// Method returns the hex selector of input and its humanized name when known.
func (c *Classifier) Method(input []byte) (string, string) {
	if len(input) < 4 {
		return "", ""
	}
	var sel [4]byte
	copy(sel[:], input[:4])
	if method, ok := c.tables.methods[sel]; ok {
		return hexutil.Encode(sel[:]), Humanize(method.Name)
	}
	return hexutil.Encode(sel[:]), ""
}

// Classify tags each contract address. Addresses that match nothing are left out.
func (c *Classifier) Classify(ctx context.Context, networkID uint64, contracts []string, tx TxContext, logs []*types.Log, caller chain.ContractCaller) []model.DeFiInteraction {
	out := make([]model.DeFiInteraction, 0, len(contracts))
	for _, raw := range contracts {
		if !common.IsHexAddress(raw) {
			continue
		}
		address := common.HexToAddress(raw)
		interaction, ok := c.classifyOne(ctx, networkID, address, tx, logs, caller)
		if !ok {
			continue
		}
		out = append(out, interaction)
	}
	return out
}

func (c *Classifier) classifyOne(ctx context.Context, networkID uint64, address common.Address, tx TxContext, logs []*types.Log, caller chain.ContractCaller) (model.DeFiInteraction, bool) {
	var (
		tag       model.ProtocolTag
		matchedBy string
	)
	if entry, ok := c.Known(networkID, address); ok {
		tag = model.ProtocolTag{
			ProtocolName: entry.Name,
			Category:     entry.Category,
			Verified:     true,
			RiskLevel:    entry.Risk,
		}
		matchedBy = "address"
	} else {
		category, how, ok := c.infer(ctx, address, caller)
		if !ok {
			return model.DeFiInteraction{}, false
		}
		tag = model.ProtocolTag{
			ProtocolName: "Unverified " + string(category),
			Category:     category,
			Verified:     false,
			RiskLevel:    categories[category].defaultRisk,
		}
		matchedBy = how
	}

	tag.Action = c.action(address, tx, logs)
	tag.Confidence = confidence(tag)

	info := categories[tag.Category]
	return model.DeFiInteraction{
		Contract:           address.Hex(),
		Tag:                tag,
		MatchedBy:          matchedBy,
		Purpose:            info.purpose,
		Risks:              append([]string(nil), info.risks...),
		Opportunities:      append([]string(nil), info.opportunities...),
		Recommendations:    append([]string(nil), info.recommendations...),
		DataSourceRequired: append([]string(nil), DataSourceRequired...),
	}, true
}

// infer walks the category probes in order. A category wins when one of its
// view functions answers, or when the bytecode embeds enough of its selectors.
func (c *Classifier) infer(ctx context.Context, address common.Address, caller chain.ContractCaller) (model.Category, string, bool) {
	if caller == nil {
		return "", "", false
	}
	code, err := caller.CodeAt(ctx, address, nil)
	if err != nil {
		c.logger.Debug("code fetch failed", zap.String("address", address.Hex()), zap.Error(err))
	} else if len(code) == 0 {
		return "", "", false
	}

	for _, probe := range c.probes {
		for _, view := range probe.views {
			result := chain.Probe(ctx, caller, address, selectorBytes(view))
			switch result.Status {
			case chain.ProbeSupported:
				return probe.category, "probe:" + view, true
			case chain.ProbeError:
				c.logger.Debug("capability probe failed",
					zap.String("address", address.Hex()),
					zap.String("view", view),
					zap.Error(result.Err),
				)
			}
		}
		if countSelectors(code, probe.selectors) >= minSelectorHits {
			return probe.category, "bytecode", true
		}
	}
	return "", "", false
}

func (c *Classifier) action(address common.Address, tx TxContext, logs []*types.Log) string {
	if tx.To != nil && *tx.To == address && len(tx.Input) >= 4 {
		var sel [4]byte
		copy(sel[:], tx.Input[:4])
		if method, ok := c.tables.methods[sel]; ok {
			return Humanize(method.Name)
		}
	}
	for _, lg := range logs {
		if lg == nil || lg.Address != address || len(lg.Topics) == 0 {
			continue
		}
		if name, ok := c.tables.events[lg.Topics[0]]; ok {
			return Humanize(name)
		}
	}
	return ""
}

func confidence(tag model.ProtocolTag) float64 {
	score := baseConfidence
	if tag.Verified {
		score += knownBonus
	}
	if tag.Action != "" {
		score += actionBonus
	}
	if tag.RiskLevel.AtLeast(model.RiskHigh) {
		score -= highRiskPenalty
	}
	return math.Max(0, math.Min(1, score))
}

func selectorBytes(signature string) []byte {
	sel := selector(signature)
	return sel[:]
}

func countSelectors(code []byte, selectors [][4]byte) int {
	if len(code) == 0 {
		return 0
	}
	hits := 0
	needle := make([]byte, 5)
	needle[0] = push4
	for _, sel := range selectors {
		copy(needle[1:], sel[:])
		if bytes.Contains(code, needle) {
			hits++
		}
	}
	return hits
}
