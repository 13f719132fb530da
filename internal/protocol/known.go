package protocol

import (
	"github.com/ethereum/go-ethereum/common"

	"txScope/internal/model"
)

// KnownProtocol is a curated, verified deployment.
type KnownProtocol struct {
	Name     string
	Category model.Category
	Risk     model.RiskLevel
}

type knownEntry struct {
	address string
	KnownProtocol
}

var (
	uniswapV2Router    = KnownProtocol{"Uniswap V2", model.CategoryDEX, model.RiskLow}
	uniswapV3Router    = KnownProtocol{"Uniswap V3", model.CategoryDEX, model.RiskLow}
	uniswapUniversal   = KnownProtocol{"Uniswap Universal Router", model.CategoryDEX, model.RiskLow}
	sushiRouter        = KnownProtocol{"SushiSwap", model.CategoryDEX, model.RiskLow}
	oneInchRouter      = KnownProtocol{"1inch Aggregation Router", model.CategoryDEX, model.RiskMedium}
	curve3Pool         = KnownProtocol{"Curve 3pool", model.CategoryDEX, model.RiskLow}
	aaveV2Pool         = KnownProtocol{"Aave V2", model.CategoryLending, model.RiskMedium}
	aaveV3Pool         = KnownProtocol{"Aave V3", model.CategoryLending, model.RiskMedium}
	compoundComptrol   = KnownProtocol{"Compound", model.CategoryLending, model.RiskMedium}
	lidoStETH          = KnownProtocol{"Lido", model.CategoryStaking, model.RiskLow}
	convexBooster      = KnownProtocol{"Convex Finance", model.CategoryYieldFarming, model.RiskMedium}
	stargateRouter     = KnownProtocol{"Stargate", model.CategoryBridge, model.RiskHigh}
	arbitrumInbox      = KnownProtocol{"Arbitrum Bridge", model.CategoryBridge, model.RiskMedium}
	optimismBridge     = KnownProtocol{"Optimism Bridge", model.CategoryBridge, model.RiskMedium}
	pancakeV2Router    = KnownProtocol{"PancakeSwap V2", model.CategoryDEX, model.RiskLow}
	pancakeSmartRouter = KnownProtocol{"PancakeSwap V3", model.CategoryDEX, model.RiskLow}
	venusComptroller   = KnownProtocol{"Venus", model.CategoryLending, model.RiskMedium}
	quickSwapRouter    = KnownProtocol{"QuickSwap", model.CategoryDEX, model.RiskLow}
)

var knownByNetwork = map[uint64][]knownEntry{
	1: {
		{"0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D", uniswapV2Router},
		{"0xE592427A0AEce92De3Edee1F18E0157C05861564", uniswapV3Router},
		{"0x68b3465833fb72A70ecDF485E0e4C7bD8665Fc45", uniswapV3Router},
		{"0x3fC91A3afd70395Cd496C647d5a6CC9D4B2b7FAD", uniswapUniversal},
		{"0xd9e1cE17f2641f24aE83637ab66a2cca9C378B9F", sushiRouter},
		{"0x1111111254EEB25477B68fb85Ed929f73A960582", oneInchRouter},
		{"0xbEbc44782C7dB0a1A60Cb6fe97d0b483032FF1C7", curve3Pool},
		{"0x7d2768dE32b0b80b7a3454c06BdAc94A69DDc7A9", aaveV2Pool},
		{"0x87870Bca3F3fD6335C3F4ce8392D69350B4fA4E2", aaveV3Pool},
		{"0x3d9819210A31b4961b30EF54bE2aeD79B9c9Cd3B", compoundComptrol},
		{"0xae7ab96520DE3A18E5e111B5EaAb095312D7fE84", lidoStETH},
		{"0xF403C135812408BFbE8713b5A23a04b3D48AAE31", convexBooster},
		{"0x8731d54E9D02c286767d56ac03e8037C07e01e98", stargateRouter},
		{"0x4Dbd4fc535Ac27206064B68FfCf827b0A60BAB3f", arbitrumInbox},
		{"0x99C9fc46f92E8a1c0deC1b1747d010903E884bE1", optimismBridge},
	},
	56: {
		{"0x10ED43C718714eb63d5aA57B78B54704E256024E", pancakeV2Router},
		{"0x13f4EA83D0bd40E75C8222255bc855a974568Dd4", pancakeSmartRouter},
		{"0x1111111254EEB25477B68fb85Ed929f73A960582", oneInchRouter},
		{"0xfD36E2c2a6789Db23113685031d7F16329158384", venusComptroller},
	},
	137: {
		{"0xa5E0829CaCEd8fFDD4De3c43696c57F7D7A678ff", quickSwapRouter},
		{"0xE592427A0AEce92De3Edee1F18E0157C05861564", uniswapV3Router},
		{"0x1111111254EEB25477B68fb85Ed929f73A960582", oneInchRouter},
		{"0x794a61358D6845594F94dc1DB02A252b5b4814aD", aaveV3Pool},
	},
	10: {
		{"0xE592427A0AEce92De3Edee1F18E0157C05861564", uniswapV3Router},
		{"0x1111111254EEB25477B68fb85Ed929f73A960582", oneInchRouter},
		{"0x794a61358D6845594F94dc1DB02A252b5b4814aD", aaveV3Pool},
	},
	42161: {
		{"0xE592427A0AEce92De3Edee1F18E0157C05861564", uniswapV3Router},
		{"0x1111111254EEB25477B68fb85Ed929f73A960582", oneInchRouter},
		{"0x794a61358D6845594F94dc1DB02A252b5b4814aD", aaveV3Pool},
	},
	8453: {
		{"0x3fC91A3afd70395Cd496C647d5a6CC9D4B2b7FAD", uniswapUniversal},
		{"0xA238Dd80C259a72e81d7e4664a9801593F98d1c5", aaveV3Pool},
	},
}

// knownTable indexes knownByNetwork by parsed address.
func knownTable() map[uint64]map[common.Address]KnownProtocol {
	out := make(map[uint64]map[common.Address]KnownProtocol, len(knownByNetwork))
	for networkID, entries := range knownByNetwork {
		byAddr := make(map[common.Address]KnownProtocol, len(entries))
		for _, entry := range entries {
			byAddr[common.HexToAddress(entry.address)] = entry.KnownProtocol
		}
		out[networkID] = byAddr
	}
	return out
}

// categoryInfo is the static guidance attached to every interaction of a category.
type categoryInfo struct {
	purpose         string
	defaultRisk     model.RiskLevel
	risks           []string
	opportunities   []string
	recommendations []string
}

var categories = map[model.Category]categoryInfo{
	model.CategoryDEX: {
		purpose:         "Token exchange through an automated market maker or aggregator",
		defaultRisk:     model.RiskMedium,
		risks:           []string{"Slippage on thin liquidity", "Sandwich attacks by MEV searchers", "Price impact on large orders"},
		opportunities:   []string{"Route comparison across venues", "Liquidity provision fees"},
		recommendations: []string{"Set a tight slippage tolerance", "Verify the router address before approving tokens"},
	},
	model.CategoryLending: {
		purpose:         "Supplying or borrowing assets against collateral",
		defaultRisk:     model.RiskMedium,
		risks:           []string{"Liquidation when collateral value drops", "Oracle manipulation", "Interest rate spikes at high utilization"},
		opportunities:   []string{"Supply yield on idle assets", "Leverage through recursive borrowing"},
		recommendations: []string{"Keep the health factor well above 1", "Monitor collateral price volatility"},
	},
	model.CategoryYieldFarming: {
		purpose:         "Staking liquidity or tokens to earn protocol rewards",
		defaultRisk:     model.RiskHigh,
		risks:           []string{"Reward token inflation", "Impermanent loss on staked LP tokens", "Unaudited reward contracts"},
		opportunities:   []string{"Compounding rewards", "Boosted emissions for early stakers"},
		recommendations: []string{"Check the audit status of the farm", "Account for reward token sell pressure"},
	},
	model.CategoryBridge: {
		purpose:         "Moving assets between chains",
		defaultRisk:     model.RiskHigh,
		risks:           []string{"Bridge contract exploits", "Delayed or stuck withdrawals", "Wrapped asset depeg"},
		opportunities:   []string{"Access to cheaper execution on the destination chain"},
		recommendations: []string{"Use canonical bridges for large amounts", "Confirm the destination address and chain"},
	},
	model.CategoryStaking: {
		purpose:         "Staking native assets for consensus rewards",
		defaultRisk:     model.RiskLow,
		risks:           []string{"Slashing events", "Liquid staking token depeg"},
		opportunities:   []string{"Staking yield", "Using liquid staking tokens as collateral"},
		recommendations: []string{"Diversify across staking providers"},
	},
	model.CategoryUnknown: {
		purpose:         "Unclassified contract interaction",
		defaultRisk:     model.RiskMedium,
		risks:           []string{"Unverified contract behavior"},
		recommendations: []string{"Review the contract source before interacting"},
	},
}

// DataSourceRequired names metrics that need an external provider and are never estimated.
var DataSourceRequired = []string{"tvl", "apr", "deployment_age"}
