package price

import "strings"

// Feed describes how to price a symbol.
type Feed struct {
	CoinGeckoID  string
	BinancePair  string
	ReferenceUSD float64
	Stable       bool
}

const (
	// Stablecoin fallbacks stay close to the peg, so they keep more confidence.
	stableFallbackConfidence   = 0.7
	volatileFallbackConfidence = 0.3
)

// knownFeeds is the static set of symbols looked up externally.
var knownFeeds = map[string]Feed{
	"ETH":    {CoinGeckoID: "ethereum", BinancePair: "ETHUSDT", ReferenceUSD: 3000},
	"WETH":   {CoinGeckoID: "ethereum", BinancePair: "ETHUSDT", ReferenceUSD: 3000},
	"STETH":  {CoinGeckoID: "staked-ether", ReferenceUSD: 3000},
	"BTC":    {CoinGeckoID: "bitcoin", BinancePair: "BTCUSDT", ReferenceUSD: 60000},
	"WBTC":   {CoinGeckoID: "wrapped-bitcoin", BinancePair: "BTCUSDT", ReferenceUSD: 60000},
	"BNB":    {CoinGeckoID: "binancecoin", BinancePair: "BNBUSDT", ReferenceUSD: 550},
	"WBNB":   {CoinGeckoID: "binancecoin", BinancePair: "BNBUSDT", ReferenceUSD: 550},
	"POL":    {CoinGeckoID: "polygon-ecosystem-token", BinancePair: "POLUSDT", ReferenceUSD: 0.5},
	"MATIC":  {CoinGeckoID: "matic-network", BinancePair: "POLUSDT", ReferenceUSD: 0.5},
	"WMATIC": {CoinGeckoID: "matic-network", BinancePair: "POLUSDT", ReferenceUSD: 0.5},
	"USDC":   {CoinGeckoID: "usd-coin", BinancePair: "USDCUSDT", ReferenceUSD: 1, Stable: true},
	"USDT":   {CoinGeckoID: "tether", ReferenceUSD: 1, Stable: true},
	"DAI":    {CoinGeckoID: "dai", ReferenceUSD: 1, Stable: true},
	"BUSD":   {CoinGeckoID: "binance-usd", ReferenceUSD: 1, Stable: true},
	"LINK":   {CoinGeckoID: "chainlink", BinancePair: "LINKUSDT", ReferenceUSD: 15},
	"UNI":    {CoinGeckoID: "uniswap", BinancePair: "UNIUSDT", ReferenceUSD: 8},
	"AAVE":   {CoinGeckoID: "aave", BinancePair: "AAVEUSDT", ReferenceUSD: 100},
	"ARB":    {CoinGeckoID: "arbitrum", BinancePair: "ARBUSDT", ReferenceUSD: 1},
	"OP":     {CoinGeckoID: "optimism", BinancePair: "OPUSDT", ReferenceUSD: 2},
	"CRV":    {CoinGeckoID: "curve-dao-token", BinancePair: "CRVUSDT", ReferenceUSD: 0.5},
	"LDO":    {CoinGeckoID: "lido-dao", BinancePair: "LDOUSDT", ReferenceUSD: 2},
}

// LookupFeed returns the feed for symbol, case-insensitively.
func LookupFeed(symbol string) (Feed, bool) {
	feed, ok := knownFeeds[normalize(symbol)]
	return feed, ok
}

func normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
