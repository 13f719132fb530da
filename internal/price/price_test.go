package price

import (
	"context"
	"math"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"txScope/internal/model"
)

func coinGeckoServer(t *testing.T, hits *int32, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		if r.URL.Path != "/simple/price" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		id := r.URL.Query().Get("ids")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"` + id + `":{"usd":2000,"usd_24h_change":1.5,"usd_24h_vol":1000000,"usd_market_cap":240000000000}}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func binanceServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		_, _ = w.Write([]byte(`{"symbol":"` + r.URL.Query().Get("symbol") + `","lastPrice":"1999.50","priceChangePercent":"-0.4","quoteVolume":"5000"}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGetQuoteFromFirstSourceAndCache(t *testing.T) {
	var cgHits, bnHits int32
	cg := coinGeckoServer(t, &cgHits, http.StatusOK)
	bn := binanceServer(t, &bnHits)
	now := time.Unix(1_700_000_000, 0)
	agg := NewAggregator(Options{Logger: zap.NewNop(), Clock: func() time.Time { return now }},
		[]Source{NewCoinGeckoSource(cg.URL, time.Second), NewBinanceSource(bn.URL, time.Second)}, nil, nil)

	quote := agg.GetQuote(context.Background(), "eth")
	if quote.Source != "coingecko" || quote.USDPrice != 2000 || quote.Symbol != "ETH" || quote.MarketCap == 0 {
		t.Fatalf("unexpected quote %+v", quote)
	}
	agg.GetQuote(context.Background(), "ETH")
	if atomic.LoadInt32(&cgHits) != 1 || atomic.LoadInt32(&bnHits) != 0 {
		t.Fatalf("expected one upstream call, got cg=%d bn=%d", cgHits, bnHits)
	}

	now = now.Add(DefaultTTL)
	agg.GetQuote(context.Background(), "ETH")
	if atomic.LoadInt32(&cgHits) != 2 {
		t.Fatalf("expired quote should be refetched")
	}
}

func TestGetQuoteFailsOverToSecondSource(t *testing.T) {
	var cgHits, bnHits int32
	cg := coinGeckoServer(t, &cgHits, http.StatusTooManyRequests)
	bn := binanceServer(t, &bnHits)
	agg := NewAggregator(Options{}, []Source{NewCoinGeckoSource(cg.URL, time.Second), NewBinanceSource(bn.URL, time.Second)}, nil, nil)

	quote := agg.GetQuote(context.Background(), "WETH")
	if quote.Source != "binance" || quote.USDPrice != 1999.5 || quote.Confidence != 0.9 {
		t.Fatalf("unexpected quote %+v", quote)
	}
}

func TestGetQuoteFallback(t *testing.T) {
	var cgHits int32
	cg := coinGeckoServer(t, &cgHits, http.StatusInternalServerError)
	agg := NewAggregator(Options{}, []Source{NewCoinGeckoSource(cg.URL, time.Second)}, nil, nil)

	usdc := agg.GetQuote(context.Background(), "USDC")
	if usdc.Source != FallbackSource || usdc.USDPrice != 1 || usdc.Confidence > 0.7 {
		t.Fatalf("unexpected fallback %+v", usdc)
	}
	agg.GetQuote(context.Background(), "USDC")
	if atomic.LoadInt32(&cgHits) != 2 {
		t.Fatalf("fallback quotes must not be cached, hits=%d", cgHits)
	}
}

func TestGetQuoteNeverFailsAndConfidenceBounded(t *testing.T) {
	agg := NewAggregator(Options{}, []Source{NewCoinGeckoSource("http://127.0.0.1:1", 50*time.Millisecond)}, nil, nil)
	for _, symbol := range []string{"ETH", "USDT", "NOT_A_TOKEN", "", "UNKNOWN", "wbtc"} {
		quote := agg.GetQuote(context.Background(), symbol)
		if quote.Confidence < 0 || quote.Confidence > 1 {
			t.Fatalf("%q: confidence out of range %v", symbol, quote.Confidence)
		}
		if quote.Source != FallbackSource {
			t.Fatalf("%q: expected fallback, got %s", symbol, quote.Source)
		}
	}
	if q := agg.GetQuote(context.Background(), "NOT_A_TOKEN"); q.USDPrice != 0 || q.Confidence != 0 {
		t.Fatalf("unknown symbols should carry no price, got %+v", q)
	}
}

type staticSource struct{ price float64 }

func (s staticSource) Name() string { return "static" }

func (s staticSource) Quote(ctx context.Context, symbol string, feed Feed) (model.PriceQuote, error) {
	return model.PriceQuote{Symbol: symbol, USDPrice: s.price, Source: "static", Confidence: 1}, nil
}

type countingScorer struct{ calls int }

func (c *countingScorer) Score(events []model.DecodedEvent, interactions []model.DeFiInteraction, advanced model.AdvancedAnalysis) model.RiskAssessment {
	c.calls++
	return model.RiskAssessment{OverallLevel: model.RiskLow}
}

func mainnet() model.NetworkDescriptor {
	return model.NetworkDescriptor{ID: 1, Name: "Ethereum", NativeSymbol: "ETH", NativeDecimals: 18,
		Gas: model.GasThresholds{LowGwei: 15, HighGwei: 50, ExtremeGwei: 150}}
}

func TestAdvancedAnalysisNativeTransfer(t *testing.T) {
	scorer := &countingScorer{}
	agg := NewAggregator(Options{}, []Source{staticSource{price: 2000}}, nil, scorer)
	value, _ := new(big.Int).SetString("1500000000000000000", 10)
	events := []model.DecodedEvent{{
		Kind: model.KindNativeTransfer, From: "0xa", To: "0xb", Amount: value.String(),
		Token: model.NativeToken(mainnet()),
	}}

	out := agg.AdvancedAnalysis(context.Background(), AdvancedInput{
		Network: mainnet(),
		Events:  events,
		Status:  model.TxStatusSuccess,
		Gas:     model.GasInfo{GasUsed: "21000", GasLimit: "21000", GasPrice: "25000000000", FeeWei: "525000000000000"},
	})

	if len(out.Valuations) != 1 || math.Abs(out.TotalUSD-3000) > 1e-6 {
		t.Fatalf("unexpected valuations %+v total=%v", out.Valuations, out.TotalUSD)
	}
	if out.Valuations[0].Amount != "1.5" {
		t.Fatalf("unexpected formatted amount %s", out.Valuations[0].Amount)
	}
	if math.Abs(out.Gas.FeeUSD-1.05) > 1e-9 || out.Gas.EfficiencyPct != 100 || out.Gas.GasPriceGwei != 25 {
		t.Fatalf("unexpected gas assessment %+v", out.Gas)
	}
	if out.Gas.Congestion != model.CongestionMedium {
		t.Fatalf("expected Medium congestion at 25 gwei, got %s", out.Gas.Congestion)
	}
	if scorer.calls != 1 {
		t.Fatalf("scorer not invoked")
	}
	if len(out.Opportunities) != 0 || len(out.Interactions) != 0 {
		t.Fatalf("plain transfer should have no interactions or opportunities")
	}
}

func TestCongestionBuckets(t *testing.T) {
	th := mainnet().Gas
	cases := map[float64]model.Congestion{
		5:   model.CongestionLow,
		20:  model.CongestionMedium,
		60:  model.CongestionHigh,
		200: model.CongestionExtreme,
	}
	for gwei, want := range cases {
		if got := Congestion(th, gwei); got != want {
			t.Fatalf("%v gwei: expected %s, got %s", gwei, want, got)
		}
	}
}

func TestFindOpportunitiesRequiresDEX(t *testing.T) {
	token := model.TokenMetadata{Address: "0xt", Symbol: "USDC", Decimals: 6, Standard: model.StandardERC20}
	events := []model.DecodedEvent{
		{Kind: model.KindTokenTransfer, From: "0xbot", To: "0xpool1", Amount: "100", Token: token},
		{Kind: model.KindTokenTransfer, From: "0xpool2", To: "0xbot", Amount: "101", Token: token},
	}
	if got := findOpportunities(events, nil); len(got) != 0 {
		t.Fatalf("no DEX, no opportunity")
	}
	dex := []model.DeFiInteraction{{Contract: "0xpool1", Tag: model.ProtocolTag{Category: model.CategoryDEX}}}
	got := findOpportunities(events, dex)
	if len(got) != 1 || got[0].Address != "0xbot" || got[0].Token != "USDC" {
		t.Fatalf("unexpected opportunities %+v", got)
	}
}

func TestLookupFeedNormalizesSymbol(t *testing.T) {
	feed, ok := LookupFeed("  wEth ")
	if !ok || feed.CoinGeckoID != "ethereum" || feed.BinancePair != "ETHUSDT" {
		t.Fatalf("unexpected feed %+v %v", feed, ok)
	}
	if usdc, _ := LookupFeed("usdc"); !usdc.Stable {
		t.Fatalf("usdc should be a stable feed")
	}
	if _, ok := LookupFeed("NOT_A_TOKEN"); ok {
		t.Fatalf("unknown symbols have no feed")
	}
}
