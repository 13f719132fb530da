package price

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"txScope/internal/model"
)

const (
	DefaultCoinGeckoURL = "https://api.coingecko.com/api/v3"
	DefaultBinanceURL   = "https://api.binance.com"
)

// ErrNoFeed is returned by a source that cannot price a feed.
var ErrNoFeed = errors.New("feed not supported by source")

// Source is one upstream price provider.
type Source interface {
	Name() string
	Quote(ctx context.Context, symbol string, feed Feed) (model.PriceQuote, error)
}

// CoinGeckoSource reads the simple/price endpoint.
type CoinGeckoSource struct {
	baseURL    string
	httpClient *http.Client
}

func NewCoinGeckoSource(baseURL string, timeout time.Duration) *CoinGeckoSource {
	if baseURL == "" {
		baseURL = DefaultCoinGeckoURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &CoinGeckoSource{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (s *CoinGeckoSource) Name() string { return "coingecko" }

func (s *CoinGeckoSource) Quote(ctx context.Context, symbol string, feed Feed) (model.PriceQuote, error) {
	if feed.CoinGeckoID == "" {
		return model.PriceQuote{}, ErrNoFeed
	}
	query := url.Values{}
	query.Set("ids", feed.CoinGeckoID)
	query.Set("vs_currencies", "usd")
	query.Set("include_24hr_change", "true")
	query.Set("include_24hr_vol", "true")
	query.Set("include_market_cap", "true")

	var body map[string]struct {
		USD       *float64 `json:"usd"`
		Change24h float64  `json:"usd_24h_change"`
		Volume24h float64  `json:"usd_24h_vol"`
		MarketCap float64  `json:"usd_market_cap"`
	}
	if err := getJSON(ctx, s.httpClient, s.baseURL+"/simple/price?"+query.Encode(), &body); err != nil {
		return model.PriceQuote{}, fmt.Errorf("coingecko: %w", err)
	}
	entry, ok := body[feed.CoinGeckoID]
	if !ok || entry.USD == nil {
		return model.PriceQuote{}, fmt.Errorf("coingecko: no usd price for %s", feed.CoinGeckoID)
	}
	return model.PriceQuote{
		Symbol:     symbol,
		USDPrice:   *entry.USD,
		Change24h:  entry.Change24h,
		Volume24h:  entry.Volume24h,
		MarketCap:  entry.MarketCap,
		Source:     s.Name(),
		Confidence: 0.95,
	}, nil
}

// BinanceSource reads the 24h ticker of a USDT pair.
type BinanceSource struct {
	baseURL    string
	httpClient *http.Client
}

func NewBinanceSource(baseURL string, timeout time.Duration) *BinanceSource {
	if baseURL == "" {
		baseURL = DefaultBinanceURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &BinanceSource{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (s *BinanceSource) Name() string { return "binance" }

func (s *BinanceSource) Quote(ctx context.Context, symbol string, feed Feed) (model.PriceQuote, error) {
	if feed.BinancePair == "" {
		return model.PriceQuote{}, ErrNoFeed
	}
	var body struct {
		LastPrice          string `json:"lastPrice"`
		PriceChangePercent string `json:"priceChangePercent"`
		QuoteVolume        string `json:"quoteVolume"`
	}
	if err := getJSON(ctx, s.httpClient, s.baseURL+"/api/v3/ticker/24hr?symbol="+url.QueryEscape(feed.BinancePair), &body); err != nil {
		return model.PriceQuote{}, fmt.Errorf("binance: %w", err)
	}
	last, err := strconv.ParseFloat(body.LastPrice, 64)
	if err != nil || last <= 0 {
		return model.PriceQuote{}, fmt.Errorf("binance: invalid last price %q", body.LastPrice)
	}
	change, _ := strconv.ParseFloat(body.PriceChangePercent, 64)
	volume, _ := strconv.ParseFloat(body.QuoteVolume, 64)
	return model.PriceQuote{
		Symbol:     symbol,
		USDPrice:   last,
		Change24h:  change,
		Volume24h:  volume,
		Source:     s.Name(),
		Confidence: 0.9,
	}, nil
}

func getJSON(ctx context.Context, client *http.Client, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
