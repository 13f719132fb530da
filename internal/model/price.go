package model

import "time"

// PriceQuote is a USD quote for a symbol from one source.
type PriceQuote struct {
	Symbol     string    `json:"symbol"`
	USDPrice   float64   `json:"usd_price"`
	Change24h  float64   `json:"change_24h"`
	Volume24h  float64   `json:"volume_24h"`
	MarketCap  float64   `json:"market_cap"`
	Source     string    `json:"source"`
	Confidence float64   `json:"confidence"`
	FetchedAt  time.Time `json:"fetched_at"`
}
