package model

// GasInfo carries the gas figures of a transaction as decimal strings.
type GasInfo struct {
	GasUsed         string `json:"gas_used"`
	GasLimit        string `json:"gas_limit"`
	GasPrice        string `json:"gas_price"`
	FeeWei          string `json:"fee_wei"`
	NetworkGasPrice string `json:"network_gas_price,omitempty"`
}

// Congestion buckets the observed gas price against network thresholds.
type Congestion string

const (
	CongestionLow     Congestion = "Low"
	CongestionMedium  Congestion = "Medium"
	CongestionHigh    Congestion = "High"
	CongestionExtreme Congestion = "Extreme"
)

// GasAssessment is the fee and congestion view of a transaction.
type GasAssessment struct {
	GasPriceGwei        float64    `json:"gas_price_gwei"`
	NetworkGasPriceGwei float64    `json:"network_gas_price_gwei,omitempty"`
	EfficiencyPct       float64    `json:"efficiency_pct"`
	Congestion          Congestion `json:"congestion"`
	PriceRatio          float64    `json:"price_ratio,omitempty"`
	FeeNative           string     `json:"fee_native"`
	FeeUSD              float64    `json:"fee_usd"`
}

// TransferValuation prices one fungible DecodedEvent.
type TransferValuation struct {
	EventIndex  int     `json:"event_index"`
	Symbol      string  `json:"symbol"`
	Amount      string  `json:"amount"`
	USDValue    float64 `json:"usd_value"`
	PriceSource string  `json:"price_source"`
	Confidence  float64 `json:"confidence"`
}

// Opportunity is a heuristic observation such as an arbitrage-like round trip.
type Opportunity struct {
	Kind        string `json:"kind"`
	Description string `json:"description"`
	Token       string `json:"token,omitempty"`
	Address     string `json:"address,omitempty"`
}

// AdvancedAnalysis is the enrichment output of the price aggregator.
type AdvancedAnalysis struct {
	Status             TxStatus            `json:"status"`
	Valuations         []TransferValuation `json:"valuations"`
	TotalUSD           float64             `json:"total_usd"`
	Gas                GasAssessment       `json:"gas"`
	Interactions       []DeFiInteraction   `json:"interactions"`
	Opportunities      []Opportunity       `json:"opportunities"`
	Risk               RiskAssessment      `json:"risk"`
	DataSourceRequired []string            `json:"data_source_required,omitempty"`
}

// TxStatus is the receipt outcome of a transaction.
type TxStatus string

const (
	TxStatusSuccess TxStatus = "success"
	TxStatusFailed  TxStatus = "failed"
	TxStatusPending TxStatus = "pending"
)
