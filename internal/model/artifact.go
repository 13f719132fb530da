package model

import "time"

// InputKind is the classification of a user-entered string.
type InputKind string

const (
	InputTransaction InputKind = "transaction-hash"
	InputBlock       InputKind = "block-number"
	InputAddress     InputKind = "address"
	InputInvalid     InputKind = "invalid"
)

// Complexity tiers for the artifact summary.
const (
	ComplexitySimple      = "Simple"
	ComplexityModerate    = "Moderate"
	ComplexityComplex     = "Complex"
	ComplexityVeryComplex = "Very Complex"
)

// TransactionSection describes an analysed transaction.
type TransactionSection struct {
	Hash            string          `json:"hash"`
	BlockNumber     string          `json:"block_number,omitempty"`
	BlockTimestamp  uint64          `json:"block_timestamp,omitempty"`
	From            string          `json:"from"`
	To              string          `json:"to,omitempty"`
	ContractCreated string          `json:"contract_created,omitempty"`
	Value           string          `json:"value"`
	ValueFormatted  string          `json:"value_formatted"`
	Nonce           uint64          `json:"nonce"`
	Status          TxStatus        `json:"status"`
	MethodSelector  string          `json:"method_selector,omitempty"`
	MethodName      string          `json:"method_name,omitempty"`
	Gas             GasInfo         `json:"gas"`
	Events          ExtractedEvents `json:"events"`
}

// BlockTxRow is one transaction inside a block analysis.
type BlockTxRow struct {
	Hash        string   `json:"hash"`
	From        string   `json:"from,omitempty"`
	To          string   `json:"to,omitempty"`
	Value       string   `json:"value"`
	Status      TxStatus `json:"status,omitempty"`
	GasUsed     string   `json:"gas_used,omitempty"`
	Unavailable bool     `json:"unavailable,omitempty"`
	Reason      string   `json:"reason,omitempty"`
}

// BlockSection describes an analysed block.
type BlockSection struct {
	Number       string       `json:"number"`
	Hash         string       `json:"hash"`
	Timestamp    uint64       `json:"timestamp"`
	Miner        string       `json:"miner"`
	GasUsed      string       `json:"gas_used"`
	GasLimit     string       `json:"gas_limit"`
	BaseFee      string       `json:"base_fee,omitempty"`
	TxCount      int          `json:"tx_count"`
	AnalyzedTxs  int          `json:"analyzed_txs"`
	TotalValue   string       `json:"total_value"`
	Transactions []BlockTxRow `json:"transactions"`
}

// AddressSection describes an analysed account or contract.
type AddressSection struct {
	Address          string           `json:"address"`
	Balance          string           `json:"balance"`
	BalanceFormatted string           `json:"balance_formatted"`
	BalanceUSD       float64          `json:"balance_usd"`
	PriceConfidence  float64          `json:"price_confidence"`
	Nonce            uint64           `json:"nonce"`
	IsContract       bool             `json:"is_contract"`
	CodeSize         int              `json:"code_size,omitempty"`
	Token            *TokenMetadata   `json:"token,omitempty"`
	Interaction      *DeFiInteraction `json:"interaction,omitempty"`
}

// Summary is the headline view of an artifact. Partial artifacts have none.
type Summary struct {
	Complexity       string            `json:"complexity"`
	RiskLevel        RiskLevel         `json:"risk_level,omitempty"`
	TransferCount    int               `json:"transfer_count"`
	InteractionCount int               `json:"interaction_count"`
	ProtocolCount    int               `json:"protocol_count"`
	EventCounts      map[EventKind]int `json:"event_counts,omitempty"`
	TotalUSD         float64           `json:"total_usd"`
	FeeUSD           float64           `json:"fee_usd"`
	FeeWei           string            `json:"fee_wei,omitempty"`
	GasEfficiencyPct float64           `json:"gas_efficiency_pct"`
}

// Artifact is the JSON document produced for one analysis request.
// Sections that did not complete are nil and omitted.
type Artifact struct {
	ID          string              `json:"id"`
	Kind        InputKind           `json:"kind"`
	Input       string              `json:"input"`
	Network     NetworkRef          `json:"network"`
	GeneratedAt time.Time           `json:"generated_at"`
	Partial     bool                `json:"partial,omitempty"`
	Transaction *TransactionSection `json:"transaction,omitempty"`
	Block       *BlockSection       `json:"block,omitempty"`
	Address     *AddressSection     `json:"address,omitempty"`
	Advanced    *AdvancedAnalysis   `json:"advanced,omitempty"`
	Graph       *FlowGraph          `json:"graph,omitempty"`
	Diagram     string              `json:"diagram,omitempty"`
	Summary     *Summary            `json:"summary,omitempty"`
	Diagnostics []string            `json:"diagnostics,omitempty"`
}
