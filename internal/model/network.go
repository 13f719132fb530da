package model

// GasThresholds holds normalized gas price buckets in gwei for a network.
type GasThresholds struct {
	LowGwei     float64 `json:"low_gwei" mapstructure:"low_gwei"`
	HighGwei    float64 `json:"high_gwei" mapstructure:"high_gwei"`
	ExtremeGwei float64 `json:"extreme_gwei" mapstructure:"extreme_gwei"`
}

// NetworkDescriptor describes a chain the pipeline can analyze.
type NetworkDescriptor struct {
	ID             uint64        `json:"id" mapstructure:"id"`
	Name           string        `json:"name" mapstructure:"name"`
	NativeSymbol   string        `json:"native_symbol" mapstructure:"native_symbol"`
	NativeDecimals uint8         `json:"native_decimals" mapstructure:"native_decimals"`
	RPCURLs        []string      `json:"rpc_urls" mapstructure:"rpc_urls"`
	ExplorerURL    string        `json:"explorer_url" mapstructure:"explorer_url"`
	Gas            GasThresholds `json:"gas" mapstructure:"gas"`
}

// NetworkRef is the short network reference embedded in artifacts.
type NetworkRef struct {
	ID           uint64 `json:"id"`
	Name         string `json:"name"`
	NativeSymbol string `json:"native_symbol"`
	ExplorerURL  string `json:"explorer_url,omitempty"`
}

// Ref returns the artifact reference for the network.
func (n NetworkDescriptor) Ref() NetworkRef {
	return NetworkRef{
		ID:           n.ID,
		Name:         n.Name,
		NativeSymbol: n.NativeSymbol,
		ExplorerURL:  n.ExplorerURL,
	}
}
