package model

import "strings"

// TokenStandard is the interface shape a token contract implements.
type TokenStandard string

const (
	StandardNative  TokenStandard = "NATIVE"
	StandardERC20   TokenStandard = "ERC20"
	StandardERC721  TokenStandard = "ERC721"
	StandardERC1155 TokenStandard = "ERC1155"
	StandardUnknown TokenStandard = "Unknown"
)

const (
	UnknownTokenName     = "Unknown Token"
	UnknownTokenSymbol   = "UNKNOWN"
	UnknownTokenDecimals = 18
)

// TokenMetadata captures token identity and precision.
type TokenMetadata struct {
	Address  string        `json:"address"`
	Name     string        `json:"name"`
	Symbol   string        `json:"symbol"`
	Decimals uint8         `json:"decimals"`
	Standard TokenStandard `json:"standard"`
}

// UnknownToken returns the sentinel metadata used when every probe failed.
func UnknownToken(address string) TokenMetadata {
	return TokenMetadata{
		Address:  strings.ToLower(address),
		Name:     UnknownTokenName,
		Symbol:   UnknownTokenSymbol,
		Decimals: UnknownTokenDecimals,
		Standard: StandardUnknown,
	}
}

// NativeToken returns metadata for the network's native currency.
func NativeToken(network NetworkDescriptor) TokenMetadata {
	return TokenMetadata{
		Address:  "native",
		Name:     network.Name + " " + network.NativeSymbol,
		Symbol:   network.NativeSymbol,
		Decimals: network.NativeDecimals,
		Standard: StandardNative,
	}
}

// IsUnknown reports whether the metadata is the degraded sentinel.
func (m TokenMetadata) IsUnknown() bool {
	return m.Standard == StandardUnknown
}
