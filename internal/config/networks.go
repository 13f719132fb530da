package config

import (
	"fmt"
	"sort"

	"github.com/spf13/viper"

	"txScope/internal/model"
)

// Networks is the immutable registry of analysable networks.
type Networks struct {
	byID map[uint64]model.NetworkDescriptor
}

// DefaultNetworks returns the built-in registry.
func DefaultNetworks() *Networks {
	n := &Networks{byID: make(map[uint64]model.NetworkDescriptor)}
	for _, desc := range []model.NetworkDescriptor{
		{
			ID: 1, Name: "Ethereum", NativeSymbol: "ETH", NativeDecimals: 18,
			RPCURLs: []string{
				"https://ethereum-rpc.publicnode.com",
				"https://eth.llamarpc.com",
				"https://rpc.ankr.com/eth",
				"https://cloudflare-eth.com",
			},
			ExplorerURL: "https://etherscan.io",
			Gas:         model.GasThresholds{LowGwei: 15, HighGwei: 50, ExtremeGwei: 150},
		},
		{
			ID: 56, Name: "BNB Smart Chain", NativeSymbol: "BNB", NativeDecimals: 18,
			RPCURLs: []string{
				"https://bsc-dataseed.binance.org",
				"https://bsc-rpc.publicnode.com",
				"https://rpc.ankr.com/bsc",
			},
			ExplorerURL: "https://bscscan.com",
			Gas:         model.GasThresholds{LowGwei: 1, HighGwei: 5, ExtremeGwei: 20},
		},
		{
			ID: 137, Name: "Polygon", NativeSymbol: "POL", NativeDecimals: 18,
			RPCURLs: []string{
				"https://polygon-rpc.com",
				"https://polygon-bor-rpc.publicnode.com",
				"https://rpc.ankr.com/polygon",
			},
			ExplorerURL: "https://polygonscan.com",
			Gas:         model.GasThresholds{LowGwei: 50, HighGwei: 200, ExtremeGwei: 500},
		},
		{
			ID: 10, Name: "Optimism", NativeSymbol: "ETH", NativeDecimals: 18,
			RPCURLs: []string{
				"https://mainnet.optimism.io",
				"https://optimism-rpc.publicnode.com",
			},
			ExplorerURL: "https://optimistic.etherscan.io",
			Gas:         model.GasThresholds{LowGwei: 0.01, HighGwei: 0.1, ExtremeGwei: 1},
		},
		{
			ID: 42161, Name: "Arbitrum One", NativeSymbol: "ETH", NativeDecimals: 18,
			RPCURLs: []string{
				"https://arb1.arbitrum.io/rpc",
				"https://arbitrum-one-rpc.publicnode.com",
			},
			ExplorerURL: "https://arbiscan.io",
			Gas:         model.GasThresholds{LowGwei: 0.05, HighGwei: 0.5, ExtremeGwei: 2},
		},
		{
			ID: 8453, Name: "Base", NativeSymbol: "ETH", NativeDecimals: 18,
			RPCURLs: []string{
				"https://mainnet.base.org",
				"https://base-rpc.publicnode.com",
			},
			ExplorerURL: "https://basescan.org",
			Gas:         model.GasThresholds{LowGwei: 0.01, HighGwei: 0.1, ExtremeGwei: 1},
		},
	} {
		n.byID[desc.ID] = desc
	}
	return n
}

// NewNetworks builds a registry from explicit descriptors.
func NewNetworks(descs ...model.NetworkDescriptor) *Networks {
	n := &Networks{byID: make(map[uint64]model.NetworkDescriptor, len(descs))}
	for _, desc := range descs {
		n.byID[desc.ID] = desc
	}
	return n
}

// Lookup returns a copy of the descriptor for id.
func (n *Networks) Lookup(id uint64) (model.NetworkDescriptor, bool) {
	desc, ok := n.byID[id]
	if !ok {
		return model.NetworkDescriptor{}, false
	}
	desc.RPCURLs = append([]string(nil), desc.RPCURLs...)
	return desc, true
}

// All lists descriptors ordered by id.
func (n *Networks) All() []model.NetworkDescriptor {
	out := make([]model.NetworkDescriptor, 0, len(n.byID))
	for id := range n.byID {
		desc, _ := n.Lookup(id)
		out = append(out, desc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// OverrideRPC replaces the endpoint list of one network.
func (n *Networks) OverrideRPC(id uint64, urls []string) error {
	desc, ok := n.byID[id]
	if !ok {
		return fmt.Errorf("rpc override for unknown network %d", id)
	}
	desc.RPCURLs = append([]string(nil), urls...)
	n.byID[id] = desc
	return nil
}

// mergeFrom overlays descriptors from the "networks" config key. Fields left
// empty keep their built-in value.
func (n *Networks) mergeFrom(v *viper.Viper) error {
	var overrides []model.NetworkDescriptor
	if err := v.UnmarshalKey("networks", &overrides); err != nil {
		return fmt.Errorf("parse networks: %w", err)
	}
	for _, o := range overrides {
		if o.ID == 0 {
			return fmt.Errorf("network entry without id")
		}
		base, ok := n.byID[o.ID]
		if !ok {
			if o.Name == "" || o.NativeSymbol == "" || len(o.RPCURLs) == 0 {
				return fmt.Errorf("network %d: name, native_symbol and rpc_urls are required", o.ID)
			}
			if o.NativeDecimals == 0 {
				o.NativeDecimals = 18
			}
			n.byID[o.ID] = o
			continue
		}
		if o.Name != "" {
			base.Name = o.Name
		}
		if o.NativeSymbol != "" {
			base.NativeSymbol = o.NativeSymbol
		}
		if o.NativeDecimals != 0 {
			base.NativeDecimals = o.NativeDecimals
		}
		if len(o.RPCURLs) > 0 {
			base.RPCURLs = o.RPCURLs
		}
		if o.ExplorerURL != "" {
			base.ExplorerURL = o.ExplorerURL
		}
		if o.Gas != (model.GasThresholds{}) {
			base.Gas = o.Gas
		}
		n.byID[o.ID] = base
	}
	return nil
}
