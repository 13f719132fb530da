package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing-ok.yaml"), nil)
	if err == nil {
		t.Fatalf("explicit missing config file should fail, got %+v", cfg)
	}

	cfg, err = Load("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Network != 1 || cfg.Timeout != 30*time.Second || cfg.MetadataTTL != 5*time.Minute || cfg.PriceTTL != time.Minute {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.LargeUSDThreshold != 100000 || cfg.MaxBlockTxs != 50 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if len(cfg.Networks.All()) != 6 {
		t.Fatalf("expected 6 built-in networks")
	}
}

func TestLoadFlagsAndEnv(t *testing.T) {
	t.Setenv("TXSCOPE_ATTEMPT_TIMEOUT", "2s")
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Uint64("network", 1, "")
	flags.String("rpc", "", "")
	if err := flags.Parse([]string{"--network", "56", "--rpc", "http://a, http://b"}); err != nil {
		t.Fatalf("parse: %v", err)
	}

	cfg, err := Load("", flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AttemptTimeout != 2*time.Second {
		t.Fatalf("env override ignored: %v", cfg.AttemptTimeout)
	}
	bsc, ok := cfg.Networks.Lookup(56)
	if !ok || len(bsc.RPCURLs) != 2 || bsc.RPCURLs[1] != "http://b" {
		t.Fatalf("rpc override not applied: %+v", bsc)
	}
}

func TestLoadNetworksFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
networks:
  - id: 1
    rpc_urls: ["http://local:8545"]
  - id: 31337
    name: Anvil
    native_symbol: ETH
    rpc_urls: ["http://127.0.0.1:8545"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	eth, _ := cfg.Networks.Lookup(1)
	if eth.Name != "Ethereum" || len(eth.RPCURLs) != 1 || eth.RPCURLs[0] != "http://local:8545" {
		t.Fatalf("merge failed: %+v", eth)
	}
	anvil, ok := cfg.Networks.Lookup(31337)
	if !ok || anvil.NativeDecimals != 18 {
		t.Fatalf("custom network not registered: %+v", anvil)
	}
}

func TestLookupReturnsCopy(t *testing.T) {
	n := DefaultNetworks()
	desc, _ := n.Lookup(1)
	desc.RPCURLs[0] = "mutated"
	again, _ := n.Lookup(1)
	if again.RPCURLs[0] == "mutated" {
		t.Fatalf("registry must be immutable through Lookup")
	}
}
