package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration shared by every command, loaded from flags, env, or config file.
type Config struct {
	Network           uint64
	RPC               []string
	LogLevel          string
	Timeout           time.Duration
	AttemptTimeout    time.Duration
	MetadataTTL       time.Duration
	PriceTTL          time.Duration
	LargeUSDThreshold float64
	MaxBlockTxs       int
	FetchConcurrency  int
	Out               string
	PGDSN             string
	NATSURL           string
	NATSSubject       string
	CoinGeckoURL      string
	BinanceURL        string
	Networks          *Networks
}

// ServeConfig adds the HTTP listener to Config.
type ServeConfig struct {
	Config
	Listen string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v, err := read(cfgFile, flags)
	if err != nil {
		return Config{}, err
	}
	return fromViper(v)
}

// LoadServe merges config file, environment variables, and flags into ServeConfig.
func LoadServe(cfgFile string, flags *pflag.FlagSet) (ServeConfig, error) {
	v, err := read(cfgFile, flags)
	if err != nil {
		return ServeConfig{}, err
	}
	cfg, err := fromViper(v)
	if err != nil {
		return ServeConfig{}, err
	}
	return ServeConfig{Config: cfg, Listen: v.GetString("listen")}, nil
}

func read(cfgFile string, flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("TXSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("network", uint64(1))
	v.SetDefault("log-level", "info")
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("attempt-timeout", 5*time.Second)
	v.SetDefault("metadata-ttl", 5*time.Minute)
	v.SetDefault("price-ttl", 60*time.Second)
	v.SetDefault("large-usd-threshold", 100000.0)
	v.SetDefault("max-block-txs", 50)
	v.SetDefault("fetch-concurrency", 8)
	v.SetDefault("nats-subject", "txscope.analysis")
	v.SetDefault("coingecko-url", "https://api.coingecko.com/api/v3")
	v.SetDefault("binance-url", "https://api.binance.com")
	v.SetDefault("listen", ":8080")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}

func fromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		Network:           v.GetUint64("network"),
		RPC:               getStringSlice(v, "rpc"),
		LogLevel:          v.GetString("log-level"),
		Timeout:           v.GetDuration("timeout"),
		AttemptTimeout:    v.GetDuration("attempt-timeout"),
		MetadataTTL:       v.GetDuration("metadata-ttl"),
		PriceTTL:          v.GetDuration("price-ttl"),
		LargeUSDThreshold: v.GetFloat64("large-usd-threshold"),
		MaxBlockTxs:       v.GetInt("max-block-txs"),
		FetchConcurrency:  v.GetInt("fetch-concurrency"),
		Out:               v.GetString("out"),
		PGDSN:             v.GetString("pg-dsn"),
		NATSURL:           v.GetString("nats-url"),
		NATSSubject:       v.GetString("nats-subject"),
		CoinGeckoURL:      v.GetString("coingecko-url"),
		BinanceURL:        v.GetString("binance-url"),
	}

	networks := DefaultNetworks()
	if v.IsSet("networks") {
		if err := networks.mergeFrom(v); err != nil {
			return Config{}, err
		}
	}
	if len(cfg.RPC) > 0 {
		if err := networks.OverrideRPC(cfg.Network, cfg.RPC); err != nil {
			return Config{}, err
		}
	}
	if _, ok := networks.Lookup(cfg.Network); !ok {
		return Config{}, fmt.Errorf("default network %d is not registered", cfg.Network)
	}
	cfg.Networks = networks

	if cfg.Timeout <= 0 {
		return Config{}, fmt.Errorf("timeout must be positive")
	}
	if cfg.FetchConcurrency <= 0 {
		cfg.FetchConcurrency = 1
	}
	return cfg, nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
