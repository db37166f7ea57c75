package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	General    GeneralConfig    `toml:"general"`
	Chains     ChainsConfig     `toml:"chains"`
	Fees       FeesConfig       `toml:"fees"`
	Yields     YieldsConfig     `toml:"yields"`
	Allocation AllocationConfig `toml:"allocation"`
	Execution  ExecutionConfig  `toml:"execution"`
}

type GeneralConfig struct {
	DBPath   string `toml:"db_path"`
	LogLevel string `toml:"log_level"`
}

// ChainsConfig maps chain IDs to ordered lists of JSON-RPC endpoints.
// Endpoints are tried in order until one answers.
type ChainsConfig struct {
	Endpoints map[string][]string `toml:"endpoints"`
}

type FeesConfig struct {
	Collector    string `toml:"collector"`
	RatePermille int64  `toml:"rate_permille"`
}

type YieldsConfig struct {
	PoolsURL     string   `toml:"pools_url"`
	CacheTTL     Duration `toml:"cache_ttl"`
	HTTPTimeout  Duration `toml:"http_timeout"`
	PinnedMedium []string `toml:"pinned_medium"`
}

type AllocationConfig struct {
	LowTierMaxAPY    float64 `toml:"low_tier_max_apy"`
	MediumTierMaxAPY float64 `toml:"medium_tier_max_apy"`
}

type ExecutionConfig struct {
	ReceiptTimeout Duration `toml:"receipt_timeout"`
	SwapFeeTiers   []uint64 `toml:"swap_fee_tiers"`
}

// Duration wraps time.Duration for TOML unmarshaling.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		General: GeneralConfig{
			DBPath:   "./data/vaultpilot.db",
			LogLevel: "info",
		},
		Chains: ChainsConfig{
			Endpoints: map[string][]string{
				"8453": {"https://mainnet.base.org", "https://base.llamarpc.com"},
				"5000": {"https://rpc.mantle.xyz", "https://mantle.drpc.org"},
			},
		},
		Fees: FeesConfig{
			RatePermille: 5,
		},
		Yields: YieldsConfig{
			PoolsURL:    "https://yields.llama.fi/pools",
			CacheTTL:    Duration{5 * time.Minute},
			HTTPTimeout: Duration{10 * time.Second},
			PinnedMedium: []string{
				"HarvestFortyAcresUSDC",
				"MorphoSupply",
				"AaveV3SupplyLeveraged",
			},
		},
		Allocation: AllocationConfig{
			LowTierMaxAPY:    6.5,
			MediumTierMaxAPY: 8.5,
		},
		Execution: ExecutionConfig{
			ReceiptTimeout: Duration{2 * time.Minute},
			SwapFeeTiers:   []uint64{100, 500, 2500, 10000},
		},
	}
}
