package main

import (
	"context"
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"vaultpilot/internal/allocation"
	"vaultpilot/internal/chain"
	"vaultpilot/internal/config"
	"vaultpilot/internal/db"
	"vaultpilot/internal/execution"
	"vaultpilot/internal/ledger"
	"vaultpilot/internal/strategy"
	"vaultpilot/internal/yield"
)

func main() {
	tier := flag.String("tier", "medium", "Risk tier to allocate for (low, medium, high)")
	chainID := flag.Uint64("chain", strategy.ChainBase, "Chain ID to allocate on")
	owner := flag.String("owner", "", "Wallet address to report positions for")
	mantleUSDC := flag.String("mantle-usdc", "", "USDC amount to plan the Mantle flow for (requires -owner)")
	flag.Parse()

	// Set up structured logging. The level is revisited once the config
	// is loaded.
	level := new(slog.LevelVar)
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})))

	slog.Info("vaultpilot starting")

	// Load configuration.
	configPath := "config.toml"
	if p := os.Getenv("VP_CONFIG_PATH"); p != "" {
		configPath = p
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := level.UnmarshalText([]byte(cfg.General.LogLevel)); err != nil {
		slog.Warn("invalid log level in config, staying on info",
			"log_level", cfg.General.LogLevel, "error", err)
	}

	// Initialize database.
	database, err := db.Open(cfg.General.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("database initialized", "path", cfg.General.DBPath)

	// Read-only chain client over the configured endpoints.
	endpoints := make(map[uint64][]string, len(cfg.Chains.Endpoints))
	for key, urls := range cfg.Chains.Endpoints {
		id, err := strconv.ParseUint(key, 10, 64)
		if err != nil {
			slog.Error("invalid chain id in config", "key", key, "error", err)
			os.Exit(1)
		}
		endpoints[id] = urls
	}
	reader := chain.NewClient(endpoints)

	// Register strategy adapters.
	registry := strategy.DefaultRegistry(reader)
	slog.Info("strategies registered", "count", len(registry.All()))

	// Live yield service.
	llama := yield.NewLlamaClient(cfg.Yields.PoolsURL, cfg.Yields.HTTPTimeout.Duration)
	yields, err := yield.NewService(llama, yield.DefaultMappings(), cfg.Yields.CacheTTL.Duration)
	if err != nil {
		slog.Error("failed to build yield service", "error", err)
		os.Exit(1)
	}

	// Portfolio allocation.
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	tiers := allocation.Thresholds{
		LowMaxAPY:    cfg.Allocation.LowTierMaxAPY,
		MediumMaxAPY: cfg.Allocation.MediumTierMaxAPY,
	}
	allocator := allocation.NewService(strategy.Catalog(), cfg.Yields.PinnedMedium, tiers, rng)

	positions := ledger.NewStore(database)

	// Graceful shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	if *owner != "" {
		reportPositions(ctx, positions, registry, *owner)
	}

	if *mantleUSDC != "" {
		planMantleFlow(ctx, reader, cfg.Execution, *owner, *mantleUSDC)
	}

	runCycle(ctx, yields, allocator, strategy.RiskTier(*tier), *chainID)

	slog.Info("vaultpilot stopped")
}

// planMantleFlow checks the owner can fund the Mantle USDC strategy and
// logs the transactions it would submit.
func planMantleFlow(ctx context.Context, reader chain.Reader, cfg config.ExecutionConfig, owner, amount string) {
	if owner == "" {
		slog.Error("-mantle-usdc requires -owner")
		return
	}
	addr, err := chain.ParseAddress(owner)
	if err != nil {
		slog.Error("invalid owner address", "owner", owner, "error", err)
		return
	}
	usdc, err := decimal.NewFromString(amount)
	if err != nil || usdc.Sign() <= 0 {
		slog.Error("invalid USDC amount", "amount", amount, "error", err)
		return
	}

	f := execution.NewMantleFlow(reader, addr, usdc.Shift(6).BigInt(), cfg)
	if err := f.CheckBalances(ctx); err != nil {
		slog.Error("mantle flow not fundable", "error", err)
		return
	}
	for i, step := range f.Steps() {
		slog.Info("planned step", "index", i, "name", step.Name)
	}
}

// reportPositions logs every stored position for the owner along with the
// adapter's current profit estimate.
func reportPositions(ctx context.Context, positions *ledger.Store, registry *strategy.Registry, owner string) {
	addr, err := chain.ParseAddress(owner)
	if err != nil {
		slog.Error("invalid owner address", "owner", owner, "error", err)
		return
	}

	held, err := positions.ByOwner(ctx, addr)
	if err != nil {
		slog.Error("failed to load positions", "error", err)
		return
	}

	for _, pos := range held {
		fields := []any{
			"strategy", pos.StrategyID,
			"chain", pos.ChainID,
			"amount", pos.Amount.String(),
			"token", pos.TokenName,
			"status", pos.Status,
		}
		if adapter, ok := registry.Lookup(pos.StrategyID, pos.ChainID); ok && pos.Status == ledger.StatusActive {
			profit := adapter.Profit(ctx, addr, strategy.PositionInfo{
				Amount:    pos.Amount,
				TokenName: pos.TokenName,
				CreatedAt: pos.CreatedAt,
			})
			fields = append(fields, "profit", profit.String())
		}
		slog.Info("position", fields...)
	}
}

// runCycle fetches live yields and logs the allocation the engine would
// propose for the requested tier and chain.
func runCycle(ctx context.Context, yields *yield.Service, allocator *allocation.Service, tier strategy.RiskTier, chainID uint64) {
	quotes := yields.FetchAll(ctx)

	live := make(map[string]float64, len(quotes))
	for id, q := range quotes {
		live[id] = q.APY
		slog.Info("yield quote", "strategy", id, "apy", q.APY, "source", q.Source)
	}

	for _, d := range allocator.FindByRisk(tier, live) {
		slog.Info("strategy in tier", "strategy", d.ID, "chain", d.ChainID, "static_apy", d.StaticAPY)
	}

	allocations := allocator.SelectForRisk(tier, chainID, live)
	for _, a := range allocations {
		slog.Info("proposed allocation",
			"strategy", a.Strategy.ID,
			"protocol", a.Strategy.Protocol,
			"chain", a.Strategy.ChainID,
			"percent", a.Percent,
		)
	}
}
