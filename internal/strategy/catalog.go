package strategy

import "vaultpilot/internal/chain"

// Chain IDs for every network the catalog spans.
const (
	ChainBase     uint64 = 8453
	ChainMantle   uint64 = 5000
	ChainCelo     uint64 = 42220
	ChainBSC      uint64 = 56
	ChainPolygon  uint64 = 137
	ChainArbitrum uint64 = 42161
	ChainFlow     uint64 = 747
)

type Status string

const (
	StatusActive     Status = "active"
	StatusComingSoon Status = "comingSoon"
)

// Descriptor is the static metadata for one catalog strategy: what the
// allocation service selects over before any live data arrives.
type Descriptor struct {
	ID            string
	Title         string
	Protocol      string
	ChainID       uint64
	StaticAPY     float64
	Risk          RiskTier
	Status        Status
	TokenName     string
	TokenDecimals int32
}

func (d Descriptor) Identity() Identity {
	return Identity{
		ID:          d.ID,
		Protocol:    d.Protocol,
		ChainID:     d.ChainID,
		DisplayName: d.Title,
	}
}

// Catalog returns the full strategy table. Static APYs are last-reviewed
// snapshots, superseded at runtime by the live yield service.
func Catalog() []Descriptor {
	out := make([]Descriptor, len(catalog))
	copy(out, catalog)
	return out
}

var catalog = []Descriptor{
	{ID: "AaveV3Supply", Title: "Conservative", Protocol: "AAVE", ChainID: ChainBase,
		StaticAPY: 4.5, Risk: RiskLow, Status: StatusActive, TokenName: "USDC", TokenDecimals: 6},
	{ID: "AaveV3SupplyLeveraged", Title: "Enhanced", Protocol: "AAVE", ChainID: ChainBase,
		StaticAPY: 8.0, Risk: RiskMedium, Status: StatusActive, TokenName: "USDC", TokenDecimals: 6},
	{ID: "MorphoSupply", Title: "OptLend", Protocol: "Morpho", ChainID: ChainBase,
		StaticAPY: 8.5, Risk: RiskMedium, Status: StatusActive, TokenName: "USDC", TokenDecimals: 6},
	{ID: "FluidSupply", Title: "Dynamic", Protocol: "Fluid", ChainID: ChainBase,
		StaticAPY: 5.7, Risk: RiskLow, Status: StatusActive, TokenName: "USDC", TokenDecimals: 6},
	{ID: "Re7Strategy", Title: "Pro", Protocol: "Morpho", ChainID: ChainBase,
		StaticAPY: 8.2, Risk: RiskMedium, Status: StatusActive, TokenName: "USDC", TokenDecimals: 6},
	{ID: "BBQStrategy", Title: "High Yield", Protocol: "Morpho", ChainID: ChainBase,
		StaticAPY: 7.14, Risk: RiskMedium, Status: StatusActive, TokenName: "USDC", TokenDecimals: 6},
	{ID: "CSStrategy", Title: "Reactor", Protocol: "Morpho", ChainID: ChainBase,
		StaticAPY: 7.27, Risk: RiskMedium, Status: StatusActive, TokenName: "USDC", TokenDecimals: 6},
	{ID: "ExtraFiStrategy", Title: "xLend", Protocol: "Morpho", ChainID: ChainBase,
		StaticAPY: 7.23, Risk: RiskMedium, Status: StatusActive, TokenName: "USDC", TokenDecimals: 6},
	{ID: "SteakhousePrimeStrategy", Title: "Prime", Protocol: "Morpho", ChainID: ChainBase,
		StaticAPY: 7.16, Risk: RiskMedium, Status: StatusActive, TokenName: "USDC", TokenDecimals: 6},
	{ID: "HighYieldClearStarStrategy", Title: "HY Clear", Protocol: "Morpho", ChainID: ChainBase,
		StaticAPY: 7.21, Risk: RiskMedium, Status: StatusActive, TokenName: "USDC", TokenDecimals: 6},
	{ID: "AvantisVaultSupply", Title: "Perps Vault", Protocol: "Avantis", ChainID: ChainBase,
		StaticAPY: 20.2, Risk: RiskHigh, Status: StatusActive, TokenName: "USDC", TokenDecimals: 6},
	{ID: "HarvestFortyAcresUSDC", Title: "40 Acres", Protocol: "Harvest", ChainID: ChainBase,
		StaticAPY: 11.5, Risk: RiskMedium, Status: StatusActive, TokenName: "USDC", TokenDecimals: 6},
	{ID: "HarvestAutopilotUSDC", Title: "Autopilot", Protocol: "Harvest", ChainID: ChainBase,
		StaticAPY: 7.54, Risk: RiskLow, Status: StatusActive, TokenName: "USDC", TokenDecimals: 6},
	{ID: "CianVaultSupply", Title: "Yield Layer", Protocol: "CIAN", ChainID: ChainMantle,
		StaticAPY: 7.08, Risk: RiskMedium, Status: StatusActive, TokenName: "USDC", TokenDecimals: 6},
	{ID: "StCeloStaking", Title: "AAVE/USDC-Celo", Protocol: "AAVE", ChainID: ChainCelo,
		StaticAPY: 3.3, Risk: RiskLow, Status: StatusActive, TokenName: "USDC", TokenDecimals: 6},
	{ID: "AaveV3SupplyCelo", Title: "AAVE/Celo", Protocol: "AAVE", ChainID: ChainCelo,
		StaticAPY: 2.5, Risk: RiskMedium, Status: StatusActive, TokenName: "CELO", TokenDecimals: 18},
	{ID: "AaveV3SupplyUSDTCelo", Title: "AAVE/USDT-Celo", Protocol: "AAVE", ChainID: ChainCelo,
		StaticAPY: 1.01, Risk: RiskLow, Status: StatusActive, TokenName: "USDT", TokenDecimals: 6},
	{ID: "AaveV3SupplyBSC", Title: "AAVE/BNB", Protocol: "AAVE", ChainID: ChainBSC,
		StaticAPY: 1.6, Risk: RiskMedium, Status: StatusActive, TokenName: "WBNB", TokenDecimals: 18},
	{ID: "AaveV3SupplyPolygon", Title: "AAVE/USDC-Poly", Protocol: "AAVE", ChainID: ChainPolygon,
		StaticAPY: 3.8, Risk: RiskMedium, Status: StatusActive, TokenName: "USDC", TokenDecimals: 6},
	{ID: "AaveV3SupplyArbitrum", Title: "AAVE/USDC-Arb", Protocol: "AAVE", ChainID: ChainArbitrum,
		StaticAPY: 4.2, Risk: RiskMedium, Status: StatusActive, TokenName: "USDC", TokenDecimals: 6},
	{ID: "AnkrFlowStaking", Title: "Flow LST", Protocol: "Ankr", ChainID: ChainFlow,
		StaticAPY: 10.8, Risk: RiskLow, Status: StatusActive, TokenName: "FLOW", TokenDecimals: 18},
	{ID: "CamelotStaking", Title: "Camelot", Protocol: "Camelot", ChainID: ChainArbitrum,
		StaticAPY: 0, Risk: RiskHigh, Status: StatusComingSoon, TokenName: "ETH", TokenDecimals: 18},
	{ID: "GMXDeposit", Title: "GMX", Protocol: "GMX", ChainID: ChainArbitrum,
		StaticAPY: 0, Risk: RiskHigh, Status: StatusComingSoon, TokenName: "ETH", TokenDecimals: 18},
}

// Protocol contract addresses by chain. Addresses are lowercase hex as
// deployed.
var (
	aavePools = map[uint64]chain.Address{
		ChainBase:     "0xa238dd80c259a72e81d7e4664a9801593f98d1c5",
		ChainCelo:     "0x3e59a31363e2ad014dcbc521c4a0d5757d9f3402",
		ChainBSC:      "0x6807dc923806fe8fd134338eabca509979a7e0cb",
		ChainPolygon:  "0x794a61358d6845594f94dc1db02a252b5b4814ad",
		ChainArbitrum: "0x794a61358d6845594f94dc1db02a252b5b4814ad",
	}
	morphoAddrs = map[uint64]chain.Address{
		ChainBase: "0xbbbbbbbbbb9cc5e90e3b3af64bdaf62c37eeffcb",
	}
	ankrStaking = map[uint64]chain.Address{
		ChainFlow: "0xfe8189a3016cb6a3668b8ccdac520ce572d4287a",
	}

	usdcBase    chain.Address = "0x833589fcd6edb6e08f4c7c32d4f71b54bda02913"
	usdcCelo    chain.Address = "0xceba9300f2b948710d2653dd7b07f33a8b32118c"
	usdtCelo    chain.Address = "0x48065fbbe25f71c9282ddf5e1cd6d6a887483d5e"
	wbnbBSC     chain.Address = "0xbb4cdb9cbd36b01bd1cbaebf2de08d9173bc095c"
	usdcPolygon chain.Address = "0x3c499c542cef5e3811e1192ce70d8cc03d5c3359"
	usdcArb     chain.Address = "0xaf88d065e77c8cc2239327c5edb3a432268e5831"
	usdcMantle  chain.Address = "0x09bc4e0d864854c6afb6eb9a9cdf58ac190d0df9"

	usdcMarketIDBase = "0x8793cf302b8ffd655ab97bd1c695dbd967807e8367a65cb2f4edaf1380ba1bda"

	baseVaults = map[string]chain.Address{
		"FluidSupply":                "0xf42f5795d9ac7e9d757db633d693cd548cfd9169",
		"Re7Strategy":                "0x12afdefb2237a5963e7bab3e2d46ad0eee70406e",
		"BBQStrategy":                "0xbeefa7b88064feef0cee02aaebbd95d30df3878f",
		"CSStrategy":                 "0x1d3b1cd0a0f242d598834b3f2d126dc6bd774657",
		"ExtraFiStrategy":            "0x23479229e52ab6aad312d0b03df9f33b46753b5e",
		"SteakhousePrimeStrategy":    "0xbeefe94c8ad530842bfe7d8b397938ffc1cb83b2",
		"HighYieldClearStarStrategy": "0xe74c499fa461af1844fca84204490877787ced56",
		"AvantisVaultSupply":         "0xe9fb8c70af1b99f2baaa07aa926fcf3d237348dd",
		"HarvestFortyAcresUSDC":      "0xc777031d50f632083be7080e51e390709062263e",
		"HarvestAutopilotUSDC":       "0x0d877dc7c8fa3ad980dfdb18b48ec9f8768359c4",
	}
	cianVaultMantle chain.Address = "0x6b2ba8f249cc1376f2a02a9faf8beca5d7718dcf"
)

// DefaultRegistry builds an adapter for every active catalog strategy,
// reading derived state through the supplied reader.
func DefaultRegistry(reader chain.Reader) *Registry {
	adapter := func(d Descriptor) Adapter {
		id := d.Identity()
		switch d.ID {
		case "AaveV3Supply", "AaveV3SupplyLeveraged":
			return NewLendingSupply(id, aavePools, usdcBase, reader, d.StaticAPY, d.TokenDecimals)
		case "StCeloStaking":
			return NewLendingSupply(id, aavePools, usdcCelo, reader, d.StaticAPY, d.TokenDecimals)
		case "AaveV3SupplyCelo":
			return NewLendingSupply(id, aavePools, "0x471ece3750da237f93b8e339c536989b8978a438", reader, d.StaticAPY, d.TokenDecimals)
		case "AaveV3SupplyUSDTCelo":
			return NewLendingSupply(id, aavePools, usdtCelo, reader, d.StaticAPY, d.TokenDecimals)
		case "AaveV3SupplyBSC":
			return NewLendingSupply(id, aavePools, wbnbBSC, reader, d.StaticAPY, d.TokenDecimals)
		case "AaveV3SupplyPolygon":
			return NewLendingSupply(id, aavePools, usdcPolygon, reader, d.StaticAPY, d.TokenDecimals)
		case "AaveV3SupplyArbitrum":
			return NewLendingSupply(id, aavePools, usdcArb, reader, d.StaticAPY, d.TokenDecimals)
		case "MorphoSupply":
			marketID, _ := ParseMarketID(usdcMarketIDBase)
			return NewMarketSupply(id, morphoAddrs, marketID, usdcBase, reader, d.StaticAPY, d.TokenDecimals)
		case "CianVaultSupply":
			return NewVaultSupply(id, map[uint64]chain.Address{ChainMantle: cianVaultMantle}, usdcMantle, reader, d.StaticAPY, d.TokenDecimals)
		case "AnkrFlowStaking":
			return NewNativeStaking(id, ankrStaking, reader, d.StaticAPY, d.TokenDecimals)
		default:
			if vault, ok := baseVaults[d.ID]; ok {
				return NewVaultSupply(id, map[uint64]chain.Address{ChainBase: vault}, usdcBase, reader, d.StaticAPY, d.TokenDecimals)
			}
			return nil
		}
	}

	reg := NewRegistry()
	for _, d := range catalog {
		if d.Status != StatusActive {
			continue
		}
		if a := adapter(d); a != nil {
			reg.Register(a)
		}
	}
	return reg
}
