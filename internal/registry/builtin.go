package registry

import (
	"time"

	"github.com/yourorg/bridge-orchestrator/internal/types"
)

// builtinDescriptors returns the default protocol catalog. Operators tune
// these through the override file rather than editing code.
func builtinDescriptors() []*Descriptor {
	evmChains := []types.ChainID{
		types.ChainEthereum, types.ChainPolygon, types.ChainArbitrum,
		types.ChainOptimism, types.ChainAvalanche, types.ChainBSC, types.ChainBase,
	}

	stableTokens := []types.TokenSymbol{"USDC", "USDT"}
	evmTokens := append([]types.TokenSymbol{"ETH", "WETH"}, stableTokens...)

	evmTokenMap := func(chains []types.ChainID) map[types.ChainID][]types.TokenSymbol {
		m := make(map[types.ChainID][]types.TokenSymbol, len(chains))
		for _, c := range chains {
			m[c] = evmTokens
		}
		return m
	}

	confirmations := func(chains []types.ChainID, depth map[types.ChainID]int) map[types.ChainID]int {
		m := make(map[types.ChainID]int, len(chains))
		for _, c := range chains {
			if n, ok := depth[c]; ok {
				m[c] = n
			} else {
				m[c] = 15
			}
		}
		return m
	}

	fastFinality := map[types.ChainID]int{
		types.ChainEthereum: 12,
		types.ChainSolana:   32,
		types.ChainAptos:    5,
		types.ChainArbitrum: 20,
		types.ChainOptimism: 20,
		types.ChainBase:     20,
		types.ChainPolygon:  64,
	}

	wormholeChains := append(append([]types.ChainID{}, evmChains...), types.ChainSolana, types.ChainAptos)
	wormholeTokens := evmTokenMap(evmChains)
	wormholeTokens[types.ChainSolana] = []types.TokenSymbol{"SOL", "USDC", "USDT"}
	wormholeTokens[types.ChainAptos] = []types.TokenSymbol{"APT", "USDC"}
	// SOL and APT arrive wrapped on EVM chains
	wormholeTokens[types.ChainEthereum] = append([]types.TokenSymbol{"SOL", "APT"}, evmTokens...)

	allbridgeChains := []types.ChainID{
		types.ChainEthereum, types.ChainPolygon, types.ChainBSC, types.ChainSolana,
	}
	allbridgeTokens := map[types.ChainID][]types.TokenSymbol{
		types.ChainEthereum: {"USDC", "USDT", "SOL"},
		types.ChainPolygon:  {"USDC", "USDT"},
		types.ChainBSC:      {"USDC", "USDT"},
		types.ChainSolana:   {"SOL", "USDC", "USDT"},
	}

	return []*Descriptor{
		{
			ID:                    "wormhole",
			DisplayName:           "Wormhole",
			SupportedChains:       wormholeChains,
			SupportedTokens:       wormholeTokens,
			FeeRate:               0.001, // 0.1%
			MinAmount:             0.01,
			MaxAmount:             1_000_000,
			EstimatedTimeMin:      5 * time.Minute,
			EstimatedTimeMax:      20 * time.Minute,
			ConfirmationsRequired: confirmations(wormholeChains, fastFinality),
			LiquidityDepth:        80_000_000,
		},
		{
			ID:                    "stargate",
			DisplayName:           "Stargate",
			SupportedChains:       evmChains,
			SupportedTokens:       evmTokenMap(evmChains),
			FeeRate:               0.0006, // 0.06%
			MinAmount:             0.001,
			MaxAmount:             5_000_000,
			EstimatedTimeMin:      1 * time.Minute,
			EstimatedTimeMax:      5 * time.Minute,
			ConfirmationsRequired: confirmations(evmChains, fastFinality),
			LiquidityDepth:        120_000_000,
			GasOptimized:          true,
		},
		{
			ID:                    "axelar",
			DisplayName:           "Axelar",
			SupportedChains:       evmChains,
			SupportedTokens:       evmTokenMap(evmChains),
			FeeRate:               0.0015, // 0.15%
			MinAmount:             1,
			MaxAmount:             2_000_000,
			EstimatedTimeMin:      10 * time.Minute,
			EstimatedTimeMax:      30 * time.Minute,
			ConfirmationsRequired: confirmations(evmChains, fastFinality),
			LiquidityDepth:        40_000_000,
			HubChain:              types.ChainEthereum,
		},
		{
			ID:                    "allbridge",
			DisplayName:           "Allbridge",
			SupportedChains:       allbridgeChains,
			SupportedTokens:       allbridgeTokens,
			FeeRate:               0.003, // 0.3%
			MinAmount:             0.1,
			MaxAmount:             500_000,
			EstimatedTimeMin:      5 * time.Minute,
			EstimatedTimeMax:      15 * time.Minute,
			ConfirmationsRequired: confirmations(allbridgeChains, fastFinality),
			LiquidityDepth:        12_000_000,
		},
	}
}
