package quote

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/bridge-orchestrator/internal/circuitbreaker"
	"github.com/yourorg/bridge-orchestrator/internal/model"
	"github.com/yourorg/bridge-orchestrator/internal/registry"
	"github.com/yourorg/bridge-orchestrator/internal/types"
)

// fakeOracle lets tests control gas price and gas limit responses
type fakeOracle struct {
	price    func(chain types.ChainID) (float64, error)
	gasLimit func(protocolID string) (uint64, error)
}

func (f *fakeOracle) OptimalGasPrice(_ context.Context, chain types.ChainID) (float64, error) {
	if f.price == nil {
		return 30, nil
	}
	return f.price(chain)
}

func (f *fakeOracle) EstimatedGasLimit(_ context.Context, protocolID string) (uint64, error) {
	if f.gasLimit == nil {
		return 100_000, nil
	}
	return f.gasLimit(protocolID)
}

func defaultRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.LoadDefault("")
	require.NoError(t, err)
	return reg
}

func solToEthRequest() model.TransferRequest {
	return model.TransferRequest{
		FromChain:        types.ChainSolana,
		ToChain:          types.ChainEthereum,
		Token:            "SOL",
		Amount:           2.5,
		RecipientAddress: "0x742d35Cc6634C0532925a3b844Bc9e7595f2d8b6",
	}
}

func TestGetQuotes_CrossVMScenario(t *testing.T) {
	agg := New(defaultRegistry(t), &fakeOracle{}, nil)

	quotes := agg.GetQuotes(context.Background(), solToEthRequest())
	require.NotEmpty(t, quotes)

	// wormhole has the lowest fee rate of the solana-capable protocols
	first := quotes[0]
	assert.Equal(t, "wormhole", first.ProtocolID)
	assert.InDelta(t, 0.0025, first.Fee, 1e-12)          // 2.5 * 0.1%
	assert.InDelta(t, 0.998, first.ExchangeRate, 1e-12)  // SVM -> EVM
	assert.InDelta(t, (2.5-0.0025)*0.998, first.ToAmount, 1e-9)

	// quotes come back sorted ascending by fee
	for i := 1; i < len(quotes); i++ {
		assert.GreaterOrEqual(t, quotes[i].Fee, quotes[i-1].Fee)
	}

	// every quote satisfies the derived invariant
	for _, q := range quotes {
		assert.InDelta(t, (q.FromAmount-q.Fee)*q.ExchangeRate, q.ToAmount, 1e-9, q.ProtocolID)
		assert.Greater(t, q.ExchangeRate, 0.0)
		assert.LessOrEqual(t, q.ExchangeRate, 1.0)
	}
}

func TestGetQuotes_SkipsIncapableProtocols(t *testing.T) {
	agg := New(defaultRegistry(t), &fakeOracle{}, nil)

	quotes := agg.GetQuotes(context.Background(), solToEthRequest())
	for _, q := range quotes {
		// stargate and axelar are EVM-only; neither may quote an SVM source
		assert.NotEqual(t, "stargate", q.ProtocolID)
		assert.NotEqual(t, "axelar", q.ProtocolID)
	}
}

func TestGetQuotes_OversizedAmountProducesNoQuote(t *testing.T) {
	agg := New(defaultRegistry(t), &fakeOracle{}, nil)

	req := solToEthRequest()
	req.Amount = 1_000_000_000 // above every protocol's maximum

	assert.Empty(t, agg.GetQuotes(context.Background(), req))
}

func TestGetQuotes_SameVMRate(t *testing.T) {
	agg := New(defaultRegistry(t), &fakeOracle{}, nil)

	req := model.TransferRequest{
		FromChain:        types.ChainEthereum,
		ToChain:          types.ChainArbitrum,
		Token:            "USDC",
		Amount:           100,
		RecipientAddress: "0x742d35Cc6634C0532925a3b844Bc9e7595f2d8b6",
	}

	quotes := agg.GetQuotes(context.Background(), req)
	require.NotEmpty(t, quotes)
	for _, q := range quotes {
		assert.InDelta(t, 0.999, q.ExchangeRate, 1e-12, q.ProtocolID)
	}
}

func TestGetEnhancedQuotes_ClampsImpactAndUtilization(t *testing.T) {
	// a protocol with tiny liquidity so the transfer dwarfs the pool
	desc := &registry.Descriptor{
		ID:              "wormhole",
		DisplayName:     "Wormhole",
		SupportedChains: []types.ChainID{types.ChainEthereum, types.ChainPolygon},
		SupportedTokens: map[types.ChainID][]types.TokenSymbol{
			types.ChainEthereum: {"USDC"},
			types.ChainPolygon:  {"USDC"},
		},
		FeeRate:          0.001,
		MinAmount:        1,
		MaxAmount:        1_000_000,
		EstimatedTimeMin: 5 * time.Minute,
		EstimatedTimeMax: 15 * time.Minute,
		ConfirmationsRequired: map[types.ChainID]int{
			types.ChainEthereum: 12,
			types.ChainPolygon:  64,
		},
		LiquidityDepth: 100,
	}
	reg, err := registry.Load([]*registry.Descriptor{desc})
	require.NoError(t, err)

	agg := New(reg, &fakeOracle{}, nil)
	req := model.TransferRequest{
		FromChain:        types.ChainEthereum,
		ToChain:          types.ChainPolygon,
		Token:            "USDC",
		Amount:           1000, // 10x the liquidity depth
		RecipientAddress: "0x742d35Cc6634C0532925a3b844Bc9e7595f2d8b6",
	}

	quotes := agg.GetEnhancedQuotes(context.Background(), req, model.QuoteOptions{})
	require.Len(t, quotes, 1)
	assert.Equal(t, 5.0, quotes[0].PriceImpactPct)
	assert.Equal(t, 100.0, quotes[0].LiquidityUtilizationPct)
}

func TestGetEnhancedQuotes_ConfidenceScoring(t *testing.T) {
	agg := New(defaultRegistry(t), &fakeOracle{}, nil)

	req := model.TransferRequest{
		FromChain:        types.ChainEthereum,
		ToChain:          types.ChainArbitrum,
		Token:            "USDC",
		Amount:           100,
		RecipientAddress: "0x742d35Cc6634C0532925a3b844Bc9e7595f2d8b6",
	}

	quotes := agg.GetEnhancedQuotes(context.Background(), req, model.QuoteOptions{})
	require.NotEmpty(t, quotes)

	byProtocol := map[string]model.EnhancedQuote{}
	for _, q := range quotes {
		byProtocol[q.ProtocolID] = q
		assert.GreaterOrEqual(t, q.ConfidenceScore, 0)
		assert.LessOrEqual(t, q.ConfidenceScore, 100)
	}

	// stargate: 70 base + 10 gas optimized + 15 deep liquidity + 5 low fee
	require.Contains(t, byProtocol, "stargate")
	assert.Equal(t, 100, byProtocol["stargate"].ConfidenceScore)

	// wormhole: 70 base + 15 deep liquidity, fee rate not below 0.1%
	require.Contains(t, byProtocol, "wormhole")
	assert.Equal(t, 85, byProtocol["wormhole"].ConfidenceScore)
}

func TestGetEnhancedQuotes_HubRoute(t *testing.T) {
	agg := New(defaultRegistry(t), &fakeOracle{}, nil)

	req := model.TransferRequest{
		FromChain:        types.ChainPolygon,
		ToChain:          types.ChainArbitrum,
		Token:            "USDC",
		Amount:           100,
		RecipientAddress: "0x742d35Cc6634C0532925a3b844Bc9e7595f2d8b6",
	}

	quotes := agg.GetEnhancedQuotes(context.Background(), req, model.QuoteOptions{})
	require.NotEmpty(t, quotes)

	for _, q := range quotes {
		switch q.ProtocolID {
		case "axelar":
			// non-hub endpoints settle through the ethereum hub
			assert.Equal(t, []types.ChainID{types.ChainPolygon, types.ChainEthereum, types.ChainArbitrum}, q.Route)
		default:
			assert.Equal(t, []types.ChainID{types.ChainPolygon, types.ChainArbitrum}, q.Route)
		}
	}
}

func TestGetEnhancedQuotes_GasFallbacks(t *testing.T) {
	oracle := &fakeOracle{
		price:    func(types.ChainID) (float64, error) { return 0, fmt.Errorf("oracle down") },
		gasLimit: func(string) (uint64, error) { return 0, fmt.Errorf("oracle down") },
	}
	agg := New(defaultRegistry(t), oracle, nil)

	quotes := agg.GetEnhancedQuotes(context.Background(), solToEthRequest(), model.QuoteOptions{})
	require.NotEmpty(t, quotes)
	for _, q := range quotes {
		// hard-coded fallbacks keep gas cost positive; enhancement never fails
		assert.Greater(t, q.GasCost, 0.0, q.ProtocolID)
		assert.InDelta(t, q.Fee+q.GasCost, q.TotalCost, 1e-12)
	}
}

func TestGetEnhancedQuotes_RankingStrategies(t *testing.T) {
	agg := New(defaultRegistry(t), &fakeOracle{}, nil)
	req := model.TransferRequest{
		FromChain:        types.ChainEthereum,
		ToChain:          types.ChainPolygon,
		Token:            "USDC",
		Amount:           100,
		RecipientAddress: "0x742d35Cc6634C0532925a3b844Bc9e7595f2d8b6",
	}
	ctx := context.Background()

	bySpeed := agg.GetEnhancedQuotes(ctx, req, model.QuoteOptions{PrioritizeSpeed: true})
	require.NotEmpty(t, bySpeed)
	for i := 1; i < len(bySpeed); i++ {
		assert.GreaterOrEqual(t, bySpeed[i].EstimatedTime.Midpoint(), bySpeed[i-1].EstimatedTime.Midpoint())
	}
	assert.Equal(t, "stargate", bySpeed[0].ProtocolID)

	byCost := agg.GetEnhancedQuotes(ctx, req, model.QuoteOptions{PrioritizeCost: true})
	for i := 1; i < len(byCost); i++ {
		assert.GreaterOrEqual(t, byCost[i].TotalCost, byCost[i-1].TotalCost)
	}

	balanced := agg.GetEnhancedQuotes(ctx, req, model.QuoteOptions{})
	for i := 1; i < len(balanced); i++ {
		assert.GreaterOrEqual(t, overallScore(balanced[i-1]), overallScore(balanced[i]))
	}
}

func TestGetEnhancedQuotes_Deterministic(t *testing.T) {
	agg := New(defaultRegistry(t), &fakeOracle{}, nil)
	req := model.TransferRequest{
		FromChain:        types.ChainEthereum,
		ToChain:          types.ChainPolygon,
		Token:            "USDC",
		Amount:           100,
		RecipientAddress: "0x742d35Cc6634C0532925a3b844Bc9e7595f2d8b6",
	}
	ctx := context.Background()

	first := agg.GetEnhancedQuotes(ctx, req, model.QuoteOptions{})
	second := agg.GetEnhancedQuotes(ctx, req, model.QuoteOptions{})
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ProtocolID, second[i].ProtocolID, "position %d", i)
	}
}

func TestGetEnhancedQuotes_TiesFallBackToRegistrationOrder(t *testing.T) {
	// two protocols with identical economics so every ranking input ties
	makeDesc := func(id string) *registry.Descriptor {
		return &registry.Descriptor{
			ID:              id,
			DisplayName:     id,
			SupportedChains: []types.ChainID{types.ChainEthereum, types.ChainPolygon},
			SupportedTokens: map[types.ChainID][]types.TokenSymbol{
				types.ChainEthereum: {"USDC"},
				types.ChainPolygon:  {"USDC"},
			},
			FeeRate:          0.001,
			MinAmount:        1,
			MaxAmount:        1_000_000,
			EstimatedTimeMin: 5 * time.Minute,
			EstimatedTimeMax: 15 * time.Minute,
			ConfirmationsRequired: map[types.ChainID]int{
				types.ChainEthereum: 12,
				types.ChainPolygon:  64,
			},
			LiquidityDepth: 10_000_000,
		}
	}
	req := model.TransferRequest{
		FromChain:        types.ChainEthereum,
		ToChain:          types.ChainPolygon,
		Token:            "USDC",
		Amount:           100,
		RecipientAddress: "0x742d35Cc6634C0532925a3b844Bc9e7595f2d8b6",
	}
	ctx := context.Background()

	for _, order := range [][]string{{"stargate", "wormhole"}, {"wormhole", "stargate"}} {
		reg, err := registry.Load([]*registry.Descriptor{makeDesc(order[0]), makeDesc(order[1])})
		require.NoError(t, err)

		agg := New(reg, &fakeOracle{}, nil)
		quotes := agg.GetEnhancedQuotes(ctx, req, model.QuoteOptions{})
		require.Len(t, quotes, 2)
		assert.Equal(t, order[0], quotes[0].ProtocolID)
		assert.Equal(t, order[1], quotes[1].ProtocolID)
	}
}

func TestGetEnhancedQuotes_OracleFailureTripsBreaker(t *testing.T) {
	breaker := circuitbreaker.New(circuitbreaker.Options{
		FailureThreshold: 2,
		CooldownPeriod:   time.Hour,
	})
	oracle := &fakeOracle{
		price: func(types.ChainID) (float64, error) { return 0, fmt.Errorf("oracle down") },
	}
	agg := New(defaultRegistry(t), oracle, breaker)
	ctx := context.Background()

	// fallback prices keep the first rounds quoting while failures accrue
	first := agg.GetEnhancedQuotes(ctx, solToEthRequest(), model.QuoteOptions{})
	require.NotEmpty(t, first)
	agg.GetEnhancedQuotes(ctx, solToEthRequest(), model.QuoteOptions{})

	for _, q := range first {
		assert.Equal(t, circuitbreaker.StateOpen, breaker.StateOf(q.ProtocolID), q.ProtocolID)
	}

	// tripped protocols drop out of aggregation until the cooldown elapses
	assert.Empty(t, agg.GetEnhancedQuotes(ctx, solToEthRequest(), model.QuoteOptions{}))
}

func TestGetEnhancedQuotes_OracleRecoveryResetsBreaker(t *testing.T) {
	breaker := circuitbreaker.New(circuitbreaker.Options{
		FailureThreshold: 3,
		CooldownPeriod:   time.Hour,
	})
	fail := true
	oracle := &fakeOracle{
		price: func(types.ChainID) (float64, error) {
			if fail {
				return 0, fmt.Errorf("oracle down")
			}
			return 30, nil
		},
	}
	agg := New(defaultRegistry(t), oracle, breaker)
	ctx := context.Background()

	quotes := agg.GetEnhancedQuotes(ctx, solToEthRequest(), model.QuoteOptions{})
	require.NotEmpty(t, quotes)
	agg.GetEnhancedQuotes(ctx, solToEthRequest(), model.QuoteOptions{})

	// a clean round clears the accumulated failures
	fail = false
	agg.GetEnhancedQuotes(ctx, solToEthRequest(), model.QuoteOptions{})

	// two more failures stay below the threshold only because of the reset
	fail = true
	agg.GetEnhancedQuotes(ctx, solToEthRequest(), model.QuoteOptions{})
	agg.GetEnhancedQuotes(ctx, solToEthRequest(), model.QuoteOptions{})

	for _, q := range quotes {
		assert.Equal(t, circuitbreaker.StateClosed, breaker.StateOf(q.ProtocolID), q.ProtocolID)
	}
}

func TestGetQuotes_BreakerSkipsOpenProtocols(t *testing.T) {
	breaker := circuitbreaker.New(circuitbreaker.Options{
		FailureThreshold: 1,
		CooldownPeriod:   time.Hour,
	})
	breaker.RecordFailure("wormhole", fmt.Errorf("adapter timeout"))
	require.Equal(t, circuitbreaker.StateOpen, breaker.StateOf("wormhole"))

	agg := New(defaultRegistry(t), &fakeOracle{}, breaker)
	quotes := agg.GetQuotes(context.Background(), solToEthRequest())
	for _, q := range quotes {
		assert.NotEqual(t, "wormhole", q.ProtocolID)
	}
}
