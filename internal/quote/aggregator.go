// Package quote aggregates transfer quotes across all eligible bridge
// protocols and ranks them under a selectable optimization strategy.
package quote

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/params"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yourorg/bridge-orchestrator/internal/chain"
	"github.com/yourorg/bridge-orchestrator/internal/circuitbreaker"
	"github.com/yourorg/bridge-orchestrator/internal/model"
	"github.com/yourorg/bridge-orchestrator/internal/otel"
	"github.com/yourorg/bridge-orchestrator/internal/protocol"
	"github.com/yourorg/bridge-orchestrator/internal/registry"
	"github.com/yourorg/bridge-orchestrator/internal/types"
)

// Confidence scoring weights
const (
	confidenceBase          = 70
	confidenceGasOptimized  = 10
	confidenceDeepLiquidity = 15
	confidenceLowFee        = 5

	deepLiquidityThreshold = 50_000_000
	lowFeeThreshold        = 0.001 // 0.1%

	maxPriceImpactPct  = 5
	maxUtilizationPct  = 100
	maxConfidenceScore = 100
)

// Default strategy weights
const (
	weightCost       = 0.4
	weightTime       = 0.3
	weightConfidence = 0.3
)

// ErrNotEligible marks quote failures caused by the request rather than
// the protocol: unsupported pair, missing token, amount outside bounds.
// These skip the protocol silently and never count against its circuit.
var ErrNotEligible = errors.New("protocol not eligible for request")

// Aggregator computes and ranks quotes across the protocol registry
type Aggregator struct {
	registry *registry.Registry
	oracle   chain.GasOracle
	breaker  *circuitbreaker.CircuitBreaker
}

// New creates an Aggregator. The breaker may be nil to disable protocol
// circuit breaking.
func New(reg *registry.Registry, oracle chain.GasOracle, breaker *circuitbreaker.CircuitBreaker) *Aggregator {
	return &Aggregator{registry: reg, oracle: oracle, breaker: breaker}
}

// GetQuotes computes a basic quote from every eligible protocol, sorted
// ascending by fee. A protocol whose quote computation fails is skipped
// and logged; partial results are valid results.
func (a *Aggregator) GetQuotes(ctx context.Context, req model.TransferRequest) []model.Quote {
	quotes := a.eligibleQuotes(ctx, req)

	sort.SliceStable(quotes, func(i, j int) bool {
		return quotes[i].Fee < quotes[j].Fee
	})
	return quotes
}

// eligibleQuotes computes one basic quote per eligible protocol, preserving
// registration order so downstream ranking breaks ties on it
func (a *Aggregator) eligibleQuotes(ctx context.Context, req model.TransferRequest) []model.Quote {
	var quotes []model.Quote

	for _, desc := range a.registry.ListEligible(req.FromChain, req.ToChain) {
		if a.breaker != nil && !a.breaker.Allow(desc.ID) {
			logrus.WithField("protocol", desc.ID).Debug("Protocol circuit open, skipping quote")
			continue
		}

		q, err := a.basicQuote(req, desc)
		switch {
		case errors.Is(err, ErrNotEligible):
			logrus.WithFields(logrus.Fields{
				"protocol": desc.ID,
				"reason":   err,
			}).Debug("Protocol not eligible for request")
			continue
		case err != nil:
			logrus.WithFields(logrus.Fields{
				"protocol": desc.ID,
				"error":    err,
			}).Warn("Skipping protocol quote")
			if a.breaker != nil {
				a.breaker.RecordFailure(desc.ID, err)
			}
			continue
		}
		quotes = append(quotes, q)
	}
	return quotes
}

// basicQuote computes one protocol's quote with the deterministic fee and
// rate formula
func (a *Aggregator) basicQuote(req model.TransferRequest, desc *registry.Descriptor) (model.Quote, error) {
	variant, err := protocol.ForID(desc.ID)
	if err != nil {
		return model.Quote{}, err
	}

	fromVM, ok := types.VMOf(req.FromChain)
	if !ok {
		return model.Quote{}, fmt.Errorf("%w: unknown source chain %q", ErrNotEligible, req.FromChain)
	}
	toVM, ok := types.VMOf(req.ToChain)
	if !ok {
		return model.Quote{}, fmt.Errorf("%w: unknown destination chain %q", ErrNotEligible, req.ToChain)
	}
	if !variant.SupportsVMPair(fromVM, toVM) {
		return model.Quote{}, fmt.Errorf("%w: %s cannot bridge %s to %s", ErrNotEligible, desc.ID, fromVM, toVM)
	}
	if !desc.SupportsToken(req.FromChain, req.Token) || !desc.SupportsToken(req.ToChain, req.Token) {
		return model.Quote{}, fmt.Errorf("%w: %s does not carry %s on this pair", ErrNotEligible, desc.ID, req.Token)
	}
	if req.Amount <= 0 || math.IsNaN(req.Amount) || math.IsInf(req.Amount, 0) {
		return model.Quote{}, fmt.Errorf("%w: amount %v is not a positive finite number", ErrNotEligible, req.Amount)
	}
	if req.Amount < desc.MinAmount {
		return model.Quote{}, fmt.Errorf("%w: amount %v below protocol minimum %v", ErrNotEligible, req.Amount, desc.MinAmount)
	}
	if req.Amount > desc.MaxAmount {
		return model.Quote{}, fmt.Errorf("%w: amount %v exceeds protocol maximum %v", ErrNotEligible, req.Amount, desc.MaxAmount)
	}

	fee := req.Amount * desc.FeeRate
	rate := RateFor(fromVM, toVM)
	tmin, tmax := desc.EstimatedTime()

	return model.Quote{
		ProtocolID:    desc.ID,
		FromAmount:    req.Amount,
		ToAmount:      (req.Amount - fee) * rate,
		Fee:           fee,
		ExchangeRate:  rate,
		EstimatedTime: model.TimeRange{Min: tmin, Max: tmax},
	}, nil
}

// GetEnhancedQuotes extends every basic quote with gas cost, price impact,
// liquidity utilization, confidence and route, then ranks them under the
// requested strategy. Gas lookups fan out concurrently so total latency is
// bounded by the slowest single protocol, not the sum.
func (a *Aggregator) GetEnhancedQuotes(ctx context.Context, req model.TransferRequest, opts model.QuoteOptions) []model.EnhancedQuote {
	ctx, span := otel.Tracer().Start(ctx, "quote.GetEnhancedQuotes")
	defer span.End()

	basic := a.eligibleQuotes(ctx, req)
	span.SetAttributes(
		attribute.String("from_chain", string(req.FromChain)),
		attribute.String("to_chain", string(req.ToChain)),
		attribute.Int("eligible_protocols", len(basic)),
	)

	enhanced := make([]model.EnhancedQuote, len(basic))
	var wg sync.WaitGroup
	for i, q := range basic {
		wg.Add(1)
		go func(i int, q model.Quote) {
			defer wg.Done()
			enhanced[i] = a.enhance(ctx, req, q)
		}(i, q)
	}
	wg.Wait()

	rank(enhanced, opts)
	return enhanced
}

// enhance overlays one basic quote with cost and risk estimates. It never
// fails: every collaborator lookup has a hard-coded fallback. Oracle errors
// still count against the protocol's circuit so a persistently broken
// oracle takes the protocol out of aggregation instead of silently quoting
// on fallbacks forever.
func (a *Aggregator) enhance(ctx context.Context, req model.TransferRequest, q model.Quote) model.EnhancedQuote {
	desc, _ := a.registry.Get(q.ProtocolID)
	variant, _ := protocol.ForID(q.ProtocolID)

	gasPrice, priceErr := a.oracle.OptimalGasPrice(ctx, req.FromChain)
	if priceErr != nil || gasPrice <= 0 {
		gasPrice = chain.FallbackGasPrice(req.FromChain)
	}

	gasLimit, limitErr := a.oracle.EstimatedGasLimit(ctx, q.ProtocolID)
	if limitErr != nil || gasLimit == 0 {
		gasLimit = variant.FallbackGasLimit()
	}

	oracleErr := priceErr
	if oracleErr == nil {
		oracleErr = limitErr
	}
	if oracleErr != nil {
		otel.RecordError(ctx, oracleErr)
	}
	if a.breaker != nil {
		if oracleErr != nil {
			a.breaker.RecordFailure(q.ProtocolID, oracleErr)
		} else {
			a.breaker.RecordSuccess(q.ProtocolID)
		}
	}

	// gas price is quoted in gwei; cost is reported in native units
	gasCost := gasPrice * float64(gasLimit) / params.GWei

	utilization := req.Amount / desc.LiquidityDepth * 100
	priceImpact := utilization
	if priceImpact > maxPriceImpactPct {
		priceImpact = maxPriceImpactPct
	}
	if utilization > maxUtilizationPct {
		utilization = maxUtilizationPct
	}

	return model.EnhancedQuote{
		Quote:                   q,
		GasCost:                 gasCost,
		TotalCost:               q.Fee + gasCost,
		PriceImpactPct:          priceImpact,
		LiquidityUtilizationPct: utilization,
		ConfidenceScore:         confidenceFor(desc),
		Route:                   variant.Route(req.FromChain, req.ToChain),
	}
}

// confidenceFor scores a protocol's reliability from its descriptor
func confidenceFor(desc *registry.Descriptor) int {
	score := confidenceBase
	if desc.GasOptimized {
		score += confidenceGasOptimized
	}
	if desc.LiquidityDepth > deepLiquidityThreshold {
		score += confidenceDeepLiquidity
	}
	if desc.FeeRate < lowFeeThreshold {
		score += confidenceLowFee
	}
	if score > maxConfidenceScore {
		score = maxConfidenceScore
	}
	return score
}

// rank orders enhanced quotes under the requested strategy. Sorting is
// stable so ties fall back to registration order and identical inputs
// always yield identical ordering.
func rank(quotes []model.EnhancedQuote, opts model.QuoteOptions) {
	switch {
	case opts.PrioritizeSpeed:
		sort.SliceStable(quotes, func(i, j int) bool {
			return quotes[i].EstimatedTime.Midpoint() < quotes[j].EstimatedTime.Midpoint()
		})
	case opts.PrioritizeCost:
		sort.SliceStable(quotes, func(i, j int) bool {
			return quotes[i].TotalCost < quotes[j].TotalCost
		})
	default:
		sort.SliceStable(quotes, func(i, j int) bool {
			return overallScore(quotes[i]) > overallScore(quotes[j])
		})
	}
}

// overallScore blends cost, time and confidence for the default strategy
func overallScore(q model.EnhancedQuote) float64 {
	costScore := 100 - q.TotalCost*10
	timeScore := 100 - q.EstimatedTime.Midpoint().Minutes()
	return weightCost*costScore + weightTime*timeScore + weightConfidence*float64(q.ConfidenceScore)
}
