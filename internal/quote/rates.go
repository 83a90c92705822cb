package quote

import (
	"github.com/yourorg/bridge-orchestrator/internal/types"
)

// Exchange rates by VM pair. Cross-family bridging loses more to wrapping
// and relayer spread than same-family bridging. These are fixed heuristics,
// not live slippage curves; real per-transfer slippage is reflected only
// through the liquidity-utilization estimate.
const (
	rateSameVM   = 0.999
	rateEVMSVM   = 0.998
	rateMovePair = 0.997
)

// RateFor returns the exchange rate for a VM pair, always in (0,1]
func RateFor(from, to types.VMKind) float64 {
	if from == to {
		return rateSameVM
	}
	if from == types.VMMove || to == types.VMMove {
		return rateMovePair
	}
	return rateEVMSVM
}
