package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/yourorg/bridge-orchestrator/internal/model"
	"github.com/yourorg/bridge-orchestrator/internal/types"
)

func init() { register(Stargate{}) }

// Stargate is the variant for the Stargate liquidity-pool bridge. It only
// connects EVM chains.
type Stargate struct{}

// ID returns the protocol identifier
func (Stargate) ID() string { return "stargate" }

// SupportsVMPair restricts Stargate to EVM endpoints on both sides
func (Stargate) SupportsVMPair(from, to types.VMKind) bool {
	return from == types.VMEVM && to == types.VMEVM
}

// Route returns the direct path between the pool chains
func (Stargate) Route(from, to types.ChainID) []types.ChainID {
	return directRoute(from, to)
}

type stargatePayload struct {
	Function   string  `json:"function"`
	DstChainID uint16  `json:"dst_chain_id"`
	Token      string  `json:"token"`
	AmountLD   float64 `json:"amount_ld"`
	MinAmount  float64 `json:"min_amount_ld"`
	To         string  `json:"to"`
}

// LayerZero endpoint ids for the supported EVM chains
var stargateChainIDs = map[types.ChainID]uint16{
	types.ChainEthereum:  101,
	types.ChainBSC:       102,
	types.ChainAvalanche: 106,
	types.ChainPolygon:   109,
	types.ChainArbitrum:  110,
	types.ChainOptimism:  111,
	types.ChainBase:      184,
}

// BuildPayload constructs the swap call payload
func (s Stargate) BuildPayload(req model.TransferRequest, q model.Quote) ([]byte, error) {
	dst, ok := stargateChainIDs[req.ToChain]
	if !ok {
		return nil, fmt.Errorf("stargate: no endpoint id for %s", req.ToChain)
	}
	return json.Marshal(stargatePayload{
		Function:   "swap",
		DstChainID: dst,
		Token:      string(req.Token),
		AmountLD:   req.Amount,
		MinAmount:  q.ToAmount,
		To:         req.RecipientAddress,
	})
}

// FallbackGasLimit reflects Stargate's batched settlement path
func (Stargate) FallbackGasLimit() uint64 { return 90_000 }
