package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/yourorg/bridge-orchestrator/internal/model"
	"github.com/yourorg/bridge-orchestrator/internal/types"
)

func init() { register(Wormhole{}) }

// Wormhole is the variant for the Wormhole token bridge. It connects all
// supported VM families in both directions through guardian attestations.
type Wormhole struct{}

// ID returns the protocol identifier
func (Wormhole) ID() string { return "wormhole" }

// SupportsVMPair reports Wormhole's directional capability; all pairs are
// supported
func (Wormhole) SupportsVMPair(from, to types.VMKind) bool {
	return from != "" && to != ""
}

// Route returns the direct path; Wormhole needs no hub chain
func (Wormhole) Route(from, to types.ChainID) []types.ChainID {
	return directRoute(from, to)
}

// wormholePayload is the submission shape the chain adapter forwards to the
// Wormhole token bridge contract or program
type wormholePayload struct {
	Action     string  `json:"action"`
	Token      string  `json:"token"`
	Amount     float64 `json:"amount"`
	TargetWHID uint16  `json:"target_chain_id"`
	Recipient  string  `json:"recipient"`
}

// Wormhole's own chain numbering
var wormholeChainIDs = map[types.ChainID]uint16{
	types.ChainSolana:    1,
	types.ChainEthereum:  2,
	types.ChainBSC:       4,
	types.ChainPolygon:   5,
	types.ChainAvalanche: 6,
	types.ChainAptos:     22,
	types.ChainArbitrum:  23,
	types.ChainOptimism:  24,
	types.ChainBase:      30,
}

// BuildPayload constructs the transferTokens call payload
func (w Wormhole) BuildPayload(req model.TransferRequest, q model.Quote) ([]byte, error) {
	target, ok := wormholeChainIDs[req.ToChain]
	if !ok {
		return nil, fmt.Errorf("wormhole: no chain id mapping for %s", req.ToChain)
	}
	return json.Marshal(wormholePayload{
		Action:     "transferTokens",
		Token:      string(req.Token),
		Amount:     req.Amount,
		TargetWHID: target,
		Recipient:  req.RecipientAddress,
	})
}

// FallbackGasLimit is the typical transferTokens gas consumption
func (Wormhole) FallbackGasLimit() uint64 { return 150_000 }
