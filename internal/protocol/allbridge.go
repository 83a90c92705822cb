package protocol

import (
	"encoding/json"

	"github.com/yourorg/bridge-orchestrator/internal/model"
	"github.com/yourorg/bridge-orchestrator/internal/types"
)

func init() { register(Allbridge{}) }

// Allbridge is the variant for the Allbridge liquidity bridge. It connects
// EVM and SVM chains in both directions but does not reach Move chains.
type Allbridge struct{}

// ID returns the protocol identifier
func (Allbridge) ID() string { return "allbridge" }

// SupportsVMPair reports Allbridge's directional capability
func (Allbridge) SupportsVMPair(from, to types.VMKind) bool {
	supported := func(vm types.VMKind) bool {
		return vm == types.VMEVM || vm == types.VMSVM
	}
	return supported(from) && supported(to)
}

// Route returns the direct path; Allbridge pools connect pairwise
func (Allbridge) Route(from, to types.ChainID) []types.ChainID {
	return directRoute(from, to)
}

type allbridgePayload struct {
	Op          string  `json:"op"`
	SourceToken string  `json:"source_token"`
	Amount      float64 `json:"amount"`
	DestChain   string  `json:"destination_chain"`
	Recipient   string  `json:"recipient"`
	Slippage    float64 `json:"slippage"`
}

// BuildPayload constructs the pool swapAndBridge payload
func (a Allbridge) BuildPayload(req model.TransferRequest, q model.Quote) ([]byte, error) {
	return json.Marshal(allbridgePayload{
		Op:          "swapAndBridge",
		SourceToken: string(req.Token),
		Amount:      req.Amount,
		DestChain:   string(req.ToChain),
		Recipient:   req.RecipientAddress,
		Slippage:    1 - q.ExchangeRate,
	})
}

// FallbackGasLimit is the typical swapAndBridge gas consumption
func (Allbridge) FallbackGasLimit() uint64 { return 180_000 }
