package protocol

import (
	"encoding/json"

	"github.com/yourorg/bridge-orchestrator/internal/model"
	"github.com/yourorg/bridge-orchestrator/internal/types"
)

func init() { register(Axelar{}) }

// Axelar is the variant for the Axelar gateway bridge. Transfers between
// two non-hub chains settle through the Ethereum hub, so routes between
// them are three hops.
type Axelar struct{}

// ID returns the protocol identifier
func (Axelar) ID() string { return "axelar" }

// SupportsVMPair restricts Axelar to EVM endpoints on both sides
func (Axelar) SupportsVMPair(from, to types.VMKind) bool {
	return from == types.VMEVM && to == types.VMEVM
}

// Route inserts the Ethereum hub between non-hub endpoints
func (Axelar) Route(from, to types.ChainID) []types.ChainID {
	return hubRoute(types.ChainEthereum, from, to)
}

type axelarPayload struct {
	Method           string  `json:"method"`
	DestinationChain string  `json:"destination_chain"`
	Symbol           string  `json:"symbol"`
	Amount           float64 `json:"amount"`
	DestinationAddr  string  `json:"destination_address"`
}

// BuildPayload constructs the sendToken gateway call payload
func (a Axelar) BuildPayload(req model.TransferRequest, q model.Quote) ([]byte, error) {
	return json.Marshal(axelarPayload{
		Method:           "sendToken",
		DestinationChain: string(req.ToChain),
		Symbol:           string(req.Token),
		Amount:           req.Amount,
		DestinationAddr:  req.RecipientAddress,
	})
}

// FallbackGasLimit covers the gateway call plus hub settlement overhead
func (Axelar) FallbackGasLimit() uint64 { return 200_000 }
