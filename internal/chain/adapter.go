// Package chain defines the collaborator contracts the engine depends on:
// per-chain adapters for address validation, broadcast and confirmation
// queries, and the gas price oracle. The engine never signs or validates
// addresses itself; custody and chain-format knowledge live behind these
// interfaces.
package chain

import (
	"context"

	"github.com/yourorg/bridge-orchestrator/internal/types"
)

// SigningContext is the caller's opaque signing material. The engine passes
// it through to the adapter unexamined; whether it is a single key or a
// threshold-signature session is not this engine's concern.
type SigningContext interface{}

// ConfirmationStatus is the adapter's view of a transaction's finality
type ConfirmationStatus struct {
	// Confirmed is true once the transaction is included in a block
	Confirmed bool

	// Depth is the number of blocks mined atop the transaction's block
	Depth int

	// BlockNumber is the inclusion height, zero when unknown
	BlockNumber uint64
}

// Adapter is the per-chain collaborator contract. Implementations wrap
// chain-specific RPC clients (EVM, Solana, Aptos); every method may block
// on network I/O and must honor the context.
type Adapter interface {
	// ValidateAddress reports whether the address is well-formed for the chain
	ValidateAddress(chain types.ChainID, address string) bool

	// SubmitSignedPayload signs and broadcasts a protocol payload on the
	// chain, returning the transaction hash
	SubmitSignedPayload(ctx context.Context, chain types.ChainID, payload []byte, signing SigningContext) (string, error)

	// GetTransactionConfirmations returns the confirmation status of a
	// previously broadcast transaction
	GetTransactionConfirmations(ctx context.Context, chain types.ChainID, txHash string) (ConfirmationStatus, error)

	// LookupDestinationTransaction finds the delivery transaction a bridge
	// protocol produced on the destination chain for a given source
	// transaction. found is false while the delivery is still pending.
	LookupDestinationTransaction(ctx context.Context, chain types.ChainID, sourceTxHash string) (txHash string, found bool, err error)
}

// GasOracle supplies current gas prices and per-protocol gas limit
// estimates. Implementations fall back to static defaults rather than
// returning an error where possible; callers treat any error as a signal
// to use their own hard-coded fallback.
type GasOracle interface {
	// OptimalGasPrice returns the recommended gas price for the chain, in
	// the chain's native gas unit (gwei for EVM chains)
	OptimalGasPrice(ctx context.Context, chain types.ChainID) (float64, error)

	// EstimatedGasLimit returns the expected gas limit of the protocol's
	// source-chain submission transaction
	EstimatedGasLimit(ctx context.Context, protocolID string) (uint64, error)
}
