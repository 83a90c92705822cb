// Package protocol provides the per-protocol execution variants for the
// bridge engine. Each supported protocol implements the Protocol interface;
// new protocols are added by registering a new variant here, not by
// extending dispatch logic elsewhere.
package protocol

import (
	"fmt"

	"github.com/yourorg/bridge-orchestrator/internal/model"
	"github.com/yourorg/bridge-orchestrator/internal/types"
)

// Protocol is the common execution interface for every bridge protocol
// variant. Implementations are stateless and safe for concurrent use.
type Protocol interface {
	// ID returns the protocol identifier matching its registry descriptor
	ID() string

	// SupportsVMPair reports whether the protocol can move value from a
	// chain of the source family to a chain of the destination family.
	// Capability is directional: supporting SVM->EVM does not imply EVM->SVM.
	SupportsVMPair(from, to types.VMKind) bool

	// Route returns the ordered chain path for a transfer, inserting a hub
	// chain when the protocol cannot connect the endpoints directly
	Route(from, to types.ChainID) []types.ChainID

	// BuildPayload constructs the protocol-specific submission payload for
	// the source chain. The payload is opaque to the engine; only the
	// chain adapter interprets it.
	BuildPayload(req model.TransferRequest, q model.Quote) ([]byte, error)

	// FallbackGasLimit is the hard-coded gas limit estimate used when the
	// gas oracle cannot supply one
	FallbackGasLimit() uint64
}

// ForID returns the variant for a protocol id
func ForID(id string) (Protocol, error) {
	p, ok := variants[id]
	if !ok {
		return nil, fmt.Errorf("no protocol variant registered for %q", id)
	}
	return p, nil
}

// variants is the closed set of protocol implementations, keyed by id
var variants = map[string]Protocol{}

func register(p Protocol) {
	variants[p.ID()] = p
}

// directRoute is the common two-hop path shared by hub-less protocols
func directRoute(from, to types.ChainID) []types.ChainID {
	return []types.ChainID{from, to}
}

// hubRoute inserts the hub between non-hub endpoints
func hubRoute(hub, from, to types.ChainID) []types.ChainID {
	if from == hub || to == hub {
		return directRoute(from, to)
	}
	return []types.ChainID{from, hub, to}
}
