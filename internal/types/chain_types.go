// Package types contains shared type definitions used across multiple packages
package types

// ChainID identifies a blockchain network supported by the engine
type ChainID string

// Supported blockchain networks
const (
	ChainEthereum  ChainID = "ethereum"
	ChainPolygon   ChainID = "polygon"
	ChainArbitrum  ChainID = "arbitrum"
	ChainOptimism  ChainID = "optimism"
	ChainAvalanche ChainID = "avalanche"
	ChainBSC       ChainID = "binance"
	ChainBase      ChainID = "base"
	ChainSolana    ChainID = "solana"
	ChainAptos     ChainID = "aptos"
)

// TokenSymbol identifies a transferable asset on a chain
type TokenSymbol string

// VMKind is the execution-model family of a chain. Some bridge protocols
// only connect chains of the same family, and cross-family transfers
// carry a higher rate loss.
type VMKind string

// Known VM families
const (
	VMEVM  VMKind = "evm"
	VMSVM  VMKind = "svm"
	VMMove VMKind = "move"
)

// chainVMs maps every supported chain to its VM family
var chainVMs = map[ChainID]VMKind{
	ChainEthereum:  VMEVM,
	ChainPolygon:   VMEVM,
	ChainArbitrum:  VMEVM,
	ChainOptimism:  VMEVM,
	ChainAvalanche: VMEVM,
	ChainBSC:       VMEVM,
	ChainBase:      VMEVM,
	ChainSolana:    VMSVM,
	ChainAptos:     VMMove,
}

// VMOf returns the VM family for a chain and whether the chain is known
func VMOf(chain ChainID) (VMKind, bool) {
	vm, ok := chainVMs[chain]
	return vm, ok
}

// IsKnownChain reports whether the engine recognizes the chain at all
func IsKnownChain(chain ChainID) bool {
	_, ok := chainVMs[chain]
	return ok
}
