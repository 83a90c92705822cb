package chain

import (
	"regexp"

	"github.com/ethereum/go-ethereum/common"

	"github.com/yourorg/bridge-orchestrator/internal/types"
)

// Base58 alphabet, no 0/O/I/l. Solana addresses are 32-44 characters.
var solanaAddressRe = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{32,44}$`)

// Aptos addresses are 0x-prefixed hex up to 64 nibbles
var aptosAddressRe = regexp.MustCompile(`^0x[0-9a-fA-F]{1,64}$`)

// ValidAddressFormat checks an address against the chain family's format.
// This is the default implementation adapters embed; a full adapter may
// additionally verify checksums or on-chain existence.
func ValidAddressFormat(chain types.ChainID, address string) bool {
	vm, ok := types.VMOf(chain)
	if !ok {
		return false
	}
	switch vm {
	case types.VMEVM:
		return common.IsHexAddress(address)
	case types.VMSVM:
		return solanaAddressRe.MatchString(address)
	case types.VMMove:
		return aptosAddressRe.MatchString(address)
	default:
		return false
	}
}
